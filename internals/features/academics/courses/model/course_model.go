// file: internals/features/academics/courses/model/course_model.go
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CourseModel carries the evaluation configuration of a course. The grading engine only reads it.
type CourseModel struct {
	// ============ PK & Tenant ============
	CourseID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey;column:course_id" json:"course_id"`
	CourseInstitutionID uuid.UUID `gorm:"type:uuid;not null;index;column:course_institution_id" json:"course_institution_id"`

	// ============ Identity ============
	CourseCode string `gorm:"type:varchar(40);not null;column:course_code" json:"course_code"`
	CourseName string `gorm:"type:text;not null;column:course_name" json:"course_name"`

	// Example: "CIA", "ESE", "CIA & ESE", "CIA_ONLY"
	CourseEvaluationType string `gorm:"type:varchar(40);not null;column:course_evaluation_type" json:"course_evaluation_type"`

	// ============ Marks configuration ============
	CourseInternalMaxMark  float64 `gorm:"type:numeric(6,2);not null;default:0;column:course_internal_max_mark" json:"course_internal_max_mark"`
	CourseExternalMaxMark  float64 `gorm:"type:numeric(6,2);not null;default:0;column:course_external_max_mark" json:"course_external_max_mark"`
	CourseTotalMaxMark     float64 `gorm:"type:numeric(6,2);not null;default:0;column:course_total_max_mark" json:"course_total_max_mark"`
	CourseInternalPassMark float64 `gorm:"type:numeric(6,2);not null;default:0;column:course_internal_pass_mark" json:"course_internal_pass_mark"`
	CourseExternalPassMark float64 `gorm:"type:numeric(6,2);not null;default:0;column:course_external_pass_mark" json:"course_external_pass_mark"`
	CourseTotalPassMark    float64 `gorm:"type:numeric(6,2);not null;default:0;column:course_total_pass_mark" json:"course_total_pass_mark"`
	CourseCredit           float64 `gorm:"type:numeric(4,1);not null;default:0;column:course_credit" json:"course_credit"`

	CourseIsActive bool `gorm:"not null;default:true;column:course_is_active" json:"course_is_active"`

	// ============ Audit / Soft delete ============
	CourseCreatedAt time.Time      `gorm:"type:timestamptz;not null;autoCreateTime;column:course_created_at" json:"course_created_at"`
	CourseUpdatedAt time.Time      `gorm:"type:timestamptz;not null;autoUpdateTime;column:course_updated_at" json:"course_updated_at"`
	CourseDeletedAt gorm.DeletedAt `gorm:"column:course_deleted_at;index" json:"course_deleted_at,omitempty"`
}

func (CourseModel) TableName() string { return "courses" }

func (m *CourseModel) BeforeSave(tx *gorm.DB) error {
	m.CourseCode = strings.TrimSpace(m.CourseCode)
	m.CourseName = strings.TrimSpace(m.CourseName)
	m.CourseEvaluationType = strings.TrimSpace(m.CourseEvaluationType)
	return nil
}

// CourseMappingModel links a course into a program/regulation curriculum.
type CourseMappingModel struct {
	CourseMappingID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey;column:course_mapping_id" json:"course_mapping_id"`
	CourseMappingInstitutionID uuid.UUID  `gorm:"type:uuid;not null;index;column:course_mapping_institution_id" json:"course_mapping_institution_id"`
	CourseMappingCourseID      uuid.UUID  `gorm:"type:uuid;not null;index;column:course_mapping_course_id" json:"course_mapping_course_id"`
	CourseMappingProgramID     uuid.UUID  `gorm:"type:uuid;not null;column:course_mapping_program_id" json:"course_mapping_program_id"`
	CourseMappingRegulationID  *uuid.UUID `gorm:"type:uuid;column:course_mapping_regulation_id" json:"course_mapping_regulation_id,omitempty"`
	CourseMappingSemester      *int       `gorm:"column:course_mapping_semester" json:"course_mapping_semester,omitempty"`

	CourseMappingCreatedAt time.Time      `gorm:"type:timestamptz;not null;autoCreateTime;column:course_mapping_created_at" json:"course_mapping_created_at"`
	CourseMappingUpdatedAt time.Time      `gorm:"type:timestamptz;not null;autoUpdateTime;column:course_mapping_updated_at" json:"course_mapping_updated_at"`
	CourseMappingDeletedAt gorm.DeletedAt `gorm:"column:course_mapping_deleted_at;index" json:"course_mapping_deleted_at,omitempty"`
}

func (CourseMappingModel) TableName() string { return "course_mapping" }
