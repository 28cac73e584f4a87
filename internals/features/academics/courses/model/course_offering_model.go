package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CourseOfferingModel is a course scheduled for one examination session of a program.
// Older rows only carry CourseOfferingCourseID; newer ones point at the curriculum mapping.
type CourseOfferingModel struct {
	CourseOfferingID                   uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey;column:course_offering_id" json:"course_offering_id"`
	CourseOfferingInstitutionID        uuid.UUID  `gorm:"type:uuid;not null;index:idx_course_offering_scope,priority:1;column:course_offering_institution_id" json:"course_offering_institution_id"`
	CourseOfferingExaminationSessionID uuid.UUID  `gorm:"type:uuid;not null;index:idx_course_offering_scope,priority:2;column:course_offering_examination_session_id" json:"course_offering_examination_session_id"`
	CourseOfferingProgramID            uuid.UUID  `gorm:"type:uuid;not null;index:idx_course_offering_scope,priority:3;column:course_offering_program_id" json:"course_offering_program_id"`
	CourseOfferingCourseMappingID      *uuid.UUID `gorm:"type:uuid;column:course_offering_course_mapping_id" json:"course_offering_course_mapping_id,omitempty"`
	CourseOfferingCourseID             *uuid.UUID `gorm:"type:uuid;column:course_offering_course_id" json:"course_offering_course_id,omitempty"`

	CourseOfferingIsActive bool `gorm:"not null;default:true;column:course_offering_is_active" json:"course_offering_is_active"`

	CourseOfferingCreatedAt time.Time      `gorm:"type:timestamptz;not null;autoCreateTime;column:course_offering_created_at" json:"course_offering_created_at"`
	CourseOfferingUpdatedAt time.Time      `gorm:"type:timestamptz;not null;autoUpdateTime;column:course_offering_updated_at" json:"course_offering_updated_at"`
	CourseOfferingDeletedAt gorm.DeletedAt `gorm:"column:course_offering_deleted_at;index" json:"course_offering_deleted_at,omitempty"`
}

func (CourseOfferingModel) TableName() string { return "course_offerings" }
