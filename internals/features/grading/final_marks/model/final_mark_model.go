// file: internals/features/grading/final_marks/model/final_mark_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Result statuses. Generation always writes Draft; review screens move rows forward.
const (
	ResultStatusDraft     = "Draft"
	ResultStatusPending   = "Pending"
	ResultStatusPublished = "Published"
)

// FinalMarkModel is one computed result for (institution, exam registration, course offering).
//
// Conflict target for upserts is uq_final_mark_registration. uq_final_mark_student_course_session
// also exists but is never used as the conflict target.
type FinalMarkModel struct {
	// ============ PK & Tenant ============
	FinalMarkID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey;column:final_mark_id" json:"final_mark_id"`
	FinalMarkInstitutionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_final_mark_registration,priority:1;column:final_mark_institution_id" json:"final_mark_institution_id"`

	// ============ Scope ============
	FinalMarkExaminationSessionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_final_mark_student_course_session,priority:3;column:final_mark_examination_session_id" json:"final_mark_examination_session_id"`
	FinalMarkProgramID            uuid.UUID `gorm:"type:uuid;not null;index;column:final_mark_program_id" json:"final_mark_program_id"`
	FinalMarkProgramCode          string    `gorm:"type:varchar(40);not null;default:'';column:final_mark_program_code" json:"final_mark_program_code"`

	// ============ Keys ============
	FinalMarkExamRegistrationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_final_mark_registration,priority:2;column:final_mark_exam_registration_id" json:"final_mark_exam_registration_id"`
	FinalMarkCourseOfferingID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_final_mark_registration,priority:3;column:final_mark_course_offering_id" json:"final_mark_course_offering_id"`
	FinalMarkCourseID           uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uq_final_mark_student_course_session,priority:2;column:final_mark_course_id" json:"final_mark_course_id"`
	FinalMarkStudentID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_final_mark_student_course_session,priority:1;column:final_mark_student_id" json:"final_mark_student_id"`
	FinalMarkRegisterNo         string    `gorm:"type:varchar(40);not null;default:'';column:final_mark_register_no" json:"final_mark_register_no"`

	// CIA-only rows without an exam registration: registration id is name-based, the
	// registration the internal mark was entered against is kept for traceability.
	FinalMarkIsSynthetic          bool       `gorm:"not null;default:false;column:final_mark_is_synthetic" json:"final_mark_is_synthetic"`
	FinalMarkSourceRegistrationID *uuid.UUID `gorm:"type:uuid;column:final_mark_source_registration_id" json:"final_mark_source_registration_id,omitempty"`

	// ============ Marks ============
	FinalMarkInternalMarks *float64 `gorm:"type:numeric(6,2);column:final_mark_internal_marks" json:"final_mark_internal_marks,omitempty"`
	FinalMarkExternalMarks *float64 `gorm:"type:numeric(6,2);column:final_mark_external_marks" json:"final_mark_external_marks,omitempty"`
	FinalMarkTotalMarks    float64  `gorm:"type:numeric(6,2);not null;default:0;column:final_mark_total_marks" json:"final_mark_total_marks"`
	FinalMarkMaxMarks      float64  `gorm:"type:numeric(6,2);not null;default:0;column:final_mark_max_marks" json:"final_mark_max_marks"`
	FinalMarkPercentage    float64  `gorm:"type:numeric(5,2);not null;default:0;column:final_mark_percentage" json:"final_mark_percentage"`

	// ============ Grade ============
	FinalMarkLetterGrade      string  `gorm:"type:varchar(10);not null;column:final_mark_letter_grade" json:"final_mark_letter_grade"`
	FinalMarkGradePoint       float64 `gorm:"type:numeric(4,2);not null;default:0;column:final_mark_grade_point" json:"final_mark_grade_point"`
	FinalMarkGradeDescription string  `gorm:"type:text;not null;default:'';column:final_mark_grade_description" json:"final_mark_grade_description"`
	FinalMarkCredits          float64 `gorm:"type:numeric(4,1);not null;default:0;column:final_mark_credits" json:"final_mark_credits"`
	FinalMarkCreditPoints     float64 `gorm:"type:numeric(6,2);not null;default:0;column:final_mark_credit_points" json:"final_mark_credit_points"`
	FinalMarkTotalGradePoints float64 `gorm:"type:numeric(6,2);not null;default:0;column:final_mark_total_grade_points" json:"final_mark_total_grade_points"`
	FinalMarkGradeSystemCode  string  `gorm:"type:varchar(10);not null;default:'';column:final_mark_grade_system_code" json:"final_mark_grade_system_code"`

	// ============ Outcome ============
	FinalMarkPassStatus   string  `gorm:"type:varchar(20);not null;column:final_mark_pass_status" json:"final_mark_pass_status"`
	FinalMarkFailReason   *string `gorm:"type:varchar(20);column:final_mark_fail_reason" json:"final_mark_fail_reason,omitempty"`
	FinalMarkIsPass       bool    `gorm:"not null;default:false;column:final_mark_is_pass" json:"final_mark_is_pass"`
	FinalMarkResultStatus string  `gorm:"type:varchar(20);not null;default:'Draft';column:final_mark_result_status" json:"final_mark_result_status"`
	FinalMarkIsActive     bool    `gorm:"not null;default:true;column:final_mark_is_active" json:"final_mark_is_active"`

	// band + course configuration used for the calculation
	FinalMarkCalculationSnapshot datatypes.JSONMap `gorm:"type:jsonb;column:final_mark_calculation_snapshot" json:"final_mark_calculation_snapshot,omitempty"`

	FinalMarkCalculatedBy *uuid.UUID `gorm:"type:uuid;column:final_mark_calculated_by" json:"final_mark_calculated_by,omitempty"`
	FinalMarkCalculatedAt time.Time  `gorm:"type:timestamptz;not null;column:final_mark_calculated_at" json:"final_mark_calculated_at"`

	// ============ Audit / Soft delete ============
	FinalMarkCreatedAt time.Time      `gorm:"type:timestamptz;not null;autoCreateTime;column:final_mark_created_at" json:"final_mark_created_at"`
	FinalMarkUpdatedAt time.Time      `gorm:"type:timestamptz;not null;autoUpdateTime;column:final_mark_updated_at" json:"final_mark_updated_at"`
	FinalMarkDeletedAt gorm.DeletedAt `gorm:"column:final_mark_deleted_at;index" json:"final_mark_deleted_at,omitempty"`
}

func (FinalMarkModel) TableName() string { return "final_marks" }

// Scope identifies one generation request's slice of the data.
type Scope struct {
	InstitutionID        uuid.UUID
	ProgramID            uuid.UUID
	ExaminationSessionID uuid.UUID
}

// UpsertColumns are overwritten when a row with the same registration key already exists.
// Soft-deleted or deactivated rows come back as active drafts.
var UpsertColumns = []string{
	"final_mark_examination_session_id",
	"final_mark_program_id",
	"final_mark_program_code",
	"final_mark_course_id",
	"final_mark_student_id",
	"final_mark_register_no",
	"final_mark_is_synthetic",
	"final_mark_source_registration_id",
	"final_mark_internal_marks",
	"final_mark_external_marks",
	"final_mark_total_marks",
	"final_mark_max_marks",
	"final_mark_percentage",
	"final_mark_letter_grade",
	"final_mark_grade_point",
	"final_mark_grade_description",
	"final_mark_credits",
	"final_mark_credit_points",
	"final_mark_total_grade_points",
	"final_mark_grade_system_code",
	"final_mark_pass_status",
	"final_mark_fail_reason",
	"final_mark_is_pass",
	"final_mark_result_status",
	"final_mark_is_active",
	"final_mark_deleted_at",
	"final_mark_calculation_snapshot",
	"final_mark_calculated_by",
	"final_mark_calculated_at",
	"final_mark_updated_at",
}

// ListQuery pages through stored rows of one scope. SortColumn must come from SortColumns.
type ListQuery struct {
	Scope      Scope
	CourseID   *uuid.UUID
	PassStatus string
	SortColumn string
	Desc       bool
	Offset     int
	Limit      int
}

// SortColumns maps public sort keys to final_marks columns.
var SortColumns = map[string]string{
	"register_no":   "final_mark_register_no",
	"percentage":    "final_mark_percentage",
	"grade_point":   "final_mark_grade_point",
	"calculated_at": "final_mark_calculated_at",
}
