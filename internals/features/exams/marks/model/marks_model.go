// file: internals/features/exams/marks/model/marks_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InternalMarkModel holds the consolidated CIA mark of a student for a course.
// Re-entries create new rows; readers take the most recent one.
type InternalMarkModel struct {
	InternalMarkID                   uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey;column:internal_mark_id" json:"internal_mark_id"`
	InternalMarkInstitutionID        uuid.UUID `gorm:"type:uuid;not null;index:idx_internal_mark_scope,priority:1;column:internal_mark_institution_id" json:"internal_mark_institution_id"`
	InternalMarkExaminationSessionID uuid.UUID `gorm:"type:uuid;not null;index:idx_internal_mark_scope,priority:2;column:internal_mark_examination_session_id" json:"internal_mark_examination_session_id"`
	InternalMarkProgramID            uuid.UUID `gorm:"type:uuid;not null;index:idx_internal_mark_scope,priority:3;column:internal_mark_program_id" json:"internal_mark_program_id"`
	InternalMarkCourseID             uuid.UUID `gorm:"type:uuid;not null;index:idx_internal_mark_scope,priority:4;column:internal_mark_course_id" json:"internal_mark_course_id"`
	InternalMarkStudentID            uuid.UUID `gorm:"type:uuid;not null;index;column:internal_mark_student_id" json:"internal_mark_student_id"`

	// registration the mark was entered against; carries student name / register number
	InternalMarkExamRegistrationID *uuid.UUID `gorm:"type:uuid;column:internal_mark_exam_registration_id" json:"internal_mark_exam_registration_id,omitempty"`
	InternalMarkStudentName        *string    `gorm:"type:text;column:internal_mark_student_name" json:"internal_mark_student_name,omitempty"`
	InternalMarkRegisterNo         *string    `gorm:"type:varchar(40);column:internal_mark_register_no" json:"internal_mark_register_no,omitempty"`

	InternalMarkTotalMarks *float64 `gorm:"type:numeric(6,2);column:internal_mark_total_marks" json:"internal_mark_total_marks,omitempty"`
	InternalMarkIsActive   bool     `gorm:"not null;default:true;column:internal_mark_is_active" json:"internal_mark_is_active"`

	InternalMarkCreatedAt time.Time      `gorm:"type:timestamptz;not null;autoCreateTime;column:internal_mark_created_at" json:"internal_mark_created_at"`
	InternalMarkUpdatedAt time.Time      `gorm:"type:timestamptz;not null;autoUpdateTime;column:internal_mark_updated_at" json:"internal_mark_updated_at"`
	InternalMarkDeletedAt gorm.DeletedAt `gorm:"column:internal_mark_deleted_at;index" json:"internal_mark_deleted_at,omitempty"`
}

func (InternalMarkModel) TableName() string { return "internal_marks" }

// MarksEntryModel is the external (ESE) mark of one exam registration.
type MarksEntryModel struct {
	MarksEntryID                 uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey;column:marks_entry_id" json:"marks_entry_id"`
	MarksEntryInstitutionID      uuid.UUID  `gorm:"type:uuid;not null;index;column:marks_entry_institution_id" json:"marks_entry_institution_id"`
	MarksEntryExamRegistrationID uuid.UUID  `gorm:"type:uuid;not null;index;column:marks_entry_exam_registration_id" json:"marks_entry_exam_registration_id"`
	MarksEntryCourseID           *uuid.UUID `gorm:"type:uuid;column:marks_entry_course_id" json:"marks_entry_course_id,omitempty"`
	MarksEntryTotalMarksObtained *float64   `gorm:"type:numeric(6,2);column:marks_entry_total_marks_obtained" json:"marks_entry_total_marks_obtained,omitempty"`

	MarksEntryCreatedAt time.Time      `gorm:"type:timestamptz;not null;autoCreateTime;column:marks_entry_created_at" json:"marks_entry_created_at"`
	MarksEntryUpdatedAt time.Time      `gorm:"type:timestamptz;not null;autoUpdateTime;column:marks_entry_updated_at" json:"marks_entry_updated_at"`
	MarksEntryDeletedAt gorm.DeletedAt `gorm:"column:marks_entry_deleted_at;index" json:"marks_entry_deleted_at,omitempty"`
}

func (MarksEntryModel) TableName() string { return "marks_entry" }
