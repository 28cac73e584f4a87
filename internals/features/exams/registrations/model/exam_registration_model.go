// file: internals/features/exams/registrations/model/exam_registration_model.go
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ExamRegistrationModel struct {
	// ============ PK & Tenant ============
	ExamRegistrationID                   uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey;column:exam_registration_id" json:"exam_registration_id"`
	ExamRegistrationInstitutionID        uuid.UUID `gorm:"type:uuid;not null;index:idx_exam_registration_scope,priority:1;column:exam_registration_institution_id" json:"exam_registration_institution_id"`
	ExamRegistrationExaminationSessionID uuid.UUID `gorm:"type:uuid;not null;index:idx_exam_registration_scope,priority:2;column:exam_registration_examination_session_id" json:"exam_registration_examination_session_id"`
	ExamRegistrationProgramID            uuid.UUID `gorm:"type:uuid;not null;index:idx_exam_registration_scope,priority:3;column:exam_registration_program_id" json:"exam_registration_program_id"`

	// ============ Student snapshot ============
	ExamRegistrationStudentID   uuid.UUID `gorm:"type:uuid;not null;index;column:exam_registration_student_id" json:"exam_registration_student_id"`
	ExamRegistrationStudentName string    `gorm:"type:text;not null;default:'';column:exam_registration_student_name" json:"exam_registration_student_name"`
	ExamRegistrationRegisterNo  string    `gorm:"type:varchar(40);not null;default:'';column:exam_registration_register_no" json:"exam_registration_register_no"`

	// ============ Course ============
	ExamRegistrationCourseOfferingID *uuid.UUID `gorm:"type:uuid;index;column:exam_registration_course_offering_id" json:"exam_registration_course_offering_id,omitempty"`
	// snapshot taken when the registration was imported; last resort when the offering chain is broken
	ExamRegistrationCourseCode *string `gorm:"type:varchar(40);column:exam_registration_course_code" json:"exam_registration_course_code,omitempty"`

	ExamRegistrationIsActive bool `gorm:"not null;default:true;column:exam_registration_is_active" json:"exam_registration_is_active"`

	// ============ Audit / Soft delete ============
	ExamRegistrationCreatedAt time.Time      `gorm:"type:timestamptz;not null;autoCreateTime;column:exam_registration_created_at" json:"exam_registration_created_at"`
	ExamRegistrationUpdatedAt time.Time      `gorm:"type:timestamptz;not null;autoUpdateTime;column:exam_registration_updated_at" json:"exam_registration_updated_at"`
	ExamRegistrationDeletedAt gorm.DeletedAt `gorm:"column:exam_registration_deleted_at;index" json:"exam_registration_deleted_at,omitempty"`
}

func (ExamRegistrationModel) TableName() string { return "exam_registrations" }

func (m *ExamRegistrationModel) BeforeSave(tx *gorm.DB) error {
	m.ExamRegistrationStudentName = strings.TrimSpace(m.ExamRegistrationStudentName)
	m.ExamRegistrationRegisterNo = strings.TrimSpace(m.ExamRegistrationRegisterNo)
	if m.ExamRegistrationCourseCode != nil {
		c := strings.TrimSpace(*m.ExamRegistrationCourseCode)
		if c == "" {
			m.ExamRegistrationCourseCode = nil
		} else {
			m.ExamRegistrationCourseCode = &c
		}
	}
	return nil
}
