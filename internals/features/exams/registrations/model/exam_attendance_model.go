package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Attendance statuses as stored by the hall-attendance screens.
const (
	AttendancePresent  = "Present"
	AttendanceAbsent   = "Absent"
	AttendanceWithheld = "Withheld"
	AttendanceExpelled = "Expelled"
)

// ExamAttendanceModel is per registration AND per course: a registration may cover several papers.
type ExamAttendanceModel struct {
	ExamAttendanceID                 uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey;column:exam_attendance_id" json:"exam_attendance_id"`
	ExamAttendanceInstitutionID      uuid.UUID  `gorm:"type:uuid;not null;index;column:exam_attendance_institution_id" json:"exam_attendance_institution_id"`
	ExamAttendanceExamRegistrationID uuid.UUID  `gorm:"type:uuid;not null;index:idx_exam_attendance_reg_course,priority:1;column:exam_attendance_exam_registration_id" json:"exam_attendance_exam_registration_id"`
	ExamAttendanceCourseID           uuid.UUID  `gorm:"type:uuid;not null;index:idx_exam_attendance_reg_course,priority:2;column:exam_attendance_course_id" json:"exam_attendance_course_id"`
	ExamAttendanceStatus             string     `gorm:"type:varchar(20);not null;column:exam_attendance_status" json:"exam_attendance_status"`
	ExamAttendanceDate               *time.Time `gorm:"type:date;column:exam_attendance_date" json:"exam_attendance_date,omitempty"`

	ExamAttendanceCreatedAt time.Time      `gorm:"type:timestamptz;not null;autoCreateTime;column:exam_attendance_created_at" json:"exam_attendance_created_at"`
	ExamAttendanceUpdatedAt time.Time      `gorm:"type:timestamptz;not null;autoUpdateTime;column:exam_attendance_updated_at" json:"exam_attendance_updated_at"`
	ExamAttendanceDeletedAt gorm.DeletedAt `gorm:"column:exam_attendance_deleted_at;index" json:"exam_attendance_deleted_at,omitempty"`
}

func (ExamAttendanceModel) TableName() string { return "exam_attendance" }
