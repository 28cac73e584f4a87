// file: internals/features/grading/grade_systems/model/grade_system_model.go
package model

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GradeSystemModel is one band of a grade scale. A scale is every active row sharing
// (institution, regulation, grade_system_code).
type GradeSystemModel struct {
	GradeSystemID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey;column:grade_system_id" json:"grade_system_id"`
	GradeSystemInstitutionID uuid.UUID  `gorm:"type:uuid;not null;index:idx_grade_system_scope,priority:1;column:grade_system_institution_id" json:"grade_system_institution_id"`
	GradeSystemRegulationID  *uuid.UUID `gorm:"type:uuid;index:idx_grade_system_scope,priority:3;column:grade_system_regulation_id" json:"grade_system_regulation_id,omitempty"`
	// "UG" | "PG"
	GradeSystemCode string `gorm:"type:varchar(10);not null;index:idx_grade_system_scope,priority:2;column:grade_system_code" json:"grade_system_code"`

	GradeSystemMinMark     float64 `gorm:"type:numeric(5,2);not null;column:grade_system_min_mark" json:"grade_system_min_mark"`
	GradeSystemMaxMark     float64 `gorm:"type:numeric(5,2);not null;column:grade_system_max_mark" json:"grade_system_max_mark"`
	GradeSystemGrade       string  `gorm:"type:varchar(10);not null;column:grade_system_grade" json:"grade_system_grade"`
	GradeSystemGradePoint  float64 `gorm:"type:numeric(4,2);not null;default:0;column:grade_system_grade_point" json:"grade_system_grade_point"`
	GradeSystemDescription string  `gorm:"type:text;not null;default:'';column:grade_system_description" json:"grade_system_description"`
	GradeSystemIsAbsent    bool    `gorm:"not null;default:false;column:grade_system_is_absent" json:"grade_system_is_absent"`
	GradeSystemIsFail      bool    `gorm:"not null;default:false;column:grade_system_is_fail" json:"grade_system_is_fail"`
	GradeSystemIsActive    bool    `gorm:"not null;default:true;column:grade_system_is_active" json:"grade_system_is_active"`

	GradeSystemCreatedAt time.Time      `gorm:"type:timestamptz;not null;autoCreateTime;column:grade_system_created_at" json:"grade_system_created_at"`
	GradeSystemUpdatedAt time.Time      `gorm:"type:timestamptz;not null;autoUpdateTime;column:grade_system_updated_at" json:"grade_system_updated_at"`
	GradeSystemDeletedAt gorm.DeletedAt `gorm:"column:grade_system_deleted_at;index" json:"grade_system_deleted_at,omitempty"`
}

func (GradeSystemModel) TableName() string { return "grade_system" }

// ============ Hooks ============
func (m *GradeSystemModel) BeforeSave(tx *gorm.DB) error {
	if m.GradeSystemMaxMark < m.GradeSystemMinMark {
		return errors.New("grade_system_max_mark must be >= grade_system_min_mark")
	}
	m.GradeSystemCode = strings.ToUpper(strings.TrimSpace(m.GradeSystemCode))
	m.GradeSystemGrade = strings.TrimSpace(m.GradeSystemGrade)
	m.GradeSystemDescription = strings.TrimSpace(m.GradeSystemDescription)
	return nil
}
