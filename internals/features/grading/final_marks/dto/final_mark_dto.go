// file: internals/features/grading/final_marks/dto/final_mark_dto.go
package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"examcell_backend/internals/features/grading/final_marks/model"
	"examcell_backend/internals/features/grading/final_marks/service"
)

/* =========================================================
   Helpers
========================================================= */

func trimPtr(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	if s == "" {
		return nil
	}
	return &s
}

func parseUUIDPtr(p *string) (*uuid.UUID, error) {
	if p == nil {
		return nil, nil
	}
	id, err := uuid.Parse(*p)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

/* =========================================================
   1) REQUEST DTO
========================================================= */

// GenerateFinalMarksRequest is the body of POST /api/grading/final-marks.
// program_code comes from the caller; it is never looked up.
type GenerateFinalMarksRequest struct {
	InstitutionID        string   `json:"institution_id" validate:"required,uuid"`
	ProgramID            string   `json:"program_id" validate:"required,uuid"`
	ProgramCode          string   `json:"program_code" validate:"required,max=40"`
	ExaminationSessionID string   `json:"examination_session_id" validate:"required,uuid"`
	CourseIDs            []string `json:"course_ids" validate:"required,min=1,dive,required,uuid"`

	RegulationID    *string `json:"regulation_id" validate:"omitempty,uuid"`
	GradeSystemCode *string `json:"grade_system_code" validate:"omitempty,max=10"`
	CalculatedBy    *string `json:"calculated_by" validate:"omitempty,uuid"`

	SaveToDB bool `json:"save_to_db"`
}

func (r *GenerateFinalMarksRequest) Normalize() {
	r.InstitutionID = strings.TrimSpace(r.InstitutionID)
	r.ProgramID = strings.TrimSpace(r.ProgramID)
	r.ProgramCode = strings.TrimSpace(r.ProgramCode)
	r.ExaminationSessionID = strings.TrimSpace(r.ExaminationSessionID)
	for i := range r.CourseIDs {
		r.CourseIDs[i] = strings.TrimSpace(r.CourseIDs[i])
	}
	r.RegulationID = trimPtr(r.RegulationID)
	r.GradeSystemCode = trimPtr(r.GradeSystemCode)
	r.CalculatedBy = trimPtr(r.CalculatedBy)
}

// ToInput converts a validated request. actor, when set, wins over calculated_by in the body.
func (r GenerateFinalMarksRequest) ToInput(actor *uuid.UUID) (service.GenerateInput, error) {
	in := service.GenerateInput{
		ProgramCode: r.ProgramCode,
		SaveToDB:    r.SaveToDB,
	}
	var err error
	if in.InstitutionID, err = uuid.Parse(r.InstitutionID); err != nil {
		return in, err
	}
	if in.ProgramID, err = uuid.Parse(r.ProgramID); err != nil {
		return in, err
	}
	if in.ExaminationSessionID, err = uuid.Parse(r.ExaminationSessionID); err != nil {
		return in, err
	}
	for _, raw := range r.CourseIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return in, err
		}
		in.CourseIDs = append(in.CourseIDs, id)
	}
	if in.RegulationID, err = parseUUIDPtr(r.RegulationID); err != nil {
		return in, err
	}
	if r.GradeSystemCode != nil {
		in.GradeSystemCode = strings.ToUpper(*r.GradeSystemCode)
	}
	if actor != nil {
		in.CalculatedBy = actor
	} else if in.CalculatedBy, err = parseUUIDPtr(r.CalculatedBy); err != nil {
		return in, err
	}
	return in, nil
}

// EligibilityQuery is GET /api/grading/final-marks/eligibility.
type EligibilityQuery struct {
	InstitutionID        string   `query:"institution_id" validate:"required,uuid"`
	ProgramID            string   `query:"program_id" validate:"required,uuid"`
	ExaminationSessionID string   `query:"examination_session_id" validate:"required,uuid"`
	CourseIDs            []string `query:"-" json:"course_ids" validate:"required,min=1,dive,required,uuid"`
}

// SplitCourseIDs accepts course_ids=a,b and repeated course_ids params.
func SplitCourseIDs(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func (q EligibilityQuery) Scope() (model.Scope, []uuid.UUID, error) {
	var s model.Scope
	var err error
	if s.InstitutionID, err = uuid.Parse(q.InstitutionID); err != nil {
		return s, nil, err
	}
	if s.ProgramID, err = uuid.Parse(q.ProgramID); err != nil {
		return s, nil, err
	}
	if s.ExaminationSessionID, err = uuid.Parse(q.ExaminationSessionID); err != nil {
		return s, nil, err
	}
	ids := make([]uuid.UUID, 0, len(q.CourseIDs))
	for _, raw := range q.CourseIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return s, nil, err
		}
		ids = append(ids, id)
	}
	return s, ids, nil
}

// ListFinalMarksQuery is GET /api/grading/final-marks. Paging and sorting come from helper.ParseFiber.
type ListFinalMarksQuery struct {
	InstitutionID        string `query:"institution_id" validate:"required,uuid"`
	ProgramID            string `query:"program_id" validate:"required,uuid"`
	ExaminationSessionID string `query:"examination_session_id" validate:"required,uuid"`
	CourseID             string `query:"course_id" validate:"omitempty,uuid"`
	PassStatus           string `query:"pass_status" validate:"omitempty,oneof=Pass Fail Reappear Absent Withheld Expelled"`
}

func (q *ListFinalMarksQuery) Normalize() {
	q.InstitutionID = strings.TrimSpace(q.InstitutionID)
	q.ProgramID = strings.TrimSpace(q.ProgramID)
	q.ExaminationSessionID = strings.TrimSpace(q.ExaminationSessionID)
	q.CourseID = strings.TrimSpace(q.CourseID)
	q.PassStatus = strings.TrimSpace(q.PassStatus)
}

// ToListQuery converts a validated query; paging fields are left to the caller.
func (q ListFinalMarksQuery) ToListQuery() (model.ListQuery, error) {
	var out model.ListQuery
	var err error
	if out.Scope.InstitutionID, err = uuid.Parse(q.InstitutionID); err != nil {
		return out, err
	}
	if out.Scope.ProgramID, err = uuid.Parse(q.ProgramID); err != nil {
		return out, err
	}
	if out.Scope.ExaminationSessionID, err = uuid.Parse(q.ExaminationSessionID); err != nil {
		return out, err
	}
	if q.CourseID != "" {
		id, err := uuid.Parse(q.CourseID)
		if err != nil {
			return out, err
		}
		out.CourseID = &id
	}
	out.PassStatus = q.PassStatus
	return out, nil
}

/* =========================================================
   2) RESPONSE DTO
========================================================= */

type EligibilityResponse struct {
	Eligible       bool                    `json:"eligible"`
	BlockedCourses []service.BlockedCourse `json:"blocked_courses"`
}

type ProgramTypeResponse struct {
	ProgramCode string `json:"program_code"`
	ProgramType string `json:"program_type"`
}

// FinalMarkItem is one stored result as listed by GET /api/grading/final-marks.
type FinalMarkItem struct {
	FinalMarkID        uuid.UUID  `json:"final_mark_id"`
	ExamRegistrationID uuid.UUID  `json:"exam_registration_id"`
	CourseOfferingID   uuid.UUID  `json:"course_offering_id"`
	CourseID           uuid.UUID  `json:"course_id"`
	StudentID          uuid.UUID  `json:"student_id"`
	RegisterNo         string     `json:"register_no"`
	IsSynthetic        bool       `json:"is_synthetic"`
	InternalMarks      *float64   `json:"internal_marks"`
	ExternalMarks      *float64   `json:"external_marks"`
	TotalMarks         float64    `json:"total_marks"`
	MaxMarks           float64    `json:"max_marks"`
	Percentage         float64    `json:"percentage"`
	LetterGrade        string     `json:"letter_grade"`
	GradePoint         float64    `json:"grade_point"`
	CreditPoints       float64    `json:"credit_points"`
	TotalGradePoints   float64    `json:"total_grade_points"`
	GradeSystemCode    string     `json:"grade_system_code"`
	PassStatus         string     `json:"pass_status"`
	FailReason         *string    `json:"fail_reason"`
	ResultStatus       string     `json:"result_status"`
	CalculatedBy       *uuid.UUID `json:"calculated_by,omitempty"`
	CalculatedAt       time.Time  `json:"calculated_at"`
}

func FromFinalMarkModel(m model.FinalMarkModel) FinalMarkItem {
	return FinalMarkItem{
		FinalMarkID:        m.FinalMarkID,
		ExamRegistrationID: m.FinalMarkExamRegistrationID,
		CourseOfferingID:   m.FinalMarkCourseOfferingID,
		CourseID:           m.FinalMarkCourseID,
		StudentID:          m.FinalMarkStudentID,
		RegisterNo:         m.FinalMarkRegisterNo,
		IsSynthetic:        m.FinalMarkIsSynthetic,
		InternalMarks:      m.FinalMarkInternalMarks,
		ExternalMarks:      m.FinalMarkExternalMarks,
		TotalMarks:         m.FinalMarkTotalMarks,
		MaxMarks:           m.FinalMarkMaxMarks,
		Percentage:         m.FinalMarkPercentage,
		LetterGrade:        m.FinalMarkLetterGrade,
		GradePoint:         m.FinalMarkGradePoint,
		CreditPoints:       m.FinalMarkCreditPoints,
		TotalGradePoints:   m.FinalMarkTotalGradePoints,
		GradeSystemCode:    m.FinalMarkGradeSystemCode,
		PassStatus:         m.FinalMarkPassStatus,
		FailReason:         m.FinalMarkFailReason,
		ResultStatus:       m.FinalMarkResultStatus,
		CalculatedBy:       m.FinalMarkCalculatedBy,
		CalculatedAt:       m.FinalMarkCalculatedAt,
	}
}

func FromFinalMarkModels(rows []model.FinalMarkModel) []FinalMarkItem {
	out := make([]FinalMarkItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, FromFinalMarkModel(r))
	}
	return out
}
