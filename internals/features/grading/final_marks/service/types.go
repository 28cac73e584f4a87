package service

import (
	"strings"

	"github.com/google/uuid"

	courseModel "examcell_backend/internals/features/academics/courses/model"
	regModel "examcell_backend/internals/features/exams/registrations/model"
)

/* =========================
   Enums
========================= */

type EvaluationType string

const (
	EvalCIAOnly   EvaluationType = "CIA_ONLY"
	EvalESEOnly   EvaluationType = "ESE_ONLY"
	EvalCIAAndESE EvaluationType = "CIA_AND_ESE"
	EvalOther     EvaluationType = "OTHER"
)

// ParseEvaluationType accepts the spellings used by course configuration
// ("CIA", "CIA Only", "ESE", "External", "CIA & ESE", "CIA+ESE", ...).
func ParseEvaluationType(raw string) EvaluationType {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.NewReplacer("&", " AND ", "+", " AND ", "/", " AND ", "-", " ", "_", " ").Replace(s)
	s = strings.Join(strings.Fields(s), " ")

	switch s {
	case "CIA", "CIA ONLY", "INTERNAL", "INTERNAL ONLY":
		return EvalCIAOnly
	case "ESE", "ESE ONLY", "EXTERNAL", "EXTERNAL ONLY":
		return EvalESEOnly
	case "CIA AND ESE", "ESE AND CIA", "BOTH", "INTERNAL AND EXTERNAL":
		return EvalCIAAndESE
	default:
		return EvalOther
	}
}

type PassStatus string

const (
	StatusPass     PassStatus = "Pass"
	StatusFail     PassStatus = "Fail"
	StatusReappear PassStatus = "Reappear"
	StatusAbsent   PassStatus = "Absent"
	StatusWithheld PassStatus = "Withheld"
	StatusExpelled PassStatus = "Expelled"
)

type FailReason string

const (
	FailInternal FailReason = "INTERNAL"
	FailExternal FailReason = "EXTERNAL"
	FailTotal    FailReason = "TOTAL"
)

type AttendanceStatus string

const (
	AttendancePresent  AttendanceStatus = "present"
	AttendanceAbsent   AttendanceStatus = "absent"
	AttendanceWithheld AttendanceStatus = "withheld"
	AttendanceExpelled AttendanceStatus = "expelled"
)

func parseAttendance(raw string) AttendanceStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case strings.ToLower(regModel.AttendanceAbsent), "ab", "a":
		return AttendanceAbsent
	case strings.ToLower(regModel.AttendanceWithheld), "malpractice":
		return AttendanceWithheld
	case strings.ToLower(regModel.AttendanceExpelled):
		return AttendanceExpelled
	default:
		return AttendancePresent
	}
}

/* =========================
   Course evaluation spec
========================= */

type CourseSpec struct {
	CourseID       uuid.UUID      `json:"course_id"`
	Code           string         `json:"course_code"`
	Name           string         `json:"course_name"`
	EvaluationType EvaluationType `json:"evaluation_type"`
	InternalMax    float64        `json:"internal_max_mark"`
	ExternalMax    float64        `json:"external_max_mark"`
	TotalMax       float64        `json:"total_max_mark"`
	InternalPass   float64        `json:"internal_pass_mark"`
	ExternalPass   float64        `json:"external_pass_mark"`
	TotalPass      float64        `json:"total_pass_mark"`
	Credits        float64        `json:"credits"`
}

// EffectiveTotalMax falls back to the maxima of the counted components when total_max_mark is unset.
func (c CourseSpec) EffectiveTotalMax() float64 {
	if c.TotalMax > 0 {
		return c.TotalMax
	}
	var max float64
	if includesInternal(c.EvaluationType) {
		max += c.InternalMax
	}
	if includesExternal(c.EvaluationType) {
		max += c.ExternalMax
	}
	return max
}

func CourseSpecFromModel(m courseModel.CourseModel) CourseSpec {
	return CourseSpec{
		CourseID:       m.CourseID,
		Code:           strings.TrimSpace(m.CourseCode),
		Name:           m.CourseName,
		EvaluationType: ParseEvaluationType(m.CourseEvaluationType),
		InternalMax:    m.CourseInternalMaxMark,
		ExternalMax:    m.CourseExternalMaxMark,
		TotalMax:       m.CourseTotalMaxMark,
		InternalPass:   m.CourseInternalPassMark,
		ExternalPass:   m.CourseExternalPassMark,
		TotalPass:      m.CourseTotalPassMark,
		Credits:        m.CourseCredit,
	}
}

/* =========================
   Roster
========================= */

// RosterEntry is one student-course pair to evaluate.
type RosterEntry struct {
	StudentID   uuid.UUID
	StudentName string
	RegisterNo  string

	ExamRegistrationID   uuid.UUID
	IsSynthetic          bool
	SourceRegistrationID *uuid.UUID

	CourseOfferingID uuid.UUID
	Course           CourseSpec
	CodeSource       CodeSource

	Internal   *float64
	External   *float64
	Attendance *AttendanceStatus
}

/* =========================
   Output
========================= */

type ResultRow struct {
	StudentID          uuid.UUID  `json:"student_id"`
	StudentName        string     `json:"student_name"`
	RegisterNo         string     `json:"register_no"`
	ExamRegistrationID uuid.UUID  `json:"exam_registration_id"`
	IsSynthetic        bool       `json:"is_synthetic"`
	SourceRegistration *uuid.UUID `json:"source_registration_id,omitempty"`
	CourseOfferingID   uuid.UUID  `json:"course_offering_id"`
	CourseID           uuid.UUID  `json:"course_id"`
	CourseCode         string     `json:"course_code"`
	CourseName         string     `json:"course_name"`

	EvaluationType   EvaluationType   `json:"evaluation_type"`
	AttendanceStatus AttendanceStatus `json:"attendance_status"`

	InternalMarks *float64 `json:"internal_marks"`
	ExternalMarks *float64 `json:"external_marks"`
	TotalMarks    float64  `json:"total_marks"`
	MaxMarks      float64  `json:"max_marks"`
	Percentage    float64  `json:"percentage"`

	LetterGrade      string  `json:"letter_grade"`
	GradePoint       float64 `json:"grade_point"`
	GradeDescription string  `json:"grade_description"`
	Credits          float64 `json:"credits"`
	CreditPoints     float64 `json:"credit_points"`

	PassStatus PassStatus  `json:"pass_status"`
	FailReason *FailReason `json:"fail_reason"`
	IsPass     bool        `json:"is_pass"`

	band       bandRef
	courseSpec CourseSpec
}

// bandRef is the band that produced the grade; persisted in the calculation snapshot.
type bandRef struct {
	ID      uuid.UUID
	MinMark float64
	MaxMark float64
}

type SkipReason string

const (
	SkipNoAttendance SkipReason = "NO_ATTENDANCE"
	SkipMissingMarks SkipReason = "MISSING_MARKS"
	SkipNoMaxMarks   SkipReason = "NO_MAX_MARKS"
)

type SkipRecord struct {
	StudentName string     `json:"student_name"`
	RegisterNo  string     `json:"register_no"`
	CourseCode  string     `json:"course_code"`
	Reason      string     `json:"reason"`
	Kind        SkipReason `json:"-"`
}

type RowError struct {
	StudentID   uuid.UUID `json:"student_id"`
	StudentName string    `json:"student_name"`
	RegisterNo  string    `json:"register_no"`
	CourseCode  string    `json:"course_code"`
	Error       string    `json:"error"`
}

type Summary struct {
	Passed              int `json:"passed"`
	Failed              int `json:"failed"`
	Absent              int `json:"absent"`
	Reappear            int `json:"reappear"`
	Withheld            int `json:"withheld"`
	Distinction         int `json:"distinction"`
	FirstClass          int `json:"first_class"`
	SkippedNoAttendance int `json:"skipped_no_attendance"`
	SkippedMissingMarks int `json:"skipped_missing_marks"`
	SkippedNoMaxMarks   int `json:"skipped_no_max_marks"`
}

/* =========================
   Request / response
========================= */

type GenerateInput struct {
	InstitutionID        uuid.UUID
	ProgramID            uuid.UUID
	ProgramCode          string
	ExaminationSessionID uuid.UUID
	CourseIDs            []uuid.UUID
	RegulationID         *uuid.UUID
	GradeSystemCode      string
	CalculatedBy         *uuid.UUID
	SaveToDB             bool
}

type GenerateOutput struct {
	Success        bool         `json:"success"`
	TotalStudents  int          `json:"total_students"`
	TotalCourses   int          `json:"total_courses"`
	GradeSystem    string       `json:"grade_system_code"`
	Results        []ResultRow  `json:"results"`
	Summary        Summary      `json:"summary"`
	SavedCount     int          `json:"saved_count"`
	Errors         []RowError   `json:"errors,omitempty"`
	SkippedRecords []SkipRecord `json:"skipped_records,omitempty"`
}
