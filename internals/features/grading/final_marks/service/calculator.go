package service

import (
	"math"
	"strings"

	gradeService "examcell_backend/internals/features/grading/grade_systems/service"
)

// Outcome is either a computed result or a skip record, never both.
type Outcome struct {
	Result *ResultRow
	Skip   *SkipRecord
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func clampMark(v, max float64) float64 {
	if v < 0 {
		return 0
	}
	if max > 0 && v > max {
		return max
	}
	return v
}

func ptr[T any](v T) *T { return &v }

// Calculate evaluates one roster entry against a grade scale.
func Calculate(e RosterEntry, scale gradeService.Scale) Outcome {
	e.Course.TotalMax = e.Course.EffectiveTotalMax()
	spec := e.Course
	in := RuleInput{
		EvaluationType: spec.EvaluationType,
		Synthetic:      e.IsSynthetic,
		Attendance:     e.Attendance,
		HasInternal:    e.Internal != nil,
		HasExternal:    e.External != nil,
	}

	d := Decide(in)
	if d.Skipped() {
		kind := SkipMissingMarks
		if d.Kind == DecisionSkipNoAttendance {
			kind = SkipNoAttendance
		}
		return Outcome{Skip: &SkipRecord{
			StudentName: e.StudentName,
			RegisterNo:  e.RegisterNo,
			CourseCode:  spec.Code,
			Reason:      d.Reason,
			Kind:        kind,
		}}
	}

	if d.Kind == DecisionCompute && spec.TotalMax <= 0 {
		return Outcome{Skip: &SkipRecord{
			StudentName: e.StudentName,
			RegisterNo:  e.RegisterNo,
			CourseCode:  spec.Code,
			Reason:      "Course max marks not configured",
			Kind:        SkipNoMaxMarks,
		}}
	}

	attendance, _ := EffectiveAttendance(in)
	row := newRow(e, attendance)

	switch d.Kind {
	case DecisionAbsent:
		applyNonAppearance(&row, e, scale.Absent(), StatusAbsent)
	case DecisionWithheld:
		applyNonAppearance(&row, e, scale.Fail(), StatusWithheld)
	case DecisionExpelled:
		applyNonAppearance(&row, e, scale.Fail(), StatusExpelled)
	default:
		applyMarks(&row, e, scale)
	}

	row.CreditPoints = round2(row.GradePoint * spec.Credits)
	return Outcome{Result: &row}
}

func newRow(e RosterEntry, attendance AttendanceStatus) ResultRow {
	return ResultRow{
		StudentID:          e.StudentID,
		StudentName:        e.StudentName,
		RegisterNo:         e.RegisterNo,
		ExamRegistrationID: e.ExamRegistrationID,
		IsSynthetic:        e.IsSynthetic,
		SourceRegistration: e.SourceRegistrationID,
		CourseOfferingID:   e.CourseOfferingID,
		CourseID:           e.Course.CourseID,
		CourseCode:         e.Course.Code,
		CourseName:         e.Course.Name,
		EvaluationType:     e.Course.EvaluationType,
		AttendanceStatus:   attendance,
		MaxMarks:           e.Course.TotalMax,
		Credits:            e.Course.Credits,
		courseSpec:         e.Course,
	}
}

// applyNonAppearance ignores marks for the grade: no external exam was written.
// Internal marks on file are still reported.
func applyNonAppearance(row *ResultRow, e RosterEntry, band gradeService.Band, status PassStatus) {
	if e.Internal != nil && includesInternal(e.Course.EvaluationType) {
		row.InternalMarks = ptr(clampMark(*e.Internal, e.Course.InternalMax))
	}
	row.LetterGrade = band.Grade
	row.GradeDescription = band.Description
	row.GradePoint = 0
	row.PassStatus = status
	row.FailReason = ptr(FailExternal)
	row.IsPass = false
	row.band = bandRef{ID: band.ID, MinMark: band.MinMark, MaxMark: band.MaxMark}
}

func applyMarks(row *ResultRow, e RosterEntry, scale gradeService.Scale) {
	spec := e.Course

	var total float64
	if e.Internal != nil && includesInternal(spec.EvaluationType) {
		v := clampMark(*e.Internal, spec.InternalMax)
		row.InternalMarks = &v
		total += v
	}
	if e.External != nil && includesExternal(spec.EvaluationType) {
		v := clampMark(*e.External, spec.ExternalMax)
		row.ExternalMarks = &v
		total += v
	}
	if spec.TotalMax > 0 && total > spec.TotalMax {
		total = spec.TotalMax
	}
	row.TotalMarks = round2(total)
	if spec.TotalMax > 0 {
		row.Percentage = round2(row.TotalMarks / spec.TotalMax * 100)
	}

	if reason := checkPassMarks(spec, row); reason != nil {
		fail := scale.Fail()
		row.LetterGrade = fail.Grade
		row.GradeDescription = fail.Description
		row.GradePoint = 0
		row.PassStatus = StatusReappear
		row.FailReason = reason
		row.band = bandRef{ID: fail.ID, MinMark: fail.MinMark, MaxMark: fail.MaxMark}
		return
	}

	band, ok := scale.Match(row.Percentage)
	if !ok {
		fail := scale.Fail()
		row.LetterGrade = fail.Grade
		row.GradeDescription = fail.Description
		row.GradePoint = 0
		row.PassStatus = StatusFail
		row.FailReason = ptr(FailTotal)
		row.band = bandRef{ID: fail.ID, MinMark: fail.MinMark, MaxMark: fail.MaxMark}
		return
	}

	row.LetterGrade = band.Grade
	row.GradeDescription = band.Description
	row.band = bandRef{ID: band.ID, MinMark: band.MinMark, MaxMark: band.MaxMark}

	// thresholds passed but the percentage landed in a fail band: thresholds are misconfigured
	if band.Reappear() {
		row.GradePoint = 0
		row.PassStatus = StatusFail
		row.FailReason = ptr(FailTotal)
		return
	}

	row.GradePoint = round2(row.TotalMarks / 10)
	row.PassStatus = StatusPass
	row.IsPass = true
}

// checkPassMarks reports the first failing threshold in the order INTERNAL, EXTERNAL, TOTAL.
// A component threshold only applies when that component counted towards the total.
func checkPassMarks(spec CourseSpec, row *ResultRow) *FailReason {
	if row.InternalMarks != nil && spec.InternalPass > 0 && *row.InternalMarks < spec.InternalPass {
		return ptr(FailInternal)
	}
	if row.ExternalMarks != nil && spec.ExternalPass > 0 && *row.ExternalMarks < spec.ExternalPass {
		return ptr(FailExternal)
	}
	if spec.TotalPass > 0 && row.TotalMarks < spec.TotalPass {
		return ptr(FailTotal)
	}
	return nil
}

/* =========================
   Summary
========================= */

var firstClassGrades = map[string]bool{"A": true, "A+": true, "D": true, "D+": true, "O": true}

func (s *Summary) AddResult(r ResultRow) {
	switch r.PassStatus {
	case StatusPass:
		s.Passed++
	case StatusFail, StatusExpelled:
		s.Failed++
	case StatusReappear:
		s.Failed++
		s.Reappear++
	case StatusAbsent:
		s.Absent++
	case StatusWithheld:
		s.Withheld++
	}
	if r.PassStatus != StatusPass {
		return
	}

	grade := strings.ToUpper(strings.TrimSpace(r.LetterGrade))
	if grade == "D" || grade == "D+" || strings.Contains(strings.ToLower(r.GradeDescription), "distinction") {
		s.Distinction++
	}
	if firstClassGrades[grade] || r.GradePoint >= 6.0 {
		s.FirstClass++
	}
}

func (s *Summary) AddSkip(k SkipReason) {
	switch k {
	case SkipNoAttendance:
		s.SkippedNoAttendance++
	case SkipMissingMarks:
		s.SkippedMissingMarks++
	case SkipNoMaxMarks:
		s.SkippedNoMaxMarks++
	}
}
