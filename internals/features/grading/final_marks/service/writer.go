package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/datatypes"

	"examcell_backend/internals/features/grading/final_marks/model"
)

// SaveMeta is what every persisted row of one generation shares.
type SaveMeta struct {
	Scope           model.Scope
	ProgramCode     string
	GradeSystemCode string
	CalculatedBy    *uuid.UUID
}

// Writer upserts result rows one by one. A failed row is reported and the rest continue.
type Writer struct {
	Repo Repository
	Now  func() time.Time
}

func NewWriter(repo Repository, now func() time.Time) *Writer {
	if now == nil {
		now = time.Now
	}
	return &Writer{Repo: repo, Now: now}
}

var errNoCourseOffering = errors.New("no course offering resolved for this registration")

func (w *Writer) Save(ctx context.Context, meta SaveMeta, rows []ResultRow) (int, []RowError) {
	now := w.Now()
	saved := 0
	var rowErrs []RowError

	for _, r := range rows {
		if err := ctx.Err(); err != nil {
			rowErrs = append(rowErrs, rowError(r, err))
			continue
		}
		if r.CourseOfferingID == uuid.Nil {
			rowErrs = append(rowErrs, rowError(r, errNoCourseOffering))
			continue
		}

		fm := BuildFinalMark(meta, r, now)
		if err := w.Repo.UpsertFinalMark(ctx, &fm); err != nil {
			perr := &PersistenceError{RegistrationID: r.ExamRegistrationID, CourseOffering: r.CourseOfferingID, Err: err}
			log.Printf("[ERROR] final-marks: %v", perr)
			rowErrs = append(rowErrs, rowError(r, perr))
			continue
		}
		saved++
	}
	return saved, rowErrs
}

func rowError(r ResultRow, err error) RowError {
	return RowError{
		StudentID:   r.StudentID,
		StudentName: r.StudentName,
		RegisterNo:  r.RegisterNo,
		CourseCode:  r.CourseCode,
		Error:       err.Error(),
	}
}

// BuildFinalMark maps a result row to its persisted form.
func BuildFinalMark(meta SaveMeta, r ResultRow, now time.Time) model.FinalMarkModel {
	var failReason *string
	if r.FailReason != nil {
		s := string(*r.FailReason)
		failReason = &s
	}

	totalGradePoints := 0.0
	if r.IsPass {
		totalGradePoints = round2(r.Credits * r.GradePoint)
	}

	return model.FinalMarkModel{
		FinalMarkInstitutionID:        meta.Scope.InstitutionID,
		FinalMarkExaminationSessionID: meta.Scope.ExaminationSessionID,
		FinalMarkProgramID:            meta.Scope.ProgramID,
		FinalMarkProgramCode:          meta.ProgramCode,

		FinalMarkExamRegistrationID: r.ExamRegistrationID,
		FinalMarkCourseOfferingID:   r.CourseOfferingID,
		FinalMarkCourseID:           r.CourseID,
		FinalMarkStudentID:          r.StudentID,
		FinalMarkRegisterNo:         r.RegisterNo,

		FinalMarkIsSynthetic:          r.IsSynthetic,
		FinalMarkSourceRegistrationID: r.SourceRegistration,

		FinalMarkInternalMarks: r.InternalMarks,
		FinalMarkExternalMarks: r.ExternalMarks,
		FinalMarkTotalMarks:    r.TotalMarks,
		FinalMarkMaxMarks:      r.MaxMarks,
		FinalMarkPercentage:    r.Percentage,

		FinalMarkLetterGrade:      r.LetterGrade,
		FinalMarkGradePoint:       r.GradePoint,
		FinalMarkGradeDescription: r.GradeDescription,
		FinalMarkCredits:          r.Credits,
		FinalMarkCreditPoints:     r.CreditPoints,
		FinalMarkTotalGradePoints: totalGradePoints,
		FinalMarkGradeSystemCode:  meta.GradeSystemCode,

		FinalMarkPassStatus:   string(r.PassStatus),
		FinalMarkFailReason:   failReason,
		FinalMarkIsPass:       r.IsPass,
		FinalMarkResultStatus: model.ResultStatusDraft,
		FinalMarkIsActive:     true,

		FinalMarkCalculationSnapshot: calculationSnapshot(meta, r),
		FinalMarkCalculatedBy:        meta.CalculatedBy,
		FinalMarkCalculatedAt:        now,
	}
}

func calculationSnapshot(meta SaveMeta, r ResultRow) datatypes.JSONMap {
	spec := r.courseSpec
	band := map[string]interface{}{
		"grade":     r.LetterGrade,
		"min_mark":  r.band.MinMark,
		"max_mark":  r.band.MaxMark,
		"grade_sys": meta.GradeSystemCode,
	}
	if r.band.ID != uuid.Nil {
		band["id"] = r.band.ID.String()
	}
	return datatypes.JSONMap{
		"band": band,
		"course": map[string]interface{}{
			"code":               spec.Code,
			"evaluation_type":    string(spec.EvaluationType),
			"internal_max_mark":  spec.InternalMax,
			"external_max_mark":  spec.ExternalMax,
			"total_max_mark":     spec.TotalMax,
			"internal_pass_mark": spec.InternalPass,
			"external_pass_mark": spec.ExternalPass,
			"total_pass_mark":    spec.TotalPass,
			"credits":            spec.Credits,
		},
		"attendance": string(r.AttendanceStatus),
	}
}
