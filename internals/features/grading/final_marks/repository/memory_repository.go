package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	courseModel "examcell_backend/internals/features/academics/courses/model"
	marksModel "examcell_backend/internals/features/exams/marks/model"
	regModel "examcell_backend/internals/features/exams/registrations/model"
	"examcell_backend/internals/features/grading/final_marks/model"
	gradeModel "examcell_backend/internals/features/grading/grade_systems/model"
)

// MemoryRepository keeps every table in memory. It backs local runs without a database
// and the engine tests.
type MemoryRepository struct {
	mu sync.Mutex

	Courses         []courseModel.CourseModel
	CourseMappings  []courseModel.CourseMappingModel
	CourseOfferings []courseModel.CourseOfferingModel
	Registrations   []regModel.ExamRegistrationModel
	Attendance      []regModel.ExamAttendanceModel
	InternalMarks   []marksModel.InternalMarkModel
	MarksEntries    []marksModel.MarksEntryModel
	GradeBands      []gradeModel.GradeSystemModel
	FinalMarks      []model.FinalMarkModel

	// MaxRows caps every paged read, like a store-side row limit. 0 means no cap.
	MaxRows int
	// UpsertHook, when set, may fail an upsert before it is applied.
	UpsertHook func(*model.FinalMarkModel) error

	RegistrationPages int
	AttendancePages   int
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func page[T any](rows []T, offset, limit, maxRows int) []T {
	if maxRows > 0 && (limit <= 0 || limit > maxRows) {
		limit = maxRows
	}
	if offset >= len(rows) {
		return nil
	}
	end := len(rows)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]T, end-offset)
	copy(out, rows[offset:end])
	return out
}

/* =========================
   grade_system
========================= */

func (m *MemoryRepository) ListGradeBands(_ context.Context, institutionID uuid.UUID, regulationID *uuid.UUID, code string) ([]gradeModel.GradeSystemModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []gradeModel.GradeSystemModel
	for _, g := range m.GradeBands {
		if g.GradeSystemInstitutionID != institutionID || !g.GradeSystemIsActive || g.GradeSystemDeletedAt.Valid {
			continue
		}
		if !strings.EqualFold(g.GradeSystemCode, code) {
			continue
		}
		if regulationID != nil && (g.GradeSystemRegulationID == nil || *g.GradeSystemRegulationID != *regulationID) {
			continue
		}
		out = append(out, g)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].GradeSystemMinMark > out[j].GradeSystemMinMark })
	return out, nil
}

/* =========================
   final_marks
========================= */

func (m *MemoryRepository) FindActiveFinalMarks(_ context.Context, scope model.Scope, courseIDs []uuid.UUID) ([]model.FinalMarkModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.FinalMarkModel
	for _, f := range m.FinalMarks {
		if f.FinalMarkInstitutionID != scope.InstitutionID ||
			f.FinalMarkExaminationSessionID != scope.ExaminationSessionID ||
			f.FinalMarkProgramID != scope.ProgramID {
			continue
		}
		if !f.FinalMarkIsActive || f.FinalMarkDeletedAt.Valid || !containsID(courseIDs, f.FinalMarkCourseID) {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

// UpsertFinalMark applies the same conflict rules as the database: the registration key
// updates in place, a clash on student+course+session is a unique violation.
func (m *MemoryRepository) UpsertFinalMark(_ context.Context, row *model.FinalMarkModel) error {
	if m.UpsertHook != nil {
		if err := m.UpsertHook(row); err != nil {
			return mapPGError(err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i, f := range m.FinalMarks {
		sameKey := f.FinalMarkInstitutionID == row.FinalMarkInstitutionID &&
			f.FinalMarkExamRegistrationID == row.FinalMarkExamRegistrationID &&
			f.FinalMarkCourseOfferingID == row.FinalMarkCourseOfferingID
		if sameKey {
			row.FinalMarkID = f.FinalMarkID
			row.FinalMarkCreatedAt = f.FinalMarkCreatedAt
			m.FinalMarks[i] = *row
			return nil
		}
	}
	for _, f := range m.FinalMarks {
		if f.FinalMarkStudentID == row.FinalMarkStudentID &&
			f.FinalMarkCourseID == row.FinalMarkCourseID &&
			f.FinalMarkExaminationSessionID == row.FinalMarkExaminationSessionID {
			return mapPGError(&pgconn.PgError{Code: "23505", ConstraintName: "uq_final_mark_student_course_session"})
		}
	}

	if row.FinalMarkID == uuid.Nil {
		row.FinalMarkID = uuid.New()
	}
	row.FinalMarkCreatedAt = row.FinalMarkCalculatedAt
	m.FinalMarks = append(m.FinalMarks, *row)
	return nil
}

func (m *MemoryRepository) ListFinalMarks(_ context.Context, q model.ListQuery) ([]model.FinalMarkModel, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var all []model.FinalMarkModel
	for _, f := range m.FinalMarks {
		if f.FinalMarkInstitutionID != q.Scope.InstitutionID ||
			f.FinalMarkExaminationSessionID != q.Scope.ExaminationSessionID ||
			f.FinalMarkProgramID != q.Scope.ProgramID {
			continue
		}
		if !f.FinalMarkIsActive || f.FinalMarkDeletedAt.Valid {
			continue
		}
		if q.CourseID != nil && f.FinalMarkCourseID != *q.CourseID {
			continue
		}
		if q.PassStatus != "" && f.FinalMarkPassStatus != q.PassStatus {
			continue
		}
		all = append(all, f)
	}

	less := func(a, b model.FinalMarkModel) bool {
		switch q.SortColumn {
		case "final_mark_percentage":
			return a.FinalMarkPercentage < b.FinalMarkPercentage
		case "final_mark_grade_point":
			return a.FinalMarkGradePoint < b.FinalMarkGradePoint
		case "final_mark_calculated_at":
			return a.FinalMarkCalculatedAt.Before(b.FinalMarkCalculatedAt)
		default:
			return a.FinalMarkRegisterNo < b.FinalMarkRegisterNo
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		if q.Desc {
			return less(all[j], all[i])
		}
		return less(all[i], all[j])
	})
	return page(all, q.Offset, q.Limit, 0), int64(len(all)), nil
}

/* =========================
   courses / mapping / offerings
========================= */

func (m *MemoryRepository) FindCoursesByIDs(_ context.Context, ids []uuid.UUID) ([]courseModel.CourseModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []courseModel.CourseModel
	for _, c := range m.Courses {
		if !c.CourseDeletedAt.Valid && containsID(ids, c.CourseID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MemoryRepository) FindCourseMappingsByIDs(_ context.Context, ids []uuid.UUID) ([]courseModel.CourseMappingModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []courseModel.CourseMappingModel
	for _, c := range m.CourseMappings {
		if !c.CourseMappingDeletedAt.Valid && containsID(ids, c.CourseMappingID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MemoryRepository) FindCourseOfferingsByIDs(_ context.Context, ids []uuid.UUID) ([]courseModel.CourseOfferingModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []courseModel.CourseOfferingModel
	for _, o := range m.CourseOfferings {
		if !o.CourseOfferingDeletedAt.Valid && containsID(ids, o.CourseOfferingID) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *MemoryRepository) ListCourseOfferings(_ context.Context, scope model.Scope) ([]courseModel.CourseOfferingModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []courseModel.CourseOfferingModel
	for _, o := range m.CourseOfferings {
		if o.CourseOfferingDeletedAt.Valid {
			continue
		}
		if o.CourseOfferingInstitutionID == scope.InstitutionID &&
			o.CourseOfferingExaminationSessionID == scope.ExaminationSessionID &&
			o.CourseOfferingProgramID == scope.ProgramID {
			out = append(out, o)
		}
	}
	return out, nil
}

/* =========================
   registrations / attendance
========================= */

func (m *MemoryRepository) ListExamRegistrations(_ context.Context, scope model.Scope, offset, limit int) ([]regModel.ExamRegistrationModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RegistrationPages++

	var all []regModel.ExamRegistrationModel
	for _, r := range m.Registrations {
		if r.ExamRegistrationDeletedAt.Valid || !r.ExamRegistrationIsActive {
			continue
		}
		if r.ExamRegistrationInstitutionID == scope.InstitutionID &&
			r.ExamRegistrationExaminationSessionID == scope.ExaminationSessionID &&
			r.ExamRegistrationProgramID == scope.ProgramID {
			all = append(all, r)
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].ExamRegistrationID.String() < all[j].ExamRegistrationID.String()
	})
	return page(all, offset, limit, m.MaxRows), nil
}

func (m *MemoryRepository) FindExamRegistrationsByIDs(_ context.Context, ids []uuid.UUID) ([]regModel.ExamRegistrationModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []regModel.ExamRegistrationModel
	for _, r := range m.Registrations {
		if !r.ExamRegistrationDeletedAt.Valid && containsID(ids, r.ExamRegistrationID) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MemoryRepository) ListAttendance(_ context.Context, institutionID uuid.UUID, registrationIDs []uuid.UUID, offset, limit int) ([]regModel.ExamAttendanceModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AttendancePages++

	var all []regModel.ExamAttendanceModel
	for _, a := range m.Attendance {
		if a.ExamAttendanceDeletedAt.Valid || a.ExamAttendanceInstitutionID != institutionID {
			continue
		}
		if containsID(registrationIDs, a.ExamAttendanceExamRegistrationID) {
			all = append(all, a)
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].ExamAttendanceID.String() < all[j].ExamAttendanceID.String()
	})
	return page(all, offset, limit, m.MaxRows), nil
}

/* =========================
   marks
========================= */

func (m *MemoryRepository) ListInternalMarks(_ context.Context, scope model.Scope, courseIDs []uuid.UUID) ([]marksModel.InternalMarkModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []marksModel.InternalMarkModel
	for _, im := range m.InternalMarks {
		if im.InternalMarkDeletedAt.Valid || !im.InternalMarkIsActive {
			continue
		}
		if im.InternalMarkInstitutionID == scope.InstitutionID &&
			im.InternalMarkExaminationSessionID == scope.ExaminationSessionID &&
			im.InternalMarkProgramID == scope.ProgramID &&
			containsID(courseIDs, im.InternalMarkCourseID) {
			out = append(out, im)
		}
	}
	return out, nil
}

func (m *MemoryRepository) ListMarksEntries(_ context.Context, institutionID uuid.UUID, registrationIDs []uuid.UUID) ([]marksModel.MarksEntryModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []marksModel.MarksEntryModel
	for _, e := range m.MarksEntries {
		if !e.MarksEntryDeletedAt.Valid && e.MarksEntryInstitutionID == institutionID &&
			containsID(registrationIDs, e.MarksEntryExamRegistrationID) {
			out = append(out, e)
		}
	}
	return out, nil
}
