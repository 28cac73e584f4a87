package service

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"examcell_backend/internals/features/grading/final_marks/model"
	gradeService "examcell_backend/internals/features/grading/grade_systems/service"
)

const (
	DefaultPageSize  = 1000
	DefaultBatchSize = 500
)

type Options struct {
	PageSize  int // registrations / attendance rows per page
	BatchSize int // ids per IN (...) lookup
	Now       func() time.Time
}

// Service generates final marks for one program, session and set of courses.
type Service struct {
	Repo     Repository
	Resolver *gradeService.Resolver
	Writer   *Writer

	opts  Options
	locks *keyedLocker
}

func New(repo Repository, opts Options) *Service {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		Repo:     repo,
		Resolver: gradeService.NewResolver(repo),
		Writer:   NewWriter(repo, opts.Now),
		opts:     opts,
		locks:    newKeyedLocker(),
	}
}

func (in GenerateInput) Scope() model.Scope {
	return model.Scope{
		InstitutionID:        in.InstitutionID,
		ProgramID:            in.ProgramID,
		ExaminationSessionID: in.ExaminationSessionID,
	}
}

func (in GenerateInput) validate() error {
	var fields []FieldError
	if in.InstitutionID == uuid.Nil {
		fields = append(fields, FieldError{Field: "institution_id", Error: "is required"})
	}
	if in.ProgramID == uuid.Nil {
		fields = append(fields, FieldError{Field: "program_id", Error: "is required"})
	}
	if strings.TrimSpace(in.ProgramCode) == "" {
		fields = append(fields, FieldError{Field: "program_code", Error: "is required"})
	}
	if in.ExaminationSessionID == uuid.Nil {
		fields = append(fields, FieldError{Field: "examination_session_id", Error: "is required"})
	}
	if len(in.CourseIDs) == 0 {
		fields = append(fields, FieldError{Field: "course_ids", Error: "must contain at least one course"})
	}
	for _, id := range in.CourseIDs {
		if id == uuid.Nil {
			fields = append(fields, FieldError{Field: "course_ids", Error: "contains an empty id"})
			break
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Message: "invalid final marks request", Fields: fields}
	}
	return nil
}

// Generate runs the whole pipeline: validate, gate, resolve the scale, build the roster,
// calculate, and optionally persist.
func (s *Service) Generate(ctx context.Context, in GenerateInput) (*GenerateOutput, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	started := s.opts.Now()
	scope := in.Scope()
	courseIDs := uniqueUUIDs(in.CourseIDs)

	unlock, err := s.locks.Lock(ctx, generationLockKeys(scope, courseIDs))
	if err != nil {
		return nil, errors.Wrap(err, "wait for generation lock")
	}
	defer unlock()

	// 1) regeneration gate
	if err := s.CheckEligibility(ctx, scope, courseIDs); err != nil {
		return nil, err
	}

	// 2) requested courses
	courses, err := s.loadCourses(ctx, courseIDs)
	if err != nil {
		return nil, err
	}

	// 3) grade scale
	scale, err := s.Resolver.Resolve(ctx, gradeService.ResolveInput{
		InstitutionID:   in.InstitutionID,
		RegulationID:    in.RegulationID,
		GradeSystemCode: in.GradeSystemCode,
		ProgramCode:     in.ProgramCode,
	})
	if err != nil {
		return nil, err
	}

	// 4) roster
	roster, err := s.buildRoster(ctx, scope, courses)
	if err != nil {
		return nil, err
	}

	// 5) calculate
	out := &GenerateOutput{
		Success:      true,
		TotalCourses: len(courses),
		GradeSystem:  scale.Code,
		Results:      make([]ResultRow, 0, len(roster)),
	}
	students := map[uuid.UUID]struct{}{}
	for _, e := range roster {
		students[e.StudentID] = struct{}{}
		o := Calculate(e, scale)
		if o.Skip != nil {
			out.SkippedRecords = append(out.SkippedRecords, *o.Skip)
			out.Summary.AddSkip(o.Skip.Kind)
			continue
		}
		out.Results = append(out.Results, *o.Result)
		out.Summary.AddResult(*o.Result)
	}
	out.TotalStudents = len(students)
	sortResults(out.Results)

	// 6) persist
	if in.SaveToDB && len(out.Results) > 0 {
		out.SavedCount, out.Errors = s.Writer.Save(ctx, SaveMeta{
			Scope:           scope,
			ProgramCode:     strings.TrimSpace(in.ProgramCode),
			GradeSystemCode: scale.Code,
			CalculatedBy:    in.CalculatedBy,
		}, out.Results)
	}

	log.Printf("[INFO] final-marks: institution=%s session=%s program=%s courses=%d results=%d skipped=%d saved=%d errors=%d took=%s",
		scope.InstitutionID, scope.ExaminationSessionID, in.ProgramCode, len(courses),
		len(out.Results), len(out.SkippedRecords), out.SavedCount, len(out.Errors), s.opts.Now().Sub(started))
	return out, nil
}

func (s *Service) loadCourses(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]CourseSpec, error) {
	rows, err := fetchChunked(ids, s.opts.BatchSize, func(chunk []uuid.UUID) ([]CourseSpec, error) {
		courses, err := s.Repo.FindCoursesByIDs(ctx, chunk)
		if err != nil {
			return nil, err
		}
		specs := make([]CourseSpec, 0, len(courses))
		for _, c := range courses {
			specs = append(specs, CourseSpecFromModel(c))
		}
		return specs, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "load requested courses")
	}

	out := make(map[uuid.UUID]CourseSpec, len(rows))
	for _, c := range rows {
		out[c.CourseID] = c
	}
	var missing []FieldError
	for _, id := range ids {
		if _, ok := out[id]; !ok {
			missing = append(missing, FieldError{Field: "course_ids", Error: "unknown course " + id.String()})
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Message: "unknown course id(s)", Fields: missing}
	}
	return out, nil
}

func sortResults(rows []ResultRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].RegisterNo != rows[j].RegisterNo {
			return rows[i].RegisterNo < rows[j].RegisterNo
		}
		return rows[i].CourseCode < rows[j].CourseCode
	})
}
