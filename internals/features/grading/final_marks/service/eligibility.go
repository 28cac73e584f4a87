package service

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"examcell_backend/internals/features/grading/final_marks/model"
)

// Eligibility lists the requested courses that already have active results in the scope.
// An empty list means generation may proceed.
func (s *Service) Eligibility(ctx context.Context, scope model.Scope, courseIDs []uuid.UUID) ([]BlockedCourse, error) {
	courseIDs = uniqueUUIDs(courseIDs)
	if len(courseIDs) == 0 {
		return nil, nil
	}

	rows, err := s.Repo.FindActiveFinalMarks(ctx, scope, courseIDs)
	if err != nil {
		return nil, errors.Wrap(err, "check existing final marks")
	}
	if len(rows) == 0 {
		return nil, nil
	}

	byCourse := map[uuid.UUID]*BlockedCourse{}
	statuses := map[uuid.UUID]map[string]struct{}{}
	var order []uuid.UUID
	for _, r := range rows {
		bc, ok := byCourse[r.FinalMarkCourseID]
		if !ok {
			bc = &BlockedCourse{CourseID: r.FinalMarkCourseID}
			byCourse[r.FinalMarkCourseID] = bc
			statuses[r.FinalMarkCourseID] = map[string]struct{}{}
			order = append(order, r.FinalMarkCourseID)
		}
		bc.RowCount++
		st := r.FinalMarkResultStatus
		if st == "" {
			st = model.ResultStatusDraft
		}
		statuses[r.FinalMarkCourseID][st] = struct{}{}
	}

	// codes are only for the message; a lookup failure is not fatal
	codes := map[uuid.UUID]string{}
	if courses, err := s.Repo.FindCoursesByIDs(ctx, order); err == nil {
		for _, c := range courses {
			codes[c.CourseID] = normalizeCode(c.CourseCode)
		}
	}

	out := make([]BlockedCourse, 0, len(order))
	for _, id := range order {
		bc := byCourse[id]
		bc.CourseCode = codes[id]
		for st := range statuses[id] {
			bc.Statuses = append(bc.Statuses, st)
		}
		sort.Strings(bc.Statuses)
		out = append(out, *bc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CourseCode != out[j].CourseCode {
			return out[i].CourseCode < out[j].CourseCode
		}
		return out[i].CourseID.String() < out[j].CourseID.String()
	})
	return out, nil
}

// CheckEligibility fails with *BlockedRegenerationError when any requested course already has results.
func (s *Service) CheckEligibility(ctx context.Context, scope model.Scope, courseIDs []uuid.UUID) error {
	blocked, err := s.Eligibility(ctx, scope, courseIDs)
	if err != nil {
		return err
	}
	if len(blocked) > 0 {
		return &BlockedRegenerationError{Courses: blocked}
	}
	return nil
}
