package service

import (
	"context"

	"github.com/pkg/errors"

	"examcell_backend/internals/features/grading/final_marks/model"
)

const defaultListLimit = 50

// ListResults pages through the stored results of one scope.
func (s *Service) ListResults(ctx context.Context, q model.ListQuery) ([]model.FinalMarkModel, int64, error) {
	if q.Limit <= 0 {
		q.Limit = defaultListLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	rows, total, err := s.Repo.ListFinalMarks(ctx, q)
	if err != nil {
		return nil, 0, errors.Wrap(err, "list final marks")
	}
	return rows, total, nil
}
