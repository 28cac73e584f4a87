package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"examcell_backend/internals/features/grading/grade_systems/model"
)

type GradeSystemRepository struct {
	DB *gorm.DB
}

func NewGradeSystemRepository(db *gorm.DB) *GradeSystemRepository {
	return &GradeSystemRepository{DB: db}
}

// ListGradeBands returns the active bands of one scale, highest first.
// When regulationID is nil every regulation's rows for the code are returned; the resolver picks one.
func (r *GradeSystemRepository) ListGradeBands(ctx context.Context, institutionID uuid.UUID, regulationID *uuid.UUID, code string) ([]model.GradeSystemModel, error) {
	q := r.DB.WithContext(ctx).
		Where("grade_system_institution_id = ? AND grade_system_code = ? AND grade_system_is_active = ?", institutionID, code, true)
	if regulationID != nil {
		q = q.Where("grade_system_regulation_id = ?", *regulationID)
	}

	var rows []model.GradeSystemModel
	if err := q.Order("grade_system_min_mark DESC").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "query grade_system")
	}
	return rows, nil
}
