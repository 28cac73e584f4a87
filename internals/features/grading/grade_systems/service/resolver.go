package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"examcell_backend/internals/features/grading/grade_systems/model"
)

// Repository reads grade-system rows.
type Repository interface {
	ListGradeBands(ctx context.Context, institutionID uuid.UUID, regulationID *uuid.UUID, code string) ([]model.GradeSystemModel, error)
}

// NoGradeSystemError means no active grade rows exist for the requested scale.
type NoGradeSystemError struct {
	InstitutionID uuid.UUID
	RegulationID  *uuid.UUID
	Code          string
	// Regulations is set when no regulation was given and several regulations define the code.
	Regulations int
}

func (e *NoGradeSystemError) Error() string {
	if e.Regulations > 1 {
		return fmt.Sprintf("grade system %s is defined under %d regulations, regulation_id is required", e.Code, e.Regulations)
	}
	msg := fmt.Sprintf("no grade system configured for %s programs of this institution", e.Code)
	if e.RegulationID != nil {
		msg += " and regulation"
	}
	return msg
}

type ResolveInput struct {
	InstitutionID   uuid.UUID
	RegulationID    *uuid.UUID
	GradeSystemCode string // explicit override; derived from ProgramCode when blank
	ProgramCode     string
}

// EffectiveCode is the grade-system code a resolve call will use.
func (in ResolveInput) EffectiveCode() string {
	if c := strings.ToUpper(strings.TrimSpace(in.GradeSystemCode)); c != "" {
		return c
	}
	return ClassifyProgramType(in.ProgramCode)
}

type Resolver struct {
	Repo Repository
}

func NewResolver(repo Repository) *Resolver {
	return &Resolver{Repo: repo}
}

func (r *Resolver) Resolve(ctx context.Context, in ResolveInput) (Scale, error) {
	code := in.EffectiveCode()

	rows, err := r.Repo.ListGradeBands(ctx, in.InstitutionID, in.RegulationID, code)
	if err != nil {
		return Scale{}, errors.Wrap(err, "load grade system")
	}
	if len(rows) == 0 {
		return Scale{}, &NoGradeSystemError{InstitutionID: in.InstitutionID, RegulationID: in.RegulationID, Code: code}
	}
	if in.RegulationID == nil {
		picked, n := pickRegulation(rows)
		if picked == nil {
			return Scale{}, &NoGradeSystemError{InstitutionID: in.InstitutionID, Code: code, Regulations: n}
		}
		rows = picked
	}

	scale := NewScale(code, rows)
	for _, pair := range scale.Overlaps() {
		log.Printf("[WARN] grade system %s institution=%s: band %s (%.2f-%.2f) overlaps %s (%.2f-%.2f)",
			code, in.InstitutionID, pair[0].Grade, pair[0].MinMark, pair[0].MaxMark,
			pair[1].Grade, pair[1].MinMark, pair[1].MaxMark)
	}
	return scale, nil
}

// pickRegulation keeps one regulation's bands out of an unfiltered load.
// Rows without a regulation win; otherwise exactly one regulation must be present.
// Returns nil and the number of regulations when the choice is ambiguous.
func pickRegulation(rows []model.GradeSystemModel) ([]model.GradeSystemModel, int) {
	var general []model.GradeSystemModel
	byRegulation := map[uuid.UUID][]model.GradeSystemModel{}
	for _, r := range rows {
		if r.GradeSystemRegulationID == nil {
			general = append(general, r)
			continue
		}
		byRegulation[*r.GradeSystemRegulationID] = append(byRegulation[*r.GradeSystemRegulationID], r)
	}

	switch {
	case len(general) > 0:
		return general, len(byRegulation)
	case len(byRegulation) == 1:
		for _, only := range byRegulation {
			return only, 1
		}
	}
	return nil, len(byRegulation)
}
