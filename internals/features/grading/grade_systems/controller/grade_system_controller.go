package controller

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"examcell_backend/internals/features/grading/grade_systems/service"
	helper "examcell_backend/internals/helpers"
)

type GradeSystemController struct {
	Resolver *service.Resolver
}

func NewGradeSystemController(resolver *service.Resolver) *GradeSystemController {
	return &GradeSystemController{Resolver: resolver}
}

type resolveQuery struct {
	InstitutionID   string `query:"institution_id" validate:"required,uuid"`
	ProgramCode     string `query:"program_code" validate:"omitempty,max=40"`
	GradeSystemCode string `query:"grade_system_code" validate:"omitempty,max=10"`
	RegulationID    string `query:"regulation_id" validate:"omitempty,uuid"`
}

type resolveResponse struct {
	ProgramType string            `json:"program_type"`
	Scale       service.Scale     `json:"scale"`
	Overlaps    [][2]service.Band `json:"overlaps,omitempty"`
}

// GET /api/grading/grade-systems/resolve
func (ctl *GradeSystemController) Resolve(c *fiber.Ctx) error {
	var q resolveQuery
	if err := c.QueryParser(&q); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid query")
	}
	q.InstitutionID = strings.TrimSpace(q.InstitutionID)
	q.RegulationID = strings.TrimSpace(q.RegulationID)
	if err := helper.Validate(q); err != nil {
		return helper.ValidationError(c, err)
	}

	in := service.ResolveInput{
		InstitutionID:   uuid.MustParse(q.InstitutionID),
		GradeSystemCode: q.GradeSystemCode,
		ProgramCode:     q.ProgramCode,
	}
	if q.RegulationID != "" {
		id := uuid.MustParse(q.RegulationID)
		in.RegulationID = &id
	}

	scale, err := ctl.Resolver.Resolve(c.UserContext(), in)
	if err != nil {
		var ge *service.NoGradeSystemError
		if errors.As(err, &ge) {
			return helper.JsonErrorWithData(c, fiber.StatusBadRequest, "GRADE_SYSTEM_NOT_FOUND", ge.Error(), nil)
		}
		log.Printf("[ERROR] resolve grade system: %+v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to resolve grade system")
	}

	return helper.JsonOK(c, "ok", resolveResponse{
		ProgramType: service.ClassifyProgramType(q.ProgramCode),
		Scale:       scale,
		Overlaps:    scale.Overlaps(),
	})
}
