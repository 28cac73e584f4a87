package controller

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"examcell_backend/internals/features/grading/final_marks/dto"
	"examcell_backend/internals/features/grading/final_marks/model"
	"examcell_backend/internals/features/grading/final_marks/service"
	gradeService "examcell_backend/internals/features/grading/grade_systems/service"
	helper "examcell_backend/internals/helpers"
	helperAuth "examcell_backend/internals/helpers/auth"
)

type FinalMarksController struct {
	Svc *service.Service
}

func NewFinalMarksController(svc *service.Service) *FinalMarksController {
	return &FinalMarksController{Svc: svc}
}

// POST /api/grading/final-marks
func (ctl *FinalMarksController) Generate(c *fiber.Ctx) error {
	var req dto.GenerateFinalMarksRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	req.Normalize()
	if err := helper.Validate(req); err != nil {
		return helper.ValidationError(c, err)
	}

	in, err := req.ToInput(helperAuth.ActorIDFromLocals(c))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid id: "+err.Error())
	}

	out, err := ctl.Svc.Generate(c.UserContext(), in)
	if err != nil {
		return writeServiceError(c, err, "Failed to generate final marks")
	}
	return c.Status(fiber.StatusOK).JSON(out)
}

// GET /api/grading/final-marks/eligibility
func (ctl *FinalMarksController) Eligibility(c *fiber.Ctx) error {
	var q dto.EligibilityQuery
	if err := c.QueryParser(&q); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid query")
	}
	var raw []string
	for _, v := range c.Context().QueryArgs().PeekMulti("course_ids") {
		raw = append(raw, string(v))
	}
	q.CourseIDs = dto.SplitCourseIDs(raw)
	q.InstitutionID = strings.TrimSpace(q.InstitutionID)
	q.ProgramID = strings.TrimSpace(q.ProgramID)
	q.ExaminationSessionID = strings.TrimSpace(q.ExaminationSessionID)
	if err := helper.Validate(q); err != nil {
		return helper.ValidationError(c, err)
	}

	scope, courseIDs, err := q.Scope()
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid id: "+err.Error())
	}
	blocked, err := ctl.Svc.Eligibility(c.UserContext(), scope, courseIDs)
	if err != nil {
		return writeServiceError(c, err, "Failed to check eligibility")
	}
	if blocked == nil {
		blocked = []service.BlockedCourse{}
	}
	return helper.JsonOK(c, "ok", dto.EligibilityResponse{
		Eligible:       len(blocked) == 0,
		BlockedCourses: blocked,
	})
}

// GET /api/grading/final-marks
func (ctl *FinalMarksController) List(c *fiber.Ctx) error {
	var q dto.ListFinalMarksQuery
	if err := c.QueryParser(&q); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid query")
	}
	q.Normalize()
	if err := helper.Validate(q); err != nil {
		return helper.ValidationError(c, err)
	}

	lq, err := q.ToListQuery()
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid id: "+err.Error())
	}
	p := helper.ParseFiber(c, "register_no", "asc", helper.DefaultOpts)
	col, err := p.SortColumn(model.SortColumns, "register_no")
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	lq.SortColumn = col
	lq.Desc = p.Desc()
	lq.Offset = p.Offset()
	lq.Limit = p.Limit()

	rows, total, err := ctl.Svc.ListResults(c.UserContext(), lq)
	if err != nil {
		return writeServiceError(c, err, "Failed to list final marks")
	}
	return helper.JsonList(c, "ok", dto.FromFinalMarkModels(rows), helper.BuildMeta(total, p))
}

// GET /api/grading/program-type?program_code=
func (ctl *FinalMarksController) ProgramType(c *fiber.Ctx) error {
	code := strings.TrimSpace(c.Query("program_code"))
	return helper.JsonOK(c, "ok", dto.ProgramTypeResponse{
		ProgramCode: code,
		ProgramType: gradeService.ClassifyProgramType(code),
	})
}

// writeServiceError maps typed generation errors to 400; anything else is logged and hidden behind 500.
func writeServiceError(c *fiber.Ctx, err error, fallback string) error {
	var (
		ve  *service.ValidationError
		be  *service.BlockedRegenerationError
		ge  *gradeService.NoGradeSystemError
		nre *service.NoRegistrationsError
	)
	switch {
	case errors.As(err, &ve):
		fields := map[string][]string{}
		for _, f := range ve.Fields {
			fields[f.Field] = append(fields[f.Field], f.Error)
		}
		return helper.JsonValidationError(c, ve.Message, fields)
	case errors.As(err, &be):
		log.Printf("[WARN] final-marks blocked: %v", be)
		return helper.JsonErrorWithData(c, fiber.StatusBadRequest, "REGENERATION_BLOCKED", be.Error(), fiber.Map{
			"blocked_courses": be.Courses,
		})
	case errors.As(err, &ge):
		return helper.JsonErrorWithData(c, fiber.StatusBadRequest, "GRADE_SYSTEM_NOT_FOUND", ge.Error(), nil)
	case errors.As(err, &nre):
		return helper.JsonErrorWithData(c, fiber.StatusBadRequest, "NO_REGISTRATIONS", nre.Error(), nil)
	case errors.Is(err, context.DeadlineExceeded):
		log.Printf("[WARN] %s %s: %v", c.Method(), c.Path(), err)
		return helper.JsonErrorWithData(c, fiber.StatusServiceUnavailable, "GENERATION_TIMEOUT",
			"Another generation for these courses is still running, try again later", nil)
	default:
		log.Printf("[ERROR] %s %s: %+v", c.Method(), c.Path(), err)
		return helper.JsonError(c, fiber.StatusInternalServerError, fallback)
	}
}
