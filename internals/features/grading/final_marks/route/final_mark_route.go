package route

import (
	"github.com/gofiber/fiber/v2"

	finalMarkController "examcell_backend/internals/features/grading/final_marks/controller"
	finalMarkService "examcell_backend/internals/features/grading/final_marks/service"
)

func FinalMarkRoutes(router fiber.Router, svc *finalMarkService.Service) {
	ctl := finalMarkController.NewFinalMarksController(svc)

	router.Get("/program-type", ctl.ProgramType)

	fm := router.Group("/final-marks")
	fm.Get("/", ctl.List)
	fm.Post("/", ctl.Generate)
	fm.Get("/eligibility", ctl.Eligibility)
}
