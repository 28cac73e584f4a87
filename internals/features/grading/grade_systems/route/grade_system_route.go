package route

import (
	"github.com/gofiber/fiber/v2"

	gradeController "examcell_backend/internals/features/grading/grade_systems/controller"
	gradeService "examcell_backend/internals/features/grading/grade_systems/service"
)

func GradeSystemRoutes(router fiber.Router, resolver *gradeService.Resolver) {
	ctl := gradeController.NewGradeSystemController(resolver)

	g := router.Group("/grade-systems")
	g.Get("/resolve", ctl.Resolve)
}
