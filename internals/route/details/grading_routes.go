package details

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"examcell_backend/internals/configs"
	finalMarkRepo "examcell_backend/internals/features/grading/final_marks/repository"
	finalMarkRoute "examcell_backend/internals/features/grading/final_marks/route"
	finalMarkService "examcell_backend/internals/features/grading/final_marks/service"
	gradeSystemRoute "examcell_backend/internals/features/grading/grade_systems/route"
	middlewares "examcell_backend/internals/middlewares"
	authMiddleware "examcell_backend/internals/middlewares/auth"
)

func GradingRoutes(app *fiber.App, db *gorm.DB) {
	conf := configs.Config()
	svc := finalMarkService.New(finalMarkRepo.NewGormRepository(db), finalMarkService.Options{
		PageSize:  conf.GetInt("GRADING_PAGE_SIZE"),
		BatchSize: conf.GetInt("GRADING_BATCH_SIZE"),
	})
	MountGrading(app, svc, configs.JWTSecret)
}

// MountGrading wires /api/grading onto app for an already built service.
func MountGrading(app *fiber.App, svc *finalMarkService.Service, jwtSecret string) {
	api := app.Group("/api/grading",
		middlewares.GlobalRateLimiter(),
		authMiddleware.OptionalActor(authMiddleware.ActorOpts{Secret: jwtSecret}),
	)
	api.Use("/final-marks", middlewares.GenerationRateLimiter())

	finalMarkRoute.FinalMarkRoutes(api, svc)
	gradeSystemRoute.GradeSystemRoutes(api, svc.Resolver)
}
