package service

import (
	"context"

	"github.com/google/uuid"

	courseModel "examcell_backend/internals/features/academics/courses/model"
	marksModel "examcell_backend/internals/features/exams/marks/model"
	regModel "examcell_backend/internals/features/exams/registrations/model"
	"examcell_backend/internals/features/grading/final_marks/model"
	gradeService "examcell_backend/internals/features/grading/grade_systems/service"
)

// Repository is every read and write the generation engine needs. Implementations must not
// cap result sizes silently beyond the limit they are given.
type Repository interface {
	gradeService.Repository

	// FindActiveFinalMarks returns non-deleted, active rows for the scope and courses.
	FindActiveFinalMarks(ctx context.Context, scope model.Scope, courseIDs []uuid.UUID) ([]model.FinalMarkModel, error)

	FindCoursesByIDs(ctx context.Context, ids []uuid.UUID) ([]courseModel.CourseModel, error)
	FindCourseMappingsByIDs(ctx context.Context, ids []uuid.UUID) ([]courseModel.CourseMappingModel, error)
	FindCourseOfferingsByIDs(ctx context.Context, ids []uuid.UUID) ([]courseModel.CourseOfferingModel, error)
	ListCourseOfferings(ctx context.Context, scope model.Scope) ([]courseModel.CourseOfferingModel, error)

	// ListExamRegistrations returns one page ordered by id.
	ListExamRegistrations(ctx context.Context, scope model.Scope, offset, limit int) ([]regModel.ExamRegistrationModel, error)
	FindExamRegistrationsByIDs(ctx context.Context, ids []uuid.UUID) ([]regModel.ExamRegistrationModel, error)

	ListInternalMarks(ctx context.Context, scope model.Scope, courseIDs []uuid.UUID) ([]marksModel.InternalMarkModel, error)
	ListMarksEntries(ctx context.Context, institutionID uuid.UUID, registrationIDs []uuid.UUID) ([]marksModel.MarksEntryModel, error)
	// ListAttendance returns one page of attendance for the given registrations, ordered by id.
	ListAttendance(ctx context.Context, institutionID uuid.UUID, registrationIDs []uuid.UUID, offset, limit int) ([]regModel.ExamAttendanceModel, error)

	UpsertFinalMark(ctx context.Context, row *model.FinalMarkModel) error
	// ListFinalMarks returns one page of active stored rows and the total count.
	ListFinalMarks(ctx context.Context, q model.ListQuery) ([]model.FinalMarkModel, int64, error)
}
