package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	courseModel "examcell_backend/internals/features/academics/courses/model"
	marksModel "examcell_backend/internals/features/exams/marks/model"
	regModel "examcell_backend/internals/features/exams/registrations/model"
	"examcell_backend/internals/features/grading/final_marks/model"
	gradeRepo "examcell_backend/internals/features/grading/grade_systems/repository"
)

// GormRepository reads the exam tables and writes final_marks through gorm.
type GormRepository struct {
	*gradeRepo.GradeSystemRepository
	DB *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{
		GradeSystemRepository: gradeRepo.NewGradeSystemRepository(db),
		DB:                    db,
	}
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

/* =========================
   final_marks
========================= */

func (r *GormRepository) FindActiveFinalMarks(ctx context.Context, scope model.Scope, courseIDs []uuid.UUID) ([]model.FinalMarkModel, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}
	var rows []model.FinalMarkModel
	err := r.DB.WithContext(ctx).
		Raw(`
			SELECT *
			FROM final_marks
			WHERE final_mark_institution_id = ?
			  AND final_mark_examination_session_id = ?
			  AND final_mark_program_id = ?
			  AND final_mark_course_id = ANY(?::uuid[])
			  AND final_mark_is_active = TRUE
			  AND final_mark_deleted_at IS NULL
		`, scope.InstitutionID, scope.ExaminationSessionID, scope.ProgramID, pq.Array(uuidStrings(courseIDs))).
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "query final_marks")
	}
	return rows, nil
}

func (r *GormRepository) UpsertFinalMark(ctx context.Context, row *model.FinalMarkModel) error {
	err := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "final_mark_institution_id"},
				{Name: "final_mark_exam_registration_id"},
				{Name: "final_mark_course_offering_id"},
			},
			DoUpdates: clause.AssignmentColumns(model.UpsertColumns),
		}).
		Create(row).Error
	if err != nil {
		return mapPGError(err)
	}
	return nil
}

func (r *GormRepository) ListFinalMarks(ctx context.Context, q model.ListQuery) ([]model.FinalMarkModel, int64, error) {
	tx := r.DB.WithContext(ctx).Model(&model.FinalMarkModel{}).
		Where("final_mark_institution_id = ? AND final_mark_examination_session_id = ? AND final_mark_program_id = ?",
			q.Scope.InstitutionID, q.Scope.ExaminationSessionID, q.Scope.ProgramID).
		Where("final_mark_is_active = TRUE")
	if q.CourseID != nil {
		tx = tx.Where("final_mark_course_id = ?", *q.CourseID)
	}
	if q.PassStatus != "" {
		tx = tx.Where("final_mark_pass_status = ?", q.PassStatus)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count final_marks")
	}

	col := q.SortColumn
	if col == "" {
		col = "final_mark_register_no"
	}
	var rows []model.FinalMarkModel
	err := tx.
		Order(clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: q.Desc}).
		Order("final_mark_id").
		Offset(q.Offset).
		Limit(q.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "list final_marks")
	}
	return rows, total, nil
}

// mapPGError turns constraint violations into readable messages, keeping the cause.
func mapPGError(err error) error {
	var code, detail string
	var pgErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgErr):
		code, detail = pgErr.Code, pgErr.ConstraintName
	case errors.As(err, &pqErr):
		code, detail = string(pqErr.Code), pqErr.Constraint
	default:
		return errors.Wrap(err, "upsert final_marks")
	}

	switch code {
	case "23505":
		return errors.Wrap(err, fmt.Sprintf("duplicate final mark (constraint %s)", detail))
	case "23503":
		return errors.Wrap(err, fmt.Sprintf("referenced record not found (constraint %s)", detail))
	case "23502":
		return errors.Wrap(err, "required column missing")
	case "22003":
		return errors.Wrap(err, "numeric value out of range")
	default:
		return errors.Wrap(err, "upsert final_marks")
	}
}

/* =========================
   courses / mapping / offerings
========================= */

func (r *GormRepository) FindCoursesByIDs(ctx context.Context, ids []uuid.UUID) ([]courseModel.CourseModel, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []courseModel.CourseModel
	if err := r.DB.WithContext(ctx).Where("course_id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "query courses")
	}
	return rows, nil
}

func (r *GormRepository) FindCourseMappingsByIDs(ctx context.Context, ids []uuid.UUID) ([]courseModel.CourseMappingModel, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []courseModel.CourseMappingModel
	if err := r.DB.WithContext(ctx).Where("course_mapping_id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "query course_mapping")
	}
	return rows, nil
}

func (r *GormRepository) FindCourseOfferingsByIDs(ctx context.Context, ids []uuid.UUID) ([]courseModel.CourseOfferingModel, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []courseModel.CourseOfferingModel
	if err := r.DB.WithContext(ctx).Where("course_offering_id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "query course_offerings")
	}
	return rows, nil
}

func (r *GormRepository) ListCourseOfferings(ctx context.Context, scope model.Scope) ([]courseModel.CourseOfferingModel, error) {
	var rows []courseModel.CourseOfferingModel
	err := r.DB.WithContext(ctx).
		Where("course_offering_institution_id = ? AND course_offering_examination_session_id = ? AND course_offering_program_id = ?",
			scope.InstitutionID, scope.ExaminationSessionID, scope.ProgramID).
		Order("course_offering_id").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "query course_offerings by scope")
	}
	return rows, nil
}

/* =========================
   registrations / attendance
========================= */

func (r *GormRepository) ListExamRegistrations(ctx context.Context, scope model.Scope, offset, limit int) ([]regModel.ExamRegistrationModel, error) {
	var rows []regModel.ExamRegistrationModel
	err := r.DB.WithContext(ctx).
		Where("exam_registration_institution_id = ? AND exam_registration_examination_session_id = ? AND exam_registration_program_id = ? AND exam_registration_is_active = ?",
			scope.InstitutionID, scope.ExaminationSessionID, scope.ProgramID, true).
		Order("exam_registration_id").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "query exam_registrations")
	}
	return rows, nil
}

func (r *GormRepository) FindExamRegistrationsByIDs(ctx context.Context, ids []uuid.UUID) ([]regModel.ExamRegistrationModel, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []regModel.ExamRegistrationModel
	if err := r.DB.WithContext(ctx).Where("exam_registration_id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "query exam_registrations by id")
	}
	return rows, nil
}

func (r *GormRepository) ListAttendance(ctx context.Context, institutionID uuid.UUID, registrationIDs []uuid.UUID, offset, limit int) ([]regModel.ExamAttendanceModel, error) {
	if len(registrationIDs) == 0 {
		return nil, nil
	}
	var rows []regModel.ExamAttendanceModel
	err := r.DB.WithContext(ctx).
		Where("exam_attendance_institution_id = ? AND exam_attendance_exam_registration_id IN ?", institutionID, registrationIDs).
		Order("exam_attendance_id").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "query exam_attendance")
	}
	return rows, nil
}

/* =========================
   marks
========================= */

func (r *GormRepository) ListInternalMarks(ctx context.Context, scope model.Scope, courseIDs []uuid.UUID) ([]marksModel.InternalMarkModel, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}
	var rows []marksModel.InternalMarkModel
	err := r.DB.WithContext(ctx).
		Where("internal_mark_institution_id = ? AND internal_mark_examination_session_id = ? AND internal_mark_program_id = ? AND internal_mark_is_active = ?",
			scope.InstitutionID, scope.ExaminationSessionID, scope.ProgramID, true).
		Where("internal_mark_course_id IN ?", courseIDs).
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "query internal_marks")
	}
	return rows, nil
}

func (r *GormRepository) ListMarksEntries(ctx context.Context, institutionID uuid.UUID, registrationIDs []uuid.UUID) ([]marksModel.MarksEntryModel, error) {
	if len(registrationIDs) == 0 {
		return nil, nil
	}
	var rows []marksModel.MarksEntryModel
	err := r.DB.WithContext(ctx).
		Where("marks_entry_institution_id = ? AND marks_entry_exam_registration_id IN ?", institutionID, registrationIDs).
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "query marks_entry")
	}
	return rows, nil
}
