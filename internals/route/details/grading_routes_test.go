package details

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	courseModel "examcell_backend/internals/features/academics/courses/model"
	marksModel "examcell_backend/internals/features/exams/marks/model"
	regModel "examcell_backend/internals/features/exams/registrations/model"
	finalMarkModel "examcell_backend/internals/features/grading/final_marks/model"
	finalMarkRepo "examcell_backend/internals/features/grading/final_marks/repository"
	finalMarkService "examcell_backend/internals/features/grading/final_marks/service"
	gradeModel "examcell_backend/internals/features/grading/grade_systems/model"
	helper "examcell_backend/internals/helpers"
)

const testSecret = "test-secret"

type gradingEnv struct {
	app       *fiber.App
	repo      *finalMarkRepo.MemoryRepository
	inst      uuid.UUID
	program   uuid.UUID
	session   uuid.UUID
	courseID  uuid.UUID
	offering  uuid.UUID
	studentID uuid.UUID
}

func newGradingEnv(t *testing.T) *gradingEnv {
	t.Helper()
	e := &gradingEnv{
		repo:      finalMarkRepo.NewMemoryRepository(),
		inst:      uuid.New(),
		program:   uuid.New(),
		session:   uuid.New(),
		courseID:  uuid.New(),
		offering:  uuid.New(),
		studentID: uuid.New(),
	}

	for _, b := range []struct {
		grade    string
		min, max float64
		fail     bool
	}{
		{"O", 91, 100, false}, {"A", 71, 90.99, false}, {"B", 40, 70.99, false}, {"U", 0, 39.99, true},
	} {
		e.repo.GradeBands = append(e.repo.GradeBands, gradeModel.GradeSystemModel{
			GradeSystemID:            uuid.New(),
			GradeSystemInstitutionID: e.inst,
			GradeSystemCode:          "UG",
			GradeSystemGrade:         b.grade,
			GradeSystemMinMark:       b.min,
			GradeSystemMaxMark:       b.max,
			GradeSystemIsFail:        b.fail,
			GradeSystemIsActive:      true,
		})
	}

	courseID := e.courseID
	e.repo.Courses = append(e.repo.Courses, courseModel.CourseModel{
		CourseID:               e.courseID,
		CourseInstitutionID:    e.inst,
		CourseCode:             "CS101",
		CourseName:             "Programming",
		CourseEvaluationType:   "CIA & ESE",
		CourseInternalMaxMark:  40,
		CourseExternalMaxMark:  60,
		CourseTotalMaxMark:     100,
		CourseInternalPassMark: 16,
		CourseExternalPassMark: 24,
		CourseTotalPassMark:    40,
		CourseCredit:           4,
		CourseIsActive:         true,
	})
	e.repo.CourseOfferings = append(e.repo.CourseOfferings, courseModel.CourseOfferingModel{
		CourseOfferingID:                   e.offering,
		CourseOfferingInstitutionID:        e.inst,
		CourseOfferingExaminationSessionID: e.session,
		CourseOfferingProgramID:            e.program,
		CourseOfferingCourseID:             &courseID,
		CourseOfferingIsActive:             true,
	})

	regID := uuid.New()
	offering := e.offering
	internal, external := 30.0, 50.0
	e.repo.Registrations = append(e.repo.Registrations, regModel.ExamRegistrationModel{
		ExamRegistrationID:                   regID,
		ExamRegistrationInstitutionID:        e.inst,
		ExamRegistrationExaminationSessionID: e.session,
		ExamRegistrationProgramID:            e.program,
		ExamRegistrationStudentID:            e.studentID,
		ExamRegistrationStudentName:          "Asha",
		ExamRegistrationRegisterNo:           "24UCS001",
		ExamRegistrationCourseOfferingID:     &offering,
		ExamRegistrationIsActive:             true,
	})
	e.repo.InternalMarks = append(e.repo.InternalMarks, marksModel.InternalMarkModel{
		InternalMarkID:                   uuid.New(),
		InternalMarkInstitutionID:        e.inst,
		InternalMarkExaminationSessionID: e.session,
		InternalMarkProgramID:            e.program,
		InternalMarkCourseID:             e.courseID,
		InternalMarkStudentID:            e.studentID,
		InternalMarkExamRegistrationID:   &regID,
		InternalMarkTotalMarks:           &internal,
		InternalMarkIsActive:             true,
	})
	e.repo.MarksEntries = append(e.repo.MarksEntries, marksModel.MarksEntryModel{
		MarksEntryID:                 uuid.New(),
		MarksEntryInstitutionID:      e.inst,
		MarksEntryExamRegistrationID: regID,
		MarksEntryTotalMarksObtained: &external,
	})
	e.repo.Attendance = append(e.repo.Attendance, regModel.ExamAttendanceModel{
		ExamAttendanceID:                 uuid.New(),
		ExamAttendanceInstitutionID:      e.inst,
		ExamAttendanceExamRegistrationID: regID,
		ExamAttendanceCourseID:           e.courseID,
		ExamAttendanceStatus:             regModel.AttendancePresent,
	})

	e.app = fiber.New(fiber.Config{
		JSONEncoder:  sonic.Marshal,
		JSONDecoder:  sonic.Unmarshal,
		ErrorHandler: helper.FromFiberError,
	})
	MountGrading(e.app, finalMarkService.New(e.repo, finalMarkService.Options{}), testSecret)
	return e
}

func (e *gradingEnv) body(save bool) map[string]any {
	return map[string]any{
		"institution_id":         e.inst.String(),
		"program_id":             e.program.String(),
		"program_code":           "BSC-CS",
		"examination_session_id": e.session.String(),
		"course_ids":             []string{e.courseID.String()},
		"save_to_db":             save,
	}
}

func (e *gradingEnv) do(t *testing.T, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, sonic.Unmarshal(raw, &out), string(raw))
	return resp.StatusCode, out
}

func postJSON(t *testing.T, path string, body any) *http.Request {
	t.Helper()
	raw, err := sonic.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func signedToken(t *testing.T, userID uuid.UUID, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  userID.String(),
		"exp": exp.Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return tok
}

func TestGenerateFinalMarks_OK(t *testing.T) {
	e := newGradingEnv(t)

	status, out := e.do(t, postJSON(t, "/api/grading/final-marks", e.body(false)))
	require.Equal(t, http.StatusOK, status, out)

	assert.Equal(t, true, out["success"])
	assert.Equal(t, "UG", out["grade_system_code"])
	assert.Equal(t, float64(1), out["total_students"])

	results, ok := out["results"].([]any)
	require.True(t, ok)
	require.Len(t, results, 1)
	row := results[0].(map[string]any)
	assert.Equal(t, "A", row["letter_grade"])
	assert.Equal(t, 8.0, row["grade_point"])
	assert.Equal(t, 32.0, row["credit_points"])
	assert.Equal(t, "Pass", row["pass_status"])
	assert.Empty(t, e.repo.FinalMarks)
}

func TestGenerateFinalMarks_SavesWithActorFromToken(t *testing.T) {
	e := newGradingEnv(t)
	actor := uuid.New()

	req := postJSON(t, "/api/grading/final-marks", e.body(true))
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signedToken(t, actor, time.Now().Add(time.Hour)))
	status, out := e.do(t, req)
	require.Equal(t, http.StatusOK, status, out)
	assert.Equal(t, float64(1), out["saved_count"])

	require.Len(t, e.repo.FinalMarks, 1)
	require.NotNil(t, e.repo.FinalMarks[0].FinalMarkCalculatedBy)
	assert.Equal(t, actor, *e.repo.FinalMarks[0].FinalMarkCalculatedBy)

	// second run is blocked by the rows just written
	status, out = e.do(t, postJSON(t, "/api/grading/final-marks", e.body(true)))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "REGENERATION_BLOCKED", out["error_code"])
	blocked, ok := out["blocked_courses"].([]any)
	require.True(t, ok)
	require.Len(t, blocked, 1)
	assert.Equal(t, "CS101", blocked[0].(map[string]any)["course_code"])
}

func TestGenerateFinalMarks_RejectsBadTokens(t *testing.T) {
	e := newGradingEnv(t)

	req := postJSON(t, "/api/grading/final-marks", e.body(false))
	req.Header.Set(fiber.HeaderAuthorization, "Bearer not-a-jwt")
	status, out := e.do(t, req)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", out["error_code"])

	req = postJSON(t, "/api/grading/final-marks", e.body(false))
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signedToken(t, uuid.New(), time.Now().Add(-time.Hour)))
	status, _ = e.do(t, req)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestGenerateFinalMarks_Validation(t *testing.T) {
	e := newGradingEnv(t)

	body := e.body(false)
	body["course_ids"] = []string{"nope"}
	delete(body, "program_code")

	status, out := e.do(t, postJSON(t, "/api/grading/final-marks", body))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", out["error_code"])

	fields, ok := out["errors"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, fields, "program_code")
	assert.Contains(t, fields, "course_ids[0]")
}

func TestGenerateFinalMarks_NoGradeSystem(t *testing.T) {
	e := newGradingEnv(t)
	body := e.body(false)
	body["program_code"] = "MSC-CS"

	status, out := e.do(t, postJSON(t, "/api/grading/final-marks", body))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "GRADE_SYSTEM_NOT_FOUND", out["error_code"])
}

func TestEligibilityEndpoint(t *testing.T) {
	e := newGradingEnv(t)
	path := "/api/grading/final-marks/eligibility?institution_id=" + e.inst.String() +
		"&program_id=" + e.program.String() +
		"&examination_session_id=" + e.session.String() +
		"&course_ids=" + e.courseID.String()

	status, out := e.do(t, httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusOK, status, out)
	data := out["data"].(map[string]any)
	assert.Equal(t, true, data["eligible"])

	e.repo.FinalMarks = append(e.repo.FinalMarks, finalMarkModel.FinalMarkModel{
		FinalMarkID:                   uuid.New(),
		FinalMarkInstitutionID:        e.inst,
		FinalMarkExaminationSessionID: e.session,
		FinalMarkProgramID:            e.program,
		FinalMarkCourseID:             e.courseID,
		FinalMarkResultStatus:         finalMarkModel.ResultStatusDraft,
		FinalMarkIsActive:             true,
	})
	status, out = e.do(t, httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusOK, status, out)
	data = out["data"].(map[string]any)
	assert.Equal(t, false, data["eligible"])
	assert.Len(t, data["blocked_courses"], 1)
}

func TestProgramTypeAndResolveEndpoints(t *testing.T) {
	e := newGradingEnv(t)

	status, out := e.do(t, httptest.NewRequest(http.MethodGet, "/api/grading/program-type?program_code=MSC-CS", nil))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "PG", out["data"].(map[string]any)["program_type"])

	status, out = e.do(t, httptest.NewRequest(http.MethodGet,
		"/api/grading/grade-systems/resolve?institution_id="+e.inst.String()+"&program_code=BSC-CS", nil))
	require.Equal(t, http.StatusOK, status, out)
	data := out["data"].(map[string]any)
	assert.Equal(t, "UG", data["program_type"])
	scale := data["scale"].(map[string]any)
	assert.Equal(t, "UG", scale["grade_system_code"])
	assert.Len(t, scale["bands"], 4)

	status, out = e.do(t, httptest.NewRequest(http.MethodGet, "/api/grading/grade-systems/resolve", nil))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", out["error_code"])
}

func TestGenerationRateLimit(t *testing.T) {
	e := newGradingEnv(t)
	body := e.body(false)
	body["program_code"] = "MSC-CS" // fails fast, no roster scan

	for i := 0; i < 10; i++ {
		status, _ := e.do(t, postJSON(t, "/api/grading/final-marks", body))
		require.Equal(t, http.StatusBadRequest, status)
	}
	status, out := e.do(t, postJSON(t, "/api/grading/final-marks", body))
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "TOO_MANY_REQUESTS", out["error_code"])

	// reads are not counted against the generation limit
	status, _ = e.do(t, httptest.NewRequest(http.MethodGet, "/api/grading/program-type?program_code=BSC", nil))
	assert.Equal(t, http.StatusOK, status)
}

func TestListFinalMarksEndpoint(t *testing.T) {
	e := newGradingEnv(t)
	for i, pct := range []float64{72, 95, 40} {
		e.repo.FinalMarks = append(e.repo.FinalMarks, finalMarkModel.FinalMarkModel{
			FinalMarkID:                   uuid.New(),
			FinalMarkInstitutionID:        e.inst,
			FinalMarkExaminationSessionID: e.session,
			FinalMarkProgramID:            e.program,
			FinalMarkCourseID:             e.courseID,
			FinalMarkRegisterNo:           fmt.Sprintf("24UCS%03d", i+1),
			FinalMarkPercentage:           pct,
			FinalMarkPassStatus:           "Pass",
			FinalMarkResultStatus:         finalMarkModel.ResultStatusDraft,
			FinalMarkIsActive:             true,
		})
	}
	base := "/api/grading/final-marks?institution_id=" + e.inst.String() +
		"&program_id=" + e.program.String() +
		"&examination_session_id=" + e.session.String()

	status, out := e.do(t, httptest.NewRequest(http.MethodGet, base+"&sort_by=percentage&order=desc&per_page=2", nil))
	require.Equal(t, http.StatusOK, status, out)

	data := out["data"].([]any)
	require.Len(t, data, 2)
	assert.Equal(t, "24UCS002", data[0].(map[string]any)["register_no"])
	assert.Equal(t, "24UCS001", data[1].(map[string]any)["register_no"])

	meta := out["pagination"].(map[string]any)
	assert.Equal(t, float64(3), meta["total"])
	assert.Equal(t, float64(2), meta["total_pages"])
	assert.Equal(t, true, meta["has_next"])

	status, out = e.do(t, httptest.NewRequest(http.MethodGet, base+"&pass_status=Maybe", nil))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", out["error_code"])
}
