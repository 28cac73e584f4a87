package service

import (
	"testing"
	"time"

	"github.com/google/uuid"

	courseModel "examcell_backend/internals/features/academics/courses/model"
	marksModel "examcell_backend/internals/features/exams/marks/model"
	regModel "examcell_backend/internals/features/exams/registrations/model"
	"examcell_backend/internals/features/grading/final_marks/model"
	"examcell_backend/internals/features/grading/final_marks/repository"
	gradeModel "examcell_backend/internals/features/grading/grade_systems/model"
)

var fixedNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type fixture struct {
	t     *testing.T
	repo  *repository.MemoryRepository
	scope model.Scope
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:    t,
		repo: repository.NewMemoryRepository(),
		scope: model.Scope{
			InstitutionID:        uuid.New(),
			ProgramID:            uuid.New(),
			ExaminationSessionID: uuid.New(),
		},
	}
	f.seedScale("UG")
	return f
}

func (f *fixture) seedScale(code string) {
	add := func(grade string, min, max, gp float64, desc string, absent, fail bool) {
		f.repo.GradeBands = append(f.repo.GradeBands, gradeModel.GradeSystemModel{
			GradeSystemID:            uuid.New(),
			GradeSystemInstitutionID: f.scope.InstitutionID,
			GradeSystemCode:          code,
			GradeSystemGrade:         grade,
			GradeSystemMinMark:       min,
			GradeSystemMaxMark:       max,
			GradeSystemGradePoint:    gp,
			GradeSystemDescription:   desc,
			GradeSystemIsAbsent:      absent,
			GradeSystemIsFail:        fail,
			GradeSystemIsActive:      true,
		})
	}
	add("O", 91, 100, 10, "Outstanding", false, false)
	add("A+", 81, 90.99, 9, "Excellent", false, false)
	add("A", 71, 80.99, 8, "Very Good", false, false)
	add("B+", 61, 70.99, 7, "Good", false, false)
	add("B", 51, 60.99, 6, "Above Average", false, false)
	add("C", 40, 50.99, 5, "Average", false, false)
	add("U", 0, 39.99, 0, "Re-Appear", false, true)
	add("AAA", 0, 0, 0, "Absent", true, false)
}

type courseOpt func(*courseModel.CourseModel)

func ciaOnly(internalMax, internalPass float64) courseOpt {
	return func(c *courseModel.CourseModel) {
		c.CourseEvaluationType = "CIA"
		c.CourseInternalMaxMark = internalMax
		c.CourseExternalMaxMark = 0
		c.CourseTotalMaxMark = internalMax
		c.CourseInternalPassMark = internalPass
		c.CourseExternalPassMark = 0
		c.CourseTotalPassMark = internalPass
	}
}

// addCourse registers a 40/60/100 CIA & ESE course (pass 16/24/40, 4 credits) with a mapping
// and an offering in the fixture scope.
func (f *fixture) addCourse(code string, opts ...courseOpt) (courseModel.CourseModel, uuid.UUID) {
	c := f.addBareCourse(code, opts...)

	mapping := courseModel.CourseMappingModel{
		CourseMappingID:            uuid.New(),
		CourseMappingInstitutionID: f.scope.InstitutionID,
		CourseMappingCourseID:      c.CourseID,
		CourseMappingProgramID:     f.scope.ProgramID,
	}
	f.repo.CourseMappings = append(f.repo.CourseMappings, mapping)

	offering := courseModel.CourseOfferingModel{
		CourseOfferingID:                   uuid.New(),
		CourseOfferingInstitutionID:        f.scope.InstitutionID,
		CourseOfferingExaminationSessionID: f.scope.ExaminationSessionID,
		CourseOfferingProgramID:            f.scope.ProgramID,
		CourseOfferingCourseMappingID:      &mapping.CourseMappingID,
		CourseOfferingIsActive:             true,
	}
	f.repo.CourseOfferings = append(f.repo.CourseOfferings, offering)
	return c, offering.CourseOfferingID
}

// addBareCourse registers a course with no mapping or offering.
func (f *fixture) addBareCourse(code string, opts ...courseOpt) courseModel.CourseModel {
	c := courseModel.CourseModel{
		CourseID:               uuid.New(),
		CourseInstitutionID:    f.scope.InstitutionID,
		CourseCode:             code,
		CourseName:             code + " course",
		CourseEvaluationType:   "CIA & ESE",
		CourseInternalMaxMark:  40,
		CourseExternalMaxMark:  60,
		CourseTotalMaxMark:     100,
		CourseInternalPassMark: 16,
		CourseExternalPassMark: 24,
		CourseTotalPassMark:    40,
		CourseCredit:           4,
		CourseIsActive:         true,
	}
	for _, o := range opts {
		o(&c)
	}
	f.repo.Courses = append(f.repo.Courses, c)
	return c
}

type student struct {
	ID         uuid.UUID
	Name       string
	RegisterNo string
}

func newStudent(registerNo string) student {
	return student{ID: uuid.New(), Name: "Student " + registerNo, RegisterNo: registerNo}
}

func (f *fixture) register(s student, offeringID uuid.UUID) regModel.ExamRegistrationModel {
	r := regModel.ExamRegistrationModel{
		ExamRegistrationID:                   uuid.New(),
		ExamRegistrationInstitutionID:        f.scope.InstitutionID,
		ExamRegistrationExaminationSessionID: f.scope.ExaminationSessionID,
		ExamRegistrationProgramID:            f.scope.ProgramID,
		ExamRegistrationStudentID:            s.ID,
		ExamRegistrationStudentName:          s.Name,
		ExamRegistrationRegisterNo:           s.RegisterNo,
		ExamRegistrationIsActive:             true,
	}
	if offeringID != uuid.Nil {
		id := offeringID
		r.ExamRegistrationCourseOfferingID = &id
	}
	f.repo.Registrations = append(f.repo.Registrations, r)
	return r
}

func (f *fixture) registerByCode(s student, courseCode string) regModel.ExamRegistrationModel {
	r := f.register(s, uuid.Nil)
	code := courseCode
	f.repo.Registrations[len(f.repo.Registrations)-1].ExamRegistrationCourseCode = &code
	r.ExamRegistrationCourseCode = &code
	return r
}

func (f *fixture) internal(s student, courseID uuid.UUID, regID *uuid.UUID, marks float64) {
	f.repo.InternalMarks = append(f.repo.InternalMarks, marksModel.InternalMarkModel{
		InternalMarkID:                   uuid.New(),
		InternalMarkInstitutionID:        f.scope.InstitutionID,
		InternalMarkExaminationSessionID: f.scope.ExaminationSessionID,
		InternalMarkProgramID:            f.scope.ProgramID,
		InternalMarkCourseID:             courseID,
		InternalMarkStudentID:            s.ID,
		InternalMarkExamRegistrationID:   regID,
		InternalMarkTotalMarks:           &marks,
		InternalMarkIsActive:             true,
		InternalMarkCreatedAt:            fixedNow.Add(-time.Hour),
		InternalMarkUpdatedAt:            fixedNow.Add(-time.Hour),
	})
}

func (f *fixture) external(regID uuid.UUID, marks float64) {
	f.repo.MarksEntries = append(f.repo.MarksEntries, marksModel.MarksEntryModel{
		MarksEntryID:                 uuid.New(),
		MarksEntryInstitutionID:      f.scope.InstitutionID,
		MarksEntryExamRegistrationID: regID,
		MarksEntryTotalMarksObtained: &marks,
		MarksEntryUpdatedAt:          fixedNow.Add(-time.Hour),
	})
}

func (f *fixture) attendance(regID, courseID uuid.UUID, status string) {
	f.repo.Attendance = append(f.repo.Attendance, regModel.ExamAttendanceModel{
		ExamAttendanceID:                 uuid.New(),
		ExamAttendanceInstitutionID:      f.scope.InstitutionID,
		ExamAttendanceExamRegistrationID: regID,
		ExamAttendanceCourseID:           courseID,
		ExamAttendanceStatus:             status,
		ExamAttendanceUpdatedAt:          fixedNow.Add(-time.Hour),
	})
}

// sit registers a student for a course with marks and a Present attendance row.
func (f *fixture) sit(s student, c courseModel.CourseModel, offeringID uuid.UUID, internal, external float64) regModel.ExamRegistrationModel {
	r := f.register(s, offeringID)
	f.internal(s, c.CourseID, &r.ExamRegistrationID, internal)
	f.external(r.ExamRegistrationID, external)
	f.attendance(r.ExamRegistrationID, c.CourseID, regModel.AttendancePresent)
	return r
}

func (f *fixture) service(opts ...func(*Options)) *Service {
	o := Options{Now: func() time.Time { return fixedNow }}
	for _, fn := range opts {
		fn(&o)
	}
	return New(f.repo, o)
}

func (f *fixture) input(save bool, courseIDs ...uuid.UUID) GenerateInput {
	return GenerateInput{
		InstitutionID:        f.scope.InstitutionID,
		ProgramID:            f.scope.ProgramID,
		ProgramCode:          "BSC-CS",
		ExaminationSessionID: f.scope.ExaminationSessionID,
		CourseIDs:            courseIDs,
		SaveToDB:             save,
	}
}
