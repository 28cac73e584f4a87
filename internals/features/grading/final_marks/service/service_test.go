package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	courseModel "examcell_backend/internals/features/academics/courses/model"
	regModel "examcell_backend/internals/features/exams/registrations/model"
	"examcell_backend/internals/features/grading/final_marks/model"
	gradeService "examcell_backend/internals/features/grading/grade_systems/service"
)

func TestGenerate_ComputesResultsAndSummary(t *testing.T) {
	f := newFixture(t)
	cs101, off101 := f.addCourse("CS101")

	asha, bala, chitra := newStudent("24UCS002"), newStudent("24UCS001"), newStudent("24UCS003")
	f.sit(asha, cs101, off101, 30, 50)
	f.sit(bala, cs101, off101, 10, 55)

	absent := f.register(chitra, off101)
	f.internal(chitra, cs101.CourseID, &absent.ExamRegistrationID, 28)
	f.attendance(absent.ExamRegistrationID, cs101.CourseID, regModel.AttendanceAbsent)

	out, err := f.service().Generate(context.Background(), f.input(false, cs101.CourseID))
	require.NoError(t, err)

	assert.True(t, out.Success)
	assert.Equal(t, 3, out.TotalStudents)
	assert.Equal(t, 1, out.TotalCourses)
	assert.Equal(t, "UG", out.GradeSystem)
	assert.Zero(t, out.SavedCount)
	require.Len(t, out.Results, 3)

	// sorted by register number
	assert.Equal(t, "24UCS001", out.Results[0].RegisterNo)
	assert.Equal(t, StatusReappear, out.Results[0].PassStatus)
	assert.Equal(t, FailInternal, *out.Results[0].FailReason)

	assert.Equal(t, "24UCS002", out.Results[1].RegisterNo)
	assert.Equal(t, "A", out.Results[1].LetterGrade)
	assert.Equal(t, 8.0, out.Results[1].GradePoint)
	assert.Equal(t, 32.0, out.Results[1].CreditPoints)
	assert.Equal(t, off101, out.Results[1].CourseOfferingID)
	assert.Equal(t, "CS101", out.Results[1].CourseCode)

	assert.Equal(t, "24UCS003", out.Results[2].RegisterNo)
	assert.Equal(t, "AAA", out.Results[2].LetterGrade)
	assert.Equal(t, StatusAbsent, out.Results[2].PassStatus)

	assert.Equal(t, Summary{Passed: 1, Failed: 1, Reappear: 1, Absent: 1, FirstClass: 1}, out.Summary)
	assert.Empty(t, f.repo.FinalMarks)
}

func TestGenerate_SkipsIncompleteRecords(t *testing.T) {
	f := newFixture(t)
	cs101, off := f.addCourse("CS101")

	noAttendance := newStudent("24UCS010")
	r := f.register(noAttendance, off)
	f.internal(noAttendance, cs101.CourseID, &r.ExamRegistrationID, 30)
	f.external(r.ExamRegistrationID, 50)

	noExternal := newStudent("24UCS011")
	r = f.register(noExternal, off)
	f.internal(noExternal, cs101.CourseID, &r.ExamRegistrationID, 30)
	f.attendance(r.ExamRegistrationID, cs101.CourseID, regModel.AttendancePresent)

	out, err := f.service().Generate(context.Background(), f.input(true, cs101.CourseID))
	require.NoError(t, err)

	assert.Empty(t, out.Results)
	require.Len(t, out.SkippedRecords, 2)
	assert.Equal(t, 1, out.Summary.SkippedNoAttendance)
	assert.Equal(t, 1, out.Summary.SkippedMissingMarks)
	assert.Equal(t, 2, out.TotalStudents)
	assert.Zero(t, out.SavedCount)
	assert.Empty(t, f.repo.FinalMarks)
}

func TestGenerate_LatestInternalMarkWins(t *testing.T) {
	f := newFixture(t)
	cs101, off := f.addCourse("CS101")
	s := newStudent("24UCS001")
	r := f.sit(s, cs101, off, 12, 50)

	f.internal(s, cs101.CourseID, &r.ExamRegistrationID, 35)
	f.repo.InternalMarks[len(f.repo.InternalMarks)-1].InternalMarkUpdatedAt = fixedNow

	out, err := f.service().Generate(context.Background(), f.input(false, cs101.CourseID))
	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	assert.Equal(t, 35.0, *out.Results[0].InternalMarks)
	assert.Equal(t, StatusPass, out.Results[0].PassStatus)
}

func TestGenerate_PagesThroughRegistrationsAndAttendance(t *testing.T) {
	f := newFixture(t)
	f.repo.MaxRows = 2
	cs101, off := f.addCourse("CS101")
	for i := 1; i <= 5; i++ {
		f.sit(newStudent(fmt.Sprintf("24UCS%03d", i)), cs101, off, 30, 40)
	}

	svc := f.service(func(o *Options) { o.PageSize = 2 })
	out, err := svc.Generate(context.Background(), f.input(false, cs101.CourseID))
	require.NoError(t, err)

	assert.Len(t, out.Results, 5)
	assert.Equal(t, 5, out.TotalStudents)
	assert.Equal(t, 3, f.repo.RegistrationPages)
	assert.Equal(t, 3, f.repo.AttendancePages)
}

func TestGenerate_ResolvesCourseFromRegistrationSnapshot(t *testing.T) {
	f := newFixture(t)
	cs102 := f.addBareCourse("CS102")
	courseID := cs102.CourseID
	offering := courseModel.CourseOfferingModel{
		CourseOfferingID:                   uuid.New(),
		CourseOfferingInstitutionID:        f.scope.InstitutionID,
		CourseOfferingExaminationSessionID: f.scope.ExaminationSessionID,
		CourseOfferingProgramID:            f.scope.ProgramID,
		CourseOfferingCourseID:             &courseID,
		CourseOfferingIsActive:             true,
	}
	f.repo.CourseOfferings = append(f.repo.CourseOfferings, offering)

	s := newStudent("24UCS001")
	r := f.registerByCode(s, " cs102 ")
	f.internal(s, cs102.CourseID, &r.ExamRegistrationID, 30)
	f.external(r.ExamRegistrationID, 45)
	f.attendance(r.ExamRegistrationID, cs102.CourseID, regModel.AttendancePresent)

	out, err := f.service().Generate(context.Background(), f.input(true, cs102.CourseID))
	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	assert.Equal(t, "CS102", out.Results[0].CourseCode)
	assert.Equal(t, offering.CourseOfferingID, out.Results[0].CourseOfferingID)
	assert.Equal(t, 1, out.SavedCount)
}

func TestGenerate_ReportsRowsWithoutOffering(t *testing.T) {
	f := newFixture(t)
	cs103 := f.addBareCourse("CS103")
	s := newStudent("24UCS001")
	r := f.registerByCode(s, "CS103")
	f.internal(s, cs103.CourseID, &r.ExamRegistrationID, 30)
	f.external(r.ExamRegistrationID, 45)
	f.attendance(r.ExamRegistrationID, cs103.CourseID, regModel.AttendancePresent)

	out, err := f.service().Generate(context.Background(), f.input(true, cs103.CourseID))
	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	assert.Zero(t, out.SavedCount)
	require.Len(t, out.Errors, 1)
	assert.Equal(t, "24UCS001", out.Errors[0].RegisterNo)
	assert.Contains(t, out.Errors[0].Error, "no course offering")
	assert.Empty(t, f.repo.FinalMarks)
}

func TestGenerate_CIAOnlyFallsBackToInternalMarks(t *testing.T) {
	f := newFixture(t)
	lab, labOffering := f.addCourse("CS1L", ciaOnly(50, 20))
	_, theoryOffering := f.addCourse("CS100")

	withReg := newStudent("24UCS001")
	backing := f.register(withReg, theoryOffering)
	f.internal(withReg, lab.CourseID, &backing.ExamRegistrationID, 45)

	snapshotOnly := newStudent("24UCS002")
	f.internal(snapshotOnly, lab.CourseID, nil, 30)
	last := &f.repo.InternalMarks[len(f.repo.InternalMarks)-1]
	last.InternalMarkStudentName = ptr("Snapshot Name")
	last.InternalMarkRegisterNo = ptr("24UCS002")

	svc := f.service()
	out, err := svc.Generate(context.Background(), f.input(false, lab.CourseID))
	require.NoError(t, err)
	require.Len(t, out.Results, 2)

	first := out.Results[0]
	assert.True(t, first.IsSynthetic)
	assert.Equal(t, withReg.Name, first.StudentName)
	assert.Equal(t, SyntheticRegistrationID(f.scope, withReg.ID, lab.CourseID), first.ExamRegistrationID)
	require.NotNil(t, first.SourceRegistration)
	assert.Equal(t, backing.ExamRegistrationID, *first.SourceRegistration)
	assert.Equal(t, labOffering, first.CourseOfferingID)
	assert.Equal(t, EvalCIAOnly, first.EvaluationType)
	assert.Equal(t, 45.0, first.TotalMarks)
	assert.Equal(t, 4.5, first.GradePoint)
	assert.Equal(t, StatusPass, first.PassStatus)

	second := out.Results[1]
	assert.Equal(t, "Snapshot Name", second.StudentName)
	assert.Nil(t, second.SourceRegistration)
	assert.Equal(t, 30.0, second.TotalMarks)

	// the synthetic id is stable across runs
	again, err := svc.Generate(context.Background(), f.input(true, lab.CourseID))
	require.NoError(t, err)
	assert.Equal(t, first.ExamRegistrationID, again.Results[0].ExamRegistrationID)
	assert.Equal(t, 2, again.SavedCount)
	require.Len(t, f.repo.FinalMarks, 2)
	for _, fm := range f.repo.FinalMarks {
		assert.True(t, fm.FinalMarkIsSynthetic)
	}
}

func TestGenerate_NoRegistrations(t *testing.T) {
	f := newFixture(t)
	cs101, _ := f.addCourse("CS101")
	lab, _ := f.addCourse("CS1L", ciaOnly(50, 20))

	_, err := f.service().Generate(context.Background(), f.input(false, cs101.CourseID))
	var nre *NoRegistrationsError
	require.True(t, errors.As(err, &nre))
	assert.False(t, nre.CIAOnlyRequested)

	_, err = f.service().Generate(context.Background(), f.input(false, lab.CourseID))
	require.True(t, errors.As(err, &nre))
	assert.True(t, nre.CIAOnlyRequested)
}

func TestGenerate_Validation(t *testing.T) {
	f := newFixture(t)
	svc := f.service()

	in := f.input(false)
	in.ProgramCode = "  "
	_, err := svc.Generate(context.Background(), in)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	fields := map[string]bool{}
	for _, fe := range ve.Fields {
		fields[fe.Field] = true
	}
	assert.True(t, fields["program_code"])
	assert.True(t, fields["course_ids"])
	assert.Zero(t, f.repo.RegistrationPages)

	_, err = svc.Generate(context.Background(), f.input(false, uuid.New()))
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "unknown course id(s)", ve.Message)
}

func TestGenerate_NoGradeSystem(t *testing.T) {
	f := newFixture(t)
	cs101, off := f.addCourse("CS101")
	f.sit(newStudent("24PCS001"), cs101, off, 30, 50)

	in := f.input(false, cs101.CourseID)
	in.ProgramCode = "MSC-CS"
	_, err := f.service().Generate(context.Background(), in)

	var ge *gradeService.NoGradeSystemError
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, "PG", ge.Code)
}

func TestGenerate_ExplicitGradeSystemCode(t *testing.T) {
	f := newFixture(t)
	f.seedScale("PG")
	cs101, off := f.addCourse("CS101")
	f.sit(newStudent("24PCS001"), cs101, off, 30, 50)

	in := f.input(false, cs101.CourseID)
	in.ProgramCode = "MSC-CS"
	in.GradeSystemCode = "UG"
	out, err := f.service().Generate(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "UG", out.GradeSystem)
}

func TestGenerate_BlockedWhenResultsExist(t *testing.T) {
	f := newFixture(t)
	cs101, off := f.addCourse("CS101")
	f.sit(newStudent("24UCS001"), cs101, off, 30, 50)
	f.repo.FinalMarks = append(f.repo.FinalMarks, model.FinalMarkModel{
		FinalMarkID:                   uuid.New(),
		FinalMarkInstitutionID:        f.scope.InstitutionID,
		FinalMarkExaminationSessionID: f.scope.ExaminationSessionID,
		FinalMarkProgramID:            f.scope.ProgramID,
		FinalMarkCourseID:             cs101.CourseID,
		FinalMarkResultStatus:         model.ResultStatusPublished,
		FinalMarkIsActive:             true,
	})

	_, err := f.service().Generate(context.Background(), f.input(true, cs101.CourseID))
	var be *BlockedRegenerationError
	require.True(t, errors.As(err, &be))
	require.Len(t, be.Courses, 1)
	assert.Equal(t, "CS101", be.Courses[0].CourseCode)
	assert.Equal(t, []string{model.ResultStatusPublished}, be.Courses[0].Statuses)
	assert.Equal(t, 1, be.Courses[0].RowCount)
	assert.Contains(t, be.Error(), "CS101 (Published)")
	assert.Zero(t, f.repo.RegistrationPages)
}

func TestGenerate_RegeneratesAfterReset(t *testing.T) {
	f := newFixture(t)
	cs101, off := f.addCourse("CS101")
	f.sit(newStudent("24UCS001"), cs101, off, 30, 50)
	svc := f.service()

	out, err := svc.Generate(context.Background(), f.input(true, cs101.CourseID))
	require.NoError(t, err)
	assert.Equal(t, 1, out.SavedCount)
	require.Len(t, f.repo.FinalMarks, 1)
	firstID := f.repo.FinalMarks[0].FinalMarkID

	f.repo.FinalMarks[0].FinalMarkIsActive = false

	out, err = svc.Generate(context.Background(), f.input(true, cs101.CourseID))
	require.NoError(t, err)
	assert.Equal(t, 1, out.SavedCount)
	require.Len(t, f.repo.FinalMarks, 1)
	assert.Equal(t, firstID, f.repo.FinalMarks[0].FinalMarkID)
	assert.True(t, f.repo.FinalMarks[0].FinalMarkIsActive)
	assert.Equal(t, model.ResultStatusDraft, f.repo.FinalMarks[0].FinalMarkResultStatus)
}

func TestGenerate_ConcurrentRunsForSameCourse(t *testing.T) {
	f := newFixture(t)
	cs101, off := f.addCourse("CS101")
	for i := 1; i <= 3; i++ {
		f.sit(newStudent(fmt.Sprintf("24UCS%03d", i)), cs101, off, 30, 50)
	}
	svc := f.service()

	const runs = 4
	var wg sync.WaitGroup
	errs := make([]error, runs)
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Generate(context.Background(), f.input(true, cs101.CourseID))
		}(i)
	}
	wg.Wait()

	succeeded, blocked := 0, 0
	for _, err := range errs {
		var be *BlockedRegenerationError
		switch {
		case err == nil:
			succeeded++
		case errors.As(err, &be):
			blocked++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, runs-1, blocked)
	assert.Len(t, f.repo.FinalMarks, 3)
}

func TestGenerate_WaitingRunHonoursDeadline(t *testing.T) {
	f := newFixture(t)
	cs101, off := f.addCourse("CS101")
	f.sit(newStudent("24UCS001"), cs101, off, 30, 50)
	svc := f.service()

	unlock, err := svc.locks.Lock(context.Background(), generationLockKeys(f.scope, []uuid.UUID{cs101.CourseID}))
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	out, err := svc.Generate(ctx, f.input(true, cs101.CourseID))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, out)
	assert.Empty(t, f.repo.FinalMarks)
}

func TestGenerate_PersistsSnapshotAndActor(t *testing.T) {
	f := newFixture(t)
	cs101, off := f.addCourse("CS101")
	s := newStudent("24UCS001")
	r := f.sit(s, cs101, off, 30, 50)

	actor := uuid.New()
	in := f.input(true, cs101.CourseID)
	in.CalculatedBy = &actor
	_, err := f.service().Generate(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, f.repo.FinalMarks, 1)

	fm := f.repo.FinalMarks[0]
	assert.Equal(t, r.ExamRegistrationID, fm.FinalMarkExamRegistrationID)
	assert.Equal(t, off, fm.FinalMarkCourseOfferingID)
	assert.Equal(t, "BSC-CS", fm.FinalMarkProgramCode)
	assert.Equal(t, "UG", fm.FinalMarkGradeSystemCode)
	assert.Equal(t, 32.0, fm.FinalMarkTotalGradePoints)
	assert.Equal(t, &actor, fm.FinalMarkCalculatedBy)
	assert.True(t, fm.FinalMarkCalculatedAt.Equal(fixedNow))
	assert.Equal(t, "present", fm.FinalMarkCalculationSnapshot["attendance"])

	band, ok := fm.FinalMarkCalculationSnapshot["band"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "A", band["grade"])
	assert.Equal(t, 71.0, band["min_mark"])
}

func TestGenerate_CancelledContextStopsSaving(t *testing.T) {
	f := newFixture(t)
	cs101, off := f.addCourse("CS101")
	f.sit(newStudent("24UCS001"), cs101, off, 30, 50)

	svc := f.service()
	meta := SaveMeta{Scope: f.scope, ProgramCode: "BSC-CS", GradeSystemCode: "UG"}
	out, err := svc.Generate(context.Background(), f.input(false, cs101.CourseID))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	saved, rowErrs := svc.Writer.Save(ctx, meta, out.Results)
	assert.Zero(t, saved)
	require.Len(t, rowErrs, 1)
	assert.Contains(t, rowErrs[0].Error, "deadline exceeded")
}
