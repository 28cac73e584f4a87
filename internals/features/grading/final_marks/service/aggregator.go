package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	courseModel "examcell_backend/internals/features/academics/courses/model"
	marksModel "examcell_backend/internals/features/exams/marks/model"
	regModel "examcell_backend/internals/features/exams/registrations/model"
	"examcell_backend/internals/features/grading/final_marks/model"
)

// syntheticNamespace seeds the name-based ids of CIA-only roster entries.
var syntheticNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("examcell:cia-only-registration"))

// SyntheticRegistrationID is stable for the same institution, session, student and course.
func SyntheticRegistrationID(scope model.Scope, studentID, courseID uuid.UUID) uuid.UUID {
	name := fmt.Sprintf("%s|%s|%s|%s", scope.InstitutionID, scope.ExaminationSessionID, studentID, courseID)
	return uuid.NewSHA1(syntheticNamespace, []byte(name))
}

func fetchChunked[T any](ids []uuid.UUID, size int, fetch func([]uuid.UUID) ([]T, error)) ([]T, error) {
	var out []T
	for _, chunk := range chunkUUIDs(ids, size) {
		rows, err := fetch(chunk)
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return out, nil
}

/* =========================
   Roster building
========================= */

func (s *Service) buildRoster(ctx context.Context, scope model.Scope, courses map[uuid.UUID]CourseSpec) ([]RosterEntry, error) {
	byCode := make(map[string]CourseSpec, len(courses))
	courseIDs := make([]uuid.UUID, 0, len(courses))
	for id, c := range courses {
		byCode[normalizeCode(c.Code)] = c
		courseIDs = append(courseIDs, id)
	}

	// 1) registrations, page by page
	regs, err := s.fetchAllRegistrations(ctx, scope)
	if err != nil {
		return nil, err
	}

	// 2) offering / mapping / course tables
	lk, offeringByCourse, err := s.loadCourseLookups(ctx, scope, regs)
	if err != nil {
		return nil, err
	}

	// 3) internal marks for every requested course (also feeds the CIA-only fallback)
	internalRows, err := s.Repo.ListInternalMarks(ctx, scope, courseIDs)
	if err != nil {
		return nil, errors.Wrap(err, "load internal marks")
	}
	internals := latestInternalMarks(internalRows)

	// 4) registrations → roster
	entries := make([]RosterEntry, 0, len(regs))
	seen := make(map[string]struct{}, len(regs))
	matched := make(map[uuid.UUID]int, len(courses))
	for _, reg := range regs {
		rc, ok := lk.ResolveCourseCode(reg)
		if !ok {
			continue
		}
		spec, ok := byCode[rc.Code]
		if !ok {
			continue
		}
		key := registrationCourseKey(reg.ExamRegistrationID, spec.CourseID)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		offeringID := uuid.Nil
		if reg.ExamRegistrationCourseOfferingID != nil {
			offeringID = *reg.ExamRegistrationCourseOfferingID
		} else if id, ok := offeringByCourse[spec.CourseID]; ok {
			offeringID = id
		}
		if offeringID == uuid.Nil {
			log.Printf("[WARN] final-marks: registration %s (%s) has no course offering for %s",
				reg.ExamRegistrationID, reg.ExamRegistrationRegisterNo, spec.Code)
		}

		entries = append(entries, RosterEntry{
			StudentID:          reg.ExamRegistrationStudentID,
			StudentName:        reg.ExamRegistrationStudentName,
			RegisterNo:         reg.ExamRegistrationRegisterNo,
			ExamRegistrationID: reg.ExamRegistrationID,
			CourseOfferingID:   offeringID,
			Course:             spec,
			CodeSource:         rc.Source,
		})
		matched[spec.CourseID]++
	}

	// 5) CIA-only fallback
	var ciaPending []CourseSpec
	hasCIA := false
	for _, c := range courses {
		if c.EvaluationType != EvalCIAOnly {
			continue
		}
		hasCIA = true
		if matched[c.CourseID] == 0 {
			ciaPending = append(ciaPending, c)
		}
	}
	if len(ciaPending) > 0 {
		synth, err := s.synthesizeCIAEntries(ctx, scope, ciaPending, internalRows, offeringByCourse)
		if err != nil {
			return nil, err
		}
		entries = append(entries, synth...)
	}

	if len(entries) == 0 {
		return nil, &NoRegistrationsError{CIAOnlyRequested: hasCIA}
	}

	// 6) attach marks + attendance
	if err := s.attachMarks(ctx, scope, entries, internals); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Service) fetchAllRegistrations(ctx context.Context, scope model.Scope) ([]regModel.ExamRegistrationModel, error) {
	size := s.opts.PageSize
	var all []regModel.ExamRegistrationModel
	for offset := 0; ; offset += size {
		page, err := s.Repo.ListExamRegistrations(ctx, scope, offset, size)
		if err != nil {
			return nil, errors.Wrapf(err, "load exam registrations (offset %d)", offset)
		}
		all = append(all, page...)
		if len(page) < size {
			break
		}
	}
	return all, nil
}

// loadCourseLookups builds the offering → mapping → course tables for the scope and the
// registrations, and an index course id → offering id for the scope.
func (s *Service) loadCourseLookups(ctx context.Context, scope model.Scope, regs []regModel.ExamRegistrationModel) (courseLookups, map[uuid.UUID]uuid.UUID, error) {
	lk := courseLookups{
		courses:   map[uuid.UUID]courseModel.CourseModel{},
		mappings:  map[uuid.UUID]courseModel.CourseMappingModel{},
		offerings: map[uuid.UUID]courseModel.CourseOfferingModel{},
	}

	scoped, err := s.Repo.ListCourseOfferings(ctx, scope)
	if err != nil {
		return lk, nil, errors.Wrap(err, "load course offerings")
	}
	for _, o := range scoped {
		lk.offerings[o.CourseOfferingID] = o
	}

	var missing []uuid.UUID
	for _, r := range regs {
		if r.ExamRegistrationCourseOfferingID == nil {
			continue
		}
		if _, ok := lk.offerings[*r.ExamRegistrationCourseOfferingID]; !ok {
			missing = append(missing, *r.ExamRegistrationCourseOfferingID)
		}
	}
	extra, err := fetchChunked(uniqueUUIDs(missing), s.opts.BatchSize, func(ids []uuid.UUID) ([]courseModel.CourseOfferingModel, error) {
		return s.Repo.FindCourseOfferingsByIDs(ctx, ids)
	})
	if err != nil {
		return lk, nil, errors.Wrap(err, "load course offerings by id")
	}
	for _, o := range extra {
		lk.offerings[o.CourseOfferingID] = o
	}

	var mappingIDs, courseIDs []uuid.UUID
	for _, o := range lk.offerings {
		if o.CourseOfferingCourseMappingID != nil {
			mappingIDs = append(mappingIDs, *o.CourseOfferingCourseMappingID)
		}
		if o.CourseOfferingCourseID != nil {
			courseIDs = append(courseIDs, *o.CourseOfferingCourseID)
		}
	}
	mappings, err := fetchChunked(uniqueUUIDs(mappingIDs), s.opts.BatchSize, func(ids []uuid.UUID) ([]courseModel.CourseMappingModel, error) {
		return s.Repo.FindCourseMappingsByIDs(ctx, ids)
	})
	if err != nil {
		return lk, nil, errors.Wrap(err, "load course mappings")
	}
	for _, m := range mappings {
		lk.mappings[m.CourseMappingID] = m
		courseIDs = append(courseIDs, m.CourseMappingCourseID)
	}

	courses, err := fetchChunked(uniqueUUIDs(courseIDs), s.opts.BatchSize, func(ids []uuid.UUID) ([]courseModel.CourseModel, error) {
		return s.Repo.FindCoursesByIDs(ctx, ids)
	})
	if err != nil {
		return lk, nil, errors.Wrap(err, "load courses")
	}
	for _, c := range courses {
		lk.courses[c.CourseID] = c
	}

	offeringByCourse := make(map[uuid.UUID]uuid.UUID, len(scoped))
	for _, o := range scoped {
		if !o.CourseOfferingIsActive {
			continue
		}
		if cid, ok := lk.offeringCourseID(o); ok {
			if _, exists := offeringByCourse[cid]; !exists {
				offeringByCourse[cid] = o.CourseOfferingID
			}
		}
	}
	return lk, offeringByCourse, nil
}

// synthesizeCIAEntries builds roster entries for CIA-only courses that have no exam registrations,
// one per student holding an internal mark for the course.
func (s *Service) synthesizeCIAEntries(
	ctx context.Context,
	scope model.Scope,
	pending []CourseSpec,
	internalRows []marksModel.InternalMarkModel,
	offeringByCourse map[uuid.UUID]uuid.UUID,
) ([]RosterEntry, error) {
	want := make(map[uuid.UUID]CourseSpec, len(pending))
	for _, c := range pending {
		want[c.CourseID] = c
	}

	latest := map[string]marksModel.InternalMarkModel{}
	for k, r := range latestInternalMarks(internalRows) {
		if _, ok := want[r.InternalMarkCourseID]; ok {
			latest[k] = r
		}
	}
	if len(latest) == 0 {
		return nil, nil
	}

	var backingIDs []uuid.UUID
	for _, r := range latest {
		if r.InternalMarkExamRegistrationID != nil {
			backingIDs = append(backingIDs, *r.InternalMarkExamRegistrationID)
		}
	}
	backing, err := fetchChunked(uniqueUUIDs(backingIDs), s.opts.BatchSize, func(ids []uuid.UUID) ([]regModel.ExamRegistrationModel, error) {
		return s.Repo.FindExamRegistrationsByIDs(ctx, ids)
	})
	if err != nil {
		return nil, errors.Wrap(err, "load registrations behind internal marks")
	}
	regByID := make(map[uuid.UUID]regModel.ExamRegistrationModel, len(backing))
	for _, r := range backing {
		regByID[r.ExamRegistrationID] = r
	}

	out := make([]RosterEntry, 0, len(latest))
	for _, im := range latest {
		spec := want[im.InternalMarkCourseID]
		e := RosterEntry{
			StudentID:            im.InternalMarkStudentID,
			ExamRegistrationID:   SyntheticRegistrationID(scope, im.InternalMarkStudentID, spec.CourseID),
			IsSynthetic:          true,
			SourceRegistrationID: im.InternalMarkExamRegistrationID,
			CourseOfferingID:     offeringByCourse[spec.CourseID],
			Course:               spec,
			CodeSource:           CodeSynthetic,
		}
		if im.InternalMarkExamRegistrationID != nil {
			if reg, ok := regByID[*im.InternalMarkExamRegistrationID]; ok {
				e.StudentName = reg.ExamRegistrationStudentName
				e.RegisterNo = reg.ExamRegistrationRegisterNo
			}
		}
		if e.StudentName == "" && im.InternalMarkStudentName != nil {
			e.StudentName = strings.TrimSpace(*im.InternalMarkStudentName)
		}
		if e.RegisterNo == "" && im.InternalMarkRegisterNo != nil {
			e.RegisterNo = strings.TrimSpace(*im.InternalMarkRegisterNo)
		}
		out = append(out, e)
	}

	log.Printf("[INFO] final-marks: synthesized %d CIA-only roster entries for %d course(s)", len(out), len(pending))
	return out, nil
}

func (s *Service) attachMarks(ctx context.Context, scope model.Scope, entries []RosterEntry, internals map[string]marksModel.InternalMarkModel) error {
	var regIDs []uuid.UUID
	for _, e := range entries {
		if !e.IsSynthetic {
			regIDs = append(regIDs, e.ExamRegistrationID)
		}
	}
	regIDs = uniqueUUIDs(regIDs)

	externalRows, err := fetchChunked(regIDs, s.opts.BatchSize, func(ids []uuid.UUID) ([]marksModel.MarksEntryModel, error) {
		return s.Repo.ListMarksEntries(ctx, scope.InstitutionID, ids)
	})
	if err != nil {
		return errors.Wrap(err, "load external marks")
	}
	externals := externalByRegistration(externalRows)

	attendanceRows, err := fetchChunked(regIDs, s.opts.BatchSize, func(ids []uuid.UUID) ([]regModel.ExamAttendanceModel, error) {
		return s.fetchAttendancePages(ctx, scope.InstitutionID, ids)
	})
	if err != nil {
		return errors.Wrap(err, "load attendance")
	}
	attendance := attendanceByRegistrationCourse(attendanceRows)

	for i := range entries {
		e := &entries[i]
		if im, ok := internals[studentCourseKey(e.StudentID, e.Course.CourseID)]; ok && im.InternalMarkTotalMarks != nil {
			e.Internal = ptr(*im.InternalMarkTotalMarks)
		}
		if e.IsSynthetic {
			continue
		}
		if ext, ok := externals[e.ExamRegistrationID]; ok && ext.MarksEntryTotalMarksObtained != nil {
			e.External = ptr(*ext.MarksEntryTotalMarksObtained)
		}
		if st, ok := attendance[registrationCourseKey(e.ExamRegistrationID, e.Course.CourseID)]; ok {
			e.Attendance = ptr(st)
		}
	}
	return nil
}

func (s *Service) fetchAttendancePages(ctx context.Context, institutionID uuid.UUID, regIDs []uuid.UUID) ([]regModel.ExamAttendanceModel, error) {
	size := s.opts.PageSize
	var all []regModel.ExamAttendanceModel
	for offset := 0; ; offset += size {
		page, err := s.Repo.ListAttendance(ctx, institutionID, regIDs, offset, size)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < size {
			break
		}
	}
	return all, nil
}
