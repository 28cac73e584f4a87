package service

import (
	"strings"

	"github.com/google/uuid"

	courseModel "examcell_backend/internals/features/academics/courses/model"
	marksModel "examcell_backend/internals/features/exams/marks/model"
	regModel "examcell_backend/internals/features/exams/registrations/model"
)

/* =========================
   Course code resolution
========================= */

// CodeSource tags which path produced a registration's course code.
type CodeSource string

const (
	CodeFromMapping      CodeSource = "course_mapping"
	CodeFromOffering     CodeSource = "course_offering"
	CodeFromRegistration CodeSource = "registration"
	CodeSynthetic        CodeSource = "internal_marks"
)

type ResolvedCode struct {
	Code     string
	CourseID *uuid.UUID
	Source   CodeSource
}

// courseLookups are read-only tables built once per generation.
type courseLookups struct {
	courses   map[uuid.UUID]courseModel.CourseModel
	mappings  map[uuid.UUID]courseModel.CourseMappingModel
	offerings map[uuid.UUID]courseModel.CourseOfferingModel
}

func normalizeCode(c string) string { return strings.ToUpper(strings.TrimSpace(c)) }

// ResolveCourseCode tries offering → mapping → course, then offering → course,
// then the registration's own course-code snapshot.
func (lk courseLookups) ResolveCourseCode(reg regModel.ExamRegistrationModel) (ResolvedCode, bool) {
	if reg.ExamRegistrationCourseOfferingID != nil {
		if off, ok := lk.offerings[*reg.ExamRegistrationCourseOfferingID]; ok {
			if off.CourseOfferingCourseMappingID != nil {
				if m, ok := lk.mappings[*off.CourseOfferingCourseMappingID]; ok {
					if c, ok := lk.courses[m.CourseMappingCourseID]; ok && normalizeCode(c.CourseCode) != "" {
						id := c.CourseID
						return ResolvedCode{Code: normalizeCode(c.CourseCode), CourseID: &id, Source: CodeFromMapping}, true
					}
				}
			}
			if off.CourseOfferingCourseID != nil {
				if c, ok := lk.courses[*off.CourseOfferingCourseID]; ok && normalizeCode(c.CourseCode) != "" {
					id := c.CourseID
					return ResolvedCode{Code: normalizeCode(c.CourseCode), CourseID: &id, Source: CodeFromOffering}, true
				}
			}
		}
	}
	if reg.ExamRegistrationCourseCode != nil {
		if code := normalizeCode(*reg.ExamRegistrationCourseCode); code != "" {
			return ResolvedCode{Code: code, Source: CodeFromRegistration}, true
		}
	}
	return ResolvedCode{}, false
}

// offeringCourseID returns the course an offering stands for, through the mapping first.
func (lk courseLookups) offeringCourseID(off courseModel.CourseOfferingModel) (uuid.UUID, bool) {
	if off.CourseOfferingCourseMappingID != nil {
		if m, ok := lk.mappings[*off.CourseOfferingCourseMappingID]; ok {
			return m.CourseMappingCourseID, true
		}
	}
	if off.CourseOfferingCourseID != nil {
		return *off.CourseOfferingCourseID, true
	}
	return uuid.Nil, false
}

/* =========================
   Marks / attendance lookups
========================= */

func studentCourseKey(studentID, courseID uuid.UUID) string {
	return studentID.String() + "|" + courseID.String()
}

func registrationCourseKey(regID, courseID uuid.UUID) string {
	return regID.String() + "|" + courseID.String()
}

// latestInternalMarks keeps the most recent row per student+course.
func latestInternalMarks(rows []marksModel.InternalMarkModel) map[string]marksModel.InternalMarkModel {
	out := make(map[string]marksModel.InternalMarkModel, len(rows))
	for _, r := range rows {
		k := studentCourseKey(r.InternalMarkStudentID, r.InternalMarkCourseID)
		cur, ok := out[k]
		if !ok || newerInternal(r, cur) {
			out[k] = r
		}
	}
	return out
}

func newerInternal(a, b marksModel.InternalMarkModel) bool {
	ta, tb := a.InternalMarkUpdatedAt, b.InternalMarkUpdatedAt
	if ta.IsZero() {
		ta = a.InternalMarkCreatedAt
	}
	if tb.IsZero() {
		tb = b.InternalMarkCreatedAt
	}
	return ta.After(tb)
}

// externalByRegistration indexes marks_entry one-to-one by registration; duplicates keep the latest.
func externalByRegistration(rows []marksModel.MarksEntryModel) map[uuid.UUID]marksModel.MarksEntryModel {
	out := make(map[uuid.UUID]marksModel.MarksEntryModel, len(rows))
	for _, r := range rows {
		cur, ok := out[r.MarksEntryExamRegistrationID]
		if !ok || r.MarksEntryUpdatedAt.After(cur.MarksEntryUpdatedAt) {
			out[r.MarksEntryExamRegistrationID] = r
		}
	}
	return out
}

func attendanceByRegistrationCourse(rows []regModel.ExamAttendanceModel) map[string]AttendanceStatus {
	latest := make(map[string]regModel.ExamAttendanceModel, len(rows))
	for _, r := range rows {
		k := registrationCourseKey(r.ExamAttendanceExamRegistrationID, r.ExamAttendanceCourseID)
		if cur, ok := latest[k]; !ok || r.ExamAttendanceUpdatedAt.After(cur.ExamAttendanceUpdatedAt) {
			latest[k] = r
		}
	}
	out := make(map[string]AttendanceStatus, len(latest))
	for k, r := range latest {
		out[k] = parseAttendance(r.ExamAttendanceStatus)
	}
	return out
}

/* =========================
   Small helpers
========================= */

func uniqueUUIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func chunkUUIDs(ids []uuid.UUID, size int) [][]uuid.UUID {
	if size <= 0 {
		size = len(ids)
	}
	var out [][]uuid.UUID
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		out = append(out, ids[start:end])
	}
	return out
}
