package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// FieldError names one invalid request field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ValidationError rejects a request before any data access.
type ValidationError struct {
	Message string
	Fields  []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Error)
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

type BlockedCourse struct {
	CourseID   uuid.UUID `json:"course_id"`
	CourseCode string    `json:"course_code,omitempty"`
	Statuses   []string  `json:"statuses"`
	RowCount   int       `json:"row_count"`
}

// BlockedRegenerationError means results already exist for some requested courses.
type BlockedRegenerationError struct {
	Courses []BlockedCourse
}

func (e *BlockedRegenerationError) Error() string {
	names := make([]string, 0, len(e.Courses))
	for _, c := range e.Courses {
		name := c.CourseCode
		if name == "" {
			name = c.CourseID.String()
		}
		names = append(names, fmt.Sprintf("%s (%s)", name, strings.Join(c.Statuses, ", ")))
	}
	sort.Strings(names)
	return "final marks already generated for course(s): " + strings.Join(names, "; ") +
		". Delete or reset the existing results before regenerating"
}

// NoRegistrationsError means the roster is empty even after the CIA-only fallback.
type NoRegistrationsError struct {
	CIAOnlyRequested bool
}

func (e *NoRegistrationsError) Error() string {
	if e.CIAOnlyRequested {
		return "no exam registrations or internal marks found for the selected courses; CIA-only courses need internal marks entered for this session"
	}
	return "no exam registrations found for the selected program, session and courses"
}

// PersistenceError wraps a failed upsert of one result row.
type PersistenceError struct {
	RegistrationID uuid.UUID
	CourseOffering uuid.UUID
	Err            error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("save final mark (registration %s, offering %s): %v", e.RegistrationID, e.CourseOffering, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
