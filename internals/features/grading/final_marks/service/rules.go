package service

// DecisionKind is what the calculator does with a roster entry.
type DecisionKind int

const (
	DecisionCompute DecisionKind = iota
	DecisionAbsent
	DecisionWithheld
	DecisionExpelled
	DecisionSkipNoAttendance
	DecisionSkipMissingMarks
)

type Decision struct {
	Kind   DecisionKind
	Reason string
}

func (d Decision) Skipped() bool {
	return d.Kind == DecisionSkipNoAttendance || d.Kind == DecisionSkipMissingMarks
}

// RuleInput is everything the skip/absence rules look at.
type RuleInput struct {
	EvaluationType EvaluationType
	Synthetic      bool
	Attendance     *AttendanceStatus // nil: no attendance record
	HasInternal    bool
	HasExternal    bool
}

// markRequirement says which components must exist for a present student.
type markRequirement struct {
	internal bool
	external bool
	either   bool
}

var markRequirements = map[EvaluationType]markRequirement{
	EvalCIAAndESE: {internal: true, external: true},
	EvalCIAOnly:   {internal: true},
	EvalESEOnly:   {external: true},
	EvalOther:     {either: true},
}

// includesInternal/includesExternal say which components count towards the total.
func includesInternal(t EvaluationType) bool { return t != EvalESEOnly }
func includesExternal(t EvaluationType) bool { return t != EvalCIAOnly }

// EffectiveAttendance applies the CIA-only default: no external exam, nothing to be absent from.
func EffectiveAttendance(in RuleInput) (AttendanceStatus, bool) {
	if in.Attendance != nil {
		return *in.Attendance, true
	}
	if in.Synthetic || in.EvaluationType == EvalCIAOnly {
		return AttendancePresent, true
	}
	return "", false
}

// Decide evaluates, in order: attendance presence, absence/withheld/expelled, required marks.
func Decide(in RuleInput) Decision {
	status, ok := EffectiveAttendance(in)
	if !ok {
		return Decision{Kind: DecisionSkipNoAttendance, Reason: "No attendance record"}
	}

	switch status {
	case AttendanceAbsent:
		return Decision{Kind: DecisionAbsent}
	case AttendanceWithheld:
		return Decision{Kind: DecisionWithheld}
	case AttendanceExpelled:
		return Decision{Kind: DecisionExpelled}
	}

	req, found := markRequirements[in.EvaluationType]
	if !found {
		req = markRequirements[EvalOther]
	}
	switch {
	case req.internal && req.external && (!in.HasInternal || !in.HasExternal):
		return Decision{Kind: DecisionSkipMissingMarks, Reason: missingReason(in.HasInternal, in.HasExternal)}
	case req.internal && !req.external && !in.HasInternal:
		return Decision{Kind: DecisionSkipMissingMarks, Reason: "Missing internal marks"}
	case req.external && !req.internal && !in.HasExternal:
		return Decision{Kind: DecisionSkipMissingMarks, Reason: "Missing external marks"}
	case req.either && !in.HasInternal && !in.HasExternal:
		return Decision{Kind: DecisionSkipMissingMarks, Reason: "Missing internal and external marks"}
	}
	return Decision{Kind: DecisionCompute}
}

func missingReason(hasInternal, hasExternal bool) string {
	switch {
	case !hasInternal && !hasExternal:
		return "Missing internal and external marks"
	case !hasInternal:
		return "Missing internal marks"
	default:
		return "Missing external marks"
	}
}
