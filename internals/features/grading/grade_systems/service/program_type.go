package service

import (
	"regexp"
	"strings"
)

const (
	ProgramTypeUG = "UG"
	ProgramTypePG = "PG"
)

// Must stay in sync with the program-type derivation used by the grade_system views.
var pgPrefixes = []string{
	"MSC", "MBA", "MCA", "MA", "MCOM", "MSW", "MPHIL", "PHD", "MASTER", "POST", "PG",
}

var (
	pgYearCode  = regexp.MustCompile(`^[0-9]{2}P[A-Z]`)
	pgShortCode = regexp.MustCompile(`^P[A-Z]{2,3}$`)
	codeNoise   = strings.NewReplacer(".", "", " ", "", "-", "", "_", "")
)

// ClassifyProgramType maps a program code to "UG" or "PG".
func ClassifyProgramType(programCode string) string {
	code := strings.TrimSpace(programCode)
	if code == "" {
		return ProgramTypeUG
	}

	upper := strings.ToUpper(code)
	compact := codeNoise.Replace(upper)
	for _, p := range pgPrefixes {
		if strings.HasPrefix(upper, p) || strings.HasPrefix(compact, p) {
			return ProgramTypePG
		}
	}

	if pgYearCode.MatchString(code) || pgShortCode.MatchString(code) {
		return ProgramTypePG
	}
	return ProgramTypeUG
}
