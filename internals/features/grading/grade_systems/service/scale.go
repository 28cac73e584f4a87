package service

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"examcell_backend/internals/features/grading/grade_systems/model"
)

const (
	GradeAbsent = "AAA"
	GradeFail   = "U"
)

// Band is one row of a grade scale.
type Band struct {
	ID          uuid.UUID `json:"id"`
	MinMark     float64   `json:"min_mark"`
	MaxMark     float64   `json:"max_mark"`
	Grade       string    `json:"grade"`
	GradePoint  float64   `json:"grade_point"`
	Description string    `json:"description"`
	IsAbsent    bool      `json:"is_absent"`
	IsFail      bool      `json:"is_fail"`
}

// Reappear reports whether landing in this band means the student has to re-appear.
func (b Band) Reappear() bool {
	if b.IsFail || strings.EqualFold(b.Grade, GradeFail) {
		return true
	}
	d := strings.ToLower(b.Description)
	return strings.Contains(d, "reappear") || strings.Contains(d, "re-appear")
}

// Scale is a grade system sorted by MinMark descending.
type Scale struct {
	Code  string `json:"grade_system_code"`
	Bands []Band `json:"bands"`
}

func NewScale(code string, rows []model.GradeSystemModel) Scale {
	bands := make([]Band, 0, len(rows))
	for _, r := range rows {
		bands = append(bands, Band{
			ID:          r.GradeSystemID,
			MinMark:     r.GradeSystemMinMark,
			MaxMark:     r.GradeSystemMaxMark,
			Grade:       strings.TrimSpace(r.GradeSystemGrade),
			GradePoint:  r.GradeSystemGradePoint,
			Description: strings.TrimSpace(r.GradeSystemDescription),
			IsAbsent:    r.GradeSystemIsAbsent || strings.EqualFold(strings.TrimSpace(r.GradeSystemGrade), GradeAbsent),
			IsFail:      r.GradeSystemIsFail,
		})
	}
	sort.SliceStable(bands, func(i, j int) bool { return bands[i].MinMark > bands[j].MinMark })
	return Scale{Code: code, Bands: bands}
}

// Match returns the band containing percentage. Absent-marker bands never match.
// When the percentage sits in a gap between two bands (89.5 between 80-89 and 90-100)
// the highest band whose minimum it reaches is used.
func (s Scale) Match(percentage float64) (Band, bool) {
	for _, b := range s.Bands {
		if b.IsAbsent {
			continue
		}
		if percentage >= b.MinMark && percentage <= b.MaxMark {
			return b, true
		}
	}
	for _, b := range s.Bands {
		if b.IsAbsent {
			continue
		}
		if percentage >= b.MinMark {
			return b, true
		}
	}
	return Band{}, false
}

// Absent returns the absent band, always lettered "AAA" with grade point 0.
func (s Scale) Absent() Band {
	for _, b := range s.Bands {
		if b.IsAbsent {
			b.Grade = GradeAbsent
			b.GradePoint = 0
			if b.Description == "" {
				b.Description = "Absent"
			}
			return b
		}
	}
	return Band{Grade: GradeAbsent, Description: "Absent", IsAbsent: true}
}

// Fail returns the re-appear band, always lettered "U" with grade point 0.
func (s Scale) Fail() Band {
	for _, b := range s.Bands {
		if !b.IsAbsent && strings.EqualFold(b.Grade, GradeFail) {
			b.Grade = GradeFail
			b.GradePoint = 0
			if b.Description == "" {
				b.Description = "Re-Appear"
			}
			return b
		}
	}
	return Band{Grade: GradeFail, Description: "Re-Appear", IsFail: true}
}

// Overlaps lists pairs of adjacent bands whose ranges intersect.
func (s Scale) Overlaps() [][2]Band {
	var out [][2]Band
	var prev *Band
	for i := range s.Bands {
		b := s.Bands[i]
		if b.IsAbsent {
			continue
		}
		if prev != nil && b.MaxMark >= prev.MinMark {
			out = append(out, [2]Band{*prev, b})
		}
		prev = &s.Bands[i]
	}
	return out
}
