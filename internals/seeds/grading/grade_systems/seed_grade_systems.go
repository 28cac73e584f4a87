package grade_systems

import (
	"log"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"examcell_backend/internals/features/grading/grade_systems/model"
)

type BandSeed struct {
	Grade       string  `json:"grade"`
	MinMark     float64 `json:"min_mark"`
	MaxMark     float64 `json:"max_mark"`
	GradePoint  float64 `json:"grade_point"`
	Description string  `json:"description"`
	IsAbsent    bool    `json:"is_absent"`
	IsFail      bool    `json:"is_fail"`
}

type GradeSystemSeed struct {
	GradeSystemCode string     `json:"grade_system_code"`
	RegulationID    *uuid.UUID `json:"regulation_id,omitempty"`
	Bands           []BandSeed `json:"bands"`
}

// ParseGradeSystems turns the seed file into rows for one institution.
func ParseGradeSystems(content []byte, institutionID uuid.UUID) ([]model.GradeSystemModel, error) {
	var data []GradeSystemSeed
	if err := sonic.Unmarshal(content, &data); err != nil {
		return nil, errors.Wrap(err, "decode grade system seed")
	}

	var rows []model.GradeSystemModel
	for _, sys := range data {
		code := strings.ToUpper(strings.TrimSpace(sys.GradeSystemCode))
		if code == "" {
			return nil, errors.New("grade system seed without grade_system_code")
		}
		for _, b := range sys.Bands {
			if b.MaxMark < b.MinMark {
				return nil, errors.Errorf("%s band %s: max_mark %.2f < min_mark %.2f", code, b.Grade, b.MaxMark, b.MinMark)
			}
			rows = append(rows, model.GradeSystemModel{
				GradeSystemInstitutionID: institutionID,
				GradeSystemRegulationID:  sys.RegulationID,
				GradeSystemCode:          code,
				GradeSystemMinMark:       b.MinMark,
				GradeSystemMaxMark:       b.MaxMark,
				GradeSystemGrade:         strings.TrimSpace(b.Grade),
				GradeSystemGradePoint:    b.GradePoint,
				GradeSystemDescription:   strings.TrimSpace(b.Description),
				GradeSystemIsAbsent:      b.IsAbsent,
				GradeSystemIsFail:        b.IsFail,
				GradeSystemIsActive:      true,
			})
		}
	}
	return rows, nil
}

// SeedGradeSystemsFromJSON inserts bands that are not there yet; existing (code, grade, regulation) rows are kept.
func SeedGradeSystemsFromJSON(db *gorm.DB, filePath string, institutionID uuid.UUID) error {
	log.Println("📥 Membaca file:", filePath)

	content, err := os.ReadFile(filePath)
	if err != nil {
		return errors.Wrap(err, "read grade system seed")
	}
	rows, err := ParseGradeSystems(content, institutionID)
	if err != nil {
		return err
	}

	for i := range rows {
		row := rows[i]
		var existing model.GradeSystemModel
		q := db.Where("grade_system_institution_id = ? AND grade_system_code = ? AND grade_system_grade = ?",
			institutionID, row.GradeSystemCode, row.GradeSystemGrade)
		if row.GradeSystemRegulationID != nil {
			q = q.Where("grade_system_regulation_id = ?", *row.GradeSystemRegulationID)
		} else {
			q = q.Where("grade_system_regulation_id IS NULL")
		}
		err := q.First(&existing).Error
		if err == nil {
			log.Printf("ℹ️ Grade %s/%s sudah ada, lewati...", row.GradeSystemCode, row.GradeSystemGrade)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.Wrapf(err, "check grade %s/%s", row.GradeSystemCode, row.GradeSystemGrade)
		}

		if err := db.Create(&row).Error; err != nil {
			return errors.Wrapf(err, "insert grade %s/%s", row.GradeSystemCode, row.GradeSystemGrade)
		}
		log.Printf("✅ Berhasil insert grade %s/%s", row.GradeSystemCode, row.GradeSystemGrade)
	}
	return nil
}
