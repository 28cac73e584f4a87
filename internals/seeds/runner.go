package seeds

import (
	"log"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"examcell_backend/internals/configs"
	gradeSystems "examcell_backend/internals/seeds/grading/grade_systems"
)

func RunAllSeeds(db *gorm.DB) {
	conf := configs.Config()

	//* Grading
	raw := strings.TrimSpace(conf.GetString("SEED_INSTITUTION_ID"))
	institutionID, err := uuid.Parse(raw)
	if err != nil {
		log.Printf("[WARN] SEED_INSTITUTION_ID %q bukan UUID, seed grade system dilewati", raw)
		return
	}
	if err := gradeSystems.SeedGradeSystemsFromJSON(db, conf.GetString("SEED_GRADE_SYSTEMS_FILE"), institutionID); err != nil {
		log.Printf("[ERROR] seed grade systems: %v", err)
	}
}
