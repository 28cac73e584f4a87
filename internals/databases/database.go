package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"examcell_backend/internals/configs"
	courseModel "examcell_backend/internals/features/academics/courses/model"
	marksModel "examcell_backend/internals/features/exams/marks/model"
	regModel "examcell_backend/internals/features/exams/registrations/model"
	finalMarkModel "examcell_backend/internals/features/grading/final_marks/model"
	gradeModel "examcell_backend/internals/features/grading/grade_systems/model"
)

var DB *gorm.DB

func ConnectDB() {
	log.Println("🔌 Connecting to PostgreSQL...")

	conf := configs.Config()
	// statement_timeout 15s per query
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&application_name=examcell&options=-c%%20statement_timeout%%3D15000",
		conf.GetString("DB_USER"),
		conf.GetString("DB_PASSWORD"),
		conf.GetString("DB_HOST"),
		conf.GetString("DB_PORT"),
		conf.GetString("DB_NAME"),
		conf.GetString("DB_SSLMODE"),
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true, // PgBouncer transaction pooling
	}), &gorm.Config{
		Logger: configs.NewGormLogger(),
	})
	if err != nil {
		log.Fatalf("❌ Failed to connect DB: %v", err)
	}
	DB = db
	log.Println("✅ DB connected.")
}

func TunePool() {
	sqlDB, err := DB.DB()
	if err != nil {
		log.Printf("pool tune err: %v", err)
		return
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxIdleTime(60 * time.Second)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
}

func WarmUpQueries() {
	go func() {
		time.Sleep(500 * time.Millisecond)
		if err := Ping(); err != nil {
			log.Printf("warm-up ping err: %v", err)
		}
	}()
}

// Migrate creates/updates every table the grading engine reads or writes.
func Migrate(db *gorm.DB) error {
	log.Println("[INFO] Running auto-migrations...")
	return db.AutoMigrate(
		&courseModel.CourseModel{},
		&courseModel.CourseMappingModel{},
		&courseModel.CourseOfferingModel{},
		&regModel.ExamRegistrationModel{},
		&regModel.ExamAttendanceModel{},
		&marksModel.InternalMarkModel{},
		&marksModel.MarksEntryModel{},
		&gradeModel.GradeSystemModel{},
		&finalMarkModel.FinalMarkModel{},
	)
}

func Ping() error {
	if DB == nil {
		return fmt.Errorf("database not initialised")
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
