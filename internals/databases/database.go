package database

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"schoolreg_backend/internals/configs"
	classService "schoolreg_backend/internals/features/school/classes/service"
)

var DB *gorm.DB

func ConnectDB() {
	log.Println("🔌 Connecting to PostgreSQL...")

	sslmode := getenv("DB_SSLMODE", "require")
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&application_name=schoolreg&options=-c statement_timeout=3000",
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_NAME"),
		sslmode,
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true, // PgBouncer (transaction pooling) friendly
	}), &gorm.Config{
		Logger: configs.NewGormLogger(),
	})
	if err != nil {
		log.Fatalf("❌ DB connect failed: %v", err)
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
		if err := ping(); err != nil {
			log.Printf("warm-up ping err: %v", err)
		}
	}()
}

func ping() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// EnsureConstraints creates the DB-level guarantees the application checks
// merely front-run:
//   - at most one active enrollment per student (partial unique index)
//   - transaction_id is an idempotency key (unique where present)
func EnsureConstraints(db *gorm.DB) error {
	stmts := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_enrollments_one_active_per_student
		   ON enrollments (enrollment_student_id)
		   WHERE enrollment_status = 'active' AND enrollment_deleted_at IS NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_payments_transaction_id
		   ON payments (payment_transaction_id)
		   WHERE payment_transaction_id IS NOT NULL AND payment_deleted_at IS NULL`,
	}
	for _, s := range stmts {
		if err := db.Exec(s).Error; err != nil {
			return err
		}
	}
	return nil
}

// RunStartupMaintenance is the Go version of the old startup maintenance
// script: ensure constraints, sweep duplicate active enrollments left by
// historical races, then log enrollment stats. Failures are logged, not fatal.
func RunStartupMaintenance(db *gorm.DB) {
	log.Println("🔧 Running database maintenance...")
	ctx := context.Background()

	if err := EnsureConstraints(db); err != nil {
		log.Printf("⚠️ ensure constraints failed: %v", err)
	}

	report, err := classService.CleanupDuplicateActiveEnrollments(ctx, db)
	if err != nil {
		log.Printf("⚠️ duplicate enrollment cleanup failed: %v", err)
	} else if report.DuplicatesBefore > 0 {
		log.Printf("🧹 enrollment cleanup: before=%d cleaned=%d after=%d",
			report.DuplicatesBefore, report.Cleaned, report.DuplicatesAfter)
	}

	if stats, err := classService.EnrollmentStatistics(ctx, db); err == nil {
		log.Printf("📊 enrollment stats: %+v", stats)
	}

	log.Println("✅ Maintenance done.")
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
