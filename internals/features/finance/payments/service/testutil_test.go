package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"schoolreg_backend/internals/features/finance/payments/model"
	studentModel "schoolreg_backend/internals/features/school/students/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&studentModel.StudentModel{},
		&model.PaymentModel{},
		&model.PaymentGatewayEventModel{},
	))

	// Same guard as production: transaction_id is unique where present.
	require.NoError(t, db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS uq_payments_transaction_id
		  ON payments (payment_transaction_id)
		  WHERE payment_transaction_id IS NOT NULL AND payment_deleted_at IS NULL
	`).Error)

	return db
}

func seedStudent(t *testing.T, db *gorm.DB, tuitionCents int64) *studentModel.StudentModel {
	t.Helper()
	st := &studentModel.StudentModel{
		StudentFirstName:          "Émile",
		StudentLastName:           "Tremblay",
		StudentDateOfBirth:        time.Date(2011, time.May, 4, 0, 0, 0, 0, time.UTC),
		StudentGender:             studentModel.GenderMasculin,
		StudentAddress:            "12 rue Sainte-Catherine",
		StudentParentName:         "Mme Tremblay",
		StudentParentPhone:        "514-555-0199",
		StudentParentEmail:        "tremblay@example.com",
		StudentProgram:            "Régulier",
		StudentSession:            "Automne 2024",
		StudentSecondaryLevel:     "Secondaire 2",
		StudentTuitionAmountCents: tuitionCents,
		StudentEnrollmentDate:     time.Date(2024, time.September, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.Create(st).Error)
	return st
}

func paidCents(t *testing.T, db *gorm.DB, st *studentModel.StudentModel) int64 {
	t.Helper()
	var fresh studentModel.StudentModel
	require.NoError(t, db.Where("student_id = ?", st.StudentID).First(&fresh).Error)
	return fresh.StudentTuitionPaidCents
}
