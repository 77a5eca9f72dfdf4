package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	payModel "schoolreg_backend/internals/features/finance/payments/model"
	studentModel "schoolreg_backend/internals/features/school/students/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestSessionLabel(t *testing.T) {
	cases := []struct {
		in   time.Time
		want string
	}{
		{date(2024, time.September, 1), "Automne 2024"},
		{date(2024, time.October, 15), "Automne 2024"},
		{date(2024, time.December, 31), "Automne 2024"},
		{date(2025, time.January, 1), "Hiver 2025"},
		{date(2025, time.March, 10), "Hiver 2025"},
		{date(2025, time.April, 30), "Hiver 2025"},
		{date(2025, time.May, 1), "Été 2025"},
		{date(2025, time.July, 14), "Été 2025"},
		{date(2025, time.August, 31), "Été 2025"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SessionLabel(tc.in), "for %s", tc.in)
	}
}

func TestAcademicYear(t *testing.T) {
	assert.Equal(t, "2024-2025", AcademicYear(date(2024, time.September, 3)))
	assert.Equal(t, "2024-2025", AcademicYear(date(2025, time.February, 1)))
	assert.Equal(t, "2024-2025", AcademicYear(date(2025, time.June, 20)))
	assert.Equal(t, "2025-2026", AcademicYear(date(2025, time.October, 1)))
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&studentModel.StudentModel{}, &payModel.PaymentModel{}))
	return db
}

func TestRelabelPaymentsFixesStaleLabels(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	st := &studentModel.StudentModel{
		StudentFirstName: "Léa", StudentLastName: "Roy",
		StudentDateOfBirth: date(2010, time.March, 2),
		StudentGender:      studentModel.GenderFeminin,
		StudentAddress:     "1 rue Principale",
		StudentParentName:  "M. Roy", StudentParentPhone: "514-555-0000",
		StudentParentEmail: "roy@example.com",
		StudentProgram:     "Régulier", StudentSession: "Automne 2024",
		StudentSecondaryLevel:     "Secondaire 1",
		StudentTuitionAmountCents: 250000,
		StudentEnrollmentDate:     date(2024, time.September, 1),
	}
	require.NoError(t, db.Create(st).Error)

	mk := func(d time.Time, label string) {
		require.NoError(t, db.Create(&payModel.PaymentModel{
			PaymentStudentID:   st.StudentID,
			PaymentAmountCents: 10000,
			PaymentCurrency:    "CAD",
			PaymentType:        payModel.PaymentTypeTuition,
			PaymentMethod:      payModel.PaymentMethodCash,
			PaymentStatus:      payModel.PaymentStatusPaid,
			PaymentSession:     label,
			PaymentDate:        d,
		}).Error)
	}
	mk(date(2024, time.October, 5), "Automne 2024") // already right
	mk(date(2025, time.February, 1), "Automne 2024") // stale
	mk(date(2025, time.June, 1), "Hiver 2025")       // stale

	report, err := RelabelPayments(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Scanned)
	assert.Equal(t, 2, report.Updated)

	var labels []string
	require.NoError(t, db.Table("payments").
		Order("payment_date").
		Pluck("payment_session", &labels).Error)
	assert.Equal(t, []string{"Automne 2024", "Hiver 2025", "Été 2025"}, labels)

	// idempotent
	report, err = RelabelPayments(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Updated)
}
