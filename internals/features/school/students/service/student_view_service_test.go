package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	payModel "schoolreg_backend/internals/features/finance/payments/model"
	classModel "schoolreg_backend/internals/features/school/classes/model"
)

func TestBuildStudentViewBreakdown(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	st, err := CreateStudent(ctx, db, createReq("theo"))
	require.NoError(t, err)

	mk := func(amount int64, payType, status string) {
		require.NoError(t, db.Create(&payModel.PaymentModel{
			PaymentStudentID:   st.StudentID,
			PaymentAmountCents: amount,
			PaymentCurrency:    "CAD",
			PaymentType:        payType,
			PaymentMethod:      payModel.PaymentMethodCash,
			PaymentStatus:      status,
			PaymentSession:     "Automne 2024",
			PaymentDate:        time.Now(),
		}).Error)
	}
	mk(50000, payModel.PaymentTypeTuition, payModel.PaymentStatusPaid)
	mk(30000, payModel.PaymentTypeTuition, payModel.PaymentStatusPending)
	mk(15000, payModel.PaymentTypeTransport, payModel.PaymentStatusPaid)
	mk(8000, payModel.PaymentTypeBooks, payModel.PaymentStatusCancelled)

	view, err := BuildStudentView(ctx, db, st.StudentID)
	require.NoError(t, err)

	tuition := view.PaymentsByType[payModel.PaymentTypeTuition]
	assert.Equal(t, int64(50000), tuition.PaidCents)
	assert.Equal(t, int64(30000), tuition.PendingCents)
	assert.Equal(t, 2, tuition.Count)

	transport := view.PaymentsByType[payModel.PaymentTypeTransport]
	assert.Equal(t, int64(15000), transport.PaidCents)
	assert.Zero(t, transport.PendingCents)

	books := view.PaymentsByType[payModel.PaymentTypeBooks]
	assert.Zero(t, books.PaidCents, "cancelled rows count in neither bucket")
	assert.Equal(t, 1, books.Count)

	assert.Equal(t, int64(65000), view.TotalPaidCents)
	assert.Nil(t, view.ActiveEnrollment)
}

func TestBuildStudentViewWithEnrollment(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	st, err := CreateStudent(ctx, db, createReq("uma"))
	require.NoError(t, err)

	cl := &classModel.ClassModel{
		ClassName: "3B", ClassLevel: "Secondaire 3",
		ClassCapacity: 30, ClassSession: "Automne 2024",
	}
	require.NoError(t, db.Create(cl).Error)
	require.NoError(t, db.Create(&classModel.EnrollmentModel{
		EnrollmentStudentID: st.StudentID,
		EnrollmentClassID:   cl.ClassID,
		EnrollmentDate:      time.Now(),
		EnrollmentStatus:    classModel.EnrollmentStatusActive,
	}).Error)

	view, err := BuildStudentView(ctx, db, st.StudentID)
	require.NoError(t, err)
	assert.NotNil(t, view.ActiveEnrollment)
	assert.NotNil(t, view.EnrollmentHistory)
}

func TestDashboardStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	s1, err := CreateStudent(ctx, db, createReq("victor"))
	require.NoError(t, err)
	_, err = CreateStudent(ctx, db, createReq("wanda"))
	require.NoError(t, err)

	require.NoError(t, db.Table("students").
		Where("student_id = ?", s1.StudentID).
		Updates(map[string]interface{}{
			"student_status":             "active",
			"student_tuition_paid_cents": 250000,
		}).Error)

	stats, err := BuildDashboardStats(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalStudents)
	assert.Equal(t, int64(1), stats.ActiveStudents)
	assert.Equal(t, int64(1), stats.PendingStudents)
	assert.Equal(t, int64(500000), stats.TuitionExpectedCents)
	assert.Equal(t, int64(250000), stats.TuitionPaidCents)
	assert.Equal(t, int64(1), stats.StudentsFullyPaid)
	assert.Zero(t, stats.TotalClasses)
	assert.Zero(t, stats.PendingPaymentCents)
}

func TestSearchForLink(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	st, err := CreateStudent(ctx, db, createReq("xavier"))
	require.NoError(t, err)

	rows, err := SearchForLink(ctx, db, "XAVIER@example.com", "bouchard")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, st.StudentID, rows[0].StudentID)

	// already-linked records are excluded
	_, err = LinkByCode(ctx, db, "user-9", *st.StudentCode)
	require.NoError(t, err)
	rows, err = SearchForLink(ctx, db, "xavier@example.com", "")
	require.NoError(t, err)
	assert.Empty(t, rows)
}
