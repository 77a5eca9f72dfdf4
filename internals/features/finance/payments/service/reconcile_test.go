package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"schoolreg_backend/internals/features/finance/payments/dto"
	"schoolreg_backend/internals/features/finance/payments/model"
)

func TestApplyGatewayPaidIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	st := seedStudent(t, db, 250000)

	txn := "SR-20250210-AAAA0001"
	_, err := CreatePayment(ctx, db, &dto.CreatePaymentRequest{
		PaymentStudentID:     st.StudentID,
		PaymentAmountCents:   100000,
		PaymentType:          model.PaymentTypeTuition,
		PaymentMethod:        model.PaymentMethodGateway,
		PaymentTransactionID: &txn,
	})
	require.NoError(t, err)
	require.Equal(t, int64(0), paidCents(t, db, st))

	now := time.Now()
	p, applied, err := ApplyGatewayPaid(ctx, db, txn, now)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, model.PaymentStatusPaid, p.PaymentStatus)
	assert.Equal(t, int64(100000), paidCents(t, db, st))

	// duplicate delivery: same event again, balance must not move
	p, applied, err = ApplyGatewayPaid(ctx, db, txn, now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, model.PaymentStatusPaid, p.PaymentStatus)
	assert.Equal(t, int64(100000), paidCents(t, db, st))

	// and a third time for good measure
	_, applied, err = ApplyGatewayPaid(ctx, db, txn, now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, int64(100000), paidCents(t, db, st))
}

func TestApplyGatewayPaidUnknownTransaction(t *testing.T) {
	db := newTestDB(t)
	_, _, err := ApplyGatewayPaid(context.Background(), db, "SR-UNKNOWN", time.Now())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

// The student owes 2500.00 $. A 1000.00 $ gateway payment settles once even
// though the confirmation arrives twice (confirm endpoint + webhook replay).
func TestSettlementScenario(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	st := seedStudent(t, db, 250000)

	txn := "SR-20250210-BBBB0002"
	_, err := CreatePayment(ctx, db, &dto.CreatePaymentRequest{
		PaymentStudentID:     st.StudentID,
		PaymentAmountCents:   100000,
		PaymentType:          model.PaymentTypeTuition,
		PaymentMethod:        model.PaymentMethodGateway,
		PaymentTransactionID: &txn,
	})
	require.NoError(t, err)

	// confirm path
	_, _, err = ApplyGatewayPaid(ctx, db, txn, time.Now())
	require.NoError(t, err)

	// webhook replay
	_, _, err = ApplyGatewayPaid(ctx, db, txn, time.Now())
	require.NoError(t, err)

	assert.Equal(t, int64(100000), paidCents(t, db, st))

	var fresh struct {
		StudentTuitionAmountCents int64
		StudentTuitionPaidCents   int64
	}
	require.NoError(t, db.Table("students").
		Where("student_id = ?", st.StudentID).
		Scan(&fresh).Error)
	assert.Equal(t, int64(150000), fresh.StudentTuitionAmountCents-fresh.StudentTuitionPaidCents)
}

func TestRepairStudentBalance(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	st := seedStudent(t, db, 250000)

	_, err := CreatePayment(ctx, db, &dto.CreatePaymentRequest{
		PaymentStudentID:   st.StudentID,
		PaymentAmountCents: 45000,
		PaymentType:        model.PaymentTypeTuition,
		PaymentMethod:      model.PaymentMethodCash,
		PaymentStatus:      model.PaymentStatusPaid,
	})
	require.NoError(t, err)

	// sabotage the materialized view
	require.NoError(t, db.Table("students").
		Where("student_id = ?", st.StudentID).
		Update("student_tuition_paid_cents", 999999).Error)

	paid, err := RepairStudentBalance(ctx, db, st.StudentID)
	require.NoError(t, err)
	assert.Equal(t, int64(45000), paid)
	assert.Equal(t, int64(45000), paidCents(t, db, st))
}

func TestAuditBalancesDetectsAndRepairsDrift(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	st := seedStudent(t, db, 250000)

	_, err := CreatePayment(ctx, db, &dto.CreatePaymentRequest{
		PaymentStudentID:   st.StudentID,
		PaymentAmountCents: 20000,
		PaymentType:        model.PaymentTypeTuition,
		PaymentMethod:      model.PaymentMethodCash,
		PaymentStatus:      model.PaymentStatusPaid,
	})
	require.NoError(t, err)

	require.NoError(t, db.Table("students").
		Where("student_id = ?", st.StudentID).
		Update("student_tuition_paid_cents", 123).Error)

	report, err := AuditBalances(ctx, db, false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.StudentsChecked)
	require.Len(t, report.Drifted, 1)
	assert.Equal(t, int64(123), report.Drifted[0].StoredCents)
	assert.Equal(t, int64(20000), report.Drifted[0].LedgerCents)
	assert.Equal(t, 0, report.Repaired)

	report, err = AuditBalances(ctx, db, true)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Repaired)
	assert.Equal(t, int64(20000), paidCents(t, db, st))

	// clean run
	report, err = AuditBalances(ctx, db, false)
	require.NoError(t, err)
	assert.Empty(t, report.Drifted)
}

func TestMapGatewayStatus(t *testing.T) {
	cur := model.PaymentStatusPending
	assert.Equal(t, model.PaymentStatusPaid, MapGatewayStatus(cur, "settlement", ""))
	assert.Equal(t, model.PaymentStatusPaid, MapGatewayStatus(cur, "capture", "accept"))
	assert.Equal(t, cur, MapGatewayStatus(cur, "capture", "challenge"))
	assert.Equal(t, model.PaymentStatusCancelled, MapGatewayStatus(cur, "capture", "deny"))
	assert.Equal(t, cur, MapGatewayStatus(cur, "pending", ""))
	assert.Equal(t, model.PaymentStatusCancelled, MapGatewayStatus(cur, "deny", ""))
	assert.Equal(t, model.PaymentStatusCancelled, MapGatewayStatus(cur, "expire", ""))
	assert.Equal(t, model.PaymentStatusCancelled, MapGatewayStatus(cur, "cancel", ""))
	assert.Equal(t, model.PaymentStatusRefunded, MapGatewayStatus(model.PaymentStatusPaid, "refund", ""))
	assert.Equal(t, cur, MapGatewayStatus(cur, "some_new_status", ""))
}

func TestCheckTransitionTable(t *testing.T) {
	ok := func(from, to string) {
		assert.NoError(t, model.CheckTransition(from, to), "%s → %s", from, to)
	}
	bad := func(from, to string) {
		assert.Error(t, model.CheckTransition(from, to), "%s → %s", from, to)
	}

	ok(model.PaymentStatusPending, model.PaymentStatusPaid)
	ok(model.PaymentStatusPending, model.PaymentStatusCancelled)
	ok(model.PaymentStatusPaid, model.PaymentStatusCancelled)
	ok(model.PaymentStatusPaid, model.PaymentStatusRefunded)
	ok(model.PaymentStatusPaid, model.PaymentStatusPaid)

	assert.True(t, model.CanTransition(model.PaymentStatusPending, model.PaymentStatusPaid))
	assert.False(t, model.CanTransition(model.PaymentStatusRefunded, model.PaymentStatusPaid))

	bad(model.PaymentStatusPending, model.PaymentStatusRefunded)
	bad(model.PaymentStatusCancelled, model.PaymentStatusPaid)
	bad(model.PaymentStatusCancelled, model.PaymentStatusPending)
	bad(model.PaymentStatusRefunded, model.PaymentStatusPaid)
	bad(model.PaymentStatusPending, "garbage")
}
