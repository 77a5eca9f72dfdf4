package service

import (
	"context"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolreg_backend/internals/features/finance/payments/dto"
	"schoolreg_backend/internals/features/finance/payments/model"
)

func strPtr(s string) *string { return &s }

func TestCreatePaidTuitionUpdatesBalance(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	st := seedStudent(t, db, 250000)

	p, err := CreatePayment(ctx, db, &dto.CreatePaymentRequest{
		PaymentStudentID:   st.StudentID,
		PaymentAmountCents: 50000,
		PaymentType:        model.PaymentTypeTuition,
		PaymentMethod:      model.PaymentMethodCash,
		PaymentStatus:      model.PaymentStatusPaid,
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, p.PaymentStatus)
	assert.NotNil(t, p.PaymentPaidAt)
	assert.NotEmpty(t, p.PaymentSession)
	assert.Equal(t, int64(50000), paidCents(t, db, st))
}

func TestPendingAndNonTuitionDoNotCount(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	st := seedStudent(t, db, 250000)

	_, err := CreatePayment(ctx, db, &dto.CreatePaymentRequest{
		PaymentStudentID:   st.StudentID,
		PaymentAmountCents: 40000,
		PaymentType:        model.PaymentTypeTuition,
		PaymentMethod:      model.PaymentMethodCard,
	})
	require.NoError(t, err)

	_, err = CreatePayment(ctx, db, &dto.CreatePaymentRequest{
		PaymentStudentID:   st.StudentID,
		PaymentAmountCents: 15000,
		PaymentType:        model.PaymentTypeTransport,
		PaymentMethod:      model.PaymentMethodCash,
		PaymentStatus:      model.PaymentStatusPaid,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(0), paidCents(t, db, st))
}

func TestCreateUnknownStudentIs404(t *testing.T) {
	db := newTestDB(t)
	st := seedStudent(t, db, 100000)
	require.NoError(t, db.Delete(st).Error)

	_, err := CreatePayment(context.Background(), db, &dto.CreatePaymentRequest{
		PaymentStudentID:   st.StudentID,
		PaymentAmountCents: 1000,
		PaymentType:        model.PaymentTypeTuition,
		PaymentMethod:      model.PaymentMethodCash,
	})
	var fe *fiber.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fiber.StatusNotFound, fe.Code)
}

func TestDuplicateTransactionIDRejected(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	st := seedStudent(t, db, 250000)

	req := &dto.CreatePaymentRequest{
		PaymentStudentID:     st.StudentID,
		PaymentAmountCents:   30000,
		PaymentType:          model.PaymentTypeTuition,
		PaymentMethod:        model.PaymentMethodGateway,
		PaymentTransactionID: strPtr("SR-20240901-ABCD1234"),
	}
	_, err := CreatePayment(ctx, db, req)
	require.NoError(t, err)

	_, err = CreatePayment(ctx, db, req)
	var fe *fiber.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fiber.StatusConflict, fe.Code)
}

func TestUpdateTransitions(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	st := seedStudent(t, db, 250000)

	p, err := CreatePayment(ctx, db, &dto.CreatePaymentRequest{
		PaymentStudentID:   st.StudentID,
		PaymentAmountCents: 60000,
		PaymentType:        model.PaymentTypeTuition,
		PaymentMethod:      model.PaymentMethodCard,
	})
	require.NoError(t, err)

	// pending → refunded is illegal
	refunded := model.PaymentStatusRefunded
	_, err = UpdatePayment(ctx, db, p.PaymentID, &dto.UpdatePaymentRequest{PaymentStatus: &refunded})
	var ite *model.InvalidTransitionError
	require.ErrorAs(t, err, &ite)

	// pending → paid counts
	paid := model.PaymentStatusPaid
	updated, err := UpdatePayment(ctx, db, p.PaymentID, &dto.UpdatePaymentRequest{PaymentStatus: &paid})
	require.NoError(t, err)
	assert.NotNil(t, updated.PaymentPaidAt)
	assert.Equal(t, int64(60000), paidCents(t, db, st))

	// paid → cancelled pulls the amount back out
	cancelled := model.PaymentStatusCancelled
	_, err = UpdatePayment(ctx, db, p.PaymentID, &dto.UpdatePaymentRequest{PaymentStatus: &cancelled})
	require.NoError(t, err)
	assert.Equal(t, int64(0), paidCents(t, db, st))

	// cancelled is terminal
	_, err = UpdatePayment(ctx, db, p.PaymentID, &dto.UpdatePaymentRequest{PaymentStatus: &paid})
	require.ErrorAs(t, err, &ite)
}

func TestAmendPaidAmountRecomputes(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	st := seedStudent(t, db, 250000)

	p, err := CreatePayment(ctx, db, &dto.CreatePaymentRequest{
		PaymentStudentID:   st.StudentID,
		PaymentAmountCents: 70000,
		PaymentType:        model.PaymentTypeTuition,
		PaymentMethod:      model.PaymentMethodCash,
		PaymentStatus:      model.PaymentStatusPaid,
	})
	require.NoError(t, err)
	require.Equal(t, int64(70000), paidCents(t, db, st))

	amended := int64(65000)
	_, err = UpdatePayment(ctx, db, p.PaymentID, &dto.UpdatePaymentRequest{PaymentAmountCents: &amended})
	require.NoError(t, err)
	assert.Equal(t, int64(65000), paidCents(t, db, st))
}

func TestDeletePaidPaymentRestoresBalance(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	st := seedStudent(t, db, 250000)

	p1, err := CreatePayment(ctx, db, &dto.CreatePaymentRequest{
		PaymentStudentID:   st.StudentID,
		PaymentAmountCents: 50000,
		PaymentType:        model.PaymentTypeTuition,
		PaymentMethod:      model.PaymentMethodCash,
		PaymentStatus:      model.PaymentStatusPaid,
	})
	require.NoError(t, err)
	_, err = CreatePayment(ctx, db, &dto.CreatePaymentRequest{
		PaymentStudentID:   st.StudentID,
		PaymentAmountCents: 30000,
		PaymentType:        model.PaymentTypeTuition,
		PaymentMethod:      model.PaymentMethodCash,
		PaymentStatus:      model.PaymentStatusPaid,
	})
	require.NoError(t, err)
	require.Equal(t, int64(80000), paidCents(t, db, st))

	require.NoError(t, DeletePayment(ctx, db, p1.PaymentID))
	assert.Equal(t, int64(30000), paidCents(t, db, st))

	// row is gone from default queries
	_, err = GetPayment(ctx, db, p1.PaymentID)
	var fe *fiber.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fiber.StatusNotFound, fe.Code)
}

func TestListByStudentFilters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	st := seedStudent(t, db, 250000)

	for i, status := range []string{
		model.PaymentStatusPaid, model.PaymentStatusPending, model.PaymentStatusPaid,
	} {
		_, err := CreatePayment(ctx, db, &dto.CreatePaymentRequest{
			PaymentStudentID:   st.StudentID,
			PaymentAmountCents: int64(1000 * (i + 1)),
			PaymentType:        model.PaymentTypeTuition,
			PaymentMethod:      model.PaymentMethodCash,
			PaymentStatus:      status,
		})
		require.NoError(t, err)
	}

	rows, total, err := ListByStudent(ctx, db, st.StudentID, model.PaymentStatusPaid, "", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, rows, 2)

	rows, total, err = ListByStudent(ctx, db, st.StudentID, "", "", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, rows, 2)
}

func TestSessionLabelStampedFromPaymentDate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	st := seedStudent(t, db, 250000)

	winter := time.Date(2025, time.February, 10, 9, 0, 0, 0, time.UTC)
	p, err := CreatePayment(ctx, db, &dto.CreatePaymentRequest{
		PaymentStudentID:   st.StudentID,
		PaymentAmountCents: 10000,
		PaymentType:        model.PaymentTypeBooks,
		PaymentMethod:      model.PaymentMethodCash,
		PaymentDate:        &winter,
	})
	require.NoError(t, err)
	assert.Equal(t, "Hiver 2025", p.PaymentSession)
}
