package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolreg_backend/internals/features/finance/payments/dto"
	"schoolreg_backend/internals/features/finance/payments/model"
)

func notifBody(orderID, status, fraud string) []byte {
	return []byte(fmt.Sprintf(
		`{"order_id":%q,"transaction_status":%q,"fraud_status":%q,"gross_amount":"100000"}`,
		orderID, status, fraud,
	))
}

func TestWebhookSettlementProcessed(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	st := seedStudent(t, db, 250000)

	txn := "SR-20250301-CCCC0003"
	_, err := CreatePayment(ctx, db, &dto.CreatePaymentRequest{
		PaymentStudentID:     st.StudentID,
		PaymentAmountCents:   100000,
		PaymentType:          model.PaymentTypeTuition,
		PaymentMethod:        model.PaymentMethodGateway,
		PaymentTransactionID: &txn,
	})
	require.NoError(t, err)

	event, err := HandleGatewayNotification(ctx, db, notifBody(txn, "settlement", ""))
	require.NoError(t, err)
	assert.Equal(t, model.GatewayEventStatusProcessed, event.GatewayEventStatus)
	require.NotNil(t, event.GatewayEventPaymentID)
	assert.Equal(t, int64(100000), paidCents(t, db, st))

	// replay: still processed, balance unchanged
	event, err = HandleGatewayNotification(ctx, db, notifBody(txn, "settlement", ""))
	require.NoError(t, err)
	assert.Equal(t, model.GatewayEventStatusProcessed, event.GatewayEventStatus)
	assert.Equal(t, int64(100000), paidCents(t, db, st))

	var count int64
	require.NoError(t, db.Model(&model.PaymentGatewayEventModel{}).Count(&count).Error)
	assert.Equal(t, int64(2), count, "every delivery is journaled")
}

func TestWebhookUnmatchedOrderIgnored(t *testing.T) {
	db := newTestDB(t)

	event, err := HandleGatewayNotification(context.Background(), db,
		notifBody("SR-NOBODY-HOME", "settlement", ""))
	require.NoError(t, err)
	assert.Equal(t, model.GatewayEventStatusIgnored, event.GatewayEventStatus)
	require.NotNil(t, event.GatewayEventNote)
}

func TestWebhookMissingFieldsIgnored(t *testing.T) {
	db := newTestDB(t)

	event, err := HandleGatewayNotification(context.Background(), db,
		[]byte(`{"signature_key":"zzz"}`))
	require.NoError(t, err)
	assert.Equal(t, model.GatewayEventStatusIgnored, event.GatewayEventStatus)
}

func TestWebhookExpireCancelsPending(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	st := seedStudent(t, db, 250000)

	txn := "SR-20250301-DDDD0004"
	p, err := CreatePayment(ctx, db, &dto.CreatePaymentRequest{
		PaymentStudentID:     st.StudentID,
		PaymentAmountCents:   100000,
		PaymentType:          model.PaymentTypeTuition,
		PaymentMethod:        model.PaymentMethodGateway,
		PaymentTransactionID: &txn,
	})
	require.NoError(t, err)

	event, err := HandleGatewayNotification(ctx, db, notifBody(txn, "expire", ""))
	require.NoError(t, err)
	assert.Equal(t, model.GatewayEventStatusProcessed, event.GatewayEventStatus)

	fresh, err := GetPayment(ctx, db, p.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusCancelled, fresh.PaymentStatus)
	assert.Equal(t, int64(0), paidCents(t, db, st))
}

func TestWebhookMalformedBody(t *testing.T) {
	db := newTestDB(t)
	_, err := HandleGatewayNotification(context.Background(), db, []byte("{not json"))
	assert.Error(t, err)
}
