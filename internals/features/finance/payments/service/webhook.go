package service

import (
	"context"
	"errors"
	"log"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"schoolreg_backend/internals/features/finance/payments/model"
)

/* =========================================================
   GATEWAY WEBHOOK (push path)
   Every notification body is journaled to payment_gateway_events
   before anything touches the ledger; delivery is at-least-once,
   so the apply step must absorb replays.
   ========================================================= */

type gatewayNotification struct {
	OrderID           string `json:"order_id"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
}

// HandleGatewayNotification journals then applies a raw webhook body.
// Unmatched order ids are kept as 'ignored' events rather than rejected:
// the PSP stops retrying and the row stays auditable.
func HandleGatewayNotification(ctx context.Context, db *gorm.DB, body []byte) (*model.PaymentGatewayEventModel, error) {
	var notif gatewayNotification
	if err := sonic.Unmarshal(body, &notif); err != nil {
		return nil, err
	}

	event := &model.PaymentGatewayEventModel{
		GatewayEventProvider:   "midtrans",
		GatewayEventType:       notif.TransactionStatus,
		GatewayEventExternalID: notif.OrderID,
		GatewayEventPayload:    datatypes.JSON(body),
		GatewayEventStatus:     model.GatewayEventStatusReceived,
	}
	if err := db.WithContext(ctx).Create(event).Error; err != nil {
		return nil, err
	}

	if notif.OrderID == "" || notif.TransactionStatus == "" {
		return finishEvent(ctx, db, event, model.GatewayEventStatusIgnored,
			"notification sans order_id ou transaction_status")
	}

	p, err := applyGatewayStatus(ctx, db, notif.OrderID, notif.TransactionStatus, notif.FraudStatus)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || isNotFound(err) {
			return finishEvent(ctx, db, event, model.GatewayEventStatusIgnored,
				"aucun paiement pour cet order_id")
		}
		log.Printf("[WEBHOOK] apply failed order_id=%s: %v", notif.OrderID, err)
		return finishEvent(ctx, db, event, model.GatewayEventStatusError, err.Error())
	}

	event.GatewayEventPaymentID = &p.PaymentID
	if err := db.WithContext(ctx).Model(event).Updates(map[string]interface{}{
		"gateway_event_status":     model.GatewayEventStatusProcessed,
		"gateway_event_payment_id": p.PaymentID,
	}).Error; err != nil {
		return nil, err
	}
	event.GatewayEventStatus = model.GatewayEventStatusProcessed
	return event, nil
}

func isNotFound(err error) bool {
	var fe *fiber.Error
	return errors.As(err, &fe) && fe.Code == fiber.StatusNotFound
}

func finishEvent(ctx context.Context, db *gorm.DB, event *model.PaymentGatewayEventModel, status, note string) (*model.PaymentGatewayEventModel, error) {
	if err := db.WithContext(ctx).Model(event).Updates(map[string]interface{}{
		"gateway_event_status": status,
		"gateway_event_note":   note,
	}).Error; err != nil {
		return nil, err
	}
	event.GatewayEventStatus = status
	event.GatewayEventNote = &note
	return event, nil
}
