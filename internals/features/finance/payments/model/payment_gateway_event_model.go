package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/* ===================== Enums (string) ===================== */

const (
	GatewayEventStatusReceived  = "received"
	GatewayEventStatusProcessed = "processed"
	GatewayEventStatusIgnored   = "ignored"
	GatewayEventStatusError     = "error"
)

/* ===================== Model ===================== */

/*
	payment_gateway_events — append-only journal of raw PSP notifications.
	Every webhook body lands here before any ledger mutation, so replays and
	unmatched order ids stay auditable.
*/

type PaymentGatewayEventModel struct {
	GatewayEventID uuid.UUID `gorm:"column:gateway_event_id;type:uuid;primaryKey" json:"gateway_event_id"`

	GatewayEventProvider string `gorm:"column:gateway_event_provider;not null;default:midtrans" json:"gateway_event_provider"`
	GatewayEventType     string `gorm:"column:gateway_event_type;not null" json:"gateway_event_type"` // transaction_status from the PSP

	// PSP order id; matches payments.payment_transaction_id when a ledger row exists.
	GatewayEventExternalID string `gorm:"column:gateway_event_external_id;not null;index" json:"gateway_event_external_id"`

	GatewayEventPaymentID *uuid.UUID `gorm:"column:gateway_event_payment_id;type:uuid;index" json:"gateway_event_payment_id,omitempty"`

	GatewayEventPayload datatypes.JSON `gorm:"column:gateway_event_payload;type:jsonb" json:"gateway_event_payload,omitempty"`

	GatewayEventStatus string  `gorm:"column:gateway_event_status;not null;default:'received'" json:"gateway_event_status"`
	GatewayEventNote   *string `gorm:"column:gateway_event_note" json:"gateway_event_note,omitempty"`

	CreatedAt time.Time `gorm:"column:gateway_event_created_at;autoCreateTime" json:"gateway_event_created_at"`
	UpdatedAt time.Time `gorm:"column:gateway_event_updated_at;autoUpdateTime" json:"gateway_event_updated_at"`
}

func (PaymentGatewayEventModel) TableName() string { return "payment_gateway_events" }

func (m *PaymentGatewayEventModel) BeforeCreate(tx *gorm.DB) error {
	if m.GatewayEventID == uuid.Nil {
		m.GatewayEventID = uuid.New()
	}
	return nil
}
