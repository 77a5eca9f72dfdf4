package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* ===================== Enums (string) ===================== */
/* Matches the ENUMs in PostgreSQL:
   payment_status, payment_type
*/

const (
	PaymentStatusPending   = "pending"
	PaymentStatusPaid      = "paid"
	PaymentStatusCancelled = "cancelled"
	PaymentStatusRefunded  = "refunded"
)

const (
	PaymentTypeTuition      = "tuition"
	PaymentTypeRegistration = "registration"
	PaymentTypeTransport    = "transport"
	PaymentTypeBooks        = "books"
	PaymentTypeUniform      = "uniform"
	PaymentTypeOther        = "other"
)

const (
	PaymentMethodCash         = "cash"
	PaymentMethodCard         = "card"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodGateway      = "gateway"
	PaymentMethodOther        = "other"
)

func IsValidPaymentStatus(s string) bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusCancelled, PaymentStatusRefunded:
		return true
	}
	return false
}

func IsValidPaymentType(t string) bool {
	switch t {
	case PaymentTypeTuition, PaymentTypeRegistration, PaymentTypeTransport,
		PaymentTypeBooks, PaymentTypeUniform, PaymentTypeOther:
		return true
	}
	return false
}

/* ===================== Transition table ===================== */

// InvalidTransitionError rejects a status change the ledger does not allow.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid payment status transition: %s → %s", e.From, e.To)
}

// allowed transitions; paid → paid is the amount-amendment case and still
// goes through the reconciler.
var paymentTransitions = map[string]map[string]bool{
	PaymentStatusPending: {
		PaymentStatusPaid:      true,
		PaymentStatusCancelled: true,
		PaymentStatusPending:   true,
	},
	PaymentStatusPaid: {
		PaymentStatusCancelled: true,
		PaymentStatusRefunded:  true,
		PaymentStatusPaid:      true,
	},
	PaymentStatusCancelled: {
		PaymentStatusCancelled: true,
	},
	PaymentStatusRefunded: {
		PaymentStatusRefunded: true,
	},
}

// CanTransition reports whether the ledger allows from → to.
func CanTransition(from, to string) bool {
	return CheckTransition(from, to) == nil
}

// CheckTransition is the single validated transition function. cancelled and
// refunded are terminal (same-state writes pass so partial updates of notes
// etc. stay legal).
func CheckTransition(from, to string) error {
	if !IsValidPaymentStatus(to) {
		return &InvalidTransitionError{From: from, To: to}
	}
	if paymentTransitions[from][to] {
		return nil
	}
	return &InvalidTransitionError{From: from, To: to}
}

/* ===================== Model ===================== */

type PaymentModel struct {
	PaymentID uuid.UUID `gorm:"column:payment_id;type:uuid;primaryKey" json:"payment_id"`

	PaymentStudentID uuid.UUID `gorm:"column:payment_student_id;type:uuid;not null;index" json:"payment_student_id"`

	// Amount in cents (CAD)
	PaymentAmountCents int64  `gorm:"column:payment_amount_cents;not null;check:payment_amount_cents >= 0" json:"payment_amount_cents"`
	PaymentCurrency    string `gorm:"column:payment_currency;type:varchar(8);not null;default:CAD" json:"payment_currency"`

	PaymentType   string `gorm:"column:payment_type;type:payment_type;not null" json:"payment_type"`
	PaymentMethod string `gorm:"column:payment_method;not null" json:"payment_method"`
	PaymentStatus string `gorm:"column:payment_status;type:payment_status;not null;default:'pending'" json:"payment_status"`

	// Idempotency key against gateway events (PSP order id). Unique where
	// present: uq_payments_transaction_id.
	PaymentTransactionID *string `gorm:"column:payment_transaction_id" json:"payment_transaction_id,omitempty"`

	PaymentNotes *string `gorm:"column:payment_notes" json:"payment_notes,omitempty"`

	// Session label derived from payment_date ("Automne 2024", ...)
	PaymentSession string `gorm:"column:payment_session;not null" json:"payment_session"`

	PaymentDate    time.Time  `gorm:"column:payment_date;not null" json:"payment_date"`
	PaymentDueDate *time.Time `gorm:"column:payment_due_date" json:"payment_due_date,omitempty"`
	PaymentPaidAt  *time.Time `gorm:"column:payment_paid_at" json:"payment_paid_at,omitempty"`

	PaymentUserID *string `gorm:"column:payment_user_id" json:"payment_user_id,omitempty"`

	CreatedAt time.Time      `gorm:"column:payment_created_at;autoCreateTime" json:"payment_created_at"`
	UpdatedAt time.Time      `gorm:"column:payment_updated_at;autoUpdateTime" json:"payment_updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:payment_deleted_at;index" json:"payment_deleted_at,omitempty"`
}

func (PaymentModel) TableName() string { return "payments" }

func (p *PaymentModel) BeforeCreate(tx *gorm.DB) error {
	if p.PaymentID == uuid.Nil {
		p.PaymentID = uuid.New()
	}
	return nil
}

/* ===================== Helpers ===================== */

func (p *PaymentModel) IsPaid() bool {
	return p.PaymentStatus == PaymentStatusPaid
}

func (p *PaymentModel) IsTuition() bool {
	return p.PaymentType == PaymentTypeTuition
}

// CountsTowardTuitionPaid: only paid tuition entries feed the derived balance.
func (p *PaymentModel) CountsTowardTuitionPaid() bool {
	return p.IsTuition() && p.IsPaid()
}
