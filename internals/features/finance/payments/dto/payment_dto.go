package dto

import (
	"time"

	"github.com/google/uuid"

	"schoolreg_backend/internals/features/finance/payments/model"
)

/* ===================== REQUESTS ===================== */

type CreatePaymentRequest struct {
	PaymentStudentID   uuid.UUID `json:"payment_student_id" validate:"required"`
	PaymentAmountCents int64     `json:"payment_amount_cents" validate:"required,gt=0"`
	PaymentType        string    `json:"payment_type" validate:"required,oneof=tuition registration transport books uniform other"`
	PaymentMethod      string    `json:"payment_method" validate:"required,oneof=cash card bank_transfer gateway other"`
	PaymentStatus      string    `json:"payment_status" validate:"omitempty,oneof=pending paid"`

	PaymentTransactionID *string    `json:"payment_transaction_id" validate:"omitempty,min=3,max=128"`
	PaymentNotes         *string    `json:"payment_notes" validate:"omitempty,max=500"`
	PaymentDate          *time.Time `json:"payment_date"`
	PaymentDueDate       *time.Time `json:"payment_due_date"`
	PaymentUserID        *string    `json:"-"`
}

type UpdatePaymentRequest struct {
	PaymentStatus      *string    `json:"payment_status" validate:"omitempty,oneof=pending paid cancelled refunded"`
	PaymentAmountCents *int64     `json:"payment_amount_cents" validate:"omitempty,gt=0"`
	PaymentMethod      *string    `json:"payment_method" validate:"omitempty,oneof=cash card bank_transfer gateway other"`
	PaymentNotes       *string    `json:"payment_notes" validate:"omitempty,max=500"`
	PaymentDueDate     *time.Time `json:"payment_due_date"`
}

// CheckoutRequest opens a gateway checkout for a pending payment.
type CheckoutRequest struct {
	PaymentStudentID   uuid.UUID `json:"payment_student_id" validate:"required"`
	PaymentAmountCents int64     `json:"payment_amount_cents" validate:"required,gt=0"`
	PaymentType        string    `json:"payment_type" validate:"required,oneof=tuition registration transport books uniform other"`
	PaymentNotes       *string   `json:"payment_notes" validate:"omitempty,max=500"`
}

/* ===================== RESPONSES ===================== */

type PaymentResponse struct {
	PaymentID            uuid.UUID  `json:"payment_id"`
	PaymentStudentID     uuid.UUID  `json:"payment_student_id"`
	PaymentAmountCents   int64      `json:"payment_amount_cents"`
	PaymentCurrency      string     `json:"payment_currency"`
	PaymentType          string     `json:"payment_type"`
	PaymentMethod        string     `json:"payment_method"`
	PaymentStatus        string     `json:"payment_status"`
	PaymentTransactionID *string    `json:"payment_transaction_id,omitempty"`
	PaymentNotes         *string    `json:"payment_notes,omitempty"`
	PaymentSession       string     `json:"payment_session"`
	PaymentDate          time.Time  `json:"payment_date"`
	PaymentDueDate       *time.Time `json:"payment_due_date,omitempty"`
	PaymentPaidAt        *time.Time `json:"payment_paid_at,omitempty"`
	PaymentCreatedAt     time.Time  `json:"payment_created_at"`
	PaymentUpdatedAt     time.Time  `json:"payment_updated_at"`
}

func FromModel(m *model.PaymentModel) PaymentResponse {
	return PaymentResponse{
		PaymentID:            m.PaymentID,
		PaymentStudentID:     m.PaymentStudentID,
		PaymentAmountCents:   m.PaymentAmountCents,
		PaymentCurrency:      m.PaymentCurrency,
		PaymentType:          m.PaymentType,
		PaymentMethod:        m.PaymentMethod,
		PaymentStatus:        m.PaymentStatus,
		PaymentTransactionID: m.PaymentTransactionID,
		PaymentNotes:         m.PaymentNotes,
		PaymentSession:       m.PaymentSession,
		PaymentDate:          m.PaymentDate,
		PaymentDueDate:       m.PaymentDueDate,
		PaymentPaidAt:        m.PaymentPaidAt,
		PaymentCreatedAt:     m.CreatedAt,
		PaymentUpdatedAt:     m.UpdatedAt,
	}
}

func FromModels(ms []model.PaymentModel) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(ms))
	for i := range ms {
		out = append(out, FromModel(&ms[i]))
	}
	return out
}

// CheckoutResponse carries the Snap token the front-end opens.
type CheckoutResponse struct {
	Payment     PaymentResponse `json:"payment"`
	OrderID     string          `json:"order_id"`
	SnapToken   string          `json:"snap_token"`
	RedirectURL string          `json:"redirect_url"`
}
