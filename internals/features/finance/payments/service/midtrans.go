package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"schoolreg_backend/internals/features/finance/payments/dto"
	"schoolreg_backend/internals/features/finance/payments/model"
)

/* =========================================================
   Midtrans Client
========================================================= */

var (
	SnapClient snap.Client
	CoreClient coreapi.Client
)

// InitMidtrans must run at bootstrap. useProduction=false targets the sandbox.
func InitMidtrans(serverKey string, useProduction bool) {
	env := midtrans.Sandbox
	if useProduction {
		env = midtrans.Production
	}
	SnapClient.New(serverKey, env)
	CoreClient.New(serverKey, env)
}

// GenOrderID builds the PSP order id; it doubles as the ledger's
// payment_transaction_id idempotency key.
func GenOrderID(prefix string) string {
	now := time.Now().Format("20060102-150405")
	u := uuid.New().String()
	if len(u) > 8 {
		u = u[:8]
	}
	return prefix + "-" + now + "-" + strings.ToUpper(u)
}

type CustomerInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// GenerateSnapToken opens a Snap checkout for a pending ledger row. Amounts
// are cents; the gateway's minor units map 1:1.
func GenerateSnapToken(p *model.PaymentModel, cust CustomerInput) (string, string, error) {
	if p.PaymentAmountCents <= 0 {
		return "", "", errors.New("invalid payment_amount_cents")
	}
	if p.PaymentTransactionID == nil || *p.PaymentTransactionID == "" {
		return "", "", errors.New("payment_transaction_id is required (used as OrderID)")
	}

	itemName := "Frais de scolarité"
	if p.PaymentType != model.PaymentTypeTuition {
		itemName = "Frais " + p.PaymentType
	}

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  *p.PaymentTransactionID,
			GrossAmt: p.PaymentAmountCents,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: cust.FirstName,
			LName: cust.LastName,
			Email: cust.Email,
			Phone: cust.Phone,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:       *p.PaymentTransactionID,
				Price:    p.PaymentAmountCents,
				Qty:      1,
				Name:     itemName,
				Category: p.PaymentType,
			},
		},
	}

	resp, err := SnapClient.CreateTransaction(req)
	if err != nil {
		return "", "", err
	}
	return resp.Token, resp.RedirectURL, nil
}

/* =========================================================
   Status mapping
========================================================= */

// MapGatewayStatus converts a PSP transaction status into a ledger status.
// capture+challenge and pending leave the row untouched; unknown statuses
// fall through to current.
func MapGatewayStatus(current, transactionStatus, fraudStatus string) string {
	ts := strings.ToLower(transactionStatus)
	fraud := strings.ToLower(fraudStatus)

	switch ts {
	case "capture":
		if fraud == "accept" {
			return model.PaymentStatusPaid
		}
		if fraud == "challenge" {
			return current
		}
		return model.PaymentStatusCancelled

	case "settlement":
		return model.PaymentStatusPaid

	case "pending":
		return current

	case "deny", "failure", "cancel", "expire":
		return model.PaymentStatusCancelled

	case "refund", "partial_refund":
		return model.PaymentStatusRefunded
	}

	return current
}

/* =========================================================
   Confirm (pull path)
========================================================= */

// CheckAndApply re-queries the PSP for an order and applies the outcome.
// The front-end calls this after checkout; the webhook is the push twin.
// Both paths converge on applyGatewayStatus, so either order works.
func CheckAndApply(ctx context.Context, db *gorm.DB, transactionID string) (*model.PaymentModel, error) {
	resp, err := CoreClient.CheckTransaction(transactionID)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadGateway,
			"Vérification de la transaction impossible")
	}
	return applyGatewayStatus(ctx, db, transactionID, resp.TransactionStatus, resp.FraudStatus)
}

// applyGatewayStatus routes a PSP status onto the ledger through the
// reconciler. Duplicate "paid" deliveries are absorbed by ApplyGatewayPaid.
func applyGatewayStatus(ctx context.Context, db *gorm.DB, transactionID, transactionStatus, fraudStatus string) (*model.PaymentModel, error) {
	p, err := FindByTransactionID(ctx, db, transactionID)
	if err != nil {
		return nil, err
	}

	next := MapGatewayStatus(p.PaymentStatus, transactionStatus, fraudStatus)
	if next == p.PaymentStatus {
		return p, nil
	}

	switch next {
	case model.PaymentStatusPaid:
		out, _, err := ApplyGatewayPaid(ctx, db, transactionID, time.Now())
		return out, err
	default:
		status := next
		return UpdatePayment(ctx, db, p.PaymentID, &dto.UpdatePaymentRequest{
			PaymentStatus: &status,
		})
	}
}
