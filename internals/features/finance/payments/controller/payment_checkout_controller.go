package controller

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"schoolreg_backend/internals/features/finance/payments/dto"
	"schoolreg_backend/internals/features/finance/payments/model"
	"schoolreg_backend/internals/features/finance/payments/service"
	studentModel "schoolreg_backend/internals/features/school/students/model"
	helper "schoolreg_backend/internals/helpers"
)

/* ===================== USER CHECKOUT ===================== */

// POST /api/u/payments/intent
// Opens a gateway checkout: a pending ledger row keyed by a fresh order id,
// plus the Snap token the front-end hands to the widget. The row only turns
// paid through confirm or the webhook.
func (ctl *PaymentController) Checkout(c *fiber.Ctx) error {
	var req dto.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Corps de requête invalide")
	}
	if err := helper.Validate.Struct(&req); err != nil {
		return helper.JsonValidationError(c, helper.ValidationMap(err))
	}

	var st studentModel.StudentModel
	err := ctl.DB.WithContext(c.Context()).
		Where("student_id = ?", req.PaymentStudentID).
		First(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return helper.JsonError(c, fiber.StatusNotFound, "Étudiant introuvable")
	}
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	orderID := service.GenOrderID("SR")
	now := time.Now()
	var userID *string
	if uid, ok := c.Locals("user_id").(string); ok && uid != "" {
		userID = &uid
	}
	p, err := service.CreatePayment(c.Context(), ctl.DB, &dto.CreatePaymentRequest{
		PaymentStudentID:     req.PaymentStudentID,
		PaymentAmountCents:   req.PaymentAmountCents,
		PaymentType:          req.PaymentType,
		PaymentMethod:        model.PaymentMethodGateway,
		PaymentStatus:        model.PaymentStatusPending,
		PaymentTransactionID: &orderID,
		PaymentNotes:         req.PaymentNotes,
		PaymentDate:          &now,
		PaymentUserID:        userID,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	token, redirectURL, err := service.GenerateSnapToken(p, service.CustomerInput{
		FirstName: st.StudentFirstName,
		LastName:  st.StudentLastName,
		Email:     st.StudentParentEmail,
		Phone:     st.StudentParentPhone,
	})
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadGateway,
			"Création de la session de paiement impossible")
	}

	return helper.JsonCreated(c, "Session de paiement créée", dto.CheckoutResponse{
		Payment:     dto.FromModel(p),
		OrderID:     orderID,
		SnapToken:   token,
		RedirectURL: redirectURL,
	})
}

// POST /api/u/payments/confirm/:transactionId
// Pull-side settlement: re-query the PSP and apply the outcome. Safe to call
// any number of times, before or after the webhook lands.
func (ctl *PaymentController) Confirm(c *fiber.Ctx) error {
	transactionID := strings.TrimSpace(c.Params("transactionId"))
	if transactionID == "" {
		return helper.JsonError(c, fiber.StatusBadRequest, "transaction_id requis")
	}

	p, err := service.CheckAndApply(c.Context(), ctl.DB, transactionID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return helper.JsonOK(c, "Transaction vérifiée", dto.FromModel(p))
}
