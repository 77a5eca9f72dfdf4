package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"schoolreg_backend/internals/features/finance/payments/dto"
	"schoolreg_backend/internals/features/finance/payments/model"
	"schoolreg_backend/internals/features/finance/payments/service"
	helper "schoolreg_backend/internals/helpers"
)

type PaymentController struct {
	DB *gorm.DB
}

func NewPaymentController(db *gorm.DB) *PaymentController {
	return &PaymentController{DB: db}
}

// respondServiceError: transition refusals get their own error_code so the
// front-end can distinguish them from duplicate-transaction conflicts.
func respondServiceError(c *fiber.Ctx, err error) error {
	var ite *model.InvalidTransitionError
	if errors.As(err, &ite) {
		return helper.JsonErrorCode(c, fiber.StatusConflict, "INVALID_TRANSITION", ite.Error())
	}
	return helper.FromFiberError(c, err)
}

/* ===================== ADMIN CRUD ===================== */

// POST /api/a/payments
func (ctl *PaymentController) Create(c *fiber.Ctx) error {
	var req dto.CreatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Corps de requête invalide")
	}
	if err := helper.Validate.Struct(&req); err != nil {
		return helper.JsonValidationError(c, helper.ValidationMap(err))
	}

	p, err := service.CreatePayment(c.Context(), ctl.DB, &req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return helper.JsonCreated(c, "Paiement enregistré", dto.FromModel(p))
}

// GET /api/a/payments/:id
func (ctl *PaymentController) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "payment_id invalide")
	}

	p, err := service.GetPayment(c.Context(), ctl.DB, id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return helper.JsonOK(c, "", dto.FromModel(p))
}

// GET /api/a/students/:studentId/payments?status=&type=&page=&per_page=
func (ctl *PaymentController) ListByStudent(c *fiber.Ctx) error {
	studentID, err := uuid.Parse(c.Params("studentId"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "student_id invalide")
	}

	status := c.Query("status")
	if status != "" && !model.IsValidPaymentStatus(status) {
		return helper.JsonError(c, fiber.StatusBadRequest, "status invalide")
	}
	payType := c.Query("type")
	if payType != "" && !model.IsValidPaymentType(payType) {
		return helper.JsonError(c, fiber.StatusBadRequest, "type invalide")
	}

	paging := helper.ResolvePaging(c, 20, 100)
	rows, total, err := service.ListByStudent(c.Context(), ctl.DB, studentID, status, payType, paging.Limit, paging.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}

	return helper.JsonList(c, "", dto.FromModels(rows),
		helper.BuildPaginationFromPage(total, paging.Page, paging.PerPage))
}

// PATCH /api/a/payments/:id
func (ctl *PaymentController) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "payment_id invalide")
	}

	var req dto.UpdatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Corps de requête invalide")
	}
	if err := helper.Validate.Struct(&req); err != nil {
		return helper.JsonValidationError(c, helper.ValidationMap(err))
	}

	p, err := service.UpdatePayment(c.Context(), ctl.DB, id, &req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return helper.JsonUpdated(c, "Paiement mis à jour", dto.FromModel(p))
}

// DELETE /api/a/payments/:id
func (ctl *PaymentController) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "payment_id invalide")
	}

	if err := service.DeletePayment(c.Context(), ctl.DB, id); err != nil {
		return respondServiceError(c, err)
	}
	return helper.JsonDeleted(c, "Paiement supprimé", fiber.Map{"payment_id": id})
}
