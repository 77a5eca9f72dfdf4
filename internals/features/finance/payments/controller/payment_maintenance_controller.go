package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	sessionService "schoolreg_backend/internals/features/academics/sessions/service"
	"schoolreg_backend/internals/features/finance/payments/service"
	helper "schoolreg_backend/internals/helpers"
)

/* ===================== ADMIN MAINTENANCE ===================== */

// POST /api/a/maintenance/students/:studentId/repair-balance
func (ctl *PaymentController) RepairBalance(c *fiber.Ctx) error {
	studentID, err := uuid.Parse(c.Params("studentId"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "student_id invalide")
	}

	paid, err := service.RepairStudentBalance(c.Context(), ctl.DB, studentID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return helper.JsonOK(c, "Solde recalculé", fiber.Map{
		"student_id":                 studentID,
		"student_tuition_paid_cents": paid,
	})
}

// GET /api/a/maintenance/audit-balances?repair=true
func (ctl *PaymentController) AuditBalances(c *fiber.Ctx) error {
	repair := c.QueryBool("repair", false)

	report, err := service.AuditBalances(c.Context(), ctl.DB, repair)
	if err != nil {
		return respondServiceError(c, err)
	}
	return helper.JsonOK(c, "Audit terminé", report)
}

// POST /api/a/payments/update-sessions
// Relabels payment_session from payment_date across the whole ledger.
func (ctl *PaymentController) UpdateSessions(c *fiber.Ctx) error {
	report, err := sessionService.RelabelPayments(c.Context(), ctl.DB)
	if err != nil {
		return respondServiceError(c, err)
	}
	return helper.JsonOK(c, "Sessions mises à jour", report)
}
