package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	paymentController "schoolreg_backend/internals/features/finance/payments/controller"
)

// PublicPaymentRoutes: unauthenticated surface (PSP webhook only).
func PublicPaymentRoutes(r fiber.Router, db *gorm.DB) {
	ctl := paymentController.NewPaymentController(db)

	r.Post("/payments/webhook", ctl.Webhook)
}

// UserPaymentRoutes: authenticated parent/student surface.
func UserPaymentRoutes(r fiber.Router, db *gorm.DB) {
	ctl := paymentController.NewPaymentController(db)

	r.Post("/payments/intent", ctl.Checkout)
	r.Post("/payments/confirm/:transactionId", ctl.Confirm)
}

// AdminPaymentRoutes: back-office ledger management and maintenance.
func AdminPaymentRoutes(r fiber.Router, db *gorm.DB) {
	ctl := paymentController.NewPaymentController(db)

	r.Post("/payments", ctl.Create)
	r.Post("/payments/update-sessions", ctl.UpdateSessions)
	r.Get("/payments/:id", ctl.Get)
	r.Patch("/payments/:id", ctl.Update)
	r.Delete("/payments/:id", ctl.Delete)

	r.Get("/students/:studentId/payments", ctl.ListByStudent)

	r.Get("/maintenance/audit-balances", ctl.AuditBalances)
	r.Post("/maintenance/students/:studentId/repair-balance", ctl.RepairBalance)
}
