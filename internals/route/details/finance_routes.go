package details

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	paymentRoutes "schoolreg_backend/internals/features/finance/payments/routes"
)

func publicFinanceRoutes(r fiber.Router, db *gorm.DB) {
	paymentRoutes.PublicPaymentRoutes(r, db)
}

func userFinanceRoutes(r fiber.Router, db *gorm.DB) {
	paymentRoutes.UserPaymentRoutes(r, db)
}

func adminFinanceRoutes(r fiber.Router, db *gorm.DB) {
	paymentRoutes.AdminPaymentRoutes(r, db)
}
