package details

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func PublicRoutes(r fiber.Router, db *gorm.DB) {
	publicFinanceRoutes(r, db)
}

func UserRoutes(r fiber.Router, db *gorm.DB) {
	userSchoolRoutes(r, db)
	userFinanceRoutes(r, db)
}

func AdminRoutes(r fiber.Router, db *gorm.DB) {
	adminSchoolRoutes(r, db)
	adminFinanceRoutes(r, db)
}
