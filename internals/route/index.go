package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"schoolreg_backend/internals/middlewares/auth"
	"schoolreg_backend/internals/route/details"
)

// SetupRoutes mounts the three surfaces:
//
//	/api/public — unauthenticated (PSP webhook)
//	/api/u      — authenticated parents/students
//	/api/a      — admin/direction back-office
func SetupRoutes(app *fiber.App, db *gorm.DB) {
	api := app.Group("/api")

	public := api.Group("/public")
	details.PublicRoutes(public, db)

	user := api.Group("/u", auth.AuthMiddleware())
	details.UserRoutes(user, db)

	admin := api.Group("/a",
		auth.AuthMiddleware(),
		auth.OnlyRoles("Accès réservé à l'administration", "admin", "direction"),
	)
	details.AdminRoutes(admin, db)
}
