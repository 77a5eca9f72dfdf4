package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	studentController "schoolreg_backend/internals/features/school/students/controller"
)

// UserStudentRoutes: the linked parent/student surface.
func UserStudentRoutes(r fiber.Router, db *gorm.DB) {
	ctl := studentController.NewStudentController(db)

	r.Get("/students/me", ctl.Me)
	r.Get("/students/search-for-link", ctl.SearchForLink)
	r.Post("/students/link", ctl.LinkByCode)
	r.Post("/students/me/profile", ctl.CompleteProfile)
	r.Post("/students/me/photo", ctl.UploadPhoto)
}

// AdminStudentRoutes: registration back-office.
func AdminStudentRoutes(r fiber.Router, db *gorm.DB) {
	ctl := studentController.NewStudentController(db)

	r.Get("/dashboard/stats", ctl.Dashboard)

	r.Post("/students", ctl.Create)
	r.Get("/students", ctl.List)
	r.Post("/students/generate-missing-codes", ctl.GenerateMissingCodes)
	r.Get("/students/:id/view", ctl.View)
	r.Get("/students/:id", ctl.Get)
	r.Patch("/students/:id", ctl.Update)
	r.Delete("/students/:id", ctl.Delete)
}
