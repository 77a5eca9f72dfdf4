package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	classController "schoolreg_backend/internals/features/school/classes/controller"
)

// UserClassRoutes: read-only class catalogue + the student's own history.
func UserClassRoutes(r fiber.Router, db *gorm.DB) {
	ctl := classController.NewClassController(db)

	r.Get("/classes", ctl.List)
	r.Get("/classes/:id", ctl.Get)
	r.Get("/students/:studentId/enrollments", ctl.ListStudentEnrollments)
}

// AdminClassRoutes: class management, enrollment placement, maintenance.
func AdminClassRoutes(r fiber.Router, db *gorm.DB) {
	ctl := classController.NewClassController(db)

	r.Post("/classes", ctl.Create)
	r.Patch("/classes/:id", ctl.Update)
	r.Delete("/classes/:id", ctl.Delete)

	r.Post("/enrollments", ctl.Enroll)
	r.Patch("/enrollments/:id", ctl.UpdateEnrollment)

	r.Post("/maintenance/cleanup-enrollments", ctl.CleanupDuplicates)
	r.Get("/maintenance/enrollment-stats", ctl.Statistics)
}
