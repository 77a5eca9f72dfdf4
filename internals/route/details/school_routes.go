package details

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	classRoutes "schoolreg_backend/internals/features/school/classes/routes"
	studentRoutes "schoolreg_backend/internals/features/school/students/routes"
)

func userSchoolRoutes(r fiber.Router, db *gorm.DB) {
	studentRoutes.UserStudentRoutes(r, db)
	classRoutes.UserClassRoutes(r, db)
}

func adminSchoolRoutes(r fiber.Router, db *gorm.DB) {
	studentRoutes.AdminStudentRoutes(r, db)
	classRoutes.AdminClassRoutes(r, db)
}
