package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"schoolreg_backend/internals/features/school/classes/dto"
	"schoolreg_backend/internals/features/school/classes/service"
	helper "schoolreg_backend/internals/helpers"
)

/* ===================== ENROLLMENTS ===================== */

// POST /api/a/enrollments
func (ctl *ClassController) Enroll(c *fiber.Ctx) error {
	var req dto.EnrollRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Corps de requête invalide")
	}
	if err := helper.Validate.Struct(&req); err != nil {
		return helper.JsonValidationError(c, helper.ValidationMap(err))
	}

	e, err := service.Enroll(c.Context(), ctl.DB, &req)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonCreated(c, "Inscription créée", dto.EnrollmentFromModel(e))
}

// PATCH /api/a/enrollments/:id
func (ctl *ClassController) UpdateEnrollment(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "enrollment_id invalide")
	}

	var req dto.UpdateEnrollmentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Corps de requête invalide")
	}
	if err := helper.Validate.Struct(&req); err != nil {
		return helper.JsonValidationError(c, helper.ValidationMap(err))
	}

	e, err := service.UpdateEnrollment(c.Context(), ctl.DB, id, &req)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonUpdated(c, "Inscription mise à jour", dto.EnrollmentFromModel(e))
}

// GET /api/u/students/:studentId/enrollments
func (ctl *ClassController) ListStudentEnrollments(c *fiber.Ctx) error {
	studentID, err := uuid.Parse(c.Params("studentId"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "student_id invalide")
	}

	rows, err := service.ListByStudent(c.Context(), ctl.DB, studentID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "", dto.EnrollmentsFromModels(rows))
}

/* ===================== MAINTENANCE ===================== */

// POST /api/a/maintenance/cleanup-enrollments
func (ctl *ClassController) CleanupDuplicates(c *fiber.Ctx) error {
	report, err := service.CleanupDuplicateActiveEnrollments(c.Context(), ctl.DB)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "Nettoyage terminé", report)
}

// GET /api/a/maintenance/enrollment-stats
func (ctl *ClassController) Statistics(c *fiber.Ctx) error {
	stats, err := service.EnrollmentStatistics(c.Context(), ctl.DB)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "", stats)
}
