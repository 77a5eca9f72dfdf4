package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"schoolreg_backend/internals/features/school/students/dto"
	"schoolreg_backend/internals/features/school/students/model"
	"schoolreg_backend/internals/features/school/students/service"
	helper "schoolreg_backend/internals/helpers"
)

type StudentController struct {
	DB *gorm.DB
}

func NewStudentController(db *gorm.DB) *StudentController {
	return &StudentController{DB: db}
}

/* ===================== ADMIN CRUD ===================== */

// POST /api/a/students
func (ctl *StudentController) Create(c *fiber.Ctx) error {
	var req dto.CreateStudentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Corps de requête invalide")
	}
	if err := helper.Validate.Struct(&req); err != nil {
		return helper.JsonValidationError(c, helper.ValidationMap(err))
	}

	st, err := service.CreateStudent(c.Context(), ctl.DB, &req)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonCreated(c, "Étudiant inscrit", dto.FromModel(st))
}

// GET /api/a/students?status=&session=&search=&page=&per_page=
func (ctl *StudentController) List(c *fiber.Ctx) error {
	status := c.Query("status")
	if status != "" {
		switch status {
		case model.StudentStatusPending, model.StudentStatusActive, model.StudentStatusInactive,
			model.StudentStatusGraduated, model.StudentStatusSuspended:
		default:
			return helper.JsonError(c, fiber.StatusBadRequest, "status invalide")
		}
	}

	paging := helper.ResolvePaging(c, 20, 100)
	rows, total, err := service.ListStudents(c.Context(), ctl.DB,
		status, c.Query("session"), c.Query("search"), paging.Limit, paging.Offset)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	return helper.JsonList(c, "", dto.FromModels(rows),
		helper.BuildPaginationFromPage(total, paging.Page, paging.PerPage))
}

// GET /api/a/students/:id
func (ctl *StudentController) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "student_id invalide")
	}

	st, err := service.GetStudent(c.Context(), ctl.DB, id)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "", dto.FromModel(st))
}

// GET /api/a/students/:id/view
func (ctl *StudentController) View(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "student_id invalide")
	}

	view, err := service.BuildStudentView(c.Context(), ctl.DB, id)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "", view)
}

// PATCH /api/a/students/:id
func (ctl *StudentController) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "student_id invalide")
	}

	var req dto.UpdateStudentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Corps de requête invalide")
	}
	if err := helper.Validate.Struct(&req); err != nil {
		return helper.JsonValidationError(c, helper.ValidationMap(err))
	}

	st, err := service.UpdateStudent(c.Context(), ctl.DB, id, &req)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonUpdated(c, "Étudiant mis à jour", dto.FromModel(st))
}

// DELETE /api/a/students/:id
func (ctl *StudentController) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "student_id invalide")
	}

	if err := service.DeleteStudent(c.Context(), ctl.DB, id); err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonDeleted(c, "Étudiant supprimé", fiber.Map{"student_id": id})
}

/* ===================== ADMIN MAINTENANCE ===================== */

// GET /api/a/dashboard/stats
func (ctl *StudentController) Dashboard(c *fiber.Ctx) error {
	stats, err := service.BuildDashboardStats(c.Context(), ctl.DB)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "", stats)
}

// POST /api/a/students/generate-missing-codes
func (ctl *StudentController) GenerateMissingCodes(c *fiber.Ctx) error {
	updated, err := service.GenerateMissingCodes(c.Context(), ctl.DB)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "Codes générés", fiber.Map{"updated": updated})
}
