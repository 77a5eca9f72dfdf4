package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"schoolreg_backend/internals/features/school/classes/dto"
	"schoolreg_backend/internals/features/school/classes/service"
	helper "schoolreg_backend/internals/helpers"
)

type ClassController struct {
	DB *gorm.DB
}

func NewClassController(db *gorm.DB) *ClassController {
	return &ClassController{DB: db}
}

/* ===================== CLASSES ===================== */

// POST /api/a/classes
func (ctl *ClassController) Create(c *fiber.Ctx) error {
	var req dto.CreateClassRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Corps de requête invalide")
	}
	if err := helper.Validate.Struct(&req); err != nil {
		return helper.JsonValidationError(c, helper.ValidationMap(err))
	}

	cl, err := service.CreateClass(c.Context(), ctl.DB, &req)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonCreated(c, "Classe créée", dto.ClassFromModel(cl))
}

// GET /api/u/classes?session=&page=&per_page=
func (ctl *ClassController) List(c *fiber.Ctx) error {
	paging := helper.ResolvePaging(c, 20, 100)
	rows, total, err := service.ListClasses(c.Context(), ctl.DB, c.Query("session"), paging.Limit, paging.Offset)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	data := make([]dto.ClassResponse, 0, len(rows))
	for i := range rows {
		data = append(data, dto.ClassFromModel(&rows[i]))
	}
	return helper.JsonList(c, "", data,
		helper.BuildPaginationFromPage(total, paging.Page, paging.PerPage))
}

// GET /api/u/classes/:id
func (ctl *ClassController) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "class_id invalide")
	}

	cl, err := service.GetClass(c.Context(), ctl.DB, id)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "", dto.ClassFromModel(cl))
}

// PATCH /api/a/classes/:id
func (ctl *ClassController) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "class_id invalide")
	}

	var req dto.UpdateClassRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Corps de requête invalide")
	}
	if err := helper.Validate.Struct(&req); err != nil {
		return helper.JsonValidationError(c, helper.ValidationMap(err))
	}

	cl, err := service.UpdateClass(c.Context(), ctl.DB, id, &req)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonUpdated(c, "Classe mise à jour", dto.ClassFromModel(cl))
}

// DELETE /api/a/classes/:id
func (ctl *ClassController) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "class_id invalide")
	}

	if err := service.DeleteClass(c.Context(), ctl.DB, id); err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonDeleted(c, "Classe supprimée", fiber.Map{"class_id": id})
}
