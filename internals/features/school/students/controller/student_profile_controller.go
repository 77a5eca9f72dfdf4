package controller

import (
	"github.com/gofiber/fiber/v2"

	"schoolreg_backend/internals/features/school/students/dto"
	"schoolreg_backend/internals/features/school/students/service"
	helper "schoolreg_backend/internals/helpers"
)

/* ===================== USER (parent/student) SURFACE ===================== */

func currentUserID(c *fiber.Ctx) (string, error) {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Session invalide")
	}
	return uid, nil
}

// GET /api/u/students/me
func (ctl *StudentController) Me(c *fiber.Ctx) error {
	uid, err := currentUserID(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	st, err := service.FindByUserID(c.Context(), ctl.DB, uid)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	view, err := service.BuildStudentView(c.Context(), ctl.DB, st.StudentID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "", view)
}

// POST /api/u/students/link
func (ctl *StudentController) LinkByCode(c *fiber.Ctx) error {
	uid, err := currentUserID(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	var req dto.LinkByCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Corps de requête invalide")
	}
	if err := helper.Validate.Struct(&req); err != nil {
		return helper.JsonValidationError(c, helper.ValidationMap(err))
	}

	st, err := service.LinkByCode(c.Context(), ctl.DB, uid, req.StudentCode)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "Dossier lié", dto.FromModel(st))
}

// GET /api/u/students/search-for-link?email=&last_name=
func (ctl *StudentController) SearchForLink(c *fiber.Ctx) error {
	email := c.Query("email")
	if email == "" {
		return helper.JsonError(c, fiber.StatusBadRequest, "Paramètre « email » requis")
	}

	rows, err := service.SearchForLink(c.Context(), ctl.DB, email, c.Query("last_name"))
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	out := make([]dto.LinkCandidate, 0, len(rows))
	for i := range rows {
		out = append(out, dto.LinkCandidateFromModel(&rows[i]))
	}
	return helper.JsonOK(c, "", out)
}

// POST /api/u/students/me/profile
func (ctl *StudentController) CompleteProfile(c *fiber.Ctx) error {
	uid, err := currentUserID(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	st, err := service.FindByUserID(c.Context(), ctl.DB, uid)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	var req dto.CompleteProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Corps de requête invalide")
	}

	updated, err := service.CompleteProfile(c.Context(), ctl.DB, st.StudentID, &req)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonUpdated(c, "Profil complété", dto.FromModel(updated))
}

// POST /api/u/students/me/photo (multipart field "photo")
func (ctl *StudentController) UploadPhoto(c *fiber.Ctx) error {
	uid, err := currentUserID(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	st, err := service.FindByUserID(c.Context(), ctl.DB, uid)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Fichier « photo » manquant")
	}

	dataURL, err := helper.ConvertPhotoToWebPDataURL(fileHeader)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := ctl.DB.WithContext(c.Context()).
		Table("students").
		Where("student_id = ?", st.StudentID).
		Update("student_profile_photo", dataURL).Error; err != nil {
		return helper.FromFiberError(c, err)
	}

	return helper.JsonUpdated(c, "Photo mise à jour", fiber.Map{
		"student_id": st.StudentID,
	})
}
