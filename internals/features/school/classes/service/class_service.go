package service

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	sessionService "schoolreg_backend/internals/features/academics/sessions/service"
	"schoolreg_backend/internals/features/school/classes/dto"
	"schoolreg_backend/internals/features/school/classes/model"
)

/* ===================== CLASS CRUD ===================== */

func CreateClass(ctx context.Context, db *gorm.DB, req *dto.CreateClassRequest) (*model.ClassModel, error) {
	session := req.ClassSession
	if session == "" {
		session = sessionService.CurrentSessionLabel()
	}

	c := &model.ClassModel{
		ClassName:        req.ClassName,
		ClassLevel:       req.ClassLevel,
		ClassCapacity:    req.ClassCapacity,
		ClassSchedule:    req.ClassSchedule,
		ClassRoom:        req.ClassRoom,
		ClassTeacherName: req.ClassTeacherName,
		ClassSession:     session,
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

func GetClass(ctx context.Context, db *gorm.DB, classID uuid.UUID) (*model.ClassModel, error) {
	var c model.ClassModel
	err := db.WithContext(ctx).Where("class_id = ?", classID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fiber.NewError(fiber.StatusNotFound, "Classe introuvable")
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func ListClasses(ctx context.Context, db *gorm.DB, session string, limit, offset int) ([]model.ClassModel, int64, error) {
	q := db.WithContext(ctx).Model(&model.ClassModel{})
	if session != "" {
		q = q.Where("class_session = ?", session)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []model.ClassModel
	err := q.Order("class_level, class_name").
		Limit(limit).Offset(offset).
		Find(&rows).Error
	return rows, total, err
}

func UpdateClass(ctx context.Context, db *gorm.DB, classID uuid.UUID, req *dto.UpdateClassRequest) (*model.ClassModel, error) {
	c, err := GetClass(ctx, db, classID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.ClassName != nil {
		updates["class_name"] = *req.ClassName
		c.ClassName = *req.ClassName
	}
	if req.ClassLevel != nil {
		updates["class_level"] = *req.ClassLevel
		c.ClassLevel = *req.ClassLevel
	}
	if req.ClassCapacity != nil {
		updates["class_capacity"] = *req.ClassCapacity
		c.ClassCapacity = *req.ClassCapacity
	}
	if req.ClassSchedule != nil {
		updates["class_schedule"] = req.ClassSchedule
		c.ClassSchedule = req.ClassSchedule
	}
	if req.ClassRoom != nil {
		updates["class_room"] = req.ClassRoom
		c.ClassRoom = req.ClassRoom
	}
	if req.ClassTeacherName != nil {
		updates["class_teacher_name"] = req.ClassTeacherName
		c.ClassTeacherName = req.ClassTeacherName
	}
	if req.ClassSession != nil {
		updates["class_session"] = *req.ClassSession
		c.ClassSession = *req.ClassSession
	}

	if len(updates) > 0 {
		if err := db.WithContext(ctx).Model(&model.ClassModel{}).
			Where("class_id = ?", classID).
			Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return c, nil
}

// DeleteClass refuses while active enrollments point at the class.
func DeleteClass(ctx context.Context, db *gorm.DB, classID uuid.UUID) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c model.ClassModel
		err := tx.Where("class_id = ?", classID).First(&c).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Classe introuvable")
		}
		if err != nil {
			return err
		}

		var active int64
		if err := tx.Model(&model.EnrollmentModel{}).
			Where("enrollment_class_id = ?", classID).
			Where("enrollment_status = ?", model.EnrollmentStatusActive).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return fiber.NewError(fiber.StatusConflict,
				"Impossible de supprimer une classe avec des inscriptions actives")
		}

		return tx.Delete(&c).Error
	})
}
