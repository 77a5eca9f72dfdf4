package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	sessionService "schoolreg_backend/internals/features/academics/sessions/service"
	"schoolreg_backend/internals/features/school/classes/dto"
	"schoolreg_backend/internals/features/school/classes/model"
	studentModel "schoolreg_backend/internals/features/school/students/model"
)

/* =========================================================
   ENROLLMENT ENFORCER
   Invariant: at most one active enrollment per student.
   Two layers: the app-level check inside the tx (gives a 409
   naming the conflicting class), then the partial unique index
   uq_enrollments_one_active_per_student catching anything that
   slips between concurrent transactions.
   ========================================================= */

func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key value")
}

// Enroll places a student into a class. The student row is locked first so
// two concurrent Enroll calls for the same student serialize; the partial
// unique index is the backstop for anything the lock cannot cover.
func Enroll(ctx context.Context, db *gorm.DB, req *dto.EnrollRequest) (*model.EnrollmentModel, error) {
	var out *model.EnrollmentModel

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var st studentModel.StudentModel
		err := forUpdate(tx).
			Where("student_id = ?", req.EnrollmentStudentID).
			First(&st).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Étudiant introuvable")
		}
		if err != nil {
			return err
		}

		var class model.ClassModel
		err = tx.Where("class_id = ?", req.EnrollmentClassID).First(&class).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Classe introuvable")
		}
		if err != nil {
			return err
		}

		// Capacity check counts live active rows only.
		var enrolled int64
		if err := tx.Model(&model.EnrollmentModel{}).
			Where("enrollment_class_id = ?", class.ClassID).
			Where("enrollment_status = ?", model.EnrollmentStatusActive).
			Count(&enrolled).Error; err != nil {
			return err
		}
		if class.ClassCapacity > 0 && enrolled >= int64(class.ClassCapacity) {
			return fiber.NewError(fiber.StatusConflict,
				fmt.Sprintf("La classe « %s » est complète", class.ClassName))
		}

		var existing model.EnrollmentModel
		err = tx.Where("enrollment_student_id = ?", st.StudentID).
			Where("enrollment_status = ?", model.EnrollmentStatusActive).
			First(&existing).Error
		if err == nil {
			var conflictClass model.ClassModel
			name := existing.EnrollmentClassID.String()
			if e := tx.Where("class_id = ?", existing.EnrollmentClassID).
				First(&conflictClass).Error; e == nil {
				name = conflictClass.ClassName
			}
			return fiber.NewError(fiber.StatusConflict,
				fmt.Sprintf("%s est déjà inscrit(e) dans la classe « %s »", st.FullName(), name))
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		date := time.Now()
		if req.EnrollmentDate != nil {
			date = *req.EnrollmentDate
		}
		year := sessionService.AcademicYear(date)

		e := &model.EnrollmentModel{
			EnrollmentStudentID:    st.StudentID,
			EnrollmentClassID:      class.ClassID,
			EnrollmentDate:         date,
			EnrollmentStatus:       model.EnrollmentStatusActive,
			EnrollmentAcademicYear: &year,
		}
		if err := tx.Create(e).Error; err != nil {
			if isUniqueViolation(err) {
				return fiber.NewError(fiber.StatusConflict,
					"L'étudiant a déjà une inscription active")
			}
			return err
		}

		out = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateEnrollment applies grades/report-card data and status transitions.
// Terminal rows (completed/dropped/failed) never change status again;
// re-enrollment is a new row through Enroll.
func UpdateEnrollment(ctx context.Context, db *gorm.DB, enrollmentID uuid.UUID, req *dto.UpdateEnrollmentRequest) (*model.EnrollmentModel, error) {
	var out *model.EnrollmentModel

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var e model.EnrollmentModel
		err := forUpdate(tx).
			Where("enrollment_id = ?", enrollmentID).
			First(&e).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Inscription introuvable")
		}
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}

		if req.EnrollmentStatus != nil && *req.EnrollmentStatus != e.EnrollmentStatus {
			if model.IsTerminalEnrollmentStatus(e.EnrollmentStatus) {
				return fiber.NewError(fiber.StatusConflict,
					fmt.Sprintf("Inscription déjà %s; créer une nouvelle inscription", e.EnrollmentStatus))
			}
			if !model.IsValidEnrollmentStatus(*req.EnrollmentStatus) {
				return fiber.NewError(fiber.StatusBadRequest, "Statut d'inscription invalide")
			}
			updates["enrollment_status"] = *req.EnrollmentStatus
			e.EnrollmentStatus = *req.EnrollmentStatus
		}
		if req.EnrollmentGrade != nil {
			updates["enrollment_grade"] = req.EnrollmentGrade
			e.EnrollmentGrade = req.EnrollmentGrade
		}
		if req.EnrollmentAttendance != nil {
			updates["enrollment_attendance"] = req.EnrollmentAttendance
			e.EnrollmentAttendance = req.EnrollmentAttendance
		}
		if req.EnrollmentCourseGrades != nil {
			updates["enrollment_course_grades"] = req.EnrollmentCourseGrades
			e.EnrollmentCourseGrades = req.EnrollmentCourseGrades
		}
		if req.EnrollmentQuebecReportCard != nil {
			updates["enrollment_quebec_report_card"] = req.EnrollmentQuebecReportCard
			e.EnrollmentQuebecReportCard = req.EnrollmentQuebecReportCard
		}
		if req.EnrollmentCompetenciesAssessment != nil {
			updates["enrollment_competencies_assessment"] = req.EnrollmentCompetenciesAssessment
			e.EnrollmentCompetenciesAssessment = req.EnrollmentCompetenciesAssessment
		}
		if req.EnrollmentAcademicYear != nil {
			updates["enrollment_academic_year"] = req.EnrollmentAcademicYear
			e.EnrollmentAcademicYear = req.EnrollmentAcademicYear
		}
		if req.EnrollmentSemester != nil {
			updates["enrollment_semester"] = req.EnrollmentSemester
			e.EnrollmentSemester = req.EnrollmentSemester
		}

		if len(updates) > 0 {
			if err := tx.Model(&model.EnrollmentModel{}).
				Where("enrollment_id = ?", e.EnrollmentID).
				Updates(updates).Error; err != nil {
				return err
			}
		}

		out = &e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ActiveEnrollment returns the student's single active row, nil when none.
func ActiveEnrollment(ctx context.Context, db *gorm.DB, studentID uuid.UUID) (*model.EnrollmentModel, error) {
	var e model.EnrollmentModel
	err := db.WithContext(ctx).
		Where("enrollment_student_id = ?", studentID).
		Where("enrollment_status = ?", model.EnrollmentStatusActive).
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListByStudent returns the full enrollment history, newest first.
func ListByStudent(ctx context.Context, db *gorm.DB, studentID uuid.UUID) ([]model.EnrollmentModel, error) {
	var rows []model.EnrollmentModel
	err := db.WithContext(ctx).
		Where("enrollment_student_id = ?", studentID).
		Order("enrollment_date DESC, enrollment_created_at DESC").
		Find(&rows).Error
	return rows, err
}
