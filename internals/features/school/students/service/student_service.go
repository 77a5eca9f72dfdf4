package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	sessionService "schoolreg_backend/internals/features/academics/sessions/service"
	notifyService "schoolreg_backend/internals/features/home/notifications/service"
	"schoolreg_backend/internals/features/school/students/dto"
	"schoolreg_backend/internals/features/school/students/model"
)

/* ===================== ACCESS CODES ===================== */

const codeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789" // no 0/O/1/I

// GenerateStudentCode returns a fresh "SR2024-ABC123" style code.
func GenerateStudentCode() (string, error) {
	suffix := make([]byte, 6)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeCharset))))
		if err != nil {
			return "", err
		}
		suffix[i] = codeCharset[n.Int64()]
	}
	return fmt.Sprintf("SR%d-%s", time.Now().Year(), string(suffix)), nil
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

/* ===================== CRUD ===================== */

// CreateStudent registers a student: access code, session label from today,
// then a best-effort welcome notification.
func CreateStudent(ctx context.Context, db *gorm.DB, req *dto.CreateStudentRequest) (*model.StudentModel, error) {
	code, err := GenerateStudentCode()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	st := &model.StudentModel{
		StudentFirstName:            req.StudentFirstName,
		StudentLastName:             req.StudentLastName,
		StudentDateOfBirth:          req.StudentDateOfBirth,
		StudentGender:               req.StudentGender,
		StudentAddress:              req.StudentAddress,
		StudentParentName:           req.StudentParentName,
		StudentParentPhone:          req.StudentParentPhone,
		StudentParentEmail:          req.StudentParentEmail,
		StudentProgram:              req.StudentProgram,
		StudentSession:              sessionService.SessionLabel(now),
		StudentSecondaryLevel:       req.StudentSecondaryLevel,
		StudentStatus:               model.StudentStatusPending,
		StudentTuitionAmountCents:   req.StudentTuitionAmountCents,
		StudentEnrollmentDate:       now,
		StudentSessionStartDate:     req.StudentSessionStartDate,
		StudentRegistrationDeadline: req.StudentRegistrationDeadline,
		StudentApplicationID:        req.StudentApplicationID,
		StudentUserID:               req.StudentUserID,
		StudentCode:                 &code,
	}

	if err := db.WithContext(ctx).Create(st).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, fiber.NewError(fiber.StatusConflict,
				"Un étudiant existe déjà pour cette candidature ou ce compte")
		}
		return nil, err
	}

	notifyService.Notify(notifyService.Event{
		Type:      "student_registered",
		StudentID: st.StudentID.String(),
		Title:     "Inscription reçue",
		Message:   fmt.Sprintf("%s est inscrit(e) pour la session %s", st.FullName(), st.StudentSession),
	})
	return st, nil
}

func GetStudent(ctx context.Context, db *gorm.DB, studentID uuid.UUID) (*model.StudentModel, error) {
	var st model.StudentModel
	err := db.WithContext(ctx).Where("student_id = ?", studentID).First(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fiber.NewError(fiber.StatusNotFound, "Étudiant introuvable")
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func ListStudents(ctx context.Context, db *gorm.DB, status, session, search string, limit, offset int) ([]model.StudentModel, int64, error) {
	q := db.WithContext(ctx).Model(&model.StudentModel{})
	if status != "" {
		q = q.Where("student_status = ?", status)
	}
	if session != "" {
		q = q.Where("student_session = ?", session)
	}
	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where(
			"LOWER(student_first_name) LIKE ? OR LOWER(student_last_name) LIKE ? OR LOWER(student_parent_email) LIKE ?",
			like, like, like,
		)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []model.StudentModel
	err := q.Order("student_created_at DESC").
		Limit(limit).Offset(offset).
		Find(&rows).Error
	return rows, total, err
}

func UpdateStudent(ctx context.Context, db *gorm.DB, studentID uuid.UUID, req *dto.UpdateStudentRequest) (*model.StudentModel, error) {
	st, err := GetStudent(ctx, db, studentID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.StudentFirstName != nil {
		updates["student_first_name"] = *req.StudentFirstName
		st.StudentFirstName = *req.StudentFirstName
	}
	if req.StudentLastName != nil {
		updates["student_last_name"] = *req.StudentLastName
		st.StudentLastName = *req.StudentLastName
	}
	if req.StudentAddress != nil {
		updates["student_address"] = *req.StudentAddress
		st.StudentAddress = *req.StudentAddress
	}
	if req.StudentParentName != nil {
		updates["student_parent_name"] = *req.StudentParentName
		st.StudentParentName = *req.StudentParentName
	}
	if req.StudentParentPhone != nil {
		updates["student_parent_phone"] = *req.StudentParentPhone
		st.StudentParentPhone = *req.StudentParentPhone
	}
	if req.StudentParentEmail != nil {
		updates["student_parent_email"] = *req.StudentParentEmail
		st.StudentParentEmail = *req.StudentParentEmail
	}
	if req.StudentProgram != nil {
		updates["student_program"] = *req.StudentProgram
		st.StudentProgram = *req.StudentProgram
	}
	if req.StudentSecondaryLevel != nil {
		updates["student_secondary_level"] = *req.StudentSecondaryLevel
		st.StudentSecondaryLevel = *req.StudentSecondaryLevel
	}
	if req.StudentStatus != nil {
		updates["student_status"] = *req.StudentStatus
		st.StudentStatus = *req.StudentStatus
	}
	tuitionChanged := req.StudentTuitionAmountCents != nil &&
		*req.StudentTuitionAmountCents != st.StudentTuitionAmountCents
	if req.StudentTuitionAmountCents != nil {
		updates["student_tuition_amount_cents"] = *req.StudentTuitionAmountCents
		st.StudentTuitionAmountCents = *req.StudentTuitionAmountCents
	}
	if req.StudentSessionStartDate != nil {
		updates["student_session_start_date"] = req.StudentSessionStartDate
		st.StudentSessionStartDate = req.StudentSessionStartDate
	}
	if req.StudentRegistrationDeadline != nil {
		updates["student_registration_deadline"] = req.StudentRegistrationDeadline
		st.StudentRegistrationDeadline = req.StudentRegistrationDeadline
	}

	if len(updates) > 0 {
		if err := db.WithContext(ctx).Model(&model.StudentModel{}).
			Where("student_id = ?", studentID).
			Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	if tuitionChanged {
		notifyService.StudentChanged(st.StudentID.String(),
			fmt.Sprintf("Frais de scolarité ajustés à %.2f $", float64(st.StudentTuitionAmountCents)/100))
	}
	return st, nil
}

// DeleteStudent soft-deletes the student and everything hanging off the row
// (payments, enrollments) in one transaction.
func DeleteStudent(ctx context.Context, db *gorm.DB, studentID uuid.UUID) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var st model.StudentModel
		err := tx.Where("student_id = ?", studentID).First(&st).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Étudiant introuvable")
		}
		if err != nil {
			return err
		}

		if err := tx.Exec(
			`UPDATE payments SET payment_deleted_at = ? WHERE payment_student_id = ? AND payment_deleted_at IS NULL`,
			time.Now(), studentID,
		).Error; err != nil {
			return err
		}
		if err := tx.Exec(
			`UPDATE enrollments SET enrollment_deleted_at = ? WHERE enrollment_student_id = ? AND enrollment_deleted_at IS NULL`,
			time.Now(), studentID,
		).Error; err != nil {
			return err
		}

		return tx.Delete(&st).Error
	})
}

/* ===================== PROFILE & LINKING ===================== */

func CompleteProfile(ctx context.Context, db *gorm.DB, studentID uuid.UUID, req *dto.CompleteProfileRequest) (*model.StudentModel, error) {
	st, err := GetStudent(ctx, db, studentID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	updates := map[string]interface{}{
		"student_profile_completed":       true,
		"student_profile_completion_date": &now,
	}
	if req.StudentEmergencyContact != nil {
		updates["student_emergency_contact"] = req.StudentEmergencyContact
		st.StudentEmergencyContact = req.StudentEmergencyContact
	}
	if req.StudentMedicalInfo != nil {
		updates["student_medical_info"] = req.StudentMedicalInfo
		st.StudentMedicalInfo = req.StudentMedicalInfo
	}
	if req.StudentAcademicHistory != nil {
		updates["student_academic_history"] = req.StudentAcademicHistory
		st.StudentAcademicHistory = req.StudentAcademicHistory
	}
	if req.StudentPreferences != nil {
		updates["student_preferences"] = req.StudentPreferences
		st.StudentPreferences = req.StudentPreferences
	}

	if err := db.WithContext(ctx).Model(&model.StudentModel{}).
		Where("student_id = ?", studentID).
		Updates(updates).Error; err != nil {
		return nil, err
	}
	st.StudentProfileCompleted = true
	st.StudentProfileCompletionDate = &now
	return st, nil
}

// LinkByCode attaches the authenticated account to the student row matching
// the access code. One account per student, one student per account.
func LinkByCode(ctx context.Context, db *gorm.DB, userID, code string) (*model.StudentModel, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	var st model.StudentModel
	err := db.WithContext(ctx).Where("student_code = ?", code).First(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fiber.NewError(fiber.StatusNotFound, "Code d'accès invalide")
	}
	if err != nil {
		return nil, err
	}

	if st.StudentUserID != nil && *st.StudentUserID != userID {
		return nil, fiber.NewError(fiber.StatusConflict,
			"Ce dossier est déjà lié à un autre compte")
	}

	if err := db.WithContext(ctx).Model(&model.StudentModel{}).
		Where("student_id = ?", st.StudentID).
		Update("student_user_id", userID).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, fiber.NewError(fiber.StatusConflict,
				"Ce compte est déjà lié à un autre dossier")
		}
		return nil, err
	}
	st.StudentUserID = &userID
	return &st, nil
}

func FindByUserID(ctx context.Context, db *gorm.DB, userID string) (*model.StudentModel, error) {
	var st model.StudentModel
	err := db.WithContext(ctx).Where("student_user_id = ?", userID).First(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fiber.NewError(fiber.StatusNotFound, "Aucun dossier lié à ce compte")
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// SearchForLink finds unlinked records matching the parent email so the
// front-end can prompt for the access code. The code itself never leaves the
// server through this path.
func SearchForLink(ctx context.Context, db *gorm.DB, parentEmail, lastName string) ([]model.StudentModel, error) {
	q := db.WithContext(ctx).Model(&model.StudentModel{}).
		Where("student_user_id IS NULL").
		Where("LOWER(student_parent_email) = ?", strings.ToLower(strings.TrimSpace(parentEmail)))
	if lastName != "" {
		q = q.Where("LOWER(student_last_name) = ?", strings.ToLower(strings.TrimSpace(lastName)))
	}

	var rows []model.StudentModel
	err := q.Limit(5).Find(&rows).Error
	return rows, err
}

// GenerateMissingCodes backfills access codes for rows created before codes
// existed. Retries once per student on the (unlikely) collision.
func GenerateMissingCodes(ctx context.Context, db *gorm.DB) (int, error) {
	var rows []model.StudentModel
	if err := db.WithContext(ctx).
		Where("student_code IS NULL").
		Find(&rows).Error; err != nil {
		return 0, err
	}

	updated := 0
	for i := range rows {
		for attempt := 0; attempt < 2; attempt++ {
			code, err := GenerateStudentCode()
			if err != nil {
				return updated, err
			}
			err = db.WithContext(ctx).Model(&model.StudentModel{}).
				Where("student_id = ?", rows[i].StudentID).
				Update("student_code", code).Error
			if err == nil {
				updated++
				break
			}
			if !isUniqueViolation(err) {
				return updated, err
			}
		}
	}
	return updated, nil
}
