package service

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	sessionService "schoolreg_backend/internals/features/academics/sessions/service"
	"schoolreg_backend/internals/features/finance/payments/dto"
	"schoolreg_backend/internals/features/finance/payments/model"
	notifyService "schoolreg_backend/internals/features/home/notifications/service"
)

/* =========================================================
   PAYMENT LEDGER
   All mutations run in one transaction with the student row
   locked first, then recompute the derived paid total.
   ========================================================= */

// CreatePayment inserts a ledger row. A row created directly as paid (cash at
// the front desk) stamps paid_at and recomputes the balance in the same tx.
func CreatePayment(ctx context.Context, db *gorm.DB, req *dto.CreatePaymentRequest) (*model.PaymentModel, error) {
	status := req.PaymentStatus
	if status == "" {
		status = model.PaymentStatusPending
	}

	date := time.Now()
	if req.PaymentDate != nil {
		date = *req.PaymentDate
	}

	p := &model.PaymentModel{
		PaymentStudentID:     req.PaymentStudentID,
		PaymentAmountCents:   req.PaymentAmountCents,
		PaymentCurrency:      "CAD",
		PaymentType:          req.PaymentType,
		PaymentMethod:        req.PaymentMethod,
		PaymentStatus:        status,
		PaymentTransactionID: req.PaymentTransactionID,
		PaymentNotes:         req.PaymentNotes,
		PaymentSession:       sessionService.SessionLabel(date),
		PaymentDate:          date,
		PaymentDueDate:       req.PaymentDueDate,
		PaymentUserID:        req.PaymentUserID,
	}
	if status == model.PaymentStatusPaid {
		now := time.Now()
		p.PaymentPaidAt = &now
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockStudent(tx, req.PaymentStudentID); err != nil {
			return err
		}

		if err := tx.Create(p).Error; err != nil {
			if isUniqueViolation(err) {
				return fiber.NewError(fiber.StatusConflict,
					"Un paiement existe déjà pour cette transaction")
			}
			return err
		}

		if p.CountsTowardTuitionPaid() {
			if _, err := RecomputeTuitionPaid(tx, p.PaymentStudentID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if p.IsPaid() {
		notifyService.PaymentReceived(p.PaymentStudentID.String(),
			p.PaymentAmountCents, p.PaymentMethod)
	}
	return p, nil
}

// UpdatePayment applies a partial update. Status changes go through the
// transition table; amount amendments on a paid row recompute the balance.
func UpdatePayment(ctx context.Context, db *gorm.DB, paymentID uuid.UUID, req *dto.UpdatePaymentRequest) (*model.PaymentModel, error) {
	var out *model.PaymentModel

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p model.PaymentModel
		err := forUpdate(tx).
			Where("payment_id = ?", paymentID).
			First(&p).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Paiement introuvable")
		}
		if err != nil {
			return err
		}

		if _, err := lockStudent(tx, p.PaymentStudentID); err != nil {
			return err
		}

		wasCounted := p.CountsTowardTuitionPaid()
		updates := map[string]interface{}{}

		if req.PaymentStatus != nil && *req.PaymentStatus != p.PaymentStatus {
			if err := model.CheckTransition(p.PaymentStatus, *req.PaymentStatus); err != nil {
				return err
			}
			updates["payment_status"] = *req.PaymentStatus
			p.PaymentStatus = *req.PaymentStatus

			if *req.PaymentStatus == model.PaymentStatusPaid && p.PaymentPaidAt == nil {
				now := time.Now()
				updates["payment_paid_at"] = &now
				p.PaymentPaidAt = &now
			}
		}
		if req.PaymentAmountCents != nil {
			updates["payment_amount_cents"] = *req.PaymentAmountCents
			p.PaymentAmountCents = *req.PaymentAmountCents
		}
		if req.PaymentMethod != nil {
			updates["payment_method"] = *req.PaymentMethod
			p.PaymentMethod = *req.PaymentMethod
		}
		if req.PaymentNotes != nil {
			updates["payment_notes"] = req.PaymentNotes
			p.PaymentNotes = req.PaymentNotes
		}
		if req.PaymentDueDate != nil {
			updates["payment_due_date"] = req.PaymentDueDate
			p.PaymentDueDate = req.PaymentDueDate
		}

		if len(updates) > 0 {
			if err := tx.Model(&model.PaymentModel{}).
				Where("payment_id = ?", p.PaymentID).
				Updates(updates).Error; err != nil {
				return err
			}
		}

		// Recompute whenever the row entered, left, or changed within the
		// paid-tuition set.
		if wasCounted || p.CountsTowardTuitionPaid() {
			if _, err := RecomputeTuitionPaid(tx, p.PaymentStudentID); err != nil {
				return err
			}
		}

		out = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeletePayment soft-deletes a ledger row. Deleting a paid tuition row pulls
// its amount back out of the derived balance in the same tx.
func DeletePayment(ctx context.Context, db *gorm.DB, paymentID uuid.UUID) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p model.PaymentModel
		err := forUpdate(tx).
			Where("payment_id = ?", paymentID).
			First(&p).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Paiement introuvable")
		}
		if err != nil {
			return err
		}

		if _, err := lockStudent(tx, p.PaymentStudentID); err != nil {
			return err
		}

		if err := tx.Delete(&p).Error; err != nil {
			return err
		}

		if p.CountsTowardTuitionPaid() {
			if _, err := RecomputeTuitionPaid(tx, p.PaymentStudentID); err != nil {
				return err
			}
		}
		return nil
	})
}

func GetPayment(ctx context.Context, db *gorm.DB, paymentID uuid.UUID) (*model.PaymentModel, error) {
	var p model.PaymentModel
	err := db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fiber.NewError(fiber.StatusNotFound, "Paiement introuvable")
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func FindByTransactionID(ctx context.Context, db *gorm.DB, transactionID string) (*model.PaymentModel, error) {
	var p model.PaymentModel
	err := db.WithContext(ctx).
		Where("payment_transaction_id = ?", transactionID).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fiber.NewError(fiber.StatusNotFound, "Paiement introuvable")
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByStudent returns the student's ledger, newest first, optionally
// filtered by status and/or type.
func ListByStudent(ctx context.Context, db *gorm.DB, studentID uuid.UUID, status, payType string, limit, offset int) ([]model.PaymentModel, int64, error) {
	q := db.WithContext(ctx).Model(&model.PaymentModel{}).
		Where("payment_student_id = ?", studentID)
	if status != "" {
		q = q.Where("payment_status = ?", status)
	}
	if payType != "" {
		q = q.Where("payment_type = ?", payType)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []model.PaymentModel
	err := q.Order("payment_date DESC, payment_created_at DESC").
		Limit(limit).Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
