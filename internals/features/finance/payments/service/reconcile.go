package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	payModel "schoolreg_backend/internals/features/finance/payments/model"
	notifyService "schoolreg_backend/internals/features/home/notifications/service"
	studentModel "schoolreg_backend/internals/features/school/students/model"
)

/* =========================================================
   BALANCE RECONCILER
   students.student_tuition_paid_cents is a materialized view
   of the payment ledger. Every write path that can change the
   set of paid tuition rows must go through RecomputeTuitionPaid
   inside the same transaction, after taking the student lock.
   ========================================================= */

// forUpdate applies SELECT ... FOR UPDATE on PostgreSQL. SQLite serializes
// writers on its own, so the clause is skipped there.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// lockStudent loads the student row under lock; it is the serialization
// point for every ledger mutation touching that student.
func lockStudent(tx *gorm.DB, studentID uuid.UUID) (*studentModel.StudentModel, error) {
	var st studentModel.StudentModel
	err := forUpdate(tx).
		Where("student_id = ?", studentID).
		First(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fiber.NewError(fiber.StatusNotFound, "Étudiant introuvable")
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// RecomputeTuitionPaid rewrites student_tuition_paid_cents from the ledger:
// the sum of live, paid, tuition-type rows. Call it with the student lock
// held; the write lands in the same tx so the view can never drift.
func RecomputeTuitionPaid(tx *gorm.DB, studentID uuid.UUID) (int64, error) {
	var total *int64
	err := tx.Model(&payModel.PaymentModel{}).
		Select("SUM(payment_amount_cents)").
		Where("payment_student_id = ?", studentID).
		Where("payment_type = ?", payModel.PaymentTypeTuition).
		Where("payment_status = ?", payModel.PaymentStatusPaid).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("recompute sum: %w", err)
	}

	var paid int64
	if total != nil {
		paid = *total
	}

	err = tx.Model(&studentModel.StudentModel{}).
		Where("student_id = ?", studentID).
		Update("student_tuition_paid_cents", paid).Error
	if err != nil {
		return 0, fmt.Errorf("recompute write: %w", err)
	}
	return paid, nil
}

// isUniqueViolation covers pq 23505, GORM's translated error and the SQLite
// message used by the test driver.
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

/* =========================================================
   GATEWAY APPLY (idempotent)
   ========================================================= */

// ApplyGatewayPaid settles the payment matching transactionID. At-least-once
// delivery means the same event can arrive from both the confirm endpoint and
// the webhook, in any order: an already-paid row is a no-op, so the two paths
// commute. Returns the payment and whether this call changed anything.
func ApplyGatewayPaid(ctx context.Context, db *gorm.DB, transactionID string, paidAt time.Time) (*payModel.PaymentModel, bool, error) {
	var out *payModel.PaymentModel
	applied := false

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p payModel.PaymentModel
		err := forUpdate(tx).
			Where("payment_transaction_id = ?", transactionID).
			First(&p).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return gorm.ErrRecordNotFound
		}
		if err != nil {
			return err
		}

		if p.PaymentStatus == payModel.PaymentStatusPaid {
			out = &p
			return nil // duplicate delivery
		}
		if err := payModel.CheckTransition(p.PaymentStatus, payModel.PaymentStatusPaid); err != nil {
			return err
		}

		// Lock order: payment row first, then student.
		if _, err := lockStudent(tx, p.PaymentStudentID); err != nil {
			return err
		}

		now := paidAt
		updates := map[string]interface{}{
			"payment_status":  payModel.PaymentStatusPaid,
			"payment_paid_at": &now,
		}
		if err := tx.Model(&payModel.PaymentModel{}).
			Where("payment_id = ?", p.PaymentID).
			Updates(updates).Error; err != nil {
			return err
		}
		p.PaymentStatus = payModel.PaymentStatusPaid
		p.PaymentPaidAt = &now

		if p.IsTuition() {
			if _, err := RecomputeTuitionPaid(tx, p.PaymentStudentID); err != nil {
				return err
			}
		}

		out = &p
		applied = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if applied {
		notifyService.PaymentReceived(out.PaymentStudentID.String(),
			out.PaymentAmountCents, out.PaymentMethod)
	}
	return out, applied, nil
}

/* =========================================================
   REPAIR & AUDIT
   ========================================================= */

// RepairStudentBalance force-recomputes a single student's paid total under
// lock. The admin escape hatch when an operator suspects drift.
func RepairStudentBalance(ctx context.Context, db *gorm.DB, studentID uuid.UUID) (int64, error) {
	var paid int64
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockStudent(tx, studentID); err != nil {
			return err
		}
		var err error
		paid, err = RecomputeTuitionPaid(tx, studentID)
		return err
	})
	return paid, err
}

type BalanceDrift struct {
	StudentID   uuid.UUID `json:"student_id"`
	StudentName string    `json:"student_name"`
	StoredCents int64     `json:"stored_cents"`
	LedgerCents int64     `json:"ledger_cents"`
	DriftCents  int64     `json:"drift_cents"`
}

type BalanceAuditReport struct {
	StudentsChecked int            `json:"students_checked"`
	Drifted         []BalanceDrift `json:"drifted"`
	Repaired        int            `json:"repaired"`
}

// AuditBalances compares every live student's stored paid total against the
// ledger. With repair=true each drifted row is fixed under its own lock.
func AuditBalances(ctx context.Context, db *gorm.DB, repair bool) (BalanceAuditReport, error) {
	var report BalanceAuditReport

	var students []studentModel.StudentModel
	if err := db.WithContext(ctx).Find(&students).Error; err != nil {
		return report, fmt.Errorf("audit scan: %w", err)
	}
	report.StudentsChecked = len(students)

	for i := range students {
		st := &students[i]

		var total *int64
		err := db.WithContext(ctx).Model(&payModel.PaymentModel{}).
			Select("SUM(payment_amount_cents)").
			Where("payment_student_id = ?", st.StudentID).
			Where("payment_type = ?", payModel.PaymentTypeTuition).
			Where("payment_status = ?", payModel.PaymentStatusPaid).
			Scan(&total).Error
		if err != nil {
			return report, fmt.Errorf("audit sum %s: %w", st.StudentID, err)
		}
		var ledger int64
		if total != nil {
			ledger = *total
		}

		if ledger == st.StudentTuitionPaidCents {
			continue
		}
		report.Drifted = append(report.Drifted, BalanceDrift{
			StudentID:   st.StudentID,
			StudentName: st.FullName(),
			StoredCents: st.StudentTuitionPaidCents,
			LedgerCents: ledger,
			DriftCents:  ledger - st.StudentTuitionPaidCents,
		})

		if repair {
			if _, err := RepairStudentBalance(ctx, db, st.StudentID); err != nil {
				return report, err
			}
			report.Repaired++
		}
	}

	if len(report.Drifted) > 0 {
		log.Printf("[RECONCILER] audit: %d/%d students drifted (repaired=%d)",
			len(report.Drifted), report.StudentsChecked, report.Repaired)
	}
	return report, nil
}
