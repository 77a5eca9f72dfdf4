package service

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	payModel "schoolreg_backend/internals/features/finance/payments/model"
	classDto "schoolreg_backend/internals/features/school/classes/dto"
	classModel "schoolreg_backend/internals/features/school/classes/model"
	classService "schoolreg_backend/internals/features/school/classes/service"
	"schoolreg_backend/internals/features/school/students/dto"
	"schoolreg_backend/internals/features/school/students/model"
)

/* =========================================================
   STUDENT AGGREGATE VIEW
   One response joining the student row, the ledger broken
   down per payment type and the enrollment picture.
   ========================================================= */

func BuildStudentView(ctx context.Context, db *gorm.DB, studentID uuid.UUID) (*dto.StudentView, error) {
	st, err := GetStudent(ctx, db, studentID)
	if err != nil {
		return nil, err
	}

	var payments []payModel.PaymentModel
	if err := db.WithContext(ctx).
		Where("payment_student_id = ?", studentID).
		Find(&payments).Error; err != nil {
		return nil, err
	}

	byType := map[string]dto.PaymentTypeBreakdown{}
	var totalPaid int64
	for i := range payments {
		p := &payments[i]
		b := byType[p.PaymentType]
		b.Count++
		switch p.PaymentStatus {
		case payModel.PaymentStatusPaid:
			b.PaidCents += p.PaymentAmountCents
			totalPaid += p.PaymentAmountCents
		case payModel.PaymentStatusPending:
			b.PendingCents += p.PaymentAmountCents
		}
		byType[p.PaymentType] = b
	}

	view := &dto.StudentView{
		Student:        dto.FromModel(st),
		PaymentsByType: byType,
		TotalPaidCents: totalPaid,
	}

	if active, err := classService.ActiveEnrollment(ctx, db, studentID); err == nil && active != nil {
		resp := classDto.EnrollmentFromModel(active)
		view.ActiveEnrollment = resp
	}
	if history, err := classService.ListByStudent(ctx, db, studentID); err == nil && len(history) > 0 {
		view.EnrollmentHistory = classDto.EnrollmentsFromModels(history)
	}

	return view, nil
}

/* ===================== DASHBOARD ===================== */

func BuildDashboardStats(ctx context.Context, db *gorm.DB) (dto.DashboardStats, error) {
	var stats dto.DashboardStats

	base := func() *gorm.DB { return db.WithContext(ctx).Model(&model.StudentModel{}) }

	if err := base().Count(&stats.TotalStudents).Error; err != nil {
		return stats, err
	}
	if err := base().Where("student_status = ?", model.StudentStatusActive).
		Count(&stats.ActiveStudents).Error; err != nil {
		return stats, err
	}
	if err := base().Where("student_status = ?", model.StudentStatusPending).
		Count(&stats.PendingStudents).Error; err != nil {
		return stats, err
	}

	var sums struct {
		Expected *int64
		Paid     *int64
	}
	if err := base().
		Select("SUM(student_tuition_amount_cents) AS expected, SUM(student_tuition_paid_cents) AS paid").
		Scan(&sums).Error; err != nil {
		return stats, err
	}
	if sums.Expected != nil {
		stats.TuitionExpectedCents = *sums.Expected
	}
	if sums.Paid != nil {
		stats.TuitionPaidCents = *sums.Paid
	}

	if err := base().
		Where("student_tuition_paid_cents >= student_tuition_amount_cents").
		Count(&stats.StudentsFullyPaid).Error; err != nil {
		return stats, err
	}

	if err := db.WithContext(ctx).Model(&classModel.ClassModel{}).
		Count(&stats.TotalClasses).Error; err != nil {
		return stats, err
	}

	var pending *int64
	if err := db.WithContext(ctx).Model(&payModel.PaymentModel{}).
		Select("SUM(payment_amount_cents)").
		Where("payment_status = ?", payModel.PaymentStatusPending).
		Scan(&pending).Error; err != nil {
		return stats, err
	}
	if pending != nil {
		stats.PendingPaymentCents = *pending
	}

	return stats, nil
}
