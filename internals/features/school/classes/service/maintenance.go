package service

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"schoolreg_backend/internals/features/school/classes/model"
)

/* =========================================================
   DUPLICATE-ACTIVE SWEEP
   Historical data (bulk imports, races predating the partial
   unique index) can hold several active rows per student. Keep
   the most recent by enrollment_date then created_at, mark the
   rest dropped. Idempotent: a clean table is a no-op.
   ========================================================= */

type CleanupReport struct {
	DuplicatesBefore int `json:"duplicates_before"`
	Cleaned          int `json:"cleaned"`
	DuplicatesAfter  int `json:"duplicates_after"`
}

func CleanupDuplicateActiveEnrollments(ctx context.Context, db *gorm.DB) (CleanupReport, error) {
	var report CleanupReport

	dupStudents, err := studentsWithDuplicateActive(ctx, db)
	if err != nil {
		return report, err
	}
	report.DuplicatesBefore = len(dupStudents)
	if len(dupStudents) == 0 {
		return report, nil
	}

	for _, studentID := range dupStudents {
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var rows []model.EnrollmentModel
			if err := forUpdate(tx).
				Where("enrollment_student_id = ?", studentID).
				Where("enrollment_status = ?", model.EnrollmentStatusActive).
				Order("enrollment_date DESC, enrollment_created_at DESC").
				Find(&rows).Error; err != nil {
				return err
			}
			if len(rows) <= 1 {
				return nil // someone else cleaned it meanwhile
			}

			// rows[0] is the keeper
			for i := 1; i < len(rows); i++ {
				if err := tx.Model(&model.EnrollmentModel{}).
					Where("enrollment_id = ?", rows[i].EnrollmentID).
					Update("enrollment_status", model.EnrollmentStatusDropped).Error; err != nil {
					return err
				}
				report.Cleaned++
			}
			return nil
		})
		if err != nil {
			return report, fmt.Errorf("cleanup student %s: %w", studentID, err)
		}
	}

	after, err := studentsWithDuplicateActive(ctx, db)
	if err != nil {
		return report, err
	}
	report.DuplicatesAfter = len(after)

	log.Printf("[ENROLLMENTS] duplicate sweep: before=%d cleaned=%d after=%d",
		report.DuplicatesBefore, report.Cleaned, report.DuplicatesAfter)
	return report, nil
}

func studentsWithDuplicateActive(ctx context.Context, db *gorm.DB) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := db.WithContext(ctx).Model(&model.EnrollmentModel{}).
		Where("enrollment_status = ?", model.EnrollmentStatusActive).
		Group("enrollment_student_id").
		Having("COUNT(*) > 1").
		Pluck("enrollment_student_id", &ids).Error
	return ids, err
}

/* =========================================================
   STATS
   ========================================================= */

type EnrollmentStats struct {
	TotalEnrollments    int64            `json:"total_enrollments"`
	ActiveEnrollments   int64            `json:"active_enrollments"`
	ByStatus            map[string]int64 `json:"by_status"`
	StudentsWithActive  int64            `json:"students_with_active"`
	DuplicateActiveSets int64            `json:"duplicate_active_sets"`
}

func EnrollmentStatistics(ctx context.Context, db *gorm.DB) (EnrollmentStats, error) {
	stats := EnrollmentStats{ByStatus: map[string]int64{}}

	var perStatus []struct {
		EnrollmentStatus string
		N                int64
	}
	if err := db.WithContext(ctx).Model(&model.EnrollmentModel{}).
		Select("enrollment_status, COUNT(*) AS n").
		Group("enrollment_status").
		Scan(&perStatus).Error; err != nil {
		return stats, err
	}
	for _, row := range perStatus {
		stats.ByStatus[row.EnrollmentStatus] = row.N
		stats.TotalEnrollments += row.N
	}
	stats.ActiveEnrollments = stats.ByStatus[model.EnrollmentStatusActive]
	if err := db.WithContext(ctx).Model(&model.EnrollmentModel{}).
		Where("enrollment_status = ?", model.EnrollmentStatusActive).
		Distinct("enrollment_student_id").
		Count(&stats.StudentsWithActive).Error; err != nil {
		return stats, err
	}

	dups, err := studentsWithDuplicateActive(ctx, db)
	if err != nil {
		return stats, err
	}
	stats.DuplicateActiveSets = int64(len(dups))
	return stats, nil
}
