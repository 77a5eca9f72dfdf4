package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
)

/* =========================================================
   SESSION CLASSIFIER
   Quebec trimester labels derived from a calendar date:
     sept–déc  → Automne
     janv–avr  → Hiver
     mai–août  → Été
   ========================================================= */

const (
	SeasonAutomne = "Automne"
	SeasonHiver   = "Hiver"
	SeasonEte     = "Été"
)

// SessionLabel returns the trimester label for t, e.g. "Automne 2024".
// The year is always t's calendar year (an Hiver 2025 session belongs to
// the 2024-2025 academic year but is labelled 2025).
func SessionLabel(t time.Time) string {
	return fmt.Sprintf("%s %d", seasonOf(t.Month()), t.Year())
}

// CurrentSessionLabel is SessionLabel(now) in the school's timezone.
func CurrentSessionLabel() string {
	loc, err := time.LoadLocation("America/Montreal")
	if err != nil {
		loc = time.UTC
	}
	return SessionLabel(time.Now().In(loc))
}

func seasonOf(m time.Month) string {
	switch {
	case m >= time.September:
		return SeasonAutomne
	case m <= time.April:
		return SeasonHiver
	default:
		return SeasonEte
	}
}

// AcademicYear returns the "2024-2025" style label containing t. The school
// year rolls over in September.
func AcademicYear(t time.Time) string {
	y := t.Year()
	if t.Month() >= time.September {
		return fmt.Sprintf("%d-%d", y, y+1)
	}
	return fmt.Sprintf("%d-%d", y-1, y)
}

/* =========================================================
   RETROACTIVE RELABEL
   Rows created before the classifier existed (or through bulk
   imports) may carry a stale payment_session. Recompute every
   label from payment_date and rewrite only the mismatches.
   ========================================================= */

type RelabelReport struct {
	Scanned int `json:"scanned"`
	Updated int `json:"updated"`
}

// RelabelPayments recomputes payment_session for every live payment row.
// Raw SQL on the payments table keeps this package free of a dependency on
// the finance feature.
func RelabelPayments(ctx context.Context, db *gorm.DB) (RelabelReport, error) {
	var report RelabelReport

	type row struct {
		PaymentID      string
		PaymentSession string
		PaymentDate    time.Time
	}

	var rows []row
	if err := db.WithContext(ctx).
		Table("payments").
		Select("payment_id", "payment_session", "payment_date").
		Where("payment_deleted_at IS NULL").
		Find(&rows).Error; err != nil {
		return report, fmt.Errorf("relabel scan: %w", err)
	}
	report.Scanned = len(rows)

	for _, r := range rows {
		want := SessionLabel(r.PaymentDate)
		if want == r.PaymentSession {
			continue
		}
		res := db.WithContext(ctx).
			Table("payments").
			Where("payment_id = ?", r.PaymentID).
			Update("payment_session", want)
		if res.Error != nil {
			return report, fmt.Errorf("relabel update %s: %w", r.PaymentID, res.Error)
		}
		report.Updated += int(res.RowsAffected)
	}

	if report.Updated > 0 {
		log.Printf("[SESSIONS] relabelled %d/%d payments", report.Updated, report.Scanned)
	}
	return report, nil
}
