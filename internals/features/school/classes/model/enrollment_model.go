package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/* ===================== Enums (string) ===================== */
/* Matches the enrollment_status ENUM in PostgreSQL */

const (
	EnrollmentStatusActive    = "active"
	EnrollmentStatusCompleted = "completed"
	EnrollmentStatusDropped   = "dropped"
	EnrollmentStatusFailed    = "failed"
)

// Active is the only non-terminal state: created through Enroll only, left
// through exactly one of the terminal states. Re-enrollment after a terminal
// state is a new row, never a revival.
func IsTerminalEnrollmentStatus(s string) bool {
	switch s {
	case EnrollmentStatusCompleted, EnrollmentStatusDropped, EnrollmentStatusFailed:
		return true
	}
	return false
}

func IsValidEnrollmentStatus(s string) bool {
	return s == EnrollmentStatusActive || IsTerminalEnrollmentStatus(s)
}

/* ===================== Model ===================== */

/*
	enrollments — one row per student×class placement.
	DB-level guard: uq_enrollments_one_active_per_student, a partial unique
	index on enrollment_student_id WHERE enrollment_status = 'active'.
*/

type EnrollmentModel struct {
	EnrollmentID uuid.UUID `gorm:"column:enrollment_id;type:uuid;primaryKey" json:"enrollment_id"`

	EnrollmentStudentID uuid.UUID `gorm:"column:enrollment_student_id;type:uuid;not null;index" json:"enrollment_student_id"`
	EnrollmentClassID   uuid.UUID `gorm:"column:enrollment_class_id;type:uuid;not null;index" json:"enrollment_class_id"`

	EnrollmentDate   time.Time `gorm:"column:enrollment_date;not null" json:"enrollment_date"`
	EnrollmentStatus string    `gorm:"column:enrollment_status;type:enrollment_status;not null;default:'active'" json:"enrollment_status"`

	EnrollmentGrade      *float64 `gorm:"column:enrollment_grade" json:"enrollment_grade,omitempty"`           // final mark (0-100 %)
	EnrollmentAttendance *float64 `gorm:"column:enrollment_attendance" json:"enrollment_attendance,omitempty"` // %

	// Quebec report-card data
	EnrollmentCourseGrades           datatypes.JSONMap `gorm:"column:enrollment_course_grades;type:jsonb" json:"enrollment_course_grades,omitempty"`
	EnrollmentQuebecReportCard       datatypes.JSONMap `gorm:"column:enrollment_quebec_report_card;type:jsonb" json:"enrollment_quebec_report_card,omitempty"`
	EnrollmentCompetenciesAssessment datatypes.JSONMap `gorm:"column:enrollment_competencies_assessment;type:jsonb" json:"enrollment_competencies_assessment,omitempty"`
	EnrollmentAcademicYear           *string           `gorm:"column:enrollment_academic_year" json:"enrollment_academic_year,omitempty"` // ex: "2024-2025"
	EnrollmentSemester               *string           `gorm:"column:enrollment_semester" json:"enrollment_semester,omitempty"`           // étape (1, 2, 3)

	CreatedAt time.Time      `gorm:"column:enrollment_created_at;autoCreateTime" json:"enrollment_created_at"`
	UpdatedAt time.Time      `gorm:"column:enrollment_updated_at;autoUpdateTime" json:"enrollment_updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:enrollment_deleted_at;index" json:"enrollment_deleted_at,omitempty"`
}

func (EnrollmentModel) TableName() string { return "enrollments" }

func (m *EnrollmentModel) BeforeCreate(tx *gorm.DB) error {
	if m.EnrollmentID == uuid.Nil {
		m.EnrollmentID = uuid.New()
	}
	return nil
}

func (m *EnrollmentModel) IsActive() bool {
	return m.EnrollmentStatus == EnrollmentStatusActive
}
