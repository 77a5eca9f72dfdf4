package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/* ===================== Enums (string) ===================== */
/* Matches the student_status ENUM in PostgreSQL */

const (
	StudentStatusPending   = "pending"
	StudentStatusActive    = "active"
	StudentStatusInactive  = "inactive"
	StudentStatusGraduated = "graduated"
	StudentStatusSuspended = "suspended"
)

const (
	GenderMasculin = "Masculin"
	GenderFeminin  = "Feminin"
	GenderAutre    = "Autre"
)

/* ===================== Model ===================== */

type StudentModel struct {
	StudentID uuid.UUID `gorm:"column:student_id;type:uuid;primaryKey" json:"student_id"`

	StudentFirstName   string    `gorm:"column:student_first_name;not null" json:"student_first_name"`
	StudentLastName    string    `gorm:"column:student_last_name;not null" json:"student_last_name"`
	StudentDateOfBirth time.Time `gorm:"column:student_date_of_birth;not null" json:"student_date_of_birth"`
	StudentGender      string    `gorm:"column:student_gender;type:gender;not null" json:"student_gender"`
	StudentAddress     string    `gorm:"column:student_address;not null" json:"student_address"`

	StudentParentName  string `gorm:"column:student_parent_name;not null" json:"student_parent_name"`
	StudentParentPhone string `gorm:"column:student_parent_phone;not null" json:"student_parent_phone"`
	StudentParentEmail string `gorm:"column:student_parent_email;not null;index" json:"student_parent_email"`

	StudentProgram        string `gorm:"column:student_program;not null" json:"student_program"`
	StudentSession        string `gorm:"column:student_session;not null" json:"student_session"`
	StudentSecondaryLevel string `gorm:"column:student_secondary_level;not null" json:"student_secondary_level"`

	StudentStatus string `gorm:"column:student_status;type:student_status;not null;default:'pending'" json:"student_status"`

	// Tuition amounts in cents (CAD). student_tuition_paid_cents is a
	// materialized view of the payment ledger; only the reconciler writes it.
	StudentTuitionAmountCents int64 `gorm:"column:student_tuition_amount_cents;not null;check:student_tuition_amount_cents >= 0" json:"student_tuition_amount_cents"`
	StudentTuitionPaidCents   int64 `gorm:"column:student_tuition_paid_cents;not null;default:0" json:"student_tuition_paid_cents"`

	StudentEnrollmentDate       time.Time  `gorm:"column:student_enrollment_date;not null" json:"student_enrollment_date"`
	StudentSessionStartDate     *time.Time `gorm:"column:student_session_start_date" json:"student_session_start_date,omitempty"`
	StudentRegistrationDeadline *time.Time `gorm:"column:student_registration_deadline" json:"student_registration_deadline,omitempty"`

	// External links (all optional, all unique when present)
	StudentApplicationID *string `gorm:"column:student_application_id;uniqueIndex:uq_students_application_id" json:"student_application_id,omitempty"`
	StudentUserID        *string `gorm:"column:student_user_id;uniqueIndex:uq_students_user_id" json:"student_user_id,omitempty"`

	// Access code for passwordless profile linking (ex: SR2024-ABC123)
	StudentCode *string `gorm:"column:student_code;uniqueIndex:uq_students_code" json:"student_code,omitempty"`

	// Profile (Quebec onboarding forms)
	StudentEmergencyContact datatypes.JSONMap `gorm:"column:student_emergency_contact;type:jsonb" json:"student_emergency_contact,omitempty"`
	StudentMedicalInfo      datatypes.JSONMap `gorm:"column:student_medical_info;type:jsonb" json:"student_medical_info,omitempty"`
	StudentAcademicHistory  datatypes.JSONMap `gorm:"column:student_academic_history;type:jsonb" json:"student_academic_history,omitempty"`
	StudentPreferences      datatypes.JSONMap `gorm:"column:student_preferences;type:jsonb" json:"student_preferences,omitempty"`

	StudentProfilePhoto          *string    `gorm:"column:student_profile_photo" json:"student_profile_photo,omitempty"`
	StudentProfileCompleted      bool       `gorm:"column:student_profile_completed;not null;default:false" json:"student_profile_completed"`
	StudentProfileCompletionDate *time.Time `gorm:"column:student_profile_completion_date" json:"student_profile_completion_date,omitempty"`

	CreatedAt time.Time      `gorm:"column:student_created_at;autoCreateTime" json:"student_created_at"`
	UpdatedAt time.Time      `gorm:"column:student_updated_at;autoUpdateTime" json:"student_updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:student_deleted_at;index" json:"student_deleted_at,omitempty"`
}

func (StudentModel) TableName() string { return "students" }

func (s *StudentModel) BeforeCreate(tx *gorm.DB) error {
	if s.StudentID == uuid.Nil {
		s.StudentID = uuid.New()
	}
	return nil
}

/* ===================== Helpers ===================== */

func (s *StudentModel) FullName() string {
	return s.StudentFirstName + " " + s.StudentLastName
}

func (s *StudentModel) TuitionBalanceCents() int64 {
	rest := s.StudentTuitionAmountCents - s.StudentTuitionPaidCents
	if rest < 0 {
		return 0
	}
	return rest
}
