package dto

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"schoolreg_backend/internals/features/school/students/model"
)

/* ===================== REQUESTS ===================== */

type CreateStudentRequest struct {
	StudentFirstName   string    `json:"student_first_name" validate:"required,min=1,max=120"`
	StudentLastName    string    `json:"student_last_name" validate:"required,min=1,max=120"`
	StudentDateOfBirth time.Time `json:"student_date_of_birth" validate:"required"`
	StudentGender      string    `json:"student_gender" validate:"required,oneof=Masculin Feminin Autre"`
	StudentAddress     string    `json:"student_address" validate:"required,max=300"`

	StudentParentName  string `json:"student_parent_name" validate:"required,max=200"`
	StudentParentPhone string `json:"student_parent_phone" validate:"required,max=30"`
	StudentParentEmail string `json:"student_parent_email" validate:"required,email"`

	StudentProgram        string `json:"student_program" validate:"required,max=120"`
	StudentSecondaryLevel string `json:"student_secondary_level" validate:"required,max=40"`

	StudentTuitionAmountCents int64 `json:"student_tuition_amount_cents" validate:"required,gte=0"`

	StudentApplicationID *string `json:"student_application_id" validate:"omitempty,max=64"`
	StudentUserID        *string `json:"student_user_id" validate:"omitempty,max=64"`

	StudentSessionStartDate     *time.Time `json:"student_session_start_date"`
	StudentRegistrationDeadline *time.Time `json:"student_registration_deadline"`
}

type UpdateStudentRequest struct {
	StudentFirstName *string `json:"student_first_name" validate:"omitempty,min=1,max=120"`
	StudentLastName  *string `json:"student_last_name" validate:"omitempty,min=1,max=120"`
	StudentAddress   *string `json:"student_address" validate:"omitempty,max=300"`

	StudentParentName  *string `json:"student_parent_name" validate:"omitempty,max=200"`
	StudentParentPhone *string `json:"student_parent_phone" validate:"omitempty,max=30"`
	StudentParentEmail *string `json:"student_parent_email" validate:"omitempty,email"`

	StudentProgram        *string `json:"student_program" validate:"omitempty,max=120"`
	StudentSecondaryLevel *string `json:"student_secondary_level" validate:"omitempty,max=40"`
	StudentStatus         *string `json:"student_status" validate:"omitempty,oneof=pending active inactive graduated suspended"`

	StudentTuitionAmountCents *int64 `json:"student_tuition_amount_cents" validate:"omitempty,gte=0"`

	StudentSessionStartDate     *time.Time `json:"student_session_start_date"`
	StudentRegistrationDeadline *time.Time `json:"student_registration_deadline"`
}

type CompleteProfileRequest struct {
	StudentEmergencyContact datatypes.JSONMap `json:"student_emergency_contact"`
	StudentMedicalInfo      datatypes.JSONMap `json:"student_medical_info"`
	StudentAcademicHistory  datatypes.JSONMap `json:"student_academic_history"`
	StudentPreferences      datatypes.JSONMap `json:"student_preferences"`
}

type LinkByCodeRequest struct {
	StudentCode string `json:"student_code" validate:"required,min=6,max=20"`
}

// LinkCandidate: what a search-for-link may reveal before the code is typed.
type LinkCandidate struct {
	StudentID        uuid.UUID `json:"student_id"`
	StudentFirstName string    `json:"student_first_name"`
	StudentLastName  string    `json:"student_last_name"`
	StudentProgram   string    `json:"student_program"`
	StudentSession   string    `json:"student_session"`
}

func LinkCandidateFromModel(m *model.StudentModel) LinkCandidate {
	return LinkCandidate{
		StudentID:        m.StudentID,
		StudentFirstName: m.StudentFirstName,
		StudentLastName:  m.StudentLastName,
		StudentProgram:   m.StudentProgram,
		StudentSession:   m.StudentSession,
	}
}

/* ===================== RESPONSES ===================== */

type StudentResponse struct {
	StudentID uuid.UUID `json:"student_id"`

	StudentFirstName   string    `json:"student_first_name"`
	StudentLastName    string    `json:"student_last_name"`
	StudentDateOfBirth time.Time `json:"student_date_of_birth"`
	StudentGender      string    `json:"student_gender"`
	StudentAddress     string    `json:"student_address"`

	StudentParentName  string `json:"student_parent_name"`
	StudentParentPhone string `json:"student_parent_phone"`
	StudentParentEmail string `json:"student_parent_email"`

	StudentProgram        string `json:"student_program"`
	StudentSession        string `json:"student_session"`
	StudentSecondaryLevel string `json:"student_secondary_level"`
	StudentStatus         string `json:"student_status"`

	StudentTuitionAmountCents int64 `json:"student_tuition_amount_cents"`
	StudentTuitionPaidCents   int64 `json:"student_tuition_paid_cents"`
	StudentBalanceCents       int64 `json:"student_balance_cents"`

	StudentEnrollmentDate       time.Time  `json:"student_enrollment_date"`
	StudentSessionStartDate     *time.Time `json:"student_session_start_date,omitempty"`
	StudentRegistrationDeadline *time.Time `json:"student_registration_deadline,omitempty"`

	StudentCode          *string `json:"student_code,omitempty"`
	StudentApplicationID *string `json:"student_application_id,omitempty"`
	StudentUserID        *string `json:"student_user_id,omitempty"`

	StudentProfilePhoto     *string `json:"student_profile_photo,omitempty"`
	StudentProfileCompleted bool    `json:"student_profile_completed"`

	StudentCreatedAt time.Time `json:"student_created_at"`
}

func FromModel(m *model.StudentModel) StudentResponse {
	return StudentResponse{
		StudentID:                   m.StudentID,
		StudentFirstName:            m.StudentFirstName,
		StudentLastName:             m.StudentLastName,
		StudentDateOfBirth:          m.StudentDateOfBirth,
		StudentGender:               m.StudentGender,
		StudentAddress:              m.StudentAddress,
		StudentParentName:           m.StudentParentName,
		StudentParentPhone:          m.StudentParentPhone,
		StudentParentEmail:          m.StudentParentEmail,
		StudentProgram:              m.StudentProgram,
		StudentSession:              m.StudentSession,
		StudentSecondaryLevel:       m.StudentSecondaryLevel,
		StudentStatus:               m.StudentStatus,
		StudentTuitionAmountCents:   m.StudentTuitionAmountCents,
		StudentTuitionPaidCents:     m.StudentTuitionPaidCents,
		StudentBalanceCents:         m.TuitionBalanceCents(),
		StudentEnrollmentDate:       m.StudentEnrollmentDate,
		StudentSessionStartDate:     m.StudentSessionStartDate,
		StudentRegistrationDeadline: m.StudentRegistrationDeadline,
		StudentCode:                 m.StudentCode,
		StudentApplicationID:        m.StudentApplicationID,
		StudentUserID:               m.StudentUserID,
		StudentProfilePhoto:         m.StudentProfilePhoto,
		StudentProfileCompleted:     m.StudentProfileCompleted,
		StudentCreatedAt:            m.CreatedAt,
	}
}

func FromModels(ms []model.StudentModel) []StudentResponse {
	out := make([]StudentResponse, 0, len(ms))
	for i := range ms {
		out = append(out, FromModel(&ms[i]))
	}
	return out
}

/* ===================== AGGREGATE VIEW ===================== */

// PaymentTypeBreakdown: totals per payment type, paid vs pending.
type PaymentTypeBreakdown struct {
	PaidCents    int64 `json:"paid_cents"`
	PendingCents int64 `json:"pending_cents"`
	Count        int   `json:"count"`
}

type StudentView struct {
	Student StudentResponse `json:"student"`

	PaymentsByType map[string]PaymentTypeBreakdown `json:"payments_by_type"`
	TotalPaidCents int64                           `json:"total_paid_cents"`

	ActiveEnrollment  interface{} `json:"active_enrollment,omitempty"`
	EnrollmentHistory interface{} `json:"enrollment_history,omitempty"`
}

type DashboardStats struct {
	TotalStudents        int64 `json:"total_students"`
	ActiveStudents       int64 `json:"active_students"`
	PendingStudents      int64 `json:"pending_students"`
	TotalClasses         int64 `json:"total_classes"`
	TuitionExpectedCents int64 `json:"tuition_expected_cents"`
	TuitionPaidCents     int64 `json:"tuition_paid_cents"`
	PendingPaymentCents  int64 `json:"pending_payment_cents"`
	StudentsFullyPaid    int64 `json:"students_fully_paid"`
}
