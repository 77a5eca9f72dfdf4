package dto

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"schoolreg_backend/internals/features/school/classes/model"
)

/* ===================== REQUESTS ===================== */

type CreateClassRequest struct {
	ClassName     string `json:"class_name" validate:"required,min=1,max=120"`
	ClassLevel    string `json:"class_level" validate:"required,min=1,max=60"`
	ClassCapacity int    `json:"class_capacity" validate:"required,gt=0"`

	ClassSchedule    *string `json:"class_schedule" validate:"omitempty,max=200"`
	ClassRoom        *string `json:"class_room" validate:"omitempty,max=60"`
	ClassTeacherName *string `json:"class_teacher_name" validate:"omitempty,max=120"`
	ClassSession     string  `json:"class_session" validate:"omitempty,max=40"`
}

type UpdateClassRequest struct {
	ClassName     *string `json:"class_name" validate:"omitempty,min=1,max=120"`
	ClassLevel    *string `json:"class_level" validate:"omitempty,min=1,max=60"`
	ClassCapacity *int    `json:"class_capacity" validate:"omitempty,gt=0"`

	ClassSchedule    *string `json:"class_schedule" validate:"omitempty,max=200"`
	ClassRoom        *string `json:"class_room" validate:"omitempty,max=60"`
	ClassTeacherName *string `json:"class_teacher_name" validate:"omitempty,max=120"`
	ClassSession     *string `json:"class_session" validate:"omitempty,max=40"`
}

type EnrollRequest struct {
	EnrollmentStudentID uuid.UUID  `json:"enrollment_student_id" validate:"required"`
	EnrollmentClassID   uuid.UUID  `json:"enrollment_class_id" validate:"required"`
	EnrollmentDate      *time.Time `json:"enrollment_date"`
}

type UpdateEnrollmentRequest struct {
	EnrollmentStatus     *string  `json:"enrollment_status" validate:"omitempty,oneof=active completed dropped failed"`
	EnrollmentGrade      *float64 `json:"enrollment_grade" validate:"omitempty,gte=0,lte=100"`
	EnrollmentAttendance *float64 `json:"enrollment_attendance" validate:"omitempty,gte=0,lte=100"`

	EnrollmentCourseGrades           datatypes.JSONMap `json:"enrollment_course_grades"`
	EnrollmentQuebecReportCard       datatypes.JSONMap `json:"enrollment_quebec_report_card"`
	EnrollmentCompetenciesAssessment datatypes.JSONMap `json:"enrollment_competencies_assessment"`
	EnrollmentAcademicYear           *string           `json:"enrollment_academic_year" validate:"omitempty,max=12"`
	EnrollmentSemester               *string           `json:"enrollment_semester" validate:"omitempty,max=12"`
}

/* ===================== RESPONSES ===================== */

type ClassResponse struct {
	ClassID          uuid.UUID `json:"class_id"`
	ClassName        string    `json:"class_name"`
	ClassLevel       string    `json:"class_level"`
	ClassCapacity    int       `json:"class_capacity"`
	ClassSchedule    *string   `json:"class_schedule,omitempty"`
	ClassRoom        *string   `json:"class_room,omitempty"`
	ClassTeacherName *string   `json:"class_teacher_name,omitempty"`
	ClassSession     string    `json:"class_session"`
	ClassCreatedAt   time.Time `json:"class_created_at"`
}

func ClassFromModel(m *model.ClassModel) ClassResponse {
	return ClassResponse{
		ClassID:          m.ClassID,
		ClassName:        m.ClassName,
		ClassLevel:       m.ClassLevel,
		ClassCapacity:    m.ClassCapacity,
		ClassSchedule:    m.ClassSchedule,
		ClassRoom:        m.ClassRoom,
		ClassTeacherName: m.ClassTeacherName,
		ClassSession:     m.ClassSession,
		ClassCreatedAt:   m.CreatedAt,
	}
}

type EnrollmentResponse struct {
	EnrollmentID        uuid.UUID `json:"enrollment_id"`
	EnrollmentStudentID uuid.UUID `json:"enrollment_student_id"`
	EnrollmentClassID   uuid.UUID `json:"enrollment_class_id"`
	EnrollmentDate      time.Time `json:"enrollment_date"`
	EnrollmentStatus    string    `json:"enrollment_status"`

	EnrollmentGrade      *float64 `json:"enrollment_grade,omitempty"`
	EnrollmentAttendance *float64 `json:"enrollment_attendance,omitempty"`

	EnrollmentAcademicYear *string `json:"enrollment_academic_year,omitempty"`
	EnrollmentSemester     *string `json:"enrollment_semester,omitempty"`

	EnrollmentCreatedAt time.Time `json:"enrollment_created_at"`
}

func EnrollmentFromModel(m *model.EnrollmentModel) EnrollmentResponse {
	return EnrollmentResponse{
		EnrollmentID:           m.EnrollmentID,
		EnrollmentStudentID:    m.EnrollmentStudentID,
		EnrollmentClassID:      m.EnrollmentClassID,
		EnrollmentDate:         m.EnrollmentDate,
		EnrollmentStatus:       m.EnrollmentStatus,
		EnrollmentGrade:        m.EnrollmentGrade,
		EnrollmentAttendance:   m.EnrollmentAttendance,
		EnrollmentAcademicYear: m.EnrollmentAcademicYear,
		EnrollmentSemester:     m.EnrollmentSemester,
		EnrollmentCreatedAt:    m.CreatedAt,
	}
}

func EnrollmentsFromModels(ms []model.EnrollmentModel) []EnrollmentResponse {
	out := make([]EnrollmentResponse, 0, len(ms))
	for i := range ms {
		out = append(out, EnrollmentFromModel(&ms[i]))
	}
	return out
}
