package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"schoolreg_backend/internals/features/school/classes/dto"
	"schoolreg_backend/internals/features/school/classes/model"
	studentModel "schoolreg_backend/internals/features/school/students/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&studentModel.StudentModel{},
		&model.ClassModel{},
		&model.EnrollmentModel{},
	))

	// Same backstop as production: one active enrollment per student.
	require.NoError(t, db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS uq_enrollments_one_active_per_student
		  ON enrollments (enrollment_student_id)
		  WHERE enrollment_status = 'active' AND enrollment_deleted_at IS NULL
	`).Error)

	return db
}

func seedStudent(t *testing.T, db *gorm.DB, first string) *studentModel.StudentModel {
	t.Helper()
	st := &studentModel.StudentModel{
		StudentFirstName:          first,
		StudentLastName:           "Gagnon",
		StudentDateOfBirth:        time.Date(2012, time.January, 15, 0, 0, 0, 0, time.UTC),
		StudentGender:             studentModel.GenderAutre,
		StudentAddress:            "5 avenue du Parc",
		StudentParentName:         "M. Gagnon",
		StudentParentPhone:        "438-555-0101",
		StudentParentEmail:        first + "@example.com",
		StudentProgram:            "Régulier",
		StudentSession:            "Automne 2024",
		StudentSecondaryLevel:     "Secondaire 1",
		StudentTuitionAmountCents: 200000,
		StudentEnrollmentDate:     time.Now(),
	}
	require.NoError(t, db.Create(st).Error)
	return st
}

func seedClass(t *testing.T, db *gorm.DB, name string, capacity int) *model.ClassModel {
	t.Helper()
	c := &model.ClassModel{
		ClassName:     name,
		ClassLevel:    "Secondaire 1",
		ClassCapacity: capacity,
		ClassSession:  "Automne 2024",
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

func TestEnrollHappyPath(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	st := seedStudent(t, db, "alice")
	cl := seedClass(t, db, "1A", 30)

	e, err := Enroll(ctx, db, &dto.EnrollRequest{
		EnrollmentStudentID: st.StudentID,
		EnrollmentClassID:   cl.ClassID,
	})
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentStatusActive, e.EnrollmentStatus)
	require.NotNil(t, e.EnrollmentAcademicYear)

	active, err := ActiveEnrollment(ctx, db, st.StudentID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, e.EnrollmentID, active.EnrollmentID)
}

func TestEnrollSecondActiveRejectedWithClassName(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	st := seedStudent(t, db, "bruno")
	c1 := seedClass(t, db, "1A", 30)
	c2 := seedClass(t, db, "1B", 30)

	_, err := Enroll(ctx, db, &dto.EnrollRequest{
		EnrollmentStudentID: st.StudentID,
		EnrollmentClassID:   c1.ClassID,
	})
	require.NoError(t, err)

	_, err = Enroll(ctx, db, &dto.EnrollRequest{
		EnrollmentStudentID: st.StudentID,
		EnrollmentClassID:   c2.ClassID,
	})
	var fe *fiber.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fiber.StatusConflict, fe.Code)
	assert.Contains(t, fe.Message, "1A", "the conflicting class is named")
}

func TestEnrollAfterTerminalStateCreatesNewRow(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	st := seedStudent(t, db, "carla")
	c1 := seedClass(t, db, "1A", 30)
	c2 := seedClass(t, db, "2A", 30)

	e1, err := Enroll(ctx, db, &dto.EnrollRequest{
		EnrollmentStudentID: st.StudentID,
		EnrollmentClassID:   c1.ClassID,
	})
	require.NoError(t, err)

	completed := model.EnrollmentStatusCompleted
	_, err = UpdateEnrollment(ctx, db, e1.EnrollmentID, &dto.UpdateEnrollmentRequest{
		EnrollmentStatus: &completed,
	})
	require.NoError(t, err)

	e2, err := Enroll(ctx, db, &dto.EnrollRequest{
		EnrollmentStudentID: st.StudentID,
		EnrollmentClassID:   c2.ClassID,
	})
	require.NoError(t, err)
	assert.NotEqual(t, e1.EnrollmentID, e2.EnrollmentID)

	history, err := ListByStudent(ctx, db, st.StudentID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestTerminalEnrollmentCannotChangeStatus(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	st := seedStudent(t, db, "denis")
	cl := seedClass(t, db, "1A", 30)

	e, err := Enroll(ctx, db, &dto.EnrollRequest{
		EnrollmentStudentID: st.StudentID,
		EnrollmentClassID:   cl.ClassID,
	})
	require.NoError(t, err)

	dropped := model.EnrollmentStatusDropped
	_, err = UpdateEnrollment(ctx, db, e.EnrollmentID, &dto.UpdateEnrollmentRequest{
		EnrollmentStatus: &dropped,
	})
	require.NoError(t, err)

	active := model.EnrollmentStatusActive
	_, err = UpdateEnrollment(ctx, db, e.EnrollmentID, &dto.UpdateEnrollmentRequest{
		EnrollmentStatus: &active,
	})
	var fe *fiber.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fiber.StatusConflict, fe.Code)

	// grades still editable on a terminal row
	grade := 87.5
	updated, err := UpdateEnrollment(ctx, db, e.EnrollmentID, &dto.UpdateEnrollmentRequest{
		EnrollmentGrade: &grade,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.EnrollmentGrade)
	assert.Equal(t, 87.5, *updated.EnrollmentGrade)
}

func TestEnrollFullClassRejected(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	cl := seedClass(t, db, "Petite", 1)

	s1 := seedStudent(t, db, "emma")
	s2 := seedStudent(t, db, "felix")

	_, err := Enroll(ctx, db, &dto.EnrollRequest{
		EnrollmentStudentID: s1.StudentID,
		EnrollmentClassID:   cl.ClassID,
	})
	require.NoError(t, err)

	_, err = Enroll(ctx, db, &dto.EnrollRequest{
		EnrollmentStudentID: s2.StudentID,
		EnrollmentClassID:   cl.ClassID,
	})
	var fe *fiber.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fiber.StatusConflict, fe.Code)
	assert.Contains(t, fe.Message, "complète")
}

func TestDeleteClassWithActiveEnrollmentsRefused(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	st := seedStudent(t, db, "gilles")
	cl := seedClass(t, db, "1A", 30)

	_, err := Enroll(ctx, db, &dto.EnrollRequest{
		EnrollmentStudentID: st.StudentID,
		EnrollmentClassID:   cl.ClassID,
	})
	require.NoError(t, err)

	err = DeleteClass(ctx, db, cl.ClassID)
	var fe *fiber.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fiber.StatusConflict, fe.Code)
}
