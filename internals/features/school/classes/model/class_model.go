package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClassModel struct {
	ClassID uuid.UUID `gorm:"column:class_id;type:uuid;primaryKey" json:"class_id"`

	ClassName     string `gorm:"column:class_name;not null" json:"class_name"`
	ClassLevel    string `gorm:"column:class_level;not null" json:"class_level"`
	ClassCapacity int    `gorm:"column:class_capacity;not null;check:class_capacity >= 0" json:"class_capacity"`

	ClassSchedule    *string `gorm:"column:class_schedule" json:"class_schedule,omitempty"`
	ClassRoom        *string `gorm:"column:class_room" json:"class_room,omitempty"`
	ClassTeacherName *string `gorm:"column:class_teacher_name" json:"class_teacher_name,omitempty"`

	ClassSession string `gorm:"column:class_session;not null" json:"class_session"`

	CreatedAt time.Time      `gorm:"column:class_created_at;autoCreateTime" json:"class_created_at"`
	UpdatedAt time.Time      `gorm:"column:class_updated_at;autoUpdateTime" json:"class_updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:class_deleted_at;index" json:"class_deleted_at,omitempty"`
}

func (ClassModel) TableName() string { return "classes" }

func (m *ClassModel) BeforeCreate(tx *gorm.DB) error {
	if m.ClassID == uuid.Nil {
		m.ClassID = uuid.New()
	}
	return nil
}
