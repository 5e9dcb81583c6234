package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/ppekeeper-backend/pkg/enums"
)

// Assignment links one physical PPE unit to one employee for an active period.
type Assignment struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	EmployeeID   string           `gorm:"column:employee_id;not null;index:idx_assignments_employee_category,priority:1"`
	CategoryID   uuid.UUID        `gorm:"column:category_id;type:uuid;not null;index:idx_assignments_employee_category,priority:2"`
	Category     *Category        `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT"`
	ItemCode     *string          `gorm:"column:item_code;index"`
	IssueDate    time.Time        `gorm:"column:issue_date;type:date;not null"`
	Size         *string          `gorm:"column:size"`
	Condition    *enums.Condition `gorm:"column:condition;type:condition_enum"`
	Active       bool             `gorm:"column:active;not null"`
	Remarks      *string          `gorm:"column:remarks"`
	MasterItemID *uuid.UUID       `gorm:"column:master_item_id;type:uuid"`
	BatchID      *uuid.UUID       `gorm:"column:batch_id;type:uuid"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *Assignment) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// CategoryName resolves the display name of the preloaded category.
func (a Assignment) CategoryName() string {
	if a.Category == nil {
		return ""
	}
	return a.Category.Name
}
