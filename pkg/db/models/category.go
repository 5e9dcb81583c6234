package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/ppekeeper-backend/pkg/enums"
)

// Category is a class of equipment such as suits, hats, or safety shoes.
type Category struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Name        string             `gorm:"column:name;not null;uniqueIndex"`
	Remarks     *string            `gorm:"column:remarks"`
	Kind        enums.CategoryKind `gorm:"column:kind;type:category_kind_enum;not null"`
	CapacityKey *string            `gorm:"column:capacity_key"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
