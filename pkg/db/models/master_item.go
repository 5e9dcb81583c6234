package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MasterItem is a catalog entry (SKU) with an aggregate stock counter.
type MasterItem struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Code              string    `gorm:"column:code;not null;uniqueIndex"`
	Name              string    `gorm:"column:name;not null"`
	CategoryID        uuid.UUID `gorm:"column:category_id;type:uuid;not null;index"`
	Category          *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT"`
	Size              *string   `gorm:"column:size"`
	UnitOfMeasure     *string   `gorm:"column:unit_of_measure"`
	LifespanDays      *int      `gorm:"column:lifespan_days"`
	DefaultRemarks    *string   `gorm:"column:default_remarks"`
	CurrentStock      int       `gorm:"column:current_stock;not null;default:0"`
	LowStockThreshold int       `gorm:"column:low_stock_threshold;not null;default:0"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (m *MasterItem) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// IsLowStock reports whether the counter sits at or below the threshold.
func (m MasterItem) IsLowStock() bool {
	return m.CurrentStock <= m.LowStockThreshold
}
