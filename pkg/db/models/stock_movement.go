package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/ppekeeper-backend/pkg/enums"
)

// StockMovement records one mutation of a master item's stock counter.
// AppliedDelta differs from RequestedDelta when the zero floor clipped it.
type StockMovement struct {
	ID             uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	MasterItemID   uuid.UUID               `gorm:"column:master_item_id;type:uuid;not null;index"`
	Type           enums.StockMovementType `gorm:"column:type;type:stock_movement_type_enum;not null"`
	RequestedDelta int                     `gorm:"column:requested_delta;not null"`
	AppliedDelta   int                     `gorm:"column:applied_delta;not null"`
	ResultingStock int                     `gorm:"column:resulting_stock;not null"`
	Reference      *string                 `gorm:"column:reference"`
	CreatedAt      time.Time               `gorm:"column:created_at;autoCreateTime"`
}

func (m *StockMovement) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Clipped reports whether the zero floor absorbed part of the request.
func (m StockMovement) Clipped() bool {
	return m.AppliedDelta != m.RequestedDelta
}
