package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditEntry is an append-only, human readable log line.
type AuditEntry struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OccurredAt    time.Time `gorm:"column:occurred_at;not null;index"`
	OperationType string    `gorm:"column:operation_type;not null"`
	Description   string    `gorm:"column:description;not null"`
}

func (e *AuditEntry) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	return nil
}
