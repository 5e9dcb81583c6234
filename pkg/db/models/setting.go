package models

import "time"

// Setting is a persisted integer configuration value.
type Setting struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Value     int       `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
