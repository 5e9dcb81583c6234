package models

import (
	"time"

	"github.com/angelmondragon/ppekeeper-backend/pkg/enums"
)

// Employee is a person PPE gets issued to. ID is the employee number.
type Employee struct {
	ID              string               `gorm:"column:id;primaryKey"`
	Name            string               `gorm:"column:name;not null"`
	Status          enums.EmployeeStatus `gorm:"column:status;type:employee_status_enum;not null"`
	EntryDate       *time.Time           `gorm:"column:entry_date;type:date"`
	Process         *string              `gorm:"column:process"`
	Remarks         *string              `gorm:"column:remarks"`
	ClothesLocker1F *string              `gorm:"column:clothes_locker_1f"`
	ShoesLocker1F   *string              `gorm:"column:shoes_locker_1f"`
	ClothesLocker2F *string              `gorm:"column:clothes_locker_2f"`
	ShoesLocker2F   *string              `gorm:"column:shoes_locker_2f"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
