package gormstore

import (
	"time"

	"gorm.io/datatypes"
)

// LocalStorageItem mirrors the local_storage table.
type LocalStorageItem struct {
	Key       string         `gorm:"column:item_key;primaryKey;size:255"`
	Value     datatypes.JSON `gorm:"column:item_value;not null"`
	UpdatedAt time.Time      `gorm:"not null"`
}

func (LocalStorageItem) TableName() string { return "local_storage" }
