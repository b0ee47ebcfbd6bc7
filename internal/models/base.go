package models

import (
	"time"

	"gideon/internal/uuid"

	"gorm.io/gorm"
)

// Base contains the identity and timestamp columns shared by all tables.
// Rows are hard-deleted, so there is no deleted_at column.
type Base struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}
