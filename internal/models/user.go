// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a registered account. Username and Email are unique.
type User struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	LastName       string    `gorm:"not null"`
	FirstName      string    `gorm:"not null"`
	Username       string    `gorm:"uniqueIndex;not null"`
	Email          string    `gorm:"uniqueIndex;not null"`
	Password       string    `gorm:"not null" json:"-"`
	ProfilePicture string
	Categories     []string  `gorm:"serializer:json;type:text"`
	Role           Role      `gorm:"type:varchar(16);not null"`
	CreatedDate    time.Time `gorm:"not null"`
}

// BeforeCreate assigns a random id when none was set.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
