package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment belongs to exactly one article for its whole life.
type Comment struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Content     string     `gorm:"type:text;not null"`
	DateCreated time.Time  `gorm:"not null;index"`
	DateEdited  time.Time  `gorm:"not null"`
	ArticleID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	Article     *Article   `gorm:"foreignKey:ArticleID"`
	AuthorID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	Author      *User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	EditorID    *uuid.UUID `gorm:"type:uuid;index"`
	Editor      *User      `gorm:"foreignKey:EditorID;constraint:OnDelete:SET NULL"`
}

// BeforeCreate assigns a random id when none was set.
func (c *Comment) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
