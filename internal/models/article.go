package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Article is a blog post. Author is set once at creation; Editor follows
// every mutation except media uploads.
type Article struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title       string    `gorm:"not null"`
	Content     string    `gorm:"type:text;not null"`
	Summary     string    `gorm:"type:varchar(500)"`
	CreatedDate time.Time `gorm:"not null;index"`
	UpdatedDate time.Time `gorm:"not null"`
	ImageURL    string
	MediaURLs   []string `gorm:"serializer:json;type:text"`
	CropX       *float64
	CropY       *float64
	CropWidth   *float64
	CropHeight  *float64
	CropScale   *float64
	Category    *string    `gorm:"index"`
	AuthorID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	Author      *User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	EditorID    *uuid.UUID `gorm:"type:uuid;index"`
	Editor      *User      `gorm:"foreignKey:EditorID;constraint:OnDelete:SET NULL"`
	Comments    []Comment  `gorm:"foreignKey:ArticleID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate assigns a random id when none was set.
func (a *Article) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// CropMeta describes a normalized display crop over an article image.
// Values are expected in [0,1] but are stored as given.
type CropMeta struct {
	X      *float64
	Y      *float64
	Width  *float64
	Height *float64
	Scale  *float64
}

// ApplyCrop overwrites all five crop fields, clearing absent ones.
func (a *Article) ApplyCrop(meta CropMeta) {
	a.CropX = meta.X
	a.CropY = meta.Y
	a.CropWidth = meta.Width
	a.CropHeight = meta.Height
	a.CropScale = meta.Scale
}
