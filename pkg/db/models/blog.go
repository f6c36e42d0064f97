package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Blog is an editorial post shown on the storefront.
type Blog struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Category  string    `gorm:"column:category;not null;default:''"`
	Title     string    `gorm:"column:title;not null"`
	Subtitle  string    `gorm:"column:subtitle;not null;default:''"`
	Content   string    `gorm:"column:content;not null;default:''"`
	Image     string    `gorm:"column:image;not null;default:''"`
	Slug      string    `gorm:"column:slug;not null;uniqueIndex"`
	Date      time.Time `gorm:"column:date;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (b *Blog) BeforeCreate(*gorm.DB) error {
	ensureID(&b.ID)
	return nil
}
