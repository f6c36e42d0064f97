package blogs

import (
	"time"

	"github.com/angelmondragon/rugstore-backend/pkg/db/models"
	"github.com/google/uuid"
)

// CreateBlogInput is the admin payload for a new post. Date accepts
// YYYY-MM-DD or RFC3339 and defaults to now.
type CreateBlogInput struct {
	Category string  `json:"category" validate:"max=100"`
	Title    string  `json:"title" validate:"required,max=200"`
	Subtitle string  `json:"subtitle" validate:"max=300"`
	Content  string  `json:"content"`
	Image    string  `json:"image" validate:"max=500"`
	Date     *string `json:"date,omitempty"`
}

// UpdateBlogInput carries optional changes; a new title regenerates the slug.
type UpdateBlogInput struct {
	Category *string `json:"category,omitempty" validate:"omitempty,max=100"`
	Title    *string `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Subtitle *string `json:"subtitle,omitempty" validate:"omitempty,max=300"`
	Content  *string `json:"content,omitempty"`
	Image    *string `json:"image,omitempty" validate:"omitempty,max=500"`
	Date     *string `json:"date,omitempty"`
}

type BlogDTO struct {
	ID        uuid.UUID `json:"id"`
	Category  string    `json:"category"`
	Title     string    `json:"title"`
	Subtitle  string    `json:"subtitle"`
	Content   string    `json:"content"`
	Image     string    `json:"image"`
	Slug      string    `json:"slug"`
	Date      time.Time `json:"date"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func fromModel(b models.Blog) BlogDTO {
	return BlogDTO{
		ID:        b.ID,
		Category:  b.Category,
		Title:     b.Title,
		Subtitle:  b.Subtitle,
		Content:   b.Content,
		Image:     b.Image,
		Slug:      b.Slug,
		Date:      b.Date,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}
