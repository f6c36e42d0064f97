package enquiries

import (
	"time"

	"github.com/angelmondragon/rugstore-backend/pkg/db/models"
	"github.com/google/uuid"
)

// CreateEnquiryInput is the public contact-form payload.
type CreateEnquiryInput struct {
	Name    string `json:"name" validate:"required,max=120"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"omitempty,max=20,phone"`
	Comment string `json:"comment" validate:"max=2000"`
}

type EnquiryDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

func fromModel(e models.Enquiry) EnquiryDTO {
	return EnquiryDTO{
		ID:        e.ID,
		Name:      e.Name,
		Email:     e.Email,
		Phone:     e.Phone,
		Comment:   e.Comment,
		CreatedAt: e.CreatedAt,
	}
}
