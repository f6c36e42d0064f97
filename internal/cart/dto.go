package cart

import (
	"github.com/angelmondragon/rugstore-backend/internal/products"
	"github.com/angelmondragon/rugstore-backend/pkg/db/models"
	"github.com/angelmondragon/rugstore-backend/pkg/money"
	"github.com/google/uuid"
)

// AddLineRequest is the body of POST /api/cart/add.
type AddLineRequest struct {
	ProductID    uuid.UUID `json:"productId" validate:"required"`
	Quantity     *int      `json:"quantity,omitempty" validate:"omitempty,min=1,max=1000"`
	SelectedSize *string   `json:"selectedSize,omitempty" validate:"omitempty,max=60"`
}

// SetQuantityRequest is the body of POST /api/cart/update.
type SetQuantityRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1,max=1000"`
}

// CartDTO is the populated cart. ID is omitted when the user has no cart yet.
type CartDTO struct {
	ID         *uuid.UUID `json:"id,omitempty"`
	UserID     *uuid.UUID `json:"userId,omitempty"`
	Items      []LineDTO  `json:"items"`
	TotalItems int        `json:"totalItems"`
	Subtotal   float64    `json:"subtotal"`
}

// LineDTO is one cart line with its product.
type LineDTO struct {
	ID           uuid.UUID            `json:"id"`
	ProductID    uuid.UUID            `json:"productId"`
	Product      *products.ProductDTO `json:"product,omitempty"`
	Quantity     int                  `json:"quantity"`
	SelectedSize *string              `json:"selectedSize"`
	UnitPrice    float64              `json:"unitPrice"`
}

func emptyCart() *CartDTO {
	return &CartDTO{Items: []LineDTO{}}
}

// FromModel converts a cart with preloaded lines and products.
func FromModel(c *models.Cart) *CartDTO {
	if c == nil {
		return emptyCart()
	}
	id, userID := c.ID, c.UserID
	dto := &CartDTO{ID: &id, UserID: &userID, Items: make([]LineDTO, 0, len(c.Lines))}
	var subtotal money.Paise
	for _, line := range c.Lines {
		item := LineDTO{
			ID:           line.ID,
			ProductID:    line.ProductID,
			Quantity:     line.Quantity,
			SelectedSize: line.Size,
		}
		if line.Product != nil {
			item.Product = products.FromModel(line.Product)
			unit := line.Product.UnitPrice()
			item.UnitPrice = unit.Rupees()
			subtotal += unit.Mul(line.Quantity)
		}
		dto.TotalItems += line.Quantity
		dto.Items = append(dto.Items, item)
	}
	dto.Subtotal = subtotal.Rupees()
	return dto
}
