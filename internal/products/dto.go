package products

import (
	"strings"
	"time"

	"github.com/angelmondragon/rugstore-backend/pkg/db/models"
	"github.com/angelmondragon/rugstore-backend/pkg/money"
	"github.com/google/uuid"
)

// ProductDTO is the catalog shape returned to clients. Amounts are rupees.
type ProductDTO struct {
	ID             uuid.UUID   `json:"id"`
	ProductGroup   string      `json:"productGroup"`
	Category       string      `json:"category"`
	Name           string      `json:"name"`
	CompanyName    string      `json:"companyName"`
	Color          string      `json:"color"`
	Shape          string      `json:"shape"`
	Price          float64     `json:"price"`
	OfferPrice     *float64    `json:"offerPrice,omitempty"`
	Warranty       string      `json:"warranty"`
	Type           string      `json:"type"`
	Sizes          []string    `json:"sizes"`
	ProductDetails string      `json:"productDetails"`
	Stock          int         `json:"stock"`
	Image          string      `json:"image"`
	Featured       bool        `json:"featured"`
	Rating         float64     `json:"rating"`
	NumReviews     int         `json:"numReviews"`
	Reviews        []ReviewDTO `json:"reviews"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// ReviewDTO is a single customer review.
type ReviewDTO struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Author    string    `json:"author"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateProductInput is the admin payload for a new product.
type CreateProductInput struct {
	ProductGroup   string   `json:"productGroup" validate:"max=100"`
	Category       string   `json:"category" validate:"max=100"`
	Name           string   `json:"name" validate:"required,max=200"`
	CompanyName    string   `json:"companyName" validate:"max=200"`
	Color          string   `json:"color" validate:"max=60"`
	Shape          string   `json:"shape" validate:"max=60"`
	Price          float64  `json:"price" validate:"gte=0"`
	OfferPrice     *float64 `json:"offerPrice,omitempty" validate:"omitempty,gte=0"`
	Warranty       string   `json:"warranty" validate:"max=200"`
	Type           string   `json:"type" validate:"max=100"`
	Sizes          []string `json:"sizes" validate:"max=50,dive,max=60"`
	ProductDetails string   `json:"productDetails"`
	Stock          int      `json:"stock" validate:"gte=0"`
	Image          string   `json:"image" validate:"max=500"`
	Featured       bool     `json:"featured"`
}

// UpdateProductInput carries optional product changes. ClearOfferPrice or an
// offer price of 0 removes the offer.
type UpdateProductInput struct {
	ProductGroup    *string   `json:"productGroup,omitempty" validate:"omitempty,max=100"`
	Category        *string   `json:"category,omitempty" validate:"omitempty,max=100"`
	Name            *string   `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	CompanyName     *string   `json:"companyName,omitempty" validate:"omitempty,max=200"`
	Color           *string   `json:"color,omitempty" validate:"omitempty,max=60"`
	Shape           *string   `json:"shape,omitempty" validate:"omitempty,max=60"`
	Price           *float64  `json:"price,omitempty" validate:"omitempty,gte=0"`
	OfferPrice      *float64  `json:"offerPrice,omitempty" validate:"omitempty,gte=0"`
	ClearOfferPrice bool      `json:"clearOfferPrice,omitempty"`
	Warranty        *string   `json:"warranty,omitempty" validate:"omitempty,max=200"`
	Type            *string   `json:"type,omitempty" validate:"omitempty,max=100"`
	Sizes           *[]string `json:"sizes,omitempty" validate:"omitempty,max=50,dive,max=60"`
	ProductDetails  *string   `json:"productDetails,omitempty"`
	Stock           *int      `json:"stock,omitempty" validate:"omitempty,gte=0"`
	Image           *string   `json:"image,omitempty" validate:"omitempty,max=500"`
	Featured        *bool     `json:"featured,omitempty"`
}

// ReviewInput is the body of a review submission.
type ReviewInput struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// FilterInput holds the catalog filter query. Thickness overrides Category.
type FilterInput struct {
	ProductGroup string
	Thickness    string
	Category     string
	Size         string
	Color        string
	Shape        string
}

// FromModel converts a product with its preloaded reviews.
func FromModel(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	dto := &ProductDTO{
		ID:             p.ID,
		ProductGroup:   p.ProductGroup,
		Category:       p.Category,
		Name:           p.Name,
		CompanyName:    p.CompanyName,
		Color:          p.Color,
		Shape:          p.Shape,
		Price:          p.PricePaise.Rupees(),
		Warranty:       p.Warranty,
		Type:           p.Type,
		Sizes:          append([]string{}, p.Sizes...),
		ProductDetails: p.ProductDetails,
		Stock:          p.Stock,
		Image:          p.Image,
		Featured:       p.Featured,
		Reviews:        make([]ReviewDTO, 0, len(p.Reviews)),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	if p.OfferPricePaise != nil {
		offer := p.OfferPricePaise.Rupees()
		dto.OfferPrice = &offer
	}
	total := 0
	for _, r := range p.Reviews {
		dto.Reviews = append(dto.Reviews, reviewFromModel(r))
		total += r.Rating
	}
	dto.NumReviews = len(p.Reviews)
	if dto.NumReviews > 0 {
		dto.Rating = float64(total) / float64(dto.NumReviews)
	}
	return dto
}

func fromModels(items []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(items))
	for i := range items {
		out = append(out, *FromModel(&items[i]))
	}
	return out
}

func reviewFromModel(r models.ProductReview) ReviewDTO {
	return ReviewDTO{
		ID:        r.ID,
		UserID:    r.UserID,
		Author:    r.Author,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
}

func (in CreateProductInput) toModel() *models.Product {
	p := &models.Product{
		ProductGroup:   strings.TrimSpace(in.ProductGroup),
		Category:       strings.TrimSpace(in.Category),
		Name:           strings.TrimSpace(in.Name),
		CompanyName:    strings.TrimSpace(in.CompanyName),
		Color:          strings.TrimSpace(in.Color),
		Shape:          strings.TrimSpace(in.Shape),
		PricePaise:     money.FromRupees(in.Price),
		Warranty:       strings.TrimSpace(in.Warranty),
		Type:           strings.TrimSpace(in.Type),
		Sizes:          normalizeSizes(in.Sizes),
		ProductDetails: in.ProductDetails,
		Stock:          in.Stock,
		Image:          strings.TrimSpace(in.Image),
		Featured:       in.Featured,
	}
	if in.OfferPrice != nil {
		if offer := money.FromRupees(*in.OfferPrice); offer > 0 {
			p.OfferPricePaise = &offer
		}
	}
	return p
}

func (in UpdateProductInput) toUpdates() map[string]any {
	updates := map[string]any{}
	setString := func(column string, value *string) {
		if value != nil {
			updates[column] = strings.TrimSpace(*value)
		}
	}
	setString("product_group", in.ProductGroup)
	setString("category", in.Category)
	setString("name", in.Name)
	setString("company_name", in.CompanyName)
	setString("color", in.Color)
	setString("shape", in.Shape)
	setString("warranty", in.Warranty)
	setString("type", in.Type)
	setString("image", in.Image)
	if in.ProductDetails != nil {
		updates["product_details"] = *in.ProductDetails
	}
	if in.Price != nil {
		updates["price_paise"] = money.FromRupees(*in.Price)
	}
	if in.ClearOfferPrice || (in.OfferPrice != nil && money.FromRupees(*in.OfferPrice) <= 0) {
		updates["offer_price_paise"] = nil
	} else if in.OfferPrice != nil {
		updates["offer_price_paise"] = money.FromRupees(*in.OfferPrice)
	}
	if in.Sizes != nil {
		updates["sizes"] = normalizeSizes(*in.Sizes)
	}
	if in.Stock != nil {
		updates["stock"] = *in.Stock
	}
	if in.Featured != nil {
		updates["featured"] = *in.Featured
	}
	return updates
}

func normalizeSizes(sizes []string) []string {
	out := make([]string, 0, len(sizes))
	seen := make(map[string]struct{}, len(sizes))
	for _, s := range sizes {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
