package models

import (
	"time"

	"github.com/angelmondragon/rugstore-backend/pkg/money"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Product is a catalog rug. Stock is only mutated by order placement.
type Product struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ProductGroup    string          `gorm:"column:product_group;not null;default:''"`
	Category        string          `gorm:"column:category;not null;default:''"`
	Name            string          `gorm:"column:name;not null"`
	CompanyName     string          `gorm:"column:company_name;not null;default:''"`
	Color           string          `gorm:"column:color;not null;default:''"`
	Shape           string          `gorm:"column:shape;not null;default:''"`
	PricePaise      money.Paise     `gorm:"column:price_paise;not null"`
	OfferPricePaise *money.Paise    `gorm:"column:offer_price_paise"`
	Warranty        string          `gorm:"column:warranty;not null;default:''"`
	Type            string          `gorm:"column:type;not null;default:''"`
	Sizes           pq.StringArray  `gorm:"column:sizes;type:text[]"`
	ProductDetails  string          `gorm:"column:product_details;not null;default:''"`
	Stock           int             `gorm:"column:stock;not null;default:0"`
	Image           string          `gorm:"column:image;not null;default:''"`
	Featured        bool            `gorm:"column:featured;not null;default:false"`
	Reviews         []ProductReview `gorm:"foreignKey:ProductID"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// UnitPrice returns the price charged at checkout: the offer price when it is
// set and positive.
func (p Product) UnitPrice() money.Paise {
	if p.OfferPricePaise != nil && *p.OfferPricePaise > 0 {
		return *p.OfferPricePaise
	}
	return p.PricePaise
}

// HasSize reports whether size is one of the listed sizes.
func (p Product) HasSize(size string) bool {
	for _, s := range p.Sizes {
		if s == size {
			return true
		}
	}
	return false
}
