package models

import (
	"time"

	"github.com/angelmondragon/rugstore-backend/pkg/enums"
	"github.com/angelmondragon/rugstore-backend/pkg/money"
	"github.com/angelmondragon/rugstore-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order is the snapshot of a checked-out cart plus its delivery timeline.
type Order struct {
	ID                    uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID                uuid.UUID           `gorm:"column:user_id;type:uuid;not null"`
	User                  *User               `gorm:"foreignKey:UserID"`
	Items                 []OrderItem         `gorm:"foreignKey:OrderID"`
	Address               types.Address       `gorm:"column:address;type:jsonb;not null"`
	TotalPaise            money.Paise         `gorm:"column:total_paise;not null"`
	PaymentMethod         enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	PaymentStatus         enums.PaymentStatus `gorm:"column:payment_status;type:text;not null"`
	PaymentID             *string             `gorm:"column:payment_id"`
	GatewayOrderID        *string             `gorm:"column:gateway_order_id"`
	CurrentStatus         enums.OrderStatus   `gorm:"column:current_status;type:text;not null"`
	DispatchedStatus      bool                `gorm:"column:dispatched_status;not null;default:false"`
	DispatchedAt          *time.Time          `gorm:"column:dispatched_at"`
	DeliveredStatus       bool                `gorm:"column:delivered_status;not null;default:false"`
	DeliveredAt           *time.Time          `gorm:"column:delivered_at"`
	EstimatedDeliveryDate time.Time           `gorm:"column:estimated_delivery_date;not null"`
	ExpectedDeliveryDate  *time.Time          `gorm:"column:expected_delivery_date"`
	CreatedAt             time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// OrderItem captures name, size and unit price at checkout time.
type OrderItem struct {
	ID         uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID   `gorm:"column:order_id;type:uuid;not null"`
	ProductID  uuid.UUID   `gorm:"column:product_id;type:uuid;not null"`
	Product    *Product    `gorm:"foreignKey:ProductID"`
	Name       string      `gorm:"column:name;not null"`
	Size       *string     `gorm:"column:size"`
	Quantity   int         `gorm:"column:quantity;not null"`
	PricePaise money.Paise `gorm:"column:price_paise;not null"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// Subtotal returns unit price times quantity.
func (i OrderItem) Subtotal() money.Paise {
	return i.PricePaise.Mul(i.Quantity)
}
