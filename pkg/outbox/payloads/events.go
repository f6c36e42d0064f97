package payloads

import (
	"time"

	"github.com/angelmondragon/rugstore-backend/pkg/enums"
	"github.com/google/uuid"
)

// OrderItemLine is the per-item snapshot carried on order events.
type OrderItemLine struct {
	ProductID  uuid.UUID `json:"product_id"`
	Quantity   int       `json:"quantity"`
	PricePaise int64     `json:"price_paise"`
	Size       *string   `json:"size,omitempty"`
}

// OrderCreatedEvent signals a successful checkout.
type OrderCreatedEvent struct {
	OrderID               uuid.UUID           `json:"order_id"`
	UserID                uuid.UUID           `json:"user_id"`
	TotalPaise            int64               `json:"total_paise"`
	PaymentMethod         enums.PaymentMethod `json:"payment_method"`
	EstimatedDeliveryDate time.Time           `json:"estimated_delivery_date"`
	Items                 []OrderItemLine     `json:"items"`
}

// OrderStatusChangedEvent is emitted when an admin advances the timeline.
type OrderStatusChangedEvent struct {
	OrderID              uuid.UUID         `json:"order_id"`
	UserID               uuid.UUID         `json:"user_id"`
	From                 enums.OrderStatus `json:"from"`
	To                   enums.OrderStatus `json:"to"`
	ExpectedDeliveryDate *time.Time        `json:"expected_delivery_date,omitempty"`
}

// OrderPaidEvent is emitted on gateway verification or COD delivery.
type OrderPaidEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	UserID        uuid.UUID           `json:"user_id"`
	TotalPaise    int64               `json:"total_paise"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	PaymentID     *string             `json:"payment_id,omitempty"`
}

// ReviewAddedEvent is emitted when a customer reviews a delivered product.
type ReviewAddedEvent struct {
	ProductID uuid.UUID `json:"product_id"`
	ReviewID  uuid.UUID `json:"review_id"`
	UserID    uuid.UUID `json:"user_id"`
	Rating    int       `json:"rating"`
}

// EnquiryReceivedEvent is emitted for every contact-form submission.
type EnquiryReceivedEvent struct {
	EnquiryID uuid.UUID `json:"enquiry_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
}
