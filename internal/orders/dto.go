package orders

import (
	"time"

	"github.com/angelmondragon/rugstore-backend/pkg/db/models"
	"github.com/angelmondragon/rugstore-backend/pkg/types"
	"github.com/google/uuid"
)

// PlaceOrderInput is the checkout payload.
type PlaceOrderInput struct {
	Address       types.Address `json:"address" validate:"required"`
	PaymentMethod string        `json:"paymentMethod" validate:"required,oneof=COD ONLINE cod online"`
}

// UpdateStatusInput advances an order along its timeline. ExpectedDeliveryDate
// accepts YYYY-MM-DD or RFC3339 and is only applied on DISPATCHED.
type UpdateStatusInput struct {
	Status               string  `json:"status" validate:"required"`
	ExpectedDeliveryDate *string `json:"expectedDeliveryDate,omitempty"`
}

// StatsQuery carries the optional stats window as raw query values.
type StatsQuery struct {
	StartDate string
	EndDate   string
}

// OrderDTO is the order shape returned to clients. Amounts are rupees.
type OrderDTO struct {
	ID                    uuid.UUID      `json:"id"`
	UserID                uuid.UUID      `json:"userId"`
	User                  *UserSummary   `json:"user,omitempty"`
	Items                 []OrderItemDTO `json:"items"`
	Address               types.Address  `json:"address"`
	TotalAmount           float64        `json:"totalAmount"`
	PaymentMethod         string         `json:"paymentMethod"`
	PaymentStatus         string         `json:"paymentStatus"`
	PaymentID             *string        `json:"paymentId,omitempty"`
	RazorpayOrderID       *string        `json:"razorpayOrderId,omitempty"`
	CurrentStatus         string         `json:"currentStatus"`
	StatusTimeline        StatusTimeline `json:"statusTimeline"`
	EstimatedDeliveryDate time.Time      `json:"estimatedDeliveryDate"`
	ExpectedDeliveryDate  *time.Time     `json:"expectedDeliveryDate,omitempty"`
	CreatedAt             time.Time      `json:"createdAt"`
	UpdatedAt             time.Time      `json:"updatedAt"`
}

// UserSummary is the customer identity shown on admin views.
type UserSummary struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// OrderItemDTO is one snapshotted line.
type OrderItemDTO struct {
	ProductID uuid.UUID        `json:"productId"`
	Product   *ItemProductView `json:"product,omitempty"`
	Name      string           `json:"name"`
	Size      *string          `json:"size,omitempty"`
	Quantity  int              `json:"quantity"`
	Price     float64          `json:"price"`
}

// ItemProductView is the live catalog data attached to an item.
type ItemProductView struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

// StatusTimeline records when each milestone was reached.
type StatusTimeline struct {
	Dispatched Milestone `json:"dispatched"`
	Delivered  Milestone `json:"delivered"`
}

// Milestone is a single timeline step.
type Milestone struct {
	Status bool       `json:"status"`
	Date   *time.Time `json:"date,omitempty"`
}

// StatsDTO summarises orders for the admin dashboard.
type StatsDTO struct {
	Preparing          int64      `json:"PREPARING"`
	Dispatched         int64      `json:"DISPATCHED"`
	Delivered          int64      `json:"DELIVERED"`
	TotalOrders        int64      `json:"totalOrders"`
	TotalRevenue       float64    `json:"totalRevenue"`
	RecentTransactions []OrderDTO `json:"recentTransactions"`
}

// FromModel maps an order row to its DTO.
func FromModel(order *models.Order) *OrderDTO {
	if order == nil {
		return nil
	}
	dto := &OrderDTO{
		ID:              order.ID,
		UserID:          order.UserID,
		Items:           make([]OrderItemDTO, 0, len(order.Items)),
		Address:         order.Address,
		TotalAmount:     order.TotalPaise.Rupees(),
		PaymentMethod:   string(order.PaymentMethod),
		PaymentStatus:   string(order.PaymentStatus),
		PaymentID:       order.PaymentID,
		RazorpayOrderID: order.GatewayOrderID,
		CurrentStatus:   string(order.CurrentStatus),
		StatusTimeline: StatusTimeline{
			Dispatched: Milestone{Status: order.DispatchedStatus, Date: order.DispatchedAt},
			Delivered:  Milestone{Status: order.DeliveredStatus, Date: order.DeliveredAt},
		},
		EstimatedDeliveryDate: order.EstimatedDeliveryDate,
		ExpectedDeliveryDate:  order.ExpectedDeliveryDate,
		CreatedAt:             order.CreatedAt,
		UpdatedAt:             order.UpdatedAt,
	}
	if order.User != nil {
		dto.User = &UserSummary{Name: order.User.Name, Email: order.User.Email}
	}
	for _, item := range order.Items {
		line := OrderItemDTO{
			ProductID: item.ProductID,
			Name:      item.Name,
			Size:      item.Size,
			Quantity:  item.Quantity,
			Price:     item.PricePaise.Rupees(),
		}
		if item.Product != nil {
			line.Product = &ItemProductView{Name: item.Product.Name, Image: item.Product.Image}
		}
		dto.Items = append(dto.Items, line)
	}
	return dto
}

func fromModels(rows []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
