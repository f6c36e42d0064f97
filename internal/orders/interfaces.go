package orders

import (
	"context"
	"time"

	"github.com/angelmondragon/rugstore-backend/pkg/db/models"
	"github.com/angelmondragon/rugstore-backend/pkg/enums"
	"github.com/angelmondragon/rugstore-backend/pkg/money"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	UpdateOrder(ctx context.Context, id uuid.UUID, updates map[string]any) error
	HasDeliveredOrderWithProduct(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	CountByStatus(ctx context.Context, window Window) (map[enums.OrderStatus]int64, error)
	SumRevenue(ctx context.Context, window Window) (money.Paise, error)
	RecentDelivered(ctx context.Context, window Window, limit int) ([]models.Order, error)
}

// Window bounds stats queries by created_at. A zero window matches everything.
type Window struct {
	Start time.Time
	End   time.Time
}

// IsZero reports whether no bounds were supplied.
func (w Window) IsZero() bool {
	return w.Start.IsZero() && w.End.IsZero()
}
