package orders

import (
	"context"

	"github.com/angelmondragon/rugstore-backend/pkg/db/models"
	"github.com/angelmondragon/rugstore-backend/pkg/enums"
	"github.com/angelmondragon/rugstore-backend/pkg/money"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// NewRepository returns the gorm-backed order repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// CreateOrder inserts the order together with its items.
func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// DecrementStock subtracts quantity only while enough stock remains. It
// reports false when the row was not updated.
func (r *repository) DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Product").
		Preload("User").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var out []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Product").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *repository) ListAll(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("User").
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *repository) UpdateOrder(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// HasDeliveredOrderWithProduct reports whether any DELIVERED order of the user
// contains the product.
func (r *repository) HasDeliveredOrderWithProduct(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Joins("JOIN order_items ON order_items.order_id = orders.id").
		Where("orders.user_id = ? AND order_items.product_id = ?", userID, productID).
		Where("orders.current_status = ?", enums.OrderStatusDelivered).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) CountByStatus(ctx context.Context, window Window) (map[enums.OrderStatus]int64, error) {
	var rows []struct {
		Status enums.OrderStatus
		Count  int64
	}
	err := r.scoped(ctx, window).
		Model(&models.Order{}).
		Select("current_status AS status, COUNT(*) AS count").
		Group("current_status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[enums.OrderStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

// SumRevenue totals DELIVERED orders.
func (r *repository) SumRevenue(ctx context.Context, window Window) (money.Paise, error) {
	var row struct {
		Total int64
	}
	err := r.scoped(ctx, window).
		Model(&models.Order{}).
		Select("COALESCE(SUM(total_paise), 0) AS total").
		Where("current_status = ?", enums.OrderStatusDelivered).
		Scan(&row).Error
	return money.Paise(row.Total), err
}

func (r *repository) RecentDelivered(ctx context.Context, window Window, limit int) ([]models.Order, error) {
	var out []models.Order
	err := r.scoped(ctx, window).
		Preload("User").
		Where("current_status = ?", enums.OrderStatusDelivered).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *repository) scoped(ctx context.Context, window Window) *gorm.DB {
	q := r.db.WithContext(ctx)
	if !window.Start.IsZero() {
		q = q.Where("orders.created_at >= ?", window.Start.UTC())
	}
	if !window.End.IsZero() {
		q = q.Where("orders.created_at <= ?", window.End.UTC())
	}
	return q
}
