package products

import (
	"context"

	"github.com/angelmondragon/rugstore-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Repository persists products and their reviews.
type Repository struct {
	db *gorm.DB
}

// ListQuery narrows a product listing. Empty fields are ignored.
type ListQuery struct {
	ProductGroup     string
	Category         string
	CategoryFoldCase bool
	Color            string
	Shape            string
	FeaturedOnly     bool
}

// NewRepository binds a repository to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// Update applies column updates, returning gorm.ErrRecordNotFound when no row matched.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if sizes, ok := updates["sizes"].([]string); ok {
		updates["sizes"] = pq.StringArray(sizes)
	}
	res := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the product and its reviews.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("product_id = ?", id).Delete(&models.ProductReview{}).Error; err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.withReviews(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns matching products newest first.
func (r *Repository) List(ctx context.Context, q ListQuery) ([]models.Product, error) {
	query := r.withReviews(ctx)
	if q.ProductGroup != "" {
		query = query.Where("product_group = ?", q.ProductGroup)
	}
	if q.Category != "" {
		if q.CategoryFoldCase {
			query = query.Where("LOWER(category) = LOWER(?)", q.Category)
		} else {
			query = query.Where("category = ?", q.Category)
		}
	}
	if q.Color != "" {
		query = query.Where("color = ?", q.Color)
	}
	if q.Shape != "" {
		query = query.Where("shape = ?", q.Shape)
	}
	if q.FeaturedOnly {
		query = query.Where("featured = ?", true)
	}

	var items []models.Product
	if err := query.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// FindReview returns the user's review for the product.
func (r *Repository) FindReview(ctx context.Context, productID, userID uuid.UUID) (*models.ProductReview, error) {
	var review models.ProductReview
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND user_id = ?", productID, userID).
		First(&review).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *Repository) CreateReview(ctx context.Context, review *models.ProductReview) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *Repository) withReviews(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Reviews", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	})
}
