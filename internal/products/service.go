package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/rugstore-backend/pkg/auth"
	"github.com/angelmondragon/rugstore-backend/pkg/db"
	"github.com/angelmondragon/rugstore-backend/pkg/db/models"
	"github.com/angelmondragon/rugstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/rugstore-backend/pkg/errors"
	"github.com/angelmondragon/rugstore-backend/pkg/outbox"
	"github.com/angelmondragon/rugstore-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	reviewGateMessage      = "You can review this product only after delivery"
	duplicateReviewMessage = "Product already reviewed"
	productNotFound        = "Product not found"
)

// Service exposes the catalog and the review gate.
type Service interface {
	Create(ctx context.Context, actor auth.Actor, input CreateProductInput) (*ProductDTO, error)
	Update(ctx context.Context, actor auth.Actor, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	List(ctx context.Context) ([]ProductDTO, error)
	ListByCategory(ctx context.Context, category string) ([]ProductDTO, error)
	ListFeatured(ctx context.Context) ([]ProductDTO, error)
	Filter(ctx context.Context, input FilterInput) ([]ProductDTO, error)
	CanReview(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	AddReview(ctx context.Context, actor auth.Actor, productID uuid.UUID, input ReviewInput) (*ReviewDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// deliveryChecker answers whether a user has received a product.
type deliveryChecker interface {
	HasDeliveredOrderWithProduct(ctx context.Context, userID, productID uuid.UUID) (bool, error)
}

type userLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// ServiceParams bundles product service dependencies.
type ServiceParams struct {
	Repo       *Repository
	TxRunner   txRunner
	Deliveries deliveryChecker
	Users      userLoader
	Outbox     outbox.Emitter
}

type service struct {
	repo       *Repository
	tx         txRunner
	deliveries deliveryChecker
	users      userLoader
	outbox     outbox.Emitter
}

// NewService constructs a product service instance.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Deliveries == nil {
		return nil, fmt.Errorf("delivery checker required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{
		repo:       params.Repo,
		tx:         params.TxRunner,
		deliveries: params.Deliveries,
		users:      params.Users,
		outbox:     params.Outbox,
	}, nil
}

func (s *service) Create(ctx context.Context, actor auth.Actor, input CreateProductInput) (*ProductDTO, error) {
	if err := requireCatalog(actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	product := input.toModel()
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	return FromModel(product), nil
}

func (s *service) Update(ctx context.Context, actor auth.Actor, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	if err := requireCatalog(actor); err != nil {
		return nil, err
	}
	updates := input.toUpdates()
	if name, ok := updates["name"].(string); ok && name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, mapNotFound(err, "update product")
		}
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	if err := requireCatalog(actor); err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Delete(ctx, id); err != nil {
			return mapNotFound(err, "delete product")
		}
		return nil
	})
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "load product")
	}
	return FromModel(product), nil
}

func (s *service) List(ctx context.Context) ([]ProductDTO, error) {
	return s.list(ctx, ListQuery{}, "")
}

func (s *service) ListByCategory(ctx context.Context, category string) ([]ProductDTO, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category is required")
	}
	return s.list(ctx, ListQuery{Category: category}, "")
}

func (s *service) ListFeatured(ctx context.Context) ([]ProductDTO, error) {
	return s.list(ctx, ListQuery{FeaturedOnly: true}, "")
}

func (s *service) Filter(ctx context.Context, input FilterInput) ([]ProductDTO, error) {
	q := ListQuery{
		ProductGroup: strings.TrimSpace(input.ProductGroup),
		Color:        strings.TrimSpace(input.Color),
		Shape:        strings.TrimSpace(input.Shape),
	}
	if thickness := strings.TrimSpace(input.Thickness); thickness != "" {
		q.Category = thickness
		q.CategoryFoldCase = true
	} else {
		q.Category = strings.TrimSpace(input.Category)
	}
	return s.list(ctx, q, strings.TrimSpace(input.Size))
}

func (s *service) list(ctx context.Context, q ListQuery, size string) ([]ProductDTO, error) {
	items, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	if size != "" {
		filtered := items[:0]
		for _, item := range items {
			if item.HasSize(size) {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}
	return fromModels(items), nil
}

func (s *service) CanReview(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	if userID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeUnauthorized, "User not authenticated")
	}
	ok, err := s.deliveries.HasDeliveredOrderWithProduct(ctx, userID, productID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check delivered orders")
	}
	return ok, nil
}

func (s *service) AddReview(ctx context.Context, actor auth.Actor, productID uuid.UUID, input ReviewInput) (*ReviewDTO, error) {
	if _, err := s.repo.FindByID(ctx, productID); err != nil {
		return nil, mapNotFound(err, "load product")
	}
	if !actor.IsAuthenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "User not authenticated")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}

	delivered, err := s.CanReview(ctx, actor.UserID, productID)
	if err != nil {
		return nil, err
	}
	if !delivered {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, reviewGateMessage)
	}

	user, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "User not authenticated")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}

	review := &models.ProductReview{
		ProductID: productID,
		UserID:    actor.UserID,
		Author:    user.DisplayName(),
		Rating:    input.Rating,
		Comment:   strings.TrimSpace(input.Comment),
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindReview(ctx, productID, actor.UserID); err == nil {
			return pkgerrors.New(pkgerrors.CodeDuplicateReview, duplicateReviewMessage)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check existing review")
		}

		if err := repo.CreateReview(ctx, review); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeDuplicateReview, duplicateReviewMessage)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create review")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReviewAdded,
			AggregateType: enums.AggregateProduct,
			AggregateID:   productID,
			Actor:         outbox.ActorRefFrom(actor),
			Data: payloads.ReviewAddedEvent{
				ProductID: productID,
				ReviewID:  review.ID,
				UserID:    actor.UserID,
				Rating:    review.Rating,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	dto := reviewFromModel(*review)
	return &dto, nil
}

func requireCatalog(actor auth.Actor) error {
	if !actor.IsAuthenticated() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if !actor.Can(auth.CapManageCatalog) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	}
	return nil
}

func mapNotFound(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, productNotFound)
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, op)
}
