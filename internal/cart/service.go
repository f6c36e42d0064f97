package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/rugstore-backend/pkg/db"
	"github.com/angelmondragon/rugstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/rugstore-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	cartNotFound = "Cart not found"
	itemNotFound = "Item not found in cart"
)

// Service manages the caller's cart. Every operation is scoped to userID.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	AddLine(ctx context.Context, userID, productID uuid.UUID, quantity int, size *string) (*CartDTO, error)
	SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartDTO, error)
	RemoveLine(ctx context.Context, userID, productID uuid.UUID) (*CartDTO, error)
	Clear(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo *Repository
	tx   txRunner
	now  func() time.Time
}

// NewService constructs the cart service.
func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &service{repo: repo, tx: tx, now: time.Now}, nil
}

// Get never fails for a missing cart; it returns an empty one.
func (s *service) Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	cart, err := s.repo.FindByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return emptyCart(), nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return FromModel(cart), nil
}

func (s *service) AddLine(ctx context.Context, userID, productID uuid.UUID, quantity int, size *string) (*CartDTO, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	var result *CartDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		exists, err := repo.ProductExists(ctx, productID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
		}
		if !exists {
			return pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
		}

		cart, err := s.loadOrCreate(ctx, repo, userID)
		if err != nil {
			return err
		}

		merged := mergeLine(cart.Lines, productID, quantity, size)
		if merged.Index >= 0 {
			err = repo.UpdateLine(ctx, merged.Line)
		} else {
			merged.Line.CartID = cart.ID
			err = repo.InsertLine(ctx, &merged.Line)
		}
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "cart changed concurrently")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save cart line")
		}

		result, err = s.reload(ctx, repo, cart.ID, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartDTO, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	return s.mutate(ctx, userID, func(repo *Repository, view cartView) error {
		idx := view.firstIndexOf(productID)
		if idx < 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, itemNotFound)
		}
		line := view.lines[idx]
		line.Quantity = quantity
		if err := repo.UpdateLine(ctx, line); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart line")
		}
		return nil
	})
}

func (s *service) RemoveLine(ctx context.Context, userID, productID uuid.UUID) (*CartDTO, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.mutate(ctx, userID, func(repo *Repository, view cartView) error {
		if err := repo.DeleteLinesByProduct(ctx, view.id, productID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart line")
		}
		return nil
	})
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.mutate(ctx, userID, func(repo *Repository, view cartView) error {
		if err := repo.ClearLines(ctx, view.id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
		}
		return nil
	})
}

type cartView struct {
	id    uuid.UUID
	lines []models.CartLine
}

func (v cartView) firstIndexOf(productID uuid.UUID) int {
	for i, line := range v.lines {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}

// mutate runs fn against an existing cart inside a transaction and returns the reloaded cart.
func (s *service) mutate(ctx context.Context, userID uuid.UUID, fn func(repo *Repository, view cartView) error) (*CartDTO, error) {
	var result *CartDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.FindByUser(ctx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, cartNotFound)
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
		}
		if err := fn(repo, cartView{id: cart.ID, lines: cart.Lines}); err != nil {
			return err
		}
		result, err = s.reload(ctx, repo, cart.ID, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) loadOrCreate(ctx context.Context, repo *Repository, userID uuid.UUID) (*models.Cart, error) {
	cart, err := repo.FindByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	cart, err = repo.Create(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart")
	}
	return cart, nil
}

func (s *service) reload(ctx context.Context, repo *Repository, cartID, userID uuid.UUID) (*CartDTO, error) {
	if err := repo.Touch(ctx, cartID, s.now()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "touch cart")
	}
	cart, err := repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload cart")
	}
	return FromModel(cart), nil
}

func requireUser(userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return nil
}
