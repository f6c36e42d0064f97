package auth

import (
	"context"
	"errors"

	"github.com/angelmondragon/rugstore-backend/internal/users"
	"github.com/angelmondragon/rugstore-backend/pkg/config"
	"github.com/angelmondragon/rugstore-backend/pkg/db"
	"github.com/angelmondragon/rugstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/rugstore-backend/pkg/errors"
	"github.com/angelmondragon/rugstore-backend/pkg/security"
	"gorm.io/gorm"
)

const emailTakenMessage = "email already registered"

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// RegisterService opens accounts.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest, role enums.UserRole) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type RegisterServiceParams struct {
	DB             txRunner
	PasswordConfig config.PasswordConfig
}

type registerService struct {
	tx          txRunner
	passwordCfg config.PasswordConfig
}

func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.DB == nil {
		return nil, errors.New("database client required")
	}
	return &registerService{tx: params.DB, passwordCfg: params.PasswordConfig}, nil
}

// Register stores a new account with an Argon2id hash. A taken email is a
// conflict whether it is caught by the pre-check or by the unique index.
func (s *registerService) Register(ctx context.Context, req RegisterRequest, role enums.UserRole) error {
	if !role.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	dto := users.CreateUserDTO{Name: req.Name, Email: users.NormalizeEmail(req.Email), Role: role}
	if dto.Email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	dto.PasswordHash = hash

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := users.NewRepository(tx)
		taken, err := repo.EmailTaken(ctx, dto.Email)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}
		if taken {
			return pkgerrors.New(pkgerrors.CodeConflict, emailTakenMessage)
		}
		if _, err := repo.Create(ctx, dto); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, emailTakenMessage)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
		return nil
	})
}
