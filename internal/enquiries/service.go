package enquiries

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/rugstore-backend/pkg/auth"
	"github.com/angelmondragon/rugstore-backend/pkg/db/models"
	"github.com/angelmondragon/rugstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/rugstore-backend/pkg/errors"
	"github.com/angelmondragon/rugstore-backend/pkg/outbox"
	"github.com/angelmondragon/rugstore-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service records enquiries and exposes them to admins.
type Service struct {
	repo   *Repository
	tx     txRunner
	outbox outbox.Emitter
}

func NewService(repo *Repository, tx txRunner, emitter outbox.Emitter) (*Service, error) {
	if repo == nil {
		return nil, errors.New("repo is required")
	}
	if tx == nil {
		return nil, errors.New("tx runner is required")
	}
	if emitter == nil {
		return nil, errors.New("outbox emitter is required")
	}
	return &Service{repo: repo, tx: tx, outbox: emitter}, nil
}

// Create stores a submission. No authentication is required.
func (s *Service) Create(ctx context.Context, input CreateEnquiryInput) (*EnquiryDTO, error) {
	enquiry := &models.Enquiry{
		Name:    strings.TrimSpace(input.Name),
		Email:   strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:   strings.TrimSpace(input.Phone),
		Comment: strings.TrimSpace(input.Comment),
	}
	if enquiry.Name == "" || enquiry.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and email are required")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, enquiry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create enquiry")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventEnquiryReceived,
			AggregateType: enums.AggregateEnquiry,
			AggregateID:   enquiry.ID,
			Data: payloads.EnquiryReceivedEvent{
				EnquiryID: enquiry.ID,
				Name:      enquiry.Name,
				Email:     enquiry.Email,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	dto := fromModel(*enquiry)
	return &dto, nil
}

func (s *Service) List(ctx context.Context, actor auth.Actor) ([]EnquiryDTO, error) {
	if err := requireEnquiries(actor); err != nil {
		return nil, err
	}
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list enquiries")
	}
	out := make([]EnquiryDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromModel(row))
	}
	return out, nil
}

func (s *Service) Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	if err := requireEnquiries(actor); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "Enquiry not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete enquiry")
	}
	return nil
}

func requireEnquiries(actor auth.Actor) error {
	if !actor.IsAuthenticated() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if !actor.Can(auth.CapReadEnquiries) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	}
	return nil
}
