package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/rugstore-backend/internal/orders"
	"github.com/angelmondragon/rugstore-backend/pkg/auth"
	"github.com/angelmondragon/rugstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/rugstore-backend/pkg/errors"
	"github.com/angelmondragon/rugstore-backend/pkg/logger"
	"github.com/angelmondragon/rugstore-backend/pkg/metrics"
	"github.com/angelmondragon/rugstore-backend/pkg/money"
	"github.com/angelmondragon/rugstore-backend/pkg/outbox"
	"github.com/angelmondragon/rugstore-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/rugstore-backend/pkg/razorpay"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const invalidSignatureMessage = "Invalid signature"

// Gateway is the subset of the Razorpay client the service needs.
type Gateway interface {
	CreateOrder(ctx context.Context, req razorpay.OrderRequest) (map[string]interface{}, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups dependencies for the payment service.
type ServiceParams struct {
	Gateway  Gateway
	Orders   orders.Repository
	TxRunner txRunner
	Outbox   outbox.Emitter
	Metrics  *metrics.WorkflowMetrics
	Logger   *logger.Logger
	Clock    func() time.Time
}

// Service creates gateway orders and verifies checkout callbacks.
type Service struct {
	gateway Gateway
	orders  orders.Repository
	tx      txRunner
	outbox  outbox.Emitter
	metrics *metrics.WorkflowMetrics
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds a payment service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Gateway == nil {
		return nil, errors.New("gateway is required")
	}
	if params.Orders == nil {
		return nil, errors.New("order repository is required")
	}
	if params.TxRunner == nil {
		return nil, errors.New("tx runner is required")
	}
	if params.Outbox == nil {
		return nil, errors.New("outbox emitter is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		gateway: params.Gateway,
		orders:  params.Orders,
		tx:      params.TxRunner,
		outbox:  params.Outbox,
		metrics: params.Metrics,
		logg:    logg,
		now:     clock,
	}, nil
}

// CreateGatewayOrder opens a Razorpay order for a rupee amount.
func (s *Service) CreateGatewayOrder(ctx context.Context, input CreateOrderInput) (map[string]interface{}, error) {
	if input.Amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be greater than zero")
	}
	amount := money.FromRupees(input.Amount)
	if amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be greater than zero")
	}
	order, err := s.gateway.CreateOrder(ctx, razorpay.OrderRequest{
		AmountPaise: int64(amount),
		Receipt:     fmt.Sprintf("receipt_%d", s.now().UnixMilli()),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create razorpay order")
	}
	return order, nil
}

// Verify checks the callback signature and marks the order paid.
func (s *Service) Verify(ctx context.Context, actor auth.Actor, input VerifyInput) (result *VerifyResult, err error) {
	defer func() { s.metrics.Record(metrics.OpVerifyPayment, outcome(err)) }()

	if !actor.IsAuthenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "User not authenticated")
	}
	gatewayOrderID := strings.TrimSpace(input.RazorpayOrderID)
	paymentID := strings.TrimSpace(input.RazorpayPaymentID)
	if !s.gateway.VerifySignature(gatewayOrderID, paymentID, strings.TrimSpace(input.RazorpaySignature)) {
		s.logg.Warn(s.logg.WithField(ctx, "gateway_order_id", gatewayOrderID), "payment signature mismatch")
		return nil, pkgerrors.New(pkgerrors.CodeInvalidSignature, invalidSignatureMessage)
	}
	orderID, err := uuid.Parse(strings.TrimSpace(input.OrderID))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orderId must be a valid id")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
		}
		if !actor.Owns(order.UserID) && !actor.Can(auth.CapManageOrders) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
		}

		wasPaid := order.PaymentStatus.IsSettled()
		if err := repo.UpdateOrder(ctx, orderID, map[string]any{
			"payment_id":       paymentID,
			"gateway_order_id": gatewayOrderID,
			"payment_status":   enums.PaymentStatusPaid,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark order paid")
		}
		if wasPaid {
			return nil
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         outbox.ActorRefFrom(actor),
			Data: payloads.OrderPaidEvent{
				OrderID:       order.ID,
				UserID:        order.UserID,
				TotalPaise:    int64(order.TotalPaise),
				PaymentMethod: order.PaymentMethod,
				PaymentID:     &paymentID,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithOrderID(ctx, orderID.String()), "payment verified")
	return &VerifyResult{Success: true}, nil
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if typed := pkgerrors.As(err); typed != nil {
		return strings.ToLower(string(typed.Code()))
	}
	return "error"
}
