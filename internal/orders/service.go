package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/rugstore-backend/internal/cart"
	"github.com/angelmondragon/rugstore-backend/pkg/auth"
	"github.com/angelmondragon/rugstore-backend/pkg/config"
	"github.com/angelmondragon/rugstore-backend/pkg/db/models"
	"github.com/angelmondragon/rugstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/rugstore-backend/pkg/errors"
	"github.com/angelmondragon/rugstore-backend/pkg/logger"
	"github.com/angelmondragon/rugstore-backend/pkg/metrics"
	"github.com/angelmondragon/rugstore-backend/pkg/money"
	"github.com/angelmondragon/rugstore-backend/pkg/outbox"
	"github.com/angelmondragon/rugstore-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	emptyCartMessage     = "Cart is empty"
	orderNotFoundMessage = "Order not found"

	defaultDeliveryDays       = 7
	defaultRecentTransactions = 5

	dateLayout = "2006-01-02"
)

// OrderUpdatedMessage is returned alongside a successful status update.
const OrderUpdatedMessage = "Order updated successfully"

// Service runs the checkout and fulfilment workflow.
type Service interface {
	PlaceOrder(ctx context.Context, actor auth.Actor, input PlaceOrderInput) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, actor auth.Actor, orderID uuid.UUID, input UpdateStatusInput) (*OrderDTO, error)
	ListMine(ctx context.Context, actor auth.Actor) ([]OrderDTO, error)
	ListAll(ctx context.Context, actor auth.Actor) ([]OrderDTO, error)
	Stats(ctx context.Context, actor auth.Actor, query StatsQuery) (*StatsDTO, error)
	HasDeliveredOrderWithProduct(ctx context.Context, userID, productID uuid.UUID) (bool, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams bundles order service dependencies.
type ServiceParams struct {
	Repo     Repository
	Carts    *cart.Repository
	TxRunner txRunner
	Outbox   outbox.Emitter
	Metrics  *metrics.WorkflowMetrics
	Logger   *logger.Logger
	Config   config.OrdersConfig
	Clock    func() time.Time
}

type service struct {
	repo    Repository
	carts   *cart.Repository
	tx      txRunner
	outbox  outbox.Emitter
	metrics *metrics.WorkflowMetrics
	logg    *logger.Logger
	cfg     config.OrdersConfig
	now     func() time.Time
}

// NewService constructs the order workflow.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	cfg := params.Config
	if cfg.DeliveryEstimateDays <= 0 {
		cfg.DeliveryEstimateDays = defaultDeliveryDays
	}
	if cfg.RecentTransactions <= 0 {
		cfg.RecentTransactions = defaultRecentTransactions
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		repo:    params.Repo,
		carts:   params.Carts,
		tx:      params.TxRunner,
		outbox:  params.Outbox,
		metrics: params.Metrics,
		logg:    logg,
		cfg:     cfg,
		now:     func() time.Time { return clock().UTC() },
	}, nil
}

func (s *service) PlaceOrder(ctx context.Context, actor auth.Actor, input PlaceOrderInput) (dto *OrderDTO, err error) {
	defer func() { s.metrics.Record(metrics.OpPlaceOrder, outcome(err)) }()

	if !actor.IsAuthenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "User not authenticated")
	}
	method, err := enums.ParsePaymentMethod(input.PaymentMethod)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
	}
	address := input.Address
	address.Normalize()
	if address.Street == "" || address.City == "" || address.State == "" || address.Pincode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address requires street, city, state and pincode")
	}

	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		repo := s.repo.WithTx(tx)

		userCart, err := carts.FindByUser(ctx, actor.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeEmptyCart, emptyCartMessage)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
		}
		if len(userCart.Lines) == 0 {
			return pkgerrors.New(pkgerrors.CodeEmptyCart, emptyCartMessage)
		}

		if err := checkStock(userCart.Lines); err != nil {
			return err
		}

		now := s.now()
		order = &models.Order{
			UserID:                actor.UserID,
			Address:               address,
			PaymentMethod:         method,
			PaymentStatus:         enums.PaymentStatusPending,
			CurrentStatus:         enums.OrderStatusPreparing,
			EstimatedDeliveryDate: now.AddDate(0, 0, s.cfg.DeliveryEstimateDays),
			Items:                 make([]models.OrderItem, 0, len(userCart.Lines)),
		}
		subtotals := make([]money.Paise, 0, len(userCart.Lines))
		for _, line := range userCart.Lines {
			item := models.OrderItem{
				ProductID:  line.ProductID,
				Name:       line.Product.Name,
				Size:       line.Size,
				Quantity:   line.Quantity,
				PricePaise: line.Product.UnitPrice(),
			}
			order.Items = append(order.Items, item)
			subtotals = append(subtotals, item.Subtotal())
		}
		order.TotalPaise = money.Sum(subtotals...)

		if err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}

		for _, line := range userCart.Lines {
			ok, err := repo.DecrementStock(ctx, line.ProductID, line.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrement stock")
			}
			if !ok {
				return insufficientStock(*line.Product, line.Quantity, -1)
			}
		}

		if err := carts.ClearLines(ctx, userCart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         outbox.ActorRefFrom(actor),
			Data: payloads.OrderCreatedEvent{
				OrderID:               order.ID,
				UserID:                order.UserID,
				TotalPaise:            int64(order.TotalPaise),
				PaymentMethod:         order.PaymentMethod,
				EstimatedDeliveryDate: order.EstimatedDeliveryDate,
				Items:                 itemLines(order.Items),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(logCtx, "order placed")
	return FromModel(order), nil
}

// checkStock compares the requested quantity per product against live stock
// and reports the first product that cannot be filled.
func checkStock(lines []models.CartLine) error {
	requested := make(map[uuid.UUID]int, len(lines))
	for _, line := range lines {
		if line.Product == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "Product not found").
				WithDetails(map[string]any{"productId": line.ProductID})
		}
		requested[line.ProductID] += line.Quantity
		if requested[line.ProductID] > line.Product.Stock {
			return insufficientStock(*line.Product, requested[line.ProductID], line.Product.Stock)
		}
	}
	return nil
}

func insufficientStock(product models.Product, requested, available int) error {
	details := map[string]any{
		"productId": product.ID,
		"requested": requested,
	}
	if available >= 0 {
		details["available"] = available
	}
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf("%s is out of stock", product.Name)).
		WithDetails(details)
}

func (s *service) UpdateStatus(ctx context.Context, actor auth.Actor, orderID uuid.UUID, input UpdateStatusInput) (dto *OrderDTO, err error) {
	defer func() { s.metrics.Record(metrics.OpUpdateStatus, outcome(err)) }()

	if err := requireOrders(actor); err != nil {
		return nil, err
	}
	next, err := enums.ParseOrderStatus(input.Status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
	}
	var expected *time.Time
	if input.ExpectedDeliveryDate != nil && strings.TrimSpace(*input.ExpectedDeliveryDate) != "" {
		parsed, err := parseDate(*input.ExpectedDeliveryDate)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid expectedDeliveryDate")
		}
		expected = &parsed
	}

	var updated *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return mapNotFound(err, "load order")
		}
		from := order.CurrentStatus
		if !from.CanTransitionTo(next) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move order from %s to %s", from, next)).
				WithDetails(map[string]any{"from": from, "to": next})
		}

		now := s.now()
		updates := map[string]any{"current_status": next}
		settled := false
		switch next {
		case enums.OrderStatusDispatched:
			updates["dispatched_status"] = true
			updates["dispatched_at"] = now
			if expected != nil {
				updates["expected_delivery_date"] = *expected
			}
		case enums.OrderStatusDelivered:
			updates["delivered_status"] = true
			updates["delivered_at"] = now
			if order.PaymentMethod.SettlesOnDelivery() && !order.PaymentStatus.IsSettled() {
				updates["payment_status"] = enums.PaymentStatusPaid
				settled = true
			}
		}
		if err := repo.UpdateOrder(ctx, orderID, updates); err != nil {
			return mapNotFound(err, "update order")
		}

		event := payloads.OrderStatusChangedEvent{
			OrderID: order.ID,
			UserID:  order.UserID,
			From:    from,
			To:      next,
		}
		if next == enums.OrderStatusDispatched {
			event.ExpectedDeliveryDate = expected
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         outbox.ActorRefFrom(actor),
			Data:          event,
		}); err != nil {
			return err
		}
		if settled {
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventOrderPaid,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Actor:         outbox.ActorRefFrom(actor),
				Data: payloads.OrderPaidEvent{
					OrderID:       order.ID,
					UserID:        order.UserID,
					TotalPaise:    int64(order.TotalPaise),
					PaymentMethod: order.PaymentMethod,
				},
			}); err != nil {
				return err
			}
		}

		updated, err = repo.FindByID(ctx, orderID)
		if err != nil {
			return mapNotFound(err, "reload order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(updated), nil
}

func (s *service) ListMine(ctx context.Context, actor auth.Actor) ([]OrderDTO, error) {
	if !actor.IsAuthenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "User not authenticated")
	}
	rows, err := s.repo.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return fromModels(rows), nil
}

func (s *service) ListAll(ctx context.Context, actor auth.Actor) ([]OrderDTO, error) {
	if err := requireOrders(actor); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return fromModels(rows), nil
}

func (s *service) Stats(ctx context.Context, actor auth.Actor, query StatsQuery) (*StatsDTO, error) {
	if err := requireOrders(actor); err != nil {
		return nil, err
	}
	window, err := parseWindow(query)
	if err != nil {
		return nil, err
	}

	counts, err := s.repo.CountByStatus(ctx, window)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count orders")
	}
	revenue, err := s.repo.SumRevenue(ctx, window)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum revenue")
	}
	recent, err := s.repo.RecentDelivered(ctx, window, s.cfg.RecentTransactions)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recent transactions")
	}

	stats := &StatsDTO{
		Preparing:          counts[enums.OrderStatusPreparing],
		Dispatched:         counts[enums.OrderStatusDispatched],
		Delivered:          counts[enums.OrderStatusDelivered],
		TotalRevenue:       revenue.Rupees(),
		RecentTransactions: fromModels(recent),
	}
	for _, n := range counts {
		stats.TotalOrders += n
	}
	return stats, nil
}

func (s *service) HasDeliveredOrderWithProduct(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	return s.repo.HasDeliveredOrderWithProduct(ctx, userID, productID)
}

// parseWindow applies the window only when both dates are present. The end
// date covers the whole day.
func parseWindow(query StatsQuery) (Window, error) {
	start := strings.TrimSpace(query.StartDate)
	end := strings.TrimSpace(query.EndDate)
	if start == "" || end == "" {
		return Window{}, nil
	}
	from, err := parseDate(start)
	if err != nil {
		return Window{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid startDate")
	}
	to, err := parseDate(end)
	if err != nil {
		return Window{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid endDate")
	}
	if len(end) == len(dateLayout) {
		to = to.Add(24*time.Hour - time.Millisecond)
	}
	if to.Before(from) {
		return Window{}, pkgerrors.New(pkgerrors.CodeValidation, "endDate must not be before startDate")
	}
	return Window{Start: from, End: to}, nil
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: expected YYYY-MM-DD or RFC3339", value)
	}
	return t.UTC(), nil
}

func itemLines(items []models.OrderItem) []payloads.OrderItemLine {
	out := make([]payloads.OrderItemLine, 0, len(items))
	for _, item := range items {
		out = append(out, payloads.OrderItemLine{
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			PricePaise: int64(item.PricePaise),
			Size:       item.Size,
		})
	}
	return out
}

func requireOrders(actor auth.Actor) error {
	if !actor.IsAuthenticated() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if !actor.Can(auth.CapManageOrders) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	}
	return nil
}

func mapNotFound(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, orderNotFoundMessage)
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, op)
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
