package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/rugstore-backend/internal/orders"
	"github.com/angelmondragon/rugstore-backend/pkg/auth"
	"github.com/angelmondragon/rugstore-backend/pkg/db"
	"github.com/angelmondragon/rugstore-backend/pkg/db/dbtest"
	"github.com/angelmondragon/rugstore-backend/pkg/db/models"
	"github.com/angelmondragon/rugstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/rugstore-backend/pkg/errors"
	"github.com/angelmondragon/rugstore-backend/pkg/logger"
	"github.com/angelmondragon/rugstore-backend/pkg/outbox"
	"github.com/angelmondragon/rugstore-backend/pkg/razorpay"
	"github.com/angelmondragon/rugstore-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "rzp_secret"

type stubGateway struct {
	lastRequest razorpay.OrderRequest
	err         error
}

func (g *stubGateway) CreateOrder(_ context.Context, req razorpay.OrderRequest) (map[string]interface{}, error) {
	g.lastRequest = req
	if g.err != nil {
		return nil, g.err
	}
	return map[string]interface{}{
		"id":       "order_Nabc",
		"amount":   req.AmountPaise,
		"currency": "INR",
		"receipt":  req.Receipt,
		"status":   "created",
	}, nil
}

func (g *stubGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return razorpay.VerifySignature(secret, orderID, paymentID, signature)
}

type fixture struct {
	client  *db.Client
	svc     *Service
	gateway *stubGateway
	repo    orders.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := dbtest.Open(t)
	gateway := &stubGateway{}
	repo := orders.NewRepository(client.DB())
	svc, err := NewService(ServiceParams{
		Gateway:  gateway,
		Orders:   repo,
		TxRunner: client,
		Outbox:   outbox.NewService(outbox.NewRepository(client.DB()), logger.Nop()),
		Clock:    func() time.Time { return time.UnixMilli(1700000000123) },
	})
	require.NoError(t, err)
	return &fixture{client: client, svc: svc, gateway: gateway, repo: repo}
}

func (f *fixture) order(t *testing.T, userID uuid.UUID) *models.Order {
	t.Helper()
	owner := &models.User{ID: userID, Email: userID.String() + "@example.com", PasswordHash: "hash"}
	require.NoError(t, f.client.DB().Create(owner).Error)
	order := &models.Order{
		UserID:                userID,
		Address:               types.Address{Street: "1 Park St", City: "Kolkata", State: "WB", Pincode: "700016"},
		TotalPaise:            149900,
		PaymentMethod:         enums.PaymentMethodOnline,
		PaymentStatus:         enums.PaymentStatusPending,
		CurrentStatus:         enums.OrderStatusPreparing,
		EstimatedDeliveryDate: time.Now().AddDate(0, 0, 7),
	}
	require.NoError(t, f.repo.CreateOrder(context.Background(), order))
	return order
}

func (f *fixture) paidEvents(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.client.DB().Model(&models.OutboxEvent{}).Where("event_type = ?", enums.EventOrderPaid).Count(&n).Error)
	return n
}

func TestCreateGatewayOrderConvertsRupeesToPaise(t *testing.T) {
	f := newFixture(t)

	out, err := f.svc.CreateGatewayOrder(context.Background(), CreateOrderInput{Amount: 1499.99})
	require.NoError(t, err)
	assert.Equal(t, int64(149999), f.gateway.lastRequest.AmountPaise)
	assert.Equal(t, "receipt_1700000000123", f.gateway.lastRequest.Receipt)
	assert.Equal(t, "order_Nabc", out["id"])

	_, err = f.svc.CreateGatewayOrder(context.Background(), CreateOrderInput{Amount: 0})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	f.gateway.err = errors.New("gateway down")
	_, err = f.svc.CreateGatewayOrder(context.Background(), CreateOrderInput{Amount: 10})
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.As(err).Code())
}

func TestVerifyMarksOrderPaid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := auth.Actor{UserID: uuid.New(), Role: enums.UserRoleCustomer}
	order := f.order(t, owner.UserID)

	res, err := f.svc.Verify(ctx, owner, VerifyInput{
		RazorpayOrderID:   "order_Nabc",
		RazorpayPaymentID: "pay_123",
		RazorpaySignature: razorpay.Sign(secret, "order_Nabc", "pay_123"),
		OrderID:           order.ID.String(),
	})
	require.NoError(t, err)
	assert.True(t, res.Success)

	stored, err := f.repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPaid, stored.PaymentStatus)
	require.NotNil(t, stored.PaymentID)
	assert.Equal(t, "pay_123", *stored.PaymentID)
	require.NotNil(t, stored.GatewayOrderID)
	assert.Equal(t, "order_Nabc", *stored.GatewayOrderID)
	assert.Equal(t, int64(1), f.paidEvents(t))
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := auth.Actor{UserID: uuid.New(), Role: enums.UserRoleCustomer}
	order := f.order(t, owner.UserID)

	_, err := f.svc.Verify(ctx, owner, VerifyInput{
		RazorpayOrderID:   "order_Nabc",
		RazorpayPaymentID: "pay_123",
		RazorpaySignature: razorpay.Sign(secret, "order_Nabc", "pay_999"),
		OrderID:           order.ID.String(),
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	assert.Equal(t, pkgerrors.CodeInvalidSignature, typed.Code())
	assert.Equal(t, "Invalid signature", typed.Message())

	stored, err := f.repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPending, stored.PaymentStatus)
	assert.Nil(t, stored.PaymentID)
	assert.Zero(t, f.paidEvents(t))
}

func TestVerifyChecksOwnershipAndExistence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	order := f.order(t, owner)
	input := func(orderID uuid.UUID) VerifyInput {
		return VerifyInput{
			RazorpayOrderID:   "order_Nabc",
			RazorpayPaymentID: "pay_123",
			RazorpaySignature: razorpay.Sign(secret, "order_Nabc", "pay_123"),
			OrderID:           orderID.String(),
		}
	}

	stranger := auth.Actor{UserID: uuid.New(), Role: enums.UserRoleCustomer}
	_, err := f.svc.Verify(ctx, stranger, input(order.ID))
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	_, err = f.svc.Verify(ctx, stranger, input(uuid.New()))
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	admin := auth.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}
	_, err = f.svc.Verify(ctx, admin, input(order.ID))
	require.NoError(t, err)

	_, err = f.svc.Verify(ctx, admin, input(order.ID))
	require.NoError(t, err)
	assert.Equal(t, int64(1), f.paidEvents(t))
}
