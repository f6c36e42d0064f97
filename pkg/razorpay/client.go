package razorpay

import (
	"context"
	"errors"
	"fmt"
	"strings"

	rzp "github.com/razorpay/razorpay-go"

	"github.com/angelmondragon/rugstore-backend/pkg/config"
	"github.com/angelmondragon/rugstore-backend/pkg/logger"
)

type orderAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// OrderRequest describes a gateway order to create.
type OrderRequest struct {
	AmountPaise int64
	Currency    string
	Receipt     string
}

// Client wraps the Razorpay SDK with the configured key pair.
type Client struct {
	orders   orderAPI
	secret   string
	currency string
	logg     *logger.Logger
}

// NewClient builds a Razorpay client from config.
func NewClient(cfg config.RazorpayConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.KeySecret) == "" {
		return nil, errors.New("razorpay key secret is required")
	}
	sdk := rzp.NewClient(cfg.KeyID, cfg.KeySecret)
	return newClient(sdk.Order, cfg, logg), nil
}

func newClient(orders orderAPI, cfg config.RazorpayConfig, logg *logger.Logger) *Client {
	currency := cfg.Currency
	if currency == "" {
		currency = "INR"
	}
	return &Client{orders: orders, secret: cfg.KeySecret, currency: currency, logg: logg}
}

// CreateOrder creates a gateway order and returns the raw gateway response.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (map[string]interface{}, error) {
	if req.AmountPaise <= 0 {
		return nil, errors.New("amount must be positive")
	}
	currency := req.Currency
	if currency == "" {
		currency = c.currency
	}
	order, err := c.orders.Create(map[string]interface{}{
		"amount":   req.AmountPaise,
		"currency": currency,
		"receipt":  req.Receipt,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay create order: %w", err)
	}
	if c.logg != nil {
		c.logg.Info(c.logg.WithFields(ctx, map[string]any{
			"receipt":          req.Receipt,
			"gateway_order_id": order["id"],
		}), "razorpay order created")
	}
	return order, nil
}

// VerifySignature checks a checkout callback signature with the client's secret.
func (c *Client) VerifySignature(orderID, paymentID, signature string) bool {
	return VerifySignature(c.secret, orderID, paymentID, signature)
}
