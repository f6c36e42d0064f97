package razorpay

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/rugstore-backend/pkg/config"
)

type stubOrders struct {
	data map[string]interface{}
	err  error
}

func (s *stubOrders) Create(data map[string]interface{}, _ map[string]string) (map[string]interface{}, error) {
	s.data = data
	if s.err != nil {
		return nil, s.err
	}
	return map[string]interface{}{
		"id":       "order_abc",
		"amount":   data["amount"],
		"currency": data["currency"],
		"receipt":  data["receipt"],
		"status":   "created",
	}, nil
}

func TestCreateOrderSendsPaiseAndDefaultCurrency(t *testing.T) {
	orders := &stubOrders{}
	client := newClient(orders, config.RazorpayConfig{KeySecret: "secret"}, nil)

	res, err := client.CreateOrder(context.Background(), OrderRequest{AmountPaise: 129900, Receipt: "receipt_1"})
	require.NoError(t, err)
	assert.Equal(t, int64(129900), orders.data["amount"])
	assert.Equal(t, "INR", orders.data["currency"])
	assert.Equal(t, "order_abc", res["id"])
}

func TestCreateOrderRejectsNonPositiveAmount(t *testing.T) {
	client := newClient(&stubOrders{}, config.RazorpayConfig{KeySecret: "secret"}, nil)
	_, err := client.CreateOrder(context.Background(), OrderRequest{AmountPaise: 0})
	assert.Error(t, err)
}

func TestCreateOrderWrapsGatewayError(t *testing.T) {
	client := newClient(&stubOrders{err: errors.New("bad request")}, config.RazorpayConfig{KeySecret: "secret"}, nil)
	_, err := client.CreateOrder(context.Background(), OrderRequest{AmountPaise: 100})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad request")
}

func TestNewClientRequiresSecret(t *testing.T) {
	_, err := NewClient(config.RazorpayConfig{KeyID: "rzp_test"}, nil)
	assert.Error(t, err)
}

func TestVerifySignature(t *testing.T) {
	secret := "s3cr3t"
	sig := Sign(secret, "order_1", "pay_1")
	assert.Len(t, sig, 64)

	assert.True(t, VerifySignature(secret, "order_1", "pay_1", sig))
	assert.False(t, VerifySignature(secret, "order_1", "pay_2", sig))
	assert.False(t, VerifySignature("other", "order_1", "pay_1", sig))
	tampered := []byte(sig)
	if tampered[0] == 'a' {
		tampered[0] = 'b'
	} else {
		tampered[0] = 'a'
	}
	assert.False(t, VerifySignature(secret, "order_1", "pay_1", string(tampered)))
	assert.False(t, VerifySignature(secret, "order_1", "pay_1", ""))

	client := newClient(&stubOrders{}, config.RazorpayConfig{KeySecret: secret}, nil)
	assert.True(t, client.VerifySignature("order_1", "pay_1", sig))
}
