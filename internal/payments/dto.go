package payments

// CreateOrderInput is the amount, in rupees, to open a gateway order for.
type CreateOrderInput struct {
	Amount float64 `json:"amount" validate:"gt=0"`
}

// VerifyInput is the checkout callback forwarded by the storefront.
type VerifyInput struct {
	RazorpayOrderID   string `json:"razorpay_order_id" validate:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	RazorpaySignature string `json:"razorpay_signature" validate:"required"`
	OrderID           string `json:"orderId" validate:"required,uuid"`
}

// VerifyResult acknowledges a verified payment.
type VerifyResult struct {
	Success bool `json:"success"`
}
