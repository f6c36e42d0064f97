package enums

// PaymentStatus tracks whether money for an order has been received.
// Orders start PENDING; online orders flip to PAID on a verified Razorpay
// signature, COD orders on delivery.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
)

func (p PaymentStatus) String() string { return string(p) }

func (p PaymentStatus) IsValid() bool {
	switch p {
	case PaymentStatusPending, PaymentStatusPaid:
		return true
	}
	return false
}

// IsSettled reports whether no further payment is expected.
func (p PaymentStatus) IsSettled() bool {
	return p == PaymentStatusPaid
}
