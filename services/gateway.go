package services

import (
	"context"
	"errors"
	"fmt"

	"gymstack-backend/common"
)

var (
	// ErrGatewayNotConfigured means the server-side gateway credentials are
	// unset. Fatal for the attempt; callers surface a generic message.
	ErrGatewayNotConfigured = errors.New("payment gateway credentials not configured")

	// ErrInvalidSignature means HMAC verification failed. Always fail closed.
	ErrInvalidSignature = errors.New("invalid payment signature")

	// ErrPaymentNotConfirmed means the gateway did not report the payment as
	// successful. Any status other than SUCCESS, including pending, fails.
	ErrPaymentNotConfirmed = errors.New("payment not confirmed")
)

// GatewayAPIError carries an upstream rejection with its response body.
type GatewayAPIError struct {
	StatusCode int
	Body       string
}

func (e *GatewayAPIError) Error() string {
	return fmt.Sprintf("gateway API error: status %d: %s", e.StatusCode, e.Body)
}

// CustomerDetails identifies the paying customer on an order.
type CustomerDetails struct {
	ID    string `json:"customer_id"`
	Name  string `json:"customer_name"`
	Email string `json:"customer_email"`
	Phone string `json:"customer_phone"`
}

// CreateOrderParams describes a gateway order to be created.
type CreateOrderParams struct {
	OrderID  string
	Amount   float64
	Currency string
	Customer CustomerDetails
	Metadata map[string]string
}

// Order is a gateway-side payment intent, immutable once created.
type Order struct {
	OrderID          string  `json:"order_id"`
	Amount           float64 `json:"order_amount"`
	Currency         string  `json:"order_currency"`
	Status           string  `json:"order_status,omitempty"`
	PaymentSessionID string  `json:"payment_session_id,omitempty"`
}

// PaymentStatus is the gateway's authoritative view of a payment.
type PaymentStatus struct {
	OrderID   string  `json:"order_id"`
	PaymentID string  `json:"cf_payment_id"`
	Status    string  `json:"payment_status"`
	Amount    float64 `json:"payment_amount"`
}

// VerifyParams carries the identifiers for payment verification. Signature is
// only meaningful for the HMAC gateway.
type VerifyParams struct {
	OrderID   string
	PaymentID string
	Signature string
}

// Gateway abstracts the two payment processor integrations behind one
// contract, selected by configuration.
type Gateway interface {
	Name() string
	CreateOrder(ctx context.Context, params CreateOrderParams) (*Order, error)
	GetPaymentStatus(ctx context.Context, orderID string) (*Order, *PaymentStatus, error)
	// Verify confirms a claimed payment is genuine. It returns
	// ErrInvalidSignature or ErrPaymentNotConfirmed on failure and must be
	// called before any provisioning happens.
	Verify(ctx context.Context, params VerifyParams) error
}

// NewGateway builds the configured gateway integration.
func NewGateway(cfg *common.Config) (Gateway, error) {
	switch cfg.Gateway {
	case "cashfree":
		return NewCashfreeService(cfg), nil
	case "razorpay":
		return NewRazorpayService(cfg), nil
	default:
		return nil, fmt.Errorf("unknown payment gateway: %q", cfg.Gateway)
	}
}
