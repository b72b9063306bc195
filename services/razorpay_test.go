package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"gymstack-backend/common"

	"github.com/stretchr/testify/assert"
)

func newTestRazorpay(baseURL string) *RazorpayService {
	cfg := common.DefaultConfig()
	cfg.RazorpayKeyID = "rzp_test_key"
	cfg.RazorpayKeySecret = "s3cret"
	if baseURL != "" {
		cfg.RazorpayAPIURL = baseURL
	}
	return NewRazorpayService(cfg)
}

func TestSignature(t *testing.T) {
	// HMAC-SHA256("order_1|pay_1", "s3cret") as lowercase hex
	sig := Signature("s3cret", "order_1", "pay_1")
	assert.Equal(t, "44422d618d76e6e81c5f002f4d5108385750b52eb8db4e9c7a4231ddfac02840", sig)

	// Sensitive to every input
	assert.Equal(t, sig, Signature("s3cret", "order_1", "pay_1"))
	assert.NotEqual(t, sig, Signature("s3cret", "order_2", "pay_1"))
	assert.NotEqual(t, sig, Signature("s3cret", "order_1", "pay_2"))
	assert.NotEqual(t, sig, Signature("other", "order_1", "pay_1"))
}

func TestRazorpayVerify(t *testing.T) {
	svc := newTestRazorpay("")
	ctx := context.Background()

	valid := Signature("s3cret", "order_1", "pay_1")

	err := svc.Verify(ctx, VerifyParams{OrderID: "order_1", PaymentID: "pay_1", Signature: valid})
	assert.NoError(t, err)
}

func TestRazorpayVerifyRejectsMismatch(t *testing.T) {
	svc := newTestRazorpay("")
	ctx := context.Background()

	valid := Signature("s3cret", "order_1", "pay_1")

	// Flip one hex character
	mutated := []byte(valid)
	if mutated[0] == 'a' {
		mutated[0] = 'b'
	} else {
		mutated[0] = 'a'
	}

	cases := map[string]VerifyParams{
		"mutated signature":  {OrderID: "order_1", PaymentID: "pay_1", Signature: string(mutated)},
		"wrong order id":     {OrderID: "order_2", PaymentID: "pay_1", Signature: valid},
		"wrong payment id":   {OrderID: "order_1", PaymentID: "pay_2", Signature: valid},
		"uppercased hex":     {OrderID: "order_1", PaymentID: "pay_1", Signature: "A" + valid[1:]},
		"truncated":          {OrderID: "order_1", PaymentID: "pay_1", Signature: valid[:63]},
		"empty signature":    {OrderID: "order_1", PaymentID: "pay_1", Signature: ""},
		"swapped components": {OrderID: "pay_1", PaymentID: "order_1", Signature: valid},
	}
	for name, params := range cases {
		err := svc.Verify(ctx, params)
		assert.ErrorIs(t, err, ErrInvalidSignature, name)
	}
}

func TestRazorpayVerifyNotConfigured(t *testing.T) {
	svc := NewRazorpayService(common.DefaultConfig())
	err := svc.Verify(context.Background(), VerifyParams{OrderID: "o", PaymentID: "p", Signature: "s"})
	assert.ErrorIs(t, err, ErrGatewayNotConfigured)
}

func TestRazorpayCreateOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "s3cret", pass)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"order_rzp123","amount":799900,"currency":"INR","status":"created","receipt":"order_1700000000000_abcdefghi"}`))
	}))
	defer server.Close()

	svc := newTestRazorpay(server.URL)
	order, err := svc.CreateOrder(context.Background(), CreateOrderParams{
		OrderID: "order_1700000000000_abcdefghi",
		Amount:  7999,
	})
	assert.NoError(t, err)
	assert.Equal(t, "order_rzp123", order.OrderID)
	assert.Equal(t, 7999.0, order.Amount)
	assert.Equal(t, "INR", order.Currency)
}

func TestRazorpayGetPaymentStatusMapsCaptured(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/orders/order_rzp123":
			w.Write([]byte(`{"id":"order_rzp123","amount":799900,"currency":"INR","status":"paid"}`))
		case "/v1/orders/order_rzp123/payments":
			w.Write([]byte(`{"count":1,"items":[{"id":"pay_x1","order_id":"order_rzp123","amount":799900,"status":"captured"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	svc := newTestRazorpay(server.URL)
	order, payment, err := svc.GetPaymentStatus(context.Background(), "order_rzp123")
	assert.NoError(t, err)
	assert.Equal(t, "paid", order.Status)
	assert.NotNil(t, payment)
	assert.Equal(t, "pay_x1", payment.PaymentID)
	assert.Equal(t, "SUCCESS", payment.Status)
}

func TestRazorpayAPIErrorPassthrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"description":"amount too small"}}`))
	}))
	defer server.Close()

	svc := newTestRazorpay(server.URL)
	_, err := svc.CreateOrder(context.Background(), CreateOrderParams{OrderID: "o", Amount: 1})
	assert.Error(t, err)

	var apiErr *GatewayAPIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "amount too small")
}
