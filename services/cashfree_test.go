package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"gymstack-backend/common"

	"github.com/stretchr/testify/assert"
)

func newTestCashfree(baseURL string) *CashfreeService {
	cfg := common.DefaultConfig()
	cfg.CashfreeAppID = "app_test"
	cfg.CashfreeSecretKey = "secret_test"
	if baseURL != "" {
		cfg.CashfreeAPIURL = baseURL
	}
	return NewCashfreeService(cfg)
}

func cashfreeVerifyServer(t *testing.T, paymentStatus string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "app_test", r.Header.Get("x-client-id"))
		assert.Equal(t, "secret_test", r.Header.Get("x-client-secret"))
		assert.Equal(t, common.CASHFREE_API_VERSION, r.Header.Get("x-api-version"))

		w.Header().Set("Content-Type", "application/json")
		resp := map[string]interface{}{
			"order_id":       "order_1",
			"cf_payment_id":  "cf_42",
			"payment_amount": 7999.0,
		}
		if paymentStatus != "" {
			resp["payment_status"] = paymentStatus
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestCashfreeVerifySuccess(t *testing.T) {
	server := cashfreeVerifyServer(t, "SUCCESS")
	defer server.Close()

	svc := newTestCashfree(server.URL)
	err := svc.Verify(context.Background(), VerifyParams{OrderID: "order_1", PaymentID: "cf_42"})
	assert.NoError(t, err)
}

// Anything short of a literal SUCCESS fails closed, pending included.
func TestCashfreeVerifyRejectsNonSuccess(t *testing.T) {
	for _, status := range []string{"PENDING", "FAILED", "USER_DROPPED", "success", ""} {
		server := cashfreeVerifyServer(t, status)

		svc := newTestCashfree(server.URL)
		err := svc.Verify(context.Background(), VerifyParams{OrderID: "order_1", PaymentID: "cf_42"})
		assert.ErrorIs(t, err, ErrPaymentNotConfirmed, fmt.Sprintf("status %q", status))

		server.Close()
	}
}

func TestCashfreeVerifyNotConfigured(t *testing.T) {
	svc := NewCashfreeService(common.DefaultConfig())
	err := svc.Verify(context.Background(), VerifyParams{OrderID: "o", PaymentID: "p"})
	assert.ErrorIs(t, err, ErrGatewayNotConfigured)
}

func TestCashfreeCreateOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)

		var payload map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "order_1700000000000_abcdefghi", payload["order_id"])
		assert.Equal(t, 7999.0, payload["order_amount"])
		assert.Equal(t, "INR", payload["order_currency"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"order_id":"order_1700000000000_abcdefghi","order_amount":7999,"order_currency":"INR","order_status":"ACTIVE","payment_session_id":"session_xyz"}`))
	}))
	defer server.Close()

	svc := newTestCashfree(server.URL)
	order, err := svc.CreateOrder(context.Background(), CreateOrderParams{
		OrderID: "order_1700000000000_abcdefghi",
		Amount:  7999,
		Customer: CustomerDetails{
			ID:    "iron-fitness",
			Name:  "Asha Rao",
			Email: "asha@example.com",
			Phone: "9999999999",
		},
	})
	assert.NoError(t, err)
	assert.Equal(t, "session_xyz", order.PaymentSessionID)
	assert.Equal(t, "ACTIVE", order.Status)
}

func TestCashfreeGetPaymentStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/orders/order_1":
			w.Write([]byte(`{"order_id":"order_1","order_amount":7999,"order_currency":"INR","order_status":"PAID"}`))
		case "/orders/order_1/payments":
			w.Write([]byte(`[{"order_id":"order_1","cf_payment_id":"cf_42","payment_status":"SUCCESS","payment_amount":7999}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	svc := newTestCashfree(server.URL)
	order, payment, err := svc.GetPaymentStatus(context.Background(), "order_1")
	assert.NoError(t, err)
	assert.Equal(t, "PAID", order.Status)
	assert.NotNil(t, payment)
	assert.Equal(t, "cf_42", payment.PaymentID)
	assert.Equal(t, "SUCCESS", payment.Status)
}

func TestCashfreeGetPaymentStatusNoPayments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/orders/order_1":
			w.Write([]byte(`{"order_id":"order_1","order_amount":7999,"order_currency":"INR","order_status":"ACTIVE"}`))
		case "/orders/order_1/payments":
			w.Write([]byte(`[]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	svc := newTestCashfree(server.URL)
	order, payment, err := svc.GetPaymentStatus(context.Background(), "order_1")
	assert.NoError(t, err)
	assert.Equal(t, "ACTIVE", order.Status)
	assert.Nil(t, payment)
}
