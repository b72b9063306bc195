package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"gymstack-backend/common"
)

// RazorpayService integrates the HMAC gateway. Checkout is a hosted modal
// loaded from a remote script on the client; the success callback hands back
// order id, payment id and a signature which is verified server-side.
type RazorpayService struct {
	keyID      string
	keySecret  string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewRazorpayService creates a new Razorpay service
func NewRazorpayService(cfg *common.Config) *RazorpayService {
	timeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	return &RazorpayService{
		keyID:      cfg.RazorpayKeyID,
		keySecret:  cfg.RazorpayKeySecret,
		baseURL:    cfg.RazorpayAPIURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.With("service", "RazorpayService"),
	}
}

func (s *RazorpayService) Name() string {
	return "razorpay"
}

func (s *RazorpayService) configured() bool {
	return s.keyID != "" && s.keySecret != ""
}

func (s *RazorpayService) doRequest(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	if !s.configured() {
		return ErrGatewayNotConfigured
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.SetBasicAuth(s.keyID, s.keySecret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.logger.Error("Razorpay API rejected request", "status", resp.StatusCode, "path", path)
		return &GatewayAPIError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode gateway response: %w", err)
		}
	}
	return nil
}

type razorpayOrderPayload struct {
	Amount   int64             `json:"amount"` // smallest currency unit
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type razorpayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
	Receipt  string `json:"receipt"`
}

type razorpayPayment struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
	Amount  int64  `json:"amount"`
	Status  string `json:"status"`
}

type razorpayPaymentList struct {
	Count int               `json:"count"`
	Items []razorpayPayment `json:"items"`
}

// CreateOrder creates a Razorpay order. The generated receipt keeps the
// platform-side order id; the returned order carries Razorpay's own id.
func (s *RazorpayService) CreateOrder(ctx context.Context, params CreateOrderParams) (*Order, error) {
	currency := params.Currency
	if currency == "" {
		currency = common.DEFAULT_CURRENCY
	}

	payload := razorpayOrderPayload{
		Amount:   int64(params.Amount * 100),
		Currency: currency,
		Receipt:  params.OrderID,
		Notes:    params.Metadata,
	}

	var rzpOrder razorpayOrder
	if err := s.doRequest(ctx, http.MethodPost, "/v1/orders", payload, &rzpOrder); err != nil {
		return nil, err
	}

	s.logger.Info("Created Razorpay order", "order_id", rzpOrder.ID, "receipt", rzpOrder.Receipt)
	return &Order{
		OrderID:  rzpOrder.ID,
		Amount:   float64(rzpOrder.Amount) / 100,
		Currency: rzpOrder.Currency,
		Status:   rzpOrder.Status,
	}, nil
}

// GetPaymentStatus lists the payments captured against an order.
func (s *RazorpayService) GetPaymentStatus(ctx context.Context, orderID string) (*Order, *PaymentStatus, error) {
	var rzpOrder razorpayOrder
	if err := s.doRequest(ctx, http.MethodGet, "/v1/orders/"+orderID, nil, &rzpOrder); err != nil {
		return nil, nil, err
	}

	order := &Order{
		OrderID:  rzpOrder.ID,
		Amount:   float64(rzpOrder.Amount) / 100,
		Currency: rzpOrder.Currency,
		Status:   rzpOrder.Status,
	}

	var list razorpayPaymentList
	if err := s.doRequest(ctx, http.MethodGet, "/v1/orders/"+orderID+"/payments", nil, &list); err != nil {
		return nil, nil, err
	}
	if len(list.Items) == 0 {
		return order, nil, nil
	}

	p := list.Items[0]
	status := p.Status
	if status == "captured" {
		status = "SUCCESS"
	}
	return order, &PaymentStatus{
		OrderID:   p.OrderID,
		PaymentID: p.ID,
		Status:    status,
		Amount:    float64(p.Amount) / 100,
	}, nil
}

// Verify recomputes the checkout signature and compares it to the claimed
// one. A mismatch fails closed; the caller must not proceed to provisioning.
func (s *RazorpayService) Verify(ctx context.Context, params VerifyParams) error {
	if s.keySecret == "" {
		return ErrGatewayNotConfigured
	}
	if params.Signature == "" {
		return ErrInvalidSignature
	}

	expected := Signature(s.keySecret, params.OrderID, params.PaymentID)
	if expected != params.Signature {
		s.logger.Warn("Signature mismatch", "order_id", params.OrderID, "payment_id", params.PaymentID)
		return ErrInvalidSignature
	}

	s.logger.Info("Payment signature verified", "order_id", params.OrderID, "payment_id", params.PaymentID)
	return nil
}

// Signature computes the lowercase hex HMAC-SHA256 of "order_id|payment_id".
func Signature(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
