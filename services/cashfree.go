package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"gymstack-backend/common"
)

// CashfreeService integrates the status-query gateway. Checkout runs in an
// embedded modal on the client; success does not hand back a payment id, so
// the caller must fetch authoritative payment status by order id afterwards.
type CashfreeService struct {
	appID      string
	secretKey  string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewCashfreeService creates a new Cashfree service
func NewCashfreeService(cfg *common.Config) *CashfreeService {
	timeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	return &CashfreeService{
		appID:      cfg.CashfreeAppID,
		secretKey:  cfg.CashfreeSecretKey,
		baseURL:    cfg.CashfreeAPIURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.With("service", "CashfreeService"),
	}
}

func (s *CashfreeService) Name() string {
	return "cashfree"
}

func (s *CashfreeService) configured() bool {
	return s.appID != "" && s.secretKey != ""
}

func (s *CashfreeService) doRequest(ctx context.Context, method, path string, body interface{}, out interface{}) error {
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
	req.Header.Set("x-client-id", s.appID)
	req.Header.Set("x-client-secret", s.secretKey)
	req.Header.Set("x-api-version", common.CASHFREE_API_VERSION)
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
		s.logger.Error("Cashfree API rejected request", "status", resp.StatusCode, "path", path)
		return &GatewayAPIError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode gateway response: %w", err)
		}
	}
	return nil
}

type cashfreeOrderPayload struct {
	OrderID         string            `json:"order_id"`
	OrderAmount     float64           `json:"order_amount"`
	OrderCurrency   string            `json:"order_currency"`
	CustomerDetails CustomerDetails   `json:"customer_details"`
	OrderMeta       map[string]string `json:"order_meta"`
}

// CreateOrder creates a Cashfree order
func (s *CashfreeService) CreateOrder(ctx context.Context, params CreateOrderParams) (*Order, error) {
	currency := params.Currency
	if currency == "" {
		currency = common.DEFAULT_CURRENCY
	}
	meta := params.Metadata
	if meta == nil {
		meta = map[string]string{}
	}

	payload := cashfreeOrderPayload{
		OrderID:         params.OrderID,
		OrderAmount:     params.Amount,
		OrderCurrency:   currency,
		CustomerDetails: params.Customer,
		OrderMeta:       meta,
	}

	var order Order
	if err := s.doRequest(ctx, http.MethodPost, "/orders", payload, &order); err != nil {
		return nil, err
	}

	s.logger.Info("Created Cashfree order", "order_id", order.OrderID, "amount", order.Amount)
	return &order, nil
}

// GetPaymentStatus fetches the order plus its first recorded payment.
func (s *CashfreeService) GetPaymentStatus(ctx context.Context, orderID string) (*Order, *PaymentStatus, error) {
	var order Order
	if err := s.doRequest(ctx, http.MethodGet, "/orders/"+orderID, nil, &order); err != nil {
		return nil, nil, err
	}

	var payments []PaymentStatus
	if err := s.doRequest(ctx, http.MethodGet, "/orders/"+orderID+"/payments", nil, &payments); err != nil {
		return nil, nil, err
	}

	if len(payments) == 0 {
		return &order, nil, nil
	}
	return &order, &payments[0], nil
}

// Verify queries the authoritative payment-status endpoint and accepts only
// a literal SUCCESS status.
func (s *CashfreeService) Verify(ctx context.Context, params VerifyParams) error {
	var payment PaymentStatus
	path := fmt.Sprintf("/orders/%s/payments/%s", params.OrderID, params.PaymentID)
	if err := s.doRequest(ctx, http.MethodGet, path, nil, &payment); err != nil {
		return err
	}

	if payment.Status != "SUCCESS" {
		s.logger.Warn("Payment not successful", "order_id", params.OrderID, "payment_id", params.PaymentID, "status", payment.Status)
		return fmt.Errorf("%w: status %q", ErrPaymentNotConfirmed, payment.Status)
	}

	s.logger.Info("Payment verified", "order_id", params.OrderID, "payment_id", params.PaymentID)
	return nil
}
