package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"gymstack-backend/common"
	"gymstack-backend/sections/models"
)

// State is the registration flow's current step. Transitions are linear;
// every failure lands in StateFailed, which Reset recovers from.
type State string

const (
	StateIdle      State = "idle"
	StateFormValid State = "form_valid"
	StateCheckout  State = "checkout_open"
	StateVerifying State = "payment_verifying"
	StateProvision State = "provisioning"
	StateSuccess   State = "success"
	StateFailed    State = "failed"
)

// ErrCheckoutCancelled means the customer dismissed the checkout before
// paying. Nothing was charged and the flow can restart cleanly.
var ErrCheckoutCancelled = errors.New("checkout cancelled")

// PostCaptureError is a failure after money moved. It keeps the gateway ids
// the customer needs for a support claim.
type PostCaptureError struct {
	OrderID   string
	PaymentID string
	Err       error
}

func (e *PostCaptureError) Error() string {
	return fmt.Sprintf("registration failed after payment capture (order %s, payment %s): %v", e.OrderID, e.PaymentID, e.Err)
}

func (e *PostCaptureError) Unwrap() error {
	return e.Err
}

// RegistrationForm is the customer-facing registration payload.
// PasswordConfirm is checked locally and never sent to the backend.
type RegistrationForm struct {
	Name            string          `json:"name"`
	Slug            string          `json:"slug"`
	Email           string          `json:"email"`
	Phone           string          `json:"phone"`
	Address         string          `json:"address"`
	AdminName       string          `json:"admin_name"`
	Password        string          `json:"password"`
	PasswordConfirm string          `json:"-"`
	PlanType        common.PlanType `json:"plan_type"`
}

// OrderInfo describes the created gateway order handed to checkout.
type OrderInfo struct {
	OrderID          string  `json:"order_id"`
	Amount           float64 `json:"order_amount"`
	Currency         string  `json:"order_currency"`
	PaymentSessionID string  `json:"payment_session_id,omitempty"`
	Gateway          string  `json:"gateway"`
}

// CheckoutResult is what a completed checkout hands back. The signature is
// set only by the HMAC gateway; the session gateway leaves PaymentID empty
// and the client fetches it through the status endpoint.
type CheckoutResult struct {
	OrderID   string
	PaymentID string
	Signature string
}

// CheckoutOpener drives the gateway's hosted checkout. OpenCheckout blocks
// until the customer completes or dismisses it; a dismissal returns
// ErrCheckoutCancelled.
type CheckoutOpener interface {
	OpenCheckout(ctx context.Context, order *OrderInfo) (*CheckoutResult, error)
}

// RegistrationOutcome is the result of a successful registration.
type RegistrationOutcome struct {
	Gym   *models.Gym  `json:"gym"`
	User  *models.User `json:"user"`
	Token string       `json:"token,omitempty"`
}

// RegistrationClient walks a registration through order creation, checkout,
// verification and provisioning against the backend functions API.
type RegistrationClient struct {
	baseURL       string
	httpClient    *http.Client
	opener        CheckoutOpener
	logger        *slog.Logger
	state         State
	onStateChange func(State)
}

// Option configures a RegistrationClient.
type Option func(*RegistrationClient)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *RegistrationClient) { c.httpClient = hc }
}

// WithStateListener registers a callback invoked on every state change.
func WithStateListener(fn func(State)) Option {
	return func(c *RegistrationClient) { c.onStateChange = fn }
}

// NewRegistrationClient creates a new registration client
func NewRegistrationClient(baseURL string, opener CheckoutOpener, opts ...Option) *RegistrationClient {
	c := &RegistrationClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		opener:     opener,
		logger:     slog.With("service", "RegistrationClient"),
		state:      StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current flow state.
func (c *RegistrationClient) State() State {
	return c.state
}

// Reset returns a failed or finished flow to idle so it can run again.
func (c *RegistrationClient) Reset() {
	c.setState(StateIdle)
}

func (c *RegistrationClient) setState(s State) {
	c.state = s
	if c.onStateChange != nil {
		c.onStateChange(s)
	}
}

func (c *RegistrationClient) fail(err error) error {
	c.setState(StateFailed)
	return err
}

// Validate checks the form before any money moves.
func (f *RegistrationForm) Validate() error {
	if f.Name == "" || f.Email == "" || f.AdminName == "" {
		return errors.New("name, email and admin name are required")
	}
	if len(f.Password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	if f.PasswordConfirm != "" && f.PasswordConfirm != f.Password {
		return errors.New("passwords do not match")
	}
	if !common.ValidSlug(f.Slug) {
		return fmt.Errorf("invalid slug %q", f.Slug)
	}
	if !f.PlanType.Valid() {
		return fmt.Errorf("invalid plan type %q", f.PlanType)
	}
	return nil
}

// Register runs the full flow. An error before checkout completion means no
// charge happened; afterwards it is a *PostCaptureError.
func (c *RegistrationClient) Register(ctx context.Context, form RegistrationForm) (*RegistrationOutcome, error) {
	if c.state != StateIdle {
		return nil, fmt.Errorf("registration already in progress (state %s)", c.state)
	}

	if err := form.Validate(); err != nil {
		return nil, c.fail(err)
	}

	// Advisory pre-check; the unique index decides at provisioning time.
	available, err := c.SlugAvailable(ctx, form.Slug)
	if err != nil {
		return nil, c.fail(fmt.Errorf("failed to check slug availability: %w", err))
	}
	if !available {
		return nil, c.fail(fmt.Errorf("slug %q is already taken", form.Slug))
	}
	c.setState(StateFormValid)

	order, err := c.createOrder(ctx, &form)
	if err != nil {
		return nil, c.fail(fmt.Errorf("failed to create order: %w", err))
	}
	c.logger.Info("Order created", "order_id", order.OrderID, "gateway", order.Gateway)

	c.setState(StateCheckout)
	result, err := c.opener.OpenCheckout(ctx, order)
	if err != nil {
		if errors.Is(err, ErrCheckoutCancelled) {
			c.logger.Info("Checkout cancelled", "order_id", order.OrderID)
			c.setState(StateIdle)
			return nil, ErrCheckoutCancelled
		}
		return nil, c.fail(fmt.Errorf("checkout failed: %w", err))
	}
	if result.OrderID == "" {
		result.OrderID = order.OrderID
	}

	c.setState(StateVerifying)

	// The session gateway's checkout reports completion without a payment id;
	// fetch it from the authoritative status endpoint.
	if result.PaymentID == "" {
		paymentID, err := c.fetchPaymentID(ctx, result.OrderID)
		if err != nil {
			return nil, c.fail(&PostCaptureError{OrderID: result.OrderID, Err: err})
		}
		result.PaymentID = paymentID
	}

	c.setState(StateProvision)
	outcome, err := c.verifyPayment(ctx, &form, result)
	if err != nil {
		return nil, c.fail(&PostCaptureError{OrderID: result.OrderID, PaymentID: result.PaymentID, Err: err})
	}

	c.setState(StateSuccess)
	c.logger.Info("Registration complete", "gym_id", outcome.Gym.ID, "slug", outcome.Gym.Slug)
	return outcome, nil
}

type createOrderResponse struct {
	Success bool       `json:"success"`
	Order   *OrderInfo `json:"order"`
	Gateway string     `json:"gateway"`
}

func (c *RegistrationClient) createOrder(ctx context.Context, form *RegistrationForm) (*OrderInfo, error) {
	payload := map[string]interface{}{
		"plan_type": form.PlanType,
		"customer": map[string]string{
			"customer_id":    form.Slug,
			"customer_name":  form.AdminName,
			"customer_email": form.Email,
			"customer_phone": form.Phone,
		},
	}

	var resp createOrderResponse
	if err := c.post(ctx, "/functions/create-order", payload, &resp); err != nil {
		return nil, err
	}
	if resp.Order == nil {
		return nil, errors.New("no order in response")
	}
	resp.Order.Gateway = resp.Gateway
	return resp.Order, nil
}

type paymentStatusResponse struct {
	Success bool `json:"success"`
	Payment *struct {
		PaymentID string `json:"cf_payment_id"`
		Status    string `json:"payment_status"`
	} `json:"payment"`
}

func (c *RegistrationClient) fetchPaymentID(ctx context.Context, orderID string) (string, error) {
	var resp paymentStatusResponse
	err := c.post(ctx, "/functions/get-payment-status", map[string]string{"order_id": orderID}, &resp)
	if err != nil {
		return "", err
	}
	if resp.Payment == nil || resp.Payment.PaymentID == "" {
		return "", errors.New("no payment recorded against order")
	}
	return resp.Payment.PaymentID, nil
}

type verifyPaymentResponse struct {
	Success bool         `json:"success"`
	Gym     *models.Gym  `json:"gym"`
	User    *models.User `json:"user"`
	Token   string       `json:"token"`
}

func (c *RegistrationClient) verifyPayment(ctx context.Context, form *RegistrationForm, result *CheckoutResult) (*RegistrationOutcome, error) {
	payload := map[string]interface{}{
		"order_id":     result.OrderID,
		"payment_id":   result.PaymentID,
		"signature":    result.Signature,
		"registration": form,
	}

	var resp verifyPaymentResponse
	if err := c.post(ctx, "/functions/verify-payment", payload, &resp); err != nil {
		return nil, err
	}
	return &RegistrationOutcome{Gym: resp.Gym, User: resp.User, Token: resp.Token}, nil
}

// SlugAvailable asks the backend whether a slug is still free.
func (c *RegistrationClient) SlugAvailable(ctx context.Context, slug string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/functions/slug-available?slug="+slug, nil)
	if err != nil {
		return false, fmt.Errorf("failed to build request: %w", err)
	}

	var resp struct {
		Success   bool `json:"success"`
		Available bool `json:"available"`
	}
	if err := c.do(req, &resp); err != nil {
		return false, err
	}
	return resp.Available, nil
}

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Message    string
	Details    map[string]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Message)
}

func (c *RegistrationClient) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *RegistrationClient) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: string(data)}
		var body struct {
			Error   string            `json:"error"`
			Details map[string]string `json:"details"`
		}
		if json.Unmarshal(data, &body) == nil && body.Error != "" {
			apiErr.Message = body.Error
			apiErr.Details = body.Details
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
