package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"gymstack-backend/common"

	"github.com/stretchr/testify/assert"
)

// scriptedOpener returns a fixed checkout result or error.
type scriptedOpener struct {
	result *CheckoutResult
	err    error
	opened int
}

func (o *scriptedOpener) OpenCheckout(ctx context.Context, order *OrderInfo) (*CheckoutResult, error) {
	o.opened++
	if o.err != nil {
		return nil, o.err
	}
	if o.result.OrderID == "" {
		o.result.OrderID = order.OrderID
	}
	return o.result, nil
}

func validForm() RegistrationForm {
	return RegistrationForm{
		Name:      "Iron Fitness",
		Slug:      "iron-fitness",
		Email:     "owner@ironfitness.in",
		Phone:     "9999999999",
		AdminName: "Asha Rao",
		Password:  "correct-horse",
		PlanType:  common.PlanQuarterly,
	}
}

// backendStub fakes the registration functions endpoints.
func backendStub(t *testing.T, withPayment bool, verifyStatus int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/functions/slug-available":
			w.Write([]byte(`{"success":true,"slug":"iron-fitness","available":true}`))
		case "/functions/create-order":
			w.Write([]byte(`{"success":true,"gateway":"cashfree","order":{"order_id":"order_1","order_amount":7999,"order_currency":"INR","payment_session_id":"session_x"}}`))
		case "/functions/get-payment-status":
			if withPayment {
				w.Write([]byte(`{"success":true,"payment":{"cf_payment_id":"cf_42","payment_status":"SUCCESS"}}`))
			} else {
				w.Write([]byte(`{"success":true,"payment":null}`))
			}
		case "/functions/verify-payment":
			if verifyStatus != http.StatusOK {
				w.WriteHeader(verifyStatus)
				w.Write([]byte(`{"success":false,"error":"payment already used for a registration","details":{"order_id":"order_1","payment_id":"cf_42"}}`))
				return
			}
			var body map[string]interface{}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "order_1", body["order_id"])
			assert.Equal(t, "cf_42", body["payment_id"])
			w.Write([]byte(`{"success":true,"gym":{"id":"gym_1","slug":"iron-fitness","plan_type":"quarterly"},"user":{"id":"user_1","email":"owner@ironfitness.in"},"token":"jwt_abc"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestRegisterFullFlow(t *testing.T) {
	server := backendStub(t, true, http.StatusOK)
	defer server.Close()

	var states []State
	opener := &scriptedOpener{result: &CheckoutResult{}}
	c := NewRegistrationClient(server.URL, opener, WithStateListener(func(s State) {
		states = append(states, s)
	}))

	outcome, err := c.Register(context.Background(), validForm())
	assert.NoError(t, err)
	assert.Equal(t, "iron-fitness", outcome.Gym.Slug)
	assert.Equal(t, "jwt_abc", outcome.Token)
	assert.Equal(t, 1, opener.opened)

	assert.Equal(t, StateSuccess, c.State())
	assert.Equal(t, []State{
		StateFormValid, StateCheckout, StateVerifying, StateProvision, StateSuccess,
	}, states)
}

func TestRegisterValidatesBeforeCharging(t *testing.T) {
	opener := &scriptedOpener{result: &CheckoutResult{}}
	c := NewRegistrationClient("http://unreachable.invalid", opener)

	form := validForm()
	form.Password = "short"
	_, err := c.Register(context.Background(), form)
	assert.Error(t, err)
	assert.Equal(t, 0, opener.opened)
	assert.Equal(t, StateFailed, c.State())

	form = validForm()
	form.Slug = "register"
	c.Reset()
	_, err = c.Register(context.Background(), form)
	assert.Error(t, err)
	assert.Equal(t, 0, opener.opened)

	form = validForm()
	form.PasswordConfirm = "different-horse"
	c.Reset()
	_, err = c.Register(context.Background(), form)
	assert.Error(t, err)
	assert.Equal(t, 0, opener.opened)
}

func TestRegisterStopsOnTakenSlug(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/functions/slug-available", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"slug":"iron-fitness","available":false}`))
	}))
	defer server.Close()

	opener := &scriptedOpener{result: &CheckoutResult{}}
	c := NewRegistrationClient(server.URL, opener)

	_, err := c.Register(context.Background(), validForm())
	assert.Error(t, err)
	assert.Equal(t, 0, opener.opened)
	assert.Equal(t, StateFailed, c.State())
}

func TestRegisterCancelledCheckoutReturnsToIdle(t *testing.T) {
	server := backendStub(t, true, http.StatusOK)
	defer server.Close()

	opener := &scriptedOpener{err: ErrCheckoutCancelled}
	c := NewRegistrationClient(server.URL, opener)

	_, err := c.Register(context.Background(), validForm())
	assert.ErrorIs(t, err, ErrCheckoutCancelled)

	// No money moved; the flow restarts without an explicit Reset
	assert.Equal(t, StateIdle, c.State())
}

// A checkout that reports no payment id gets it from the status endpoint.
func TestRegisterFetchesMissingPaymentID(t *testing.T) {
	server := backendStub(t, true, http.StatusOK)
	defer server.Close()

	opener := &scriptedOpener{result: &CheckoutResult{}}
	c := NewRegistrationClient(server.URL, opener)

	outcome, err := c.Register(context.Background(), validForm())
	assert.NoError(t, err)
	assert.Equal(t, "gym_1", outcome.Gym.ID)
}

func TestRegisterPostCaptureFailureKeepsIDs(t *testing.T) {
	server := backendStub(t, true, http.StatusBadRequest)
	defer server.Close()

	opener := &scriptedOpener{result: &CheckoutResult{PaymentID: "cf_42"}}
	c := NewRegistrationClient(server.URL, opener)

	_, err := c.Register(context.Background(), validForm())
	assert.Error(t, err)
	assert.Equal(t, StateFailed, c.State())

	var pce *PostCaptureError
	assert.ErrorAs(t, err, &pce)
	assert.Equal(t, "order_1", pce.OrderID)
	assert.Equal(t, "cf_42", pce.PaymentID)

	var apiErr *APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "cf_42", apiErr.Details["payment_id"])
}

func TestRegisterNoPaymentRecorded(t *testing.T) {
	server := backendStub(t, false, http.StatusOK)
	defer server.Close()

	opener := &scriptedOpener{result: &CheckoutResult{}}
	c := NewRegistrationClient(server.URL, opener)

	_, err := c.Register(context.Background(), validForm())
	assert.Error(t, err)

	var pce *PostCaptureError
	assert.ErrorAs(t, err, &pce)
	assert.Equal(t, "order_1", pce.OrderID)
	assert.Empty(t, pce.PaymentID)
}

func TestRegisterRejectsConcurrentRun(t *testing.T) {
	opener := &scriptedOpener{result: &CheckoutResult{}}
	c := NewRegistrationClient("http://unreachable.invalid", opener)
	c.state = StateVerifying

	_, err := c.Register(context.Background(), validForm())
	assert.Error(t, err)
}

func TestSlugAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/functions/slug-available", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("slug") == "iron-fitness" {
			w.Write([]byte(`{"success":true,"slug":"iron-fitness","available":true}`))
		} else {
			w.Write([]byte(`{"success":true,"slug":"taken","available":false}`))
		}
	}))
	defer server.Close()

	c := NewRegistrationClient(server.URL, nil)

	available, err := c.SlugAvailable(context.Background(), "iron-fitness")
	assert.NoError(t, err)
	assert.True(t, available)

	available, err = c.SlugAvailable(context.Background(), "taken")
	assert.NoError(t, err)
	assert.False(t, available)
}
