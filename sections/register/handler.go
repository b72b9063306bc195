package register

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"gymstack-backend/common"
	"gymstack-backend/monitoring"
	"gymstack-backend/sections"
	"gymstack-backend/sections/common/auth"
	"gymstack-backend/sections/models"
	"gymstack-backend/services"
	"gymstack-backend/storage"

	"github.com/gin-gonic/gin"
)

// Handler serves the public registration endpoints: order creation, payment
// status polling, verification plus provisioning, and slug availability.
type Handler struct {
	deps        *sections.Dependencies
	store       Store
	provisioner *Provisioner
	jwtManager  *auth.JWTManager
	logger      *slog.Logger
}

// NewHandler creates a new registration handler
func NewHandler(deps *sections.Dependencies, jwtManager *auth.JWTManager) *Handler {
	store := NewStore(deps.DB)
	// A typed nil must not reach the provisioner's cache interface.
	var cache GymCache
	if deps.Redis != nil {
		cache = deps.Redis
	}
	return &Handler{
		deps:        deps,
		store:       store,
		provisioner: NewProvisioner(store, cache),
		jwtManager:  jwtManager,
		logger:      slog.With("handler", "Register"),
	}
}

type createOrderRequest struct {
	PlanType common.PlanType          `json:"plan_type" binding:"required"`
	Customer services.CustomerDetails `json:"customer" binding:"required"`
}

type createOrderResponse struct {
	Success bool            `json:"success"`
	Order   *services.Order `json:"order"`
	Gateway string          `json:"gateway"`
}

// stashedOrder is what the status endpoint correlates later calls against.
type stashedOrder struct {
	OrderID  string          `json:"order_id"`
	PlanType common.PlanType `json:"plan_type"`
	Amount   float64         `json:"amount"`
	Gateway  string          `json:"gateway"`
}

// CreateOrder creates a gateway payment order for a platform plan. The amount
// always comes from the server-side catalog, never from the client.
func (h *Handler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err))
		return
	}

	plan := common.GetPlan(req.PlanType)
	if plan == nil {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{Error: "invalid plan type"})
		return
	}

	orderID := common.NewOrderID()
	order, err := h.deps.Gateway.CreateOrder(c.Request.Context(), services.CreateOrderParams{
		OrderID:  orderID,
		Amount:   plan.Price,
		Currency: common.DEFAULT_CURRENCY,
		Customer: req.Customer,
		Metadata: map[string]string{"plan_type": string(req.PlanType)},
	})
	if err != nil {
		h.respondGatewayError(c, "Order creation failed", err)
		return
	}

	h.stashOrder(c, order, req.PlanType, plan.Price)
	monitoring.OrdersCreated.WithLabelValues(h.deps.Gateway.Name()).Inc()
	h.logger.Info("Payment order created", "order_id", order.OrderID, "plan_type", req.PlanType, "amount", plan.Price)

	c.JSON(http.StatusOK, createOrderResponse{
		Success: true,
		Order:   order,
		Gateway: h.deps.Gateway.Name(),
	})
}

func (h *Handler) stashOrder(c *gin.Context, order *services.Order, planType common.PlanType, amount float64) {
	if h.deps.Redis == nil {
		return
	}
	payload, err := json.Marshal(stashedOrder{
		OrderID:  order.OrderID,
		PlanType: planType,
		Amount:   amount,
		Gateway:  h.deps.Gateway.Name(),
	})
	if err != nil {
		return
	}
	if err := h.deps.Redis.StashOrder(c.Request.Context(), order.OrderID, payload, time.Hour); err != nil {
		h.logger.Warn("Failed to stash order", "order_id", order.OrderID, "error", err)
	}
}

type paymentStatusRequest struct {
	OrderID string `json:"order_id" binding:"required"`
}

type paymentStatusResponse struct {
	Success bool                    `json:"success"`
	Order   *services.Order         `json:"order"`
	Payment *services.PaymentStatus `json:"payment,omitempty"`
}

// GetPaymentStatus fetches the gateway's view of an order and its first
// payment, if one exists yet.
func (h *Handler) GetPaymentStatus(c *gin.Context) {
	var req paymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err))
		return
	}

	order, payment, err := h.deps.Gateway.GetPaymentStatus(c.Request.Context(), req.OrderID)
	if err != nil {
		h.respondGatewayError(c, "Payment status lookup failed", err)
		return
	}

	c.JSON(http.StatusOK, paymentStatusResponse{
		Success: true,
		Order:   order,
		Payment: payment,
	})
}

type verifyPaymentRequest struct {
	OrderID      string              `json:"order_id" binding:"required"`
	PaymentID    string              `json:"payment_id" binding:"required"`
	Signature    string              `json:"signature"`
	Registration RegistrationRequest `json:"registration" binding:"required"`
}

type verifyPaymentResponse struct {
	Success bool         `json:"success"`
	Gym     *models.Gym  `json:"gym"`
	User    *models.User `json:"user"`
	Token   string       `json:"token,omitempty"`
}

// VerifyPayment verifies a completed payment and, only then, provisions the
// tenant. Verification failures never create anything.
func (h *Handler) VerifyPayment(c *gin.Context) {
	var req verifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err))
		return
	}
	if err := req.Registration.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err))
		return
	}

	gatewayName := h.deps.Gateway.Name()
	err := h.deps.Gateway.Verify(c.Request.Context(), services.VerifyParams{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
	})
	if err != nil {
		monitoring.PaymentVerifications.WithLabelValues(gatewayName, "rejected").Inc()
		h.respondGatewayError(c, "Payment verification failed", err)
		return
	}
	monitoring.PaymentVerifications.WithLabelValues(gatewayName, "verified").Inc()

	result, err := h.provisioner.Provision(c.Request.Context(), &req.Registration, req.PaymentID, req.OrderID)
	if err != nil {
		h.respondProvisionError(c, &req, err)
		return
	}

	resp := verifyPaymentResponse{
		Success: true,
		Gym:     result.Gym,
		User:    result.Admin,
	}
	if h.jwtManager != nil {
		token, err := h.jwtManager.GenerateToken(result.Admin.ID, result.Admin.Email, result.Gym.ID, "admin")
		if err != nil {
			h.logger.Error("Failed to issue admin token", "user_id", result.Admin.ID, "error", err)
		} else {
			resp.Token = token
		}
	}

	h.sendWelcomeEmail(c, result)
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) respondProvisionError(c *gin.Context, req *verifyPaymentRequest, err error) {
	// The payment is captured by now. Every error response past this point
	// carries the ids the customer needs for a support claim.
	details := map[string]string{
		"order_id":   req.OrderID,
		"payment_id": req.PaymentID,
	}
	h.logger.Error("Provisioning failed after captured payment",
		"order_id", req.OrderID, "payment_id", req.PaymentID, "error", err)

	// All registration failures share the 400 envelope; replays and slug
	// collisions are told apart by the error text and details.
	c.JSON(http.StatusBadRequest, common.ErrorResponse{Error: err.Error(), Details: details})
}

func (h *Handler) sendWelcomeEmail(c *gin.Context, result *ProvisionResult) {
	if h.deps.Mailer == nil || !h.deps.Mailer.Enabled() {
		return
	}
	err := h.deps.Mailer.Send(c.Request.Context(), services.Mail{
		ToEmail: result.Admin.Email,
		ToName:  result.Admin.FullName,
		Subject: "Welcome to GymStack, " + result.Gym.Name,
		HTML: "<p>Hi " + result.Admin.FullName + ",</p>" +
			"<p>Your gym <strong>" + result.Gym.Name + "</strong> is live at /" + result.Gym.Slug + ".</p>" +
			"<p>Your " + result.Gym.PlanType + " plan runs until " + result.Gym.PlanEnd.Format("2 Jan 2006") + ".</p>",
	})
	if err != nil {
		h.logger.Warn("Welcome email failed", "gym_id", result.Gym.ID, "error", err)
	}
}

type slugAvailableResponse struct {
	Success   bool   `json:"success"`
	Slug      string `json:"slug"`
	Available bool   `json:"available"`
}

// SlugAvailable reports whether a slug is valid and unclaimed. A positive
// answer is advisory; the unique index decides at provisioning time.
func (h *Handler) SlugAvailable(c *gin.Context) {
	slug := strings.ToLower(strings.TrimSpace(c.Query("slug")))
	if !common.ValidSlug(slug) {
		c.JSON(http.StatusOK, slugAvailableResponse{Success: true, Slug: slug, Available: false})
		return
	}

	existing, err := h.store.GymBySlug(c.Request.Context(), slug)
	if err != nil {
		h.logger.Error("Slug lookup failed", "slug", slug, "error", err)
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err))
		return
	}

	c.JSON(http.StatusOK, slugAvailableResponse{Success: true, Slug: slug, Available: existing == nil})
}

// respondGatewayError maps gateway failures onto client responses. Missing
// credentials never leak; upstream rejections pass their body through.
func (h *Handler) respondGatewayError(c *gin.Context, msg string, err error) {
	h.logger.Error(msg, "error", err)

	if errors.Is(err, services.ErrGatewayNotConfigured) {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{Error: "payment service unavailable"})
		return
	}

	var apiErr *services.GatewayAPIError
	if errors.As(err, &apiErr) {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{
			Error:   msg,
			Details: map[string]string{"gateway_response": apiErr.Body},
		})
		return
	}

	c.JSON(http.StatusBadRequest, common.NewErrorResponse(err))
}

type plansResponse struct {
	Success bool          `json:"success"`
	Plans   []common.Plan `json:"plans"`
}

// Plans returns the platform subscription catalog.
func (h *Handler) Plans(c *gin.Context) {
	c.JSON(http.StatusOK, plansResponse{Success: true, Plans: common.PlatformPlans})
}

// OrderLookup returns the stashed metadata for an order id, if still cached.
func (h *Handler) OrderLookup(c *gin.Context) {
	orderID := c.Param("orderId")
	if h.deps.Redis == nil {
		c.JSON(http.StatusNotFound, common.ErrorResponse{Error: "order not found"})
		return
	}

	data, err := h.deps.Redis.GetStashedOrder(c.Request.Context(), orderID)
	if errors.Is(err, storage.ErrCacheMiss) {
		c.JSON(http.StatusNotFound, common.ErrorResponse{Error: "order not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err))
		return
	}

	var stashed stashedOrder
	if err := json.Unmarshal(data, &stashed); err != nil {
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err))
		return
	}
	c.JSON(http.StatusOK, common.ApiResponse[stashedOrder]{Success: true, Data: stashed})
}
