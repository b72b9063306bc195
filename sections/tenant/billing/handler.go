package billing

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"gymstack-backend/common"
	"gymstack-backend/sections"
	"gymstack-backend/sections/common/tenantctx"
	"gymstack-backend/sections/models"
	"gymstack-backend/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler serves tenant-scoped billing: recording member payments and
// generating invoices for them.
type Handler struct {
	deps   *sections.Dependencies
	logger *slog.Logger
}

// NewHandler creates a new billing handler
func NewHandler(deps *sections.Dependencies) *Handler {
	return &Handler{
		deps:   deps,
		logger: slog.With("handler", "Billing"),
	}
}

type recordPaymentRequest struct {
	MemberID         string  `json:"member_id" binding:"required"`
	MembershipPlanID *string `json:"membership_plan_id"`
	Amount           float64 `json:"amount" binding:"required,gt=0"`
	GatewayOrderID   string  `json:"gateway_order_id"`
	GatewayPaymentID string  `json:"gateway_payment_id" binding:"required"`
	PaymentMethod    string  `json:"payment_method"`
}

// RecordPayment inserts a completed member payment into the ledger.
func (h *Handler) RecordPayment(c *gin.Context) {
	gym, ok := tenantctx.GymFromContext(c)
	if !ok {
		c.JSON(http.StatusNotFound, common.ErrorResponse{Error: "gym not found"})
		return
	}

	var req recordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err))
		return
	}

	var member models.Member
	err := h.deps.DB.WithContext(c.Request.Context()).
		Where("id = ? AND gym_id = ?", req.MemberID, gym.ID).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, common.ErrorResponse{Error: "member not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err))
		return
	}

	payment := models.Payment{
		GymID:            gym.ID,
		MemberID:         member.ID,
		MembershipPlanID: req.MembershipPlanID,
		Amount:           req.Amount,
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		PaymentMethod:    req.PaymentMethod,
		PaymentStatus:    "completed",
	}
	if err := h.deps.DB.WithContext(c.Request.Context()).Create(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, common.ErrorResponse{Error: "payment already recorded"})
			return
		}
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err))
		return
	}

	h.logger.Info("Member payment recorded", "gym_id", gym.ID, "member_id", member.ID, "payment_id", payment.ID)

	// Invoice generation rides along best-effort; the dedicated endpoint can
	// retry it later.
	if _, err := h.invoiceForPayment(c, gym, &payment); err != nil {
		h.logger.Warn("Invoice generation for recorded payment failed", "payment_id", payment.ID, "error", err)
	}

	c.JSON(http.StatusOK, common.ApiResponse[models.Payment]{Success: true, Data: payment})
}

type generateInvoiceRequest struct {
	PaymentID string `json:"payment_id" binding:"required"`
}

type generateInvoiceResponse struct {
	Success     bool            `json:"success"`
	Invoice     *models.Invoice `json:"invoice"`
	InvoiceHTML string          `json:"invoice_html"`
}

// GenerateInvoice creates (or returns the existing) invoice for a payment,
// applies flat GST and emails the rendered document best-effort.
func (h *Handler) GenerateInvoice(c *gin.Context) {
	gym, ok := tenantctx.GymFromContext(c)
	if !ok {
		c.JSON(http.StatusNotFound, common.ErrorResponse{Error: "gym not found"})
		return
	}

	var req generateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err))
		return
	}

	ctx := c.Request.Context()

	var payment models.Payment
	err := h.deps.DB.WithContext(ctx).
		Where("id = ? AND gym_id = ?", req.PaymentID, gym.ID).
		First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, common.ErrorResponse{Error: "payment not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err))
		return
	}

	var member models.Member
	if err := h.deps.DB.WithContext(ctx).First(&member, "id = ?", payment.MemberID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err))
		return
	}

	planName := ""
	if payment.MembershipPlanID != nil {
		var plan models.MembershipPlan
		if err := h.deps.DB.WithContext(ctx).First(&plan, "id = ?", *payment.MembershipPlanID).Error; err == nil {
			planName = plan.Name
		}
	}

	invoice, err := h.invoiceForPayment(c, gym, &payment)
	if err != nil {
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err))
		return
	}

	html, err := RenderInvoiceHTML(gym, &member, invoice, planName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err))
		return
	}

	h.emailInvoice(c, gym, &member, invoice, html)

	c.JSON(http.StatusOK, generateInvoiceResponse{
		Success:     true,
		Invoice:     invoice,
		InvoiceHTML: html,
	})
}

// invoiceForPayment finds or creates the invoice row. The unique index on
// payment_id makes this idempotent per payment.
func (h *Handler) invoiceForPayment(c *gin.Context, gym *models.Gym, payment *models.Payment) (*models.Invoice, error) {
	ctx := c.Request.Context()

	var existing models.Invoice
	err := h.deps.DB.WithContext(ctx).Where("payment_id = ?", payment.ID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	base, tax, total := SplitTax(payment.Amount)
	invoice := models.Invoice{
		GymID:         gym.ID,
		MemberID:      payment.MemberID,
		PaymentID:     payment.ID,
		InvoiceNumber: NewInvoiceNumber(gym.ID, time.Now()),
		Amount:        base,
		Tax:           tax,
		Total:         total,
		Status:        "paid",
	}
	if err := h.deps.DB.WithContext(ctx).Create(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a race with a concurrent request; return the winner's row.
			if err := h.deps.DB.WithContext(ctx).Where("payment_id = ?", payment.ID).First(&existing).Error; err == nil {
				return &existing, nil
			}
		}
		return nil, err
	}

	h.logger.Info("Invoice generated", "gym_id", gym.ID, "invoice_number", invoice.InvoiceNumber, "total", invoice.Total)
	return &invoice, nil
}

func (h *Handler) emailInvoice(c *gin.Context, gym *models.Gym, member *models.Member, invoice *models.Invoice, html string) {
	if h.deps.Mailer == nil || !h.deps.Mailer.Enabled() || member.Email == "" {
		return
	}
	err := h.deps.Mailer.Send(c.Request.Context(), services.Mail{
		ToEmail:  member.Email,
		ToName:   member.FullName,
		FromName: gym.Name,
		Subject:  "Invoice " + invoice.InvoiceNumber + " from " + gym.Name,
		HTML:     html,
	})
	if err != nil {
		h.logger.Warn("Invoice email failed", "invoice_number", invoice.InvoiceNumber, "error", err)
	}
}
