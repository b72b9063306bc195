package notify

import (
	"errors"
	"log/slog"
	"net/http"

	"gymstack-backend/common"
	"gymstack-backend/sections"
	"gymstack-backend/sections/common/tenantctx"
	"gymstack-backend/sections/models"
	"gymstack-backend/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler serves tenant-scoped notifications: an in-app row plus an optional
// best-effort email to the member.
type Handler struct {
	deps   *sections.Dependencies
	logger *slog.Logger
}

// NewHandler creates a new notification handler
func NewHandler(deps *sections.Dependencies) *Handler {
	return &Handler{
		deps:   deps,
		logger: slog.With("handler", "Notify"),
	}
}

type sendNotificationRequest struct {
	MemberID  *string `json:"member_id"`
	UserID    *string `json:"user_id"`
	Type      string  `json:"type" binding:"required"`
	Title     string  `json:"title" binding:"required"`
	Message   string  `json:"message" binding:"required"`
	SendEmail *bool   `json:"send_email"`
}

// SendNotification creates a notification row. Email delivery failures are
// logged and never fail the request.
func (h *Handler) SendNotification(c *gin.Context) {
	gym, ok := tenantctx.GymFromContext(c)
	if !ok {
		c.JSON(http.StatusNotFound, common.ErrorResponse{Error: "gym not found"})
		return
	}

	var req sendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err))
		return
	}

	notification := models.Notification{
		GymID:    gym.ID,
		MemberID: req.MemberID,
		UserID:   req.UserID,
		Type:     req.Type,
		Title:    req.Title,
		Message:  req.Message,
	}
	if err := h.deps.DB.WithContext(c.Request.Context()).Create(&notification).Error; err != nil {
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err))
		return
	}
	h.logger.Info("Notification created", "gym_id", gym.ID, "type", req.Type, "notification_id", notification.ID)

	// Email defaults to on.
	if req.SendEmail == nil || *req.SendEmail {
		h.emailNotification(c, gym, &notification)
	}

	c.JSON(http.StatusOK, common.ApiResponse[models.Notification]{Success: true, Data: notification})
}

func (h *Handler) emailNotification(c *gin.Context, gym *models.Gym, notification *models.Notification) {
	if h.deps.Mailer == nil || !h.deps.Mailer.Enabled() || notification.MemberID == nil {
		return
	}

	var member models.Member
	err := h.deps.DB.WithContext(c.Request.Context()).
		First(&member, "id = ? AND gym_id = ?", *notification.MemberID, gym.ID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || member.Email == "" {
		return
	}
	if err != nil {
		h.logger.Warn("Member lookup for notification email failed", "member_id", *notification.MemberID, "error", err)
		return
	}

	err = h.deps.Mailer.Send(c.Request.Context(), services.Mail{
		ToEmail:  member.Email,
		ToName:   member.FullName,
		FromName: gym.Name,
		Subject:  notification.Title,
		HTML:     "<p>" + notification.Message + "</p>",
	})
	if err != nil {
		h.logger.Warn("Notification email failed", "notification_id", notification.ID, "error", err)
	}
}

// ListNotifications returns a member's or user's notifications, newest first.
func (h *Handler) ListNotifications(c *gin.Context) {
	gym, ok := tenantctx.GymFromContext(c)
	if !ok {
		c.JSON(http.StatusNotFound, common.ErrorResponse{Error: "gym not found"})
		return
	}

	query := h.deps.DB.WithContext(c.Request.Context()).Where("gym_id = ?", gym.ID)
	if memberID := c.Query("member_id"); memberID != "" {
		query = query.Where("member_id = ?", memberID)
	}
	if userID := c.Query("user_id"); userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	var notifications []models.Notification
	if err := query.Order("created_at DESC").Limit(100).Find(&notifications).Error; err != nil {
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err))
		return
	}

	c.JSON(http.StatusOK, common.ApiResponse[[]models.Notification]{Success: true, Data: notifications})
}
