package users

import (
	"errors"
	"log/slog"
	"net/http"

	"gymstack-backend/common"
	"gymstack-backend/sections"
	"gymstack-backend/sections/common/auth"
	"gymstack-backend/sections/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Handler serves user authentication.
type Handler struct {
	deps       *sections.Dependencies
	jwtManager *auth.JWTManager
	logger     *slog.Logger
}

// NewHandler creates a new users handler
func NewHandler(deps *sections.Dependencies, jwtManager *auth.JWTManager) *Handler {
	return &Handler{
		deps:       deps,
		jwtManager: jwtManager,
		logger:     slog.With("handler", "Users"),
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Success bool         `json:"success"`
	Token   string       `json:"token"`
	User    *models.User `json:"user"`
}

// Login checks credentials and issues a JWT carrying the user's gym and role.
// Unknown email and wrong password get the same response.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err))
		return
	}

	ctx := c.Request.Context()

	var user models.User
	err := h.deps.DB.WithContext(ctx).
		Where("email = ? AND active = ?", req.Email, true).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusUnauthorized, common.ErrorResponse{Error: "invalid credentials"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err))
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		h.logger.Warn("Failed login attempt", "email", req.Email)
		c.JSON(http.StatusUnauthorized, common.ErrorResponse{Error: "invalid credentials"})
		return
	}

	role := "member"
	var membership models.GymMember
	err = h.deps.DB.WithContext(ctx).
		Where("user_id = ? AND gym_id = ?", user.ID, user.GymID).
		First(&membership).Error
	if err == nil {
		role = membership.Role
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err))
		return
	}

	token, err := h.jwtManager.GenerateToken(user.ID, user.Email, user.GymID, role)
	if err != nil {
		h.logger.Error("Failed to issue token", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err))
		return
	}

	h.logger.Info("User logged in", "user_id", user.ID, "gym_id", user.GymID, "role", role)
	c.JSON(http.StatusOK, loginResponse{Success: true, Token: token, User: &user})
}

// Me returns the authenticated user's profile.
func (h *Handler) Me(c *gin.Context) {
	claims, ok := auth.GetClaimsFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, common.ErrorResponse{Error: "not authenticated"})
		return
	}

	var user models.User
	err := h.deps.DB.WithContext(c.Request.Context()).First(&user, "id = ?", claims.UserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, common.ErrorResponse{Error: "user not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err))
		return
	}

	c.JSON(http.StatusOK, common.ApiResponse[models.User]{Success: true, Data: user})
}
