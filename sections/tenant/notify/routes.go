package notify

import (
	"gymstack-backend/sections"
	"gymstack-backend/sections/common/auth"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires the tenant notification endpoints. Each endpoint is
// reachable bare (custom-domain tenants) and under a slug prefix.
func RegisterRoutes(router *gin.Engine, deps *sections.Dependencies, jwtManager *auth.JWTManager) {
	handler := NewHandler(deps)

	for _, prefix := range []string{"/functions", "/:gymSlug/functions"} {
		functions := router.Group(prefix)
		functions.Use(auth.JWTAuthMiddleware(jwtManager))
		{
			functions.POST("/send-notification", handler.SendNotification)
			functions.GET("/notifications", handler.ListNotifications)
		}
	}
}
