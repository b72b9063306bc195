package billing

import (
	"gymstack-backend/sections"
	"gymstack-backend/sections/common/auth"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires the tenant billing endpoints. Both require an
// authenticated staff session on top of tenant resolution. Each endpoint is
// reachable bare (custom-domain tenants) and under a slug prefix.
func RegisterRoutes(router *gin.Engine, deps *sections.Dependencies, jwtManager *auth.JWTManager) {
	handler := NewHandler(deps)

	for _, prefix := range []string{"/functions", "/:gymSlug/functions"} {
		functions := router.Group(prefix)
		functions.Use(auth.JWTAuthMiddleware(jwtManager))
		{
			functions.POST("/record-payment", handler.RecordPayment)
			functions.POST("/generate-invoice", handler.GenerateInvoice)
		}
	}
}
