package register

import (
	"gymstack-backend/sections"
	"gymstack-backend/sections/common/auth"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires the public registration endpoints. These mirror the
// serverless function paths the frontend already calls.
func RegisterRoutes(router *gin.Engine, deps *sections.Dependencies, jwtManager *auth.JWTManager) {
	handler := NewHandler(deps, jwtManager)

	functions := router.Group("/functions")
	{
		functions.POST("/create-order", handler.CreateOrder)
		functions.POST("/get-payment-status", handler.GetPaymentStatus)
		functions.POST("/verify-payment", handler.VerifyPayment)
		functions.GET("/slug-available", handler.SlugAvailable)
		functions.GET("/plans", handler.Plans)
		functions.GET("/orders/:orderId", handler.OrderLookup)
	}
}
