package users

import (
	"gymstack-backend/sections"
	"gymstack-backend/sections/common/auth"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires the authentication endpoints.
func RegisterRoutes(router *gin.Engine, deps *sections.Dependencies, jwtManager *auth.JWTManager) {
	handler := NewHandler(deps, jwtManager)

	functions := router.Group("/functions")
	{
		functions.POST("/login", handler.Login)
		functions.GET("/me", auth.JWTAuthMiddleware(jwtManager), handler.Me)
	}
}
