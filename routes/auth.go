package routes

import (
	authprovider "pickmeup-backend/auth"
	"pickmeup-backend/handlers/auth"
	"pickmeup-backend/middleware"

	"github.com/gin-gonic/gin"
)

func AuthRoutes(r *gin.Engine, provider authprovider.Provider) {
	handler := auth.New(provider)

	r.POST("/register", handler.Register)
	r.POST("/login", handler.Login)

	protected := r.Group("/password")
	protected.Use(middleware.JWTAuth())
	protected.POST("", handler.ChangePassword)
}
