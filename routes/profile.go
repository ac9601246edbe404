package routes

import (
	"pickmeup-backend/handlers/profile"
	"pickmeup-backend/middleware"
	"pickmeup-backend/store"

	"github.com/gin-gonic/gin"
)

func ProfileRoutes(r *gin.Engine, st store.DocumentStore) {
	handler := profile.New(st)

	profileRoutes := r.Group("/profile")
	profileRoutes.Use(middleware.JWTAuth())
	profileRoutes.GET("/items", handler.MyItems)
}
