package routes

import (
	"pickmeup-backend/handlers/meta"

	"github.com/gin-gonic/gin"
)

func MetaRoutes(r *gin.Engine) {
	handler := meta.New()

	metaRoutes := r.Group("/meta")
	metaRoutes.GET("/categories", handler.Categories)
	metaRoutes.GET("/locations", handler.Locations)
}
