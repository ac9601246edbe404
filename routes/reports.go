package routes

import (
	"pickmeup-backend/handlers/reports"
	"pickmeup-backend/items"
	"pickmeup-backend/middleware"
	"pickmeup-backend/store"

	"github.com/gin-gonic/gin"
)

func ReportsRoutes(r *gin.Engine, st store.DocumentStore, lost, found *items.Coordinator) {
	register := func(prefix string, coord *items.Coordinator, transition string) {
		handler := reports.New(st, coord)

		// Routes publiques; le jeton est facultatif (filtre mine=true)
		public := r.Group(prefix)
		public.Use(middleware.OptionalJWTAuth())
		{
			public.GET("", handler.List)
			public.GET("/live", handler.Live)
			public.GET("/:id", handler.GetByID)
		}

		// Routes protégées
		protected := r.Group(prefix)
		protected.Use(middleware.JWTAuth())
		{
			protected.POST("", handler.Create)
			protected.PUT("/:id", handler.Update)
			protected.POST("/:id/"+transition, handler.Transition)
			protected.DELETE("/:id", handler.Delete)
		}
	}

	register("/lost", lost, "found")
	register("/found", found, "returned")
}
