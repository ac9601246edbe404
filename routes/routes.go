package routes

import (
	"time"

	authprovider "pickmeup-backend/auth"
	"pickmeup-backend/handlers/ping"
	"pickmeup-backend/items"
	"pickmeup-backend/models"
	"pickmeup-backend/store"
	"pickmeup-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Deps carries the external collaborators the handlers need.
type Deps struct {
	Store    store.DocumentStore
	Provider authprovider.Provider
}

func SetupRouter(deps Deps) *gin.Engine {

	r := gin.New()
	r.Use(gin.LoggerWithWriter(utils.LogWriter()), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"}, // Pour autoriser toutes les origines en dev
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	pingHandler := ping.New()
	r.GET("/ping", pingHandler.HandlePing)

	lost := items.NewCoordinator(deps.Store, models.CollectionLost,
		utils.CloudinaryUploader{Folder: "lost_items", Prefix: "lost"})
	found := items.NewCoordinator(deps.Store, models.CollectionFound,
		utils.CloudinaryUploader{Folder: "found_items", Prefix: "found"})

	AuthRoutes(r, deps.Provider)
	ReportsRoutes(r, deps.Store, lost, found)
	ProfileRoutes(r, deps.Store)
	MetaRoutes(r)

	return r
}
