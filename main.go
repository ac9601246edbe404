package main

import (
	"os"

	"pickmeup-backend/auth"
	"pickmeup-backend/db"
	_ "pickmeup-backend/docs"
	"pickmeup-backend/routes"
	"pickmeup-backend/store"
	"pickmeup-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// @title PickMeUp Backend
// @version 1.0
// @description API du backend PickMeUp (objets perdus et retrouvés)
// @host localhost:8080
// @BasePath /
// @SecurityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Entrez le JWT avec le préfixe Bearer: Bearer <JWT>
func main() {

	gin.SetMode(gin.ReleaseMode)

	if err := godotenv.Load(); err != nil {
		utils.LogInfo("No .env file found, relying on the system environment")
	}

	// Initialiser la base de données
	db.InitDB()

	// Initialiser Cloudinary
	if err := utils.InitCloudinary(); err != nil {
		utils.LogError(err, "Initialisation de Cloudinary a échoué")
		utils.LogInfo("Le téléchargement d'images ne fonctionnera pas correctement")
	}

	// Initialiser le fournisseur d'identité
	provider, err := auth.NewFirebase()
	if err != nil {
		utils.LogError(err, "Initialisation du fournisseur d'identité a échoué")
		panic("Identity provider not configured")
	}

	r := routes.SetupRouter(routes.Deps{
		Store:    store.NewMongo(db.Database()),
		Provider: provider,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		utils.LogError(err, "Erreur lors du démarrage du serveur")
		panic("Could not start the server")
	}
}
