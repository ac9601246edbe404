package meta

import (
	"net/http"

	"pickmeup-backend/models"
	"pickmeup-backend/utils"

	"github.com/gin-gonic/gin"
)

type Handler struct{}

func New() *Handler {
	return &Handler{}
}

// Categories renvoie les catégories sélectionnables
// @Summary Item categories
// @Tags meta
// @Produce json
// @Success 200 {object} utils.Response
// @Router /meta/categories [get]
func (h *Handler) Categories(c *gin.Context) {
	utils.SendSuccess(c, http.StatusOK, "Categories retrieved", models.Categories)
}

// Locations renvoie les districts sélectionnables
// @Summary Report locations
// @Tags meta
// @Produce json
// @Success 200 {object} utils.Response
// @Router /meta/locations [get]
func (h *Handler) Locations(c *gin.Context) {
	utils.SendSuccess(c, http.StatusOK, "Locations retrieved", models.Locations)
}
