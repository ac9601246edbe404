package profile

import (
	"net/http"

	"pickmeup-backend/feed"
	"pickmeup-backend/models"
	"pickmeup-backend/store"
	"pickmeup-backend/utils"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	store store.DocumentStore
}

func New(st store.DocumentStore) *Handler {
	return &Handler{store: st}
}

// MyItems renvoie les signalements de l'utilisateur connecté
// @Summary The caller's postings
// @Description Both collections restricted to the authenticated owner, newest first
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.Response
// @Router /profile/items [get]
func (h *Handler) MyItems(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.SendError(c, http.StatusUnauthorized, "User not found in token")
		return
	}
	uid := userID.(string)

	result := gin.H{}
	for _, col := range []models.Collection{models.CollectionLost, models.CollectionFound} {
		snapshot, err := h.store.List(c.Request.Context(), col, store.Query{UserID: uid})
		if err != nil {
			utils.LogErrorWithUser(uid, err, "Error loading own reports from "+string(col))
			utils.SendError(c, http.StatusInternalServerError, "Failed to load your reports")
			return
		}
		result[string(col)] = feed.Derive(snapshot, feed.Params{OwnerID: uid, Sort: feed.Newest})
	}

	utils.SendSuccess(c, http.StatusOK, "Your reports retrieved", result)
}
