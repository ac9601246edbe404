package reports

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"pickmeup-backend/feed"
	"pickmeup-backend/items"
	"pickmeup-backend/mirror"
	"pickmeup-backend/models"
	"pickmeup-backend/store"
	"pickmeup-backend/utils"

	"github.com/gin-gonic/gin"
)

// Handler serves one report collection; the router builds one instance for
// the lost feed and one for the found feed.
type Handler struct {
	store store.DocumentStore
	coord *items.Coordinator
	col   models.Collection
}

func New(st store.DocumentStore, coord *items.Coordinator) *Handler {
	return &Handler{store: st, coord: coord, col: coord.Collection()}
}

func feedParams(c *gin.Context) feed.Params {
	return feed.Params{
		Query:    c.Query("q"),
		Category: c.Query("category"),
		Sort:     feed.SortOrder(c.DefaultQuery("sort", string(feed.Newest))),
		Status:   models.Status(c.Query("status")),
	}
}

// applyMine restricts the feed to the caller's own postings when mine=true.
// The list routes are public; the owner id is only present when the optional
// auth middleware decoded a valid token.
func applyMine(c *gin.Context, params *feed.Params) bool {
	if c.Query("mine") != "true" {
		return true
	}
	userID, exists := c.Get("user_id")
	if !exists {
		utils.SendError(c, http.StatusUnauthorized, "mine=true requires authentication")
		return false
	}
	params.OwnerID = userID.(string)
	return true
}

// sendMutationError maps a coordinator failure to one user-facing response.
func (h *Handler) sendMutationError(c *gin.Context, userID string, err error, action string) {
	var fieldErrs models.ValidationErrors
	switch {
	case errors.As(err, &fieldErrs):
		utils.SendFieldErrors(c, http.StatusBadRequest, fieldErrs)
	case errors.Is(err, items.ErrForbidden):
		utils.SendError(c, http.StatusForbidden, "You can only modify your own reports")
	case errors.Is(err, items.ErrTerminal):
		utils.SendError(c, http.StatusConflict, "This report is already closed")
	case errors.Is(err, items.ErrBusy):
		utils.SendError(c, http.StatusConflict, "Another change to this report is still in progress")
	case errors.Is(err, items.ErrUpload):
		utils.SendError(c, http.StatusBadGateway, "Failed to upload images")
	case errors.Is(err, store.ErrNotFound):
		utils.SendError(c, http.StatusNotFound, "Report not found")
	default:
		utils.LogErrorWithUser(userID, err, "Failed to "+action)
		utils.SendError(c, http.StatusInternalServerError, "Failed to "+action)
	}
}

// List renvoie le flux filtré et trié
// @Summary List reports
// @Description Derived feed over the collection: text search, category filter, date sort
// @Tags reports
// @Produce json
// @Param q query string false "Free-text search over title, description and location"
// @Param category query string false "Category filter"
// @Param status query string false "Status filter"
// @Param sort query string false "newest or oldest" default(newest)
// @Param mine query bool false "Restrict to the caller's own postings (requires a token)"
// @Success 200 {object} utils.Response
// @Router /lost [get]
func (h *Handler) List(c *gin.Context) {
	params := feedParams(c)
	if !applyMine(c, &params) {
		return
	}

	snapshot, err := h.store.List(c.Request.Context(), h.col, store.Query{NewestFirst: true})
	if err != nil {
		if errors.Is(err, store.ErrDecode) {
			utils.LogError(err, "Malformed document in collection "+string(h.col))
			utils.SendError(c, http.StatusInternalServerError, "Failed to read reports")
			return
		}
		utils.LogError(err, "Error listing collection "+string(h.col))
		utils.SendError(c, http.StatusInternalServerError, "Failed to load reports")
		return
	}

	derived := feed.Derive(snapshot, params)
	utils.SendSuccess(c, http.StatusOK, "Reports retrieved", gin.H{
		"items":         derived,
		"total":         len(derived),
		"filtersActive": params.Active(),
	})
}

// Live diffuse les instantanés en continu (SSE)
// @Summary Live feed
// @Description Server-sent events stream; every remote change pushes the full derived feed
// @Tags reports
// @Produce text/event-stream
// @Success 200 {string} string "SSE stream"
// @Router /lost/live [get]
func (h *Handler) Live(c *gin.Context) {
	ctx := c.Request.Context()
	params := feedParams(c)
	if !applyMine(c, &params) {
		return
	}

	// Buffered to one entry; a newer snapshot always replaces a stale one.
	snapshots := make(chan []models.ItemReport, 1)
	failures := make(chan error, 1)

	m, err := mirror.Open(ctx, h.store, h.col, mirror.Options{
		Query: store.Query{NewestFirst: true},
		OnSnapshot: func(items []models.ItemReport) {
			select {
			case snapshots <- items:
			default:
				select {
				case <-snapshots:
				default:
				}
				snapshots <- items
			}
		},
		OnError: func(err error) {
			select {
			case failures <- err:
			default:
			}
		},
	})
	if err != nil {
		utils.LogError(err, "Error opening live mirror for "+string(h.col))
		utils.SendError(c, http.StatusInternalServerError, "Failed to open the live feed")
		return
	}
	defer m.Close()

	c.Stream(func(w io.Writer) bool {
		select {
		case snapshot := <-snapshots:
			c.SSEvent("snapshot", feed.Derive(snapshot, params))
			return true
		case err := <-failures:
			c.SSEvent("error", gin.H{"error": err.Error()})
			return false
		case <-ctx.Done():
			return false
		}
	})
}

// GetByID renvoie un signalement
// @Summary Get a report by ID
// @Tags reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} utils.Response
// @Failure 404 {object} utils.Response "error: Report not found"
// @Router /lost/{id} [get]
func (h *Handler) GetByID(c *gin.Context) {
	item, err := h.store.Get(c.Request.Context(), h.col, c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.SendError(c, http.StatusNotFound, "Report not found")
			return
		}
		utils.LogError(err, "Error reading report")
		utils.SendError(c, http.StatusInternalServerError, "Failed to load the report")
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Report retrieved", item)
}

func draftFromForm(c *gin.Context) (models.ItemDraft, error) {
	draft := models.ItemDraft{
		Title:       c.Request.FormValue("title"),
		Description: c.Request.FormValue("description"),
		Location:    c.Request.FormValue("location"),
		Address:     c.Request.FormValue("address"),
		Category:    c.Request.FormValue("category"),
		Phone:       c.Request.FormValue("phone"),
		Email:       c.Request.FormValue("email"),
	}
	if raw := c.Request.FormValue("imageUrls"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &draft.ImageURLs); err != nil {
			return draft, err
		}
	}
	return draft, nil
}

// Create enregistre un nouveau signalement
// @Summary Create a report
// @Description Upload the attached photos, then persist the report with the collection's initial status
// @Tags reports
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param description formData string true "Description"
// @Param location formData string true "District"
// @Param address formData string false "Detailed address"
// @Param category formData string true "Category"
// @Param phone formData string true "Contact phone (10 digits)"
// @Param email formData string true "Contact email"
// @Param imageUrls formData string false "JSON array of already-hosted image URLs"
// @Param images formData file false "Photos to upload (up to 5 in total)"
// @Security BearerAuth
// @Success 201 {object} utils.Response
// @Failure 400 {object} utils.Response "error: Validation failed"
// @Router /lost [post]
func (h *Handler) Create(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.SendError(c, http.StatusUnauthorized, "User not found in token")
		return
	}

	draft, err := draftFromForm(c)
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, "Invalid imageUrls format: "+err.Error())
		return
	}

	form, err := c.MultipartForm()
	if err != nil && err != http.ErrNotMultipart {
		utils.SendError(c, http.StatusBadRequest, "Invalid form data: "+err.Error())
		return
	}
	var images []*multipart.FileHeader
	if form != nil {
		images = form.File["images"]
	}

	id, err := h.coord.Create(c.Request.Context(), userID.(string), draft, images)
	if err != nil {
		h.sendMutationError(c, userID.(string), err, "create the report")
		return
	}
	utils.SendSuccess(c, http.StatusCreated, "Report created successfully", gin.H{"id": id})
}

// Update modifie un signalement existant
// @Summary Update a report
// @Description Partial edit: only the submitted fields change, updatedAt is refreshed
// @Tags reports
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Report ID"
// @Security BearerAuth
// @Success 200 {object} utils.Response
// @Failure 403 {object} utils.Response "error: Not the owner"
// @Failure 404 {object} utils.Response "error: Report not found"
// @Router /lost/{id} [put]
func (h *Handler) Update(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.SendError(c, http.StatusUnauthorized, "User not found in token")
		return
	}

	var upd models.ItemUpdate
	field := func(name string) *string {
		if v, ok := c.GetPostForm(name); ok {
			return &v
		}
		return nil
	}
	upd.Title = field("title")
	upd.Description = field("description")
	upd.Location = field("location")
	upd.Address = field("address")
	upd.Category = field("category")
	upd.Phone = field("phone")
	upd.Email = field("email")
	if raw, ok := c.GetPostForm("imageUrls"); ok {
		urls := []string{}
		if raw != "" {
			if err := json.Unmarshal([]byte(raw), &urls); err != nil {
				utils.SendError(c, http.StatusBadRequest, "Invalid imageUrls format: "+err.Error())
				return
			}
		}
		upd.ImageURLs = urls
	}

	form, err := c.MultipartForm()
	if err != nil && err != http.ErrNotMultipart {
		utils.SendError(c, http.StatusBadRequest, "Invalid form data: "+err.Error())
		return
	}
	var images []*multipart.FileHeader
	if form != nil {
		images = form.File["images"]
	}

	if err := h.coord.Update(c.Request.Context(), userID.(string), c.Param("id"), upd, images); err != nil {
		h.sendMutationError(c, userID.(string), err, "update the report")
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Report updated successfully", nil)
}

// Transition ferme un signalement (retrouvé / restitué)
// @Summary Close a report
// @Description Move the report to its terminal status with the associated detail record
// @Tags reports
// @Accept json
// @Produce json
// @Param id path string true "Report ID"
// @Security BearerAuth
// @Success 200 {object} utils.Response
// @Failure 409 {object} utils.Response "error: Already closed"
// @Router /lost/{id}/found [post]
func (h *Handler) Transition(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.SendError(c, http.StatusUnauthorized, "User not found in token")
		return
	}
	id := c.Param("id")

	var err error
	if h.col == models.CollectionLost {
		var details models.RecoveryDetails
		if !utils.ValidateRequestBody(c, &details) {
			return
		}
		err = h.coord.MarkFound(c.Request.Context(), userID.(string), id, details)
	} else {
		var details models.ReturnDetails
		if !utils.ValidateRequestBody(c, &details) {
			return
		}
		err = h.coord.MarkReturned(c.Request.Context(), userID.(string), id, details)
	}
	if err != nil {
		h.sendMutationError(c, userID.(string), err, "close the report")
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Report marked as "+string(h.col.TerminalStatus()), nil)
}

// Delete supprime définitivement un signalement
// @Summary Delete a report
// @Description Hard delete; requires confirm=true as the second step of the confirmation
// @Tags reports
// @Produce json
// @Param id path string true "Report ID"
// @Param confirm query bool true "Must be true"
// @Security BearerAuth
// @Success 200 {object} utils.Response
// @Failure 400 {object} utils.Response "error: Confirmation missing"
// @Router /lost/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.SendError(c, http.StatusUnauthorized, "User not found in token")
		return
	}
	if c.Query("confirm") != "true" {
		utils.SendError(c, http.StatusBadRequest, "Deletion requires confirmation")
		return
	}

	if err := h.coord.Delete(c.Request.Context(), userID.(string), c.Param("id")); err != nil {
		h.sendMutationError(c, userID.(string), err, "delete the report")
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Report deleted successfully", nil)
}
