package reports

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"pickmeup-backend/items"
	"pickmeup-backend/models"
	"pickmeup-backend/testutils"
	"pickmeup-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	testutils.InitTestMain()

	log.SetOutput(io.Discard)

	exitCode := m.Run()

	log.SetOutput(os.Stdout)

	os.Exit(exitCode)
}

func fakeAuth(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	}
}

func setupLost(st *testutils.FakeStore, up items.Uploader, userID string) *gin.Engine {
	r := testutils.SetupTestRouter()
	handler := New(st, items.NewCoordinator(st, models.CollectionLost, up))

	r.GET("/lost", handler.List)
	r.GET("/lost/:id", handler.GetByID)

	protected := r.Group("/lost")
	protected.Use(fakeAuth(userID))
	{
		protected.POST("", handler.Create)
		protected.PUT("/:id", handler.Update)
		protected.POST("/:id/found", handler.Transition)
		protected.DELETE("/:id", handler.Delete)
	}
	return r
}

func seed(st *testutils.FakeStore, title, userID string, created time.Time) string {
	return st.Seed(models.CollectionLost, models.ItemReport{
		Title: title, Description: "desc", Location: "Colombo", Category: "Bags",
		Phone: "0771234567", Email: "x@example.com",
		Status: models.StatusLost, UserID: userID, CreatedAt: created, UpdatedAt: created,
	})
}

func multipartRequest(method, path string, fields map[string]string, imageNames []string) *http.Request {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for key, value := range fields {
		_ = w.WriteField(key, value)
	}
	for _, name := range imageNames {
		fw, _ := w.CreateFormFile("images", name)
		_, _ = fw.Write([]byte("image-bytes"))
	}
	_ = w.Close()

	req, _ := http.NewRequest(method, path, body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decodeResponse(t *testing.T, resp *httptest.ResponseRecorder) utils.Response {
	t.Helper()
	var response utils.Response
	assert.NoError(t, json.Unmarshal(resp.Body.Bytes(), &response))
	return response
}

func validFields() map[string]string {
	return map[string]string{
		"title":       "Red Wallet",
		"description": "Lost near the station",
		"location":    "Colombo",
		"category":    "Bags",
		"phone":       "0771234567",
		"email":       "owner@example.com",
	}
}

func TestList_DerivesFilteredSortedFeed(t *testing.T) {
	st := testutils.NewFakeStore()
	seed(st, "Red Wallet", "u1", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	seed(st, "Blue Bag", "u2", time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	seed(st, "Black Wallet", "u1", time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC))
	r := setupLost(st, &testutils.FakeUploader{}, "u1")

	req, _ := http.NewRequest(http.MethodGet, "/lost?q=wallet&sort=oldest", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	response := decodeResponse(t, resp)
	data := response.Data.(map[string]interface{})
	assert.Equal(t, float64(2), data["total"])
	assert.Equal(t, true, data["filtersActive"])

	list := data["items"].([]interface{})
	first := list[0].(map[string]interface{})
	assert.Equal(t, "Red Wallet", first["title"])
}

func TestList_EmptyFeedWithoutFilters(t *testing.T) {
	st := testutils.NewFakeStore()
	r := setupLost(st, &testutils.FakeUploader{}, "u1")

	req, _ := http.NewRequest(http.MethodGet, "/lost", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	data := decodeResponse(t, resp).Data.(map[string]interface{})
	assert.Equal(t, float64(0), data["total"])
	assert.Equal(t, false, data["filtersActive"])
}

func TestList_MineRestrictsToOwner(t *testing.T) {
	st := testutils.NewFakeStore()
	seed(st, "My Wallet", "u1", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	seed(st, "Someone's Bag", "u2", time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))

	r := testutils.SetupTestRouter()
	handler := New(st, items.NewCoordinator(st, models.CollectionLost, &testutils.FakeUploader{}))
	r.GET("/lost", fakeAuth("u1"), handler.List)

	req, _ := http.NewRequest(http.MethodGet, "/lost?mine=true", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	data := decodeResponse(t, resp).Data.(map[string]interface{})
	assert.Equal(t, float64(1), data["total"])
	first := data["items"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "My Wallet", first["title"])
}

func TestList_MineWithoutTokenRejected(t *testing.T) {
	st := testutils.NewFakeStore()
	r := setupLost(st, &testutils.FakeUploader{}, "u1")

	req, _ := http.NewRequest(http.MethodGet, "/lost?mine=true", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestGetByID_NotFound(t *testing.T) {
	st := testutils.NewFakeStore()
	r := setupLost(st, &testutils.FakeUploader{}, "u1")

	req, _ := http.NewRequest(http.MethodGet, "/lost/nope", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestCreate_Success(t *testing.T) {
	st := testutils.NewFakeStore()
	up := &testutils.FakeUploader{}
	r := setupLost(st, up, "u1")

	req := multipartRequest(http.MethodPost, "/lost", validFields(), []string{"photo.jpg"})
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, 1, up.Uploads())
	assert.Equal(t, 1, st.Count(models.CollectionLost))

	data := decodeResponse(t, resp).Data.(map[string]interface{})
	assert.NotEmpty(t, data["id"])
}

func TestCreate_ValidationFailureListsFields(t *testing.T) {
	st := testutils.NewFakeStore()
	r := setupLost(st, &testutils.FakeUploader{}, "u1")

	fields := validFields()
	fields["phone"] = "123"
	delete(fields, "title")

	req := multipartRequest(http.MethodPost, "/lost", fields, nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	var body map[string]interface{}
	assert.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	fieldErrs := body["fields"].(map[string]interface{})
	assert.Contains(t, fieldErrs, "phone")
	assert.Contains(t, fieldErrs, "title")
	assert.Equal(t, 0, st.Count(models.CollectionLost))
}

func TestCreate_UploadFailureWritesNothing(t *testing.T) {
	st := testutils.NewFakeStore()
	up := &testutils.FakeUploader{FailOn: map[string]error{"bad.jpg": assert.AnError}}
	r := setupLost(st, up, "u1")

	req := multipartRequest(http.MethodPost, "/lost", validFields(), []string{"ok.jpg", "bad.jpg"})
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadGateway, resp.Code)
	assert.Equal(t, 0, st.Count(models.CollectionLost))
}

func TestUpdate_PartialEdit(t *testing.T) {
	st := testutils.NewFakeStore()
	id := seed(st, "Red Wallet", "u1", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	r := setupLost(st, &testutils.FakeUploader{}, "u1")

	req := multipartRequest(http.MethodPut, "/lost/"+id, map[string]string{"title": "Red Wallet (seen!)"}, nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	item, _ := st.Get(nil, models.CollectionLost, id)
	assert.Equal(t, "Red Wallet (seen!)", item.Title)
	assert.Equal(t, "desc", item.Description)
}

func TestUpdate_NonOwnerForbidden(t *testing.T) {
	st := testutils.NewFakeStore()
	id := seed(st, "Red Wallet", "someone-else", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	r := setupLost(st, &testutils.FakeUploader{}, "u1")

	req := multipartRequest(http.MethodPut, "/lost/"+id, map[string]string{"title": "hijacked"}, nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestTransition_MarkFound(t *testing.T) {
	st := testutils.NewFakeStore()
	id := seed(st, "Red Wallet", "u1", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	r := setupLost(st, &testutils.FakeUploader{}, "u1")

	jsonData, _ := json.Marshal(models.RecoveryDetails{FinderName: "Nimal"})
	req, _ := http.NewRequest(http.MethodPost, "/lost/"+id+"/found", bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	item, _ := st.Get(nil, models.CollectionLost, id)
	assert.Equal(t, models.StatusFound, item.Status)

	// Une deuxième transition est refusée: le statut est terminal
	resp = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodPost, "/lost/"+id+"/found", bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestDelete_RequiresConfirmation(t *testing.T) {
	st := testutils.NewFakeStore()
	id := seed(st, "Red Wallet", "u1", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	r := setupLost(st, &testutils.FakeUploader{}, "u1")

	req, _ := http.NewRequest(http.MethodDelete, "/lost/"+id, nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, 1, st.Count(models.CollectionLost))

	req, _ = http.NewRequest(http.MethodDelete, "/lost/"+id+"?confirm=true", nil)
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 0, st.Count(models.CollectionLost))
}

func TestDelete_RemoteRejectionKeepsItem(t *testing.T) {
	st := testutils.NewFakeStore()
	id := seed(st, "Red Wallet", "u1", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	st.DeleteErr = assert.AnError
	r := setupLost(st, &testutils.FakeUploader{}, "u1")

	req, _ := http.NewRequest(http.MethodDelete, "/lost/"+id+"?confirm=true", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Equal(t, 1, st.Count(models.CollectionLost))
}
