package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrooksCoder/RegistrationApp/internal/dto"
	"github.com/BrooksCoder/RegistrationApp/internal/models"
	"github.com/BrooksCoder/RegistrationApp/internal/service"
	appErrors "github.com/BrooksCoder/RegistrationApp/pkg/errors"
	"github.com/BrooksCoder/RegistrationApp/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type itemServiceMock struct {
	createReq   dto.CreateItemRequest
	createImage []byte
	createErr   error
	getErr      error
	lastFilter  models.ItemFilter
	deleted     int64
	updateReq   dto.UpdateItemRequest
}

func (m *itemServiceMock) Create(ctx context.Context, req dto.CreateItemRequest, image *service.ImageUpload) (*models.Item, error) {
	m.createReq = req
	if image != nil {
		m.createImage, _ = io.ReadAll(image.Reader)
	}
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &models.Item{ID: 42, Name: req.Name, Description: req.Description, Status: models.ItemStatusPending, CreatedAt: time.Now()}, nil
}

func (m *itemServiceMock) Get(ctx context.Context, id int64) (*models.Item, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return &models.Item{ID: id, Name: "Widget", Status: models.ItemStatusPending}, nil
}

func (m *itemServiceMock) List(ctx context.Context, filter models.ItemFilter) ([]models.Item, error) {
	m.lastFilter = filter
	return []models.Item{{ID: 1, Name: "Widget", Status: models.ItemStatusPending}}, nil
}

func (m *itemServiceMock) Pending(ctx context.Context) ([]models.Item, error) {
	return []models.Item{}, nil
}

func (m *itemServiceMock) Update(ctx context.Context, id int64, req dto.UpdateItemRequest) (*models.Item, error) {
	m.updateReq = req
	return &models.Item{ID: id, Name: req.Name, Description: req.Description, Status: models.ItemStatusApproved}, nil
}

func (m *itemServiceMock) Delete(ctx context.Context, id int64) error {
	m.deleted = id
	return nil
}

func newTestContext(method, target string, body io.Reader) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.Request = req
	return c, w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) response.ErrorBody {
	t.Helper()
	var body response.ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestItemHandlerCreateJSON(t *testing.T) {
	svc := &itemServiceMock{}
	h := NewItemHandler(svc, "/api/", 0)

	c, w := newTestContext(http.MethodPost, "/api/items", bytes.NewBufferString(`{"name":"Widget","description":"A test widget"}`))
	h.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "/api/items/42", w.Header().Get("Location"))
	assert.Equal(t, "Widget", svc.createReq.Name)
	assert.Nil(t, svc.createImage)

	var item models.Item
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))
	assert.Equal(t, int64(42), item.ID)
	assert.Equal(t, models.ItemStatusPending, item.Status)
}

func TestItemHandlerCreateMultipart(t *testing.T) {
	svc := &itemServiceMock{}
	h := NewItemHandler(svc, "/api", 1<<20)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "Lamp"))
	require.NoError(t, mw.WriteField("description", "Desk lamp"))
	part, err := mw.CreateFormFile("image", "lamp.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("image-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	c, w := newTestContext(http.MethodPost, "/api/items", nil)
	c.Request.Body = io.NopCloser(&buf)
	c.Request.Header.Set("Content-Type", mw.FormDataContentType())
	h.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Lamp", svc.createReq.Name)
	assert.Equal(t, []byte("image-bytes"), svc.createImage)
}

func TestItemHandlerCreateInvalidBody(t *testing.T) {
	h := NewItemHandler(&itemServiceMock{}, "/api", 0)
	c, w := newTestContext(http.MethodPost, "/api/items", bytes.NewBufferString(`{"name":`))
	h.Create(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, w).Code)
}

func TestItemHandlerCreateServiceValidation(t *testing.T) {
	svc := &itemServiceMock{createErr: appErrors.Clone(appErrors.ErrValidation, "name is required")}
	h := NewItemHandler(svc, "/api", 0)
	c, w := newTestContext(http.MethodPost, "/api/items", bytes.NewBufferString(`{"name":"","description":"x"}`))
	h.Create(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, "name is required", body.Message)
	assert.Equal(t, "VALIDATION_ERROR", body.Code)
}

func TestItemHandlerGetInvalidID(t *testing.T) {
	h := NewItemHandler(&itemServiceMock{}, "/api", 0)
	for _, raw := range []string{"abc", "0", "-3"} {
		c, w := newTestContext(http.MethodGet, "/api/items/"+raw, nil)
		c.Params = gin.Params{{Key: "id", Value: raw}}
		h.Get(c)
		assert.Equal(t, http.StatusBadRequest, w.Code, raw)
	}
}

func TestItemHandlerGetNotFound(t *testing.T) {
	svc := &itemServiceMock{getErr: appErrors.Clone(appErrors.ErrNotFound, "item 99 not found")}
	h := NewItemHandler(svc, "/api", 0)
	c, w := newTestContext(http.MethodGet, "/api/items/99", nil)
	c.Params = gin.Params{{Key: "id", Value: "99"}}
	h.Get(c)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, response.ErrorBody{Message: "item 99 not found", Code: "NOT_FOUND"}, decodeError(t, w))
}

func TestItemHandlerListFilters(t *testing.T) {
	svc := &itemServiceMock{}
	h := NewItemHandler(svc, "/api", 0)

	c, w := newTestContext(http.MethodGet, "/api/items?status=approved&limit=10000&offset=5", nil)
	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ItemStatusApproved, svc.lastFilter.Status)
	assert.Equal(t, maxListLimit, svc.lastFilter.Limit)
	assert.Equal(t, 5, svc.lastFilter.Offset)

	var items []models.Item
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	assert.Len(t, items, 1)

	c, w = newTestContext(http.MethodGet, "/api/items?status=archived", nil)
	h.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestItemHandlerUpdateAndDelete(t *testing.T) {
	svc := &itemServiceMock{}
	h := NewItemHandler(svc, "/api", 0)

	c, w := newTestContext(http.MethodPut, "/api/items/7", bytes.NewBufferString(`{"name":"New","description":"Desc"}`))
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	h.Update(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "New", svc.updateReq.Name)

	c, w = newTestContext(http.MethodDelete, "/api/items/7", nil)
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	h.Delete(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, int64(7), svc.deleted)
}

func TestItemHandlerWithoutService(t *testing.T) {
	h := NewItemHandler(nil, "/api", 0)
	c, w := newTestContext(http.MethodGet, "/api/items", nil)
	h.List(c)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
