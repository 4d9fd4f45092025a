package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/BrooksCoder/RegistrationApp/internal/dto"
	"github.com/BrooksCoder/RegistrationApp/internal/models"
	"github.com/BrooksCoder/RegistrationApp/internal/service"
	appErrors "github.com/BrooksCoder/RegistrationApp/pkg/errors"
	"github.com/BrooksCoder/RegistrationApp/pkg/response"
)

type itemService interface {
	Create(ctx context.Context, req dto.CreateItemRequest, image *service.ImageUpload) (*models.Item, error)
	Get(ctx context.Context, id int64) (*models.Item, error)
	List(ctx context.Context, filter models.ItemFilter) ([]models.Item, error)
	Pending(ctx context.Context) ([]models.Item, error)
	Update(ctx context.Context, id int64, req dto.UpdateItemRequest) (*models.Item, error)
	Delete(ctx context.Context, id int64) error
}

// ItemHandler exposes item registration endpoints.
type ItemHandler struct {
	service      itemService
	prefix       string
	maxBodyBytes int64
}

// NewItemHandler constructs the handler. prefix is prepended to the Location
// header of created items; maxBodyBytes caps multipart uploads.
func NewItemHandler(service itemService, prefix string, maxBodyBytes int64) *ItemHandler {
	return &ItemHandler{service: service, prefix: strings.TrimRight(prefix, "/"), maxBodyBytes: maxBodyBytes}
}

// List godoc
// @Summary List items
// @Tags Items
// @Produce json
// @Param status query string false "Pending, Approved or Rejected"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Item
// @Router /items [get]
func (h *ItemHandler) List(c *gin.Context) {
	if h.service == nil {
		response.Error(c, notConfigured("item"))
		return
	}
	var query dto.ItemQuery
	if err := c.ShouldBindQuery(&query); err != nil || query.Limit < 0 || query.Offset < 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	filter := models.ItemFilter{Limit: query.Limit, Offset: query.Offset}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if raw := strings.TrimSpace(query.Status); raw != "" {
		status, err := models.ParseItemStatus(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "status must be one of: Pending Approved Rejected"))
			return
		}
		filter.Status = status
	}
	items, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// Get godoc
// @Summary Get an item
// @Tags Items
// @Produce json
// @Param id path int true "Item ID"
// @Success 200 {object} models.Item
// @Failure 404 {object} response.ErrorBody
// @Router /items/{id} [get]
func (h *ItemHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, notConfigured("item"))
		return
	}
	id, err := itemIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	item, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item)
}

// Create godoc
// @Summary Register an item
// @Description Accepts JSON, or multipart/form-data with an optional image field.
// @Tags Items
// @Accept json,mpfd
// @Produce json
// @Param payload body dto.CreateItemRequest true "Item payload"
// @Success 201 {object} models.Item
// @Failure 400 {object} response.ErrorBody
// @Router /items [post]
func (h *ItemHandler) Create(c *gin.Context) {
	if h.service == nil {
		response.Error(c, notConfigured("item"))
		return
	}
	var (
		req   dto.CreateItemRequest
		image *service.ImageUpload
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if h.maxBodyBytes > 0 {
			// room for the text fields on top of the image itself
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes+64<<10)
		}
		if err := c.ShouldBind(&req); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid item payload"))
			return
		}
		upload, closeImage, err := formImage(c)
		if err != nil {
			response.Error(c, err)
			return
		}
		defer closeImage()
		image = upload
	} else if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid item payload"))
		return
	}

	item, err := h.service.Create(c.Request.Context(), req, image)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, fmt.Sprintf("%s/items/%d", h.prefix, item.ID), item)
}

// Update godoc
// @Summary Update item details
// @Tags Items
// @Accept json
// @Produce json
// @Param id path int true "Item ID"
// @Param payload body dto.UpdateItemRequest true "Item payload"
// @Success 200 {object} models.Item
// @Router /items/{id} [put]
func (h *ItemHandler) Update(c *gin.Context) {
	if h.service == nil {
		response.Error(c, notConfigured("item"))
		return
	}
	id, err := itemIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid item payload"))
		return
	}
	item, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item)
}

// Delete godoc
// @Summary Delete an item
// @Tags Items
// @Param id path int true "Item ID"
// @Success 204
// @Router /items/{id} [delete]
func (h *ItemHandler) Delete(c *gin.Context) {
	if h.service == nil {
		response.Error(c, notConfigured("item"))
		return
	}
	id, err := itemIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Pending godoc
// @Summary List items awaiting review
// @Tags Items
// @Produce json
// @Success 200 {array} models.Item
// @Router /items/status/pending [get]
func (h *ItemHandler) Pending(c *gin.Context) {
	if h.service == nil {
		response.Error(c, notConfigured("item"))
		return
	}
	items, err := h.service.Pending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// formImage opens the optional "image" part. The returned func closes it.
func formImage(c *gin.Context) (*service.ImageUpload, func(), error) {
	header, err := c.FormFile("image")
	if err == http.ErrMissingFile {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid image upload")
	}
	file, err := header.Open()
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid image upload")
	}
	return &service.ImageUpload{Filename: header.Filename, Reader: file}, func() { _ = file.Close() }, nil
}
