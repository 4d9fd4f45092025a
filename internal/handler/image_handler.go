package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/BrooksCoder/RegistrationApp/pkg/errors"
	"github.com/BrooksCoder/RegistrationApp/pkg/imaging"
	"github.com/BrooksCoder/RegistrationApp/pkg/response"
	"github.com/BrooksCoder/RegistrationApp/pkg/storage"
)

type imageURLService interface {
	ImageURL(ctx context.Context, key string) (string, error)
}

// TokenStore serves objects behind signed download tokens.
type TokenStore interface {
	ResolveToken(token string) (string, error)
	Download(ctx context.Context, key string) (io.ReadCloser, error)
}

// ImageHandler resolves item images to fetchable URLs.
type ImageHandler struct {
	images imageURLService
	files  TokenStore
}

// NewImageHandler constructs the handler. files may be nil when the blob
// backend signs its own URLs.
func NewImageHandler(images imageURLService, files TokenStore) *ImageHandler {
	return &ImageHandler{images: images, files: files}
}

// Redirect godoc
// @Summary Redirect to a short-lived image URL
// @Tags Images
// @Param key path string true "Object key"
// @Success 302
// @Failure 404 {object} response.ErrorBody
// @Router /images/{key} [get]
func (h *ImageHandler) Redirect(c *gin.Context) {
	if h.images == nil {
		response.Error(c, notConfigured("image"))
		return
	}
	key := strings.TrimPrefix(c.Param("key"), "/")
	url, err := h.images.ImageURL(c.Request.Context(), key)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Redirect(http.StatusFound, url)
}

// Download godoc
// @Summary Download an object through a signed token
// @Tags Images
// @Produce image/jpeg
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Router /files/{token} [get]
func (h *ImageHandler) Download(c *gin.Context) {
	if h.files == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "file not found"))
		return
	}
	key, err := h.files.ResolveToken(c.Param("token"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "file not found"))
		return
	}
	rc, err := h.files.Download(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "file not found"))
			return
		}
		response.Error(c, err)
		return
	}
	defer rc.Close()
	c.Header("Cache-Control", "private, max-age=300")
	c.DataFromReader(http.StatusOK, -1, imaging.OutputMIME, rc, nil)
}
