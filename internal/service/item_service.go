package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BrooksCoder/RegistrationApp/internal/dto"
	"github.com/BrooksCoder/RegistrationApp/internal/models"
	appErrors "github.com/BrooksCoder/RegistrationApp/pkg/errors"
	"github.com/BrooksCoder/RegistrationApp/pkg/imaging"
	"github.com/BrooksCoder/RegistrationApp/pkg/storage"
)

type itemStore interface {
	Create(ctx context.Context, item *models.Item) error
	GetByID(ctx context.Context, id int64) (*models.Item, error)
	List(ctx context.Context, filter models.ItemFilter) ([]models.Item, error)
	UpdateDetails(ctx context.Context, id int64, name, description string) (*models.Item, error)
	Delete(ctx context.Context, id int64) (*models.Item, error)
}

// ImageUpload is an image attached to a create request.
type ImageUpload struct {
	Filename string
	Reader   io.Reader
}

// ItemImages stores item images. A nil *ItemImages disables uploads.
type ItemImages struct {
	Store     storage.Storage
	Processor *imaging.Processor
	URLPrefix string
	URLTTL    time.Duration
	Timeout   time.Duration
}

// ItemService handles item registration use-cases. Status changes go through
// ApprovalService.
type ItemService struct {
	repo      itemStore
	images    *ItemImages
	effects   *SideEffects
	validator *validator.Validate
	logger    *zap.Logger
}

// NewItemService constructs the item service.
func NewItemService(repo itemStore, images *ItemImages, effects *SideEffects, validate *validator.Validate, logger *zap.Logger) *ItemService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if effects == nil {
		effects = NewSideEffects(nil, nil, nil, "", logger)
	}
	if images != nil && images.Timeout <= 0 {
		images.Timeout = 30 * time.Second
	}
	return &ItemService{repo: repo, images: images, effects: effects, validator: validate, logger: logger}
}

// Create registers a new Pending item, optionally storing an image first.
func (s *ItemService) Create(ctx context.Context, req dto.CreateItemRequest, image *ImageUpload) (*models.Item, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	item := &models.Item{
		Name:        req.Name,
		Description: req.Description,
		Status:      models.ItemStatusPending,
	}
	if image != nil {
		key, err := s.storeImage(ctx, image)
		if err != nil {
			return nil, err
		}
		url := s.images.URLPrefix + key
		item.ImageKey = &key
		item.ImageURL = &url
	}

	if err := s.repo.Create(ctx, item); err != nil {
		if item.ImageKey != nil {
			s.deleteImage(ctx, *item.ImageKey)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create item")
	}

	s.effects.AuditItem(ctx, models.AuditActionCreated, item, nil)
	s.effects.NotifyItem(ctx, "Item Created", item)
	s.effects.Track(EventItemCreated)
	return item, nil
}

// Get loads a single item.
func (s *ItemService) Get(ctx context.Context, id int64) (*models.Item, error) {
	item, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.effects.AuditItem(ctx, models.AuditActionViewed, item, nil)
	return item, nil
}

// List returns items newest first.
func (s *ItemService) List(ctx context.Context, filter models.ItemFilter) ([]models.Item, error) {
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list items")
	}
	details := map[string]interface{}{"count": len(items)}
	if filter.Status != "" {
		details["status"] = string(filter.Status)
	}
	s.effects.Audit(ctx, models.AuditLogEntry{
		ItemID:   models.AuditSystemPartition,
		Action:   models.AuditActionViewed,
		ItemName: "item list",
		Details:  details,
	})
	return items, nil
}

// Pending lists items awaiting review.
func (s *ItemService) Pending(ctx context.Context) ([]models.Item, error) {
	return s.List(ctx, models.ItemFilter{Status: models.ItemStatusPending})
}

// Update replaces name and description. Status is never touched.
func (s *ItemService) Update(ctx context.Context, id int64, req dto.UpdateItemRequest) (*models.Item, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	item, err := s.repo.UpdateDetails(ctx, id, req.Name, req.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, itemNotFound(id)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update item")
	}
	s.effects.AuditItem(ctx, models.AuditActionUpdated, item, nil)
	s.effects.Track(EventItemUpdated)
	return item, nil
}

// Delete removes an item and its image.
func (s *ItemService) Delete(ctx context.Context, id int64) error {
	item, err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return itemNotFound(id)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete item")
	}
	if item.ImageKey != nil {
		s.deleteImage(ctx, *item.ImageKey)
	}
	s.effects.AuditItem(ctx, models.AuditActionDeleted, item, nil)
	s.effects.Track(EventItemDeleted)
	return nil
}

// ImageURL returns a short-lived URL for a stored image key.
func (s *ItemService) ImageURL(ctx context.Context, key string) (string, error) {
	if s.images == nil {
		return "", appErrors.Clone(appErrors.ErrNotFound, "image not found")
	}
	key, err := storage.CleanKey(key)
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrNotFound, "image not found")
	}
	ctx, cancel := context.WithTimeout(ctx, s.images.Timeout)
	defer cancel()
	exists, err := s.images.Store.Exists(ctx, key)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve image")
	}
	if !exists {
		return "", appErrors.Clone(appErrors.ErrNotFound, "image not found")
	}
	url, err := s.images.Store.GetURL(ctx, key, s.images.URLTTL)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign image url")
	}
	return url, nil
}

func (s *ItemService) load(ctx context.Context, id int64) (*models.Item, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, itemNotFound(id)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load item")
	}
	return item, nil
}

func (s *ItemService) storeImage(ctx context.Context, image *ImageUpload) (string, error) {
	if s.images == nil {
		return "", appErrors.Clone(appErrors.ErrValidation, "image uploads are not enabled")
	}
	processed, err := s.images.Processor.Process(image.Reader)
	if err != nil {
		switch {
		case errors.Is(err, imaging.ErrTooLarge):
			return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "image exceeds the size limit")
		case errors.Is(err, imaging.ErrUnsupportedFormat):
			return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "image must be a JPEG or PNG")
		default:
			return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "image could not be decoded")
		}
	}

	key := "items/" + uuid.NewString() + ".jpg"
	uploadCtx, cancel := context.WithTimeout(ctx, s.images.Timeout)
	defer cancel()
	if _, err := s.images.Store.Upload(uploadCtx, key, bytes.NewReader(processed.Data), int64(len(processed.Data)), processed.MIME); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store image")
	}
	s.logger.Info("item image stored",
		zap.String("key", key),
		zap.String("filename", image.Filename),
		zap.Int("width", processed.Width),
		zap.Int("height", processed.Height),
	)
	return key, nil
}

func (s *ItemService) deleteImage(ctx context.Context, key string) {
	if s.images == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.images.Timeout)
	defer cancel()
	if err := s.images.Store.Delete(ctx, key); err != nil {
		s.logger.Warn("failed to delete item image",
			zap.String("kind", appErrors.ErrDependencyUnavailable.Code),
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

func itemNotFound(id int64) *appErrors.Error {
	return appErrors.Clone(appErrors.ErrNotFound, "item "+strconv.FormatInt(id, 10)+" not found")
}
