package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BrooksCoder/RegistrationApp/internal/dto"
	"github.com/BrooksCoder/RegistrationApp/internal/models"
	appErrors "github.com/BrooksCoder/RegistrationApp/pkg/errors"
	"github.com/BrooksCoder/RegistrationApp/pkg/imaging"
)

type itemFixture struct {
	items      *ItemService
	approvals  *ApprovalService
	store      *memoryItemStore
	blobs      *memoryStorage
	sink       *recordingSink
	dispatcher *recordingDispatcher
}

func newItemFixture() *itemFixture {
	f := &itemFixture{
		store:      newMemoryItemStore(),
		blobs:      newMemoryStorage(),
		sink:       &recordingSink{},
		dispatcher: &recordingDispatcher{},
	}
	effects := NewSideEffects(f.sink, f.dispatcher, NewMetricsService(), "admin@example.com", zap.NewNop())
	images := &ItemImages{
		Store:     f.blobs,
		Processor: imaging.NewProcessor(1 << 20),
		URLPrefix: "/api/images/",
		URLTTL:    time.Minute,
	}
	f.items = NewItemService(f.store, images, effects, nil, zap.NewNop())
	f.approvals = NewApprovalService(f.store, effects, zap.NewNop())
	return f
}

func TestWidgetScenario(t *testing.T) {
	f := newItemFixture()
	ctx := context.Background()

	created, err := f.items.Create(ctx, dto.CreateItemRequest{Name: "Widget", Description: "A small widget"}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ItemStatusPending, created.Status)
	assert.NotZero(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Nil(t, created.UpdatedAt)
	require.Equal(t, 1, f.dispatcher.count())
	assert.Equal(t, "Item Created: Widget", f.dispatcher.messages[0].Subject)

	approved, err := f.approvals.Approve(ctx, created.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.ItemStatusApproved, approved.Status)
	require.NotNil(t, approved.UpdatedAt)

	entries := f.sink.byAction(models.AuditActionApproved)
	require.Len(t, entries, 1)
	assert.Equal(t, strconv.FormatInt(created.ID, 10), entries[0].ItemID)
	assert.Equal(t, models.AuditDefaultActor, entries[0].ChangedBy)

	require.Equal(t, 2, f.dispatcher.count(), "approval enqueues exactly one notification")
	assert.Equal(t, "Item Approved: Widget", f.dispatcher.messages[1].Subject)
	assert.Equal(t, created.ID, *f.dispatcher.messages[1].ItemID)
}

func TestCreateItemValidation(t *testing.T) {
	cases := map[string]struct {
		req     dto.CreateItemRequest
		message string
	}{
		"blank name":        {dto.CreateItemRequest{Name: "   ", Description: "ok"}, "name is required"},
		"blank description": {dto.CreateItemRequest{Name: "ok", Description: "\t\n"}, "description is required"},
		"long name":         {dto.CreateItemRequest{Name: strings.Repeat("n", 201), Description: "ok"}, "name must be at most 200 characters"},
		"long description":  {dto.CreateItemRequest{Name: "ok", Description: strings.Repeat("d", 1001)}, "description must be at most 1000 characters"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			f := newItemFixture()
			_, err := f.items.Create(context.Background(), tc.req, nil)
			require.ErrorIs(t, err, appErrors.ErrValidation)
			assert.Equal(t, tc.message, appErrors.FromError(err).Message)

			items, _ := f.store.List(context.Background(), models.ItemFilter{})
			assert.Empty(t, items)
			assert.Empty(t, f.sink.entries)
			assert.Zero(t, f.dispatcher.count())
		})
	}
}

func TestCreateItemTrimsInput(t *testing.T) {
	f := newItemFixture()
	item, err := f.items.Create(context.Background(), dto.CreateItemRequest{Name: "  Widget ", Description: " blue "}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Widget", item.Name)
	assert.Equal(t, "blue", item.Description)
}

func TestCreateItemStoreFailure(t *testing.T) {
	f := newItemFixture()
	f.store.err = errors.New("db down")
	_, err := f.items.Create(context.Background(), dto.CreateItemRequest{Name: "Widget", Description: "x"}, nil)
	require.ErrorIs(t, err, appErrors.ErrInternal)
	assert.Zero(t, f.dispatcher.count())
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCreateItemWithImage(t *testing.T) {
	f := newItemFixture()
	upload := &ImageUpload{Filename: "widget.png", Reader: bytes.NewReader(pngBytes(t, 2048, 1024))}

	item, err := f.items.Create(context.Background(), dto.CreateItemRequest{Name: "Widget", Description: "x"}, upload)
	require.NoError(t, err)
	require.NotNil(t, item.ImageKey)
	require.NotNil(t, item.ImageURL)
	assert.Equal(t, "/api/images/"+*item.ImageKey, *item.ImageURL)

	stored, ok := f.blobs.objects[*item.ImageKey]
	require.True(t, ok)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(stored))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 1024, cfg.Width)
	assert.Equal(t, 512, cfg.Height)

	url, err := f.items.ImageURL(context.Background(), *item.ImageKey)
	require.NoError(t, err)
	assert.Contains(t, url, *item.ImageKey)

	require.NoError(t, f.items.Delete(context.Background(), item.ID))
	assert.Empty(t, f.blobs.objects)
}

func TestCreateItemRejectsBadImage(t *testing.T) {
	f := newItemFixture()
	upload := &ImageUpload{Filename: "notes.txt", Reader: strings.NewReader("plain text is not an image")}

	_, err := f.items.Create(context.Background(), dto.CreateItemRequest{Name: "Widget", Description: "x"}, upload)
	require.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Equal(t, "image must be a JPEG or PNG", appErrors.FromError(err).Message)
	items, _ := f.store.List(context.Background(), models.ItemFilter{})
	assert.Empty(t, items)
}

func TestCreateItemRemovesImageWhenInsertFails(t *testing.T) {
	f := newItemFixture()
	f.store.err = errors.New("db down")
	upload := &ImageUpload{Reader: bytes.NewReader(pngBytes(t, 10, 10))}

	_, err := f.items.Create(context.Background(), dto.CreateItemRequest{Name: "Widget", Description: "x"}, upload)
	require.Error(t, err)
	assert.Empty(t, f.blobs.objects)
}

func TestImageURLUnknownKey(t *testing.T) {
	f := newItemFixture()
	_, err := f.items.ImageURL(context.Background(), "items/missing.jpg")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	_, err = f.items.ImageURL(context.Background(), "../etc/passwd")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestItemMissingOperations(t *testing.T) {
	f := newItemFixture()
	ctx := context.Background()

	_, err := f.items.Get(ctx, 99)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	_, err = f.items.Update(ctx, 99, dto.UpdateItemRequest{Name: "a", Description: "b"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.ErrorIs(t, f.items.Delete(ctx, 99), appErrors.ErrNotFound)
}

func TestUpdateItemKeepsStatus(t *testing.T) {
	f := newItemFixture()
	item := f.store.seed("Widget", models.ItemStatusApproved)

	updated, err := f.items.Update(context.Background(), item.ID, dto.UpdateItemRequest{Name: "Widget 2", Description: "new"})
	require.NoError(t, err)
	assert.Equal(t, "Widget 2", updated.Name)
	assert.Equal(t, models.ItemStatusApproved, updated.Status)
	assert.Len(t, f.sink.byAction(models.AuditActionUpdated), 1)
}

func TestListAuditsUnderSystemPartition(t *testing.T) {
	f := newItemFixture()
	f.store.seed("a", models.ItemStatusPending)
	f.store.seed("b", models.ItemStatusApproved)

	pending, err := f.items.Pending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "a", pending[0].Name)

	views := f.sink.byAction(models.AuditActionViewed)
	require.Len(t, views, 1)
	assert.Equal(t, models.AuditSystemPartition, views[0].ItemID)
	assert.Equal(t, 1, views[0].Details["count"])
}

func TestRequestMetaFlowsIntoAudit(t *testing.T) {
	f := newItemFixture()
	ctx := WithRequestMeta(context.Background(), RequestMeta{Actor: "carol", IPAddress: "10.0.0.1", UserAgent: "test"})

	_, err := f.items.Create(ctx, dto.CreateItemRequest{Name: "Widget", Description: "x"}, nil)
	require.NoError(t, err)
	entries := f.sink.byAction(models.AuditActionCreated)
	require.Len(t, entries, 1)
	assert.Equal(t, "carol", entries[0].ChangedBy)
	assert.Equal(t, "10.0.0.1", entries[0].IPAddress)
	assert.Equal(t, "test", entries[0].UserAgent)
}
