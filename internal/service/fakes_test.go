package service

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/BrooksCoder/RegistrationApp/internal/models"
	"github.com/BrooksCoder/RegistrationApp/pkg/storage"
)

// memoryItemStore mimics the conditional update of the SQL store.
type memoryItemStore struct {
	mu     sync.Mutex
	items  map[int64]models.Item
	nextID int64
	err    error
}

func newMemoryItemStore() *memoryItemStore {
	return &memoryItemStore{items: map[int64]models.Item{}}
}

func (m *memoryItemStore) seed(name string, status models.ItemStatus) *models.Item {
	item := &models.Item{Name: name, Description: name + " description", Status: status}
	_ = m.Create(context.Background(), item)
	return item
}

func (m *memoryItemStore) Create(ctx context.Context, item *models.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.nextID++
	item.ID = m.nextID
	if item.Status == "" {
		item.Status = models.ItemStatusPending
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	m.items[item.ID] = *item
	return nil
}

func (m *memoryItemStore) GetByID(ctx context.Context, id int64) (*models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &item, nil
}

func (m *memoryItemStore) List(ctx context.Context, filter models.ItemFilter) ([]models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]models.Item, 0, len(m.items))
	for _, item := range m.items {
		if filter.Status == "" || item.Status == filter.Status {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memoryItemStore) UpdateDetails(ctx context.Context, id int64, name, description string) (*models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	item.Name, item.Description = name, description
	m.items[id] = item
	return &item, nil
}

func (m *memoryItemStore) TransitionStatus(ctx context.Context, id int64, from, to models.ItemStatus, at time.Time) (*models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok || item.Status != from {
		return nil, sql.ErrNoRows
	}
	item.Status = to
	item.UpdatedAt = &at
	m.items[id] = item
	return &item, nil
}

func (m *memoryItemStore) Delete(ctx context.Context, id int64) (*models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	delete(m.items, id)
	return &item, nil
}

func (m *memoryItemStore) CountByStatus(ctx context.Context) (models.ItemStatusCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return models.ItemStatusCounts{}, m.err
	}
	var counts models.ItemStatusCounts
	for _, item := range m.items {
		switch item.Status {
		case models.ItemStatusPending:
			counts.Pending++
		case models.ItemStatusApproved:
			counts.Approved++
		case models.ItemStatusRejected:
			counts.Rejected++
		}
	}
	return counts, nil
}

func (m *memoryItemStore) CountReachedSince(ctx context.Context, status models.ItemStatus, since time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, item := range m.items {
		if item.Status == status && item.UpdatedAt != nil && !item.UpdatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

type recordingSink struct {
	mu      sync.Mutex
	entries []models.AuditLogEntry
}

func (r *recordingSink) Record(ctx context.Context, entry models.AuditLogEntry) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.ID == "" {
		entry.ID = fmt.Sprintf("audit-%d", len(r.entries)+1)
	}
	r.entries = append(r.entries, entry)
	return entry.ID
}

func (r *recordingSink) byAction(action models.AuditAction) []models.AuditLogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.AuditLogEntry
	for _, e := range r.entries {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

type panickingSink struct{}

func (panickingSink) Record(context.Context, models.AuditLogEntry) string {
	panic("document store exploded")
}

type recordingDispatcher struct {
	mu       sync.Mutex
	messages []models.NotificationMessage
}

func (r *recordingDispatcher) Enqueue(ctx context.Context, msg models.NotificationMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

func (r *recordingDispatcher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}

type panickingDispatcher struct{}

func (panickingDispatcher) Enqueue(context.Context, models.NotificationMessage) {
	panic("queue exploded")
}

type memoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: map[string][]byte{}}
}

func (m *memoryStorage) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (*storage.UploadResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return &storage.UploadResult{Key: key, Size: int64(len(data)), ContentType: contentType}, nil
}

func (m *memoryStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memoryStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryStorage) GetURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "https://blobs.example.com/" + key + "?sig=test", nil
}

func (m *memoryStorage) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok, nil
}
