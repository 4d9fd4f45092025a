// Package storage abstracts the blob backend that holds item images.
//
// Backends register themselves from an init function in their own package and
// are selected by name at startup:
//
//	import _ "github.com/BrooksCoder/RegistrationApp/pkg/storage/azure"
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"
)

// ErrNotFound is returned when an object does not exist.
var ErrNotFound = errors.New("object not found")

// ErrInvalidKey is returned for keys that could escape the backend namespace.
var ErrInvalidKey = errors.New("invalid object key")

// Storage is implemented by every blob backend.
type Storage interface {
	// Upload stores the content under key.
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (*UploadResult, error)
	// Download opens the object for reading.
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the object; deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error
	// GetURL returns a time-limited URL the browser can fetch directly.
	GetURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	// Exists reports whether the object is present.
	Exists(ctx context.Context, key string) (bool, error)
}

// UploadResult describes a stored object.
type UploadResult struct {
	Key         string
	Size        int64
	Checksum    string
	ContentType string
}

// CleanKey normalises an object key and rejects traversal attempts.
func CleanKey(key string) (string, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned != key || strings.HasPrefix(cleaned, "../") || cleaned == ".." {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}
