// Package gcs stores item images in Google Cloud Storage.
package gcs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	gstorage "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/BrooksCoder/RegistrationApp/pkg/config"
	"github.com/BrooksCoder/RegistrationApp/pkg/storage"
)

func init() {
	storage.Register("gcs", func(cfg *config.Config) (storage.Storage, error) {
		return New(context.Background(), cfg.Storage)
	})
}

// Storage implements storage.Storage on one bucket.
type Storage struct {
	client *gstorage.Client
	bucket string
}

// New uses a credentials file when configured, Application Default
// Credentials otherwise.
func New(ctx context.Context, cfg config.StorageConfig) (*Storage, error) {
	if cfg.GCSBucket == "" {
		return nil, fmt.Errorf("gcs bucket is required")
	}
	var opts []option.ClientOption
	if cfg.GCSCredentials != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.GCSCredentials))
	}
	client, err := gstorage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &Storage{client: client, bucket: cfg.GCSBucket}, nil
}

// Close releases the client.
func (s *Storage) Close() error {
	return s.client.Close()
}

// Upload streams r into the object while hashing it.
func (s *Storage) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (*storage.UploadResult, error) {
	hasher := sha256.New()
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType

	written, err := io.Copy(io.MultiWriter(w, hasher), r)
	if err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalize object: %w", err)
	}
	return &storage.UploadResult{
		Key:         key,
		Size:        written,
		Checksum:    hex.EncodeToString(hasher.Sum(nil)),
		ContentType: contentType,
	}, nil
}

// Download opens a reader on the object.
func (s *Storage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gstorage.ErrObjectNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("read object: %w", err)
	}
	return rc, nil
}

// Delete removes the object; a missing object is ignored.
func (s *Storage) Delete(ctx context.Context, key string) error {
	err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, gstorage.ErrObjectNotExist) {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// GetURL signs a V4 GET URL valid for ttl.
func (s *Storage) GetURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	exists, err := s.Exists(ctx, key)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", storage.ErrNotFound
	}
	signed, err := s.client.Bucket(s.bucket).SignedURL(key, &gstorage.SignedURLOptions{
		Scheme:  gstorage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("sign url: %w", err)
	}
	return signed, nil
}

// Exists reads object attributes.
func (s *Storage) Exists(ctx context.Context, key string) (bool, error) {
	if _, err := s.client.Bucket(s.bucket).Object(key).Attrs(ctx); err != nil {
		if errors.Is(err, gstorage.ErrObjectNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read object attrs: %w", err)
	}
	return true, nil
}
