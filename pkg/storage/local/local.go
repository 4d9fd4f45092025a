// Package local stores images on the filesystem and serves them through
// HMAC-signed download tokens. It is the development default.
package local

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BrooksCoder/RegistrationApp/pkg/config"
	"github.com/BrooksCoder/RegistrationApp/pkg/storage"
)

func init() {
	storage.Register("local", func(cfg *config.Config) (storage.Storage, error) {
		signer := storage.NewSignedURLSigner(cfg.Storage.SignedURLSecret, cfg.Storage.SignedURLTTL)
		return New(cfg.Storage.LocalDir, strings.TrimRight(cfg.APIPrefix, "/")+"/files/", signer)
	})
}

// Storage persists objects under a base directory.
type Storage struct {
	baseDir string
	baseURL string
	signer  *storage.SignedURLSigner
}

// New ensures the base directory exists and returns a handle. Download URLs
// are baseURL followed by a signed token.
func New(baseDir, baseURL string, signer *storage.SignedURLSigner) (*Storage, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &Storage{baseDir: baseDir, baseURL: baseURL, signer: signer}, nil
}

// Upload copies r into the object path, hashing as it goes.
func (s *Storage) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (*storage.UploadResult, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("prepare storage directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create object file: %w", err)
	}
	defer file.Close() //nolint:errcheck

	hasher := sha256.New()
	written, err := io.Copy(io.MultiWriter(file, hasher), &ctxReader{ctx: ctx, r: r})
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write object: %w", err)
	}
	return &storage.UploadResult{
		Key:         key,
		Size:        written,
		Checksum:    hex.EncodeToString(hasher.Sum(nil)),
		ContentType: contentType,
	}, nil
}

// Download opens the stored file.
func (s *Storage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("open object: %w", err)
	}
	return file, nil
}

// Delete removes a stored file if present.
func (s *Storage) Delete(ctx context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// GetURL returns a signed download URL served by the files endpoint.
func (s *Storage) GetURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	exists, err := s.Exists(ctx, key)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", storage.ErrNotFound
	}
	token, _, err := s.signer.Generate(key, ttl)
	if err != nil {
		return "", err
	}
	return s.baseURL + token, nil
}

// Exists reports whether the file is on disk.
func (s *Storage) Exists(ctx context.Context, key string) (bool, error) {
	path, err := s.resolve(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat object: %w", err)
	}
	return true, nil
}

// ResolveToken validates a download token and returns the object key.
func (s *Storage) ResolveToken(token string) (string, error) {
	key, _, err := s.signer.Parse(token)
	return key, err
}

func (s *Storage) resolve(key string) (string, error) {
	cleaned, err := storage.CleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(cleaned)), nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
