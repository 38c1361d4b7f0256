package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/imageforge/imageforge/internal/logger"
)

var _ Storage = (*LocalStorage)(nil)

const sidecarSuffix = ".meta.json"

// LocalStorage keeps files on disk under a single directory, with a JSON
// sidecar per object carrying the content type and upload time. Storage is
// ephemeral: RunCleanup-style TTL sweeps are expected to prune it.
type LocalStorage struct {
	dir string
}

type sidecar struct {
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

func NewLocalStorage(dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &LocalStorage{dir: dir}, nil
}

func (s *LocalStorage) path(key string) (string, error) {
	if key == "" || strings.Contains(key, "/") || strings.Contains(key, "..") {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.dir, key), nil
}

func (s *LocalStorage) Upload(ctx context.Context, key string, reader io.Reader, contentType string, size int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p, err := s.path(key)
	if err != nil {
		return err
	}

	f, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("create %s: %w", key, err)
	}

	written, err := io.Copy(f, reader)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(p)
		return fmt.Errorf("write %s: %w", key, err)
	}

	meta := sidecar{
		ContentType: contentType,
		Size:        written,
		UploadedAt:  time.Now().UTC(),
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal sidecar for %s: %w", key, err)
	}
	if err := os.WriteFile(p+sidecarSuffix, data, 0o644); err != nil {
		return fmt.Errorf("write sidecar for %s: %w", key, err)
	}

	logger.FromContext(ctx).Debug("local storage upload", "key", key, "size", written, "content_type", contentType)
	return nil
}

func (s *LocalStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := s.path(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	return f, nil
}

func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p, err := s.path(key)
	if err != nil {
		return err
	}

	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %s: %w", key, err)
	}

	// The sidecar is not load-bearing; losing the delete is acceptable.
	_ = os.Remove(p + sidecarSuffix)
	return nil
}

func (s *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	p, err := s.path(key)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(p); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", key, err)
	}
	return true, nil
}

func (s *LocalStorage) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list storage dir: %w", err)
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasSuffix(entry.Name(), sidecarSuffix) {
			continue
		}
		keys = append(keys, entry.Name())
	}
	return keys, nil
}

func (s *LocalStorage) RemoveOlderThan(ctx context.Context, age time.Duration) (int, error) {
	log := logger.FromContext(ctx)
	cutoff := time.Now().Add(-age)

	keys, err := s.List(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return removed, err
		}

		p, err := s.path(key)
		if err != nil {
			continue
		}

		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		if err := s.Delete(ctx, key); err != nil {
			log.Warn("failed to remove expired file", "key", key, "error", err)
			continue
		}
		removed++
	}

	return removed, nil
}

func (s *LocalStorage) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("storage dir unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("storage path %s is not a directory", s.dir)
	}
	return nil
}

// ContentTypeOf reads the sidecar for a key. Missing sidecars are not an
// error; the caller falls back to sniffing.
func (s *LocalStorage) ContentTypeOf(key string) string {
	p, err := s.path(key)
	if err != nil {
		return ""
	}

	data, err := os.ReadFile(p + sidecarSuffix)
	if err != nil {
		return ""
	}

	var meta sidecar
	if err := json.Unmarshal(data, &meta); err != nil {
		return ""
	}
	return meta.ContentType
}
