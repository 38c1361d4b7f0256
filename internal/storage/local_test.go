package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newLocal(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage() error: %v", err)
	}
	return s
}

func TestLocalStorage_RoundTrip(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()
	payload := []byte("image bytes here")

	if err := s.Upload(ctx, "a.jpg", bytes.NewReader(payload), "image/jpeg", int64(len(payload))); err != nil {
		t.Fatalf("Upload() error: %v", err)
	}

	rc, err := s.Download(ctx, "a.jpg")
	if err != nil {
		t.Fatalf("Download() error: %v", err)
	}
	got, _ := io.ReadAll(rc)
	_ = rc.Close()

	if !bytes.Equal(got, payload) {
		t.Errorf("Download() = %q, want %q", got, payload)
	}

	if ct := s.ContentTypeOf("a.jpg"); ct != "image/jpeg" {
		t.Errorf("ContentTypeOf() = %q, want image/jpeg", ct)
	}

	exists, err := s.Exists(ctx, "a.jpg")
	if err != nil || !exists {
		t.Errorf("Exists() = %v, %v; want true, nil", exists, err)
	}
}

func TestLocalStorage_DownloadMissing(t *testing.T) {
	s := newLocal(t)

	_, err := s.Download(context.Background(), "nope.png")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Download() = %v, want ErrNotFound", err)
	}
}

func TestLocalStorage_InvalidKeys(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()

	for _, key := range []string{"", "a/b.png", "../escape.png"} {
		if err := s.Upload(ctx, key, bytes.NewReader(nil), "image/png", 0); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Upload(%q) = %v, want ErrInvalidKey", key, err)
		}
		if _, err := s.Download(ctx, key); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Download(%q) = %v, want ErrInvalidKey", key, err)
		}
	}
}

func TestLocalStorage_Delete(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()

	if err := s.Upload(ctx, "b.png", bytes.NewReader([]byte("x")), "image/png", 1); err != nil {
		t.Fatalf("Upload() error: %v", err)
	}
	if err := s.Delete(ctx, "b.png"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}

	exists, _ := s.Exists(ctx, "b.png")
	if exists {
		t.Error("Exists() = true after delete")
	}

	// Deleting again is not an error.
	if err := s.Delete(ctx, "b.png"); err != nil {
		t.Errorf("second Delete() = %v, want nil", err)
	}
}

// TestLocalStorage_ListSkipsSidecars verifies metadata sidecars never leak
// into listings.
func TestLocalStorage_ListSkipsSidecars(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()

	for _, key := range []string{"one.png", "two.jpg"} {
		if err := s.Upload(ctx, key, bytes.NewReader([]byte("x")), "image/png", 1); err != nil {
			t.Fatalf("Upload(%s) error: %v", key, err)
		}
	}

	keys, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(keys) != 2 {
		t.Errorf("List() = %v, want the two objects only", keys)
	}
	for _, k := range keys {
		if filepath.Ext(k) == ".json" {
			t.Errorf("List() leaked sidecar %q", k)
		}
	}
}

func TestLocalStorage_RemoveOlderThan(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir)
	if err != nil {
		t.Fatalf("NewLocalStorage() error: %v", err)
	}
	ctx := context.Background()

	if err := s.Upload(ctx, "old.png", bytes.NewReader([]byte("x")), "image/png", 1); err != nil {
		t.Fatalf("Upload() error: %v", err)
	}
	if err := s.Upload(ctx, "fresh.png", bytes.NewReader([]byte("x")), "image/png", 1); err != nil {
		t.Fatalf("Upload() error: %v", err)
	}

	// Backdate one file past the cutoff.
	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(filepath.Join(dir, "old.png"), past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	removed, err := s.RemoveOlderThan(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("RemoveOlderThan() error: %v", err)
	}
	if removed != 1 {
		t.Errorf("RemoveOlderThan() = %d, want 1", removed)
	}

	if exists, _ := s.Exists(ctx, "old.png"); exists {
		t.Error("expired file still present")
	}
	if exists, _ := s.Exists(ctx, "fresh.png"); !exists {
		t.Error("fresh file was swept")
	}
}

func TestLocalStorage_HealthCheck(t *testing.T) {
	s := newLocal(t)
	if err := s.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() = %v, want nil", err)
	}
}
