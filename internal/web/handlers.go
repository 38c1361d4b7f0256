package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/imageforge/imageforge/internal/apperror"
	"github.com/imageforge/imageforge/internal/imagemeta"
	"github.com/imageforge/imageforge/internal/lifecycle"
	"github.com/imageforge/imageforge/internal/logger"
	"github.com/imageforge/imageforge/internal/options"
	"github.com/imageforge/imageforge/internal/storage"
)

type Handlers struct {
	svc      *lifecycle.Service
	registry *lifecycle.Registry
	store    storage.Storage
}

func NewHandlers(svc *lifecycle.Service, registry *lifecycle.Registry, store storage.Storage) *Handlers {
	return &Handlers{
		svc:      svc,
		registry: registry,
		store:    store,
	}
}

type uploadResponse struct {
	Success  bool            `json:"success"`
	ID       string          `json:"id"`
	URL      string          `json:"url"`
	Metadata *imagemeta.Info `json:"metadata,omitempty"`
}

// Upload accepts a single multipart file, validates it before any storage
// call, and runs the upload phase. A second concurrent upload gets a busy
// rejection without touching the in-flight one.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	// One size class above the cap, so oversize detection happens in the
	// lifecycle layer with a proper error instead of a broken multipart read.
	r.Body = http.MaxBytesReader(w, r.Body, lifecycle.MaxFileSize+1024*1024)

	if err := r.ParseMultipartForm(1 << 20); err != nil {
		apperror.WriteJSON(w, r, apperror.Wrap(err, apperror.ErrBadRequest))
		return
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		apperror.WriteJSON(w, r, apperror.Wrap(err, apperror.ErrBadRequest))
		return
	}
	defer func() { _ = part.Close() }()

	contentType := header.Header.Get("Content-Type")
	f := lifecycle.NewFile(header.Filename, contentType, header.Size)

	if err := h.svc.Upload(r.Context(), f, part, nil); err != nil {
		apperror.WriteJSON(w, r, err)
		return
	}

	h.registry.Add(f)

	writeJSON(w, http.StatusOK, uploadResponse{
		Success:  true,
		ID:       f.ID,
		URL:      "/api/files/" + f.OriginalURL,
		Metadata: f.Metadata,
	})
}

type processFileResult struct {
	ID       string          `json:"id"`
	Success  bool            `json:"success"`
	URL      string          `json:"url,omitempty"`
	Metadata *imagemeta.Info `json:"metadata,omitempty"`
	Ratio    string          `json:"ratio,omitempty"`
	Error    string          `json:"error,omitempty"`
}

type processResponse struct {
	Success bool                `json:"success"`
	Files   []processFileResult `json:"files"`
}

// Process runs the translated pipeline over the named files, strictly one at
// a time. Individual failures land in that file's result entry; only a
// validation failure or a transport-level abort fails the whole call.
func (h *Handlers) Process(w http.ResponseWriter, r *http.Request) {
	req, err := options.DecodeRequest(r.Body)
	if err != nil {
		apperror.WriteJSON(w, r, apperror.Wrap(err, apperror.ErrBadRequest))
		return
	}

	// The job label is a soft business rule on this surface: noted, never
	// blocking.
	if strings.TrimSpace(req.Label) == "" {
		logger.FromContext(r.Context()).Warn("process request without job label")
	}

	if len(req.FileIDs) == 0 {
		apperror.WriteJSON(w, r, apperror.Wrap(errors.New("no file ids"), apperror.ErrBadRequest))
		return
	}

	files := h.registry.GetAll(req.FileIDs)
	if len(files) == 0 {
		apperror.WriteJSON(w, r, apperror.ErrNotFound)
		return
	}

	if err := h.svc.ProcessBatch(r.Context(), files, req.Options, nil); err != nil {
		apperror.WriteJSON(w, r, err)
		return
	}

	results := make([]processFileResult, 0, len(files))
	for _, f := range files {
		res := processFileResult{ID: f.ID}
		if f.Status() == lifecycle.StatusSuccess && f.ProcessedURL != "" {
			res.Success = true
			res.URL = "/api/files/" + f.ProcessedURL
			res.Metadata = f.ProcessedMetadata
			res.Ratio = f.CompressionRatio()
		} else {
			res.Error = f.Err()
		}
		results = append(results, res)
	}

	writeJSON(w, http.StatusOK, processResponse{Success: true, Files: results})
}

type statusResponse struct {
	Success  bool             `json:"success"`
	ID       string           `json:"id"`
	Status   lifecycle.Status `json:"status"`
	Progress int              `json:"progress"`
	Error    string           `json:"error,omitempty"`
}

func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	f, ok := h.registry.Get(id)
	if !ok {
		apperror.WriteJSON(w, r, apperror.ErrNotFound)
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{
		Success:  true,
		ID:       f.ID,
		Status:   f.Status(),
		Progress: f.Progress(),
		Error:    f.Err(),
	})
}

// ServeFile streams stored bytes back to the client.
func (h *Handlers) ServeFile(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	rc, err := h.store.Download(r.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			apperror.WriteJSON(w, r, apperror.ErrNotFound)
			return
		}
		apperror.WriteJSON(w, r, apperror.Wrap(err, apperror.ErrTransport))
		return
	}
	defer func() { _ = rc.Close() }()

	if ct := contentTypeForKey(h.store, key); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	if _, err := io.Copy(w, rc); err != nil {
		logger.FromContext(r.Context()).Warn("streaming file failed", "key", key, "error", err)
	}
}

func (h *Handlers) DeleteFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	f, ok := h.registry.Get(id)
	if !ok {
		apperror.WriteJSON(w, r, apperror.ErrNotFound)
		return
	}

	if err := h.svc.Remove(r.Context(), f); err != nil {
		apperror.WriteJSON(w, r, err)
		return
	}
	h.registry.Remove(id)

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func contentTypeForKey(store storage.Storage, key string) string {
	if local, ok := store.(*storage.LocalStorage); ok {
		if ct := local.ContentTypeOf(key); ct != "" {
			return ct
		}
	}

	switch {
	case strings.HasSuffix(key, ".png"):
		return "image/png"
	case strings.HasSuffix(key, ".webp"):
		return "image/webp"
	case strings.HasSuffix(key, ".jpg"), strings.HasSuffix(key, ".jpeg"):
		return "image/jpeg"
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
