package lifecycle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/imageforge/imageforge/internal/apperror"
	"github.com/imageforge/imageforge/internal/imagemeta"
	"github.com/imageforge/imageforge/internal/logger"
	"github.com/imageforge/imageforge/internal/metrics"
	"github.com/imageforge/imageforge/internal/options"
	"github.com/imageforge/imageforge/internal/pipeline"
	"github.com/imageforge/imageforge/internal/storage"
)

// MaxFileSize is the upload cap: 10 MiB exactly.
const MaxFileSize = 10 * 1024 * 1024

var allowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Service owns the upload and processing phases. Gates are injected so the
// serialization policy (in-process, Redis, lock file) is a deployment
// decision, not baked in here.
type Service struct {
	store       storage.Storage
	executor    pipeline.Executor
	uploadGate  Gate
	processGate Gate
	maxFileSize int64
}

func NewService(store storage.Storage, executor pipeline.Executor, uploadGate, processGate Gate) *Service {
	return &Service{
		store:       store,
		executor:    executor,
		uploadGate:  uploadGate,
		processGate: processGate,
		maxFileSize: MaxFileSize,
	}
}

// WithMaxFileSize overrides the upload cap, mostly for deployments that
// front the service with a tighter proxy limit.
func (s *Service) WithMaxFileSize(n int64) *Service {
	if n > 0 {
		s.maxFileSize = n
	}
	return s
}

// ValidateFile applies the pre-upload checks. It runs before the gate and
// before any network call, so a rejected file never wastes an upload
// attempt.
func (s *Service) ValidateFile(contentType string, size int64) error {
	if !allowedContentTypes[contentType] {
		return apperror.Wrap(fmt.Errorf("content type %q", contentType), apperror.ErrInvalidFileType)
	}
	if size > s.maxFileSize {
		return apperror.Wrap(fmt.Errorf("%d bytes exceeds %d", size, s.maxFileSize), apperror.ErrFileTooLarge)
	}
	return nil
}

// Upload transfers one file into storage. Exactly one upload may be in
// flight system-wide: a concurrent attempt fails immediately with a busy
// error and leaves the in-flight upload untouched. The gate is released
// unconditionally once the upload settles, including on cancellation.
func (s *Service) Upload(ctx context.Context, f *File, r io.Reader, onProgress func(int)) error {
	log := logger.FromContext(logger.WithFileID(ctx, f.ID))

	if err := s.ValidateFile(f.ContentType, f.Size); err != nil {
		return err
	}

	if err := s.uploadGate.TryAcquire(ctx); err != nil {
		if errors.Is(err, ErrBusy) {
			metrics.RecordGateRejection("upload")
			return apperror.Wrap(err, apperror.ErrBusy)
		}
		return apperror.Wrap(err, apperror.ErrTransport)
	}
	defer s.uploadGate.Release(ctx)

	if err := f.transition(StatusUploading); err != nil {
		return apperror.Wrap(err, apperror.ErrBadRequest)
	}

	start := time.Now()
	data, err := readWithProgress(ctx, r, f.Size, s.maxFileSize, func(p int) {
		f.setProgress(p)
		if onProgress != nil {
			onProgress(p)
		}
	})
	if err != nil {
		f.fail(err.Error())
		metrics.RecordUpload("error")
		if errors.Is(err, errTooLarge) {
			return apperror.Wrap(err, apperror.ErrFileTooLarge)
		}
		return apperror.Wrap(err, apperror.ErrTransport)
	}

	info, err := imagemeta.Probe(data)
	if err != nil {
		f.fail("file is not a decodable image")
		metrics.RecordUpload("error")
		return apperror.Wrap(err, apperror.ErrInvalidFileType)
	}

	key := storage.NewKey(f.Name)
	if err := s.store.Upload(ctx, key, bytes.NewReader(data), f.ContentType, int64(len(data))); err != nil {
		f.fail("storing file failed")
		metrics.RecordUpload("error")
		return apperror.Wrap(err, apperror.ErrTransport)
	}

	f.mu.Lock()
	f.Metadata = &info
	f.OriginalURL = key
	f.Size = int64(len(data))
	f.mu.Unlock()
	f.succeed()

	metrics.RecordUpload("success")
	metrics.ObserveUploadSize(int64(len(data)))
	log.Info("upload completed",
		"key", key,
		"size", len(data),
		"width", info.Width,
		"height", info.Height,
		"format", info.Format,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// ProcessBatch runs the translated pipeline over every uploaded file,
// strictly one at a time. A single file's failure marks only that file;
// the batch continues. Cancellation of the whole call is the one batch-level
// failure and is reported once, not per file.
//
// onProgress receives completed/total×100 at each file boundary, so batch
// progress is monotone even though each file's own progress resets.
func (s *Service) ProcessBatch(ctx context.Context, files []*File, opts options.ProcessingOptions, onProgress func(int)) error {
	if violations := options.Validate(opts); len(violations) > 0 {
		return apperror.Validation(violations)
	}
	if len(files) == 0 {
		return nil
	}

	if err := s.processGate.TryAcquire(ctx); err != nil {
		if errors.Is(err, ErrBusy) {
			metrics.RecordGateRejection("process")
			return apperror.Wrap(err, apperror.ErrBusy)
		}
		return apperror.Wrap(err, apperror.ErrTransport)
	}
	defer s.processGate.Release(ctx)

	total := len(files)
	for completed, f := range files {
		if err := ctx.Err(); err != nil {
			return apperror.Wrap(err, apperror.ErrTransport)
		}

		if err := s.processOne(ctx, f, opts); err != nil {
			if ctx.Err() != nil {
				return apperror.Wrap(ctx.Err(), apperror.ErrTransport)
			}
			logger.FromContext(ctx).Warn("file processing failed",
				"file_id", f.ID,
				"error", err,
			)
		}

		if onProgress != nil {
			onProgress((completed + 1) * 100 / total)
		}
	}

	return nil
}

func (s *Service) processOne(ctx context.Context, f *File, opts options.ProcessingOptions) error {
	ctx = logger.WithFileID(ctx, f.ID)
	log := logger.FromContext(ctx)
	start := time.Now()

	// A file that never finished uploading has nothing to process. It stays
	// in waiting; the batch reports it and moves on.
	if !f.Uploaded() {
		return apperror.Wrap(fmt.Errorf("file %s has no stored original", f.ID), apperror.ErrNotFound)
	}

	if err := f.transition(StatusProcessing); err != nil {
		return apperror.Wrap(err, apperror.ErrBadRequest)
	}

	rc, err := s.store.Download(ctx, f.OriginalURL)
	if err != nil {
		metrics.RecordProcessing("error", time.Since(start))
		if errors.Is(err, storage.ErrNotFound) {
			f.fail("stored file is gone; upload it again")
			return apperror.Wrap(err, apperror.ErrNotFound)
		}
		f.fail("fetching stored file failed")
		return apperror.Wrap(err, apperror.ErrTransport)
	}

	data, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		f.fail("reading stored file failed")
		metrics.RecordProcessing("error", time.Since(start))
		return apperror.Wrap(err, apperror.ErrTransport)
	}

	src := f.Metadata
	if src == nil {
		probed, err := imagemeta.Probe(data)
		if err != nil {
			f.fail("stored file is not a decodable image")
			metrics.RecordProcessing("error", time.Since(start))
			return apperror.Wrap(err, apperror.ErrTransform)
		}
		src = &probed
	}

	steps := options.Translate(opts, *src)

	result, err := s.executor.Execute(ctx, data, steps)
	if err != nil {
		// Transform errors are surfaced verbatim; this layer does not
		// interpret them.
		f.fail(err.Error())
		metrics.RecordProcessing("error", time.Since(start))
		return apperror.Wrap(err, apperror.ErrTransform)
	}

	key := storage.ProcessedKey(f.OriginalURL, result.Info.Format)
	if err := s.store.Upload(ctx, key, bytes.NewReader(result.Data), result.ContentType, int64(len(result.Data))); err != nil {
		f.fail("storing processed file failed")
		metrics.RecordProcessing("error", time.Since(start))
		return apperror.Wrap(err, apperror.ErrTransport)
	}

	f.mu.Lock()
	f.ProcessedMetadata = &result.Info
	f.ProcessedURL = key
	f.mu.Unlock()
	f.succeed()

	metrics.RecordProcessing("success", time.Since(start))
	metrics.ObserveBytesSaved(src.SizeBytes - result.Info.SizeBytes)
	log.Info("processing completed",
		"key", key,
		"steps", len(steps),
		"ratio", f.CompressionRatio(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Remove discards a file's stored bytes. Only files that are waiting or
// settled may be removed; an in-flight phase has to finish first.
func (s *Service) Remove(ctx context.Context, f *File) error {
	if !f.Removable() {
		return apperror.Wrap(fmt.Errorf("file %s is %s", f.ID, f.Status()), apperror.ErrBadRequest)
	}

	log := logger.FromContext(ctx)
	for _, key := range []string{f.OriginalURL, f.ProcessedURL} {
		if key == "" {
			continue
		}
		if err := s.store.Delete(ctx, key); err != nil {
			log.Warn("failed to delete stored file", "key", key, "error", err)
		}
	}
	return nil
}

var errTooLarge = errors.New("lifecycle: upload exceeds size limit")

// readWithProgress buffers the upload, invoking the callback on every read
// tick with a coarse percentage. The size limit is enforced while reading,
// not after, so an oversized body is cut off early.
func readWithProgress(ctx context.Context, r io.Reader, expected, limit int64, onProgress func(int)) ([]byte, error) {
	var buf bytes.Buffer
	if expected > 0 {
		buf.Grow(int(expected))
	}

	chunk := make([]byte, 64*1024)
	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, err := r.Read(chunk)
		if n > 0 {
			total += int64(n)
			if total > limit {
				return nil, errTooLarge
			}
			buf.Write(chunk[:n])
			if expected > 0 {
				// Clients can under-declare the size; never report past 100.
				p := int(total * 100 / expected)
				if p > 100 {
					p = 100
				}
				onProgress(p)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read upload: %w", err)
		}
	}

	onProgress(100)
	return buf.Bytes(), nil
}
