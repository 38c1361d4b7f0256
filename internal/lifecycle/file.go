// Package lifecycle tracks each selected file through its upload and
// processing phases and serializes those phases behind fail-fast gates.
package lifecycle

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/imageforge/imageforge/internal/imagemeta"
)

type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusUploading  Status = "uploading"
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusError      Status = "error"
)

// allowedTransitions encodes the phase machine:
// waiting → uploading → success/error, success → processing → success/error.
// Error states are terminal for the attempt but re-enter either phase on an
// explicit retry.
var allowedTransitions = map[Status][]Status{
	StatusWaiting:    {StatusUploading},
	StatusUploading:  {StatusSuccess, StatusError},
	StatusSuccess:    {StatusProcessing},
	StatusProcessing: {StatusSuccess, StatusError},
	StatusError:      {StatusUploading, StatusProcessing},
}

// File is the mutable tracking entity for one user-selected file. It lives
// only for the session; nothing but the bytes and their sidecars persist.
type File struct {
	mu sync.Mutex

	ID          string
	Name        string
	ContentType string
	Size        int64

	status   Status
	progress int

	Metadata          *imagemeta.Info
	ProcessedMetadata *imagemeta.Info

	OriginalURL  string
	ProcessedURL string

	errMsg string
}

func NewFile(name, contentType string, size int64) *File {
	return &File{
		ID:          uuid.NewString(),
		Name:        name,
		ContentType: contentType,
		Size:        size,
		status:      StatusWaiting,
	}
}

func (f *File) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// Progress reports the current phase's progress in [0,100]. It is
// monotonically non-decreasing within a phase and resets on transition.
func (f *File) Progress() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.progress
}

// Err returns the last failure message; empty unless the file is in error.
func (f *File) Err() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errMsg
}

// transition moves the file to a new status, enforcing the phase machine.
// Progress resets to zero on every transition.
func (f *File) transition(to Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, allowed := range allowedTransitions[f.status] {
		if allowed == to {
			f.status = to
			f.progress = 0
			if to != StatusError {
				f.errMsg = ""
			}
			return nil
		}
	}
	return fmt.Errorf("lifecycle: illegal transition %s → %s for file %s", f.status, to, f.ID)
}

func (f *File) setProgress(p int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	// Within a phase progress never moves backwards.
	if p > f.progress {
		f.progress = p
	}
}

// fail moves the file to error and records the message. A file that cannot
// legally enter the error state (it never left waiting) is left untouched,
// so the message never outlives the state that carries it.
func (f *File) fail(msg string) {
	if err := f.transition(StatusError); err != nil {
		return
	}
	f.mu.Lock()
	f.errMsg = msg
	f.mu.Unlock()
}

func (f *File) succeed() {
	_ = f.transition(StatusSuccess)
	f.mu.Lock()
	f.progress = 100
	f.mu.Unlock()
}

// Removable reports whether the file may be discarded from tracking: only
// while waiting or in a settled state, never mid-phase.
func (f *File) Removable() bool {
	switch f.Status() {
	case StatusWaiting, StatusSuccess, StatusError:
		return true
	}
	return false
}

// Uploaded reports whether the original bytes made it to storage.
func (f *File) Uploaded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.OriginalURL != ""
}

// CompressionRatio diffs the original and processed sizes. Empty until both
// phases have completed.
func (f *File) CompressionRatio() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Metadata == nil || f.ProcessedMetadata == nil {
		return ""
	}
	return imagemeta.CompressionRatio(f.Metadata.SizeBytes, f.ProcessedMetadata.SizeBytes)
}
