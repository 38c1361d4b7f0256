package lifecycle

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/imageforge/imageforge/internal/logger"
)

var _ Gate = (*FileGate)(nil)

// FileGate uses an O_EXCL lock file so instances sharing a filesystem
// coordinate without a network dependency. A crashed holder leaves the lock
// behind; operators clear it by deleting the file.
type FileGate struct {
	path string
}

func NewFileGate(path string) *FileGate {
	return &FileGate{path: path}
}

func (g *FileGate) TryAcquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.OpenFile(g.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return ErrBusy
		}
		return fmt.Errorf("acquire lock file %s: %w", g.path, err)
	}

	_, _ = f.WriteString(strconv.Itoa(os.Getpid()))
	return f.Close()
}

func (g *FileGate) Release(ctx context.Context) {
	if err := os.Remove(g.path); err != nil && !os.IsNotExist(err) {
		logger.FromContext(ctx).Warn("failed to release lock file", "path", g.path, "error", err)
	}
}
