package storage

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewKey builds a storage key from the original filename: a timestamp plus a
// random suffix, keeping the extension so content type survives a round
// trip. There is no uniqueness guarantee beyond that.
func NewKey(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	suffix := uuid.NewString()[:8]
	return fmt.Sprintf("%d-%s%s", time.Now().UnixNano(), suffix, ext)
}

// ProcessedKey derives the key for a processed result from the original's
// key and the output format.
func ProcessedKey(originalKey, format string) string {
	base := strings.TrimSuffix(originalKey, path.Ext(originalKey))
	ext := format
	if ext == "jpeg" {
		ext = "jpg"
	}
	return fmt.Sprintf("%s-processed.%s", base, ext)
}
