package client

import (
	"context"
	"io"

	"github.com/imageforge/imageforge/internal/options"
)

// API abstracts the HTTP client so commands can be tested without a server.
type API interface {
	Upload(ctx context.Context, filePath string) (*UploadResponse, error)
	Process(ctx context.Context, req options.ProcessRequest) (*ProcessResponse, error)
	Status(ctx context.Context, id string) (*StatusResponse, error)
	Download(ctx context.Context, key string, w io.Writer) (int64, error)
	Delete(ctx context.Context, id string) error
}

var _ API = (*Client)(nil)
