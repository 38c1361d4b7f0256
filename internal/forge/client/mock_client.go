package client

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/imageforge/imageforge/internal/options"
)

// MockClient is a mock implementation of API for testing.
type MockClient struct {
	mock.Mock
}

var _ API = (*MockClient)(nil)

func (m *MockClient) Upload(ctx context.Context, filePath string) (*UploadResponse, error) {
	args := m.Called(ctx, filePath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*UploadResponse), args.Error(1)
}

func (m *MockClient) Process(ctx context.Context, req options.ProcessRequest) (*ProcessResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ProcessResponse), args.Error(1)
}

func (m *MockClient) Status(ctx context.Context, id string) (*StatusResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*StatusResponse), args.Error(1)
}

func (m *MockClient) Download(ctx context.Context, key string, w io.Writer) (int64, error) {
	args := m.Called(ctx, key, w)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockClient) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
