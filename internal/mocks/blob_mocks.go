package mocks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/petjoyful/profile-service/internal/models"
	"github.com/petjoyful/profile-service/internal/services"
)

// MockBlobStore is a mock of services.BlobStore
type MockBlobStore struct {
	mock.Mock
}

func NewMockBlobStore(t *testing.T) *MockBlobStore {
	m := &MockBlobStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockBlobStore) Upload(ctx context.Context, photo models.PhotoUpload, folder string) (*services.BlobResult, error) {
	args := m.Called(ctx, photo, folder)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.BlobResult), args.Error(1)
}

func (m *MockBlobStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockPhotoScreener is a mock of services.PhotoScreener
type MockPhotoScreener struct {
	mock.Mock
}

func NewMockPhotoScreener(t *testing.T) *MockPhotoScreener {
	m := &MockPhotoScreener{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockPhotoScreener) Screen(ctx context.Context, photo models.PhotoUpload) error {
	args := m.Called(ctx, photo)
	return args.Error(0)
}

var (
	_ services.BlobStore     = (*MockBlobStore)(nil)
	_ services.PhotoScreener = (*MockPhotoScreener)(nil)
)
