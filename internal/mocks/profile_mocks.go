package mocks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/petjoyful/profile-service/internal/models"
	"github.com/petjoyful/profile-service/internal/services"
)

// MockProfileStore is a mock of services.ProfileStore
type MockProfileStore struct {
	mock.Mock
}

func NewMockProfileStore(t *testing.T) *MockProfileStore {
	m := &MockProfileStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockProfileStore) FindByOwner(ctx context.Context, owner models.OwnerID) (*models.Profile, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileStore) Upsert(ctx context.Context, owner models.OwnerID, fields models.FieldSet) (*models.Profile, error) {
	args := m.Called(ctx, owner, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileStore) Exists(ctx context.Context, owner models.OwnerID) (bool, error) {
	args := m.Called(ctx, owner)
	return args.Bool(0), args.Error(1)
}

var _ services.ProfileStore = (*MockProfileStore)(nil)
