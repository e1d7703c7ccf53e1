package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vireoapp/vireo/models"
)

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Publish(ctx context.Context, channel string, message []byte) error {
	args := m.Called(ctx, channel, message)
	return args.Error(0)
}

func (m *MockCache) Subscribe(ctx context.Context, channel string, handler func(message []byte)) error {
	args := m.Called(ctx, channel, handler)
	return args.Error(0)
}

func (m *MockCache) GetPublicKey(ctx context.Context, userId string) (models.PublicKeyInfo, bool, error) {
	args := m.Called(ctx, userId)
	return args.Get(0).(models.PublicKeyInfo), args.Bool(1), args.Error(2)
}

func (m *MockCache) SetPublicKey(ctx context.Context, userId string, info models.PublicKeyInfo) error {
	args := m.Called(ctx, userId, info)
	return args.Error(0)
}

func (m *MockCache) InvalidatePublicKey(ctx context.Context, userId string) error {
	args := m.Called(ctx, userId)
	return args.Error(0)
}
