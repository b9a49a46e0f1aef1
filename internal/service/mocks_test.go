package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/porton/gate-relay/internal/model"
	"github.com/porton/gate-relay/internal/sse"
)

type mockCodeRepo struct {
	mock.Mock
}

func (m *mockCodeRepo) List(ctx context.Context) ([]model.AccessCode, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AccessCode), args.Error(1)
}

func (m *mockCodeRepo) FindByPIN(ctx context.Context, pin string) (*model.AccessCode, error) {
	args := m.Called(ctx, pin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AccessCode), args.Error(1)
}

func (m *mockCodeRepo) Create(ctx context.Context, code model.AccessCode) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *mockCodeRepo) Update(ctx context.Context, code model.AccessCode) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *mockCodeRepo) Delete(ctx context.Context, pin string) error {
	args := m.Called(ctx, pin)
	return args.Error(0)
}

type mockLogRepo struct {
	mock.Mock
}

func (m *mockLogRepo) Append(ctx context.Context, entry model.AccessLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *mockLogRepo) ListRecent(ctx context.Context, limit, offset int) ([]model.AccessLogEntry, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AccessLogEntry), args.Error(1)
}

func (m *mockLogRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type mockActuator struct {
	mock.Mock
}

func (m *mockActuator) Trigger(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event sse.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
