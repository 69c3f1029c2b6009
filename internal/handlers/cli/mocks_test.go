package cli

import (
	"context"

	"github.com/leon-do/web3hook-emit/internal/triggerregistry"

	"github.com/stretchr/testify/mock"
)

type TriggerRegistryServiceMock struct {
	mock.Mock
}

func (m *TriggerRegistryServiceMock) CreateTrigger(ctx context.Context, input triggerregistry.NewTrigger) (triggerregistry.Trigger, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(triggerregistry.Trigger), args.Error(1)
}

func (m *TriggerRegistryServiceMock) DeleteTrigger(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type BlockprocServiceMock struct {
	mock.Mock
}

func (m *BlockprocServiceMock) Start(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *BlockprocServiceMock) Close() {
	m.Called()
}
