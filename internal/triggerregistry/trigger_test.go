package triggerregistry

import (
	"context"
	"errors"
	"testing"

	"github.com/leon-do/web3hook-emit/internal/pkg/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type TriggerStorageMock struct {
	mock.Mock
}

func (m *TriggerStorageMock) SaveTrigger(ctx context.Context, trigger Trigger) error {
	args := m.Called(ctx, trigger)
	return args.Error(0)
}

func (m *TriggerStorageMock) DeleteTrigger(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type AccountStorageMock struct {
	mock.Mock
}

func (m *AccountStorageMock) EnsureAccount(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func TestCreateTrigger(t *testing.T) {
	valid := NewTrigger{
		UserID:     "u1",
		ChainID:    1,
		Address:    "0xAAaaAAaaAAaaAAaaAAaaAAaaAAaaAAaaAAaaAAaa",
		WebhookURL: "https://example.com/hook",
	}

	t.Run("persists a normalized trigger and ensures the account", func(t *testing.T) {
		triggerStorage := new(TriggerStorageMock)
		accountStorage := new(AccountStorageMock)

		accountStorage.On("EnsureAccount", mock.Anything, "u1").Return(nil)
		triggerStorage.On("SaveTrigger", mock.Anything, mock.MatchedBy(func(tr Trigger) bool {
			return tr.ID != "" &&
				tr.Address == "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" &&
				tr.ChainID == 1
		})).Return(nil)

		svc := New(triggerStorage, accountStorage)

		trigger, err := svc.CreateTrigger(t.Context(), valid)
		require.NoError(t, err)
		assert.NotEmpty(t, trigger.ID)
		assert.Equal(t, "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", trigger.Address)

		triggerStorage.AssertExpectations(t)
		accountStorage.AssertExpectations(t)
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		svc := New(new(TriggerStorageMock), new(AccountStorageMock))

		_, err := svc.CreateTrigger(t.Context(), NewTrigger{UserID: "u1"})
		assert.ErrorIs(t, err, validator.ErrValidationFailed)
	})

	t.Run("rejects an invalid webhook url", func(t *testing.T) {
		svc := New(new(TriggerStorageMock), new(AccountStorageMock))

		input := valid
		input.WebhookURL = "not-a-url"

		_, err := svc.CreateTrigger(t.Context(), input)
		assert.ErrorIs(t, err, validator.ErrValidationFailed)
	})

	t.Run("storage failure propagates", func(t *testing.T) {
		triggerStorage := new(TriggerStorageMock)
		accountStorage := new(AccountStorageMock)

		accountStorage.On("EnsureAccount", mock.Anything, "u1").Return(nil)
		triggerStorage.On("SaveTrigger", mock.Anything, mock.Anything).
			Return(errors.New("store offline"))

		svc := New(triggerStorage, accountStorage)

		_, err := svc.CreateTrigger(t.Context(), valid)
		require.Error(t, err)
	})
}

func TestDeleteTrigger(t *testing.T) {
	t.Run("delegates to storage", func(t *testing.T) {
		triggerStorage := new(TriggerStorageMock)
		triggerStorage.On("DeleteTrigger", mock.Anything, "t1").Return(nil)

		svc := New(triggerStorage, new(AccountStorageMock))

		require.NoError(t, svc.DeleteTrigger(t.Context(), "t1"))
		triggerStorage.AssertExpectations(t)
	})

	t.Run("missing trigger", func(t *testing.T) {
		triggerStorage := new(TriggerStorageMock)
		triggerStorage.On("DeleteTrigger", mock.Anything, "missing").Return(ErrTriggerNotFound)

		svc := New(triggerStorage, new(AccountStorageMock))

		assert.ErrorIs(t, svc.DeleteTrigger(t.Context(), "missing"), ErrTriggerNotFound)
	})
}
