package memory

import (
	"sync"
	"testing"

	"github.com/leon-do/web3hook-emit/internal/triggerregistry"
	"github.com/leon-do/web3hook-emit/internal/triggerwatch"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerStorage(t *testing.T) {
	trigger := triggerregistry.Trigger{
		ID:         "t1",
		UserID:     "u1",
		ChainID:    1,
		Address:    "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		WebhookURL: "https://example.com/hook",
	}

	t.Run("saved triggers are found by chain and address", func(t *testing.T) {
		s := New()
		require.NoError(t, s.SaveTrigger(t.Context(), trigger))

		found, err := s.FindTriggersByAddress(t.Context(), 1, []string{trigger.Address})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "t1", found[0].ID)
	})

	t.Run("other chains do not match", func(t *testing.T) {
		s := New()
		require.NoError(t, s.SaveTrigger(t.Context(), trigger))

		found, err := s.FindTriggersByAddress(t.Context(), 137, []string{trigger.Address})
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("deleted triggers are gone", func(t *testing.T) {
		s := New()
		require.NoError(t, s.SaveTrigger(t.Context(), trigger))
		require.NoError(t, s.DeleteTrigger(t.Context(), "t1"))

		found, err := s.FindTriggersByAddress(t.Context(), 1, []string{trigger.Address})
		require.NoError(t, err)
		assert.Empty(t, found)

		assert.ErrorIs(t, s.DeleteTrigger(t.Context(), "t1"), triggerregistry.ErrTriggerNotFound)
	})
}

func TestAccountStorage(t *testing.T) {
	t.Run("missing account", func(t *testing.T) {
		s := New()

		_, err := s.GetAccount(t.Context(), "ghost")
		assert.ErrorIs(t, err, triggerwatch.ErrAccountNotFound)

		_, err = s.IncrementCredits(t.Context(), "ghost")
		assert.ErrorIs(t, err, triggerwatch.ErrAccountNotFound)
	})

	t.Run("ensure is idempotent and never resets the balance", func(t *testing.T) {
		s := New()
		require.NoError(t, s.EnsureAccount(t.Context(), "u1"))

		_, err := s.IncrementCredits(t.Context(), "u1")
		require.NoError(t, err)

		require.NoError(t, s.EnsureAccount(t.Context(), "u1"))

		acc, err := s.GetAccount(t.Context(), "u1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), acc.Credits)
	})

	t.Run("concurrent increments never lose an update", func(t *testing.T) {
		const increments = 200

		s := New()
		require.NoError(t, s.EnsureAccount(t.Context(), "u1"))

		var wg sync.WaitGroup
		for range increments {
			wg.Add(1)
			go func() {
				defer wg.Done()

				_, err := s.IncrementCredits(t.Context(), "u1")
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		acc, err := s.GetAccount(t.Context(), "u1")
		require.NoError(t, err)
		assert.Equal(t, int64(increments), acc.Credits)
	})

	t.Run("paid flag is reported", func(t *testing.T) {
		s := New()
		require.NoError(t, s.MarkAccountPaid(t.Context(), "u1"))

		acc, err := s.GetAccount(t.Context(), "u1")
		require.NoError(t, err)
		assert.True(t, acc.Paid)
	})
}
