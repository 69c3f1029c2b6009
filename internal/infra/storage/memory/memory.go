// Package memory provides in-process implementations of the trigger and
// account storage interfaces. It keeps everything behind a mutex and is meant
// for local runs and tests, not for multi-process deployments.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/leon-do/web3hook-emit/internal/pkg/types"
	"github.com/leon-do/web3hook-emit/internal/triggerregistry"
	"github.com/leon-do/web3hook-emit/internal/triggerwatch"
)

type account struct {
	credits int64
	paid    bool
}

// Storage is an in-memory trigger and account store.
type Storage struct {
	mu       sync.RWMutex
	triggers map[string]triggerregistry.Trigger
	accounts map[string]*account
}

var (
	_ triggerregistry.TriggerStorage = (*Storage)(nil)
	_ triggerregistry.AccountStorage = (*Storage)(nil)
	_ triggerwatch.TriggerStorage    = (*Storage)(nil)
	_ triggerwatch.AccountStorage    = (*Storage)(nil)
)

// New creates an empty in-memory storage.
func New() *Storage {
	return &Storage{
		triggers: make(map[string]triggerregistry.Trigger),
		accounts: make(map[string]*account),
	}
}

// SaveTrigger implements the triggerregistry.TriggerStorage interface.
func (s *Storage) SaveTrigger(ctx context.Context, trigger triggerregistry.Trigger) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.triggers[trigger.ID] = trigger
	return nil
}

// DeleteTrigger implements the triggerregistry.TriggerStorage interface.
func (s *Storage) DeleteTrigger(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.triggers[id]; !ok {
		return triggerregistry.ErrTriggerNotFound
	}

	delete(s.triggers, id)
	return nil
}

// FindTriggersByAddress implements the triggerwatch.TriggerStorage interface.
func (s *Storage) FindTriggersByAddress(ctx context.Context, chainID int64, addresses []string) ([]triggerwatch.Trigger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	watched := types.NewSet(addresses...)

	var matched []triggerwatch.Trigger
	for _, trigger := range s.triggers {
		if trigger.ChainID != chainID {
			continue
		}
		if !watched.Contains(trigger.Address) {
			continue
		}

		matched = append(matched, triggerwatch.Trigger{
			ID:         trigger.ID,
			UserID:     trigger.UserID,
			ChainID:    trigger.ChainID,
			Address:    trigger.Address,
			WebhookURL: trigger.WebhookURL,
			ABI:        trigger.ABI,
		})
	}

	return matched, nil
}

// EnsureAccount implements the triggerregistry.AccountStorage interface.
func (s *Storage) EnsureAccount(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[userID]; !ok {
		s.accounts[userID] = &account{}
	}
	return nil
}

// MarkAccountPaid flips the paid flag of an account, creating it if needed.
func (s *Storage) MarkAccountPaid(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[userID]
	if !ok {
		acc = &account{}
		s.accounts[userID] = acc
	}

	acc.paid = true
	return nil
}

// GetAccount implements the triggerwatch.AccountStorage interface.
func (s *Storage) GetAccount(ctx context.Context, userID string) (triggerwatch.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[userID]
	if !ok {
		return triggerwatch.Account{}, triggerwatch.ErrAccountNotFound
	}

	return triggerwatch.Account{
		ID:      userID,
		Credits: acc.credits,
		Paid:    acc.paid,
	}, nil
}

// IncrementCredits implements the triggerwatch.AccountStorage interface.
func (s *Storage) IncrementCredits(ctx context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[userID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", triggerwatch.ErrAccountNotFound, userID)
	}

	acc.credits++
	return acc.credits, nil
}
