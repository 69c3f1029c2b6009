package triggerwatch

import (
	"context"
	"errors"
	"strings"

	"github.com/leon-do/web3hook-emit/internal/pkg/logger"
)

// Trigger is a user-registered filter describing which transactions should
// produce a webhook notification. Triggers are created by the management
// plane (triggerregistry) and are read-only here.
type Trigger struct {
	ID         string // Unique trigger identifier
	UserID     string // Owning user
	ChainID    int64  // Chain the trigger watches
	Address    string // Watched address, stored lowercase
	WebhookURL string // Endpoint notified on match
	ABI        string // Optional ABI filter; non-empty triggers belong to the contract-decoding pipeline and are excluded here
}

// TriggerStorage queries the registered triggers.
type TriggerStorage interface {
	// FindTriggersByAddress returns every trigger registered on the given
	// chain whose watched address is one of the provided addresses. Addresses
	// are lowercase. The result reflects a snapshot of store state;
	// registrations concurrent with an in-flight match may or may not be
	// observed.
	FindTriggersByAddress(ctx context.Context, chainID int64, addresses []string) ([]Trigger, error)
}

// matchTriggers returns the triggers that the given transaction satisfies:
// same chain id, no ABI filter, watched address among the transaction's
// sender/recipient, and an owner that is either paid or under the free credit
// quota. Address comparison is case-insensitive; a missing recipient
// (contract creation) is the empty string and never matches a watched
// address.
func (s *service) matchTriggers(ctx context.Context, tx Transaction) ([]Trigger, error) {
	addresses := []string{strings.ToLower(tx.From)}
	if tx.To != "" {
		addresses = append(addresses, strings.ToLower(tx.To))
	}

	triggers, err := s.triggerStorage.FindTriggersByAddress(ctx, tx.ChainID, addresses)
	if err != nil {
		return nil, err
	}

	matched := make([]Trigger, 0, len(triggers))
	for _, trigger := range triggers {
		if trigger.ABI != "" {
			continue
		}

		account, err := s.accountStorage.GetAccount(ctx, trigger.UserID)
		if err != nil {
			if errors.Is(err, ErrAccountNotFound) {
				// Orphaned trigger: its owner vanished. Skip it, the rest of
				// the block must not be affected.
				logger.Warn(ctx, "skipping trigger with missing account",
					"trigger.id", trigger.ID,
					"user.id", trigger.UserID,
				)
				continue
			}
			return nil, err
		}

		if account.Credits > s.freeCreditQuota && !account.Paid {
			continue
		}

		matched = append(matched, trigger)
	}

	return matched, nil
}
