package triggerwatch

import (
	"context"
	"errors"
)

// ErrAccountNotFound is returned when the referenced user account does not
// exist (anymore).
var ErrAccountNotFound = errors.New("account not found")

// Account holds the usage-metering state of a user.
type Account struct {
	ID      string // Unique user identifier
	Credits int64  // Usage counter, incremented once per dispatched match
	Paid    bool   // Paid accounts stay eligible regardless of credits
}

// AccountStorage reads and meters user accounts.
type AccountStorage interface {
	// GetAccount returns the account with the given id, or ErrAccountNotFound.
	GetAccount(ctx context.Context, userID string) (Account, error)

	// IncrementCredits atomically adds one to the user's credit counter and
	// returns the updated value. Concurrent increments for the same user must
	// never lose an update. Returns ErrAccountNotFound if the user vanished.
	IncrementCredits(ctx context.Context, userID string) (int64, error)
}
