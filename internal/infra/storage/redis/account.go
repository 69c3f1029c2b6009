package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/leon-do/web3hook-emit/internal/triggerregistry"
	"github.com/leon-do/web3hook-emit/internal/triggerwatch"

	"github.com/redis/go-redis/v9"
)

const (
	// accountKeyPrefix namespaces all account keys.
	accountKeyPrefix = "account"

	accountCreditsField = "credits"
	accountPaidField    = "paid"
)

// accountKey builds the key of the hash holding a user's metering state:
// "account:<userID>".
func accountKey(userID string) string {
	return fmt.Sprintf("%s:%s", accountKeyPrefix, userID)
}

// EnsureAccount implements the triggerregistry.AccountStorage interface.
//
// HSETNX initializes the fields only when absent, so re-registering never
// resets an existing balance.
func (c *client) EnsureAccount(ctx context.Context, userID string) error {
	key := accountKey(userID)

	_, err := c.conn.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSetNX(ctx, key, accountCreditsField, 0)
		pipe.HSetNX(ctx, key, accountPaidField, 0)
		return nil
	})
	return err
}

// GetAccount implements the triggerwatch.AccountStorage interface.
func (c *client) GetAccount(ctx context.Context, userID string) (triggerwatch.Account, error) {
	fields, err := c.conn.HGetAll(ctx, accountKey(userID)).Result()
	if err != nil {
		return triggerwatch.Account{}, err
	}

	if len(fields) == 0 {
		return triggerwatch.Account{}, triggerwatch.ErrAccountNotFound
	}

	credits, err := strconv.ParseInt(fields[accountCreditsField], 10, 64)
	if err != nil {
		return triggerwatch.Account{}, fmt.Errorf("corrupt credits value for user %q: %w", userID, err)
	}

	paid := fields[accountPaidField] == "1"

	return triggerwatch.Account{
		ID:      userID,
		Credits: credits,
		Paid:    paid,
	}, nil
}

// IncrementCredits implements the triggerwatch.AccountStorage interface.
//
// HINCRBY is atomic on the server, so concurrent dispatches never lose an
// update.
func (c *client) IncrementCredits(ctx context.Context, userID string) (int64, error) {
	key := accountKey(userID)

	exists, err := c.conn.Exists(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if exists == 0 {
		return 0, triggerwatch.ErrAccountNotFound
	}

	return c.conn.HIncrBy(ctx, key, accountCreditsField, 1).Result()
}

var (
	_ triggerregistry.AccountStorage = new(client)
	_ triggerwatch.AccountStorage    = new(client)
)
