package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/leon-do/web3hook-emit/internal/triggerwatch"

	"github.com/redis/go-redis/v9"
)

const (
	// triggerwatchKeyPrefix namespaces the idempotency entries of the block
	// dispatch pipeline.
	triggerwatchKeyPrefix = "triggerwatch"

	// triggerwatchIdempotencyDone is the terminal value marking a block as
	// fully processed.
	triggerwatchIdempotencyDone = "done"
)

// triggerwatchIdempotencyKey builds the idempotency key of a block:
// "triggerwatch:idempotency:<network>:<blockHash>".
func triggerwatchIdempotencyKey(network, blockHash string) string {
	return fmt.Sprintf("%s:idempotency:%s:%s", triggerwatchKeyPrefix, network, blockHash)
}

// ClaimBlock implements the triggerwatch.IdempotencyGuard interface.
//
// A "done" value means the block was fully processed in a previous run. An
// existing non-done value means another process holds the claim; the claim
// itself is a SETNX with TTL so a crashed owner frees the block eventually.
func (c *client) ClaimBlock(ctx context.Context, network, blockHash string, ttl time.Duration) error {
	key := triggerwatchIdempotencyKey(network, blockHash)

	val, err := c.conn.Get(ctx, key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	if val == triggerwatchIdempotencyDone {
		return triggerwatch.ErrAlreadyFinished
	}

	ok, err := c.conn.SetNX(ctx, key, "", ttl).Result()
	if err != nil {
		return err
	}

	if !ok {
		return triggerwatch.ErrStillInProgress
	}

	return nil
}

// ReleaseBlock implements the triggerwatch.IdempotencyGuard interface. The
// claim is only ever released by its owner (the process that took it and then
// failed the block), so an unconditional DEL cannot remove a "done" marker.
func (c *client) ReleaseBlock(ctx context.Context, network, blockHash string) error {
	return c.conn.Del(ctx, triggerwatchIdempotencyKey(network, blockHash)).Err()
}

// MarkBlockProcessed implements the triggerwatch.IdempotencyGuard interface.
// The terminal marker never expires.
func (c *client) MarkBlockProcessed(ctx context.Context, network, blockHash string) error {
	key := triggerwatchIdempotencyKey(network, blockHash)
	return c.conn.Set(ctx, key, triggerwatchIdempotencyDone, 0).Err()
}

var _ triggerwatch.IdempotencyGuard = new(client)
