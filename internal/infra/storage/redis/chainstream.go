package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/leon-do/web3hook-emit/internal/chainstream"
	"github.com/leon-do/web3hook-emit/internal/pkg/types"

	"github.com/redis/go-redis/v9"
)

// chainstreamKeyPrefix namespaces all keys of the block stream checkpointing.
const chainstreamKeyPrefix = "chainstream"

// chainstreamCheckpointKey builds the key holding the latest processed block
// height for a network: "chainstream:checkpoint:<network>".
func chainstreamCheckpointKey(network string) string {
	return fmt.Sprintf("%s:checkpoint:%s", chainstreamKeyPrefix, network)
}

// SaveCheckpoint persists the watermark for a network. The key carries no
// expiration: the stream must resume from it after any restart.
func (c *client) SaveCheckpoint(ctx context.Context, network string, height types.Hex) error {
	key := chainstreamCheckpointKey(network)
	return c.conn.Set(ctx, key, string(height), 0).Err()
}

// LoadLatestCheckpoint returns the saved watermark for a network, or
// chainstream.ErrNoCheckpointFound when none was ever saved.
func (c *client) LoadLatestCheckpoint(ctx context.Context, network string) (types.Hex, error) {
	key := chainstreamCheckpointKey(network)

	val, err := c.conn.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			err = chainstream.ErrNoCheckpointFound
		}

		return "", err
	}

	return types.HexFromString(val)
}

var _ chainstream.CheckpointStorage = new(client)
