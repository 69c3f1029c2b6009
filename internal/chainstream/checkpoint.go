package chainstream

import (
	"context"
	"errors"

	"github.com/leon-do/web3hook-emit/internal/pkg/types"
)

// ErrNoCheckpointFound is returned by LoadLatestCheckpoint when no checkpoint
// has been saved yet for the requested network.
var ErrNoCheckpointFound = errors.New("no checkpoint found for network")

// CheckpointStorage persists and retrieves the watermark: the height of the
// last block fully processed for each network. The stream resumes from the
// checkpoint on startup so no block is skipped or reprocessed across
// restarts.
type CheckpointStorage interface {
	// SaveCheckpoint records the given block height as the latest watermark
	// for the specified network, overwriting any previous value.
	SaveCheckpoint(ctx context.Context, network string, height types.Hex) error

	// LoadLatestCheckpoint returns the most recent block height saved for the
	// specified network, or ErrNoCheckpointFound if none exists.
	LoadLatestCheckpoint(ctx context.Context, network string) (types.Hex, error)
}

// nopCheckpoint is the default CheckpointStorage: nothing is persisted and
// every stream starts from the latest block.
type nopCheckpoint struct{}

var _ CheckpointStorage = nopCheckpoint{}

func (nopCheckpoint) SaveCheckpoint(ctx context.Context, network string, height types.Hex) error {
	return nil
}

func (nopCheckpoint) LoadLatestCheckpoint(ctx context.Context, network string) (types.Hex, error) {
	return "", ErrNoCheckpointFound
}
