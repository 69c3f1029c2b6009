package triggerwatch

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrStillInProgress is returned when another process currently holds the
	// claim for the block.
	ErrStillInProgress = errors.New("block processing still in progress")

	// ErrAlreadyFinished is returned when the block was already fully
	// processed and must not be dispatched again.
	ErrAlreadyFinished = errors.New("block processing already finished")
)

// IdempotencyGuard serializes block processing across processes and records
// terminal completion, so a fully processed block is never dispatched twice
// even across restarts.
type IdempotencyGuard interface {
	// ClaimBlock attempts to claim exclusive rights to process the block. The
	// claim expires after ttl so a crashed owner does not block the height
	// forever. Returns ErrStillInProgress or ErrAlreadyFinished when the
	// claim cannot be taken.
	ClaimBlock(ctx context.Context, network, blockHash string, ttl time.Duration) error

	// ReleaseBlock gives up a held claim after a failed processing attempt,
	// so the next retry does not have to wait for the TTL to expire.
	ReleaseBlock(ctx context.Context, network, blockHash string) error

	// MarkBlockProcessed records the block as terminally processed.
	MarkBlockProcessed(ctx context.Context, network, blockHash string) error
}

// nopIdempotencyGuard is the default guard: every claim succeeds. Suitable
// for single-process deployments where the checkpoint already prevents
// reprocessing.
type nopIdempotencyGuard struct{}

var _ IdempotencyGuard = nopIdempotencyGuard{}

func (nopIdempotencyGuard) ClaimBlock(ctx context.Context, network, blockHash string, ttl time.Duration) error {
	return nil
}

func (nopIdempotencyGuard) ReleaseBlock(ctx context.Context, network, blockHash string) error {
	return nil
}

func (nopIdempotencyGuard) MarkBlockProcessed(ctx context.Context, network, blockHash string) error {
	return nil
}
