package blockproc

import (
	"context"
	"errors"
	"time"

	"github.com/leon-do/web3hook-emit/internal/chainstream"
	"github.com/leon-do/web3hook-emit/internal/pkg/logger"
	"github.com/leon-do/web3hook-emit/internal/pkg/x/chflow"
	"github.com/leon-do/web3hook-emit/internal/triggerwatch"
)

// mapObservedBlock converts a chainstream.ObservedBlock into a
// triggerwatch.Block, keeping the two modules decoupled.
func mapObservedBlock(b chainstream.ObservedBlock) triggerwatch.Block {
	return triggerwatch.Block{
		Network:           b.Network,
		Height:            b.Height,
		Hash:              b.Hash,
		TransactionHashes: b.TransactionHashes,
	}
}

// attemptProcessing runs a single processing round for the block, applying
// the configured retry policy when one is set. A block that was already
// finished by a previous run counts as processed.
func (s *service) attemptProcessing(ctx context.Context, block triggerwatch.Block) error {
	process := func() error {
		err := s.triggerwatch.ProcessBlock(ctx, block)
		if errors.Is(err, triggerwatch.ErrAlreadyFinished) {
			return nil
		}
		return err
	}

	if s.retry != nil {
		return s.retry.Execute(ctx, process)
	}
	return process()
}

// processBlock drives a block to completion. Processing is retried
// indefinitely with a pause between rounds: the watermark must never move
// past a block that was not fully handled, and backpressure on the stream
// channel holds newer blocks back meanwhile.
func (s *service) processBlock(ctx context.Context, observed chainstream.ObservedBlock) bool {
	block := mapObservedBlock(observed)

	// Shutdown must not abort a block mid-dispatch: the attempt and its
	// checkpoint run detached from cancellation, which is honored only
	// between rounds.
	processingCtx := context.WithoutCancel(ctx)

	for attempts := 1; ; attempts++ {
		err := s.attemptProcessing(processingCtx, block)
		if err == nil {
			break
		}

		logger.Error(ctx, "block processing failed, holding the watermark",
			"block.network", block.Network,
			"block.height", block.Height,
			"block.attempts", attempts,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return false
		case <-time.After(s.reprocessInterval):
		}
	}

	if s.checkpointStorage != nil {
		if err := s.checkpointStorage.SaveCheckpoint(processingCtx, block.Network, block.Height); err != nil {
			logger.Error(ctx, "error saving checkpoint",
				"block.network", block.Network,
				"block.height", block.Height,
				"error", err,
			)
		}
	}

	return true
}

// processObservedBlocks consumes the stream and processes one block at a
// time per service instance, preserving per-network ordering.
func (s *service) processObservedBlocks(ctx context.Context, blocksCh <-chan chainstream.ObservedBlock) {
	for {
		observed, ok := chflow.Receive(ctx, blocksCh)
		if !ok {
			return
		}

		if ok := s.processBlock(ctx, observed); !ok {
			return
		}
	}
}

// startProcessObservedBlocks launches the processing loop in a goroutine and
// returns a channel closed when the loop has drained, so Close can wait for
// the in-flight block.
func (s *service) startProcessObservedBlocks(ctx context.Context, blocksCh <-chan chainstream.ObservedBlock) <-chan struct{} {
	doneCh := make(chan struct{})

	go func() {
		defer close(doneCh)
		s.processObservedBlocks(ctx, blocksCh)
	}()

	return doneCh
}
