package chainstream

import (
	"context"
	"errors"
	"sync"

	"github.com/leon-do/web3hook-emit/internal/pkg/types"
	"github.com/leon-do/web3hook-emit/internal/pkg/x/chflow"
)

// ErrNetworkNotRegistered is returned when attempting to operate on an
// unregistered network.
var ErrNetworkNotRegistered = errors.New("network not registered")

// BlockchainEvent is an event emitted by a blockchain subscription. It always
// carries the block height; it carries either the block data or the error
// encountered while fetching it.
type BlockchainEvent struct {
	Height types.Hex // block height (always set)
	Block  Block     // block contents (zero value if Err is set)
	Err    error     // any error encountered (nil on success)
}

// Blockchain defines a source of blockchain data. It supports fetching
// individual blocks by height and streaming new blocks as they are produced.
type Blockchain interface {
	// FetchBlockByHeight retrieves the block at the specified height. It
	// returns ErrBlockNotFound if the height has not been produced yet, or
	// another error if fetching or decoding fails. Reads are idempotent and
	// safe to retry.
	FetchBlockByHeight(ctx context.Context, height types.Hex) (Block, error)

	// Subscribe begins streaming blocks from fromHeight (inclusive). If
	// fromHeight is the zero value, the implementation should begin from the
	// latest known block. The returned channel is closed when ctx is
	// canceled.
	Subscribe(ctx context.Context, fromHeight types.Hex) (<-chan BlockchainEvent, error)
}

// ErrBlockNotFound indicates that the requested block height has not been
// produced by the chain yet, or is unknown to the node.
var ErrBlockNotFound = errors.New("block not found")

// BlockDispatchFailure represents a failure to turn a subscription event into
// an observed block, typically because the block fetch itself failed.
//
// Errors holds the complete error history: the original fetch error plus any
// errors from recovery attempts. Use errors.Join(failure.Errors...) to
// collapse them for logging.
type BlockDispatchFailure struct {
	Network string    // name of the blockchain network (e.g., "ethereum")
	Height  types.Hex // block height that failed to be dispatched
	Errors  []error   // all errors encountered during dispatch and recovery
}

// handleDispatchFailures consumes unrecoverable dispatch failures and passes
// each one to the configured handler. It blocks until dispatchErrCh is closed
// or ctx is canceled.
func (s *service) handleDispatchFailures(ctx context.Context, dispatchErrCh <-chan BlockDispatchFailure) {
	for {
		dispatchFailure, ok := chflow.Receive(ctx, dispatchErrCh)
		if !ok {
			return
		}

		if s.onDispatchFailure != nil {
			s.onDispatchFailure(ctx, dispatchFailure)
		}
	}
}

// startHandleDispatchFailures launches handleDispatchFailures in a background
// goroutine and returns immediately.
func (s *service) startHandleDispatchFailures(ctx context.Context, dispatchErrCh <-chan BlockDispatchFailure) {
	go s.handleDispatchFailures(ctx, dispatchErrCh)
}

// retryFailedBlockFetches reads dispatch failures from retryCh and attempts
// to re-fetch each block via s.retry:
//   - On success, the recovered ObservedBlock is sent to recoveredCh and the
//     original error is dropped.
//   - On persistent failure, the recovery error is appended to the original
//     failure, which is forwarded to finalErrorCh.
//
// The channels are shared with the rest of the stream; this function does not
// close any of them.
func (s *service) retryFailedBlockFetches(ctx context.Context, retryCh <-chan BlockDispatchFailure, recoveredCh chan<- ObservedBlock, finalErrorCh chan<- BlockDispatchFailure) {
	for {
		netErr, ok := chflow.Receive(ctx, retryCh)
		if !ok {
			return
		}

		retryErr := s.retry.Execute(ctx, func() error {
			client, ok := s.networks[netErr.Network]
			if !ok {
				return ErrNetworkNotRegistered
			}

			block, err := client.FetchBlockByHeight(ctx, netErr.Height)
			if err != nil {
				return err
			}

			observedBlock := ObservedBlock{Network: netErr.Network, Block: block}
			_ = chflow.Send(ctx, recoveredCh, observedBlock)
			return nil
		})
		if retryErr == nil {
			continue // recovered: drop the failure
		}

		netErr.Errors = append(netErr.Errors, retryErr)

		if ok = chflow.Send(ctx, finalErrorCh, netErr); !ok {
			return
		}
	}
}

// startRetryFailedBlockFetches launches retryFailedBlockFetches in a
// background goroutine and returns immediately. The channels must be closed
// by the caller, after wg reports the goroutine done.
func (s *service) startRetryFailedBlockFetches(ctx context.Context, wg *sync.WaitGroup, retryCh <-chan BlockDispatchFailure, recoveredCh chan<- ObservedBlock, finalErrorCh chan<- BlockDispatchFailure) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.retryFailedBlockFetches(ctx, retryCh, recoveredCh, finalErrorCh)
	}()
}

// dispatchSubscriptionEvents reads BlockchainEvent values from eventsCh and
// routes them: failures become BlockDispatchFailure values on errorsCh,
// successes become ObservedBlock values on blocksCh.
func (s *service) dispatchSubscriptionEvents(ctx context.Context, network string, eventsCh <-chan BlockchainEvent, blocksCh chan<- ObservedBlock, errorsCh chan<- BlockDispatchFailure) {
	for {
		event, ok := chflow.Receive(ctx, eventsCh)
		if !ok {
			return
		}

		if event.Err != nil {
			dispatchFailure := BlockDispatchFailure{
				Network: network,
				Height:  event.Height,
				Errors:  []error{event.Err},
			}
			if ok := chflow.Send(ctx, errorsCh, dispatchFailure); !ok {
				return
			}

			continue
		}

		observedBlock := ObservedBlock{Network: network, Block: event.Block}
		if ok := chflow.Send(ctx, blocksCh, observedBlock); !ok {
			return
		}
	}
}

// launchAllNetworkSubscriptions starts a subscription for each registered
// network. For each network it loads the last checkpoint, advances the start
// height by one when a checkpoint exists (the checkpointed block is already
// processed), subscribes, and launches a goroutine forwarding events.
//
// Returns an error if any subscription or checkpoint load (other than
// no-checkpoint) fails.
func (s *service) launchAllNetworkSubscriptions(ctx context.Context, wg *sync.WaitGroup, blocksCh chan<- ObservedBlock, errorsCh chan<- BlockDispatchFailure) error {
	for network, client := range s.networks {
		startHeight, err := s.checkpointStorage.LoadLatestCheckpoint(ctx, network)
		if err != nil && !errors.Is(err, ErrNoCheckpointFound) {
			return err
		}

		if !startHeight.IsEmpty() {
			startHeight = startHeight.Add(1)
		}

		eventsCh, err := client.Subscribe(ctx, startHeight)
		if err != nil {
			return err
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.dispatchSubscriptionEvents(ctx, network, eventsCh, blocksCh, errorsCh)
		}()
	}

	return nil
}
