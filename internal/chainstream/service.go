package chainstream

import (
	"context"
	"errors"
	"sync"

	"github.com/leon-do/web3hook-emit/internal/pkg/logger"
	"github.com/leon-do/web3hook-emit/internal/pkg/resilience/retry"
)

// ErrServiceAlreadyStarted is returned if Start is called on a stream that is
// already running.
var ErrServiceAlreadyStarted = errors.New("service already started")

const (
	dispatchFailureChannelBufferSize = 5
	retryFailureChannelBufferSize    = 5
	observedBlockChannelBufferSize   = 10
)

// Service streams observed blocks from every registered network.
type Service interface {
	// Start launches the subscriptions and returns the channel of observed
	// blocks. It returns ErrServiceAlreadyStarted when called twice without
	// an intervening Close.
	Start(ctx context.Context) (<-chan ObservedBlock, error)

	// Close cancels all subscriptions and closes the observed block channel.
	Close()
}

type closeFunc func()

// DispatchFailureHandler is invoked for every block that could not be fetched
// even after recovery attempts. The watermark is never advanced for such
// blocks, so they are picked up again on the next start.
type DispatchFailureHandler func(ctx context.Context, dispatchFailure BlockDispatchFailure)

type service struct {
	mu        sync.Mutex
	isStarted bool
	closeFunc closeFunc

	networks          map[string]Blockchain
	checkpointStorage CheckpointStorage

	retry             retry.Retry
	onDispatchFailure DispatchFailureHandler
}

var _ Service = (*service)(nil)

func (s *service) Start(ctx context.Context) (<-chan ObservedBlock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isStarted {
		return nil, ErrServiceAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)

	var (
		producers sync.WaitGroup

		retryFailureCh    chan BlockDispatchFailure
		dispatchFailureCh = make(chan BlockDispatchFailure, dispatchFailureChannelBufferSize)
		observedBlockCh   = make(chan ObservedBlock, observedBlockChannelBufferSize)
	)

	// Producers parked on a full channel must drain out before the channels
	// are closed, or the pending send would panic.
	s.closeFunc = func() {
		cancel()
		producers.Wait()
		close(observedBlockCh)
		if retryFailureCh != nil {
			close(retryFailureCh)
		}
		close(dispatchFailureCh)
	}

	s.startHandleDispatchFailures(ctx, dispatchFailureCh)

	errorSubmissionCh := dispatchFailureCh
	if s.retry != nil {
		retryFailureCh = make(chan BlockDispatchFailure, retryFailureChannelBufferSize)
		s.startRetryFailedBlockFetches(ctx, &producers, retryFailureCh, observedBlockCh, dispatchFailureCh)
		errorSubmissionCh = retryFailureCh
	}

	if err := s.launchAllNetworkSubscriptions(ctx, &producers, observedBlockCh, errorSubmissionCh); err != nil {
		s.closeFunc()
		s.closeFunc = nil
		return nil, err
	}

	s.isStarted = true
	return observedBlockCh, nil
}

func (s *service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closeFunc != nil {
		s.closeFunc()
	}
	s.isStarted = false
	s.closeFunc = nil
}

type config struct {
	retry             retry.Retry
	checkpointStorage CheckpointStorage
	onDispatchFailure DispatchFailureHandler
}

// Option customizes the stream service.
type Option func(*config)

// New builds a stream service over the given networks. Without options the
// stream starts from the latest block of each network, performs no fetch
// recovery, and logs dispatch failures.
func New(networks map[string]Blockchain, opts ...Option) *service {
	cfg := config{
		retry:             nil,
		checkpointStorage: nopCheckpoint{},
		onDispatchFailure: defaultOnDispatchFailure,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &service{
		networks:          networks,
		checkpointStorage: cfg.checkpointStorage,
		retry:             cfg.retry,
		onDispatchFailure: cfg.onDispatchFailure,
	}
}

func defaultOnDispatchFailure(ctx context.Context, dispatchFailure BlockDispatchFailure) {
	logger.Error(ctx, "block dispatch failure",
		"block.network", dispatchFailure.Network,
		"block.height", dispatchFailure.Height,
		"block.error", errors.Join(dispatchFailure.Errors...),
	)
}

// WithDispatchFailureHandler overrides the handler invoked for blocks that
// could not be fetched even after recovery.
func WithDispatchFailureHandler(f DispatchFailureHandler) Option {
	return func(c *config) {
		c.onDispatchFailure = f
	}
}

// WithRetry enables off-path recovery of failed block fetches.
func WithRetry(r retry.Retry) Option {
	return func(c *config) {
		c.retry = r
	}
}

// WithCheckpointStorage resumes each network from its persisted watermark.
func WithCheckpointStorage(cs CheckpointStorage) Option {
	return func(c *config) {
		c.checkpointStorage = cs
	}
}
