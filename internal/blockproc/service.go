// Package blockproc coordinates the block processing pipeline. It consumes
// the stream of observed blocks, runs each block through the trigger
// matching and webhook dispatch workflow, and advances the per-network
// watermark only after the block has been fully processed.
package blockproc

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/leon-do/web3hook-emit/internal/chainstream"
	"github.com/leon-do/web3hook-emit/internal/pkg/resilience/retry"
	"github.com/leon-do/web3hook-emit/internal/triggerwatch"
)

// ErrServiceAlreadyStarted is returned if Start is called more than once.
var ErrServiceAlreadyStarted = errors.New("service already started")

// defaultReprocessInterval is the pause between rounds when a block keeps
// failing. The block is never skipped, so the pipeline waits and tries again.
const defaultReprocessInterval = 30 * time.Second

// Service defines the blockproc lifecycle and coordination entrypoint.
type Service interface {
	// Start launches the block stream and the processing loop. It returns
	// ErrServiceAlreadyStarted if called more than once. Call Close to shut
	// down all background routines.
	Start(ctx context.Context) error

	// Close stops the stream and cancels the processing loop. It is safe to
	// call Close even if the service was never started.
	Close()
}

// closeFunc defines a cleanup routine to stop background goroutines and dependencies.
type closeFunc func()

type service struct {
	mu        sync.Mutex
	isStarted bool
	closeFunc closeFunc

	chainstream  chainstream.Service
	triggerwatch triggerwatch.Service

	checkpointStorage chainstream.CheckpointStorage
	retry             retry.Retry
	reprocessInterval time.Duration
}

var _ Service = (*service)(nil)

// Start initializes the block processing service.
func (s *service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isStarted {
		return ErrServiceAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)

	blocksCh, err := s.chainstream.Start(ctx)
	if err != nil {
		cancel()
		return err
	}

	doneCh := s.startProcessObservedBlocks(ctx, blocksCh)

	s.closeFunc = func() {
		cancel()
		s.chainstream.Close()
		<-doneCh
	}
	s.isStarted = true
	return nil
}

// Close shuts down the processing loop and the block stream.
func (s *service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closeFunc != nil {
		s.closeFunc()
	}

	s.closeFunc = nil
	s.isStarted = false
}

type config struct {
	checkpointStorage chainstream.CheckpointStorage
	retry             retry.Retry
	reprocessInterval time.Duration
}

// Option customizes the blockproc service.
type Option func(*config)

// WithCheckpointStorage persists the watermark after each fully processed
// block. Without it the pipeline keeps no durable position.
func WithCheckpointStorage(cs chainstream.CheckpointStorage) Option {
	return func(c *config) {
		c.checkpointStorage = cs
	}
}

// WithRetry wraps every block processing attempt in the given retry policy.
func WithRetry(r retry.Retry) Option {
	return func(c *config) {
		c.retry = r
	}
}

// WithReprocessInterval overrides the pause between rounds for a block that
// keeps failing.
func WithReprocessInterval(d time.Duration) Option {
	return func(c *config) {
		c.reprocessInterval = d
	}
}

// New creates a blockproc service wiring the block stream into the trigger
// dispatch workflow.
func New(cs chainstream.Service, tw triggerwatch.Service, opts ...Option) *service {
	cfg := config{
		checkpointStorage: nil,
		retry:             nil,
		reprocessInterval: defaultReprocessInterval,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &service{
		chainstream:       cs,
		triggerwatch:      tw,
		checkpointStorage: cfg.checkpointStorage,
		retry:             cfg.retry,
		reprocessInterval: cfg.reprocessInterval,
	}
}
