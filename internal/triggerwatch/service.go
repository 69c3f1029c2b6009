package triggerwatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/leon-do/web3hook-emit/internal/pkg/logger"

	"github.com/google/uuid"
)

const (
	defaultFreeCreditQuota   = 1000
	defaultFetchConcurrency  = 8
	defaultMaxProcessingTime = 5 * time.Minute
)

// Service runs observed blocks through the trigger-dispatch pipeline.
type Service interface {
	// ProcessBlock fetches every transaction of the block, matches each one
	// against the registered triggers, delivers webhook notifications, and
	// meters credits. It returns nil only when every transaction was fetched
	// and matched; in that case the caller may advance the watermark.
	//
	// Delivery and metering failures are isolated per trigger and never fail
	// the block. Fetch or store failures do, so the block is retried in full:
	// transactions already dispatched may then be notified again
	// (at-least-once, receivers dedupe by transaction hash).
	ProcessBlock(ctx context.Context, block Block) error
}

type service struct {
	fetchers map[string]TransactionFetcher

	triggerStorage  TriggerStorage
	accountStorage  AccountStorage
	webhookNotifier WebhookNotifier

	idempotencyGuard  IdempotencyGuard
	maxProcessingTime time.Duration

	freeCreditQuota  int64
	fetchConcurrency int
}

var _ Service = (*service)(nil)

// dispatchTransaction matches one transaction against the trigger store and,
// for every match, posts the notification payload and increments the owner's
// credits. Credits meter matches dispatched, not deliveries confirmed: the
// increment runs regardless of the webhook outcome.
func (s *service) dispatchTransaction(ctx context.Context, tx Transaction) error {
	triggers, err := s.matchTriggers(ctx, tx)
	if err != nil {
		return err
	}

	if len(triggers) == 0 {
		return nil
	}

	payload := buildNotificationPayload(tx)

	for _, trigger := range triggers {
		deliveryID := uuid.NewString()

		if err := s.webhookNotifier.Notify(ctx, trigger.WebhookURL, payload); err != nil {
			logger.Error(ctx, "webhook delivery failed",
				"delivery.id", deliveryID,
				"trigger.id", trigger.ID,
				"trigger.url", trigger.WebhookURL,
				"transaction.hash", tx.Hash,
				"error", err,
			)
		} else {
			logger.Debug(ctx, "webhook delivered",
				"delivery.id", deliveryID,
				"trigger.id", trigger.ID,
				"transaction.hash", tx.Hash,
			)
		}

		if _, err := s.accountStorage.IncrementCredits(ctx, trigger.UserID); err != nil {
			logger.Error(ctx, "credit increment failed",
				"delivery.id", deliveryID,
				"trigger.id", trigger.ID,
				"user.id", trigger.UserID,
				"error", err,
			)
		}
	}

	return nil
}

// processBlockTransactions fans the block's transaction hashes out to a
// bounded pool of workers. Each worker fetches the transaction detail and
// dispatches it. Malformed records are logged and skipped; every other
// per-transaction failure is collected and fails the block as a whole.
func (s *service) processBlockTransactions(ctx context.Context, block Block) error {
	fetcher, ok := s.fetchers[block.Network]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNetworkNotRegistered, block.Network)
	}

	var (
		wg  sync.WaitGroup
		sem = make(chan struct{}, s.fetchConcurrency)

		mu   sync.Mutex
		errs []error
	)

	collect := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	for _, txHash := range block.TransactionHashes {
		wg.Add(1)
		sem <- struct{}{}

		go func(txHash string) {
			defer wg.Done()
			defer func() { <-sem }()

			tx, err := fetcher.FetchTransactionByHash(ctx, txHash)
			if err != nil {
				if errors.Is(err, ErrMalformedTransaction) {
					logger.Warn(ctx, "skipping malformed transaction",
						"block.network", block.Network,
						"block.height", block.Height,
						"transaction.hash", txHash,
						"error", err,
					)
					return
				}

				collect(fmt.Errorf("fetch transaction %s: %w", txHash, err))
				return
			}

			if err := s.dispatchTransaction(ctx, tx); err != nil {
				collect(fmt.Errorf("dispatch transaction %s: %w", txHash, err))
			}
		}(txHash)
	}

	wg.Wait()
	return errors.Join(errs...)
}

// ProcessBlock implements the Service interface. The block is first claimed
// through the idempotency guard so that no two processes dispatch it
// concurrently and a finished block is never dispatched again.
func (s *service) ProcessBlock(ctx context.Context, block Block) error {
	if err := s.idempotencyGuard.ClaimBlock(ctx, block.Network, block.Hash, s.maxProcessingTime); err != nil {
		return err
	}

	if err := s.processBlockTransactions(ctx, block); err != nil {
		// Give the claim back so the caller's retry is not rejected with
		// ErrStillInProgress until the TTL expires.
		if releaseErr := s.idempotencyGuard.ReleaseBlock(ctx, block.Network, block.Hash); releaseErr != nil {
			logger.Error(ctx, "error releasing block claim",
				"block.network", block.Network,
				"block.hash", block.Hash,
				"block.height", block.Height,
				"error", releaseErr,
			)
		}
		return err
	}

	if err := s.idempotencyGuard.MarkBlockProcessed(ctx, block.Network, block.Hash); err != nil {
		logger.Error(ctx, "error marking block as processed",
			"block.network", block.Network,
			"block.hash", block.Hash,
			"block.height", block.Height,
			"error", err,
		)
	}

	return nil
}

type config struct {
	idempotencyGuard  IdempotencyGuard
	maxProcessingTime time.Duration
	freeCreditQuota   int64
	fetchConcurrency  int
}

// Option customizes the pipeline service.
type Option func(*config)

// New builds the trigger-dispatch pipeline over the given per-network
// transaction fetchers and stores.
func New(fetchers map[string]TransactionFetcher, ts TriggerStorage, as AccountStorage, wn WebhookNotifier, opts ...Option) *service {
	cfg := config{
		idempotencyGuard:  nopIdempotencyGuard{},
		maxProcessingTime: defaultMaxProcessingTime,
		freeCreditQuota:   defaultFreeCreditQuota,
		fetchConcurrency:  defaultFetchConcurrency,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &service{
		fetchers:          fetchers,
		triggerStorage:    ts,
		accountStorage:    as,
		webhookNotifier:   wn,
		idempotencyGuard:  cfg.idempotencyGuard,
		maxProcessingTime: cfg.maxProcessingTime,
		freeCreditQuota:   cfg.freeCreditQuota,
		fetchConcurrency:  cfg.fetchConcurrency,
	}
}

// WithIdempotencyGuard enables cross-process block claims.
func WithIdempotencyGuard(g IdempotencyGuard) Option {
	return func(c *config) {
		c.idempotencyGuard = g
	}
}

// WithMaxProcessingTime bounds how long a block claim is held before it
// expires. Default: 5 minutes.
func WithMaxProcessingTime(d time.Duration) Option {
	return func(c *config) {
		c.maxProcessingTime = d
	}
}

// WithFreeCreditQuota sets the credit threshold under which unpaid accounts
// remain eligible for matching. Default: 1000.
func WithFreeCreditQuota(quota int64) Option {
	return func(c *config) {
		c.freeCreditQuota = quota
	}
}

// WithFetchConcurrency bounds how many transactions of a block are fetched
// and dispatched in parallel. Default: 8.
func WithFetchConcurrency(n int) Option {
	return func(c *config) {
		c.fetchConcurrency = n
	}
}
