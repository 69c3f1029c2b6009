package triggerwatch

import (
	"context"
	"sync"
	"time"

	"github.com/leon-do/web3hook-emit/internal/pkg/logger"

	"github.com/stretchr/testify/mock"
)

func init() {
	// Initialize logger for tests to prevent nil pointer dereference
	_ = logger.Init(logger.WithLevel("error"))
}

type TransactionFetcherMock struct {
	mock.Mock
}

func (m *TransactionFetcherMock) FetchTransactionByHash(ctx context.Context, hash string) (Transaction, error) {
	args := m.Called(ctx, hash)
	return args.Get(0).(Transaction), args.Error(1)
}

type TriggerStorageMock struct {
	mock.Mock
}

func (m *TriggerStorageMock) FindTriggersByAddress(ctx context.Context, chainID int64, addresses []string) ([]Trigger, error) {
	args := m.Called(ctx, chainID, addresses)
	triggers, _ := args.Get(0).([]Trigger)
	return triggers, args.Error(1)
}

type AccountStorageMock struct {
	mock.Mock
}

func (m *AccountStorageMock) GetAccount(ctx context.Context, userID string) (Account, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(Account), args.Error(1)
}

func (m *AccountStorageMock) IncrementCredits(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type WebhookNotifierMock struct {
	mock.Mock
}

func (m *WebhookNotifierMock) Notify(ctx context.Context, url string, payload NotificationPayload) error {
	args := m.Called(ctx, url, payload)
	return args.Error(0)
}

type IdempotencyGuardMock struct {
	mock.Mock
}

func (m *IdempotencyGuardMock) ClaimBlock(ctx context.Context, network, blockHash string, ttl time.Duration) error {
	args := m.Called(ctx, network, blockHash, ttl)
	return args.Error(0)
}

func (m *IdempotencyGuardMock) ReleaseBlock(ctx context.Context, network, blockHash string) error {
	args := m.Called(ctx, network, blockHash)
	return args.Error(0)
}

func (m *IdempotencyGuardMock) MarkBlockProcessed(ctx context.Context, network, blockHash string) error {
	args := m.Called(ctx, network, blockHash)
	return args.Error(0)
}

// claimTrackingGuard is a stateful in-memory guard with the real claim
// semantics: a held claim rejects further claims, a released claim can be
// retaken, and a finished block stays finished.
type claimTrackingGuard struct {
	mu     sync.Mutex
	claims map[string]string
}

func newClaimTrackingGuard() *claimTrackingGuard {
	return &claimTrackingGuard{claims: make(map[string]string)}
}

func claimKey(network, blockHash string) string {
	return network + ":" + blockHash
}

func (g *claimTrackingGuard) ClaimBlock(ctx context.Context, network, blockHash string, ttl time.Duration) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.claims[claimKey(network, blockHash)] {
	case "done":
		return ErrAlreadyFinished
	case "held":
		return ErrStillInProgress
	}

	g.claims[claimKey(network, blockHash)] = "held"
	return nil
}

func (g *claimTrackingGuard) ReleaseBlock(ctx context.Context, network, blockHash string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.claims, claimKey(network, blockHash))
	return nil
}

func (g *claimTrackingGuard) MarkBlockProcessed(ctx context.Context, network, blockHash string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.claims[claimKey(network, blockHash)] = "done"
	return nil
}
