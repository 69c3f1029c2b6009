package triggerregistry

import (
	"context"
	"errors"
	"strings"

	"github.com/leon-do/web3hook-emit/internal/pkg/validator"

	"github.com/google/uuid"
)

// ErrTriggerNotFound is returned when the referenced trigger does not exist.
var ErrTriggerNotFound = errors.New("trigger not found")

// NewTrigger is the input for registering a trigger.
type NewTrigger struct {
	UserID     string `validate:"required"`     // Owning user
	ChainID    int64  `validate:"required"`     // Chain to watch
	Address    string `validate:"required"`     // Address to watch (any case)
	WebhookURL string `validate:"required,url"` // Endpoint notified on match
	ABI        string // Optional ABI filter; reserved for the contract-decoding pipeline
}

// Trigger is a registered trigger record.
type Trigger struct {
	ID         string
	UserID     string
	ChainID    int64
	Address    string // stored lowercase
	WebhookURL string
	ABI        string
}

// TriggerStorage persists trigger records.
type TriggerStorage interface {
	// SaveTrigger stores the trigger, indexed by chain and address so the
	// block pipeline can look it up per transaction.
	SaveTrigger(ctx context.Context, trigger Trigger) error

	// DeleteTrigger removes the trigger with the given id, returning
	// ErrTriggerNotFound if it does not exist.
	DeleteTrigger(ctx context.Context, id string) error
}

// AccountStorage creates the metering account for a trigger's owner.
type AccountStorage interface {
	// EnsureAccount creates the account with zero credits and the unpaid
	// flag if it does not exist yet. Existing accounts are left untouched.
	EnsureAccount(ctx context.Context, userID string) error
}

// CreateTrigger implements the Service interface.
func (s *service) CreateTrigger(ctx context.Context, input NewTrigger) (Trigger, error) {
	if err := validator.Validate(input); err != nil {
		return Trigger{}, err
	}

	trigger := Trigger{
		ID:         uuid.NewString(),
		UserID:     input.UserID,
		ChainID:    input.ChainID,
		Address:    strings.ToLower(input.Address),
		WebhookURL: input.WebhookURL,
		ABI:        input.ABI,
	}

	if err := s.accountStorage.EnsureAccount(ctx, trigger.UserID); err != nil {
		return Trigger{}, err
	}

	if err := s.triggerStorage.SaveTrigger(ctx, trigger); err != nil {
		return Trigger{}, err
	}

	return trigger, nil
}

// DeleteTrigger implements the Service interface.
func (s *service) DeleteTrigger(ctx context.Context, id string) error {
	return s.triggerStorage.DeleteTrigger(ctx, id)
}
