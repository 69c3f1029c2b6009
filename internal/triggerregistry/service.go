// Package triggerregistry manages the lifecycle of triggers: user-configured
// filters that watch an address on one chain and point at a webhook endpoint.
// The block pipeline only ever reads triggers; this package is the single
// writer.
package triggerregistry

import "context"

// Service registers and unregisters triggers.
type Service interface {
	// CreateTrigger validates the input, assigns a trigger id, makes sure the
	// owning account exists, and persists the trigger. The watched address is
	// normalized to lowercase before storage.
	CreateTrigger(ctx context.Context, input NewTrigger) (Trigger, error)

	// DeleteTrigger removes the trigger with the given id. It returns
	// ErrTriggerNotFound if no such trigger exists.
	DeleteTrigger(ctx context.Context, id string) error
}

// service is the concrete implementation of the Service interface.
type service struct {
	triggerStorage TriggerStorage
	accountStorage AccountStorage
}

var _ Service = (*service)(nil)

// New creates a triggerregistry service backed by the provided storages.
func New(ts TriggerStorage, as AccountStorage) *service {
	return &service{
		triggerStorage: ts,
		accountStorage: as,
	}
}
