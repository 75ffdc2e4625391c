// Package roster manages dispatcher contractor allow-lists. Both operations
// are idempotent so concurrent or retried calls converge on the same row.
package roster

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fieldserve/dispatch/core/faults"
	"github.com/fieldserve/dispatch/core/logger"
	"github.com/fieldserve/dispatch/core/model"
	"github.com/fieldserve/dispatch/core/storage"
)

// Service maintains dispatcher contractor lists.
type Service struct {
	store storage.Store
	log   logger.Logger
	now   func() time.Time
	newID func() string
}

// NewService creates a Service. A nil logger defaults to a no-op.
func NewService(store storage.Store, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop{}
	}
	return &Service{store: store, log: log, now: time.Now, newID: uuid.NewString}
}

// Add puts the contractor on the dispatcher's list. Adding an existing pair
// is a no-op success returning the existing entry, identifier included.
func (s *Service) Add(ctx context.Context, dispatcherID, contractorID string) (model.RosterEntry, error) {
	if _, err := s.store.Contractors().Get(ctx, contractorID); err != nil {
		if err == storage.ErrNotFound {
			return model.RosterEntry{}, faults.NotFound("contractor", contractorID)
		}
		return model.RosterEntry{}, faults.Internal(err, "load contractor %s", contractorID)
	}
	entry, err := s.store.Roster().Upsert(ctx, model.RosterEntry{
		ID:           s.newID(),
		DispatcherID: dispatcherID,
		ContractorID: contractorID,
		AddedAt:      s.now(),
	})
	if err != nil {
		return model.RosterEntry{}, faults.Internal(err, "upsert roster entry for dispatcher %s", dispatcherID)
	}
	return entry, nil
}

// Remove takes the contractor off the dispatcher's list. Removing an absent
// pair succeeds silently.
func (s *Service) Remove(ctx context.Context, dispatcherID, contractorID string) error {
	if err := s.store.Roster().Delete(ctx, dispatcherID, contractorID); err != nil {
		return faults.Internal(err, "delete roster entry for dispatcher %s", dispatcherID)
	}
	return nil
}

// List returns the dispatcher's current allow-list.
func (s *Service) List(ctx context.Context, dispatcherID string) ([]model.RosterEntry, error) {
	entries, err := s.store.Roster().List(ctx, dispatcherID)
	if err != nil {
		return nil, faults.Internal(err, "list roster for dispatcher %s", dispatcherID)
	}
	return entries, nil
}
