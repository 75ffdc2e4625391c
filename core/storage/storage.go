// Package storage declares the persistence contracts the dispatch core runs
// against. The core never talks to a database directly; it requires these
// interfaces plus the atomic primitives that make the double-booking and
// uniqueness invariants enforceable below the application layer.
package storage

import (
	"context"
	"errors"

	"github.com/fieldserve/dispatch/core/model"
)

// ErrNotFound is returned when the requested entity does not exist.
var ErrNotFound = errors.New("storage: not found")

// ErrConflict is returned when a conditional write loses: the expected
// status moved, a unique constraint fired, or an active assignment already
// exists for the job.
var ErrConflict = errors.New("storage: conflict")

// JobFilter narrows job listings.
type JobFilter struct {
	Status     *model.JobStatus
	CustomerID string
}

// ContractorFilter narrows contractor listings.
type ContractorFilter struct {
	Trade      *model.TradeType
	ActiveOnly bool
}

// AssignmentFilter narrows assignment listings.
type AssignmentFilter struct {
	JobID        string
	ContractorID string
	ActiveOnly   bool
}

// JobRepository persists jobs. Jobs are never deleted.
type JobRepository interface {
	Get(ctx context.Context, id string) (model.Job, error)
	Add(ctx context.Context, j model.Job) error
	Update(ctx context.Context, j model.Job) error
	// UpdateIf writes j only while the persisted status still equals expect,
	// atomically. Returns ErrConflict when the status moved underneath.
	UpdateIf(ctx context.Context, j model.Job, expect model.JobStatus) error
	List(ctx context.Context, f JobFilter) ([]model.Job, error)
}

// ContractorRepository persists contractors. Deactivation replaces deletion.
type ContractorRepository interface {
	Get(ctx context.Context, id string) (model.Contractor, error)
	Add(ctx context.Context, c model.Contractor) error
	Update(ctx context.Context, c model.Contractor) error
	List(ctx context.Context, f ContractorFilter) ([]model.Contractor, error)
	// UpdateAggregate writes the derived rating and review count. The store
	// serializes concurrent calls for the same contractor.
	UpdateAggregate(ctx context.Context, id string, avg *float64, count int) error
}

// AssignmentRepository persists the append-only assignment chain of each job.
type AssignmentRepository interface {
	Get(ctx context.Context, id string) (model.Assignment, error)
	List(ctx context.Context, f AssignmentFilter) ([]model.Assignment, error)
	// CreateActive inserts a iff no non-terminal assignment exists for
	// a.JobID. The check and the insert are one atomic step; ErrConflict
	// when another active assignment is present.
	CreateActive(ctx context.Context, a model.Assignment) error
	// UpdateIf writes a only while the persisted status still equals expect.
	UpdateIf(ctx context.Context, a model.Assignment, expect model.AssignmentStatus) error
	// ActiveForJob returns the single non-terminal assignment of the job,
	// or ErrNotFound when the job has none.
	ActiveForJob(ctx context.Context, jobID string) (model.Assignment, error)
}

// ReviewRepository persists customer reviews.
type ReviewRepository interface {
	Get(ctx context.Context, id string) (model.Review, error)
	// AddUnique inserts r iff no review exists for (r.JobID, r.CustomerID).
	// ErrConflict on a duplicate; the existing review is never overwritten.
	AddUnique(ctx context.Context, r model.Review) error
	ListByContractor(ctx context.Context, contractorID string) ([]model.Review, error)
}

// RosterRepository persists dispatcher contractor allow-lists.
type RosterRepository interface {
	// Upsert returns the existing entry when the (dispatcher, contractor)
	// pair is already present, otherwise inserts e. Concurrent upserts of
	// the same pair converge on one row.
	Upsert(ctx context.Context, e model.RosterEntry) (model.RosterEntry, error)
	// Delete removes the pair; deleting an absent pair is a silent success.
	Delete(ctx context.Context, dispatcherID, contractorID string) error
	List(ctx context.Context, dispatcherID string) ([]model.RosterEntry, error)
}

// Store bundles the repositories behind one unit-of-work boundary.
type Store interface {
	Jobs() JobRepository
	Contractors() ContractorRepository
	Assignments() AssignmentRepository
	Reviews() ReviewRepository
	Roster() RosterRepository

	// Atomic runs fn against a transactional view of the store. Mutations
	// made through the view become visible together when fn returns nil and
	// not at all when it returns an error. Precondition checks made inside
	// fn therefore see the freshest committed state.
	Atomic(ctx context.Context, fn func(Store) error) error
}
