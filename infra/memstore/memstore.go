// Package memstore is the in-memory reference implementation of the storage
// contracts. A single RWMutex guards the tables and Atomic runs against a
// copy-on-write snapshot, which gives the conditional-write primitives real
// check-and-set semantics: a unit of work sees the freshest committed state,
// commits all of its writes together, or leaves nothing behind.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/fieldserve/dispatch/core/model"
	"github.com/fieldserve/dispatch/core/storage"
)

type tables struct {
	jobs        map[string]model.Job
	contractors map[string]model.Contractor
	assignments map[string]model.Assignment
	reviews     map[string]model.Review
	reviewIdx   map[string]string // jobID|customerID -> review id
	roster      map[string]model.RosterEntry
}

func newTables() *tables {
	return &tables{
		jobs:        make(map[string]model.Job),
		contractors: make(map[string]model.Contractor),
		assignments: make(map[string]model.Assignment),
		reviews:     make(map[string]model.Review),
		reviewIdx:   make(map[string]string),
		roster:      make(map[string]model.RosterEntry),
	}
}

func (t *tables) clone() *tables {
	c := newTables()
	for k, v := range t.jobs {
		c.jobs[k] = v
	}
	for k, v := range t.contractors {
		c.contractors[k] = v
	}
	for k, v := range t.assignments {
		c.assignments[k] = v
	}
	for k, v := range t.reviews {
		c.reviews[k] = v
	}
	for k, v := range t.reviewIdx {
		c.reviewIdx[k] = v
	}
	for k, v := range t.roster {
		c.roster[k] = v
	}
	return c
}

func pairKey(a, b string) string { return a + "|" + b }

// runner abstracts how the repositories reach the tables: the root store
// locks around every call, a transactional view runs lock-free because the
// enclosing Atomic already holds the write lock.
type runner interface {
	read(fn func(*tables))
	write(fn func(*tables))
}

// Store is the root, concurrency-safe store.
type Store struct {
	mu sync.RWMutex
	t  *tables
}

// New creates an empty Store.
func New() *Store { return &Store{t: newTables()} }

func (s *Store) read(fn func(*tables)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.t)
}

func (s *Store) write(fn func(*tables)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.t)
}

// Jobs implements storage.Store.
func (s *Store) Jobs() storage.JobRepository { return jobs{s} }

// Contractors implements storage.Store.
func (s *Store) Contractors() storage.ContractorRepository { return contractors{s} }

// Assignments implements storage.Store.
func (s *Store) Assignments() storage.AssignmentRepository { return assignments{s} }

// Reviews implements storage.Store.
func (s *Store) Reviews() storage.ReviewRepository { return reviews{s} }

// Roster implements storage.Store.
func (s *Store) Roster() storage.RosterRepository { return roster{s} }

// Atomic runs fn against a snapshot of the tables under the write lock. The
// snapshot replaces the live tables only when fn succeeds, so partial
// mutations never become visible. Cancellation is honored before the unit of
// work starts, never mid-transaction.
func (s *Store) Atomic(ctx context.Context, fn func(storage.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.t.clone()
	if err := fn(&txStore{t: snapshot}); err != nil {
		return err
	}
	s.t = snapshot
	return nil
}

// txStore is the view handed to Atomic callbacks.
type txStore struct {
	t *tables
}

func (s *txStore) read(fn func(*tables))  { fn(s.t) }
func (s *txStore) write(fn func(*tables)) { fn(s.t) }

func (s *txStore) Jobs() storage.JobRepository               { return jobs{s} }
func (s *txStore) Contractors() storage.ContractorRepository { return contractors{s} }
func (s *txStore) Assignments() storage.AssignmentRepository { return assignments{s} }
func (s *txStore) Reviews() storage.ReviewRepository         { return reviews{s} }
func (s *txStore) Roster() storage.RosterRepository          { return roster{s} }

// Atomic on a transactional view joins the enclosing unit of work.
func (s *txStore) Atomic(ctx context.Context, fn func(storage.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(s)
}

type jobs struct{ r runner }

func (j jobs) Get(ctx context.Context, id string) (model.Job, error) {
	out, err := model.Job{}, storage.ErrNotFound
	j.r.read(func(t *tables) {
		if v, ok := t.jobs[id]; ok {
			out, err = v, nil
		}
	})
	return out, err
}

func (j jobs) Add(ctx context.Context, job model.Job) error {
	err := error(nil)
	j.r.write(func(t *tables) {
		if _, ok := t.jobs[job.ID]; ok {
			err = storage.ErrConflict
			return
		}
		t.jobs[job.ID] = job
	})
	return err
}

func (j jobs) Update(ctx context.Context, job model.Job) error {
	err := storage.ErrNotFound
	j.r.write(func(t *tables) {
		if _, ok := t.jobs[job.ID]; ok {
			t.jobs[job.ID] = job
			err = nil
		}
	})
	return err
}

func (j jobs) UpdateIf(ctx context.Context, job model.Job, expect model.JobStatus) error {
	err := storage.ErrNotFound
	j.r.write(func(t *tables) {
		cur, ok := t.jobs[job.ID]
		if !ok {
			return
		}
		if cur.Status != expect {
			err = storage.ErrConflict
			return
		}
		t.jobs[job.ID] = job
		err = nil
	})
	return err
}

func (j jobs) List(ctx context.Context, f storage.JobFilter) ([]model.Job, error) {
	var out []model.Job
	j.r.read(func(t *tables) {
		for _, v := range t.jobs {
			if f.Status != nil && v.Status != *f.Status {
				continue
			}
			if f.CustomerID != "" && v.CustomerID != f.CustomerID {
				continue
			}
			out = append(out, v)
		}
	})
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

type contractors struct{ r runner }

func (c contractors) Get(ctx context.Context, id string) (model.Contractor, error) {
	out, err := model.Contractor{}, storage.ErrNotFound
	c.r.read(func(t *tables) {
		if v, ok := t.contractors[id]; ok {
			out, err = v, nil
		}
	})
	return out, err
}

func (c contractors) Add(ctx context.Context, con model.Contractor) error {
	err := error(nil)
	c.r.write(func(t *tables) {
		if _, ok := t.contractors[con.ID]; ok {
			err = storage.ErrConflict
			return
		}
		t.contractors[con.ID] = con
	})
	return err
}

func (c contractors) Update(ctx context.Context, con model.Contractor) error {
	err := storage.ErrNotFound
	c.r.write(func(t *tables) {
		if _, ok := t.contractors[con.ID]; ok {
			t.contractors[con.ID] = con
			err = nil
		}
	})
	return err
}

func (c contractors) List(ctx context.Context, f storage.ContractorFilter) ([]model.Contractor, error) {
	var out []model.Contractor
	c.r.read(func(t *tables) {
		for _, v := range t.contractors {
			if f.Trade != nil && v.Trade != *f.Trade {
				continue
			}
			if f.ActiveOnly && !v.Active {
				continue
			}
			out = append(out, v)
		}
	})
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

func (c contractors) UpdateAggregate(ctx context.Context, id string, avg *float64, count int) error {
	err := storage.ErrNotFound
	c.r.write(func(t *tables) {
		cur, ok := t.contractors[id]
		if !ok {
			return
		}
		cur.AverageRating = avg
		cur.ReviewCount = count
		t.contractors[id] = cur
		err = nil
	})
	return err
}

type assignments struct{ r runner }

func (a assignments) Get(ctx context.Context, id string) (model.Assignment, error) {
	out, err := model.Assignment{}, storage.ErrNotFound
	a.r.read(func(t *tables) {
		if v, ok := t.assignments[id]; ok {
			out, err = v, nil
		}
	})
	return out, err
}

func (a assignments) List(ctx context.Context, f storage.AssignmentFilter) ([]model.Assignment, error) {
	var out []model.Assignment
	a.r.read(func(t *tables) {
		for _, v := range t.assignments {
			if f.JobID != "" && v.JobID != f.JobID {
				continue
			}
			if f.ContractorID != "" && v.ContractorID != f.ContractorID {
				continue
			}
			if f.ActiveOnly && !v.Active() {
				continue
			}
			out = append(out, v)
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AssignedAt.Equal(out[j].AssignedAt) {
			return out[i].AssignedAt.Before(out[j].AssignedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (a assignments) CreateActive(ctx context.Context, asn model.Assignment) error {
	err := error(nil)
	a.r.write(func(t *tables) {
		if _, ok := t.assignments[asn.ID]; ok {
			err = storage.ErrConflict
			return
		}
		for _, v := range t.assignments {
			if v.JobID == asn.JobID && v.Active() {
				err = storage.ErrConflict
				return
			}
		}
		t.assignments[asn.ID] = asn
	})
	return err
}

func (a assignments) UpdateIf(ctx context.Context, asn model.Assignment, expect model.AssignmentStatus) error {
	err := storage.ErrNotFound
	a.r.write(func(t *tables) {
		cur, ok := t.assignments[asn.ID]
		if !ok {
			return
		}
		if cur.Status != expect {
			err = storage.ErrConflict
			return
		}
		t.assignments[asn.ID] = asn
		err = nil
	})
	return err
}

func (a assignments) ActiveForJob(ctx context.Context, jobID string) (model.Assignment, error) {
	out, err := model.Assignment{}, storage.ErrNotFound
	a.r.read(func(t *tables) {
		for _, v := range t.assignments {
			if v.JobID == jobID && v.Active() {
				out, err = v, nil
				return
			}
		}
	})
	return out, err
}

type reviews struct{ r runner }

func (r reviews) Get(ctx context.Context, id string) (model.Review, error) {
	out, err := model.Review{}, storage.ErrNotFound
	r.r.read(func(t *tables) {
		if v, ok := t.reviews[id]; ok {
			out, err = v, nil
		}
	})
	return out, err
}

func (r reviews) AddUnique(ctx context.Context, rv model.Review) error {
	err := error(nil)
	r.r.write(func(t *tables) {
		key := pairKey(rv.JobID, rv.CustomerID)
		if _, ok := t.reviewIdx[key]; ok {
			err = storage.ErrConflict
			return
		}
		t.reviews[rv.ID] = rv
		t.reviewIdx[key] = rv.ID
	})
	return err
}

func (r reviews) ListByContractor(ctx context.Context, contractorID string) ([]model.Review, error) {
	var out []model.Review
	r.r.read(func(t *tables) {
		for _, v := range t.reviews {
			if v.ContractorID == contractorID {
				out = append(out, v)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

type roster struct{ r runner }

func (r roster) Upsert(ctx context.Context, e model.RosterEntry) (model.RosterEntry, error) {
	out := e
	r.r.write(func(t *tables) {
		key := pairKey(e.DispatcherID, e.ContractorID)
		if cur, ok := t.roster[key]; ok {
			out = cur
			return
		}
		t.roster[key] = e
	})
	return out, nil
}

func (r roster) Delete(ctx context.Context, dispatcherID, contractorID string) error {
	r.r.write(func(t *tables) {
		delete(t.roster, pairKey(dispatcherID, contractorID))
	})
	return nil
}

func (r roster) List(ctx context.Context, dispatcherID string) ([]model.RosterEntry, error) {
	var out []model.RosterEntry
	r.r.read(func(t *tables) {
		for _, v := range t.roster {
			if v.DispatcherID == dispatcherID {
				out = append(out, v)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ContractorID < out[j].ContractorID })
	return out, nil
}
