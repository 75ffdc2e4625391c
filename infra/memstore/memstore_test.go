package memstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldserve/dispatch/core/model"
	"github.com/fieldserve/dispatch/core/storage"
)

func TestAtomic_RollbackOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Jobs().Add(ctx, model.Job{ID: "j1", Status: model.JobPending}))

	boom := errors.New("boom")
	err := s.Atomic(ctx, func(tx storage.Store) error {
		j, err := tx.Jobs().Get(ctx, "j1")
		require.NoError(t, err)
		j.Status = model.JobAssigned
		require.NoError(t, tx.Jobs().Update(ctx, j))
		require.NoError(t, tx.Assignments().CreateActive(ctx, model.Assignment{ID: "a1", JobID: "j1"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	j, err := s.Jobs().Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, model.JobPending, j.Status, "job write must roll back")
	_, err = s.Assignments().Get(ctx, "a1")
	assert.ErrorIs(t, err, storage.ErrNotFound, "assignment write must roll back")
}

func TestAtomic_CommitIsVisible(t *testing.T) {
	s := New()
	ctx := context.Background()
	err := s.Atomic(ctx, func(tx storage.Store) error {
		return tx.Jobs().Add(ctx, model.Job{ID: "j1"})
	})
	require.NoError(t, err)
	_, err = s.Jobs().Get(ctx, "j1")
	assert.NoError(t, err)
}

func TestAtomic_CancelledContextNeverStarts(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := s.Atomic(ctx, func(tx storage.Store) error {
		called = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, called, "cancellation is only honored before the unit of work begins")
}

func TestCreateActive_RejectsSecondActiveAssignment(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Assignments().CreateActive(ctx, model.Assignment{
		ID: "a1", JobID: "j1", Status: model.AssignmentPending,
	}))
	err := s.Assignments().CreateActive(ctx, model.Assignment{
		ID: "a2", JobID: "j1", Status: model.AssignmentPending,
	})
	assert.ErrorIs(t, err, storage.ErrConflict)

	// A terminal assignment frees the job for a new active one.
	a1, _ := s.Assignments().Get(ctx, "a1")
	a1.Status = model.AssignmentDeclined
	require.NoError(t, s.Assignments().UpdateIf(ctx, a1, model.AssignmentPending))
	assert.NoError(t, s.Assignments().CreateActive(ctx, model.Assignment{
		ID: "a2", JobID: "j1", Status: model.AssignmentPending,
	}))
}

func TestUpdateIf_LosesWhenStatusMoved(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Assignments().CreateActive(ctx, model.Assignment{
		ID: "a1", JobID: "j1", Status: model.AssignmentPending,
	}))

	a, _ := s.Assignments().Get(ctx, "a1")
	a.Status = model.AssignmentAccepted
	require.NoError(t, s.Assignments().UpdateIf(ctx, a, model.AssignmentPending))

	stale := a
	stale.Status = model.AssignmentDeclined
	err := s.Assignments().UpdateIf(ctx, stale, model.AssignmentPending)
	assert.ErrorIs(t, err, storage.ErrConflict)
}

func TestConcurrentAssign_OnlyOneWins(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Jobs().Add(ctx, model.Job{ID: "j1", Status: model.JobPending}))

	const attempts = 32
	var wg sync.WaitGroup
	wins := make(chan string, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("asn-%d", n)
			err := s.Atomic(ctx, func(tx storage.Store) error {
				job, err := tx.Jobs().Get(ctx, "j1")
				if err != nil {
					return err
				}
				if job.Status != model.JobPending {
					return storage.ErrConflict
				}
				if err := tx.Assignments().CreateActive(ctx, model.Assignment{
					ID: id, JobID: "j1", Status: model.AssignmentPending,
				}); err != nil {
					return err
				}
				job.Status = model.JobAssigned
				return tx.Jobs().UpdateIf(ctx, job, model.JobPending)
			})
			if err == nil {
				wins <- id
			}
		}(i)
	}
	wg.Wait()
	close(wins)

	var winners []string
	for id := range wins {
		winners = append(winners, id)
	}
	require.Len(t, winners, 1, "exactly one concurrent assignment may succeed")

	active, err := s.Assignments().List(ctx, storage.AssignmentFilter{JobID: "j1", ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestReviews_AddUnique(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Reviews().AddUnique(ctx, model.Review{
		ID: "r1", JobID: "j1", CustomerID: "cust1", ContractorID: "c1", Rating: 5,
	}))
	err := s.Reviews().AddUnique(ctx, model.Review{
		ID: "r2", JobID: "j1", CustomerID: "cust1", ContractorID: "c1", Rating: 1,
	})
	assert.ErrorIs(t, err, storage.ErrConflict)

	// Same job, different customer is fine.
	assert.NoError(t, s.Reviews().AddUnique(ctx, model.Review{
		ID: "r3", JobID: "j1", CustomerID: "cust2", ContractorID: "c1", Rating: 4,
	}))
	got, err := s.Reviews().ListByContractor(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestRoster_UpsertIdempotent(t *testing.T) {
	s := New()
	ctx := context.Background()
	first, err := s.Roster().Upsert(ctx, model.RosterEntry{ID: "e1", DispatcherID: "d1", ContractorID: "c1"})
	require.NoError(t, err)
	second, err := s.Roster().Upsert(ctx, model.RosterEntry{ID: "e2", DispatcherID: "d1", ContractorID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "second add must return the existing entry")

	entries, err := s.Roster().List(ctx, "d1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRoster_DeleteIdempotentAndConcurrent(t *testing.T) {
	s := New()
	ctx := context.Background()
	assert.NoError(t, s.Roster().Delete(ctx, "d1", "missing"))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(add bool) {
			defer wg.Done()
			if add {
				_, _ = s.Roster().Upsert(ctx, model.RosterEntry{ID: "e", DispatcherID: "d1", ContractorID: "c1"})
			} else {
				_ = s.Roster().Delete(ctx, "d1", "c1")
			}
		}(i%2 == 0)
	}
	wg.Wait()

	entries, err := s.Roster().List(ctx, "d1")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(entries), 1, "pair must converge to zero or one row")
}

func TestContractors_UpdateAggregate(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Contractors().Add(ctx, model.Contractor{ID: "c1", Active: true}))

	avg := 4.33
	require.NoError(t, s.Contractors().UpdateAggregate(ctx, "c1", &avg, 3))
	c, err := s.Contractors().Get(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, c.AverageRating)
	assert.Equal(t, 4.33, *c.AverageRating)
	assert.Equal(t, 3, c.ReviewCount)

	require.NoError(t, s.Contractors().UpdateAggregate(ctx, "c1", nil, 0))
	c, _ = s.Contractors().Get(ctx, "c1")
	assert.Nil(t, c.AverageRating)
	assert.Zero(t, c.ReviewCount)

	err = s.Contractors().UpdateAggregate(ctx, "ghost", &avg, 1)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestList_Filters(t *testing.T) {
	s := New()
	ctx := context.Background()
	trade := model.TradeHVAC
	require.NoError(t, s.Contractors().Add(ctx, model.Contractor{ID: "c1", Trade: model.TradeHVAC, Active: true}))
	require.NoError(t, s.Contractors().Add(ctx, model.Contractor{ID: "c2", Trade: model.TradeHVAC, Active: false}))
	require.NoError(t, s.Contractors().Add(ctx, model.Contractor{ID: "c3", Trade: model.TradePlumbing, Active: true}))

	got, err := s.Contractors().List(ctx, storage.ContractorFilter{Trade: &trade, ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c1", got[0].ID)
}
