// Package assign implements the assignment lifecycle: the state machine that
// walks an assignment from offer to completion while keeping the owning job
// consistent, and the dispatcher-initiated reassignment workflow.
//
// Legal assignment transitions:
//
//	Pending → Accepted → InProgress → Completed
//	Pending → Declined
//	any non-terminal → Cancelled (administrative)
//
// Every transition verifies its precondition and performs its writes inside
// one storage unit of work, so concurrent requests cannot both succeed.
package assign

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fieldserve/dispatch/core/events"
	"github.com/fieldserve/dispatch/core/faults"
	"github.com/fieldserve/dispatch/core/logger"
	"github.com/fieldserve/dispatch/core/metrics"
	"github.com/fieldserve/dispatch/core/model"
	"github.com/fieldserve/dispatch/core/storage"
	"github.com/fieldserve/dispatch/internal/eventbus"
)

// StateMachine drives assignment/job status transitions.
type StateMachine struct {
	store storage.Store
	bus   eventbus.EventBus
	log   logger.Logger
	sink  metrics.Sink
	now   func() time.Time
	newID func() string
}

// NewStateMachine creates a StateMachine. bus may be nil when nobody listens;
// nil logger and sink default to no-ops.
func NewStateMachine(store storage.Store, bus eventbus.EventBus, log logger.Logger, sink metrics.Sink) *StateMachine {
	if log == nil {
		log = logger.Nop{}
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &StateMachine{
		store: store,
		bus:   bus,
		log:   log,
		sink:  sink,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// CreateAssignment offers the job to the contractor. The new assignment
// starts Pending and the job moves to Assigned; both writes land in the same
// unit of work. A concurrent assignment attempt on the same job loses with
// Conflict through the store's atomic check-and-insert.
func (m *StateMachine) CreateAssignment(ctx context.Context, jobID, contractorID, dispatcherID string) (model.Assignment, error) {
	var created model.Assignment
	var trade model.TradeType
	err := m.store.Atomic(ctx, func(tx storage.Store) error {
		job, err := tx.Jobs().Get(ctx, jobID)
		if err != nil {
			return mapLookup(err, "job", jobID)
		}
		trade = job.Trade
		contractor, err := tx.Contractors().Get(ctx, contractorID)
		if err != nil {
			return mapLookup(err, "contractor", contractorID)
		}
		if !contractor.Active {
			return faults.Validationf("contractor %s is deactivated", contractorID)
		}
		if job.Status != model.JobPending {
			return faults.Validationf("job %s is %s, only pending jobs can be assigned", jobID, job.Status)
		}
		if _, err := tx.Assignments().ActiveForJob(ctx, jobID); err == nil {
			return faults.Validationf("job %s already has an active assignment", jobID)
		} else if err != storage.ErrNotFound {
			return faults.Internal(err, "check active assignment for job %s", jobID)
		}

		created = model.Assignment{
			ID:           m.newID(),
			JobID:        jobID,
			ContractorID: contractorID,
			DispatcherID: dispatcherID,
			Status:       model.AssignmentPending,
			AssignedAt:   m.now(),
		}
		if err := tx.Assignments().CreateActive(ctx, created); err != nil {
			if err == storage.ErrConflict {
				return faults.Conflictf("job %s was assigned concurrently", jobID)
			}
			return faults.Internal(err, "create assignment for job %s", jobID)
		}

		job.Status = model.JobAssigned
		job.AssignedContractorID = contractorID
		if err := tx.Jobs().UpdateIf(ctx, job, model.JobPending); err != nil {
			if err == storage.ErrConflict {
				return faults.Conflictf("job %s changed concurrently", jobID)
			}
			return faults.Internal(err, "update job %s", jobID)
		}
		return nil
	})
	if err != nil {
		return model.Assignment{}, err
	}

	m.publish(events.JobAssigned{
		JobID:        jobID,
		AssignmentID: created.ID,
		ContractorID: contractorID,
		DispatcherID: dispatcherID,
		At:           created.AssignedAt,
	})
	m.record(created, trade, "", model.AssignmentPending.String())
	m.log.Infof("job %s assigned to contractor %s (assignment %s)", jobID, contractorID, created.ID)
	return created, nil
}

// Accept moves a pending assignment to Accepted. Only the assignment's own
// contractor may accept.
func (m *StateMachine) Accept(ctx context.Context, assignmentID, actingContractorID string) (model.Assignment, error) {
	return m.transition(ctx, assignmentID, actingContractorID, model.AssignmentAccepted, "accept",
		func(tx storage.Store, a *model.Assignment, job *model.Job) error {
			a.AcceptedAt = m.now()
			return nil
		})
}

// Decline moves a pending assignment to Declined and reverts the job to
// Pending, clearing the contractor reference so a fresh recommendation cycle
// can run.
func (m *StateMachine) Decline(ctx context.Context, assignmentID, actingContractorID string) (model.Assignment, error) {
	return m.transition(ctx, assignmentID, actingContractorID, model.AssignmentDeclined, "decline",
		func(tx storage.Store, a *model.Assignment, job *model.Job) error {
			job.Status = model.JobPending
			job.AssignedContractorID = ""
			return nil
		})
}

// MarkInProgress records that the contractor started work.
func (m *StateMachine) MarkInProgress(ctx context.Context, assignmentID, actingContractorID string) (model.Assignment, error) {
	a, err := m.transition(ctx, assignmentID, actingContractorID, model.AssignmentInProgress, "start",
		func(tx storage.Store, a *model.Assignment, job *model.Job) error {
			a.StartedAt = m.now()
			job.Status = model.JobInProgress
			return nil
		})
	if err != nil {
		return model.Assignment{}, err
	}
	m.publish(events.JobInProgress{
		JobID:        a.JobID,
		AssignmentID: a.ID,
		ContractorID: a.ContractorID,
		At:           a.StartedAt,
	})
	return a, nil
}

// MarkComplete records that the contractor finished work. The job completes
// with the assignment and the contractor's completed-jobs tally grows. The
// emitted event carries the customer id so notification subscribers need no
// extra lookup.
func (m *StateMachine) MarkComplete(ctx context.Context, assignmentID, actingContractorID string) (model.Assignment, error) {
	var customerID string
	a, err := m.transition(ctx, assignmentID, actingContractorID, model.AssignmentCompleted, "complete",
		func(tx storage.Store, a *model.Assignment, job *model.Job) error {
			a.CompletedAt = m.now()
			job.Status = model.JobCompleted
			customerID = job.CustomerID

			contractor, err := tx.Contractors().Get(ctx, a.ContractorID)
			if err != nil {
				return mapLookup(err, "contractor", a.ContractorID)
			}
			contractor.CompletedJobs++
			if err := tx.Contractors().Update(ctx, contractor); err != nil {
				return faults.Internal(err, "update contractor %s", a.ContractorID)
			}
			return nil
		})
	if err != nil {
		return model.Assignment{}, err
	}
	m.publish(events.JobCompleted{
		JobID:        a.JobID,
		AssignmentID: a.ID,
		ContractorID: a.ContractorID,
		CustomerID:   customerID,
		At:           a.CompletedAt,
	})
	return a, nil
}

// Cancel administratively terminates a non-terminal assignment. Cancelled is
// kept distinct from Declined: cancellation is dispatcher-initiated, and
// acceptance-rate reporting depends on the difference. The job is cancelled
// too and its contractor reference cleared.
func (m *StateMachine) Cancel(ctx context.Context, assignmentID, dispatcherID string) (model.Assignment, error) {
	var updated model.Assignment
	var from model.AssignmentStatus
	var trade model.TradeType
	err := m.store.Atomic(ctx, func(tx storage.Store) error {
		a, err := tx.Assignments().Get(ctx, assignmentID)
		if err != nil {
			return mapLookup(err, "assignment", assignmentID)
		}
		if a.Status.Terminal() {
			return faults.InvalidState("assignment", assignmentID, a.Status.String(), "cancel")
		}
		from = a.Status
		a.Status = model.AssignmentCancelled
		if err := tx.Assignments().UpdateIf(ctx, a, from); err != nil {
			return mapTransitionWrite(err, assignmentID)
		}

		job, err := tx.Jobs().Get(ctx, a.JobID)
		if err != nil {
			return mapLookup(err, "job", a.JobID)
		}
		trade = job.Trade
		prev := job.Status
		job.Status = model.JobCancelled
		job.AssignedContractorID = ""
		if err := tx.Jobs().UpdateIf(ctx, job, prev); err != nil {
			return mapTransitionWrite(err, a.JobID)
		}
		updated = a
		return nil
	})
	if err != nil {
		return model.Assignment{}, err
	}
	m.record(updated, trade, from.String(), model.AssignmentCancelled.String())
	m.log.Infof("assignment %s cancelled by dispatcher %s", assignmentID, dispatcherID)
	return updated, nil
}

// legalFrom is the required predecessor of each contractor-driven target.
var legalFrom = map[model.AssignmentStatus]model.AssignmentStatus{
	model.AssignmentAccepted:   model.AssignmentPending,
	model.AssignmentDeclined:   model.AssignmentPending,
	model.AssignmentInProgress: model.AssignmentAccepted,
	model.AssignmentCompleted:  model.AssignmentInProgress,
}

// transition performs one contractor-driven step: authorization, precondition
// check against the freshest persisted state, the mutation hook, and the
// conditional writes, all inside one unit of work.
func (m *StateMachine) transition(
	ctx context.Context,
	assignmentID, actingContractorID string,
	to model.AssignmentStatus,
	verb string,
	mutate func(tx storage.Store, a *model.Assignment, job *model.Job) error,
) (model.Assignment, error) {
	var updated model.Assignment
	var from model.AssignmentStatus
	var trade model.TradeType
	err := m.store.Atomic(ctx, func(tx storage.Store) error {
		a, err := tx.Assignments().Get(ctx, assignmentID)
		if err != nil {
			return mapLookup(err, "assignment", assignmentID)
		}
		if a.ContractorID != actingContractorID {
			return faults.Unauthorized("assignment", assignmentID, actingContractorID)
		}
		if a.Status != legalFrom[to] {
			return faults.InvalidState("assignment", assignmentID, a.Status.String(), verb)
		}
		from = a.Status

		job, err := tx.Jobs().Get(ctx, a.JobID)
		if err != nil {
			return mapLookup(err, "job", a.JobID)
		}
		trade = job.Trade
		jobBefore := job.Status

		a.Status = to
		if err := mutate(tx, &a, &job); err != nil {
			return err
		}
		if err := tx.Assignments().UpdateIf(ctx, a, from); err != nil {
			return mapTransitionWrite(err, assignmentID)
		}
		if err := tx.Jobs().UpdateIf(ctx, job, jobBefore); err != nil {
			return mapTransitionWrite(err, a.JobID)
		}
		updated = a
		return nil
	})
	if err != nil {
		return model.Assignment{}, err
	}
	m.record(updated, trade, from.String(), to.String())
	m.log.Debugw("assignment transition", map[string]any{
		"assignment_id": assignmentID,
		"from":          from.String(),
		"to":            to.String(),
	})
	return updated, nil
}

func (m *StateMachine) publish(e eventbus.Event) {
	if m.bus != nil {
		m.bus.Publish(e)
	}
}

// record reports one lifecycle step to the metrics sink. An empty from marks
// assignment creation rather than a transition.
func (m *StateMachine) record(a model.Assignment, trade model.TradeType, from, to string) {
	if err := m.sink.RecordTransition(metrics.TransitionRecord{
		JobID:        a.JobID,
		AssignmentID: a.ID,
		ContractorID: a.ContractorID,
		From:         from,
		To:           to,
		Trade:        trade,
		Time:         m.now(),
	}); err != nil {
		m.log.Warnf("transition metrics: %v", err)
	}
}

// mapLookup classifies a repository read error.
func mapLookup(err error, entity, id string) error {
	if err == storage.ErrNotFound {
		return faults.NotFound(entity, id)
	}
	return faults.Internal(err, "load %s %s", entity, id)
}

// mapTransitionWrite classifies a conditional-write failure. A lost CAS means
// another request moved the status between our read and write.
func mapTransitionWrite(err error, id string) error {
	if err == storage.ErrConflict {
		return faults.Conflictf("entity %s changed concurrently", id)
	}
	return faults.Internal(err, "write %s", id)
}
