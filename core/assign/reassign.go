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

// ReassignmentWorkflow swaps the contractor on a job that has not started
// work. The superseded assignment is Cancelled, never Declined, so
// acceptance-rate statistics keep dispatcher swaps apart from contractor
// declines.
//
// Reassignment is deliberately not idempotent: submitting it twice produces
// two superseded assignments and two counter increments. Callers retry only
// after a Conflict, with fresh candidates.
type ReassignmentWorkflow struct {
	store storage.Store
	bus   eventbus.EventBus
	log   logger.Logger
	sink  metrics.Sink
	now   func() time.Time
	newID func() string
}

// NewReassignmentWorkflow creates a ReassignmentWorkflow. Nil logger and sink
// default to no-ops.
func NewReassignmentWorkflow(store storage.Store, bus eventbus.EventBus, log logger.Logger, sink metrics.Sink) *ReassignmentWorkflow {
	if log == nil {
		log = logger.Nop{}
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &ReassignmentWorkflow{
		store: store,
		bus:   bus,
		log:   log,
		sink:  sink,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Reassign retires the job's active assignment and creates a pending one for
// the new contractor within a single unit of work. When the target contractor
// turned inactive or unavailable by execution time the whole operation fails
// with Conflict and nothing changes.
func (w *ReassignmentWorkflow) Reassign(ctx context.Context, jobID, newContractorID, dispatcherID string) (model.Assignment, error) {
	var (
		created  model.Assignment
		previous model.Assignment
		count    int
	)
	err := w.store.Atomic(ctx, func(tx storage.Store) error {
		job, err := tx.Jobs().Get(ctx, jobID)
		if err != nil {
			return mapLookup(err, "job", jobID)
		}
		if job.Status != model.JobAssigned {
			return faults.InvalidState("job", jobID, job.Status.String(), "reassign")
		}

		contractor, err := tx.Contractors().Get(ctx, newContractorID)
		if err != nil {
			return mapLookup(err, "contractor", newContractorID)
		}
		if contractor.Trade != job.Trade {
			return faults.Validationf("contractor %s trade %s does not match job trade %s",
				newContractorID, contractor.Trade, job.Trade)
		}
		if contractor.ID == job.AssignedContractorID {
			return faults.Validationf("contractor %s already holds job %s", newContractorID, jobID)
		}
		// The availability re-check happens at execution time; a contractor
		// that passed the recommendation filter may have gone since.
		if !contractor.AvailableAt(job.DesiredAt) {
			return faults.Conflictf("contractor %s is no longer available for job %s", newContractorID, jobID)
		}

		previous, err = tx.Assignments().ActiveForJob(ctx, jobID)
		if err != nil {
			if err == storage.ErrNotFound {
				return faults.Conflictf("job %s has no active assignment to supersede", jobID)
			}
			return faults.Internal(err, "load active assignment for job %s", jobID)
		}
		prevStatus := previous.Status
		previous.Status = model.AssignmentCancelled
		if err := tx.Assignments().UpdateIf(ctx, previous, prevStatus); err != nil {
			return mapTransitionWrite(err, previous.ID)
		}

		created = model.Assignment{
			ID:           w.newID(),
			JobID:        jobID,
			ContractorID: newContractorID,
			DispatcherID: dispatcherID,
			Status:       model.AssignmentPending,
			AssignedAt:   w.now(),
		}
		if err := tx.Assignments().CreateActive(ctx, created); err != nil {
			if err == storage.ErrConflict {
				return faults.Conflictf("job %s gained another active assignment concurrently", jobID)
			}
			return faults.Internal(err, "create replacement assignment for job %s", jobID)
		}

		job.ReassignmentCount++
		job.AssignedContractorID = newContractorID
		count = job.ReassignmentCount
		if err := tx.Jobs().UpdateIf(ctx, job, model.JobAssigned); err != nil {
			return mapTransitionWrite(err, jobID)
		}
		return nil
	})
	if err != nil {
		return model.Assignment{}, err
	}

	if w.bus != nil {
		w.bus.Publish(events.JobReassigned{
			JobID:                jobID,
			PreviousAssignmentID: previous.ID,
			NewAssignmentID:      created.ID,
			PreviousContractorID: previous.ContractorID,
			NewContractorID:      newContractorID,
			DispatcherID:         dispatcherID,
			ReassignmentCount:    count,
			At:                   created.AssignedAt,
		})
	}
	if err := w.sink.RecordReassignment(metrics.ReassignmentRecord{
		JobID:             jobID,
		FromContractorID:  previous.ContractorID,
		ToContractorID:    newContractorID,
		ReassignmentCount: count,
		Time:              w.now(),
	}); err != nil {
		w.log.Warnf("reassignment metrics: %v", err)
	}
	w.log.Infof("job %s reassigned from contractor %s to %s", jobID, previous.ContractorID, newContractorID)
	return created, nil
}
