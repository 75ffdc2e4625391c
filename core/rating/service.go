// Package rating keeps each contractor's aggregate rating consistent with
// the full set of posted reviews. The aggregate is always recomputed from
// every review rather than adjusted incrementally, so a partial failure can
// never leave drift behind.
package rating

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/fieldserve/dispatch/core/faults"
	"github.com/fieldserve/dispatch/core/logger"
	"github.com/fieldserve/dispatch/core/metrics"
	"github.com/fieldserve/dispatch/core/model"
	"github.com/fieldserve/dispatch/core/storage"
)

// Service posts reviews and maintains contractor aggregates.
type Service struct {
	store storage.Store
	log   logger.Logger
	sink  metrics.Sink
	now   func() time.Time
	newID func() string
}

// NewService creates a Service. Nil logger and sink default to no-ops.
func NewService(store storage.Store, log logger.Logger, sink metrics.Sink) *Service {
	if log == nil {
		log = logger.Nop{}
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Service{store: store, log: log, sink: sink, now: time.Now, newID: uuid.NewString}
}

// PostReview records a customer's review and recomputes the contractor's
// aggregate in the same unit of work. The review insert is visible to the
// recompute read because both run against the same transactional view, and
// the store serializes aggregate writes per contractor, so two simultaneous
// reviews cannot clobber each other. A second review for the same
// (job, customer) pair fails with Conflict and changes nothing.
func (s *Service) PostReview(ctx context.Context, jobID, contractorID, customerID string, ratingValue int, comment string) (model.Review, error) {
	review := model.Review{
		ID:           s.newID(),
		JobID:        jobID,
		ContractorID: contractorID,
		CustomerID:   customerID,
		Rating:       ratingValue,
		Comment:      comment,
		CreatedAt:    s.now(),
	}
	if err := review.Validate(); err != nil {
		return model.Review{}, faults.Validationf("%v", err)
	}

	var newAvg float64
	var newCount int
	err := s.store.Atomic(ctx, func(tx storage.Store) error {
		if _, err := tx.Contractors().Get(ctx, contractorID); err != nil {
			if err == storage.ErrNotFound {
				return faults.NotFound("contractor", contractorID)
			}
			return faults.Internal(err, "load contractor %s", contractorID)
		}
		if _, err := tx.Jobs().Get(ctx, jobID); err != nil {
			if err == storage.ErrNotFound {
				return faults.NotFound("job", jobID)
			}
			return faults.Internal(err, "load job %s", jobID)
		}

		if err := tx.Reviews().AddUnique(ctx, review); err != nil {
			if err == storage.ErrConflict {
				return faults.Conflictf("customer %s already reviewed job %s", customerID, jobID)
			}
			return faults.Internal(err, "store review for job %s", jobID)
		}

		avg, count, err := recompute(ctx, tx, contractorID)
		if err != nil {
			return err
		}
		if avg != nil {
			newAvg = *avg
		}
		newCount = count
		return nil
	})
	if err != nil {
		return model.Review{}, err
	}

	if err := s.sink.RecordReview(metrics.ReviewRecord{
		ContractorID: contractorID,
		Rating:       ratingValue,
		NewAverage:   newAvg,
		NewCount:     newCount,
		Time:         s.now(),
	}); err != nil {
		s.log.Warnf("review metrics: %v", err)
	}
	s.log.Debugw("review posted", map[string]any{
		"contractor_id": contractorID,
		"job_id":        jobID,
		"rating":        ratingValue,
		"new_average":   newAvg,
		"new_count":     newCount,
	})
	return review, nil
}

// Recompute rebuilds the contractor's aggregate from the current review set.
// It exists for administrative flows that remove reviews: an empty set must
// leave a nil average and a zero count, never 0.00.
func (s *Service) Recompute(ctx context.Context, contractorID string) error {
	return s.store.Atomic(ctx, func(tx storage.Store) error {
		if _, err := tx.Contractors().Get(ctx, contractorID); err != nil {
			if err == storage.ErrNotFound {
				return faults.NotFound("contractor", contractorID)
			}
			return faults.Internal(err, "load contractor %s", contractorID)
		}
		_, _, err := recompute(ctx, tx, contractorID)
		return err
	})
}

// recompute reads all reviews of the contractor and writes the derived
// average (two decimals, standard rounding) and count.
func recompute(ctx context.Context, tx storage.Store, contractorID string) (*float64, int, error) {
	reviews, err := tx.Reviews().ListByContractor(ctx, contractorID)
	if err != nil {
		return nil, 0, faults.Internal(err, "list reviews for contractor %s", contractorID)
	}

	var avg *float64
	if len(reviews) > 0 {
		ratings := make([]float64, len(reviews))
		for i, r := range reviews {
			ratings[i] = float64(r.Rating)
		}
		mean := round2(stat.Mean(ratings, nil))
		avg = &mean
	}
	if err := tx.Contractors().UpdateAggregate(ctx, contractorID, avg, len(reviews)); err != nil {
		if err == storage.ErrNotFound {
			return nil, 0, faults.NotFound("contractor", contractorID)
		}
		return nil, 0, faults.Internal(err, "write aggregate for contractor %s", contractorID)
	}
	return avg, len(reviews), nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
