// Package intake creates jobs and contractors. Creation is where the
// geocoding collaborator runs: recommendation cannot rank without
// coordinates, so a geocoding failure fails the creation as a validation
// error instead of letting an unlocatable record in.
package intake

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fieldserve/dispatch/core/faults"
	"github.com/fieldserve/dispatch/core/geo"
	"github.com/fieldserve/dispatch/core/logger"
	"github.com/fieldserve/dispatch/core/model"
	"github.com/fieldserve/dispatch/core/storage"
)

// NewJob is the customer-facing job submission payload.
type NewJob struct {
	CustomerID  string
	Trade       model.TradeType
	Address     string
	DesiredAt   time.Time
	Description string
}

// NewContractor is the contractor onboarding payload.
type NewContractor struct {
	Name    string
	Trade   model.TradeType
	Address string
	Hours   model.WorkingHours
}

// Service persists new jobs and contractors.
type Service struct {
	store    storage.Store
	geocoder geo.Geocoder
	log      logger.Logger
	now      func() time.Time
	newID    func() string
}

// NewService creates a Service. The geocoder is required.
func NewService(store storage.Store, geocoder geo.Geocoder, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop{}
	}
	return &Service{store: store, geocoder: geocoder, log: log, now: time.Now, newID: uuid.NewString}
}

// CreateJob geocodes the address and stores the job in Pending.
func (s *Service) CreateJob(ctx context.Context, in NewJob) (model.Job, error) {
	if in.Address == "" {
		return model.Job{}, faults.Validationf("job address is required")
	}
	if in.DesiredAt.IsZero() {
		return model.Job{}, faults.Validationf("job desired time is required")
	}
	loc, err := s.geocoder.GeocodeAddress(ctx, in.Address)
	if err != nil {
		return model.Job{}, faults.Validationf("geocode %q: %v", in.Address, err)
	}
	job := model.Job{
		ID:          s.newID(),
		CustomerID:  in.CustomerID,
		Trade:       in.Trade,
		Address:     in.Address,
		Location:    loc,
		DesiredAt:   in.DesiredAt,
		Description: in.Description,
		Status:      model.JobPending,
		CreatedAt:   s.now(),
	}
	if err := s.store.Jobs().Add(ctx, job); err != nil {
		return model.Job{}, faults.Internal(err, "store job")
	}
	s.log.Infof("job %s created (%s at %s)", job.ID, job.Trade, job.Address)
	return job, nil
}

// CreateContractor geocodes the address and stores an active contractor.
func (s *Service) CreateContractor(ctx context.Context, in NewContractor) (model.Contractor, error) {
	if in.Name == "" {
		return model.Contractor{}, faults.Validationf("contractor name is required")
	}
	if in.Address == "" {
		return model.Contractor{}, faults.Validationf("contractor address is required")
	}
	if err := in.Hours.Validate(); err != nil {
		return model.Contractor{}, faults.Validationf("%v", err)
	}
	loc, err := s.geocoder.GeocodeAddress(ctx, in.Address)
	if err != nil {
		return model.Contractor{}, faults.Validationf("geocode %q: %v", in.Address, err)
	}
	c := model.Contractor{
		ID:        s.newID(),
		Name:      in.Name,
		Trade:     in.Trade,
		Active:    true,
		Hours:     in.Hours,
		Address:   in.Address,
		Location:  loc,
		CreatedAt: s.now(),
	}
	if err := s.store.Contractors().Add(ctx, c); err != nil {
		return model.Contractor{}, faults.Internal(err, "store contractor")
	}
	s.log.Infof("contractor %s onboarded (%s, %s)", c.ID, c.Name, c.Trade)
	return c, nil
}

// Deactivate soft-deletes a contractor. Historic assignments and reviews keep
// their reference; the contractor simply stops matching the candidate filter.
func (s *Service) Deactivate(ctx context.Context, contractorID string) error {
	return s.store.Atomic(ctx, func(tx storage.Store) error {
		c, err := tx.Contractors().Get(ctx, contractorID)
		if err != nil {
			if err == storage.ErrNotFound {
				return faults.NotFound("contractor", contractorID)
			}
			return faults.Internal(err, "load contractor %s", contractorID)
		}
		if !c.Active {
			return nil
		}
		c.Active = false
		if err := tx.Contractors().Update(ctx, c); err != nil {
			return faults.Internal(err, "deactivate contractor %s", contractorID)
		}
		return nil
	})
}
