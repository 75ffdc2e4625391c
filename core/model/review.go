package model

import (
	"fmt"
	"time"
)

// Review is a customer's rating of a contractor for one job. At most one
// review may exist per (job, customer) pair; duplicates are rejected, never
// overwritten.
type Review struct {
	ID           string
	JobID        string
	ContractorID string
	CustomerID   string
	Rating       int // 1..5
	Comment      string
	CreatedAt    time.Time
}

// Validate checks the rating bounds.
func (r Review) Validate() error {
	if r.Rating < 1 || r.Rating > 5 {
		return fmt.Errorf("rating %d out of range 1..5", r.Rating)
	}
	return nil
}

// RosterEntry is one row of a dispatcher's personal contractor allow-list.
// The (dispatcher, contractor) pair is unique; Add is an idempotent upsert.
type RosterEntry struct {
	ID           string
	DispatcherID string
	ContractorID string
	AddedAt      time.Time
}
