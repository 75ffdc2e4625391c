package model

import (
	"fmt"
	"time"
)

// WorkingHours is a daily availability window. Windows may cross midnight,
// e.g. 22:00-06:00 for an emergency plumber.
type WorkingHours struct {
	Start int // minutes since midnight, inclusive
	End   int // minutes since midnight, exclusive
}

const minutesPerDay = 24 * 60

// Validate checks the window bounds.
func (w WorkingHours) Validate() error {
	if w.Start < 0 || w.Start >= minutesPerDay {
		return fmt.Errorf("working hours start %d out of range", w.Start)
	}
	if w.End < 0 || w.End > minutesPerDay {
		return fmt.Errorf("working hours end %d out of range", w.End)
	}
	if w.Start == w.End {
		return fmt.Errorf("working hours window is empty")
	}
	return nil
}

// Contains reports whether the clock time of t falls inside the window.
func (w WorkingHours) Contains(t time.Time) bool {
	m := t.Hour()*60 + t.Minute()
	if w.Start < w.End {
		return m >= w.Start && m < w.End
	}
	// window crosses midnight
	return m >= w.Start || m < w.End
}

// Contractor is an independent service provider. Contractors are deactivated,
// never hard-deleted, so historic assignments keep a valid reference.
type Contractor struct {
	ID            string
	Name          string
	Trade         TradeType
	Active        bool
	Hours         WorkingHours
	Address       string
	Location      Point
	AverageRating *float64 // nil until the first review lands
	ReviewCount   int
	CompletedJobs int
	CreatedAt     time.Time
}

// AvailableAt reports whether the contractor can take a job at the given time.
func (c Contractor) AvailableAt(t time.Time) bool {
	return c.Active && c.Hours.Contains(t)
}

// Validate checks that the contractor record is usable for recommendation.
func (c Contractor) Validate() error {
	if c.Location.IsZero() {
		return fmt.Errorf("contractor location is required")
	}
	return c.Hours.Validate()
}
