package model

import (
	"fmt"
	"strings"
	"time"
)

// TradeType identifies the kind of work a job requires and a contractor offers.
type TradeType int

const (
	TradePlumbing TradeType = iota
	TradeHVAC
	TradeElectrical
	TradeCarpentry
	TradeGeneral
)

// String returns a human-readable representation of the trade type.
func (t TradeType) String() string {
	switch t {
	case TradePlumbing:
		return "plumbing"
	case TradeHVAC:
		return "hvac"
	case TradeElectrical:
		return "electrical"
	case TradeCarpentry:
		return "carpentry"
	case TradeGeneral:
		return "general"
	default:
		return "unknown"
	}
}

// ParseTradeType converts a config or API string into a TradeType.
func ParseTradeType(s string) (TradeType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "plumbing":
		return TradePlumbing, nil
	case "hvac":
		return TradeHVAC, nil
	case "electrical":
		return TradeElectrical, nil
	case "carpentry":
		return TradeCarpentry, nil
	case "general":
		return TradeGeneral, nil
	default:
		return 0, fmt.Errorf("unknown trade type %q", s)
	}
}

// JobStatus tracks a job through its lifecycle.
type JobStatus int

const (
	JobPending JobStatus = iota
	JobAssigned
	JobInProgress
	JobCompleted
	JobCancelled
)

// String returns a human-readable representation of the job status.
func (s JobStatus) String() string {
	switch s {
	case JobPending:
		return "pending"
	case JobAssigned:
		return "assigned"
	case JobInProgress:
		return "in_progress"
	case JobCompleted:
		return "completed"
	case JobCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is permitted from s.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobCancelled
}

// Job is a customer request for service at a location. Jobs are never
// physically deleted; status transitions are driven exclusively by the
// assignment state machine and the reassignment workflow.
type Job struct {
	ID                   string
	CustomerID           string
	Trade                TradeType
	Address              string
	Location             Point
	DesiredAt            time.Time
	Description          string
	Status               JobStatus
	AssignedContractorID string // empty when no contractor currently holds the job
	ReassignmentCount    int
	CreatedAt            time.Time
}

// Validate checks that the job carries the fields recommendation depends on.
func (j Job) Validate() error {
	if j.Address == "" && j.Location.IsZero() {
		return fmt.Errorf("job location is required")
	}
	if j.DesiredAt.IsZero() {
		return fmt.Errorf("job desired time is required")
	}
	return nil
}
