package model

import "time"

// AssignmentStatus tracks one contractor's attempt at one job.
type AssignmentStatus int

const (
	AssignmentPending AssignmentStatus = iota
	AssignmentAccepted
	AssignmentInProgress
	AssignmentCompleted
	AssignmentDeclined
	AssignmentCancelled
)

// String returns a human-readable representation of the assignment status.
func (s AssignmentStatus) String() string {
	switch s {
	case AssignmentPending:
		return "pending"
	case AssignmentAccepted:
		return "accepted"
	case AssignmentInProgress:
		return "in_progress"
	case AssignmentCompleted:
		return "completed"
	case AssignmentDeclined:
		return "declined"
	case AssignmentCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is permitted from s.
// Declined and Cancelled stay distinct: the former is contractor-initiated,
// the latter dispatcher-initiated, and acceptance-rate reporting depends on
// telling them apart.
func (s AssignmentStatus) Terminal() bool {
	return s == AssignmentCompleted || s == AssignmentDeclined || s == AssignmentCancelled
}

// Assignment binds one contractor to one job for one fulfilment attempt.
// Superseded attempts are retained for audit, never deleted. At most one
// assignment per job may be non-terminal at any time.
type Assignment struct {
	ID           string
	JobID        string
	ContractorID string
	DispatcherID string
	Status       AssignmentStatus
	AssignedAt   time.Time
	AcceptedAt   time.Time
	StartedAt    time.Time
	CompletedAt  time.Time
}

// Active reports whether the assignment still binds the contractor to the job.
func (a Assignment) Active() bool {
	return !a.Status.Terminal()
}
