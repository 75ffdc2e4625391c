package events

import "time"

// JobAssigned is published when a dispatcher creates a pending assignment.
type JobAssigned struct {
	JobID        string
	AssignmentID string
	ContractorID string
	DispatcherID string
	At           time.Time
}

// JobReassigned is published when the dispatcher swaps contractors on a job
// that has not started yet.
type JobReassigned struct {
	JobID                string
	PreviousAssignmentID string
	NewAssignmentID      string
	PreviousContractorID string
	NewContractorID      string
	DispatcherID         string
	ReassignmentCount    int
	At                   time.Time
}

// JobInProgress is published when the contractor starts work.
type JobInProgress struct {
	JobID        string
	AssignmentID string
	ContractorID string
	At           time.Time
}

// JobCompleted is published when the contractor finishes work. CustomerID is
// carried so notification and email subscribers need no extra lookup.
type JobCompleted struct {
	JobID        string
	AssignmentID string
	ContractorID string
	CustomerID   string
	At           time.Time
}
