// Package events defines the lifecycle events emitted on the event bus.
//
// Available event types:
//   - JobAssigned: a pending assignment was created for a job
//   - JobReassigned: the dispatcher swapped contractors before work started
//   - JobInProgress: the contractor started work
//   - JobCompleted: the contractor finished work
//
// Delivery to notification and email subsystems is the subscribers' concern;
// publishing is non-blocking and best-effort from the core's perspective.
package events
