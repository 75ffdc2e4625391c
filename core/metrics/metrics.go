// Package metrics defines the observability sink consumed by the dispatch
// core. Sinks record lifecycle outcomes; they must never influence them.
package metrics

import (
	"time"

	"github.com/fieldserve/dispatch/core/model"
)

// TransitionRecord captures one assignment lifecycle transition. From is
// empty when the record marks assignment creation, so dashboards can tell
// creation apart from a self-loop.
type TransitionRecord struct {
	JobID        string
	AssignmentID string
	ContractorID string
	From         string
	To           string
	Trade        model.TradeType
	Time         time.Time
}

// RecommendationRecord captures one recommendation query.
type RecommendationRecord struct {
	JobID      string
	Trade      model.TradeType
	Candidates int
	RosterOnly bool
	Elapsed    time.Duration
	Time       time.Time
}

// ReviewRecord captures one accepted review and the resulting aggregate.
type ReviewRecord struct {
	ContractorID string
	Rating       int
	NewAverage   float64
	NewCount     int
	Time         time.Time
}

// ReassignmentRecord captures one contractor swap.
type ReassignmentRecord struct {
	JobID             string
	FromContractorID  string
	ToContractorID    string
	ReassignmentCount int
	Time              time.Time
}

// Sink records dispatch outcomes for observability purposes. Implementations
// must be safe for concurrent use; errors are logged by callers, never acted
// upon.
type Sink interface {
	RecordTransition(rec TransitionRecord) error
	RecordRecommendation(rec RecommendationRecord) error
	RecordReview(rec ReviewRecord) error
	RecordReassignment(rec ReassignmentRecord) error
}

// NopSink discards all records.
type NopSink struct{}

func (NopSink) RecordTransition(TransitionRecord) error         { return nil }
func (NopSink) RecordRecommendation(RecommendationRecord) error { return nil }
func (NopSink) RecordReview(ReviewRecord) error                 { return nil }
func (NopSink) RecordReassignment(ReassignmentRecord) error     { return nil }

// Config selects which sinks the service wires up.
type Config struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusPort    string `json:"prometheus_port"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}
