package metrics

import coremetrics "github.com/fieldserve/dispatch/core/metrics"

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordTransition forwards to all sinks, returning the first error.
func (m *MultiSink) RecordTransition(rec coremetrics.TransitionRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordTransition(rec); err != nil {
			return err
		}
	}
	return nil
}

// RecordRecommendation forwards to all sinks, returning the first error.
func (m *MultiSink) RecordRecommendation(rec coremetrics.RecommendationRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordRecommendation(rec); err != nil {
			return err
		}
	}
	return nil
}

// RecordReview forwards to all sinks, returning the first error.
func (m *MultiSink) RecordReview(rec coremetrics.ReviewRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordReview(rec); err != nil {
			return err
		}
	}
	return nil
}

// RecordReassignment forwards to all sinks, returning the first error.
func (m *MultiSink) RecordReassignment(rec coremetrics.ReassignmentRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordReassignment(rec); err != nil {
			return err
		}
	}
	return nil
}
