package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/fieldserve/dispatch/core/metrics"
)

// PromSink records lifecycle outcomes in Prometheus metrics.
type PromSink struct {
	transitions     *prometheus.CounterVec
	recommendations *prometheus.CounterVec
	recLatency      *prometheus.HistogramVec
	reviews         *prometheus.CounterVec
	reassignments   prometheus.Counter
	rating          *prometheus.GaugeVec
}

// NewPromSink registers dispatch metrics on the default Prometheus
// registerer. The Prometheus server is started separately using
// cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (coremetrics.Sink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (coremetrics.Sink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "assignment_transitions_total",
		Help: "Total number of assignment status transitions",
	}, []string{"from", "to"})
	recommendations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recommendations_total",
		Help: "Total number of recommendation queries",
	}, []string{"trade", "roster_only"})
	recLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "recommendation_latency_seconds",
		Help:    "Time spent filtering and scoring one recommendation query",
		Buckets: prometheus.DefBuckets,
	}, []string{"trade"})
	reviews := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reviews_total",
		Help: "Total number of accepted reviews",
	}, []string{"rating"})
	reassignments := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reassignments_total",
		Help: "Total number of dispatcher-initiated contractor swaps",
	})
	rating := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "contractor_average_rating",
		Help: "Current average rating per contractor",
	}, []string{"contractor_id"})

	s := &PromSink{
		transitions:     transitions,
		recommendations: recommendations,
		recLatency:      recLatency,
		reviews:         reviews,
		reassignments:   reassignments,
		rating:          rating,
	}
	for _, c := range []prometheus.Collector{transitions, recommendations, recLatency, reviews, reassignments, rating} {
		if err := register(reg, c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// register tolerates re-registration so repeated wiring in tests reuses the
// existing collector.
func register(reg prometheus.Registerer, c prometheus.Collector) error {
	if err := reg.Register(c); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}

// RecordTransition increments the transition counter. Creation records carry
// an empty From; it is labelled "none" so it never reads as a self-loop.
func (s *PromSink) RecordTransition(rec coremetrics.TransitionRecord) error {
	from := rec.From
	if from == "" {
		from = "none"
	}
	s.transitions.WithLabelValues(from, rec.To).Inc()
	return nil
}

// RecordRecommendation counts the query and observes its latency.
func (s *PromSink) RecordRecommendation(rec coremetrics.RecommendationRecord) error {
	s.recommendations.WithLabelValues(rec.Trade.String(), strconv.FormatBool(rec.RosterOnly)).Inc()
	s.recLatency.WithLabelValues(rec.Trade.String()).Observe(rec.Elapsed.Seconds())
	return nil
}

// RecordReview counts the review and tracks the contractor's new average.
func (s *PromSink) RecordReview(rec coremetrics.ReviewRecord) error {
	s.reviews.WithLabelValues(strconv.Itoa(rec.Rating)).Inc()
	s.rating.WithLabelValues(rec.ContractorID).Set(rec.NewAverage)
	return nil
}

// RecordReassignment increments the swap counter.
func (s *PromSink) RecordReassignment(coremetrics.ReassignmentRecord) error {
	s.reassignments.Inc()
	return nil
}
