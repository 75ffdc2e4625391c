package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/fieldserve/dispatch/core/metrics"
	"github.com/fieldserve/dispatch/core/model"
)

func TestPromSink_Records(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)

	require.NoError(t, sink.RecordTransition(coremetrics.TransitionRecord{
		To: model.AssignmentPending.String(), Trade: model.TradePlumbing,
	}))
	require.NoError(t, sink.RecordTransition(coremetrics.TransitionRecord{
		From: model.AssignmentPending.String(), To: model.AssignmentAccepted.String(),
	}))
	require.NoError(t, sink.RecordTransition(coremetrics.TransitionRecord{
		From: model.AssignmentAccepted.String(), To: model.AssignmentInProgress.String(),
	}))
	require.NoError(t, sink.RecordRecommendation(coremetrics.RecommendationRecord{
		Trade: model.TradeHVAC, Candidates: 3, Elapsed: 5 * time.Millisecond,
	}))
	require.NoError(t, sink.RecordReview(coremetrics.ReviewRecord{
		ContractorID: "c1", Rating: 5, NewAverage: 4.5, NewCount: 2,
	}))
	require.NoError(t, sink.RecordReassignment(coremetrics.ReassignmentRecord{}))

	ps := sink.(*PromSink)
	assert.Equal(t, 1.0, testutil.ToFloat64(ps.transitions.WithLabelValues("none", "pending")),
		"creation must not read as a pending self-loop")
	assert.Equal(t, 0.0, testutil.ToFloat64(ps.transitions.WithLabelValues("pending", "pending")))
	assert.Equal(t, 1.0, testutil.ToFloat64(ps.transitions.WithLabelValues("pending", "accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(ps.transitions.WithLabelValues("accepted", "in_progress")))
	assert.Equal(t, 1.0, testutil.ToFloat64(ps.recommendations.WithLabelValues("hvac", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(ps.reviews.WithLabelValues("5")))
	assert.Equal(t, 1.0, testutil.ToFloat64(ps.reassignments))
	assert.Equal(t, 4.5, testutil.ToFloat64(ps.rating.WithLabelValues("c1")))
}

func TestPromSink_ReRegisterIsTolerated(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)
	_, err = NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	assert.NoError(t, err, "second registration reuses existing collectors")
}
