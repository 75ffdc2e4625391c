package metrics

import (
	"context"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/fieldserve/dispatch/core/logger"
	coremetrics "github.com/fieldserve/dispatch/core/metrics"
	infralogger "github.com/fieldserve/dispatch/infra/logger"
)

// InfluxSink writes lifecycle records to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

const influxTimeout = 10 * time.Second

// NewInfluxSink creates a sink for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	client := influxdb2.NewClient(url, token)
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      infralogger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a NopSink
// when the health check fails, so a down timeseries store never blocks
// dispatching.
func NewInfluxSinkWithFallback(cfg coremetrics.Config) coremetrics.Sink {
	sink := NewInfluxSink(cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

// RecordTransition writes the transition as one point.
func (s *InfluxSink) RecordTransition(rec coremetrics.TransitionRecord) error {
	p := write.NewPointWithMeasurement("assignment_transition").
		AddTag("job_id", rec.JobID).
		AddTag("contractor_id", rec.ContractorID).
		AddTag("trade", rec.Trade.String()).
		AddTag("to", rec.To).
		AddField("assignment_id", rec.AssignmentID).
		SetTime(rec.Time)
	// empty From marks creation; influx tags must be non-empty
	if rec.From != "" {
		p.AddTag("from", rec.From)
	}
	return s.write(p)
}

// RecordRecommendation writes the query outcome as one point.
func (s *InfluxSink) RecordRecommendation(rec coremetrics.RecommendationRecord) error {
	p := write.NewPointWithMeasurement("recommendation").
		AddTag("trade", rec.Trade.String()).
		AddTag("roster_only", strconv.FormatBool(rec.RosterOnly)).
		AddField("candidates", rec.Candidates).
		AddField("elapsed_ms", float64(rec.Elapsed.Milliseconds())).
		SetTime(rec.Time)
	return s.write(p)
}

// RecordReview writes the review and the resulting aggregate.
func (s *InfluxSink) RecordReview(rec coremetrics.ReviewRecord) error {
	p := write.NewPointWithMeasurement("review").
		AddTag("contractor_id", rec.ContractorID).
		AddField("rating", rec.Rating).
		AddField("new_average", rec.NewAverage).
		AddField("new_count", rec.NewCount).
		SetTime(rec.Time)
	return s.write(p)
}

// RecordReassignment writes the swap as one point.
func (s *InfluxSink) RecordReassignment(rec coremetrics.ReassignmentRecord) error {
	p := write.NewPointWithMeasurement("reassignment").
		AddTag("job_id", rec.JobID).
		AddTag("from_contractor", rec.FromContractorID).
		AddTag("to_contractor", rec.ToContractorID).
		AddField("reassignment_count", rec.ReassignmentCount).
		SetTime(rec.Time)
	return s.write(p)
}

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), influxTimeout)
	defer cancel()
	if err := s.writeAPI.WritePoint(ctx, p); err != nil {
		s.log.Errorf("influx write: %v", err)
		return err
	}
	return nil
}
