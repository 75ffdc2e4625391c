// Package recommend ranks candidate contractors for a job. Scoring combines
// the contractor's rating with distance and estimated travel time to the job
// site; the weights can be tuned per deployment. The engine is stateless:
// every call re-reads the contractor pool and returns a self-contained
// ranked list that callers can re-sort without another query.
package recommend

import (
	"context"
	"time"

	"github.com/fieldserve/dispatch/core/faults"
	"github.com/fieldserve/dispatch/core/geo"
	"github.com/fieldserve/dispatch/core/logger"
	"github.com/fieldserve/dispatch/core/metrics"
	"github.com/fieldserve/dispatch/core/model"
	"github.com/fieldserve/dispatch/core/storage"
)

// Weights controls the relative influence of each scoring dimension.
type Weights struct {
	Rating     float64 `json:"rating"`
	Distance   float64 `json:"distance"`
	TravelTime float64 `json:"travel_time"`
}

// DefaultWeights returns the production defaults: rating dominates, distance
// matters more than the travel-time estimate derived from it.
func DefaultWeights() Weights {
	return Weights{Rating: 0.5, Distance: 0.3, TravelTime: 0.2}
}

// Config defines recommendation settings.
type Config struct {
	Weights     Weights `json:"weights"`
	AvgSpeedKmh float64 `json:"avg_speed_kmh"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	zero := Weights{}
	if c.Weights == zero {
		c.Weights = DefaultWeights()
	}
	if c.AvgSpeedKmh <= 0 {
		c.AvgSpeedKmh = geo.DefaultAvgSpeedKmh
	}
}

// neutralRating is the midpoint fallback when no candidate has a review yet.
const neutralRating = 3.0

// Candidate is one scored contractor. DistanceKm and TravelTime are exposed
// raw so callers can re-sort by a single dimension without re-querying.
type Candidate struct {
	Contractor model.Contractor
	Score      float64
	DistanceKm float64
	TravelTime time.Duration
	Rank       int
}

// effectiveRating is the value used for scoring and rating sorts. Unrated
// contractors borrow the pool's neutral value instead of scoring zero.
func (c Candidate) effectiveRating(neutral float64) float64 {
	if c.Contractor.AverageRating == nil {
		return neutral
	}
	return *c.Contractor.AverageRating
}

// NoCandidatesNote marks an empty result that is an answer, not an error.
const NoCandidatesNote = "no available contractors"

// RankedList is the result of one recommendation query.
type RankedList struct {
	JobID      string
	Candidates []Candidate
	// Note is set to NoCandidatesNote when the filtered pool is empty.
	Note string

	neutral float64
}

// Options narrows the candidate pool.
type Options struct {
	// DispatcherID identifies the requesting dispatcher; required when
	// RosterOnly is set.
	DispatcherID string
	// RosterOnly restricts candidates to the dispatcher's contractor list.
	RosterOnly bool
}

// Engine produces ranked contractor recommendations.
type Engine struct {
	store     storage.Store
	estimator geo.TravelTimeEstimator
	weights   Weights
	log       logger.Logger
	sink      metrics.Sink
}

// NewEngine creates an Engine. A nil estimator falls back to the straight-line
// speed estimator and nil sink/logger default to no-ops.
func NewEngine(store storage.Store, cfg Config, estimator geo.TravelTimeEstimator, log logger.Logger, sink metrics.Sink) *Engine {
	cfg.SetDefaults()
	if estimator == nil {
		estimator = geo.SpeedEstimator{AvgSpeedKmh: cfg.AvgSpeedKmh}
	}
	if log == nil {
		log = logger.Nop{}
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Engine{store: store, estimator: estimator, weights: cfg.Weights, log: log, sink: sink}
}

// Recommend returns the ranked contractor list for the job. An empty pool is
// reported through RankedList.Note, never as an error; lookup failures
// propagate so they are not mistaken for "nobody available".
func (e *Engine) Recommend(ctx context.Context, jobID string, opts Options) (RankedList, error) {
	started := time.Now()

	job, err := e.store.Jobs().Get(ctx, jobID)
	if err != nil {
		if err == storage.ErrNotFound {
			return RankedList{}, faults.NotFound("job", jobID)
		}
		return RankedList{}, faults.Internal(err, "load job %s", jobID)
	}
	if err := job.Validate(); err != nil {
		return RankedList{}, faults.Validationf("job %s: %v", jobID, err)
	}
	if job.Location.IsZero() {
		return RankedList{}, faults.Validationf("job %s has no geocoded location", jobID)
	}

	trade := job.Trade
	pool, err := e.store.Contractors().List(ctx, storage.ContractorFilter{Trade: &trade, ActiveOnly: true})
	if err != nil {
		return RankedList{}, faults.Internal(err, "list contractors for job %s", jobID)
	}

	var allowed map[string]bool
	if opts.RosterOnly {
		if opts.DispatcherID == "" {
			return RankedList{}, faults.Validationf("dispatcher id required for roster-restricted recommendation")
		}
		entries, err := e.store.Roster().List(ctx, opts.DispatcherID)
		if err != nil {
			return RankedList{}, faults.Internal(err, "load roster for dispatcher %s", opts.DispatcherID)
		}
		allowed = make(map[string]bool, len(entries))
		for _, en := range entries {
			allowed[en.ContractorID] = true
		}
	}

	var cands []Candidate
	for _, c := range pool {
		if !c.AvailableAt(job.DesiredAt) {
			continue
		}
		if allowed != nil && !allowed[c.ID] {
			continue
		}
		d := geo.DistanceKm(job.Location, c.Location)
		cands = append(cands, Candidate{
			Contractor: c,
			DistanceKm: d,
			TravelTime: e.estimator.EstimateTravelTime(c.Location, job.Location),
		})
	}

	list := RankedList{JobID: jobID, Candidates: cands}
	if len(cands) == 0 {
		list.Note = NoCandidatesNote
	} else {
		list.neutral = poolNeutralRating(cands)
		e.score(&list)
		sortCandidates(list.Candidates, ByScore, list.neutral)
		for i := range list.Candidates {
			list.Candidates[i].Rank = i + 1
		}
	}

	if err := e.sink.RecordRecommendation(metrics.RecommendationRecord{
		JobID:      jobID,
		Trade:      job.Trade,
		Candidates: len(list.Candidates),
		RosterOnly: opts.RosterOnly,
		Elapsed:    time.Since(started),
		Time:       time.Now(),
	}); err != nil {
		e.log.Warnf("recommendation metrics: %v", err)
	}
	e.log.Debugw("recommendation computed", map[string]any{
		"job_id":     jobID,
		"trade":      job.Trade.String(),
		"candidates": len(list.Candidates),
	})
	return list, nil
}

// poolNeutralRating is the rating substituted for unrated contractors: the
// mean of the rated candidates, or the scale midpoint when nobody is rated.
func poolNeutralRating(cands []Candidate) float64 {
	var sum float64
	var n int
	for _, c := range cands {
		if c.Contractor.AverageRating != nil {
			sum += *c.Contractor.AverageRating
			n++
		}
	}
	if n == 0 {
		return neutralRating
	}
	return sum / float64(n)
}

// score fills in the composite score of every candidate. Distance and travel
// time are min-max normalized over the pool so the nearest candidate always
// earns the full weight of those dimensions.
func (e *Engine) score(list *RankedList) {
	cands := list.Candidates
	minD, maxD := cands[0].DistanceKm, cands[0].DistanceKm
	minT, maxT := cands[0].TravelTime, cands[0].TravelTime
	for _, c := range cands[1:] {
		if c.DistanceKm < minD {
			minD = c.DistanceKm
		}
		if c.DistanceKm > maxD {
			maxD = c.DistanceKm
		}
		if c.TravelTime < minT {
			minT = c.TravelTime
		}
		if c.TravelTime > maxT {
			maxT = c.TravelTime
		}
	}
	for i := range cands {
		ratingNorm := (cands[i].effectiveRating(list.neutral) - 1) / 4
		distNorm := minMaxNorm(cands[i].DistanceKm, minD, maxD)
		travelNorm := minMaxNorm(cands[i].TravelTime.Seconds(), minT.Seconds(), maxT.Seconds())
		cands[i].Score = e.weights.Rating*ratingNorm +
			e.weights.Distance*(1-distNorm) +
			e.weights.TravelTime*(1-travelNorm)
	}
}

// minMaxNorm maps v into [0,1]; a degenerate range normalizes to 0 so every
// candidate earns the full weight of an undiscriminating dimension.
func minMaxNorm(v, min, max float64) float64 {
	if max <= min {
		return 0
	}
	return (v - min) / (max - min)
}
