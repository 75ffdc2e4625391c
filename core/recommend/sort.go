package recommend

import "sort"

// SortField selects the dimension a ranked list is reordered by.
type SortField int

const (
	// ByScore is the default composite ordering, best first.
	ByScore SortField = iota
	// ByRating orders by average rating, best first. Unrated contractors
	// sort at the pool-neutral rating used for scoring.
	ByRating
	// ByDistance orders by distance to the job site, nearest first.
	ByDistance
	// ByTravelTime orders by estimated travel time, shortest first.
	ByTravelTime
)

// SortedBy returns a copy of the list reordered by the given field. The set
// of candidates, their scores and their raw figures are untouched; sorting is
// a pure permutation, so sorting twice by the same field is stable and no
// re-query or re-score happens. Rank always reflects the composite ordering.
func (l RankedList) SortedBy(field SortField) RankedList {
	out := l
	out.Candidates = make([]Candidate, len(l.Candidates))
	copy(out.Candidates, l.Candidates)
	sortCandidates(out.Candidates, field, l.neutral)
	return out
}

// sortCandidates orders in place. Every field falls through to ascending
// distance and then contractor id, so the ordering is fully deterministic.
func sortCandidates(cands []Candidate, field SortField, neutral float64) {
	sort.Slice(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		switch field {
		case ByRating:
			ra, rb := a.effectiveRating(neutral), b.effectiveRating(neutral)
			if ra != rb {
				return ra > rb
			}
		case ByDistance:
			if a.DistanceKm != b.DistanceKm {
				return a.DistanceKm < b.DistanceKm
			}
		case ByTravelTime:
			if a.TravelTime != b.TravelTime {
				return a.TravelTime < b.TravelTime
			}
		default:
			if a.Score != b.Score {
				return a.Score > b.Score
			}
		}
		if a.DistanceKm != b.DistanceKm {
			return a.DistanceKm < b.DistanceKm
		}
		return a.Contractor.ID < b.Contractor.ID
	})
}
