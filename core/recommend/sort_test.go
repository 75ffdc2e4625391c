package recommend

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rankedFixture(t *testing.T) RankedList {
	t.Helper()
	e := newTestEngine(seedEngineStore(t))
	list, err := e.Recommend(context.Background(), "j1", Options{})
	require.NoError(t, err)
	require.NotEmpty(t, list.Candidates)
	return list
}

func ids(l RankedList) []string {
	out := make([]string, len(l.Candidates))
	for i, c := range l.Candidates {
		out[i] = c.Contractor.ID
	}
	return out
}

func TestSortedBy_IsAPermutation(t *testing.T) {
	list := rankedFixture(t)
	base := ids(list)
	sort.Strings(base)

	for _, field := range []SortField{ByScore, ByRating, ByDistance, ByTravelTime} {
		got := ids(list.SortedBy(field))
		sort.Strings(got)
		assert.Equal(t, base, got, "sorting must never change membership")
	}
}

func TestSortedBy_DoesNotMutateOriginal(t *testing.T) {
	list := rankedFixture(t)
	before := ids(list)
	_ = list.SortedBy(ByDistance)
	assert.Equal(t, before, ids(list))
}

func TestSortedBy_Orderings(t *testing.T) {
	list := rankedFixture(t)

	byDist := list.SortedBy(ByDistance)
	for i := 1; i < len(byDist.Candidates); i++ {
		assert.LessOrEqual(t, byDist.Candidates[i-1].DistanceKm, byDist.Candidates[i].DistanceKm)
	}

	byTravel := list.SortedBy(ByTravelTime)
	for i := 1; i < len(byTravel.Candidates); i++ {
		assert.LessOrEqual(t, byTravel.Candidates[i-1].TravelTime, byTravel.Candidates[i].TravelTime)
	}

	byRating := list.SortedBy(ByRating)
	for i := 1; i < len(byRating.Candidates); i++ {
		prev := byRating.Candidates[i-1].effectiveRating(list.neutral)
		cur := byRating.Candidates[i].effectiveRating(list.neutral)
		assert.GreaterOrEqual(t, prev, cur)
	}
}

func TestSortedBy_Idempotent(t *testing.T) {
	list := rankedFixture(t)
	for _, field := range []SortField{ByScore, ByRating, ByDistance, ByTravelTime} {
		once := list.SortedBy(field)
		twice := once.SortedBy(field)
		assert.Equal(t, ids(once), ids(twice), "sorting twice by the same field must not reshuffle")
	}
}

func TestSortedBy_KeepsScoresAndRanks(t *testing.T) {
	list := rankedFixture(t)
	reordered := list.SortedBy(ByDistance)

	scores := map[string]float64{}
	ranks := map[string]int{}
	for _, c := range list.Candidates {
		scores[c.Contractor.ID] = c.Score
		ranks[c.Contractor.ID] = c.Rank
	}
	for _, c := range reordered.Candidates {
		assert.Equal(t, scores[c.Contractor.ID], c.Score, "re-sorting must not re-score")
		assert.Equal(t, ranks[c.Contractor.ID], c.Rank, "rank keeps the composite ordering")
	}
}
