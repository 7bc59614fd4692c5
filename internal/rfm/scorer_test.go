package rfm

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "rfmcli/internal/errors"
)

func scoreScenario(t *testing.T) *Scoring {
	t.Helper()
	recs := scenarioRecords()
	ref, _ := ReferenceInstant(recs)
	pop := NewAggregator(nil).Aggregate(context.Background(), recs, ref)

	scoring, err := NewScorer(nil).Score(context.Background(), pop.Customers)
	require.NoError(t, err)
	return scoring
}

func TestScoreScenario(t *testing.T) {
	scoring := scoreScenario(t)
	require.Len(t, scoring.Customers, 6)

	want := map[int64]struct {
		code    string
		segment Segment
	}{
		101: {"555", SegmentChampions},
		102: {"542", SegmentLoyalCustomers},
		103: {"411", SegmentStandard},
		104: {"334", SegmentPotentialLoyalists},
		105: {"223", SegmentAtRisk},
		106: {"111", SegmentAtRisk},
	}
	for _, c := range scoring.Customers {
		w, ok := want[c.CustomerID]
		require.True(t, ok)
		assert.Equal(t, w.code, c.RFMScore(), "customer %d", c.CustomerID)
		assert.Equal(t, w.segment, c.Segment, "customer %d", c.CustomerID)
	}

	require.Len(t, scoring.Bins, 3)
	assert.Equal(t, MetricRecency, scoring.Bins[0].Metric)
	assert.Equal(t, [NumBins]int{2, 1, 1, 1, 1}, scoring.Bins[0].Counts)
	assert.Equal(t, "3", scoring.Bins[0].Upper[0].String())
	assert.Equal(t, "192", scoring.Bins[0].Upper[4].String())
	assert.Equal(t, MetricMonetary, scoring.Bins[2].Metric)
	assert.Equal(t, "120", scoring.Bins[2].Upper[0].String())
}

func TestScoreDoesNotMutateInput(t *testing.T) {
	customers := distinctPopulation(10)
	before := make([]CustomerRFM, len(customers))
	copy(before, customers)

	_, err := NewScorer(nil).Score(context.Background(), customers)
	require.NoError(t, err)
	assert.Equal(t, before, customers)
}

// distinctPopulation gives n customers with distinct values on every metric
func distinctPopulation(n int) []CustomerRFM {
	out := make([]CustomerRFM, n)
	for i := range out {
		out[i] = CustomerRFM{
			CustomerID:  int64(1000 + i),
			RecencyDays: (i*7)%n + 1,
			Frequency:   (i*3)%n + 1,
			Monetary:    decimal.NewFromInt(int64((i*11)%n+1) * 10),
		}
	}
	return out
}

func TestScoreQuintileCoverage(t *testing.T) {
	for _, n := range []int{25, 26, 27, 29, 30, 41, 100} {
		customers := distinctPopulation(n)
		// ensure the generators above stay distinct for n
		seen := map[string]bool{}
		for _, c := range customers {
			seen[c.Monetary.String()] = true
		}
		require.Len(t, seen, n, "monetary values must be distinct for n=%d", n)

		scoring, err := NewScorer(nil).Score(context.Background(), customers)
		require.NoError(t, err, "n=%d", n)

		var counts [NumBins]int
		for _, c := range scoring.Customers {
			counts[c.MScore-1]++
		}
		for b, count := range counts {
			assert.True(t, count == n/NumBins || count == (n+NumBins-1)/NumBins,
				"n=%d mScore %d has %d customers", n, b+1, count)
		}
		assert.Equal(t, counts, scoring.Bins[2].Counts)
	}
}

func TestScoreRecencyMonotonic(t *testing.T) {
	customers := distinctPopulation(20)
	// two customers identical on F and M, differing only in last purchase
	customers[3].Frequency, customers[8].Frequency = 4, 4
	customers[3].Monetary, customers[8].Monetary = decimal.NewFromInt(555), decimal.NewFromInt(555)
	customers[3].RecencyDays, customers[8].RecencyDays = 2, 19

	scoring, err := NewScorer(nil).Score(context.Background(), customers)
	require.NoError(t, err)

	recent, old := scoring.Customers[3], scoring.Customers[8]
	assert.Greater(t, recent.RScore, old.RScore)

	// monotone over the whole population
	for _, a := range scoring.Customers {
		for _, b := range scoring.Customers {
			if a.RecencyDays < b.RecencyDays {
				assert.GreaterOrEqual(t, a.RScore, b.RScore)
			}
		}
	}
}

func TestScoreFrequencyTieBreak(t *testing.T) {
	customers := distinctPopulation(10)
	for i := range customers {
		customers[i].Frequency = 2
	}

	first, err := NewScorer(nil).Score(context.Background(), customers)
	require.NoError(t, err)
	second, err := NewScorer(nil).Score(context.Background(), customers)
	require.NoError(t, err)

	// reversed input order must not change who gets which score
	reversed := make([]CustomerRFM, len(customers))
	for i, c := range customers {
		reversed[len(customers)-1-i] = c
	}
	third, err := NewScorer(nil).Score(context.Background(), reversed)
	require.NoError(t, err)

	byID := map[int64]int{}
	for i, c := range first.Customers {
		assert.Equal(t, c.FScore, second.Customers[i].FScore)
		byID[c.CustomerID] = c.FScore
	}
	for _, c := range third.Customers {
		assert.Equal(t, byID[c.CustomerID], c.FScore, "customer %d", c.CustomerID)
	}

	// ascending customer ID ranks the tie
	var got []int
	for _, c := range first.Customers {
		got = append(got, c.FScore)
	}
	assert.Equal(t, []int{1, 1, 2, 2, 3, 3, 4, 4, 5, 5}, got)
}

func TestScoreSegmentCoverage(t *testing.T) {
	scoring, err := NewScorer(nil).Score(context.Background(), distinctPopulation(60))
	require.NoError(t, err)

	valid := map[Segment]bool{}
	for _, s := range Segments() {
		valid[s] = true
	}
	for _, c := range scoring.Customers {
		assert.True(t, valid[c.Segment], "customer %d has segment %q", c.CustomerID, c.Segment)
		assert.Equal(t, Classify(c.RScore, c.FScore, c.MScore), c.Segment)
		for _, s := range []int{c.RScore, c.FScore, c.MScore} {
			assert.GreaterOrEqual(t, s, 1)
			assert.LessOrEqual(t, s, 5)
		}
	}
}

func TestScoreEmptyPopulation(t *testing.T) {
	_, err := NewScorer(nil).Score(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeEmptyPopulation))
}

func TestScoreInsufficientPopulation(t *testing.T) {
	_, err := NewScorer(nil).Score(context.Background(), distinctPopulation(4))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeInsufficientPopulation))

	appErr, _ := apperrors.AsAppError(err)
	assert.Equal(t, 4, appErr.Context["population"])
}

func TestScoreTooFewDistinctValues(t *testing.T) {
	customers := distinctPopulation(12)
	for i := range customers {
		customers[i].RecencyDays = 5 + i%2
	}

	_, err := NewScorer(nil).Score(context.Background(), customers)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeInsufficientPopulation))

	appErr, _ := apperrors.AsAppError(err)
	assert.Equal(t, "recency", appErr.Context["metric"])
	assert.Contains(t, err.Error(), "bin counts")
}

func TestScoreFiveCustomers(t *testing.T) {
	customers := distinctPopulation(5)
	scoring, err := NewScorer(nil).Score(context.Background(), customers)
	require.NoError(t, err)

	for _, bins := range scoring.Bins {
		assert.Equal(t, [NumBins]int{1, 1, 1, 1, 1}, bins.Counts, string(bins.Metric))
	}
}
