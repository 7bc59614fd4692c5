package rfm

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	apperrors "rfmcli/internal/errors"
)

// Scorer bins each metric into quintiles and assigns segments
type Scorer struct {
	logger *slog.Logger
}

// NewScorer creates a scorer
func NewScorer(logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{logger: logger.With("component", "scorer")}
}

// Score scores the whole population at once; every customer's metrics must
// be known before any bin is assigned. The input slice is not modified.
//
// Customers with equal frequency are ranked by ascending customer ID, so
// the same population always scores the same way. An empty population fails with EMPTY_POPULATION;
// fewer than five customers, or any metric leaving a bin empty, fails with
// INSUFFICIENT_POPULATION.
func (s *Scorer) Score(ctx context.Context, customers []CustomerRFM) (*Scoring, error) {
	n := len(customers)
	if n == 0 {
		return nil, apperrors.NewEmptyPopulationError("no customers to score")
	}
	if n < NumBins {
		return nil, apperrors.NewInsufficientPopulationError(
			fmt.Sprintf("%d customers cannot form %d quantile bins", n, NumBins)).
			WithContext("population", n)
	}

	scored := make([]CustomerRFM, n)
	copy(scored, customers)

	recency, err := s.scoreMetric(MetricRecency, scored, func(i, j int) int {
		return cmp.Compare(scored[i].RecencyDays, scored[j].RecencyDays)
	}, func(c CustomerRFM) decimal.Decimal { return decimal.NewFromInt(int64(c.RecencyDays)) })
	if err != nil {
		return nil, err
	}

	// frequency is heavily tied, so customer ID makes the order total
	frequency, err := s.scoreMetric(MetricFrequency, scored, func(i, j int) int {
		return cmp.Or(
			cmp.Compare(scored[i].Frequency, scored[j].Frequency),
			cmp.Compare(scored[i].CustomerID, scored[j].CustomerID),
		)
	}, func(c CustomerRFM) decimal.Decimal { return decimal.NewFromInt(int64(c.Frequency)) })
	if err != nil {
		return nil, err
	}

	monetary, err := s.scoreMetric(MetricMonetary, scored, func(i, j int) int {
		return scored[i].Monetary.Cmp(scored[j].Monetary)
	}, func(c CustomerRFM) decimal.Decimal { return c.Monetary })
	if err != nil {
		return nil, err
	}

	for i := range scored {
		c := &scored[i]
		// lower recency is better, so bin 1 scores 5
		c.RScore = NumBins + 1 - recency.bins[i]
		c.FScore = frequency.bins[i]
		c.MScore = monetary.bins[i]
		c.Segment = Classify(c.RScore, c.FScore, c.MScore)
	}

	s.logger.InfoContext(ctx, "Customers scored",
		slog.Int("customers", n),
		slog.Any("recency_bins", recency.summary.Counts),
		slog.Any("frequency_bins", frequency.summary.Counts),
		slog.Any("monetary_bins", monetary.summary.Counts))

	return &Scoring{
		Customers: scored,
		Bins:      []MetricBins{recency.summary, frequency.summary, monetary.summary},
	}, nil
}

type metricResult struct {
	bins    []int
	summary MetricBins
}

func (s *Scorer) scoreMetric(
	metric Metric,
	customers []CustomerRFM,
	compare func(i, j int) int,
	value func(CustomerRFM) decimal.Decimal,
) (metricResult, error) {
	bins, order := quintileBins(len(customers), compare)

	summary := MetricBins{Metric: metric}
	for _, idx := range order {
		b := bins[idx] - 1
		summary.Counts[b]++
		// order is ascending, so the last value seen in a bin is its maximum
		summary.Upper[b] = value(customers[idx])
	}

	for b, count := range summary.Counts {
		if count == 0 {
			return metricResult{}, apperrors.NewInsufficientPopulationError(
				fmt.Sprintf("%s leaves quantile bin %d empty (%d customers, bin counts %v)",
					metric, b+1, len(customers), summary.Counts)).
				WithContext("metric", string(metric)).
				WithContext("population", len(customers)).
				WithContext("bin_counts", summary.Counts)
		}
	}

	return metricResult{bins: bins, summary: summary}, nil
}
