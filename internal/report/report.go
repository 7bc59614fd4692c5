package report

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"rfmcli/internal/dataprocessing"
	"rfmcli/internal/rfm"
)

// Chart labels shared by every chart writer
const (
	ChartTitle  = "Customer Segmentation Distribution (RFM)"
	ChartXLabel = "Segment"
	ChartYLabel = "Number of Customers"
)

// SegmentSummary is the CLV proxy for one segment
type SegmentSummary struct {
	Segment       rfm.Segment     `json:"segment"`
	CustomerCount int             `json:"customer_count"`
	MeanMonetary  decimal.Decimal `json:"mean_monetary"`
	TotalMonetary decimal.Decimal `json:"total_monetary"`
}

// SegmentCount is one bar of the distribution
type SegmentCount struct {
	Segment rfm.Segment `json:"segment"`
	Count   int         `json:"count"`
}

// ChartSeries is the labeled category-count series handed to a chart writer
type ChartSeries struct {
	Title      string   `json:"title"`
	XLabel     string   `json:"x_label"`
	YLabel     string   `json:"y_label"`
	Categories []string `json:"categories"`
	Values     []int    `json:"values"`
}

// Stats summarizes what the upstream stages dropped and kept
type Stats struct {
	Cleaning             dataprocessing.CleanStats `json:"cleaning"`
	NonPositiveCustomers int                       `json:"non_positive_customers"`
	ScoredCustomers      int                       `json:"scored_customers"`
}

// Report is everything the writers need for one run
type Report struct {
	GeneratedAt time.Time `json:"generated_at"`
	Reference   time.Time `json:"reference"`
	Stats       Stats     `json:"stats"`

	// Customers is ordered by ascending customer ID
	Customers []rfm.CustomerRFM `json:"customers"`
	Bins      []rfm.MetricBins  `json:"bins,omitempty"`

	// Segments is ordered by descending mean monetary
	Segments []SegmentSummary `json:"segments"`
	// Distribution is ordered by descending count, ties in rule order
	Distribution    []SegmentCount   `json:"distribution"`
	Recommendations []Recommendation `json:"recommendations"`
	Chart           ChartSeries      `json:"chart"`

	TotalMonetary decimal.Decimal `json:"total_monetary"`
	// Empty is set when no customer survived cleaning and filtering
	Empty bool `json:"empty"`
}

// Input carries the results of the earlier stages into Synthesize
type Input struct {
	GeneratedAt time.Time
	Reference   time.Time
	Cleaning    dataprocessing.CleanStats
	NonPositive int
	// Scoring is nil when the population was empty
	Scoring *rfm.Scoring
}

// Synthesizer builds reports from scored populations
type Synthesizer struct {
	logger *slog.Logger
}

// NewSynthesizer creates a report synthesizer
func NewSynthesizer(logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{logger: logger.With("component", "report")}
}

// Synthesize computes the segment summaries, distribution and chart series
func (s *Synthesizer) Synthesize(ctx context.Context, in Input) *Report {
	r := &Report{
		GeneratedAt: in.GeneratedAt,
		Reference:   in.Reference,
		Stats: Stats{
			Cleaning:             in.Cleaning,
			NonPositiveCustomers: in.NonPositive,
		},
		Customers:       []rfm.CustomerRFM{},
		Segments:        []SegmentSummary{},
		Distribution:    []SegmentCount{},
		Recommendations: Recommendations(),
		TotalMonetary:   decimal.Zero,
	}

	if in.Scoring == nil || len(in.Scoring.Customers) == 0 {
		r.Empty = true
		r.Chart = chartSeries(nil)
		s.logger.WarnContext(ctx, "No customers survived cleaning, producing empty report",
			slog.Int("input_rows", in.Cleaning.Input),
			slog.Int("retained_rows", in.Cleaning.Retained))
		return r
	}

	r.Customers = slices.Clone(in.Scoring.Customers)
	slices.SortFunc(r.Customers, func(a, b rfm.CustomerRFM) int {
		return cmp.Compare(a.CustomerID, b.CustomerID)
	})
	r.Bins = in.Scoring.Bins
	r.Stats.ScoredCustomers = len(r.Customers)

	r.Segments = summarize(r.Customers)
	r.Distribution = distribution(r.Segments)
	r.Chart = chartSeries(r.Distribution)
	for _, seg := range r.Segments {
		r.TotalMonetary = r.TotalMonetary.Add(seg.TotalMonetary)
	}

	s.logger.InfoContext(ctx, "Report synthesized",
		slog.Int("customers", len(r.Customers)),
		slog.Int("segments", len(r.Segments)),
		slog.String("total_monetary", r.TotalMonetary.StringFixed(2)))

	return r
}

// summarize groups customers by segment and ranks segments by mean monetary.
// Equal means fall back to the segment name.
func summarize(customers []rfm.CustomerRFM) []SegmentSummary {
	bySegment := make(map[rfm.Segment]*SegmentSummary)
	for _, c := range customers {
		sum, ok := bySegment[c.Segment]
		if !ok {
			sum = &SegmentSummary{Segment: c.Segment, TotalMonetary: decimal.Zero}
			bySegment[c.Segment] = sum
		}
		sum.CustomerCount++
		sum.TotalMonetary = sum.TotalMonetary.Add(c.Monetary)
	}

	out := make([]SegmentSummary, 0, len(bySegment))
	for _, sum := range bySegment {
		sum.MeanMonetary = sum.TotalMonetary.Div(decimal.NewFromInt(int64(sum.CustomerCount)))
		out = append(out, *sum)
	}
	slices.SortFunc(out, func(a, b SegmentSummary) int {
		return cmp.Or(
			b.MeanMonetary.Cmp(a.MeanMonetary),
			cmp.Compare(a.Segment, b.Segment),
		)
	})
	return out
}

func distribution(segments []SegmentSummary) []SegmentCount {
	out := make([]SegmentCount, 0, len(segments))
	for _, seg := range segments {
		out = append(out, SegmentCount{Segment: seg.Segment, Count: seg.CustomerCount})
	}
	slices.SortFunc(out, func(a, b SegmentCount) int {
		return cmp.Or(
			cmp.Compare(b.Count, a.Count),
			cmp.Compare(rfm.RuleIndex(a.Segment), rfm.RuleIndex(b.Segment)),
		)
	})
	return out
}

func chartSeries(dist []SegmentCount) ChartSeries {
	series := ChartSeries{
		Title:      ChartTitle,
		XLabel:     ChartXLabel,
		YLabel:     ChartYLabel,
		Categories: make([]string, 0, len(dist)),
		Values:     make([]int, 0, len(dist)),
	}
	for _, d := range dist {
		series.Categories = append(series.Categories, string(d.Segment))
		series.Values = append(series.Values, d.Count)
	}
	return series
}

// Segment returns the summary for one segment, if present
func (r *Report) Segment(segment rfm.Segment) (SegmentSummary, bool) {
	for _, s := range r.Segments {
		if s.Segment == segment {
			return s, true
		}
	}
	return SegmentSummary{}, false
}
