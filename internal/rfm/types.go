package rfm

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Segment is a customer segment label
type Segment string

const (
	SegmentChampions          Segment = "Champions"
	SegmentLoyalCustomers     Segment = "Loyal Customers"
	SegmentPotentialLoyalists Segment = "Potential Loyalists"
	SegmentAtRisk             Segment = "At-Risk"
	SegmentNeedsAttention     Segment = "Needs Attention"
	SegmentStandard           Segment = "Standard"
)

// Metric names one of the three RFM dimensions
type Metric string

const (
	MetricRecency   Metric = "recency"
	MetricFrequency Metric = "frequency"
	MetricMonetary  Metric = "monetary"
)

// NumBins is the number of quantile bins per metric
const NumBins = 5

// CustomerRFM is one customer's behavioural metrics and, once scored, their
// quintile scores and segment
type CustomerRFM struct {
	CustomerID   int64           `json:"customer_id"`
	RecencyDays  int             `json:"recency_days"`
	Frequency    int             `json:"frequency"`
	Monetary     decimal.Decimal `json:"monetary"`
	LastPurchase time.Time       `json:"last_purchase"`

	RScore  int     `json:"r_score,omitempty"`
	FScore  int     `json:"f_score,omitempty"`
	MScore  int     `json:"m_score,omitempty"`
	Segment Segment `json:"segment,omitempty"`
}

// RFMScore returns the display code, e.g. "543"
func (c CustomerRFM) RFMScore() string {
	return fmt.Sprintf("%d%d%d", c.RScore, c.FScore, c.MScore)
}

// MetricBins describes how one metric was partitioned
type MetricBins struct {
	Metric Metric `json:"metric"`
	// Counts holds the customers per bin, bin 1 first
	Counts [NumBins]int `json:"counts"`
	// Upper holds the largest value that fell in each bin
	Upper [NumBins]decimal.Decimal `json:"upper"`
}

// Scoring is the output of the scorer: the scored population plus the
// partition of each metric
type Scoring struct {
	Customers []CustomerRFM `json:"customers"`
	Bins      []MetricBins  `json:"bins"`
}

// Population is the aggregator output for one run
type Population struct {
	// Reference is the fixed instant recency is measured from
	Reference time.Time
	Customers []CustomerRFM
	// NonPositive counts customers dropped for monetary <= 0
	NonPositive int
}
