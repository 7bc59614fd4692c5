// Package rfm computes Recency, Frequency and Monetary metrics per customer,
// scores each metric into quintiles and assigns a segment.
//
// # Aggregation
//
// The reference instant is the latest retained invoice date plus one day,
// computed once per run (ReferenceInstant) and passed to Aggregate.
// Recency is whole days since a customer's last purchase, frequency is the
// number of distinct invoices and monetary is the exact decimal sum of sale
// amounts. Customers whose monetary total is zero or negative are dropped.
//
// # Scoring
//
// Each metric is cut into five bins at linearly interpolated quantiles
// (right-closed). Equal values share a bin, except frequency, where ties are
// ranked by ascending customer ID so heavily tied populations still spread
// across all five bins. Recency scores are inverted: the most recent bin
// scores 5.
//
// A population of fewer than five customers, or one where a metric leaves a
// bin empty (too few distinct values), fails with INSUFFICIENT_POPULATION.
// There is no degraded binning.
//
// # Segmentation
//
// Rules is an ordered decision table; Classify returns the first match:
//
//	Champions            r == 5 && f >= 4 && m >= 4
//	Loyal Customers      r >= 4 && f >= 4
//	Potential Loyalists  r >= 3 && f >= 3 && m >= 3
//	At-Risk              r <= 2 && f <= 2
//	Needs Attention      r <= 2
//	Standard             otherwise
package rfm
