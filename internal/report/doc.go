// Package report turns a scored customer population into the structures the
// writers serialize: the per-customer table, the per-segment mean monetary
// ranking (the CLV proxy), the segment distribution with its chart series and
// the fixed recommendation text for every segment.
//
// Synthesize has no side effects. An empty population still yields a Report,
// flagged Empty, so the caller can emit a "no data" summary instead of failing.
package report
