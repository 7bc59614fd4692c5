// Package pipeline runs one RFM segmentation end to end.
//
// The Runner executes five stages strictly in sequence: load (read raw rows
// from a dataprocessing.Source), clean (drop anonymous and cancelled rows),
// aggregate (per-customer recency, frequency and monetary), score (quintiles
// and segments) and report (segment summaries and recommendations). Scoring
// is a barrier over the whole population, so nothing is streamed between
// stages.
//
// Each stage has a StageState, runs inside an OpenTelemetry span and records
// duration and outcome on infrastructure.PipelineMetrics. The first failure
// stops the run and is returned with the stage recorded on the error.
package pipeline
