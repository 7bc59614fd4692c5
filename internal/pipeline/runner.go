package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"rfmcli/internal/dataprocessing"
	apperrors "rfmcli/internal/errors"
	"rfmcli/internal/infrastructure"
	"rfmcli/internal/report"
	"rfmcli/internal/rfm"
)

// TracerName names the spans emitted by the runner
const TracerName = "rfmcli.pipeline"

// Options wires a Runner to its collaborators. Only Source is required.
type Options struct {
	Source             dataprocessing.Source
	CancellationPrefix string
	// Progress receives row counts while the source loads
	Progress dataprocessing.ProgressFunc
	Tracer   trace.Tracer
	Metrics  *infrastructure.PipelineMetrics
	Logger   *slog.Logger
	// Now stamps the report; defaults to time.Now
	Now func() time.Time
}

// Result is the outcome of one run
type Result struct {
	RunID      string
	Report     *report.Report
	Stages     []*StageState
	Cleaning   dataprocessing.CleanStats
	Population rfm.Population
	Duration   time.Duration
}

// Stage returns the state of the named stage, or nil
func (r *Result) Stage(name string) *StageState {
	for _, s := range r.Stages {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Runner executes load, clean, aggregate, score and report strictly in order
type Runner struct {
	opts        Options
	logger      *slog.Logger
	tracer      trace.Tracer
	cleaner     *dataprocessing.Cleaner
	aggregator  *rfm.Aggregator
	scorer      *rfm.Scorer
	synthesizer *report.Synthesizer
}

// NewRunner creates a runner
func NewRunner(opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = tracenoop.NewTracerProvider().Tracer(TracerName)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Runner{
		opts:        opts,
		logger:      infrastructure.WithComponent(logger, "pipeline"),
		tracer:      tracer,
		cleaner:     dataprocessing.NewCleaner(opts.CancellationPrefix, logger),
		aggregator:  rfm.NewAggregator(logger),
		scorer:      rfm.NewScorer(logger),
		synthesizer: report.NewSynthesizer(logger),
	}
}

// Run executes every stage once. The first failing stage stops the run; its
// error carries the stage name. A population that is empty after
// aggregation skips scoring and yields a report flagged Empty.
//
// The returned Result is never nil, so callers can inspect stage states
// after a failure.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	ctx = infrastructure.EnsureRunID(ctx)
	runID := infrastructure.GetRunID(ctx)

	result := &Result{RunID: runID}
	states := make(map[string]*StageState, len(StageNames))
	for _, name := range StageNames {
		st := NewStageState(name)
		states[name] = st
		result.Stages = append(result.Stages, st)
	}

	if r.opts.Source == nil {
		err := apperrors.NewConfigError("pipeline has no transaction source", nil).WithStage(StageLoad)
		states[StageLoad].Fail(err)
		return result, err
	}

	ctx, span := r.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("source", r.opts.Source.Name()),
		),
	)
	defer span.End()

	start := time.Now()
	r.logger.InfoContext(ctx, "Pipeline started", slog.String("source", r.opts.Source.Name()))

	err := r.execute(ctx, result, states)
	result.Duration = time.Since(start)

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		r.logger.ErrorContext(ctx, "Pipeline failed",
			slog.String("error", err.Error()),
			slog.String("error_type", string(apperrors.TypeOf(err))),
			slog.String("stage", stageOf(err)),
			slog.Duration("duration", result.Duration))
		return result, err
	}

	span.SetStatus(codes.Ok, "pipeline completed")
	r.logger.InfoContext(ctx, "Pipeline completed",
		slog.Int("customers", result.Report.Stats.ScoredCustomers),
		slog.Bool("empty_report", result.Report.Empty),
		slog.Duration("duration", result.Duration))
	return result, nil
}

func (r *Runner) execute(ctx context.Context, result *Result, states map[string]*StageState) error {
	var raws []dataprocessing.RawTransaction
	err := r.runStage(ctx, states[StageLoad], func(ctx context.Context, st *StageState) error {
		var err error
		raws, err = r.opts.Source.Load(ctx, r.opts.Progress)
		st.Metadata["rows"] = len(raws)
		return err
	})
	if err != nil {
		return err
	}

	var records []dataprocessing.TransactionRecord
	err = r.runStage(ctx, states[StageClean], func(ctx context.Context, st *StageState) error {
		records, result.Cleaning = r.cleaner.Clean(ctx, raws)
		r.opts.Metrics.RecordRows(ctx, "missing_customer", result.Cleaning.MissingCustomer)
		r.opts.Metrics.RecordRows(ctx, "cancelled", result.Cleaning.Cancelled)
		r.opts.Metrics.RecordRows(ctx, "retained", result.Cleaning.Retained)
		st.Metadata["retained"] = result.Cleaning.Retained
		return nil
	})
	if err != nil {
		return err
	}

	err = r.runStage(ctx, states[StageAggregate], func(ctx context.Context, st *StageState) error {
		reference, ok := rfm.ReferenceInstant(records)
		if !ok {
			r.logger.WarnContext(ctx, "No retained transactions, reference instant undefined")
		}
		result.Population = r.aggregator.Aggregate(ctx, records, reference)
		st.Metadata["customers"] = len(result.Population.Customers)
		st.Metadata["non_positive"] = result.Population.NonPositive
		return nil
	})
	if err != nil {
		return err
	}

	var scoring *rfm.Scoring
	if len(result.Population.Customers) == 0 {
		states[StageScore].Skip("no customers survived cleaning")
		r.logger.WarnContext(ctx, "Skipping scoring on empty population",
			slog.Int("input_rows", result.Cleaning.Input),
			slog.Int("non_positive", result.Population.NonPositive))
	} else {
		err = r.runStage(ctx, states[StageScore], func(ctx context.Context, st *StageState) error {
			var err error
			scoring, err = r.scorer.Score(ctx, result.Population.Customers)
			return err
		})
		if err != nil {
			return err
		}
	}

	return r.runStage(ctx, states[StageReport], func(ctx context.Context, st *StageState) error {
		result.Report = r.synthesizer.Synthesize(ctx, report.Input{
			GeneratedAt: r.opts.Now(),
			Reference:   result.Population.Reference,
			Cleaning:    result.Cleaning,
			NonPositive: result.Population.NonPositive,
			Scoring:     scoring,
		})

		counts := make(map[string]int, len(result.Report.Distribution))
		for _, d := range result.Report.Distribution {
			counts[string(d.Segment)] = d.Count
		}
		r.opts.Metrics.RecordSegments(ctx, result.Report.Stats.ScoredCustomers, counts)
		st.Metadata["segments"] = len(result.Report.Segments)
		return nil
	})
}

// runStage runs fn inside a span, updates st, records metrics and tags any
// error with the stage name
func (r *Runner) runStage(ctx context.Context, st *StageState, fn func(context.Context, *StageState) error) error {
	if err := ctx.Err(); err != nil {
		err = withStage(err, st.Name)
		st.Fail(err)
		return err
	}

	ctx, span := r.tracer.Start(ctx, "pipeline.stage."+st.Name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("stage", st.Name)),
	)
	defer span.End()

	st.Start()
	r.logger.DebugContext(ctx, "Stage started", slog.String("stage", st.Name))

	err := fn(ctx, st)
	if err != nil {
		err = withStage(err, st.Name)
		st.Fail(err)
	} else {
		st.Complete()
	}
	r.opts.Metrics.RecordStage(ctx, st.Name, st.Duration(), err)

	attrs := make(map[string]interface{}, len(st.Metadata))
	for k, v := range st.Metadata {
		attrs["stage."+k] = v
	}
	infrastructure.SetSpanAttributes(ctx, attrs)

	if err != nil {
		infrastructure.RecordError(ctx, err, trace.WithAttributes(
			attribute.String("error.type", string(apperrors.TypeOf(err))),
		))
		return err
	}

	span.SetStatus(codes.Ok, "")
	r.logger.InfoContext(ctx, "Stage completed",
		slog.String("stage", st.Name),
		slog.Duration("duration", st.Duration()),
		slog.Any("metadata", st.Metadata))
	return nil
}

// withStage records the stage on an AppError, or wraps a foreign error so
// the stage still shows in its message
func withStage(err error, stage string) error {
	if appErr, ok := apperrors.AsAppError(err); ok {
		if appErr.Stage() == "" {
			appErr.WithStage(stage)
		}
		return err
	}
	return fmt.Errorf("%s stage: %w", stage, err)
}

func stageOf(err error) string {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr.Stage()
	}
	return ""
}
