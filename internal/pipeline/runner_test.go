package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"rfmcli/internal/config"
	"rfmcli/internal/dataprocessing"
	apperrors "rfmcli/internal/errors"
	"rfmcli/internal/infrastructure"
	"rfmcli/internal/report"
	"rfmcli/internal/rfm"
	"rfmcli/internal/shared/testutil"
)

var fixedNow = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func newRunner(t *testing.T, src dataprocessing.Source, mutate ...func(*Options)) (*Runner, *testutil.BufferedSlogHandler) {
	t.Helper()
	handler := testutil.NewBufferedSlogHandler(t)
	logger := slog.New(infrastructure.WithCorrelation(handler))
	opts := Options{
		Source:             src,
		CancellationPrefix: config.DefaultCancellationPrefix,
		Logger:             logger,
		Now:                func() time.Time { return fixedNow },
	}
	for _, m := range mutate {
		m(&opts)
	}
	return NewRunner(opts), handler
}

func statuses(result *Result) map[string]StageStatus {
	out := make(map[string]StageStatus, len(result.Stages))
	for _, s := range result.Stages {
		out[s.Name] = s.Status
	}
	return out
}

func assertScenarioReport(t *testing.T, r *report.Report) {
	t.Helper()
	require.NotNil(t, r)
	assert.False(t, r.Empty)
	assert.True(t, scenarioReference.Equal(r.Reference), "reference %s", r.Reference)
	assert.Equal(t, fixedNow, r.GeneratedAt)

	want := map[int64]struct {
		recency, frequency int
		monetary, code     string
		segment            rfm.Segment
	}{
		101: {1, 8, "3000", "555", rfm.SegmentChampions},
		102: {3, 6, "400", "542", rfm.SegmentLoyalCustomers},
		103: {10, 1, "120", "411", rfm.SegmentStandard},
		104: {30, 4, "900", "334", rfm.SegmentPotentialLoyalists},
		105: {100, 2, "650", "223", rfm.SegmentAtRisk},
		106: {192, 1, "50", "111", rfm.SegmentAtRisk},
	}
	require.Len(t, r.Customers, len(want))
	for _, c := range r.Customers {
		w, ok := want[c.CustomerID]
		require.True(t, ok, "unexpected customer %d", c.CustomerID)
		assert.Equal(t, w.recency, c.RecencyDays, "customer %d recency", c.CustomerID)
		assert.Equal(t, w.frequency, c.Frequency, "customer %d frequency", c.CustomerID)
		assert.Equal(t, w.monetary, c.Monetary.String(), "customer %d monetary", c.CustomerID)
		assert.Equal(t, w.code, c.RFMScore(), "customer %d scores", c.CustomerID)
		assert.Equal(t, w.segment, c.Segment, "customer %d segment", c.CustomerID)
	}

	var ranking []string
	for _, s := range r.Segments {
		ranking = append(ranking, string(s.Segment)+"="+s.MeanMonetary.String())
	}
	assert.Equal(t, []string{
		"Champions=3000", "Potential Loyalists=900", "Loyal Customers=400", "At-Risk=350", "Standard=120",
	}, ranking)

	assert.Equal(t, []report.SegmentCount{
		{Segment: rfm.SegmentAtRisk, Count: 2},
		{Segment: rfm.SegmentChampions, Count: 1},
		{Segment: rfm.SegmentLoyalCustomers, Count: 1},
		{Segment: rfm.SegmentPotentialLoyalists, Count: 1},
		{Segment: rfm.SegmentStandard, Count: 1},
	}, r.Distribution)

	assert.Equal(t, dataprocessing.CleanStats{Input: 35, MissingCustomer: 2, Cancelled: 2, Retained: 31}, r.Stats.Cleaning)
	assert.Equal(t, 1, r.Stats.NonPositiveCustomers)
	assert.Equal(t, 6, r.Stats.ScoredCustomers)
}

func TestRunScenario(t *testing.T) {
	src := &memorySource{rows: toRaw(scenarioTxns())}
	var progressed int
	runner, handler := newRunner(t, src, func(o *Options) {
		o.Progress = func(done, total int) { progressed = done }
	})

	result, err := runner.Run(context.Background())
	require.NoError(t, err)

	assertScenarioReport(t, result.Report)
	assert.Equal(t, 1, src.calls)
	assert.Equal(t, 35, progressed)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 1, result.Population.NonPositive)
	assert.Len(t, result.Population.Customers, 6)

	for _, name := range StageNames {
		st := result.Stage(name)
		require.NotNil(t, st, name)
		assert.Equal(t, StageStatusCompleted, st.Status, name)
		assert.NotNil(t, st.EndTime, name)
	}
	assert.Equal(t, 35, result.Stage(StageLoad).Metadata["rows"])
	assert.Equal(t, 6, result.Stage(StageAggregate).Metadata["customers"])
	assert.Nil(t, result.Stage("publish"))

	assert.True(t, handler.ContainsMessage("Pipeline completed"))
	assert.True(t, handler.ContainsAttr("run_id", result.RunID))
	testutil.AssertNoErrors(t, handler)
}

func TestRunScenarioFromWorkbook(t *testing.T) {
	path := testutil.WriteWorkbook(t, t.TempDir(), "Online Retail.xlsx", "Online Retail", toWorkbookRows(scenarioTxns()))
	runner, _ := newRunner(t, dataprocessing.NewXLSXSource(path, "", nil))

	result, err := runner.Run(context.Background())
	require.NoError(t, err)
	assertScenarioReport(t, result.Report)
}

func TestRunKeepsRunID(t *testing.T) {
	runner, _ := newRunner(t, &memorySource{rows: toRaw(scenarioTxns())})
	ctx := infrastructure.WithRunID(context.Background(), "run-42")

	result, err := runner.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-42", result.RunID)
}

func TestRunLoadFailure(t *testing.T) {
	src := &memorySource{err: apperrors.NewDataUnavailableError("workbook not found", os.ErrNotExist)}
	runner, handler := newRunner(t, src)

	result, err := runner.Run(context.Background())
	require.Error(t, err)

	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeDataUnavailable))
	assert.ErrorIs(t, err, os.ErrNotExist)
	appErr, _ := apperrors.AsAppError(err)
	assert.Equal(t, StageLoad, appErr.Stage())

	require.NotNil(t, result)
	assert.Nil(t, result.Report)
	assert.Equal(t, map[string]StageStatus{
		StageLoad:      StageStatusFailed,
		StageClean:     StageStatusPending,
		StageAggregate: StageStatusPending,
		StageScore:     StageStatusPending,
		StageReport:    StageStatusPending,
	}, statuses(result))
	assert.Equal(t, err, result.Stage(StageLoad).Error)

	testutil.AssertLogAttr(t, handler, "stage", StageLoad)
	testutil.AssertLogAttr(t, handler, "error_type", string(apperrors.ErrTypeDataUnavailable))
}

func TestRunForeignErrorGetsStage(t *testing.T) {
	runner, _ := newRunner(t, &memorySource{err: errors.New("disk on fire")})

	_, err := runner.Run(context.Background())
	require.Error(t, err)
	assert.EqualError(t, err, "load stage: disk on fire")
}

func TestRunInsufficientPopulation(t *testing.T) {
	var small []txn
	for _, tx := range scenarioTxns() {
		if id, ok := tx.customer.(int); ok && id <= 103 {
			small = append(small, tx)
		}
	}
	runner, _ := newRunner(t, &memorySource{rows: toRaw(small)})

	result, err := runner.Run(context.Background())
	require.Error(t, err)

	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeInsufficientPopulation))
	appErr, _ := apperrors.AsAppError(err)
	assert.Equal(t, StageScore, appErr.Stage())
	assert.Equal(t, 3, appErr.Context["population"])
	assert.Contains(t, err.Error(), "[INSUFFICIENT_POPULATION/score]")

	assert.Nil(t, result.Report)
	assert.Equal(t, StageStatusCompleted, result.Stage(StageAggregate).Status)
	assert.Equal(t, StageStatusFailed, result.Stage(StageScore).Status)
	assert.Equal(t, StageStatusPending, result.Stage(StageReport).Status)
}

func TestRunEmptyPopulation(t *testing.T) {
	var dropped []txn
	for _, tx := range scenarioTxns() {
		if tx.customer == nil || tx.invoice[0] == 'C' || tx.customer == 107 {
			dropped = append(dropped, tx)
		}
	}
	runner, handler := newRunner(t, &memorySource{rows: toRaw(dropped)})

	result, err := runner.Run(context.Background())
	require.NoError(t, err)

	require.NotNil(t, result.Report)
	assert.True(t, result.Report.Empty)
	assert.Empty(t, result.Report.Customers)
	assert.Equal(t, 1, result.Report.Stats.NonPositiveCustomers)
	assert.Equal(t, dataprocessing.CleanStats{Input: 5, MissingCustomer: 2, Cancelled: 2, Retained: 1}, result.Cleaning)

	assert.Equal(t, StageStatusSkipped, result.Stage(StageScore).Status)
	assert.Equal(t, "no customers survived cleaning", result.Stage(StageScore).Message)
	assert.Equal(t, StageStatusCompleted, result.Stage(StageReport).Status)
	assert.True(t, handler.ContainsMessage("Skipping scoring on empty population"))
}

func TestRunNoRetainedRows(t *testing.T) {
	rows := toRaw([]txn{{"C1", 1, -1, at(1, 1, 0, 0), 5}, {"2", nil, 1, at(1, 1, 0, 0), 5}})
	runner, _ := newRunner(t, &memorySource{rows: rows})

	result, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Report.Empty)
	assert.True(t, result.Report.Reference.IsZero())
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &memorySource{rows: toRaw(scenarioTxns())}
	runner, _ := newRunner(t, src)

	result, err := runner.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "load stage")
	assert.Equal(t, 0, src.calls)
	assert.Equal(t, StageStatusFailed, result.Stage(StageLoad).Status)
}

func TestRunWithoutSource(t *testing.T) {
	result, err := NewRunner(Options{}).Run(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
	assert.Equal(t, StageStatusFailed, result.Stage(StageLoad).Status)
}

func TestRunSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	runner, handler := newRunner(t, &memorySource{rows: toRaw(scenarioTxns())}, func(o *Options) {
		o.Tracer = tp.Tracer(TracerName)
	})
	_, err := runner.Run(context.Background())
	require.NoError(t, err)

	spans := recorder.Ended()
	var names []string
	byName := map[string]sdktrace.ReadOnlySpan{}
	for _, s := range spans {
		names = append(names, s.Name())
		byName[s.Name()] = s
	}
	assert.Equal(t, []string{
		"pipeline.stage.load",
		"pipeline.stage.clean",
		"pipeline.stage.aggregate",
		"pipeline.stage.score",
		"pipeline.stage.report",
		"pipeline.run",
	}, names)

	run := byName["pipeline.run"]
	assert.Equal(t, codes.Ok, run.Status().Code)
	for _, name := range names[:5] {
		assert.Equal(t, run.SpanContext().SpanID(), byName[name].Parent().SpanID(), name)
	}

	var rows int64
	for _, kv := range byName["pipeline.stage.load"].Attributes() {
		if kv.Key == "stage.rows" {
			rows = kv.Value.AsInt64()
		}
	}
	assert.Equal(t, int64(35), rows)

	traceID := run.SpanContext().TraceID().String()
	assert.True(t, handler.ContainsAttr("trace_id", traceID))
}

func TestRunFailedStageSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	runner, _ := newRunner(t, &memorySource{err: errors.New("boom")}, func(o *Options) {
		o.Tracer = tp.Tracer(TracerName)
	})

	_, err := runner.Run(context.Background())
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "pipeline.stage.load", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	require.NotEmpty(t, spans[0].Events())
	assert.Equal(t, "exception", spans[0].Events()[0].Name)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}

func TestRunMetrics(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	providers, err := infrastructure.InitializeOTel(&infrastructure.OTelConfig{
		ServiceName:    "rfm-test",
		TraceExporter:  config.ExporterNone,
		MetricExporter: config.ExporterPrometheus,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = providers.Shutdown(context.Background()) })

	metrics, err := infrastructure.CreatePipelineMetrics(providers.Meter)
	require.NoError(t, err)

	runner, _ := newRunner(t, &memorySource{rows: toRaw(scenarioTxns())}, func(o *Options) {
		o.Metrics = metrics
		o.Tracer = providers.Tracer
	})
	_, err = runner.Run(context.Background())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "rfm.prom")
	require.NoError(t, providers.WriteMetricsTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	for _, stage := range StageNames {
		assert.Contains(t, text, `stage="`+stage+`"`)
	}
	assert.Contains(t, text, `outcome="retained"`)
	assert.Contains(t, text, `outcome="missing_customer"`)
	assert.Contains(t, text, `segment="At-Risk"`)
	assert.Contains(t, text, "rfm_customers_scored")
	assert.NotContains(t, text, `status="failure"`)
}
