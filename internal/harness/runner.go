// Package harness orchestrates benchmark runs: it inspects the file once,
// then times every scan strategy against the same needle and column
// selection, and collects the samples into a Report.
//
// Counts are carried per strategy and deliberately not reconciled between
// raw and the others: raw counts byte-level occurrences while decoded and
// engine count matching rows. Decoded and engine counts must agree, and the
// runner warns when they do not.
package harness

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/querylab/parqscan/pkg/batchscan"
	"github.com/querylab/parqscan/pkg/compression"
	"github.com/querylab/parqscan/pkg/config"
	"github.com/querylab/parqscan/pkg/engine"
	"github.com/querylab/parqscan/pkg/errors"
	"github.com/querylab/parqscan/pkg/logger"
	"github.com/querylab/parqscan/pkg/metadata"
	"github.com/querylab/parqscan/pkg/metrics"
	"github.com/querylab/parqscan/pkg/rawscan"
)

// Runner executes every scan strategy against one file.
type Runner struct {
	cfg    *config.Config
	tracer trace.Tracer
	algo   compression.Algorithm
}

// New validates cfg and builds a Runner.
func New(cfg *config.Config) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	algo, err := compression.ParseAlgorithm(cfg.Compression)
	if err != nil {
		return nil, err
	}
	return &Runner{
		cfg:    cfg,
		tracer: otel.Tracer(tracerName),
		algo:   algo,
	}, nil
}

// Run executes the full benchmark: footer inspection, the raw byte scanner,
// the decoded batch scanner at every configured batch size, and the engine
// with each filter op. Any strategy failure aborts the run.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	runID := uuid.NewString()
	ctx = context.WithValue(ctx, logger.RunIDKey, runID)
	log := logger.WithContext(ctx)
	start := time.Now()

	info, err := metadata.Inspect(r.cfg.File)
	if err != nil {
		return nil, err
	}
	text := metadata.TextColumns(info)
	if text.Len() == 0 {
		return nil, errors.New(errors.ErrorTypeQuery, "no text columns to search").
			WithDetail("file", r.cfg.File)
	}

	log.Info("starting benchmark run",
		zap.String("file", r.cfg.File),
		zap.String("needle", r.cfg.Needle),
		zap.Int64("num_rows", info.NumRows),
		zap.Int("num_row_groups", len(info.RowGroups)),
		zap.Strings("text_columns", text.Names()),
		zap.Int64("text_bytes", text.TotalSize()))

	report := &Report{
		RunID:        runID,
		File:         r.cfg.File,
		Needle:       r.cfg.Needle,
		StartedAt:    start,
		NumRows:      info.NumRows,
		NumRowGroups: len(info.RowGroups),
		TextColumns:  text.Names(),
		TextBytes:    text.TotalSize(),
	}

	// The raw scanner runs through both IO paths; the byte-level counts must
	// be identical, only the timings differ.
	rawVariants := []struct {
		name string
		scan func(string, []byte) (int64, error)
	}{
		{"buffered", rawscan.CountOccurrencesInFile},
		{"mmap", rawscan.CountOccurrencesMapped},
	}
	for _, variant := range rawVariants {
		scan := variant.scan
		result, err := r.runStrategy(ctx, metrics.StrategyRaw, variant.name, text.TotalSize(),
			func(context.Context) (int64, error) {
				return scan(r.cfg.File, []byte(r.cfg.Needle))
			})
		if err != nil {
			return nil, err
		}
		report.Results = append(report.Results, result)
	}

	for _, batchSize := range r.cfg.BatchSizes {
		size := int64(batchSize)
		result, err := r.runStrategy(ctx, metrics.StrategyDecoded, strconv.Itoa(batchSize), text.TotalSize(),
			func(ctx context.Context) (int64, error) {
				return batchscan.CountMatchesInFile(ctx, r.cfg.File, r.cfg.Needle, size)
			})
		if err != nil {
			return nil, err
		}
		report.Results = append(report.Results, result)
	}

	engineResults, err := r.runEngine(ctx, text)
	if err != nil {
		return nil, err
	}
	report.Results = append(report.Results, engineResults...)

	report.Elapsed = time.Since(start)
	r.checkAgreement(log, report)

	log.Info("benchmark run complete",
		zap.Duration("elapsed", report.Elapsed),
		zap.Int("results", len(report.Results)))
	return report, nil
}

// WriteReport writes the report to the configured output directory and
// returns its path.
func (r *Runner) WriteReport(report *Report) (string, error) {
	return WriteReport(r.cfg.Output, report, r.algo)
}

// runStrategy times one strategy variant over the configured iterations.
// The count must be stable across iterations; a drifting count is a bug in
// the strategy and fails the run.
func (r *Runner) runStrategy(ctx context.Context, strategy, variant string, scanBytes int64,
	scan func(context.Context) (int64, error)) (StrategyResult, error) {

	ctx = context.WithValue(ctx, logger.StrategyKey, strategy)
	log := logger.WithContext(ctx)

	result := StrategyResult{Strategy: strategy, Variant: variant}

	for i := 0; i < r.cfg.Iterations; i++ {
		spanCtx, span := r.tracer.Start(ctx, "scan",
			trace.WithAttributes(
				attribute.String("strategy", strategy),
				attribute.String("variant", variant),
				attribute.Int("iteration", i)))

		timer := metrics.NewTimer()
		count, err := scan(spanCtx)
		elapsed := timer.Stop()
		span.End()

		if err != nil {
			if r.cfg.EnableMetrics {
				metrics.ObserveError(strategy, string(errors.TypeOf(err)))
			}
			return result, err
		}

		if i == 0 {
			result.Count = count
		} else if count != result.Count {
			return result, errors.Newf(errors.ErrorTypeQuery,
				"count drifted between iterations: %d then %d", result.Count, count).
				WithDetail("strategy", strategy).
				WithDetail("variant", variant)
		}

		result.Iterations = append(result.Iterations, IterationSample{
			Iteration: i,
			Duration:  elapsed,
			PeakRSS:   peakRSS(),
		})

		if r.cfg.EnableMetrics {
			metrics.ObserveScan(strategy, variant, elapsed, scanBytes, count)
		}

		log.Debug("scan pass complete",
			zap.String("variant", variant),
			zap.Int("iteration", i),
			zap.Int64("count", count),
			zap.Duration("elapsed", elapsed))
	}

	var total time.Duration
	for _, it := range result.Iterations {
		total += it.Duration
	}
	result.MeanDuration = total / time.Duration(len(result.Iterations))
	if result.MeanDuration > 0 && scanBytes > 0 {
		result.ThroughputMBps = float64(scanBytes) / result.MeanDuration.Seconds() / 1e6
	}

	return result, nil
}

// runEngine binds the file into a fresh engine session and times each filter
// op. The session is created once; per-iteration timings measure query
// execution, not session setup.
func (r *Runner) runEngine(ctx context.Context, text *metadata.TextColumnSet) ([]StrategyResult, error) {
	eng, err := engine.New(ctx)
	if err != nil {
		return nil, err
	}
	defer eng.Close()

	if err := eng.RegisterFile(ctx, r.cfg.Table, r.cfg.File); err != nil {
		return nil, err
	}

	results := make([]StrategyResult, 0, 3)
	for _, op := range []engine.FilterOp{engine.FilterLike, engine.FilterStrpos, engine.FilterMatch} {
		query, err := engine.BuildFilterQuery(r.cfg.Table, text.Names(), r.cfg.Needle, op)
		if err != nil {
			return nil, err
		}

		result, err := r.runStrategy(ctx, metrics.StrategyEngine, string(op), text.TotalSize(),
			func(ctx context.Context) (int64, error) {
				return eng.CountRows(ctx, query)
			})
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	return results, nil
}

// checkAgreement warns when row-semantics strategies disagree. Raw is
// excluded: its byte-level count legitimately differs.
func (r *Runner) checkAgreement(log *zap.Logger, report *Report) {
	var baseline *StrategyResult
	for i := range report.Results {
		result := &report.Results[i]
		if result.Strategy == metrics.StrategyRaw {
			continue
		}
		if baseline == nil {
			baseline = result
			continue
		}
		if result.Count != baseline.Count {
			log.Warn("row-count mismatch between strategies",
				zap.String("baseline", baseline.Strategy+"/"+baseline.Variant),
				zap.Int64("baseline_count", baseline.Count),
				zap.String("strategy", result.Strategy+"/"+result.Variant),
				zap.Int64("count", result.Count))
		}
	}
}
