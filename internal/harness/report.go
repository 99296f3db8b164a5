package harness

import (
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"

	"github.com/querylab/parqscan/pkg/compression"
	"github.com/querylab/parqscan/pkg/errors"
)

// IterationSample is one timed pass of one strategy variant.
type IterationSample struct {
	Iteration int           `json:"iteration"`
	Duration  time.Duration `json:"duration_ns"`
	PeakRSS   uint64        `json:"peak_rss_bytes,omitempty"`
}

// StrategyResult aggregates the timed passes of one strategy variant.
// Count is the variant's own semantics: byte-level occurrences for raw,
// matching rows for decoded and engine.
type StrategyResult struct {
	Strategy string            `json:"strategy"`
	Variant  string            `json:"variant,omitempty"`
	Count    int64             `json:"count"`
	// MeanDuration averages the iteration samples; ThroughputMBps
	// normalizes it by the selected text columns' uncompressed size.
	MeanDuration   time.Duration     `json:"mean_duration_ns"`
	ThroughputMBps float64           `json:"throughput_mbps,omitempty"`
	Iterations     []IterationSample `json:"iterations"`
}

// Best returns the fastest iteration duration, or 0 when no pass completed.
func (r StrategyResult) Best() time.Duration {
	var best time.Duration
	for _, it := range r.Iterations {
		if best == 0 || it.Duration < best {
			best = it.Duration
		}
	}
	return best
}

// Report is the artifact of one full benchmark run.
type Report struct {
	RunID        string           `json:"run_id"`
	File         string           `json:"file"`
	Needle       string           `json:"needle"`
	StartedAt    time.Time        `json:"started_at"`
	Elapsed      time.Duration    `json:"elapsed_ns"`
	NumRows      int64            `json:"num_rows"`
	NumRowGroups int              `json:"num_row_groups"`
	TextColumns  []string         `json:"text_columns"`
	TextBytes    int64            `json:"text_bytes"`
	Results      []StrategyResult `json:"results"`
}

// WriteReport serializes the report, compresses it with algo and writes it
// under dir as report-<run_id>.json plus the algorithm's extension. It
// returns the written path.
func WriteReport(dir string, report *Report, algo compression.Algorithm) (string, error) {
	comp, err := compression.NewCompressor(algo)
	if err != nil {
		return "", err
	}

	raw, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeIO, "failed to marshal report")
	}

	data, err := comp.Compress(raw)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeIO, "failed to create output directory")
	}

	path := filepath.Join(dir, "report-"+report.RunID+".json"+algo.Ext())
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeIO, "failed to write report")
	}
	return path, nil
}

// ReadReport loads a report written by WriteReport, decompressing with algo.
func ReadReport(path string, algo compression.Algorithm) (*Report, error) {
	comp, err := compression.NewCompressor(algo)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: path is supplied by the caller
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "failed to read report")
	}

	raw, err := comp.Decompress(data)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	if err := json.Unmarshal(raw, report); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFormat, "failed to unmarshal report")
	}
	return report, nil
}
