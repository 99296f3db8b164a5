// Package metrics exposes Prometheus metrics for scan runs. Each strategy
// reports the same three series so runs can be compared on one dashboard:
// scan duration, bytes touched, and the count the strategy produced.
package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Strategy label values. Kept stable so recorded series stay comparable
// across versions.
const (
	StrategyRaw     = "raw"
	StrategyDecoded = "decoded"
	StrategyEngine  = "engine"
)

var (
	// ScanDuration tracks wall-clock duration of a single scan pass.
	// Labels: strategy, variant (batch size or filter op, "" for raw).
	ScanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "parqscan_scan_duration_seconds",
			Help: "Wall-clock duration of one scan pass",
			Buckets: []float64{
				.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30,
			},
		},
		[]string{"strategy", "variant"},
	)

	// ScanBytes tracks bytes the strategy touched per pass. Raw scans report
	// compressed chunk bytes, decoded scans report uncompressed bytes.
	ScanBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parqscan_scan_bytes_total",
			Help: "Total bytes scanned",
		},
		[]string{"strategy"},
	)

	// ScanMatches tracks the count each scan pass produced. Raw counts are
	// byte-level occurrences, decoded and engine counts are rows.
	ScanMatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parqscan_scan_matches_total",
			Help: "Total matches counted",
		},
		[]string{"strategy"},
	)

	// ScanErrors tracks failed scan passes by strategy and error type.
	ScanErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parqscan_scan_errors_total",
			Help: "Total failed scan passes",
		},
		[]string{"strategy", "error_type"},
	)
)

// ObserveScan records one completed scan pass.
func ObserveScan(strategy, variant string, duration time.Duration, bytes, matches int64) {
	ScanDuration.WithLabelValues(strategy, variant).Observe(duration.Seconds())
	if bytes > 0 {
		ScanBytes.WithLabelValues(strategy).Add(float64(bytes))
	}
	if matches > 0 {
		ScanMatches.WithLabelValues(strategy).Add(float64(matches))
	}
}

// ObserveError records one failed scan pass.
func ObserveError(strategy, errorType string) {
	ScanErrors.WithLabelValues(strategy, errorType).Inc()
}

// Dump gathers the scan metric families from the default registry, for
// inclusion in run output.
func Dump() ([]*dto.MetricFamily, error) {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return nil, err
	}

	out := families[:0]
	for _, mf := range families {
		if strings.HasPrefix(mf.GetName(), "parqscan_") {
			out = append(out, mf)
		}
	}
	return out, nil
}

// Timer measures one scan pass.
type Timer struct {
	start time.Time
}

// NewTimer starts timing immediately.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Stop returns the elapsed time since the timer was created.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
