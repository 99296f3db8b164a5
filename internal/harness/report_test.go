package harness

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querylab/parqscan/pkg/compression"
)

func testReport() *Report {
	return &Report{
		RunID:       "0d9c2a1e-test",
		File:        "/data/sample.parquet",
		Needle:      "k8s",
		StartedAt:   time.Now().UTC(),
		NumRows:     3,
		TextColumns: []string{"log", "level"},
		Results: []StrategyResult{
			{
				Strategy: "decoded",
				Variant:  "1024",
				Count:    2,
				Iterations: []IterationSample{
					{Iteration: 0, Duration: 5 * time.Millisecond},
					{Iteration: 1, Duration: 3 * time.Millisecond},
				},
			},
		},
	}
}

func TestReportRoundTrip(t *testing.T) {
	for _, algo := range []compression.Algorithm{compression.None, compression.Gzip, compression.Zstd} {
		t.Run(string(algo), func(t *testing.T) {
			dir := t.TempDir()
			report := testReport()

			path, err := WriteReport(dir, report, algo)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, "report-0d9c2a1e-test.json"+algo.Ext()), path)

			loaded, err := ReadReport(path, algo)
			require.NoError(t, err)
			assert.Equal(t, report.RunID, loaded.RunID)
			assert.Equal(t, report.TextColumns, loaded.TextColumns)
			require.Len(t, loaded.Results, 1)
			assert.Equal(t, int64(2), loaded.Results[0].Count)
		})
	}
}

func TestStrategyResultBest(t *testing.T) {
	result := testReport().Results[0]
	assert.Equal(t, 3*time.Millisecond, result.Best())

	assert.Equal(t, time.Duration(0), StrategyResult{}.Best())
}

func TestWriteReportCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	_, err := WriteReport(dir, testReport(), compression.None)
	require.NoError(t, err)
}
