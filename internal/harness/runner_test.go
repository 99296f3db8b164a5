package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querylab/parqscan/pkg/config"
	"github.com/querylab/parqscan/pkg/errors"
	"github.com/querylab/parqscan/pkg/metrics"
	"github.com/querylab/parqscan/pkg/testutil"
)

func sampleConfig(t *testing.T) *config.Config {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sample.parquet")
	testutil.WriteSampleFile(t, path)

	cfg := config.Default()
	cfg.File = path
	cfg.Iterations = 2
	cfg.BatchSizes = []int{1024}
	cfg.Compression = "none"
	cfg.Output = t.TempDir()
	return cfg
}

func TestRunnerFullRun(t *testing.T) {
	cfg := sampleConfig(t)
	runner, err := New(cfg)
	require.NoError(t, err)

	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, cfg.File, report.File)
	assert.Equal(t, "k8s", report.Needle)
	assert.Equal(t, int64(3), report.NumRows)
	// "@timestamp" is denied, "count" is not textual.
	assert.Equal(t, []string{"log", "level"}, report.TextColumns)
	assert.Positive(t, report.TextBytes)

	// Two raw IO paths, one decoded per batch size, three engine filter ops.
	require.Len(t, report.Results, 6)

	byKey := map[string]StrategyResult{}
	for _, result := range report.Results {
		byKey[result.Strategy+"/"+result.Variant] = result
		require.Len(t, result.Iterations, cfg.Iterations)
		assert.Positive(t, result.MeanDuration)
		assert.Positive(t, result.ThroughputMBps)
		for _, it := range result.Iterations {
			assert.Positive(t, it.Duration)
		}
	}

	// Byte-level count sees at least the two matching rows, and the two IO
	// paths must agree exactly.
	assert.GreaterOrEqual(t, byKey[metrics.StrategyRaw+"/buffered"].Count, int64(2))
	assert.Equal(t, byKey[metrics.StrategyRaw+"/buffered"].Count, byKey[metrics.StrategyRaw+"/mmap"].Count)
	assert.Equal(t, int64(2), byKey[metrics.StrategyDecoded+"/1024"].Count)
	assert.Equal(t, int64(2), byKey[metrics.StrategyEngine+"/like"].Count)
	assert.Equal(t, int64(2), byKey[metrics.StrategyEngine+"/strpos"].Count)
	assert.Equal(t, int64(2), byKey[metrics.StrategyEngine+"/str_match"].Count)
}

func TestRunnerBatchSizesCovered(t *testing.T) {
	cfg := sampleConfig(t)
	cfg.Iterations = 1
	cfg.BatchSizes = []int{64, 1024}

	runner, err := New(cfg)
	require.NoError(t, err)

	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	variants := []string{}
	for _, result := range report.Results {
		if result.Strategy == metrics.StrategyDecoded {
			variants = append(variants, result.Variant)
			assert.Equal(t, int64(2), result.Count, result.Variant)
		}
	}
	assert.Equal(t, []string{"64", "1024"}, variants)
}

func TestRunnerWriteReport(t *testing.T) {
	cfg := sampleConfig(t)
	cfg.Iterations = 1
	cfg.Compression = "zstd"

	runner, err := New(cfg)
	require.NoError(t, err)

	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	path, err := runner.WriteReport(report)
	require.NoError(t, err)
	assert.Equal(t, ".zst", filepath.Ext(path))

	loaded, err := ReadReport(path, "zstd")
	require.NoError(t, err)
	assert.Equal(t, report.RunID, loaded.RunID)
	assert.Equal(t, len(report.Results), len(loaded.Results))
}

func TestRunnerRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default() // no file set

	_, err := New(cfg)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestRunnerMissingFile(t *testing.T) {
	cfg := sampleConfig(t)
	cfg.File = filepath.Join(t.TempDir(), "nope.parquet")

	runner, err := New(cfg)
	require.NoError(t, err)

	_, err = runner.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeIO))
}

func TestRunnerNoTextColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ints.parquet")
	testutil.WriteFile(t, path, []testutil.Column{
		{Name: "count", Ints: []*int64{testutil.IntPtr(1), testutil.IntPtr(2)}},
	})

	cfg := sampleConfig(t)
	cfg.File = path

	runner, err := New(cfg)
	require.NoError(t, err)

	_, err = runner.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeQuery))
}
