package batchscan

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querylab/parqscan/pkg/errors"
	"github.com/querylab/parqscan/pkg/testutil"
)

// fakeSource yields a fixed sequence of records, optionally failing at the end.
type fakeSource struct {
	records []arrow.Record
	err     error
	pos     int
}

func (f *fakeSource) Next() bool {
	if f.pos >= len(f.records) {
		return false
	}
	f.pos++
	return true
}

func (f *fakeSource) Record() arrow.Record { return f.records[f.pos-1] }

func (f *fakeSource) Err() error {
	if f.pos >= len(f.records) {
		return f.err
	}
	return nil
}

func stringRecord(t *testing.T, values []*string) arrow.Record {
	t.Helper()

	schema := arrow.NewSchema([]arrow.Field{
		{Name: "log", Type: arrow.BinaryTypes.String, Nullable: true},
	}, nil)
	bld := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer bld.Release()

	sb := bld.Field(0).(*array.StringBuilder)
	for _, v := range values {
		if v == nil {
			sb.AppendNull()
		} else {
			sb.Append(*v)
		}
	}
	return bld.NewRecord()
}

func TestCountMatchesRowSemantics(t *testing.T) {
	// One row with two needle hits still counts as one match.
	rec := stringRecord(t, []*string{
		testutil.Ptr("k8s to k8s traffic"),
		testutil.Ptr("no match here"),
		testutil.Ptr("k8s pod stopped"),
	})
	defer rec.Release()

	count, err := CountMatches(&fakeSource{records: []arrow.Record{rec}}, "k8s")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestCountMatchesNullsNeverMatch(t *testing.T) {
	rec := stringRecord(t, []*string{
		nil,
		testutil.Ptr("k8s pod started"),
		nil,
	})
	defer rec.Release()

	count, err := CountMatches(&fakeSource{records: []arrow.Record{rec}}, "k8s")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// An empty needle matches every non-null value but no null.
	count, err = CountMatches(&fakeSource{records: []arrow.Record{rec}}, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestCountMatchesEOFIsCleanTermination(t *testing.T) {
	// The pqarrow reader reports end-of-stream through Err() as io.EOF;
	// the count must come back without an error.
	rec := stringRecord(t, []*string{
		testutil.Ptr("k8s pod started"),
		testutil.Ptr("no match here"),
	})
	defer rec.Release()

	src := &fakeSource{records: []arrow.Record{rec}, err: io.EOF}

	count, err := CountMatches(src, "k8s")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestCountMatchesPropagatesSourceError(t *testing.T) {
	rec := stringRecord(t, []*string{testutil.Ptr("k8s pod started")})
	defer rec.Release()

	src := &fakeSource{
		records: []arrow.Record{rec},
		err:     errors.New(errors.ErrorTypeDecode, "page corrupted"),
	}

	_, err := CountMatches(src, "k8s")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeDecode))
}

func TestCountMatchesInFileCanonicalScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.parquet")
	rows := testutil.WriteSampleFile(t, path)

	count, err := CountMatchesInFile(context.Background(), path, "k8s", 1024)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.LessOrEqual(t, count, int64(rows))
}

func TestCountMatchesInFileBatchSizeInvariance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.parquet")
	lines := testutil.GenerateLogLines(5000, 7, "k8s")
	testutil.WriteFile(t, path, []testutil.Column{{Name: "log", Strings: lines}})

	ctx := context.Background()
	baseline, err := CountMatchesInFile(ctx, path, "k8s", 1024)
	require.NoError(t, err)
	assert.Positive(t, baseline)

	for _, batchSize := range []int64{64, 4096, 8192} {
		count, err := CountMatchesInFile(ctx, path, "k8s", batchSize)
		require.NoError(t, err)
		assert.Equal(t, baseline, count, "batch size %d changed the count", batchSize)
	}
}

func TestCountMatchesInFileNeedleLongerThanValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.parquet")
	testutil.WriteSampleFile(t, path)

	count, err := CountMatchesInFile(context.Background(), path,
		"this needle is much longer than any stored value in the file", 1024)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCountMatchesInFileIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.parquet")
	testutil.WriteSampleFile(t, path)

	ctx := context.Background()
	first, err := CountMatchesInFile(ctx, path, "k8s", 1024)
	require.NoError(t, err)
	second, err := CountMatchesInFile(ctx, path, "k8s", 1024)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCountMatchesInFileMissingFile(t *testing.T) {
	_, err := CountMatchesInFile(context.Background(),
		filepath.Join(t.TempDir(), "missing.parquet"), "k8s", 1024)

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeIO))
}
