package engine

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querylab/parqscan/pkg/errors"
	"github.com/querylab/parqscan/pkg/testutil"
)

func queryBool(t *testing.T, eng *Engine, query string) sql.NullBool {
	t.Helper()

	rows, err := eng.Query(context.Background(), query)
	require.NoError(t, err)
	defer rows.Close()

	require.True(t, rows.Next())
	var out sql.NullBool
	require.NoError(t, rows.Scan(&out))
	require.NoError(t, rows.Err())
	return out
}

func TestMatcherSemantics(t *testing.T) {
	eng := newEngine(t)

	cases := []struct {
		query string
		want  sql.NullBool
	}{
		{"SELECT str_match('abc', 'bc')", sql.NullBool{Bool: true, Valid: true}},
		{"SELECT str_match('abc', 'bcd')", sql.NullBool{Bool: false, Valid: true}},
		{"SELECT str_match('', '')", sql.NullBool{Bool: true, Valid: true}},
		{"SELECT str_match('abc', '')", sql.NullBool{Bool: true, Valid: true}},
		// Null propagation: a NULL argument yields NULL, not false.
		{"SELECT str_match(NULL, 'bc')", sql.NullBool{}},
		{"SELECT str_match('abc', NULL)", sql.NullBool{}},
	}

	for _, tc := range cases {
		got := queryBool(t, eng, tc.query)
		assert.Equal(t, tc.want, got, tc.query)
	}
}

func TestMatcherCaseSensitive(t *testing.T) {
	eng := newEngine(t)

	assert.False(t, queryBool(t, eng, "SELECT str_match('K8S pod', 'k8s')").Bool)
	assert.True(t, queryBool(t, eng, "SELECT str_match('k8s pod', 'k8s')").Bool)
}

func TestMatcherTypeErrorAtPlanTime(t *testing.T) {
	eng := newEngine(t)

	// Wrong arity fails when the query is bound, not per row.
	_, err := eng.Query(context.Background(), "SELECT str_match('abc')")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeEngine))
}

func TestMatchRowValidation(t *testing.T) {
	_, err := matchRow([]driver.Value{"abc"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeType))

	_, err = matchRow([]driver.Value{int64(1), "abc"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeType))

	got, err := matchRow([]driver.Value{"abc", "bc"})
	require.NoError(t, err)
	assert.Equal(t, true, got)
}

func TestMatcherDeterministicUnderConcurrency(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.parquet")
	lines := testutil.GenerateLogLines(4000, 3, "k8s")
	testutil.WriteFile(t, path, []testutil.Column{{Name: "log", Strings: lines}})

	ctx := context.Background()
	eng := newEngine(t)
	require.NoError(t, eng.RegisterFile(ctx, "tbl", path))

	query, err := BuildFilterQuery("tbl", []string{"log"}, "k8s", FilterMatch)
	require.NoError(t, err)

	baseline, err := eng.CountRows(ctx, query)
	require.NoError(t, err)

	// The engine parallelizes evaluation across row-group partitions; the
	// count must not depend on that scheduling.
	var wg sync.WaitGroup
	results := make([]int64, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = eng.CountRows(ctx, query)
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, baseline, results[i])
	}
}
