package engine

import (
	"database/sql"
	"database/sql/driver"
	"strings"

	duckdb "github.com/marcboeker/go-duckdb/v2"

	"github.com/querylab/parqscan/pkg/errors"
)

// MatcherName is the name the substring matcher is registered under.
const MatcherName = "str_match"

// matcherFunc is the scalar function str_match(VARCHAR, VARCHAR) -> BOOLEAN.
//
// It is pure and holds no mutable state, so DuckDB is free to evaluate it
// concurrently across partitions and to push it into scan-level filtering.
// Null handling is the engine default: any NULL argument yields NULL without
// the executor being invoked, which gives matches(null, n) = null.
type matcherFunc struct {
	varchar duckdb.TypeInfo
	boolean duckdb.TypeInfo
}

func newMatcherFunc() (*matcherFunc, error) {
	varchar, err := duckdb.NewTypeInfo(duckdb.TYPE_VARCHAR)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeType, "failed to create varchar type info")
	}
	boolean, err := duckdb.NewTypeInfo(duckdb.TYPE_BOOLEAN)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeType, "failed to create boolean type info")
	}
	return &matcherFunc{varchar: varchar, boolean: boolean}, nil
}

// Config declares the fixed two-VARCHAR signature. Volatile stays false:
// the function is deterministic and side-effect free.
func (m *matcherFunc) Config() duckdb.ScalarFuncConfig {
	return duckdb.ScalarFuncConfig{
		InputTypeInfos: []duckdb.TypeInfo{m.varchar, m.varchar},
		ResultTypeInfo: m.boolean,
	}
}

// Executor returns the per-row evaluation routine.
func (m *matcherFunc) Executor() duckdb.ScalarFuncExecutor {
	return duckdb.ScalarFuncExecutor{RowExecutor: matchRow}
}

// matchRow reports whether the first argument contains the second as a
// contiguous byte-exact substring. strings.Contains dispatches to the
// runtime's optimized index search, not a LIKE-pattern evaluator, so the
// benchmark isolates the algorithm rather than push-down placement.
func matchRow(values []driver.Value) (any, error) {
	if len(values) != 2 {
		return nil, errors.Newf(errors.ErrorTypeType, "%s expects 2 arguments, got %d", MatcherName, len(values))
	}

	haystack, ok := values[0].(string)
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeType, "%s argument 1 must be VARCHAR, got %T", MatcherName, values[0])
	}
	needle, ok := values[1].(string)
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeType, "%s argument 2 must be VARCHAR, got %T", MatcherName, values[1])
	}

	return strings.Contains(haystack, needle), nil
}

// RegisterMatcher registers the substring matcher on the given connection.
// Signature problems surface here, at registration time, never per row.
func RegisterMatcher(conn *sql.Conn) error {
	f, err := newMatcherFunc()
	if err != nil {
		return err
	}
	if err := duckdb.RegisterScalarUDF(conn, MatcherName, f); err != nil {
		return errors.Wrap(err, errors.ErrorTypeType, "failed to register "+MatcherName)
	}
	return nil
}
