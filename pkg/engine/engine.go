// Package engine runs substring-search queries inside DuckDB.
//
// An Engine owns one DuckDB session with the substring matcher registered
// into its function catalog at construction time; the registration lives and
// dies with the session, there is no global state. Parquet files are bound
// as views so the engine's own scan pipeline does the reading, letting the
// host engine push registered predicates down to scan-level filtering.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/marcboeker/go-duckdb/v2" // duckdb database/sql driver

	"github.com/querylab/parqscan/pkg/errors"
)

// Engine is a DuckDB session with the substring matcher registered.
type Engine struct {
	db   *sql.DB
	conn *sql.Conn
}

// New opens an in-memory DuckDB session and registers the matcher function.
func New(ctx context.Context) (*Engine, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeEngine, "failed to open duckdb")
	}

	// All statements run on one pinned connection so the UDF registration
	// is visible to every query this Engine executes.
	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeEngine, "failed to acquire duckdb connection")
	}

	if err := RegisterMatcher(conn); err != nil {
		_ = conn.Close()
		_ = db.Close()
		return nil, err
	}

	return &Engine{db: db, conn: conn}, nil
}

// Close releases the session. Function registrations scoped to it are
// released with it.
func (e *Engine) Close() error {
	connErr := e.conn.Close()
	dbErr := e.db.Close()
	if connErr != nil {
		return errors.Wrap(connErr, errors.ErrorTypeEngine, "failed to close duckdb connection")
	}
	if dbErr != nil {
		return errors.Wrap(dbErr, errors.ErrorTypeEngine, "failed to close duckdb")
	}
	return nil
}

// RegisterFile binds the Parquet file at path as a view named table.
func (e *Engine) RegisterFile(ctx context.Context, table, path string) error {
	stmt := fmt.Sprintf("CREATE OR REPLACE VIEW %s AS SELECT * FROM read_parquet(%s)",
		QuoteIdent(table), QuoteLiteral(path))
	if _, err := e.conn.ExecContext(ctx, stmt); err != nil {
		return errors.Wrap(err, errors.ErrorTypeEngine, "failed to register parquet file").
			WithDetail("table", table).
			WithDetail("path", path)
	}
	return nil
}

// Query executes arbitrary query text and returns the row stream.
func (e *Engine) Query(ctx context.Context, query string) (*sql.Rows, error) {
	rows, err := e.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeEngine, "query failed")
	}
	return rows, nil
}

// CountRows executes query and consumes the result stream, returning the
// number of surviving rows.
func (e *Engine) CountRows(ctx context.Context, query string) (int64, error) {
	rows, err := e.Query(ctx, query)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var count int64
	for rows.Next() {
		count++
	}
	if err := rows.Err(); err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeEngine, "row stream failed")
	}
	return count, nil
}

// QuoteIdent quotes an SQL identifier, doubling embedded quotes. Needed for
// log-schema column names containing dots and slashes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteLiteral quotes an SQL string literal.
func QuoteLiteral(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}
