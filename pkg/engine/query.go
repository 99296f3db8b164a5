package engine

import (
	"fmt"
	"strings"

	"github.com/querylab/parqscan/pkg/errors"
)

// FilterOp selects which substring predicate a generated filter uses.
type FilterOp string

const (
	// FilterLike uses the engine's own LIKE '%needle%' pattern evaluator.
	FilterLike FilterOp = "like"
	// FilterStrpos uses the engine's strpos(col, needle) > 0 predicate.
	FilterStrpos FilterOp = "strpos"
	// FilterMatch uses the registered str_match function.
	FilterMatch FilterOp = "str_match"
)

// BuildFilterQuery builds "SELECT * FROM table WHERE ..." with one substring
// predicate per column, OR-joined, so every strategy evaluates the same
// column selection.
func BuildFilterQuery(table string, columns []string, needle string, op FilterOp) (string, error) {
	if len(columns) == 0 {
		return "", errors.New(errors.ErrorTypeQuery, "no columns to filter on")
	}

	clauses := make([]string, 0, len(columns))
	for _, col := range columns {
		ident := QuoteIdent(col)
		switch op {
		case FilterLike:
			clauses = append(clauses, fmt.Sprintf("%s LIKE %s", ident, QuoteLiteral("%"+needle+"%")))
		case FilterStrpos:
			clauses = append(clauses, fmt.Sprintf("strpos(%s, %s) > 0", ident, QuoteLiteral(needle)))
		case FilterMatch:
			clauses = append(clauses, fmt.Sprintf("%s(%s, %s)", MatcherName, ident, QuoteLiteral(needle)))
		default:
			return "", errors.Newf(errors.ErrorTypeQuery, "unknown filter op %q", op)
		}
	}

	return fmt.Sprintf("SELECT * FROM %s WHERE %s",
		QuoteIdent(table), strings.Join(clauses, " OR ")), nil
}
