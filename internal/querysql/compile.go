package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/smartcoll/internal/queryir"
	"github.com/roach88/smartcoll/internal/value"
)

// EventColumns is the column list every compiled query selects, in scan
// order.
const EventColumns = `run_id, seq, collection, event, op_id, kind, position, item, item_hash`

// SQLCompiler compiles queryir queries to parameterized SQL for SQLite.
//
// Every query is ordered by (run_id, seq) and every literal is passed as a
// parameter, never interpolated.
type SQLCompiler struct {
	// Table is the events table name.
	Table string
}

// NewSQLCompiler creates a compiler for the trace store's events table.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{Table: "events"}
}

// Compile converts a query to parameterized SQL.
// Returns (sql, params, error) tuple.
//
// The query is validated first; an invalid query never reaches SQL.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if err := queryir.Validate(q).Err(); err != nil {
		return "", nil, err
	}

	switch query := q.(type) {
	case queryir.Select:
		return c.compileSelect(query)
	case *queryir.Select:
		return c.compileSelect(*query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func (c *SQLCompiler) compileSelect(q queryir.Select) (string, []any, error) {
	var whereClause string
	var params []any
	if q.Filter != nil {
		filterSQL, filterParams, err := c.compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		whereClause = " WHERE " + filterSQL
		params = filterParams
	}

	sql := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s",
		EventColumns,
		c.Table,
		whereClause,
		stableOrderKey)

	if q.Limit > 0 {
		sql += " LIMIT ?"
		params = append(params, q.Limit)
	}

	return sql, params, nil
}

// stableOrderKey orders by run then logical clock. COLLATE BINARY keeps
// text ordering identical across SQLite builds.
const stableOrderKey = "run_id COLLATE BINARY ASC, seq ASC"

// compilePredicate compiles a predicate to a WHERE clause fragment.
func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	if p == nil {
		return "1 = 1", nil, nil // Always true
	}

	switch pred := p.(type) {
	case queryir.Equals:
		return c.compileEquals(pred)
	case *queryir.Equals:
		return c.compileEquals(*pred)
	case queryir.OneOf:
		return c.compileOneOf(pred)
	case *queryir.OneOf:
		return c.compileOneOf(*pred)
	case queryir.And:
		return c.compileAnd(pred)
	case *queryir.And:
		return c.compileAnd(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// compileEquals compiles an Equals predicate to "field = ?".
func (c *SQLCompiler) compileEquals(eq queryir.Equals) (string, []any, error) {
	param, err := valueToParam(eq.Value)
	if err != nil {
		return "", nil, fmt.Errorf("convert value: %w", err)
	}
	return fmt.Sprintf("%s = ?", eq.Field), []any{param}, nil
}

// compileOneOf compiles a OneOf predicate to "field IN (?, ...)".
func (c *SQLCompiler) compileOneOf(in queryir.OneOf) (string, []any, error) {
	if len(in.Values) == 0 {
		return "1 = 0", nil, nil // Matches nothing
	}

	params := make([]any, 0, len(in.Values))
	for _, v := range in.Values {
		param, err := valueToParam(v)
		if err != nil {
			return "", nil, fmt.Errorf("convert value: %w", err)
		}
		params = append(params, param)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(params)), ", ")
	return fmt.Sprintf("%s IN (%s)", in.Field, placeholders), params, nil
}

// compileAnd compiles an And predicate to a parenthesized conjunction.
func (c *SQLCompiler) compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil // Always true (vacuous truth)
	}

	var sqlParts []string
	var allParams []any
	for _, pred := range and.Predicates {
		sql, params, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		sqlParts = append(sqlParts, sql)
		allParams = append(allParams, params...)
	}

	if len(sqlParts) == 1 {
		return sqlParts[0], allParams, nil
	}
	return "(" + strings.Join(sqlParts, " AND ") + ")", allParams, nil
}

// valueToParam converts a scalar literal to a SQL parameter.
func valueToParam(v value.Value) (any, error) {
	switch val := v.(type) {
	case value.String:
		return string(val), nil
	case value.Int:
		return int64(val), nil
	default:
		return nil, fmt.Errorf("unsupported literal type for SQL parameter: %s", value.TypeName(v))
	}
}
