// Package querysql compiles query IR into parameterized SQLite SQL.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/criteria/internal/field"
	"github.com/roach88/criteria/internal/ir"
	"github.com/roach88/criteria/internal/queryir"
)

// Layout describes where rows and fields live.
//
// With Collection set, every row of Table belongs to a named collection and
// Select.From is matched against that column. Otherwise Select.From names
// the table itself.
//
// With Body set, fields are paths inside a JSON document column and render
// as json_extract(body, '$.path'). Otherwise fields are plain columns.
type Layout struct {
	Table      string
	ID         string
	Seq        string // insertion order column; empty when the table has none
	Collection string
	Body       string
}

// DocumentLayout matches the store's documents table.
var DocumentLayout = Layout{
	Table:      "documents",
	ID:         "id",
	Seq:        "seq",
	Collection: "collection",
	Body:       "body",
}

// ColumnLayout is a plain table per source with one column per field.
func ColumnLayout(id, seq string) Layout {
	return Layout{ID: id, Seq: seq}
}

// SQLCompiler compiles QueryIR to parameterized SQL for SQLite.
//
// CRITICAL: every SELECT ends with the layout's deterministic tie-breaker,
// so rows that compare equal on the requested keys come back in insertion
// order. In-memory sorting is stable and agrees with it.
// CRITICAL: all values are parameterized, never interpolated. Field names
// are restricted to dotted identifiers before they are rendered.
type SQLCompiler struct {
	Layout Layout
}

// NewSQLCompiler creates a compiler for the document layout.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{Layout: DocumentLayout}
}

// NewSQLCompilerWithLayout creates a compiler for a custom layout.
func NewSQLCompilerWithLayout(layout Layout) *SQLCompiler {
	return &SQLCompiler{Layout: layout}
}

// Compile converts a query to a SELECT statement.
// Returns (sql, params, error) tuple.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	sel, err := asSelect(q)
	if err != nil {
		return "", nil, err
	}
	return c.compileSelect(sel, c.selectColumns())
}

// CompileCount converts a query to a SELECT COUNT(*) statement. Paging is
// honored, ordering only matters for which rows a page covers.
func (c *SQLCompiler) CompileCount(q queryir.Query) (string, []any, error) {
	sel, err := asSelect(q)
	if err != nil {
		return "", nil, err
	}

	if sel.Limit == 0 && sel.Offset == 0 {
		from, where, params, err := c.compileFromWhere(sel)
		if err != nil {
			return "", nil, err
		}
		return "SELECT COUNT(*) FROM " + from + where, params, nil
	}

	inner, params, err := c.compileSelect(sel, c.rowKey())
	if err != nil {
		return "", nil, err
	}
	return "SELECT COUNT(*) FROM (" + inner + ")", params, nil
}

// CompileDelete converts a query to a DELETE statement removing exactly the
// rows Compile would select.
func (c *SQLCompiler) CompileDelete(q queryir.Query) (string, []any, error) {
	sel, err := asSelect(q)
	if err != nil {
		return "", nil, err
	}

	if sel.Limit == 0 && sel.Offset == 0 {
		from, where, params, err := c.compileFromWhere(sel)
		if err != nil {
			return "", nil, err
		}
		return "DELETE FROM " + from + where, params, nil
	}

	from, err := c.table(sel.From)
	if err != nil {
		return "", nil, err
	}
	inner, params, err := c.compileSelect(sel, c.rowKey())
	if err != nil {
		return "", nil, err
	}
	return "DELETE FROM " + from + " WHERE " + c.rowKey() + " IN (" + inner + ")", params, nil
}

func asSelect(q queryir.Query) (queryir.Select, error) {
	switch query := q.(type) {
	case nil:
		return queryir.Select{}, fmt.Errorf("cannot compile nil query")
	case queryir.Select:
		return query, nil
	case *queryir.Select:
		if query == nil {
			return queryir.Select{}, fmt.Errorf("cannot compile nil query")
		}
		return *query, nil
	default:
		return queryir.Select{}, fmt.Errorf("unsupported query type: %T", q)
	}
}

func (c *SQLCompiler) selectColumns() string {
	if c.Layout.Body == "" {
		return "*"
	}
	cols := []string{c.Layout.ID}
	if c.Layout.Seq != "" {
		cols = append(cols, c.Layout.Seq)
	}
	return strings.Join(append(cols, c.Layout.Body), ", ")
}

// rowKey is the column that identifies a row across a whole table.
func (c *SQLCompiler) rowKey() string {
	if c.Layout.Seq != "" {
		return c.Layout.Seq
	}
	return c.Layout.ID
}

// compileSelect renders SELECT <columns> ... ORDER BY ... LIMIT ... OFFSET.
func (c *SQLCompiler) compileSelect(q queryir.Select, columns string) (string, []any, error) {
	from, where, params, err := c.compileFromWhere(q)
	if err != nil {
		return "", nil, err
	}

	orderBy, err := c.compileOrder(q.Order)
	if err != nil {
		return "", nil, err
	}

	paging, pagingParams, err := compilePaging(q.Limit, q.Offset)
	if err != nil {
		return "", nil, err
	}

	sql := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s%s", columns, from, where, orderBy, paging)
	return sql, append(params, pagingParams...), nil
}

// compileFromWhere renders the table and the WHERE clause, including the
// collection restriction of the document layout.
func (c *SQLCompiler) compileFromWhere(q queryir.Select) (string, string, []any, error) {
	from, err := c.table(q.From)
	if err != nil {
		return "", "", nil, err
	}

	var conds []string
	var params []any
	if c.Layout.Collection != "" {
		conds = append(conds, c.Layout.Collection+" = ?")
		params = append(params, q.From)
	}

	if q.Filter != nil {
		filterSQL, filterParams, err := c.compilePredicate(q.Filter)
		if err != nil {
			return "", "", nil, fmt.Errorf("compile filter: %w", err)
		}
		conds = append(conds, filterSQL)
		params = append(params, filterParams...)
	}

	if len(conds) == 0 {
		return from, "", params, nil
	}
	return from, " WHERE " + strings.Join(conds, " AND "), params, nil
}

func (c *SQLCompiler) table(from string) (string, error) {
	if from == "" {
		return "", fmt.Errorf("empty source name")
	}
	if c.Layout.Collection != "" {
		return c.Layout.Table, nil
	}
	if !field.ValidName(from) || strings.Contains(from, ".") {
		return "", fmt.Errorf("invalid table name %q", from)
	}
	return quoteIdent(from), nil
}

// compileOrder renders the requested keys followed by the tie-breaker.
// COLLATE BINARY keeps text ordering byte-wise across SQLite builds.
func (c *SQLCompiler) compileOrder(keys []queryir.OrderKey) (string, error) {
	parts := make([]string, 0, len(keys)+2)
	for _, key := range keys {
		expr, err := c.fieldExpr(key.Field)
		if err != nil {
			return "", fmt.Errorf("order by: %w", err)
		}
		dir := "ASC"
		if key.Desc {
			dir = "DESC"
		}
		if c.Layout.Body == "" {
			parts = append(parts, expr+" COLLATE BINARY "+dir)
			continue
		}
		// json_extract renders arrays and objects as JSON text, which would
		// sort among the strings. Rank the kind first and let composites of
		// one kind tie.
		parts = append(parts,
			c.kindRankExpr(key.Field)+" "+dir,
			"CASE WHEN "+c.compositeExpr(key.Field)+" THEN NULL ELSE "+expr+" END COLLATE BINARY "+dir)
	}
	return strings.Join(append(parts, c.stableOrderKey()...), ", "), nil
}

// stableOrderKey returns the tie-breaker every SELECT ends with.
func (c *SQLCompiler) stableOrderKey() []string {
	var keys []string
	if c.Layout.Seq != "" {
		keys = append(keys, c.Layout.Seq+" ASC")
	}
	return append(keys, c.Layout.ID+" COLLATE BINARY ASC")
}

func compilePaging(limit, offset int) (string, []any, error) {
	if limit < 0 {
		return "", nil, fmt.Errorf("negative limit %d", limit)
	}
	if offset < 0 {
		return "", nil, fmt.Errorf("negative offset %d", offset)
	}

	switch {
	case limit > 0 && offset > 0:
		return " LIMIT ? OFFSET ?", []any{int64(limit), int64(offset)}, nil
	case limit > 0:
		return " LIMIT ?", []any{int64(limit)}, nil
	case offset > 0:
		// SQLite needs a LIMIT before OFFSET; -1 means no limit.
		return " LIMIT -1 OFFSET ?", []any{int64(offset)}, nil
	}
	return "", nil, nil
}

// fieldExpr renders a field reference. Names must be dotted identifiers, so
// they are safe to inline into the JSON path literal.
func (c *SQLCompiler) fieldExpr(name string) (string, error) {
	if !field.ValidName(name) {
		return "", fmt.Errorf("invalid field name %q", name)
	}
	if c.Layout.Body != "" {
		return fmt.Sprintf("json_extract(%s, '$.%s')", c.Layout.Body, name), nil
	}
	if strings.Contains(name, ".") {
		return "", fmt.Errorf("nested field %q needs a document layout", name)
	}
	return quoteIdent(name), nil
}

// compositeExpr is true when a document field holds an array or object.
// name must already have passed fieldExpr.
func (c *SQLCompiler) compositeExpr(name string) string {
	return fmt.Sprintf("json_type(%s, '$.%s') IN ('array', 'object')", c.Layout.Body, name)
}

// scalarExpr is the negation of compositeExpr. Both are NULL for a missing
// field.
func (c *SQLCompiler) scalarExpr(name string) string {
	return fmt.Sprintf("json_type(%s, '$.%s') NOT IN ('array', 'object')", c.Layout.Body, name)
}

// kindRankExpr orders scalars (and null) before arrays before objects, the
// kind order of ir.Compare.
func (c *SQLCompiler) kindRankExpr(name string) string {
	return fmt.Sprintf("CASE json_type(%s, '$.%s') WHEN 'array' THEN 1 WHEN 'object' THEN 2 ELSE 0 END", c.Layout.Body, name)
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// compilePredicate compiles a queryir.Predicate to SQL WHERE clause fragment.
// Returns (sql, params, error).
// CRITICAL: Values NEVER interpolated - always use ? placeholders.
func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	if p == nil {
		return "", nil, fmt.Errorf("nil predicate")
	}

	switch pred := p.(type) {
	case queryir.Compare:
		return c.compileCompare(pred)
	case *queryir.Compare:
		return c.compileCompare(*pred)
	case queryir.In:
		return c.compileIn(pred)
	case *queryir.In:
		return c.compileIn(*pred)
	case queryir.IsNull:
		return c.compileIsNull(pred)
	case *queryir.IsNull:
		return c.compileIsNull(*pred)
	case queryir.And:
		return c.compileJunction(pred.Predicates, " AND ", "1 = 1")
	case *queryir.And:
		return c.compileJunction(pred.Predicates, " AND ", "1 = 1")
	case queryir.Or:
		return c.compileJunction(pred.Predicates, " OR ", "0 = 1")
	case *queryir.Or:
		return c.compileJunction(pred.Predicates, " OR ", "0 = 1")
	case queryir.Not:
		return c.compileNot(pred)
	case *queryir.Not:
		return c.compileNot(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// compileCompare compiles "field <op> ?". A NULL literal turns = and != into
// IS NULL / IS NOT NULL; the ordering operators have no NULL form.
func (c *SQLCompiler) compileCompare(cmp queryir.Compare) (string, []any, error) {
	expr, err := c.fieldExpr(cmp.Field)
	if err != nil {
		return "", nil, err
	}
	if !cmp.Op.Valid() {
		return "", nil, fmt.Errorf("unsupported operator %q", cmp.Op)
	}

	if ir.IsNull(cmp.Value) {
		switch cmp.Op {
		case queryir.OpEq:
			return expr + " IS NULL", nil, nil
		case queryir.OpNe:
			return expr + " IS NOT NULL", nil, nil
		default:
			return "", nil, fmt.Errorf("field %q: %s against NULL", cmp.Field, cmp.Op)
		}
	}

	param, err := irValueToParam(cmp.Value)
	if err != nil {
		return "", nil, fmt.Errorf("convert value: %w", err)
	}

	sql := fmt.Sprintf("%s %s ?", expr, cmp.Op)
	if c.Layout.Body == "" {
		return sql, []any{param}, nil
	}
	// Arrays and objects rank above every scalar, so against a scalar
	// literal only the kind matters.
	switch cmp.Op {
	case queryir.OpNe, queryir.OpGt, queryir.OpGe:
		sql = "(" + c.compositeExpr(cmp.Field) + " OR " + sql + ")"
	default:
		sql = "(" + c.scalarExpr(cmp.Field) + " AND " + sql + ")"
	}
	return sql, []any{param}, nil
}

// compileIn compiles "field IN (?, ...)". An empty list is never true.
func (c *SQLCompiler) compileIn(in queryir.In) (string, []any, error) {
	expr, err := c.fieldExpr(in.Field)
	if err != nil {
		return "", nil, err
	}
	if len(in.Values) == 0 {
		return "0 = 1", nil, nil
	}

	marks := make([]string, len(in.Values))
	params := make([]any, len(in.Values))
	for i, v := range in.Values {
		param, err := irValueToParam(v)
		if err != nil {
			return "", nil, fmt.Errorf("convert value %d: %w", i, err)
		}
		marks[i] = "?"
		params[i] = param
	}
	sql := fmt.Sprintf("%s IN (%s)", expr, strings.Join(marks, ", "))
	if c.Layout.Body != "" {
		sql = "(" + c.scalarExpr(in.Field) + " AND " + sql + ")"
	}
	return sql, params, nil
}

func (c *SQLCompiler) compileIsNull(n queryir.IsNull) (string, []any, error) {
	expr, err := c.fieldExpr(n.Field)
	if err != nil {
		return "", nil, err
	}
	return expr + " IS NULL", nil, nil
}

// compileJunction joins operands with AND/OR. Empty junctions collapse to
// their identity element.
func (c *SQLCompiler) compileJunction(preds []queryir.Predicate, sep, empty string) (string, []any, error) {
	if len(preds) == 0 {
		return empty, nil, nil
	}

	var sqlParts []string
	var allParams []any
	for _, pred := range preds {
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
	return "(" + strings.Join(sqlParts, sep) + ")", allParams, nil
}

// compileNot maps an unknown (NULL) operand to false before negating, so a
// comparison on a missing field negates to true exactly as it does in memory.
func (c *SQLCompiler) compileNot(n queryir.Not) (string, []any, error) {
	inner, params, err := c.compilePredicate(n.Predicate)
	if err != nil {
		return "", nil, err
	}
	return "NOT COALESCE(" + inner + ", 0)", params, nil
}

// irValueToParam converts an ir.IRValue to a Go native type for SQL parameter.
// Supports string, int, bool. Arrays and objects are not directly supported
// as SQL parameters.
func irValueToParam(v ir.IRValue) (any, error) {
	switch val := v.(type) {
	case ir.IRString:
		return string(val), nil
	case ir.IRInt:
		return int64(val), nil
	case ir.IRBool:
		return bool(val), nil
	case ir.IRNull:
		return nil, nil
	case ir.IRArray:
		return nil, fmt.Errorf("IRArray cannot be used as SQL parameter directly")
	case ir.IRObject:
		return nil, fmt.Errorf("IRObject cannot be used as SQL parameter directly")
	default:
		return nil, fmt.Errorf("unsupported IRValue type for SQL parameter: %T", v)
	}
}
