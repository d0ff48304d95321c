package querybuilder

import (
	"fmt"
	"strconv"
	"strings"
)

// binding collects positional arguments and hands out $n placeholders in
// insertion order.
type binding struct {
	args []any
}

func (b *binding) add(value any) string {
	b.args = append(b.args, value)
	return "$" + strconv.Itoa(len(b.args))
}

// rewrite replaces each ? in expr with the next placeholder. Extra ?
// marks beyond the given args are kept as-is.
func (b *binding) rewrite(expr string, exprArgs []any) string {
	if len(exprArgs) == 0 {
		return expr
	}

	var out strings.Builder
	next := 0
	for i := 0; i < len(expr); i++ {
		if expr[i] != '?' {
			out.WriteByte(expr[i])
			continue
		}
		if next >= len(exprArgs) {
			out.WriteByte('?')
			continue
		}
		out.WriteString(b.add(exprArgs[next]))
		next++
	}
	return out.String()
}

type Condition interface {
	render(buf *strings.Builder, bind *binding)
}

type eqCondition struct {
	column string
	value  any
}

func Eq(column string, value any) Condition {
	return eqCondition{column: column, value: value}
}

func (c eqCondition) render(buf *strings.Builder, bind *binding) {
	buf.WriteString(c.column)
	buf.WriteString(" = ")
	buf.WriteString(bind.add(c.value))
}

type inCondition struct {
	column string
	values []any
}

func In(column string, values []any) Condition {
	return inCondition{column: column, values: values}
}

func (c inCondition) render(buf *strings.Builder, bind *binding) {
	// An empty IN list matches nothing rather than erroring out.
	if len(c.values) == 0 {
		buf.WriteString("1=0")
		return
	}

	buf.WriteString(c.column)
	buf.WriteString(" IN (")
	for i, v := range c.values {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(bind.add(v))
	}
	buf.WriteString(")")
}

type isNullCondition struct {
	column string
}

func IsNull(column string) Condition {
	return isNullCondition{column: column}
}

func (c isNullCondition) render(buf *strings.Builder, _ *binding) {
	buf.WriteString(c.column)
	buf.WriteString(" IS NULL")
}

type exprCondition struct {
	expr string
	args []any
}

// Expr is the escape hatch for predicates the typed conditions cannot
// express, such as status <> ? guards.
func Expr(expr string, args ...any) Condition {
	return exprCondition{expr: expr, args: args}
}

func (c exprCondition) render(buf *strings.Builder, bind *binding) {
	buf.WriteString(bind.rewrite(c.expr, c.args))
}

type SelectBuilder struct {
	columns []string
	table   string
	where   []Condition
	orderBy []string
	limit   int
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: append([]string(nil), columns...)}
}

func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.table = table
	return b
}

func (b *SelectBuilder) Where(conditions ...Condition) *SelectBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *SelectBuilder) OrderBy(parts ...string) *SelectBuilder {
	b.orderBy = append(b.orderBy, parts...)
	return b
}

func (b *SelectBuilder) Limit(limit int) *SelectBuilder {
	b.limit = limit
	return b
}

func (b *SelectBuilder) ToSQL() (string, []any, error) {
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("select columns are required")
	}
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("select table is required")
	}

	var buf strings.Builder
	bind := &binding{args: make([]any, 0, len(b.where))}

	buf.WriteString("SELECT ")
	buf.WriteString(strings.Join(b.columns, ", "))
	buf.WriteString(" FROM ")
	buf.WriteString(b.table)
	renderWhere(&buf, bind, b.where)
	if len(b.orderBy) > 0 {
		buf.WriteString(" ORDER BY ")
		buf.WriteString(strings.Join(b.orderBy, ", "))
	}
	if b.limit > 0 {
		buf.WriteString(" LIMIT ")
		buf.WriteString(strconv.Itoa(b.limit))
	}

	return buf.String(), bind.args, nil
}

type InsertBuilder struct {
	table   string
	columns []string
	rows    [][]any
	suffix  string
}

func InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

func (b *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	b.columns = append([]string(nil), columns...)
	return b
}

func (b *InsertBuilder) Values(values ...any) *InsertBuilder {
	b.rows = append(b.rows, append([]any(nil), values...))
	return b
}

func (b *InsertBuilder) Suffix(sql string) *InsertBuilder {
	b.suffix = strings.TrimSpace(sql)
	return b
}

func (b *InsertBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("insert table is required")
	}
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("insert columns are required")
	}
	if len(b.rows) == 0 {
		return "", nil, fmt.Errorf("insert values are required")
	}

	var buf strings.Builder
	bind := &binding{args: make([]any, 0, len(b.rows)*len(b.columns))}

	buf.WriteString("INSERT INTO ")
	buf.WriteString(b.table)
	buf.WriteString(" (")
	buf.WriteString(strings.Join(b.columns, ", "))
	buf.WriteString(") VALUES ")

	for rowIdx, row := range b.rows {
		if len(row) != len(b.columns) {
			return "", nil, fmt.Errorf("insert row %d has %d values, expected %d", rowIdx, len(row), len(b.columns))
		}
		if rowIdx > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString("(")
		for colIdx, value := range row {
			if colIdx > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(bind.add(value))
		}
		buf.WriteString(")")
	}

	if b.suffix != "" {
		buf.WriteString(" ")
		buf.WriteString(bind.rewrite(b.suffix, nil))
	}

	return buf.String(), bind.args, nil
}

type setClause struct {
	column   string
	value    any
	expr     string
	exprArgs []any
	isExpr   bool
}

type UpdateBuilder struct {
	table  string
	sets   []setClause
	where  []Condition
	suffix string
}

func Update(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table}
}

func (b *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	b.sets = append(b.sets, setClause{column: column, value: value})
	return b
}

// SetExpr assigns the column from a SQL expression, with ? marks bound
// as positional arguments. Used for arithmetic counter updates.
func (b *UpdateBuilder) SetExpr(column, expr string, args ...any) *UpdateBuilder {
	b.sets = append(b.sets, setClause{column: column, expr: expr, exprArgs: args, isExpr: true})
	return b
}

func (b *UpdateBuilder) Where(conditions ...Condition) *UpdateBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *UpdateBuilder) Suffix(sql string) *UpdateBuilder {
	b.suffix = strings.TrimSpace(sql)
	return b
}

func (b *UpdateBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("update table is required")
	}
	if len(b.sets) == 0 {
		return "", nil, fmt.Errorf("update sets are required")
	}

	var buf strings.Builder
	bind := &binding{args: make([]any, 0, len(b.sets)+len(b.where))}

	buf.WriteString("UPDATE ")
	buf.WriteString(b.table)
	buf.WriteString(" SET ")

	for i, s := range b.sets {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(s.column)
		buf.WriteString(" = ")
		if s.isExpr {
			buf.WriteString(bind.rewrite(s.expr, s.exprArgs))
			continue
		}
		buf.WriteString(bind.add(s.value))
	}

	renderWhere(&buf, bind, b.where)
	if b.suffix != "" {
		buf.WriteString(" ")
		buf.WriteString(bind.rewrite(b.suffix, nil))
	}

	return buf.String(), bind.args, nil
}

func renderWhere(buf *strings.Builder, bind *binding, conditions []Condition) {
	if len(conditions) == 0 {
		return
	}
	buf.WriteString(" WHERE ")
	for i, c := range conditions {
		if i > 0 {
			buf.WriteString(" AND ")
		}
		c.render(buf, bind)
	}
}
