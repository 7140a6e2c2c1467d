package repos

import (
	"fmt"
	"strings"
)

// Table is an output table with its whitelisted columns.
// SQL is only ever assembled from these names; values go through $n.
type Table struct {
	Name    string
	Columns []string
	Key     []string
}

func (t Table) has(col string) bool {
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// UpsertSQL returns the single-row idempotent upsert for the table
func (t Table) UpsertSQL() string {
	placeholders := make([]string, len(t.Columns))
	for i := range t.Columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	key := make(map[string]bool, len(t.Key))
	for _, k := range t.Key {
		key[k] = true
	}
	var sets []string
	for _, c := range t.Columns {
		if !key[c] {
			sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
		}
	}

	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
		t.Name,
		strings.Join(t.Columns, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(t.Key, ", "),
		strings.Join(sets, ", "),
	)
}

// Op is a whitelisted comparison operator
type Op string

const (
	OpEq  Op = "="
	OpGte Op = ">="
	OpLte Op = "<="
)

type condition struct {
	col    string
	op     Op
	value  any
	latest bool
}

// SelectBuilder builds a parameterized SELECT over one Table
type SelectBuilder struct {
	table   Table
	cols    []string
	conds   []condition
	orderBy string
	desc    bool
	limit   int
	offset  int
	err     error
}

// Select starts a query; no columns selects every column in table order
func (t Table) Select(cols ...string) *SelectBuilder {
	b := &SelectBuilder{table: t, cols: cols}
	if len(cols) == 0 {
		b.cols = t.Columns
	}
	for _, c := range b.cols {
		b.check(c)
	}
	return b
}

func (b *SelectBuilder) check(col string) {
	if b.err == nil && !b.table.has(col) {
		b.err = fmt.Errorf("column %q not in %s", col, b.table.Name)
	}
}

// Where adds "col op $n"
func (b *SelectBuilder) Where(col string, op Op, value any) *SelectBuilder {
	b.check(col)
	switch op {
	case OpEq, OpGte, OpLte:
	default:
		if b.err == nil {
			b.err = fmt.Errorf("operator %q not allowed", op)
		}
	}
	b.conds = append(b.conds, condition{col: col, op: op, value: value})
	return b
}

// WhereLatest restricts col to its newest stored value
func (b *SelectBuilder) WhereLatest(col string) *SelectBuilder {
	b.check(col)
	b.conds = append(b.conds, condition{col: col, latest: true})
	return b
}

// OrderBy sets the sort column
func (b *SelectBuilder) OrderBy(col string, desc bool) *SelectBuilder {
	b.check(col)
	b.orderBy, b.desc = col, desc
	return b
}

// Page sets LIMIT/OFFSET; limit <= 0 means no limit
func (b *SelectBuilder) Page(limit, offset int) *SelectBuilder {
	b.limit, b.offset = limit, offset
	return b
}

// Build returns the SQL and its arguments
func (b *SelectBuilder) Build() (string, []any, error) {
	if b.err != nil {
		return "", nil, b.err
	}

	var (
		sb   strings.Builder
		args []any
	)
	fmt.Fprintf(&sb, "SELECT %s FROM %s", strings.Join(b.cols, ", "), b.table.Name)

	for i, c := range b.conds {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		if c.latest {
			fmt.Fprintf(&sb, "%s = (SELECT MAX(%s) FROM %s)", c.col, c.col, b.table.Name)
			continue
		}
		args = append(args, c.value)
		fmt.Fprintf(&sb, "%s %s $%d", c.col, c.op, len(args))
	}

	if b.orderBy != "" {
		dir := "ASC"
		if b.desc {
			dir = "DESC"
		}
		fmt.Fprintf(&sb, " ORDER BY %s %s", b.orderBy, dir)
		// 안정 정렬: 키 컬럼으로 보조 정렬
		for _, k := range b.table.Key {
			if k != b.orderBy {
				fmt.Fprintf(&sb, ", %s", k)
			}
		}
	}

	if b.limit > 0 {
		args = append(args, b.limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}
	if b.offset > 0 {
		args = append(args, b.offset)
		fmt.Fprintf(&sb, " OFFSET $%d", len(args))
	}

	return sb.String(), args, nil
}
