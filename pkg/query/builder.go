package query

import (
	"fmt"
	"reflect"
	"strings"
)

// SortField orders by a projected field name.
type SortField struct {
	Field      string
	Descending bool
}

// ParseSortFields reads "Name,-CreatedAt" style lists. A leading "-" means
// descending. Blank entries are skipped and empty input yields nil.
func ParseSortFields(s string) []SortField {
	var fields []SortField
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, desc := strings.CutPrefix(part, "-")
		fields = append(fields, SortField{Field: name, Descending: desc})
	}
	return fields
}

// condition renders a WHERE fragment given a function that returns the next
// positional placeholder.
type condition struct {
	render func(next func() string) string
	args   []any
}

// Builder assembles SELECT statements over a ProjectionMap. Conditions are
// ANDed and skipped entirely when their input is nil or blank, so optional
// filters chain without branching at the call site.
type Builder struct {
	p           *ProjectionMap
	conds       []condition
	sort        []SortField
	defaultSort []SortField
	limit       int
}

func NewBuilder(p *ProjectionMap, defaultSort ...SortField) *Builder {
	return &Builder{p: p, defaultSort: defaultSort}
}

func (b *Builder) where(render func(next func() string) string, args ...any) *Builder {
	b.conds = append(b.conds, condition{render: render, args: args})
	return b
}

// WhereEquals matches field = value.
func (b *Builder) WhereEquals(field string, value any) *Builder {
	if isNil(value) {
		return b
	}
	col := b.p.Column(field)
	return b.where(func(next func() string) string {
		return col + " = " + next()
	}, value)
}

// WhereFold matches field case-insensitively against the trimmed value.
func (b *Builder) WhereFold(field string, value *string) *Builder {
	if value == nil || strings.TrimSpace(*value) == "" {
		return b
	}
	col := b.p.Column(field)
	return b.where(func(next func() string) string {
		return "LOWER(" + col + ") = LOWER(" + next() + ")"
	}, strings.TrimSpace(*value))
}

// WhereContains matches field ILIKE %value%.
func (b *Builder) WhereContains(field string, value *string) *Builder {
	if value == nil || *value == "" {
		return b
	}
	col := b.p.Column(field)
	return b.where(func(next func() string) string {
		return col + " ILIKE " + next()
	}, "%"+*value+"%")
}

// WhereIn matches field against any of values.
func (b *Builder) WhereIn(field string, values []any) *Builder {
	if len(values) == 0 {
		return b
	}
	col := b.p.Column(field)
	return b.where(func(next func() string) string {
		ph := make([]string, len(values))
		for i := range ph {
			ph[i] = next()
		}
		return col + " IN (" + strings.Join(ph, ", ") + ")"
	}, values...)
}

// WhereSearch matches search as an ILIKE substring of any of fields.
func (b *Builder) WhereSearch(search *string, fields ...string) *Builder {
	if search == nil || *search == "" || len(fields) == 0 {
		return b
	}

	pattern := "%" + *search + "%"
	args := make([]any, len(fields))
	for i := range fields {
		args[i] = pattern
	}

	return b.where(func(next func() string) string {
		parts := make([]string, len(fields))
		for i, f := range fields {
			parts[i] = b.p.Column(f) + " ILIKE " + next()
		}
		return "(" + strings.Join(parts, " OR ") + ")"
	}, args...)
}

// OrderByFields replaces the default sort.
func (b *Builder) OrderByFields(fields []SortField) *Builder {
	b.sort = fields
	return b
}

// Limit caps rows returned by Build. n <= 0 removes the cap.
func (b *Builder) Limit(n int) *Builder {
	b.limit = n
	return b
}

func (b *Builder) Build() (string, []any) {
	where, args := b.whereClause()
	sql := b.selectFrom() + where + b.orderBy()
	if b.limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d", b.limit)
	}
	return sql, args
}

func (b *Builder) BuildCount() (string, []any) {
	where, args := b.whereClause()
	return "SELECT COUNT(*) FROM " + b.p.From() + where, args
}

// BuildPage selects a 1-based page.
func (b *Builder) BuildPage(page, pageSize int) (string, []any) {
	where, args := b.whereClause()
	return fmt.Sprintf("%s%s%s LIMIT %d OFFSET %d",
		b.selectFrom(), where, b.orderBy(), pageSize, (page-1)*pageSize), args
}

// BuildSingle selects the row whose idField equals id. Other conditions
// are ignored.
func (b *Builder) BuildSingle(idField string, id any) (string, []any) {
	return b.selectFrom() + " WHERE " + b.p.Column(idField) + " = $1", []any{id}
}

// BuildSingleOrNull selects the first row under the current conditions
// and ordering.
func (b *Builder) BuildSingleOrNull() (string, []any) {
	where, args := b.whereClause()
	return b.selectFrom() + where + b.orderBy() + " LIMIT 1", args
}

func (b *Builder) selectFrom() string {
	return "SELECT " + b.p.Columns() + " FROM " + b.p.From()
}

func (b *Builder) whereClause() (string, []any) {
	if len(b.conds) == 0 {
		return "", nil
	}

	n := 0
	next := func() string {
		n++
		return fmt.Sprintf("$%d", n)
	}

	clauses := make([]string, len(b.conds))
	var args []any
	for i, c := range b.conds {
		clauses[i] = c.render(next)
		args = append(args, c.args...)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (b *Builder) orderBy() string {
	fields := b.sort
	if len(fields) == 0 {
		fields = b.defaultSort
	}
	if len(fields) == 0 {
		return ""
	}

	parts := make([]string, len(fields))
	for i, f := range fields {
		dir := "ASC"
		if f.Descending {
			dir = "DESC"
		}
		parts[i] = b.p.Column(f.Field) + " " + dir
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

// isNil treats typed nil pointers, maps and slices as absent.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
