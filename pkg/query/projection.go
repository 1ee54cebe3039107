// Package query builds parameterized PostgreSQL SELECTs from field-name
// projections, so handlers sort and filter by API field names instead of
// column names.
package query

import "strings"

// ProjectionMap maps API field names to alias-qualified columns of one table.
type ProjectionMap struct {
	from      string
	alias     string
	byField   map[string]string
	qualified []string
	bare      []string
}

func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	return &ProjectionMap{
		from:    schema + "." + table + " " + alias,
		alias:   alias,
		byField: map[string]string{},
	}
}

// Project appends column to the select list under field. Order of calls is
// the scan order.
func (p *ProjectionMap) Project(column, field string) *ProjectionMap {
	q := p.alias + "." + column
	p.byField[field] = q
	p.qualified = append(p.qualified, q)
	p.bare = append(p.bare, column)
	return p
}

// From is the aliased table reference.
func (p *ProjectionMap) From() string { return p.from }

// Column returns the qualified column for field, or field itself if unmapped.
func (p *ProjectionMap) Column(field string) string {
	if c, ok := p.byField[field]; ok {
		return c
	}
	return field
}

// Columns is the qualified select list.
func (p *ProjectionMap) Columns() string { return strings.Join(p.qualified, ", ") }

// ColumnNames is the unqualified list, for RETURNING.
func (p *ProjectionMap) ColumnNames() string { return strings.Join(p.bare, ", ") }
