// Package report is the output surface: plain named-column tables and the
// writers that serialize them.
package report

import (
	"fmt"
	"sort"
	"strings"
)

// Table is a named, column-ordered table of rendered cells. Undefined
// values are rendered as empty cells.
type Table struct {
	Name    string     `json:"name"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Append adds a row; it must match the column count.
func (t *Table) Append(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// Records returns rows as column-keyed maps.
func (t *Table) Records() []map[string]string {
	out := make([]map[string]string, len(t.Rows))
	for i, r := range t.Rows {
		m := make(map[string]string, len(t.Columns))
		for j, c := range t.Columns {
			if j < len(r) {
				m[c] = r[j]
			}
		}
		out[i] = m
	}
	return out
}

// Validate checks that every row has exactly one cell per column.
func (t *Table) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("table has no name")
	}
	for i, r := range t.Rows {
		if len(r) != len(t.Columns) {
			return fmt.Errorf("table %s row %d: %d cells for %d columns", t.Name, i+1, len(r), len(t.Columns))
		}
	}
	return nil
}

// Set is an ordered collection of tables addressable by name.
type Set struct {
	tables []*Table
}

func (s *Set) Add(t ...*Table) { s.tables = append(s.tables, t...) }

// Tables returns tables in insertion order.
func (s *Set) Tables() []*Table { return append([]*Table(nil), s.tables...) }

// Get finds a table by name.
func (s *Set) Get(name string) (*Table, bool) {
	for _, t := range s.tables {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// Names lists table names sorted ascending.
func (s *Set) Names() []string {
	out := make([]string, 0, len(s.tables))
	for _, t := range s.tables {
		out = append(out, t.Name)
	}
	sort.Strings(out)
	return out
}

func safeCell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/")
}
