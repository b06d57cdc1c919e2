package core

import (
	"fmt"
	"strings"
)

// Table is an ordered set of uniquely named columns of equal length.
// Cells are stored column-major.
type Table struct {
	names []string
	index map[string]int
	cols  [][]Cell
	rows  int
}

// NewTable builds a table from column names and column-major cells.
// It panics if the invariants (unique names, uniform length) do not hold;
// callers inside this package construct tables that satisfy them.
func NewTable(names []string, cols [][]Cell) *Table {
	if len(names) != len(cols) {
		panic(fmt.Sprintf("table: %d names for %d columns", len(names), len(cols)))
	}
	t := &Table{
		names: names,
		index: make(map[string]int, len(names)),
		cols:  cols,
	}
	for i, name := range names {
		if _, dup := t.index[name]; dup {
			panic(fmt.Sprintf("table: duplicate column %q", name))
		}
		t.index[name] = i
		if i == 0 {
			t.rows = len(cols[i])
		} else if len(cols[i]) != t.rows {
			panic(fmt.Sprintf("table: column %q has %d rows, want %d", name, len(cols[i]), t.rows))
		}
	}
	return t
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// NumRows returns the row count.
func (t *Table) NumRows() int { return t.rows }

// HasColumn reports whether name is a column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the cells of the named column, or nil.
// The slice is shared with the table.
func (t *Table) Column(name string) []Cell {
	i, ok := t.index[name]
	if !ok {
		return nil
	}
	return t.cols[i]
}

// Cell returns the cell at row r of column c.
func (t *Table) Cell(r, c int) Cell { return t.cols[c][r] }

// Clone returns a deep copy. Operations mutate clones, never their input.
func (t *Table) Clone() *Table {
	cols := make([][]Cell, len(t.cols))
	for i, col := range t.cols {
		cols[i] = append([]Cell(nil), col...)
	}
	return NewTable(t.Columns(), cols)
}

// setColumn replaces a column's cells in place.
func (t *Table) setColumn(name string, cells []Cell) {
	t.cols[t.index[name]] = cells
}

// filterRows keeps the rows for which keep returns true.
func (t *Table) filterRows(keep func(row int) bool) {
	kept := make([]int, 0, t.rows)
	for r := 0; r < t.rows; r++ {
		if keep(r) {
			kept = append(kept, r)
		}
	}
	for c, col := range t.cols {
		next := make([]Cell, len(kept))
		for i, r := range kept {
			next[i] = col[r]
		}
		t.cols[c] = next
	}
	t.rows = len(kept)
}

// targetColumns resolves an optional column argument: one column when given,
// every column when empty.
func (t *Table) targetColumns(column string) []string {
	if column != "" {
		return []string{column}
	}
	return t.Columns()
}

// ValidateColumn fails with INVALID_COLUMN when name is non-empty and not a
// column of the table. An empty name means "whole table" and always passes.
func (t *Table) ValidateColumn(name string) error {
	if name == "" || t.HasColumn(name) {
		return nil
	}
	return NewErrorDetails(ErrInvalidColumn,
		fmt.Sprintf("Column '%s' not found in dataset", name),
		t.availableColumns())
}

// availableColumns formats the column list for error details.
func (t *Table) availableColumns() string {
	return "Available columns: " + strings.Join(t.names, ", ")
}
