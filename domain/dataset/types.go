package dataset

import (
	"fmt"
	"math"
)

// IndexColumn is the name of the per-row join key carried through every stage
const IndexColumn = "index"

// LabelColumn is the name of the cluster assignment column on clustered tables
const LabelColumn = "cluster labels"

// ColumnKind is the storage kind of a column, inferred when a dataset is loaded
type ColumnKind string

const (
	KindNumeric ColumnKind = "numeric"
	KindText    ColumnKind = "text"
)

// Column holds one named column. Exactly one of Numbers or Texts is populated,
// according to Kind.
type Column struct {
	Name    string     `json:"name"`
	Kind    ColumnKind `json:"kind"`
	Numbers []float64  `json:"numbers,omitempty"`
	Texts   []string   `json:"texts,omitempty"`
}

// NumericColumn builds a numeric column
func NumericColumn(name string, values []float64) Column {
	return Column{Name: name, Kind: KindNumeric, Numbers: values}
}

// TextColumn builds a text column
func TextColumn(name string, values []string) Column {
	return Column{Name: name, Kind: KindText, Texts: values}
}

// Len returns the number of cells in the column
func (c Column) Len() int {
	if c.Kind == KindText {
		return len(c.Texts)
	}
	return len(c.Numbers)
}

// Cell returns the value at row i as an interface suitable for JSON rendering
func (c Column) Cell(i int) interface{} {
	if c.Kind == KindText {
		return c.Texts[i]
	}
	return c.Numbers[i]
}

// Table is a row-indexed set of columns. Index holds the integer join key of each
// row and is never part of Columns. Tables are treated as immutable once built;
// every pipeline stage returns a new Table.
type Table struct {
	Index   []int    `json:"index"`
	Columns []Column `json:"columns"`
}

// Rows returns the number of rows
func (t *Table) Rows() int {
	return len(t.Index)
}

// Names returns the column names in order
func (t *Table) Names() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column finds a column by name
func (t *Table) Column(name string) (*Column, bool) {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

// Validate checks that every column matches the index length and that index values are unique
func (t *Table) Validate() error {
	seen := make(map[int]struct{}, len(t.Index))
	for _, idx := range t.Index {
		if _, dup := seen[idx]; dup {
			return fmt.Errorf("duplicate index value %d", idx)
		}
		seen[idx] = struct{}{}
	}
	names := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		if c.Name == IndexColumn {
			return fmt.Errorf("column %q is reserved for the index", IndexColumn)
		}
		if _, dup := names[c.Name]; dup {
			return fmt.Errorf("duplicate column name %q", c.Name)
		}
		names[c.Name] = struct{}{}
		if c.Len() != len(t.Index) {
			return fmt.Errorf("column %q has %d values, expected %d", c.Name, c.Len(), len(t.Index))
		}
	}
	return nil
}

// SelectRows returns a new table holding the rows at the given positions, in that order
func (t *Table) SelectRows(positions []int) Table {
	out := Table{
		Index:   make([]int, len(positions)),
		Columns: make([]Column, len(t.Columns)),
	}
	for i, p := range positions {
		out.Index[i] = t.Index[p]
	}
	for j, c := range t.Columns {
		nc := Column{Name: c.Name, Kind: c.Kind}
		if c.Kind == KindText {
			nc.Texts = make([]string, len(positions))
			for i, p := range positions {
				nc.Texts[i] = c.Texts[p]
			}
		} else {
			nc.Numbers = make([]float64, len(positions))
			for i, p := range positions {
				nc.Numbers[i] = c.Numbers[p]
			}
		}
		out.Columns[j] = nc
	}
	return out
}

// Positions maps index values to row positions
func (t *Table) Positions() map[int]int {
	pos := make(map[int]int, len(t.Index))
	for i, idx := range t.Index {
		pos[idx] = i
	}
	return pos
}

// Records renders up to limit rows (0 means all) as maps keyed by column name, with
// the index first. Numbers are rounded to the given number of decimals when decimals >= 0.
func (t *Table) Records(limit, decimals int) []map[string]interface{} {
	n := t.Rows()
	if limit > 0 && limit < n {
		n = limit
	}
	records := make([]map[string]interface{}, n)
	for i := 0; i < n; i++ {
		rec := make(map[string]interface{}, len(t.Columns)+1)
		rec[IndexColumn] = t.Index[i]
		for _, c := range t.Columns {
			if c.Kind == KindNumeric && decimals >= 0 {
				rec[c.Name] = Round(c.Numbers[i], decimals)
			} else {
				rec[c.Name] = c.Cell(i)
			}
		}
		records[i] = rec
	}
	return records
}

// Round rounds half away from zero to the given number of decimals
func Round(v float64, decimals int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
