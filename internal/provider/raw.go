package provider

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"stockdaq/internal/apperror"
	"stockdaq/internal/model"
)

// RawTable is a vendor table: one time index and named numeric columns of the same length.
// Column names and units are source defined.
type RawTable struct {
	Source  string
	Index   []time.Time
	Columns map[string][]float64
	names   []string
}

// NewRawTable creates an empty table with the given column names.
func NewRawTable(source string, names ...string) *RawTable {
	t := &RawTable{Source: source, Columns: make(map[string][]float64, len(names)), names: names}
	for _, n := range names {
		t.Columns[n] = nil
	}
	return t
}

// Add appends one row; values follow the column order given to NewRawTable.
func (t *RawTable) Add(ts time.Time, values ...float64) {
	t.Index = append(t.Index, ts)
	for i, n := range t.names {
		var v float64
		if i < len(values) {
			v = values[i]
		}
		t.Columns[n] = append(t.Columns[n], v)
	}
}

// Len returns the number of rows.
func (t *RawTable) Len() int { return len(t.Index) }

// ColumnMap names the source columns holding open, high, low, close and volume.
type ColumnMap [5]string

// Format converts raw into a canonical table: zones stripped, rows sorted ascending by wall
// clock, one row per timestamp, columns picked through cols. When two instants share a wall
// clock (the repeated hour at a DST fall-back) the earlier instant wins.
// A missing or ragged column fails with SchemaMismatch.
func Format(raw *RawTable, cols ColumnMap) (model.Table, error) {
	if raw == nil {
		return nil, apperror.New(apperror.SchemaMismatch, "no table to format")
	}
	var src [5][]float64
	for i, name := range cols {
		col, ok := raw.Columns[name]
		if !ok {
			return nil, apperror.New(apperror.SchemaMismatch, "%s: missing column %q for %s", raw.Source, name, model.Columns[i])
		}
		if len(col) != len(raw.Index) {
			return nil, apperror.New(apperror.SchemaMismatch, "%s: column %q has %d rows, index has %d", raw.Source, name, len(col), len(raw.Index))
		}
		src[i] = col
	}

	order := make([]int, len(raw.Index))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return raw.Index[order[a]].Before(raw.Index[order[b]]) })

	t := make(model.Table, len(order))
	for i, j := range order {
		t[i] = model.Record{
			Time:   model.Naive(raw.Index[j]),
			Open:   src[0][j],
			High:   src[1][j],
			Low:    src[2][j],
			Close:  src[3][j],
			Volume: src[4][j],
		}
	}
	t.Sort()
	return t.Dedup(), nil
}

// String summarizes the table for logs.
func (t *RawTable) String() string {
	if t.Len() == 0 {
		return fmt.Sprintf("%s: empty", t.Source)
	}
	first := slices.MinFunc(t.Index, func(a, b time.Time) int { return a.Compare(b) })
	last := slices.MaxFunc(t.Index, func(a, b time.Time) int { return a.Compare(b) })
	return fmt.Sprintf("%s: %d rows %s..%s", t.Source, t.Len(), first.Format(time.RFC3339), last.Format(time.RFC3339))
}
