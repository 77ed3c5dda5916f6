package nasa

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Table is a column-labeled view of a close-approach response. Rows are
// labeled by their position, starting at 0. Values keep the types the JSON
// decoder produced.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]any
}

// NewTable pairs rows with column labels. Every row must have exactly one
// value per column.
func NewTable(columns []string, rows [][]any) (*Table, error) {
	t := &Table{
		columns: append([]string(nil), columns...),
		index:   make(map[string]int, len(columns)),
		rows:    make([][]any, 0, len(rows)),
	}
	for i, c := range columns {
		if _, dup := t.index[c]; dup {
			return nil, fmt.Errorf("duplicate column %q", c)
		}
		t.index[c] = i
	}
	for i, r := range rows {
		if len(r) != len(columns) {
			return nil, fmt.Errorf("row %d has %d values, want %d", i, len(r), len(columns))
		}
		t.rows = append(t.rows, append([]any(nil), r...))
	}
	return t, nil
}

// TableFromResult builds a Table from the "fields" and "data" members of a
// decoded response. A response without "data" (count 0) yields an empty
// table.
func TableFromResult(result map[string]any) (*Table, error) {
	rawFields, ok := result["fields"].([]any)
	if !ok {
		return nil, errors.New(`response has no "fields" array`)
	}
	columns := make([]string, len(rawFields))
	for i, f := range rawFields {
		s, ok := f.(string)
		if !ok {
			return nil, fmt.Errorf("field %d is %T, want string", i, f)
		}
		columns[i] = s
	}

	var rows [][]any
	if rawData, present := result["data"]; present && rawData != nil {
		data, ok := rawData.([]any)
		if !ok {
			return nil, fmt.Errorf(`response "data" is %T, want array`, rawData)
		}
		rows = make([][]any, len(data))
		for i, r := range data {
			row, ok := r.([]any)
			if !ok {
				return nil, fmt.Errorf("data row %d is %T, want array", i, r)
			}
			rows[i] = row
		}
	}
	return NewTable(columns, rows)
}

// Columns returns the column labels in order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Row returns row i, or nil when out of range.
func (t *Table) Row(i int) []any {
	if i < 0 || i >= len(t.rows) {
		return nil
	}
	return append([]any(nil), t.rows[i]...)
}

// Rows returns all rows.
func (t *Table) Rows() [][]any {
	out := make([][]any, len(t.rows))
	for i := range t.rows {
		out[i] = t.Row(i)
	}
	return out
}

// Value returns the cell at row i, column col.
func (t *Table) Value(i int, col string) (any, bool) {
	j, ok := t.index[col]
	if !ok || i < 0 || i >= len(t.rows) {
		return nil, false
	}
	return t.rows[i][j], true
}

// Column returns all values of col.
func (t *Table) Column(col string) ([]any, error) {
	j, ok := t.index[col]
	if !ok {
		return nil, fmt.Errorf("no column %q", col)
	}
	out := make([]any, len(t.rows))
	for i, r := range t.rows {
		out[i] = r[j]
	}
	return out, nil
}

// Record returns row i keyed by column.
func (t *Table) Record(i int) Record {
	if i < 0 || i >= len(t.rows) {
		return nil
	}
	rec := make(Record, len(t.columns))
	for j, c := range t.columns {
		rec[c] = t.rows[i][j]
	}
	return rec
}

// Records returns every row keyed by column.
func (t *Table) Records() []Record {
	out := make([]Record, len(t.rows))
	for i := range t.rows {
		out[i] = t.Record(i)
	}
	return out
}

// WriteTo renders the table as aligned text with the row label in the first
// column. nil cells print as empty.
func (t *Table) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	tw := tabwriter.NewWriter(cw, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "\t%s\n", strings.Join(t.columns, "\t"))
	for i, r := range t.rows {
		cells := make([]string, len(r))
		for j, v := range r {
			if v != nil {
				cells[j] = fmt.Sprint(v)
			}
		}
		fmt.Fprintf(tw, "%d\t%s\n", i, strings.Join(cells, "\t"))
	}
	err := tw.Flush()
	return cw.n, err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
