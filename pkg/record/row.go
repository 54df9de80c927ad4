package record

import (
	"bytes"
	"encoding/json"
)

// Row is one dynamic result record: column names in result order, each with
// its Value. Rows produced by the same query share the column slice.
type Row struct {
	columns []string
	values  []Value
}

// NewRow pairs columns with values. Both slices are used as given.
func NewRow(columns []string, values []Value) Row {
	return Row{columns: columns, values: values}
}

// RowOf builds a Row from raw driver values.
func RowOf(columns []string, raw []any) Row {
	vals := make([]Value, len(raw))
	for i, v := range raw {
		vals[i] = ValueOf(v)
	}
	return Row{columns: columns, values: vals}
}

func (r Row) Len() int { return len(r.values) }

// Columns returns a copy of the column names in result order.
func (r Row) Columns() []string { return append([]string(nil), r.columns...) }

// Values returns a copy of the values in column order.
func (r Row) Values() []Value { return append([]Value(nil), r.values...) }

// At returns the i-th value. It panics if i is out of range.
func (r Row) At(i int) Value { return r.values[i] }

// Get returns the value of the first column named name.
func (r Row) Get(name string) (Value, bool) {
	for i, c := range r.columns {
		if c == name {
			return r.values[i], true
		}
	}
	return Null, false
}

// Map returns the row as plain Go values keyed by column. Column order is lost.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.columns))
	for i, c := range r.columns {
		if _, dup := m[c]; !dup {
			m[c] = r.values[i].Any()
		}
	}
	return m
}

// Equal reports whether both rows have the same columns and values in order.
func (r Row) Equal(o Row) bool {
	if len(r.columns) != len(o.columns) || len(r.values) != len(o.values) {
		return false
	}
	for i := range r.columns {
		if r.columns[i] != o.columns[i] {
			return false
		}
	}
	for i := range r.values {
		if !r.values[i].Equal(o.values[i]) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the row as an object with keys in column order.
// Bytes are rendered as text.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')

		v := r.values[i].Any()
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		enc, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(enc)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
