package record

import (
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/TechXTT/dbsession/pkg/internal/typeconv"
)

var (
	rowType     = reflect.TypeOf(Row{})
	timeType    = reflect.TypeOf(time.Time{})
	scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
)

// ErrInconsistentFields is returned when a Fielder reports different
// descriptors for two instances of the same type.
var ErrInconsistentFields = errors.New("record: Fields returned inconsistent descriptors")

type planKind uint8

const (
	planRow     planKind = iota // dynamic Row
	planFielder                 // T describes its own fields
	planStruct                  // reflected struct fields
	planScalar                  // single value column
)

// Plan maps rows of one result shape into T. Columns are resolved against the
// record's fields once, when the plan is built, and reused for every row.
type Plan[T any] struct {
	columns []string
	kind    planKind
	base    reflect.Type // T with one pointer layer removed
	ptr     bool         // T is *base
	nfields int          // planFielder: descriptor count
	targets []int        // planFielder: column -> descriptor index, -1 drops
	paths   [][]int      // planStruct: column -> field index path, nil drops
}

// NewPlan resolves how each of columns maps into T.
//
// T == Row or *Row keeps every column. A T that implements Fielder (directly or
// through its pointer) uses its own descriptors. Any other struct is reflected,
// see StructFields, and must have at least one mappable field. Non-struct
// types, time.Time and sql.Scanner implementations take a single column.
func NewPlan[T any](columns []string) (*Plan[T], error) {
	rt := reflect.TypeOf((*T)(nil)).Elem()
	p := &Plan[T]{columns: columns, base: rt}
	if rt.Kind() == reflect.Pointer {
		p.base = rt.Elem()
		p.ptr = true
	}
	if p.base == rowType {
		p.kind = planRow
		return p, nil
	}

	if f, ok := reflect.New(p.base).Interface().(Fielder); ok {
		fields := f.Fields()
		byName := make(map[string]int, len(fields))
		for i, fd := range fields {
			if _, dup := byName[fd.Name]; !dup {
				byName[fd.Name] = i
			}
		}
		p.kind = planFielder
		p.nfields = len(fields)
		p.targets = make([]int, len(columns))
		for i, c := range columns {
			idx, ok := byName[c]
			if !ok {
				idx = -1
			}
			p.targets[i] = idx
		}
		return p, nil
	}

	if p.base.Kind() == reflect.Struct && !isScalarType(p.base) {
		sfs := StructFields(p.base)
		if len(sfs) == 0 {
			return nil, fmt.Errorf("record: %s has no mappable fields", rt)
		}
		byName := map[string][]int{}
		for _, sf := range sfs {
			byName[sf.Name] = sf.Index
		}
		p.kind = planStruct
		p.paths = make([][]int, len(columns))
		for i, c := range columns {
			p.paths[i] = byName[c]
		}
		return p, nil
	}

	if len(columns) != 1 {
		return nil, fmt.Errorf("record: cannot map %d columns into %s; use a struct", len(columns), rt)
	}
	p.kind = planScalar
	return p, nil
}

// Columns returns the result columns the plan was built for.
func (p *Plan[T]) Columns() []string { return p.columns }

// Map builds one record from a row of raw driver values, one per column.
func (p *Plan[T]) Map(raw []any) (T, error) {
	var zero T
	if len(raw) != len(p.columns) {
		return zero, fmt.Errorf("record: got %d values for %d columns", len(raw), len(p.columns))
	}

	if p.kind == planRow {
		r := RowOf(p.columns, raw)
		if p.ptr {
			return any(&r).(T), nil
		}
		return any(r).(T), nil
	}

	if p.kind == planScalar {
		var out T
		if err := typeconv.Assign(&out, raw[0]); err != nil {
			return zero, fmt.Errorf("record: column %q: %w", p.columns[0], err)
		}
		return out, nil
	}

	pv := reflect.New(p.base)
	switch p.kind {
	case planFielder:
		fields := pv.Interface().(Fielder).Fields()
		if len(fields) != p.nfields {
			return zero, ErrInconsistentFields
		}
		for i, idx := range p.targets {
			if idx < 0 {
				continue
			}
			if err := fields[idx].Set(raw[i]); err != nil {
				return zero, fmt.Errorf("record: column %q: %w", p.columns[i], err)
			}
		}
	case planStruct:
		root := pv.Elem()
		for i, path := range p.paths {
			if path == nil {
				continue
			}
			if err := typeconv.AssignValue(fieldByPath(root, path), raw[i]); err != nil {
				return zero, fmt.Errorf("record: column %q: %w", p.columns[i], err)
			}
		}
	}

	if p.ptr {
		return pv.Interface().(T), nil
	}
	return pv.Elem().Interface().(T), nil
}

// isScalarType reports whether a struct type is treated as one value rather
// than a set of fields.
func isScalarType(t reflect.Type) bool {
	return t == timeType || reflect.PointerTo(t).Implements(scannerType)
}
