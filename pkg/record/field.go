package record

import (
	"reflect"
	"sync"

	"github.com/TechXTT/dbsession/pkg/internal/typeconv"
)

// ErrTypeMismatch is returned when a column value cannot be stored in its
// destination.
var ErrTypeMismatch = typeconv.ErrTypeMismatch

// Assign stores a raw driver value into the value pointed to by dst, converting
// where it is safe to do so. A nil src stores the zero value.
func Assign(dst any, src any) error { return typeconv.Assign(dst, src) }

// Field describes one member of a record type.
type Field struct {
	Name string
	Get  func() any
	Set  func(v any) error
}

// Fielder is implemented by record types that describe their own members
// instead of relying on struct reflection. Fields is called on a fresh value
// for every row and must return the same names in the same order each time.
type Fielder interface {
	Fields() []Field
}

// Bind returns a Field named name over the variable ptr points to.
func Bind(name string, ptr any) Field {
	return Field{
		Name: name,
		Get:  func() any { return reflect.ValueOf(ptr).Elem().Interface() },
		Set:  func(v any) error { return typeconv.Assign(ptr, v) },
	}
}

// StructField is one mappable member of a plain struct.
type StructField struct {
	Name  string
	Index []int
}

var structCache sync.Map // reflect.Type -> []StructField

// StructFields lists the mappable members of struct type t in declaration
// order: exported fields named by their `db` tag or Go name, with embedded
// structs flattened and `db:"-"` skipped. Earlier names win over later ones.
func StructFields(t reflect.Type) []StructField {
	if v, ok := structCache.Load(t); ok {
		return v.([]StructField)
	}
	var out []StructField
	seen := map[string]bool{}

	var walk func(t reflect.Type, base []int)
	walk = func(t reflect.Type, base []int) {
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			if !sf.IsExported() && !sf.Anonymous {
				continue
			}
			tag := sf.Tag.Get("db")
			if tag == "-" {
				continue
			}
			path := append(append([]int(nil), base...), i)

			if sf.Anonymous && tag == "" {
				ft := sf.Type
				if ft.Kind() == reflect.Pointer {
					ft = ft.Elem()
				}
				if ft.Kind() == reflect.Struct && !isScalarType(ft) {
					walk(ft, path)
					continue
				}
			}
			if !sf.IsExported() {
				continue
			}
			name := tag
			if name == "" {
				name = sf.Name
			}
			if seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, StructField{Name: name, Index: path})
		}
	}
	walk(t, nil)

	structCache.Store(t, out)
	return out
}

// fieldByPath walks path from root, allocating nil embedded pointers on the
// way. The final field is returned as is.
func fieldByPath(root reflect.Value, path []int) reflect.Value {
	v := root
	for n, i := range path {
		if n > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(i)
	}
	return v
}

// fieldByPathRead walks path without allocating; ok is false when an embedded
// pointer on the way is nil.
func fieldByPathRead(root reflect.Value, path []int) (reflect.Value, bool) {
	v := root
	for n, i := range path {
		if n > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
		}
		v = v.Field(i)
	}
	return v, true
}

// FieldsOf returns descriptors for the record v points to (or is): the
// record's own Fields when it is a Fielder, otherwise one per mappable struct
// field. ok is false when v is neither.
func FieldsOf(v any) ([]Field, bool) {
	if f, ok := v.(Fielder); ok {
		return f.Fields(), true
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct || isScalarType(rv.Type()) {
		return nil, false
	}
	if !rv.CanAddr() {
		cp := reflect.New(rv.Type())
		cp.Elem().Set(rv)
		rv = cp.Elem()
	}
	sfs := StructFields(rv.Type())
	out := make([]Field, 0, len(sfs))
	for _, sf := range sfs {
		fv, reachable := fieldByPathRead(rv, sf.Index)
		out = append(out, Field{
			Name: sf.Name,
			Get: func() any {
				if !reachable {
					return nil
				}
				return fv.Interface()
			},
			Set: func(x any) error {
				return typeconv.AssignValue(fieldByPath(rv, sf.Index), x)
			},
		})
	}
	return out, true
}
