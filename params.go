package dbsession

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/TechXTT/dbsession/internal/bind"
	"github.com/TechXTT/dbsession/pkg/record"
)

// Param is one named command parameter. Its Name is referenced in command
// text as @Name. A nil Value, or a nil pointer, binds as SQL NULL.
type Param = bind.Param

// Named returns a Param.
func Named(name string, value any) Param {
	return Param{Name: name, Value: value}
}

// ParamsOf derives parameters from v:
//
//   - nil or a nil pointer: no parameters
//   - []Param: returned as is
//   - map[string]any: one parameter per key, sorted by key
//   - a record.Fielder: one parameter per descriptor
//   - a struct or pointer to struct: one parameter per exported field, named
//     by its `db` tag when set, embedded structs flattened
func ParamsOf(v any) ([]Param, error) {
	if v == nil {
		return nil, nil
	}
	switch m := v.(type) {
	case []Param:
		return m, nil
	case map[string]any:
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]Param, 0, len(keys))
		for _, k := range keys {
			out = append(out, Param{Name: k, Value: m[k]})
		}
		return out, nil
	}

	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil, nil
	}
	fields, ok := record.FieldsOf(v)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedParams, v)
	}
	out := make([]Param, 0, len(fields))
	for _, f := range fields {
		out = append(out, Param{Name: f.Name, Value: f.Get()})
	}
	return out, nil
}

// MustParams is like ParamsOf but panics on error. It is meant for literals
// whose shape is known at compile time.
func MustParams(v any) []Param {
	p, err := ParamsOf(v)
	if err != nil {
		panic(err)
	}
	return p
}
