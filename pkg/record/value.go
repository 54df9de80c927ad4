// Package record maps result rows into Go values.
//
// Two result shapes are supported. A dynamic Row keeps every column as a
// Value, an ordered name -> value mapping where SQL NULL stays a null marker.
// A typed record is any struct (or Fielder) whose fields are populated by
// exact column-name match, with NULL becoming the field's zero value.
package record

import (
	"bytes"
	"fmt"
	"reflect"
	"strconv"
	"time"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindText
	KindBytes
	KindBool
	KindTime
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindBytes:
		return "bytes"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	default:
		return "other"
	}
}

// Value is a single column value of a dynamic Row.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	b    []byte
	t    time.Time
	x    any
}

// Null is the null marker.
var Null = Value{}

func Int(v int64) Value      { return Value{kind: KindInt, i: v} }
func Float(v float64) Value  { return Value{kind: KindFloat, f: v} }
func Text(v string) Value    { return Value{kind: KindText, s: v} }
func Bytes(v []byte) Value   { return Value{kind: KindBytes, b: v} }
func Time(v time.Time) Value { return Value{kind: KindTime, t: v} }
func Other(v any) Value      { return Value{kind: KindOther, x: v} }

func Bool(v bool) Value {
	if v {
		return Value{kind: KindBool, i: 1}
	}
	return Value{kind: KindBool}
}

// ValueOf classifies a raw driver value.
func ValueOf(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null
	case int64:
		return Int(x)
	case int:
		return Int(int64(x))
	case int32:
		return Int(int64(x))
	case int16:
		return Int(int64(x))
	case int8:
		return Int(int64(x))
	case uint32:
		return Int(int64(x))
	case uint16:
		return Int(int64(x))
	case uint8:
		return Int(int64(x))
	case float64:
		return Float(x)
	case float32:
		return Float(float64(x))
	case string:
		return Text(x)
	case []byte:
		return Bytes(bytes.Clone(x))
	case bool:
		return Bool(x)
	case time.Time:
		return Time(x)
	default:
		return Other(x)
	}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Int() (int64, bool)      { return v.i, v.kind == KindInt }
func (v Value) Float() (float64, bool)  { return v.f, v.kind == KindFloat }
func (v Value) Text() (string, bool)    { return v.s, v.kind == KindText }
func (v Value) Bytes() ([]byte, bool)   { return v.b, v.kind == KindBytes }
func (v Value) Bool() (bool, bool)      { return v.i != 0, v.kind == KindBool }
func (v Value) Time() (time.Time, bool) { return v.t, v.kind == KindTime }

// Any returns the value as a plain Go value; nil for the null marker.
func (v Value) Any() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindText:
		return v.s
	case KindBytes:
		return v.b
	case KindBool:
		return v.i != 0
	case KindTime:
		return v.t
	case KindOther:
		return v.x
	default:
		return nil
	}
}

// String renders the value for display. NULL renders as "NULL".
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "NULL"
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindText:
		return v.s
	case KindBytes:
		return string(v.b)
	case KindBool:
		return strconv.FormatBool(v.i != 0)
	case KindTime:
		return v.t.Format(time.RFC3339Nano)
	default:
		return fmt.Sprintf("%v", v.x)
	}
}

// Equal reports whether two values hold the same variant and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindInt, KindBool:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindText:
		return v.s == o.s
	case KindBytes:
		return bytes.Equal(v.b, o.b)
	case KindTime:
		return v.t.Equal(o.t)
	default:
		return reflect.DeepEqual(v.x, o.x)
	}
}
