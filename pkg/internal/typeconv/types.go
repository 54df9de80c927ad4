package typeconv

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"
)

// ErrTypeMismatch is returned when a driver value cannot be represented as the
// requested Go type.
var ErrTypeMismatch = errors.New("dbsession: type mismatch")

// timeLayouts are tried in order when text is assigned to a time.Time.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var (
	scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
	timeType    = reflect.TypeOf(time.Time{})
)

// Assign stores src, a value produced by a database driver, into the value
// pointed to by dst. A nil src stores the zero value of the destination.
func Assign(dst any, src any) error {
	if sc, ok := dst.(sql.Scanner); ok {
		return sc.Scan(src)
	}
	dv := reflect.ValueOf(dst)
	if dv.Kind() != reflect.Pointer || dv.IsNil() {
		return fmt.Errorf("%w: destination must be a non-nil pointer, got %T", ErrTypeMismatch, dst)
	}
	return AssignValue(dv.Elem(), src)
}

// AssignValue stores src into the settable value dv.
func AssignValue(dv reflect.Value, src any) error {
	if !dv.CanSet() {
		return fmt.Errorf("%w: destination %s is not settable", ErrTypeMismatch, dv.Type())
	}
	if dv.CanAddr() && dv.Addr().Type().Implements(scannerType) {
		return dv.Addr().Interface().(sql.Scanner).Scan(src)
	}
	if src == nil {
		dv.Set(reflect.Zero(dv.Type()))
		return nil
	}

	switch dv.Kind() {
	case reflect.Pointer:
		elem := reflect.New(dv.Type().Elem())
		if err := AssignValue(elem.Elem(), src); err != nil {
			return err
		}
		dv.Set(elem)
		return nil
	case reflect.Interface:
		sv := reflect.ValueOf(cloneBytes(src))
		if !sv.Type().AssignableTo(dv.Type()) {
			return mismatch(src, dv.Type())
		}
		dv.Set(sv)
		return nil
	}

	sv := reflect.ValueOf(src)
	if sv.Type() == dv.Type() {
		dv.Set(reflect.ValueOf(cloneBytes(src)))
		return nil
	}

	switch dv.Kind() {
	case reflect.String:
		s, ok := asString(src)
		if !ok {
			return mismatch(src, dv.Type())
		}
		dv.SetString(s)
		return nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := asInt(src)
		if !ok || dv.OverflowInt(n) {
			return mismatch(src, dv.Type())
		}
		dv.SetInt(n)
		return nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, ok := asUint(src)
		if !ok || dv.OverflowUint(n) {
			return mismatch(src, dv.Type())
		}
		dv.SetUint(n)
		return nil

	case reflect.Float32, reflect.Float64:
		f, ok := asFloat(src)
		if !ok || dv.OverflowFloat(f) {
			return mismatch(src, dv.Type())
		}
		dv.SetFloat(f)
		return nil

	case reflect.Bool:
		b, ok := asBool(src)
		if !ok {
			return mismatch(src, dv.Type())
		}
		dv.SetBool(b)
		return nil

	case reflect.Slice:
		if dv.Type().Elem().Kind() != reflect.Uint8 {
			break
		}
		switch v := src.(type) {
		case []byte:
			dv.SetBytes(bytes.Clone(v))
			return nil
		case string:
			dv.SetBytes([]byte(v))
			return nil
		}

	case reflect.Struct:
		if !dv.Type().ConvertibleTo(timeType) || !timeType.ConvertibleTo(dv.Type()) {
			break
		}
		t, ok := asTime(src)
		if !ok {
			return mismatch(src, dv.Type())
		}
		dv.Set(reflect.ValueOf(t).Convert(dv.Type()))
		return nil
	}

	if sv.Type().AssignableTo(dv.Type()) {
		dv.Set(sv)
		return nil
	}
	return mismatch(src, dv.Type())
}

func mismatch(src any, t reflect.Type) error {
	return fmt.Errorf("%w: cannot convert %T to %s", ErrTypeMismatch, src, t)
}

func cloneBytes(v any) any {
	if b, ok := v.([]byte); ok {
		return bytes.Clone(b)
	}
	return v
}

func asString(src any) (string, bool) {
	switch v := src.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	case time.Time:
		return v.Format(time.RFC3339Nano), true
	case bool:
		return strconv.FormatBool(v), true
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32), true
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), true
	}
	rv := reflect.ValueOf(src)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.String:
		return rv.String(), true
	}
	return "", false
}

func asInt(src any) (int64, bool) {
	rv := reflect.ValueOf(src)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, false
		}
		return int64(f), true
	case reflect.Bool:
		if rv.Bool() {
			return 1, true
		}
		return 0, true
	}
	if s, ok := textOf(src); ok {
		n, err := strconv.ParseInt(s, 10, 64)
		return n, err == nil
	}
	return 0, false
}

func asUint(src any) (uint64, bool) {
	rv := reflect.ValueOf(src)
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := rv.Int()
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 {
			return 0, false
		}
		return uint64(f), true
	}
	if s, ok := textOf(src); ok {
		n, err := strconv.ParseUint(s, 10, 64)
		return n, err == nil
	}
	return 0, false
}

func asFloat(src any) (float64, bool) {
	rv := reflect.ValueOf(src)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	}
	if s, ok := textOf(src); ok {
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	}
	return 0, false
}

func asBool(src any) (bool, bool) {
	rv := reflect.ValueOf(src)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		switch rv.Int() {
		case 0:
			return false, true
		case 1:
			return true, true
		}
		return false, false
	}
	if s, ok := textOf(src); ok {
		b, err := strconv.ParseBool(s)
		return b, err == nil
	}
	return false, false
}

func asTime(src any) (time.Time, bool) {
	if t, ok := src.(time.Time); ok {
		return t, true
	}
	s, ok := textOf(src)
	if !ok {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// textOf returns the text form of string and []byte values only.
func textOf(src any) (string, bool) {
	switch v := src.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	}
	return "", false
}
