package serializer

import (
	"encoding"
	"encoding/json"
	"reflect"
	"sync"
	"sync/atomic"
)

// ConverterFunc converts a single value into a JSON-representable form. The
// input is guaranteed to have the exact type the function was registered for.
type ConverterFunc func(v any) (any, error)

// Registry dispatches values to converters by exact runtime type.
//
// The converter table is published through an atomic pointer: Convert reads it
// without locking, Register replaces it wholesale under a mutex (copy on
// write). Registration is process-wide; registering a converter for a type
// that already has one replaces the previous entry, last write wins.
type Registry struct {
	mu    sync.Mutex
	table atomic.Pointer[map[reflect.Type]ConverterFunc]
}

// NewRegistry returns a registry pre-populated with the built-in converters
// for dense matrices, dataframes, timestamps, and json.Number.
func NewRegistry() *Registry {
	r := &Registry{}
	empty := map[reflect.Type]ConverterFunc{}
	r.table.Store(&empty)
	for t, fn := range r.builtins() {
		r.Register(t, fn)
	}
	return r
}

// Register associates fn with the exact runtime type t.
func (r *Registry) Register(t reflect.Type, fn ConverterFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := *r.table.Load()
	next := make(map[reflect.Type]ConverterFunc, len(current)+1)
	for key, value := range current {
		next[key] = value
	}
	next[t] = fn
	r.table.Store(&next)
}

// Convert returns a JSON-representable form of v: a nested combination of
// nil, booleans, numbers, strings, []any, and map[string]any, plus values
// encoding/json already handles. Exact registered types win over the generic
// traversal; pointers and interfaces are unwrapped before falling through.
// Convert never mutates its input.
func (r *Registry) Convert(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return r.convert(*r.table.Load(), reflect.ValueOf(v))
}

// Marshal converts v and encodes the result as JSON.
func (r *Registry) Marshal(v any) ([]byte, error) {
	converted, err := r.Convert(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(converted)
}

func (r *Registry) convert(table map[reflect.Type]ConverterFunc, rv reflect.Value) (any, error) {
	// Nil pointers and interfaces encode as null, never reach a converter.
	if (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) && rv.IsNil() {
		return nil, nil
	}

	if fn, ok := table[rv.Type()]; ok {
		return fn(rv.Interface())
	}

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return r.convert(table, rv.Elem())

	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return rv.Interface(), nil

	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			converted, err := r.convert(table, rv.Index(i))
			if err != nil {
				return nil, err
			}
			out[i] = converted
		}
		return out, nil

	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, &UnsupportedTypeError{Type: rv.Type()}
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			converted, err := r.convert(table, iter.Value())
			if err != nil {
				return nil, err
			}
			out[iter.Key().String()] = converted
		}
		return out, nil

	default:
		// Structs and everything else must already be encodable by the
		// default encoder. A struct with no exported fields and no marshaler
		// would silently encode as {}, so it is rejected instead.
		value := rv.Interface()
		if rv.Kind() == reflect.Struct && !structEncodable(rv.Type()) {
			return nil, &UnsupportedTypeError{Type: rv.Type()}
		}
		if _, err := json.Marshal(value); err != nil {
			return nil, &UnsupportedTypeError{Type: rv.Type()}
		}
		return value, nil
	}
}

var (
	jsonMarshalerType = reflect.TypeOf((*json.Marshaler)(nil)).Elem()
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
)

// structEncodable reports whether the default encoder can produce meaningful
// output for a struct type: at least one exported field, or a marshaler
// implementation.
func structEncodable(t reflect.Type) bool {
	if t.Implements(jsonMarshalerType) || t.Implements(textMarshalerType) {
		return true
	}
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).IsExported() {
			return true
		}
	}
	return false
}
