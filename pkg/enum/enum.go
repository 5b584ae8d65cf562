package enum

import (
	"fmt"
	"reflect"
)

var registry = map[string]any{}

type enum[T comparable] struct {
	values map[string]T
}

// New registers a value of a string-based enum type and returns it. It is
// intended to be called at package initialization, so registration is not
// synchronized.
func New[T comparable](value T) T {
	v := reflect.ValueOf(value)
	name := v.Type().Name()
	if _, ok := registry[name]; !ok {
		registry[name] = enum[T]{values: make(map[string]T)}
	}

	registry[name].(enum[T]).values[v.String()] = value
	return value
}

func ToEnum[T comparable](s string) (T, error) {
	var zero T
	e, ok := registry[reflect.TypeOf(zero).Name()]
	if !ok {
		return zero, fmt.Errorf("not found enum type %T", zero)
	}

	value, ok := e.(enum[T]).values[s]
	if !ok {
		return zero, fmt.Errorf("not found value %s in enum %T", s, zero)
	}

	return value, nil
}
