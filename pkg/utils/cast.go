package utils

import (
	"fmt"
	"reflect"
)

var ErrNilParam = fmt.Errorf("cast error: got nil param")

// SafeCast asserts cache values back to their concrete type without the
// panic of a bare type assertion
func SafeCast[T any](param any) (T, error) {
	var zero T

	if param == nil {
		return zero, ErrNilParam
	}

	v, ok := param.(T)
	if !ok {
		return zero, fmt.Errorf("cast error: got type: %s, want type: %s", reflect.TypeOf(param).String(), reflect.TypeOf(zero).String())
	}

	return v, nil
}
