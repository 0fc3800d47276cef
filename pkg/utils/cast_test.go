package utils

import (
	"errors"
	"testing"
)

func TestSafeCast(t *testing.T) {
	cast, err := SafeCast[int](12334)
	if err != nil {
		t.Fatal(err)
	}
	if cast != 12334 {
		t.Fatalf("want 12334, got %d", cast)
	}

	if _, err = SafeCast[string](nil); !errors.Is(err, ErrNilParam) {
		t.Fatalf("want ErrNilParam, got %v", err)
	}

	if _, err = SafeCast[string](42); err == nil {
		t.Fatal("cross-type cast succeeded")
	}
}
