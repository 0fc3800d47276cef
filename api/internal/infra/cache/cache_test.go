package cache

import (
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

func TestSetLoad(t *testing.T) {
	c := InitStorage()

	k := gofakeit.UUID()
	c.Set(k, "value", time.Second)

	if v := c.Load(k); v != "value" {
		t.Fatalf("want value, got %v", v)
	}

	time.Sleep(1200 * time.Millisecond)

	if v := c.Load(k); v != nil {
		t.Fatalf("expired key still present: %v", v)
	}
}

func TestSetNoExp(t *testing.T) {
	c := InitStorage()

	k := gofakeit.UUID()
	c.SetNoExp(k, "locked")

	time.Sleep(100 * time.Millisecond)

	if v := c.Load(k); v != "locked" {
		t.Fatalf("want locked, got %v", v)
	}

	c.Del(k)
	if v := c.Load(k); v != nil {
		t.Fatal("deleted key still present")
	}
}
