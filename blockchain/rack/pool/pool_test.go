package pool

import (
	"errors"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
)

func TestAllocateRelease(t *testing.T) {
	p := New([]string{"a", "b"})

	first, err := p.Allocate("inv-1")
	if err != nil {
		t.Fatal(err)
	}

	if !p.IsWatched(first) {
		t.Fatalf("%s should be watched", first)
	}

	second, err := p.Allocate("inv-2")
	if err != nil {
		t.Fatal(err)
	}

	if first == second {
		t.Fatal("two invoices got the same identifier")
	}

	_, err = p.Allocate("inv-3")
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("want ErrExhausted, got %v", err)
	}

	if !p.Release(first) {
		t.Fatal("release should succeed")
	}

	if p.IsWatched(first) {
		t.Fatalf("%s should not be watched after release", first)
	}

	third, err := p.Allocate("inv-3")
	if err != nil {
		t.Fatal(err)
	}
	if third != first {
		t.Fatalf("released identifier should be handed out again, got %s", third)
	}
}

func TestAllocateSameInvoice(t *testing.T) {
	p := New([]string{gofakeit.BitcoinAddress()})

	invoiceId := gofakeit.UUID()

	first, err := p.Allocate(invoiceId)
	if err != nil {
		t.Fatal(err)
	}

	// second network on the same invoice shares the address
	second, err := p.Allocate(invoiceId)
	if err != nil {
		t.Fatal(err)
	}

	if first != second {
		t.Fatalf("same invoice got different identifiers: %s vs %s", first, second)
	}

	if p.FreeCount() != 0 {
		t.Fatal("shared allocation should consume one identifier")
	}
}

// a restart rehydrates assignments from KV. the restored identifier must
// leave the free list or a second invoice would get an address someone is
// already paying into
func TestRestore(t *testing.T) {
	p := New([]string{"a", "b"})

	p.Restore("inv-1", "b")

	if !p.IsWatched("b") {
		t.Fatal("restored identifier should be watched")
	}
	if p.FreeCount() != 1 {
		t.Fatalf("restored identifier still free, count %d", p.FreeCount())
	}

	// the shared eth/erc20 pool restores the same pair twice
	p.Restore("inv-1", "b")
	if p.FreeCount() != 1 {
		t.Fatal("double restore consumed a second identifier")
	}

	got, err := p.Allocate("inv-2")
	if err != nil {
		t.Fatal(err)
	}
	if got == "b" {
		t.Fatal("restored identifier handed out to another invoice")
	}

	// the restored invoice keeps its identifier
	same, err := p.Allocate("inv-1")
	if err != nil {
		t.Fatal(err)
	}
	if same != "b" {
		t.Fatalf("restored invoice got %s, want b", same)
	}
}

func TestReleaseUnknown(t *testing.T) {
	p := New([]string{"a"})

	if p.Release("unknown") {
		t.Fatal("release of an unknown identifier should fail")
	}
}
