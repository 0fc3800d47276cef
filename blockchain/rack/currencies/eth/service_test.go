package eth

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"paygate/blockchain/rack/pool"
	"paygate/pkg/nats/natsdomain"

	"github.com/shopspring/decimal"
)

type fakeEmitter struct {
	records map[string]natsdomain.AllocationRecord // network.identifier
	saveErr error
}

func newFakeEmitter() *fakeEmitter {
	return &fakeEmitter{records: make(map[string]natsdomain.AllocationRecord)}
}

func (f *fakeEmitter) PublishPaymentEvent(event natsdomain.PaymentEventMsg) error { return nil }
func (f *fakeEmitter) WriteWatermark(ctx context.Context, network, position string) error {
	return nil
}
func (f *fakeEmitter) ReadWatermark(ctx context.Context, network string) (string, error) {
	return "", nil
}
func (f *fakeEmitter) Heartbeat(ctx context.Context, network string) error { return nil }

func (f *fakeEmitter) SaveAllocation(ctx context.Context, rec natsdomain.AllocationRecord) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.records[rec.Network+"."+rec.Identifier] = rec
	return nil
}

func (f *fakeEmitter) DeleteAllocation(ctx context.Context, network, identifier string) error {
	delete(f.records, network+"."+identifier)
	return nil
}

func (f *fakeEmitter) ListAllocations(ctx context.Context, network string) ([]natsdomain.AllocationRecord, error) {
	var out []natsdomain.AllocationRecord
	for _, rec := range f.records {
		if rec.Network == network {
			out = append(out, rec)
		}
	}
	return out, nil
}

func TestAllocatePersists(t *testing.T) {
	emitter := newFakeEmitter()
	s := NewService(nil, pool.New([]string{"0xaaa"}), emitter)

	alloc, err := s.Allocate(context.Background(), "inv-1", decimal.NewFromFloat(0.05))
	if err != nil {
		t.Fatal(err)
	}

	rec, ok := emitter.records["eth."+alloc.Identifier]
	if !ok {
		t.Fatal("allocation not persisted")
	}
	if rec.InvoiceId != "inv-1" {
		t.Fatalf("persisted invoice %q, want inv-1", rec.InvoiceId)
	}
}

// an assignment that would vanish on restart must not be handed out
func TestAllocateSaveFailureRollsBack(t *testing.T) {
	emitter := newFakeEmitter()
	emitter.saveErr = errors.New("kv down")
	s := NewService(nil, pool.New([]string{"0xaaa"}), emitter)

	if _, err := s.Allocate(context.Background(), "inv-1", decimal.Zero); err == nil {
		t.Fatal("allocate should fail when persistence fails")
	}

	if s.Pool.FreeCount() != 1 {
		t.Fatal("failed allocation leaked the identifier from the pool")
	}
}

// the watched set survives a node restart through the persisted records
func TestRestoreRehydratesPool(t *testing.T) {
	emitter := newFakeEmitter()

	first := NewService(nil, pool.New([]string{"0xaaa", "0xbbb"}), emitter)
	alloc, err := first.Allocate(context.Background(), "inv-1", decimal.Zero)
	if err != nil {
		t.Fatal(err)
	}

	// fresh process, same pool file
	second := NewService(nil, pool.New([]string{"0xaaa", "0xbbb"}), emitter)
	if err := second.Restore(context.Background()); err != nil {
		t.Fatal(err)
	}

	if !second.Pool.IsWatched(alloc.Identifier) {
		t.Fatal("restored pool is not watching the outstanding identifier")
	}

	// the outstanding identifier must not be handed out again
	other, err := second.Allocate(context.Background(), "inv-2", decimal.Zero)
	if err != nil {
		t.Fatal(err)
	}
	if other.Identifier == alloc.Identifier {
		t.Fatal("restored identifier double-allocated after restart")
	}
}

func TestWeiToEther(t *testing.T) {
	wei, _ := new(big.Int).SetString("1230000000000000000", 10)

	if got := WeiToEther(wei); !got.Equal(decimal.NewFromFloat(1.23)) {
		t.Fatalf("want 1.23, got %s", got)
	}
}

func TestTokenUnitsToDecimal(t *testing.T) {
	if got := TokenUnitsToDecimal(big.NewInt(1500000)); !got.Equal(decimal.NewFromFloat(1.5)) {
		t.Fatalf("want 1.5, got %s", got)
	}
}
