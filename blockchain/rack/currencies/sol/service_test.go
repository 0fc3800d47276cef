package sol

import (
	"context"
	"slices"
	"testing"

	"paygate/pkg/nats/natsdomain"

	"github.com/shopspring/decimal"
)

type fakeEmitter struct {
	records map[string]natsdomain.AllocationRecord
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

// generated wallets only exist in memory, the watched set has to come back
// from the persisted records or payments after a restart go unseen
func TestRestoreRehydratesWatched(t *testing.T) {
	emitter := newFakeEmitter()

	first := NewService(emitter)
	alloc, err := first.Allocate(context.Background(), "inv-1", decimal.Zero)
	if err != nil {
		t.Fatal(err)
	}

	second := NewService(emitter)
	if err := second.Restore(context.Background()); err != nil {
		t.Fatal(err)
	}

	if !slices.Contains(second.Watched(), alloc.Identifier) {
		t.Fatal("restored service is not watching the outstanding address")
	}
}

func TestReleaseDropsRecord(t *testing.T) {
	emitter := newFakeEmitter()

	s := NewService(emitter)
	alloc, err := s.Allocate(context.Background(), "inv-1", decimal.Zero)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Release(alloc.Identifier); err != nil {
		t.Fatal(err)
	}

	recs, err := emitter.ListAllocations(context.Background(), "sol")
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 0 {
		t.Fatalf("released allocation still persisted: %v", recs)
	}
}
