package nats

import (
	"context"
	"encoding/json"
	"paygate/pkg/dlog"
	"paygate/pkg/nats/natsdomain"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"
)

type fakeAllocator struct {
	invoiceId string
	amount    decimal.Decimal
	released  string
	err       error
}

func (f *fakeAllocator) Allocate(ctx context.Context, invoiceId string, amount decimal.Decimal) (*Allocation, error) {
	f.invoiceId = invoiceId
	f.amount = amount
	if f.err != nil {
		return nil, f.err
	}
	return &Allocation{Identifier: "0xabc"}, nil
}

func (f *fakeAllocator) Release(identifier string) error {
	f.released = identifier
	return nil
}

func allocateMsg(t *testing.T, network, invoiceId string) *nats.Msg {
	t.Helper()

	data, err := json.Marshal(natsdomain.ReqAllocate{
		Network:   network,
		InvoiceId: invoiceId,
		Amount:    decimal.NewFromFloat(0.05),
	})
	if err != nil {
		t.Fatal(err)
	}
	return &nats.Msg{Data: data}
}

func TestAllocateHandler(t *testing.T) {
	fake := &fakeAllocator{}
	app := App{
		Allocators: map[string]Allocator{"eth": fake},
		Dlog:       dlog.Init(),
	}

	// respond fails on a detached msg, the handler only logs that
	app.AllocateHandler(allocateMsg(t, "eth", "inv-1"))

	if fake.invoiceId != "inv-1" {
		t.Errorf("allocator got invoice %q, want inv-1", fake.invoiceId)
	}
	if !fake.amount.Equal(decimal.NewFromFloat(0.05)) {
		t.Errorf("allocator got amount %s, want 0.05", fake.amount)
	}
}

func TestAllocateHandlerUnknownNetwork(t *testing.T) {
	fake := &fakeAllocator{}
	app := App{
		Allocators: map[string]Allocator{"eth": fake},
		Dlog:       dlog.Init(),
	}

	app.AllocateHandler(allocateMsg(t, "doge", "inv-1"))

	if fake.invoiceId != "" {
		t.Errorf("allocator called for unknown network")
	}
}

func TestReleaseHandler(t *testing.T) {
	fake := &fakeAllocator{}
	app := App{
		Allocators: map[string]Allocator{"eth": fake},
		Dlog:       dlog.Init(),
	}

	data, err := json.Marshal(natsdomain.ReqRelease{Network: "eth", Identifier: "0xabc"})
	if err != nil {
		t.Fatal(err)
	}
	app.ReleaseHandler(&nats.Msg{Data: data})

	if fake.released != "0xabc" {
		t.Errorf("released %q, want 0xabc", fake.released)
	}
}

func TestContributeInputHandlerNoContributor(t *testing.T) {
	app := App{Dlog: dlog.Init()}

	data, err := json.Marshal(natsdomain.ReqContributeInput{InvoiceId: "inv-1"})
	if err != nil {
		t.Fatal(err)
	}

	// must not panic without a utxo wallet wired in
	app.ContributeInputHandler(&nats.Msg{Data: data})
}
