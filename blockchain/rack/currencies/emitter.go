package currencies

import (
	"context"

	"paygate/pkg/nats/natsdomain"
)

// Emitter is the sink every network watcher writes into. One implementation
// lives on the nats side, the watchers only see this
type Emitter interface {
	PublishPaymentEvent(event natsdomain.PaymentEventMsg) error
	WriteWatermark(ctx context.Context, network string, position string) error
	ReadWatermark(ctx context.Context, network string) (string, error)
	Heartbeat(ctx context.Context, network string) error

	// allocation durability. the watched set has to survive a node restart
	// or payments to outstanding invoices are never observed
	SaveAllocation(ctx context.Context, rec natsdomain.AllocationRecord) error
	DeleteAllocation(ctx context.Context, network string, identifier string) error
	ListAllocations(ctx context.Context, network string) ([]natsdomain.AllocationRecord, error)
}
