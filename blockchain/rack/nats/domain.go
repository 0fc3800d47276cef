package nats

import (
	"context"
	"paygate/blockchain/rack/config"
	"paygate/pkg/dlog"
	"paygate/pkg/nats/natsdomain"

	"github.com/shopspring/decimal"
)

// a receiving identifier handed out for one payment method
type Allocation struct {
	Identifier      string
	AssetTag        string
	SupportsPayjoin bool
}

// every network the node serves plugs in as an allocator. pool-backed
// networks run out, generated ones never do
type Allocator interface {
	Allocate(ctx context.Context, invoiceId string, amount decimal.Decimal) (*Allocation, error)
	Release(identifier string) error
}

// the utxo wallet side of a collaborative transaction
type Contributor interface {
	ContributeInput(ctx context.Context, invoiceId string) (txId string, vout uint32, amountSats int64, err error)
}

type App struct {
	// network name -> allocator, the closed set of supported networks
	Allocators map[string]Allocator

	Contributor Contributor

	Config *config.Config
	Ns     *natsdomain.Ns
	Dlog   dlog.Dlog
}
