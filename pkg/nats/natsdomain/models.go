package natsdomain

import (
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/shopspring/decimal"
)

// nats struct
type Ns struct {
	Nc *nats.Conn
	Js jetstream.JetStream
}

type Nc struct {
	*nats.Conn
}

type Error struct {
	IsError   bool
	Message   string
	Timestamp time.Time
}

// allocates a receiving identifier (address or payment request) for one
// payment method of an invoice
type ReqAllocate struct {
	Network   string
	InvoiceId string
	// amount the payer is expected to send in the method currency.
	// lightning needs it for the payment request, on-chain pools ignore it
	Amount decimal.Decimal
}

type ResAllocate struct {
	Error
	Identifier      string
	AssetTag        string // token contract for networks sharing an address space
	SupportsPayjoin bool
}

// returns an unused identifier to the pool after a failed invoice creation
type ReqRelease struct {
	Network    string
	Identifier string
}

type ResRelease struct {
	Error
	Released bool
}

type ReqGetRates struct {
	ToCurrency string // USD/EUR/RUB
}

type Rates struct {
	Eth        decimal.Decimal
	Sol        decimal.Decimal
	Ton        decimal.Decimal
	Btc        decimal.Decimal
	Usdt       decimal.Decimal
	ToCurrency string
}

type ResGetRates struct {
	Error
	Rates Rates
}

// asks the utxo wallet for an unspent output the engine can add to a
// collaborative (payjoin-style) transaction
type ReqContributeInput struct {
	InvoiceId string
}

type ResContributeInput struct {
	Error
	TxId   string
	Vout   uint32
	Amount int64 // sats
}

// normalized payment observation pushed by a network watcher.
// TxRef is unique per network, dedup key is (SourceNetwork, TxRef)
type PaymentEventMsg struct {
	SourceNetwork string
	Identifier    string
	AssetTag      string
	Amount        decimal.Decimal
	TxRef         string
	Confidence    string // unconfirmed / confirmed / settled
	Depth         uint32 // confirmations seen, only for confirmed
	ObservedAt    time.Time
}

// last scanned position of a watcher, stored in the watermarks KV bucket
type Watermark struct {
	Network   string
	Position  string // block number / slot / logical time, network specific
	UpdatedAt time.Time
}

// a live identifier assignment, stored in the allocations KV bucket so a
// wallet node restart keeps watching every outstanding invoice
type AllocationRecord struct {
	Network    string
	InvoiceId  string
	Identifier string
	// expected amount in the method currency, lightning needs it to rebuild
	// the settle fallback
	Amount decimal.Decimal
	// network specific resubscription handle, the lnd payment hash
	TrackRef  string
	CreatedAt time.Time
}
