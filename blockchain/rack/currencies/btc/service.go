package btc

import (
	"context"
	"fmt"

	"paygate/blockchain/rack/currencies"
	"paygate/blockchain/rack/nats"
	"paygate/blockchain/rack/pool"
	"paygate/pkg/nats/natsdomain"

	"github.com/btcsuite/btcd/rpcclient"
	"github.com/shopspring/decimal"
)

// Service hands out receiving addresses from a pool file backed by the
// wallet node. the wallet holds the keys, which is what makes input
// contribution possible. assignments are persisted in KV so a restart
// keeps watching outstanding invoices
type Service struct {
	Client  *rpcclient.Client
	Pool    *pool.Pool
	Emitter currencies.Emitter
}

func NewService(client *rpcclient.Client, p *pool.Pool, emitter currencies.Emitter) *Service {
	return &Service{Client: client, Pool: p, Emitter: emitter}
}

func (s *Service) Allocate(ctx context.Context, invoiceId string, amount decimal.Decimal) (*nats.Allocation, error) {
	identifier, err := s.Pool.Allocate(invoiceId)
	if err != nil {
		return nil, err
	}

	err = s.Emitter.SaveAllocation(ctx, natsdomain.AllocationRecord{
		Network:    "btc",
		InvoiceId:  invoiceId,
		Identifier: identifier,
		Amount:     amount,
	})
	if err != nil {
		s.Pool.Release(identifier)
		return nil, err
	}

	return &nats.Allocation{Identifier: identifier, SupportsPayjoin: true}, nil
}

func (s *Service) Release(identifier string) error {
	s.Pool.Release(identifier)
	return s.Emitter.DeleteAllocation(context.Background(), "btc", identifier)
}

// Restore rehydrates the pool from the persisted assignments on startup
func (s *Service) Restore(ctx context.Context) error {
	records, err := s.Emitter.ListAllocations(ctx, "btc")
	if err != nil {
		return err
	}
	for c := range records {
		s.Pool.Restore(records[c].InvoiceId, records[c].Identifier)
	}
	return nil
}

// ContributeInput picks a confirmed unspent output of the wallet for a
// collaborative transaction. the engine splices it into the payer's
// proposal
func (s *Service) ContributeInput(ctx context.Context, invoiceId string) (string, uint32, int64, error) {
	unspent, err := s.Client.ListUnspentMin(1)
	if err != nil {
		return "", 0, 0, err
	}

	for _, u := range unspent {
		if !u.Spendable || u.Amount <= 0 {
			continue
		}
		sats := int64(decimal.NewFromFloat(u.Amount).Mul(decimal.NewFromInt(1e8)).IntPart())
		return u.TxID, u.Vout, sats, nil
	}

	return "", 0, 0, fmt.Errorf("no spendable output")
}
