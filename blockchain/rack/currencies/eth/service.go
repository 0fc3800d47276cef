package eth

import (
	"context"
	"math/big"
	"paygate/blockchain/rack/currencies"
	"paygate/blockchain/rack/nats"
	"paygate/blockchain/rack/pool"
	"paygate/pkg/nats/natsdomain"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
)

// Service hands out receiving addresses from a pre-funded pool file. The
// same pool backs both the native and the usdt allocator, so one invoice
// gets one address for both. assignments are persisted in KV, a restart
// must keep watching every outstanding invoice
type Service struct {
	Client  *ethclient.Client
	Pool    *pool.Pool
	Emitter currencies.Emitter
}

func NewService(client *ethclient.Client, p *pool.Pool, emitter currencies.Emitter) *Service {
	return &Service{Client: client, Pool: p, Emitter: emitter}
}

func (s *Service) Allocate(ctx context.Context, invoiceId string, amount decimal.Decimal) (*nats.Allocation, error) {
	identifier, err := s.allocate(ctx, "eth", invoiceId, amount)
	if err != nil {
		return nil, err
	}
	return &nats.Allocation{Identifier: identifier}, nil
}

func (s *Service) allocate(ctx context.Context, network, invoiceId string, amount decimal.Decimal) (string, error) {
	identifier, err := s.Pool.Allocate(invoiceId)
	if err != nil {
		return "", err
	}

	err = s.Emitter.SaveAllocation(ctx, natsdomain.AllocationRecord{
		Network:    network,
		InvoiceId:  invoiceId,
		Identifier: identifier,
		Amount:     amount,
	})
	if err != nil {
		// an assignment that would vanish on restart must not be handed out
		s.Pool.Release(identifier)
		return "", err
	}

	return identifier, nil
}

func (s *Service) Release(identifier string) error {
	s.Pool.Release(identifier)

	// the pool is shared, drop both network records
	ctx := context.Background()
	if err := s.Emitter.DeleteAllocation(ctx, "eth", identifier); err != nil {
		return err
	}
	return s.Emitter.DeleteAllocation(ctx, "erc20", identifier)
}

// Restore rehydrates the pool from the persisted assignments on startup
func (s *Service) Restore(ctx context.Context) error {
	for _, network := range []string{"eth", "erc20"} {
		records, err := s.Emitter.ListAllocations(ctx, network)
		if err != nil {
			return err
		}
		for c := range records {
			s.Pool.Restore(records[c].InvoiceId, records[c].Identifier)
		}
	}
	return nil
}

// TokenAllocator reuses the native pool and tags allocations with the token
// contract, the watcher uses the tag to match transfers on the shared address
type TokenAllocator struct {
	Service  *Service
	Contract string
}

func (t *TokenAllocator) Allocate(ctx context.Context, invoiceId string, amount decimal.Decimal) (*nats.Allocation, error) {
	identifier, err := t.Service.allocate(ctx, "erc20", invoiceId, amount)
	if err != nil {
		return nil, err
	}
	return &nats.Allocation{Identifier: identifier, AssetTag: t.Contract}, nil
}

func (t *TokenAllocator) Release(identifier string) error {
	return t.Service.Release(identifier)
}

func bigIntToDecimal(wei *big.Int) decimal.Decimal {
	weiDecimal := decimal.NewFromBigInt(wei, 0)
	return weiDecimal
}

// 1230000000000000000 to 1.23
func WeiToEther(wei *big.Int) *decimal.Decimal {
	etherConversionFactor := decimal.NewFromInt(1000000000000000000) // 1 Ether = 10^18 Wei
	weiDecimal := bigIntToDecimal(wei)
	ether := weiDecimal.Div(etherConversionFactor)
	return &ether
}

// usdt carries 6 decimals
func TokenUnitsToDecimal(units *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(units, -6)
}
