package ton

import (
	"context"
	"sync"

	"paygate/blockchain/rack/currencies"
	"paygate/blockchain/rack/nats"
	"paygate/pkg/nats/natsdomain"

	"github.com/xssnick/tonutils-go/ton"
	"github.com/xssnick/tonutils-go/ton/wallet"

	"github.com/shopspring/decimal"
)

type Wallet struct {
	Address string
	Seed    string // private key
}

// Service generates a fresh v4r2 wallet per invoice. seeds stay in memory
// for a later sweep, the watched set is persisted in KV and rebuilt on
// restart
type Service struct {
	Api     ton.APIClientWrapped
	Emitter currencies.Emitter

	mu      sync.Mutex
	watched map[string]string // address -> invoiceId
	seeds   map[string]string // address -> seed words
}

func NewService(api ton.APIClientWrapped, emitter currencies.Emitter) *Service {
	return &Service{
		Api:     api,
		Emitter: emitter,
		watched: make(map[string]string),
		seeds:   make(map[string]string),
	}
}

func (s *Service) Allocate(ctx context.Context, invoiceId string, amount decimal.Decimal) (*nats.Allocation, error) {
	w, err := NewWallet(&s.Api)
	if err != nil {
		return nil, err
	}

	err = s.Emitter.SaveAllocation(ctx, natsdomain.AllocationRecord{
		Network:    "ton",
		InvoiceId:  invoiceId,
		Identifier: w.Address,
		Amount:     amount,
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.watched[w.Address] = invoiceId
	s.seeds[w.Address] = w.Seed
	s.mu.Unlock()

	return &nats.Allocation{Identifier: w.Address}, nil
}

func (s *Service) Release(identifier string) error {
	s.mu.Lock()
	delete(s.watched, identifier)
	delete(s.seeds, identifier)
	s.mu.Unlock()

	return s.Emitter.DeleteAllocation(context.Background(), "ton", identifier)
}

// Restore puts persisted assignments back into the watched set on startup
func (s *Service) Restore(ctx context.Context) error {
	records, err := s.Emitter.ListAllocations(ctx, "ton")
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range records {
		s.watched[records[c].Identifier] = records[c].InvoiceId
	}
	return nil
}

func (s *Service) Watched() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.watched))
	for address := range s.watched {
		out = append(out, address)
	}
	return out
}

func NewWallet(tonApi *ton.APIClientWrapped) (*Wallet, error) {
	seed := wallet.NewSeed()

	wallet, err := wallet.FromSeed(*tonApi, seed, wallet.V4R2)
	if err != nil {
		return nil, err
	}

	var structSeed string

	for _, i := range seed {
		structSeed += i + " "
	}

	return &Wallet{
		Address: wallet.Address().String(),
		Seed:    structSeed,
	}, nil
}
