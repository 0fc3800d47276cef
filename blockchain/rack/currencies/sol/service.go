package sol

import (
	"context"
	"sync"

	"paygate/blockchain/rack/currencies"
	"paygate/blockchain/rack/nats"
	"paygate/pkg/nats/natsdomain"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// Service generates a fresh wallet per invoice, so it never runs out.
// private keys stay in memory for a later sweep, the engine only sees the
// address. the watched set is persisted in KV and rebuilt on restart,
// sweep keys are custody's problem, not the watcher's
type Service struct {
	Emitter currencies.Emitter

	mu      sync.Mutex
	watched map[string]string // address -> invoiceId
	keys    map[string]string // address -> private key
}

func NewService(emitter currencies.Emitter) *Service {
	return &Service{
		Emitter: emitter,
		watched: make(map[string]string),
		keys:    make(map[string]string),
	}
}

func (s *Service) Allocate(ctx context.Context, invoiceId string, amount decimal.Decimal) (*nats.Allocation, error) {
	address, privateKey, err := NewWallet()
	if err != nil {
		return nil, err
	}

	err = s.Emitter.SaveAllocation(ctx, natsdomain.AllocationRecord{
		Network:    "sol",
		InvoiceId:  invoiceId,
		Identifier: address,
		Amount:     amount,
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.watched[address] = invoiceId
	s.keys[address] = privateKey
	s.mu.Unlock()

	return &nats.Allocation{Identifier: address}, nil
}

func (s *Service) Release(identifier string) error {
	s.mu.Lock()
	delete(s.watched, identifier)
	delete(s.keys, identifier)
	s.mu.Unlock()

	return s.Emitter.DeleteAllocation(context.Background(), "sol", identifier)
}

// Restore puts every persisted assignment back into the watched set so the
// watcher picks up payments to invoices created before the restart
func (s *Service) Restore(ctx context.Context) error {
	records, err := s.Emitter.ListAllocations(ctx, "sol")
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

func NewWallet() (address string, privateKey string, err error) {
	priv, err := solana.NewRandomPrivateKey()
	if err != nil {
		return "", "", err
	}
	address = priv.PublicKey().String()
	privateKey = priv.String()

	return address, privateKey, nil
}

func StringToPBC(addr string) (solana.PublicKey, error) {
	return solana.PublicKeyFromBase58(addr)
}

func LamportsToSol(lamports int64) decimal.Decimal {
	const LAMPORTS_PER_SOL = 1e9

	lamportsDecimal := decimal.NewFromInt(int64(lamports))

	sol := lamportsDecimal.Div(decimal.NewFromFloat(LAMPORTS_PER_SOL))

	sol = sol.Round(5)

	return sol
}
