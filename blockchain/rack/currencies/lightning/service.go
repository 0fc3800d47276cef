package lightning

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"paygate/blockchain/rack/currencies"
	"paygate/blockchain/rack/nats"
	"paygate/pkg/dlog"
	"paygate/pkg/nats/natsdomain"

	"github.com/lightninglabs/lndclient"
	"github.com/lightningnetwork/lnd/invoices"
	"github.com/lightningnetwork/lnd/lnrpc/invoicesrpc"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/lightningnetwork/lnd/lnwire"
	"github.com/shopspring/decimal"
)

const invoiceExpiry = 3 * time.Hour

// Service allocates hold-free lnd invoices. the payment request is the
// identifier the payer sees, settlement comes back over a per-invoice
// subscription instead of a chain scan
type Service struct {
	Svc     *lndclient.GrpcLndServices
	Emitter currencies.Emitter
	Dlog    dlog.Dlog

	mu     sync.Mutex
	tracks map[string]context.CancelFunc // payment request -> subscription cancel
}

func NewService(svc *lndclient.GrpcLndServices, emitter currencies.Emitter, dl dlog.Dlog) *Service {
	return &Service{
		Svc:     svc,
		Emitter: emitter,
		Dlog:    dl,
		tracks:  make(map[string]context.CancelFunc),
	}
}

func (s *Service) Allocate(ctx context.Context, invoiceId string, amount decimal.Decimal) (*nats.Allocation, error) {
	preimage := &lntypes.Preimage{}
	if _, err := rand.Read(preimage[:]); err != nil {
		return nil, err
	}

	sats := amount.Mul(decimal.NewFromInt(1e8)).IntPart()

	hash, payReq, err := s.Svc.Client.AddInvoice(ctx, &invoicesrpc.AddInvoiceData{
		Value:    lnwire.MilliSatoshi(sats * 1000),
		Preimage: preimage,
		Expiry:   int64(invoiceExpiry.Seconds()),
	})
	if err != nil {
		return nil, err
	}

	// the payment hash is the resubscription handle after a restart
	err = s.Emitter.SaveAllocation(ctx, natsdomain.AllocationRecord{
		Network:    "lightning",
		InvoiceId:  invoiceId,
		Identifier: payReq,
		Amount:     amount,
		TrackRef:   hash.String(),
	})
	if err != nil {
		return nil, err
	}

	s.subscribe(hash, payReq, amount)

	return &nats.Allocation{Identifier: payReq}, nil
}

func (s *Service) subscribe(hash lntypes.Hash, payReq string, amount decimal.Decimal) {
	trackCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.tracks[payReq] = cancel
	s.mu.Unlock()

	go s.track(trackCtx, hash, payReq, amount)
}

func (s *Service) Release(identifier string) error {
	s.mu.Lock()
	cancel, ok := s.tracks[identifier]
	delete(s.tracks, identifier)
	s.mu.Unlock()

	if ok {
		cancel()
	}
	return s.Emitter.DeleteAllocation(context.Background(), "lightning", identifier)
}

// Restore resubscribes to every outstanding lnd invoice after a restart.
// a subscription to an already settled invoice replays the settle update,
// the engine's (network, tx_ref) dedup absorbs it
func (s *Service) Restore(ctx context.Context) error {
	records, err := s.Emitter.ListAllocations(ctx, "lightning")
	if err != nil {
		return err
	}

	for c := range records {
		hash, err := lntypes.MakeHashFromStr(records[c].TrackRef)
		if err != nil {
			s.Dlog.Error("bad persisted payment hash", "hash", records[c].TrackRef, "error", err)
			continue
		}
		s.subscribe(hash, records[c].Identifier, records[c].Amount)
	}
	return nil
}

// a settled lnd invoice is final, there is no confirmation depth
func (s *Service) track(ctx context.Context, hash lntypes.Hash, payReq string, amount decimal.Decimal) {
	updates, errs, err := s.Svc.Invoices.SubscribeSingleInvoice(ctx, hash)
	if err != nil {
		s.Dlog.Error("lnd subscribe failed", "hash", hash.String(), "error", err)
		return
	}

	for {
		select {
		case update := <-updates:
			if update.State != invoices.ContractSettled {
				continue
			}

			// the payer can overpay, AmtPaid is what actually arrived
			paid := decimal.New(int64(update.AmtPaid), -8)
			if paid.IsZero() {
				paid = amount
			}

			event := natsdomain.PaymentEventMsg{
				SourceNetwork: "lightning",
				Identifier:    payReq,
				Amount:        paid,
				TxRef:         hash.String(),
				Confidence:    "settled",
			}
			if err := s.Emitter.PublishPaymentEvent(event); err != nil {
				s.Dlog.Error("lnd publish failed", "hash", hash.String(), "error", err)
				return
			}

			// settled is final, nothing left to resubscribe to
			if err := s.Emitter.DeleteAllocation(ctx, "lightning", payReq); err != nil {
				s.Dlog.Error("lnd delete allocation failed", "hash", hash.String(), "error", err)
			}
			return
		case err := <-errs:
			if err != nil {
				s.Dlog.Error("lnd subscription error", "hash", hash.String(), "error", err)
			}
			return
		case <-ctx.Done():
			return
		}
	}
}

// the subscriptions push events on their own, the loop only proves the
// watcher process is alive
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		if err := s.Emitter.Heartbeat(ctx, "lightning"); err != nil {
			s.Dlog.Error("lightning heartbeat failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
