package sol

import (
	"context"
	"strconv"
	"sync"
	"time"

	"paygate/blockchain/rack/currencies"
	"paygate/pkg/dlog"
	"paygate/pkg/nats/natsdomain"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

const pollInterval = 20 * time.Second

// Watcher polls the signature history of every handed-out address. finalized
// commitment means the transfer cannot be rolled back, so events go out as
// settled right away. addresses are fresh per invoice, so a restart replays
// a short history and stream dedup drops what the engine already saw
type Watcher struct {
	Client  *rpc.Client
	Service *Service
	Emitter currencies.Emitter
	Dlog    dlog.Dlog

	mu      sync.Mutex
	lastSig map[string]solana.Signature // address -> newest processed signature
}

func (w *Watcher) Run(ctx context.Context) {
	w.lastSig = make(map[string]solana.Signature)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		if err := w.scan(ctx); err != nil {
			w.Dlog.Error("sol scan failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Watcher) scan(ctx context.Context) error {
	if err := w.Emitter.Heartbeat(ctx, "sol"); err != nil {
		return err
	}

	var maxSlot uint64

	for _, address := range w.Service.Watched() {
		slot, err := w.scanAddress(ctx, address)
		if err != nil {
			w.Dlog.Error("sol address scan failed", "address", address, "error", err)
			continue
		}
		if slot > maxSlot {
			maxSlot = slot
		}
	}

	if maxSlot > 0 {
		return w.Emitter.WriteWatermark(ctx, "sol", strconv.FormatUint(maxSlot, 10))
	}
	return nil
}

func (w *Watcher) scanAddress(ctx context.Context, address string) (uint64, error) {
	pbc, err := StringToPBC(address)
	if err != nil {
		return 0, err
	}

	w.mu.Lock()
	until := w.lastSig[address]
	w.mu.Unlock()

	opts := &rpc.GetSignaturesForAddressOpts{Commitment: rpc.CommitmentFinalized}
	if !until.IsZero() {
		opts.Until = until
	}

	sigs, err := w.Client.GetSignaturesForAddressWithOpts(ctx, pbc, opts)
	if err != nil {
		return 0, err
	}
	if len(sigs) == 0 {
		return 0, nil
	}

	var maxSlot uint64

	// newest first, process oldest first
	for i := len(sigs) - 1; i >= 0; i-- {
		sig := sigs[i]
		if sig.Err != nil {
			continue
		}

		lamports, err := receivedLamports(ctx, w.Client, sig.Signature, pbc)
		if err != nil {
			return maxSlot, err
		}
		if lamports <= 0 {
			continue
		}

		event := natsdomain.PaymentEventMsg{
			SourceNetwork: "sol",
			Identifier:    address,
			Amount:        LamportsToSol(lamports),
			TxRef:         sig.Signature.String(),
			Confidence:    "settled",
		}
		if err := w.Emitter.PublishPaymentEvent(event); err != nil {
			return maxSlot, err
		}

		if sig.Slot > maxSlot {
			maxSlot = sig.Slot
		}
	}

	w.mu.Lock()
	w.lastSig[address] = sigs[0].Signature
	w.mu.Unlock()

	return maxSlot, nil
}

// balance delta of the address within one transaction
func receivedLamports(ctx context.Context, client *rpc.Client, sig solana.Signature, address solana.PublicKey) (int64, error) {
	result, err := client.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{Commitment: rpc.CommitmentFinalized})
	if err != nil {
		return 0, err
	}
	if result == nil || result.Meta == nil {
		return 0, nil
	}

	tx, err := result.Transaction.GetTransaction()
	if err != nil {
		return 0, err
	}

	for i, key := range tx.Message.AccountKeys {
		if !key.Equals(address) {
			continue
		}
		if i >= len(result.Meta.PreBalances) || i >= len(result.Meta.PostBalances) {
			return 0, nil
		}
		return int64(result.Meta.PostBalances[i]) - int64(result.Meta.PreBalances[i]), nil
	}

	return 0, nil
}
