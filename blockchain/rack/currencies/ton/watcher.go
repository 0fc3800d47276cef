package ton

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"paygate/blockchain/rack/currencies"
	"paygate/pkg/dlog"
	"paygate/pkg/nats/natsdomain"

	"github.com/shopspring/decimal"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/ton"
)

const pollInterval = 15 * time.Second

// Watcher walks the transaction list of every handed-out wallet from its
// last seen logical time. a masterchain-visible transaction is already
// final on ton, so events go out as settled
type Watcher struct {
	Api     ton.APIClientWrapped
	BlockID *atomic.Pointer[ton.BlockIDExt]
	Service *Service
	Emitter currencies.Emitter
	Dlog    dlog.Dlog

	mu     sync.Mutex
	lastLT map[string]uint64 // address -> last processed logical time
}

func (w *Watcher) Run(ctx context.Context) {
	w.lastLT = make(map[string]uint64)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		if err := w.scan(ctx); err != nil {
			w.Dlog.Error("ton scan failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Watcher) scan(ctx context.Context) error {
	if err := w.Emitter.Heartbeat(ctx, "ton"); err != nil {
		return err
	}

	block := w.BlockID.Load()
	if block == nil {
		return fmt.Errorf("no masterchain block yet")
	}

	for _, addr := range w.Service.Watched() {
		if err := w.scanAddress(ctx, block, addr); err != nil {
			w.Dlog.Error("ton address scan failed", "address", addr, "error", err)
		}
	}

	return w.Emitter.WriteWatermark(ctx, "ton", strconv.FormatUint(uint64(block.SeqNo), 10))
}

func (w *Watcher) scanAddress(ctx context.Context, block *ton.BlockIDExt, addrStr string) error {
	addr, err := address.ParseAddr(addrStr)
	if err != nil {
		return err
	}

	account, err := w.Api.WaitForBlock(block.SeqNo).GetAccount(ctx, block, addr)
	if err != nil {
		return err
	}
	if account == nil || account.LastTxHash == nil {
		return nil
	}

	w.mu.Lock()
	last := w.lastLT[addrStr]
	w.mu.Unlock()

	if account.LastTxLT == last {
		return nil
	}

	txs, err := w.Api.ListTransactions(ctx, addr, 16, account.LastTxLT, account.LastTxHash)
	if err != nil {
		return err
	}

	for _, tx := range txs {
		if tx.LT <= last {
			continue
		}

		amount := incomingAmount(tx)
		if amount.IsZero() {
			continue
		}

		event := natsdomain.PaymentEventMsg{
			SourceNetwork: "ton",
			Identifier:    addrStr,
			Amount:        amount,
			// logical time is unique per account, the address makes it unique per network
			TxRef:      fmt.Sprintf("%s:%d", addrStr, tx.LT),
			Confidence: "settled",
		}
		if err := w.Emitter.PublishPaymentEvent(event); err != nil {
			return err
		}
	}

	w.mu.Lock()
	w.lastLT[addrStr] = account.LastTxLT
	w.mu.Unlock()

	return nil
}

func incomingAmount(tx *tlb.Transaction) decimal.Decimal {
	if tx.IO.In == nil || tx.IO.In.MsgType != tlb.MsgTypeInternal {
		return decimal.Zero
	}

	amount, err := decimal.NewFromString(tlb.FromNanoTON(tx.IO.In.AsInternal().Amount.Nano()).String())
	if err != nil {
		return decimal.Zero
	}
	return amount
}
