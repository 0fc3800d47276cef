package btc

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"paygate/blockchain/rack/currencies"
	"paygate/blockchain/rack/pool"
	"paygate/pkg/dlog"
	"paygate/pkg/nats/natsdomain"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/rpcclient"
	"github.com/btcsuite/btcd/txscript"
	"github.com/shopspring/decimal"
)

const pollInterval = 30 * time.Second

// Watcher scans blocks from the stored watermark and matches outputs
// against the handed-out addresses. the watermark only advances past
// finalized blocks, a restart replays the unfinalized tail and stream
// dedup drops the repeats
type Watcher struct {
	Client  *rpcclient.Client
	Pool    *pool.Pool
	Params  *chaincfg.Params
	Emitter currencies.Emitter
	Depth   uint32 // finality depth
	Dlog    dlog.Dlog
}

func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		if err := w.scan(ctx); err != nil {
			w.Dlog.Error("btc scan failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Watcher) scan(ctx context.Context) error {
	if err := w.Emitter.Heartbeat(ctx, "btc"); err != nil {
		return err
	}

	latest, err := w.Client.GetBlockCount()
	if err != nil {
		return err
	}

	from, err := w.startHeight(ctx, latest)
	if err != nil {
		return err
	}
	if from > latest {
		return nil
	}

	watched := make(map[string]bool)
	for _, identifier := range w.Pool.Watched() {
		watched[identifier] = true
	}

	var finalized = latest

	for height := from; height <= latest; height++ {
		depth := uint32(latest - height + 1)

		if err := w.scanBlock(height, depth, watched); err != nil {
			return err
		}

		if depth < w.Depth && height-1 < finalized {
			finalized = height - 1
		}
	}

	return w.Emitter.WriteWatermark(ctx, "btc", strconv.FormatInt(finalized, 10))
}

func (w *Watcher) startHeight(ctx context.Context, latest int64) (int64, error) {
	position, err := w.Emitter.ReadWatermark(ctx, "btc")
	if err != nil {
		return 0, err
	}
	if position == "" {
		return latest, nil
	}

	wm, err := strconv.ParseInt(position, 10, 64)
	if err != nil {
		return 0, err
	}
	return wm + 1, nil
}

func (w *Watcher) scanBlock(height int64, depth uint32, watched map[string]bool) error {
	hash, err := w.Client.GetBlockHash(height)
	if err != nil {
		return err
	}

	block, err := w.Client.GetBlock(hash)
	if err != nil {
		return err
	}

	for _, tx := range block.Transactions {
		txHash := tx.TxHash()

		for vout, out := range tx.TxOut {
			_, addrs, _, err := txscript.ExtractPkScriptAddrs(out.PkScript, w.Params)
			if err != nil || len(addrs) != 1 {
				continue
			}

			address := addrs[0].EncodeAddress()
			if !watched[address] {
				continue
			}

			event := natsdomain.PaymentEventMsg{
				SourceNetwork: "btc",
				Identifier:    address,
				Amount:        decimal.New(out.Value, -8),
				// txid:vout keeps two outputs to one address apart
				TxRef:      fmt.Sprintf("%s:%d", txHash.String(), vout),
				Confidence: "confirmed",
				Depth:      depth,
			}
			if err := w.publish(event); err != nil {
				return err
			}
		}
	}

	return nil
}

func (w *Watcher) publish(event natsdomain.PaymentEventMsg) error {
	if err := w.Emitter.PublishPaymentEvent(event); err != nil {
		return err
	}

	if event.Depth >= w.Depth {
		event.Confidence = "settled"
		event.Depth = 0
		return w.Emitter.PublishPaymentEvent(event)
	}
	return nil
}
