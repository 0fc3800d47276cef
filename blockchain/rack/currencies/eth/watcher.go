package eth

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"paygate/blockchain/rack/currencies"
	"paygate/blockchain/rack/pool"
	"paygate/pkg/dlog"
	"paygate/pkg/nats/natsdomain"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

const pollInterval = 15 * time.Second

var transferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

// Watcher scans blocks from the stored watermark, publishing native
// transfers as "eth" events and usdt transfers on the same addresses as
// "erc20" events. The watermark only advances past finalized blocks, so a
// restart replays the unfinalized tail and stream dedup drops the repeats
type Watcher struct {
	Client   *ethclient.Client
	Pool     *pool.Pool
	Emitter  currencies.Emitter
	Contract string
	Depth    uint32 // finality depth
	Dlog     dlog.Dlog
}

func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		if err := w.scan(ctx); err != nil {
			w.Dlog.Error("eth scan failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Watcher) scan(ctx context.Context) error {
	if err := w.Emitter.Heartbeat(ctx, "eth"); err != nil {
		return err
	}
	if err := w.Emitter.Heartbeat(ctx, "erc20"); err != nil {
		return err
	}

	latest, err := w.Client.BlockNumber(ctx)
	if err != nil {
		return err
	}

	from, err := w.startBlock(ctx, latest)
	if err != nil {
		return err
	}
	if from > latest {
		return nil
	}

	watched := watchedByLower(w.Pool)
	if len(watched) == 0 {
		return w.Emitter.WriteWatermark(ctx, "eth", strconv.FormatUint(latest, 10))
	}

	var finalized = latest // highest block at finality depth, watermark target

	for number := from; number <= latest; number++ {
		depth := uint32(latest - number + 1)

		if err := w.scanBlock(ctx, number, depth, watched); err != nil {
			return err
		}

		if depth < w.Depth && number-1 < finalized {
			finalized = number - 1
		}
	}

	if err := w.scanTokenTransfers(ctx, from, latest, watched); err != nil {
		return err
	}

	return w.Emitter.WriteWatermark(ctx, "eth", strconv.FormatUint(finalized, 10))
}

func (w *Watcher) startBlock(ctx context.Context, latest uint64) (uint64, error) {
	position, err := w.Emitter.ReadWatermark(ctx, "eth")
	if err != nil {
		return 0, err
	}
	if position == "" {
		// never ran, start from the tip
		return latest, nil
	}

	wm, err := strconv.ParseUint(position, 10, 64)
	if err != nil {
		return 0, err
	}
	return wm + 1, nil
}

func (w *Watcher) scanBlock(ctx context.Context, number uint64, depth uint32, watched map[string]string) error {
	block, err := w.Client.BlockByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return err
	}

	for _, tx := range block.Transactions() {
		if tx.To() == nil || tx.Value().Sign() == 0 {
			continue
		}
		// the event identifier must be the pool's exact form, the engine
		// matches method rows by string equality, not by checksum casing
		identifier, ok := watched[strings.ToLower(tx.To().Hex())]
		if !ok {
			continue
		}

		event := natsdomain.PaymentEventMsg{
			SourceNetwork: "eth",
			Identifier:    identifier,
			Amount:        *WeiToEther(tx.Value()),
			TxRef:         tx.Hash().Hex(),
			Confidence:    "confirmed",
			Depth:         depth,
		}
		if err := w.publish(event); err != nil {
			return err
		}
	}

	return nil
}

func (w *Watcher) scanTokenTransfers(ctx context.Context, from, to uint64, watched map[string]string) error {
	if w.Contract == "" {
		return nil
	}

	logs, err := w.Client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{common.HexToAddress(w.Contract)},
		Topics:    [][]common.Hash{{transferTopic}},
	})
	if err != nil {
		return err
	}

	for _, l := range logs {
		if len(l.Topics) < 3 {
			continue
		}
		receiver := common.BytesToAddress(l.Topics[2].Bytes())
		identifier, ok := watched[strings.ToLower(receiver.Hex())]
		if !ok {
			continue
		}

		depth := uint32(to - l.BlockNumber + 1)
		event := natsdomain.PaymentEventMsg{
			SourceNetwork: "erc20",
			Identifier:    identifier,
			AssetTag:      w.Contract,
			Amount:        TokenUnitsToDecimal(new(big.Int).SetBytes(l.Data)),
			// several transfers can land in one tx, the log index keeps refs unique
			TxRef:      fmt.Sprintf("%s:%d", l.TxHash.Hex(), l.Index),
			Confidence: "confirmed",
			Depth:      depth,
		}
		if err := w.publish(event); err != nil {
			return err
		}
	}

	return nil
}

// a confirmed event past finality is re-published as settled, the msg id
// carries confidence and depth so each raise gets through dedup
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

// lowercase on-chain form -> the identifier exactly as the pool handed it
// out. addresses come back from the node eip-55 checksummed, pool files are
// usually plain lowercase
func watchedByLower(p *pool.Pool) map[string]string {
	watched := make(map[string]string)
	for _, identifier := range p.Watched() {
		watched[strings.ToLower(identifier)] = identifier
	}
	return watched
}
