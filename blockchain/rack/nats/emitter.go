package nats

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"paygate/pkg/nats/natsdomain"

	"github.com/nats-io/nats.go/jetstream"
)

// Emitter is what the network watchers hold: it pushes normalized payment
// observations into the payments stream and keeps the watcher's replay
// position and liveness in KV
type Emitter struct {
	Ns *natsdomain.Ns
}

func NewEmitter(ns *natsdomain.Ns) *Emitter {
	return &Emitter{Ns: ns}
}

// the msg id carries confidence and depth, so a later raise of either for
// the same transaction is not swallowed by stream dedup
func (e *Emitter) PublishPaymentEvent(event natsdomain.PaymentEventMsg) error {
	if event.ObservedAt.IsZero() {
		event.ObservedAt = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return e.Ns.JsPublishMsgId(
		natsdomain.SubjJsPaymentEvents.String(),
		data,
		natsdomain.NewEventMsgId(event.SourceNetwork, event.TxRef, event.Confidence, event.Depth),
	)
}

// position is network specific: block number for eth/btc, slot for sol,
// logical time for ton
func (e *Emitter) WriteWatermark(ctx context.Context, network string, position string) error {
	kv, err := e.Ns.Js.KeyValue(ctx, natsdomain.BucketWatermarks.String())
	if err != nil {
		return err
	}

	data, err := json.Marshal(natsdomain.Watermark{
		Network:   network,
		Position:  position,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		return err
	}

	_, err = kv.Put(ctx, network, data)
	return err
}

// returns "" when the watcher has never run, the caller starts from the tip
func (e *Emitter) ReadWatermark(ctx context.Context, network string) (string, error) {
	kv, err := e.Ns.Js.KeyValue(ctx, natsdomain.BucketWatermarks.String())
	if err != nil {
		return "", err
	}

	entry, err := kv.Get(ctx, network)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return "", nil
		}
		return "", err
	}

	var wm natsdomain.Watermark
	if err := json.Unmarshal(entry.Value(), &wm); err != nil {
		return "", err
	}
	return wm.Position, nil
}

// identifiers stay inside the KV key charset on every network: hex for
// eth/btc, base58 for sol, base64url for ton, bech32 for lightning
func allocationKey(network, identifier string) string {
	return network + "." + identifier
}

func (e *Emitter) SaveAllocation(ctx context.Context, rec natsdomain.AllocationRecord) error {
	kv, err := e.Ns.Js.KeyValue(ctx, natsdomain.BucketAllocations.String())
	if err != nil {
		return err
	}

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	_, err = kv.Put(ctx, allocationKey(rec.Network, rec.Identifier), data)
	return err
}

func (e *Emitter) DeleteAllocation(ctx context.Context, network string, identifier string) error {
	kv, err := e.Ns.Js.KeyValue(ctx, natsdomain.BucketAllocations.String())
	if err != nil {
		return err
	}

	err = kv.Delete(ctx, allocationKey(network, identifier))
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil
	}
	return err
}

// ListAllocations feeds the startup rehydration: every record of the network
// goes back into the service's watched set before the first scan
func (e *Emitter) ListAllocations(ctx context.Context, network string) ([]natsdomain.AllocationRecord, error) {
	kv, err := e.Ns.Js.KeyValue(ctx, natsdomain.BucketAllocations.String())
	if err != nil {
		return nil, err
	}

	lister, err := kv.ListKeys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, err
	}

	var records []natsdomain.AllocationRecord
	prefix := network + "."

	for key := range lister.Keys() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}

		entry, err := kv.Get(ctx, key)
		if err != nil {
			if errors.Is(err, jetstream.ErrKeyNotFound) {
				continue // released while listing
			}
			return nil, err
		}

		var rec natsdomain.AllocationRecord
		if err := json.Unmarshal(entry.Value(), &rec); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

func (e *Emitter) Heartbeat(ctx context.Context, network string) error {
	kv, err := e.Ns.Js.KeyValue(ctx, natsdomain.BucketHeartbeats.String())
	if err != nil {
		return err
	}

	data, err := time.Now().MarshalText()
	if err != nil {
		return err
	}

	_, err = kv.Put(ctx, network, data)
	return err
}
