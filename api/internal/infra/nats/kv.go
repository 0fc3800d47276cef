package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"paygate/pkg/nats/natsdomain"
	"paygate/pkg/utils"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// last heartbeat written by a network watcher. Tick uses this to tell
// "no funds seen" apart from "watcher was down"
func (n *NatsInfra) WatcherHeartbeat(ctx context.Context, network string) (time.Time, error) {
	kv, err := n.Ns.Js.KeyValue(ctx, natsdomain.BucketHeartbeats.String())
	if err != nil {
		return time.Time{}, err
	}

	entry, err := kv.Get(ctx, network)
	if err != nil {
		if err == jetstream.ErrKeyNotFound {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}

	var ts time.Time
	if err := ts.UnmarshalText(entry.Value()); err != nil {
		return time.Time{}, err
	}
	return ts, nil
}

func (n *NatsInfra) ReqContributeInput(invoiceId string) (*natsdomain.ResContributeInput, error) {
	data, err := json.Marshal(natsdomain.ReqContributeInput{InvoiceId: invoiceId})
	if err != nil {
		return nil, err
	}

	resp, err := n.Ns.ReqAndRecv(natsdomain.SubjContributeInput, data)
	if err != nil {
		return nil, err
	}

	iserr, errmsg := HelpersIsError(resp)
	if iserr {
		return nil, fmt.Errorf(errmsg)
	}

	contribution, err := utils.Unmarshal[natsdomain.ResContributeInput](resp)
	if err != nil {
		return nil, err
	}

	if contribution.IsError {
		return nil, fmt.Errorf(contribution.Message)
	}

	return contribution, nil
}
