package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"paygate/blockchain/rack/pool"
	"paygate/pkg/nats/natsdomain"
	"time"

	"github.com/nats-io/nats.go"
)

func (app *App) AllocateHandler(msg *nats.Msg) {
	req, err := Unmarshal[natsdomain.ReqAllocate](msg.Data)
	if err != nil {
		fmt.Println("error Unmarshal[natsdomain.ReqAllocate](msg.Data): ", err)
		msg.Respond([]byte("error: " + err.Error()))
		return
	}

	allocator, ok := app.Allocators[req.Network]
	if !ok {
		respond(msg, natsdomain.ResAllocate{Error: wireError(natsdomain.ErrMsgNetworkUnavailable)})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	allocation, err := allocator.Allocate(ctx, req.InvoiceId, req.Amount)
	if err != nil {
		if errors.Is(err, pool.ErrExhausted) {
			respond(msg, natsdomain.ResAllocate{Error: wireError(natsdomain.ErrMsgPoolExhausted)})
			return
		}
		app.Dlog.Error("allocate failed", "network", req.Network, "invoice_id", req.InvoiceId, "error", err)
		respond(msg, natsdomain.ResAllocate{Error: wireError(natsdomain.ErrMsgNetworkUnavailable)})
		return
	}

	respond(msg, natsdomain.ResAllocate{
		Identifier:      allocation.Identifier,
		AssetTag:        allocation.AssetTag,
		SupportsPayjoin: allocation.SupportsPayjoin,
	})
}

func (app *App) ReleaseHandler(msg *nats.Msg) {
	req, err := Unmarshal[natsdomain.ReqRelease](msg.Data)
	if err != nil {
		fmt.Println("error Unmarshal[natsdomain.ReqRelease](msg.Data): ", err)
		msg.Respond([]byte("error: " + err.Error()))
		return
	}

	allocator, ok := app.Allocators[req.Network]
	if !ok {
		respond(msg, natsdomain.ResRelease{Error: wireError(natsdomain.ErrMsgNetworkUnavailable)})
		return
	}

	if err := allocator.Release(req.Identifier); err != nil {
		app.Dlog.Error("release failed", "network", req.Network, "identifier", req.Identifier, "error", err)
		respond(msg, natsdomain.ResRelease{Error: wireError(err.Error())})
		return
	}

	respond(msg, natsdomain.ResRelease{Released: true})
}

func (app *App) ContributeInputHandler(msg *nats.Msg) {
	req, err := Unmarshal[natsdomain.ReqContributeInput](msg.Data)
	if err != nil {
		fmt.Println("error Unmarshal[natsdomain.ReqContributeInput](msg.Data): ", err)
		msg.Respond([]byte("error: " + err.Error()))
		return
	}

	if app.Contributor == nil {
		respond(msg, natsdomain.ResContributeInput{Error: wireError(natsdomain.ErrMsgNetworkUnavailable)})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	txId, vout, amount, err := app.Contributor.ContributeInput(ctx, req.InvoiceId)
	if err != nil {
		app.Dlog.Error("contribute input failed", "invoice_id", req.InvoiceId, "error", err)
		respond(msg, natsdomain.ResContributeInput{Error: wireError(err.Error())})
		return
	}

	respond(msg, natsdomain.ResContributeInput{TxId: txId, Vout: vout, Amount: amount})
}

func respond(msg *nats.Msg, res any) {
	data, err := json.Marshal(res)
	if err != nil {
		fmt.Println("Marshal error: ", err)
		msg.Respond([]byte("error: " + err.Error()))
		return
	}

	err = msg.Respond(data)
	if err != nil {
		fmt.Println("Respond error: ", err)
		return
	}
}
