package nats

import (
	"encoding/json"
	"fmt"
	"paygate/blockchain/rack/config"
	"paygate/blockchain/rack/currencies"
	"paygate/pkg/nats/natsdomain"
	"sync"

	"github.com/nats-io/nats.go"
)

func (app *App) natsCoreHandler(msg *nats.Msg) {

	switch msg.Subject {
	case natsdomain.SubjGetRates.String():
		dataJson, err := Unmarshal[natsdomain.ReqGetRates](msg.Data)
		if err != nil {
			msg.Respond([]byte("error: " + err.Error()))
			return
		}
		r, err := currencies.GetRates(app.Config, dataJson.ToCurrency)

		data, err := json.Marshal(RatesFormat(r, err))
		if err != nil {
			msg.Respond([]byte("error: " + err.Error()))
			return
		}

		err = msg.Respond(data)
		if err != nil {
			msg.Respond([]byte("error: " + err.Error()))
			return
		}

	case natsdomain.SubjAllocate.String():
		app.AllocateHandler(msg)
	case natsdomain.SubjRelease.String():
		app.ReleaseHandler(msg)
	case natsdomain.SubjContributeInput.String():
		app.ContributeInputHandler(msg)
	case natsdomain.SubjPing.String():
		msg.Respond([]byte("pong"))
	}

}

const WORKERS = 10

func (app *App) Run(c *config.Config, ns *natsdomain.Ns) {

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		for range WORKERS {
			_, err := ns.Nc.QueueSubscribe("networks.core.*", "network_workers", app.natsCoreHandler)
			if err != nil {
				fmt.Println("QueueSubscribe error: ", err)
				wg.Done()
				break
			}
		}
	}()
	wg.Wait()
}
