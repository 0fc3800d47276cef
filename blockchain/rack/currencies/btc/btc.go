package btc

import (
	"fmt"
	"paygate/blockchain/rack/config"
	"sync/atomic"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/rpcclient"
)

func Init(config *config.Config, currencies *atomic.Int32) *rpcclient.Client {

	client, err := rpcclient.New(&rpcclient.ConnConfig{
		Host:         config.PayCurrency.Btc.Host,
		User:         config.PayCurrency.Btc.User,
		Pass:         config.PayCurrency.Btc.Pass,
		HTTPPostMode: true,
		DisableTLS:   true,
	}, nil)
	if err != nil {
		panic("Can't connect: " + err.Error())
	}

	_, err = client.GetBlockCount()
	if err != nil {
		panic("Can't connect: " + err.Error())
	}

	fmt.Printf("[%d] BTC connected: %s\n", currencies.Load(), config.PayCurrency.Btc.Host)
	currencies.Add(1)

	return client
}

func Params(config *config.Config) *chaincfg.Params {
	if config.PayCurrency.Btc.Testnet {
		return &chaincfg.TestNet3Params
	}
	return &chaincfg.MainNetParams
}
