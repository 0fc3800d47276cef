package main

import (
	"context"
	"paygate/blockchain/rack/config"
	"paygate/blockchain/rack/currencies"
	"paygate/blockchain/rack/currencies/btc"
	"paygate/blockchain/rack/currencies/eth"
	"paygate/blockchain/rack/currencies/lightning"
	"paygate/blockchain/rack/currencies/sol"
	"paygate/blockchain/rack/currencies/ton"
	"paygate/blockchain/rack/nats"
	"paygate/blockchain/rack/pool"
	"paygate/pkg/dlog"
	"sync/atomic"

	tonapi "github.com/xssnick/tonutils-go/ton"
)

func main() {

	dlog := dlog.Init()

	var curs = new(atomic.Int32)

	config := config.ReadConfig()
	ns := nats.Init(config)

	emitter := nats.NewEmitter(ns)
	ctx := context.Background()

	go currencies.UpdateRates(config)

	// TON

	tonClient, blockid := ton.Init(config, curs)

	var tonBlock atomic.Pointer[tonapi.BlockIDExt]
	tonBlock.Store(blockid)

	go ton.RunUpdateBlock(tonClient, &tonBlock, dlog)

	tonService := ton.NewService(tonClient, emitter)
	if err := tonService.Restore(ctx); err != nil {
		panic("ton restore: " + err.Error())
	}
	tonWatcher := &ton.Watcher{Api: tonClient, BlockID: &tonBlock, Service: tonService, Emitter: emitter, Dlog: dlog}
	go tonWatcher.Run(ctx)

	// SOLANA

	solClient, _ := sol.Init(config, curs)

	solService := sol.NewService(emitter)
	if err := solService.Restore(ctx); err != nil {
		panic("sol restore: " + err.Error())
	}
	solWatcher := &sol.Watcher{Client: solClient, Service: solService, Emitter: emitter, Dlog: dlog}
	go solWatcher.Run(ctx)

	// ETHEREUM

	ethClient := eth.Init(config, curs)

	ethPool, err := pool.LoadFromFile(config.PayCurrency.Eth.PoolPath)
	if err != nil {
		panic("eth pool: " + err.Error())
	}

	ethService := eth.NewService(ethClient, ethPool, emitter)
	if err := ethService.Restore(ctx); err != nil {
		panic("eth restore: " + err.Error())
	}
	ethWatcher := &eth.Watcher{
		Client:   ethClient,
		Pool:     ethPool,
		Emitter:  emitter,
		Contract: config.PayCurrency.Eth.UsdtContract,
		Depth:    config.FinalityDepth("eth"),
		Dlog:     dlog,
	}
	go ethWatcher.Run(ctx)

	// BITCOIN

	btcClient := btc.Init(config, curs)

	btcPool, err := pool.LoadFromFile(config.PayCurrency.Btc.PoolPath)
	if err != nil {
		panic("btc pool: " + err.Error())
	}

	btcService := btc.NewService(btcClient, btcPool, emitter)
	if err := btcService.Restore(ctx); err != nil {
		panic("btc restore: " + err.Error())
	}
	btcWatcher := &btc.Watcher{
		Client:  btcClient,
		Pool:    btcPool,
		Params:  btc.Params(config),
		Emitter: emitter,
		Depth:   config.FinalityDepth("btc"),
		Dlog:    dlog,
	}
	go btcWatcher.Run(ctx)

	// LIGHTNING

	lndServices := lightning.Init(config, curs)
	lightningService := lightning.NewService(lndServices, emitter, dlog)
	if err := lightningService.Restore(ctx); err != nil {
		panic("lightning restore: " + err.Error())
	}
	go lightningService.Run(ctx)

	app := nats.App{
		Allocators: map[string]nats.Allocator{
			"ton":       tonService,
			"sol":       solService,
			"eth":       ethService,
			"erc20":     &eth.TokenAllocator{Service: ethService, Contract: config.PayCurrency.Eth.UsdtContract},
			"btc":       btcService,
			"lightning": lightningService,
		},
		Contributor: btcService,
		Config:      config,
		Ns:          ns,
		Dlog:        dlog,
	}

	app.Run(config, ns)
}
