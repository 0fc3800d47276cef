package lightning

import (
	"context"
	"fmt"
	"os"
	"paygate/blockchain/rack/config"
	"sync/atomic"

	"github.com/lightninglabs/lndclient"
)

func Init(config *config.Config, currencies *atomic.Int32) *lndclient.GrpcLndServices {
	cfg := config.PayCurrency.Lnd

	tlsData, err := os.ReadFile(cfg.TlsPath)
	if err != nil {
		panic("read tls cert: " + err.Error())
	}

	svc, err := lndclient.NewLndServices(&lndclient.LndServicesConfig{
		LndAddress:        fmt.Sprintf("%s:%s", cfg.Address, cfg.GrpcPort),
		Network:           lndclient.Network(cfg.Network),
		CustomMacaroonHex: cfg.MacaroonHex,
		TLSData:           string(tlsData),
	})
	if err != nil {
		panic("Can't connect: " + err.Error())
	}

	_, err = svc.Client.GetInfo(context.Background())
	if err != nil {
		panic("Can't connect: " + err.Error())
	}

	fmt.Printf("[%d] LND connected: %s:%s\n", currencies.Load(), cfg.Address, cfg.GrpcPort)
	currencies.Add(1)

	return svc
}
