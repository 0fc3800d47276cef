package ton

import (
	"context"
	"fmt"
	"paygate/blockchain/rack/config"
	"sync/atomic"
	"time"

	"paygate/pkg/dlog"

	"github.com/xssnick/tonutils-go/liteclient"
	"github.com/xssnick/tonutils-go/ton"
)

const (
	TESTNET_URL = "https://ton.org/testnet-global.config.json"
	DEFAULT_URL = "https://ton.org/global.config.json"
)

func Init(config *config.Config, currencies *atomic.Int32) (ton.APIClientWrapped, *ton.BlockIDExt) {

	client := liteclient.NewConnectionPool()

	cfg, err := getTonConfig(config)
	if err != nil {
		panic("get config err: " + err.Error())
	}

	err = client.AddConnectionsFromConfig(context.Background(), cfg)
	if err != nil {
		panic("connection err: " + err.Error())
	}

	api := ton.NewAPIClient(client, ton.ProofCheckPolicyFast).WithRetry(2)
	api.SetTrustedBlockFromConfig(cfg)

	master, err := api.CurrentMasterchainInfo(context.Background()) // we fetch block just to trigger chain proof check
	if err != nil {
		panic("get masterchain info err: " + err.Error())
	}

	fmt.Printf("[%d] TON connected\n", currencies.Load())
	currencies.Add(1)

	return api, master
}

func getTonConfig(config *config.Config) (*liteclient.GlobalConfig, error) {
	if config.PayCurrency.Ton.Testnet {
		return liteclient.GetConfigFromUrl(context.Background(), TESTNET_URL)
	}
	return liteclient.GetConfigFromUrl(context.Background(), DEFAULT_URL)
}

func RunUpdateBlock(client ton.APIClientWrapped, oldBlock *atomic.Pointer[ton.BlockIDExt], dl dlog.Dlog) {
	for {
		err := UpdateBlockOnce(client, oldBlock)
		if err != nil {
			dl.Debug("ton block update failed", "error", err)
			time.Sleep(2 * time.Second)
			continue
		}
		time.Sleep(5 * time.Second)
	}

}

func UpdateBlockOnce(client ton.APIClientWrapped, oldBlock *atomic.Pointer[ton.BlockIDExt]) error {
	master, err := client.CurrentMasterchainInfo(context.Background())
	if err != nil {
		return err
	}

	oldBlock.Store(master)
	return nil
}
