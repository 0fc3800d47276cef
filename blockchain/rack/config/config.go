package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Prod_env bool
	Nats     struct {
		TomlServers []string `toml:"servers"`
		Servers     string
	}
	PayCurrency struct {
		GlobalTestnet bool   `toml:"global_testnet"`
		CoinmarketApi string `toml:"coinmarket_api"`
		// per-network finality depth, settled events are published past it
		FinalityDepth map[string]uint32 `toml:"finality_depth"`
		Ton           struct {
			Testnet bool
		}
		Sol struct {
			Testnet bool
		}
		Eth struct {
			Testnet bool
			ApiKey  string `toml:"api_key"`
			// receiving addresses handed out to invoices, one per line
			PoolPath string `toml:"pool_path"`
			// token contract watched on the shared address space
			UsdtContract string `toml:"usdt_contract"`
		}
		Btc struct {
			Testnet  bool
			Host     string
			User     string
			Pass     string
			PoolPath string `toml:"pool_path"`
		}
		Lnd struct {
			Address     string
			GrpcPort    string `toml:"grpc_port"`
			MacaroonHex string `toml:"macaroon_hex"`
			TlsPath     string `toml:"tls_path"`
			Network     string // mainnet / testnet / regtest
		}
	} `toml:"pay_currency"`
}

func ReadConfig() *Config {

	byte_config, err := os.ReadFile(os.Getenv("CONFIG"))
	if err != nil {
		panic(err)
	}

	var config Config
	_, err = toml.Decode(string(byte_config), &config)
	if err != nil {
		panic(err)
	}

	user, err := os.ReadFile(os.Getenv("SECRETS") + "/nats-user.txt")
	if err != nil {
		panic(err)
	}

	pass, err := os.ReadFile(os.Getenv("SECRETS") + "/nats-password.txt")
	if err != nil {
		panic(err)
	}

	var formatedServers string
	for _, x := range config.Nats.TomlServers {
		connectUrl := fmt.Sprintf("nats://%s:%s@%s,", user, pass, string(x))
		formatedServers += connectUrl
	}

	config.Nats.Servers = formatedServers

	return &config
}

func (c *Config) FinalityDepth(network string) uint32 {
	if d, ok := c.PayCurrency.FinalityDepth[network]; ok && d > 0 {
		return d
	}
	return 6
}
