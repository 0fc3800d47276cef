package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
	"gorm.io/gorm"
)

type Config struct {
	DB *gorm.DB

	Prod_env bool

	ProxyPath string   `toml:"proxy_path"` // used in webhook-sender
	ProxyList []string `toml:"-"`          // reads proxies from ProxyPath and fills it with

	Invoices struct {
		// percentages. amounts within tolerance of the requested total count as exact
		UnderpaymentTolerance float64 `toml:"underpayment_tolerance"`
		OverpaymentTolerance  float64 `toml:"overpayment_tolerance"`
		// minutes. default validity window when the caller passes none
		DefaultLifetime int `toml:"default_lifetime"`
		// minutes past expiry before a funded-but-underpaid invoice goes invalid
		GraceWindow int `toml:"grace_window"`
		// seconds between Tick sweeps
		TickInterval int `toml:"tick_interval"`
		// confirmation depth per network, keyed by network name
		Confirmations map[string]uint32 `toml:"confirmations"`
	} `toml:"invoices"`

	Testing struct {
		Enabled         bool
		TxConfirmDelay  time.Duration `toml:"tx_confirm_delay"`
		TxSettledDelay  time.Duration `toml:"tx_settled_delay"`
	} `toml:"testing"`

	PrivateKey string `toml:"private_key"`
	Postgres   struct {
		Host     string `envconfig:"PG_HOST"`
		User     string `envconfig:"PG_USER"`
		Password string `envconfig:"PG_PASSWORD"`
		Db_name  string `envconfig:"PG_DBNAME"`
		Port     uint16 `envconfig:"PG_PORT"`
		Ssl_mode string `envconfig:"PG_SSLMODE"`
	}
	Nats struct {
		Servers     string
		TomlServers []string `toml:"servers"`
	}
	Api struct {
		Ipv4  string
		Proto string
	} `toml:"pay_web"`
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

	// env wins over toml for db credentials
	if err := envconfig.Process("paygate", &config.Postgres); err != nil {
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
	config.ProxyList = GetProxyList(config.ProxyPath)

	if config.Invoices.DefaultLifetime == 0 {
		config.Invoices.DefaultLifetime = 60
	}
	if config.Invoices.GraceWindow == 0 {
		config.Invoices.GraceWindow = config.Invoices.DefaultLifetime
	}
	if config.Invoices.TickInterval == 0 {
		config.Invoices.TickInterval = 30
	}

	if config.Prod_env && config.Testing.Enabled {
		panic("cannot use testing in prod")
	}

	return &config
}

func GetProxyList(path string) []string {
	proxyList, err := os.ReadFile(path)
	if err != nil {
		fmt.Println("warn: proxy list not loaded:", err)
		return []string{}
	}

	return strings.Split(strings.TrimSpace(string(proxyList)), "\n")
}
