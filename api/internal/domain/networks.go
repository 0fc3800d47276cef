package domain

type Network uint8

const (
	NETWORK_NONE Network = iota // only for init
	NETWORK_ETH
	NETWORK_ERC20
	NETWORK_SOL
	NETWORK_TON
	NETWORK_BTC
	NETWORK_LIGHTNING
)

var Networks = [...]string{"none", "eth", "erc20", "sol", "ton", "btc", "lightning"}

func (n Network) ToString() string {
	return Networks[n]
}

func (n Network) IsNone() bool {
	return n == 0
}

func StrToNetwork(s string) Network {
	for i, networkName := range Networks {
		if s == networkName {
			return Network(i)
		}
	}
	return NETWORK_NONE
}

// erc20 tokens ride on eth addresses, so a single incoming transfer to a
// shared identifier must be attributed by asset tag, never by address alone
func (n Network) SharesAddressSpaceWith(other Network) bool {
	if n == NETWORK_ETH && other == NETWORK_ERC20 {
		return true
	}
	if n == NETWORK_ERC20 && other == NETWORK_ETH {
		return true
	}
	return false
}

// only on-chain utxo methods take part in collaborative tx negotiation
func (n Network) SupportsPayjoin() bool {
	return n == NETWORK_BTC
}
