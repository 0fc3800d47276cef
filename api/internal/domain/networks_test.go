package domain

import "testing"

func TestStrToNetwork(t *testing.T) {
	for i, name := range Networks {
		if StrToNetwork(name) != Network(i) {
			t.Fatalf("round trip failed for %s", name)
		}
	}

	if !StrToNetwork("doge").IsNone() {
		t.Fatal("unknown network did not map to none")
	}
}

func TestSharesAddressSpace(t *testing.T) {
	if !NETWORK_ETH.SharesAddressSpaceWith(NETWORK_ERC20) {
		t.Fatal("eth/erc20 must share an address space")
	}
	if !NETWORK_ERC20.SharesAddressSpaceWith(NETWORK_ETH) {
		t.Fatal("sharing must be symmetric")
	}
	if NETWORK_BTC.SharesAddressSpaceWith(NETWORK_LIGHTNING) {
		t.Fatal("btc/lightning do not share an address space")
	}
	if NETWORK_ETH.SharesAddressSpaceWith(NETWORK_ETH) {
		t.Fatal("a network does not share with itself")
	}
}

func TestSupportsPayjoin(t *testing.T) {
	if !NETWORK_BTC.SupportsPayjoin() {
		t.Fatal("btc must support payjoin")
	}
	for _, n := range []Network{NETWORK_ETH, NETWORK_ERC20, NETWORK_SOL, NETWORK_TON, NETWORK_LIGHTNING} {
		if n.SupportsPayjoin() {
			t.Fatalf("%s must not support payjoin", n.ToString())
		}
	}
}
