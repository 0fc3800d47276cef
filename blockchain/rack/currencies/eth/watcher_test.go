package eth

import (
	"strings"
	"testing"

	"paygate/blockchain/rack/pool"

	"github.com/ethereum/go-ethereum/common"
)

// the node reports addresses eip-55 checksummed while pool files usually hold
// them lowercase. published events must carry the pool's exact form or the
// engine never matches them to a method row
func TestWatchedByLowerCanonical(t *testing.T) {
	const poolForm = "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"

	p := pool.New([]string{poolForm})
	if _, err := p.Allocate("inv-1"); err != nil {
		t.Fatal(err)
	}

	watched := watchedByLower(p)

	// the checksummed form the node hands back
	onChain := common.HexToAddress(poolForm).Hex()
	if onChain == poolForm {
		t.Fatal("checksummed form should differ from the lowercase pool form")
	}

	identifier, ok := watched[strings.ToLower(onChain)]
	if !ok {
		t.Fatal("on-chain address not matched against the pool")
	}
	if identifier != poolForm {
		t.Errorf("event identifier %q, want the pool form %q", identifier, poolForm)
	}
}

// same guarantee the other way around, a checksummed pool file
func TestWatchedByLowerChecksummedPool(t *testing.T) {
	poolForm := common.HexToAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed").Hex()

	p := pool.New([]string{poolForm})
	if _, err := p.Allocate("inv-1"); err != nil {
		t.Fatal(err)
	}

	watched := watchedByLower(p)

	identifier, ok := watched[strings.ToLower(poolForm)]
	if !ok {
		t.Fatal("pool address not watched")
	}
	if identifier != poolForm {
		t.Errorf("event identifier %q, want %q", identifier, poolForm)
	}
}
