package service

import (
	"errors"
	"fmt"
	"testing"

	"paygate/api/internal/domain"
	"paygate/pkg/nats/natsdomain"
)

func TestMapWireError(t *testing.T) {
	cases := []struct {
		wire string
		want error
	}{
		{natsdomain.ErrMsgPoolExhausted, domain.ErrPoolExhausted},
		{natsdomain.ErrMsgNetworkUnavailable, domain.ErrNoHandlerAvailable},
		{natsdomain.ErrMsgRateUnavailable, domain.ErrRateUnavailable},
	}

	for _, c := range cases {
		if got := mapWireError(fmt.Errorf(c.wire)); !errors.Is(got, c.want) {
			t.Fatalf("%q mapped to %v", c.wire, got)
		}
	}

	// anything else passes through untouched
	other := fmt.Errorf("timeout")
	if got := mapWireError(other); got != other {
		t.Fatalf("unknown wire error rewritten: %v", got)
	}
}

func TestHandlersRegistry(t *testing.T) {
	s := NewHandlersService(nil)

	for _, network := range []domain.Network{
		domain.NETWORK_ETH,
		domain.NETWORK_ERC20,
		domain.NETWORK_SOL,
		domain.NETWORK_TON,
		domain.NETWORK_BTC,
		domain.NETWORK_LIGHTNING,
	} {
		h, err := s.For(network)
		if err != nil {
			t.Fatal(err)
		}
		if h.Network() != network {
			t.Fatalf("handler for %s reports %s", network.ToString(), h.Network().ToString())
		}
	}

	if _, err := s.For(domain.NETWORK_NONE); !errors.Is(err, domain.ErrNoHandlerAvailable) {
		t.Fatalf("want ErrNoHandlerAvailable, got %v", err)
	}
}
