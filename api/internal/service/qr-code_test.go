package service

import (
	"strings"
	"testing"

	"paygate/api/internal/domain"

	"github.com/shopspring/decimal"
)

func TestPaymentUri(t *testing.T) {
	method := &domain.PaymentMethods{
		Network:        domain.NETWORK_BTC,
		Identifier:     "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq",
		RequiredAmount: decimal.NewFromFloat(0.0015),
	}

	uri := PaymentUri(method, "")
	if !strings.HasPrefix(uri, "bitcoin:bc1q") {
		t.Fatalf("bad scheme: %s", uri)
	}
	if !strings.Contains(uri, "amount=0.0015") {
		t.Fatalf("amount missing: %s", uri)
	}
	if strings.Contains(uri, "pj=") {
		t.Fatalf("pj advertised without endpoint: %s", uri)
	}
}

func TestPaymentUriPayjoin(t *testing.T) {
	method := &domain.PaymentMethods{
		Network:         domain.NETWORK_BTC,
		Identifier:      "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq",
		RequiredAmount:  decimal.NewFromFloat(0.0015),
		SupportsPayjoin: true,
	}

	uri := PaymentUri(method, "https://pay.example.com/v1/invoice/payjoin/abc")
	if !strings.Contains(uri, "pj=") {
		t.Fatalf("pj missing: %s", uri)
	}
}

// a lightning payment request is the uri, nothing gets wrapped around it
func TestPaymentUriLightning(t *testing.T) {
	method := &domain.PaymentMethods{
		Network:    domain.NETWORK_LIGHTNING,
		Identifier: "lnbc15u1p3xnhl2pp5jptserfk3zk4qy42tlucycrfwxhydvlemu9pqr93tuzlv9cc7g3s",
	}

	if uri := PaymentUri(method, ""); uri != method.Identifier {
		t.Fatalf("lightning uri mangled: %s", uri)
	}
}

func TestPaymentUriEth(t *testing.T) {
	method := &domain.PaymentMethods{
		Network:        domain.NETWORK_ETH,
		Identifier:     "0x71C7656EC7ab88b098defB751B7401B5f6d8976F",
		RequiredAmount: decimal.NewFromFloat(0.05),
	}

	uri := PaymentUri(method, "")
	if !strings.HasPrefix(uri, "ethereum:0x71C7") {
		t.Fatalf("bad scheme: %s", uri)
	}
}
