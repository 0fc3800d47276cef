package nats

import (
	"errors"
	"testing"

	"paygate/pkg/nats/natsdomain"

	"github.com/shopspring/decimal"
)

func TestRatesFormat(t *testing.T) {
	rates := &natsdomain.Rates{
		Eth:        decimal.NewFromInt(2000),
		Btc:        decimal.NewFromInt(60000),
		ToCurrency: "USD",
	}

	res := RatesFormat(rates, nil)
	if res.IsError {
		t.Fatal("unexpected error flag")
	}
	if !res.Rates.Eth.Equal(rates.Eth) {
		t.Fatal("rates not carried over")
	}
}

func TestRatesFormatError(t *testing.T) {
	errUpstream := errors.New("invalid rates")

	res := RatesFormat(nil, errUpstream)
	if !res.IsError {
		t.Fatal("error flag not set")
	}
	if res.Message != errUpstream.Error() {
		t.Fatalf("bad message: %s", res.Message)
	}
}

func TestUnmarshal(t *testing.T) {
	req, err := Unmarshal[natsdomain.ReqAllocate]([]byte(`{"Network": "btc", "InvoiceId": "abc"}`))
	if err != nil {
		t.Fatal(err)
	}
	if req.Network != "btc" || req.InvoiceId != "abc" {
		t.Fatalf("bad decode: %+v", req)
	}

	if _, err := Unmarshal[natsdomain.ReqAllocate]([]byte(`{`)); err == nil {
		t.Fatal("malformed json decoded")
	}
}
