package domain

import (
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
)

func testRules() StatusRules {
	return StatusRules{
		UnderpaymentTolerance: decimal.NewFromFloat(1),   // 1%
		OverpaymentTolerance:  decimal.NewFromFloat(0.5), // 0.5%
		RequiredDepth: map[Network]uint32{
			NETWORK_ETH: 12,
			NETWORK_BTC: 3,
		},
	}
}

// 100 usd invoice payable over eth at 2000 usd/eth, so 0.05 eth required
func testInvoice() (*Invoices, []PaymentMethods) {
	now := time.Now().Unix()

	invoice := &Invoices{
		InvoiceID:         gofakeit.UUID(),
		Status:            STATUS_NEW,
		RequestedAmount:   decimal.NewFromInt(100),
		RequestedCurrency: "USD",
		EndTimestamp:      now + 3600,
		GraceTimestamp:    now + 7200,
	}

	methods := []PaymentMethods{
		{
			ID:             1,
			InvoiceID:      invoice.InvoiceID,
			Network:        NETWORK_ETH,
			Currency:       "eth",
			Identifier:     "0xabc",
			Rate:           decimal.NewFromInt(2000),
			RequiredAmount: decimal.NewFromFloat(0.05),
			Active:         true,
		},
	}

	return invoice, methods
}

func ethEvent(invoiceId string, amount float64, confidence Confidence, depth uint32) PaymentEvents {
	return PaymentEvents{
		InvoiceID:     invoiceId,
		MethodID:      1,
		SourceNetwork: NETWORK_ETH,
		TxRef:         gofakeit.UUID(),
		Identifier:    "0xabc",
		Amount:        decimal.NewFromFloat(amount),
		Confidence:    confidence,
		Depth:         depth,
	}
}

func TestRecomputeNoFunds(t *testing.T) {
	invoice, methods := testInvoice()
	now := time.Now().Unix()

	status := Recompute(invoice, methods, nil, testRules(), now)
	if status != STATUS_NEW {
		t.Fatalf("want new, got %s", status.ToString())
	}
}

func TestRecomputeExpiresWithoutFunds(t *testing.T) {
	invoice, methods := testInvoice()

	status := Recompute(invoice, methods, nil, testRules(), invoice.EndTimestamp+1)
	if status != STATUS_EXPIRED {
		t.Fatalf("want expired, got %s", status.ToString())
	}
}

func TestRecomputePartialPayment(t *testing.T) {
	invoice, methods := testInvoice()
	now := time.Now().Unix()

	events := []PaymentEvents{ethEvent(invoice.InvoiceID, 0.02, CONFIDENCE_SETTLED, 0)}

	status := Recompute(invoice, methods, events, testRules(), now)
	if status != STATUS_PAID_PARTIAL {
		t.Fatalf("want paid_partial, got %s", status.ToString())
	}
}

// a funded invoice is never force-expired past the end timestamp, it only
// goes invalid once the grace deadline passes with funds still short
func TestRecomputePartialNotExpired(t *testing.T) {
	invoice, methods := testInvoice()

	events := []PaymentEvents{ethEvent(invoice.InvoiceID, 0.02, CONFIDENCE_SETTLED, 0)}

	status := Recompute(invoice, methods, events, testRules(), invoice.EndTimestamp+1)
	if status != STATUS_PAID_PARTIAL {
		t.Fatalf("want paid_partial past end, got %s", status.ToString())
	}

	status = Recompute(invoice, methods, events, testRules(), invoice.GraceTimestamp+1)
	if status != STATUS_INVALID {
		t.Fatalf("want invalid past grace, got %s", status.ToString())
	}
}

func TestRecomputeUnderpaymentTolerance(t *testing.T) {
	invoice, methods := testInvoice()
	now := time.Now().Unix()

	// 0.0495 eth = 99 usd, exactly on the 1% under bound
	events := []PaymentEvents{ethEvent(invoice.InvoiceID, 0.0495, CONFIDENCE_SETTLED, 0)}

	status := Recompute(invoice, methods, events, testRules(), now)
	if status != STATUS_CONFIRMED {
		t.Fatalf("want confirmed within tolerance, got %s", status.ToString())
	}

	// one cent below the band
	events = []PaymentEvents{ethEvent(invoice.InvoiceID, 0.04949, CONFIDENCE_SETTLED, 0)}

	status = Recompute(invoice, methods, events, testRules(), now)
	if status != STATUS_PAID_PARTIAL {
		t.Fatalf("want paid_partial below tolerance, got %s", status.ToString())
	}
}

func TestRecomputeOverpayment(t *testing.T) {
	invoice, methods := testInvoice()
	now := time.Now().Unix()

	// 0.06 eth = 120 usd, far over the 0.5% band, still waiting on depth
	events := []PaymentEvents{ethEvent(invoice.InvoiceID, 0.06, CONFIDENCE_CONFIRMED, 1)}

	status := Recompute(invoice, methods, events, testRules(), now)
	if status != STATUS_PAID_OVER {
		t.Fatalf("want paid_over, got %s", status.ToString())
	}

	events[0].Confidence = CONFIDENCE_SETTLED
	status = Recompute(invoice, methods, events, testRules(), now)
	if status != STATUS_COMPLETE {
		t.Fatalf("want complete once settled, got %s", status.ToString())
	}
}

func TestRecomputeWaitsForDepth(t *testing.T) {
	invoice, methods := testInvoice()
	now := time.Now().Unix()

	events := []PaymentEvents{ethEvent(invoice.InvoiceID, 0.05, CONFIDENCE_CONFIRMED, 3)}

	status := Recompute(invoice, methods, events, testRules(), now)
	if status != STATUS_PROCESSING {
		t.Fatalf("want processing at depth 3/12, got %s", status.ToString())
	}

	events[0].Depth = 12
	status = Recompute(invoice, methods, events, testRules(), now)
	if status != STATUS_CONFIRMED {
		t.Fatalf("want confirmed at depth 12, got %s", status.ToString())
	}
}

func TestRecomputeAcknowledgeCompletes(t *testing.T) {
	invoice, methods := testInvoice()
	now := time.Now().Unix()

	events := []PaymentEvents{ethEvent(invoice.InvoiceID, 0.05, CONFIDENCE_SETTLED, 0)}

	invoice.Status = STATUS_CONFIRMED
	invoice.AcknowledgedAt = now

	status := Recompute(invoice, methods, events, testRules(), now)
	if status != STATUS_COMPLETE {
		t.Fatalf("want complete after ack, got %s", status.ToString())
	}
}

func TestRecomputeIdempotent(t *testing.T) {
	invoice, methods := testInvoice()
	now := time.Now().Unix()

	events := []PaymentEvents{
		ethEvent(invoice.InvoiceID, 0.03, CONFIDENCE_SETTLED, 0),
		ethEvent(invoice.InvoiceID, 0.02, CONFIDENCE_SETTLED, 0),
	}

	first := Recompute(invoice, methods, events, testRules(), now)
	for range 10 {
		if got := Recompute(invoice, methods, events, testRules(), now); got != first {
			t.Fatalf("recompute not stable: %s then %s", first.ToString(), got.ToString())
		}
	}
}

// a replayed event raises confidence but never doubles the amount
func TestDedupEventsReplay(t *testing.T) {
	invoice, methods := testInvoice()
	now := time.Now().Unix()

	base := ethEvent(invoice.InvoiceID, 0.05, CONFIDENCE_CONFIRMED, 2)
	replay := base
	replay.Confidence = CONFIDENCE_SETTLED
	replay.Depth = 0

	events := []PaymentEvents{base, replay}

	deduped := DedupEvents(events)
	if len(deduped) != 1 {
		t.Fatalf("want 1 event after dedup, got %d", len(deduped))
	}
	if deduped[0].Confidence != CONFIDENCE_SETTLED {
		t.Fatal("replay should raise confidence")
	}

	status := Recompute(invoice, methods, events, testRules(), now)
	if status != STATUS_CONFIRMED {
		t.Fatalf("want confirmed, got %s", status.ToString())
	}
}

func TestRecomputeMonotonic(t *testing.T) {
	invoice, methods := testInvoice()
	now := time.Now().Unix()

	// persisted status is ahead of what the events support. the result must
	// not move backward
	invoice.Status = STATUS_CONFIRMED

	events := []PaymentEvents{ethEvent(invoice.InvoiceID, 0.02, CONFIDENCE_SETTLED, 0)}

	status := Recompute(invoice, methods, events, testRules(), now)
	if status != STATUS_CONFIRMED {
		t.Fatalf("status moved backward to %s", status.ToString())
	}
}

func TestRecomputeTerminalSinks(t *testing.T) {
	invoice, methods := testInvoice()
	now := time.Now().Unix()

	events := []PaymentEvents{ethEvent(invoice.InvoiceID, 0.05, CONFIDENCE_SETTLED, 0)}

	for _, terminal := range []Status{STATUS_EXPIRED, STATUS_INVALID, STATUS_COMPLETE} {
		invoice.Status = terminal
		if got := Recompute(invoice, methods, events, testRules(), now); got != terminal {
			t.Fatalf("terminal %s moved to %s", terminal.ToString(), got.ToString())
		}
	}
}

func TestAccrueAfterTerminalExcluded(t *testing.T) {
	invoice, methods := testInvoice()

	late := ethEvent(invoice.InvoiceID, 0.05, CONFIDENCE_SETTLED, 0)
	late.AfterTerminal = true

	accrued := Accrue(methods, []PaymentEvents{late})
	if !accrued[0].Accrued.IsZero() {
		t.Fatal("after-terminal event was credited")
	}
}

// eth and erc20 share one receiving address. a token transfer must land on
// the token method, never on the native one
func TestAccrueSharedAddressSpace(t *testing.T) {
	invoiceId := gofakeit.UUID()
	contract := "0xdac17f958d2ee523a2206206994597c13d831ec7"

	methods := []PaymentMethods{
		{ID: 1, InvoiceID: invoiceId, Network: NETWORK_ETH, Identifier: "0xabc", Rate: decimal.NewFromInt(2000)},
		{ID: 2, InvoiceID: invoiceId, Network: NETWORK_ERC20, Identifier: "0xabc", AssetTag: contract, Rate: decimal.NewFromInt(1)},
	}

	events := []PaymentEvents{
		{InvoiceID: invoiceId, SourceNetwork: NETWORK_ERC20, TxRef: "t1", Identifier: "0xabc", AssetTag: contract, Amount: decimal.NewFromInt(100), Confidence: CONFIDENCE_SETTLED},
		{InvoiceID: invoiceId, SourceNetwork: NETWORK_ETH, TxRef: "t2", Identifier: "0xabc", Amount: decimal.NewFromFloat(0.01), Confidence: CONFIDENCE_SETTLED},
	}

	accrued := Accrue(methods, events)

	if !accrued[0].Accrued.Equal(decimal.NewFromFloat(0.01)) {
		t.Fatalf("eth method accrued %s", accrued[0].Accrued)
	}
	if !accrued[1].Accrued.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("erc20 method accrued %s", accrued[1].Accrued)
	}
}

// a transfer of some unknown token to the shared address matches no method
func TestAccrueForeignTokenIgnored(t *testing.T) {
	invoiceId := gofakeit.UUID()

	methods := []PaymentMethods{
		{ID: 1, InvoiceID: invoiceId, Network: NETWORK_ERC20, Identifier: "0xabc", AssetTag: "0xusdt", Rate: decimal.NewFromInt(1)},
	}

	events := []PaymentEvents{
		{InvoiceID: invoiceId, SourceNetwork: NETWORK_ERC20, TxRef: "t1", Identifier: "0xabc", AssetTag: "0xshitcoin", Amount: decimal.NewFromInt(100), Confidence: CONFIDENCE_SETTLED},
	}

	accrued := Accrue(methods, events)
	if !accrued[0].Accrued.IsZero() {
		t.Fatal("foreign token was credited")
	}
}

func TestPaidValueLockedRates(t *testing.T) {
	methods := []PaymentMethods{
		{Accrued: decimal.NewFromFloat(0.05), Rate: decimal.NewFromInt(2000)},
		{Accrued: decimal.NewFromInt(50), Rate: decimal.NewFromInt(1)},
	}

	if got := PaidValue(methods); !got.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("want 150, got %s", got)
	}
}
