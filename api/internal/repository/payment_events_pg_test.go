package repository

import (
	"testing"

	"paygate/api/internal/domain"
	"paygate/api/internal/infra/postgres"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
)

func TestCreateDedup(t *testing.T) {
	if testing.Short() {
		t.Skip("needs a local postgres")
	}

	r := InitPaymentEventsRepo()
	db := postgres.InitTest(postgres.TEST_CONFIG)

	event := &domain.PaymentEvents{
		InvoiceID:     gofakeit.UUID(),
		SourceNetwork: domain.NETWORK_ETH,
		TxRef:         gofakeit.UUID(),
		Identifier:    "0xabc",
		Amount:        decimal.NewFromFloat(0.05),
		Confidence:    domain.CONFIDENCE_CONFIRMED,
		Depth:         2,
	}

	created, err := r.CreateDedup(db, event)
	if err != nil {
		t.Fatal(err)
	}
	if !created {
		t.Fatal("first insert reported as duplicate")
	}

	// same (network, tx_ref) again
	created, err = r.CreateDedup(db, event)
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Fatal("duplicate insert not detected")
	}

	// replay with raised confidence
	event.Confidence = domain.CONFIDENCE_SETTLED
	event.Depth = 0
	if err := r.RaiseConfidence(db, event); err != nil {
		t.Fatal(err)
	}

	stored, err := r.FindByRef(db, event.SourceNetwork, event.TxRef)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Confidence != domain.CONFIDENCE_SETTLED {
		t.Fatal("confidence raise not persisted")
	}
	if !stored.Amount.Equal(event.Amount) {
		t.Fatal("replay changed the amount")
	}
}

func TestRaiseConfidenceNeverLowers(t *testing.T) {
	if testing.Short() {
		t.Skip("needs a local postgres")
	}

	r := InitPaymentEventsRepo()
	db := postgres.InitTest(postgres.TEST_CONFIG)

	event := &domain.PaymentEvents{
		InvoiceID:     gofakeit.UUID(),
		SourceNetwork: domain.NETWORK_BTC,
		TxRef:         gofakeit.UUID(),
		Identifier:    "bc1qtest",
		Amount:        decimal.NewFromFloat(0.001),
		Confidence:    domain.CONFIDENCE_SETTLED,
	}

	if _, err := r.CreateDedup(db, event); err != nil {
		t.Fatal(err)
	}

	// a late unconfirmed replay must not downgrade
	event.Confidence = domain.CONFIDENCE_UNCONFIRMED
	if err := r.RaiseConfidence(db, event); err != nil {
		t.Fatal(err)
	}

	stored, err := r.FindByRef(db, event.SourceNetwork, event.TxRef)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Confidence != domain.CONFIDENCE_SETTLED {
		t.Fatal("confidence was lowered")
	}
}
