package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"paygate/api/internal/config"
	"paygate/api/internal/domain"
	"paygate/api/internal/infra/cache"
	"paygate/api/internal/infra/postgres"
	"paygate/api/internal/logger"
	"paygate/api/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newPgService(t *testing.T) (*InvoicesService, *gorm.DB) {
	t.Helper()

	if testing.Short() {
		t.Skip("needs a local postgres")
	}

	db := postgres.InitTest(postgres.TEST_CONFIG)

	handlers := &fakeHandlers{byNetwork: map[domain.Network]*fakeHandler{
		domain.NETWORK_ETH: {network: domain.NETWORK_ETH},
	}}

	c := cache.InitStorage()

	s := NewInvoicesService(
		db,
		repository.New(),
		NewLockerService(c),
		handlers,
		&fakeRates{},
		nil,
		logger.Init(&config.Config{Prod_env: false}),
		c,
		flowConfig(),
	)
	return s, db
}

func settledEvent(identifier, txRef string, amount float64) *domain.PaymentEvents {
	return &domain.PaymentEvents{
		SourceNetwork: domain.NETWORK_ETH,
		TxRef:         txRef,
		Identifier:    identifier,
		Amount:        decimal.NewFromFloat(amount),
		Confidence:    domain.CONFIDENCE_SETTLED,
		ObservedAt:    time.Now(),
	}
}

// full payment lifecycle: create, pay in full at required depth, confirm,
// acknowledge, complete
func TestInvoiceLifecycle(t *testing.T) {
	s, _ := newPgService(t)

	invoice, err := s.Create(context.Background(), CreateInvoiceInput{
		MerchantID: "m-lifecycle",
		Amount:     decimal.NewFromInt(100),
		Currency:   "USD",
		Networks:   []domain.Network{domain.NETWORK_ETH},
	})
	require.NoError(t, err)
	require.Equal(t, domain.STATUS_NEW, invoice.Status)
	require.Len(t, invoice.PaymentMethods, 1)

	method := invoice.PaymentMethods[0]

	// 100 usd at 2000 usd/eth
	require.True(t, method.RequiredAmount.Equal(decimal.NewFromFloat(0.05)))

	event := &domain.PaymentEvents{
		SourceNetwork: domain.NETWORK_ETH,
		TxRef:         "lifecycle-" + invoice.InvoiceID,
		Identifier:    method.Identifier,
		Amount:        method.RequiredAmount,
		Confidence:    domain.CONFIDENCE_CONFIRMED,
		Depth:         2, // required depth for eth in the test config
		ObservedAt:    time.Now(),
	}

	updated, err := s.ApplyPaymentEvent(invoice.InvoiceID, event)
	require.NoError(t, err)
	require.Equal(t, domain.STATUS_CONFIRMED, updated.Status)

	// the dispatcher delivered the confirmed webhook
	require.NoError(t, s.Acknowledge(invoice.InvoiceID))

	final, err := s.FindByID(s.db, invoice.InvoiceID)
	require.NoError(t, err)
	require.Equal(t, domain.STATUS_COMPLETE, final.Status)
}

// two concurrent applications of different events on one invoice must both
// land, the version check turns a lost update into a retry, never a drop
func TestApplyPaymentEventConcurrent(t *testing.T) {
	s, db := newPgService(t)

	invoice, err := s.Create(context.Background(), CreateInvoiceInput{
		MerchantID: "m-concurrent",
		Amount:     decimal.NewFromInt(100),
		Currency:   "USD",
		Networks:   []domain.Network{domain.NETWORK_ETH},
	})
	require.NoError(t, err)

	identifier := invoice.PaymentMethods[0].Identifier

	events := []*domain.PaymentEvents{
		settledEvent(identifier, "concurrent-a-"+invoice.InvoiceID, 0.02),
		settledEvent(identifier, "concurrent-b-"+invoice.InvoiceID, 0.02),
	}

	var wg sync.WaitGroup
	errs := make([]error, len(events))

	for c := range events {
		wg.Add(1)
		go func(c int) {
			defer wg.Done()
			_, errs[c] = s.ApplyPaymentEvent(invoice.InvoiceID, events[c])
		}(c)
	}
	wg.Wait()

	for c := range errs {
		require.NoError(t, errs[c])
	}

	recorded, err := repository.InitPaymentEventsRepo().FindByInvoice(db, invoice.InvoiceID)
	require.NoError(t, err)
	require.Len(t, recorded, 2)

	final, err := s.FindByID(db, invoice.InvoiceID)
	require.NoError(t, err)
	require.Equal(t, domain.STATUS_PAID_PARTIAL, final.Status)

	// both accruals reflected, no lost update
	require.True(t, final.PaymentMethods[0].Accrued.Equal(decimal.NewFromFloat(0.04)),
		"accrued %s, want 0.04", final.PaymentMethods[0].Accrued)
}
