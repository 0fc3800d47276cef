package service

import (
	"testing"
	"time"

	"paygate/api/internal/config"
	"paygate/api/internal/domain"
	"paygate/api/internal/infra/cache"
	"paygate/api/internal/logger"
	"paygate/api/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// only FindGlobal matters here, the rest of the interface is never reached
type fakeInvoicesFinder struct {
	Invoices
	invoice *domain.Invoices
}

func (f *fakeInvoicesFinder) FindGlobal(tx *gorm.DB, invoiceId string) (*domain.Invoices, error) {
	return f.invoice, nil
}

type fakeEventsRepo struct {
	repository.PaymentEvents
	events []domain.PaymentEvents
}

func (f *fakeEventsRepo) FindByInvoice(tx *gorm.DB, invoiceId string) ([]domain.PaymentEvents, error) {
	return f.events, nil
}

func payjoinInvoice() *domain.Invoices {
	return &domain.Invoices{
		InvoiceID:    uuid.NewString(),
		Status:       domain.STATUS_NEW,
		EndTimestamp: time.Now().Add(time.Hour).Unix(),
		PaymentMethods: []domain.PaymentMethods{{
			ID:              7,
			Network:         domain.NETWORK_BTC,
			Identifier:      "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa",
			Active:          true,
			SupportsPayjoin: true,
		}},
	}
}

func newPayjoinService(invoice *domain.Invoices, events []domain.PaymentEvents) *PayjoinService {
	return NewPayjoinService(
		nil,
		&repository.Repositories{PaymentEvents: &fakeEventsRepo{events: events}},
		&fakeInvoicesFinder{invoice: invoice},
		nil,
		logger.Init(&config.Config{Prod_env: false}),
	)
}

// once any transaction is on the books for the method, the original draft
// may confirm concurrently. a second collaboration would double-spend us
func TestPayjoinRejectAfterBroadcast(t *testing.T) {
	invoice := payjoinInvoice()
	events := []domain.PaymentEvents{{
		MethodID:      7,
		SourceNetwork: domain.NETWORK_BTC,
		TxRef:         "aa:0",
	}}

	s := newPayjoinService(invoice, events)

	_, err := s.Propose(invoice.InvoiceID, "cHNidP8=")
	require.ErrorIs(t, err, domain.ErrPayjoinAlreadyBroadcast)
}

// an open session means a counter-proposal is already out there
func TestPayjoinRejectSessionOpen(t *testing.T) {
	invoice := payjoinInvoice()

	cache.PayjoinSessionsCache.Set(invoice.InvoiceID, true, time.Minute)
	defer cache.PayjoinSessionsCache.Del(invoice.InvoiceID)

	s := newPayjoinService(invoice, nil)

	_, err := s.Propose(invoice.InvoiceID, "cHNidP8=")
	require.ErrorIs(t, err, domain.ErrPayjoinAlreadyBroadcast)
}

func TestPayjoinRejectTerminal(t *testing.T) {
	invoice := payjoinInvoice()
	invoice.Status = domain.STATUS_COMPLETE

	s := newPayjoinService(invoice, nil)

	_, err := s.Propose(invoice.InvoiceID, "cHNidP8=")
	require.ErrorIs(t, err, domain.ErrPayjoinNotEligible)
}

func TestPayjoinRejectNoEligibleMethod(t *testing.T) {
	invoice := payjoinInvoice()
	invoice.PaymentMethods[0].SupportsPayjoin = false

	s := newPayjoinService(invoice, nil)

	_, err := s.Propose(invoice.InvoiceID, "cHNidP8=")
	require.ErrorIs(t, err, domain.ErrPayjoinNotEligible)
}
