package service

import (
	"context"
	"paygate/api/internal/config"
	"paygate/api/internal/domain"
	"paygate/api/internal/infra/cache"
	"paygate/api/internal/infra/nats"
	"paygate/api/internal/logger"
	"paygate/api/internal/repository"
	"paygate/pkg/nats/natsdomain"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Merchants interface {
	FindByID(tx *gorm.DB, merchantID string) (*domain.Merchants, error)
	FindByApiKey(tx *gorm.DB, apiKey string) (*domain.Merchants, error)
	FindByName(tx *gorm.DB, merchantName string) (*domain.Merchants, error)
	Create(tx *gorm.DB, merchant *domain.Merchants) error
}

// what CreateInvoice needs from the caller
type CreateInvoiceInput struct {
	MerchantID string
	Amount     decimal.Decimal
	Currency   string
	Networks   []domain.Network
	Lifetime   time.Duration
	Webhook    string
}

type Invoices interface {
	// allocates identifiers from every requested handler, snapshots rates and
	// persists the invoice atomically. any allocation failure or caller
	// cancellation releases everything already allocated
	Create(ctx context.Context, input CreateInvoiceInput) (*domain.Invoices, error)
	// idempotent event application. safe to call concurrently and redundantly
	// for the same (network, tx_ref)
	ApplyPaymentEvent(invoiceId string, event *domain.PaymentEvents) (*domain.Invoices, error)
	// periodic re-evaluation of all active invoices against the clock
	Tick(now time.Time)
	// dispatcher acknowledgement of the confirmed notification,
	// drives confirmed -> complete
	Acknowledge(invoiceId string) error
	FindByID(tx *gorm.DB, invoiceId string) (*domain.Invoices, error)
	// Tries to find from cache, if not found, searches the database
	FindGlobal(tx *gorm.DB, invoiceId string) (*domain.Invoices, error)
	FindAndSaveToCache(invoiceId string) (*domain.Invoices, error)
	CalculateFinAmount(amount, rate decimal.Decimal, ceil ...int32) decimal.Decimal

	// for autostart only
	StartTicker()
}

// a freshly allocated receiving identifier
type Allocation struct {
	Identifier      string
	AssetTag        string
	SupportsPayjoin bool
}

// payment method handler capability, one per network
type Handler interface {
	Network() domain.Network
	Allocate(ctx context.Context, invoiceId string, amount decimal.Decimal) (*Allocation, error)
	Release(identifier string) error
}

type Handlers interface {
	For(network domain.Network) (Handler, error)
	SharesAddressSpaceWith(a, b domain.Network) bool
	// watcher liveness for the network, from the heartbeats bucket
	WatcherAlive(network domain.Network, within time.Duration) bool
}

type Rates interface {
	Get(amountCurrency string) (*natsdomain.Rates, error)
}

type Locker interface {
	Lock(key string)
	Unlock(key string)
	IsLocked(key string) bool
}

type Payjoin interface {
	// validates and counter-signs a collaborative transaction draft.
	// rejected once any transaction is recorded for the invoice's method
	Propose(invoiceId string, psbtBase64 string) (string, error)
}

type QrCodes interface {
	// generates qr code and saves it to cache
	New(content string) (string, error)
	// returns qr code from cache or generates new one
	FindOrNew(content string) (string, error)
}

type OutboxEvents interface {
	StartProcessEvents()
}

type WebhookSender interface {
	Send(url string, payload domain.PayloadStatusChanged) error
	UpdateList(proxies []string)
	GetList() []string
}

type PaymentsConsumer interface {
	// subscribes the engine to the durable payments stream
	Start(ctx context.Context) error
}

type Services struct {
	OutboxEvents     OutboxEvents
	PaymentsConsumer PaymentsConsumer
	Merchants        Merchants
	Invoices         Invoices
	Handlers         Handlers
	Payjoin          Payjoin
	QrCodes          QrCodes
	Rates            Rates
	WebhookSender    WebhookSender
}

func NewServices(ns *natsdomain.Ns, db *gorm.DB, l logger.Logger, config *config.Config) *Services {
	n := &nats.NatsInfra{Ns: ns}

	repos := repository.New()
	lockerService := NewLockerService(cache.InitStorage())

	webhookSender := NewWebhookSenderService(config.ProxyList, l)
	ratesService := NewRatesService(cache.InitStorage(), ns)
	handlersService := NewHandlersService(n)

	invoicesService := NewInvoicesService(db, repos, lockerService, handlersService, ratesService, n, l, cache.InitStorage(), config)

	payjoinService := NewPayjoinService(db, repos, invoicesService, n, l)

	return &Services{
		OutboxEvents:     NewOutboxEventsService(invoicesService, n, db, l, repos.Events, webhookSender),
		PaymentsConsumer: NewPaymentsConsumerService(db, invoicesService, repos.Methods, n, l),
		Merchants:        NewMerchantsService(db, repos.Merchants),
		Invoices:         invoicesService,
		Handlers:         handlersService,
		Payjoin:          payjoinService,
		QrCodes:          NewQrCodesService(),
		Rates:            ratesService,
		WebhookSender:    webhookSender,
	}
}
