package repository

import (
	"paygate/api/internal/domain"

	"gorm.io/gorm"
)

type Merchants interface {
	FindByID(tx *gorm.DB, merchantID string) (*domain.Merchants, error)
	FindByApiKey(tx *gorm.DB, apiKey string) (*domain.Merchants, error)
	FindByName(tx *gorm.DB, merchantName string) (*domain.Merchants, error)
	Create(tx *gorm.DB, merchant *domain.Merchants) error
}

type Invoices interface {
	Create(tx *gorm.DB, invoice *domain.Invoices) error
	// version-checked save. fails with domain.ErrVersionConflict instead of
	// silently overwriting concurrent accrual
	UpdateCAS(tx *gorm.DB, invoice *domain.Invoices) error
	FindByID(tx *gorm.DB, invoiceId string) (*domain.Invoices, error)
	FindActive(tx *gorm.DB) ([]domain.Invoices, error)
}

type PaymentEvents interface {
	// dedup insert keyed by (source_network, tx_ref). returns false when the
	// event was already recorded
	CreateDedup(tx *gorm.DB, event *domain.PaymentEvents) (bool, error)
	// raises confidence/depth of a recorded event, never lowers it and never
	// touches the amount
	RaiseConfidence(tx *gorm.DB, event *domain.PaymentEvents) error
	FindByInvoice(tx *gorm.DB, invoiceId string) ([]domain.PaymentEvents, error)
	FindByRef(tx *gorm.DB, network domain.Network, txRef string) (*domain.PaymentEvents, error)
}

type Methods interface {
	UpdateAccrued(tx *gorm.DB, methodID uint, accrued string) error
	FindByInvoice(tx *gorm.DB, invoiceId string) ([]domain.PaymentMethods, error)
	FindByIdentifier(tx *gorm.DB, network domain.Network, identifier string) (*domain.PaymentMethods, error)
}

type Events interface {
	Create(tx *gorm.DB, eventType string, eventRelationID uint, payload string) error
	Done(tx *gorm.DB, eventRelationID uint, eventType string) error
	Find(tx *gorm.DB, eventRelationID uint, eventType string) (*domain.Events, error)
}

type Repositories struct {
	Merchants     Merchants
	Invoices      Invoices
	PaymentEvents PaymentEvents
	Methods       Methods
	Events        Events
}

func New() *Repositories {
	return &Repositories{
		Events:        InitEventsRepo(),
		Merchants:     InitMerchantsRepo(),
		Invoices:      InitInvoicesRepo(),
		PaymentEvents: InitPaymentEventsRepo(),
		Methods:       InitMethodsRepo(),
	}
}
