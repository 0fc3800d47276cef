package repository

import (
	"paygate/api/internal/domain"
	"paygate/api/internal/infra/postgres"

	"gorm.io/gorm"
)

type PaymentEventsRepo struct {
}

func InitPaymentEventsRepo() *PaymentEventsRepo {
	return &PaymentEventsRepo{}
}

func (r *PaymentEventsRepo) CreateDedup(tx *gorm.DB, event *domain.PaymentEvents) (bool, error) {
	err := tx.Create(event).Error
	if err != nil {
		if postgres.IsDuplicate(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *PaymentEventsRepo) RaiseConfidence(tx *gorm.DB, event *domain.PaymentEvents) error {
	return tx.Model(&domain.PaymentEvents{}).
		Where("source_network = ? AND tx_ref = ? AND (confidence < ? OR (confidence = ? AND depth < ?))",
			event.SourceNetwork, event.TxRef, event.Confidence, event.Confidence, event.Depth).
		Updates(map[string]any{"confidence": event.Confidence, "depth": event.Depth}).Error
}

func (r *PaymentEventsRepo) FindByInvoice(tx *gorm.DB, invoiceId string) ([]domain.PaymentEvents, error) {
	var events []domain.PaymentEvents
	err := tx.Where(&domain.PaymentEvents{InvoiceID: invoiceId}).Order("id").Find(&events).Error
	return events, err
}

func (r *PaymentEventsRepo) FindByRef(tx *gorm.DB, network domain.Network, txRef string) (*domain.PaymentEvents, error) {
	var event domain.PaymentEvents
	return &event, tx.Where("source_network = ? AND tx_ref = ?", network, txRef).First(&event).Error
}
