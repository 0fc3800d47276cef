package repository

import (
	"paygate/api/internal/domain"

	"gorm.io/gorm"
)

type InvoicesRepo struct {
}

func InitInvoicesRepo() *InvoicesRepo {
	return &InvoicesRepo{}
}

// creates the invoice row together with its payment method rows
func (r *InvoicesRepo) Create(tx *gorm.DB, invoice *domain.Invoices) error {
	return tx.Create(invoice).Error
}

func (r *InvoicesRepo) UpdateCAS(tx *gorm.DB, invoice *domain.Invoices) error {
	prevVersion := invoice.Version
	invoice.Version = prevVersion + 1

	res := tx.Model(&domain.Invoices{}).
		Where("invoice_id = ? AND version = ?", invoice.InvoiceID, prevVersion).
		Select("status", "grace_timestamp", "acknowledged_at", "version", "updated_at").
		Updates(invoice)
	if res.Error != nil {
		invoice.Version = prevVersion
		return res.Error
	}
	if res.RowsAffected == 0 {
		invoice.Version = prevVersion
		return domain.ErrVersionConflict
	}
	return nil
}

func (r *InvoicesRepo) FindByID(tx *gorm.DB, invoiceId string) (*domain.Invoices, error) {
	var invoice domain.Invoices
	return &invoice, tx.Preload("PaymentMethods").Where(&domain.Invoices{InvoiceID: invoiceId}).First(&invoice).Error
}

// all non-terminal invoices, for the periodic expiry sweep
func (r *InvoicesRepo) FindActive(tx *gorm.DB) ([]domain.Invoices, error) {
	var invoices []domain.Invoices
	err := tx.Preload("PaymentMethods").
		Where("status NOT IN ?", []domain.Status{domain.STATUS_COMPLETE, domain.STATUS_EXPIRED, domain.STATUS_INVALID}).
		Find(&invoices).Error
	return invoices, err
}
