package repository

import (
	"paygate/api/internal/domain"

	"gorm.io/gorm"
)

type MethodsRepo struct {
}

func InitMethodsRepo() *MethodsRepo {
	return &MethodsRepo{}
}

// Accrued is a projection of the event set, repainted after every recompute
func (r *MethodsRepo) UpdateAccrued(tx *gorm.DB, methodID uint, accrued string) error {
	return tx.Model(&domain.PaymentMethods{}).Where("id = ?", methodID).Update("accrued", accrued).Error
}

func (r *MethodsRepo) FindByInvoice(tx *gorm.DB, invoiceId string) ([]domain.PaymentMethods, error) {
	var methods []domain.PaymentMethods
	err := tx.Where(&domain.PaymentMethods{InvoiceID: invoiceId}).Find(&methods).Error
	return methods, err
}

func (r *MethodsRepo) FindByIdentifier(tx *gorm.DB, network domain.Network, identifier string) (*domain.PaymentMethods, error) {
	var method domain.PaymentMethods
	return &method, tx.Where("network = ? AND identifier = ?", network, identifier).First(&method).Error
}
