package cache

import (
	"paygate/api/internal/domain"
)

func SaveInvoice(invoiceId string, invoice *domain.Invoices) {
	InvoiceMap.Store(invoiceId, invoice)
}

func FindInvoice(invoiceId string) *domain.Invoices {
	v, ok := InvoiceMap.Load(invoiceId)
	if !ok {
		return nil
	}

	return v.(*domain.Invoices)
}

func DropInvoice(invoiceId string) {
	InvoiceMap.Delete(invoiceId)
}
