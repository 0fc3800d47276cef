package domain

import (
	"github.com/shopspring/decimal"
)

type Invoices struct {
	Model
	ID                uint   `gorm:"primaryKey"`
	InvoiceID         string `gorm:"unique;not null"`
	MerchantID        string `gorm:"size:36;not null"`
	Status            Status `gorm:"type:int8"`
	RequestedAmount   decimal.Decimal `gorm:"type:numeric"`
	RequestedCurrency string          `gorm:"type:text"`
	EndTimestamp      int64  // unix invoice end timestamp
	GraceTimestamp    int64  // funded but under-threshold invoices go invalid after this
	AcknowledgedAt    int64  // dispatcher ack of the confirmed webhook, drives confirmed -> complete
	Version           uint   `gorm:"not null;default:0"` // optimistic concurrency, bumped on every save
	Webhook           string `gorm:"type:text;not null"` // webhook url. used in webhook sender service

	PaymentMethods []PaymentMethods `gorm:"foreignKey:InvoiceID;references:InvoiceID"`
}

type Status uint8

const (
	STATUS_NEW Status = iota
	STATUS_PAID_PARTIAL
	STATUS_PROCESSING
	STATUS_PAID_OVER
	STATUS_CONFIRMED
	STATUS_COMPLETE
	STATUS_EXPIRED
	STATUS_INVALID
)

var Statuses = [...]string{"new", "paid_partial", "processing", "paid_over", "confirmed", "complete", "expired", "invalid"}

// methods

func StrToStatus(s string) Status {
	for i, statusName := range Statuses {
		if s == statusName {
			return Status(i)
		}
	}
	return STATUS_NEW
}

func (s Status) ToString() string {
	return Statuses[s]
}

func (s Status) IsTerminal() bool {
	return s == STATUS_COMPLETE || s == STATUS_EXPIRED || s == STATUS_INVALID
}

func (s Status) IsPaid() bool {
	return s == STATUS_PROCESSING || s == STATUS_PAID_OVER || s == STATUS_CONFIRMED || s == STATUS_COMPLETE
}

func (s Status) IsNew() bool {
	return s == STATUS_NEW
}

// Rank orders statuses for the monotonicity rule:
// new < paid_partial/processing < confirmed/paid_over < complete.
// expired and invalid are terminal sinks outside the ordering
func (s Status) Rank() int {
	switch s {
	case STATUS_NEW:
		return 0
	case STATUS_PAID_PARTIAL, STATUS_PROCESSING:
		return 1
	case STATUS_CONFIRMED, STATUS_PAID_OVER:
		return 2
	case STATUS_COMPLETE:
		return 3
	}
	return -1
}

func (i *Invoices) IsExpired(now int64) bool {
	return now > i.EndTimestamp
}

func (i *Invoices) FindMethod(network Network) *PaymentMethods {
	for c := range i.PaymentMethods {
		if i.PaymentMethods[c].Network == network {
			return &i.PaymentMethods[c]
		}
	}
	return nil
}
