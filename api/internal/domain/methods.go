package domain

import "github.com/shopspring/decimal"

// one (network, currency) pair an invoice accepts, with its own receiving
// identifier and rate locked at creation. never deleted, only marked inactive
type PaymentMethods struct {
	Model
	ID         uint    `gorm:"primaryKey"`
	InvoiceID  string  `gorm:"index;not null"`
	Network    Network `gorm:"type:int8"`
	Currency   string  `gorm:"type:text"`
	Identifier string  `gorm:"not null"` // address or payment request
	AssetTag   string  `gorm:"type:text"` // token contract for shared address spaces
	// invoice currency per one unit of the method currency, locked at creation.
	// later rate drift never re-opens a confirmed invoice
	Rate            decimal.Decimal `gorm:"type:numeric"`
	RequiredAmount  decimal.Decimal `gorm:"type:numeric"` // in method currency, computed once
	Accrued         decimal.Decimal `gorm:"type:numeric;default:0"`
	Active          bool            `gorm:"default:true"`
	SupportsPayjoin bool            `gorm:"default:false"`

	PaymentEvents []PaymentEvents `gorm:"foreignKey:MethodID"`
}

// an incoming event belongs to this method when network and asset tag both
// match. two methods may share one identifier (eth + erc20), the tag decides
func (m *PaymentMethods) Matches(e *PaymentEvents) bool {
	return m.Network == e.SourceNetwork && m.AssetTag == e.AssetTag && m.Identifier == e.Identifier
}

// converted value of the accrued amount in the invoice currency
func (m *PaymentMethods) AccruedValue() decimal.Decimal {
	return m.Accrued.Mul(m.Rate)
}
