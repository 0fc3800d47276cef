package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Confidence uint8

const (
	CONFIDENCE_UNCONFIRMED Confidence = iota
	CONFIDENCE_CONFIRMED              // at depth N
	CONFIDENCE_SETTLED
)

var Confidences = [...]string{"unconfirmed", "confirmed", "settled"}

func (c Confidence) ToString() string {
	return Confidences[c]
}

func StrToConfidence(s string) Confidence {
	for i, confidenceName := range Confidences {
		if s == confidenceName {
			return Confidence(i)
		}
	}
	return CONFIDENCE_UNCONFIRMED
}

// a confirmed event at sufficient depth counts as final for matching purposes
func (c Confidence) AtDepth(depth uint32, required uint32) bool {
	if c == CONFIDENCE_SETTLED {
		return true
	}
	return c == CONFIDENCE_CONFIRMED && depth >= required
}

// one observed transfer, deduplicated by (source_network, tx_ref).
// replays only ever raise confidence/depth, never amount
type PaymentEvents struct {
	ID            uint    `gorm:"primaryKey"`
	InvoiceID     string  `gorm:"index;not null"`
	MethodID      uint    `gorm:"index"`
	SourceNetwork Network `gorm:"type:int8;uniqueIndex:idx_payment_events_dedup"`
	TxRef         string  `gorm:"type:text;uniqueIndex:idx_payment_events_dedup"`
	Identifier    string  `gorm:"type:text;not null"`
	AssetTag      string  `gorm:"type:text"`
	Amount        decimal.Decimal `gorm:"type:numeric"`
	Confidence    Confidence      `gorm:"type:int8"`
	Depth         uint32
	ObservedAt    time.Time
	// audit flag for events that arrived after the invoice went terminal
	AfterTerminal bool `gorm:"default:false"`
}
