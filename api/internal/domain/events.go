package domain

import "time"

const (
	EVENT_STATUS_CHANGED = "status_changed" // lifecycle transition, delivered as webhook
)

type Events struct {
	ID         uint   `gorm:"primaryKey"`
	RelationID uint   `gorm:"not null"`
	Type       string `gorm:"type:varchar(255)"` //const type Event*
	Payload    string
	Status     string // new/done
	CreatedAt  time.Time
}

// event payloads

// emitted on every status transition. delivery is at-least-once,
// consumers must be idempotent
type PayloadStatusChanged struct {
	InvoiceID string    `json:"invoice_id"`
	OldStatus string    `json:"old_status"`
	NewStatus string    `json:"new_status"`
	Timestamp time.Time `json:"timestamp"`
	Url       string    `json:"url"`
}
