package cache

import "sync"

type Cache struct {
	Storage sync.Map
}

// Maps for cache
var (
	QrCodeMap  sync.Map
	InvoiceMap sync.Map
)

// cache
var (
	RatesCache             = InitStorage()
	InvoiceRateLimitsCache = InitStorage()
	PayjoinSessionsCache   = InitStorage()
)
