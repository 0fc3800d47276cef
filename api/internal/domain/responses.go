package domain

import (
	"errors"
	"fmt"
	"net/http"
)

type ResponseMethodInfo struct {
	Network     string `json:"network"`
	Currency    string `json:"currency"`
	Identifier  string `json:"identifier"`
	Rate        string `json:"rate"`
	AmountToPay string `json:"amount_to_pay"`
	Accrued     string `json:"accrued"`
	PaymentUri  string `json:"payment_uri"`
}

type ResponseInvoiceInfo struct {
	Id        string               `json:"id"`
	Amount    string               `json:"amount"`
	Currency  string               `json:"currency"`
	Status    string               `json:"status"`
	IsPaid    bool                 `json:"is_paid"`
	Methods   []ResponseMethodInfo `json:"methods,omitempty"`
	CreatedAt string               `json:"created_at"`
	ExpiresAt string               `json:"expires_at"`
}

const (
	ErrMsgRateLimitExceeded   = "rate limit exceeded"
	ErrMsgInternalServerError = "internal server error"
	ErrMsgBadRequest          = "bad request"
	ErrMsgParamsBadRequest    = "bad request: %s"
	ErrMsgAccessError         = "access error"

	ErrMsgMerchantNotFound   = "merchant not found"
	ErrMsgMerchantIdExists   = "merchant id already exists"
	ErrMsgMerchantNameExists = "merchant name already exists"
	ErrMsgApiKeyNotFound   = "api key not found"
	ErrMsgInvalidInvoiceId = "invalid invoice id"
	ErrMsgInvalidNetwork   = "invalid network"
)

var (
	ErrInvalidInvoiceId    = fmt.Errorf("invalid invoice id")
	ErrInternalServerError = fmt.Errorf(ErrMsgInternalServerError)
	ErrInvoiceIdNotFound   = fmt.Errorf("invoice id not found")

	// creation
	ErrUnsupportedCurrency = fmt.Errorf("unsupported currency")
	ErrNoHandlerAvailable  = fmt.Errorf("no handler available for network")
	ErrPoolExhausted       = fmt.Errorf("identifier pool exhausted")
	ErrRateUnavailable     = fmt.Errorf("rate unavailable")

	// event application
	ErrInvoiceTerminal = fmt.Errorf("invoice is in a terminal state")
	ErrVersionConflict = fmt.Errorf("invoice version conflict")

	// collaborative transactions
	ErrPayjoinNotEligible      = fmt.Errorf("invoice not eligible for payjoin")
	ErrPayjoinAlreadyBroadcast = fmt.Errorf("invoice already has a broadcast transaction")
	ErrInvalidProposal         = fmt.Errorf("invalid transaction proposal")
)

const (
	ErrParamEmptyInvoiceId = "invoice id is empty"
)

func GetStatusByErr(err error) (status int) {
	if err == nil {
		return 200
	}

	switch {
	case errors.Is(err, ErrInternalServerError):
		status = http.StatusInternalServerError
	case errors.Is(err, ErrInvalidInvoiceId),
		errors.Is(err, ErrInvoiceIdNotFound),
		errors.Is(err, ErrUnsupportedCurrency),
		errors.Is(err, ErrNoHandlerAvailable),
		errors.Is(err, ErrPayjoinNotEligible),
		errors.Is(err, ErrInvalidProposal):
		status = http.StatusBadRequest
	case errors.Is(err, ErrPayjoinAlreadyBroadcast):
		status = http.StatusConflict
	case errors.Is(err, ErrPoolExhausted), errors.Is(err, ErrRateUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, ErrInvoiceTerminal):
		status = http.StatusConflict
	default:
		status = http.StatusInternalServerError
	}
	return status
}
