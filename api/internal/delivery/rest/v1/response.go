package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type responseError struct {
	Error   bool   `json:"error"`
	ErrorID string `json:"error_id"`
	Msg     string `json:"msg"`
}

type responseCreatedMethod struct {
	Network     string `json:"network"`
	Currency    string `json:"currency"`
	Identifier  string `json:"identifier"`
	AmountToPay string `json:"amount_to_pay"`
	Rate        string `json:"rate"`
	PaymentUri  string `json:"payment_uri"`
	QrCode      string `json:"qr_code"`
}

type responseInvoiceCreatedInfo struct {
	Id        string                  `json:"id"`
	Amount    string                  `json:"amount"`
	Currency  string                  `json:"currency"`
	ExpiresAt int64                   `json:"expires_at"`
	Methods   []responseCreatedMethod `json:"methods"`
}

// /invoice/create
type responseInvoiceCreated struct {
	Error   bool                       `json:"error"`
	Invoice responseInvoiceCreatedInfo `json:"invoice"`
}

type responseMerchantCreated struct {
	Error      bool   `json:"error"`
	ApiKey     string `json:"api_key"`
	MerchantId string `json:"merchant_id"`
}

type responseAcknowledged struct {
	Error bool `json:"error"`
}

// /currency/convert
type responseConverterOK struct {
	Error     bool            `json:"error"`
	Fiat      string          `json:"fiat"`
	Amount    decimal.Decimal `json:"amount"`
	Network   string          `json:"network"`
	Converted decimal.Decimal `json:"converted"`
	Rate      decimal.Decimal `json:"rate"`
}

type responseRates struct {
	Eth  decimal.Decimal `json:"eth"`
	Sol  decimal.Decimal `json:"sol"`
	Ton  decimal.Decimal `json:"ton"`
	Btc  decimal.Decimal `json:"btc"`
	Usdt decimal.Decimal `json:"usdt"`
}

// /currency/rates
type responseRatesOK struct {
	Error bool          `json:"error"`
	Fiat  string        `json:"fiat"`
	Rates responseRates `json:"rates"`
}

// /invoice/payjoin
type responsePayjoin struct {
	Error bool   `json:"error"`
	Psbt  string `json:"psbt"`
}

func responseErr(c *gin.Context, statusCode int, msg, errorID string) {
	c.AbortWithStatusJSON(statusCode, responseError{true, errorID, msg})
}
