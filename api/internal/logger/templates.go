package logger

import (
	"github.com/shopspring/decimal"
)

func (l Logger) TemplInvoiceErr(message string, errorId string, invoiceId string, amount decimal.Decimal, currency string, uri string, merchantId string, ip string) string {
	l.Error(message, LS_INVOICES, true, "invoice_id", invoiceId, "amount", amount.String(), "currency", currency, "uri", uri, "error_id", errorId, "ip", ip, "merchant_id", merchantId)
	return errorId
}

func (l Logger) TemplInvoiceInfo(message string, errorId string, invoiceId string, amount decimal.Decimal, currency string, uri string, merchantId string, ip string) string {
	l.Info(message, LS_INVOICES, true, "invoice_id", invoiceId, "amount", amount.String(), "currency", currency, "uri", uri, "error_id", errorId, "ip", ip, "merchant_id", merchantId)
	return errorId
}

func (l Logger) TemplPaymentErr(message string, errorId string, invoiceId string, network string, txRef string) string {
	l.Error(message, LS_PAYMENTS, true, "invoice_id", invoiceId, "network", network, "tx_ref", txRef, "error_id", errorId)
	return errorId
}

func (l Logger) TemplPaymentInfo(message string, invoiceId string, network string, txRef string, amount decimal.Decimal, confidence string) {
	l.Info(message, LS_PAYMENTS, true, "invoice_id", invoiceId, "network", network, "tx_ref", txRef, "amount", amount.String(), "confidence", confidence)
}

// use only for fatal errors
func (l Logger) TemplHTTPError(message string, ipv4 string, err error) {
	l.Fatal(message, LS_FATAL, true, "error", err.Error(), "ipv4", ipv4)
}

func (l Logger) TemplNatsError(message, natsUrl string, err error) {
	l.Error(message, LS_NATS, true, "nats_url", natsUrl, "error", err.Error())
}

func (l Logger) TemplNatsInfo(message, natsUrl string) {
	l.Info(message, LS_NATS, true, "nats_url", natsUrl, "error", "N/A")
}

func (l Logger) TemplWebhookErr(message, url string, attempts int, proxy string, payload []byte) {
	l.Error(message, LS_WEBHOOKS, true, "url", url, "attempts", attempts, "proxy", proxy, "payload", string(payload))
}
