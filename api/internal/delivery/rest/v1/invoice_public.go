// PUBLIC INVOICE ROUTES

package v1

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"paygate/api/internal/domain"
	"paygate/api/internal/infra/postgres"
	"paygate/api/internal/logger"
	"paygate/api/internal/service"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// /{version}/invoice/create
func (h *Handler) invoiceCreate(c *gin.Context) {
	var errid = logger.GenErrorId()
	invoiceData, ok := filterQuery(c)
	if !ok || invoiceData == nil {
		return
	}

	merchant, err := h.services.Merchants.FindByApiKey(h.db, invoiceData.ApiKey)
	if err != nil {
		if postgres.IsNotFound(err) {
			responseErr(c, http.StatusBadRequest, domain.ErrMsgApiKeyNotFound, "")
		} else {
			responseErr(c, http.StatusInternalServerError, domain.ErrMsgInternalServerError, errid)
			h.log.TemplInvoiceErr("find merchant by api key error : "+err.Error(), errid, logger.NA, invoiceData.Amount, invoiceData.Currency, c.Request.RequestURI, logger.NA, c.ClientIP())
		}
		return
	}

	// check rate limit

	isRateLimited := invoiceRateLimit(invoiceData.ApiKey, DEFAULT_LIMIT)
	if isRateLimited {
		responseErr(c, http.StatusTooManyRequests, domain.ErrMsgRateLimitExceeded, "")
		return
	}

	networks := make([]domain.Network, 0, len(invoiceData.Networks))
	for _, name := range invoiceData.Networks {
		networks = append(networks, domain.StrToNetwork(name))
	}

	webhook := invoiceData.Webhook
	if webhook == "" {
		webhook = merchant.Webhook
	}

	invoice, err := h.services.Invoices.Create(c.Request.Context(), service.CreateInvoiceInput{
		MerchantID: merchant.MerchantID,
		Amount:     invoiceData.Amount,
		Currency:   invoiceData.Currency,
		Networks:   networks,
		Lifetime:   time.Duration(invoiceData.Lifetime) * time.Minute,
		Webhook:    webhook,
	})
	if err != nil {
		responseErr(c, domain.GetStatusByErr(err), err.Error(), errid)
		h.log.TemplInvoiceErr("invoice create error: "+err.Error(), errid, logger.NA, invoiceData.Amount, invoiceData.Currency, c.Request.RequestURI, merchant.MerchantID, c.ClientIP())
		return
	}

	methods := make([]responseCreatedMethod, 0, len(invoice.PaymentMethods))
	for i := range invoice.PaymentMethods {
		method := &invoice.PaymentMethods[i]
		uri := service.PaymentUri(method, h.payjoinEndpoint(invoice.InvoiceID, method))

		// pre-render the code, the qr route serves it from cache
		if _, err := h.services.QrCodes.New(uri); err != nil {
			h.log.TemplInvoiceErr("qr code new error: "+err.Error(), errid, invoice.InvoiceID, invoiceData.Amount, invoiceData.Currency, c.Request.RequestURI, merchant.MerchantID, c.ClientIP())
		}

		methods = append(methods, responseCreatedMethod{
			Network:     method.Network.ToString(),
			Currency:    method.Currency,
			Identifier:  method.Identifier,
			AmountToPay: method.RequiredAmount.String(),
			Rate:        method.Rate.String(),
			PaymentUri:  uri,
			QrCode:      fmt.Sprintf("%s://%s/v1/invoice/qr-code/%s/%s", h.config.Api.Proto, h.config.Api.Ipv4, invoice.InvoiceID, method.Network.ToString()),
		})
	}

	c.AbortWithStatusJSON(http.StatusOK, responseInvoiceCreated{
		Error: false,
		Invoice: responseInvoiceCreatedInfo{
			Id:        invoice.InvoiceID,
			Amount:    invoice.RequestedAmount.String(),
			Currency:  invoice.RequestedCurrency,
			ExpiresAt: invoice.EndTimestamp,
			Methods:   methods,
		},
	})

	h.log.TemplInvoiceInfo("new invoice created", errid, invoice.InvoiceID, invoiceData.Amount, invoiceData.Currency, c.Request.RequestURI, merchant.MerchantID, c.ClientIP())
}

func (h *Handler) payjoinEndpoint(invoiceId string, method *domain.PaymentMethods) string {
	if !method.SupportsPayjoin {
		return ""
	}
	return fmt.Sprintf("%s://%s/v1/invoice/payjoin/%s", h.config.Api.Proto, h.config.Api.Ipv4, invoiceId)
}

// POST /invoice/info
func (h *Handler) info(c *gin.Context) {
	var data struct {
		InvoiceId string `json:"invoice_id"`
	}

	var errid = logger.GenErrorId()

	if err := c.ShouldBindJSON(&data); err != nil {
		responseErr(c, http.StatusBadRequest, domain.ErrMsgBadRequest, "")
		return
	}

	if data.InvoiceId == "" {
		responseErr(c, http.StatusBadRequest, fmt.Sprintf(domain.ErrMsgParamsBadRequest, domain.ErrParamEmptyInvoiceId), "")
		return
	}

	invoice, err := h.services.Invoices.FindGlobal(h.db, data.InvoiceId)
	if err != nil {
		responseErr(c, domain.GetStatusByErr(err), err.Error(), errid)
		return
	}

	methods := make([]domain.ResponseMethodInfo, 0, len(invoice.PaymentMethods))
	for i := range invoice.PaymentMethods {
		method := &invoice.PaymentMethods[i]
		methods = append(methods, domain.ResponseMethodInfo{
			Network:     method.Network.ToString(),
			Currency:    method.Currency,
			Identifier:  method.Identifier,
			Rate:        method.Rate.String(),
			AmountToPay: method.RequiredAmount.String(),
			Accrued:     method.Accrued.String(),
			PaymentUri:  service.PaymentUri(method, h.payjoinEndpoint(invoice.InvoiceID, method)),
		})
	}

	var response = domain.ResponseInvoiceInfo{
		Id:        invoice.InvoiceID,
		Amount:    invoice.RequestedAmount.String(),
		Currency:  invoice.RequestedCurrency,
		IsPaid:    invoice.Status.IsPaid(),
		Status:    invoice.Status.ToString(),
		Methods:   methods,
		CreatedAt: invoice.CreatedAt.Format("2006-01-02 15:04:05"),
		ExpiresAt: time.Unix(invoice.EndTimestamp, 0).Format("2006-01-02 15:04:05"),
	}

	// expiry may not have been swept yet, don't show a stale "new"
	if invoice.IsExpired(time.Now().Unix()) && invoice.Status.IsNew() {
		response.Status = domain.STATUS_EXPIRED.ToString()
	}

	responseM, err := json.Marshal(&response)
	if err != nil {
		responseErr(c, http.StatusInternalServerError, domain.ErrMsgInternalServerError, errid)
		h.log.TemplInvoiceErr("/info/ marshal error: "+err.Error(), errid, data.InvoiceId, decimal.Zero, logger.NA, c.Request.RequestURI, invoice.MerchantID, c.ClientIP())
		return
	}

	c.Data(http.StatusOK, "application/json", responseM)

}

// GET /invoice/qr-code/:invoice_id/:network
func (h *Handler) qrCode(c *gin.Context) {
	var errid = logger.GenErrorId()

	invoiceId := c.Param("invoice_id")
	if invoiceId == "" {
		responseErr(c, http.StatusBadRequest, fmt.Sprintf(domain.ErrMsgParamsBadRequest, "invoice id is required"), "")
		return
	}

	network := domain.StrToNetwork(c.Param("network"))
	if network.IsNone() {
		responseErr(c, http.StatusBadRequest, domain.ErrMsgInvalidNetwork, "")
		return
	}

	invoice, err := h.services.Invoices.FindGlobal(h.db, invoiceId)
	if err != nil {
		responseErr(c, domain.GetStatusByErr(err), err.Error(), errid)
		return
	}

	method := invoice.FindMethod(network)
	if method == nil {
		responseErr(c, http.StatusBadRequest, domain.ErrMsgInvalidNetwork, "")
		return
	}

	uri := service.PaymentUri(method, h.payjoinEndpoint(invoice.InvoiceID, method))

	qrCode, err := h.services.QrCodes.FindOrNew(uri)
	if err != nil {
		responseErr(c, http.StatusInternalServerError, domain.ErrMsgInternalServerError, errid)
		h.log.TemplInvoiceErr("qr code find or new error: "+err.Error(), errid, invoiceId, decimal.Zero, method.Currency, c.Request.RequestURI, invoice.MerchantID, c.ClientIP())
		return
	}

	imageData, err := base64.RawStdEncoding.DecodeString(qrCode)
	if err != nil {
		responseErr(c, http.StatusInternalServerError, domain.ErrMsgInternalServerError, errid)
		h.log.TemplInvoiceErr("qr code decode error: "+err.Error(), errid, invoiceId, decimal.Zero, method.Currency, c.Request.RequestURI, invoice.MerchantID, c.ClientIP())
		return
	}

	c.Data(http.StatusOK, "image/png", imageData)
}

func (h *Handler) initPubInvoiceRoutes(g *gin.RouterGroup) {
	g.POST("/invoice/create", h.invoiceCreate)
	g.POST("/invoice/info", h.info)
	g.GET("/invoice/qr-code/:invoice_id/:network", h.qrCode)
}
