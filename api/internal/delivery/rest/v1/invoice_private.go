// PRIVATE (ADMIN / DISPATCHER) INVOICE ROUTES

package v1

import (
	"net/http"
	"paygate/api/internal/config"
	"paygate/api/internal/domain"
	"paygate/api/internal/logger"

	"github.com/gin-gonic/gin"
)

// POST /invoice/acknowledge
// the dispatcher confirms it handed the confirmed notification to the
// merchant side. this is what lets a confirmed invoice become complete
func (h *Handler) acknowledge(c *gin.Context) {
	var data struct {
		InvoiceId string `json:"invoice_id"`
	}

	var errid = logger.GenErrorId()

	if err := c.ShouldBindJSON(&data); err != nil {
		responseErr(c, http.StatusBadRequest, domain.ErrMsgBadRequest, "")
		return
	}

	if data.InvoiceId == "" {
		responseErr(c, http.StatusBadRequest, domain.ErrMsgInvalidInvoiceId, "")
		return
	}

	if err := h.services.Invoices.Acknowledge(data.InvoiceId); err != nil {
		responseErr(c, domain.GetStatusByErr(err), err.Error(), errid)
		return
	}

	c.AbortWithStatusJSON(http.StatusOK, responseAcknowledged{Error: false})
}

func (h *Handler) updateProxyList(c *gin.Context) {
	h.services.WebhookSender.UpdateList(config.GetProxyList(h.config.ProxyPath))
	c.AbortWithStatusJSON(http.StatusOK, gin.H{"error": false})
}

func (h *Handler) getProxyList(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusOK, gin.H{"error": false, "proxies": h.services.WebhookSender.GetList()})
}

func (h *Handler) initPrivInvoiceRoutes(g *gin.RouterGroup) {
	g.POST("/invoice/acknowledge", h.adminAccessMiddleware(), h.acknowledge)
	g.POST("/webhook/updateProxyList", h.adminAccessMiddleware(), h.updateProxyList)
	g.POST("/webhook/getProxyList", h.adminAccessMiddleware(), h.getProxyList)
}
