package v1

import (
	"io"
	"net/http"
	"paygate/api/internal/domain"
	"paygate/api/internal/logger"

	"github.com/gin-gonic/gin"
)

// drafts above this are not honest payment proposals
const maxProposalSize = 1 << 20

// POST /invoice/payjoin/:invoice_id
// body: base64 psbt draft paying the invoice identifier.
// response: counter-proposal with one receiver input added
func (h *Handler) payjoinPropose(c *gin.Context) {
	var errid = logger.GenErrorId()

	invoiceId := c.Param("invoice_id")
	if invoiceId == "" {
		responseErr(c, http.StatusBadRequest, domain.ErrMsgInvalidInvoiceId, "")
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxProposalSize))
	if err != nil || len(body) == 0 {
		responseErr(c, http.StatusBadRequest, domain.ErrMsgBadRequest, "")
		return
	}

	counterProposal, err := h.services.Payjoin.Propose(invoiceId, string(body))
	if err != nil {
		responseErr(c, domain.GetStatusByErr(err), err.Error(), errid)
		return
	}

	c.AbortWithStatusJSON(http.StatusOK, responsePayjoin{
		Error: false,
		Psbt:  counterProposal,
	})
}

func (h *Handler) initPayjoinRoutes(g *gin.RouterGroup) {
	g.POST("/invoice/payjoin/:invoice_id", h.payjoinPropose)
}
