package v1

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"paygate/api/internal/domain"
	"paygate/api/internal/infra/postgres"
	"paygate/api/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

func (h *Handler) merchantInit(c *gin.Context) {
	var data struct {
		MerchantName string `json:"merchant_name" validate:"required,min=1,max=32,alphanum"`
		Webhook      string `json:"webhook" validate:"omitempty,max=255"`
	}
	merchantId := uuid.NewString()

	errid := logger.GenErrorId()

	if err := c.ShouldBindJSON(&data); err != nil {
		responseErr(c, http.StatusBadRequest, domain.ErrMsgBadRequest, errid)
		h.log.Debug("bind json error: " + err.Error())
		return
	}

	v := validator.New()

	if err := v.Struct(data); err != nil {
		responseErr(c, http.StatusBadRequest, domain.ErrMsgBadRequest, errid)
		return
	}

	shaBytes := sha256.Sum256([]byte(data.MerchantName + merchantId))

	apiKey := hex.EncodeToString(shaBytes[:])

	// Check by id
	_, err := h.services.Merchants.FindByID(h.db, merchantId)
	if !postgres.IsNotFound(err) {
		responseErr(c, http.StatusBadRequest, domain.ErrMsgMerchantIdExists, "")
		return
	}

	if err == nil {
		responseErr(c, http.StatusBadRequest, domain.ErrMsgMerchantIdExists, "")
		return
	}

	// Check by name
	_, err = h.services.Merchants.FindByName(h.db, data.MerchantName)
	if !postgres.IsNotFound(err) {
		responseErr(c, http.StatusBadRequest, domain.ErrMsgMerchantNameExists, "")
		return
	}

	if err == nil {
		responseErr(c, http.StatusBadRequest, domain.ErrMsgMerchantNameExists, "")
		return
	}

	err = h.services.Merchants.Create(h.db, &domain.Merchants{
		MerchantName: data.MerchantName,
		MerchantID:   merchantId,
		ApiKey:       apiKey,
		Webhook:      data.Webhook,
	})
	if err != nil {
		responseErr(c, http.StatusInternalServerError, domain.ErrMsgInternalServerError, errid)
		h.log.Debug("create merchant error: " + err.Error())
		return
	}

	c.AbortWithStatusJSON(http.StatusOK, responseMerchantCreated{
		Error:      false,
		ApiKey:     apiKey,
		MerchantId: merchantId,
	})

}

func (h *Handler) initMerchantRoutes(g *gin.RouterGroup) {
	g.POST("/merchant/create", h.merchantInit)
}
