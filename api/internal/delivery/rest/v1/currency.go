package v1

import (
	"net/http"
	"paygate/api/internal/domain"
	"paygate/api/internal/infra/postgres"
	"paygate/api/internal/logger"
	"paygate/api/internal/service"
	"paygate/pkg/utils"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

func (h *Handler) currencyConvert(c *gin.Context) {
	var data struct {
		Fiat string `json:"fiat" validate:"required,oneof=rub usd eur"`

		// should be lowercase
		Network string  `json:"network" validate:"required,oneof=eth erc20 sol ton btc lightning"`
		Amount  float64 `json:"amount" validate:"required,amount"`
		ApiKey  string  `json:"api_key" validate:"min=64,max=64"`
	}

	var errid = logger.GenErrorId()

	if err := c.ShouldBindJSON(&data); err != nil {
		responseErr(c, http.StatusBadRequest, domain.ErrMsgBadRequest, "")
		h.log.Debug("bind json error: " + err.Error())
		return
	}

	v := validator.New()

	v.RegisterValidation("amount", validateAmount)

	if err := v.Struct(data); err != nil {
		validationErrs, err := utils.SafeCast[validator.ValidationErrors](err)
		if err != nil || validationErrs == nil {
			responseErr(c, http.StatusBadRequest, domain.ErrMsgBadRequest, "")
			return
		}
		responseErr(c, http.StatusBadRequest, formatValidationErr(data, validationErrs[0]), "")
		return
	}

	// upper case, cause we accept lower case, but services only accept upper case
	data.Fiat = strings.ToUpper(data.Fiat)

	amountDecimal := decimal.NewFromFloat(data.Amount)

	if !h.apiKeyValid(c, data.ApiKey, errid) {
		return
	}

	rates, err := h.services.Rates.Get(data.Fiat)
	if err != nil {
		responseErr(c, http.StatusInternalServerError, domain.ErrMsgInternalServerError, errid)
		h.log.Error("rates get error: "+err.Error(), logger.LS_INVOICES, false, "error_id", errid)
		return
	}

	rate, err := service.RateFor(rates, domain.StrToNetwork(data.Network))
	if err != nil {
		responseErr(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	converted := h.services.Invoices.CalculateFinAmount(amountDecimal, rate)

	c.AbortWithStatusJSON(http.StatusOK, responseConverterOK{
		Error:     false,
		Fiat:      data.Fiat,
		Amount:    amountDecimal,
		Network:   data.Network,
		Converted: converted,
		Rate:      rate,
	})
}

func (h *Handler) currencyRates(c *gin.Context) {
	var data struct {
		Fiat   string `json:"fiat" validate:"required,oneof=rub usd eur"`
		ApiKey string `json:"api_key" validate:"min=64,max=64"`
	}

	var errid = logger.GenErrorId()

	if err := c.ShouldBindJSON(&data); err != nil {
		responseErr(c, http.StatusBadRequest, domain.ErrMsgBadRequest, "")
		h.log.Debug("bind json error: " + err.Error())
		return
	}

	v := validator.New()

	if err := v.Struct(data); err != nil {
		validationErrs, err := utils.SafeCast[validator.ValidationErrors](err)
		if err != nil || validationErrs == nil {
			responseErr(c, http.StatusBadRequest, domain.ErrMsgBadRequest, "")
			return
		}
		responseErr(c, http.StatusBadRequest, formatValidationErr(data, validationErrs[0]), "")
		return
	}

	// upper case, cause we accept lower case, but services only accept upper case
	data.Fiat = strings.ToUpper(data.Fiat)

	if !h.apiKeyValid(c, data.ApiKey, errid) {
		return
	}

	rates, err := h.services.Rates.Get(data.Fiat)
	if err != nil {
		responseErr(c, http.StatusInternalServerError, domain.ErrMsgInternalServerError, errid)
		h.log.Error("rates get error: "+err.Error(), logger.LS_INVOICES, false, "error_id", errid)
		return
	}

	c.AbortWithStatusJSON(http.StatusOK, responseRatesOK{
		Error: false,
		Fiat:  data.Fiat,
		Rates: responseRates{
			Eth:  rates.Eth,
			Sol:  rates.Sol,
			Ton:  rates.Ton,
			Btc:  rates.Btc,
			Usdt: rates.Usdt,
		},
	})
}

// looks up the merchant by api key, writes the error response itself.
// returns false if the caller should stop
func (h *Handler) apiKeyValid(c *gin.Context, apiKey, errid string) bool {
	_, err := h.services.Merchants.FindByApiKey(h.db, apiKey)
	if postgres.IsNotFound(err) {
		responseErr(c, http.StatusBadRequest, domain.ErrMsgApiKeyNotFound, "")
		return false
	}
	if err != nil {
		responseErr(c, http.StatusInternalServerError, domain.ErrMsgInternalServerError, errid)
		h.log.Error("find by api key error: "+err.Error(), logger.LS_INVOICES, false, "error_id", errid)
		return false
	}
	return true
}

func (h *Handler) initCurrencyRoutes(g *gin.RouterGroup) {
	g.POST("/currency/convert", h.currencyConvert)
	g.POST("/currency/rates", h.currencyRates)
}
