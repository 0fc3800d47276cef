package v1

import (
	"fmt"
	"net/http"
	"net/url"
	"paygate/api/internal/domain"
	"paygate/pkg/utils"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// lifetime - int - minutes - max 4320
// amount - float
// currency - string - USD/EUR/RUB
// networks - []string
// api key - string - min 64, max 64
// webhook - string - https://

var maxAmount = decimal.NewFromInt(100000000)

type NewInvoiceData struct {
	Lifetime    int      `json:"lifetime" validate:"gte=0,lte=4320"`
	Currency    string   `json:"currency" validate:"required,oneof=USD EUR RUB"`
	Networks    []string `json:"networks" validate:"required,min=1,dive,oneof=eth erc20 sol ton btc lightning"`
	AmountFloat float64  `json:"amount" validate:"required,amount"`
	ApiKey      string   `json:"api_key" validate:"min=64,max=64"` // sha256
	Webhook     string   `json:"webhook" validate:"webhook,max=255"`

	Amount decimal.Decimal `json:"-"` // used after validation
}

// checks the validity of data in query
// returns false if there is an error
func filterQuery(c *gin.Context) (*NewInvoiceData, bool) {

	var data NewInvoiceData
	err := c.ShouldBindJSON(&data)
	if err != nil {
		responseErr(c, http.StatusBadRequest, domain.ErrMsgBadRequest, "")
		return nil, false
	}

	v := validator.New()

	v.RegisterValidation("amount", validateAmount)
	v.RegisterValidation("webhook", validateWebhook)
	err = v.Struct(data)
	if err == nil {
		data.Amount = decimal.NewFromFloat(data.AmountFloat)

		return &data, true
	}

	validationErrs, err := utils.SafeCast[validator.ValidationErrors](err)
	if err != nil {
		responseErr(c, http.StatusBadRequest, domain.ErrMsgBadRequest, "")
		return nil, false
	}
	if validationErrs == nil {
		responseErr(c, http.StatusBadRequest, domain.ErrMsgBadRequest, "")
		return nil, false
	}

	validationErr := validationErrs[0]
	responseErr(c, http.StatusBadRequest, formatValidationErr(data, validationErr), "")

	return nil, false

}

func validateAmount(fl validator.FieldLevel) bool {
	amount := decimal.NewFromFloat(fl.Field().Float())
	return amount.GreaterThan(decimal.Zero) && amount.LessThanOrEqual(maxAmount)
}

func validateWebhook(fl validator.FieldLevel) bool {
	if fl.Field().String() == "" { // webhook is not set
		return true
	}

	if len(fl.Field().String()) <= 8 {
		return false
	}
	if !strings.Contains(fl.Field().String(), ".") { // has dot
		return false
	}

	_, err := url.ParseRequestURI(fl.Field().String())
	return err == nil
}

func formatValidationErr(data any, err validator.FieldError) string {
	jsonTag := getJSONTag(data, err.StructField())

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("field '%s' is required", jsonTag)
	case "oneof":
		return fmt.Sprintf("field '%s' must be one of '%s'", jsonTag, err.Param())
	case "min":
		return fmt.Sprintf("field '%s' must be at least %s characters long", jsonTag, err.Param())
	case "max":
		return fmt.Sprintf("field '%s' must be at most %s characters long", jsonTag, err.Param())
	case "gte":
		return fmt.Sprintf("field '%s' must be greater than or equal to %s", jsonTag, err.Param())
	case "lte":
		return fmt.Sprintf("field '%s' must be less than or equal to %s", jsonTag, err.Param())
	//  custom tags
	case "webhook":
		return fmt.Sprintf("field '%s' must be a valid HTTPS url", jsonTag)
	case "amount":
		return fmt.Sprintf("field '%s' must be greater than 0 and less than %s", jsonTag, maxAmount)

	default:
		return fmt.Sprintf("invalid field '%s'", jsonTag)
	}

}

func getJSONTag(structType any, fieldName string) string {
	typ := reflect.TypeOf(structType)
	field, _ := typ.FieldByName(fieldName)
	tag := field.Tag.Get("json")
	if tag == "" {
		return fieldName
	}
	return tag
}
