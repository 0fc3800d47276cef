package nats

import (
	"encoding/json"
	"paygate/pkg/nats/natsdomain"
	"time"
)

func Unmarshal[T any](data []byte) (*T, error) {
	var unm T
	err := json.Unmarshal(data, &unm)
	if err != nil {
		return nil, err
	}
	return &unm, nil
}

// converts *currencies.Rates to nats.ResGetRates
func RatesFormat(rates *natsdomain.Rates, err error) natsdomain.ResGetRates {
	if err != nil {
		return natsdomain.ResGetRates{
			Error: natsdomain.Error{
				IsError:   true,
				Message:   err.Error(),
				Timestamp: time.Now(),
			},
		}
	}

	return natsdomain.ResGetRates{
		Error: natsdomain.Error{
			IsError: false,
		},
		Rates: *rates,
	}
}

func wireError(message string) natsdomain.Error {
	return natsdomain.Error{
		IsError:   true,
		Message:   message,
		Timestamp: time.Now(),
	}
}
