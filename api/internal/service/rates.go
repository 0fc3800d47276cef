package service

import (
	"encoding/json"
	"fmt"
	"paygate/api/internal/domain"
	"paygate/api/internal/infra/cache"
	"paygate/api/internal/infra/nats"
	"paygate/pkg/nats/natsdomain"
	"paygate/pkg/utils"
	"time"

	"github.com/shopspring/decimal"
)

type RatesService struct {
	cache *cache.Cache
	ns    *natsdomain.Ns
}

func NewRatesService(cache *cache.Cache, ns *natsdomain.Ns) *RatesService {
	return &RatesService{cache: cache, ns: ns}
}

func (s *RatesService) Get(amountCurrency string) (*natsdomain.Rates, error) {
	var rates *natsdomain.Rates

	rates, ok := s.cache.Load(amountCurrency).(*natsdomain.Rates)
	if rates != nil && ok {
		return rates, nil
	}

	rates, err := getRatesFromNats(s.ns, amountCurrency)
	if err != nil {
		return nil, err
	}
	if rates == nil {
		return nil, fmt.Errorf("rates is nil, but no error")
	}

	s.cache.Set(amountCurrency, rates, time.Minute*5)
	return rates, nil
}

// RateFor picks the rate for a payment network. erc20 settles in usdt,
// lightning settles in btc
func RateFor(rates *natsdomain.Rates, network domain.Network) (decimal.Decimal, error) {
	var rate decimal.Decimal

	switch network {
	case domain.NETWORK_ETH:
		rate = rates.Eth
	case domain.NETWORK_ERC20:
		rate = rates.Usdt
	case domain.NETWORK_SOL:
		rate = rates.Sol
	case domain.NETWORK_TON:
		rate = rates.Ton
	case domain.NETWORK_BTC, domain.NETWORK_LIGHTNING:
		rate = rates.Btc
	default:
		return decimal.Zero, domain.ErrRateUnavailable
	}

	if rate.IsZero() {
		return decimal.Zero, domain.ErrRateUnavailable
	}

	return rate, nil
}

func getRatesFromNats(ns *natsdomain.Ns, currency string) (*natsdomain.Rates, error) {

	jsonMsg, err := json.Marshal(natsdomain.ReqGetRates{ToCurrency: currency})
	if err != nil {
		return nil, err
	}

	data, err := ns.ReqAndRecv(natsdomain.SubjGetRates, jsonMsg)
	if err != nil {
		return nil, err
	}

	is, errMsg := nats.HelpersIsError(data)
	if is {
		return nil, fmt.Errorf(errMsg)
	}

	res, err := utils.Unmarshal[natsdomain.ResGetRates](data)
	if err != nil {
		return nil, err
	}

	if res.IsError {
		return nil, fmt.Errorf(res.Message)
	}

	return &res.Rates, nil
}
