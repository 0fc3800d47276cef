package service

import (
	"testing"

	"paygate/api/internal/config"
	"paygate/api/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestCalculateFinAmount(t *testing.T) {
	s := &InvoicesService{}

	// 100 usd at 2000 usd/eth
	got := s.CalculateFinAmount(decimal.NewFromInt(100), decimal.NewFromInt(2000))
	require.True(t, got.Equal(decimal.NewFromFloat(0.05)), "got %s", got)

	// rounding goes up, the payer can only overpay by dust, never underpay
	got = s.CalculateFinAmount(decimal.NewFromInt(100), decimal.NewFromInt(3000), 10)
	want := decimal.NewFromInt(100).Div(decimal.NewFromInt(3000))
	require.False(t, got.LessThan(want), "rounded below the required amount: %s < %s", got, want)
}

func TestStatusRulesFromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Invoices.UnderpaymentTolerance = 1
	cfg.Invoices.OverpaymentTolerance = 0.5
	cfg.Invoices.Confirmations = map[string]uint32{"eth": 12, "btc": 3}

	s := &InvoicesService{config: cfg}

	rules := s.statusRules()
	require.True(t, rules.UnderpaymentTolerance.Equal(decimal.NewFromInt(1)))
	require.EqualValues(t, 12, rules.RequiredDepth[domain.NETWORK_ETH])
	require.EqualValues(t, 3, rules.RequiredDepth[domain.NETWORK_BTC])
}

func TestOutageWindow(t *testing.T) {
	cfg := &config.Config{}
	cfg.Invoices.TickInterval = 30

	s := &InvoicesService{config: cfg}

	// three missed ticks before a watcher counts as down
	require.EqualValues(t, 90, s.outageWindow().Seconds())
}
