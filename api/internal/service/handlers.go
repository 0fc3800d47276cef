package service

import (
	"context"
	"paygate/api/internal/domain"
	"paygate/api/internal/infra/nats"
	"paygate/pkg/nats/natsdomain"
	"time"

	"github.com/shopspring/decimal"
)

// HandlersService is the closed registry of payment method handlers.
// every supported network is served by the matching wallet node over nats,
// unknown networks are rejected at invoice creation
type HandlersService struct {
	n        *nats.NatsInfra
	handlers map[domain.Network]Handler
}

func NewHandlersService(n *nats.NatsInfra) *HandlersService {
	handlers := make(map[domain.Network]Handler)

	for _, network := range []domain.Network{
		domain.NETWORK_ETH,
		domain.NETWORK_ERC20,
		domain.NETWORK_SOL,
		domain.NETWORK_TON,
		domain.NETWORK_BTC,
		domain.NETWORK_LIGHTNING,
	} {
		handlers[network] = &natsHandler{n: n, network: network}
	}

	return &HandlersService{n: n, handlers: handlers}
}

func (s *HandlersService) For(network domain.Network) (Handler, error) {
	h, ok := s.handlers[network]
	if !ok {
		return nil, domain.ErrNoHandlerAvailable
	}
	return h, nil
}

func (s *HandlersService) SharesAddressSpaceWith(a, b domain.Network) bool {
	return a.SharesAddressSpaceWith(b)
}

// WatcherAlive reports whether the network's watcher wrote a heartbeat within
// the given window. a dead watcher means events may exist that we have not
// seen yet, so expiry decisions hold off
func (s *HandlersService) WatcherAlive(network domain.Network, within time.Duration) bool {
	last, err := s.n.WatcherHeartbeat(context.Background(), network.ToString())
	if err != nil {
		return false
	}
	if last.IsZero() {
		return false
	}
	return time.Since(last) <= within
}

// natsHandler proxies allocate/release to the wallet node responsible for one
// network
type natsHandler struct {
	n       *nats.NatsInfra
	network domain.Network
}

func (h *natsHandler) Network() domain.Network {
	return h.network
}

func (h *natsHandler) Allocate(ctx context.Context, invoiceId string, amount decimal.Decimal) (*Allocation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := h.n.ReqAllocate(h.network.ToString(), invoiceId, amount)
	if err != nil {
		return nil, mapWireError(err)
	}

	return &Allocation{
		Identifier:      res.Identifier,
		AssetTag:        res.AssetTag,
		SupportsPayjoin: res.SupportsPayjoin,
	}, nil
}

func (h *natsHandler) Release(identifier string) error {
	return h.n.ReqRelease(h.network.ToString(), identifier)
}

// wire error strings from wallet nodes map onto the service error set
func mapWireError(err error) error {
	switch err.Error() {
	case natsdomain.ErrMsgPoolExhausted:
		return domain.ErrPoolExhausted
	case natsdomain.ErrMsgNetworkUnavailable:
		return domain.ErrNoHandlerAvailable
	case natsdomain.ErrMsgRateUnavailable:
		return domain.ErrRateUnavailable
	}
	return err
}
