package service

import (
	"context"
	"errors"
	"paygate/api/internal/domain"
	"paygate/api/internal/infra/nats"
	"paygate/api/internal/infra/postgres"
	"paygate/api/internal/logger"
	"paygate/api/internal/repository"
	"paygate/pkg/nats/natsdomain"
	"paygate/pkg/utils"

	"github.com/nats-io/nats.go/jetstream"
	"gorm.io/gorm"
)

// PaymentsConsumerService feeds watcher observations from the durable
// payments stream into the engine. acking policy carries the idempotency
// story: bad messages and foreign identifiers are acked away, store failures
// are nak'd so jetstream redelivers them
type PaymentsConsumerService struct {
	db       *gorm.DB
	invoices Invoices
	methods  repository.Methods
	n        *nats.NatsInfra
	l        logger.Logger
}

func NewPaymentsConsumerService(db *gorm.DB, invoices Invoices, methods repository.Methods, n *nats.NatsInfra, l logger.Logger) *PaymentsConsumerService {
	return &PaymentsConsumerService{db: db, invoices: invoices, methods: methods, n: n, l: l}
}

func (s *PaymentsConsumerService) Start(ctx context.Context) error {
	consumer, err := nats.PaymentsConsumer(ctx, s.n.Ns.Js)
	if err != nil {
		return err
	}

	_, err = consumer.Consume(func(msg jetstream.Msg) {
		s.handle(msg)
	})
	return err
}

func (s *PaymentsConsumerService) handle(msg jetstream.Msg) {
	var errid = logger.GenErrorId()

	event, err := utils.Unmarshal[natsdomain.PaymentEventMsg](msg.Data())
	if err != nil {
		// poison message, redelivery will not fix it
		s.l.TemplPaymentErr("unmarshal payment event error: "+err.Error(), errid, logger.NA, logger.NA, logger.NA)
		msg.Ack()
		return
	}

	network := domain.StrToNetwork(event.SourceNetwork)
	if network.IsNone() {
		s.l.TemplPaymentErr("unknown source network: "+event.SourceNetwork, errid, logger.NA, event.SourceNetwork, event.TxRef)
		msg.Ack()
		return
	}

	method, err := s.methods.FindByIdentifier(s.db, network, event.Identifier)
	if err != nil {
		if postgres.IsNotFound(err) {
			// not one of ours, e.g. a sweep into a pool address
			msg.Ack()
			return
		}
		s.l.TemplPaymentErr("find method error: "+err.Error(), errid, logger.NA, event.SourceNetwork, event.TxRef)
		msg.Nak()
		return
	}

	// a transfer of some other token to a shared address is not a payment
	// for this invoice
	if method.AssetTag != event.AssetTag {
		msg.Ack()
		return
	}

	paymentEvent := &domain.PaymentEvents{
		MethodID:      method.ID,
		SourceNetwork: network,
		TxRef:         event.TxRef,
		Identifier:    event.Identifier,
		AssetTag:      event.AssetTag,
		Amount:        event.Amount,
		Confidence:    domain.StrToConfidence(event.Confidence),
		Depth:         event.Depth,
		ObservedAt:    event.ObservedAt,
	}

	_, err = s.invoices.ApplyPaymentEvent(method.InvoiceID, paymentEvent)
	if err != nil {
		if errors.Is(err, domain.ErrInvoiceTerminal) {
			// recorded for audit, nothing left to drive
			msg.Ack()
			return
		}
		s.l.TemplPaymentErr("apply payment event error: "+err.Error(), errid, method.InvoiceID, event.SourceNetwork, event.TxRef)
		msg.Nak()
		return
	}

	msg.Ack()
}
