package service

import (
	"fmt"
	"paygate/api/internal/domain"
	"paygate/api/internal/infra/nats"
	"paygate/api/internal/logger"
	"paygate/api/internal/repository"
	"paygate/pkg/utils"
	"strings"
	"time"

	"gorm.io/gorm"
)

// OutboxEventsService drains status transition rows written in the same
// transaction that moved the invoice, and turns them into webhooks. delivery
// is at-least-once, rows stay "new" until the webhook went out
type OutboxEventsService struct {
	repo            repository.Events
	invoicesService Invoices
	webhook         WebhookSender

	natsinfra *nats.NatsInfra

	db *gorm.DB
	l  logger.Logger
}

func NewOutboxEventsService(invoicesService Invoices, natsinfra *nats.NatsInfra, db *gorm.DB, l logger.Logger, repo repository.Events, webhook WebhookSender) *OutboxEventsService {
	return &OutboxEventsService{invoicesService: invoicesService, natsinfra: natsinfra, db: db, l: l, repo: repo, webhook: webhook}
}

// checks events table and handles them
func (s *OutboxEventsService) StartProcessEvents() {
	const sleepTime = 10 * time.Second

	go func() {
		for {
			events, err := getNewEvents(s.db, 20, time.Second*1)
			if err != nil {
				if err.Error() != errNoValidEvents {
					s.l.Debug("get new events error: " + err.Error())
				}
				time.Sleep(sleepTime)
				continue
			}

			for _, event := range events {
				if strings.HasPrefix(event.Type, domain.EVENT_STATUS_CHANGED) {
					s.handleStatusChangedEvent(event)
					continue
				}
				s.l.Debug("invalid event type: " + event.Type)
			}

			time.Sleep(sleepTime)
		}
	}()

}

func (s *OutboxEventsService) handleStatusChangedEvent(event domain.Events) {
	payload, err := utils.Unmarshal[domain.PayloadStatusChanged]([]byte(event.Payload))
	if err != nil {
		s.l.Debug("unmarshal status changed payload: " + err.Error())
		return
	}

	go func() {
		if payload.Url != "" {
			if err := s.webhook.Send(payload.Url, *payload); err != nil {
				s.l.Debug("send webhook error: "+err.Error(), "url", payload.Url, "invoice_id", payload.InvoiceID)
				return // stays "new", picked up next round
			}
		}

		// the delivered confirmed notification is the dispatcher ack that
		// lets the invoice close
		if payload.NewStatus == domain.STATUS_CONFIRMED.ToString() {
			if err := s.invoicesService.Acknowledge(payload.InvoiceID); err != nil {
				s.l.Debug("acknowledge error: "+err.Error(), "invoice_id", payload.InvoiceID)
			}
		}

		s.repo.Done(s.db, event.RelationID, event.Type)
	}()
}

func selectEventsFromDb(tx *gorm.DB, count int) ([]domain.Events, error) {
	var events []domain.Events
	return events, tx.Where(&domain.Events{Status: "new"}).Limit(count).Find(&events).Error
}

const errNoValidEvents = "no valid events"

func getNewEvents(tx *gorm.DB, count int, timeDiff time.Duration) ([]domain.Events, error) {
	var validEvents []domain.Events

	events, err := selectEventsFromDb(tx, count)
	if err != nil {
		return nil, err
	}

	// skip rows whose transaction may still be in flight
	for _, x := range events {
		if time.Since(x.CreatedAt) > timeDiff {
			validEvents = append(validEvents, x)
		}
	}

	if len(validEvents) == 0 {
		return nil, fmt.Errorf(errNoValidEvents)
	}

	return validEvents, nil

}
