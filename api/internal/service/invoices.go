package service

import (
	"context"
	"encoding/json"
	"errors"
	"paygate/api/internal/config"
	"paygate/api/internal/domain"
	"paygate/api/internal/infra/cache"
	"paygate/api/internal/infra/nats"
	"paygate/api/internal/infra/postgres"
	"paygate/api/internal/logger"
	"paygate/api/internal/repository"
	"paygate/pkg/nats/natsdomain"
	"paygate/pkg/utils"
	"slices"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// bounded retries for version conflicts. the reducer is pure, so a retry
// re-reads and re-applies with identical semantics
const maxApplyAttempts = 5

var SupportedCurrencies = []string{"USD", "EUR", "RUB"}

type InvoicesService struct {
	repo     repository.Invoices
	events   repository.PaymentEvents
	methods  repository.Methods
	outbox   repository.Events
	locker   Locker
	handlers Handlers
	rates    Rates
	n        *nats.NatsInfra
	db       *gorm.DB
	cache    *cache.Cache
	l        logger.Logger
	config   *config.Config
}

func NewInvoicesService(db *gorm.DB, repos *repository.Repositories, locker Locker, handlers Handlers, rates Rates, n *nats.NatsInfra, l logger.Logger, cache *cache.Cache, config *config.Config) *InvoicesService {
	return &InvoicesService{
		repo:     repos.Invoices,
		events:   repos.PaymentEvents,
		methods:  repos.Methods,
		outbox:   repos.Events,
		locker:   locker,
		handlers: handlers,
		rates:    rates,
		n:        n,
		db:       db,
		cache:    cache,
		l:        l,
		config:   config,
	}
}

func (s *InvoicesService) statusRules() domain.StatusRules {
	depths := make(map[domain.Network]uint32, len(s.config.Invoices.Confirmations))
	for name, d := range s.config.Invoices.Confirmations {
		depths[domain.StrToNetwork(name)] = d
	}

	return domain.StatusRules{
		UnderpaymentTolerance: decimal.NewFromFloat(s.config.Invoices.UnderpaymentTolerance),
		OverpaymentTolerance:  decimal.NewFromFloat(s.config.Invoices.OverpaymentTolerance),
		RequiredDepth:         depths,
	}
}

// Create allocates one receiving identifier per requested network, locks in
// the current rates and persists the invoice. any failure mid-way releases
// everything already allocated, so an aborted creation never leaks
// identifiers from the pools
func (s *InvoicesService) Create(ctx context.Context, input CreateInvoiceInput) (*domain.Invoices, error) {
	var errid = logger.GenErrorId()

	if !slices.Contains(SupportedCurrencies, input.Currency) {
		return nil, domain.ErrUnsupportedCurrency
	}

	rates, err := s.rates.Get(input.Currency)
	if err != nil {
		s.l.TemplInvoiceErr("get rates error: "+err.Error(), errid, logger.NA, input.Amount, input.Currency, logger.NA, input.MerchantID, logger.NA)
		return nil, domain.ErrRateUnavailable
	}

	lifetime := input.Lifetime
	if lifetime == 0 {
		lifetime = time.Duration(s.config.Invoices.DefaultLifetime) * time.Minute
	}

	now := time.Now()
	invoiceId := uuid.NewString()
	endTimestamp := now.Add(lifetime).Unix()
	graceTimestamp := endTimestamp + int64(s.config.Invoices.GraceWindow)*60

	var methods []domain.PaymentMethods

	// compensation for a failed or cancelled creation
	release := func() {
		for c := range methods {
			handler, err := s.handlers.For(methods[c].Network)
			if err != nil {
				continue
			}
			if err := handler.Release(methods[c].Identifier); err != nil {
				s.l.TemplInvoiceErr("release identifier error: "+err.Error(), errid, invoiceId, input.Amount, input.Currency, logger.NA, input.MerchantID, logger.NA)
			}
		}
	}

	for _, network := range input.Networks {
		if invoiceHasMethod(methods, network) {
			continue
		}

		handler, err := s.handlers.For(network)
		if err != nil {
			release()
			return nil, err
		}

		rate, err := RateFor(rates, network)
		if err != nil {
			release()
			return nil, err
		}

		required := s.CalculateFinAmount(input.Amount, rate)

		alloc, err := handler.Allocate(ctx, invoiceId, required)
		if err != nil {
			release()
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			s.l.TemplInvoiceErr("allocate error: "+err.Error(), errid, invoiceId, input.Amount, input.Currency, logger.NA, input.MerchantID, logger.NA)
			return nil, err
		}

		methods = append(methods, domain.PaymentMethods{
			InvoiceID:       invoiceId,
			Network:         network,
			Currency:        input.Currency,
			Identifier:      alloc.Identifier,
			AssetTag:        alloc.AssetTag,
			Rate:            rate,
			RequiredAmount:  required,
			Accrued:         decimal.Zero,
			Active:          true,
			SupportsPayjoin: alloc.SupportsPayjoin,
		})

		// the caller may have gone away mid-allocation
		if err := ctx.Err(); err != nil {
			release()
			return nil, err
		}
	}

	invoice := &domain.Invoices{
		InvoiceID:         invoiceId,
		MerchantID:        input.MerchantID,
		Status:            domain.STATUS_NEW,
		RequestedAmount:   input.Amount,
		RequestedCurrency: input.Currency,
		EndTimestamp:      endTimestamp,
		GraceTimestamp:    graceTimestamp,
		Webhook:           input.Webhook,
		PaymentMethods:    methods,
	}

	if err := s.repo.Create(s.db, invoice); err != nil {
		release()
		s.l.TemplInvoiceErr("create invoice error: "+err.Error(), errid, invoiceId, input.Amount, input.Currency, logger.NA, input.MerchantID, logger.NA)
		return nil, domain.ErrInternalServerError
	}

	s.cache.Set(invoiceId, invoice, time.Minute*5)
	s.l.TemplInvoiceInfo("invoice created", errid, invoiceId, input.Amount, input.Currency, logger.NA, input.MerchantID, logger.NA)

	if s.config.Testing.Enabled {
		go s.simulatePayment(invoice)
	}

	return invoice, nil
}

func invoiceHasMethod(methods []domain.PaymentMethods, network domain.Network) bool {
	for c := range methods {
		if methods[c].Network == network {
			return true
		}
	}
	return false
}

// ApplyPaymentEvent records one watcher observation and recomputes the
// invoice. it is idempotent: replays of the same (network, tx_ref) only ever
// raise confidence, and re-running the reducer over the same event set yields
// the same status. safe to call concurrently, conflicts retry against a fresh
// read
func (s *InvoicesService) ApplyPaymentEvent(invoiceId string, event *domain.PaymentEvents) (*domain.Invoices, error) {
	var errid = logger.GenErrorId()
	var lastErr error

	for attempt := 0; attempt < maxApplyAttempts; attempt++ {
		invoice, err := s.repo.FindByID(s.db, invoiceId)
		if err != nil {
			if postgres.IsNotFound(err) {
				return nil, domain.ErrInvoiceIdNotFound
			}
			s.l.TemplPaymentErr("find invoice error: "+err.Error(), errid, invoiceId, event.SourceNetwork.ToString(), event.TxRef)
			return nil, domain.ErrInternalServerError
		}

		if invoice.Status.IsTerminal() {
			return invoice, s.recordAfterTerminal(invoice, event, errid)
		}

		event.InvoiceID = invoiceId

		txErr := s.db.Transaction(func(tx *gorm.DB) error {
			created, err := s.events.CreateDedup(tx, event)
			if err != nil {
				return err
			}
			if !created {
				// replay. amounts never change, confidence only goes up
				if err := s.events.RaiseConfidence(tx, event); err != nil {
					return err
				}
			}

			events, err := s.events.FindByInvoice(tx, invoiceId)
			if err != nil {
				return err
			}
			methods, err := s.methods.FindByInvoice(tx, invoiceId)
			if err != nil {
				return err
			}

			accrued := domain.Accrue(methods, domain.DedupEvents(events))
			for c := range accrued {
				if err := s.methods.UpdateAccrued(tx, accrued[c].ID, accrued[c].Accrued.String()); err != nil {
					return err
				}
			}

			newStatus := domain.Recompute(invoice, accrued, events, s.statusRules(), time.Now().Unix())
			if newStatus != invoice.Status {
				if err := s.emitStatusChanged(tx, invoice, invoice.Status, newStatus); err != nil {
					return err
				}
				invoice.Status = newStatus
			}
			invoice.PaymentMethods = accrued

			return s.repo.UpdateCAS(tx, invoice)
		})

		if txErr == nil {
			s.cache.Set(invoiceId, invoice, time.Minute*5)
			s.l.TemplPaymentInfo("payment event applied", invoiceId, event.SourceNetwork.ToString(), event.TxRef, event.Amount, event.Confidence.ToString())
			return invoice, nil
		}

		if errors.Is(txErr, domain.ErrVersionConflict) {
			lastErr = txErr
			continue
		}

		s.l.TemplPaymentErr("apply payment event error: "+txErr.Error(), errid, invoiceId, event.SourceNetwork.ToString(), event.TxRef)
		return nil, domain.ErrInternalServerError
	}

	s.l.TemplPaymentErr("apply payment event: out of retries", errid, invoiceId, event.SourceNetwork.ToString(), event.TxRef)
	return nil, lastErr
}

// late observations for dead invoices stay on the books as audit records.
// a replay of a known ref still gets its confidence raised
func (s *InvoicesService) recordAfterTerminal(invoice *domain.Invoices, event *domain.PaymentEvents, errid string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		event.InvoiceID = invoice.InvoiceID
		event.AfterTerminal = true

		created, err := s.events.CreateDedup(tx, event)
		if err != nil {
			return err
		}
		if !created {
			return s.events.RaiseConfidence(tx, event)
		}
		return nil
	})
	if err != nil {
		s.l.TemplPaymentErr("record after-terminal event error: "+err.Error(), errid, invoice.InvoiceID, event.SourceNetwork.ToString(), event.TxRef)
		return domain.ErrInternalServerError
	}

	return domain.ErrInvoiceTerminal
}

// Tick sweeps all non-terminal invoices against the clock. it only ever
// moves invoices by the same reducer the event path uses, so a tick racing
// an event application is harmless
func (s *InvoicesService) Tick(now time.Time) {
	var errid = logger.GenErrorId()

	// a slow sweep must not overlap the next one
	if s.locker.IsLocked("tick") {
		return
	}
	s.locker.Lock("tick")
	defer s.locker.Unlock("tick")

	invoices, err := s.repo.FindActive(s.db)
	if err != nil {
		s.l.TemplInvoiceErr("find active invoices error: "+err.Error(), errid, logger.NA, decimal.Zero, logger.NA, logger.NA, logger.NA, logger.NA)
		return
	}

	outage := s.outageWindow()

	for c := range invoices {
		invoice := &invoices[c]

		events, err := s.events.FindByInvoice(s.db, invoice.InvoiceID)
		if err != nil {
			continue
		}
		methods, err := s.methods.FindByInvoice(s.db, invoice.InvoiceID)
		if err != nil {
			continue
		}

		next := domain.Recompute(invoice, methods, events, s.statusRules(), now.Unix())
		if next == invoice.Status {
			continue
		}

		// a watcher that stopped heartbeating may still owe us observations
		// from inside the validity window. holding expiry back beats burying a
		// paid invoice
		if (next == domain.STATUS_EXPIRED || next == domain.STATUS_INVALID) && s.watcherOutage(methods, outage) {
			s.l.Debug("expiry held back, watcher outage", "invoice_id", invoice.InvoiceID)
			continue
		}

		err = s.db.Transaction(func(tx *gorm.DB) error {
			if err := s.emitStatusChanged(tx, invoice, invoice.Status, next); err != nil {
				return err
			}
			invoice.Status = next
			return s.repo.UpdateCAS(tx, invoice)
		})
		if err != nil {
			if errors.Is(err, domain.ErrVersionConflict) {
				continue // an event got there first, next sweep catches up
			}
			s.l.TemplInvoiceErr("tick update error: "+err.Error(), errid, invoice.InvoiceID, invoice.RequestedAmount, invoice.RequestedCurrency, logger.NA, invoice.MerchantID, logger.NA)
			continue
		}

		s.cache.Set(invoice.InvoiceID, invoice, time.Minute*5)
		time.Sleep(100 * time.Millisecond)
	}
}

func (s *InvoicesService) outageWindow() time.Duration {
	return 3 * time.Duration(s.config.Invoices.TickInterval) * time.Second
}

func (s *InvoicesService) watcherOutage(methods []domain.PaymentMethods, within time.Duration) bool {
	for c := range methods {
		if !methods[c].Active {
			continue
		}
		if !s.handlers.WatcherAlive(methods[c].Network, within) {
			return true
		}
	}
	return false
}

// Acknowledge marks the confirmed notification as delivered to the merchant
// side, which lets the reducer close the invoice. idempotent
func (s *InvoicesService) Acknowledge(invoiceId string) error {
	var errid = logger.GenErrorId()

	for attempt := 0; attempt < maxApplyAttempts; attempt++ {
		invoice, err := s.repo.FindByID(s.db, invoiceId)
		if err != nil {
			if postgres.IsNotFound(err) {
				return domain.ErrInvoiceIdNotFound
			}
			return domain.ErrInternalServerError
		}

		if invoice.AcknowledgedAt > 0 || invoice.Status.IsTerminal() {
			return nil
		}

		invoice.AcknowledgedAt = time.Now().Unix()

		events, err := s.events.FindByInvoice(s.db, invoiceId)
		if err != nil {
			return domain.ErrInternalServerError
		}

		next := domain.Recompute(invoice, invoice.PaymentMethods, events, s.statusRules(), time.Now().Unix())

		txErr := s.db.Transaction(func(tx *gorm.DB) error {
			if next != invoice.Status {
				if err := s.emitStatusChanged(tx, invoice, invoice.Status, next); err != nil {
					return err
				}
				invoice.Status = next
			}
			return s.repo.UpdateCAS(tx, invoice)
		})

		if txErr == nil {
			s.cache.Set(invoiceId, invoice, time.Minute*5)
			return nil
		}

		if errors.Is(txErr, domain.ErrVersionConflict) {
			continue
		}

		s.l.TemplInvoiceErr("acknowledge error: "+txErr.Error(), errid, invoiceId, invoice.RequestedAmount, invoice.RequestedCurrency, logger.NA, invoice.MerchantID, logger.NA)
		return domain.ErrInternalServerError
	}

	return domain.ErrVersionConflict
}

func (s *InvoicesService) emitStatusChanged(tx *gorm.DB, invoice *domain.Invoices, oldStatus, newStatus domain.Status) error {
	payload, err := json.Marshal(domain.PayloadStatusChanged{
		InvoiceID: invoice.InvoiceID,
		OldStatus: oldStatus.ToString(),
		NewStatus: newStatus.ToString(),
		Timestamp: time.Now(),
		Url:       invoice.Webhook,
	})
	if err != nil {
		return err
	}

	// one outbox row per (invoice, target status), so CAS retries never
	// double-send a transition
	return s.outbox.Create(tx, domain.EVENT_STATUS_CHANGED+":"+newStatus.ToString(), invoice.ID, string(payload))
}

func (s *InvoicesService) FindByID(tx *gorm.DB, invoiceId string) (*domain.Invoices, error) {
	return s.repo.FindByID(tx, invoiceId)
}

func (s *InvoicesService) FindGlobal(tx *gorm.DB, invoiceId string) (*domain.Invoices, error) {
	// validate uuid (to avoid unnecessary database and cache queries)
	if uuid.Validate(invoiceId) != nil {
		return nil, domain.ErrInvalidInvoiceId
	}

	var errid = logger.GenErrorId()

	//  try to find in cahce
	cacheV := s.cache.Load(invoiceId)
	if cacheV != nil { // found
		return utils.SafeCast[*domain.Invoices](cacheV)
	}

	invoice, err := s.repo.FindByID(tx, invoiceId)
	if err != nil {
		if postgres.IsNotFound(err) {
			return nil, domain.ErrInvoiceIdNotFound
		}

		s.l.TemplInvoiceErr("find invoice by id error: "+err.Error(), errid, invoiceId, decimal.Zero, logger.NA, logger.NA, logger.NA, logger.NA)
		return nil, domain.ErrInternalServerError
	}

	if invoice == nil {
		return nil, domain.ErrInternalServerError
	}

	return invoice, nil
}

func (s *InvoicesService) FindAndSaveToCache(invoiceId string) (*domain.Invoices, error) {
	invoice, err := s.FindGlobal(s.db, invoiceId)
	if err != nil {
		return nil, err
	}

	s.cache.Set(invoiceId, invoice, time.Minute*5)

	return invoice, nil
}

func (s *InvoicesService) CalculateFinAmount(amount, rate decimal.Decimal, ceil ...int32) decimal.Decimal {
	var _ceil int32

	if ceil != nil && len(ceil) >= 0 {
		_ceil = ceil[0]
	} else { // default ceil
		_ceil = 10
	}

	return amount.Div(rate).RoundCeil(_ceil)
}

func (s *InvoicesService) StartTicker() {
	interval := time.Duration(s.config.Invoices.TickInterval) * time.Second

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for range t.C {
			s.Tick(time.Now())
		}
	}()
}

// testing mode only: fabricates a settled payment for the first method after
// the configured delays, through the same stream real watchers publish to
func (s *InvoicesService) simulatePayment(invoice *domain.Invoices) {
	if len(invoice.PaymentMethods) == 0 {
		return
	}

	method := invoice.PaymentMethods[0]
	txRef := gofakeit.UUID()

	publish := func(confidence domain.Confidence, depth uint32) {
		msg := natsdomain.PaymentEventMsg{
			SourceNetwork: method.Network.ToString(),
			Identifier:    method.Identifier,
			AssetTag:      method.AssetTag,
			Amount:        method.RequiredAmount,
			TxRef:         txRef,
			Confidence:    confidence.ToString(),
			Depth:         depth,
			ObservedAt:    time.Now(),
		}

		data, err := json.Marshal(msg)
		if err != nil {
			return
		}

		msgId := natsdomain.NewEventMsgId(msg.SourceNetwork, msg.TxRef, msg.Confidence, msg.Depth)
		if err := s.n.Ns.JsPublishMsgId(natsdomain.SubjJsPaymentEvents.String(), data, msgId); err != nil {
			s.l.Debug("simulate payment publish error", "error", err.Error())
		}
	}

	depth := s.statusRules().RequiredDepth[method.Network]
	if depth == 0 {
		depth = 1
	}

	time.Sleep(s.config.Testing.TxConfirmDelay)
	publish(domain.CONFIDENCE_CONFIRMED, depth)

	time.Sleep(s.config.Testing.TxSettledDelay)
	publish(domain.CONFIDENCE_SETTLED, 0)
}
