package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"andesgo/intake/internal/models"
	"andesgo/intake/internal/pricing"
	"andesgo/intake/internal/store"
	"andesgo/intake/internal/utils"
	"andesgo/intake/internal/validation"
)

// Request id prefixes per kind.
const (
	PrefixStorageBooking = "BDG"
	PrefixMailboxRequest = "STG"
	PrefixShoppingQuote  = "ANX"
)

// AcceptanceListener is notified after a request has been dispatched and
// recorded. Failures are logged and never affect the submitter's response.
type AcceptanceListener interface {
	OnAccepted(ctx context.Context, record *models.RequestRecord) error
}

// IntakeResult is what the pipeline hands back for an accepted request.
type IntakeResult struct {
	Record  *models.RequestRecord
	Outcome *NotificationOutcome // nil for kinds without notifications
	Message string
}

// DispatchStatus reports confirmed when no notifications were due.
func (r *IntakeResult) DispatchStatus() DispatchStatus {
	if r.Outcome == nil {
		return DispatchConfirmed
	}
	return r.Outcome.Status()
}

// QuotePreview is the non-binding quote shown before booking.
type QuotePreview struct {
	Plan  pricing.Plan `json:"plan"`
	Total int64        `json:"total"`
}

// IIntakeService defines the interface for request intake operations.
type IIntakeService interface {
	SubmitStorageBooking(ctx context.Context, booking *models.StorageBooking) (*IntakeResult, error)
	SubmitMailboxRequest(ctx context.Context, req *models.MailboxRequest) (*IntakeResult, error)
	SubmitShoppingQuote(ctx context.Context, req *models.ShoppingQuoteRequest) (*IntakeResult, error)
	PreviewStorageQuote(plan string, hours *int, checkIn, checkOut string) (*QuotePreview, error)
	GetRecord(ctx context.Context, id string) (*models.RequestRecord, error)
	ListSummaries(ctx context.Context) ([]models.RecordSummary, error)
	Rates() pricing.Rates
}

// intakeVariant is the per-kind configuration of the shared pipeline.
type intakeVariant struct {
	kind         models.RequestKind
	prefix       string
	notify       bool
	confirmedMsg string
	pendingMsg   string
	validate     func() error
	quote        func() (*int64, error)
	attach       func(record *models.RequestRecord)
}

// intakeService implements IIntakeService.
type intakeService struct {
	validator       *validation.RequestValidator
	quoter          *pricing.Quoter
	composer        INotificationComposer
	dispatcher      INotificationDispatcher
	store           store.RecordStore
	now             func() time.Time
	listenerTimeout time.Duration
	listeners       []AcceptanceListener
}

// NewIntakeService wires the pipeline. now stamps record creation times and
// listenerTimeout bounds each listener call; zero leaves them unbounded.
func NewIntakeService(
	validator *validation.RequestValidator,
	quoter *pricing.Quoter,
	composer INotificationComposer,
	dispatcher INotificationDispatcher,
	recordStore store.RecordStore,
	now func() time.Time,
	listenerTimeout time.Duration,
	listeners ...AcceptanceListener,
) IIntakeService {
	if now == nil {
		now = time.Now
	}
	return &intakeService{
		validator:       validator,
		quoter:          quoter,
		composer:        composer,
		dispatcher:      dispatcher,
		store:           recordStore,
		now:             now,
		listenerTimeout: listenerTimeout,
		listeners:       listeners,
	}
}

func (s *intakeService) SubmitStorageBooking(ctx context.Context, booking *models.StorageBooking) (*IntakeResult, error) {
	var plan pricing.Plan
	return s.run(ctx, intakeVariant{
		kind:         models.KindStorageBooking,
		prefix:       PrefixStorageBooking,
		confirmedMsg: "Reserva registrada exitosamente",
		validate: func() error {
			if err := s.validator.ValidateStorageBooking(booking); err != nil {
				return err
			}
			plan, _ = pricing.ParsePlan(booking.Plan)
			return nil
		},
		quote: func() (*int64, error) {
			amount, err := s.quoteStay(plan, booking.Hours, booking.CheckIn, booking.CheckOut)
			if err != nil {
				return nil, err
			}
			return &amount, nil
		},
		attach: func(record *models.RequestRecord) {
			normalized := *booking
			normalized.Plan = string(plan)
			record.StorageBooking = &normalized
		},
	})
}

func (s *intakeService) SubmitMailboxRequest(ctx context.Context, req *models.MailboxRequest) (*IntakeResult, error) {
	return s.run(ctx, intakeVariant{
		kind:         models.KindMailboxRequest,
		prefix:       PrefixMailboxRequest,
		notify:       true,
		confirmedMsg: "Solicitud enviada exitosamente",
		pendingMsg:   "Solicitud recibida. Confirmación al cliente pendiente.",
		validate:     func() error { return s.validator.ValidateMailboxRequest(req) },
		attach: func(record *models.RequestRecord) {
			cp := *req
			record.MailboxRequest = &cp
		},
	})
}

func (s *intakeService) SubmitShoppingQuote(ctx context.Context, req *models.ShoppingQuoteRequest) (*IntakeResult, error) {
	return s.run(ctx, intakeVariant{
		kind:         models.KindShoppingQuote,
		prefix:       PrefixShoppingQuote,
		notify:       true,
		confirmedMsg: "Cotización enviada exitosamente",
		pendingMsg:   "Cotización recibida. Confirmación al cliente pendiente.",
		validate:     func() error { return s.validator.ValidateShoppingQuote(req) },
		attach: func(record *models.RequestRecord) {
			cp := *req
			record.ShoppingQuote = &cp
		},
	})
}

// run is the shared pipeline: validate, quote, record construction,
// compose, dispatch, store, then best-effort listeners. Once validation has
// passed it runs to completion even if the caller goes away.
func (s *intakeService) run(ctx context.Context, v intakeVariant) (*IntakeResult, error) {
	if err := v.validate(); err != nil {
		return nil, err
	}

	var amount *int64
	if v.quote != nil {
		a, err := v.quote()
		if err != nil {
			return nil, err
		}
		amount = a
	}

	ctx = context.WithoutCancel(ctx)

	record := &models.RequestRecord{
		ID:        utils.NewRequestID(v.prefix),
		Kind:      v.kind,
		Status:    models.StatusPending,
		CreatedAt: s.now().UTC(),
		Amount:    amount,
	}
	v.attach(record)

	result := &IntakeResult{Record: record, Message: v.confirmedMsg}

	if v.notify {
		msgs, err := s.composer.Compose(ctx, record, amount)
		if err != nil {
			log.Printf("CRITICAL: failed to compose notifications for %s: %v", record.ID, err)
			return nil, fmt.Errorf("failed to compose notifications for %s: %w", record.ID, err)
		}
		outcome, err := s.dispatcher.Dispatch(ctx, record, msgs)
		if err != nil {
			return nil, err
		}
		result.Outcome = outcome
		if outcome.Status() == DispatchPendingConfirmation {
			result.Message = v.pendingMsg
		}
	}

	if err := s.store.Append(ctx, record); err != nil {
		log.Printf("CRITICAL: request %s accepted but could not be recorded: %v", record.ID, err)
		return nil, fmt.Errorf("failed to record request %s: %w", record.ID, err)
	}
	log.Printf("Request %s (%s) accepted", record.ID, record.Kind)

	for _, l := range s.listeners {
		s.notifyListener(ctx, l, record)
	}

	return result, nil
}

func (s *intakeService) notifyListener(ctx context.Context, l AcceptanceListener, record *models.RequestRecord) {
	if s.listenerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.listenerTimeout)
		defer cancel()
	}
	if err := l.OnAccepted(ctx, record); err != nil {
		log.Printf("Acceptance listener %T failed for %s: %v", l, record.ID, err)
	}
}

func (s *intakeService) PreviewStorageQuote(plan string, hours *int, checkIn, checkOut string) (*QuotePreview, error) {
	if err := s.validator.ValidateStay(plan, hours, checkIn, checkOut); err != nil {
		return nil, err
	}
	p, _ := pricing.ParsePlan(plan)
	amount, err := s.quoteStay(p, hours, checkIn, checkOut)
	if err != nil {
		return nil, err
	}
	return &QuotePreview{Plan: p, Total: amount}, nil
}

// quoteStay prices already-validated stay fields. ErrAmountUnavailable is
// reported as a validation failure on check_out.
func (s *intakeService) quoteStay(plan pricing.Plan, hours *int, checkIn, checkOut string) (int64, error) {
	params := pricing.Params{}
	if hours != nil {
		params.Hours = *hours
	}
	params.CheckIn, _ = pricing.ParseDate(checkIn)
	if plan != pricing.PlanHourly {
		params.CheckOut, _ = pricing.ParseDate(checkOut)
	}

	amount, err := s.quoter.Quote(plan, params)
	if err != nil {
		if errors.Is(err, pricing.ErrAmountUnavailable) {
			return 0, &validation.ValidationError{Field: "check_out", Reason: "la estadía debe ser de al menos un día"}
		}
		return 0, fmt.Errorf("failed to quote %s stay: %w", plan, err)
	}
	return amount, nil
}

func (s *intakeService) GetRecord(ctx context.Context, id string) (*models.RequestRecord, error) {
	return s.store.GetByID(ctx, id)
}

func (s *intakeService) ListSummaries(ctx context.Context) ([]models.RecordSummary, error) {
	records, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	summaries := make([]models.RecordSummary, 0, len(records))
	for _, r := range records {
		summaries = append(summaries, r.Summary())
	}
	return summaries, nil
}

func (s *intakeService) Rates() pricing.Rates {
	return s.quoter.Rates()
}
