package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"andesgo/intake/internal/models"
	"andesgo/intake/internal/pricing"
	"andesgo/intake/internal/store"
	"andesgo/intake/internal/validation"
)

type recordingListener struct {
	mu      sync.Mutex
	records []*models.RequestRecord
	err     error
}

func (l *recordingListener) OnAccepted(ctx context.Context, record *models.RequestRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, record)
	return l.err
}

type failingStore struct {
	store.RecordStore
}

func (failingStore) Append(context.Context, *models.RequestRecord) error {
	return errors.New("disk full")
}

type intakeFixture struct {
	service  IIntakeService
	sender   *recordingSender
	store    *store.MemoryStore
	listener *recordingListener
}

func newIntakeFixture(sender *recordingSender, listeners ...AcceptanceListener) *intakeFixture {
	cfg := testConfig()
	composer := newTestComposer()
	memory := store.NewMemoryStore()
	listener := &recordingListener{}
	service := NewIntakeService(
		validation.New(1024*1024),
		pricing.NewQuoter(pricing.DefaultRates()),
		composer,
		NewNotificationDispatcher(cfg, sender, composer),
		memory,
		fixedClock,
		cfg.MailSendTimeout,
		append([]AcceptanceListener{listener}, listeners...)...,
	)
	return &intakeFixture{service: service, sender: sender, store: memory, listener: listener}
}

func intPtr(n int) *int { return &n }

func validStorageBooking() *models.StorageBooking {
	return &models.StorageBooking{
		Customer: models.Customer{Name: "Ana", Surname: "Rojas", Phone: "987654321", DocumentID: "AB123", DocumentType: "passport"},
		Plan:     "daily",
		CheckIn:  "2026-03-02",
		CheckOut: "2026-03-09",
	}
}

func TestSubmitStorageBooking(t *testing.T) {
	f := newIntakeFixture(&recordingSender{})

	result, err := f.service.SubmitStorageBooking(context.Background(), validStorageBooking())
	require.NoError(t, err)

	record := result.Record
	assert.True(t, strings.HasPrefix(record.ID, "BDG-"), record.ID)
	assert.Equal(t, models.KindStorageBooking, record.Kind)
	assert.Equal(t, models.StatusPending, record.Status)
	assert.Equal(t, fixedNow, record.CreatedAt)
	require.NotNil(t, record.Amount)
	assert.Equal(t, int64(28000), *record.Amount)
	assert.Nil(t, result.Outcome)
	assert.Equal(t, DispatchConfirmed, result.DispatchStatus())
	assert.Empty(t, f.sender.tags(), "storage bookings send no email")

	stored, err := f.store.GetByID(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, stored.ID)
	require.Len(t, f.listener.records, 1)
}

func TestSubmitStorageBooking_NormalizesLegacyPlan(t *testing.T) {
	f := newIntakeFixture(&recordingSender{})
	booking := &models.StorageBooking{
		Customer: models.Customer{Name: "Ana", Surname: "Rojas", Phone: "987654321", DocumentID: "AB123"},
		Plan:     "0",
		Hours:    intPtr(10),
		CheckIn:  "2026-03-02T10:00",
	}

	result, err := f.service.SubmitStorageBooking(context.Background(), booking)
	require.NoError(t, err)

	assert.Equal(t, "hourly", result.Record.StorageBooking.Plan)
	assert.Equal(t, int64(5000), *result.Record.Amount)
	assert.Equal(t, "0", booking.Plan, "caller's booking is left untouched")
}

func TestSubmitStorageBooking_ValidationError(t *testing.T) {
	f := newIntakeFixture(&recordingSender{})
	booking := validStorageBooking()
	booking.CheckOut = booking.CheckIn

	result, err := f.service.SubmitStorageBooking(context.Background(), booking)

	assert.Nil(t, result)
	var verr *validation.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "check_out", verr.Field)

	all, _ := f.store.ListAll(context.Background())
	assert.Empty(t, all)
	assert.Empty(t, f.listener.records)
}

func TestQuoteStay_AmountUnavailableIsValidationError(t *testing.T) {
	s := &intakeService{quoter: pricing.NewQuoter(pricing.DefaultRates())}

	_, err := s.quoteStay(pricing.PlanDaily, nil, "2026-03-02", "2026-03-02")

	var verr *validation.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "check_out", verr.Field)
}

func TestSubmitMailboxRequest(t *testing.T) {
	f := newIntakeFixture(&recordingSender{})
	req := mailboxRecord().MailboxRequest

	result, err := f.service.SubmitMailboxRequest(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(result.Record.ID, "STG-"))
	assert.Nil(t, result.Record.Amount)
	assert.Equal(t, "Solicitud enviada exitosamente", result.Message)
	assert.Equal(t, DispatchConfirmed, result.DispatchStatus())
	assert.Equal(t, []string{TemplateMailboxOperator, TemplateMailboxCustomer}, f.sender.tags())
	assert.Contains(t, f.sender.sent[0].Subject, result.Record.ID)
	assert.Contains(t, f.sender.sent[1].Subject, result.Record.ID)
}

func TestSubmitShoppingQuote_CustomerPending(t *testing.T) {
	f := newIntakeFixture(&recordingSender{failFor: map[string]error{TemplateShoppingCustomer: errProviderDown}})

	result, err := f.service.SubmitShoppingQuote(context.Background(), shoppingRecord().ShoppingQuote)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(result.Record.ID, "ANX-"))
	assert.Equal(t, DispatchPendingConfirmation, result.DispatchStatus())
	assert.Equal(t, "Cotización recibida. Confirmación al cliente pendiente.", result.Message)
	assert.Equal(t, []string{"No se pudo enviar confirmación al cliente"}, result.Outcome.Warnings())

	_, err = f.store.GetByID(context.Background(), result.Record.ID)
	assert.NoError(t, err, "pending confirmation is still an accepted request")
}

func TestSubmitShoppingQuote_OperatorFailureNotRecorded(t *testing.T) {
	f := newIntakeFixture(&recordingSender{failFor: map[string]error{TemplateShoppingOperator: errProviderDown}})

	result, err := f.service.SubmitShoppingQuote(context.Background(), shoppingRecord().ShoppingQuote)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrCriticalDispatch)
	all, _ := f.store.ListAll(context.Background())
	assert.Empty(t, all)
	assert.Empty(t, f.listener.records)
}

func TestSubmitShoppingQuote_EmptyProductsNeverDispatched(t *testing.T) {
	f := newIntakeFixture(&recordingSender{})
	req := shoppingRecord().ShoppingQuote
	req.Products = nil

	_, err := f.service.SubmitShoppingQuote(context.Background(), req)

	var verr *validation.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "products", verr.Field)
	assert.Empty(t, f.sender.tags())
}

func TestSubmit_ListenerFailureDoesNotFailRequest(t *testing.T) {
	failing := &recordingListener{err: errors.New("broker down")}
	f := newIntakeFixture(&recordingSender{}, failing)

	result, err := f.service.SubmitMailboxRequest(context.Background(), mailboxRecord().MailboxRequest)
	require.NoError(t, err)

	assert.Len(t, failing.records, 1)
	assert.Len(t, f.listener.records, 1)
	assert.Equal(t, result.Record.ID, failing.records[0].ID)
}

func TestSubmitShoppingQuote_StoresTrimmedContact(t *testing.T) {
	sender := &recordingSender{}
	f := newIntakeFixture(sender)
	req := shoppingRecord().ShoppingQuote
	req.Customer.Email = "tomas@example.com\r\n"
	req.Customer.Name = " Tomás "

	result, err := f.service.SubmitShoppingQuote(context.Background(), req)
	require.NoError(t, err)

	stored, err := f.store.GetByID(context.Background(), result.Record.ID)
	require.NoError(t, err)
	assert.Equal(t, "tomas@example.com", stored.ShoppingQuote.Customer.Email)
	assert.Equal(t, "Tomás", stored.ShoppingQuote.Customer.Name)
	require.Len(t, sender.sent, 2)
	assert.Equal(t, "tomas@example.com", sender.sent[0].ReplyTo)
	assert.Equal(t, []string{"tomas@example.com"}, sender.sent[1].To)
}

// stalledListener blocks until its context ends, like a broker that never answers.
type stalledListener struct {
	err error
}

func (l *stalledListener) OnAccepted(ctx context.Context, record *models.RequestRecord) error {
	<-ctx.Done()
	l.err = ctx.Err()
	return l.err
}

func TestSubmit_StalledListenerIsBounded(t *testing.T) {
	cfg := testConfig()
	composer := newTestComposer()
	stalled := &stalledListener{}
	after := &recordingListener{}
	service := NewIntakeService(
		validation.New(0),
		pricing.NewQuoter(pricing.DefaultRates()),
		composer,
		NewNotificationDispatcher(cfg, &recordingSender{}, composer),
		store.NewMemoryStore(),
		fixedClock,
		20*time.Millisecond,
		stalled, after,
	)

	done := make(chan error, 1)
	go func() {
		_, err := service.SubmitMailboxRequest(context.Background(), mailboxRecord().MailboxRequest)
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("submission blocked on a stalled listener")
	}
	assert.ErrorIs(t, stalled.err, context.DeadlineExceeded)
	assert.Len(t, after.records, 1)
}

func TestSubmit_CancelledCallerStillCompletes(t *testing.T) {
	f := newIntakeFixture(&recordingSender{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := f.service.SubmitShoppingQuote(ctx, shoppingRecord().ShoppingQuote)
	require.NoError(t, err)
	assert.Len(t, f.sender.tags(), 2)
	assert.NotEmpty(t, result.Record.ID)
}

func TestSubmit_StoreFailure(t *testing.T) {
	cfg := testConfig()
	composer := newTestComposer()
	service := NewIntakeService(
		validation.New(0),
		pricing.NewQuoter(pricing.DefaultRates()),
		composer,
		NewNotificationDispatcher(cfg, &recordingSender{}, composer),
		failingStore{},
		fixedClock,
		cfg.MailSendTimeout,
	)

	_, err := service.SubmitStorageBooking(context.Background(), validStorageBooking())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestSubmit_DuplicatesCreateIndependentRecords(t *testing.T) {
	f := newIntakeFixture(&recordingSender{})

	first, err := f.service.SubmitStorageBooking(context.Background(), validStorageBooking())
	require.NoError(t, err)
	second, err := f.service.SubmitStorageBooking(context.Background(), validStorageBooking())
	require.NoError(t, err)

	assert.NotEqual(t, first.Record.ID, second.Record.ID)
	summaries, err := f.service.ListSummaries(context.Background())
	require.NoError(t, err)
	assert.Len(t, summaries, 2)
}

func TestListSummariesAndGetRecord(t *testing.T) {
	f := newIntakeFixture(&recordingSender{})

	booking, err := f.service.SubmitStorageBooking(context.Background(), validStorageBooking())
	require.NoError(t, err)
	quote, err := f.service.SubmitShoppingQuote(context.Background(), shoppingRecord().ShoppingQuote)
	require.NoError(t, err)

	summaries, err := f.service.ListSummaries(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, booking.Record.ID, summaries[0].ID)
	assert.Equal(t, "Ana Rojas", summaries[0].CustomerName)
	assert.Equal(t, "daily", summaries[0].Category)
	assert.Equal(t, int64(28000), *summaries[0].Amount)
	assert.Equal(t, quote.Record.ID, summaries[1].ID)
	assert.Equal(t, models.DeliveryHotel, summaries[1].Category)
	assert.Nil(t, summaries[1].Amount)

	got, err := f.service.GetRecord(context.Background(), quote.Record.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tomás", got.ShoppingQuote.Customer.Name)

	_, err = f.service.GetRecord(context.Background(), "ANX-NOPE")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPreviewStorageQuote(t *testing.T) {
	f := newIntakeFixture(&recordingSender{})

	tests := []struct {
		name     string
		plan     string
		hours    *int
		checkIn  string
		checkOut string
		want     int64
		field    string
	}{
		{name: "hourly capped", plan: "hourly", hours: intPtr(10), checkIn: "2026-03-02T10:00", want: 5000},
		{name: "hourly default", plan: "hourly", checkIn: "2026-03-02", want: 1000},
		{name: "daily short", plan: "daily", checkIn: "2026-03-02", checkOut: "2026-03-05", want: 15000},
		{name: "weekly flat", plan: "weekly", checkIn: "2026-03-02", checkOut: "2026-03-04", want: 28000},
		{name: "weekly prorated", plan: "2", checkIn: "2026-03-02", checkOut: "2026-03-12", want: 40000},
		{name: "unknown plan", plan: "monthly", checkIn: "2026-03-02", field: "plan"},
		{name: "reversed dates", plan: "daily", checkIn: "2026-03-05", checkOut: "2026-03-02", field: "check_out"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			preview, err := f.service.PreviewStorageQuote(tt.plan, tt.hours, tt.checkIn, tt.checkOut)
			if tt.field != "" {
				var verr *validation.ValidationError
				require.True(t, errors.As(err, &verr))
				assert.Equal(t, tt.field, verr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, preview.Total)
		})
	}
	assert.Empty(t, f.sender.tags())
}

func TestRates(t *testing.T) {
	f := newIntakeFixture(&recordingSender{})
	assert.Equal(t, pricing.DefaultRates(), f.service.Rates())
}
