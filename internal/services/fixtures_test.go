package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"andesgo/intake/internal/config"
	"andesgo/intake/internal/email"
	"andesgo/intake/internal/models"
)

// pngSignature is the base64 of the 8-byte PNG header.
const pngSignature = "iVBORw0KGgo="

var fixedNow = time.Date(2026, time.March, 2, 17, 5, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func testConfig() *config.Config {
	return &config.Config{
		AppName:             "AndesGO",
		MailFromAddress:     "AndesGO <noreply@andesgo.cl>",
		OperatorEmail:       "ops@andesgo.cl",
		ContactEmail:        "contacto@andesgo.com",
		TemplateLocale:      "es-CL",
		MailSendTimeout:     time.Second,
		OperatorSendRetries: 0,
		OperatorRetryDelay:  time.Millisecond,
	}
}

func mailboxRecord() *models.RequestRecord {
	return &models.RequestRecord{
		ID:        "STG-0000000001",
		Kind:      models.KindMailboxRequest,
		Status:    models.StatusPending,
		CreatedAt: fixedNow,
		MailboxRequest: &models.MailboxRequest{
			Customer: models.Customer{
				Name:        "Lucía",
				Surname:     "Pérez",
				Email:       "lucia@example.com",
				Phone:       "1155551234",
				CountryCode: "+54",
				DocumentID:  "30111222",
			},
			Arrival: models.Arrival{Option: models.ArrivalSpecificDate, Date: "2026-03-10"},
			Items: []models.PackageItem{
				{Name: "Zapatillas", Store: "Falabella", TrackingCode: "TRK1", Carrier: "Chilexpress"},
				{Name: "Notebook", Store: "Paris", Image: &models.Attachment{Data: "data:image/png;base64," + pngSignature}},
			},
			Comments: "Llego de noche",
		},
	}
}

func shoppingRecord() *models.RequestRecord {
	return &models.RequestRecord{
		ID:        "ANX-0000000002",
		Kind:      models.KindShoppingQuote,
		Status:    models.StatusPending,
		CreatedAt: fixedNow,
		ShoppingQuote: &models.ShoppingQuoteRequest{
			Customer: models.Customer{Name: "Tomás", Email: "tomas@example.com", Phone: "1144443333", CountryCode: "+54"},
			Arrival:  models.Arrival{Option: models.ArrivalOneWeek},
			Delivery: models.Delivery{
				Method: models.DeliveryHotel,
				Hotel:  &models.HotelDetails{Commune: "Providencia", Address: "Av. Providencia 1234", HotelName: "Hotel Andes"},
			},
			Products: []models.ProductItem{
				{Type: models.ProductLink, URL: "https://www.falabella.com/p/123", Name: "iPhone 15", Quantity: 1, Color: "negro"},
				{Type: models.ProductSearch, Category: "Notebook", Brand: "Lenovo", Model: "ThinkPad", Quantity: 2},
			},
		},
	}
}

func storageRecord() *models.RequestRecord {
	hours := 3
	amount := int64(3000)
	return &models.RequestRecord{
		ID:        "BDG-0000000003",
		Kind:      models.KindStorageBooking,
		Status:    models.StatusPending,
		CreatedAt: fixedNow,
		Amount:    &amount,
		StorageBooking: &models.StorageBooking{
			Customer: models.Customer{Name: "Ana", Surname: "Rojas", Phone: "987654321", DocumentID: "AB123"},
			Plan:     "hourly",
			Hours:    &hours,
			CheckIn:  "2026-03-02T10:00",
		},
	}
}

// recordingSender records every message in call order. failFor maps a
// message tag to the error returned for it.
type recordingSender struct {
	mu      sync.Mutex
	sent    []*email.Message
	failFor map[string]error
	delay   time.Duration
}

func (s *recordingSender) Send(ctx context.Context, msg *email.Message) (string, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	if err := s.failFor[msg.Tag]; err != nil {
		return "", err
	}
	return "msg-" + msg.Tag, nil
}

func (s *recordingSender) tags() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	tags := make([]string, 0, len(s.sent))
	for _, m := range s.sent {
		tags = append(tags, m.Tag)
	}
	return tags
}

var errProviderDown = errors.New("provider unavailable")

// MockEmailTemplateService is a mock for IEmailTemplateService.
type MockEmailTemplateService struct {
	mock.Mock
}

func (m *MockEmailTemplateService) GetTemplate(ctx context.Context, templateID, locale string) (*models.EmailTemplate, error) {
	args := m.Called(ctx, templateID, locale)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EmailTemplate), args.Error(1)
}

func (m *MockEmailTemplateService) SaveTemplate(ctx context.Context, template *models.EmailTemplate) error {
	args := m.Called(ctx, template)
	return args.Error(0)
}

func (m *MockEmailTemplateService) DeleteTemplate(ctx context.Context, templateID, locale string) error {
	args := m.Called(ctx, templateID, locale)
	return args.Error(0)
}

func newTestComposer() INotificationComposer {
	return NewNotificationComposer(testConfig(), NewEmailTemplateService(nil), fixedClock)
}
