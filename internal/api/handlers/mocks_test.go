package handlers_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"andesgo/intake/internal/models"
	"andesgo/intake/internal/pricing"
	"andesgo/intake/internal/services"
)

// --- Mock IntakeService ---
type MockIntakeService struct {
	mock.Mock
}

func (m *MockIntakeService) SubmitStorageBooking(ctx context.Context, booking *models.StorageBooking) (*services.IntakeResult, error) {
	args := m.Called(ctx, booking)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.IntakeResult), args.Error(1)
}

func (m *MockIntakeService) SubmitMailboxRequest(ctx context.Context, req *models.MailboxRequest) (*services.IntakeResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.IntakeResult), args.Error(1)
}

func (m *MockIntakeService) SubmitShoppingQuote(ctx context.Context, req *models.ShoppingQuoteRequest) (*services.IntakeResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.IntakeResult), args.Error(1)
}

func (m *MockIntakeService) PreviewStorageQuote(plan string, hours *int, checkIn, checkOut string) (*services.QuotePreview, error) {
	args := m.Called(plan, hours, checkIn, checkOut)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.QuotePreview), args.Error(1)
}

func (m *MockIntakeService) GetRecord(ctx context.Context, id string) (*models.RequestRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RequestRecord), args.Error(1)
}

func (m *MockIntakeService) ListSummaries(ctx context.Context) ([]models.RecordSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RecordSummary), args.Error(1)
}

func (m *MockIntakeService) Rates() pricing.Rates {
	args := m.Called()
	return args.Get(0).(pricing.Rates)
}

// --- Mock StoreDirectory ---
type MockStoreDirectory struct {
	mock.Mock
}

func (m *MockStoreDirectory) List(limitParam string, present bool) (*services.StoreListing, error) {
	args := m.Called(limitParam, present)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.StoreListing), args.Error(1)
}
