package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/menohub/backend/internal/domain/commerce"
)

// MockOrderRepository is a testify mock for commerce.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *commerce.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) CreateBatch(ctx context.Context, orders []*commerce.Order) error {
	args := m.Called(ctx, orders)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*commerce.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commerce.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByIDAndKind(ctx context.Context, id uuid.UUID, kind commerce.OrderKind) (*commerce.Order, error) {
	args := m.Called(ctx, id, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commerce.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByDownloadToken(ctx context.Context, token string) (*commerce.Order, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commerce.Order), args.Error(1)
}

func (m *MockOrderRepository) AttachPayment(ctx context.Context, id uuid.UUID, kind commerce.OrderKind, paymentID string) error {
	args := m.Called(ctx, id, kind, paymentID)
	return args.Error(0)
}

func (m *MockOrderRepository) TransitionToPaid(ctx context.Context, id uuid.UUID, kind commerce.OrderKind, paymentID string, paidAt time.Time) (*commerce.TransitionResult, error) {
	args := m.Called(ctx, id, kind, paymentID, paidAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commerce.TransitionResult), args.Error(1)
}

func (m *MockOrderRepository) SaveFulfillment(ctx context.Context, order *commerce.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) IncrementDownloadCount(ctx context.Context, id uuid.UUID, kind commerce.OrderKind) error {
	args := m.Called(ctx, id, kind)
	return args.Error(0)
}

func (m *MockOrderRepository) Delete(ctx context.Context, id uuid.UUID, kind commerce.OrderKind) error {
	args := m.Called(ctx, id, kind)
	return args.Error(0)
}

// MockResourceRepository is a testify mock for commerce.ResourceRepository
type MockResourceRepository struct {
	mock.Mock
}

func (m *MockResourceRepository) FindBySlug(ctx context.Context, slug string) (*commerce.Resource, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commerce.Resource), args.Error(1)
}

func (m *MockResourceRepository) FindByID(ctx context.Context, id uuid.UUID) (*commerce.Resource, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commerce.Resource), args.Error(1)
}

// MockPaymentGateway is a testify mock for commerce.PaymentGateway
type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) CreatePayment(ctx context.Context, req *commerce.CreatePaymentRequest) (*commerce.CreatePaymentResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commerce.CreatePaymentResponse), args.Error(1)
}

func (m *MockPaymentGateway) Mode() commerce.PaymentMode {
	args := m.Called()
	return args.Get(0).(commerce.PaymentMode)
}
