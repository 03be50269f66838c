package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/menohub/backend/internal/domain/commerce"
	"github.com/menohub/backend/internal/infrastructure/telemetry"
)

// ErrPurchaseResourceNotFound is returned when the slug matches no resource
var ErrPurchaseResourceNotFound = errors.New("checkout: resource not found")

// PurchaseService handles the single-resource purchase path: one pending
// purchase record, one remote payment.
type PurchaseService struct {
	orderRepo    commerce.OrderRepository
	resourceRepo commerce.ResourceRepository
	gateway      commerce.PaymentGateway
	siteURL      string
	logger       *zap.Logger
}

// PurchaseServiceConfig holds configuration for PurchaseService
type PurchaseServiceConfig struct {
	OrderRepo    commerce.OrderRepository
	ResourceRepo commerce.ResourceRepository
	Gateway      commerce.PaymentGateway
	SiteURL      string
	Logger       *zap.Logger
}

// NewPurchaseService creates a new PurchaseService
func NewPurchaseService(config PurchaseServiceConfig) *PurchaseService {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PurchaseService{
		orderRepo:    config.OrderRepo,
		resourceRepo: config.ResourceRepo,
		gateway:      config.Gateway,
		siteURL:      config.SiteURL,
		logger:       logger,
	}
}

// PurchaseResource creates a pending purchase for the resource and requests
// payment. If payment creation fails, the purchase record is deleted again
// so retries do not pile up half-finished rows.
func (s *PurchaseService) PurchaseResource(ctx context.Context, req *PurchaseResourceRequest) (*CheckoutResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "checkout", "purchase_resource",
		telemetry.WithAttribute("resource_slug", req.Slug))
	defer span.End()

	resource, err := s.resourceRepo.FindBySlug(ctx, req.Slug)
	if err != nil {
		return nil, errors.Join(ErrPurchaseResourceNotFound, err)
	}
	if err := resource.CheckPurchasable(); err != nil {
		return nil, err
	}

	customer, err := commerce.NewCustomer(req.Email, req.Name, "")
	if err != nil {
		return nil, err
	}

	order, err := commerce.NewResourceOrder(customer, resource.ID, resource.Title, resource.PriceKopecks, req.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to create purchase: %w", err)
	}

	payment, err := s.gateway.CreatePayment(ctx, &commerce.CreatePaymentRequest{
		AmountKopecks: resource.PriceKopecks,
		Description:   fmt.Sprintf("Resource: %s", resource.Title),
		ReturnURL:     s.purchaseReturnURL(req.ReturnURL, req.Slug),
		CustomerEmail: customer.Email,
		Items: []commerce.PaymentItem{{
			Description:   resource.Title,
			Quantity:      1,
			AmountKopecks: resource.PriceKopecks,
		}},
		PrimaryOrderID: order.ID,
		OrderIDs:       []uuid.UUID{order.ID},
		OrderKinds:     []commerce.OrderKind{commerce.OrderKindResource},
		OrderType:      string(commerce.OrderKindResource),
	})
	if err != nil {
		if delErr := s.orderRepo.Delete(ctx, order.ID, commerce.OrderKindResource); delErr != nil {
			s.logger.Error("failed to delete purchase after payment failure",
				zap.String("order_id", order.ID.String()),
				zap.Error(delErr))
		}
		telemetry.RecordError(span, err)
		return nil, errors.Join(ErrCheckoutPaymentFailed, err)
	}

	if payment.PaymentID != "" {
		if err := s.orderRepo.AttachPayment(ctx, order.ID, commerce.OrderKindResource, payment.PaymentID); err != nil {
			s.logger.Warn("failed to attach payment id to purchase",
				zap.String("order_id", order.ID.String()),
				zap.Error(err))
		}
	}

	s.logger.Info("resource purchase created",
		zap.String("resource_slug", req.Slug),
		zap.String("order_number", order.OrderNumber),
		zap.String("payment_id", payment.PaymentID),
		zap.Bool("test", payment.Test))

	return &CheckoutResponse{
		PaymentURL:    payment.PaymentURL,
		PaymentID:     payment.PaymentID,
		OrderIDs:      []uuid.UUID{order.ID},
		OrderNumbers:  []string{order.OrderNumber},
		AmountKopecks: resource.PriceKopecks,
		Test:          payment.Test,
	}, nil
}

func (s *PurchaseService) purchaseReturnURL(requested, slug string) string {
	if requested != "" {
		return requested
	}
	return fmt.Sprintf("%s/resources/%s?purchase=pending", s.siteURL, slug)
}
