// Package checkout turns carts and single-resource purchases into pending
// orders covered by one remote payment.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/menohub/backend/internal/domain/commerce"
	"github.com/menohub/backend/internal/infrastructure/telemetry"
)

var (
	// ErrCheckoutEmptyCart is returned when the cart has no items
	ErrCheckoutEmptyCart = errors.New("checkout: cart is empty")
	// ErrCheckoutInvalidItem is returned when a cart line is malformed
	ErrCheckoutInvalidItem = errors.New("checkout: invalid cart item")
	// ErrCheckoutPaymentFailed is returned when the gateway rejects the payment
	ErrCheckoutPaymentFailed = errors.New("checkout: payment creation failed")
)

// CheckoutService creates one goods order per cart line and a single remote
// payment covering all of them.
type CheckoutService struct {
	orderRepo commerce.OrderRepository
	gateway   commerce.PaymentGateway
	siteURL   string
	logger    *zap.Logger
}

// CheckoutServiceConfig holds configuration for CheckoutService
type CheckoutServiceConfig struct {
	OrderRepo commerce.OrderRepository
	Gateway   commerce.PaymentGateway
	SiteURL   string
	Logger    *zap.Logger
}

// NewCheckoutService creates a new CheckoutService
func NewCheckoutService(config CheckoutServiceConfig) *CheckoutService {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckoutService{
		orderRepo: config.OrderRepo,
		gateway:   config.Gateway,
		siteURL:   strings.TrimRight(config.SiteURL, "/"),
		logger:    logger,
	}
}

// CheckoutCart creates pending orders for every cart line inside one
// transaction, then requests a single payment for the total. Orders created
// here stay pending if the customer abandons the redirect; reconciliation
// only ever confirms them, never invents them.
func (s *CheckoutService) CheckoutCart(ctx context.Context, req *CheckoutCartRequest) (*CheckoutResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "checkout", "cart")
	defer span.End()

	if len(req.Items) == 0 {
		return nil, ErrCheckoutEmptyCart
	}

	customer, err := commerce.NewCustomer(req.Email, req.Name, req.Phone)
	if err != nil {
		return nil, err
	}

	orders := make([]*commerce.Order, 0, len(req.Items))
	items := make([]commerce.PaymentItem, 0, len(req.Items))
	var total int64
	for _, item := range req.Items {
		amount, err := lineAmountKopecks(item)
		if err != nil {
			return nil, err
		}

		title := item.Title
		if item.Quantity > 1 {
			title = fmt.Sprintf("%s x%d", item.Title, item.Quantity)
		}

		order, err := commerce.NewGoodsOrder(customer, title, amount, req.UserID)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
		items = append(items, commerce.PaymentItem{
			Description:   title,
			Quantity:      1,
			AmountKopecks: amount,
		})
		total += amount
	}

	if err := s.orderRepo.CreateBatch(ctx, orders); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to create orders: %w", err)
	}

	orderIDs := make([]uuid.UUID, len(orders))
	orderKinds := make([]commerce.OrderKind, len(orders))
	orderNumbers := make([]string, len(orders))
	for i, order := range orders {
		orderIDs[i] = order.ID
		orderKinds[i] = order.Kind
		orderNumbers[i] = order.OrderNumber
	}

	payment, err := s.gateway.CreatePayment(ctx, &commerce.CreatePaymentRequest{
		AmountKopecks:  total,
		Description:    fmt.Sprintf("Order %s", orderNumbers[0]),
		ReturnURL:      s.returnURL(req.ReturnURL),
		CustomerEmail:  customer.Email,
		Items:          items,
		PrimaryOrderID: orderIDs[0],
		OrderIDs:       orderIDs,
		OrderKinds:     orderKinds,
		OrderType:      string(commerce.OrderKindGoods),
	})
	if err != nil {
		// The pending orders stay behind; they are never confirmed without
		// a successful payment notification.
		s.logger.Error("cart payment creation failed",
			zap.Strings("order_numbers", orderNumbers),
			zap.Error(err))
		telemetry.RecordError(span, err)
		return nil, errors.Join(ErrCheckoutPaymentFailed, err)
	}

	if payment.PaymentID != "" {
		for i, order := range orders {
			if err := s.orderRepo.AttachPayment(ctx, order.ID, orderKinds[i], payment.PaymentID); err != nil {
				s.logger.Warn("failed to attach payment id to order",
					zap.String("order_id", order.ID.String()),
					zap.Error(err))
			}
		}
	}

	s.logger.Info("cart checkout created",
		zap.Int("orders", len(orders)),
		zap.Int64("amount_kopecks", total),
		zap.String("payment_id", payment.PaymentID),
		zap.Bool("test", payment.Test))
	telemetry.SetAttributes(span,
		"orders_count", len(orders),
		"amount_kopecks", total)

	return &CheckoutResponse{
		PaymentURL:    payment.PaymentURL,
		PaymentID:     payment.PaymentID,
		OrderIDs:      orderIDs,
		OrderNumbers:  orderNumbers,
		AmountKopecks: total,
		Test:          payment.Test,
	}, nil
}

func (s *CheckoutService) returnURL(requested string) string {
	if requested != "" {
		return requested
	}
	return s.siteURL + "/orders/thanks"
}

// lineAmountKopecks converts one cart line to an integer kopeck amount:
// round(unitPrice * quantity * 100). The whole line is computed in decimal
// and rounded once at the end, so float drift never reaches money and
// sub-kopeck unit prices do not lose the fraction per unit.
func lineAmountKopecks(item CartItemInput) (int64, error) {
	if strings.TrimSpace(item.Title) == "" || item.Quantity <= 0 {
		return 0, ErrCheckoutInvalidItem
	}
	price, err := decimal.NewFromString(strings.TrimSpace(item.UnitPrice))
	if err != nil || !price.IsPositive() {
		return 0, ErrCheckoutInvalidItem
	}
	total := price.
		Mul(decimal.NewFromInt(int64(item.Quantity))).
		Mul(decimal.NewFromInt(100)).
		Round(0).IntPart()
	if total <= 0 {
		return 0, ErrCheckoutInvalidItem
	}
	return total, nil
}
