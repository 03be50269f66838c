// Package reconcile turns asynchronous payment notifications into idempotent
// order-state transitions and exactly-once fulfillment side effects.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/menohub/backend/internal/domain/commerce"
	"github.com/menohub/backend/internal/domain/shared"
	"github.com/menohub/backend/internal/infrastructure/notification"
	"github.com/menohub/backend/internal/infrastructure/telemetry"
)

// ErrWebhookMissingOrder is returned when the notification metadata carries
// no usable order reference.
var ErrWebhookMissingOrder = errors.New("reconcile: notification carries no order reference")

// WebhookResult summarizes one processed notification. The counters feed
// the response payload and logs; stale or already-paid references are
// acknowledged, while store failures surface as errors so the provider
// redelivers.
type WebhookResult struct {
	Processed        int `json:"processed"`
	AlreadyProcessed int `json:"already_processed"`
	Skipped          int `json:"skipped"`
}

// WebhookService reconciles payment-status notifications against the order
// store. It is stateless; all idempotency rests on the store's atomic
// conditional transition.
type WebhookService struct {
	orderRepo commerce.OrderRepository
	issuer    *TokenIssuer
	sender    notification.Sender
	siteURL   string
	logger    *zap.Logger
}

// WebhookServiceConfig holds configuration for WebhookService
type WebhookServiceConfig struct {
	OrderRepo commerce.OrderRepository
	Issuer    *TokenIssuer
	Sender    notification.Sender
	SiteURL   string
	Logger    *zap.Logger
}

// NewWebhookService creates a new WebhookService
func NewWebhookService(config WebhookServiceConfig) *WebhookService {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	issuer := config.Issuer
	if issuer == nil {
		issuer = NewTokenIssuer(0, 0)
	}
	return &WebhookService{
		orderRepo: config.OrderRepo,
		issuer:    issuer,
		sender:    config.Sender,
		siteURL:   config.SiteURL,
		logger:    logger,
	}
}

// ProcessNotification applies one payment notification. Duplicate and
// out-of-order deliveries are expected: every order already past pending
// counts as already_processed, unknown or non-confirmable order ids are
// skipped individually, and confirmation-send failures are logged but never
// fail the webhook. Any other store error aborts processing so the provider
// retries the delivery; the conditional transition makes the retry safe.
func (s *WebhookService) ProcessNotification(ctx context.Context, n *commerce.PaymentNotification) (*WebhookResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reconcile", "payment_notification",
		telemetry.WithAttribute("event", n.Event),
		telemetry.WithAttribute("payment_id", n.PaymentID))
	defer span.End()

	result := &WebhookResult{}

	if !n.Succeeded() {
		s.logger.Info("ignoring non-success payment notification",
			zap.String("event", n.Event),
			zap.String("status", n.Status))
		result.Skipped++
		return result, nil
	}

	refs, err := n.Metadata.CorrelationSet()
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, errors.Join(ErrWebhookMissingOrder, err)
	}

	paidAt := time.Now()
	confirmation := &notification.ConfirmationRequest{}

	for _, ref := range refs {
		order, transition, err := s.transition(ctx, ref, n.PaymentID, paidAt)
		if err != nil {
			// Unknown or non-confirmable orders are skipped, not fatal:
			// the provider must not enter a retry storm over one stale id.
			if errors.Is(err, shared.ErrNotFound) || errors.Is(err, shared.ErrInvalidState) {
				s.logger.Warn("skipping order in payment notification",
					zap.String("order_id", ref.ID.String()),
					zap.Error(err))
				result.Skipped++
				continue
			}
			// Anything else is a store failure. The provider must see a
			// non-2xx and redeliver, or the order stays pending forever.
			s.logger.Error("order confirmation failed",
				zap.String("order_id", ref.ID.String()),
				zap.Error(err))
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("confirm order %s: %w", ref.ID, err)
		}

		if transition.WasNoop {
			s.logger.Info("payment notification replayed for already-paid order",
				zap.String("order_id", order.ID.String()),
				zap.String("order_number", order.OrderNumber))
			result.AlreadyProcessed++
			continue
		}

		item := notification.ConfirmationItem{
			Kind:  string(order.Kind),
			Title: order.Title,
		}
		if token, expiresAt, maxDownloads, err := s.issuer.Issue(); err != nil {
			s.logger.Error("failed to issue download token",
				zap.String("order_id", order.ID.String()),
				zap.Error(err))
		} else if err := order.IssueFulfillment(token, expiresAt, maxDownloads); err != nil {
			s.logger.Error("failed to record fulfillment on order",
				zap.String("order_id", order.ID.String()),
				zap.Error(err))
		} else if err := s.orderRepo.SaveFulfillment(ctx, order); err != nil {
			s.logger.Error("failed to persist fulfillment credential",
				zap.String("order_id", order.ID.String()),
				zap.Error(err))
		} else {
			expires := order.Fulfillment.ExpiresAt
			item.DownloadToken = order.Fulfillment.Token
			item.DownloadURL = fmt.Sprintf("%s/api/v1/downloads/%s", s.siteURL, order.Fulfillment.Token)
			item.ExpiresAt = &expires
		}

		// One confirmation batch per webhook delivery, keyed by the first
		// customer encountered in the correlation set.
		if confirmation.Email == "" {
			confirmation.Email = order.Customer.Email
			confirmation.Name = order.Customer.Name
			confirmation.OrderNumber = order.OrderNumber
		}
		confirmation.Items = append(confirmation.Items, item)
		result.Processed++
	}

	s.sendConfirmation(ctx, confirmation)

	telemetry.SetAttributes(span,
		"processed", result.Processed,
		"already_processed", result.AlreadyProcessed,
		"skipped", result.Skipped)
	return result, nil
}

// transition resolves the order's kind when metadata did not carry it, then
// performs the atomic pending -> paid update.
func (s *WebhookService) transition(ctx context.Context, ref commerce.OrderRef, paymentID string, paidAt time.Time) (*commerce.Order, *commerce.TransitionResult, error) {
	kind := ref.Kind
	if kind == "" {
		order, err := s.orderRepo.FindByID(ctx, ref.ID)
		if err != nil {
			return nil, nil, err
		}
		kind = order.Kind
	}

	result, err := s.orderRepo.TransitionToPaid(ctx, ref.ID, kind, paymentID, paidAt)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidState) {
			return nil, nil, fmt.Errorf("order cannot be confirmed from its current status: %w", err)
		}
		return nil, nil, err
	}
	return result.Order, result, nil
}

func (s *WebhookService) sendConfirmation(ctx context.Context, req *notification.ConfirmationRequest) {
	if s.sender == nil || len(req.Items) == 0 {
		return
	}

	res := s.sender.SendPurchaseConfirmation(ctx, req)
	if res.Error != nil {
		// The durable transition already committed; a delivery failure must
		// not fail the webhook or trigger a provider retry.
		s.logger.Error("confirmation message failed to send",
			zap.String("email", req.Email),
			zap.Error(res.Error))
		return
	}
	if res.Warning != "" {
		s.logger.Warn("confirmation message sent with warning",
			zap.String("email", req.Email),
			zap.String("warning", res.Warning))
	}
}
