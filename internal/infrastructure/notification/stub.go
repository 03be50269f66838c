package notification

import (
	"context"

	"go.uber.org/zap"
)

// StubSender logs confirmation messages instead of delivering them. Used
// when no mail transport is configured, typically in development and tests.
type StubSender struct {
	logger *zap.Logger
}

// NewStubSender creates a new StubSender
func NewStubSender(logger *zap.Logger) *StubSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StubSender{logger: logger}
}

// SendPurchaseConfirmation logs the message and reports a warning so the
// caller can expose that nothing was actually delivered.
func (s *StubSender) SendPurchaseConfirmation(_ context.Context, req *ConfirmationRequest) Result {
	titles := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		titles = append(titles, item.Title)
	}

	s.logger.Info("purchase confirmation (stub, not delivered)",
		zap.String("email", req.Email),
		zap.String("order_number", req.OrderNumber),
		zap.Strings("items", titles))

	return Result{
		Success: true,
		Warning: "mail transport not configured, confirmation was logged only",
	}
}

var _ Sender = (*StubSender)(nil)
