package commerce

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TransitionResult reports the outcome of a pending -> paid transition.
// WasNoop is the hinge for all reconciliation idempotency: only the call
// that actually performed the transition triggers fulfillment side effects.
type TransitionResult struct {
	WasNoop bool
	Order   *Order
}

// OrderRepository is the persistence boundary for both order kinds. The two
// kinds live in separate tables; lookups that carry no kind probe both.
type OrderRepository interface {
	// Create persists a new pending order and assigns its order number.
	Create(ctx context.Context, order *Order) error

	// CreateBatch persists all orders of a cart checkout in one transaction,
	// so a mid-cart failure leaves no orphan siblings.
	CreateBatch(ctx context.Context, orders []*Order) error

	// FindByID probes both order tables for the given id.
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByIDAndKind looks up an order in the table for its kind.
	FindByIDAndKind(ctx context.Context, id uuid.UUID, kind OrderKind) (*Order, error)

	// FindByDownloadToken resolves a fulfillment token to its order.
	FindByDownloadToken(ctx context.Context, token string) (*Order, error)

	// AttachPayment records the shared gateway payment id on one order.
	AttachPayment(ctx context.Context, id uuid.UUID, kind OrderKind, paymentID string) error

	// TransitionToPaid performs the atomic conditional pending -> paid
	// update. Safe to call concurrently and repeatedly for the same id:
	// exactly one caller observes WasNoop=false. An already-paid order is
	// success with WasNoop=true, never an error.
	TransitionToPaid(ctx context.Context, id uuid.UUID, kind OrderKind, paymentID string, paidAt time.Time) (*TransitionResult, error)

	// SaveFulfillment persists the issued download credential.
	SaveFulfillment(ctx context.Context, order *Order) error

	// IncrementDownloadCount bumps the download counter. Called only by the
	// download-serving path.
	IncrementDownloadCount(ctx context.Context, id uuid.UUID, kind OrderKind) error

	// Delete removes an order. Only the single-purchase compensation path
	// after a failed payment creation is allowed to use it.
	Delete(ctx context.Context, id uuid.UUID, kind OrderKind) error
}

// ResourceRepository resolves purchasable resources.
type ResourceRepository interface {
	FindBySlug(ctx context.Context, slug string) (*Resource, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Resource, error)
}
