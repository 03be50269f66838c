package commerce

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/menohub/backend/internal/domain/shared"
)

// PaymentMode is resolved once from configuration, never inferred from
// credential values at request time.
type PaymentMode string

const (
	PaymentModeTest       PaymentMode = "test"
	PaymentModeProduction PaymentMode = "production"
)

// IsValid checks if the mode is a known PaymentMode
func (m PaymentMode) IsValid() bool {
	return m == PaymentModeTest || m == PaymentModeProduction
}

// PaymentItem describes one receipt line on the remote payment.
type PaymentItem struct {
	Description   string
	Quantity      int
	AmountKopecks int64
}

// CreatePaymentRequest asks the gateway for a single remote payment covering
// the whole correlation set.
type CreatePaymentRequest struct {
	AmountKopecks  int64
	Description    string
	ReturnURL      string
	CustomerEmail  string
	Items          []PaymentItem
	PrimaryOrderID uuid.UUID
	OrderIDs       []uuid.UUID
	OrderKinds     []OrderKind
	OrderType      string
}

// Validate checks the request invariants before it reaches the gateway.
func (r *CreatePaymentRequest) Validate() error {
	if r.AmountKopecks <= 0 {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if r.PrimaryOrderID == uuid.Nil {
		return shared.NewDomainError("INVALID_ORDER", "Primary order ID cannot be empty")
	}
	if len(r.OrderIDs) == 0 {
		return shared.NewDomainError("INVALID_ORDER", "Order ID set cannot be empty")
	}
	if len(r.OrderKinds) != len(r.OrderIDs) {
		return shared.NewDomainError("INVALID_ORDER", "Order kinds must match order IDs")
	}
	if r.ReturnURL == "" {
		return shared.NewDomainError("INVALID_RETURN_URL", "Return URL cannot be empty")
	}
	return nil
}

// CreatePaymentResponse carries the redirect URL for the customer.
// PaymentID is empty only on the flag-gated test fallback path.
type CreatePaymentResponse struct {
	PaymentURL string
	PaymentID  string
	Test       bool
}

// PaymentGateway is the port to the remote payment provider.
type PaymentGateway interface {
	// CreatePayment requests a remote payment with the order correlation set
	// embedded as opaque metadata, and returns the customer redirect URL.
	CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*CreatePaymentResponse, error)
	// Mode reports the configured gateway mode.
	Mode() PaymentMode
}

// PaymentMetadata is the opaque correlation payload round-tripped through
// the provider. The webhook recovers the order set from here, not from a
// side table.
type PaymentMetadata struct {
	OrderID     string `json:"order_id"`
	AllOrderIDs string `json:"all_order_ids,omitempty"`
	OrderKinds  string `json:"order_kinds,omitempty"`
	OrderType   string `json:"order_type,omitempty"`
}

// OrderRef is one member of the recovered correlation set. Kind is empty when
// the notification predates kind-carrying metadata; callers then probe both
// order tables.
type OrderRef struct {
	ID   uuid.UUID
	Kind OrderKind
}

// CorrelationSet decodes the order references carried in metadata, falling
// back to the single primary order when all_order_ids is absent.
func (m PaymentMetadata) CorrelationSet() ([]OrderRef, error) {
	primary := strings.TrimSpace(m.OrderID)
	if primary == "" {
		return nil, shared.NewDomainError("MISSING_ORDER_ID", "order_id not found in payment metadata")
	}

	rawIDs := []string{primary}
	if m.AllOrderIDs != "" {
		rawIDs = strings.Split(m.AllOrderIDs, ",")
	}

	var kinds []string
	if m.OrderKinds != "" {
		kinds = strings.Split(m.OrderKinds, ",")
	}

	refs := make([]OrderRef, 0, len(rawIDs))
	for i, raw := range rawIDs {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			return nil, shared.NewDomainError("INVALID_ORDER_ID", "payment metadata contains a malformed order id")
		}
		ref := OrderRef{ID: id}
		if i < len(kinds) {
			kind := OrderKind(strings.TrimSpace(kinds[i]))
			if kind.IsValid() {
				ref.Kind = kind
			}
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// EncodeOrderIDs serializes the correlation set for metadata transport.
func EncodeOrderIDs(ids []uuid.UUID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ",")
}

// EncodeOrderKinds serializes the kind set for metadata transport.
func EncodeOrderKinds(kinds []OrderKind) string {
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = string(k)
	}
	return strings.Join(parts, ",")
}

// PaymentNotification is the provider's asynchronous payment-status event,
// reduced to what reconciliation needs.
type PaymentNotification struct {
	Event     string
	PaymentID string
	Status    string
	Metadata  PaymentMetadata
}

// Succeeded reports whether the notification confirms a completed payment.
// Either the event name or the payment status field may carry the signal.
func (n *PaymentNotification) Succeeded() bool {
	return n.Event == "payment.succeeded" || n.Status == "succeeded"
}
