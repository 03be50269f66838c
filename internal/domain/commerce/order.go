package commerce

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/menohub/backend/internal/domain/shared"
)

// OrderKind discriminates the two order families. Goods orders may carry a
// shipping lifecycle; resource orders are download-only.
type OrderKind string

const (
	OrderKindGoods    OrderKind = "goods"
	OrderKindResource OrderKind = "resource"
)

// IsValid checks if the kind is a known OrderKind
func (k OrderKind) IsValid() bool {
	return k == OrderKindGoods || k == OrderKindResource
}

// String returns the string representation of OrderKind
func (k OrderKind) String() string {
	return string(k)
}

// OrderStatus represents the payment/fulfillment status of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusRefunded  OrderStatus = "refunded"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
// for the given order kind. Resource orders only know pending and paid.
func (s OrderStatus) CanTransitionTo(target OrderStatus, kind OrderKind) bool {
	if kind == OrderKindResource {
		return s == OrderStatusPending && target == OrderStatusPaid
	}
	switch s {
	case OrderStatusPending:
		return target == OrderStatusPaid || target == OrderStatusCancelled
	case OrderStatusPaid:
		return target == OrderStatusShipped || target == OrderStatusCancelled || target == OrderStatusRefunded
	case OrderStatusShipped:
		return target == OrderStatusRefunded
	case OrderStatusCancelled, OrderStatusRefunded:
		return false
	}
	return false
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Customer holds the buyer contact captured at checkout. Immutable once set.
type Customer struct {
	Email string
	Name  string
	Phone string
}

// NewCustomer normalizes and validates customer contact data.
// Email is trimmed and lowercased; name must be non-empty after trimming.
func NewCustomer(email, name, phone string) (Customer, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return Customer{}, shared.NewDomainError("EMAIL_REQUIRED", "Email is required")
	}
	if !emailPattern.MatchString(email) {
		return Customer{}, shared.NewDomainError("INVALID_EMAIL", "Email format is invalid")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Customer{}, shared.NewDomainError("NAME_REQUIRED", "Name is required")
	}
	return Customer{
		Email: email,
		Name:  name,
		Phone: strings.TrimSpace(phone),
	}, nil
}

// FulfillmentCredential is the download credential issued after payment.
// DownloadCount is mutated only by the download-serving path, never by
// reconciliation.
type FulfillmentCredential struct {
	Token         string
	ExpiresAt     time.Time
	MaxDownloads  int
	DownloadCount int
}

// Order is a durable record of intent to purchase exactly one catalog item.
// It is the unit of payment-state transition: one cart line item maps to one
// order, and 1..N orders may share a single gateway payment.
type Order struct {
	shared.BaseEntity
	Kind             OrderKind
	OrderNumber      string
	Customer         Customer
	UserID           *uuid.UUID
	Title            string
	AmountKopecks    int64
	Status           OrderStatus
	GatewayPaymentID *string
	ResourceID       *uuid.UUID
	Fulfillment      *FulfillmentCredential
	PaidAt           *time.Time
	ShippedAt        *time.Time
	CancelledAt      *time.Time
	RefundedAt       *time.Time
}

// NewGoodsOrder creates a pending goods order for one purchasable unit.
func NewGoodsOrder(customer Customer, title string, amountKopecks int64, userID *uuid.UUID) (*Order, error) {
	if err := validateNewOrder(title, amountKopecks); err != nil {
		return nil, err
	}
	return &Order{
		BaseEntity:    shared.NewBaseEntity(),
		Kind:          OrderKindGoods,
		Customer:      customer,
		UserID:        userID,
		Title:         title,
		AmountKopecks: amountKopecks,
		Status:        OrderStatusPending,
	}, nil
}

// NewResourceOrder creates a pending purchase order for a single resource.
func NewResourceOrder(customer Customer, resourceID uuid.UUID, title string, amountKopecks int64, userID *uuid.UUID) (*Order, error) {
	if err := validateNewOrder(title, amountKopecks); err != nil {
		return nil, err
	}
	if resourceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_RESOURCE", "Resource ID cannot be empty")
	}
	rid := resourceID
	return &Order{
		BaseEntity:    shared.NewBaseEntity(),
		Kind:          OrderKindResource,
		Customer:      customer,
		UserID:        userID,
		Title:         title,
		AmountKopecks: amountKopecks,
		Status:        OrderStatusPending,
		ResourceID:    &rid,
	}, nil
}

func validateNewOrder(title string, amountKopecks int64) error {
	if strings.TrimSpace(title) == "" {
		return shared.NewDomainError("INVALID_TITLE", "Order title cannot be empty")
	}
	if amountKopecks <= 0 {
		return shared.NewDomainError("INVALID_AMOUNT", "Order amount must be positive")
	}
	return nil
}

// AttachGatewayPayment records the remote payment id on the order. The same
// payment id is shared by every order in a cart checkout.
func (o *Order) AttachGatewayPayment(paymentID string) error {
	if paymentID == "" {
		return shared.NewDomainError("INVALID_PAYMENT_ID", "Gateway payment ID cannot be empty")
	}
	o.GatewayPaymentID = &paymentID
	o.UpdatedAt = time.Now()
	return nil
}

// MarkPaid advances pending -> paid. The persistence layer performs the
// atomic conditional update; this guard exists for in-memory use and tests.
func (o *Order) MarkPaid(paidAt time.Time) error {
	if o.Status == OrderStatusPaid {
		return nil
	}
	if !o.Status.CanTransitionTo(OrderStatusPaid, o.Kind) {
		return shared.ErrInvalidState
	}
	o.Status = OrderStatusPaid
	o.PaidAt = &paidAt
	o.UpdatedAt = time.Now()
	return nil
}

// IssueFulfillment attaches a download credential. At most once per order.
func (o *Order) IssueFulfillment(token string, expiresAt time.Time, maxDownloads int) error {
	if o.Fulfillment != nil {
		return shared.NewDomainError("FULFILLMENT_ALREADY_ISSUED", "Download credential already issued")
	}
	if token == "" {
		return shared.NewDomainError("INVALID_TOKEN", "Download token cannot be empty")
	}
	o.Fulfillment = &FulfillmentCredential{
		Token:        token,
		ExpiresAt:    expiresAt,
		MaxDownloads: maxDownloads,
	}
	o.UpdatedAt = time.Now()
	return nil
}

// Ship advances paid -> shipped. Goods orders only.
func (o *Order) Ship() error {
	if !o.Status.CanTransitionTo(OrderStatusShipped, o.Kind) {
		return shared.ErrInvalidState
	}
	now := time.Now()
	o.Status = OrderStatusShipped
	o.ShippedAt = &now
	o.UpdatedAt = now
	return nil
}

// Cancel marks the order cancelled.
func (o *Order) Cancel() error {
	if !o.Status.CanTransitionTo(OrderStatusCancelled, o.Kind) {
		return shared.ErrInvalidState
	}
	now := time.Now()
	o.Status = OrderStatusCancelled
	o.CancelledAt = &now
	o.UpdatedAt = now
	return nil
}

// Refund marks the order refunded.
func (o *Order) Refund() error {
	if !o.Status.CanTransitionTo(OrderStatusRefunded, o.Kind) {
		return shared.ErrInvalidState
	}
	now := time.Now()
	o.Status = OrderStatusRefunded
	o.RefundedAt = &now
	o.UpdatedAt = now
	return nil
}

// IsPending reports whether the order awaits payment
func (o *Order) IsPending() bool {
	return o.Status == OrderStatusPending
}

// IsPaid reports whether the order has been paid
func (o *Order) IsPaid() bool {
	return o.Status == OrderStatusPaid
}

// CanDownload reports whether the credential still admits a download at the
// given time.
func (o *Order) CanDownload(now time.Time) bool {
	if o.Fulfillment == nil || !o.IsPaid() && o.Status != OrderStatusShipped {
		return false
	}
	if now.After(o.Fulfillment.ExpiresAt) {
		return false
	}
	return o.Fulfillment.DownloadCount < o.Fulfillment.MaxDownloads
}
