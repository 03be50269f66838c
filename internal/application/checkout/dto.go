package checkout

import "github.com/google/uuid"

// CartItemInput is one line of the customer's cart. UnitPrice is a decimal
// string in major currency units ("1500.00"); all arithmetic happens in
// integer kopecks after parsing.
type CartItemInput struct {
	Title     string `json:"title" binding:"required"`
	UnitPrice string `json:"unit_price" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

// CheckoutCartRequest starts payment for a whole cart. An empty Items slice
// binds fine; the service owns the empty-cart rule.
type CheckoutCartRequest struct {
	Email     string          `json:"email" binding:"required,email"`
	Name      string          `json:"name" binding:"required"`
	Phone     string          `json:"phone"`
	Items     []CartItemInput `json:"items" binding:"omitempty,dive"`
	ReturnURL string          `json:"return_url" binding:"omitempty,url"`
	UserID    *uuid.UUID      `json:"-"`
}

// PurchaseResourceRequest starts payment for one downloadable resource.
type PurchaseResourceRequest struct {
	Slug      string     `json:"-"`
	Email     string     `json:"email" binding:"required,email"`
	Name      string     `json:"name" binding:"required"`
	ReturnURL string     `json:"return_url" binding:"omitempty,url"`
	UserID    *uuid.UUID `json:"-"`
}

// CheckoutResponse carries the redirect URL for the single payment covering
// every created order.
type CheckoutResponse struct {
	PaymentURL    string      `json:"payment_url"`
	PaymentID     string      `json:"payment_id,omitempty"`
	OrderIDs      []uuid.UUID `json:"order_ids"`
	OrderNumbers  []string    `json:"order_numbers"`
	AmountKopecks int64       `json:"amount_kopecks"`
	Test          bool        `json:"test,omitempty"`
}
