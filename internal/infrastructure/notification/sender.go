package notification

import (
	"context"
	"time"
)

// ConfirmationItem is one purchased line in a confirmation message. Download
// fields are set only for items that carry a fulfillment credential.
type ConfirmationItem struct {
	Kind          string
	Title         string
	DownloadToken string
	DownloadURL   string
	ExpiresAt     *time.Time
}

// ConfirmationRequest is one purchase confirmation message. A webhook
// delivery produces at most one of these regardless of how many orders the
// payment covered.
type ConfirmationRequest struct {
	Email       string
	Name        string
	OrderNumber string
	Items       []ConfirmationItem
}

// Result reports the outcome of a send attempt. Delivery failures are
// carried in Error but must never fail the calling operation.
type Result struct {
	Success bool
	Warning string
	Error   error
}

// Sender delivers purchase confirmation messages to customers.
type Sender interface {
	SendPurchaseConfirmation(ctx context.Context, req *ConfirmationRequest) Result
}
