package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/menohub/backend/internal/application/reconcile"
	"github.com/menohub/backend/internal/domain/commerce"
)

// WebhookHandler receives asynchronous payment notifications from YooKassa.
// The endpoint is called by the provider, not by browsers, and carries no
// authentication beyond the metadata correlation set.
type WebhookHandler struct {
	BaseHandler
	webhookService *reconcile.WebhookService
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(webhookService *reconcile.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhookService: webhookService}
}

// paymentWebhookBody is the provider's notification envelope.
type paymentWebhookBody struct {
	Type   string `json:"type"`
	Event  string `json:"event"`
	Object struct {
		ID       string `json:"id"`
		Status   string `json:"status"`
		Paid     bool   `json:"paid"`
		Metadata struct {
			OrderID     string `json:"order_id"`
			AllOrderIDs string `json:"all_order_ids"`
			OrderKinds  string `json:"order_kinds"`
			OrderType   string `json:"order_type"`
		} `json:"metadata"`
	} `json:"object"`
}

// HandlePaymentWebhook godoc
//
//	@ID				handlePaymentWebhook
//	@Summary		Process a payment status notification
//	@Description	Confirms pending orders referenced by the notification metadata and issues download credentials
//	@Tags			webhooks
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	reconcile.WebhookResult
//	@Failure		400	{object}	dto.Response
//	@Router			/webhooks/payment [post]
func (h *WebhookHandler) HandlePaymentWebhook(c *gin.Context) {
	var body paymentWebhookBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BadRequest(c, "Invalid notification body")
		return
	}

	notification := &commerce.PaymentNotification{
		Event:     body.Event,
		PaymentID: body.Object.ID,
		Status:    body.Object.Status,
		Metadata: commerce.PaymentMetadata{
			OrderID:     body.Object.Metadata.OrderID,
			AllOrderIDs: body.Object.Metadata.AllOrderIDs,
			OrderKinds:  body.Object.Metadata.OrderKinds,
			OrderType:   body.Object.Metadata.OrderType,
		},
	}

	result, err := h.webhookService.ProcessNotification(c.Request.Context(), notification)
	if err != nil {
		if errors.Is(err, reconcile.ErrWebhookMissingOrder) {
			h.BadRequest(c, "Notification carries no usable order reference")
			return
		}
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
