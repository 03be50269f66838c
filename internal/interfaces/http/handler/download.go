package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/menohub/backend/internal/application/fulfillment"
	"github.com/menohub/backend/internal/interfaces/http/dto"
)

// DownloadHandler serves fulfillment downloads and order status lookups.
type DownloadHandler struct {
	BaseHandler
	downloadService *fulfillment.DownloadService
}

// NewDownloadHandler creates a new DownloadHandler
func NewDownloadHandler(downloadService *fulfillment.DownloadService) *DownloadHandler {
	return &DownloadHandler{downloadService: downloadService}
}

// OrderStatusResponse is the public view of an order's progress.
type OrderStatusResponse struct {
	ID          uuid.UUID  `json:"id"`
	OrderNumber string     `json:"order_number"`
	Kind        string     `json:"kind"`
	Title       string     `json:"title"`
	Status      string     `json:"status"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
}

// ServeDownload godoc
//
//	@ID				serveDownload
//	@Summary		Redeem a download token
//	@Description	Redirects to a short-lived storage URL for the purchased file
//	@Tags			downloads
//	@Produce		json
//	@Param			token	path	string	true	"Download token"
//	@Success		302
//	@Failure		404	{object}	dto.Response
//	@Failure		410	{object}	dto.Response
//	@Router			/downloads/{token} [get]
func (h *DownloadHandler) ServeDownload(c *gin.Context) {
	token := c.Param("token")

	result, err := h.downloadService.ServeDownload(c.Request.Context(), token)
	if err != nil {
		h.handleDownloadError(c, err)
		return
	}
	c.Redirect(http.StatusFound, result.URL)
}

// GetOrderStatus godoc
//
//	@ID				getOrderStatus
//	@Summary		Look up the status of an order
//	@Tags			orders
//	@Produce		json
//	@Param			id	path		string	true	"Order ID"
//	@Success		200	{object}	OrderStatusResponse
//	@Failure		404	{object}	dto.Response
//	@Router			/orders/{id}/status [get]
func (h *DownloadHandler) GetOrderStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	order, err := h.downloadService.GetOrderStatus(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, OrderStatusResponse{
		ID:          order.ID,
		OrderNumber: order.OrderNumber,
		Kind:        order.Kind.String(),
		Title:       order.Title,
		Status:      order.Status.String(),
		PaidAt:      order.PaidAt,
	})
}

func (h *DownloadHandler) handleDownloadError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, fulfillment.ErrDownloadNotFound), errors.Is(err, fulfillment.ErrDownloadNoFile):
		h.NotFound(c, "Download not found")
	case errors.Is(err, fulfillment.ErrDownloadExpired):
		h.Error(c, http.StatusGone, dto.ErrCodeDownloadExpired, "Download link has expired")
	case errors.Is(err, fulfillment.ErrDownloadLimitReached):
		h.Error(c, http.StatusForbidden, dto.ErrCodeDownloadLimit, "Download limit reached")
	default:
		h.HandleError(c, err)
	}
}
