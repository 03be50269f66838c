package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/menohub/backend/internal/application/checkout"
	"github.com/menohub/backend/internal/interfaces/http/dto"
	"github.com/menohub/backend/internal/interfaces/http/middleware"
)

// CheckoutHandler exposes the checkout endpoints. Both endpoints work for
// anonymous buyers; a session only attributes the orders to a user account.
type CheckoutHandler struct {
	BaseHandler
	checkoutService *checkout.CheckoutService
	purchaseService *checkout.PurchaseService
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(checkoutService *checkout.CheckoutService, purchaseService *checkout.PurchaseService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		purchaseService: purchaseService,
	}
}

// CheckoutCart godoc
//
//	@ID				checkoutCart
//	@Summary		Start payment for a cart
//	@Description	Creates one pending order per cart line and a single payment covering the total
//	@Tags			checkout
//	@Accept			json
//	@Produce		json
//	@Param			request	body		checkout.CheckoutCartRequest	true	"Cart contents and buyer contact"
//	@Success		200		{object}	checkout.CheckoutResponse
//	@Failure		400		{object}	dto.Response
//	@Failure		502		{object}	dto.Response
//	@Router			/checkout/cart [post]
func (h *CheckoutHandler) CheckoutCart(c *gin.Context) {
	var req checkout.CheckoutCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	req.UserID = getUserID(c)

	resp, err := h.checkoutService.CheckoutCart(c.Request.Context(), &req)
	if err != nil {
		h.handleCheckoutError(c, err)
		return
	}
	h.Success(c, resp)
}

// PurchaseResource godoc
//
//	@ID				purchaseResource
//	@Summary		Start payment for a downloadable resource
//	@Tags			checkout
//	@Accept			json
//	@Produce		json
//	@Param			slug	path		string							true	"Resource slug"
//	@Param			request	body		checkout.PurchaseResourceRequest	true	"Buyer contact"
//	@Success		200		{object}	checkout.CheckoutResponse
//	@Failure		404		{object}	dto.Response
//	@Failure		422		{object}	dto.Response
//	@Router			/resources/{slug}/purchase [post]
func (h *CheckoutHandler) PurchaseResource(c *gin.Context) {
	var req checkout.PurchaseResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	req.Slug = c.Param("slug")
	req.UserID = getUserID(c)

	resp, err := h.purchaseService.PurchaseResource(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, checkout.ErrPurchaseResourceNotFound) {
			h.NotFound(c, "Resource not found")
			return
		}
		h.handleCheckoutError(c, err)
		return
	}
	h.Success(c, resp)
}

func (h *CheckoutHandler) handleCheckoutError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, checkout.ErrCheckoutEmptyCart):
		h.BadRequest(c, "Cart is empty")
	case errors.Is(err, checkout.ErrCheckoutInvalidItem):
		h.BadRequest(c, "Cart contains an invalid item")
	case errors.Is(err, checkout.ErrCheckoutPaymentFailed):
		h.Error(c, http.StatusBadGateway, dto.ErrCodePaymentFailed, "Payment provider rejected the payment request")
	default:
		h.HandleError(c, err)
	}
}
