package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/menohub/backend/internal/application/checkout"
	"github.com/menohub/backend/internal/domain/commerce"
	"github.com/menohub/backend/internal/domain/shared"
)

func setupCheckoutRouter(orderRepo *MockOrderRepository, resourceRepo *MockResourceRepository, gateway *MockPaymentGateway) *gin.Engine {
	gin.SetMode(gin.TestMode)

	checkoutService := checkout.NewCheckoutService(checkout.CheckoutServiceConfig{
		OrderRepo: orderRepo,
		Gateway:   gateway,
		SiteURL:   "https://shop.example.com",
	})
	purchaseService := checkout.NewPurchaseService(checkout.PurchaseServiceConfig{
		OrderRepo:    orderRepo,
		ResourceRepo: resourceRepo,
		Gateway:      gateway,
		SiteURL:      "https://shop.example.com",
	})
	h := NewCheckoutHandler(checkoutService, purchaseService)

	router := gin.New()
	router.POST("/api/v1/checkout/cart", h.CheckoutCart)
	router.POST("/api/v1/resources/:slug/purchase", h.PurchaseResource)
	return router
}

func postJSON(router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(body)
	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCheckoutCart(t *testing.T) {
	t.Run("creates orders and returns payment url", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		gateway := new(MockPaymentGateway)
		router := setupCheckoutRouter(orderRepo, new(MockResourceRepository), gateway)

		orderRepo.On("CreateBatch", mock.Anything, mock.Anything).Return(nil)
		gateway.On("CreatePayment", mock.Anything, mock.Anything).Return(&commerce.CreatePaymentResponse{
			PaymentURL: "https://yookassa.example/redirect",
			PaymentID:  "pay-123",
		}, nil)
		orderRepo.On("AttachPayment", mock.Anything, mock.Anything, commerce.OrderKindGoods, "pay-123").Return(nil)

		w := postJSON(router, "/api/v1/checkout/cart", gin.H{
			"email": "buyer@example.com",
			"name":  "Buyer",
			"items": []gin.H{
				{"title": "Mug", "unit_price": "1500.00", "quantity": 1},
			},
		})

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Success bool `json:"success"`
			Data    struct {
				PaymentURL    string `json:"payment_url"`
				AmountKopecks int64  `json:"amount_kopecks"`
			} `json:"data"`
		}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, "https://yookassa.example/redirect", resp.Data.PaymentURL)
		assert.Equal(t, int64(150000), resp.Data.AmountKopecks)
		orderRepo.AssertExpectations(t)
	})

	t.Run("rejects empty cart", func(t *testing.T) {
		router := setupCheckoutRouter(new(MockOrderRepository), new(MockResourceRepository), new(MockPaymentGateway))

		w := postJSON(router, "/api/v1/checkout/cart", gin.H{
			"email": "buyer@example.com",
			"name":  "Buyer",
			"items": []gin.H{},
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects invalid buyer fields with per-field details", func(t *testing.T) {
		router := setupCheckoutRouter(new(MockOrderRepository), new(MockResourceRepository), new(MockPaymentGateway))

		w := postJSON(router, "/api/v1/checkout/cart", gin.H{
			"email": "not-an-email",
			"items": []gin.H{
				{"title": "Mug", "unit_price": "1500.00", "quantity": 0},
			},
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_VALIDATION")
		assert.Contains(t, w.Body.String(), "Invalid email format")
		assert.Contains(t, w.Body.String(), "This field is required")
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		router := setupCheckoutRouter(new(MockOrderRepository), new(MockResourceRepository), new(MockPaymentGateway))

		req := httptest.NewRequest("POST", "/api/v1/checkout/cart", bytes.NewBufferString("{not json"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("maps gateway failure to bad gateway", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		gateway := new(MockPaymentGateway)
		router := setupCheckoutRouter(orderRepo, new(MockResourceRepository), gateway)

		orderRepo.On("CreateBatch", mock.Anything, mock.Anything).Return(nil)
		gateway.On("CreatePayment", mock.Anything, mock.Anything).Return(nil, assert.AnError)

		w := postJSON(router, "/api/v1/checkout/cart", gin.H{
			"email": "buyer@example.com",
			"name":  "Buyer",
			"items": []gin.H{
				{"title": "Mug", "unit_price": "1500.00", "quantity": 1},
			},
		})

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_PAYMENT_FAILED")
	})
}

func TestPurchaseResource(t *testing.T) {
	t.Run("creates purchase and returns payment url", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		resourceRepo := new(MockResourceRepository)
		gateway := new(MockPaymentGateway)
		router := setupCheckoutRouter(orderRepo, resourceRepo, gateway)

		resource := &commerce.Resource{
			BaseEntity:    shared.NewBaseEntity(),
			Slug:          "go-guide",
			Title:         "Go Guide",
			IsPaid:        true,
			PriceKopecks:  50000,
			DownloadLimit: 3,
			StorageKey:    "resources/go-guide.pdf",
		}
		resourceRepo.On("FindBySlug", mock.Anything, "go-guide").Return(resource, nil)
		orderRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		gateway.On("CreatePayment", mock.Anything, mock.Anything).Return(&commerce.CreatePaymentResponse{
			PaymentURL: "https://yookassa.example/redirect",
			PaymentID:  "pay-456",
		}, nil)
		orderRepo.On("AttachPayment", mock.Anything, mock.Anything, commerce.OrderKindResource, "pay-456").Return(nil)

		w := postJSON(router, "/api/v1/resources/go-guide/purchase", gin.H{
			"email": "buyer@example.com",
			"name":  "Buyer",
		})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "https://yookassa.example/redirect")
	})

	t.Run("unknown slug returns not found", func(t *testing.T) {
		resourceRepo := new(MockResourceRepository)
		router := setupCheckoutRouter(new(MockOrderRepository), resourceRepo, new(MockPaymentGateway))

		resourceRepo.On("FindBySlug", mock.Anything, "missing").Return(nil, shared.ErrNotFound)

		w := postJSON(router, "/api/v1/resources/missing/purchase", gin.H{
			"email": "buyer@example.com",
			"name":  "Buyer",
		})

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("free resource is not purchasable", func(t *testing.T) {
		resourceRepo := new(MockResourceRepository)
		router := setupCheckoutRouter(new(MockOrderRepository), resourceRepo, new(MockPaymentGateway))

		resourceRepo.On("FindBySlug", mock.Anything, "free-guide").Return(&commerce.Resource{
			BaseEntity: shared.NewBaseEntity(),
			Slug:       "free-guide",
			Title:      "Free Guide",
			IsPaid:     false,
		}, nil)

		w := postJSON(router, "/api/v1/resources/free-guide/purchase", gin.H{
			"email": "buyer@example.com",
			"name":  "Buyer",
		})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "not for sale")
	})
}
