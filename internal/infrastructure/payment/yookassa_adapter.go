package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/menohub/backend/internal/domain/commerce"
	"github.com/menohub/backend/internal/domain/shared"
)

// YooKassaAdapter implements commerce.PaymentGateway against the YooKassa
// HTTP API. One remote payment covers the whole order correlation set;
// every call carries a fresh idempotency key so retries of OUR requests
// never collide across distinct payment attempts.
type YooKassaAdapter struct {
	config     *YooKassaConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewYooKassaAdapter creates a new YooKassa adapter
func NewYooKassaAdapter(config *YooKassaConfig, logger *zap.Logger) (*YooKassaAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &YooKassaAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}, nil
}

// Mode returns the configured gateway mode
func (a *YooKassaAdapter) Mode() commerce.PaymentMode {
	return a.config.Mode
}

// CreatePayment creates a payment in YooKassa and returns the redirect URL.
// When credentials are absent and the test fallback is enabled, it returns a
// synthetic redirect to the return URL with no payment id.
func (a *YooKassaAdapter) CreatePayment(ctx context.Context, req *commerce.CreatePaymentRequest) (*commerce.CreatePaymentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if !a.config.Configured() {
		if !a.config.TestFallbackEnabled {
			return nil, ErrYooKassaMissingCredentials
		}
		a.logger.Warn("payment credentials not configured, using test fallback redirect",
			zap.String("order_id", req.PrimaryOrderID.String()))
		return &commerce.CreatePaymentResponse{
			PaymentURL: appendQueryFlag(req.ReturnURL, "test=true"),
			PaymentID:  "",
			Test:       true,
		}, nil
	}

	body := a.buildRequest(req)
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payment request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.APIBaseURL+"/payments", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build payment request: %w", err)
	}
	httpReq.SetBasicAuth(a.config.ShopID, a.config.SecretKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotence-Key", uuid.NewString())

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("payment request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read payment response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr yookassaErrorResponse
		if jsonErr := json.Unmarshal(respBody, &apiErr); jsonErr == nil && apiErr.Description != "" {
			a.logger.Error("payment creation rejected",
				zap.Int("status", resp.StatusCode),
				zap.String("code", apiErr.Code),
				zap.String("description", apiErr.Description))
			return nil, shared.NewDomainError("PAYMENT_CREATE_FAILED", apiErr.Description)
		}
		a.logger.Error("payment creation failed",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", respBody))
		return nil, shared.NewDomainError("PAYMENT_CREATE_FAILED", fmt.Sprintf("payment provider returned status %d", resp.StatusCode))
	}

	var created yookassaCreatePaymentResponse
	if err := json.Unmarshal(respBody, &created); err != nil {
		return nil, fmt.Errorf("failed to parse payment response: %w", err)
	}
	if created.Confirmation.ConfirmationURL == "" {
		return nil, shared.NewDomainError("PAYMENT_CREATE_FAILED", "payment provider returned no confirmation URL")
	}

	a.logger.Info("payment created",
		zap.String("payment_id", created.ID),
		zap.String("status", created.Status),
		zap.Bool("test", created.Test))

	return &commerce.CreatePaymentResponse{
		PaymentURL: created.Confirmation.ConfirmationURL,
		PaymentID:  created.ID,
		Test:       created.Test,
	}, nil
}

func (a *YooKassaAdapter) buildRequest(req *commerce.CreatePaymentRequest) *yookassaCreatePaymentRequest {
	metadata := map[string]string{
		"order_id": req.PrimaryOrderID.String(),
	}
	if len(req.OrderIDs) > 1 {
		metadata["all_order_ids"] = commerce.EncodeOrderIDs(req.OrderIDs)
	}
	if len(req.OrderKinds) > 0 {
		metadata["order_kinds"] = commerce.EncodeOrderKinds(req.OrderKinds)
	}
	if req.OrderType != "" {
		metadata["order_type"] = req.OrderType
	}

	body := &yookassaCreatePaymentRequest{
		Amount:  a.amount(req.AmountKopecks),
		Capture: true,
		Confirmation: yookassaConfirmation{
			Type:      "redirect",
			ReturnURL: req.ReturnURL,
		},
		Description: req.Description,
		Metadata:    metadata,
	}

	if req.CustomerEmail != "" && len(req.Items) > 0 {
		receipt := &yookassaReceipt{
			Customer: yookassaCustomer{Email: req.CustomerEmail},
		}
		for _, item := range req.Items {
			quantity := item.Quantity
			if quantity <= 0 {
				quantity = 1
			}
			receipt.Items = append(receipt.Items, yookassaReceiptItem{
				Description:    item.Description,
				Quantity:       fmt.Sprintf("%d", quantity),
				Amount:         a.amount(item.AmountKopecks),
				VATCode:        1,
				PaymentSubject: "commodity",
				PaymentMode:    "full_payment",
			})
		}
		body.Receipt = receipt
	}

	return body
}

// amount renders kopecks as a major-unit string, e.g. 150000 -> "1500.00".
func (a *YooKassaAdapter) amount(kopecks int64) yookassaAmount {
	return yookassaAmount{
		Value:    decimal.New(kopecks, -2).StringFixed(2),
		Currency: a.config.Currency,
	}
}

func appendQueryFlag(rawURL, flag string) string {
	if strings.Contains(rawURL, "?") {
		return rawURL + "&" + flag
	}
	return rawURL + "?" + flag
}

var _ commerce.PaymentGateway = (*YooKassaAdapter)(nil)
