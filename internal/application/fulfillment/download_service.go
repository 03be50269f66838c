// Package fulfillment serves issued download credentials and order status
// queries.
package fulfillment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/menohub/backend/internal/domain/commerce"
	"github.com/menohub/backend/internal/infrastructure/storage"
	"github.com/menohub/backend/internal/infrastructure/telemetry"
)

var (
	// ErrDownloadNotFound is returned when the token matches no order
	ErrDownloadNotFound = errors.New("fulfillment: download token not found")
	// ErrDownloadExpired is returned when the credential has expired
	ErrDownloadExpired = errors.New("fulfillment: download token expired")
	// ErrDownloadLimitReached is returned when the download ceiling is hit
	ErrDownloadLimitReached = errors.New("fulfillment: download limit reached")
	// ErrDownloadNoFile is returned when the order has no stored file
	ErrDownloadNoFile = errors.New("fulfillment: no downloadable file for this order")
)

const downloadURLTTL = 15 * time.Minute

// DownloadResult is a granted download.
type DownloadResult struct {
	URL       string
	ExpiresAt time.Time
	Title     string
	Remaining int
}

// DownloadService resolves fulfillment tokens to short-lived storage URLs
// and accounts for each served download.
type DownloadService struct {
	orderRepo    commerce.OrderRepository
	resourceRepo commerce.ResourceRepository
	files        storage.FileStorage
	logger       *zap.Logger
}

// DownloadServiceConfig holds configuration for DownloadService
type DownloadServiceConfig struct {
	OrderRepo    commerce.OrderRepository
	ResourceRepo commerce.ResourceRepository
	Files        storage.FileStorage
	Logger       *zap.Logger
}

// NewDownloadService creates a new DownloadService
func NewDownloadService(config DownloadServiceConfig) *DownloadService {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DownloadService{
		orderRepo:    config.OrderRepo,
		resourceRepo: config.ResourceRepo,
		files:        config.Files,
		logger:       logger,
	}
}

// ServeDownload validates the token, counts the download, and returns a
// short-lived URL for the stored file.
func (s *DownloadService) ServeDownload(ctx context.Context, token string) (*DownloadResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "fulfillment", "serve_download")
	defer span.End()

	order, err := s.orderRepo.FindByDownloadToken(ctx, token)
	if err != nil {
		return nil, errors.Join(ErrDownloadNotFound, err)
	}

	now := time.Now()
	if !order.CanDownload(now) {
		if order.Fulfillment != nil && now.After(order.Fulfillment.ExpiresAt) {
			return nil, ErrDownloadExpired
		}
		return nil, ErrDownloadLimitReached
	}

	storageKey, err := s.storageKey(ctx, order)
	if err != nil {
		return nil, err
	}

	url, expiresAt, err := s.files.GenerateDownloadURL(ctx, storageKey, downloadURLTTL)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.orderRepo.IncrementDownloadCount(ctx, order.ID, order.Kind); err != nil {
		// The URL is already granted; losing one count beats denying a
		// legitimate download.
		s.logger.Warn("failed to record download",
			zap.String("order_id", order.ID.String()),
			zap.Error(err))
	}

	remaining := order.Fulfillment.MaxDownloads - order.Fulfillment.DownloadCount - 1
	if remaining < 0 {
		remaining = 0
	}

	s.logger.Info("download served",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.Int("remaining", remaining))

	return &DownloadResult{
		URL:       url,
		ExpiresAt: expiresAt,
		Title:     order.Title,
		Remaining: remaining,
	}, nil
}

// GetOrderStatus returns the customer-visible status of one order.
func (s *DownloadService) GetOrderStatus(ctx context.Context, id uuid.UUID) (*commerce.Order, error) {
	return s.orderRepo.FindByID(ctx, id)
}

func (s *DownloadService) storageKey(ctx context.Context, order *commerce.Order) (string, error) {
	if order.Kind != commerce.OrderKindResource || order.ResourceID == nil {
		// Goods orders carry a credential for the confirmation message but
		// have no stored file behind them.
		return "", ErrDownloadNoFile
	}
	resource, err := s.resourceRepo.FindByID(ctx, *order.ResourceID)
	if err != nil {
		return "", errors.Join(ErrDownloadNoFile, err)
	}
	if resource.StorageKey == "" {
		return "", ErrDownloadNoFile
	}
	return resource.StorageKey, nil
}
