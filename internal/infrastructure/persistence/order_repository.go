package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/menohub/backend/internal/domain/commerce"
	"github.com/menohub/backend/internal/domain/shared"
	"github.com/menohub/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormOrderRepository implements commerce.OrderRepository using GORM.
// Goods orders and resource purchases live in separate tables; methods that
// receive no kind probe goods first, then resources, matching the webhook's
// fallback lookup order.
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Create persists a new pending order and assigns its order number.
func (r *GormOrderRepository) Create(ctx context.Context, order *commerce.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.createInTx(tx, order)
	})
}

// CreateBatch persists all orders of a cart checkout in one transaction.
// A failure on any row rolls back every sibling, so no orphan pending
// orders survive a partial cart failure.
func (r *GormOrderRepository) CreateBatch(ctx context.Context, orders []*commerce.Order) error {
	if len(orders) == 0 {
		return shared.ErrInvalidInput
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, order := range orders {
			if err := r.createInTx(tx, order); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *GormOrderRepository) createInTx(tx *gorm.DB, order *commerce.Order) error {
	if order.OrderNumber == "" {
		number, err := r.generateOrderNumber(tx)
		if err != nil {
			return fmt.Errorf("failed to generate order number: %w", err)
		}
		order.OrderNumber = number
	}

	switch order.Kind {
	case commerce.OrderKindGoods:
		var model models.GoodsOrderModel
		model.FromDomain(order)
		return tx.Create(&model).Error
	case commerce.OrderKindResource:
		var model models.ResourcePurchaseModel
		model.FromDomain(order)
		return tx.Create(&model).Error
	default:
		return shared.ErrInvalidInput
	}
}

// FindByID probes both order tables for the given id.
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*commerce.Order, error) {
	order, err := r.FindByIDAndKind(ctx, id, commerce.OrderKindGoods)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	return r.FindByIDAndKind(ctx, id, commerce.OrderKindResource)
}

// FindByIDAndKind looks up an order in the table for its kind.
func (r *GormOrderRepository) FindByIDAndKind(ctx context.Context, id uuid.UUID, kind commerce.OrderKind) (*commerce.Order, error) {
	switch kind {
	case commerce.OrderKindGoods:
		var model models.GoodsOrderModel
		if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, shared.ErrNotFound
			}
			return nil, err
		}
		return model.ToDomain(), nil
	case commerce.OrderKindResource:
		var model models.ResourcePurchaseModel
		if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, shared.ErrNotFound
			}
			return nil, err
		}
		return model.ToDomain(), nil
	default:
		return nil, shared.ErrInvalidInput
	}
}

// FindByDownloadToken resolves a fulfillment token to its order.
func (r *GormOrderRepository) FindByDownloadToken(ctx context.Context, token string) (*commerce.Order, error) {
	if token == "" {
		return nil, shared.ErrInvalidInput
	}

	var goods models.GoodsOrderModel
	err := r.db.WithContext(ctx).First(&goods, "download_token = ?", token).Error
	if err == nil {
		return goods.ToDomain(), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var resource models.ResourcePurchaseModel
	if err := r.db.WithContext(ctx).First(&resource, "download_token = ?", token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return resource.ToDomain(), nil
}

// AttachPayment records the shared gateway payment id on one order.
func (r *GormOrderRepository) AttachPayment(ctx context.Context, id uuid.UUID, kind commerce.OrderKind, paymentID string) error {
	if paymentID == "" {
		return shared.ErrInvalidInput
	}
	result := r.tableFor(ctx, kind).
		Where("id = ?", id).
		Updates(map[string]any{
			"gateway_payment_id": paymentID,
			"updated_at":         time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// TransitionToPaid performs the atomic pending -> paid transition as a
// single conditional UPDATE. Two concurrent calls for the same id race
// safely: exactly one sees RowsAffected=1 and reports WasNoop=false, the
// other finds the row already paid and reports WasNoop=true.
func (r *GormOrderRepository) TransitionToPaid(ctx context.Context, id uuid.UUID, kind commerce.OrderKind, paymentID string, paidAt time.Time) (*commerce.TransitionResult, error) {
	updates := map[string]any{
		"status":     commerce.OrderStatusPaid,
		"paid_at":    paidAt,
		"updated_at": time.Now(),
	}
	if paymentID != "" {
		updates["gateway_payment_id"] = paymentID
	}

	result := r.tableFor(ctx, kind).
		Where("id = ? AND status = ?", id, commerce.OrderStatusPending).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}

	order, err := r.FindByIDAndKind(ctx, id, kind)
	if err != nil {
		return nil, err
	}

	if result.RowsAffected == 1 {
		return &commerce.TransitionResult{WasNoop: false, Order: order}, nil
	}

	// No row matched: the order exists but is no longer pending. An order
	// already past payment is a success-no-op; anything else (cancelled,
	// refunded) must not be silently confirmed.
	switch order.Status {
	case commerce.OrderStatusPaid, commerce.OrderStatusShipped:
		return &commerce.TransitionResult{WasNoop: true, Order: order}, nil
	default:
		return nil, shared.ErrInvalidState
	}
}

// SaveFulfillment persists the issued download credential.
func (r *GormOrderRepository) SaveFulfillment(ctx context.Context, order *commerce.Order) error {
	if order.Fulfillment == nil {
		return shared.ErrInvalidInput
	}
	result := r.tableFor(ctx, order.Kind).
		Where("id = ?", order.ID).
		Updates(map[string]any{
			"download_token":            order.Fulfillment.Token,
			"download_token_expires_at": order.Fulfillment.ExpiresAt,
			"max_downloads":             order.Fulfillment.MaxDownloads,
			"updated_at":                time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// IncrementDownloadCount bumps the download counter atomically. Only the
// download-serving path calls this.
func (r *GormOrderRepository) IncrementDownloadCount(ctx context.Context, id uuid.UUID, kind commerce.OrderKind) error {
	result := r.tableFor(ctx, kind).
		Where("id = ?", id).
		Updates(map[string]any{
			"download_count": gorm.Expr("download_count + 1"),
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes an order. Reserved for the single-purchase compensation
// path after a failed payment creation.
func (r *GormOrderRepository) Delete(ctx context.Context, id uuid.UUID, kind commerce.OrderKind) error {
	var result *gorm.DB
	switch kind {
	case commerce.OrderKindGoods:
		result = r.db.WithContext(ctx).Delete(&models.GoodsOrderModel{}, "id = ?", id)
	case commerce.OrderKindResource:
		result = r.db.WithContext(ctx).Delete(&models.ResourcePurchaseModel{}, "id = ?", id)
	default:
		return shared.ErrInvalidInput
	}
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormOrderRepository) tableFor(ctx context.Context, kind commerce.OrderKind) *gorm.DB {
	if kind == commerce.OrderKindResource {
		return r.db.WithContext(ctx).Model(&models.ResourcePurchaseModel{})
	}
	return r.db.WithContext(ctx).Model(&models.GoodsOrderModel{})
}

// generateOrderNumber produces the next human-facing number in the form
// ORD-<year>-NNNNN, scanning both order tables so the sequence is shared.
func (r *GormOrderRepository) generateOrderNumber(tx *gorm.DB) (string, error) {
	year := time.Now().Year()
	prefix := fmt.Sprintf("ORD-%d-", year)

	highest := int64(0)
	for _, table := range []string{"goods_orders", "resource_purchases"} {
		var last string
		err := tx.Table(table).
			Select("order_number").
			Where("order_number LIKE ?", prefix+"%").
			Order("order_number DESC").
			Limit(1).
			Scan(&last).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", err
		}
		if last == "" {
			continue
		}
		parts := strings.Split(last, "-")
		if len(parts) != 3 {
			continue
		}
		var num int64
		if _, parseErr := fmt.Sscanf(parts[2], "%d", &num); parseErr == nil && num > highest {
			highest = num
		}
	}

	return fmt.Sprintf("%s%05d", prefix, highest+1), nil
}

// Ensure GormOrderRepository implements the domain interface
var _ commerce.OrderRepository = (*GormOrderRepository)(nil)
