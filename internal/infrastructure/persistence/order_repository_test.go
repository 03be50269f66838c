package persistence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/menohub/backend/internal/domain/commerce"
	"github.com/menohub/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupOrderTestDB creates an in-memory SQLite database for testing
func setupOrderTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// A pooled :memory: connection opens a fresh empty database, so pin
	// everything to one connection.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.Exec(`
		CREATE TABLE goods_orders (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			order_number TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL,
			name TEXT NOT NULL,
			phone TEXT,
			user_id TEXT,
			title TEXT NOT NULL,
			amount_kopecks INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			gateway_payment_id TEXT,
			download_token TEXT UNIQUE,
			download_token_expires_at DATETIME,
			max_downloads INTEGER NOT NULL DEFAULT 3,
			download_count INTEGER NOT NULL DEFAULT 0,
			paid_at DATETIME,
			shipped_at DATETIME,
			cancelled_at DATETIME,
			refunded_at DATETIME
		)
	`).Error
	require.NoError(t, err)

	err = db.Exec(`
		CREATE TABLE resource_purchases (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			order_number TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL,
			name TEXT NOT NULL,
			user_id TEXT,
			resource_id TEXT NOT NULL,
			title TEXT NOT NULL,
			amount_kopecks INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			gateway_payment_id TEXT,
			download_token TEXT UNIQUE,
			download_token_expires_at DATETIME,
			max_downloads INTEGER NOT NULL DEFAULT 3,
			download_count INTEGER NOT NULL DEFAULT 0,
			paid_at DATETIME
		)
	`).Error
	require.NoError(t, err)

	return db
}

func testCustomer(t *testing.T) commerce.Customer {
	customer, err := commerce.NewCustomer("buyer@example.com", "Test Buyer", "")
	require.NoError(t, err)
	return customer
}

func createGoodsOrder(t *testing.T, repo *GormOrderRepository) *commerce.Order {
	order, err := commerce.NewGoodsOrder(testCustomer(t), "Handmade mug", 150000, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), order))
	return order
}

func createResourceOrder(t *testing.T, repo *GormOrderRepository) *commerce.Order {
	order, err := commerce.NewResourceOrder(testCustomer(t), uuid.New(), "Pattern PDF", 49900, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), order))
	return order
}

func TestGormOrderRepository_Create(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewGormOrderRepository(db)

	t.Run("assigns order number on create", func(t *testing.T) {
		order := createGoodsOrder(t, repo)
		assert.Regexp(t, `^ORD-\d{4}-\d{5}$`, order.OrderNumber)

		found, err := repo.FindByIDAndKind(context.Background(), order.ID, commerce.OrderKindGoods)
		require.NoError(t, err)
		assert.Equal(t, order.OrderNumber, found.OrderNumber)
		assert.Equal(t, commerce.OrderStatusPending, found.Status)
		assert.Equal(t, int64(150000), found.AmountKopecks)
	})

	t.Run("order numbers sequence across both tables", func(t *testing.T) {
		goods := createGoodsOrder(t, repo)
		resource := createResourceOrder(t, repo)
		assert.NotEqual(t, goods.OrderNumber, resource.OrderNumber)
	})
}

func TestGormOrderRepository_CreateBatch(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewGormOrderRepository(db)

	t.Run("creates all orders", func(t *testing.T) {
		first, err := commerce.NewGoodsOrder(testCustomer(t), "Mug", 100000, nil)
		require.NoError(t, err)
		second, err := commerce.NewGoodsOrder(testCustomer(t), "Plate", 200000, nil)
		require.NoError(t, err)

		require.NoError(t, repo.CreateBatch(context.Background(), []*commerce.Order{first, second}))

		var count int64
		require.NoError(t, db.Table("goods_orders").Count(&count).Error)
		assert.Equal(t, int64(2), count)
		assert.NotEqual(t, first.OrderNumber, second.OrderNumber)
	})

	t.Run("rolls back every row on failure", func(t *testing.T) {
		db := setupOrderTestDB(t)
		repo := NewGormOrderRepository(db)

		existing := createGoodsOrder(t, repo)

		ok, err := commerce.NewGoodsOrder(testCustomer(t), "Bowl", 50000, nil)
		require.NoError(t, err)
		dup, err := commerce.NewGoodsOrder(testCustomer(t), "Vase", 60000, nil)
		require.NoError(t, err)
		dup.OrderNumber = existing.OrderNumber

		err = repo.CreateBatch(context.Background(), []*commerce.Order{ok, dup})
		require.Error(t, err)

		var count int64
		require.NoError(t, db.Table("goods_orders").Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("rejects empty batch", func(t *testing.T) {
		err := repo.CreateBatch(context.Background(), nil)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestGormOrderRepository_FindByID(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewGormOrderRepository(db)

	t.Run("finds goods order without kind", func(t *testing.T) {
		order := createGoodsOrder(t, repo)
		found, err := repo.FindByID(context.Background(), order.ID)
		require.NoError(t, err)
		assert.Equal(t, commerce.OrderKindGoods, found.Kind)
	})

	t.Run("falls through to resource purchases", func(t *testing.T) {
		order := createResourceOrder(t, repo)
		found, err := repo.FindByID(context.Background(), order.ID)
		require.NoError(t, err)
		assert.Equal(t, commerce.OrderKindResource, found.Kind)
		require.NotNil(t, found.ResourceID)
	})

	t.Run("returns not found for unknown id", func(t *testing.T) {
		_, err := repo.FindByID(context.Background(), uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormOrderRepository_TransitionToPaid(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewGormOrderRepository(db)

	t.Run("first transition succeeds", func(t *testing.T) {
		order := createGoodsOrder(t, repo)
		paidAt := time.Now().UTC().Truncate(time.Second)

		result, err := repo.TransitionToPaid(context.Background(), order.ID, commerce.OrderKindGoods, "pay-001", paidAt)
		require.NoError(t, err)
		assert.False(t, result.WasNoop)
		assert.Equal(t, commerce.OrderStatusPaid, result.Order.Status)
		require.NotNil(t, result.Order.GatewayPaymentID)
		assert.Equal(t, "pay-001", *result.Order.GatewayPaymentID)
		require.NotNil(t, result.Order.PaidAt)
	})

	t.Run("replayed notification is a noop and keeps paid_at", func(t *testing.T) {
		order := createResourceOrder(t, repo)
		firstPaidAt := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)

		first, err := repo.TransitionToPaid(context.Background(), order.ID, commerce.OrderKindResource, "pay-002", firstPaidAt)
		require.NoError(t, err)
		require.False(t, first.WasNoop)

		second, err := repo.TransitionToPaid(context.Background(), order.ID, commerce.OrderKindResource, "pay-002", time.Now().UTC())
		require.NoError(t, err)
		assert.True(t, second.WasNoop)
		require.NotNil(t, second.Order.PaidAt)
		assert.Equal(t, firstPaidAt, second.Order.PaidAt.UTC())
	})

	t.Run("shipped order is treated as noop", func(t *testing.T) {
		order := createGoodsOrder(t, repo)
		_, err := repo.TransitionToPaid(context.Background(), order.ID, commerce.OrderKindGoods, "pay-003", time.Now())
		require.NoError(t, err)
		require.NoError(t, db.Table("goods_orders").Where("id = ?", order.ID).Update("status", commerce.OrderStatusShipped).Error)

		result, err := repo.TransitionToPaid(context.Background(), order.ID, commerce.OrderKindGoods, "pay-003", time.Now())
		require.NoError(t, err)
		assert.True(t, result.WasNoop)
	})

	t.Run("cancelled order rejects the transition", func(t *testing.T) {
		order := createGoodsOrder(t, repo)
		require.NoError(t, db.Table("goods_orders").Where("id = ?", order.ID).Update("status", commerce.OrderStatusCancelled).Error)

		_, err := repo.TransitionToPaid(context.Background(), order.ID, commerce.OrderKindGoods, "pay-004", time.Now())
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("unknown order returns not found", func(t *testing.T) {
		_, err := repo.TransitionToPaid(context.Background(), uuid.New(), commerce.OrderKindGoods, "pay-005", time.Now())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("concurrent transitions record exactly one real change", func(t *testing.T) {
		order := createGoodsOrder(t, repo)

		const workers = 8
		results := make([]*commerce.TransitionResult, workers)
		errs := make([]error, workers)

		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], errs[i] = repo.TransitionToPaid(context.Background(), order.ID, commerce.OrderKindGoods, "pay-race", time.Now())
			}(i)
		}
		wg.Wait()

		real := 0
		for i := 0; i < workers; i++ {
			require.NoError(t, errs[i])
			if !results[i].WasNoop {
				real++
			}
		}
		assert.Equal(t, 1, real)
	})
}

func TestGormOrderRepository_AttachPayment(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewGormOrderRepository(db)

	t.Run("stores the gateway payment id", func(t *testing.T) {
		order := createGoodsOrder(t, repo)
		require.NoError(t, repo.AttachPayment(context.Background(), order.ID, commerce.OrderKindGoods, "pay-attach"))

		found, err := repo.FindByIDAndKind(context.Background(), order.ID, commerce.OrderKindGoods)
		require.NoError(t, err)
		require.NotNil(t, found.GatewayPaymentID)
		assert.Equal(t, "pay-attach", *found.GatewayPaymentID)
	})

	t.Run("rejects empty payment id", func(t *testing.T) {
		order := createGoodsOrder(t, repo)
		err := repo.AttachPayment(context.Background(), order.ID, commerce.OrderKindGoods, "")
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("returns not found for unknown order", func(t *testing.T) {
		err := repo.AttachPayment(context.Background(), uuid.New(), commerce.OrderKindGoods, "pay-x")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormOrderRepository_Fulfillment(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewGormOrderRepository(db)

	t.Run("saves and resolves a download token", func(t *testing.T) {
		order := createResourceOrder(t, repo)
		result, err := repo.TransitionToPaid(context.Background(), order.ID, commerce.OrderKindResource, "pay-f1", time.Now())
		require.NoError(t, err)

		paid := result.Order
		require.NoError(t, paid.IssueFulfillment("tok-abc123", time.Now().Add(30*24*time.Hour), 3))
		require.NoError(t, repo.SaveFulfillment(context.Background(), paid))

		found, err := repo.FindByDownloadToken(context.Background(), "tok-abc123")
		require.NoError(t, err)
		assert.Equal(t, paid.ID, found.ID)
		require.NotNil(t, found.Fulfillment)
		assert.Equal(t, 3, found.Fulfillment.MaxDownloads)
		assert.Equal(t, 0, found.Fulfillment.DownloadCount)
	})

	t.Run("resolves goods tokens too", func(t *testing.T) {
		order := createGoodsOrder(t, repo)
		result, err := repo.TransitionToPaid(context.Background(), order.ID, commerce.OrderKindGoods, "pay-f2", time.Now())
		require.NoError(t, err)

		paid := result.Order
		require.NoError(t, paid.IssueFulfillment("tok-goods456", time.Now().Add(24*time.Hour), 3))
		require.NoError(t, repo.SaveFulfillment(context.Background(), paid))

		found, err := repo.FindByDownloadToken(context.Background(), "tok-goods456")
		require.NoError(t, err)
		assert.Equal(t, commerce.OrderKindGoods, found.Kind)
	})

	t.Run("unknown token returns not found", func(t *testing.T) {
		_, err := repo.FindByDownloadToken(context.Background(), "tok-missing")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("empty token is invalid", func(t *testing.T) {
		_, err := repo.FindByDownloadToken(context.Background(), "")
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("increments the download counter", func(t *testing.T) {
		order := createResourceOrder(t, repo)
		result, err := repo.TransitionToPaid(context.Background(), order.ID, commerce.OrderKindResource, "pay-f3", time.Now())
		require.NoError(t, err)

		paid := result.Order
		require.NoError(t, paid.IssueFulfillment("tok-count789", time.Now().Add(24*time.Hour), 3))
		require.NoError(t, repo.SaveFulfillment(context.Background(), paid))

		require.NoError(t, repo.IncrementDownloadCount(context.Background(), paid.ID, commerce.OrderKindResource))
		require.NoError(t, repo.IncrementDownloadCount(context.Background(), paid.ID, commerce.OrderKindResource))

		found, err := repo.FindByDownloadToken(context.Background(), "tok-count789")
		require.NoError(t, err)
		require.NotNil(t, found.Fulfillment)
		assert.Equal(t, 2, found.Fulfillment.DownloadCount)
	})
}

func TestGormOrderRepository_Delete(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewGormOrderRepository(db)

	t.Run("removes a pending purchase", func(t *testing.T) {
		order := createResourceOrder(t, repo)
		require.NoError(t, repo.Delete(context.Background(), order.ID, commerce.OrderKindResource))

		_, err := repo.FindByIDAndKind(context.Background(), order.ID, commerce.OrderKindResource)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("returns not found for unknown order", func(t *testing.T) {
		err := repo.Delete(context.Background(), uuid.New(), commerce.OrderKindResource)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
