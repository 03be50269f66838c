package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/menohub/backend/internal/domain/commerce"
	"github.com/menohub/backend/internal/domain/shared"
	"github.com/menohub/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupResourceTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.Exec(`
		CREATE TABLE resources (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			slug TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			is_paid INTEGER NOT NULL DEFAULT 0,
			price_kopecks INTEGER NOT NULL DEFAULT 0,
			download_limit INTEGER NOT NULL DEFAULT 3,
			storage_key TEXT
		)
	`).Error
	require.NoError(t, err)

	return db
}

func seedResource(t *testing.T, db *gorm.DB, slug string, priceKopecks int64) *commerce.Resource {
	resource := &commerce.Resource{
		BaseEntity:    shared.NewBaseEntity(),
		Slug:          slug,
		Title:         "Knitting pattern",
		IsPaid:        true,
		PriceKopecks:  priceKopecks,
		DownloadLimit: 3,
		StorageKey:    "resources/" + slug + ".pdf",
	}
	var model models.ResourceModel
	model.FromDomain(resource)
	require.NoError(t, db.Create(&model).Error)
	return resource
}

func TestGormResourceRepository_FindBySlug(t *testing.T) {
	db := setupResourceTestDB(t)
	repo := NewGormResourceRepository(db)

	t.Run("finds a seeded resource", func(t *testing.T) {
		seeded := seedResource(t, db, "winter-pattern", 49900)

		found, err := repo.FindBySlug(context.Background(), "winter-pattern")
		require.NoError(t, err)
		assert.Equal(t, seeded.ID, found.ID)
		assert.Equal(t, int64(49900), found.PriceKopecks)
		assert.True(t, found.IsPaid)
	})

	t.Run("unknown slug returns not found", func(t *testing.T) {
		_, err := repo.FindBySlug(context.Background(), "missing")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("empty slug is invalid", func(t *testing.T) {
		_, err := repo.FindBySlug(context.Background(), "")
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestGormResourceRepository_FindByID(t *testing.T) {
	db := setupResourceTestDB(t)
	repo := NewGormResourceRepository(db)

	t.Run("finds by id", func(t *testing.T) {
		seeded := seedResource(t, db, "summer-pattern", 29900)

		found, err := repo.FindByID(context.Background(), seeded.ID)
		require.NoError(t, err)
		assert.Equal(t, "summer-pattern", found.Slug)
	})

	t.Run("unknown id returns not found", func(t *testing.T) {
		_, err := repo.FindByID(context.Background(), uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
