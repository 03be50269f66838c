package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/menohub/backend/internal/domain/commerce"
	"github.com/menohub/backend/internal/domain/shared"
	"github.com/menohub/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormResourceRepository implements commerce.ResourceRepository using GORM
type GormResourceRepository struct {
	db *gorm.DB
}

// NewGormResourceRepository creates a new GormResourceRepository
func NewGormResourceRepository(db *gorm.DB) *GormResourceRepository {
	return &GormResourceRepository{db: db}
}

// FindBySlug looks up a resource by its URL slug.
func (r *GormResourceRepository) FindBySlug(ctx context.Context, slug string) (*commerce.Resource, error) {
	if slug == "" {
		return nil, shared.ErrInvalidInput
	}
	var model models.ResourceModel
	if err := r.db.WithContext(ctx).First(&model, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByID looks up a resource by id.
func (r *GormResourceRepository) FindByID(ctx context.Context, id uuid.UUID) (*commerce.Resource, error) {
	var model models.ResourceModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

var _ commerce.ResourceRepository = (*GormResourceRepository)(nil)
