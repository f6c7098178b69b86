package repository

import (
	"context"
	"errors"
	"fmt"

	categorydomain "github.com/mpsp-digital/jurist-prompts-hub/internal/domain/category"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CategoryRepository persists prompt categories.
type CategoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a CategoryRepository.
func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// ListActive returns active categories ordered by name.
func (r *CategoryRepository) ListActive(ctx context.Context) ([]categorydomain.Category, error) {
	var items []categorydomain.Category
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("name ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return items, nil
}

// ListAll returns every category, active or not.
func (r *CategoryRepository) ListAll(ctx context.Context) ([]categorydomain.Category, error) {
	var items []categorydomain.Category
	if err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list all categories: %w", err)
	}
	return items, nil
}

// FindByID loads one category. Returns gorm.ErrRecordNotFound when absent.
func (r *CategoryRepository) FindByID(ctx context.Context, id string) (*categorydomain.Category, error) {
	var entity categorydomain.Category
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&entity).Error; err != nil {
		return nil, err
	}
	return &entity, nil
}

// ListByIDs batch-loads categories for hydrating a page of prompts.
func (r *CategoryRepository) ListByIDs(ctx context.Context, ids []string) (map[string]categorydomain.Category, error) {
	result := make(map[string]categorydomain.Category, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var items []categorydomain.Category
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("load categories by ids: %w", err)
	}
	for _, item := range items {
		result[item.ID] = item
	}
	return result, nil
}

// ExistsByName checks name uniqueness, optionally excluding one id on update.
func (r *CategoryRepository) ExistsByName(ctx context.Context, name string, excludeID string) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&categorydomain.Category{}).
		Where("name = ?", name)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("check category name: %w", err)
	}
	return count > 0, nil
}

// Create inserts a category, generating its id.
func (r *CategoryRepository) Create(ctx context.Context, entity *categorydomain.Category) error {
	if entity == nil {
		return errors.New("category entity is nil")
	}
	entity.ID = uuid.NewString()
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// Update rewrites name, description and active flag. Returns whether the
// row existed.
func (r *CategoryRepository) Update(ctx context.Context, entity *categorydomain.Category) (bool, error) {
	if entity == nil {
		return false, errors.New("category entity is nil")
	}
	res := r.db.WithContext(ctx).Model(&categorydomain.Category{}).
		Where("id = ?", entity.ID).
		Updates(map[string]any{
			"name":        entity.Name,
			"description": entity.Description,
			"active":      entity.Active,
			"updated_at":  entity.UpdatedAt,
		})
	if res.Error != nil {
		return false, fmt.Errorf("update category: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Delete removes a category row. Whether deletion is allowed (no prompts
// still attached) is decided by the service.
func (r *CategoryRepository) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&categorydomain.Category{})
	if res.Error != nil {
		return false, fmt.Errorf("delete category: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
