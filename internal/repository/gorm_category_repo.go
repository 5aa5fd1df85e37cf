package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/weiawesome/wes-directory/internal/domain"
)

// GormCategoryRepository implements CategoryRepository using GORM.
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new GORM-based category repository.
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// List returns every category in display order.
func (r *GormCategoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	var models []domain.CategoryModel
	if err := r.db.WithContext(ctx).Order("sort_order ASC").Order("code ASC").Find(&models).Error; err != nil {
		return nil, err
	}

	categories := make([]domain.Category, 0, len(models))
	for i := range models {
		categories = append(categories, models[i].ToDomain())
	}
	return categories, nil
}

// Upsert inserts or updates a category by code.
func (r *GormCategoryRepository) Upsert(ctx context.Context, c domain.Category) error {
	model := &domain.CategoryModel{Code: c.Code, NameTH: c.NameTH, NameEN: c.NameEN, SortOrder: c.SortOrder}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		UpdateAll: true,
	}).Create(model).Error
}
