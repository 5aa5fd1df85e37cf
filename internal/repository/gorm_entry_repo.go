package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/weiawesome/wes-directory/internal/domain"
)

// GormEntryRepository implements EntryRepository using GORM.
type GormEntryRepository struct {
	db *gorm.DB
}

// NewGormEntryRepository creates a new GORM-based entry repository.
func NewGormEntryRepository(db *gorm.DB) *GormEntryRepository {
	return &GormEntryRepository{db: db}
}

// scoped applies tenant and status scoping. It is the first thing every read does.
func (r *GormEntryRepository) scoped(ctx context.Context, filter EntryFilter) (*gorm.DB, error) {
	if filter.TenantID == "" {
		return nil, ErrTenantRequired
	}
	q := r.db.WithContext(ctx).Model(&domain.EntryModel{}).Where("tenant_id = ?", filter.TenantID)
	statuses := filter.Statuses
	if len(statuses) == 0 {
		statuses = domain.SearchableStatuses
	}
	return q.Where("status IN ?", statuses), nil
}

func (r *GormEntryRepository) matchFields(q *gorm.DB, filter EntryFilter) *gorm.DB {
	if filter.CategoryCode != "" {
		return q.Where("category_code = ?", filter.CategoryCode)
	}
	sql, args := fieldsClause(filter.Term, filter.CategoryCodes)
	return q.Where(sql, args...)
}

// FindByFields returns field or exact category matches ordered by name.
func (r *GormEntryRepository) FindByFields(ctx context.Context, filter EntryFilter, offset, limit int) ([]*domain.Entry, error) {
	q, err := r.scoped(ctx, filter)
	if err != nil {
		return nil, err
	}

	var models []domain.EntryModel
	result := r.matchFields(q, filter).
		Order("name ASC").
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}
	return toEntries(models), nil
}

// CountByFields counts field or exact category matches.
func (r *GormEntryRepository) CountByFields(ctx context.Context, filter EntryFilter) (int, error) {
	q, err := r.scoped(ctx, filter)
	if err != nil {
		return 0, err
	}

	var n int64
	if err := r.matchFields(q, filter).Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}

// FindByTagsOnly returns tag matches that FindByFields would not return.
func (r *GormEntryRepository) FindByTagsOnly(ctx context.Context, filter EntryFilter, scanLimit int) ([]*domain.Entry, error) {
	if filter.CategoryCode != "" || filter.Term == "" {
		return nil, nil
	}
	q, err := r.scoped(ctx, filter)
	if err != nil {
		return nil, err
	}

	tagSQL, tagArgs := tagsClause(filter.Term)
	fieldSQL, fieldArgs := fieldsClause(filter.Term, filter.CategoryCodes)

	var models []domain.EntryModel
	result := q.Where(tagSQL, tagArgs...).
		Where("NOT "+fieldSQL, fieldArgs...).
		Order("name ASC").
		Order("id ASC").
		Limit(scanLimit).
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}
	return toEntries(models), nil
}

// Upsert inserts or updates an entry by id.
func (r *GormEntryRepository) Upsert(ctx context.Context, entry *domain.Entry) error {
	if entry.TenantID == "" {
		return ErrTenantRequired
	}
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Status == "" {
		entry.Status = domain.StatusActive
	}

	model := domain.EntryToModel(entry)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(model).Error
}

func toEntries(models []domain.EntryModel) []*domain.Entry {
	entries := make([]*domain.Entry, 0, len(models))
	for i := range models {
		entries = append(entries, models[i].ToDomain())
	}
	return entries
}
