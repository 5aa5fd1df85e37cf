package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/weiawesome/wes-directory/internal/domain"
)

// GormTenantRepository implements TenantRepository using GORM.
type GormTenantRepository struct {
	db *gorm.DB
}

// NewGormTenantRepository creates a new GORM-based tenant repository.
func NewGormTenantRepository(db *gorm.DB) *GormTenantRepository {
	return &GormTenantRepository{db: db}
}

// GetByDestination retrieves the tenant bound to a channel destination.
func (r *GormTenantRepository) GetByDestination(ctx context.Context, destination string) (*domain.Tenant, error) {
	if destination == "" {
		return nil, ErrTenantNotFound
	}

	var model domain.TenantModel
	result := r.db.WithContext(ctx).First(&model, "channel_destination = ?", destination)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// Upsert inserts or updates a tenant by id.
func (r *GormTenantRepository) Upsert(ctx context.Context, tenant *domain.Tenant) error {
	if tenant.ID == "" {
		tenant.ID = uuid.New().String()
	}
	model := &domain.TenantModel{
		ID:                 tenant.ID,
		Name:               tenant.Name,
		ChannelDestination: tenant.ChannelDestination,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "channel_destination", "updated_at"}),
	}).Create(model).Error
}
