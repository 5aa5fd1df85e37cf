package repository

import (
	"context"
	"errors"

	"github.com/weiawesome/wes-directory/internal/domain"
)

var (
	ErrTenantNotFound = errors.New("tenant not found")
	ErrTenantRequired = errors.New("tenant id is required")
)

// EntryFilter scopes a directory read. TenantID and Statuses are applied
// before any text predicate. CategoryCode selects an exact category browse;
// otherwise Term is matched against the text fields and CategoryCodes are
// OR'ed in as alias matches.
type EntryFilter struct {
	TenantID      string
	Statuses      []string
	Term          string
	CategoryCodes []string
	CategoryCode  string
}

// EntryRepository defines the reads the search engine issues against the
// directory store.
type EntryRepository interface {
	// FindByFields returns field (or exact category) matches ordered by name.
	FindByFields(ctx context.Context, filter EntryFilter, offset, limit int) ([]*domain.Entry, error)
	// CountByFields counts the rows FindByFields would page over.
	CountByFields(ctx context.Context, filter EntryFilter) (int, error)
	// FindByTagsOnly returns entries whose tags contain the term but whose
	// fields do not, ordered by name and capped at scanLimit.
	FindByTagsOnly(ctx context.Context, filter EntryFilter, scanLimit int) ([]*domain.Entry, error)
	Upsert(ctx context.Context, entry *domain.Entry) error
}

// CategoryRepository defines access to the category reference table.
type CategoryRepository interface {
	List(ctx context.Context) ([]domain.Category, error)
	Upsert(ctx context.Context, category domain.Category) error
}

// TenantRepository maps chat channel destinations to tenants.
type TenantRepository interface {
	GetByDestination(ctx context.Context, destination string) (*domain.Tenant, error)
	Upsert(ctx context.Context, tenant *domain.Tenant) error
}
