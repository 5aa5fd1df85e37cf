package service

import (
	"context"

	"github.com/weiawesome/wes-directory/internal/domain"
)

// DirectoryService defines the interface for directory lookups.
type DirectoryService interface {
	// Search runs a free-text search or, when req.CategoryCode is set, an
	// exact category browse.
	Search(ctx context.Context, req *domain.SearchRequest) (*domain.SearchResult, error)
	Categories(ctx context.Context) ([]domain.Category, error)
}
