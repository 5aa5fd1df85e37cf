package category

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/weiawesome/wes-directory/internal/domain"
	"github.com/weiawesome/wes-directory/internal/repository"
	"github.com/weiawesome/wes-directory/pkg/log"
)

const (
	loadKey     = "categories"
	loadTimeout = 2 * time.Second
)

// Resolver maps search terms to category codes. Categories are read per call;
// concurrent loads share one store read.
type Resolver struct {
	repo repository.CategoryRepository
	sf   singleflight.Group
}

// NewResolver creates a new category resolver.
func NewResolver(repo repository.CategoryRepository) *Resolver {
	return &Resolver{repo: repo}
}

// List returns every category. Errors are returned to the caller.
//
// The shared load is detached from the caller that starts it, so one
// cancelled request does not fail the others waiting on the same read.
func (r *Resolver) List(ctx context.Context) ([]domain.Category, error) {
	ch := r.sf.DoChan(loadKey, func() (interface{}, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		return r.repo.List(lctx)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]domain.Category), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Resolve returns the codes whose localized names contain term, ignoring case.
// A load failure degrades to no codes.
func (r *Resolver) Resolve(ctx context.Context, term string) []string {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return nil
	}

	categories, err := r.List(ctx)
	if err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldTerm, term).Msg("category lookup failed, continuing without aliases")
		return nil
	}

	var codes []string
	for _, c := range categories {
		if nameContains(c.NameTH, needle) || nameContains(c.NameEN, needle) {
			codes = append(codes, c.Code)
		}
	}
	return codes
}

// Index loads every category once, keyed by code. A load failure degrades to
// an empty index.
func (r *Resolver) Index(ctx context.Context) domain.CategoryIndex {
	categories, err := r.List(ctx)
	if err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("category load failed, rendering without labels")
		return nil
	}
	return domain.NewCategoryIndex(categories)
}

func nameContains(name, lowerNeedle string) bool {
	return name != "" && strings.Contains(strings.ToLower(name), lowerNeedle)
}
