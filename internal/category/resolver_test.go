package category

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-directory/internal/domain"
)

type fakeCategoryRepo struct {
	categories []domain.Category
	err        error
	delay      time.Duration
	calls      atomic.Int32
}

func (f *fakeCategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.categories, f.err
}

func (f *fakeCategoryRepo) Upsert(ctx context.Context, c domain.Category) error {
	return nil
}

func testCategories() []domain.Category {
	return []domain.Category{
		{Code: "IT", NameTH: "เทคโนโลยีสารสนเทศ", NameEN: "Information Technology"},
		{Code: "LAW", NameTH: "กฎหมาย", NameEN: "Legal"},
		{Code: "FIN", NameTH: "การเงิน", NameEN: "Finance & Banking"},
	}
}

func TestResolver_Resolve(t *testing.T) {
	r := NewResolver(&fakeCategoryRepo{categories: testCategories()})
	ctx := context.Background()

	assert.Equal(t, []string{"IT"}, r.Resolve(ctx, "technology"))
	assert.Equal(t, []string{"IT"}, r.Resolve(ctx, "สารสนเทศ"))
	assert.Equal(t, []string{"LAW"}, r.Resolve(ctx, "  LEGAL "))
	assert.Equal(t, []string{"IT", "FIN"}, r.Resolve(ctx, "in"))
	assert.Empty(t, r.Resolve(ctx, "สมชาย"))
	assert.Empty(t, r.Resolve(ctx, ""))
}

func TestResolver_DegradesOnError(t *testing.T) {
	r := NewResolver(&fakeCategoryRepo{err: errors.New("db down")})

	assert.Empty(t, r.Resolve(context.Background(), "legal"))

	ix := r.Index(context.Background())
	_, ok := ix.Get("LAW")
	assert.False(t, ok)
	assert.Empty(t, ix.Label("LAW"))
}

func TestResolver_Index(t *testing.T) {
	r := NewResolver(&fakeCategoryRepo{categories: testCategories()})

	ix := r.Index(context.Background())
	c, ok := ix.Get("law")
	require.True(t, ok)
	assert.Equal(t, "กฎหมาย", c.Label())
	assert.Equal(t, "การเงิน", ix.Label("fin"))

	_, ok = ix.Get("XYZ")
	assert.False(t, ok)
	assert.Empty(t, ix.Label(""))
}

func TestResolver_SharedLoadOutlivesCancelledCaller(t *testing.T) {
	repo := &fakeCategoryRepo{categories: testCategories(), delay: 100 * time.Millisecond}
	r := NewResolver(repo)

	shortCtx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	firstErr := make(chan error, 1)
	go func() {
		_, err := r.List(shortCtx)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return repo.calls.Load() == 1 }, time.Second, time.Millisecond)

	categories, err := r.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, categories, 3)
	assert.Equal(t, int32(1), repo.calls.Load())

	assert.ErrorIs(t, <-firstErr, context.DeadlineExceeded)
}

func TestResolver_CoalescesConcurrentLoads(t *testing.T) {
	repo := &fakeCategoryRepo{categories: testCategories(), delay: 50 * time.Millisecond}
	r := NewResolver(repo)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Resolve(context.Background(), "legal")
		}()
	}
	wg.Wait()

	assert.Less(t, repo.calls.Load(), int32(8))
}
