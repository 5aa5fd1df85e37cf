package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/weiawesome/wes-directory/internal/domain"
	"github.com/weiawesome/wes-directory/pkg/database"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.New(&database.Config{
		Driver:       "sqlite",
		FilePath:     "file:" + uuid.New().String() + "?mode=memory&cache=shared",
		MaxOpenConns: 1,
		LogLevel:     "silent",
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db, &domain.EntryModel{}, &domain.CategoryModel{}, &domain.TenantModel{}))
	return db
}

func seedEntries(t *testing.T, repo *GormEntryRepository, entries ...*domain.Entry) {
	t.Helper()
	for _, e := range entries {
		require.NoError(t, repo.Upsert(context.Background(), e))
	}
}

func names(entries []*domain.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}

func TestGormEntryRepository_FindByFields(t *testing.T) {
	repo := NewGormEntryRepository(newTestDB(t))
	ctx := context.Background()

	seedEntries(t, repo,
		&domain.Entry{TenantID: "t1", Name: "Charlie", Company: "Acme Corp"},
		&domain.Entry{TenantID: "t1", Name: "Alice", Position: "ACME liaison"},
		&domain.Entry{TenantID: "t1", Name: "Bob", NicknameEN: "acmeboy"},
		&domain.Entry{TenantID: "t1", Name: "Dave", Company: "Other"},
		&domain.Entry{TenantID: "t1", Name: "Eve", Company: "Acme", Status: domain.StatusSuspended},
	)

	got, err := repo.FindByFields(ctx, EntryFilter{TenantID: "t1", Term: "acme"}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Bob", "Charlie"}, names(got))

	page, err := repo.FindByFields(ctx, EntryFilter{TenantID: "t1", Term: "acme"}, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bob"}, names(page))

	n, err := repo.CountByFields(ctx, EntryFilter{TenantID: "t1", Term: "acme"})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestGormEntryRepository_TenantIsolation(t *testing.T) {
	repo := NewGormEntryRepository(newTestDB(t))
	ctx := context.Background()

	seedEntries(t, repo,
		&domain.Entry{ID: "a-1", TenantID: "tenant-a", Name: "สมชาย ใจดี", Company: "tenant-b"},
		&domain.Entry{ID: "b-1", TenantID: "tenant-b", Name: "สมชาย รักดี", Tags: []string{"tenant-a"}},
		&domain.Entry{ID: "b-2", TenantID: "tenant-b", Name: "' OR tenant_id = 'tenant-a"},
	)

	terms := []string{"สมชาย", "tenant-a", "tenant-b", "' OR 1=1 --", "%", "_", "a-1", "b-1"}
	for _, term := range terms {
		filter := EntryFilter{TenantID: "tenant-a", Term: term}

		rows, err := repo.FindByFields(ctx, filter, 0, 50)
		require.NoError(t, err)
		tagRows, err := repo.FindByTagsOnly(ctx, filter, 50)
		require.NoError(t, err)

		for _, e := range append(rows, tagRows...) {
			assert.Equal(t, "tenant-a", e.TenantID, "term %q leaked %s", term, e.ID)
		}
	}

	_, err := repo.FindByFields(ctx, EntryFilter{Term: "x"}, 0, 10)
	assert.ErrorIs(t, err, ErrTenantRequired)
}

func TestGormEntryRepository_LikeWildcardsAreLiteral(t *testing.T) {
	repo := NewGormEntryRepository(newTestDB(t))
	ctx := context.Background()

	seedEntries(t, repo,
		&domain.Entry{TenantID: "t1", Name: "100% Juice"},
		&domain.Entry{TenantID: "t1", Name: "1000 Juice"},
		&domain.Entry{TenantID: "t1", Name: "snake_case"},
		&domain.Entry{TenantID: "t1", Name: "snakeXcase"},
		&domain.Entry{TenantID: "t1", Name: "Hi!there"},
	)

	for term, want := range map[string][]string{
		"0%":      {"100% Juice"},
		"e_c":     {"snake_case"},
		"!t":      {"Hi!there"},
		"juice":   {"100% Juice", "1000 Juice"},
		"nothing": {},
	} {
		got, err := repo.FindByFields(ctx, EntryFilter{TenantID: "t1", Term: term}, 0, 10)
		require.NoError(t, err)
		assert.Equal(t, want, names(got), "term %q", term)
	}
}

func TestGormEntryRepository_NonASCIICase(t *testing.T) {
	repo := NewGormEntryRepository(newTestDB(t))
	ctx := context.Background()

	seedEntries(t, repo,
		&domain.Entry{TenantID: "t1", Name: "Ángel Ruiz"},
		&domain.Entry{TenantID: "t1", Name: "josé pérez"},
		&domain.Entry{TenantID: "t1", Name: "Nok", Tags: []string{"Ñandú"}},
	)

	for term, want := range map[string][]string{
		"Ángel": {"Ángel Ruiz"},
		"RUIZ":  {"Ángel Ruiz"},
		"josé":  {"josé pérez"},
		"JOSÉ":  {"josé pérez"},
	} {
		got, err := repo.FindByFields(ctx, EntryFilter{TenantID: "t1", Term: term}, 0, 10)
		require.NoError(t, err)
		assert.Equal(t, want, names(got), "term %q", term)
	}

	got, err := repo.FindByTagsOnly(ctx, EntryFilter{TenantID: "t1", Term: "Ñandú"}, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Nok"}, names(got))
}

func TestGormEntryRepository_CategoryMatching(t *testing.T) {
	repo := NewGormEntryRepository(newTestDB(t))
	ctx := context.Background()

	seedEntries(t, repo,
		&domain.Entry{TenantID: "t1", Name: "Anan", CategoryCode: "IT"},
		&domain.Entry{TenantID: "t1", Name: "Boon", CategoryCode: "LAW"},
		&domain.Entry{TenantID: "t1", Name: "Chai", Company: "ไอที"},
	)

	got, err := repo.FindByFields(ctx, EntryFilter{TenantID: "t1", Term: "ไอที", CategoryCodes: []string{"IT"}}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Anan", "Chai"}, names(got))

	got, err = repo.FindByFields(ctx, EntryFilter{TenantID: "t1", CategoryCode: "LAW", Term: "ignored"}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Boon"}, names(got))
}

func TestGormEntryRepository_FindByTagsOnly(t *testing.T) {
	repo := NewGormEntryRepository(newTestDB(t))
	ctx := context.Background()

	seedEntries(t, repo,
		&domain.Entry{TenantID: "t1", Name: "Golfer Gan", Tags: []string{"golf"}},
		&domain.Entry{TenantID: "t1", Name: "Nok", Tags: []string{"Golf", "wine"}},
		&domain.Entry{TenantID: "t1", Name: "Mai", Tags: []string{"minigolf"}},
		&domain.Entry{TenantID: "t1", Name: "Ploy", Tags: []string{"tennis"}},
	)

	filter := EntryFilter{TenantID: "t1", Term: "golf"}
	got, err := repo.FindByTagsOnly(ctx, filter, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Mai", "Nok"}, names(got), "field matches are excluded")

	capped, err := repo.FindByTagsOnly(ctx, filter, 1)
	require.NoError(t, err)
	assert.Len(t, capped, 1)

	none, err := repo.FindByTagsOnly(ctx, EntryFilter{TenantID: "t1", CategoryCode: "IT", Term: "golf"}, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGormCategoryRepository_List(t *testing.T) {
	repo := NewGormCategoryRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, domain.Category{Code: "LAW", NameTH: "กฎหมาย", SortOrder: 2}))
	require.NoError(t, repo.Upsert(ctx, domain.Category{Code: "IT", NameTH: "ไอที", SortOrder: 1}))
	require.NoError(t, repo.Upsert(ctx, domain.Category{Code: "IT", NameTH: "เทคโนโลยีสารสนเทศ", NameEN: "IT", SortOrder: 1}))

	got, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "IT", got[0].Code)
	assert.Equal(t, "เทคโนโลยีสารสนเทศ", got[0].NameTH)
}

func TestGormTenantRepository_GetByDestination(t *testing.T) {
	repo := NewGormTenantRepository(newTestDB(t))
	ctx := context.Background()

	tenant := &domain.Tenant{Name: "Rotary Bangkok", ChannelDestination: "Udeadbeef"}
	require.NoError(t, repo.Upsert(ctx, tenant))
	assert.NotEmpty(t, tenant.ID)

	got, err := repo.GetByDestination(ctx, "Udeadbeef")
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, got.ID)

	_, err = repo.GetByDestination(ctx, "Unknown")
	assert.ErrorIs(t, err, ErrTenantNotFound)

	_, err = repo.GetByDestination(ctx, "")
	assert.ErrorIs(t, err, ErrTenantNotFound)
}
