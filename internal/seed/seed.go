// Package seed loads directory fixtures from a YAML file.
package seed

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/weiawesome/wes-directory/internal/domain"
	"github.com/weiawesome/wes-directory/internal/repository"
	"github.com/weiawesome/wes-directory/pkg/log"
)

// entryNamespace derives stable ids for entries listed without one, so
// re-running the same file updates rows instead of duplicating them.
var entryNamespace = uuid.MustParse("6f1c2b0e-5d2a-4c55-9a43-7a3e8f0d1b21")

// File is the on-disk fixture layout.
type File struct {
	Tenants    []Tenant   `yaml:"tenants"`
	Categories []Category `yaml:"categories"`
	Entries    []Entry    `yaml:"entries"`
}

type Tenant struct {
	ID                 string `yaml:"id"`
	Name               string `yaml:"name"`
	ChannelDestination string `yaml:"channel_destination"`
}

type Category struct {
	Code      string `yaml:"code"`
	NameTH    string `yaml:"name_th"`
	NameEN    string `yaml:"name_en"`
	SortOrder int    `yaml:"sort_order"`
}

type Entry struct {
	ID            string   `yaml:"id"`
	TenantID      string   `yaml:"tenant_id"`
	Name          string   `yaml:"name"`
	NameEN        string   `yaml:"name_en"`
	Nickname      string   `yaml:"nickname"`
	NicknameEN    string   `yaml:"nickname_en"`
	Position      string   `yaml:"position"`
	Company       string   `yaml:"company"`
	Tagline       string   `yaml:"tagline"`
	CategoryCode  string   `yaml:"category"`
	Tags          []string `yaml:"tags"`
	Phone         string   `yaml:"phone"`
	Email         string   `yaml:"email"`
	ChannelUserID string   `yaml:"channel_user_id"`
	PhotoKey      string   `yaml:"photo_key"`
	Status        string   `yaml:"status"`
}

// Stats counts what one import wrote.
type Stats struct {
	Tenants    int
	Categories int
	Entries    int
}

// Loader upserts fixtures through the repositories.
type Loader struct {
	tenants    repository.TenantRepository
	categories repository.CategoryRepository
	entries    repository.EntryRepository
}

// NewLoader creates a new seed loader.
func NewLoader(tenants repository.TenantRepository, categories repository.CategoryRepository, entries repository.EntryRepository) *Loader {
	return &Loader{
		tenants:    tenants,
		categories: categories,
		entries:    entries,
	}
}

// Parse decodes a fixture document.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &f, nil
}

// LoadFile reads path and imports it.
func (s *Loader) LoadFile(ctx context.Context, path string) (Stats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read seed file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return Stats{}, err
	}
	return s.Import(ctx, f)
}

// Import upserts tenants, then categories, then entries. It stops at the
// first failure.
func (s *Loader) Import(ctx context.Context, f *File) (Stats, error) {
	l := log.Ctx(ctx)
	var stats Stats

	for _, t := range f.Tenants {
		if t.ID == "" {
			return stats, fmt.Errorf("tenant %q: id is required", t.Name)
		}
		if err := s.tenants.Upsert(ctx, &domain.Tenant{
			ID:                 t.ID,
			Name:               t.Name,
			ChannelDestination: t.ChannelDestination,
		}); err != nil {
			return stats, fmt.Errorf("tenant %s: %w", t.ID, err)
		}
		stats.Tenants++
	}

	for _, c := range f.Categories {
		code := strings.ToUpper(strings.TrimSpace(c.Code))
		if code == "" {
			return stats, fmt.Errorf("category %q: code is required", c.NameEN)
		}
		if err := s.categories.Upsert(ctx, domain.Category{
			Code:      code,
			NameTH:    c.NameTH,
			NameEN:    c.NameEN,
			SortOrder: c.SortOrder,
		}); err != nil {
			return stats, fmt.Errorf("category %s: %w", code, err)
		}
		stats.Categories++
	}

	for i, e := range f.Entries {
		entry := e.toDomain()
		if entry.TenantID == "" {
			return stats, fmt.Errorf("entry %d (%s): tenant_id is required", i, e.Name)
		}
		if err := s.entries.Upsert(ctx, entry); err != nil {
			return stats, fmt.Errorf("entry %s: %w", entry.ID, err)
		}
		stats.Entries++
	}

	l.Info().
		Int("tenants", stats.Tenants).
		Int("categories", stats.Categories).
		Int("entries", stats.Entries).
		Msg("seed imported")

	return stats, nil
}

func (e Entry) toDomain() *domain.Entry {
	id := e.ID
	if id == "" {
		id = uuid.NewSHA1(entryNamespace, []byte(e.TenantID+"\x00"+e.Name+"\x00"+e.Email)).String()
	}
	status := e.Status
	if status == "" {
		status = domain.StatusActive
	}
	return &domain.Entry{
		ID:            id,
		TenantID:      e.TenantID,
		Name:          e.Name,
		NameEN:        e.NameEN,
		Nickname:      e.Nickname,
		NicknameEN:    e.NicknameEN,
		Position:      e.Position,
		Company:       e.Company,
		Tagline:       e.Tagline,
		CategoryCode:  strings.ToUpper(strings.TrimSpace(e.CategoryCode)),
		Tags:          e.Tags,
		Phone:         e.Phone,
		Email:         e.Email,
		ChannelUserID: e.ChannelUserID,
		PhotoKey:      e.PhotoKey,
		Status:        status,
	}
}
