package domain

import (
	"strings"
	"time"
)

// Entry statuses. Only SearchableStatuses are returned by lookups.
const (
	StatusActive    = "active"
	StatusVisitor   = "visitor"
	StatusPending   = "pending"
	StatusSuspended = "suspended"
	StatusAlumni    = "alumni"
)

// SearchableStatuses is the default status filter for directory lookups.
var SearchableStatuses = []string{StatusActive, StatusVisitor}

// Entry is one searchable person record in a tenant's directory.
type Entry struct {
	ID            string    `json:"id"`
	TenantID      string    `json:"tenant_id"`
	Name          string    `json:"name"`
	NameEN        string    `json:"name_en,omitempty"`
	Nickname      string    `json:"nickname,omitempty"`
	NicknameEN    string    `json:"nickname_en,omitempty"`
	Position      string    `json:"position,omitempty"`
	Company       string    `json:"company,omitempty"`
	Tagline       string    `json:"tagline,omitempty"`
	CategoryCode  string    `json:"category_code,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Email         string    `json:"email,omitempty"`
	ChannelUserID string    `json:"channel_user_id,omitempty"`
	PhotoKey      string    `json:"-"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Category is a browsable grouping of entries with localized names.
type Category struct {
	Code      string `json:"code"`
	NameTH    string `json:"name_th"`
	NameEN    string `json:"name_en"`
	SortOrder int    `json:"sort_order"`
}

// Label returns the display name used in replies.
func (c Category) Label() string {
	if c.NameTH != "" {
		return c.NameTH
	}
	if c.NameEN != "" {
		return c.NameEN
	}
	return c.Code
}

// CategoryIndex maps upper-cased category codes to categories. A nil index
// knows no categories.
type CategoryIndex map[string]Category

// NewCategoryIndex indexes categories by code.
func NewCategoryIndex(categories []Category) CategoryIndex {
	ix := make(CategoryIndex, len(categories))
	for _, c := range categories {
		ix[strings.ToUpper(c.Code)] = c
	}
	return ix
}

// Get returns the category with the given code, ignoring case.
func (ix CategoryIndex) Get(code string) (Category, bool) {
	c, ok := ix[strings.ToUpper(code)]
	return c, ok
}

// Label returns the display name for code, or "" when it is unknown.
func (ix CategoryIndex) Label(code string) string {
	if code == "" {
		return ""
	}
	if c, ok := ix.Get(code); ok {
		return c.Label()
	}
	return ""
}

// Tenant owns one directory and one chat channel destination.
type Tenant struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	ChannelDestination string `json:"-"`
}
