package domain

import (
	"time"

	"gorm.io/gorm"

	"github.com/weiawesome/wes-directory/pkg/database"
)

// EntryModel is the GORM model for directory_entries table.
type EntryModel struct {
	ID            string               `gorm:"type:varchar(36);primaryKey"`
	TenantID      string               `gorm:"type:varchar(36);not null;index:idx_entries_tenant_status,priority:1"`
	Name          string               `gorm:"type:varchar(200);not null;index"`
	NameEN        string               `gorm:"column:name_en;type:varchar(200)"`
	Nickname      string               `gorm:"type:varchar(100)"`
	NicknameEN    string               `gorm:"column:nickname_en;type:varchar(100)"`
	Position      string               `gorm:"type:varchar(200)"`
	Company       string               `gorm:"type:varchar(200)"`
	Tagline       string               `gorm:"type:varchar(500)"`
	CategoryCode  string               `gorm:"type:varchar(32);index"`
	Tags          database.StringArray `gorm:"type:text"`
	Phone         string               `gorm:"type:varchar(50)"`
	Email         string               `gorm:"type:varchar(255)"`
	ChannelUserID string               `gorm:"type:varchar(64)"`
	PhotoKey      string               `gorm:"type:varchar(255)"`
	Status        string               `gorm:"type:varchar(20);not null;index:idx_entries_tenant_status,priority:2"`
	CreatedAt     time.Time            `gorm:"autoCreateTime"`
	UpdatedAt     time.Time            `gorm:"autoUpdateTime"`
	DeletedAt     gorm.DeletedAt       `gorm:"index"`
}

// TableName specifies the table name for EntryModel.
func (EntryModel) TableName() string {
	return "directory_entries"
}

// ToDomain converts EntryModel to domain Entry.
func (m *EntryModel) ToDomain() *Entry {
	return &Entry{
		ID:            m.ID,
		TenantID:      m.TenantID,
		Name:          m.Name,
		NameEN:        m.NameEN,
		Nickname:      m.Nickname,
		NicknameEN:    m.NicknameEN,
		Position:      m.Position,
		Company:       m.Company,
		Tagline:       m.Tagline,
		CategoryCode:  m.CategoryCode,
		Tags:          []string(m.Tags),
		Phone:         m.Phone,
		Email:         m.Email,
		ChannelUserID: m.ChannelUserID,
		PhotoKey:      m.PhotoKey,
		Status:        m.Status,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// EntryToModel converts domain Entry to EntryModel.
func EntryToModel(e *Entry) *EntryModel {
	return &EntryModel{
		ID:            e.ID,
		TenantID:      e.TenantID,
		Name:          e.Name,
		NameEN:        e.NameEN,
		Nickname:      e.Nickname,
		NicknameEN:    e.NicknameEN,
		Position:      e.Position,
		Company:       e.Company,
		Tagline:       e.Tagline,
		CategoryCode:  e.CategoryCode,
		Tags:          database.StringArray(e.Tags).Normalize(),
		Phone:         e.Phone,
		Email:         e.Email,
		ChannelUserID: e.ChannelUserID,
		PhotoKey:      e.PhotoKey,
		Status:        e.Status,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

// CategoryModel is the GORM model for categories table.
type CategoryModel struct {
	Code      string `gorm:"type:varchar(32);primaryKey"`
	NameTH    string `gorm:"column:name_th;type:varchar(100)"`
	NameEN    string `gorm:"column:name_en;type:varchar(100)"`
	SortOrder int    `gorm:"not null;default:0"`
}

// TableName specifies the table name for CategoryModel.
func (CategoryModel) TableName() string {
	return "categories"
}

// ToDomain converts CategoryModel to domain Category.
func (m *CategoryModel) ToDomain() Category {
	return Category{Code: m.Code, NameTH: m.NameTH, NameEN: m.NameEN, SortOrder: m.SortOrder}
}

// TenantModel is the GORM model for tenants table.
type TenantModel struct {
	ID                 string    `gorm:"type:varchar(36);primaryKey"`
	Name               string    `gorm:"type:varchar(200);not null"`
	ChannelDestination string    `gorm:"type:varchar(64);uniqueIndex"`
	CreatedAt          time.Time `gorm:"autoCreateTime"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime"`
}

// TableName specifies the table name for TenantModel.
func (TenantModel) TableName() string {
	return "tenants"
}

// ToDomain converts TenantModel to domain Tenant.
func (m *TenantModel) ToDomain() *Tenant {
	return &Tenant{ID: m.ID, Name: m.Name, ChannelDestination: m.ChannelDestination}
}
