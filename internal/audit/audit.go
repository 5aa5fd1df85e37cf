package audit

import (
	"context"

	"github.com/weiawesome/wes-directory/pkg/log"
)

// Audit actions for directory lookups.
const (
	ActionSearch   = "directory.search"
	ActionPage     = "directory.page"
	ActionCategory = "directory.category"
)

// Field constants for audit entries.
const (
	FieldAction = "action"
	FieldSource = "source"
)

// Entry describes one audited lookup.
type Entry struct {
	Action       string
	Source       string // "webhook", "api"
	TenantID     string
	UserID       string
	Term         string
	CategoryCode string
	Page         int
	ResultCount  int
	TotalFound   int
}

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, e Entry, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, e.Action).
		Str(FieldSource, e.Source).
		Str(log.FieldTenantID, e.TenantID).
		Str(log.FieldUserID, e.UserID).
		Str(log.FieldTerm, e.Term).
		Str(log.FieldCategory, e.CategoryCode).
		Int(log.FieldPage, e.Page).
		Int(log.FieldResultCount, e.ResultCount).
		Int(log.FieldTotalFound, e.TotalFound).
		Msg(msg)
}

// ActionFor picks the audit action for a lookup.
func ActionFor(page int, categoryCode string) string {
	switch {
	case page > 1:
		return ActionPage
	case categoryCode != "":
		return ActionCategory
	default:
		return ActionSearch
	}
}
