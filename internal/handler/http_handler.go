package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/wes-directory/internal/audit"
	"github.com/weiawesome/wes-directory/internal/domain"
	"github.com/weiawesome/wes-directory/internal/lookup"
	"github.com/weiawesome/wes-directory/internal/pagination"
	"github.com/weiawesome/wes-directory/internal/service"
	"github.com/weiawesome/wes-directory/pkg/log"
	"github.com/weiawesome/wes-directory/pkg/middleware"
	"github.com/weiawesome/wes-directory/pkg/response"
)

// Previewer builds the reply a chat lookup would send.
type Previewer interface {
	Lookup(ctx context.Context, req lookup.Request) (*domain.OutgoingMessage, *domain.SearchResult, error)
}

// Handler handles HTTP requests for the directory API.
type Handler struct {
	directory service.DirectoryService
	previewer Previewer
	auth      *middleware.AuthMiddleware
	pageSize  int
}

// NewHandler creates a new HTTP handler.
func NewHandler(directory service.DirectoryService, previewer Previewer, auth *middleware.AuthMiddleware, pageSize int) *Handler {
	return &Handler{
		directory: directory,
		previewer: previewer,
		auth:      auth,
		pageSize:  pageSize,
	}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1/directory")
	api.Use(h.auth.RequireTenant())
	{
		api.GET("/search", h.Search)
		api.GET("/preview", h.Preview)
		api.GET("/categories", h.ListCategories)
		api.GET("/categories/:code", h.BrowseCategory)
	}
}

// Search handles free-text search.
func (h *Handler) Search(c *gin.Context) {
	var q domain.DirectoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		l := log.Ctx(c.Request.Context())
		l.Warn().Err(err).Msg("invalid search request")
		response.BadRequest(c, err.Error())
		return
	}
	h.runSearch(c, pagination.Token{Page: q.Page, Term: q.Query})
}

// BrowseCategory lists entries of one category.
func (h *Handler) BrowseCategory(c *gin.Context) {
	var q domain.DirectoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		l := log.Ctx(c.Request.Context())
		l.Warn().Err(err).Msg("invalid category request")
		response.BadRequest(c, err.Error())
		return
	}
	h.runSearch(c, pagination.Token{Page: q.Page, CategoryCode: strings.ToUpper(c.Param("code"))})
}

func (h *Handler) runSearch(c *gin.Context, tok pagination.Token) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	if tok.Page < 1 {
		tok.Page = 1
	}
	tenantID := middleware.GetTenantID(c)
	access := log.LookupFields{Term: tok.Term, CategoryCode: tok.CategoryCode, Page: tok.Page}
	log.SetLookup(c, access)

	result, err := h.directory.Search(ctx, &domain.SearchRequest{
		TenantID:     tenantID,
		Term:         tok.Term,
		CategoryCode: tok.CategoryCode,
		Offset:       pagination.Offset(tok.Page, h.pageSize),
		Limit:        h.pageSize,
	})
	if err != nil {
		h.writeSearchError(c, err)
		return
	}

	access.ResultCount = len(result.Entries)
	access.TotalFound = result.TotalFound
	log.SetLookup(c, access)

	if result.Partial() {
		l.Warn().Int(log.FieldTimedOutSubs, result.TimedOutSubQueries).Msg("partial search results")
	}

	audit.Log(ctx, audit.Entry{
		Action:       audit.ActionFor(tok.Page, tok.CategoryCode),
		Source:       "api",
		TenantID:     tenantID,
		UserID:       middleware.GetUserID(c),
		Term:         tok.Term,
		CategoryCode: tok.CategoryCode,
		Page:         tok.Page,
		ResultCount:  len(result.Entries),
		TotalFound:   result.TotalFound,
	}, "directory searched")

	response.Success(c, domain.NewSearchResponse(tok.Page, result))
}

// Preview returns the chat message a lookup would produce.
func (h *Handler) Preview(c *gin.Context) {
	ctx := c.Request.Context()

	var q domain.DirectoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	tok := lookup.ParseText(q.Query)
	if q.Page > 1 {
		tok.Page = q.Page
	}

	access := log.LookupFields{Term: tok.Term, CategoryCode: tok.CategoryCode, Page: tok.Page}
	msg, res, err := h.previewer.Lookup(ctx, lookup.Request{
		TenantID: middleware.GetTenantID(c),
		UserID:   middleware.GetUserID(c),
		Source:   "api",
		Token:    tok,
	})
	if res != nil {
		access.ResultCount = len(res.Entries)
		access.TotalFound = res.TotalFound
	}
	log.SetLookup(c, access)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			msg = lookup.ErrorReply(err, tok)
		} else {
			h.writeSearchError(c, err)
			return
		}
	}

	wire, err := msg.Wire()
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Msg("failed to encode preview")
		response.InternalError(c, "failed to build preview")
		return
	}

	response.Success(c, gin.H{
		"kind":         msg.Kind,
		"has_sentinel": msg.HasSentinel,
		"fallback":     msg.Fallback,
		"bytes":        msg.Size(),
		"message":      wire,
	})
}

// ListCategories returns every category.
func (h *Handler) ListCategories(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	categories, err := h.directory.Categories(ctx)
	if err != nil {
		l.Error().Err(err).Msg("list categories failed")
		response.InternalError(c, "failed to list categories")
		return
	}

	response.Success(c, categories)
}

func (h *Handler) writeSearchError(c *gin.Context, err error) {
	l := log.Ctx(c.Request.Context())

	switch {
	case errors.Is(err, domain.ErrEmptyQuery):
		response.EmptyQuery(c, "query is required")
	case errors.Is(err, domain.ErrTenantNotResolvable):
		response.NotFound(c, "no directory for tenant")
	case errors.Is(err, domain.ErrHardTimeout):
		l.Warn().Err(err).Msg("search timed out")
		response.SearchTimeout(c, "search timed out, please retry")
	default:
		l.Error().Err(err).Msg("search failed")
		response.InternalError(c, "search failed")
	}
}
