// Package lookup ties search, packing and delivery together for one request.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/weiawesome/wes-directory/internal/audit"
	"github.com/weiawesome/wes-directory/internal/carousel"
	"github.com/weiawesome/wes-directory/internal/category"
	"github.com/weiawesome/wes-directory/internal/delivery"
	"github.com/weiawesome/wes-directory/internal/domain"
	"github.com/weiawesome/wes-directory/internal/pagination"
	"github.com/weiawesome/wes-directory/internal/repository"
	"github.com/weiawesome/wes-directory/internal/service"
	"github.com/weiawesome/wes-directory/pkg/log"
)

// User-facing replies for lookups that produce no cards.
const (
	EmptyQueryText = "กรุณาพิมพ์ชื่อ ชื่อเล่น บริษัท หรือตำแหน่งที่ต้องการค้นหา\nหรือพิมพ์ #รหัสหมวด เพื่อดูตามหมวด"
	NotFoundText   = "ไม่พบรายชื่อที่ตรงกับ \"%s\"\nลองค้นหาด้วยคำอื่น เช่น ชื่อเล่น ชื่อภาษาอังกฤษ หรือชื่อบริษัท"
	TimeoutText    = "ระบบค้นหาใช้เวลานานเกินไป กรุณาลองใหม่อีกครั้ง"
)

// Request is one lookup: a decoded token inside a trusted tenant.
type Request struct {
	TenantID string
	UserID   string
	Source   string
	Token    pagination.Token
}

// Event is one chat event asking for a lookup.
type Event struct {
	Destination string
	UserID      string
	Token       pagination.Token
	Target      delivery.Target
}

// Flow runs lookups and turns their outcome into a reply.
type Flow struct {
	search   service.DirectoryService
	resolver *category.Resolver
	packer   *carousel.Packer
	tenants  repository.TenantRepository
	replier  *delivery.Replier
}

// NewFlow creates a new lookup flow.
func NewFlow(
	search service.DirectoryService,
	resolver *category.Resolver,
	packer *carousel.Packer,
	tenants repository.TenantRepository,
	replier *delivery.Replier,
) *Flow {
	return &Flow{
		search:   search,
		resolver: resolver,
		packer:   packer,
		tenants:  tenants,
		replier:  replier,
	}
}

// Lookup searches one page and packs it. Zero matches is ErrNotFound.
func (f *Flow) Lookup(ctx context.Context, req Request) (*domain.OutgoingMessage, *domain.SearchResult, error) {
	tok := req.Token
	if tok.Page < 1 {
		tok.Page = 1
	}
	pageSize := f.packer.Config().PageSize()
	offset := pagination.Offset(tok.Page, pageSize)

	res, err := f.search.Search(ctx, &domain.SearchRequest{
		TenantID:     req.TenantID,
		Term:         tok.Term,
		CategoryCode: tok.CategoryCode,
		Offset:       offset,
		Limit:        pageSize,
	})
	if err != nil {
		return nil, nil, err
	}

	audit.Log(ctx, audit.Entry{
		Action:       audit.ActionFor(tok.Page, tok.CategoryCode),
		Source:       req.Source,
		TenantID:     req.TenantID,
		UserID:       req.UserID,
		Term:         tok.Term,
		CategoryCode: tok.CategoryCode,
		Page:         tok.Page,
		ResultCount:  len(res.Entries),
		TotalFound:   res.TotalFound,
	}, "directory lookup")

	if len(res.Entries) == 0 {
		return nil, res, domain.ErrNotFound
	}

	categories := f.resolver.Index(ctx)
	pc := carousel.Context{
		Term:          tok.Term,
		CategoryCode:  tok.CategoryCode,
		CategoryLabel: categories.Label(tok.CategoryCode),
		Categories:    categories,
		Page:          tok.Page,
		Offset:        offset,
		AllowSingle:   true,
	}

	return f.packer.Pack(ctx, res.Entries, res.HasMore, res.TotalFound, pc), res, nil
}

// Reply resolves the event's tenant, runs the lookup and delivers the result
// or a user-facing error reply. Every error is logged; the returned error is
// informational only.
func (f *Flow) Reply(ctx context.Context, ev Event) error {
	l := log.Ctx(ctx)

	msg, err := f.replyMessage(ctx, ev)
	if err != nil {
		evt := l.Info()
		if !isUserError(err) {
			evt = l.Error()
		}
		evt.Err(err).
			Str(log.FieldTerm, ev.Token.Term).
			Str(log.FieldCategory, ev.Token.CategoryCode).
			Int(log.FieldPage, ev.Token.Page).
			Msg("lookup produced no results")
	}

	l.Debug().
		Str(log.FieldMessageKind, string(msg.Kind)).
		Int(log.FieldMessageBytes, msg.Size()).
		Msg("sending reply")

	return f.replier.Send(ctx, ev.Target, msg)
}

func (f *Flow) replyMessage(ctx context.Context, ev Event) (*domain.OutgoingMessage, error) {
	tenant, err := f.tenants.GetByDestination(ctx, ev.Destination)
	if err != nil {
		if errors.Is(err, repository.ErrTenantNotFound) {
			err = fmt.Errorf("%w: %s", domain.ErrTenantNotResolvable, ev.Destination)
		}
		return ErrorReply(err, ev.Token), err
	}

	msg, _, err := f.Lookup(log.WithFields(ctx, log.FieldTenantID, tenant.ID), Request{
		TenantID: tenant.ID,
		UserID:   ev.UserID,
		Source:   "webhook",
		Token:    ev.Token,
	})
	if err != nil {
		return ErrorReply(err, ev.Token), err
	}
	return msg, nil
}

// ErrorReply maps a lookup error to the text the user sees.
func ErrorReply(err error, tok pagination.Token) *domain.OutgoingMessage {
	switch {
	case errors.Is(err, domain.ErrEmptyQuery):
		return domain.NewTextMessage(EmptyQueryText)
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrTenantNotResolvable):
		label := tok.Term
		if tok.IsCategory() {
			label = "#" + tok.CategoryCode
		}
		return domain.NewTextMessage(fmt.Sprintf(NotFoundText, label))
	case errors.Is(err, domain.ErrHardTimeout):
		return domain.NewTextMessage(TimeoutText)
	default:
		return domain.NewTextMessage(delivery.ApologyText)
	}
}

func isUserError(err error) bool {
	return errors.Is(err, domain.ErrEmptyQuery) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrTenantNotResolvable)
}

// ParseText turns a chat message into a page-1 lookup. "#CODE" browses a
// category; anything else is a free-text term.
func ParseText(text string) pagination.Token {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "#") {
		code := strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(text, "#")))
		if code != "" && !strings.ContainsAny(code, " \t\n") {
			return pagination.Token{Page: 1, CategoryCode: code}
		}
	}
	return pagination.Token{Page: 1, Term: text}
}
