// Package carousel packs rendered cards into one outgoing message within the
// channel's card-count and byte-size limits.
package carousel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/weiawesome/wes-directory/internal/card"
	"github.com/weiawesome/wes-directory/internal/domain"
	"github.com/weiawesome/wes-directory/internal/pagination"
	"github.com/weiawesome/wes-directory/pkg/log"
)

// Channel limits.
const (
	DefaultOperatingCap      = 7
	DefaultHardCap           = 12
	DefaultMaxMessageBytes   = 50000
	DefaultSafetyMarginBytes = 5000
	DefaultTextLimit         = 5000
	DefaultPreviewCount      = 5
	maxAltTextRunes          = 400
)

// Config holds packing limits.
type Config struct {
	OperatingCap      int    `mapstructure:"operating_cap"`
	HardCap           int    `mapstructure:"hard_cap"`
	MaxMessageBytes   int    `mapstructure:"max_message_bytes"`
	SafetyMarginBytes int    `mapstructure:"safety_margin_bytes"`
	TextLimit         int    `mapstructure:"text_limit"`
	PreviewCount      int    `mapstructure:"preview_count"`
	ViewAllBaseURL    string `mapstructure:"view_all_base_url"`
}

// PageSize is the number of entries requested per page: one slot of the
// operating cap is kept for the sentinel card.
func (c Config) PageSize() int {
	return c.cap() - 1
}

func (c Config) cap() int {
	n := c.OperatingCap
	if c.HardCap > 0 && n > c.HardCap {
		n = c.HardCap
	}
	return n
}

// Budget is the byte size above which a carousel falls back to text.
func (c Config) Budget() int {
	return c.MaxMessageBytes - c.SafetyMarginBytes
}

// CardRenderer renders entries and the sentinel card.
type CardRenderer interface {
	Render(ctx context.Context, e *domain.Entry, categories domain.CategoryIndex) (json.RawMessage, error)
	RenderSentinel(s card.Sentinel) (json.RawMessage, error)
}

// Context describes the lookup a page belongs to.
type Context struct {
	Term          string
	CategoryCode  string
	CategoryLabel string
	// Categories labels the rendered cards; it is loaded once per page.
	Categories domain.CategoryIndex
	Page       int
	Offset     int
	// AllowSingle permits a lone result to be sent as one plain card.
	AllowSingle bool
}

// Label is the human-readable name of the lookup.
func (c Context) Label() string {
	if c.CategoryCode != "" {
		if c.CategoryLabel != "" {
			return c.CategoryLabel
		}
		return c.CategoryCode
	}
	return c.Term
}

func (c Context) token(page int) pagination.Token {
	if c.CategoryCode != "" {
		return pagination.Token{Page: page, CategoryCode: c.CategoryCode}
	}
	return pagination.Token{Page: page, Term: c.Term}
}

// Packer decides how a page of entries is presented.
type Packer struct {
	renderer CardRenderer
	cfg      Config
}

// NewPacker creates a packer, filling unset limits with channel defaults.
func NewPacker(renderer CardRenderer, cfg Config) (*Packer, error) {
	if cfg.OperatingCap == 0 {
		cfg.OperatingCap = DefaultOperatingCap
	}
	if cfg.HardCap == 0 {
		cfg.HardCap = DefaultHardCap
	}
	if cfg.MaxMessageBytes == 0 {
		cfg.MaxMessageBytes = DefaultMaxMessageBytes
	}
	if cfg.SafetyMarginBytes == 0 {
		cfg.SafetyMarginBytes = DefaultSafetyMarginBytes
	}
	if cfg.TextLimit == 0 {
		cfg.TextLimit = DefaultTextLimit
	}
	if cfg.PreviewCount == 0 {
		cfg.PreviewCount = DefaultPreviewCount
	}

	if cfg.cap() < 2 {
		return nil, fmt.Errorf("operating cap must be at least 2, got %d", cfg.cap())
	}
	if cfg.Budget() <= 0 {
		return nil, fmt.Errorf("safety margin %d leaves no message budget", cfg.SafetyMarginBytes)
	}
	if plainTextBound(cfg) > cfg.TextLimit {
		return nil, fmt.Errorf("preview count %d cannot fit text limit %d", cfg.PreviewCount, cfg.TextLimit)
	}

	return &Packer{renderer: renderer, cfg: cfg}, nil
}

// Config returns the effective limits.
func (p *Packer) Config() Config {
	return p.cfg
}

// Pack builds the outgoing message for one page of entries.
func (p *Packer) Pack(ctx context.Context, entries []*domain.Entry, hasMore bool, totalFound int, pc Context) *domain.OutgoingMessage {
	l := log.Ctx(ctx)
	if pc.Page < 1 {
		pc.Page = 1
	}
	if totalFound < pc.Offset+len(entries) {
		totalFound = pc.Offset + len(entries)
	}
	alt := altText(pc, totalFound)

	if len(entries) == 0 {
		return p.plainText(pc, entries, totalFound)
	}

	if len(entries) == 1 && pc.AllowSingle && !hasMore {
		raw, err := p.renderer.Render(ctx, entries[0], pc.Categories)
		if err == nil {
			msg := &domain.OutgoingMessage{Kind: domain.KindCard, AltText: alt, Cards: []json.RawMessage{raw}}
			if size := msg.Size(); size >= 0 && size <= p.cfg.Budget() {
				return msg
			}
		}
		l.Warn().Err(err).Msg("single card unusable, falling back to text")
		return p.plainText(pc, entries, totalFound)
	}

	limit := p.cfg.cap()
	needSentinel := len(entries) >= limit || hasMore
	selected := entries
	if needSentinel && len(selected) > limit-1 {
		selected = selected[:limit-1]
	}

	cards := make([]json.RawMessage, 0, limit)
	for _, e := range selected {
		raw, err := p.renderer.Render(ctx, e, pc.Categories)
		if err != nil {
			l.Warn().Err(err).Str("entry_id", e.ID).Msg("card render failed, falling back to text")
			return p.plainText(pc, entries, totalFound)
		}
		cards = append(cards, raw)
	}

	if needSentinel {
		raw, err := p.renderer.RenderSentinel(p.sentinel(pc, hasMore || len(entries) > len(selected), totalFound, len(selected)))
		if err != nil {
			l.Warn().Err(err).Msg("sentinel render failed, falling back to text")
			return p.plainText(pc, entries, totalFound)
		}
		cards = append(cards, raw)
	}

	msg := &domain.OutgoingMessage{
		Kind:        domain.KindCarousel,
		AltText:     alt,
		Cards:       cards,
		HasSentinel: needSentinel,
	}

	size := msg.Size()
	if size < 0 || size > p.cfg.Budget() {
		l.Warn().
			Err(domain.ErrRenderOverflow).
			Int(log.FieldMessageBytes, size).
			Int("budget_bytes", p.cfg.Budget()).
			Int(log.FieldResultCount, len(cards)).
			Msg("carousel over budget, falling back to text")
		return p.plainText(pc, entries, totalFound)
	}
	return msg
}

func (p *Packer) sentinel(pc Context, nextPage bool, total, shown int) card.Sentinel {
	remaining := total - (pc.Offset + shown)
	if remaining < 0 {
		remaining = 0
	}
	s := card.Sentinel{
		Remaining:  remaining,
		Total:      total,
		Label:      pc.Label(),
		ViewAllURL: p.ViewAllURL(pc),
	}
	if nextPage {
		s.NextPageData = pagination.Encode(pc.token(pc.Page + 1))
	}
	return s
}

// ViewAllURL links to the full result list on the external directory site.
func (p *Packer) ViewAllURL(pc Context) string {
	base := strings.TrimSpace(p.cfg.ViewAllBaseURL)
	if base == "" {
		return ""
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	if pc.CategoryCode != "" {
		return base + sep + "category=" + url.QueryEscape(pc.CategoryCode)
	}
	return base + sep + "q=" + url.QueryEscape(pc.Term)
}

func altText(pc Context, total int) string {
	s := fmt.Sprintf("หน้า %d: พบ %d รายการสำหรับ \"%s\"", pc.Page, total, pc.Label())
	if utf8.RuneCountInString(s) > maxAltTextRunes {
		s = string([]rune(s)[:maxAltTextRunes-1]) + "…"
	}
	return s
}
