// Package card renders directory entries as flex bubbles.
package card

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/weiawesome/wes-directory/internal/domain"
	"github.com/weiawesome/wes-directory/pkg/log"
	"github.com/weiawesome/wes-directory/pkg/storage"
)

const (
	maxNameRunes    = 80
	maxLineRunes    = 120
	maxLabelRunes   = 60
	defaultPhotoTTL = 24 * time.Hour
	shareURLPrefix  = "https://line.me/R/share?text="
)

// Config holds card rendering options.
type Config struct {
	ShareEnabled bool          `mapstructure:"share_enabled"`
	PhotoURLTTL  time.Duration `mapstructure:"photo_url_ttl"`
}

// Renderer turns entries into opaque bubble JSON.
type Renderer struct {
	photos storage.URLSigner
	cfg    Config
}

// NewRenderer creates a renderer. photos may be nil.
func NewRenderer(photos storage.URLSigner, cfg Config) *Renderer {
	if cfg.PhotoURLTTL <= 0 {
		cfg.PhotoURLTTL = defaultPhotoTTL
	}
	return &Renderer{photos: photos, cfg: cfg}
}

// Render renders one entry, labelling its category from categories. A photo
// that cannot be resolved is left out.
func (r *Renderer) Render(ctx context.Context, e *domain.Entry, categories domain.CategoryIndex) (json.RawMessage, error) {
	var hero map[string]interface{}
	if u := r.photoURL(ctx, e); u != "" {
		hero = map[string]interface{}{
			"type":        "image",
			"url":         u,
			"size":        "full",
			"aspectRatio": "1:1",
			"aspectMode":  "cover",
		}
	}

	title := e.Name
	if title == "" {
		title = "-"
	}
	if e.Nickname != "" {
		title += " (" + e.Nickname + ")"
	}
	body := []interface{}{textNode(truncateRunes(title, maxNameRunes), "lg", "bold", "#111111")}
	if e.NameEN != "" {
		body = append(body, textNode(truncateRunes(e.NameEN, maxNameRunes), "sm", "regular", "#666666"))
	}
	if line := joinNonEmpty(" | ", e.Position, e.Company); line != "" {
		body = append(body, textNode(truncateRunes(line, maxLineRunes), "sm", "regular", "#555555"))
	}
	if e.Tagline != "" {
		body = append(body, textNode(truncateRunes(e.Tagline, maxLineRunes), "xs", "regular", "#999999"))
	}
	if label := categories.Label(e.CategoryCode); label != "" {
		body = append(body, textNode(truncateRunes(label, maxLabelRunes), "xs", "bold", "#1DB446"))
	}

	var footer []interface{}
	if e.Phone != "" {
		footer = append(footer, button("link", map[string]interface{}{
			"type": "uri", "label": "โทร", "uri": "tel:" + strings.ReplaceAll(e.Phone, " ", ""),
		}))
	}
	if e.Email != "" {
		footer = append(footer, button("link", map[string]interface{}{
			"type": "uri", "label": "อีเมล", "uri": "mailto:" + e.Email,
		}))
	}
	if r.cfg.ShareEnabled {
		footer = append(footer, button("link", map[string]interface{}{
			"type": "uri", "label": "แชร์", "uri": shareURLPrefix + url.QueryEscape(shareText(e)),
		}))
	}

	return json.Marshal(bubble(hero, body, footer))
}

func (r *Renderer) photoURL(ctx context.Context, e *domain.Entry) string {
	if e.PhotoKey == "" || r.photos == nil {
		return ""
	}
	u, err := r.photos.GetURL(ctx, e.PhotoKey, r.cfg.PhotoURLTTL)
	if err != nil {
		l := log.Ctx(ctx)
		l.Debug().Err(err).Str("photo_key", e.PhotoKey).Msg("photo url unavailable")
		return ""
	}
	return u
}

func shareText(e *domain.Entry) string {
	return joinNonEmpty("\n", e.Name, joinNonEmpty(" | ", e.Position, e.Company), e.Phone, e.Email)
}

func bubble(hero map[string]interface{}, body, footer []interface{}) map[string]interface{} {
	b := map[string]interface{}{
		"type": "bubble",
		"size": "kilo",
		"body": map[string]interface{}{
			"type":     "box",
			"layout":   "vertical",
			"spacing":  "sm",
			"contents": body,
		},
	}
	if hero != nil {
		b["hero"] = hero
	}
	if len(footer) > 0 {
		b["footer"] = map[string]interface{}{
			"type":     "box",
			"layout":   "vertical",
			"spacing":  "sm",
			"contents": footer,
		}
	}
	return b
}

func textNode(text, size, weight, color string) map[string]interface{} {
	return map[string]interface{}{
		"type":   "text",
		"text":   text,
		"size":   size,
		"weight": weight,
		"color":  color,
		"wrap":   true,
	}
}

func button(style string, action map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"type":   "button",
		"style":  style,
		"height": "sm",
		"action": action,
	}
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// truncateRunes shortens s to at most n runes, marking the cut with an ellipsis.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-1]) + "…"
}
