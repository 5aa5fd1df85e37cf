package carousel

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/weiawesome/wes-directory/internal/domain"
)

const (
	// maxFieldRunes caps every entry field in the text list.
	maxFieldRunes = 60
	// maxLinkRunes caps the "see all" URL; longer links are left out.
	maxLinkRunes = 1000
	// maxCountDigits bounds the width of a rendered count.
	maxCountDigits = 10
)

// plainTextBound is the largest text plainText can produce, in runes.
func plainTextBound(cfg Config) int {
	header := utf8.RuneCountInString("พบ  คน:\n\n") + maxCountDigits
	perEntry := maxCountDigits + len(". ") + maxFieldRunes + len(" ()") + maxFieldRunes +
		len("\n   ") + maxFieldRunes + len(" | ") + maxFieldRunes + len("\n\n")
	footer := len("\n\n") + utf8.RuneCountInString("(แสดง  จาก )") + 2*maxCountDigits +
		len("\n\n") + utf8.RuneCountInString("ดูทั้งหมด: ") + maxLinkRunes
	return header + cfg.PreviewCount*perEntry + footer
}

// plainText renders the last-resort numbered list. Its size is bounded by
// construction (fixed preview count, capped fields) so it never needs measuring.
func (p *Packer) plainText(pc Context, entries []*domain.Entry, total int) *domain.OutgoingMessage {
	preview := entries
	if len(preview) > p.cfg.PreviewCount {
		preview = preview[:p.cfg.PreviewCount]
	}

	blocks := make([]string, 0, len(preview))
	for i, e := range preview {
		var sb strings.Builder
		fmt.Fprintf(&sb, "%d. %s", pc.Offset+i+1, clip(e.Name))
		if e.Nickname != "" {
			fmt.Fprintf(&sb, " (%s)", clip(e.Nickname))
		}
		if line := joinFields(clip(e.Position), clip(e.Company)); line != "" {
			sb.WriteString("\n   " + line)
		}
		blocks = append(blocks, sb.String())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "พบ %d คน:\n\n", total)
	sb.WriteString(strings.Join(blocks, "\n\n"))

	shown := len(preview)
	if pc.Offset+shown < total {
		fmt.Fprintf(&sb, "\n\n(แสดง %d จาก %d)", shown, total)
		if link := p.ViewAllURL(pc); link != "" && utf8.RuneCountInString(link) <= maxLinkRunes {
			sb.WriteString("\n\nดูทั้งหมด: " + link)
		}
	}

	return &domain.OutgoingMessage{
		Kind:     domain.KindText,
		Text:     sb.String(),
		Fallback: true,
	}
}

func clip(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= maxFieldRunes {
		return s
	}
	return string([]rune(s)[:maxFieldRunes-1]) + "…"
}

func joinFields(position, company string) string {
	switch {
	case position != "" && company != "":
		return position + " | " + company
	case position != "":
		return position
	default:
		return company
	}
}
