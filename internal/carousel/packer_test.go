package carousel

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-directory/internal/card"
	"github.com/weiawesome/wes-directory/internal/domain"
	"github.com/weiawesome/wes-directory/internal/pagination"
)

// fakeRenderer emits cards of a fixed padded size and records sentinels.
type fakeRenderer struct {
	cardBytes int
	sentinels []card.Sentinel
}

func (f *fakeRenderer) Render(ctx context.Context, e *domain.Entry, categories domain.CategoryIndex) (json.RawMessage, error) {
	pad := f.cardBytes - len(`{"id":"","pad":""}`) - len(e.ID)
	if pad < 0 {
		pad = 0
	}
	return json.Marshal(map[string]string{"id": e.ID, "pad": strings.Repeat("x", pad)})
}

func (f *fakeRenderer) RenderSentinel(s card.Sentinel) (json.RawMessage, error) {
	f.sentinels = append(f.sentinels, s)
	return json.Marshal(map[string]interface{}{"sentinel": true, "remaining": s.Remaining})
}

func entries(n int) []*domain.Entry {
	out := make([]*domain.Entry, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, &domain.Entry{
			ID:       fmt.Sprintf("e%d", i),
			Name:     fmt.Sprintf("สมชาย %d", i),
			Nickname: "ชาย",
			Position: "Engineer",
			Company:  "Acme",
		})
	}
	return out
}

func newPacker(t *testing.T, r CardRenderer) *Packer {
	t.Helper()
	p, err := NewPacker(r, Config{ViewAllBaseURL: "https://directory.example.com/search"})
	require.NoError(t, err)
	return p
}

func TestPack_NeverExceedsCap(t *testing.T) {
	p := newPacker(t, &fakeRenderer{cardBytes: 200})
	opCap := p.Config().OperatingCap

	for n := 1; n <= 3*opCap; n++ {
		for _, hasMore := range []bool{false, true} {
			msg := p.Pack(context.Background(), entries(n), hasMore, n+10, Context{Term: "x", Page: 1})
			if n == 1 && !hasMore {
				continue
			}
			require.Equal(t, domain.KindCarousel, msg.Kind, "n=%d hasMore=%v", n, hasMore)
			assert.LessOrEqual(t, len(msg.Cards), opCap)

			if n >= opCap || (hasMore && n >= opCap-1) {
				assert.Len(t, msg.Cards, opCap, "n=%d hasMore=%v", n, hasMore)
				assert.True(t, msg.HasSentinel)
				sentinels := 0
				for _, c := range msg.Cards {
					if strings.Contains(string(c), `"sentinel":true`) {
						sentinels++
					}
				}
				assert.Equal(t, 1, sentinels)
			}
			if !hasMore && n < opCap {
				assert.False(t, msg.HasSentinel)
				assert.Len(t, msg.Cards, n)
			}
		}
	}
}

func TestPack_SizeBudgetFallback(t *testing.T) {
	p := newPacker(t, &fakeRenderer{cardBytes: DefaultMaxMessageBytes / (DefaultOperatingCap - 1)})

	msg := p.Pack(context.Background(), entries(6), true, 40, Context{Term: "สมชาย", Page: 1})

	assert.Equal(t, domain.KindText, msg.Kind)
	assert.True(t, msg.Fallback)
	assert.Less(t, utf8.RuneCountInString(msg.Text), DefaultTextLimit)
	assert.Less(t, len(msg.Text), DefaultTextLimit)
	assert.Contains(t, msg.Text, "(แสดง 5 จาก 40)")
}

func TestPack_PlainTextFormat(t *testing.T) {
	p := newPacker(t, &fakeRenderer{cardBytes: 30000})

	list := entries(2)
	list[1].Nickname = ""
	list[1].Company = ""
	msg := p.Pack(context.Background(), list, true, 12, Context{Term: "สมชาย", Page: 1})

	want := "พบ 12 คน:\n\n" +
		"1. สมชาย 0 (ชาย)\n   Engineer | Acme\n\n" +
		"2. สมชาย 1\n   Engineer\n\n" +
		"(แสดง 2 จาก 12)\n\n" +
		"ดูทั้งหมด: https://directory.example.com/search?q=%E0%B8%AA%E0%B8%A1%E0%B8%8A%E0%B8%B2%E0%B8%A2"
	assert.Equal(t, want, msg.Text)
}

func TestPack_PlainTextWorstCaseStaysUnderLimit(t *testing.T) {
	p, err := NewPacker(&fakeRenderer{cardBytes: 20000}, Config{ViewAllBaseURL: "https://x.example.com/" + strings.Repeat("p", 900)})
	require.NoError(t, err)

	long := strings.Repeat("ก", 5000)
	list := make([]*domain.Entry, 0, 6)
	for i := 0; i < 6; i++ {
		list = append(list, &domain.Entry{ID: fmt.Sprint(i), Name: long, Nickname: long, Position: long, Company: long})
	}

	msg := p.Pack(context.Background(), list, true, 1<<30, Context{Term: strings.Repeat("ข", 3000), Page: 1})
	require.Equal(t, domain.KindText, msg.Kind)
	assert.LessOrEqual(t, utf8.RuneCountInString(msg.Text), plainTextBound(p.Config()))
	assert.Less(t, utf8.RuneCountInString(msg.Text), DefaultTextLimit)
	assert.NotContains(t, msg.Text, "ดูทั้งหมด:")
}

func TestPack_SingleMatch(t *testing.T) {
	p := newPacker(t, &fakeRenderer{cardBytes: 200})

	msg := p.Pack(context.Background(), entries(1), false, 1, Context{Term: "x", Page: 1, AllowSingle: true})
	assert.Equal(t, domain.KindCard, msg.Kind)
	assert.Len(t, msg.Cards, 1)
	assert.False(t, msg.HasSentinel)

	wire, err := msg.Wire()
	require.NoError(t, err)
	assert.Equal(t, "flex", wire["type"])

	withMore := p.Pack(context.Background(), entries(1), true, 7, Context{Term: "x", Page: 1, AllowSingle: true})
	assert.Equal(t, domain.KindCarousel, withMore.Kind)
	assert.True(t, withMore.HasSentinel)
}

func TestPack_SomchaiScenario(t *testing.T) {
	r := &fakeRenderer{cardBytes: 300}
	p := newPacker(t, r)
	ctx := context.Background()
	pageSize := p.Config().PageSize()
	require.Equal(t, 6, pageSize)

	all := entries(9)

	page1 := p.Pack(ctx, all[:pageSize], true, 9, Context{Term: "สมชาย", Page: 1, Offset: 0, AllowSingle: true})
	require.Equal(t, domain.KindCarousel, page1.Kind)
	assert.Len(t, page1.Cards, 7)
	assert.True(t, page1.HasSentinel)

	require.Len(t, r.sentinels, 1)
	s := r.sentinels[0]
	assert.Equal(t, 3, s.Remaining)
	assert.Equal(t, 9, s.Total)
	assert.Equal(t, "สมชาย", s.Label)
	assert.NotEmpty(t, s.ViewAllURL)
	assert.Equal(t, pagination.Token{Page: 2, Term: "สมชาย"}, pagination.Decode(s.NextPageData))
	assert.Equal(t, `หน้า 1: พบ 9 รายการสำหรับ "สมชาย"`, page1.AltText)

	page2 := p.Pack(ctx, all[pageSize:], false, 9, Context{Term: "สมชาย", Page: 2, Offset: pageSize, AllowSingle: true})
	require.Equal(t, domain.KindCarousel, page2.Kind)
	assert.Len(t, page2.Cards, 3)
	assert.False(t, page2.HasSentinel)
	assert.Len(t, r.sentinels, 1)
}

func TestPack_CategorySentinel(t *testing.T) {
	r := &fakeRenderer{cardBytes: 300}
	p := newPacker(t, r)

	p.Pack(context.Background(), entries(6), true, 20, Context{CategoryCode: "IT", CategoryLabel: "ไอที", Page: 2, Offset: 6})

	require.Len(t, r.sentinels, 1)
	s := r.sentinels[0]
	assert.Equal(t, 8, s.Remaining)
	assert.Equal(t, "ไอที", s.Label)
	assert.Equal(t, "https://directory.example.com/search?category=IT", s.ViewAllURL)
	assert.Equal(t, pagination.Token{Page: 3, CategoryCode: "IT"}, pagination.Decode(s.NextPageData))
}

func TestNewPacker_RejectsBadLimits(t *testing.T) {
	_, err := NewPacker(&fakeRenderer{}, Config{OperatingCap: 1})
	assert.Error(t, err)

	_, err = NewPacker(&fakeRenderer{}, Config{MaxMessageBytes: 100, SafetyMarginBytes: 100})
	assert.Error(t, err)

	_, err = NewPacker(&fakeRenderer{}, Config{PreviewCount: 50})
	assert.Error(t, err)
}

func TestConfig_HardCapBoundsOperatingCap(t *testing.T) {
	p, err := NewPacker(&fakeRenderer{}, Config{OperatingCap: 20, HardCap: 12})
	require.NoError(t, err)
	assert.Equal(t, 11, p.Config().PageSize())
}
