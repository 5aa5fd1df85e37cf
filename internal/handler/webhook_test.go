package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-directory/internal/cache"
	"github.com/weiawesome/wes-directory/internal/lookup"
	"github.com/weiawesome/wes-directory/internal/pagination"
)

const testSecret = "channel-secret"

type recordingReplier struct {
	mu     sync.Mutex
	events []lookup.Event
}

func (r *recordingReplier) Reply(ctx context.Context, ev lookup.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

type memoryDeduper struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func (d *memoryDeduper) MarkSeen(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen[id] {
		return false, nil
	}
	d.seen[id] = true
	return true, nil
}

func (d *memoryDeduper) Close() error { return nil }

func postWebhook(r *gin.Engine, body, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(body))
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func setupWebhook(replier Replier, deduper *memoryDeduper) (*gin.Engine, *WebhookHandler) {
	gin.SetMode(gin.TestMode)
	var d cache.EventDeduper
	if deduper != nil {
		d = deduper
	}
	h := NewWebhookHandler(replier, d, WebhookConfig{ChannelSecret: testSecret})
	r := gin.New()
	h.RegisterRoutes(r)
	return r, h
}

func TestSignature(t *testing.T) {
	body := []byte(`{"events":[]}`)
	sig := Sign(testSecret, body)

	assert.True(t, ValidSignature(testSecret, body, sig))
	assert.False(t, ValidSignature("other", body, sig))
	assert.False(t, ValidSignature(testSecret, []byte(`{"events":[1]}`), sig))
	assert.False(t, ValidSignature(testSecret, body, "%%%"))
	assert.False(t, ValidSignature("", body, sig))
}

func TestWebhook_RejectsBadSignature(t *testing.T) {
	rep := &recordingReplier{}
	r, h := setupWebhook(rep, nil)

	w := postWebhook(r, `{"destination":"Ubot","events":[]}`, "bm9wZQ==")
	h.Wait()

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, rep.events)
}

func TestWebhook_DispatchesTextAndPagingEvents(t *testing.T) {
	rep := &recordingReplier{}
	r, h := setupWebhook(rep, nil)

	next := pagination.Encode(pagination.Token{Page: 2, Term: "สมชาย"})
	body := `{"destination":"Ubot","events":[
		{"type":"message","webhookEventId":"e1","replyToken":"rt1","source":{"type":"user","userId":"U1"},"message":{"type":"text","text":" #it "}},
		{"type":"postback","webhookEventId":"e2","replyToken":"rt2","source":{"type":"user","userId":"U2"},"postback":{"data":"` + next + `"}},
		{"type":"postback","webhookEventId":"e3","replyToken":"rt3","source":{"type":"user","userId":"U3"},"postback":{"data":"action=rsvp&id=1"}},
		{"type":"message","webhookEventId":"e4","replyToken":"rt4","source":{"type":"user","userId":"U4"},"message":{"type":"sticker"}},
		{"type":"follow","webhookEventId":"e5","replyToken":"rt5","source":{"type":"user","userId":"U5"}}
	]}`

	w := postWebhook(r, body, Sign(testSecret, []byte(body)))
	h.Wait()

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, rep.events, 2)

	byUser := map[string]lookup.Event{}
	for _, ev := range rep.events {
		byUser[ev.UserID] = ev
	}

	text := byUser["U1"]
	assert.Equal(t, "Ubot", text.Destination)
	assert.Equal(t, "IT", text.Token.CategoryCode)
	assert.Equal(t, "rt1", text.Target.ReplyToken)
	assert.Equal(t, "U1", text.Target.To)

	page := byUser["U2"]
	assert.Equal(t, 2, page.Token.Page)
	assert.Equal(t, "สมชาย", page.Token.Term)
}

func TestWebhook_SkipsRedeliveredEvents(t *testing.T) {
	rep := &recordingReplier{}
	r, h := setupWebhook(rep, &memoryDeduper{seen: map[string]bool{}})

	body := `{"destination":"Ubot","events":[{"type":"message","webhookEventId":"dup","replyToken":"rt","source":{"userId":"U1"},"message":{"type":"text","text":"Wipa"}}]}`
	sig := Sign(testSecret, []byte(body))

	postWebhook(r, body, sig)
	h.Wait()
	postWebhook(r, body, sig)
	h.Wait()

	assert.Len(t, rep.events, 1)
}

type mockDeduper struct {
	mock.Mock
}

func (m *mockDeduper) MarkSeen(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, id, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *mockDeduper) Close() error { return nil }

func TestWebhook_DedupeOutageStillProcesses(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rep := &recordingReplier{}
	d := &mockDeduper{}
	d.On("MarkSeen", mock.Anything, "x", 10*time.Minute).Return(false, errors.New("redis down")).Once()

	h := NewWebhookHandler(rep, d, WebhookConfig{ChannelSecret: testSecret})
	r := gin.New()
	h.RegisterRoutes(r)

	body := `{"destination":"Ubot","events":[{"type":"message","webhookEventId":"x","replyToken":"rt","source":{"userId":"U1"},"message":{"type":"text","text":"Wipa"}}]}`
	w := postWebhook(r, body, Sign(testSecret, []byte(body)))
	h.Wait()

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, rep.events, 1)
	d.AssertExpectations(t)
}

func TestWebhook_MalformedPayload(t *testing.T) {
	r, _ := setupWebhook(&recordingReplier{}, nil)
	body := `{"events":`
	w := postWebhook(r, body, Sign(testSecret, []byte(body)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
