package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/wes-directory/internal/cache"
	"github.com/weiawesome/wes-directory/internal/delivery"
	"github.com/weiawesome/wes-directory/internal/lookup"
	"github.com/weiawesome/wes-directory/internal/pagination"
	"github.com/weiawesome/wes-directory/pkg/log"
	"github.com/weiawesome/wes-directory/pkg/response"
)

// Replier answers one chat event.
type Replier interface {
	Reply(ctx context.Context, ev lookup.Event) error
}

// WebhookConfig holds webhook settings.
type WebhookConfig struct {
	ChannelSecret string        `mapstructure:"channel_secret"`
	EventTimeout  time.Duration `mapstructure:"event_timeout"`
	DedupeTTL     time.Duration `mapstructure:"dedupe_ttl"`
	MaxBodyBytes  int64         `mapstructure:"max_body_bytes"`
}

type webhookPayload struct {
	Destination string         `json:"destination"`
	Events      []webhookEvent `json:"events"`
}

type webhookEvent struct {
	Type           string `json:"type"`
	WebhookEventID string `json:"webhookEventId"`
	ReplyToken     string `json:"replyToken"`
	Source         struct {
		Type   string `json:"type"`
		UserID string `json:"userId"`
	} `json:"source"`
	Message *struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"message,omitempty"`
	Postback *struct {
		Data string `json:"data"`
	} `json:"postback,omitempty"`
}

// WebhookHandler receives chat platform callbacks.
type WebhookHandler struct {
	replier Replier
	deduper cache.EventDeduper
	config  WebhookConfig
	wg      sync.WaitGroup
}

// NewWebhookHandler creates a new webhook handler. deduper may be nil.
func NewWebhookHandler(replier Replier, deduper cache.EventDeduper, cfg WebhookConfig) *WebhookHandler {
	if cfg.EventTimeout <= 0 {
		cfg.EventTimeout = 10 * time.Second
	}
	if cfg.DedupeTTL <= 0 {
		cfg.DedupeTTL = 10 * time.Minute
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	return &WebhookHandler{
		replier: replier,
		deduper: deduper,
		config:  cfg,
	}
}

// RegisterRoutes registers the webhook route.
func (h *WebhookHandler) RegisterRoutes(r *gin.Engine) {
	r.POST("/webhook", h.Receive)
}

// Receive verifies the payload, acknowledges it and handles each event in
// the background.
func (h *WebhookHandler) Receive(c *gin.Context) {
	l := log.Ctx(c.Request.Context())

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, h.config.MaxBodyBytes))
	if err != nil {
		response.BadRequest(c, "failed to read body")
		return
	}

	if !ValidSignature(h.config.ChannelSecret, body, c.GetHeader(SignatureHeader)) {
		l.Warn().Msg("webhook signature mismatch")
		response.Unauthorized(c, "invalid signature")
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		l.Warn().Err(err).Msg("invalid webhook payload")
		response.BadRequest(c, "invalid payload")
		return
	}

	for _, raw := range payload.Events {
		ev, ok := toLookupEvent(payload.Destination, raw)
		if !ok {
			continue
		}
		h.wg.Add(1)
		go h.handle(context.WithoutCancel(c.Request.Context()), raw.WebhookEventID, ev)
	}

	c.Status(http.StatusOK)
}

// handle runs detached from the request: the ack is sent before the reply.
func (h *WebhookHandler) handle(parent context.Context, eventID string, ev lookup.Event) {
	defer h.wg.Done()

	ctx, cancel := context.WithTimeout(parent, h.config.EventTimeout)
	defer cancel()
	ctx = log.WithFields(ctx, log.FieldEventID, eventID, log.FieldUserID, ev.UserID)
	l := log.Ctx(ctx)

	if h.deduper != nil && eventID != "" {
		fresh, err := h.deduper.MarkSeen(ctx, eventID, h.config.DedupeTTL)
		if err != nil {
			l.Warn().Err(err).Msg("event dedupe unavailable, processing anyway")
		} else if !fresh {
			l.Debug().Msg("duplicate event skipped")
			return
		}
	}

	if err := h.replier.Reply(ctx, ev); err != nil {
		l.Debug().Err(err).Msg("event handled with error")
	}
}

// Wait blocks until in-flight events finish.
func (h *WebhookHandler) Wait() {
	h.wg.Wait()
}

// toLookupEvent keeps text messages and pagination postbacks.
func toLookupEvent(destination string, raw webhookEvent) (lookup.Event, bool) {
	ev := lookup.Event{
		Destination: destination,
		UserID:      raw.Source.UserID,
		Target: delivery.Target{
			ReplyToken: raw.ReplyToken,
			To:         raw.Source.UserID,
		},
	}

	switch raw.Type {
	case "message":
		if raw.Message == nil || raw.Message.Type != "text" {
			return ev, false
		}
		ev.Token = lookup.ParseText(raw.Message.Text)
	case "postback":
		if raw.Postback == nil || !pagination.IsToken(raw.Postback.Data) {
			return ev, false
		}
		ev.Token = pagination.Decode(raw.Postback.Data)
	default:
		return ev, false
	}
	return ev, true
}
