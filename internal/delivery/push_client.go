package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/weiawesome/wes-directory/internal/domain"
)

const (
	replyPath = "/v2/bot/message/reply"
	pushPath  = "/v2/bot/message/push"
)

var ErrNoTarget = errors.New("delivery target has neither reply token nor recipient")

// ChannelConfig holds messaging API settings.
type ChannelConfig struct {
	APIBaseURL    string        `mapstructure:"api_base_url"`
	AccessToken   string        `mapstructure:"access_token"`
	ChannelSecret string        `mapstructure:"channel_secret"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// PushClient delivers messages through the channel messaging API.
type PushClient struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

// NewPushClient creates a new messaging API client.
func NewPushClient(cfg ChannelConfig) *PushClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &PushClient{
		baseURL:     strings.TrimSuffix(cfg.APIBaseURL, "/"),
		accessToken: cfg.AccessToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type messageRequest struct {
	ReplyToken string        `json:"replyToken,omitempty"`
	To         string        `json:"to,omitempty"`
	Messages   []interface{} `json:"messages"`
}

// Deliver sends msg once. Non-2xx responses are errors.
func (c *PushClient) Deliver(ctx context.Context, target Target, msg *domain.OutgoingMessage) error {
	wire, err := msg.Wire()
	if err != nil {
		return fmt.Errorf("failed to build message: %w", err)
	}

	body := messageRequest{Messages: []interface{}{wire}}
	path := pushPath
	switch {
	case target.ReplyToken != "":
		body.ReplyToken = target.ReplyToken
		path = replyPath
	case target.To != "":
		body.To = target.To
	default:
		return ErrNoTarget
	}

	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("messaging api returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}
