package delivery

import (
	"context"

	"github.com/weiawesome/wes-directory/internal/domain"
)

// Target addresses one reply. ReplyToken answers an inbound event; To pushes
// to a channel user id and is used when there is no (or no longer a) token.
type Target struct {
	ReplyToken string `json:"reply_token,omitempty"`
	To         string `json:"to,omitempty"`
}

// String identifies the target in logs without exposing the reply token.
func (t Target) String() string {
	if t.To != "" {
		return "push:" + t.To
	}
	if t.ReplyToken != "" {
		return "reply"
	}
	return "none"
}

// Deliverer sends one message in a single attempt.
type Deliverer interface {
	Deliver(ctx context.Context, target Target, msg *domain.OutgoingMessage) error
}

// Config selects the delivery driver.
type Config struct {
	Driver string `mapstructure:"driver"` // "push", "queue"
	Topic  string `mapstructure:"topic"`
}
