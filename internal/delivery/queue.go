package delivery

import (
	"context"
	"fmt"

	"github.com/weiawesome/wes-directory/internal/domain"
	"github.com/weiawesome/wes-directory/pkg/pubsub"
)

// EventTypeReply is the event type of queued replies.
const EventTypeReply = "directory.reply"

// QueuedReply is the payload an external dispatcher sends on our behalf.
type QueuedReply struct {
	Target  Target                 `json:"target"`
	Kind    domain.MessageKind     `json:"kind"`
	Message map[string]interface{} `json:"message"`
}

// QueueDeliverer hands replies to a dispatcher through the event bus.
type QueueDeliverer struct {
	publisher pubsub.Publisher
	topic     string
}

// NewQueueDeliverer creates a deliverer publishing to topic.
func NewQueueDeliverer(publisher pubsub.Publisher, topic string) *QueueDeliverer {
	return &QueueDeliverer{publisher: publisher, topic: topic}
}

// Deliver publishes msg once, keyed by recipient so one user's replies stay ordered.
func (q *QueueDeliverer) Deliver(ctx context.Context, target Target, msg *domain.OutgoingMessage) error {
	if target.ReplyToken == "" && target.To == "" {
		return ErrNoTarget
	}

	wire, err := msg.Wire()
	if err != nil {
		return fmt.Errorf("failed to build message: %w", err)
	}

	key := target.To
	if key == "" {
		key = target.ReplyToken
	}

	event, err := pubsub.NewEvent(EventTypeReply, key, QueuedReply{
		Target:  target,
		Kind:    msg.Kind,
		Message: wire,
	})
	if err != nil {
		return fmt.Errorf("failed to build event: %w", err)
	}

	return q.publisher.Publish(ctx, q.topic, event)
}
