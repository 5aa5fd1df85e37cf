package domain

import (
	"encoding/json"
	"fmt"
)

// MessageKind identifies the shape of an outgoing reply.
type MessageKind string

const (
	KindCard     MessageKind = "card"
	KindCarousel MessageKind = "carousel"
	KindText     MessageKind = "text"
)

// OutgoingMessage is one reply ready for delivery. Cards are opaque rendered
// bubbles; Text is set only for KindText.
type OutgoingMessage struct {
	Kind        MessageKind       `json:"kind"`
	AltText     string            `json:"alt_text,omitempty"`
	Cards       []json.RawMessage `json:"cards,omitempty"`
	Text        string            `json:"text,omitempty"`
	HasSentinel bool              `json:"has_sentinel"`
	Fallback    bool              `json:"fallback"`
}

// NewTextMessage creates a plain text reply.
func NewTextMessage(text string) *OutgoingMessage {
	return &OutgoingMessage{Kind: KindText, Text: text}
}

// Wire returns the channel messaging API representation of the message.
func (m *OutgoingMessage) Wire() (map[string]interface{}, error) {
	switch m.Kind {
	case KindText:
		return map[string]interface{}{"type": "text", "text": m.Text}, nil
	case KindCard:
		if len(m.Cards) != 1 {
			return nil, fmt.Errorf("card message needs exactly one card, got %d", len(m.Cards))
		}
		return map[string]interface{}{
			"type":     "flex",
			"altText":  m.AltText,
			"contents": m.Cards[0],
		}, nil
	case KindCarousel:
		return map[string]interface{}{
			"type":    "flex",
			"altText": m.AltText,
			"contents": map[string]interface{}{
				"type":     "carousel",
				"contents": m.Cards,
			},
		}, nil
	default:
		return nil, fmt.Errorf("unknown message kind: %s", m.Kind)
	}
}

// Encode serializes the wire representation.
func (m *OutgoingMessage) Encode() ([]byte, error) {
	wire, err := m.Wire()
	if err != nil {
		return nil, err
	}
	return json.Marshal(wire)
}

// Size returns the serialized wire size in bytes, or -1 when the message
// cannot be encoded.
func (m *OutgoingMessage) Size() int {
	data, err := m.Encode()
	if err != nil {
		return -1
	}
	return len(data)
}
