package delivery

import (
	"context"
	"fmt"

	"github.com/weiawesome/wes-directory/internal/domain"
	"github.com/weiawesome/wes-directory/pkg/log"
)

// ApologyText is sent once when a reply could not be delivered.
const ApologyText = "ขออภัย เกิดข้อผิดพลาด กรุณาลองใหม่อีกครั้ง"

// Replier sends a reply and, if that fails, one best-effort apology.
// Nothing is retried.
type Replier struct {
	deliverer Deliverer
}

// NewReplier creates a new replier.
func NewReplier(deliverer Deliverer) *Replier {
	return &Replier{deliverer: deliverer}
}

// Send delivers msg. On failure it logs the message kind, size and target,
// attempts the apology and returns an error wrapping ErrDeliveryFailure.
func (r *Replier) Send(ctx context.Context, target Target, msg *domain.OutgoingMessage) error {
	err := r.deliverer.Deliver(ctx, target, msg)
	if err == nil {
		return nil
	}

	l := log.Ctx(ctx)
	l.Error().Err(err).
		Str(log.FieldMessageKind, string(msg.Kind)).
		Int(log.FieldMessageBytes, msg.Size()).
		Int("card_count", len(msg.Cards)).
		Str(log.FieldTarget, target.String()).
		Msg("reply delivery failed")

	if msg.Kind != domain.KindText || msg.Text != ApologyText {
		if aerr := r.deliverer.Deliver(ctx, apologyTarget(target), domain.NewTextMessage(ApologyText)); aerr != nil {
			l.Warn().Err(aerr).Str(log.FieldTarget, target.String()).Msg("apology delivery failed")
		}
	}

	return fmt.Errorf("%w: %w", domain.ErrDeliveryFailure, err)
}

// apologyTarget prefers pushing to the user: a reply token may already be spent.
func apologyTarget(t Target) Target {
	if t.To != "" {
		return Target{To: t.To}
	}
	return t
}
