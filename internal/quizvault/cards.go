package quizvault

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/domino14/quizvault/internal/scheduler"
)

// GetOrCreateCard returns the user's card for a question, creating a new
// card on first exposure. Calling it again returns the same card.
func (s *Service) GetOrCreateCard(ctx context.Context, userID, questionID int64) (scheduler.Card, error) {
	if questionID <= 0 {
		return scheduler.Card{}, invalid("question_id", "must be positive")
	}
	card, err := s.Store.GetOrCreateCard(ctx, userID, questionID, s.Nower.Now())
	if err != nil {
		return scheduler.Card{}, err
	}
	log.Ctx(ctx).Debug().Int64("userID", userID).Int64("questionID", questionID).
		Int64("cardID", card.ID).Msg("get-or-create-card")
	return card, nil
}

type CardInformation struct {
	Card    scheduler.Card
	History []scheduler.ReviewEvent
}

// GetCardInformation returns a card with its most recent review events,
// newest first.
func (s *Service) GetCardInformation(ctx context.Context, userID, cardID int64) (CardInformation, error) {
	card, err := s.Store.GetCard(ctx, userID, cardID)
	if err != nil {
		return CardInformation{}, err
	}
	history, err := s.Store.RecentReviews(ctx, userID, cardID, max(1, s.Config.ReviewLogLimit))
	if err != nil {
		return CardInformation{}, err
	}
	return CardInformation{Card: card, History: history}, nil
}

// CardFlags changes suspension and burial. Nil fields are left alone.
type CardFlags struct {
	Suspended *bool
	Buried    *bool
}

// SetCardFlags suspends, unsuspends, buries or unburies a card. A buried
// card comes back at the user's next local midnight.
func (s *Service) SetCardFlags(ctx context.Context, userID, cardID int64, flags CardFlags) (scheduler.Card, error) {
	if flags.Suspended == nil && flags.Buried == nil {
		return scheduler.Card{}, invalid("flags", "nothing to change")
	}
	return s.updateCard(ctx, "set-card-flags", userID, cardID, func(c *scheduler.Card, settings scheduler.Settings) {
		now := s.Nower.Now().In(settings.Location())
		if flags.Suspended != nil {
			c.IsSuspended = *flags.Suspended
		}
		if flags.Buried != nil {
			c.IsBuried = *flags.Buried
			if c.IsBuried {
				c.BuriedUntil = scheduler.EndOfDay(now)
			} else {
				c.BuriedUntil = time.Time{}
			}
		}
		c.UpdatedAt = now
	})
}

// ResetCard sends a card back to the new state. Its answer counters are
// kept; lapses start over.
func (s *Service) ResetCard(ctx context.Context, userID, cardID int64) (scheduler.Card, error) {
	return s.updateCard(ctx, "reset-card", userID, cardID, func(c *scheduler.Card, _ scheduler.Settings) {
		c.Reset(s.Nower.Now())
	})
}

func (s *Service) updateCard(ctx context.Context, op string, userID, cardID int64,
	mutate func(*scheduler.Card, scheduler.Settings)) (scheduler.Card, error) {

	var out scheduler.Card
	err := s.withRetry(ctx, op, func() error {
		return s.Store.InTx(ctx, func(tx Store) error {
			card, err := tx.GetCardForUpdate(ctx, userID, cardID)
			if err != nil {
				return err
			}
			settings, err := loadSettings(ctx, tx, userID)
			if err != nil {
				return err
			}
			mutate(&card, settings)
			if err := tx.SaveCard(ctx, card); err != nil {
				return err
			}
			out = card
			return nil
		})
	})
	if err != nil {
		return scheduler.Card{}, err
	}
	log.Ctx(ctx).Info().Int64("userID", userID).Int64("cardID", cardID).Msg(op)
	return out, nil
}
