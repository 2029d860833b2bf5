package quizvault

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/quizvault/internal/scheduler"
)

type DueRequest struct {
	Filters scheduler.Filters
	// Limits left at zero are filled in from the user's daily caps.
	Limits scheduler.Limits
}

type DueCards struct {
	Cards  []scheduler.Card
	Counts scheduler.Counts
}

// ListDueCards builds the user's study queue from the three buckets.
func (s *Service) ListDueCards(ctx context.Context, userID int64, req DueRequest) (DueCards, error) {
	if req.Limits.New < 0 || req.Limits.Learning < 0 || req.Limits.Review < 0 {
		return DueCards{}, invalid("limits", "cannot be negative")
	}
	settings, err := loadSettings(ctx, s.Store, userID)
	if err != nil {
		return DueCards{}, err
	}
	now := s.Nower.Now().In(settings.Location())

	if n, err := s.Store.UnburyExpired(ctx, userID, now); err != nil {
		return DueCards{}, err
	} else if n > 0 {
		log.Ctx(ctx).Debug().Int64("userID", userID).Int64("count", n).Msg("unburied-cards")
	}

	limits, err := s.resolveLimits(ctx, userID, req.Limits, settings, now)
	if err != nil {
		return DueCards{}, err
	}

	base := BucketQuery{
		UserID:  userID,
		Filters: req.Filters,
		Now:     now,
		DayEnd:  scheduler.EndOfDay(now),
	}
	var newCards, learning, review []scheduler.Card
	g, gctx := errgroup.WithContext(ctx)
	fetch := func(dst *[]scheduler.Card, limit int, query func(context.Context, BucketQuery) ([]scheduler.Card, error)) {
		if limit == 0 {
			return
		}
		q := base
		q.Limit = limit
		g.Go(func() error {
			cards, err := query(gctx, q)
			if err != nil {
				return err
			}
			*dst = cards
			return nil
		})
	}
	fetch(&newCards, limits.New, s.Store.NewCards)
	fetch(&learning, limits.Learning, s.Store.LearningCards)
	fetch(&review, limits.Review, s.Store.ReviewCards)
	if err := g.Wait(); err != nil {
		return DueCards{}, err
	}

	cards, counts := scheduler.BuildQueue(newCards, learning, review, settings.ShowNewCardsFirst, now)
	log.Ctx(ctx).Debug().Int64("userID", userID).Interface("limits", limits).
		Interface("counts", counts).Msg("due-cards")
	return DueCards{Cards: cards, Counts: counts}, nil
}

// resolveLimits fills zero limits: new and review from what is left of
// today's caps, learning from the server default. Every limit is then
// capped at MaxDueCards.
func (s *Service) resolveLimits(ctx context.Context, userID int64, l scheduler.Limits,
	settings scheduler.Settings, now time.Time) (scheduler.Limits, error) {

	if l.New == 0 || l.Review == 0 {
		act, err := s.Store.ActivitySince(ctx, userID, scheduler.StartOfDay(now))
		if err != nil {
			return l, err
		}
		if l.New == 0 {
			l.New = max(0, settings.NewCardsPerDay-act.NewStudied)
		}
		if l.Review == 0 {
			l.Review = max(0, settings.ReviewsPerDay-act.Reviews)
		}
	}
	if l.Learning == 0 {
		l.Learning = s.Config.MaxLearningCards
	}
	if c := s.Config.MaxDueCards; c > 0 {
		l.New = min(l.New, c)
		l.Learning = min(l.Learning, c)
		l.Review = min(l.Review, c)
	}
	return l, nil
}
