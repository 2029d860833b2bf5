package quizvault

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/domino14/quizvault/internal/scheduler"
)

const importBatchSize = 1000

// ImportResult summarizes a cardbox import.
type ImportResult struct {
	Imported int64
	// Skipped lists question ids that were not imported: unknown questions
	// and rows that were never placed in a cardbox.
	Skipped []int64
}

// ImportCardbox converts a Leitner cardbox (a SQLite file with one row per
// question) into cards for userID. Questions the user already has a card
// for are left alone. Everything is inserted in one transaction.
func (s *Service) ImportCardbox(ctx context.Context, userID int64, sqliteFilename string) (ImportResult, error) {
	now := s.Nower.Now()

	src, err := sql.Open("sqlite3", sqliteFilename)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	defer src.Close()

	rows, err := src.QueryContext(ctx, `
        SELECT question_id, correct, incorrect, streak, last_correct, cardbox, next_scheduled
        FROM questions`)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to fetch questions from SQLite: %w", err)
	}
	defer rows.Close()

	var res ImportResult
	err = s.Store.InTx(ctx, func(tx Store) error {
		settings, err := loadSettings(ctx, tx, userID)
		if err != nil {
			return err
		}
		localNow := now.In(settings.Location())
		leeches := 0

		batch := make([]scheduler.Card, 0, importBatchSize)
		flush := func() error {
			if len(batch) == 0 {
				return nil
			}
			n, err := tx.ImportCards(ctx, batch)
			if err != nil {
				return fmt.Errorf("failed to insert batch: %w", err)
			}
			res.Imported += n
			batch = batch[:0]
			return nil
		}

		for rows.Next() {
			var (
				row         cardboxRow
				lastCorrect sql.NullInt64
				cardbox     sql.NullInt32
				next        sql.NullInt64
			)
			if err := rows.Scan(&row.questionID, &row.correct, &row.incorrect, &row.streak,
				&lastCorrect, &cardbox, &next); err != nil {
				return fmt.Errorf("failed to scan question: %w", err)
			}
			if !cardbox.Valid {
				log.Info().Int64("questionID", row.questionID).Msg("did-not-import-cardbox-null")
				res.Skipped = append(res.Skipped, row.questionID)
				continue
			}
			if _, err := tx.CorrectOption(ctx, row.questionID); errors.Is(err, ErrNotFound) {
				log.Info().Int64("questionID", row.questionID).Msg("did-not-import-unknown-question")
				res.Skipped = append(res.Skipped, row.questionID)
				continue
			} else if err != nil {
				return err
			}
			row.cardbox = int(cardbox.Int32)
			if lastCorrect.Valid && lastCorrect.Int64 > 0 {
				row.lastCorrect = time.Unix(lastCorrect.Int64, 0).UTC()
			}
			if next.Valid && next.Int64 > 0 {
				row.nextScheduled = time.Unix(next.Int64, 0).UTC()
			}

			c, lr := convertCardbox(userID, row, settings, localNow)
			if lr.Applied {
				leeches++
			}
			batch = append(batch, c)
			if len(batch) >= importBatchSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}
		if err := rows.Err(); err != nil {
			return err
		}
		if leeches > 0 {
			log.Ctx(ctx).Info().Int64("userID", userID).Int("leeches", leeches).
				Str("action", string(settings.LeechAction)).Msg("imported-leeches")
		}
		return flush()
	})
	if err != nil {
		return ImportResult{}, err
	}
	log.Ctx(ctx).Info().Int64("userID", userID).Int64("imported", res.Imported).
		Int("skipped", len(res.Skipped)).Msg("cardbox-imported")
	return res, nil
}

type cardboxRow struct {
	questionID    int64
	correct       int
	incorrect     int
	streak        int
	cardbox       int
	lastCorrect   time.Time
	nextScheduled time.Time
}

// convertCardbox maps Leitner history onto a card. A question that was never
// answered stays new. Anything else becomes a review card whose interval is
// the gap the cardbox had scheduled after the last correct answer, and
// whose ease drops with every miss. Intervals and due dates follow the
// user's settings like any other review card, and every miss counts as a
// lapse toward the leech threshold. now must be in the user's location.
func convertCardbox(userID int64, r cardboxRow, s scheduler.Settings, now time.Time) (scheduler.Card, scheduler.LeechResult) {
	c := scheduler.NewCard(userID, r.questionID, now)
	c.TotalReviews = r.correct + r.incorrect
	c.TimesCorrect = r.correct
	c.ConsecutiveCorrect = r.streak
	if c.TotalReviews == 0 {
		return c, scheduler.LeechResult{}
	}

	ivl := 1
	if !r.lastCorrect.IsZero() && !r.nextScheduled.IsZero() && r.cardbox > 0 {
		ivl = int(r.nextScheduled.Sub(r.lastCorrect).Hours() / 24)
	}
	ivl = s.ClampInterval(ivl)

	c.CardType = scheduler.Review
	c.IntervalDays = ivl
	c.Repetitions = r.streak
	c.Lapses = r.incorrect
	c.EaseFactor = max(scheduler.MinEase, min(scheduler.MaxEase,
		scheduler.MaxEase-0.20*float64(r.incorrect)+0.05*float64(r.streak)))
	if r.nextScheduled.IsZero() {
		c.DueDate = scheduler.StartOfDay(now).AddDate(0, 0, ivl)
	} else {
		c.DueDate = scheduler.StartOfDay(r.nextScheduled.In(now.Location()))
	}
	return scheduler.CheckLeech(c, s, now)
}
