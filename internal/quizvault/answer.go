package quizvault

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/domino14/quizvault/internal/scheduler"
)

const maxOptionLength = 64

type AnswerRequest struct {
	CardID              int64
	Grade               scheduler.Grade
	ResponseTimeSeconds float64
	SelectedOption      string
	SessionID           uuid.UUID
	// SubmissionID, when set, makes a resent request return the outcome of
	// the first one instead of grading the card twice.
	SubmissionID uuid.UUID
}

type AnswerResult struct {
	IsCorrect             bool
	Card                  scheduler.Card
	NextReviewDescription string
	Leech                 bool
	Replayed              bool
}

func (r AnswerRequest) validate() error {
	if r.CardID <= 0 {
		return invalid("card_id", "must be positive")
	}
	if !r.Grade.IsValid() {
		return invalid("grade", "must be one of again, hard, good, easy")
	}
	if r.ResponseTimeSeconds < 0 {
		return invalid("response_time_seconds", "cannot be negative")
	}
	if len(r.SelectedOption) > maxOptionLength || !utf8.ValidString(r.SelectedOption) {
		return invalid("selected_option", "is not a valid option")
	}
	return nil
}

// SubmitAnswer grades one card. The card update, the review log entry and
// the question stats are written in one transaction, and the whole
// transaction is retried on serialization failures.
func (s *Service) SubmitAnswer(ctx context.Context, userID int64, req AnswerRequest) (AnswerResult, error) {
	if err := req.validate(); err != nil {
		return AnswerResult{}, err
	}
	var res AnswerResult
	err := s.withRetry(ctx, "submit-answer", func() error {
		return s.Store.InTx(ctx, func(tx Store) error {
			r, err := s.answerInTx(ctx, tx, userID, req)
			if err != nil {
				return err
			}
			res = r
			return nil
		})
	})
	if err != nil {
		return AnswerResult{}, err
	}
	return res, nil
}

func (s *Service) answerInTx(ctx context.Context, tx Store, userID int64, req AnswerRequest) (AnswerResult, error) {
	log := log.Ctx(ctx)

	// Taking the row lock first serializes concurrent submissions for the
	// card, so a duplicate submission id is always seen below.
	card, err := tx.GetCardForUpdate(ctx, userID, req.CardID)
	if err != nil {
		return AnswerResult{}, err
	}

	if req.SubmissionID != uuid.Nil {
		prev, err := tx.FindReviewBySubmission(ctx, userID, req.SubmissionID)
		switch {
		case err == nil:
			if prev.CardID != req.CardID {
				return AnswerResult{}, invalid("submission_id", "already used for another card")
			}
			log.Info().Int64("userID", userID).Int64("cardID", card.ID).
				Str("submissionID", req.SubmissionID.String()).Msg("answer-replayed")
			return replayResult(prev, card), nil
		case !errors.Is(err, ErrNotFound):
			return AnswerResult{}, err
		}
	}

	settings, err := loadSettings(ctx, tx, userID)
	if err != nil {
		return AnswerResult{}, err
	}
	now := s.Nower.Now().In(settings.Location())

	correctOption, err := tx.CorrectOption(ctx, card.QuestionID)
	if err != nil {
		return AnswerResult{}, err
	}

	next, err := scheduler.Transition(card, req.Grade, settings, now)
	if err != nil {
		return AnswerResult{}, fmt.Errorf("card %d: %w", card.ID, err)
	}

	leech := false
	if next.Lapses > card.Lapses {
		var lr scheduler.LeechResult
		next, lr = scheduler.CheckLeech(next, settings, now)
		leech = lr.IsLeech
		if lr.IsLeech && !lr.Applied {
			log.Warn().Int64("cardID", card.ID).Str("action", string(lr.Action)).Msg("leech-action-not-applied")
		} else if lr.Applied {
			log.Info().Int64("cardID", card.ID).Int("lapses", next.Lapses).
				Str("action", string(lr.Action)).Msg("card-leech")
		}
	}

	correct := scheduler.IsCorrect(req.SelectedOption, correctOption, req.Grade)
	next.RecordAnswer(correct, req.ResponseTimeSeconds, now)

	if err := tx.SaveCard(ctx, next); err != nil {
		return AnswerResult{}, err
	}
	ev := scheduler.ReviewEvent{
		UserID:              userID,
		CardID:              card.ID,
		QuestionID:          card.QuestionID,
		Grade:               req.Grade,
		SelectedOption:      req.SelectedOption,
		IsCorrect:           correct,
		ResponseTimeSeconds: req.ResponseTimeSeconds,
		Before:              card.Snapshot(),
		After:               next.Snapshot(),
		SessionID:           req.SessionID,
		SubmissionID:        req.SubmissionID,
		ReviewedAt:          now,
	}
	if err := tx.AppendReviewLog(ctx, &ev); err != nil {
		return AnswerResult{}, err
	}
	if err := tx.BumpQuestionStats(ctx, card.QuestionID, correct, req.ResponseTimeSeconds); err != nil {
		return AnswerResult{}, err
	}

	log.Info().
		Int64("userID", userID).
		Int64("cardID", card.ID).
		Str("grade", req.Grade.String()).
		Str("from", card.CardType.String()).
		Str("to", next.CardType.String()).
		Time("due", next.DueDate).
		Msg("card-scored")

	return AnswerResult{
		IsCorrect:             correct,
		Card:                  next,
		NextReviewDescription: scheduler.DescribeNext(next, now),
		Leech:                 leech,
	}, nil
}

// replayResult rebuilds the response of an already applied submission from
// its review log entry. Card is the card as it is now.
func replayResult(prev scheduler.ReviewEvent, card scheduler.Card) AnswerResult {
	after := scheduler.Card{
		CardType:     prev.After.CardType,
		IntervalDays: prev.After.IntervalDays,
		DueDate:      prev.After.DueDate,
	}
	return AnswerResult{
		IsCorrect:             prev.IsCorrect,
		Card:                  card,
		NextReviewDescription: scheduler.DescribeNext(after, prev.ReviewedAt),
		Replayed:              true,
	}
}
