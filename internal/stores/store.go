package stores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/domino14/quizvault/internal/quizvault"
	"github.com/domino14/quizvault/internal/scheduler"
	"github.com/domino14/quizvault/internal/stores/models"
)

const submissionConstraint = "review_logs_submission_idx"

// PGStore is the Postgres implementation of quizvault.Store.
type PGStore struct {
	pool    *pgxpool.Pool
	queries *models.Queries
	// tx is set on stores handed out by InTx.
	tx pgx.Tx
}

var _ quizvault.Store = (*PGStore)(nil)

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool, queries: models.New(pool)}
}

// Queries exposes the raw query layer for admin tooling and tests.
func (s *PGStore) Queries() *models.Queries {
	return s.queries
}

func (s *PGStore) InTx(ctx context.Context, fn func(quizvault.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return storeErr("begin", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&PGStore{pool: s.pool, queries: s.queries.WithTx(tx), tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return storeErr("commit", err)
	}
	return nil
}

func (s *PGStore) GetCard(ctx context.Context, userID, cardID int64) (scheduler.Card, error) {
	row, err := s.queries.GetCard(ctx, models.GetCardParams{UserID: userID, ID: cardID})
	if err != nil {
		return scheduler.Card{}, storeErr("get-card", err)
	}
	return toCard(row), nil
}

func (s *PGStore) GetCardForUpdate(ctx context.Context, userID, cardID int64) (scheduler.Card, error) {
	row, err := s.queries.GetCardForUpdate(ctx, models.GetCardParams{UserID: userID, ID: cardID})
	if err != nil {
		return scheduler.Card{}, storeErr("get-card-for-update", err)
	}
	return toCard(row), nil
}

func (s *PGStore) GetOrCreateCard(ctx context.Context, userID, questionID int64, now time.Time) (scheduler.Card, error) {
	params := models.GetCardByQuestionParams{UserID: userID, QuestionID: questionID}
	row, err := s.queries.GetCardByQuestion(ctx, params)
	if err == nil {
		return toCard(row), nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return scheduler.Card{}, storeErr("get-card-by-question", err)
	}
	fresh := scheduler.NewCard(userID, questionID, now)
	// Zero rows means another request created the card first, or the
	// question does not exist; the read below tells them apart.
	_, err = s.queries.InsertNewCard(ctx, models.InsertNewCardParams{
		UserID:     userID,
		QuestionID: questionID,
		EaseFactor: fresh.EaseFactor,
		DueDate:    toPGTimestamp(fresh.DueDate),
	})
	if err != nil {
		return scheduler.Card{}, storeErr("insert-card", err)
	}
	row, err = s.queries.GetCardByQuestion(ctx, params)
	if err != nil {
		return scheduler.Card{}, storeErr("get-card-by-question", err)
	}
	return toCard(row), nil
}

func (s *PGStore) SaveCard(ctx context.Context, c scheduler.Card) error {
	n, err := s.queries.UpdateCard(ctx, models.UpdateCardParams{
		UserID:             c.UserID,
		ID:                 c.ID,
		CardType:           int16(c.CardType),
		EaseFactor:         c.EaseFactor,
		IntervalDays:       int32(c.IntervalDays),
		Repetitions:        int32(c.Repetitions),
		Lapses:             int32(c.Lapses),
		LearningStep:       int32(c.LearningStep),
		DueDate:            toPGTimestamp(c.DueDate),
		IsSuspended:        c.IsSuspended,
		IsBuried:           c.IsBuried,
		BuriedUntil:        toPGTimestamp(c.BuriedUntil),
		Tags:               nonNil(c.Tags),
		TotalReviews:       int32(c.TotalReviews),
		TimesCorrect:       int32(c.TimesCorrect),
		ConsecutiveCorrect: int32(c.ConsecutiveCorrect),
		TotalTimeSeconds:   c.TotalTimeSeconds,
		UpdatedAt:          toPGTimestamp(c.UpdatedAt),
	})
	if err != nil {
		return storeErr("update-card", err)
	}
	if n == 0 {
		return fmt.Errorf("update-card %d: %w", c.ID, quizvault.ErrNotFound)
	}
	return nil
}

// ImportCards inserts cards for one user, skipping questions the user
// already has a card for and questions that do not exist.
func (s *PGStore) ImportCards(ctx context.Context, cards []scheduler.Card) (int64, error) {
	if len(cards) == 0 {
		return 0, nil
	}
	p := models.AddCardsParams{
		UserID:    cards[0].UserID,
		CreatedAt: toPGTimestamp(cards[0].CreatedAt),
	}
	for _, c := range cards {
		if c.UserID != p.UserID {
			return 0, fmt.Errorf("import-cards: mixed users %d and %d", p.UserID, c.UserID)
		}
		p.QuestionIDs = append(p.QuestionIDs, c.QuestionID)
		p.CardTypes = append(p.CardTypes, int16(c.CardType))
		p.EaseFactors = append(p.EaseFactors, c.EaseFactor)
		p.IntervalDays = append(p.IntervalDays, int32(c.IntervalDays))
		p.Repetitions = append(p.Repetitions, int32(c.Repetitions))
		p.Lapses = append(p.Lapses, int32(c.Lapses))
		p.DueDates = append(p.DueDates, toPGTimestamp(c.DueDate))
		p.IsSuspended = append(p.IsSuspended, c.IsSuspended)
		p.IsBuried = append(p.IsBuried, c.IsBuried)
		p.BuriedUntil = append(p.BuriedUntil, toPGTimestamp(c.BuriedUntil))
		p.Tags = append(p.Tags, strings.Join(c.Tags, models.TagSeparator))
		p.TotalReviews = append(p.TotalReviews, int32(c.TotalReviews))
		p.TimesCorrect = append(p.TimesCorrect, int32(c.TimesCorrect))
		p.ConsecutiveCorrects = append(p.ConsecutiveCorrects, int32(c.ConsecutiveCorrect))
	}
	n, err := s.queries.AddCards(ctx, p)
	if err != nil {
		return 0, storeErr("add-cards", err)
	}
	return n, nil
}

func (s *PGStore) GetSettings(ctx context.Context, userID int64) ([]byte, error) {
	params, err := s.queries.GetSettings(ctx, userID)
	if err != nil {
		return nil, storeErr("get-settings", err)
	}
	return params, nil
}

func (s *PGStore) CreateSettings(ctx context.Context, userID int64, params []byte) ([]byte, error) {
	_, err := s.queries.InsertSettingsIfMissing(ctx, models.SettingsParams{UserID: userID, Params: params})
	if err != nil {
		return nil, storeErr("insert-settings", err)
	}
	return s.GetSettings(ctx, userID)
}

func (s *PGStore) UpdateSettings(ctx context.Context, userID int64, params []byte) error {
	err := s.queries.UpsertSettings(ctx, models.SettingsParams{UserID: userID, Params: params})
	if err != nil {
		return storeErr("upsert-settings", err)
	}
	return nil
}

func (s *PGStore) CorrectOption(ctx context.Context, questionID int64) (string, error) {
	opt, err := s.queries.GetCorrectOption(ctx, questionID)
	if err != nil {
		return "", storeErr("get-correct-option", err)
	}
	return opt, nil
}

func (s *PGStore) BumpQuestionStats(ctx context.Context, questionID int64, correct bool, seconds float64) error {
	var c int64
	if correct {
		c = 1
	}
	n, err := s.queries.BumpQuestionStats(ctx, models.BumpQuestionStatsParams{
		ID:      questionID,
		Correct: c,
		Seconds: max(0, seconds),
	})
	if err != nil {
		return storeErr("bump-question-stats", err)
	}
	if n == 0 {
		return fmt.Errorf("bump-question-stats %d: %w", questionID, quizvault.ErrNotFound)
	}
	return nil
}

func (s *PGStore) AppendReviewLog(ctx context.Context, ev *scheduler.ReviewEvent) error {
	before, err := json.Marshal(ev.Before)
	if err != nil {
		return err
	}
	after, err := json.Marshal(ev.After)
	if err != nil {
		return err
	}
	id, err := s.queries.InsertReviewLog(ctx, models.InsertReviewLogParams{
		UserID:              ev.UserID,
		CardID:              ev.CardID,
		QuestionID:          ev.QuestionID,
		Grade:               int16(ev.Grade),
		SelectedOption:      ev.SelectedOption,
		IsCorrect:           ev.IsCorrect,
		ResponseTimeSeconds: ev.ResponseTimeSeconds,
		BeforeState:         before,
		AfterState:          after,
		SessionID:           toPGUUID(ev.SessionID),
		SubmissionID:        toPGUUID(ev.SubmissionID),
		ReviewedAt:          toPGTimestamp(ev.ReviewedAt),
	})
	if err != nil {
		return storeErr("insert-review-log", err)
	}
	ev.ID = id
	return nil
}

func (s *PGStore) FindReviewBySubmission(ctx context.Context, userID int64, submissionID uuid.UUID) (scheduler.ReviewEvent, error) {
	row, err := s.queries.GetReviewBySubmission(ctx, models.GetReviewBySubmissionParams{
		UserID:       userID,
		SubmissionID: toPGUUID(submissionID),
	})
	if err != nil {
		return scheduler.ReviewEvent{}, storeErr("get-review-by-submission", err)
	}
	return toReviewEvent(row)
}

func (s *PGStore) RecentReviews(ctx context.Context, userID, cardID int64, limit int) ([]scheduler.ReviewEvent, error) {
	rows, err := s.queries.GetRecentReviews(ctx, models.GetRecentReviewsParams{
		UserID: userID,
		CardID: cardID,
		Limit:  int32(limit),
	})
	if err != nil {
		return nil, storeErr("get-recent-reviews", err)
	}
	events := make([]scheduler.ReviewEvent, 0, len(rows))
	for _, r := range rows {
		ev, err := toReviewEvent(r)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func (s *PGStore) ActivitySince(ctx context.Context, userID int64, since time.Time) (quizvault.Activity, error) {
	row, err := s.queries.GetActivitySince(ctx, models.GetActivitySinceParams{
		UserID: userID,
		Since:  toPGTimestamp(since),
	})
	if err != nil {
		return quizvault.Activity{}, storeErr("get-activity", err)
	}
	return quizvault.Activity{NewStudied: int(row.NewStudied), Reviews: int(row.Reviews)}, nil
}

func bucketParams(q quizvault.BucketQuery, bound time.Time) models.BucketParams {
	return models.BucketParams{
		UserID:      q.UserID,
		SubjectIDs:  nonNil(q.Filters.SubjectIDs),
		SubtopicIDs: nonNil(q.Filters.SubtopicIDs),
		Years:       nonNil(q.Filters.Years),
		Bound:       toPGTimestamp(bound),
		Limit:       int32(q.Limit),
	}
}

func (s *PGStore) NewCards(ctx context.Context, q quizvault.BucketQuery) ([]scheduler.Card, error) {
	rows, err := s.queries.GetNewCards(ctx, bucketParams(q, time.Time{}))
	if err != nil {
		return nil, storeErr("get-new-cards", err)
	}
	return toCards(rows), nil
}

func (s *PGStore) LearningCards(ctx context.Context, q quizvault.BucketQuery) ([]scheduler.Card, error) {
	rows, err := s.queries.GetLearningCards(ctx, bucketParams(q, q.Now))
	if err != nil {
		return nil, storeErr("get-learning-cards", err)
	}
	return toCards(rows), nil
}

func (s *PGStore) ReviewCards(ctx context.Context, q quizvault.BucketQuery) ([]scheduler.Card, error) {
	rows, err := s.queries.GetReviewCards(ctx, bucketParams(q, q.DayEnd))
	if err != nil {
		return nil, storeErr("get-review-cards", err)
	}
	return toCards(rows), nil
}

func (s *PGStore) ReviewDueDates(ctx context.Context, userID int64, until time.Time) ([]time.Time, error) {
	rows, err := s.queries.GetReviewDueDates(ctx, models.GetReviewDueDatesParams{
		UserID: userID,
		Until:  toPGTimestamp(until),
	})
	if err != nil {
		return nil, storeErr("get-review-due-dates", err)
	}
	dates := make([]time.Time, len(rows))
	for i := range rows {
		dates[i] = fromPGTimestamp(rows[i])
	}
	return dates, nil
}

func (s *PGStore) UnburyExpired(ctx context.Context, userID int64, now time.Time) (int64, error) {
	n, err := s.queries.UnburyExpired(ctx, models.UnburyExpiredParams{
		UserID: userID,
		Now:    toPGTimestamp(now),
	})
	if err != nil {
		return 0, storeErr("unbury-expired", err)
	}
	return n, nil
}

func toCard(r models.Card) scheduler.Card {
	return scheduler.Card{
		ID:                 r.ID,
		UserID:             r.UserID,
		QuestionID:         r.QuestionID,
		CardType:           scheduler.CardType(r.CardType),
		EaseFactor:         r.EaseFactor,
		IntervalDays:       int(r.IntervalDays),
		Repetitions:        int(r.Repetitions),
		Lapses:             int(r.Lapses),
		LearningStep:       int(r.LearningStep),
		DueDate:            fromPGTimestamp(r.DueDate),
		IsSuspended:        r.IsSuspended,
		IsBuried:           r.IsBuried,
		BuriedUntil:        fromPGTimestamp(r.BuriedUntil),
		Tags:               nonNil(r.Tags),
		TotalReviews:       int(r.TotalReviews),
		TimesCorrect:       int(r.TimesCorrect),
		ConsecutiveCorrect: int(r.ConsecutiveCorrect),
		TotalTimeSeconds:   r.TotalTimeSeconds,
		CreatedAt:          fromPGTimestamp(r.CreatedAt),
		UpdatedAt:          fromPGTimestamp(r.UpdatedAt),
	}
}

func toCards(rows []models.Card) []scheduler.Card {
	cards := make([]scheduler.Card, len(rows))
	for i := range rows {
		cards[i] = toCard(rows[i])
	}
	return cards
}

func toReviewEvent(r models.ReviewLog) (scheduler.ReviewEvent, error) {
	ev := scheduler.ReviewEvent{
		ID:                  r.ID,
		UserID:              r.UserID,
		CardID:              r.CardID,
		QuestionID:          r.QuestionID,
		Grade:               scheduler.Grade(r.Grade),
		SelectedOption:      r.SelectedOption,
		IsCorrect:           r.IsCorrect,
		ResponseTimeSeconds: r.ResponseTimeSeconds,
		SessionID:           fromPGUUID(r.SessionID),
		SubmissionID:        fromPGUUID(r.SubmissionID),
		ReviewedAt:          fromPGTimestamp(r.ReviewedAt),
	}
	if err := json.Unmarshal(r.BeforeState, &ev.Before); err != nil {
		return ev, fmt.Errorf("review log %d before state: %w", r.ID, err)
	}
	if err := json.Unmarshal(r.AfterState, &ev.After); err != nil {
		return ev, fmt.Errorf("review log %d after state: %w", r.ID, err)
	}
	return ev, nil
}

// storeErr maps a driver error onto the quizvault error taxonomy.
func storeErr(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, quizvault.ErrNotFound)
	}
	return &quizvault.StoreError{Op: op, Err: err, Retryable: retryable(err)}
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return true
		case "23505":
			// A concurrent request with the same submission id won; running
			// again turns this request into a replay.
			return pgErr.ConstraintName == submissionConstraint
		}
		return strings.HasPrefix(pgErr.Code, "08")
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return pgconn.SafeToRetry(err)
}
