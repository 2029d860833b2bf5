package models

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const cardColumns = `c.id, c.user_id, c.question_id, c.card_type, c.ease_factor, c.interval_days,
    c.repetitions, c.lapses, c.learning_step, c.due_date, c.is_suspended, c.is_buried,
    c.buried_until, c.tags, c.total_reviews, c.times_correct, c.consecutive_correct,
    c.total_time_seconds, c.created_at, c.updated_at`

func scanCard(row pgx.Row) (Card, error) {
	var i Card
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.QuestionID,
		&i.CardType,
		&i.EaseFactor,
		&i.IntervalDays,
		&i.Repetitions,
		&i.Lapses,
		&i.LearningStep,
		&i.DueDate,
		&i.IsSuspended,
		&i.IsBuried,
		&i.BuriedUntil,
		&i.Tags,
		&i.TotalReviews,
		&i.TimesCorrect,
		&i.ConsecutiveCorrect,
		&i.TotalTimeSeconds,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func scanCards(rows pgx.Rows, err error) ([]Card, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Card{}
	for rows.Next() {
		i, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getCard = `
SELECT ` + cardColumns + `
FROM cards c
WHERE c.user_id = $1 AND c.id = $2
`

type GetCardParams struct {
	UserID int64
	ID     int64
}

func (q *Queries) GetCard(ctx context.Context, arg GetCardParams) (Card, error) {
	return scanCard(q.db.QueryRow(ctx, getCard, arg.UserID, arg.ID))
}

const getCardForUpdate = `
SELECT ` + cardColumns + `
FROM cards c
WHERE c.user_id = $1 AND c.id = $2
FOR UPDATE
`

func (q *Queries) GetCardForUpdate(ctx context.Context, arg GetCardParams) (Card, error) {
	return scanCard(q.db.QueryRow(ctx, getCardForUpdate, arg.UserID, arg.ID))
}

const getCardByQuestion = `
SELECT ` + cardColumns + `
FROM cards c
WHERE c.user_id = $1 AND c.question_id = $2
`

type GetCardByQuestionParams struct {
	UserID     int64
	QuestionID int64
}

func (q *Queries) GetCardByQuestion(ctx context.Context, arg GetCardByQuestionParams) (Card, error) {
	return scanCard(q.db.QueryRow(ctx, getCardByQuestion, arg.UserID, arg.QuestionID))
}

const insertNewCard = `
INSERT INTO cards (user_id, question_id, card_type, ease_factor, due_date, created_at, updated_at)
SELECT $1::bigint, $2::bigint, 0, $3::double precision, $4::timestamptz, $4::timestamptz, $4::timestamptz
WHERE EXISTS (SELECT 1 FROM questions WHERE id = $2::bigint)
ON CONFLICT (user_id, question_id) DO NOTHING
`

type InsertNewCardParams struct {
	UserID     int64
	QuestionID int64
	EaseFactor float64
	DueDate    pgtype.Timestamptz
}

func (q *Queries) InsertNewCard(ctx context.Context, arg InsertNewCardParams) (int64, error) {
	result, err := q.db.Exec(ctx, insertNewCard, arg.UserID, arg.QuestionID, arg.EaseFactor, arg.DueDate)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const updateCard = `
UPDATE cards SET
    card_type = $3,
    ease_factor = $4,
    interval_days = $5,
    repetitions = $6,
    lapses = $7,
    learning_step = $8,
    due_date = $9,
    is_suspended = $10,
    is_buried = $11,
    buried_until = $12,
    tags = $13,
    total_reviews = $14,
    times_correct = $15,
    consecutive_correct = $16,
    total_time_seconds = $17,
    updated_at = $18
WHERE user_id = $1 AND id = $2
`

type UpdateCardParams struct {
	UserID             int64
	ID                 int64
	CardType           int16
	EaseFactor         float64
	IntervalDays       int32
	Repetitions        int32
	Lapses             int32
	LearningStep       int32
	DueDate            pgtype.Timestamptz
	IsSuspended        bool
	IsBuried           bool
	BuriedUntil        pgtype.Timestamptz
	Tags               []string
	TotalReviews       int32
	TimesCorrect       int32
	ConsecutiveCorrect int32
	TotalTimeSeconds   float64
	UpdatedAt          pgtype.Timestamptz
}

func (q *Queries) UpdateCard(ctx context.Context, arg UpdateCardParams) (int64, error) {
	result, err := q.db.Exec(ctx, updateCard,
		arg.UserID,
		arg.ID,
		arg.CardType,
		arg.EaseFactor,
		arg.IntervalDays,
		arg.Repetitions,
		arg.Lapses,
		arg.LearningStep,
		arg.DueDate,
		arg.IsSuspended,
		arg.IsBuried,
		arg.BuriedUntil,
		arg.Tags,
		arg.TotalReviews,
		arg.TimesCorrect,
		arg.ConsecutiveCorrect,
		arg.TotalTimeSeconds,
		arg.UpdatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// Tags travel as one string per card joined with TagSeparator;
// string_to_array turns an empty string into an empty array.
const addCards = `
INSERT INTO cards (user_id, question_id, card_type, ease_factor, interval_days, repetitions,
    lapses, due_date, is_suspended, is_buried, buried_until, tags,
    total_reviews, times_correct, consecutive_correct, created_at, updated_at)
SELECT $1::bigint, t.question_id, t.card_type, t.ease_factor, t.interval_days, t.repetitions,
    t.lapses, t.due_date, t.is_suspended, t.is_buried, t.buried_until, string_to_array(t.tags, E'\x1f'),
    t.total_reviews, t.times_correct, t.consecutive_correct, $16::timestamptz, $16::timestamptz
FROM unnest($2::bigint[], $3::smallint[], $4::double precision[], $5::int[], $6::int[],
    $7::int[], $8::timestamptz[], $9::boolean[], $10::boolean[], $11::timestamptz[], $12::text[],
    $13::int[], $14::int[], $15::int[])
    AS t(question_id, card_type, ease_factor, interval_days, repetitions, lapses, due_date,
         is_suspended, is_buried, buried_until, tags,
         total_reviews, times_correct, consecutive_correct)
JOIN questions q ON q.id = t.question_id
ON CONFLICT (user_id, question_id) DO NOTHING
`

const TagSeparator = "\x1f"

type AddCardsParams struct {
	UserID              int64
	QuestionIDs         []int64
	CardTypes           []int16
	EaseFactors         []float64
	IntervalDays        []int32
	Repetitions         []int32
	Lapses              []int32
	DueDates            []pgtype.Timestamptz
	IsSuspended         []bool
	IsBuried            []bool
	BuriedUntil         []pgtype.Timestamptz
	Tags                []string
	TotalReviews        []int32
	TimesCorrect        []int32
	ConsecutiveCorrects []int32
	CreatedAt           pgtype.Timestamptz
}

func (q *Queries) AddCards(ctx context.Context, arg AddCardsParams) (int64, error) {
	result, err := q.db.Exec(ctx, addCards,
		arg.UserID,
		arg.QuestionIDs,
		arg.CardTypes,
		arg.EaseFactors,
		arg.IntervalDays,
		arg.Repetitions,
		arg.Lapses,
		arg.DueDates,
		arg.IsSuspended,
		arg.IsBuried,
		arg.BuriedUntil,
		arg.Tags,
		arg.TotalReviews,
		arg.TimesCorrect,
		arg.ConsecutiveCorrects,
		arg.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// The three bucket queries share their filter clause. An empty filter
// array means "no filter"; callers must pass empty arrays, not NULL.
const bucketFilter = `
  AND NOT c.is_suspended AND NOT c.is_buried AND q.is_active
  AND (cardinality($2::bigint[]) = 0 OR q.subject_id = ANY($2::bigint[]))
  AND (cardinality($3::bigint[]) = 0 OR q.subtopic_id = ANY($3::bigint[]))
  AND (cardinality($4::int[]) = 0 OR q.year = ANY($4::int[]))
`

type BucketParams struct {
	UserID      int64
	SubjectIDs  []int64
	SubtopicIDs []int64
	Years       []int32
	// Bound is unused by the new bucket.
	Bound pgtype.Timestamptz
	Limit int32
}

const getNewCards = `
SELECT ` + cardColumns + `
FROM cards c
JOIN questions q ON q.id = c.question_id
WHERE c.user_id = $1 AND c.card_type = 0` + bucketFilter + `
ORDER BY c.created_at, c.id
LIMIT $5
`

func (q *Queries) GetNewCards(ctx context.Context, arg BucketParams) ([]Card, error) {
	return scanCards(q.db.Query(ctx, getNewCards,
		arg.UserID, arg.SubjectIDs, arg.SubtopicIDs, arg.Years, arg.Limit))
}

const getLearningCards = `
SELECT ` + cardColumns + `
FROM cards c
JOIN questions q ON q.id = c.question_id
WHERE c.user_id = $1 AND c.card_type IN (1, 3) AND c.due_date <= $5` + bucketFilter + `
ORDER BY c.due_date, c.id
LIMIT $6
`

func (q *Queries) GetLearningCards(ctx context.Context, arg BucketParams) ([]Card, error) {
	return scanCards(q.db.Query(ctx, getLearningCards,
		arg.UserID, arg.SubjectIDs, arg.SubtopicIDs, arg.Years, arg.Bound, arg.Limit))
}

const getReviewCards = `
SELECT ` + cardColumns + `
FROM cards c
JOIN questions q ON q.id = c.question_id
WHERE c.user_id = $1 AND c.card_type = 2 AND c.due_date < $5` + bucketFilter + `
ORDER BY c.due_date, c.id
LIMIT $6
`

func (q *Queries) GetReviewCards(ctx context.Context, arg BucketParams) ([]Card, error) {
	return scanCards(q.db.Query(ctx, getReviewCards,
		arg.UserID, arg.SubjectIDs, arg.SubtopicIDs, arg.Years, arg.Bound, arg.Limit))
}

const getReviewDueDates = `
SELECT due_date FROM cards
WHERE user_id = $1 AND card_type = 2 AND NOT is_suspended AND due_date < $2
ORDER BY due_date
`

type GetReviewDueDatesParams struct {
	UserID int64
	Until  pgtype.Timestamptz
}

func (q *Queries) GetReviewDueDates(ctx context.Context, arg GetReviewDueDatesParams) ([]pgtype.Timestamptz, error) {
	rows, err := q.db.Query(ctx, getReviewDueDates, arg.UserID, arg.Until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []pgtype.Timestamptz{}
	for rows.Next() {
		var due pgtype.Timestamptz
		if err := rows.Scan(&due); err != nil {
			return nil, err
		}
		items = append(items, due)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const unburyExpired = `
UPDATE cards SET is_buried = false, buried_until = NULL, updated_at = $2
WHERE user_id = $1 AND is_buried AND buried_until IS NOT NULL AND buried_until <= $2
`

type UnburyExpiredParams struct {
	UserID int64
	Now    pgtype.Timestamptz
}

func (q *Queries) UnburyExpired(ctx context.Context, arg UnburyExpiredParams) (int64, error) {
	result, err := q.db.Exec(ctx, unburyExpired, arg.UserID, arg.Now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
