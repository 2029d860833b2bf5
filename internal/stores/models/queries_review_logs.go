package models

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const reviewLogColumns = `id, user_id, card_id, question_id, grade, selected_option, is_correct,
    response_time_seconds, before_state, after_state, session_id, submission_id, reviewed_at`

func scanReviewLog(row pgx.Row) (ReviewLog, error) {
	var i ReviewLog
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.CardID,
		&i.QuestionID,
		&i.Grade,
		&i.SelectedOption,
		&i.IsCorrect,
		&i.ResponseTimeSeconds,
		&i.BeforeState,
		&i.AfterState,
		&i.SessionID,
		&i.SubmissionID,
		&i.ReviewedAt,
	)
	return i, err
}

const insertReviewLog = `
INSERT INTO review_logs (user_id, card_id, question_id, grade, selected_option, is_correct,
    response_time_seconds, before_state, after_state, session_id, submission_id, reviewed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING id
`

type InsertReviewLogParams struct {
	UserID              int64
	CardID              int64
	QuestionID          int64
	Grade               int16
	SelectedOption      string
	IsCorrect           bool
	ResponseTimeSeconds float64
	BeforeState         []byte
	AfterState          []byte
	SessionID           pgtype.UUID
	SubmissionID        pgtype.UUID
	ReviewedAt          pgtype.Timestamptz
}

func (q *Queries) InsertReviewLog(ctx context.Context, arg InsertReviewLogParams) (int64, error) {
	row := q.db.QueryRow(ctx, insertReviewLog,
		arg.UserID,
		arg.CardID,
		arg.QuestionID,
		arg.Grade,
		arg.SelectedOption,
		arg.IsCorrect,
		arg.ResponseTimeSeconds,
		arg.BeforeState,
		arg.AfterState,
		arg.SessionID,
		arg.SubmissionID,
		arg.ReviewedAt,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const getReviewBySubmission = `
SELECT ` + reviewLogColumns + `
FROM review_logs WHERE user_id = $1 AND submission_id = $2
`

type GetReviewBySubmissionParams struct {
	UserID       int64
	SubmissionID pgtype.UUID
}

func (q *Queries) GetReviewBySubmission(ctx context.Context, arg GetReviewBySubmissionParams) (ReviewLog, error) {
	return scanReviewLog(q.db.QueryRow(ctx, getReviewBySubmission, arg.UserID, arg.SubmissionID))
}

const getRecentReviews = `
SELECT ` + reviewLogColumns + `
FROM review_logs WHERE user_id = $1 AND card_id = $2
ORDER BY reviewed_at DESC, id DESC
LIMIT $3
`

type GetRecentReviewsParams struct {
	UserID int64
	CardID int64
	Limit  int32
}

func (q *Queries) GetRecentReviews(ctx context.Context, arg GetRecentReviewsParams) ([]ReviewLog, error) {
	rows, err := q.db.Query(ctx, getRecentReviews, arg.UserID, arg.CardID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ReviewLog{}
	for rows.Next() {
		i, err := scanReviewLog(rows)
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

const getActivitySince = `
SELECT
    count(*) FILTER (WHERE before_state->>'card_type' = 'new') AS new_studied,
    count(*) FILTER (WHERE before_state->>'card_type' = 'review') AS reviews
FROM review_logs
WHERE user_id = $1 AND reviewed_at >= $2
`

type GetActivitySinceParams struct {
	UserID int64
	Since  pgtype.Timestamptz
}

type GetActivitySinceRow struct {
	NewStudied int64
	Reviews    int64
}

func (q *Queries) GetActivitySince(ctx context.Context, arg GetActivitySinceParams) (GetActivitySinceRow, error) {
	row := q.db.QueryRow(ctx, getActivitySince, arg.UserID, arg.Since)
	var i GetActivitySinceRow
	err := row.Scan(&i.NewStudied, &i.Reviews)
	return i, err
}
