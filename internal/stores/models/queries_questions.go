package models

import (
	"context"
)

const getCorrectOption = `
SELECT correct_option FROM questions WHERE id = $1
`

func (q *Queries) GetCorrectOption(ctx context.Context, id int64) (string, error) {
	row := q.db.QueryRow(ctx, getCorrectOption, id)
	var correctOption string
	err := row.Scan(&correctOption)
	return correctOption, err
}

const bumpQuestionStats = `
UPDATE questions SET
    times_answered = times_answered + 1,
    times_correct = times_correct + $2,
    total_time_seconds = total_time_seconds + $3
WHERE id = $1
`

type BumpQuestionStatsParams struct {
	ID      int64
	Correct int64
	Seconds float64
}

func (q *Queries) BumpQuestionStats(ctx context.Context, arg BumpQuestionStatsParams) (int64, error) {
	result, err := q.db.Exec(ctx, bumpQuestionStats, arg.ID, arg.Correct, arg.Seconds)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const insertQuestion = `
INSERT INTO questions (subject_id, subtopic_id, year, correct_option, is_active)
VALUES ($1, $2, $3, $4, $5)
RETURNING id
`

type InsertQuestionParams struct {
	SubjectID     int64
	SubtopicID    int64
	Year          int32
	CorrectOption string
	IsActive      bool
}

func (q *Queries) InsertQuestion(ctx context.Context, arg InsertQuestionParams) (int64, error) {
	row := q.db.QueryRow(ctx, insertQuestion,
		arg.SubjectID, arg.SubtopicID, arg.Year, arg.CorrectOption, arg.IsActive)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const getQuestion = `
SELECT id, subject_id, subtopic_id, year, correct_option, is_active,
    times_answered, times_correct, total_time_seconds
FROM questions WHERE id = $1
`

func (q *Queries) GetQuestion(ctx context.Context, id int64) (Question, error) {
	row := q.db.QueryRow(ctx, getQuestion, id)
	var i Question
	err := row.Scan(
		&i.ID,
		&i.SubjectID,
		&i.SubtopicID,
		&i.Year,
		&i.CorrectOption,
		&i.IsActive,
		&i.TimesAnswered,
		&i.TimesCorrect,
		&i.TotalTimeSeconds,
	)
	return i, err
}
