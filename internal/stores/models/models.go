package models

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Card struct {
	ID                 int64
	UserID             int64
	QuestionID         int64
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
	CreatedAt          pgtype.Timestamptz
	UpdatedAt          pgtype.Timestamptz
}

type Question struct {
	ID               int64
	SubjectID        int64
	SubtopicID       int64
	Year             int32
	CorrectOption    string
	IsActive         bool
	TimesAnswered    int64
	TimesCorrect     int64
	TotalTimeSeconds float64
}

type ReviewLog struct {
	ID                  int64
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

type SchedulerSetting struct {
	UserID    int64
	Params    []byte
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}
