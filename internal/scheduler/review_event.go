package scheduler

import (
	"time"

	"github.com/google/uuid"
)

// ReviewEvent is one append-only entry in a card's answer history.
type ReviewEvent struct {
	ID                  int64        `json:"id"`
	UserID              int64        `json:"user_id"`
	CardID              int64        `json:"card_id"`
	QuestionID          int64        `json:"question_id"`
	Grade               Grade        `json:"grade"`
	SelectedOption      string       `json:"selected_option"`
	IsCorrect           bool         `json:"is_correct"`
	ResponseTimeSeconds float64      `json:"response_time_seconds"`
	Before              CardSnapshot `json:"before"`
	After               CardSnapshot `json:"after"`
	SessionID           uuid.UUID    `json:"session_id"`
	// SubmissionID is the client-chosen key that makes a resubmitted answer
	// a replay. uuid.Nil means the client did not send one.
	SubmissionID uuid.UUID `json:"submission_id"`
	ReviewedAt   time.Time `json:"reviewed_at"`
}
