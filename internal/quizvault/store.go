package quizvault

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/domino14/quizvault/internal/scheduler"
)

// BucketQuery selects one bucket of the due queue. Every bucket excludes
// suspended and buried cards and cards whose question is inactive, and
// applies Filters before Limit.
type BucketQuery struct {
	UserID  int64
	Filters scheduler.Filters
	Limit   int
	// Now bounds the learning bucket (due_date <= Now).
	Now time.Time
	// DayEnd is the user's next local midnight; the review bucket takes
	// cards with due_date < DayEnd.
	DayEnd time.Time
}

// Activity counts what a user already studied since some instant.
type Activity struct {
	NewStudied int
	Reviews    int
}

// Store is the persistence collaborator. Methods that take a user id only
// see that user's rows; anything else reports ErrNotFound. Failures are
// returned as *StoreError.
type Store interface {
	GetCard(ctx context.Context, userID, cardID int64) (scheduler.Card, error)
	// GetCardForUpdate locks the card row until the surrounding
	// transaction ends. Outside InTx it behaves like GetCard.
	GetCardForUpdate(ctx context.Context, userID, cardID int64) (scheduler.Card, error)
	GetOrCreateCard(ctx context.Context, userID, questionID int64, now time.Time) (scheduler.Card, error)
	SaveCard(ctx context.Context, c scheduler.Card) error
	ImportCards(ctx context.Context, cards []scheduler.Card) (int64, error)

	// GetSettings returns the raw stored settings document, or ErrNotFound.
	GetSettings(ctx context.Context, userID int64) ([]byte, error)
	// CreateSettings stores params unless the user already has settings,
	// and returns whichever document ended up stored.
	CreateSettings(ctx context.Context, userID int64, params []byte) ([]byte, error)
	UpdateSettings(ctx context.Context, userID int64, params []byte) error

	CorrectOption(ctx context.Context, questionID int64) (string, error)
	BumpQuestionStats(ctx context.Context, questionID int64, correct bool, seconds float64) error

	AppendReviewLog(ctx context.Context, ev *scheduler.ReviewEvent) error
	FindReviewBySubmission(ctx context.Context, userID int64, submissionID uuid.UUID) (scheduler.ReviewEvent, error)
	RecentReviews(ctx context.Context, userID, cardID int64, limit int) ([]scheduler.ReviewEvent, error)
	ActivitySince(ctx context.Context, userID int64, since time.Time) (Activity, error)

	NewCards(ctx context.Context, q BucketQuery) ([]scheduler.Card, error)
	LearningCards(ctx context.Context, q BucketQuery) ([]scheduler.Card, error)
	ReviewCards(ctx context.Context, q BucketQuery) ([]scheduler.Card, error)
	// ReviewDueDates lists due dates of unsuspended review cards due
	// before until.
	ReviewDueDates(ctx context.Context, userID int64, until time.Time) ([]time.Time, error)
	UnburyExpired(ctx context.Context, userID int64, now time.Time) (int64, error)

	// InTx runs fn against a Store bound to one transaction. The
	// transaction commits only if fn returns nil.
	InTx(ctx context.Context, fn func(Store) error) error
}
