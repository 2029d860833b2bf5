package scheduler

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// CardType is the learning stage of a card.
type CardType int

const (
	New CardType = iota
	Learning
	Review
	Relearning
)

var (
	cardTypeNames  = [...]string{New: "new", Learning: "learning", Review: "review", Relearning: "relearning"}
	cardTypeByName = map[string]CardType{
		"new":        New,
		"learning":   Learning,
		"review":     Review,
		"relearning": Relearning,
	}
)

// IsValid reports whether t is one of the four card types.
func (t CardType) IsValid() bool {
	return t >= New && t <= Relearning
}

func (t CardType) String() string {
	if t.IsValid() {
		return cardTypeNames[t]
	}
	return fmt.Sprintf("CardType(%d)", int(t))
}

// InSteps reports whether the card is scheduled on minute-granularity
// learning steps rather than whole days.
func (t CardType) InSteps() bool {
	return t == Learning || t == Relearning
}

// ParseCardType converts a stored card type name back to a CardType.
func ParseCardType(s string) (CardType, error) {
	t, ok := cardTypeByName[strings.ToLower(s)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCardType, s)
	}
	return t, nil
}

func (t CardType) MarshalText() ([]byte, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCardType, int(t))
	}
	return []byte(cardTypeNames[t]), nil
}

func (t *CardType) UnmarshalText(text []byte) error {
	v, err := ParseCardType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Grade is the self-reported recall quality for one answer.
type Grade int

const (
	Again Grade = iota + 1
	Hard
	Good
	Easy
)

var (
	gradeNames  = [...]string{Again: "again", Hard: "hard", Good: "good", Easy: "easy"}
	gradeByName = map[string]Grade{
		"again": Again,
		"hard":  Hard,
		"good":  Good,
		"easy":  Easy,
	}
)

// IsValid reports whether g is Again through Easy.
func (g Grade) IsValid() bool {
	return g >= Again && g <= Easy
}

func (g Grade) String() string {
	if g.IsValid() {
		return gradeNames[g]
	}
	return fmt.Sprintf("Grade(%d)", int(g))
}

// ParseGrade accepts a grade name, case-insensitively.
func ParseGrade(s string) (Grade, error) {
	g, ok := gradeByName[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidGrade, s)
	}
	return g, nil
}

func (g Grade) MarshalText() ([]byte, error) {
	if !g.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidGrade, int(g))
	}
	return []byte(gradeNames[g]), nil
}

func (g *Grade) UnmarshalText(text []byte) error {
	v, err := ParseGrade(string(text))
	if err != nil {
		return err
	}
	*g = v
	return nil
}

// LeechTag is attached to a card's tags when the leech action is "tag".
const LeechTag = "leech"

// Card is the per-user, per-question scheduling record.
type Card struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	QuestionID   int64     `json:"question_id"`
	CardType     CardType  `json:"card_type"`
	EaseFactor   float64   `json:"ease_factor"`
	IntervalDays int       `json:"interval_days"`
	Repetitions  int       `json:"repetitions"`
	Lapses       int       `json:"lapses"`
	LearningStep int       `json:"learning_step"`
	DueDate      time.Time `json:"due_date"`
	IsSuspended  bool      `json:"is_suspended"`
	IsBuried     bool      `json:"is_buried"`
	BuriedUntil  time.Time `json:"buried_until,omitzero"`
	Tags         []string  `json:"tags"`

	TotalReviews       int     `json:"total_reviews"`
	TimesCorrect       int     `json:"times_correct"`
	ConsecutiveCorrect int     `json:"consecutive_correct"`
	TotalTimeSeconds   float64 `json:"total_time_seconds"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCard returns the state of a card on first exposure: new, due now.
func NewCard(userID, questionID int64, now time.Time) Card {
	return Card{
		UserID:     userID,
		QuestionID: questionID,
		CardType:   New,
		EaseFactor: MaxEase,
		DueDate:    now,
		Tags:       []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// HasTag reports whether the card carries tag.
func (c Card) HasTag(tag string) bool {
	return slices.Contains(c.Tags, tag)
}

// RecordAnswer updates the aggregate counters after an answer. It does
// not touch any scheduling field.
func (c *Card) RecordAnswer(correct bool, seconds float64, now time.Time) {
	c.TotalReviews++
	if correct {
		c.TimesCorrect++
		c.ConsecutiveCorrect++
	} else {
		c.ConsecutiveCorrect = 0
	}
	if seconds > 0 {
		c.TotalTimeSeconds += seconds
	}
	c.UpdatedAt = now
}

// Reset puts a card back to the new state. Answer history counters are
// kept; lapses and all scheduling fields start over.
func (c *Card) Reset(now time.Time) {
	c.CardType = New
	c.EaseFactor = MaxEase
	c.IntervalDays = 0
	c.Repetitions = 0
	c.Lapses = 0
	c.LearningStep = 0
	c.DueDate = now
	c.IsSuspended = false
	c.IsBuried = false
	c.BuriedUntil = time.Time{}
	c.Tags = slices.DeleteFunc(slices.Clone(c.Tags), func(t string) bool { return t == LeechTag })
	c.UpdatedAt = now
}

// CardSnapshot is the scheduling part of a card, recorded before and after
// every answer.
type CardSnapshot struct {
	CardType     CardType  `json:"card_type"`
	EaseFactor   float64   `json:"ease_factor"`
	IntervalDays int       `json:"interval_days"`
	Repetitions  int       `json:"repetitions"`
	Lapses       int       `json:"lapses"`
	LearningStep int       `json:"learning_step"`
	DueDate      time.Time `json:"due_date"`
	IsSuspended  bool      `json:"is_suspended"`
	IsBuried     bool      `json:"is_buried"`
}

// Snapshot captures the scheduling state of c.
func (c Card) Snapshot() CardSnapshot {
	return CardSnapshot{
		CardType:     c.CardType,
		EaseFactor:   c.EaseFactor,
		IntervalDays: c.IntervalDays,
		Repetitions:  c.Repetitions,
		Lapses:       c.Lapses,
		LearningStep: c.LearningStep,
		DueDate:      c.DueDate,
		IsSuspended:  c.IsSuspended,
		IsBuried:     c.IsBuried,
	}
}
