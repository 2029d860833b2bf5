package scheduler

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestNewCard(t *testing.T) {
	is := is.New(t)
	c := NewCard(42, 7, testNow)
	is.Equal(c.CardType, New)
	is.Equal(c.EaseFactor, 2.5)
	is.Equal(c.IntervalDays, 0)
	is.Equal(c.Repetitions, 0)
	is.Equal(c.Lapses, 0)
	is.Equal(c.LearningStep, 0)
	is.True(c.DueDate.Equal(testNow))
	is.True(!c.IsSuspended)
	is.True(!c.IsBuried)
	is.Equal(c.Tags, []string{})
}

func TestParseGrade(t *testing.T) {
	is := is.New(t)
	for in, want := range map[string]Grade{"again": Again, "Hard": Hard, " GOOD ": Good, "easy": Easy} {
		g, err := ParseGrade(in)
		is.NoErr(err)
		is.Equal(g, want)
	}
	_, err := ParseGrade("perfect")
	is.True(errors.Is(err, ErrInvalidGrade))
}

func TestCardTypeJSON(t *testing.T) {
	is := is.New(t)
	c := NewCard(1, 2, testNow)
	c.CardType = Relearning
	bts, err := json.Marshal(c)
	is.NoErr(err)

	var out map[string]any
	is.NoErr(json.Unmarshal(bts, &out))
	is.Equal(out["card_type"], "relearning")
	_, hasBuried := out["buried_until"]
	is.True(!hasBuried)

	var back Card
	is.NoErr(json.Unmarshal(bts, &back))
	is.Equal(back.CardType, Relearning)

	err = json.Unmarshal([]byte(`{"card_type":"mastered"}`), &back)
	is.True(errors.Is(err, ErrInvalidCardType))
}

func TestRecordAnswer(t *testing.T) {
	is := is.New(t)
	c := NewCard(1, 2, testNow)
	c.RecordAnswer(true, 12.5, testNow)
	c.RecordAnswer(true, 3, testNow)
	is.Equal(c.ConsecutiveCorrect, 2)
	c.RecordAnswer(false, -1, testNow.Add(time.Minute))
	is.Equal(c.TotalReviews, 3)
	is.Equal(c.TimesCorrect, 2)
	is.Equal(c.ConsecutiveCorrect, 0)
	is.Equal(c.TotalTimeSeconds, 15.5)
	is.True(c.UpdatedAt.Equal(testNow.Add(time.Minute)))
}

func TestResetCard(t *testing.T) {
	is := is.New(t)
	c := cardIn(Review, 1.7, 40, 0, 6, 9)
	c.IsSuspended = true
	c.Tags = []string{LeechTag, "physics"}
	c.TotalReviews = 20
	c.Reset(testNow)

	is.Equal(c.CardType, New)
	is.Equal(c.EaseFactor, MaxEase)
	is.Equal(c.IntervalDays, 0)
	is.Equal(c.Lapses, 0)
	is.True(!c.IsSuspended)
	is.Equal(c.Tags, []string{"physics"})
	is.Equal(c.TotalReviews, 20)
	is.True(c.DueDate.Equal(testNow))
}
