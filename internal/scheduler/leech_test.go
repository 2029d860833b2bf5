package scheduler

import (
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestCheckLeechBelowThreshold(t *testing.T) {
	is := is.New(t)
	c := cardIn(Relearning, 1.3, 5, 0, 0, 7)
	got, res := CheckLeech(c, DefaultSettings(), testNow)
	is.True(!res.IsLeech)
	is.True(!got.IsSuspended)
}

func TestCheckLeechSuspend(t *testing.T) {
	is := is.New(t)
	c := cardIn(Relearning, 1.3, 5, 0, 0, 8)
	got, res := CheckLeech(c, DefaultSettings(), testNow)
	is.True(res.IsLeech)
	is.True(res.Applied)
	is.Equal(res.Action, LeechSuspend)
	is.True(got.IsSuspended)
	is.True(!c.IsSuspended) // input untouched
}

func TestCheckLeechRunsOnEveryLapsePastThreshold(t *testing.T) {
	is := is.New(t)
	s := DefaultSettings()
	s.LeechThreshold = 2
	c := cardIn(Review, 2.5, 10, 0, 3, 0)
	for i := 1; i <= 4; i++ {
		next, err := Transition(c, Again, s, testNow)
		is.NoErr(err)
		next, res := CheckLeech(next, s, testNow)
		is.Equal(res.IsLeech, i >= 2)
		is.Equal(next.IsSuspended, i >= 2)
		// back into review for the next lapse
		next.IsSuspended = false
		next.CardType = Review
		c = next
	}
}

func TestCheckLeechTag(t *testing.T) {
	is := is.New(t)
	s := DefaultSettings()
	s.LeechAction = LeechTagOnly
	c := cardIn(Relearning, 1.3, 5, 0, 0, 9)
	c.Tags = []string{"geometry"}

	got, res := CheckLeech(c, s, testNow)
	is.True(res.Applied)
	is.Equal(got.Tags, []string{"geometry", LeechTag})
	is.True(!got.IsSuspended)
	is.True(!got.IsBuried)
	is.Equal(c.Tags, []string{"geometry"})

	again, _ := CheckLeech(got, s, testNow)
	is.Equal(again.Tags, []string{"geometry", LeechTag})
}

func TestCheckLeechBury(t *testing.T) {
	is := is.New(t)
	s := DefaultSettings()
	s.LeechAction = LeechBury
	got, res := CheckLeech(cardIn(Relearning, 1.3, 5, 0, 0, 8), s, testNow)
	is.True(res.Applied)
	is.True(got.IsBuried)
	is.True(got.BuriedUntil.Equal(time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)))
}

func TestCheckLeechUnknownAction(t *testing.T) {
	is := is.New(t)
	s := DefaultSettings()
	s.LeechAction = "explode"
	c := cardIn(Relearning, 1.3, 5, 0, 0, 8)
	got, res := CheckLeech(c, s, testNow)
	is.True(res.IsLeech)
	is.True(!res.Applied)
	is.Equal(got.Snapshot(), c.Snapshot())
}
