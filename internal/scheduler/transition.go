package scheduler

import (
	"fmt"
	"math"
	"time"
)

// transitionFunc mutates c in place for one (state, grade) pair. now is
// already in the user's location.
type transitionFunc func(c *Card, s Settings, now time.Time)

// transitions is the complete state x grade table. Every valid pair has
// an entry; there is no other way for a card to change state.
var transitions = [Relearning + 1][Easy + 1]transitionFunc{
	New: {
		Again: startLearning,
		Hard:  startLearning,
		Good:  startLearning,
		Easy:  graduateEasy,
	},
	Learning: {
		Again: restartSteps,
		Hard:  repeatStep,
		Good:  advanceStep,
		Easy:  graduateEasy,
	},
	Review: {
		Again: lapse,
		Hard:  reviewHard,
		Good:  reviewGood,
		Easy:  reviewEasy,
	},
	Relearning: {
		Again: restartSteps,
		Hard:  repeatStep,
		Good:  relearnGood,
		Easy:  relearnEasy,
	},
}

// Transition computes the card state that follows answering c with grade g.
// It never mutates c. Learning and relearning due dates are minute offsets
// from now; review due dates are whole days from local midnight of now, so
// now must be expressed in the user's timezone.
func Transition(c Card, g Grade, s Settings, now time.Time) (Card, error) {
	if !g.IsValid() {
		return c, fmt.Errorf("%w: %d", ErrInvalidGrade, int(g))
	}
	if !c.CardType.IsValid() {
		return c, fmt.Errorf("%w: %d", ErrInvalidCardType, int(c.CardType))
	}
	next := c
	next.Tags = append([]string(nil), c.Tags...)
	next.EaseFactor = clampEase(next.EaseFactor)
	next.LearningStep = max(0, min(next.LearningStep, len(s.LearningSteps)-1))

	transitions[c.CardType][g](&next, s, now)
	next.UpdatedAt = now
	return next, nil
}

func startLearning(c *Card, s Settings, now time.Time) {
	c.CardType = Learning
	c.LearningStep = 0
	c.DueDate = minutesFrom(now, s.step(0))
}

func graduateEasy(c *Card, s Settings, now time.Time) {
	c.CardType = Review
	c.IntervalDays = s.ClampInterval(s.EasyInterval)
	c.EaseFactor = clampEase(s.StartingEase)
	c.Repetitions = 1
	c.LearningStep = 0
	c.DueDate = daysFrom(now, c.IntervalDays)
}

func graduate(c *Card, s Settings, now time.Time) {
	c.CardType = Review
	c.IntervalDays = s.ClampInterval(s.GraduatingInterval)
	c.EaseFactor = clampEase(s.StartingEase)
	c.Repetitions = 1
	c.LearningStep = 0
	c.DueDate = daysFrom(now, c.IntervalDays)
}

// restartSteps handles "again" while in learning or relearning.
func restartSteps(c *Card, s Settings, now time.Time) {
	c.LearningStep = 0
	c.EaseFactor = clampEase(c.EaseFactor - 0.20)
	c.DueDate = minutesFrom(now, s.step(0))
}

func repeatStep(c *Card, s Settings, now time.Time) {
	c.DueDate = minutesFrom(now, s.step(c.LearningStep))
}

func advanceStep(c *Card, s Settings, now time.Time) {
	if c.LearningStep+1 >= len(s.LearningSteps) {
		graduate(c, s, now)
		return
	}
	c.LearningStep++
	c.DueDate = minutesFrom(now, s.step(c.LearningStep))
}

func lapse(c *Card, s Settings, now time.Time) {
	c.CardType = Relearning
	c.LearningStep = 0
	c.Lapses++
	c.Repetitions = 0
	c.EaseFactor = clampEase(c.EaseFactor - 0.20)
	c.DueDate = minutesFrom(now, s.step(0))
}

func reviewHard(c *Card, s Settings, now time.Time) {
	c.IntervalDays = scaledInterval(s, float64(c.IntervalDays)*s.HardIntervalMultiplier)
	c.Repetitions++
	c.EaseFactor = clampEase(c.EaseFactor - 0.15)
	c.DueDate = daysFrom(now, c.IntervalDays)
}

func reviewGood(c *Card, s Settings, now time.Time) {
	c.IntervalDays = scaledInterval(s, float64(c.IntervalDays)*c.EaseFactor)
	c.Repetitions++
	c.DueDate = daysFrom(now, c.IntervalDays)
}

func reviewEasy(c *Card, s Settings, now time.Time) {
	c.IntervalDays = scaledInterval(s, float64(c.IntervalDays)*c.EaseFactor*s.EasyBonus)
	c.Repetitions++
	c.EaseFactor = clampEase(c.EaseFactor + 0.15)
	c.DueDate = daysFrom(now, c.IntervalDays)
}

// relearnGood graduates a lapsed card. IntervalDays still holds the
// interval the card had before it lapsed.
func relearnGood(c *Card, s Settings, now time.Time) {
	ivl := int(math.Round(float64(c.IntervalDays) * s.NewIntervalPercentage))
	if ivl == 0 {
		ivl = s.GraduatingInterval
	}
	rejoinReview(c, s, now, ivl)
}

func relearnEasy(c *Card, s Settings, now time.Time) {
	ivl := int(math.Round(float64(c.IntervalDays) * s.NewIntervalPercentage * s.EasyBonus))
	if ivl == 0 {
		ivl = s.EasyInterval
	}
	rejoinReview(c, s, now, ivl)
}

func rejoinReview(c *Card, s Settings, now time.Time, ivl int) {
	c.CardType = Review
	c.LearningStep = 0
	c.IntervalDays = s.ClampInterval(ivl)
	c.DueDate = daysFrom(now, c.IntervalDays)
}

// scaledInterval clamps in float space so an oversized product cannot wrap
// around when converted to int.
func scaledInterval(s Settings, raw float64) int {
	days := math.Round(raw * s.IntervalModifier)
	if s.MaximumInterval > 0 && !(days < float64(s.MaximumInterval)) {
		return s.MaximumInterval
	}
	return s.ClampInterval(int(days))
}

// ClampInterval bounds a review interval to [MinimumInterval, MaximumInterval].
// A zero MaximumInterval means no upper bound.
func (s Settings) ClampInterval(days int) int {
	days = max(s.MinimumInterval, days)
	if s.MaximumInterval > 0 {
		days = min(s.MaximumInterval, days)
	}
	return days
}

func clampEase(e float64) float64 {
	return max(MinEase, min(MaxEase, e))
}

func minutesFrom(now time.Time, minutes int) time.Time {
	return now.Add(time.Duration(minutes) * time.Minute)
}

func daysFrom(now time.Time, days int) time.Time {
	return StartOfDay(now).AddDate(0, 0, days)
}

// StartOfDay is local midnight of t, in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay is the first instant of the day after t, in t's location.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1)
}
