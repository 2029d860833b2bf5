package scheduler

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// LeechAction is what happens to a card once it crosses the leech threshold.
type LeechAction string

const (
	LeechSuspend LeechAction = "suspend"
	LeechTagOnly LeechAction = "tag"
	LeechBury    LeechAction = "bury"
)

const (
	MinEase = 1.30
	MaxEase = 2.50
)

// Settings are the per-user scheduler tunables. Treat a Settings value as
// immutable once loaded; DefaultSettings hands out a fresh copy each call.
type Settings struct {
	// Learning steps, in minutes.
	LearningSteps          []int       `json:"learning_steps" validate:"min=1,dive,min=1"`
	GraduatingInterval     int         `json:"graduating_interval" validate:"min=1"`
	EasyInterval           int         `json:"easy_interval" validate:"min=1"`
	StartingEase           float64     `json:"starting_ease" validate:"gte=1.3,lte=2.5"`
	EasyBonus              float64     `json:"easy_bonus" validate:"gte=1,lte=10"`
	HardIntervalMultiplier float64     `json:"hard_interval_multiplier" validate:"gt=0,lte=10"`
	IntervalModifier       float64     `json:"interval_modifier" validate:"gt=0,lte=10"`
	NewIntervalPercentage  float64     `json:"new_interval_percentage" validate:"gte=0,lte=1"`
	MinimumInterval        int         `json:"minimum_interval" validate:"min=1"`
	MaximumInterval        int         `json:"maximum_interval" validate:"gtefield=MinimumInterval"`
	LeechThreshold         int         `json:"leech_threshold" validate:"min=1"`
	LeechAction            LeechAction `json:"leech_action" validate:"oneof=suspend tag bury"`
	ShowNewCardsFirst      bool        `json:"show_new_cards_first"`
	NewCardsPerDay         int         `json:"new_cards_per_day" validate:"min=0"`
	ReviewsPerDay          int         `json:"reviews_per_day" validate:"min=0"`
	Timezone               string      `json:"timezone" validate:"timezone"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// DefaultSettings returns the documented default tunables.
func DefaultSettings() Settings {
	return Settings{
		LearningSteps:          []int{1, 10},
		GraduatingInterval:     1,
		EasyInterval:           4,
		StartingEase:           2.50,
		EasyBonus:              1.30,
		HardIntervalMultiplier: 1.20,
		IntervalModifier:       1.00,
		NewIntervalPercentage:  0.00,
		MinimumInterval:        1,
		MaximumInterval:        36500,
		LeechThreshold:         8,
		LeechAction:            LeechSuspend,
		ShowNewCardsFirst:      true,
		NewCardsPerDay:         20,
		ReviewsPerDay:          200,
		Timezone:               "UTC",
	}
}

// Validate reports the first set of field violations, if any.
func (s Settings) Validate() error {
	return validate.Struct(s)
}

// Location resolves the user's timezone. An unknown name falls back to UTC.
func (s Settings) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Clone returns a copy that shares no memory with s.
func (s Settings) Clone() Settings {
	c := s
	c.LearningSteps = append([]int(nil), s.LearningSteps...)
	return c
}

// step returns the learning step in minutes at index i, clamped to the
// configured range.
func (s Settings) step(i int) int {
	if len(s.LearningSteps) == 0 {
		return DefaultSettings().LearningSteps[0]
	}
	i = max(0, min(i, len(s.LearningSteps)-1))
	return s.LearningSteps[i]
}
