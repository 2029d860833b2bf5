// Package quizvault holds the wire types and connect bindings of the
// QuizVault RPC service. Messages are plain structs sent as JSON.
package quizvault

import "time"

type Card struct {
	ID                 int64     `json:"id"`
	QuestionID         int64     `json:"question_id"`
	CardType           string    `json:"card_type"`
	EaseFactor         float64   `json:"ease_factor"`
	IntervalDays       int       `json:"interval_days"`
	Repetitions        int       `json:"repetitions"`
	Lapses             int       `json:"lapses"`
	LearningStep       int       `json:"learning_step"`
	DueDate            time.Time `json:"due_date"`
	IsSuspended        bool      `json:"is_suspended"`
	IsBuried           bool      `json:"is_buried"`
	BuriedUntil        time.Time `json:"buried_until,omitzero"`
	Tags               []string  `json:"tags"`
	TotalReviews       int       `json:"total_reviews"`
	TimesCorrect       int       `json:"times_correct"`
	ConsecutiveCorrect int       `json:"consecutive_correct"`
	TotalTimeSeconds   float64   `json:"total_time_seconds"`
}

type ReviewEvent struct {
	ID                  int64     `json:"id"`
	Grade               string    `json:"grade"`
	SelectedOption      string    `json:"selected_option"`
	IsCorrect           bool      `json:"is_correct"`
	ResponseTimeSeconds float64   `json:"response_time_seconds"`
	CardTypeBefore      string    `json:"card_type_before"`
	CardTypeAfter       string    `json:"card_type_after"`
	EaseBefore          float64   `json:"ease_before"`
	EaseAfter           float64   `json:"ease_after"`
	DueAfter            time.Time `json:"due_after"`
	SessionID           string    `json:"session_id,omitempty"`
	ReviewedAt          time.Time `json:"reviewed_at"`
}

type Settings struct {
	LearningSteps          []int   `json:"learning_steps"`
	GraduatingInterval     int     `json:"graduating_interval"`
	EasyInterval           int     `json:"easy_interval"`
	StartingEase           float64 `json:"starting_ease"`
	EasyBonus              float64 `json:"easy_bonus"`
	HardIntervalMultiplier float64 `json:"hard_interval_multiplier"`
	IntervalModifier       float64 `json:"interval_modifier"`
	NewIntervalPercentage  float64 `json:"new_interval_percentage"`
	MinimumInterval        int     `json:"minimum_interval"`
	MaximumInterval        int     `json:"maximum_interval"`
	LeechThreshold         int     `json:"leech_threshold"`
	LeechAction            string  `json:"leech_action"`
	ShowNewCardsFirst      bool    `json:"show_new_cards_first"`
	NewCardsPerDay         int     `json:"new_cards_per_day"`
	ReviewsPerDay          int     `json:"reviews_per_day"`
	Timezone               string  `json:"timezone"`
}

type Filters struct {
	SubjectIDs  []int64 `json:"subject_ids,omitempty"`
	SubtopicIDs []int64 `json:"subtopic_ids,omitempty"`
	Years       []int32 `json:"years,omitempty"`
}

type Limits struct {
	New      int `json:"new"`
	Learning int `json:"learning"`
	Review   int `json:"review"`
}

type Counts struct {
	New      int `json:"new"`
	Learning int `json:"learning"`
	Review   int `json:"review"`
	Total    int `json:"total"`
}

type ListDueCardsRequest struct {
	Filters Filters `json:"filters"`
	Limits  Limits  `json:"limits"`
}

type ListDueCardsResponse struct {
	Cards  []Card `json:"cards"`
	Counts Counts `json:"counts"`
}

type SubmitAnswerRequest struct {
	CardID              int64   `json:"card_id"`
	Grade               string  `json:"grade"`
	ResponseTimeSeconds float64 `json:"response_time_seconds"`
	SelectedOption      string  `json:"selected_option"`
	SessionID           string  `json:"session_id,omitempty"`
	SubmissionID        string  `json:"submission_id,omitempty"`
}

type SubmitAnswerResponse struct {
	IsCorrect             bool   `json:"is_correct"`
	Card                  Card   `json:"card"`
	NextReviewDescription string `json:"next_review_description"`
	Leech                 bool   `json:"leech"`
	Replayed              bool   `json:"replayed"`
}

type GetOrCreateCardRequest struct {
	QuestionID int64 `json:"question_id"`
}

type CardRequest struct {
	CardID int64 `json:"card_id"`
}

type CardResponse struct {
	Card Card `json:"card"`
}

type SetCardFlagsRequest struct {
	CardID    int64 `json:"card_id"`
	Suspended *bool `json:"suspended,omitempty"`
	Buried    *bool `json:"buried,omitempty"`
}

type CardInformationResponse struct {
	Card    Card          `json:"card"`
	History []ReviewEvent `json:"history"`
}

type GetSettingsRequest struct{}

type UpdateSettingsRequest struct {
	Settings Settings `json:"settings"`
}

type SettingsResponse struct {
	Settings Settings `json:"settings"`
}

type DueForecastRequest struct {
	Days int `json:"days"`
}

type DueForecastResponse struct {
	// Breakdown maps a local date (YYYY-MM-DD) or "overdue" to a count.
	Breakdown map[string]int `json:"breakdown"`
}
