package scheduler

import (
	"fmt"
	"math"
	"slices"
	"time"
)

// Filters narrow the due queue to part of the question bank. Empty slices
// mean no filtering on that dimension.
type Filters struct {
	SubjectIDs  []int64 `json:"subject_ids"`
	SubtopicIDs []int64 `json:"subtopic_ids"`
	Years       []int32 `json:"years"`
}

// Limits cap each bucket of the due queue.
type Limits struct {
	New      int `json:"new"`
	Learning int `json:"learning"`
	Review   int `json:"review"`
}

// Counts reports how many cards each bucket contributed.
type Counts struct {
	New      int `json:"new"`
	Learning int `json:"learning"`
	Review   int `json:"review"`
	Total    int `json:"total"`
}

const (
	rankFirst = iota + 1
	rankLearning
	rankRest
)

// Rank orders a due card within the merged queue. New cards come first
// when showNewFirst is set; review cards that are strictly overdue always
// do. Learning and relearning cards follow, then everything else.
func Rank(c Card, showNewFirst bool, now time.Time) int {
	switch {
	case c.CardType == New && showNewFirst:
		return rankFirst
	case c.CardType == Review && c.DueDate.Before(now):
		return rankFirst
	case c.CardType.InSteps():
		return rankLearning
	default:
		return rankRest
	}
}

// Eligible reports whether a card may be shown at now. Bucket queries
// already apply these conditions; BuildQueue checks them again so a queue
// never carries a suspended, buried or not-yet-due card.
func Eligible(c Card, now time.Time) bool {
	if c.IsSuspended || c.IsBuried {
		return false
	}
	switch c.CardType {
	case New:
		return true
	case Learning, Relearning:
		return !c.DueDate.After(now)
	case Review:
		return c.DueDate.Before(EndOfDay(now))
	}
	return false
}

// BuildQueue merges the three buckets into one queue ordered by
// (rank, due date). Cards with equal keys keep their bucket order.
func BuildQueue(newCards, learning, review []Card, showNewFirst bool, now time.Time) ([]Card, Counts) {
	type ranked struct {
		card Card
		rank int
	}
	var counts Counts
	all := make([]ranked, 0, len(newCards)+len(learning)+len(review))
	add := func(cards []Card, n *int) {
		for _, c := range cards {
			if !Eligible(c, now) {
				continue
			}
			all = append(all, ranked{card: c, rank: Rank(c, showNewFirst, now)})
			*n++
		}
	}
	add(newCards, &counts.New)
	add(learning, &counts.Learning)
	add(review, &counts.Review)
	counts.Total = counts.New + counts.Learning + counts.Review

	slices.SortStableFunc(all, func(a, b ranked) int {
		if a.rank != b.rank {
			return a.rank - b.rank
		}
		return a.card.DueDate.Compare(b.card.DueDate)
	})
	queue := make([]Card, len(all))
	for i := range all {
		queue[i] = all[i].card
	}
	return queue, counts
}

// DescribeNext renders when a freshly answered card comes back: minutes for
// learning and relearning cards, days for review cards.
func DescribeNext(c Card, now time.Time) string {
	if c.CardType == Review {
		return fmt.Sprintf("%d days", c.IntervalDays)
	}
	mins := int(math.Round(c.DueDate.Sub(now).Minutes()))
	return fmt.Sprintf("%d minutes", max(0, mins))
}

// IsCorrect decides whether an answer counts as correct: the chosen option
// matches, or the learner self-graded good or easy.
func IsCorrect(selected, correct string, g Grade) bool {
	if g == Good || g == Easy {
		return true
	}
	return selected != "" && selected == correct
}
