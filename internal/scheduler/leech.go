package scheduler

import "time"

// LeechResult reports what CheckLeech decided.
type LeechResult struct {
	// IsLeech is true once the card's lapses reach the threshold.
	IsLeech bool
	// Applied is false when the card is a leech but the configured action
	// is not recognized; the card is then returned unchanged.
	Applied bool
	Action  LeechAction
}

// CheckLeech is evaluated after every lapse against the running lapse
// count: a card with lapses >= LeechThreshold gets the leech action on each
// further lapse, not only on the one that crossed the threshold. It never
// fails; an unknown action leaves the card alone.
func CheckLeech(c Card, s Settings, now time.Time) (Card, LeechResult) {
	if s.LeechThreshold <= 0 || c.Lapses < s.LeechThreshold {
		return c, LeechResult{}
	}
	res := LeechResult{IsLeech: true, Action: s.LeechAction}
	switch s.LeechAction {
	case LeechSuspend:
		c.IsSuspended = true
	case LeechTagOnly:
		if !c.HasTag(LeechTag) {
			c.Tags = append(append([]string(nil), c.Tags...), LeechTag)
		}
	case LeechBury:
		c.IsBuried = true
		c.BuriedUntil = EndOfDay(now)
	default:
		return c, res
	}
	res.Applied = true
	return c, res
}
