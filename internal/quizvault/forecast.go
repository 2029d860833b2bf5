package quizvault

import (
	"context"

	"github.com/domino14/quizvault/internal/scheduler"
)

const (
	maxForecastDays = 366
	overdueKey      = "overdue"
)

// DueForecast counts review cards per local calendar day for the next
// days days, starting today. Cards due before today are counted under
// "overdue". Days with nothing due are left out.
func (s *Service) DueForecast(ctx context.Context, userID int64, days int) (map[string]int, error) {
	if days < 1 || days > maxForecastDays {
		return nil, invalid("days", "must be between 1 and %d", maxForecastDays)
	}
	settings, err := loadSettings(ctx, s.Store, userID)
	if err != nil {
		return nil, err
	}
	loc := settings.Location()
	today := scheduler.StartOfDay(s.Nower.Now().In(loc))

	dates, err := s.Store.ReviewDueDates(ctx, userID, today.AddDate(0, 0, days))
	if err != nil {
		return nil, err
	}
	breakdown := map[string]int{}
	for _, d := range dates {
		if d.Before(today) {
			breakdown[overdueKey]++
			continue
		}
		breakdown[d.In(loc).Format("2006-01-02")]++
	}
	return breakdown, nil
}
