package quizvault

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domino14/quizvault/internal/scheduler"
)

func TestBuryUntilNextLocalMidnight(t *testing.T) {
	svc, store, nower := newTestService()
	store.addQuestion(1, 10, 100, 2020, "A")
	ctx := ctxForTests()
	card := store.putCard(reviewCard(1, 3, 2.5, testNow.Add(-time.Hour)))

	buried := true
	got, err := svc.SetCardFlags(ctx, testUser, card.ID, CardFlags{Buried: &buried})
	require.NoError(t, err)
	assert.True(t, got.IsBuried)
	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), got.BuriedUntil)
	assert.True(t, store.card(card.ID).IsBuried)

	due, err := svc.ListDueCards(ctx, testUser, DueRequest{})
	require.NoError(t, err)
	assert.Empty(t, due.Cards)

	nower.fakenow = time.Date(2024, 3, 11, 1, 0, 0, 0, time.UTC)
	due, err = svc.ListDueCards(ctx, testUser, DueRequest{})
	require.NoError(t, err)
	assert.Equal(t, []int64{card.ID}, cardIDs(due.Cards))
}

func TestBuryInUserTimezone(t *testing.T) {
	svc, store, _ := newTestService()
	store.addQuestion(1, 10, 100, 2020, "A")
	ctx := ctxForTests()
	settings := scheduler.DefaultSettings()
	settings.Timezone = "America/New_York"
	_, err := svc.UpdateSettings(ctx, testUser, settings)
	require.NoError(t, err)
	card := store.putCard(reviewCard(1, 3, 2.5, testNow.Add(-time.Hour)))

	buried := true
	got, err := svc.SetCardFlags(ctx, testUser, card.ID, CardFlags{Buried: &buried})
	require.NoError(t, err)
	// midnight in New York, after the switch to daylight time
	assert.True(t, got.BuriedUntil.Equal(time.Date(2024, 3, 11, 4, 0, 0, 0, time.UTC)))
}

func TestSuspendAndUnbury(t *testing.T) {
	svc, store, _ := newTestService()
	store.addQuestion(1, 10, 100, 2020, "A")
	ctx := ctxForTests()
	c := reviewCard(1, 3, 2.5, testNow.Add(-time.Hour))
	c.IsBuried = true
	c.BuriedUntil = testNow.Add(time.Hour)
	card := store.putCard(c)

	yes, no := true, false
	got, err := svc.SetCardFlags(ctx, testUser, card.ID, CardFlags{Suspended: &yes, Buried: &no})
	require.NoError(t, err)
	assert.True(t, got.IsSuspended)
	assert.False(t, got.IsBuried)
	assert.True(t, got.BuriedUntil.IsZero())

	due, err := svc.ListDueCards(ctx, testUser, DueRequest{})
	require.NoError(t, err)
	assert.Empty(t, due.Cards)

	got, err = svc.SetCardFlags(ctx, testUser, card.ID, CardFlags{Suspended: &no})
	require.NoError(t, err)
	assert.False(t, got.IsSuspended)
	assert.Equal(t, 3, got.IntervalDays)
}

func TestSetCardFlagsErrors(t *testing.T) {
	svc, store, _ := newTestService()
	store.addQuestion(1, 10, 100, 2020, "A")
	ctx := ctxForTests()
	c := reviewCard(1, 3, 2.5, testNow)
	c.UserID = 43
	card := store.putCard(c)

	_, err := svc.SetCardFlags(ctx, testUser, card.ID, CardFlags{})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	yes := true
	_, err = svc.SetCardFlags(ctx, testUser, card.ID, CardFlags{Suspended: &yes})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, store.card(card.ID).IsSuspended)
}

func TestResetCard(t *testing.T) {
	svc, store, nower := newTestService()
	store.addQuestion(1, 10, 100, 2020, "A")
	c := reviewCard(1, 40, 1.3, testNow.Add(-time.Hour))
	c.Lapses = 9
	c.IsSuspended = true
	c.Tags = []string{"hard-ones", scheduler.LeechTag}
	c.TotalReviews = 30
	c.TimesCorrect = 21
	card := store.putCard(c)

	nower.fakenow = testNow.Add(time.Hour)
	got, err := svc.ResetCard(ctxForTests(), testUser, card.ID)
	require.NoError(t, err)
	assert.Equal(t, scheduler.New, got.CardType)
	assert.Equal(t, 2.5, got.EaseFactor)
	assert.Equal(t, 0, got.IntervalDays)
	assert.Equal(t, 0, got.Lapses)
	assert.False(t, got.IsSuspended)
	assert.Equal(t, []string{"hard-ones"}, got.Tags)
	assert.Equal(t, 30, got.TotalReviews)
	assert.Equal(t, 21, got.TimesCorrect)
	assert.Equal(t, nower.fakenow, got.DueDate)
	assert.Equal(t, got, store.card(card.ID))
}

func TestGetCardInformation(t *testing.T) {
	svc, store, _ := newTestService()
	svc.Config.ReviewLogLimit = 2
	store.addQuestion(1, 10, 100, 2020, "A")
	ctx := ctxForTests()
	card, err := svc.GetOrCreateCard(ctx, testUser, 1)
	require.NoError(t, err)

	for _, g := range []scheduler.Grade{scheduler.Good, scheduler.Again, scheduler.Easy} {
		_, err := svc.SubmitAnswer(ctx, testUser, AnswerRequest{CardID: card.ID, Grade: g})
		require.NoError(t, err)
	}

	info, err := svc.GetCardInformation(ctx, testUser, card.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, info.Card.TotalReviews)
	assert.Equal(t, scheduler.Review, info.Card.CardType)
	require.Len(t, info.History, 2)
	assert.Equal(t, scheduler.Easy, info.History[0].Grade)
	assert.Equal(t, scheduler.Again, info.History[1].Grade)
	assert.Equal(t, info.History[1].After, info.History[0].Before)

	_, err = svc.GetCardInformation(ctx, 43, card.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDueForecast(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := ctxForTests()
	day := func(d, h int) time.Time { return time.Date(2024, 3, d, h, 0, 0, 0, time.UTC) }

	for i, due := range []time.Time{day(9, 12), day(10, 0), day(12, 0), day(12, 18), day(40, 0)} {
		store.addQuestion(int64(i+1), 10, 100, 2020, "A")
		store.putCard(reviewCard(int64(i+1), 3, 2.5, due))
	}
	store.addQuestion(20, 10, 100, 2020, "A")
	suspended := reviewCard(20, 3, 2.5, day(11, 0))
	suspended.IsSuspended = true
	store.putCard(suspended)
	store.addQuestion(21, 10, 100, 2020, "A")
	learning := scheduler.NewCard(testUser, 21, testNow)
	learning.CardType = scheduler.Learning
	learning.DueDate = day(11, 0)
	store.putCard(learning)

	got, err := svc.DueForecast(ctx, testUser, 30)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"overdue": 1, "2024-03-10": 1, "2024-03-12": 2}, got)

	got, err = svc.DueForecast(ctx, testUser, 1)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"overdue": 1, "2024-03-10": 1}, got)

	for _, days := range []int{0, -3, 367} {
		_, err := svc.DueForecast(ctx, testUser, days)
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr, "days=%d", days)
	}
}

func TestDueForecastLocalDays(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := ctxForTests()
	settings := scheduler.DefaultSettings()
	settings.Timezone = "America/New_York"
	_, err := svc.UpdateSettings(ctx, testUser, settings)
	require.NoError(t, err)

	store.addQuestion(1, 10, 100, 2020, "A")
	store.addQuestion(2, 10, 100, 2020, "A")
	// 22:00 on the 9th in New York
	store.putCard(reviewCard(1, 3, 2.5, time.Date(2024, 3, 10, 3, 0, 0, 0, time.UTC)))
	// 23:00 on the 10th in New York
	store.putCard(reviewCard(2, 3, 2.5, time.Date(2024, 3, 11, 3, 0, 0, 0, time.UTC)))

	got, err := svc.DueForecast(ctx, testUser, 7)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"overdue": 1, "2024-03-10": 1}, got)
}
