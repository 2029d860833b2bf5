package quizvault

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/domino14/quizvault/internal/scheduler"
)

type memQuestion struct {
	subjectID     int64
	subtopicID    int64
	year          int32
	correctOption string
	active        bool
	timesAnswered int
	timesCorrect  int
	totalTime     float64
}

type memData struct {
	cards      map[int64]scheduler.Card
	questions  map[int64]memQuestion
	settings   map[int64][]byte
	logs       []scheduler.ReviewEvent
	nextCardID int64
	nextLogID  int64
}

func (d *memData) clone() *memData {
	c := &memData{
		cards:      make(map[int64]scheduler.Card, len(d.cards)),
		questions:  maps.Clone(d.questions),
		settings:   make(map[int64][]byte, len(d.settings)),
		logs:       slices.Clone(d.logs),
		nextCardID: d.nextCardID,
		nextLogID:  d.nextLogID,
	}
	for id, card := range d.cards {
		card.Tags = slices.Clone(card.Tags)
		c.cards[id] = card
	}
	for id, raw := range d.settings {
		c.settings[id] = slices.Clone(raw)
	}
	return c
}

// faults injects errors into named store methods.
type faults struct {
	mu     sync.Mutex
	queued map[string][]error
	calls  map[string]int
}

func (f *faults) hit(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	q := f.queued[op]
	if len(q) == 0 {
		return nil
	}
	f.queued[op] = q[1:]
	return q[0]
}

// memStore is an in-memory Store. Transactions run one at a time against a
// copy of the data that replaces the original only on commit.
type memStore struct {
	mu     *sync.Mutex
	txMu   *sync.Mutex
	data   *memData
	faults *faults
	inTx   bool
}

var _ Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		mu:   &sync.Mutex{},
		txMu: &sync.Mutex{},
		data: &memData{
			cards:     map[int64]scheduler.Card{},
			questions: map[int64]memQuestion{},
			settings:  map[int64][]byte{},
		},
		faults: &faults{queued: map[string][]error{}, calls: map[string]int{}},
	}
}

func (m *memStore) fail(op string, errs ...error) {
	m.faults.mu.Lock()
	defer m.faults.mu.Unlock()
	m.faults.queued[op] = append(m.faults.queued[op], errs...)
}

func (m *memStore) calls(op string) int {
	m.faults.mu.Lock()
	defer m.faults.mu.Unlock()
	return m.faults.calls[op]
}

func (m *memStore) addQuestion(id, subject, subtopic int64, year int32, correct string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.questions[id] = memQuestion{subjectID: subject, subtopicID: subtopic, year: year,
		correctOption: correct, active: true}
}

// putCard stores c as is, assigning an id when it has none.
func (m *memStore) putCard(c scheduler.Card) scheduler.Card {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == 0 {
		m.data.nextCardID++
		c.ID = m.data.nextCardID
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	m.data.cards[c.ID] = c
	return c
}

func (m *memStore) card(id int64) scheduler.Card {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.cards[id]
}

func (m *memStore) question(id int64) memQuestion {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.questions[id]
}

func (m *memStore) reviewLogs() []scheduler.ReviewEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.data.logs)
}

func notFound(op string) error {
	return fmt.Errorf("%s: %w", op, ErrNotFound)
}

func (m *memStore) InTx(ctx context.Context, fn func(Store) error) error {
	if m.inTx {
		return fn(m)
	}
	if err := m.faults.hit("InTx"); err != nil {
		return err
	}
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snapshot := m.data.clone()
	m.mu.Unlock()

	tx := &memStore{mu: &sync.Mutex{}, txMu: m.txMu, data: snapshot, faults: m.faults, inTx: true}
	if err := fn(tx); err != nil {
		return err
	}
	if err := m.faults.hit("Commit"); err != nil {
		return err
	}
	m.mu.Lock()
	m.data = snapshot
	m.mu.Unlock()
	return nil
}

func (m *memStore) GetCard(ctx context.Context, userID, cardID int64) (scheduler.Card, error) {
	if err := m.faults.hit("GetCard"); err != nil {
		return scheduler.Card{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.data.cards[cardID]
	if !ok || c.UserID != userID {
		return scheduler.Card{}, notFound("get-card")
	}
	c.Tags = slices.Clone(c.Tags)
	return c, nil
}

func (m *memStore) GetCardForUpdate(ctx context.Context, userID, cardID int64) (scheduler.Card, error) {
	if err := m.faults.hit("GetCardForUpdate"); err != nil {
		return scheduler.Card{}, err
	}
	return m.GetCard(ctx, userID, cardID)
}

func (m *memStore) GetOrCreateCard(ctx context.Context, userID, questionID int64, now time.Time) (scheduler.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.data.cards {
		if c.UserID == userID && c.QuestionID == questionID {
			return c, nil
		}
	}
	if _, ok := m.data.questions[questionID]; !ok {
		return scheduler.Card{}, notFound("get-or-create-card")
	}
	c := scheduler.NewCard(userID, questionID, now)
	m.data.nextCardID++
	c.ID = m.data.nextCardID
	m.data.cards[c.ID] = c
	return c, nil
}

func (m *memStore) SaveCard(ctx context.Context, c scheduler.Card) error {
	if err := m.faults.hit("SaveCard"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.data.cards[c.ID]
	if !ok || old.UserID != c.UserID {
		return notFound("save-card")
	}
	c.Tags = slices.Clone(c.Tags)
	if c.Tags == nil {
		c.Tags = []string{}
	}
	m.data.cards[c.ID] = c
	return nil
}

func (m *memStore) ImportCards(ctx context.Context, cards []scheduler.Card) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, c := range cards {
		if _, ok := m.data.questions[c.QuestionID]; !ok {
			continue
		}
		exists := false
		for _, old := range m.data.cards {
			if old.UserID == c.UserID && old.QuestionID == c.QuestionID {
				exists = true
			}
		}
		if exists {
			continue
		}
		m.data.nextCardID++
		c.ID = m.data.nextCardID
		m.data.cards[c.ID] = c
		n++
	}
	return n, nil
}

func (m *memStore) GetSettings(ctx context.Context, userID int64) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data.settings[userID]
	if !ok {
		return nil, notFound("get-settings")
	}
	return slices.Clone(raw), nil
}

func (m *memStore) CreateSettings(ctx context.Context, userID int64, params []byte) ([]byte, error) {
	if err := m.faults.hit("CreateSettings"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	if _, ok := m.data.settings[userID]; !ok {
		m.data.settings[userID] = slices.Clone(params)
	}
	m.mu.Unlock()
	return m.GetSettings(ctx, userID)
}

func (m *memStore) UpdateSettings(ctx context.Context, userID int64, params []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.settings[userID] = slices.Clone(params)
	return nil
}

func (m *memStore) CorrectOption(ctx context.Context, questionID int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.data.questions[questionID]
	if !ok {
		return "", notFound("get-correct-option")
	}
	return q.correctOption, nil
}

func (m *memStore) BumpQuestionStats(ctx context.Context, questionID int64, correct bool, seconds float64) error {
	if err := m.faults.hit("BumpQuestionStats"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.data.questions[questionID]
	if !ok {
		return notFound("bump-question-stats")
	}
	q.timesAnswered++
	if correct {
		q.timesCorrect++
	}
	q.totalTime += max(0, seconds)
	m.data.questions[questionID] = q
	return nil
}

func (m *memStore) AppendReviewLog(ctx context.Context, ev *scheduler.ReviewEvent) error {
	if err := m.faults.hit("AppendReviewLog"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if ev.SubmissionID != uuid.Nil {
		for _, l := range m.data.logs {
			if l.UserID == ev.UserID && l.SubmissionID == ev.SubmissionID {
				return &StoreError{Op: "insert-review-log", Err: errors.New("duplicate submission"), Retryable: true}
			}
		}
	}
	m.data.nextLogID++
	ev.ID = m.data.nextLogID
	m.data.logs = append(m.data.logs, *ev)
	return nil
}

func (m *memStore) FindReviewBySubmission(ctx context.Context, userID int64, submissionID uuid.UUID) (scheduler.ReviewEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.data.logs {
		if l.UserID == userID && l.SubmissionID == submissionID {
			return l, nil
		}
	}
	return scheduler.ReviewEvent{}, notFound("get-review-by-submission")
}

func (m *memStore) RecentReviews(ctx context.Context, userID, cardID int64, limit int) ([]scheduler.ReviewEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []scheduler.ReviewEvent{}
	for i := len(m.data.logs) - 1; i >= 0 && len(out) < limit; i-- {
		if l := m.data.logs[i]; l.UserID == userID && l.CardID == cardID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memStore) ActivitySince(ctx context.Context, userID int64, since time.Time) (Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var a Activity
	for _, l := range m.data.logs {
		if l.UserID != userID || l.ReviewedAt.Before(since) {
			continue
		}
		switch l.Before.CardType {
		case scheduler.New:
			a.NewStudied++
		case scheduler.Review:
			a.Reviews++
		}
	}
	return a, nil
}

func (m *memStore) bucket(q BucketQuery, keep func(scheduler.Card) bool, byCreated bool) []scheduler.Card {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []scheduler.Card{}
	for _, c := range m.data.cards {
		qn := m.data.questions[c.QuestionID]
		switch {
		case c.UserID != q.UserID, c.IsSuspended, c.IsBuried, !qn.active, !keep(c):
			continue
		case len(q.Filters.SubjectIDs) > 0 && !slices.Contains(q.Filters.SubjectIDs, qn.subjectID):
			continue
		case len(q.Filters.SubtopicIDs) > 0 && !slices.Contains(q.Filters.SubtopicIDs, qn.subtopicID):
			continue
		case len(q.Filters.Years) > 0 && !slices.Contains(q.Filters.Years, qn.year):
			continue
		}
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b scheduler.Card) int {
		ka, kb := a.DueDate, b.DueDate
		if byCreated {
			ka, kb = a.CreatedAt, b.CreatedAt
		}
		if c := ka.Compare(kb); c != 0 {
			return c
		}
		return int(a.ID - b.ID)
	})
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func (m *memStore) NewCards(ctx context.Context, q BucketQuery) ([]scheduler.Card, error) {
	if err := m.faults.hit("NewCards"); err != nil {
		return nil, err
	}
	return m.bucket(q, func(c scheduler.Card) bool { return c.CardType == scheduler.New }, true), nil
}

func (m *memStore) LearningCards(ctx context.Context, q BucketQuery) ([]scheduler.Card, error) {
	return m.bucket(q, func(c scheduler.Card) bool {
		return c.CardType.InSteps() && !c.DueDate.After(q.Now)
	}, false), nil
}

func (m *memStore) ReviewCards(ctx context.Context, q BucketQuery) ([]scheduler.Card, error) {
	return m.bucket(q, func(c scheduler.Card) bool {
		return c.CardType == scheduler.Review && c.DueDate.Before(q.DayEnd)
	}, false), nil
}

func (m *memStore) ReviewDueDates(ctx context.Context, userID int64, until time.Time) ([]time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []time.Time{}
	for _, c := range m.data.cards {
		if c.UserID == userID && c.CardType == scheduler.Review && !c.IsSuspended && c.DueDate.Before(until) {
			out = append(out, c.DueDate)
		}
	}
	slices.SortFunc(out, time.Time.Compare)
	return out, nil
}

func (m *memStore) UnburyExpired(ctx context.Context, userID int64, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, c := range m.data.cards {
		if c.UserID == userID && c.IsBuried && !c.BuriedUntil.IsZero() && !c.BuriedUntil.After(now) {
			c.IsBuried = false
			c.BuriedUntil = time.Time{}
			m.data.cards[id] = c
			n++
		}
	}
	return n, nil
}
