package quizvault

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pb "github.com/domino14/quizvault/api/rpc/quizvault"
	"github.com/domino14/quizvault/internal/auth"
)

func fakeAuth(uid int64) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			return next(auth.WithUser(ctx, auth.User{ID: uid, Username: "cesar"}), req)
		}
	}
}

func newTestClient(t *testing.T, svc *Service, opts ...connect.HandlerOption) pb.QuizVaultServiceClient {
	mux := http.NewServeMux()
	mux.Handle(pb.NewQuizVaultServiceHandler(NewServer(svc), opts...))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return pb.NewQuizVaultServiceClient(srv.Client(), srv.URL)
}

func TestConnectErrorCodes(t *testing.T) {
	ctx := ctxForTests()
	for _, tc := range []struct {
		err  error
		code connect.Code
	}{
		{invalid("grade", "bad"), connect.CodeInvalidArgument},
		{fmt.Errorf("get-card: %w", ErrNotFound), connect.CodeNotFound},
		{fmt.Errorf("%w: %w", ErrTryAgain, retryableErr()), connect.CodeUnavailable},
		{retryableErr(), connect.CodeUnavailable},
		{context.Canceled, connect.CodeCanceled},
		{fmt.Errorf("query: %w", context.DeadlineExceeded), connect.CodeDeadlineExceeded},
		{&StoreError{Op: "save-card", Err: errors.New("disk full")}, connect.CodeInternal},
	} {
		err := connectError(ctx, tc.err)
		assert.Equal(t, tc.code, connect.CodeOf(err), "%v", tc.err)
	}

	err := connectError(ctx, &StoreError{Op: "save-card", Err: errors.New("password=hunter2")})
	assert.NotContains(t, err.Error(), "hunter2")
}

func TestServerRequiresUser(t *testing.T) {
	svc, _, _ := newTestService()
	client := newTestClient(t, svc)

	_, err := client.GetSettings(context.Background(), connect.NewRequest(&pb.GetSettingsRequest{}))
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
}

func TestServerRoundTrip(t *testing.T) {
	svc, store, _ := newTestService()
	store.addQuestion(7, 10, 100, 2020, "C")
	client := newTestClient(t, svc, connect.WithInterceptors(fakeAuth(testUser)))
	ctx := context.Background()

	cardResp, err := client.GetOrCreateCard(ctx, connect.NewRequest(&pb.GetOrCreateCardRequest{QuestionID: 7}))
	require.NoError(t, err)
	card := cardResp.Msg.Card
	assert.Equal(t, "new", card.CardType)
	assert.Equal(t, int64(7), card.QuestionID)

	due, err := client.ListDueCards(ctx, connect.NewRequest(&pb.ListDueCardsRequest{}))
	require.NoError(t, err)
	require.Len(t, due.Msg.Cards, 1)
	assert.Equal(t, card.ID, due.Msg.Cards[0].ID)
	assert.Equal(t, 1, due.Msg.Counts.New)

	sub := uuid.NewString()
	ans, err := client.SubmitAnswer(ctx, connect.NewRequest(&pb.SubmitAnswerRequest{
		CardID:              card.ID,
		Grade:               "hard",
		SelectedOption:      "C",
		ResponseTimeSeconds: 4.5,
		SessionID:           uuid.NewString(),
		SubmissionID:        sub,
	}))
	require.NoError(t, err)
	assert.True(t, ans.Msg.IsCorrect)
	assert.Equal(t, "learning", ans.Msg.Card.CardType)
	assert.False(t, ans.Msg.Replayed)

	info, err := client.GetCardInformation(ctx, connect.NewRequest(&pb.CardRequest{CardID: card.ID}))
	require.NoError(t, err)
	require.Len(t, info.Msg.History, 1)
	assert.Equal(t, "hard", info.Msg.History[0].Grade)
	assert.Equal(t, "new", info.Msg.History[0].CardTypeBefore)
	assert.Equal(t, "learning", info.Msg.History[0].CardTypeAfter)

	suspend := true
	flagged, err := client.SetCardFlags(ctx, connect.NewRequest(&pb.SetCardFlagsRequest{CardID: card.ID, Suspended: &suspend}))
	require.NoError(t, err)
	assert.True(t, flagged.Msg.Card.IsSuspended)

	reset, err := client.ResetCard(ctx, connect.NewRequest(&pb.CardRequest{CardID: card.ID}))
	require.NoError(t, err)
	assert.Equal(t, "new", reset.Msg.Card.CardType)
	assert.False(t, reset.Msg.Card.IsSuspended)

	settings, err := client.GetSettings(ctx, connect.NewRequest(&pb.GetSettingsRequest{}))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 10}, settings.Msg.Settings.LearningSteps)

	s := settings.Msg.Settings
	s.LeechThreshold = 4
	updated, err := client.UpdateSettings(ctx, connect.NewRequest(&pb.UpdateSettingsRequest{Settings: s}))
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Msg.Settings.LeechThreshold)

	forecast, err := client.DueForecast(ctx, connect.NewRequest(&pb.DueForecastRequest{Days: 7}))
	require.NoError(t, err)
	assert.Empty(t, forecast.Msg.Breakdown)
}

func TestServerInvalidRequests(t *testing.T) {
	svc, store, _ := newTestService()
	store.addQuestion(7, 10, 100, 2020, "C")
	client := newTestClient(t, svc, connect.WithInterceptors(fakeAuth(testUser)))
	ctx := context.Background()

	_, err := client.SubmitAnswer(ctx, connect.NewRequest(&pb.SubmitAnswerRequest{CardID: 1, Grade: "perfect"}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = client.SubmitAnswer(ctx, connect.NewRequest(&pb.SubmitAnswerRequest{
		CardID: 1, Grade: "good", SubmissionID: "not-a-uuid"}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = client.SubmitAnswer(ctx, connect.NewRequest(&pb.SubmitAnswerRequest{CardID: 1, Grade: "good"}))
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	s := pb.Settings{LearningSteps: []int{}}
	_, err = client.UpdateSettings(ctx, connect.NewRequest(&pb.UpdateSettingsRequest{Settings: s}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = client.DueForecast(ctx, connect.NewRequest(&pb.DueForecastRequest{Days: 0}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestServerTryAgain(t *testing.T) {
	svc, store, _ := newTestService()
	store.addQuestion(7, 10, 100, 2020, "C")
	card := store.putCard(reviewCard(7, 3, 2.5, testNow))
	store.fail("SaveCard", retryableErr(), retryableErr(), retryableErr())
	client := newTestClient(t, svc, connect.WithInterceptors(fakeAuth(testUser)))

	_, err := client.SubmitAnswer(context.Background(), connect.NewRequest(&pb.SubmitAnswerRequest{
		CardID: card.ID, Grade: "good"}))
	assert.Equal(t, connect.CodeUnavailable, connect.CodeOf(err))
	assert.Equal(t, 0, store.card(card.ID).TotalReviews)
}
