package quizvault

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

const QuizVaultServiceName = "quizvault.v1.QuizVaultService"

const (
	QuizVaultServiceListDueCardsProcedure       = "/quizvault.v1.QuizVaultService/ListDueCards"
	QuizVaultServiceSubmitAnswerProcedure       = "/quizvault.v1.QuizVaultService/SubmitAnswer"
	QuizVaultServiceGetOrCreateCardProcedure    = "/quizvault.v1.QuizVaultService/GetOrCreateCard"
	QuizVaultServiceGetCardInformationProcedure = "/quizvault.v1.QuizVaultService/GetCardInformation"
	QuizVaultServiceSetCardFlagsProcedure       = "/quizvault.v1.QuizVaultService/SetCardFlags"
	QuizVaultServiceResetCardProcedure          = "/quizvault.v1.QuizVaultService/ResetCard"
	QuizVaultServiceGetSettingsProcedure        = "/quizvault.v1.QuizVaultService/GetSettings"
	QuizVaultServiceUpdateSettingsProcedure     = "/quizvault.v1.QuizVaultService/UpdateSettings"
	QuizVaultServiceDueForecastProcedure        = "/quizvault.v1.QuizVaultService/DueForecast"
)

type QuizVaultServiceHandler interface {
	ListDueCards(context.Context, *connect.Request[ListDueCardsRequest]) (*connect.Response[ListDueCardsResponse], error)
	SubmitAnswer(context.Context, *connect.Request[SubmitAnswerRequest]) (*connect.Response[SubmitAnswerResponse], error)
	GetOrCreateCard(context.Context, *connect.Request[GetOrCreateCardRequest]) (*connect.Response[CardResponse], error)
	GetCardInformation(context.Context, *connect.Request[CardRequest]) (*connect.Response[CardInformationResponse], error)
	SetCardFlags(context.Context, *connect.Request[SetCardFlagsRequest]) (*connect.Response[CardResponse], error)
	ResetCard(context.Context, *connect.Request[CardRequest]) (*connect.Response[CardResponse], error)
	GetSettings(context.Context, *connect.Request[GetSettingsRequest]) (*connect.Response[SettingsResponse], error)
	UpdateSettings(context.Context, *connect.Request[UpdateSettingsRequest]) (*connect.Response[SettingsResponse], error)
	DueForecast(context.Context, *connect.Request[DueForecastRequest]) (*connect.Response[DueForecastResponse], error)
}

// NewQuizVaultServiceHandler builds the HTTP handler for the service and
// returns the path it should be mounted on.
func NewQuizVaultServiceHandler(svc QuizVaultServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)
	handlers := map[string]http.Handler{
		QuizVaultServiceListDueCardsProcedure:       connect.NewUnaryHandler(QuizVaultServiceListDueCardsProcedure, svc.ListDueCards, opts...),
		QuizVaultServiceSubmitAnswerProcedure:       connect.NewUnaryHandler(QuizVaultServiceSubmitAnswerProcedure, svc.SubmitAnswer, opts...),
		QuizVaultServiceGetOrCreateCardProcedure:    connect.NewUnaryHandler(QuizVaultServiceGetOrCreateCardProcedure, svc.GetOrCreateCard, opts...),
		QuizVaultServiceGetCardInformationProcedure: connect.NewUnaryHandler(QuizVaultServiceGetCardInformationProcedure, svc.GetCardInformation, opts...),
		QuizVaultServiceSetCardFlagsProcedure:       connect.NewUnaryHandler(QuizVaultServiceSetCardFlagsProcedure, svc.SetCardFlags, opts...),
		QuizVaultServiceResetCardProcedure:          connect.NewUnaryHandler(QuizVaultServiceResetCardProcedure, svc.ResetCard, opts...),
		QuizVaultServiceGetSettingsProcedure:        connect.NewUnaryHandler(QuizVaultServiceGetSettingsProcedure, svc.GetSettings, opts...),
		QuizVaultServiceUpdateSettingsProcedure:     connect.NewUnaryHandler(QuizVaultServiceUpdateSettingsProcedure, svc.UpdateSettings, opts...),
		QuizVaultServiceDueForecastProcedure:        connect.NewUnaryHandler(QuizVaultServiceDueForecastProcedure, svc.DueForecast, opts...),
	}
	return "/" + QuizVaultServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}

type QuizVaultServiceClient interface {
	ListDueCards(context.Context, *connect.Request[ListDueCardsRequest]) (*connect.Response[ListDueCardsResponse], error)
	SubmitAnswer(context.Context, *connect.Request[SubmitAnswerRequest]) (*connect.Response[SubmitAnswerResponse], error)
	GetOrCreateCard(context.Context, *connect.Request[GetOrCreateCardRequest]) (*connect.Response[CardResponse], error)
	GetCardInformation(context.Context, *connect.Request[CardRequest]) (*connect.Response[CardInformationResponse], error)
	SetCardFlags(context.Context, *connect.Request[SetCardFlagsRequest]) (*connect.Response[CardResponse], error)
	ResetCard(context.Context, *connect.Request[CardRequest]) (*connect.Response[CardResponse], error)
	GetSettings(context.Context, *connect.Request[GetSettingsRequest]) (*connect.Response[SettingsResponse], error)
	UpdateSettings(context.Context, *connect.Request[UpdateSettingsRequest]) (*connect.Response[SettingsResponse], error)
	DueForecast(context.Context, *connect.Request[DueForecastRequest]) (*connect.Response[DueForecastResponse], error)
}

func NewQuizVaultServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) QuizVaultServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{WithJSON()}, opts...)
	return &quizVaultServiceClient{
		listDueCards:       connect.NewClient[ListDueCardsRequest, ListDueCardsResponse](httpClient, baseURL+QuizVaultServiceListDueCardsProcedure, opts...),
		submitAnswer:       connect.NewClient[SubmitAnswerRequest, SubmitAnswerResponse](httpClient, baseURL+QuizVaultServiceSubmitAnswerProcedure, opts...),
		getOrCreateCard:    connect.NewClient[GetOrCreateCardRequest, CardResponse](httpClient, baseURL+QuizVaultServiceGetOrCreateCardProcedure, opts...),
		getCardInformation: connect.NewClient[CardRequest, CardInformationResponse](httpClient, baseURL+QuizVaultServiceGetCardInformationProcedure, opts...),
		setCardFlags:       connect.NewClient[SetCardFlagsRequest, CardResponse](httpClient, baseURL+QuizVaultServiceSetCardFlagsProcedure, opts...),
		resetCard:          connect.NewClient[CardRequest, CardResponse](httpClient, baseURL+QuizVaultServiceResetCardProcedure, opts...),
		getSettings:        connect.NewClient[GetSettingsRequest, SettingsResponse](httpClient, baseURL+QuizVaultServiceGetSettingsProcedure, opts...),
		updateSettings:     connect.NewClient[UpdateSettingsRequest, SettingsResponse](httpClient, baseURL+QuizVaultServiceUpdateSettingsProcedure, opts...),
		dueForecast:        connect.NewClient[DueForecastRequest, DueForecastResponse](httpClient, baseURL+QuizVaultServiceDueForecastProcedure, opts...),
	}
}

type quizVaultServiceClient struct {
	listDueCards       *connect.Client[ListDueCardsRequest, ListDueCardsResponse]
	submitAnswer       *connect.Client[SubmitAnswerRequest, SubmitAnswerResponse]
	getOrCreateCard    *connect.Client[GetOrCreateCardRequest, CardResponse]
	getCardInformation *connect.Client[CardRequest, CardInformationResponse]
	setCardFlags       *connect.Client[SetCardFlagsRequest, CardResponse]
	resetCard          *connect.Client[CardRequest, CardResponse]
	getSettings        *connect.Client[GetSettingsRequest, SettingsResponse]
	updateSettings     *connect.Client[UpdateSettingsRequest, SettingsResponse]
	dueForecast        *connect.Client[DueForecastRequest, DueForecastResponse]
}

func (c *quizVaultServiceClient) ListDueCards(ctx context.Context, req *connect.Request[ListDueCardsRequest]) (*connect.Response[ListDueCardsResponse], error) {
	return c.listDueCards.CallUnary(ctx, req)
}

func (c *quizVaultServiceClient) SubmitAnswer(ctx context.Context, req *connect.Request[SubmitAnswerRequest]) (*connect.Response[SubmitAnswerResponse], error) {
	return c.submitAnswer.CallUnary(ctx, req)
}

func (c *quizVaultServiceClient) GetOrCreateCard(ctx context.Context, req *connect.Request[GetOrCreateCardRequest]) (*connect.Response[CardResponse], error) {
	return c.getOrCreateCard.CallUnary(ctx, req)
}

func (c *quizVaultServiceClient) GetCardInformation(ctx context.Context, req *connect.Request[CardRequest]) (*connect.Response[CardInformationResponse], error) {
	return c.getCardInformation.CallUnary(ctx, req)
}

func (c *quizVaultServiceClient) SetCardFlags(ctx context.Context, req *connect.Request[SetCardFlagsRequest]) (*connect.Response[CardResponse], error) {
	return c.setCardFlags.CallUnary(ctx, req)
}

func (c *quizVaultServiceClient) ResetCard(ctx context.Context, req *connect.Request[CardRequest]) (*connect.Response[CardResponse], error) {
	return c.resetCard.CallUnary(ctx, req)
}

func (c *quizVaultServiceClient) GetSettings(ctx context.Context, req *connect.Request[GetSettingsRequest]) (*connect.Response[SettingsResponse], error) {
	return c.getSettings.CallUnary(ctx, req)
}

func (c *quizVaultServiceClient) UpdateSettings(ctx context.Context, req *connect.Request[UpdateSettingsRequest]) (*connect.Response[SettingsResponse], error) {
	return c.updateSettings.CallUnary(ctx, req)
}

func (c *quizVaultServiceClient) DueForecast(ctx context.Context, req *connect.Request[DueForecastRequest]) (*connect.Response[DueForecastResponse], error) {
	return c.dueForecast.CallUnary(ctx, req)
}
