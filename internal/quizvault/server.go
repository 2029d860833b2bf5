package quizvault

import (
	"context"
	"errors"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	pb "github.com/domino14/quizvault/api/rpc/quizvault"
	"github.com/domino14/quizvault/internal/auth"
	"github.com/domino14/quizvault/internal/scheduler"
)

// Server exposes a Service over connect. The user always comes from the
// authenticated context, never from the request.
type Server struct {
	Service *Service
}

var _ pb.QuizVaultServiceHandler = (*Server)(nil)

func NewServer(svc *Service) *Server {
	return &Server{Service: svc}
}

func unauthenticated(msg string) *connect.Error {
	return connect.NewError(connect.CodeUnauthenticated, errors.New(msg))
}

func invalidArgError(msg string) *connect.Error {
	return connect.NewError(connect.CodeInvalidArgument, errors.New(msg))
}

// connectError maps the service error taxonomy onto connect codes.
// Internal details of store failures are logged, not returned.
func connectError(ctx context.Context, err error) error {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return invalidArgError(verr.Error())
	case errors.Is(err, ErrNotFound):
		return connect.NewError(connect.CodeNotFound, errors.New("card or question not found"))
	case errors.Is(err, ErrTryAgain), IsRetryable(err):
		log.Ctx(ctx).Err(err).Msg("store-unavailable")
		return connect.NewError(connect.CodeUnavailable, ErrTryAgain)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	}
	log.Ctx(ctx).Err(err).Msg("internal-error")
	return connect.NewError(connect.CodeInternal, errors.New("internal error"))
}

func userID(ctx context.Context) (int64, error) {
	id, err := auth.UserID(ctx)
	if err != nil {
		return 0, unauthenticated(err.Error())
	}
	return id, nil
}

func (s *Server) ListDueCards(ctx context.Context, req *connect.Request[pb.ListDueCardsRequest]) (
	*connect.Response[pb.ListDueCardsResponse], error) {

	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}
	due, err := s.Service.ListDueCards(ctx, uid, DueRequest{
		Filters: scheduler.Filters{
			SubjectIDs:  req.Msg.Filters.SubjectIDs,
			SubtopicIDs: req.Msg.Filters.SubtopicIDs,
			Years:       req.Msg.Filters.Years,
		},
		Limits: scheduler.Limits{
			New:      req.Msg.Limits.New,
			Learning: req.Msg.Limits.Learning,
			Review:   req.Msg.Limits.Review,
		},
	})
	if err != nil {
		return nil, connectError(ctx, err)
	}
	cards := make([]pb.Card, len(due.Cards))
	for i := range due.Cards {
		cards[i] = toPBCard(due.Cards[i])
	}
	return connect.NewResponse(&pb.ListDueCardsResponse{
		Cards: cards,
		Counts: pb.Counts{
			New:      due.Counts.New,
			Learning: due.Counts.Learning,
			Review:   due.Counts.Review,
			Total:    due.Counts.Total,
		},
	}), nil
}

func (s *Server) SubmitAnswer(ctx context.Context, req *connect.Request[pb.SubmitAnswerRequest]) (
	*connect.Response[pb.SubmitAnswerResponse], error) {

	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}
	grade, err := scheduler.ParseGrade(req.Msg.Grade)
	if err != nil {
		return nil, invalidArgError(err.Error())
	}
	sessionID, err := parseOptionalUUID(req.Msg.SessionID)
	if err != nil {
		return nil, invalidArgError("session_id: " + err.Error())
	}
	submissionID, err := parseOptionalUUID(req.Msg.SubmissionID)
	if err != nil {
		return nil, invalidArgError("submission_id: " + err.Error())
	}
	res, err := s.Service.SubmitAnswer(ctx, uid, AnswerRequest{
		CardID:              req.Msg.CardID,
		Grade:               grade,
		ResponseTimeSeconds: req.Msg.ResponseTimeSeconds,
		SelectedOption:      req.Msg.SelectedOption,
		SessionID:           sessionID,
		SubmissionID:        submissionID,
	})
	if err != nil {
		return nil, connectError(ctx, err)
	}
	return connect.NewResponse(&pb.SubmitAnswerResponse{
		IsCorrect:             res.IsCorrect,
		Card:                  toPBCard(res.Card),
		NextReviewDescription: res.NextReviewDescription,
		Leech:                 res.Leech,
		Replayed:              res.Replayed,
	}), nil
}

func (s *Server) GetOrCreateCard(ctx context.Context, req *connect.Request[pb.GetOrCreateCardRequest]) (
	*connect.Response[pb.CardResponse], error) {

	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}
	card, err := s.Service.GetOrCreateCard(ctx, uid, req.Msg.QuestionID)
	if err != nil {
		return nil, connectError(ctx, err)
	}
	return connect.NewResponse(&pb.CardResponse{Card: toPBCard(card)}), nil
}

func (s *Server) GetCardInformation(ctx context.Context, req *connect.Request[pb.CardRequest]) (
	*connect.Response[pb.CardInformationResponse], error) {

	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}
	info, err := s.Service.GetCardInformation(ctx, uid, req.Msg.CardID)
	if err != nil {
		return nil, connectError(ctx, err)
	}
	history := make([]pb.ReviewEvent, len(info.History))
	for i, ev := range info.History {
		history[i] = pb.ReviewEvent{
			ID:                  ev.ID,
			Grade:               ev.Grade.String(),
			SelectedOption:      ev.SelectedOption,
			IsCorrect:           ev.IsCorrect,
			ResponseTimeSeconds: ev.ResponseTimeSeconds,
			CardTypeBefore:      ev.Before.CardType.String(),
			CardTypeAfter:       ev.After.CardType.String(),
			EaseBefore:          ev.Before.EaseFactor,
			EaseAfter:           ev.After.EaseFactor,
			DueAfter:            ev.After.DueDate,
			ReviewedAt:          ev.ReviewedAt,
		}
		if ev.SessionID != uuid.Nil {
			history[i].SessionID = ev.SessionID.String()
		}
	}
	return connect.NewResponse(&pb.CardInformationResponse{
		Card:    toPBCard(info.Card),
		History: history,
	}), nil
}

func (s *Server) SetCardFlags(ctx context.Context, req *connect.Request[pb.SetCardFlagsRequest]) (
	*connect.Response[pb.CardResponse], error) {

	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}
	card, err := s.Service.SetCardFlags(ctx, uid, req.Msg.CardID, CardFlags{
		Suspended: req.Msg.Suspended,
		Buried:    req.Msg.Buried,
	})
	if err != nil {
		return nil, connectError(ctx, err)
	}
	return connect.NewResponse(&pb.CardResponse{Card: toPBCard(card)}), nil
}

func (s *Server) ResetCard(ctx context.Context, req *connect.Request[pb.CardRequest]) (
	*connect.Response[pb.CardResponse], error) {

	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}
	card, err := s.Service.ResetCard(ctx, uid, req.Msg.CardID)
	if err != nil {
		return nil, connectError(ctx, err)
	}
	return connect.NewResponse(&pb.CardResponse{Card: toPBCard(card)}), nil
}

func (s *Server) GetSettings(ctx context.Context, req *connect.Request[pb.GetSettingsRequest]) (
	*connect.Response[pb.SettingsResponse], error) {

	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := s.Service.GetSettings(ctx, uid)
	if err != nil {
		return nil, connectError(ctx, err)
	}
	return connect.NewResponse(&pb.SettingsResponse{Settings: toPBSettings(settings)}), nil
}

func (s *Server) UpdateSettings(ctx context.Context, req *connect.Request[pb.UpdateSettingsRequest]) (
	*connect.Response[pb.SettingsResponse], error) {

	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := s.Service.UpdateSettings(ctx, uid, fromPBSettings(req.Msg.Settings))
	if err != nil {
		return nil, connectError(ctx, err)
	}
	return connect.NewResponse(&pb.SettingsResponse{Settings: toPBSettings(settings)}), nil
}

func (s *Server) DueForecast(ctx context.Context, req *connect.Request[pb.DueForecastRequest]) (
	*connect.Response[pb.DueForecastResponse], error) {

	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}
	breakdown, err := s.Service.DueForecast(ctx, uid, req.Msg.Days)
	if err != nil {
		return nil, connectError(ctx, err)
	}
	return connect.NewResponse(&pb.DueForecastResponse{Breakdown: breakdown}), nil
}

func parseOptionalUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(s)
}

func toPBCard(c scheduler.Card) pb.Card {
	return pb.Card{
		ID:                 c.ID,
		QuestionID:         c.QuestionID,
		CardType:           c.CardType.String(),
		EaseFactor:         c.EaseFactor,
		IntervalDays:       c.IntervalDays,
		Repetitions:        c.Repetitions,
		Lapses:             c.Lapses,
		LearningStep:       c.LearningStep,
		DueDate:            c.DueDate,
		IsSuspended:        c.IsSuspended,
		IsBuried:           c.IsBuried,
		BuriedUntil:        c.BuriedUntil,
		Tags:               c.Tags,
		TotalReviews:       c.TotalReviews,
		TimesCorrect:       c.TimesCorrect,
		ConsecutiveCorrect: c.ConsecutiveCorrect,
		TotalTimeSeconds:   c.TotalTimeSeconds,
	}
}

func toPBSettings(s scheduler.Settings) pb.Settings {
	return pb.Settings{
		LearningSteps:          s.LearningSteps,
		GraduatingInterval:     s.GraduatingInterval,
		EasyInterval:           s.EasyInterval,
		StartingEase:           s.StartingEase,
		EasyBonus:              s.EasyBonus,
		HardIntervalMultiplier: s.HardIntervalMultiplier,
		IntervalModifier:       s.IntervalModifier,
		NewIntervalPercentage:  s.NewIntervalPercentage,
		MinimumInterval:        s.MinimumInterval,
		MaximumInterval:        s.MaximumInterval,
		LeechThreshold:         s.LeechThreshold,
		LeechAction:            string(s.LeechAction),
		ShowNewCardsFirst:      s.ShowNewCardsFirst,
		NewCardsPerDay:         s.NewCardsPerDay,
		ReviewsPerDay:          s.ReviewsPerDay,
		Timezone:               s.Timezone,
	}
}

func fromPBSettings(s pb.Settings) scheduler.Settings {
	return scheduler.Settings{
		LearningSteps:          s.LearningSteps,
		GraduatingInterval:     s.GraduatingInterval,
		EasyInterval:           s.EasyInterval,
		StartingEase:           s.StartingEase,
		EasyBonus:              s.EasyBonus,
		HardIntervalMultiplier: s.HardIntervalMultiplier,
		IntervalModifier:       s.IntervalModifier,
		NewIntervalPercentage:  s.NewIntervalPercentage,
		MinimumInterval:        s.MinimumInterval,
		MaximumInterval:        s.MaximumInterval,
		LeechThreshold:         s.LeechThreshold,
		LeechAction:            scheduler.LeechAction(s.LeechAction),
		ShowNewCardsFirst:      s.ShowNewCardsFirst,
		NewCardsPerDay:         s.NewCardsPerDay,
		ReviewsPerDay:          s.ReviewsPerDay,
		Timezone:               s.Timezone,
	}
}
