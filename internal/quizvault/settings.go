package quizvault

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/domino14/quizvault/internal/scheduler"
)

// GetSettings returns the user's settings, persisting the defaults on
// first use.
func (s *Service) GetSettings(ctx context.Context, userID int64) (scheduler.Settings, error) {
	return loadSettings(ctx, s.Store, userID)
}

// UpdateSettings validates and stores a full settings document.
func (s *Service) UpdateSettings(ctx context.Context, userID int64, settings scheduler.Settings) (scheduler.Settings, error) {
	if err := settings.Validate(); err != nil {
		return scheduler.Settings{}, settingsValidationError(err)
	}
	bts, err := json.Marshal(settings)
	if err != nil {
		return scheduler.Settings{}, err
	}
	if err := s.Store.UpdateSettings(ctx, userID, bts); err != nil {
		return scheduler.Settings{}, err
	}
	log.Ctx(ctx).Info().Int64("userID", userID).Msg("settings-updated")
	return settings.Clone(), nil
}

// loadSettings is the get-or-create path. Stored settings that cannot be
// decoded or fail validation are replaced by the defaults for this call
// only; the stored document is left for the user to fix.
func loadSettings(ctx context.Context, st Store, userID int64) (scheduler.Settings, error) {
	raw, err := st.GetSettings(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		log.Ctx(ctx).Debug().Int64("userID", userID).Msg("no-settings-found")
		defaults, merr := json.Marshal(scheduler.DefaultSettings())
		if merr != nil {
			return scheduler.Settings{}, merr
		}
		raw, err = st.CreateSettings(ctx, userID, defaults)
	}
	if err != nil {
		return scheduler.Settings{}, err
	}
	settings, err := decodeSettings(userID, raw)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Int64("userID", userID).Msg("bad-settings-using-defaults")
		return scheduler.DefaultSettings(), nil
	}
	return settings, nil
}

// decodeSettings layers a stored document over the defaults, so fields
// added after the document was written get their default value.
func decodeSettings(userID int64, raw []byte) (scheduler.Settings, error) {
	settings := scheduler.DefaultSettings()
	if err := json.Unmarshal(raw, &settings); err != nil {
		return scheduler.Settings{}, &ConfigError{UserID: userID, Err: err}
	}
	if err := settings.Validate(); err != nil {
		return scheduler.Settings{}, &ConfigError{UserID: userID, Err: err}
	}
	return settings, nil
}

func settingsValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Field: "settings", Msg: err.Error()}
	}
	fields := make([]string, len(verrs))
	for i, fe := range verrs {
		fields[i] = fe.Field() + " failed " + fe.Tag()
	}
	return &ValidationError{Field: "settings", Msg: strings.Join(fields, "; ")}
}
