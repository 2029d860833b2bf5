package models

import (
	"context"
)

const getSettings = `
SELECT params FROM scheduler_settings WHERE user_id = $1
`

func (q *Queries) GetSettings(ctx context.Context, userID int64) ([]byte, error) {
	row := q.db.QueryRow(ctx, getSettings, userID)
	var params []byte
	err := row.Scan(&params)
	return params, err
}

const insertSettingsIfMissing = `
INSERT INTO scheduler_settings (user_id, params) VALUES ($1, $2)
ON CONFLICT (user_id) DO NOTHING
`

type SettingsParams struct {
	UserID int64
	Params []byte
}

func (q *Queries) InsertSettingsIfMissing(ctx context.Context, arg SettingsParams) (int64, error) {
	result, err := q.db.Exec(ctx, insertSettingsIfMissing, arg.UserID, arg.Params)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const upsertSettings = `
INSERT INTO scheduler_settings (user_id, params) VALUES ($1, $2)
ON CONFLICT (user_id) DO UPDATE SET params = EXCLUDED.params, updated_at = now()
`

func (q *Queries) UpsertSettings(ctx context.Context, arg SettingsParams) error {
	_, err := q.db.Exec(ctx, upsertSettings, arg.UserID, arg.Params)
	return err
}
