package stores

import (
	"errors"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog/log"
)

// MigrateUp applies every pending migration found at migrationsPath, a
// source URL such as file://./db/migrations.
func MigrateUp(migrationsPath, dbURI string) error {
	m, err := migrate.New(migrationsPath, dbURI)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info().Msg("no-new-migrations")
			return nil
		}
		return err
	}
	version, dirty, _ := m.Version()
	log.Info().Uint("version", version).Bool("dirty", dirty).Msg("migrated-up")
	return nil
}

// MigrateDown rolls back the given number of migrations.
func MigrateDown(migrationsPath, dbURI string, steps int) error {
	m, err := migrate.New(migrationsPath, dbURI)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	log.Info().Int("steps", steps).Msg("migrated-down")
	return nil
}
