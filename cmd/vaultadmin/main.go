// vaultadmin is the operator tool for a quizvault database.
package main

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/domino14/quizvault/config"
	"github.com/domino14/quizvault/internal/quizvault"
	"github.com/domino14/quizvault/internal/stores"
)

var rootCmd = &cobra.Command{
	Use:           "vaultadmin",
	Short:         "Administer a quizvault database",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		if v, _ := cmd.Flags().GetBool("verbose"); v {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
		return nil
	},
}

func init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug logging")
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(addQuestionCmd())
	rootCmd.AddCommand(importCardboxCmd())
	rootCmd.AddCommand(resetCardCmd())
	rootCmd.AddCommand(forecastCmd())
	rootCmd.AddCommand(settingsCmd())
}

// env bundles what most commands need: config, a pool and the service.
type env struct {
	cfg   *config.Config
	pool  *pgxpool.Pool
	store *stores.PGStore
	svc   *quizvault.Service
}

func (e *env) Close() {
	e.pool.Close()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	if cfg.DBConnURI == "" {
		return nil, errors.New("DB_CONN_URI is not set")
	}
	return cfg, nil
}

func connect(ctx context.Context) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.New(ctx, cfg.DBConnURI)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	store := stores.NewPGStore(pool)
	return &env{cfg: cfg, pool: pool, store: store, svc: quizvault.NewService(cfg, store)}, nil
}

// commandContext carries the global logger so service log lines show up.
func commandContext(cmd *cobra.Command) context.Context {
	return log.Logger.WithContext(cmd.Context())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command-failed")
		os.Exit(1)
	}
}
