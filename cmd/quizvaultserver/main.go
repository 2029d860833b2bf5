package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/justinas/alice"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	pb "github.com/domino14/quizvault/api/rpc/quizvault"
	"github.com/domino14/quizvault/config"
	"github.com/domino14/quizvault/internal/quizvault"
	"github.com/domino14/quizvault/internal/stores"
)

const (
	GracefulShutdownTimeout = 10 * time.Second
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("could-not-load-dotenv")
	}
	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("bad-config")
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel)); err == nil && lvl != zerolog.NoLevel {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.SecretKey == "" {
		log.Fatal().Msg("secret-key-required")
	}

	if cfg.MigrateOnStart {
		if err := stores.MigrateUp(cfg.DBMigrationsPath, cfg.DBConnURI); err != nil {
			log.Fatal().Err(err).Msg("migrate-failed")
		}
	}

	ctx := context.Background()
	dbPool, err := pgxpool.New(ctx, cfg.DBConnURI)
	if err != nil {
		log.Fatal().Err(err).Msg("could-not-create-pool")
	}
	defer dbPool.Close()
	if err := dbPool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("could-not-reach-db")
	}

	svc := quizvault.NewService(cfg, stores.NewPGStore(dbPool))
	path, handler := pb.NewQuizVaultServiceHandler(quizvault.NewServer(svc),
		connect.WithInterceptors(NewAuthInterceptor([]byte(cfg.SecretKey))))

	mux := http.NewServeMux()
	mux.Handle(path, handler)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbPool.Ping(r.Context()); err != nil {
			hlog.FromRequest(r).Err(err).Msg("health-check-failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	})

	middlewares := alice.New(
		hlog.NewHandler(log.Logger),
		hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
			hlog.FromRequest(r).Info().
				Str("path", r.URL.Path).
				Int("status", status).
				Int("size", size).
				Dur("duration", duration).
				Msg("request")
		}),
		hlog.RequestIDHandler("reqID", "X-Request-Id"),
		hlog.RemoteAddrHandler("ip"),
	)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: middlewares.Then(mux),
	}
	idleConnsClosed := make(chan struct{})

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info().Msg("got quit signal...")
		ctx, cancel := context.WithTimeout(context.Background(), GracefulShutdownTimeout)

		if err := srv.Shutdown(ctx); err != nil {
			// Error from closing listeners, or context timeout:
			log.Error().Msgf("HTTP server Shutdown: %v", err)
		}
		cancel()
		close(idleConnsClosed)
	}()

	log.Info().Str("addr", cfg.ListenAddr).Msg("starting-server")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("")
	}
	<-idleConnsClosed
	log.Info().Msg("server gracefully shutting down")
}
