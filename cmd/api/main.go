package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lex-codes11/skipbot/internal/app"
	"github.com/lex-codes11/skipbot/internal/clock"
	"github.com/lex-codes11/skipbot/internal/config"
	"github.com/lex-codes11/skipbot/internal/domain"
	"github.com/lex-codes11/skipbot/internal/metrics"
	"github.com/lex-codes11/skipbot/internal/notify"
	"github.com/lex-codes11/skipbot/internal/passphrase"
	"github.com/lex-codes11/skipbot/internal/storage/postgres"
	transporthttp "github.com/lex-codes11/skipbot/internal/transport/http"
	"github.com/lex-codes11/skipbot/migrations"
)

const shutdownTimeout = 10 * time.Second

func main() {
	zerolog.TimeFieldFormat = time.RFC3339

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}

	log.Info().
		Str("port", cfg.Port).
		Str("timezone", cfg.Timezone).
		Int("cutover_hour", cfg.CutoverHour).
		Int("capacity", cfg.Capacity).
		Strs("venues", venueStrings(cfg.Venues)).
		Msg("starting skipbot allocation service")

	if cfg.WebhookSecret == "" {
		log.Warn().Msg("webhook signature verification disabled, all payment events are trusted")
	}

	resolver, err := clock.NewResolver(cfg.Timezone, cfg.CutoverHour)
	if err != nil {
		log.Fatal().Err(err).Msg("night resolver")
	}

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to db")
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		log.Fatal().Err(err).Msg("db ping")
	}
	if err := migrations.Apply(startupCtx, pool); err != nil {
		log.Fatal().Err(err).Msg("apply migrations")
	}

	var notifier app.Notifier = notify.NoOp{}
	if cfg.RabbitURL != "" {
		publisher, err := notify.NewAMQPPublisher(cfg.RabbitURL, cfg.NotifyExchange)
		if err != nil {
			log.Fatal().Err(err).Msg("connect to broker")
		}
		defer publisher.Close()
		notifier = publisher
		log.Info().Str("exchange", cfg.NotifyExchange).Msg("notifications enabled")
	}

	ledgerRepo := postgres.NewLedgerRepository(pool)
	poolRepo := postgres.NewPoolRepository(pool)

	pools, err := passphrase.New(poolRepo, cfg.Vocabulary, cfg.Capacity)
	if err != nil {
		log.Fatal().Err(err).Msg("passphrase pool")
	}

	venues := domain.NewVenueSet(cfg.Venues, cfg.Capacity)
	clk := clock.NewSystem()
	allocSvc := app.NewAllocationService(ledgerRepo, pools, venues, resolver, clk, notifier)
	adminSvc := app.NewAdminService(ledgerRepo, pools, venues, resolver, clk, notifier)

	metrics.Register()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", transporthttp.HealthHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/webhook/payment", transporthttp.HandlePaymentWebhook(allocSvc, cfg.WebhookSecret))
	mux.Handle("/venues/", transporthttp.HandleAvailability(allocSvc))
	mux.Handle("/admin/sales", transporthttp.BearerAuth(cfg.AdminToken, transporthttp.HandleAdminSales(adminSvc)))
	mux.Handle("/admin/sales/move", transporthttp.BearerAuth(cfg.AdminToken, transporthttp.HandleAdminMove(adminSvc)))
	mux.Handle("/admin/passphrases", transporthttp.BearerAuth(cfg.AdminToken, transporthttp.HandleAdminPassphrases(adminSvc)))
	mux.Handle("/", transporthttp.NotFoundHandler())

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: transporthttp.RequestLogger(mux, log.Logger),
	}

	log.Info().Str("addr", server.Addr).Msg("api listening")

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
		}
	case <-stopCtx.Done():
		log.Info().Msg("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("server shutdown error")
	}
	log.Info().Msg("server stopped")
}

func venueStrings(venues []domain.Venue) []string {
	out := make([]string, len(venues))
	for i, v := range venues {
		out[i] = string(v)
	}
	return out
}
