// Command server boots the calendar backend: SQLite storage, the conversation
// engine and bot dispatcher, and the HTTP surface (export redemption, public
// listings, admin read API, health and metrics).
//
// Startup order:
//  1. Load .env (best effort) and environment configuration
//  2. Configure zerolog (level, optional pretty console)
//  3. Open SQLite and run migrations
//  4. Set up OpenTelemetry tracing (no-op unless enabled)
//  5. Wire services, the dispatcher, and the Gin router
//  6. Serve until SIGINT/SIGTERM, then drain gracefully
//
// With BOT_CONSOLE=1 the process additionally reads bot traffic from stdin,
// one line per inbound message ("<identity> <text>" or "<identity> !<data>"
// for a button press), and delivers outbound messages through the loopback
// gateway into the log. This keeps the full message path exercisable without
// a messenger platform attached.
package main

import (
	"bufio"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-calendar-backend/internal/bot"
	"github.com/tbourn/go-calendar-backend/internal/config"
	"github.com/tbourn/go-calendar-backend/internal/conversation"
	"github.com/tbourn/go-calendar-backend/internal/export"
	httpapi "github.com/tbourn/go-calendar-backend/internal/http"
	"github.com/tbourn/go-calendar-backend/internal/observability"
	"github.com/tbourn/go-calendar-backend/internal/repo"
	"github.com/tbourn/go-calendar-backend/internal/services"
	"github.com/tbourn/go-calendar-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Local development convenience; ignore absence in production.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("setup tracing")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("tracing shutdown")
		}
	}()

	signer := export.NewSigner([]byte(cfg.Export.Secret))

	disp := &bot.Dispatcher{
		Conv:          conversation.NewManager(conversation.NewMemoryStore(cfg.SessionTTL), log.Logger),
		Users:         services.NewUserService(db),
		Events:        services.NewEventService(db, services.NewEventRepo()),
		Scheduling:    services.NewSchedulingService(db),
		Stats:         services.NewStatsService(db),
		Signer:        signer,
		Gateway:       &bot.LogGateway{Log: log.Logger},
		ExportBaseURL: cfg.Export.BaseURL + cfg.APIBasePath,
		Log:           log.Logger,
	}
	if cfg.BotConsole {
		go consoleLoop(ctx, disp)
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, signer, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
		}
	}

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}

// consoleLoop feeds stdin lines into the dispatcher. Format per line:
//
//	<identity> <text...>     inbound message
//	<identity> !<data>       button press (e.g. "42 !appt:ok:<uuid>")
func consoleLoop(ctx context.Context, d *bot.Dispatcher) {
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		idStr, rest, found := strings.Cut(line, " ")
		if !found {
			log.Warn().Str("line", line).Msg("console: want '<identity> <text>'")
			continue
		}
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil || id <= 0 {
			log.Warn().Str("identity", idStr).Msg("console: identity must be a positive integer")
			continue
		}
		if data, isButton := strings.CutPrefix(rest, "!"); isButton {
			d.OnButton(ctx, id, data)
			continue
		}
		d.OnMessage(ctx, bot.Message{From: id, Text: rest})
	}
	if err := sc.Err(); err != nil {
		log.Warn().Err(err).Msg("console: stdin closed")
	}
}
