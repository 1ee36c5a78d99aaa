package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/claude/courtside/internal/clock"
	"github.com/claude/courtside/internal/coach"
	"github.com/claude/courtside/internal/config"
	"github.com/claude/courtside/internal/logging"
	"github.com/claude/courtside/internal/mcp"
	"github.com/claude/courtside/internal/metrics"
	"github.com/claude/courtside/internal/plan"
	"github.com/claude/courtside/internal/server"
	"github.com/claude/courtside/internal/service"
	"github.com/claude/courtside/internal/speech"
	"github.com/claude/courtside/internal/storage"
	"github.com/claude/courtside/internal/tone"
	"github.com/claude/courtside/internal/wakelock"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/multierr"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "path to config file (defaults only when empty)")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(Version)
		return
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, closeLog := logging.New(logging.Params{File: cfg.Log.File, Level: cfg.Log.Level})
	log.Info("Courtside starting", "version", Version)

	if err := run(cfg, log, *migrateOnly); err != nil {
		log.Error("courtside failed", "error", err)
		_ = closeLog()
		os.Exit(1)
	}
	if err := closeLog(); err != nil {
		fmt.Fprintf(os.Stderr, "closing log: %v\n", err)
	}
}

func run(cfg *config.Config, log *slog.Logger, migrateOnly bool) (err error) {
	// Run migrations
	if err := storage.RunMigrations(cfg.Storage.Path); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	log.Info("migrations applied", "path", cfg.Storage.Path)

	if migrateOnly {
		log.Info("migrate-only: exiting")
		return nil
	}

	ctx := context.Background()
	db, err := storage.Open(ctx, cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { err = multierr.Append(err, db.Close()) }()

	catalog, err := plan.Load(cfg.Plans.Dir)
	if err != nil {
		return fmt.Errorf("failed to load plans: %w", err)
	}
	log.Info("plans loaded", "count", len(catalog.List()), "dir", cfg.Plans.Dir)

	reg := metrics.NewRegistry()
	m := metrics.NewManager("courtside", reg)

	c := coach.New(coach.Options{
		Voice:    speech.NewGuide(newSpeaker(cfg, log), clock.Real{}, cfg.Voice.Rate, log),
		Tones:    tone.NewPlayer(newToneSink(cfg, log), clock.Real{}, log),
		Wake:     wakelock.New(newInhibitor(log), log),
		Store:    newSessionStore(cfg, db),
		Recorder: db,
		Metrics:  m,
		Clock:    clock.Real{},
		Logger:   log,
	})
	defer c.Close()

	svc := service.New(c, catalog, db, cfg.Workout.Defaults(), log)

	if st, ok := svc.PendingSession(ctx); ok {
		log.Info("resumable workout found", "plan", st.PlanName, "exercise", st.CurrentExerciseIndex+1,
			"of", len(st.Exercises), "auto_resume", cfg.Workout.AutoResume)
		if cfg.Workout.AutoResume {
			if _, err := svc.ResumeSession(ctx); err != nil {
				log.Warn("auto-resume failed", "error", err)
			}
		}
	}

	srv := server.New(svc, m, reg, cfg.Auth.APIKey, log)
	mcpSrv := mcp.New(mcp.NewLocal(svc), Version, log)
	srv.MountMCP(mcpserver.NewStreamableHTTPServer(mcpSrv))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	log.Info("server starting", "addr", addr, "auth", cfg.Auth.APIKey != "")

	httpSrv := &http.Server{Handler: srv, ReadHeaderTimeout: 10 * time.Second}

	serveErr := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info("shutting down", "signal", sig)
	case err := <-serveErr:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
	return nil
}

func newSpeaker(cfg *config.Config, log *slog.Logger) speech.Speaker {
	s, err := speech.NewCommandSpeaker(cfg.Voice.Command, log)
	if err != nil {
		log.Warn("speech disabled, logging announcements instead", "error", err)
		return speech.LogSpeaker{Log: log}
	}
	return s
}

func newToneSink(cfg *config.Config, log *slog.Logger) tone.Sink {
	s, err := tone.NewCommandSink(cfg.Tone.Command, "")
	if err != nil {
		log.Warn("tones disabled", "error", err)
		return tone.NopSink{}
	}
	return s
}

// newInhibitor returns a nil interface, not a nil *CommandInhibitor, when the
// platform has no inhibitor.
func newInhibitor(log *slog.Logger) wakelock.Inhibitor {
	ci, err := wakelock.Detect()
	if err != nil {
		log.Info("screen wake lock unavailable", "error", err)
		return nil
	}
	return ci
}

func newSessionStore(cfg *config.Config, db *storage.DB) coach.SessionStore {
	if cfg.Storage.SessionFile != "" {
		return storage.NewFileSessionStore(cfg.Storage.SessionFile)
	}
	return db.Sessions()
}
