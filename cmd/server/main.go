// Package main initializes and starts the notes API server,
// setting up configuration, logging, database connections, repositories,
// services, handlers, and optional TLS.
package main

import (
	"cmp"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/atinyakov/VoiceNotes/internal/auth"
	"github.com/atinyakov/VoiceNotes/internal/config"
	"github.com/atinyakov/VoiceNotes/internal/db"
	"github.com/atinyakov/VoiceNotes/internal/logger"
	"github.com/atinyakov/VoiceNotes/internal/repository"
	"github.com/atinyakov/VoiceNotes/internal/server/handler/http"
	"github.com/atinyakov/VoiceNotes/internal/service"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Parse command-line, config file and environment configuration.
	options, err := config.Parse()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, "failed to init logger:", err)
		os.Exit(2)
	}
	defer func() { _ = log.Log.Sync() }()
	zapLogger := log.Log

	if err := run(options, zapLogger); err != nil {
		zapLogger.Fatal("server stopped", zap.Error(err))
	}
}

func run(options *config.Options, zapLogger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Init(options.DatabaseDriver, options.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("cannot init database: %w", err)
	}
	defer conn.Close()

	if options.CleanupInterval > 0 {
		if removed, err := db.DeleteOrphanNotes(ctx, conn.DB); err != nil {
			zapLogger.Warn("initial orphan sweep failed", zap.Error(err))
		} else if removed > 0 {
			zapLogger.Info("removed orphan notes at startup", zap.Int64("removed", removed))
		}
	}
	db.StartOrphanCleaner(ctx, conn.DB, options.CleanupInterval, zapLogger)

	// Repositories and business-logic services.
	tokens := auth.NewTokenManager(options.JWTSecret, options.TokenTTL)
	authService := service.NewAuthService(repository.NewUserRepository(conn), tokens)
	noteService := service.NewNoteService(repository.NewNoteRepository(conn))

	router := http.NewRouter(
		&http.AuthHandler{AuthService: authService, Log: zapLogger},
		&http.NotesHandler{NoteService: noteService, Log: zapLogger},
		authService,
		zapLogger,
	)

	server := &nethttp.Server{
		Addr:              options.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	useTLS := options.TLSCert != "" && options.TLSKey != ""
	if useTLS {
		server.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zapLogger.Info("starting server",
			zap.String("addr", options.Address),
			zap.Bool("tls", useTLS),
			zap.String("driver", options.DatabaseDriver),
		)
		var err error
		if useTLS {
			err = server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, nethttp.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		zapLogger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
