// Package app wires the configured collaborators into an ovc.Service and
// manages their lifecycle for one CLI command.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"ovc-go/internal/api"
	"ovc-go/internal/archive"
	"ovc-go/internal/config"
	"ovc-go/internal/database"
	"ovc-go/internal/encryption"
	"ovc-go/internal/inventory"
	"ovc-go/internal/notify"
	"ovc-go/internal/ovc"
	"ovc-go/internal/scanner"
	"ovc-go/internal/staging"
)

// LogLevelEnv names the environment variable holding the minimum log level.
const LogLevelEnv = "OVC_LOG_LEVEL"

// App is the application layer between the CLI and ovc.Service.
// It constructs all dependencies from config and closes them on Close.
type App struct {
	cfg       *config.Config
	db        *database.SQLDatabase
	archive   ovc.Archive
	capture   *staging.CaptureArea
	encryptor ovc.Encryptor
	resolver  *inventory.Resolver
	events    *notify.Broadcaster
	service   *ovc.Service
	logger    *slog.Logger
	op        *Operation
	logFile   *os.File
}

// New creates a fully wired App from the given config.
// operation identifies the CLI command being run (e.g. "ScanDirectory", "Restore").
// The caller must call Close when done.
func New(ctx context.Context, cfg *config.Config, operation string, params ...string) (*App, error) {
	level, err := parseLevel(os.Getenv(LogLevelEnv))
	if err != nil {
		return nil, err
	}

	op := NewOperation(operation, params, time.Now())
	logger, logFile, err := newLogger(cfg.LogDir, op.ID, level)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	a := &App{cfg: cfg, logger: logger, op: op, logFile: logFile}
	if err := a.wire(ctx); err != nil {
		a.Close()
		return nil, err
	}

	logger.Debug("operation started", "operation", op.Name, "params", op.Parameters)
	return a, nil
}

func (a *App) wire(ctx context.Context) error {
	cfg := a.cfg

	db, err := database.NewDatabaseFromConfig(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("creating database: %w", err)
	}
	a.db = db

	if err := db.CheckMigrations(); err != nil {
		return fmt.Errorf("database schema out of date (run `ovc db migrate`): %w", err)
	}

	arc, err := archive.NewArchiveFromConfig(ctx, cfg.Archive)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	a.archive = arc

	capture, err := staging.NewCaptureAreaFromConfig(cfg.Staging)
	if err != nil {
		return fmt.Errorf("creating capture area: %w", err)
	}
	a.capture = capture

	sc, err := scanner.NewScannerFromConfig(cfg.Scanner)
	if err != nil {
		return fmt.Errorf("creating scanner: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return fmt.Errorf("creating encryptor: %w", err)
	}
	a.encryptor = enc

	a.resolver = inventory.NewResolver(db, cfg.Inventory.CacheSize, cfg.Inventory.CacheTTL)
	a.events = notify.NewBroadcaster(notify.DefaultBuffer)

	deps := ovc.Deps{
		Database:        db,
		Archive:         arc,
		Scanner:         sc,
		Resolver:        a.resolver,
		Capture:         capture,
		Encryptor:       enc,
		Notifier:        a.events,
		Logger:          a.logger,
		ScanConcurrency: cfg.Scanner.Concurrency,
	}
	svc, err := ovc.NewService(deps)
	if err != nil {
		return fmt.Errorf("creating service: %w", err)
	}
	a.service = svc
	return nil
}

// Service returns the wired service.
func (a *App) Service() *ovc.Service { return a.service }

// Logger returns the operation logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// Config returns the config the App was built from.
func (a *App) Config() *config.Config { return a.cfg }

// Encrypted reports whether new archived copies are encrypted.
func (a *App) Encrypted() bool { return a.encryptor != nil }

// Unlock returns a DecryptionContext for passphrase. Without encryption
// configured it returns nil and no error: archived copies are plaintext.
func (a *App) Unlock(passphrase string) (ovc.DecryptionContext, error) {
	if a.encryptor == nil {
		return nil, nil
	}
	dc, err := a.encryptor.Unlock(passphrase)
	if err != nil {
		return nil, fmt.Errorf("unlocking private key: %w", err)
	}
	return dc, nil
}

// Handler builds the HTTP API over the service. decryptCtx may be nil.
func (a *App) Handler(decryptCtx ovc.DecryptionContext) http.Handler {
	h := api.NewHandler(a.service, a.events, a.logger, api.Options{Decrypt: decryptCtx})
	return api.NewRouter(h, a.logger)
}

// Serve runs the HTTP API on the configured address until ctx is done.
func (a *App) Serve(ctx context.Context, decryptCtx ovc.DecryptionContext) error {
	srv := api.NewServer(a.cfg.Server.Listen, a.Handler(decryptCtx), a.cfg.Server.ShutdownTimeout, a.logger)
	return srv.Run(ctx)
}

// BackupDatabase writes a consistent snapshot of the SQLite database to path.
func (a *App) BackupDatabase(path string) error {
	if err := a.db.BackupTo(path); err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	a.logger.Info("database backed up", "path", path)
	return nil
}

// Fail marks the operation as failed; Close logs it with its error.
func (a *App) Fail(err error) {
	a.op.Fail()
	a.logger.Error("operation failed", "operation", a.op.Name, "error", err)
}

// Close logs the outcome of the operation and closes all resources.
func (a *App) Close() error {
	var firstErr error

	if a.events != nil {
		a.events.Close()
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			firstErr = fmt.Errorf("closing database: %w", err)
		}
	}

	if a.logger != nil && a.op != nil {
		a.logger.Debug("operation finished",
			"operation", a.op.Name,
			"status", a.op.Status,
			"duration", time.Since(a.op.StartedAt).Round(time.Millisecond))
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
