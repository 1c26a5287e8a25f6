package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erazemk/najdeno/internal/api"
	"github.com/erazemk/najdeno/internal/auth"
	"github.com/erazemk/najdeno/internal/config"
	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/match"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/policy"
	"github.com/erazemk/najdeno/internal/store"
	"github.com/erazemk/najdeno/internal/telemetry"
)

// levelRouter is a slog.Handler that routes INFO/WARN to stdout and ERROR+ to stderr.
type levelRouter struct {
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

// setupLogger configures structured logging. INFO/WARN go to stdout, ERROR goes
// to stderr. If logPath is non-empty, all levels are also written to that file.
// Returns a cleanup function that closes the log file (if opened).
func setupLogger(logPath string) (func(), error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var cleanup func()

	stdoutW := io.Writer(os.Stdout)
	stderrW := io.Writer(os.Stderr)

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		stdoutW = io.MultiWriter(os.Stdout, f)
		stderrW = io.MultiWriter(os.Stderr, f)
	}

	handler := &levelRouter{
		stdout: slog.NewTextHandler(stdoutW, opts),
		stderr: slog.NewTextHandler(stderrW, opts),
	}
	slog.SetDefault(slog.New(handler))
	return cleanup, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fs := flag.NewFlagSet("najdeno", flag.ContinueOnError)

	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "")
	fs.StringVar(&cfg.DBPath, "d", cfg.DBPath, "")

	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "")
	fs.StringVar(&cfg.Addr, "a", cfg.Addr, "")

	fs.StringVar(&cfg.AdminUniversityID, "admin", cfg.AdminUniversityID, "")
	fs.StringVar(&cfg.AdminUniversityID, "u", cfg.AdminUniversityID, "")

	fs.StringVar(&cfg.LogPath, "log", cfg.LogPath, "")
	fs.StringVar(&cfg.LogPath, "l", cfg.LogPath, "")

	fs.StringVar(&cfg.MatcherURL, "matcher", cfg.MatcherURL, "")
	fs.StringVar(&cfg.MatcherURL, "m", cfg.MatcherURL, "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: najdeno [flags]

Flags:
  -d, -db <path>          SQLite database path (default: najdeno.sqlite3)
  -a, -addr <host:port>   listen address (default: :8080)
  -u, -admin <id>         admin university id on first run (default: admin)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -m, -matcher <url>      matcher service base URL (default: no matches)
  -h, -help               show this help and exit

Every flag can also be set through the environment (NAJDENO_DB, NAJDENO_ADDR,
NAJDENO_ADMIN_UNIVERSITY_ID, NAJDENO_LOG, NAJDENO_MATCHER_URL). Flags win.
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}

	// Set up structured logging: INFO/WARN → stdout, ERROR → stderr.
	// Optionally also write to a log file.
	closeLog, err := setupLogger(cfg.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if closeLog != nil {
		defer closeLog()
	}

	ctx := context.Background()

	shutdownTracing, err := telemetry.Setup(ctx, "najdeno", cfg.OTelEndpoint)
	if err != nil {
		slog.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}
	defer shutdownTracing(context.Background())

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		slog.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	slog.Info("database ready", "path", cfg.DBPath)

	// Prefer a configured secret; otherwise one is generated on first run.
	jwtSecret := cfg.JWTSecret
	if jwtSecret == "" {
		jwtSecret, err = store.GetJWTSecret(ctx, database)
		if err != nil {
			slog.Error("failed to get JWT secret", "error", err)
			os.Exit(1)
		}
	}

	if err := bootstrapAdmin(ctx, database, jwtSecret, cfg); err != nil {
		slog.Error("failed to create admin user", "error", err)
		os.Exit(1)
	}

	authz, err := policy.New(policy.Config{Logger: slog.Default()})
	if err != nil {
		slog.Error("failed to load policies", "error", err)
		os.Exit(1)
	}

	var matcher match.Matcher = match.NoopMatcher{}
	if cfg.MatcherURL != "" {
		matcher = match.NewHTTPMatcher(cfg.MatcherURL, store.NewItems(database), cfg.MatcherTimeout)
		slog.Info("matcher configured", "url", cfg.MatcherURL, "timeout", cfg.MatcherTimeout)
	}

	router := api.NewRouter(api.Deps{
		DB:        database,
		JWTSecret: jwtSecret,
		Authz:     authz,
		Matcher:   matcher,
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.LoggingMiddleware(router),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped, closing database")
}

// bootstrapAdmin creates the admin account on first run and prints a token
// for it. Nothing happens when the account already exists.
func bootstrapAdmin(ctx context.Context, database *sql.DB, secret string, cfg config.Config) error {
	existing, err := store.GetUserByUniversityID(ctx, database, cfg.AdminUniversityID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	user, err := store.CreateUser(ctx, database, &model.User{
		UniversityID: cfg.AdminUniversityID,
		Name:         cfg.AdminName,
		Roles:        []model.Role{model.RoleAdmin, model.RoleUser},
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	token, err := auth.GenerateToken(secret, user.ID)
	if err != nil {
		return fmt.Errorf("generating admin token: %w", err)
	}

	printInitResult(cfg.DBPath, user, token)
	return nil
}

// printInitResult prints the first-run result to stdout.
func printInitResult(dbPath string, user *model.User, token string) {
	fmt.Printf("Database initialized: %s\n", dbPath)
	fmt.Println()
	fmt.Println("Admin account created:")
	fmt.Printf("  University ID: %s\n", user.UniversityID)
	fmt.Printf("  User ID:       %s\n", user.ID)
	fmt.Printf("  Token:         %s\n", token)
	fmt.Println()
	fmt.Println("Save this token. Use it to create users and issue their tokens.")
	fmt.Println()
}
