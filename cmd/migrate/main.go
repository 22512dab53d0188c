// Package main provides a CLI tool for annotation store migrations.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/article-explorer/internal/config"
	"github.com/helixir/article-explorer/internal/database"
	"github.com/helixir/article-explorer/internal/observability"
)

const connectTimeout = 30 * time.Second

// actionKind is the migration operation requested on the command line.
type actionKind int

const (
	actionUp actionKind = iota + 1
	actionDown
	actionSteps
	actionVersion
	actionForce
)

type options struct {
	action actionKind
	steps  int
	force  int
	path   string
}

var errNoAction = errors.New("no action specified")

func main() {
	opts, err := parseOptions(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// parseOptions reads the flags and requires exactly one action.
func parseOptions(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	up := fs.Bool("up", false, "Apply all pending migrations")
	down := fs.Bool("down", false, "Roll back all migrations")
	steps := fs.Int("steps", 0, "Apply N migration steps (positive=up, negative=down)")
	version := fs.Bool("version", false, "Print the current migration version")
	force := fs.Int("force", -1, "Force the migration version (recovers a dirty state)")
	path := fs.String("path", "", "Override the migrations directory")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	opts := options{steps: *steps, force: *force, path: *path}
	count := 0
	set := func(on bool, kind actionKind) {
		if on {
			count++
			opts.action = kind
		}
	}
	set(*up, actionUp)
	set(*down, actionDown)
	set(*steps != 0, actionSteps)
	set(*version, actionVersion)
	set(*force >= 0, actionForce)

	switch {
	case count == 0:
		fs.Usage()
		fmt.Fprintln(stderr, "\nPlease specify one of: -up, -down, -steps N, -version, -force V")
		return options{}, errNoAction
	case count > 1:
		return options{}, fmt.Errorf("specify only one action at a time")
	}
	return opts, nil
}

func run(opts options) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cfg.Storage.UsesPostgres() {
		fmt.Fprintf(os.Stderr, "note: storage backend is %q; migrating the postgres annotation store anyway\n", cfg.Storage.Backend)
	}

	// Console output for the CLI tool.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      "info",
		Format:     "console",
		Output:     "stdout",
		TimeFormat: time.RFC3339,
	})
	logger = logger.With().Str("component", "migrate").Logger()

	migrationDir := cfg.Database.MigrationPath
	if opts.path != "" {
		migrationDir = opts.path
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	migrator, err := database.NewMigrator(db, migrationDir, logger)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			logger.Error().Err(closeErr).Msg("failed to close migrator")
		}
	}()

	if err := apply(migrator, opts, logger); err != nil {
		return err
	}
	logVersion(migrator, logger)
	return nil
}

// migrationRunner is the subset of *database.Migrator the CLI drives.
type migrationRunner interface {
	Up() error
	Down() error
	Steps(n int) error
	Force(version int) error
	Version() (uint, bool, error)
}

func apply(m migrationRunner, opts options, logger zerolog.Logger) error {
	switch opts.action {
	case actionUp:
		logger.Info().Msg("applying pending migrations")
		if err := m.Up(); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
	case actionDown:
		logger.Warn().Msg("rolling back all migrations")
		if err := m.Down(); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
	case actionSteps:
		logger.Info().Int("steps", opts.steps).Msg("applying migration steps")
		if err := m.Steps(opts.steps); err != nil {
			return fmt.Errorf("migrate steps: %w", err)
		}
	case actionForce:
		logger.Warn().Int("version", opts.force).Msg("forcing migration version")
		if err := m.Force(opts.force); err != nil {
			return fmt.Errorf("force version: %w", err)
		}
	case actionVersion:
	default:
		return errNoAction
	}
	return nil
}

func logVersion(m migrationRunner, logger zerolog.Logger) {
	v, dirty, err := m.Version()
	if err != nil {
		logger.Warn().Err(err).Msg("could not determine migration version")
		return
	}
	logger.Info().
		Uint("version", v).
		Bool("dirty", dirty).
		Msg("current migration version")
}
