// Command migrate applies the audit schema to the configured database.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"

	"github.com/MP2EZ/being-sub003/internal/infrastructure/config"
	"github.com/MP2EZ/being-sub003/internal/infrastructure/database"
)

// migrator is the subset of *migrate.Migrate the command drives.
type migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Force(version int) error
	Version() (uint, bool, error)
}

func main() {
	var (
		configPath = flag.String("config", os.Getenv("BEING_CONFIG"), "Path to a YAML config file")
		action     = flag.String("action", "up", "Migration action: up, down, status, force")
		steps      = flag.Int("steps", 0, "Number of migrations to apply or roll back (0 = all)")
		version    = flag.Int("version", -1, "Version to force (force action only)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Database.URL == "" {
		slog.Error("database.url is required")
		os.Exit(1)
	}

	m, err := database.NewMigrator(cfg.Database.URL)
	if err != nil {
		slog.Error("failed to create migrator", "error", err)
		os.Exit(1)
	}
	defer m.Close()

	if err := run(m, *action, *steps, *version, os.Stdout); err != nil {
		slog.Error("migration failed", "action", *action, "error", err)
		os.Exit(1)
	}
}

func run(m migrator, action string, steps, version int, out io.Writer) error {
	var err error
	switch action {
	case "up":
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case "down":
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	case "force":
		if version < 0 {
			return errors.New("force requires -version")
		}
		err = m.Force(version)
	case "status":
	default:
		return fmt.Errorf("unknown action %q", action)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return printStatus(m, out)
}

func printStatus(m migrator, out io.Writer) error {
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		fmt.Fprintln(out, "no migrations applied")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "version %d (dirty: %t)\n", v, dirty)
	return nil
}
