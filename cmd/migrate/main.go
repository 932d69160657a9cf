// Command migrate manages the replica database schema.
//
// Usage:
//
//	migrate [flags] <command>
//
// Commands:
//
//	up         apply all pending migrations
//	down       roll back all migrations
//	step N     apply N migrations (negative rolls back)
//	version    print the current schema version
//	force N    set the schema version without running migrations
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strconv"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/migration"
)

func main() {
	var (
		path     = flag.String("path", "migrations", "path to migration files")
		logLevel = flag.String("log-level", "info", "log level (debug, info, warn, error)")
	)
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	log, err := logger.New(&logger.Config{Level: *logLevel, Format: "console", Output: "stdout"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync(log) }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	migrator, err := migration.New(db, *path, log)
	if err != nil {
		log.Fatal("failed to create migrator", zap.Error(err))
	}
	defer func() { _ = migrator.Close() }()

	if err := runCommand(migrator, log, flag.Args()); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}
}

func runCommand(migrator *migration.Migrator, log *zap.Logger, args []string) error {
	switch args[0] {
	case "up":
		return migrator.Up()
	case "down":
		return migrator.Down()
	case "step":
		if len(args) < 2 {
			return fmt.Errorf("step requires a count")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid step count %q", args[1])
		}
		return migrator.Steps(n)
	case "version":
		version, dirty, err := migrator.Version()
		if err != nil {
			return err
		}
		log.Info("schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	case "force":
		if len(args) < 2 {
			return fmt.Errorf("force requires a version")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version %q", args[1])
		}
		return migrator.Force(version)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: migrate [flags] <command>

Commands:
  up         apply all pending migrations
  down       roll back all migrations
  step N     apply N migrations (negative rolls back)
  version    print the current schema version
  force N    set the schema version without running migrations

Flags:
`)
	flag.PrintDefaults()
}
