package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/rugstore-backend/pkg/config"
	"github.com/angelmondragon/rugstore-backend/pkg/db"
	"github.com/angelmondragon/rugstore-backend/pkg/logger"
	"github.com/angelmondragon/rugstore-backend/pkg/migrate"
)

const usage = `usage: migrate [flags] <command>

commands:
  up        apply every pending migration
  down      roll back the newest migration
  status    print applied and pending migrations
  version   migrate up or down to -version
  create    write a new migration file named -name
  validate  check file names and goose annotations
`

type options struct {
	command string
	dir     string
	name    string
	version string
}

func main() {
	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err := run(context.Background(), opts); err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s: %v\n", opts.command, err)
		os.Exit(1)
	}
}

func parseArgs(args []string) (options, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.Usage = func() {}
	var opts options
	fs.StringVar(&opts.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	fs.StringVar(&opts.name, "name", "", "migration name for create")
	fs.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for version")
	legacy := fs.String("cmd", "", "command, when not given positionally")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	opts.command = *legacy
	if fs.NArg() > 0 {
		opts.command = fs.Arg(0)
	}
	switch opts.command {
	case "":
		opts.command = "up"
	case "up", "down", "status", "validate":
	case "create":
		if opts.name == "" {
			return opts, errors.New("create requires -name")
		}
	case "version":
		if opts.version == "" {
			return opts, errors.New("version requires -version")
		}
	default:
		return opts, fmt.Errorf("unknown command %q", opts.command)
	}
	return opts, nil
}

func run(ctx context.Context, opts options) error {
	switch opts.command {
	case "create":
		path, err := migrate.CreateSQLMigration(opts.dir, opts.name)
		if err != nil {
			return err
		}
		fmt.Println("created", path)
		return nil
	case "validate":
		if err := migrate.ValidateDir(opts.dir); err != nil {
			return err
		}
		fmt.Println("migrations ok")
		return nil
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Fields:      map[string]any{"env": cfg.App.Env, "driver": cfg.DB.Driver, "command": opts.command},
	})

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer client.Close()

	// The goose files are Postgres SQL. sqlite gets the embedded schema and
	// supports "up" only.
	if cfg.DB.IsSQLite() {
		if opts.command != "up" {
			return fmt.Errorf("not supported on the sqlite driver")
		}
		if err := migrate.ApplySQLiteSchema(ctx, client.DB()); err != nil {
			return err
		}
		logg.Info(ctx, "migrate.sqlite.applied")
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return err
	}
	if opts.command == "version" {
		return migrate.MigrateToVersion(ctx, sqlDB, opts.dir, opts.version)
	}
	return migrate.Run(ctx, sqlDB, opts.dir, opts.command)
}
