package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/clinica-salud/pacientes-api/pkg/config"
	"github.com/clinica-salud/pacientes-api/pkg/db"
	"github.com/clinica-salud/pacientes-api/pkg/logger"
	"github.com/clinica-salud/pacientes-api/pkg/migrate"
	"github.com/joho/godotenv"
)

type options struct {
	cmd      string
	dir      string
	name     string
	version  string
	embedded bool
}

func main() {
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.cmd, "cmd", "up", "up|down|status|version|create|validate|changes")
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	flag.BoolVar(&opts.embedded, "embedded", false, "use the migrations compiled into the binary instead of -dir")
	flag.StringVar(&opts.name, "name", "", "migration name for -cmd=create")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s: %v\n", opts.cmd, err)
		os.Exit(1)
	}
}

func run(opts options) error {
	// file-only commands run without config or a database
	switch opts.cmd {
	case "create":
		if opts.name == "" {
			return errors.New("missing -name")
		}
		path, err := migrate.CreateSQLMigration(opts.dir, opts.name)
		if err != nil {
			return err
		}
		fmt.Println("created migration:", path)
		return nil

	case "validate":
		if err := migrate.ValidateDir(opts.dir); err != nil {
			return err
		}
		fmt.Println("migration validation passed")
		return nil

	case "changes":
		return printChanges(opts)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if cfg.DB.IsSQLite() {
		return errors.New("versioned migrations target postgres; sqlite is shaped by auto-migrate at startup")
	}

	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"cmd":      opts.cmd,
		"dir":      opts.dir,
		"embedded": opts.embedded,
	})

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer client.Close()

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("sql database: %w", err)
	}

	if err := apply(ctx, sqlDB, opts); err != nil {
		return err
	}

	version, err := migrate.CurrentVersion(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	logg.Info(logg.WithField(ctx, "schema_version", version), "migrate finished")
	return nil
}

func apply(ctx context.Context, sqlDB *sql.DB, opts options) error {
	source := opts.source()
	switch opts.cmd {
	case "up", "down", "status":
		return source.Run(ctx, sqlDB, opts.cmd)

	case "version":
		if opts.version == "" {
			return errors.New("missing -version")
		}
		return source.MigrateTo(ctx, sqlDB, opts.version)
	}
	return fmt.Errorf("unknown -cmd value %q", opts.cmd)
}

func (o options) source() migrate.Source {
	return migrate.Source{Dir: o.dir, Embedded: o.embedded}
}

func printChanges(opts options) error {
	changes, err := opts.source().Changes()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tNAME")
	for _, c := range changes {
		fmt.Fprintf(tw, "%d\t%s\n", c.Version, c.Name)
	}
	return tw.Flush()
}
