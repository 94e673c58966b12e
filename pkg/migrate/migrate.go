package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

// DefaultDir is where the migrate CLI reads and creates migration files.
const DefaultDir = "pkg/migrate/migrations"

// embeddedDir is the root of the migrations compiled into the binary.
const embeddedDir = "migrations"

//go:embed migrations/*.sql
var embedded embed.FS

// Run executes a standard goose command that requires a DB connection.
func Run(ctx context.Context, db *sql.DB, dir string, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	if dir == "" {
		return fmt.Errorf("dir is required")
	}

	// versioned migrations target Postgres; sqlite uses AutoMigrate
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	// RunContext prints status output to stdout (goose internal)
	if err := goose.RunContext(ctx, command, db, dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// RunEmbedded runs a goose command against the migrations compiled into the binary.
func RunEmbedded(ctx context.Context, db *sql.DB, command string, args ...string) error {
	goose.SetBaseFS(embedded)
	defer goose.SetBaseFS(nil)

	return Run(ctx, db, embeddedDir, command, args...)
}

// EmbeddedChanges returns the schema log compiled into the binary.
func EmbeddedChanges() ([]Change, error) {
	return ReadChanges(embedded, embeddedDir)
}

// EmbeddedVersions lists the versions compiled into the binary in apply order.
func EmbeddedVersions() ([]int64, error) {
	changes, err := EmbeddedChanges()
	if err != nil {
		return nil, err
	}
	versions := make([]int64, len(changes))
	for i, c := range changes {
		versions[i] = c.Version
	}
	return versions, nil
}

// CurrentVersion reads the newest applied version from goose_db_version.
func CurrentVersion(ctx context.Context, db *sql.DB) (int64, error) {
	if err := goose.SetDialect("postgres"); err != nil {
		return 0, fmt.Errorf("set goose dialect: %w", err)
	}
	return goose.GetDBVersionContext(ctx, db)
}
