package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"

	"github.com/pressly/goose/v3"
)

// Source selects where migrations are read from: the files under Dir, or the
// set compiled into the binary when Embedded is true.
type Source struct {
	Dir      string
	Embedded bool
}

// Changes lists the source's schema log in apply order.
func (s Source) Changes() ([]Change, error) {
	if s.Embedded {
		return EmbeddedChanges()
	}
	if s.Dir == "" {
		return nil, fmt.Errorf("dir is required")
	}
	return ReadChanges(os.DirFS(s.Dir), ".")
}

// Run executes a goose command (up, down, status) against the source.
func (s Source) Run(ctx context.Context, db *sql.DB, command string, args ...string) error {
	if s.Embedded {
		return RunEmbedded(ctx, db, command, args...)
	}
	return Run(ctx, db, s.Dir, command, args...)
}

// MigrateTo moves the schema up or down to targetVersion, which must be 0 or
// a version present in the source.
func (s Source) MigrateTo(ctx context.Context, db *sql.DB, targetVersion string) error {
	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}
	if target != 0 {
		changes, err := s.Changes()
		if err != nil {
			return err
		}
		if !hasVersion(changes, target) {
			return fmt.Errorf("version %d is not in the schema log", target)
		}
	}
	if db == nil {
		return fmt.Errorf("db is required")
	}

	dir := s.Dir
	if s.Embedded {
		goose.SetBaseFS(embedded)
		defer goose.SetBaseFS(nil)
		dir = embeddedDir
	}

	current, err := CurrentVersion(ctx, db)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	switch {
	case current == target:
		return nil
	case current < target:
		if err := goose.UpToContext(ctx, db, dir, target); err != nil {
			return fmt.Errorf("goose up-to %d: %w", target, err)
		}
	default:
		if err := goose.DownToContext(ctx, db, dir, target); err != nil {
			return fmt.Errorf("goose down-to %d: %w", target, err)
		}
	}
	return nil
}

func hasVersion(changes []Change, version int64) bool {
	for _, c := range changes {
		if c.Version == version {
			return true
		}
	}
	return false
}
