package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	upMarker   = "-- +goose Up"
	downMarker = "-- +goose Down"

	versionLayout = "20060102150405"
)

var (
	changeFileRe  = regexp.MustCompile(`^(\d{14})_([a-z0-9_]+)\.sql$`)
	slugReplaceRe = regexp.MustCompile(`[^a-z0-9]+`)
)

// Change is one entry of the schema log, in apply order.
type Change struct {
	Version int64
	Name    string
	File    string
}

// ReadChanges parses and checks every migration under dir of fsys.
// Versions must be unique and each file needs an Up section ahead of its Down
// section.
func ReadChanges(fsys fs.FS, dir string) ([]Change, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations %q: %w", dir, err)
	}

	changes := make([]Change, 0, len(entries))
	byVersion := map[int64]string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}

		change, err := parseChangeName(e.Name())
		if err != nil {
			return nil, err
		}
		if prev, ok := byVersion[change.Version]; ok {
			return nil, fmt.Errorf("migrations %q and %q share version %d", prev, change.File, change.Version)
		}
		byVersion[change.Version] = change.File

		body, err := fs.ReadFile(fsys, path.Join(dir, change.File))
		if err != nil {
			return nil, fmt.Errorf("read migration %q: %w", change.File, err)
		}
		if err := checkSections(change.File, string(body)); err != nil {
			return nil, err
		}
		changes = append(changes, change)
	}

	sort.Slice(changes, func(i, j int) bool { return changes[i].Version < changes[j].Version })
	return changes, nil
}

// ValidateDir checks the migration files on disk.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	_, err := ReadChanges(os.DirFS(dir), ".")
	return err
}

// CreateSQLMigration writes <dir>/<YYYYMMDDHHMMSS>_<slug>.sql. The version is
// the current UTC time, bumped past the newest existing change so the log
// stays strictly ordered.
func CreateSQLMigration(dir string, name string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	slug := strings.Trim(slugReplaceRe.ReplaceAllString(strings.ToLower(name), "_"), "_")
	if slug == "" {
		return "", fmt.Errorf("migration name %q has no usable characters", name)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}
	existing, err := ReadChanges(os.DirFS(dir), ".")
	if err != nil {
		return "", err
	}

	stamp := time.Now().UTC().Truncate(time.Second)
	if n := len(existing); n > 0 {
		latest, _ := time.Parse(versionLayout, strconv.FormatInt(existing[n-1].Version, 10))
		if !stamp.After(latest) {
			stamp = latest.Add(time.Second)
		}
	}

	file := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", stamp.Format(versionLayout), slug))
	body := fmt.Sprintf("%s\n-- +goose StatementBegin\n-- %s\n-- +goose StatementEnd\n\n%s\n-- +goose StatementBegin\n-- revert %s\n-- +goose StatementEnd\n",
		upMarker, slug, downMarker, slug)

	f, err := os.OpenFile(file, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create migration %q: %w", file, err)
	}
	if _, err := f.WriteString(body); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write migration %q: %w", file, err)
	}
	return file, f.Close()
}

func parseChangeName(file string) (Change, error) {
	m := changeFileRe.FindStringSubmatch(file)
	if m == nil {
		return Change{}, fmt.Errorf("migration %q must be named YYYYMMDDHHMMSS_name.sql", file)
	}
	if _, err := time.Parse(versionLayout, m[1]); err != nil {
		return Change{}, fmt.Errorf("migration %q has an invalid timestamp: %w", file, err)
	}
	version, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return Change{}, fmt.Errorf("migration %q: %w", file, err)
	}
	return Change{Version: version, Name: m[2], File: file}, nil
}

func checkSections(file, body string) error {
	up := strings.Index(body, upMarker)
	if up < 0 {
		return fmt.Errorf("migration %q missing %q", file, upMarker)
	}
	down := strings.Index(body, downMarker)
	if down < 0 {
		return fmt.Errorf("migration %q missing %q", file, downMarker)
	}
	if down < up {
		return fmt.Errorf("migration %q declares Down before Up", file)
	}
	return nil
}
