package migrate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/clinica-salud/pacientes-api/pkg/config"
	"github.com/clinica-salud/pacientes-api/pkg/db"
	"github.com/clinica-salud/pacientes-api/pkg/db/models"
	"github.com/clinica-salud/pacientes-api/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDirAcceptsShippedMigrations(t *testing.T) {
	require.NoError(t, ValidateDir(embeddedDir))
}

func TestEmbeddedVersionsMatchDirectory(t *testing.T) {
	versions, err := EmbeddedVersions()
	require.NoError(t, err)

	files, err := filepath.Glob(filepath.Join(embeddedDir, "*.sql"))
	require.NoError(t, err)
	assert.Len(t, versions, len(files))

	for i := 1; i < len(versions); i++ {
		assert.Less(t, versions[i-1], versions[i], "versions must be strictly increasing")
	}
}

func TestValidateDirRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad-name.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	assert.Error(t, ValidateDir(dir))

	dir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20240101000000_no_down.sql"), []byte("-- +goose Up\n"), 0o644))
	err := ValidateDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "+goose Down")
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()

	path, err := CreateSQLMigration(dir, "Add Allergies To Patients!")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "_add_allergies_to_patients.sql"), path)
	require.NoError(t, ValidateDir(dir))

	_, err = CreateSQLMigration(dir, "!!!")
	assert.Error(t, err)
}

func newSQLiteClient(t *testing.T) *db.Client {
	t.Helper()
	client, err := db.New(context.Background(), config.DBConfig{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_")),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestMaybeRunAutoMigratesSQLite(t *testing.T) {
	client := newSQLiteClient(t)
	cfg := &config.Config{}
	cfg.FeatureFlags.AutoMigrate = true

	require.NoError(t, MaybeRun(context.Background(), cfg, logger.Nop(), client))

	migrator := client.DB().Migrator()
	for _, model := range models.All() {
		assert.True(t, migrator.HasTable(model), "expected table for %T", model)
	}
	assert.True(t, migrator.HasColumn(&models.Consultation{}, "clinical_note"))
	assert.True(t, migrator.HasColumn(&models.Consultation{}, "hba1c"))
	assert.True(t, migrator.HasColumn(&models.Patient{}, "attending_physician"))
}

func TestMaybeRunDisabledIsNoop(t *testing.T) {
	client := newSQLiteClient(t)
	cfg := &config.Config{}

	require.NoError(t, MaybeRun(context.Background(), cfg, logger.Nop(), client))
	assert.False(t, client.DB().Migrator().HasTable(&models.User{}))
}

func TestCreateSQLMigrationStaysAfterNewestChange(t *testing.T) {
	dir := t.TempDir()
	future := "29990101000059_from_the_future.sql"
	require.NoError(t, os.WriteFile(filepath.Join(dir, future), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))

	path, err := CreateSQLMigration(dir, "next change")
	require.NoError(t, err)
	assert.Equal(t, "29990101000100_next_change.sql", filepath.Base(path))

	changes, err := ReadChanges(os.DirFS(dir), ".")
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, "from_the_future", changes[0].Name)
	assert.Equal(t, "next_change", changes[1].Name)
}

func TestReadChangesRejectsDownBeforeUp(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20240101000000_swapped.sql"), []byte("-- +goose Down\n-- +goose Up\n"), 0o644))
	_, err := ReadChanges(os.DirFS(dir), ".")
	assert.ErrorContains(t, err, "Down before Up")
}

func TestEmbeddedChangesDescribeTheSchemaLog(t *testing.T) {
	changes, err := EmbeddedChanges()
	require.NoError(t, err)
	require.NotEmpty(t, changes)

	assert.Equal(t, "create_users_table", changes[0].Name)
	assert.Equal(t, int64(20240301090000), changes[0].Version)
	assert.Equal(t, "add_private_flag_and_attending_physician", changes[len(changes)-1].Name)
}

func TestSourceEmbeddedIgnoresDir(t *testing.T) {
	embeddedSource := Source{Dir: filepath.Join(t.TempDir(), "missing"), Embedded: true}

	changes, err := embeddedSource.Changes()
	require.NoError(t, err)
	want, err := EmbeddedChanges()
	require.NoError(t, err)
	assert.Equal(t, want, changes)

	// the target is resolved against the embedded log, so only the missing
	// connection is reported
	err = embeddedSource.MigrateTo(context.Background(), nil, "20240301090000")
	assert.ErrorContains(t, err, "db is required")

	err = embeddedSource.MigrateTo(context.Background(), nil, "20990101000000")
	assert.ErrorContains(t, err, "not in the schema log")

	_, err = Source{Dir: embeddedSource.Dir}.Changes()
	assert.Error(t, err)
}

func TestSourceMigrateToRejectsMalformedVersion(t *testing.T) {
	err := Source{Embedded: true}.MigrateTo(context.Background(), nil, "ayer")
	assert.ErrorContains(t, err, "invalid version")
}
