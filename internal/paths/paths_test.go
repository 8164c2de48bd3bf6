package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func TestDataDirOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvDataDir, dir)

	got, err := DataDir()
	if err != nil {
		t.Fatalf("DataDir: %v", err)
	}
	if got != dir {
		t.Errorf("DataDir = %q, want %q", got, dir)
	}
}

func TestDatabaseAndSettingsPaths(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvDataDir, dir)

	db, err := DatabasePath()
	if err != nil {
		t.Fatal(err)
	}
	if db != filepath.Join(dir, "kindling.db") {
		t.Errorf("DatabasePath = %q", db)
	}

	settings, err := SettingsPath()
	if err != nil {
		t.Fatal(err)
	}
	if settings != filepath.Join(dir, "settings.json") {
		t.Errorf("SettingsPath = %q", settings)
	}
}

func TestSnapshotDirCreated(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvDataDir, dir)

	id := uuid.New()
	snapDir, err := SnapshotDir(id)
	if err != nil {
		t.Fatal(err)
	}
	if snapDir != filepath.Join(dir, "snapshots", id.String()) {
		t.Errorf("SnapshotDir = %q", snapDir)
	}
	info, err := os.Stat(snapDir)
	if err != nil || !info.IsDir() {
		t.Error("snapshot dir should exist")
	}
}
