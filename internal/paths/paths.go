// Package paths resolves the application data directory layout: the SQLite
// database, the settings file, and the per-project snapshot directories.
package paths

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// EnvDataDir overrides the application data directory when set. Tests and
// portable installs use it.
const EnvDataDir = "KINDLING_DATA_DIR"

// DataDir returns the application data directory, creating it if needed.
func DataDir() (string, error) {
	dir := os.Getenv(EnvDataDir)
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("resolving user config dir: %w", err)
		}
		dir = filepath.Join(base, "kindling")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating data dir %s: %w", dir, err)
	}
	return dir, nil
}

// DatabasePath returns the path of the SQLite database file.
func DatabasePath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "kindling.db"), nil
}

// SettingsPath returns the path of the settings JSON file.
func SettingsPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "settings.json"), nil
}

// SnapshotDir returns the snapshot directory for a project, creating it on
// demand.
func SnapshotDir(projectID uuid.UUID) (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	snapDir := filepath.Join(dir, "snapshots", projectID.String())
	if err := os.MkdirAll(snapDir, 0755); err != nil {
		return "", fmt.Errorf("creating snapshot dir %s: %w", snapDir, err)
	}
	return snapDir, nil
}
