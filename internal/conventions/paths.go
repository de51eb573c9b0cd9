// Package conventions centralizes the on-disk layout of the taskpilot data
// directory.
package conventions

import "path/filepath"

const (
	// DefaultDataDir is the default taskpilot data directory name (relative to home).
	DefaultDataDir = ".taskpilot"
	// DBFile is the SQLite database filename inside the data directory.
	DBFile = "taskpilot.db"
	// SessionsDir is the subdirectory holding per-session workspaces.
	SessionsDir = "sessions"
	// SessionTempDir is the temp subdirectory inside a session workspace.
	SessionTempDir = "tmp"
	// ConfigFile is the YAML configuration filename inside the data directory.
	ConfigFile = "config.yaml"
)

// DBPath returns the path of the SQLite database file.
func DBPath(dataDir string) string {
	return filepath.Join(dataDir, DBFile)
}

// ConfigPath returns the path of the YAML configuration file.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, ConfigFile)
}

// SessionDir returns the working directory for a specific session.
func SessionDir(dataDir, sessionID string) string {
	return filepath.Join(dataDir, SessionsDir, sessionID)
}

// SessionTempPath returns the temp directory inside a session workspace.
func SessionTempPath(dataDir, sessionID string) string {
	return filepath.Join(SessionDir(dataDir, sessionID), SessionTempDir)
}
