package pipeline

import (
	"os"
	"path/filepath"
)

// DataDir returns the XDG-compliant data directory.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "resplan")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "resplan")
}

// DBPath returns the full path to the default database.
func DBPath() string {
	return filepath.Join(DataDir(), "resplan.db")
}
