package profile

import (
	"os"
	"path/filepath"
)

// BaseDir returns ~/.rentchat.
func BaseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".rentchat")
}

// Dir returns the profile-specific directory.
func Dir(name string) string {
	return filepath.Join(BaseDir(), "profiles", name)
}

// LockPath returns the lock file path for a profile.
func LockPath(name string) string {
	return filepath.Join(Dir(name), "LOCK")
}

// CacheDBPath returns the local message-cache database path.
func CacheDBPath(name string) string {
	return filepath.Join(Dir(name), "cache.db")
}

// LogDir returns the log directory for a profile.
func LogDir(name string) string {
	return filepath.Join(Dir(name), "logs")
}

// DaemonLogPath returns the sync daemon log file path.
func DaemonLogPath(name string) string {
	return filepath.Join(LogDir(name), "rentchatd.log")
}

// TUILogPath returns the interactive client log file path.
func TUILogPath(name string) string {
	return filepath.Join(LogDir(name), "rentchattui.log")
}

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// EnsureDir creates the profile directory tree with proper permissions.
func EnsureDir(name string) error {
	dirs := []string{
		Dir(name),
		LogDir(name),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
