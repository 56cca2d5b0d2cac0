package profile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDir(t *testing.T) {
	home, _ := os.UserHomeDir()
	got := Dir("main")
	want := filepath.Join(home, ".rentchat", "profiles", "main")
	if got != want {
		t.Errorf("Dir(main) = %q, want %q", got, want)
	}
}

func TestCacheDBPath(t *testing.T) {
	got := CacheDBPath("test")
	if !strings.HasSuffix(got, filepath.Join("profiles", "test", "cache.db")) {
		t.Errorf("CacheDBPath(test) = %q, want suffix profiles/test/cache.db", got)
	}
}

func TestLockPath(t *testing.T) {
	got := LockPath("test")
	if !strings.HasSuffix(got, filepath.Join("profiles", "test", "LOCK")) {
		t.Errorf("LockPath(test) = %q, want suffix profiles/test/LOCK", got)
	}
}

func TestLogPaths(t *testing.T) {
	if got := DaemonLogPath("p"); !strings.HasSuffix(got, filepath.Join("logs", "rentchatd.log")) {
		t.Errorf("DaemonLogPath(p) = %q", got)
	}
	if got := TUILogPath("p"); !strings.HasSuffix(got, filepath.Join("logs", "rentchattui.log")) {
		t.Errorf("TUILogPath(p) = %q", got)
	}
}
