package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SessionFilePrefix starts the name of every session log file.
const SessionFilePrefix = "lazynote"

// OpenSession prunes old session logs in dir and opens a new one for this process.
//
// dir must be an absolute path; it is created when missing. The returned LogData owns the
// file and must be closed by the caller.
func OpenSession(dir, level string, now time.Time) (*LogData, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("log directory must not be empty")
	}
	if !filepath.IsAbs(dir) {
		return nil, fmt.Errorf("log directory must be absolute: %q", dir)
	}
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	summary, pruneErr := PruneLogs(dir, DefaultRetention, now)

	name := SessionFileName(os.Getpid(), now)
	logData, err := New().FromPath(filepath.Join(dir, name)).Level(lvl).Make()
	if err != nil {
		return nil, fmt.Errorf("failed to open session log: %w", err)
	}

	ev := logData.Logger.Info().
		Str("event", "core_init").
		Str("module", "logging").
		Str("status", "ok").
		Str("log_dir", dir).
		Str("level", lvl.String()).
		Int("retention_scanned", summary.Scanned).
		Int("retention_removed", summary.Removed).
		Int("retention_failed", summary.Failed)
	if pruneErr != nil {
		ev = ev.AnErr("retention_error", pruneErr)
	}
	ev.Send()

	return logData, nil
}

// SessionFileName is the log file name of the process with the given pid started at now.
func SessionFileName(pid int, now time.Time) string {
	return fmt.Sprintf("%s-pid%d-%s.log", SessionFilePrefix, pid, now.UTC().Format("20060102-150405"))
}
