package logger

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// RetentionPolicy bounds the session logs kept in a directory.
type RetentionPolicy struct {
	MaxAge        time.Duration
	MaxFiles      int
	MaxTotalBytes int64
}

var DefaultRetention = RetentionPolicy{
	MaxAge:        7 * 24 * time.Hour,
	MaxFiles:      20,
	MaxTotalBytes: 50 * 1024 * 1024,
}

type RetentionSummary struct {
	Scanned  int
	Removed  int
	Retained int
	Failed   int
}

type logFile struct {
	path    string
	modTime time.Time
	size    int64
}

// PruneLogs removes session logs in dir that violate policy.
//
// Files older than MaxAge go first. The survivors are kept newest first up to MaxFiles. Each
// further file is kept only if it still fits in MaxTotalBytes, so a small old file can stay
// after a larger newer one was dropped. The newest survivor is always kept, however large. A
// file that cannot be inspected or removed is counted as Failed and left alone.
func PruneLogs(dir string, policy RetentionPolicy, now time.Time) (RetentionSummary, error) {
	var summary RetentionSummary

	names, err := doublestar.Glob(os.DirFS(dir), SessionFilePrefix+"*.log")
	if err != nil {
		return summary, err
	}

	files := make([]logFile, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			summary.Failed++
			continue
		}
		summary.Scanned++
		files = append(files, logFile{path: path, modTime: info.ModTime(), size: info.Size()})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].modTime.Equal(files[j].modTime) {
			return files[i].path > files[j].path
		}
		return files[i].modTime.After(files[j].modTime)
	})

	var total int64
	kept := 0
	for _, f := range files {
		expired := policy.MaxAge > 0 && now.Sub(f.modTime) > policy.MaxAge
		tooMany := policy.MaxFiles > 0 && kept >= policy.MaxFiles
		tooLarge := policy.MaxTotalBytes > 0 && kept > 0 && total+f.size > policy.MaxTotalBytes
		if !expired && !tooMany && !tooLarge {
			kept++
			total += f.size
			continue
		}
		if err := os.Remove(f.path); err != nil {
			summary.Failed++
			kept++
			continue
		}
		summary.Removed++
	}
	summary.Retained = kept
	return summary, nil
}
