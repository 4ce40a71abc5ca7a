package logmux

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// rotatingFileSink rotates by size. When the current file would exceed
// maxBytes, it is closed and shifted through the name.1…name.N backup chain,
// discarding the oldest backup beyond backupCount.
type rotatingFileSink struct {
	path        string
	maxBytes    int64
	backupCount int
	file        *os.File
	size        int64
}

func newRotatingFileSink(path string, maxBytes int64, backupCount int) (*rotatingFileSink, error) {
	file, err := openLogFile(path, false)
	if err != nil {
		return nil, err
	}

	s := &rotatingFileSink{
		path:        path,
		maxBytes:    maxBytes,
		backupCount: backupCount,
		file:        file,
	}
	if fi, err := file.Stat(); err == nil {
		s.size = fi.Size()
	}
	return s, nil
}

func (s *rotatingFileSink) Write(p []byte) (int, error) {
	if s.maxBytes > 0 && s.size > 0 && s.size+int64(len(p)) > s.maxBytes {
		if err := s.rollover(); err != nil {
			return 0, err
		}
	}

	n, err := s.file.Write(p)
	s.size += int64(n)
	return n, err
}

// rollover shifts the backup chain and reopens a fresh current file.
func (s *rotatingFileSink) rollover() error {
	if err := s.file.Close(); err != nil {
		return fmtErrorf("failed to close '%s' before rotation: %w", s.path, err)
	}

	if s.backupCount > 0 {
		oldest := backupName(s.path, s.backupCount)
		if _, err := os.Stat(oldest); err == nil {
			if err := os.Remove(oldest); err != nil {
				return fmtErrorf("failed to remove oldest backup '%s': %w", oldest, err)
			}
		}
		for i := s.backupCount - 1; i >= 1; i-- {
			src := backupName(s.path, i)
			if _, err := os.Stat(src); err != nil {
				continue
			}
			if err := os.Rename(src, backupName(s.path, i+1)); err != nil {
				return fmtErrorf("failed to shift backup '%s': %w", src, err)
			}
		}
		if err := os.Rename(s.path, backupName(s.path, 1)); err != nil {
			return fmtErrorf("failed to archive '%s': %w", s.path, err)
		}
	}

	file, err := openLogFile(s.path, true)
	if err != nil {
		return err
	}
	s.file = file
	s.size = 0
	return nil
}

func (s *rotatingFileSink) Close() error {
	if err := s.file.Sync(); err != nil {
		_ = s.file.Close()
		return err
	}
	return s.file.Close()
}

func backupName(path string, n int) string {
	return path + "." + strconv.Itoa(n)
}

// timedRotatingFileSink rotates when a time boundary is crossed. The closed
// file is renamed with a timestamp suffix naming the interval it covers, and
// suffixed backups beyond backupCount are pruned.
type timedRotatingFileSink struct {
	path         string
	interval     time.Duration
	backupCount  int
	suffixLayout string
	file         *os.File
	rolloverAt   time.Time
}

func newTimedRotatingFileSink(path, when string, interval, backupCount int) (*timedRotatingFileSink, error) {
	if interval <= 0 {
		interval = 1
	}

	unit, suffixLayout, err := rotationUnit(when)
	if err != nil {
		return nil, err
	}
	intervalDur := unit * time.Duration(interval)

	file, err := openLogFile(path, false)
	if err != nil {
		return nil, err
	}

	s := &timedRotatingFileSink{
		path:         path,
		interval:     intervalDur,
		backupCount:  backupCount,
		suffixLayout: suffixLayout,
		file:         file,
	}
	s.rolloverAt = nextRollover(time.Now(), when, intervalDur)
	return s, nil
}

// rotationUnit maps a rotation boundary name to its base duration and the
// suffix layout of archived files.
func rotationUnit(when string) (time.Duration, string, error) {
	switch strings.ToUpper(strings.TrimSpace(when)) {
	case "S":
		return time.Second, "2006-01-02_15-04-05", nil
	case "M":
		return time.Minute, "2006-01-02_15-04", nil
	case "H":
		return time.Hour, "2006-01-02_15", nil
	case "D":
		return 24 * time.Hour, "2006-01-02", nil
	case "", "MIDNIGHT":
		return 24 * time.Hour, "2006-01-02", nil
	default:
		return 0, "", fmtErrorf("invalid rotation boundary '%s' (use S, M, H, D, or midnight)", when)
	}
}

// nextRollover computes the first boundary after now. Midnight rotation
// aligns to the next local midnight; the other units measure from now.
func nextRollover(now time.Time, when string, interval time.Duration) time.Time {
	if strings.EqualFold(strings.TrimSpace(when), "midnight") || strings.TrimSpace(when) == "" {
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()).Add(24 * time.Hour)
	}
	return now.Add(interval)
}

func (s *timedRotatingFileSink) Write(p []byte) (int, error) {
	if now := time.Now(); !now.Before(s.rolloverAt) {
		if err := s.rollover(now); err != nil {
			return 0, err
		}
	}
	return s.file.Write(p)
}

// rollover archives the current file under the suffix of the interval it
// covered and opens a fresh one.
func (s *timedRotatingFileSink) rollover(now time.Time) error {
	if err := s.file.Close(); err != nil {
		return fmtErrorf("failed to close '%s' before rotation: %w", s.path, err)
	}

	suffix := s.rolloverAt.Add(-s.interval).Format(s.suffixLayout)
	archive := s.path + "." + suffix
	if _, err := os.Stat(archive); err == nil {
		if err := os.Remove(archive); err != nil {
			return fmtErrorf("failed to remove stale archive '%s': %w", archive, err)
		}
	}
	if err := os.Rename(s.path, archive); err != nil {
		return fmtErrorf("failed to archive '%s': %w", s.path, err)
	}

	s.pruneBackups()

	file, err := openLogFile(s.path, true)
	if err != nil {
		return err
	}
	s.file = file

	for !now.Before(s.rolloverAt) {
		s.rolloverAt = s.rolloverAt.Add(s.interval)
	}
	return nil
}

// pruneBackups deletes the oldest suffixed archives beyond backupCount.
// A backupCount of zero keeps everything.
func (s *timedRotatingFileSink) pruneBackups() {
	if s.backupCount <= 0 {
		return
	}

	dir := filepath.Dir(s.path)
	prefix := filepath.Base(s.path) + "."

	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	var archives []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		suffix := entry.Name()[len(prefix):]
		if _, err := time.ParseInLocation(s.suffixLayout, suffix, time.Local); err != nil {
			continue
		}
		archives = append(archives, entry.Name())
	}

	if len(archives) <= s.backupCount {
		return
	}
	// Suffix layouts sort lexically in time order.
	sort.Strings(archives)
	for _, name := range archives[:len(archives)-s.backupCount] {
		_ = os.Remove(filepath.Join(dir, name))
	}
}

func (s *timedRotatingFileSink) Close() error {
	if err := s.file.Sync(); err != nil {
		_ = s.file.Close()
		return err
	}
	return s.file.Close()
}
