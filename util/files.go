package util

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alanbriolat/media-fetcher/generic"
)

var (
	ErrNoFiles = errors.New("no files found")
)

// Extensions of files that an external downloader leaves behind mid-transfer; never a finished artifact.
var partialExtensions = generic.NewSet(".part", ".ytdl", ".temp", ".tmp")

// Extensions of side-files written next to a download, which are never the download itself.
var sideFileExtensions = generic.NewSet(".vtt", ".srt", ".ass", ".lrc", ".json", ".description")

func FileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// IsArtifact reports whether path looks like a finished download rather than a partial or side-file.
func IsArtifact(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return !partialExtensions.Contains(ext) && !sideFileExtensions.Contains(ext)
}

// NewestFile returns the most recently modified artifact in dir (non-recursive). If extensions are supplied, only files
// with one of those (lowercase, dotted) extensions are considered.
func NewestFile(dir string, extensions ...string) (string, error) {
	allowed := generic.NewSet(extensions...)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	var newest string
	var newestTime time.Time
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if len(extensions) > 0 && !allowed.Contains(ext) {
			continue
		}
		if !IsArtifact(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if errors.Is(err, fs.ErrNotExist) {
			continue
		} else if err != nil {
			return "", err
		}
		if newest == "" || info.ModTime().After(newestTime) {
			newest = filepath.Join(dir, entry.Name())
			newestTime = info.ModTime()
		}
	}
	if newest == "" {
		return "", fmt.Errorf("%w in %s", ErrNoFiles, dir)
	}
	return newest, nil
}

// TitleFromPath gives a display title for a downloaded file: its base name without extension.
func TitleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// HumanSize formats a byte count with binary multiples, e.g. "12.3 MB".
func HumanSize(n float64) string {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return "?"
	}
	for _, unit := range []string{"B", "KB", "MB", "GB", "TB"} {
		if math.Abs(n) < 1024.0 {
			return fmt.Sprintf("%.1f %s", n, unit)
		}
		n /= 1024.0
	}
	return fmt.Sprintf("%.1f PB", n)
}

// HomeDownloadsDir returns ~/Downloads, or "." if there is no usable home directory.
func HomeDownloadsDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, "Downloads")
}

// WriteFileAtomic writes data to a temporary file in the same directory and renames it over path, so that readers
// never see a partially written file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(f.Name())
		}
	}()
	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	if err = os.Chmod(f.Name(), perm); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}
