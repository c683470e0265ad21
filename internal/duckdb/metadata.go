package duckdb

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/zeebo/xxh3"
)

// FileFingerprint identifies a source file by absolute path, size and
// modification time.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile fingerprints an on-disk file. Path is made absolute so the same
// file reached through different relative paths has one fingerprint.
func StatFile(path string) (FileFingerprint, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return FileFingerprint{}, fmt.Errorf("resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    abs,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// CacheName returns a directory name unique to the file's path, so files
// sharing a base name in different directories get separate caches.
func (fp FileFingerprint) CacheName() string {
	return fmt.Sprintf("%s-%016x", filepath.Base(fp.Path), xxh3.HashString(fp.Path))
}

// metaFields returns the key/value pairs recorded for a fingerprint.
func (fp FileFingerprint) metaFields() [][2]string {
	return [][2]string{
		{"source_path", fp.Path},
		{"source_size", strconv.FormatInt(fp.Size, 10)},
		{"source_modtime", fp.ModTime.UTC().Format(time.RFC3339Nano)},
	}
}
