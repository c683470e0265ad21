package duckdb

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/inodb/gapmap/internal/alignment"
)

// RecordCache manages gob-serialized alignment records on disk, so a large
// alignment file only needs to be parsed once:
//
//	{dir}/records.gob       (serialized records in file order)
//	{dir}/records.gob.meta  (source path, size, mtime and sequence prefix)
type RecordCache struct {
	dir string
}

// NewRecordCache creates a record cache for the given directory.
func NewRecordCache(dir string) *RecordCache {
	return &RecordCache{dir: dir}
}

// RecordCacheFor returns the cache for a source file under root, in a
// directory named after the file's fingerprinted path.
func RecordCacheFor(root string, source FileFingerprint) *RecordCache {
	return NewRecordCache(filepath.Join(root, source.CacheName()))
}

// Dir returns the cache directory.
func (rc *RecordCache) Dir() string {
	return rc.dir
}

func (rc *RecordCache) gobPath() string {
	return filepath.Join(rc.dir, "records.gob")
}

func (rc *RecordCache) metaPath() string {
	return filepath.Join(rc.dir, "records.gob.meta")
}

// Valid checks whether the cached records were built from the same source
// file with the same sequence prefix.
func (rc *RecordCache) Valid(source FileFingerprint, prefix string) bool {
	meta, err := rc.readMeta()
	if err != nil {
		return false
	}

	for _, kv := range source.metaFields() {
		if meta[kv[0]] != kv[1] {
			return false
		}
	}
	if meta["prefix"] != prefix {
		return false
	}

	if _, err := os.Stat(rc.gobPath()); err != nil {
		return false
	}
	return true
}

// Load reads the cached records into a new index filtered by prefix.
func (rc *RecordCache) Load(prefix string) (*alignment.Index, error) {
	f, err := os.Open(rc.gobPath())
	if err != nil {
		return nil, fmt.Errorf("open record cache: %w", err)
	}
	defer f.Close()

	var records []*alignment.Record
	if err := gob.NewDecoder(f).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode record cache: %w", err)
	}

	idx := alignment.NewIndex(prefix)
	for _, r := range records {
		if _, err := idx.Add(r); err != nil {
			return nil, fmt.Errorf("rebuild index: %w", err)
		}
	}
	return idx, nil
}

// Write serializes all indexed records to disk.
func (rc *RecordCache) Write(idx *alignment.Index, source FileFingerprint) error {
	if err := os.MkdirAll(rc.dir, 0755); err != nil {
		return fmt.Errorf("create record cache directory: %w", err)
	}

	f, err := os.Create(rc.gobPath())
	if err != nil {
		return fmt.Errorf("create record cache: %w", err)
	}

	if err := gob.NewEncoder(f).Encode(idx.All()); err != nil {
		f.Close()
		os.Remove(rc.gobPath())
		return fmt.Errorf("encode record cache: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close record cache: %w", err)
	}

	return rc.writeMeta(source, idx.Prefix())
}

// Clear removes the cached record files.
func (rc *RecordCache) Clear() {
	os.Remove(rc.gobPath())
	os.Remove(rc.metaPath())
}

func (rc *RecordCache) writeMeta(source FileFingerprint, prefix string) error {
	var lines []string
	for _, kv := range source.metaFields() {
		lines = append(lines, kv[0]+"="+kv[1])
	}
	lines = append(lines,
		"prefix="+prefix,
		"created_at="+time.Now().UTC().Format(time.RFC3339),
		"",
	)
	return os.WriteFile(rc.metaPath(), []byte(strings.Join(lines, "\n")), 0644)
}

func (rc *RecordCache) readMeta() (map[string]string, error) {
	data, err := os.ReadFile(rc.metaPath())
	if err != nil {
		return nil, err
	}

	meta := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		if k, v, ok := strings.Cut(line, "="); ok {
			meta[k] = v
		}
	}
	return meta, nil
}
