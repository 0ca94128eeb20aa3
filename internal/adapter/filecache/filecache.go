// Package filecache persists source tables as CSV under the data
// directory so repeated runs skip the network.
package filecache

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cafedata/coffee-footprint-etl/internal/domain"
)

// Exists reports whether a cached file is present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Read loads a cached table. The first record is the header.
func Read(path string) (*domain.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening cache %s: %w", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading cache %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("cache %s is empty", path)
	}
	return &domain.Table{Columns: records[0], Rows: records[1:]}, nil
}

// Write stores a table at path. The write goes through a temp file in the
// same directory and a rename, so readers never observe a partial file.
func Write(path string, t *domain.Table) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating cache dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(t.Columns); err != nil {
		tmp.Close()
		return fmt.Errorf("writing cache header: %w", err)
	}
	if err := w.WriteAll(t.Rows); err != nil {
		tmp.Close()
		return fmt.Errorf("writing cache rows: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flushing cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing cache %s: %w", path, err)
	}
	return nil
}
