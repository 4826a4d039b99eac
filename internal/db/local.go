package db

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/frederic-klein/pkgquery/internal/pkg"
)

// LocalName is the name of the installed-package database.
const LocalName = "local"

// LoadLocal reads the installed-package database rooted at dir, where each
// package lives in "<name>-<version>/" holding "desc" and "files".
func LoadLocal(dir string) (*DB, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("opening local database: %w", err)
	}

	d := New(LocalName, pkg.KindLocal, nil)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		p := &pkg.Package{}
		entryDir := filepath.Join(dir, entry.Name())
		for _, name := range []string{"desc", "files"} {
			if err := parseFile(filepath.Join(entryDir, name), p); err != nil {
				return nil, fmt.Errorf("reading %s: %w", entry.Name(), err)
			}
		}
		if p.Name == "" {
			continue
		}
		d.Add(p)
	}
	d.Index()
	return d, nil
}

func parseFile(path string, p *pkg.Package) error {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer file.Close()
	return parseDesc(file, p)
}
