package db

import (
	"archive/tar"
	"fmt"
	"io"
	"strings"

	"github.com/frederic-klein/pkgquery/internal/pkg"
)

// LoadSync reads a repository database archive ("core.db"). Every regular
// file below "<name>-<version>/" contributes to that entry's record.
func LoadSync(name, path string, servers []string) (*DB, error) {
	records := make(map[string]*pkg.Package)
	var order []string

	err := walkArchive(path, func(hdr *tar.Header, r io.Reader) error {
		if hdr.Typeflag != tar.TypeReg {
			return nil
		}
		entry, _, ok := strings.Cut(hdr.Name, "/")
		if !ok {
			return nil
		}
		p, seen := records[entry]
		if !seen {
			p = &pkg.Package{}
			records[entry] = p
			order = append(order, entry)
		}
		if err := parseDesc(r, p); err != nil {
			return fmt.Errorf("reading %s: %w", hdr.Name, err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading %s database: %w", name, err)
	}

	d := New(name, pkg.KindSync, servers)
	for _, entry := range order {
		if p := records[entry]; p.Name != "" {
			d.Add(p)
		}
	}
	d.Index()
	return d, nil
}
