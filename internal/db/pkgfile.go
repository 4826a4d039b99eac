package db

import (
	"archive/tar"
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/frederic-klein/pkgquery/internal/pkg"
)

const pkginfoName = ".PKGINFO"

// LoadFile reads the metadata of a package archive
// ("bash-5.1.016-1-x86_64.pkg.tar.zst").
func LoadFile(path string) (*pkg.Package, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("opening package: %w", err)
	}

	p := &pkg.Package{
		Filename:     filepath.Base(path),
		DownloadSize: info.Size(),
		Origin:       pkg.KindFile,
	}
	found := false
	err = walkArchive(path, func(hdr *tar.Header, r io.Reader) error {
		name := strings.TrimPrefix(hdr.Name, "./")
		if name == pkginfoName {
			found = true
			return parsePKGINFO(r, p)
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		if hdr.Typeflag == tar.TypeDir && !strings.HasSuffix(name, "/") {
			name += "/"
		}
		p.Files = append(p.Files, name)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading package %s: %w", path, err)
	}
	if !found || p.Name == "" {
		return nil, fmt.Errorf("no %s found in %s", pkginfoName, path)
	}
	return p, nil
}

// parsePKGINFO reads "key = value" lines as written by makepkg.
func parsePKGINFO(r io.Reader, p *pkg.Package) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "pkgname":
			p.Name = value
		case "pkgbase":
			p.Base = value
		case "pkgver":
			p.Version = value
		case "pkgdesc":
			p.Description = value
		case "url":
			p.URL = value
		case "arch":
			p.Arch = value
		case "packager":
			p.Packager = value
		case "builddate":
			p.BuildDate = parseTime(value)
		case "size":
			p.InstalledSize = parseInt(value)
		case "license":
			p.Licenses = append(p.Licenses, value)
		case "group":
			p.Groups = append(p.Groups, value)
		case "depend":
			p.Depends = append(p.Depends, pkg.ParseDepend(value))
		case "optdepend":
			p.OptDepends = append(p.OptDepends, value)
		case "conflict":
			p.Conflicts = append(p.Conflicts, value)
		case "provides":
			p.Provides = append(p.Provides, value)
		case "replaces":
			p.Replaces = append(p.Replaces, value)
		case "backup":
			p.Backup = append(p.Backup, value)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", pkginfoName, err)
	}
	return nil
}
