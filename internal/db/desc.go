package db

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/frederic-klein/pkgquery/internal/pkg"
)

var sectionRe = regexp.MustCompile(`^%([A-Z0-9]+)%$`)

// parseDesc reads a pacman database entry file ("desc", "files", "depends")
// into p. Entries are a %SECTION% header followed by one value per line,
// terminated by an empty line.
func parseDesc(r io.Reader, p *pkg.Package) error {
	var section string
	var values []string

	flush := func() {
		if section != "" {
			applySection(p, section, values)
		}
		section = ""
		values = nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		if line == "" {
			flush()
			continue
		}

		if matches := sectionRe.FindStringSubmatch(line); matches != nil && section == "" {
			section = matches[1]
			continue
		}

		if section != "" {
			values = append(values, line)
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading desc: %w", err)
	}
	return nil
}

func applySection(p *pkg.Package, section string, values []string) {
	first := ""
	if len(values) > 0 {
		first = values[0]
	}

	switch section {
	case "NAME":
		p.Name = first
	case "VERSION":
		p.Version = first
	case "BASE":
		p.Base = first
	case "DESC":
		p.Description = first
	case "URL":
		p.URL = first
	case "ARCH":
		p.Arch = first
	case "FILENAME":
		p.Filename = first
	case "PACKAGER":
		p.Packager = first
	case "LICENSE":
		p.Licenses = append(p.Licenses, values...)
	case "GROUPS":
		p.Groups = append(p.Groups, values...)
	case "DEPENDS":
		for _, v := range values {
			p.Depends = append(p.Depends, pkg.ParseDepend(v))
		}
	case "OPTDEPENDS":
		p.OptDepends = append(p.OptDepends, values...)
	case "CONFLICTS":
		p.Conflicts = append(p.Conflicts, values...)
	case "PROVIDES":
		p.Provides = append(p.Provides, values...)
	case "REPLACES":
		p.Replaces = append(p.Replaces, values...)
	case "CSIZE":
		p.DownloadSize = parseInt(first)
	case "ISIZE", "SIZE":
		p.InstalledSize = parseInt(first)
	case "BUILDDATE":
		p.BuildDate = parseTime(first)
	case "INSTALLDATE":
		p.InstallDate = parseTime(first)
	case "REASON":
		if first == "1" {
			p.Reason = pkg.ReasonDepend
		}
	case "FILES":
		p.Files = append(p.Files, values...)
	case "BACKUP":
		for _, v := range values {
			// "etc/bash.bashrc\t<md5>"
			path, _, _ := strings.Cut(v, "\t")
			p.Backup = append(p.Backup, path)
		}
	}
}

func parseInt(s string) int64 {
	n, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return n
}

func parseTime(s string) time.Time {
	n := parseInt(s)
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(n, 0)
}
