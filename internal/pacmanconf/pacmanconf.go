package pacmanconf

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-ini/ini"
)

const maxIncludeDepth = 10

// Config is the subset of pacman.conf a query needs.
type Config struct {
	RootDir  string
	DBPath   string
	Arch     string
	ShowSize bool
	Repos    []Repo
}

// Repo is a configured repository and its mirrors, in file order.
type Repo struct {
	Name    string
	Servers []string
}

// RepoNames lists the configured repositories in file order.
func (c *Config) RepoNames() []string {
	names := make([]string, 0, len(c.Repos))
	for _, r := range c.Repos {
		names = append(names, r.Name)
	}
	return names
}

var loadOptions = ini.LoadOptions{
	AllowShadows:             true,
	AllowBooleanKeys:         true,
	SkipUnrecognizableLines:  true,
	SpaceBeforeInlineComment: true,
}

type parser struct {
	conf  *Config
	repos []*Repo
}

// Load parses a pacman.conf file, following Include directives, and
// expands $repo and $arch in server URLs.
func Load(path string) (*Config, error) {
	p := &parser{conf: &Config{}}
	if err := p.parseFile(path, nil, 0); err != nil {
		return nil, err
	}

	if p.conf.Arch == "" || p.conf.Arch == "auto" {
		p.conf.Arch = machineArch()
	}
	for _, r := range p.repos {
		for i, s := range r.Servers {
			s = strings.ReplaceAll(s, "$repo", r.Name)
			r.Servers[i] = strings.ReplaceAll(s, "$arch", p.conf.Arch)
		}
		p.conf.Repos = append(p.conf.Repos, *r)
	}
	return p.conf, nil
}

func (p *parser) parseFile(path string, current *Repo, depth int) error {
	if depth > maxIncludeDepth {
		return fmt.Errorf("including %s: too many nested includes", path)
	}

	f, err := ini.LoadSources(loadOptions, path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	for _, sec := range f.Sections() {
		repo := current
		inOptions := false
		switch name := sec.Name(); name {
		case ini.DefaultSection:
			// keys before the first header belong to the including section
		case "options":
			repo = nil
			inOptions = true
		default:
			repo = &Repo{Name: name}
			p.repos = append(p.repos, repo)
		}

		for _, key := range sec.Keys() {
			switch {
			case key.Name() == "Include":
				for _, pattern := range key.ValueWithShadows() {
					if err := p.include(pattern, repo, depth); err != nil {
						return err
					}
				}
			case key.Name() == "Server" && repo != nil:
				repo.Servers = append(repo.Servers, key.ValueWithShadows()...)
			case inOptions:
				p.option(key.Name(), key.Value())
			}
		}
	}
	return nil
}

func (p *parser) include(pattern string, repo *Repo, depth int) error {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return fmt.Errorf("bad include pattern %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return fmt.Errorf("include %s: no such file", pattern)
	}
	for _, m := range matches {
		if err := p.parseFile(m, repo, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) option(name, value string) {
	switch name {
	case "RootDir":
		p.conf.RootDir = value
	case "DBPath":
		p.conf.DBPath = value
	case "Architecture":
		if fields := strings.Fields(value); len(fields) > 0 {
			p.conf.Arch = fields[0]
		}
	case "ShowSize":
		p.conf.ShowSize = true
	}
}

// machineArch maps the Go architecture to the name pacman uses.
func machineArch() string {
	switch runtime.GOARCH {
	case "amd64":
		return "x86_64"
	case "386":
		return "i686"
	case "arm64":
		return "aarch64"
	case "arm":
		return "armv7h"
	case "riscv64":
		return "riscv64"
	default:
		return runtime.GOARCH
	}
}
