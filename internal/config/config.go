package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/frederic-klein/pkgquery/internal/aur"
	"github.com/frederic-klein/pkgquery/internal/filter"
)

// Op is the operation a run performs on each source.
type Op int

const (
	OpNone Op = iota
	OpInfo
	OpInfoProvides // info, falling back to a provides query
	OpSearch
	OpListRepo
	OpListRepoSearch // search without terms: list with descriptions
	OpListGroup
	OpQuery // relation query, see Query
)

// QueryKind selects the relation a relation query walks.
type QueryKind int

const (
	QueryDepends QueryKind = iota
	QueryConflicts
	QueryProvides
	QueryReplaces
	QueryRequires
)

var queryNames = map[string]QueryKind{
	"depends":   QueryDepends,
	"conflicts": QueryConflicts,
	"provides":  QueryProvides,
	"replaces":  QueryReplaces,
	"requires":  QueryRequires,
}

// ParseQueryKind maps a --query-type argument to its kind.
func ParseQueryKind(s string) (QueryKind, error) {
	k, ok := queryNames[s]
	if !ok {
		return 0, fmt.Errorf("unknown query type %q", s)
	}
	return k, nil
}

func (k QueryKind) String() string {
	for name, v := range queryNames {
		if v == k {
			return name
		}
	}
	return "unknown"
}

// SortKey orders deferred results. SortNone renders immediately.
type SortKey byte

const (
	SortNone        SortKey = 0
	SortName        SortKey = 'n'
	SortVotes       SortKey = 'w'
	SortInstallDate SortKey = '1'
	SortSize        SortKey = '2'
)

// ParseSortKey reads the first character of a --sort argument.
func ParseSortKey(s string) (SortKey, error) {
	if s == "" {
		return SortNone, nil
	}
	switch k := SortKey(s[0]); k {
	case SortName, SortVotes, SortInstallDate, SortSize:
		return k, nil
	}
	return SortNone, fmt.Errorf("unknown sort key %q (want n, w, 1 or 2)", s)
}

// Config is the read-only configuration of one run. It is built once by the
// command and passed by value to every component.
type Config struct {
	Op      Op
	Query   QueryKind
	Filter  filter.Mask
	Sort    SortKey
	JustOne bool

	Format    string // output template, empty for the colored display
	Escape    bool
	Quiet     bool
	Color     bool
	Numbering bool
	ShowSize  bool
	CSep      string

	AURURL   string
	Insecure bool

	Root       string
	DBPath     string
	ConfigFile string

	ListGroup  bool // print group names only
	AURForeign bool // -AQm display
	GetRes     bool // echo repo/name on fd 3
}

// Default returns the configuration used before settings and flags apply.
func Default() Config {
	return Config{
		Color:      true,
		CSep:       " ",
		AURURL:     aur.DefaultURL,
		Root:       "/",
		DBPath:     "/var/lib/pacman",
		ConfigFile: "/etc/pacman.conf",
	}
}

// Settings mirrors the optional YAML settings file. Unset keys keep the
// defaults.
type Settings struct {
	AURURL   *string `yaml:"aur_url"`
	Color    *bool   `yaml:"color"`
	CSep     *string `yaml:"csep"`
	Sort     *string `yaml:"sort"`
	ShowSize *bool   `yaml:"show_size"`
	Insecure *bool   `yaml:"insecure"`
	Root     *string `yaml:"root"`
	DBPath   *string `yaml:"dbpath"`
	Config   *string `yaml:"config"`
}

// SettingsPath returns $XDG_CONFIG_HOME/pkgquery/config.yaml, falling back
// to ~/.config.
func SettingsPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "pkgquery", "config.yaml")
}

// LoadSettings applies the settings file at path on top of base. A missing
// file leaves base unchanged.
func LoadSettings(base Config, path string) (Config, error) {
	if path == "" {
		return base, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return base, nil
	}
	if err != nil {
		return base, fmt.Errorf("reading settings: %w", err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return base, fmt.Errorf("parsing settings %s: %w", path, err)
	}

	c := base
	if s.AURURL != nil {
		c.AURURL = *s.AURURL
	}
	if s.Color != nil {
		c.Color = *s.Color
	}
	if s.CSep != nil {
		c.CSep = Unescape(*s.CSep)
	}
	if s.Sort != nil {
		k, err := ParseSortKey(*s.Sort)
		if err != nil {
			return base, fmt.Errorf("settings %s: %w", path, err)
		}
		c.Sort = k
	}
	if s.ShowSize != nil {
		c.ShowSize = *s.ShowSize
	}
	if s.Insecure != nil {
		c.Insecure = *s.Insecure
	}
	if s.Root != nil {
		c.Root = *s.Root
	}
	if s.DBPath != nil {
		c.DBPath = *s.DBPath
	}
	if s.Config != nil {
		c.ConfigFile = *s.Config
	}
	return c, nil
}

// Unescape expands \\, \e, \n, \r and \t. Other backslashes are kept.
func Unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		switch s[i+1] {
		case '\\':
			b.WriteByte('\\')
		case 'e':
			b.WriteByte('\033')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		default:
			b.WriteByte('\\')
			continue
		}
		i++
	}
	return b.String()
}
