package db

import (
	"regexp"
	"sort"
	"strings"

	"github.com/frederic-klein/pkgquery/internal/pkg"
)

// DB is one package database: the local database, a sync repository, or the
// pseudo database holding package files read from disk.
type DB struct {
	name    string
	kind    pkg.Kind
	servers []string
	pkgs    []*pkg.Package
	byName  map[string]*pkg.Package
	groups  []*pkg.Group
	byGroup map[string]*pkg.Group
}

// New creates an empty database.
func New(name string, kind pkg.Kind, servers []string) *DB {
	return &DB{
		name:    name,
		kind:    kind,
		servers: servers,
		byName:  make(map[string]*pkg.Package),
		byGroup: make(map[string]*pkg.Group),
	}
}

// Add registers p in the database. A later record with the same name
// replaces the earlier one.
func (d *DB) Add(p *pkg.Package) {
	p.DB = d.name
	p.Origin = d.kind
	if old, ok := d.byName[p.Name]; ok {
		for i, q := range d.pkgs {
			if q == old {
				d.pkgs[i] = p
			}
		}
	} else {
		d.pkgs = append(d.pkgs, p)
	}
	d.byName[p.Name] = p
}

// Index sorts packages by name and builds the group table. Loaders call it
// once every record is in; hand-built databases call it after the last Add.
func (d *DB) Index() {
	sort.SliceStable(d.pkgs, func(i, j int) bool {
		return d.pkgs[i].Name < d.pkgs[j].Name
	})
	d.groups = nil
	d.byGroup = make(map[string]*pkg.Group)
	for _, p := range d.pkgs {
		for _, name := range p.Groups {
			g, ok := d.byGroup[name]
			if !ok {
				g = &pkg.Group{Name: name}
				d.byGroup[name] = g
				d.groups = append(d.groups, g)
			}
			g.Packages = append(g.Packages, p)
		}
	}
}

// Name returns the database name ("local" for the installed database).
func (d *DB) Name() string { return d.name }

// Kind returns the kind of records the database holds.
func (d *DB) Kind() pkg.Kind { return d.kind }

// Servers returns the configured mirror URLs.
func (d *DB) Servers() []string { return d.servers }

// Get looks up a package by exact name.
func (d *DB) Get(name string) *pkg.Package { return d.byName[name] }

// Packages returns every package in enumeration order.
func (d *DB) Packages() []*pkg.Package { return d.pkgs }

// Groups returns every group in first-seen order.
func (d *DB) Groups() []*pkg.Group { return d.groups }

// Group looks up a group by name.
func (d *DB) Group(name string) *pkg.Group { return d.byGroup[name] }

// Search returns packages matching every term. A term matches when it is
// found, as a case-insensitive regular expression, in the name, the
// description, or one of the provisions.
func (d *DB) Search(terms []string) []*pkg.Package {
	matchers := make([]func(string) bool, 0, len(terms))
	for _, term := range terms {
		matchers = append(matchers, termMatcher(term))
	}

	var res []*pkg.Package
	for _, p := range d.pkgs {
		if matchesAll(p, matchers) {
			res = append(res, p)
		}
	}
	return res
}

func matchesAll(p *pkg.Package, matchers []func(string) bool) bool {
	for _, match := range matchers {
		if match(p.Name) || match(p.Description) {
			continue
		}
		found := false
		for _, prov := range p.Provides {
			if match(pkg.ParseDepend(prov).Name) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func termMatcher(term string) func(string) bool {
	re, err := regexp.Compile("(?i)" + term)
	if err != nil {
		lower := strings.ToLower(term)
		return func(s string) bool {
			return strings.Contains(strings.ToLower(s), lower)
		}
	}
	return re.MatchString
}
