package main

import (
	"slices"
	"strconv"

	"github.com/spf13/pflag"

	"github.com/frederic-klein/pkgquery/internal/config"
	"github.com/frederic-klein/pkgquery/internal/filter"
	"github.com/frederic-klein/pkgquery/internal/query"
)

// selection records what the order-sensitive flags asked for: the sources
// in the order they were given, and the first operation.
type selection struct {
	sources     []query.Source
	op          config.Op
	query       config.QueryKind
	filter      filter.Mask
	needTargets bool
	needSource  bool
}

// sourceFlag is -Q, -S or -A. Repeats keep the first position.
type sourceFlag struct {
	sel *selection
	src query.Source
}

func (f *sourceFlag) Set(string) error {
	if !slices.Contains(f.sel.sources, f.src) {
		f.sel.sources = append(f.sel.sources, f.src)
	}
	return nil
}

func (f *sourceFlag) String() string {
	return strconv.FormatBool(f.sel != nil && slices.Contains(f.sel.sources, f.src))
}

func (f *sourceFlag) Type() string { return "bool" }

// opFlag is one of the operation flags. The first one given wins; a repeated
// -i turns info into info with a provides fallback.
type opFlag struct {
	sel   *selection
	op    config.Op
	query config.QueryKind
}

func (f *opFlag) Set(string) error {
	s := f.sel
	if s.op != config.OpNone {
		if f.op == config.OpInfo && s.op == config.OpInfo {
			s.op = config.OpInfoProvides
		}
		return nil
	}
	s.op = f.op
	switch f.op {
	case config.OpInfo, config.OpQuery:
		s.query = f.query
		s.needTargets = true
		s.needSource = true
	case config.OpSearch, config.OpListRepo:
		s.needSource = true
	case config.OpListGroup:
		s.filter |= filter.Group
	}
	return nil
}

func (f *opFlag) String() string {
	return strconv.FormatBool(f.sel != nil && f.sel.op == f.op)
}

func (f *opFlag) Type() string { return "bool" }

// queryTypeFlag is --query-type=<kind>, an operation flag with an argument.
type queryTypeFlag struct {
	sel  *selection
	kind string
}

func (f *queryTypeFlag) Set(v string) error {
	k, err := config.ParseQueryKind(v)
	if err != nil {
		return err
	}
	f.kind = v
	return (&opFlag{sel: f.sel, op: config.OpQuery, query: k}).Set("true")
}

func (f *queryTypeFlag) String() string { return f.kind }

func (f *queryTypeFlag) Type() string { return "string" }

// filterFlag sets one filter bit.
type filterFlag struct {
	sel *selection
	bit filter.Mask
}

func (f *filterFlag) Set(string) error {
	f.sel.filter |= f.bit
	return nil
}

func (f *filterFlag) String() string {
	return strconv.FormatBool(f.sel != nil && f.sel.filter&f.bit != 0)
}

func (f *filterFlag) Type() string { return "bool" }

func boolValue(fs *pflag.FlagSet, v pflag.Value, name, shorthand, usage string) {
	fl := fs.VarPF(v, name, shorthand, usage)
	fl.NoOptDefVal = "true"
}

// registerSelection adds the order-sensitive flags to fs.
func registerSelection(fs *pflag.FlagSet, sel *selection) {
	boolValue(fs, &sourceFlag{sel, query.SourceLocal}, "query", "Q", "query the local database")
	boolValue(fs, &sourceFlag{sel, query.SourceSync}, "sync", "S", "query the sync databases")
	boolValue(fs, &sourceFlag{sel, query.SourceAUR}, "aur", "A", "query the AUR")

	boolValue(fs, &opFlag{sel: sel, op: config.OpInfo}, "info", "i", "search by name (twice: fall back to provides)")
	boolValue(fs, &opFlag{sel: sel, op: config.OpSearch}, "search", "s", "search names and descriptions")
	boolValue(fs, &opFlag{sel: sel, op: config.OpListRepo}, "list", "l", "list the packages of the named repositories")
	boolValue(fs, &opFlag{sel: sel, op: config.OpListGroup}, "groups", "g", "list groups or their members")
	fs.Var(&queryTypeFlag{sel: sel}, "query-type", "relation query: depends, conflicts, provides, replaces or requires")
	for _, q := range []struct {
		name string
		kind config.QueryKind
	}{
		{"qdepends", config.QueryDepends},
		{"qconflicts", config.QueryConflicts},
		{"qprovides", config.QueryProvides},
		{"qreplaces", config.QueryReplaces},
		{"qrequires", config.QueryRequires},
	} {
		boolValue(fs, &opFlag{sel: sel, op: config.OpQuery, query: q.kind}, q.name, "", "packages whose "+q.kind.String()+" match the targets")
	}

	boolValue(fs, &filterFlag{sel, filter.Depend}, "deps", "d", "installed as dependencies")
	boolValue(fs, &filterFlag{sel, filter.Explicit}, "explicit", "e", "installed explicitly")
	boolValue(fs, &filterFlag{sel, filter.Foreign}, "foreign", "m", "not in any sync database (-AQm: look them up in the AUR)")
	boolValue(fs, &filterFlag{sel, filter.Unrequired}, "unrequired", "t", "not required by any installed package")
	boolValue(fs, &filterFlag{sel, filter.Upgrades}, "upgrades", "u", "with a newer version available (-AQu: include the AUR)")
}
