package query

import (
	"github.com/frederic-klein/pkgquery/internal/config"
	"github.com/frederic-klein/pkgquery/internal/filter"
	"github.com/frederic-klein/pkgquery/internal/pkg"
)

// Relation extracts the relation list a relation query matches targets
// against. Each entry is in target syntax ("name", "name>=1.0").
type Relation interface {
	Relations(o filter.Oracle, p *pkg.Package) []string
}

// RelationFunc adapts a function to the Relation interface.
type RelationFunc func(o filter.Oracle, p *pkg.Package) []string

func (f RelationFunc) Relations(o filter.Oracle, p *pkg.Package) []string {
	return f(o, p)
}

var relations = map[config.QueryKind]Relation{
	config.QueryDepends: RelationFunc(func(_ filter.Oracle, p *pkg.Package) []string {
		deps := make([]string, 0, len(p.Depends))
		for _, d := range p.Depends {
			deps = append(deps, d.String())
		}
		return deps
	}),
	config.QueryConflicts: RelationFunc(func(_ filter.Oracle, p *pkg.Package) []string {
		return p.Conflicts
	}),
	config.QueryProvides: RelationFunc(func(_ filter.Oracle, p *pkg.Package) []string {
		return p.Provides
	}),
	config.QueryReplaces: RelationFunc(func(_ filter.Oracle, p *pkg.Package) []string {
		return p.Replaces
	}),
	config.QueryRequires: RelationFunc(func(o filter.Oracle, p *pkg.Package) []string {
		return o.RequiredBy(p)
	}),
}

// RelationFor returns the relation walked by queries of kind k.
func RelationFor(k config.QueryKind) Relation {
	if r, ok := relations[k]; ok {
		return r
	}
	return relations[config.QueryDepends]
}
