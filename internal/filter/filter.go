package filter

import "github.com/frederic-klein/pkgquery/internal/pkg"

// Mask is a set of package filters.
type Mask uint

const (
	Foreign    Mask = 1 << iota // not found in any sync database
	Explicit                    // installed explicitly
	Depend                      // installed as a dependency
	Unrequired                  // nothing installed depends on it
	Upgrades                    // a sync database carries a newer version
	Group                       // member of at least one group
)

var all = []Mask{Foreign, Explicit, Depend, Unrequired, Upgrades, Group}

// Oracle answers the cross-database questions some filters need.
type Oracle interface {
	// SyncPackage returns the first sync record named like p, or p itself
	// when p is a sync record.
	SyncPackage(p *pkg.Package) *pkg.Package
	// RequiredBy lists the packages of p's database depending on p.
	RequiredBy(p *pkg.Package) []string
	// NewVersion returns a sync record newer than p, if any.
	NewVersion(p *pkg.Package) *pkg.Package
}

// Passes reports whether p satisfies every filter set in m.
func Passes(o Oracle, p *pkg.Package, m Mask) bool {
	for _, f := range all {
		if m&f != 0 && !check(o, p, f) {
			return false
		}
	}
	return true
}

// State returns the filters p satisfies on its own.
func State(o Oracle, p *pkg.Package) Mask {
	var m Mask
	for _, f := range all {
		if check(o, p, f) {
			m |= f
		}
	}
	return m
}

func check(o Oracle, p *pkg.Package, f Mask) bool {
	switch f {
	case Foreign:
		return o.SyncPackage(p) == nil
	case Explicit:
		return p.Reason == pkg.ReasonExplicit
	case Depend:
		return p.Reason == pkg.ReasonDepend
	case Unrequired:
		return len(o.RequiredBy(p)) == 0
	case Upgrades:
		return o.NewVersion(p) != nil
	case Group:
		return len(p.Groups) > 0
	}
	return true
}
