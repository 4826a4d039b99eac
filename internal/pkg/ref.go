package pkg

import "strings"

// Ref is a result handed to the renderer or collector. Database records are
// borrowed: their databases live for the whole run. AUR records are owned
// copies since the response they came from is discarded after each call.
type Ref struct {
	kind  Kind
	pkg   *Package
	aur   *AURPackage
	group *Group
}

// Borrow wraps a database record without copying it.
func Borrow(p *Package) Ref {
	return Ref{kind: p.Origin, pkg: p}
}

// Own wraps a private copy of an AUR record.
func Own(a *AURPackage) Ref {
	return Ref{kind: KindAUR, aur: a.Clone()}
}

// BorrowGroup wraps a group.
func BorrowGroup(g *Group) Ref {
	return Ref{kind: KindGroup, group: g}
}

func (r Ref) Kind() Kind              { return r.kind }
func (r Ref) Package() *Package       { return r.pkg }
func (r Ref) AURPackage() *AURPackage { return r.aur }
func (r Ref) Group() *Group           { return r.group }

// Name returns the record name regardless of kind.
func (r Ref) Name() string {
	switch {
	case r.pkg != nil:
		return r.pkg.Name
	case r.aur != nil:
		return r.aur.Name
	case r.group != nil:
		return r.group.Name
	}
	return ""
}

// ParseDepend splits a stored dependency string such as "glibc>=2.33".
// Optional dependency descriptions ("name: why") are dropped.
func ParseDepend(s string) Depend {
	if i := strings.Index(s, ": "); i >= 0 {
		s = s[:i]
	}
	for _, op := range []string{"<=", ">=", "<", ">", "="} {
		if i := strings.Index(s, op); i >= 0 {
			return Depend{Name: s[:i], Op: op, Version: s[i+len(op):]}
		}
	}
	return Depend{Name: s}
}
