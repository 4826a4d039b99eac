package target

import (
	"strings"

	"github.com/frederic-klein/pkgquery/internal/vercmp"
)

// Op is a version constraint operator.
type Op int

const (
	OpAny Op = iota
	OpEQ
	OpLT
	OpGT
	OpLE
	OpGE
)

// operators in match priority: two-character forms first.
var operators = []struct {
	text string
	op   Op
}{
	{"<=", OpLE},
	{">=", OpGE},
	{"<", OpLT},
	{">", OpGT},
	{"=", OpEQ},
}

func (o Op) String() string {
	for _, c := range operators {
		if c.op == o {
			return c.text
		}
	}
	return ""
}

// Target is a parsed query such as "core/bash>=5.0".
type Target struct {
	Repo    string // empty when the target is not qualified
	Name    string
	Op      Op
	Version string // empty when Op is OpAny
}

// Parse turns a raw argument into a Target. It never fails: anything it
// cannot make sense of ends up in Name.
func Parse(s string) Target {
	var t Target
	if i := strings.IndexByte(s, '/'); i >= 0 {
		t.Repo = s[:i]
		s = s[i+1:]
	}
	for _, c := range operators {
		if i := strings.Index(s, c.text); i >= 0 {
			t.Name = s[:i]
			t.Op = c.op
			t.Version = s[i+len(c.text):]
			return t
		}
	}
	t.Name = s
	return t
}

// String renders t back into the syntax Parse accepts.
func (t Target) String() string {
	s := t.Name
	if t.Op != OpAny {
		s += t.Op.String() + t.Version
	}
	if t.Repo != "" {
		s = t.Repo + "/" + s
	}
	return s
}

// MatchesRepo reports whether t may be looked up in the named database.
func (t Target) MatchesRepo(db string) bool {
	return t.Repo == "" || t.Repo == db
}

// CheckVersion reports whether version satisfies the constraint of t.
func CheckVersion(t Target, version string) bool {
	if t.Op == OpAny {
		return true
	}
	cmp := vercmp.Compare(version, t.Version)
	switch t.Op {
	case OpLE:
		return cmp <= 0
	case OpGE:
		return cmp >= 0
	case OpLT:
		return cmp < 0
	case OpGT:
		return cmp > 0
	case OpEQ:
		return cmp == 0
	}
	return true
}

// Compatible reports whether the relation rel (a depends, provides, conflicts
// or replaces entry) satisfies the requested target want. Only unversioned or
// exact requests can be satisfied by a relation.
func Compatible(rel, want Target) bool {
	if want.Op != OpEQ && want.Op != OpAny {
		return false
	}
	if rel.Name != want.Name {
		return false
	}
	return rel.Op == OpAny || want.Op == OpAny || CheckVersion(rel, want.Version)
}
