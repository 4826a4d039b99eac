package pkg

import (
	"slices"
	"time"
)

// Kind identifies where a record came from.
type Kind int

const (
	KindLocal Kind = iota
	KindSync
	KindFile
	KindAUR
	KindGroup
)

func (k Kind) String() string {
	switch k {
	case KindLocal:
		return "local"
	case KindSync:
		return "sync"
	case KindFile:
		return "file"
	case KindAUR:
		return "aur"
	case KindGroup:
		return "group"
	default:
		return "unknown"
	}
}

// Reason is why a package was installed.
type Reason int

const (
	ReasonExplicit Reason = iota
	ReasonDepend
)

// Package represents one entry of a package database or package file.
type Package struct {
	Name        string
	Version     string
	Base        string
	Description string
	URL         string
	Arch        string
	Filename    string // e.g., "bash-5.1.016-1-x86_64.pkg.tar.zst"
	Packager    string
	Licenses    []string
	Groups      []string
	Depends     []Depend
	OptDepends  []string
	Conflicts   []string
	Provides    []string
	Replaces    []string
	Backup      []string
	Files       []string

	InstalledSize int64
	DownloadSize  int64
	BuildDate     time.Time
	InstallDate   time.Time
	Reason        Reason

	DB     string // owning database name, "local" for installed packages
	Origin Kind
}

// Depend is a dependency entry as stored in a database, e.g. "glibc>=2.33".
type Depend struct {
	Name    string
	Op      string // one of "", "=", "<", ">", "<=", ">="
	Version string
}

// String renders the dependency as "name op version".
func (d Depend) String() string {
	if d.Op == "" {
		return d.Name
	}
	return d.Name + d.Op + d.Version
}

// Group is a named set of packages within one database.
type Group struct {
	Name     string
	Packages []*Package
}

// AURPackage represents a record returned by the AUR RPC interface.
type AURPackage struct {
	ID          int
	Name        string
	PackageBase string
	Version     string
	Description string
	URL         string
	URLPath     string
	Maintainer  string
	Votes       int
	Popularity  float64
	OutOfDate   time.Time
	Licenses    []string
	Depends     []string
}

// Clone returns a deep copy of a.
func (a *AURPackage) Clone() *AURPackage {
	if a == nil {
		return nil
	}
	c := *a
	c.Licenses = slices.Clone(a.Licenses)
	c.Depends = slices.Clone(a.Depends)
	return &c
}
