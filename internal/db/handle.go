package db

import (
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/frederic-klein/pkgquery/internal/pkg"
	"github.com/frederic-klein/pkgquery/internal/target"
	"github.com/frederic-klein/pkgquery/internal/vercmp"
)

// Repo describes a configured sync repository.
type Repo struct {
	Name    string
	Servers []string
}

// Options locate the databases on disk.
type Options struct {
	Root   string // filesystem root the local database describes
	DBPath string // holds "local/" and "sync/<repo>.db"
	Repos  []Repo
}

// Handle holds every database of one run.
type Handle struct {
	root  string
	Local *DB
	Sync  []*DB
}

// Open loads the local database and every configured sync database. A sync
// database that cannot be read is logged and left out; only a missing local
// database is an error.
func Open(opts Options, logger *log.Logger) (*Handle, error) {
	local, err := LoadLocal(filepath.Join(opts.DBPath, "local"))
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded local database", "packages", len(local.Packages()))

	h := &Handle{root: opts.Root, Local: local}
	for _, repo := range opts.Repos {
		path := filepath.Join(opts.DBPath, "sync", repo.Name+".db")
		d, err := LoadSync(repo.Name, path, repo.Servers)
		if err != nil {
			logger.Warn("skipping repository", "repo", repo.Name, "err", err)
			continue
		}
		logger.Debug("loaded sync database", "repo", repo.Name, "packages", len(d.Packages()))
		h.Sync = append(h.Sync, d)
	}
	return h, nil
}

// NewHandle builds a handle from databases that are already loaded.
func NewHandle(root string, local *DB, sync ...*DB) *Handle {
	if local == nil {
		local = New(LocalName, pkg.KindLocal, nil)
	}
	return &Handle{root: root, Local: local, Sync: sync}
}

// SyncDB returns the sync database with the given name.
func (h *Handle) SyncDB(name string) *DB {
	for _, d := range h.Sync {
		if d.Name() == name {
			return d
		}
	}
	return nil
}

// LocalPackage returns the installed package called name.
func (h *Handle) LocalPackage(name string) *pkg.Package {
	return h.Local.Get(name)
}

// SyncPackage returns the first sync package named like p. Installed
// packages and package files are looked up in the sync databases; sync
// records are their own sync package.
func (h *Handle) SyncPackage(p *pkg.Package) *pkg.Package {
	if p.Origin != pkg.KindLocal && p.Origin != pkg.KindFile {
		return p
	}
	for _, d := range h.Sync {
		if sp := d.Get(p.Name); sp != nil {
			return sp
		}
	}
	return nil
}

// NewVersion returns the sync package that would upgrade the installed p.
func (h *Handle) NewVersion(p *pkg.Package) *pkg.Package {
	if p.Origin != pkg.KindLocal {
		return nil
	}
	for _, d := range h.Sync {
		if sp := d.Get(p.Name); sp != nil {
			if vercmp.Compare(sp.Version, p.Version) > 0 {
				return sp
			}
			return nil
		}
	}
	return nil
}

// RequiredBy lists the packages depending on p. Installed and file packages
// are checked against the local database, sync packages against every sync
// database.
func (h *Handle) RequiredBy(p *pkg.Package) []string {
	dbs := []*DB{h.Local}
	if p.Origin == pkg.KindSync {
		dbs = h.Sync
	}

	var names []string
	for _, d := range dbs {
		for _, q := range d.Packages() {
			for _, dep := range q.Depends {
				if satisfies(p, dep) {
					names = append(names, q.Name)
					break
				}
			}
		}
	}
	return names
}

// satisfies reports whether p fulfills dep, by name or through a provision.
func satisfies(p *pkg.Package, dep pkg.Depend) bool {
	want := target.Parse(dep.String())
	if p.Name == want.Name && target.CheckVersion(want, p.Version) {
		return true
	}
	for _, prov := range p.Provides {
		pd := pkg.ParseDepend(prov)
		if pd.Name != want.Name {
			continue
		}
		if want.Op == target.OpAny {
			return true
		}
		if pd.Op == "=" && target.CheckVersion(want, pd.Version) {
			return true
		}
	}
	return false
}

// RealSize sums the on-disk size of p's files below the root. Hard links are
// counted once.
func (h *Handle) RealSize(p *pkg.Package) int64 {
	var size int64
	seen := make(map[uint64]bool)
	for _, f := range p.Files {
		if strings.HasSuffix(f, "/") {
			continue
		}
		info, err := os.Lstat(filepath.Join(h.root, f))
		if err != nil {
			continue
		}
		if !info.Mode().IsRegular() && info.Mode()&os.ModeSymlink == 0 {
			continue
		}
		if st, ok := info.Sys().(*syscall.Stat_t); ok {
			ino := uint64(st.Ino)
			if seen[ino] {
				continue
			}
			seen[ino] = true
		}
		size += info.Size()
	}
	return size
}
