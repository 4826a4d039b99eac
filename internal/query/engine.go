package query

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/frederic-klein/pkgquery/internal/config"
	"github.com/frederic-klein/pkgquery/internal/db"
	"github.com/frederic-klein/pkgquery/internal/filter"
	"github.com/frederic-klein/pkgquery/internal/pkg"
	"github.com/frederic-klein/pkgquery/internal/render"
	"github.com/frederic-klein/pkgquery/internal/target"
)

// AURName is the repository qualifier that selects the AUR ("aur/yay").
const AURName = "aur"

// AURSource is the remote metadata provider.
type AURSource interface {
	Info(ctx context.Context, names []string) []*pkg.AURPackage
	Search(ctx context.Context, term string) []*pkg.AURPackage
}

// Source is one place targets are looked up in.
type Source int

const (
	SourceLocal Source = iota
	SourceSync
	SourceAUR
)

func (s Source) String() string {
	switch s {
	case SourceLocal:
		return "local"
	case SourceSync:
		return "sync"
	case SourceAUR:
		return AURName
	}
	return "unknown"
}

// Engine runs queries against the databases and the AUR and hands accepted
// results to the printer.
type Engine struct {
	cfg      config.Config
	handle   *db.Handle
	aur      AURSource
	printer  Printer
	logger   *log.Logger
	relation Relation
	results  *Collector

	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
	closeErr  error
}

// NewEngine creates an engine. aur may be nil when the AUR is not queried.
func NewEngine(cfg config.Config, handle *db.Handle, aur AURSource, printer Printer, logger *log.Logger) *Engine {
	return &Engine{
		cfg:      cfg,
		handle:   handle,
		aur:      aur,
		printer:  printer,
		logger:   logger,
		relation: RelationFor(cfg.Query),
		results:  NewCollector(cfg.Sort, handle.Local, printer),
	}
}

func (e *Engine) emit(target string, r pkg.Ref) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.results.Add(target, r)
}

func samePackage(a, b *pkg.Package) bool { return a == b }

func sameAURPackage(a, b *pkg.AURPackage) bool { return a.Name == b.Name }

func (e *Engine) packageLedger() *Ledger[*pkg.Package] {
	return NewLedger(e.cfg.JustOne, samePackage, nil)
}

// Run visits the sources in order and dispatches the targets to each,
// the way the command line asked for. It returns the number of matches.
func (e *Engine) Run(ctx context.Context, order []Source, targets []string) int {
	useLocal := slices.Contains(order, SourceLocal)
	useAUR := slices.Contains(order, SourceAUR)

	if e.cyclesSources() || len(targets) > 0 {
		total := 0
		for _, src := range order {
			if !e.cyclesSources() && len(targets) == 0 {
				break
			}
			var n int
			switch src {
			case SourceSync:
				for _, d := range e.handle.Sync {
					var m int
					m, targets = e.Dispatch(d, targets)
					n += m
				}
			case SourceLocal:
				n, targets = e.Dispatch(e.handle.Local, targets)
			case SourceAUR:
				switch e.cfg.Op {
				case config.OpInfo, config.OpInfoProvides:
					n, targets = e.AURInfo(ctx, targets)
				case config.OpSearch:
					n = e.AURSearch(ctx, targets)
				}
			}
			e.logger.Debug("source done", "source", src, "matches", n, "outstanding", len(targets))
			total += n
		}
		return total
	}

	switch {
	case useLocal && !useAUR:
		return e.SearchLocal(e.cfg.Filter)
	case useLocal && useAUR && e.cfg.Filter == filter.Foreign:
		return e.AURForeign(ctx)
	case useLocal && useAUR && e.cfg.Filter == filter.Upgrades:
		return e.AURUpgrades(ctx)
	}
	return 0
}

// cyclesSources reports whether the operation lists every source even
// without targets.
func (e *Engine) cyclesSources() bool {
	switch e.cfg.Op {
	case config.OpSearch, config.OpListRepo, config.OpListRepoSearch, config.OpListGroup:
		return true
	}
	return false
}

// Dispatch runs the configured operation against one database and returns
// the match count and the targets still unanswered.
func (e *Engine) Dispatch(src *db.DB, targets []string) (int, []string) {
	switch e.cfg.Op {
	case config.OpListRepo, config.OpListRepoSearch:
		return e.ListRepo(src, targets), targets
	case config.OpInfo, config.OpInfoProvides:
		n, rest := e.ByName(src, targets)
		if n == 0 && e.cfg.Op == config.OpInfoProvides {
			return e.ByRelation(src, RelationFor(config.QueryProvides), rest)
		}
		return n, rest
	case config.OpSearch:
		return e.Search(src, targets), targets
	case config.OpListGroup:
		return e.ListGroups(src, targets), targets
	case config.OpQuery:
		return e.ByRelation(src, e.relation, targets)
	}
	return 0, targets
}

// ByName looks every target up by exact name.
func (e *Engine) ByName(src *db.DB, targets []string) (int, []string) {
	ledger := e.packageLedger()
	n := 0
	for _, raw := range targets {
		t := target.Parse(raw)
		if !t.MatchesRepo(src.Name()) {
			continue
		}
		p := src.Get(t.Name)
		if p == nil || !filter.Passes(e.handle, p, e.cfg.Filter) || !target.CheckVersion(t, p.Version) {
			continue
		}
		if ledger.Add(raw, p) {
			n++
			e.emit(raw, pkg.Borrow(p))
		}
	}
	return n, ledger.Close(targets)
}

// ByRelation finds the packages whose relation list holds an entry
// compatible with a target.
func (e *Engine) ByRelation(src *db.DB, rel Relation, targets []string) (int, []string) {
	ledger := e.packageLedger()
	n := 0
	for _, p := range src.Packages() {
		if len(targets) == 0 {
			break
		}
		for _, entry := range rel.Relations(e.handle, p) {
			if len(targets) == 0 {
				break
			}
			have := target.Parse(entry)
			for _, raw := range targets {
				want := target.Parse(raw)
				if !want.MatchesRepo(src.Name()) {
					continue
				}
				if !target.Compatible(have, want) || !filter.Passes(e.handle, p, e.cfg.Filter) {
					continue
				}
				if ledger.Add(raw, p) {
					n++
					e.emit(raw, pkg.Borrow(p))
				}
			}
			targets = ledger.Clear(targets)
		}
	}
	return n, ledger.Close(targets)
}

// Search lists the packages of src matching every term.
func (e *Engine) Search(src *db.DB, terms []string) int {
	n := 0
	for _, p := range src.Search(terms) {
		if !filter.Passes(e.handle, p, e.cfg.Filter) {
			continue
		}
		n++
		e.emit("", pkg.Borrow(p))
	}
	return n
}

// ListRepo lists every package of src, when src is among the named
// repositories or none is named.
func (e *Engine) ListRepo(src *db.DB, repos []string) int {
	if len(repos) > 0 && !slices.Contains(repos, src.Name()) {
		return 0
	}
	for _, p := range src.Packages() {
		e.emit("", pkg.Borrow(p))
	}
	return len(src.Packages())
}

// ListGroups lists the named groups of src, or all of them. Each group
// counts once.
func (e *Engine) ListGroups(src *db.DB, names []string) int {
	groups := src.Groups()
	if len(names) > 0 {
		groups = nil
		for _, name := range names {
			if g := src.Group(name); g != nil {
				groups = append(groups, g)
			}
		}
	}
	for _, g := range groups {
		if e.cfg.ListGroup {
			e.emit("", pkg.BorrowGroup(g))
			continue
		}
		for _, p := range g.Packages {
			e.emit(g.Name, pkg.Borrow(p))
		}
	}
	return len(groups)
}

// SearchLocal lists the installed packages passing mask.
func (e *Engine) SearchLocal(mask filter.Mask) int {
	n := 0
	for _, p := range e.handle.Local.Packages() {
		if filter.Passes(e.handle, p, mask) {
			n++
			e.emit("", pkg.Borrow(p))
		}
	}
	return n
}

// LocalNames renders tmpl for every installed package passing mask.
func (e *Engine) LocalNames(mask filter.Mask, tmpl string) []string {
	env := render.Env{Handle: e.handle, CSep: e.cfg.CSep, AURURL: e.cfg.AURURL}
	var names []string
	for _, p := range e.handle.Local.Packages() {
		if filter.Passes(e.handle, p, mask) {
			names = append(names, render.Format(env, "", pkg.Borrow(p), tmpl))
		}
	}
	return names
}

// AURInfo looks the targets up in the AUR. Targets qualified with another
// repository are left alone.
func (e *Engine) AURInfo(ctx context.Context, targets []string) (int, []string) {
	if e.aur == nil || len(targets) == 0 {
		return 0, targets
	}

	var names []string
	for _, raw := range targets {
		if t := target.Parse(raw); t.MatchesRepo(AURName) && !slices.Contains(names, t.Name) {
			names = append(names, t.Name)
		}
	}
	if len(names) == 0 {
		return 0, targets
	}
	records := e.aur.Info(ctx, names)

	ledger := NewLedger(e.cfg.JustOne, sameAURPackage, (*pkg.AURPackage).Clone)
	n := 0
	for _, raw := range targets {
		t := target.Parse(raw)
		if !t.MatchesRepo(AURName) {
			continue
		}
		for _, a := range records {
			if a.Name != t.Name || !target.CheckVersion(t, a.Version) {
				continue
			}
			if ledger.Add(raw, a) {
				n++
				e.emit(raw, pkg.Own(a))
			}
		}
	}
	return n, ledger.Close(targets)
}

// AURSearch searches the AUR with the longest term and keeps the records
// matching every term in their name or description.
func (e *Engine) AURSearch(ctx context.Context, terms []string) int {
	if e.aur == nil || len(terms) == 0 {
		return 0
	}
	longest := terms[0]
	for _, term := range terms[1:] {
		if len(term) > len(longest) {
			longest = term
		}
	}

	n := 0
	for _, a := range e.aur.Search(ctx, longest) {
		if !matchesTerms(a, terms) {
			continue
		}
		n++
		e.emit("", pkg.Own(a))
	}
	return n
}

func matchesTerms(a *pkg.AURPackage, terms []string) bool {
	name := strings.ToLower(a.Name)
	desc := strings.ToLower(a.Description)
	for _, term := range terms {
		term = strings.ToLower(term)
		if !strings.Contains(name, term) && !strings.Contains(desc, term) {
			return false
		}
	}
	return true
}

// AURForeign shows every foreign installed package next to its AUR record.
// Packages the AUR does not know are shown as installed packages; only AUR
// hits count as matches.
func (e *Engine) AURForeign(ctx context.Context) int {
	names := e.LocalNames(filter.Foreign, "%n")
	if len(names) == 0 || e.aur == nil {
		return 0
	}
	found := make(map[string]*pkg.AURPackage)
	for _, a := range e.aur.Info(ctx, names) {
		found[a.Name] = a
	}

	n := 0
	for _, name := range names {
		if a, ok := found[name]; ok {
			n++
			e.emit(name, pkg.Own(a))
		} else if lp := e.handle.LocalPackage(name); lp != nil {
			e.emit(name, pkg.Borrow(lp))
		}
	}
	return n
}

// AURUpgrades lists the installed packages with a newer sync version, then
// the foreign ones with a newer AUR version.
func (e *Engine) AURUpgrades(ctx context.Context) int {
	n := e.SearchLocal(filter.Upgrades)
	m, _ := e.AURInfo(ctx, e.LocalNames(filter.Foreign, "%n>%v"))
	return n + m
}

// Files shows the package files at paths. Unreadable files are logged and
// skipped.
func (e *Engine) Files(paths []string) int {
	n := 0
	for _, path := range paths {
		p, err := db.LoadFile(path)
		if err != nil {
			e.logger.Error("unable to read package file", "file", path, "err", err)
			continue
		}
		n++
		e.emit(path, pkg.Borrow(p))
	}
	return n
}

// Flush prints the results held for sorting.
func (e *Engine) Flush() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.results.Flush()
	}
}

// Close releases held results and flushes the printer. It runs once; later
// calls return the first result.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.closed = true
		e.results.Release()
		e.closeErr = e.printer.Flush()
	})
	return e.closeErr
}
