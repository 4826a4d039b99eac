package query

import (
	"cmp"
	"slices"

	"github.com/frederic-klein/pkgquery/internal/config"
	"github.com/frederic-klein/pkgquery/internal/db"
	"github.com/frederic-klein/pkgquery/internal/pkg"
)

// Printer renders one accepted result.
type Printer interface {
	Print(target string, r pkg.Ref)
	Flush() error
}

type result struct {
	target string
	ref    pkg.Ref
}

// Collector passes results straight to the printer, or, when a sort key is
// set, holds them until Flush.
type Collector struct {
	key     config.SortKey
	local   *db.DB
	printer Printer
	buf     []result
}

// NewCollector creates a collector. local resolves install dates when
// sorting by them.
func NewCollector(key config.SortKey, local *db.DB, printer Printer) *Collector {
	return &Collector{key: key, local: local, printer: printer}
}

// Add hands over one result.
func (c *Collector) Add(target string, r pkg.Ref) {
	if c.key == config.SortNone {
		c.printer.Print(target, r)
		return
	}
	c.buf = append(c.buf, result{target: target, ref: r})
}

// Flush sorts the held results, prints them and empties the buffer. Results
// with equal keys keep their arrival order.
func (c *Collector) Flush() {
	if len(c.buf) == 0 {
		return
	}
	if compare := c.comparator(); compare != nil {
		slices.SortStableFunc(c.buf, compare)
	}
	for _, res := range c.buf {
		c.printer.Print(res.target, res.ref)
	}
	c.Release()
}

// Release drops held results without printing them.
func (c *Collector) Release() {
	c.buf = nil
}

func (c *Collector) comparator() func(a, b result) int {
	switch c.key {
	case config.SortName:
		return func(a, b result) int {
			return cmp.Compare(a.ref.Name(), b.ref.Name())
		}
	case config.SortVotes:
		return func(a, b result) int {
			return cmp.Compare(votes(a.ref), votes(b.ref))
		}
	case config.SortInstallDate:
		return func(a, b result) int {
			return cmp.Compare(c.installDate(a.ref), c.installDate(b.ref))
		}
	case config.SortSize:
		return func(a, b result) int {
			return cmp.Compare(installedSize(a.ref), installedSize(b.ref))
		}
	}
	return nil
}

func votes(r pkg.Ref) int {
	if a := r.AURPackage(); a != nil {
		return a.Votes
	}
	return 0
}

// installDate is the install time of the installed package of the same
// name, 0 for AUR records and packages that are not installed.
func (c *Collector) installDate(r pkg.Ref) int64 {
	if r.Kind() == pkg.KindAUR || c.local == nil {
		return 0
	}
	lp := c.local.Get(r.Name())
	if lp == nil || lp.InstallDate.IsZero() {
		return 0
	}
	return lp.InstallDate.Unix()
}

func installedSize(r pkg.Ref) int64 {
	if p := r.Package(); p != nil {
		return p.InstalledSize
	}
	return 0
}
