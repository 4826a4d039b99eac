package render

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mitchellh/go-wordwrap"

	"github.com/frederic-klein/pkgquery/internal/config"
	"github.com/frederic-klein/pkgquery/internal/filter"
	"github.com/frederic-klein/pkgquery/internal/pkg"
	"github.com/frederic-klein/pkgquery/internal/vercmp"
)

const descIndent = 4

// Printer writes results either through the output template or as the
// colored package listing.
type Printer struct {
	cfg    config.Config
	env    Env
	out    *bufio.Writer
	res    io.Writer
	width  int
	styles styles
	count  int
}

// NewPrinter creates a printer writing to out. When res is not nil and the
// configuration asks for it, "repo/name" of each listed package is echoed
// there. width is the terminal width used to wrap descriptions.
func NewPrinter(cfg config.Config, env Env, out io.Writer, res io.Writer, width int) *Printer {
	if width <= descIndent {
		width = defaultWidth
	}
	return &Printer{
		cfg:    cfg,
		env:    env,
		out:    bufio.NewWriter(out),
		res:    res,
		width:  width,
		styles: newStyles(out, cfg.Color),
	}
}

// Print renders one result. target is the raw argument that matched, empty
// for listings.
func (p *Printer) Print(target string, r pkg.Ref) {
	if p.cfg.Quiet {
		return
	}
	if p.cfg.Format == "" {
		p.display(r)
		return
	}
	s := Format(p.env, target, r, p.cfg.Format)
	if p.cfg.Escape {
		p.out.WriteString(strings.ReplaceAll(s, `"`, `\"`))
		return
	}
	p.out.WriteString(s)
	p.out.WriteByte('\n')
}

// Flush writes out any buffered output.
func (p *Printer) Flush() error {
	if err := p.out.Flush(); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

func (p *Printer) field(r pkg.Ref, code byte) (string, bool) {
	return Field(p.env, r, code)
}

func (p *Printer) result(s string) {
	if p.cfg.GetRes && p.res != nil {
		io.WriteString(p.res, s)
	}
}

func (p *Printer) display(r pkg.Ref) {
	st := p.styles
	var b strings.Builder

	if p.cfg.Numbering {
		p.count++
		b.WriteString(st.paint(st.number, strconv.Itoa(p.count)))
		b.WriteByte(' ')
	}

	if p.cfg.AURForeign {
		p.result("local/")
	} else if repo, ok := p.field(r, 's'); ok {
		p.result(repo + "/")
		b.WriteString(st.paint(st.repo(repo), repo+"/"))
	}

	name := r.Name()
	p.result(name + "\n")
	b.WriteString(st.paint(st.name, name))

	if p.cfg.ListGroup {
		p.line(b.String())
		return
	}
	b.WriteByte(' ')

	lver, installed := p.field(r, 'l')
	ver, _ := p.field(r, 'v')

	if p.cfg.AURForeign {
		p.foreign(r, &b, ver, lver)
		return
	}

	b.WriteString(st.paint(st.version, ver))

	if p.cfg.ShowSize {
		if repo, ok := p.field(r, 'r'); ok && repo != "aur" {
			b.WriteString(" [" + humanize.IBytes(uint64(max(p.size(r.Package()), 0))) + "]")
		}
	}
	if groups, ok := p.field(r, 'g'); ok {
		b.WriteString(" " + st.paint(st.group, "("+groups+")"))
	}
	if installed {
		if repo, ok := p.field(r, 'r'); ok && repo != "local" {
			b.WriteString(" " + st.paint(st.installed, "[installed"))
			if ver != lver {
				b.WriteString(st.paint(st.installed, ": ") + st.paint(st.localVer, lver))
			}
			b.WriteString(st.paint(st.installed, "]"))
		}
	}
	if ood, ok := p.field(r, 'o'); ok && ood == "1" {
		b.WriteString(" " + st.paint(st.outOfDate, "(Out of Date)"))
	}
	if votes, ok := p.field(r, 'w'); ok {
		b.WriteString(" " + st.paint(st.votes, "("+votes+")"))
	}
	p.line(b.String())

	if p.cfg.Op == config.OpSearch || p.cfg.Op == config.OpListRepoSearch {
		if desc, ok := p.field(r, 'd'); ok {
			p.description(desc)
		} else {
			p.line(strings.Repeat(" ", descIndent))
		}
	}
}

// foreign prints an installed package that no sync database carries, next to
// what the AUR knows about it.
func (p *Printer) foreign(r pkg.Ref, b *strings.Builder, ver, lver string) {
	st := p.styles
	if r.Kind() != pkg.KindAUR {
		b.WriteString(st.paint(st.version, lver))
		p.line(st.paint(st.repo("local"), "local/") + b.String())
		return
	}

	verStyle := st.version
	if _, ok := p.field(r, 'm'); !ok {
		verStyle = st.orphan
	} else if ood, _ := p.field(r, 'o'); ood == "1" {
		verStyle = st.outOfDate
	}
	b.WriteString(st.paint(verStyle, lver))
	if vercmp.Compare(ver, lver) > 0 {
		b.WriteString(" ( aur: " + ver + " )")
	}
	p.line(st.paint(st.repo("aur"), "aur/") + b.String())
}

// size is the figure shown by --show-size: the download size of the update
// when listing upgrades, the installed size of installed packages, and the
// download size of anything else.
func (p *Printer) size(rec *pkg.Package) int64 {
	if rec == nil {
		return 0
	}
	sp := p.env.Handle.SyncPackage(rec)
	switch {
	case p.cfg.Filter&filter.Upgrades != 0:
		if sp != nil {
			return sp.DownloadSize
		}
		return 0
	case rec.Origin == pkg.KindLocal:
		return rec.InstalledSize
	default:
		return rec.DownloadSize
	}
}

func (p *Printer) description(desc string) {
	pad := strings.Repeat(" ", descIndent)
	wrapped := wordwrap.WrapString(desc, uint(p.width-descIndent-1))
	for _, line := range strings.Split(wrapped, "\n") {
		p.line(pad + line)
	}
}

func (p *Printer) line(s string) {
	p.out.WriteString(s)
	p.out.WriteByte('\n')
}
