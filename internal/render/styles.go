package render

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

const defaultWidth = 80

// Color palette for the package listing.
var (
	ColorNumber    = lipgloss.Color("#9CA3AF")
	ColorName      = lipgloss.Color("#F9FAFB")
	ColorVersion   = lipgloss.Color("#10B981")
	ColorGroup     = lipgloss.Color("#3B82F6")
	ColorInstalled = lipgloss.Color("#06B6D4")
	ColorLocalVer  = lipgloss.Color("#10B981")
	ColorOutOfDate = lipgloss.Color("#EF4444")
	ColorVotes     = lipgloss.Color("#F59E0B")
	ColorOrphan    = lipgloss.Color("#EF4444")
	ColorRepo      = lipgloss.Color("#7C3AED")
)

var repoColors = map[string]lipgloss.Color{
	"core":      lipgloss.Color("#EF4444"),
	"extra":     lipgloss.Color("#10B981"),
	"multilib":  lipgloss.Color("#06B6D4"),
	"testing":   lipgloss.Color("#F59E0B"),
	"community": lipgloss.Color("#7C3AED"),
	"local":     lipgloss.Color("#F59E0B"),
	"aur":       lipgloss.Color("#EC4899"),
}

type styles struct {
	enabled   bool
	renderer  *lipgloss.Renderer
	number    lipgloss.Style
	name      lipgloss.Style
	version   lipgloss.Style
	group     lipgloss.Style
	installed lipgloss.Style
	localVer  lipgloss.Style
	outOfDate lipgloss.Style
	votes     lipgloss.Style
	orphan    lipgloss.Style
}

func newStyles(out io.Writer, enabled bool) styles {
	r := lipgloss.NewRenderer(out)
	return styles{
		enabled:   enabled,
		renderer:  r,
		number:    r.NewStyle().Foreground(ColorNumber),
		name:      r.NewStyle().Foreground(ColorName).Bold(true),
		version:   r.NewStyle().Foreground(ColorVersion).Bold(true),
		group:     r.NewStyle().Foreground(ColorGroup).Bold(true),
		installed: r.NewStyle().Foreground(ColorInstalled).Bold(true),
		localVer:  r.NewStyle().Foreground(ColorLocalVer).Bold(true),
		outOfDate: r.NewStyle().Foreground(ColorOutOfDate).Bold(true),
		votes:     r.NewStyle().Foreground(ColorVotes).Bold(true),
		orphan:    r.NewStyle().Foreground(ColorOrphan).Bold(true),
	}
}

// paint renders s with st, or returns it untouched when color is off.
func (s styles) paint(st lipgloss.Style, text string) string {
	if !s.enabled {
		return text
	}
	return st.Render(text)
}

func (s styles) repo(name string) lipgloss.Style {
	c, ok := repoColors[name]
	if !ok {
		c = ColorRepo
	}
	return s.renderer.NewStyle().Foreground(c).Bold(true)
}

// TerminalWidth returns the column count of f, or 80 when f is not a
// terminal.
func TerminalWidth(f *os.File) int {
	fd := f.Fd()
	if !isatty.IsTerminal(fd) {
		return defaultWidth
	}
	w, _, err := term.GetSize(int(fd))
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return w
}
