// Package render prints stash topologies and diff documents for a terminal.
package render

import (
	"bufio"
	"io"
	"time"

	"github.com/alecthomas/chroma/v2"
	"github.com/fatih/color"
)

type Options struct {
	Color  ColorMode
	Theme  Theme
	Syntax bool
	// Now anchors relative timestamps; defaults to time.Now.
	Now func() time.Time
}

// Printer writes colored output. It is not safe for concurrent use.
type Printer struct {
	w       *bufio.Writer
	colored bool
	syntax  bool
	now     func() time.Time

	fileHeader *color.Color
	hunkHeader *color.Color
	added      *color.Color
	deleted    *color.Color
	branch     *color.Color
	stashRef   *color.Color
	dim        *color.Color
	warn       *color.Color

	style  *chroma.Style
	lexers map[string]chroma.Lexer
	tokens map[chroma.TokenType]*color.Color
}

func NewPrinter(w io.Writer, opts Options) *Printer {
	colored := opts.Color == ColorAlways || (opts.Color != ColorNever && !color.NoColor)
	p := &Printer{
		w:       bufio.NewWriter(w),
		colored: colored,
		syntax:  colored && opts.Syntax,
		now:     opts.Now,
	}
	if p.now == nil {
		p.now = time.Now
	}
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	p.fileHeader = mk(color.Bold)
	p.hunkHeader = mk(color.FgCyan)
	p.added = mk(color.FgGreen)
	p.deleted = mk(color.FgRed)
	p.branch = mk(color.FgMagenta, color.Bold)
	p.stashRef = mk(color.FgYellow)
	p.dim = mk(color.Faint)
	p.warn = mk(color.FgRed)
	if p.syntax {
		p.style = styleFor(opts.Theme.isDark())
		p.lexers = map[string]chroma.Lexer{}
		p.tokens = map[chroma.TokenType]*color.Color{}
	}
	return p
}

// Flush writes any buffered output.
func (p *Printer) Flush() error {
	return p.w.Flush()
}

func (p *Printer) line(indent int, parts ...string) {
	for range indent {
		p.w.WriteString("  ")
	}
	for _, s := range parts {
		p.w.WriteString(s)
	}
	p.w.WriteByte('\n')
}

// Separator marks a watch-mode redraw with the time it happened.
func (p *Printer) Separator() {
	p.line(0)
	p.line(0, p.dim.Sprint("== updated "+p.now().Format(time.TimeOnly)+" =="))
}
