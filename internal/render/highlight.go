package render

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/fatih/color"
)

func styleFor(dark bool) *chroma.Style {
	name := "github"
	if dark {
		name = "github-dark"
	}
	if st := styles.Get(name); st != nil {
		return st
	}
	return styles.Fallback
}

func lexerForPath(path string) chroma.Lexer {
	if path == "" {
		return nil
	}
	lexer := lexers.Match(path)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}

func (p *Printer) lexer(path string) chroma.Lexer {
	if l, ok := p.lexers[path]; ok {
		return l
	}
	l := lexerForPath(path)
	p.lexers[path] = l
	return l
}

// highlight colors code token by token. Text the lexer does not account for
// is written uncolored.
func (p *Printer) highlight(path, code string) string {
	lexer := p.lexer(path)
	if lexer == nil || code == "" {
		return code
	}
	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var b strings.Builder
	rest := code
	for _, token := range iterator.Tokens() {
		if token.Value == "" {
			continue
		}
		value := token.Value
		if !strings.HasPrefix(rest, value) {
			// Lexers may append a newline the line never had.
			if !strings.HasPrefix(value, rest) {
				break
			}
			value = rest
		}
		if value == "" {
			break
		}
		rest = rest[len(value):]
		if c := p.tokenColor(token.Type); c != nil {
			b.WriteString(c.Sprint(value))
		} else {
			b.WriteString(value)
		}
	}
	b.WriteString(rest)
	return b.String()
}

// tokenColor returns nil for tokens the style leaves unstyled.
func (p *Printer) tokenColor(tt chroma.TokenType) *color.Color {
	if c, ok := p.tokens[tt]; ok {
		return c
	}
	entry := p.style.Get(tt)
	var c *color.Color
	switch {
	case entry.Colour.IsSet():
		c = color.RGB(int(entry.Colour.Red()), int(entry.Colour.Green()), int(entry.Colour.Blue()))
	case entry.Bold == chroma.Yes || entry.Italic == chroma.Yes:
		c = color.New()
	default:
		p.tokens[tt] = nil
		return nil
	}
	if entry.Bold == chroma.Yes {
		c.Add(color.Bold)
	}
	if entry.Italic == chroma.Yes {
		c.Add(color.Italic)
	}
	c.EnableColor()
	p.tokens[tt] = c
	return c
}
