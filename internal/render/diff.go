package render

import (
	"strings"

	"github.com/thiagokokada/stashtree/internal/diff"
)

// Diff prints doc in unified form. Without color the output is identical to
// diff.Render.
func (p *Printer) Diff(doc diff.Document, indent int) {
	for _, item := range doc {
		if item.OldPath != nil {
			p.line(indent, p.fileHeader.Sprint("--- a/"+*item.OldPath))
		}
		if item.NewPath != nil {
			p.line(indent, p.fileHeader.Sprint("+++ b/"+*item.NewPath))
		}
		path := item.Path()
		for _, h := range item.Hunks {
			p.line(indent, p.hunkHeader.Sprint(h.Header()))
			for _, l := range h.Lines {
				p.line(indent, p.diffLine(path, l))
			}
		}
	}
}

func (p *Printer) diffLine(path string, l diff.Line) string {
	origin := string(rune(l.Origin))
	if p.syntax {
		code := p.highlight(path, l.Content)
		switch l.Origin {
		case diff.OriginAddition:
			return p.added.Sprint(origin) + code
		case diff.OriginDeletion:
			return p.deleted.Sprint(origin) + code
		default:
			return origin + code
		}
	}
	switch l.Origin {
	case diff.OriginAddition:
		return p.added.Sprint(origin + l.Content)
	case diff.OriginDeletion:
		return p.deleted.Sprint(origin + l.Content)
	default:
		return origin + l.Content
	}
}

// Unavailable prints the placeholder for a stash whose diff failed.
func (p *Printer) Unavailable(reason string, indent int) {
	reason = strings.ReplaceAll(strings.TrimSpace(reason), "\n", " ")
	p.line(indent, p.warn.Sprint("(unavailable: "+reason+")"))
}

// Stats prints a one-line summary such as "2 files changed, 3 insertions(+), 1 deletion(-)".
func (p *Printer) Stats(doc diff.Document, indent int) {
	st := doc.Stats()
	p.line(indent, p.dim.Sprint(formatStats(st)))
}

func formatStats(st diff.Stats) string {
	var b strings.Builder
	b.WriteString(plural(st.Files, "file", "files") + " changed")
	if st.Additions > 0 {
		b.WriteString(", " + plural(st.Additions, "insertion", "insertions") + "(+)")
	}
	if st.Deletions > 0 {
		b.WriteString(", " + plural(st.Deletions, "deletion", "deletions") + "(-)")
	}
	return b.String()
}
