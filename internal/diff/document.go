package diff

import "strings"

type Origin byte

const (
	OriginContext  Origin = ' '
	OriginAddition Origin = '+'
	OriginDeletion Origin = '-'
)

func (o Origin) valid() bool {
	return o == OriginContext || o == OriginAddition || o == OriginDeletion
}

type Line struct {
	Origin  Origin
	Content string // without the line terminator
}

type Hunk struct {
	OldStart int
	OldLines int
	NewStart int
	NewLines int
	Lines    []Line
}

type Item struct {
	OldPath *string
	NewPath *string
	Hunks   []Hunk
}

// Path returns the path best suited for display: the new path unless the file
// was deleted.
func (it Item) Path() string {
	if it.NewPath != nil && *it.NewPath != "" {
		return *it.NewPath
	}
	if it.OldPath != nil && *it.OldPath != "" {
		return *it.OldPath
	}
	return "(unknown)"
}

// Document is the ordered list of file changes for one comparison, in the
// order the files were produced by the source.
type Document []Item

type Stats struct {
	Files     int
	Additions int
	Deletions int
}

func (d Document) Stats() Stats {
	st := Stats{Files: len(d)}
	for _, item := range d {
		for _, h := range item.Hunks {
			for _, l := range h.Lines {
				switch l.Origin {
				case OriginAddition:
					st.Additions++
				case OriginDeletion:
					st.Deletions++
				}
			}
		}
	}
	return st
}

func (d Document) String() string {
	var b strings.Builder
	// strings.Builder never fails to write.
	_ = Render(&b, d)
	return b.String()
}
