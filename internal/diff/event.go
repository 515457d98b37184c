// Package diff reconstructs structured diff documents from a stream of
// line-oriented diff events.
package diff

import "io"

type Kind uint8

const (
	KindFileHeader Kind = iota
	KindHunkHeader
	KindLine
)

func (k Kind) String() string {
	switch k {
	case KindFileHeader:
		return "file"
	case KindHunkHeader:
		return "hunk"
	case KindLine:
		return "line"
	default:
		return "unknown"
	}
}

// Event is one record produced by a diff source. Only the fields relevant to
// Kind are set.
type Event struct {
	Kind Kind

	// KindFileHeader; nil means the side is absent (created or deleted file).
	OldPath *string
	NewPath *string

	// KindHunkHeader
	OldStart int
	OldLines int
	NewStart int
	NewLines int

	// KindLine
	Origin  byte
	Content []byte
}

func FileHeaderEvent(oldPath, newPath *string) Event {
	return Event{Kind: KindFileHeader, OldPath: oldPath, NewPath: newPath}
}

func HunkHeaderEvent(oldStart, oldLines, newStart, newLines int) Event {
	return Event{
		Kind:     KindHunkHeader,
		OldStart: oldStart,
		OldLines: oldLines,
		NewStart: newStart,
		NewLines: newLines,
	}
}

func LineEvent(origin byte, content []byte) Event {
	return Event{Kind: KindLine, Origin: origin, Content: content}
}

// Path returns a pointer to a copy of p, for building file header events.
func Path(p string) *string {
	return &p
}

// Source is a forward-only, single-pass stream of diff events.
//
// Next returns io.EOF once the stream is exhausted. A stream cannot be
// restarted; request a new one from the backend for a second pass.
type Source interface {
	Next() (Event, error)
	Close() error
}

// SliceSource replays a fixed slice of events.
type SliceSource struct {
	events []Event
	pos    int
}

func NewSliceSource(events []Event) *SliceSource {
	return &SliceSource{events: events}
}

func (s *SliceSource) Next() (Event, error) {
	if s.pos >= len(s.events) {
		return Event{}, io.EOF
	}
	ev := s.events[s.pos]
	s.pos++
	return ev, nil
}

func (s *SliceSource) Close() error {
	s.pos = len(s.events)
	return nil
}
