package backend

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/thiagokokada/stashtree/internal/diff"
)

// treeDiffSource turns go-git tree changes into diff events one file at a
// time, so blobs are only loaded as the consumer advances.
type treeDiffSource struct {
	backend *nativeBackend
	changes object.Changes
	next    int
	pending []diff.Event
	closed  bool
}

func (s *treeDiffSource) Next() (diff.Event, error) {
	for len(s.pending) == 0 {
		if s.closed || s.next >= len(s.changes) {
			return diff.Event{}, io.EOF
		}
		change := s.changes[s.next]
		s.next++
		s.backend.mu.Lock()
		events, err := changeEvents(change, s.backend.opts.ContextLines)
		s.backend.mu.Unlock()
		if err != nil {
			return diff.Event{}, err
		}
		s.pending = events
	}
	ev := s.pending[0]
	s.pending = s.pending[1:]
	return ev, nil
}

func (s *treeDiffSource) Close() error {
	s.closed = true
	s.pending = nil
	return nil
}

func changeEvents(change *object.Change, context int) ([]diff.Event, error) {
	var oldPath, newPath *string
	if change.From.Name != "" {
		oldPath = diff.Path(change.From.Name)
	}
	if change.To.Name != "" {
		newPath = diff.Path(change.To.Name)
	}
	events := []diff.Event{diff.FileHeaderEvent(oldPath, newPath)}
	if change.From.TreeEntry.Mode == filemode.Submodule || change.To.TreeEntry.Mode == filemode.Submodule {
		return events, nil
	}

	from, to, err := change.Files()
	if err != nil {
		return nil, fmt.Errorf("read blobs for %s: %w", changeName(change), err)
	}
	oldLines, oldBinary, err := fileLines(from)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", change.From.Name, err)
	}
	newLines, newBinary, err := fileLines(to)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", change.To.Name, err)
	}
	if oldBinary || newBinary {
		return events, nil
	}
	return append(events, lineEvents(oldLines, newLines, context)...), nil
}

// lineEvents emits a hunk header followed by its lines for every group of
// changes, using git's numbering: 1-based starts, and for an empty range the
// start names the line before it.
func lineEvents(a, b []string, context int) []diff.Event {
	matcher := difflib.NewMatcherWithJunk(a, b, false, nil)
	var events []diff.Event
	for _, group := range matcher.GetGroupedOpCodes(context) {
		first, last := group[0], group[len(group)-1]
		oldCount := last.I2 - first.I1
		newCount := last.J2 - first.J1
		events = append(events, diff.HunkHeaderEvent(
			hunkStart(first.I1, oldCount), oldCount,
			hunkStart(first.J1, newCount), newCount,
		))
		for _, op := range group {
			switch op.Tag {
			case 'e':
				events = appendLines(events, diff.OriginContext, a[op.I1:op.I2])
			case 'd':
				events = appendLines(events, diff.OriginDeletion, a[op.I1:op.I2])
			case 'i':
				events = appendLines(events, diff.OriginAddition, b[op.J1:op.J2])
			case 'r':
				events = appendLines(events, diff.OriginDeletion, a[op.I1:op.I2])
				events = appendLines(events, diff.OriginAddition, b[op.J1:op.J2])
			}
		}
	}
	return events
}

func hunkStart(start, count int) int {
	if count == 0 {
		return start
	}
	return start + 1
}

func appendLines(events []diff.Event, origin diff.Origin, lines []string) []diff.Event {
	for _, l := range lines {
		events = append(events, diff.LineEvent(byte(origin), []byte(strings.TrimSuffix(l, "\r"))))
	}
	return events
}

// fileLines splits a blob into lines without terminators. A nil file (added
// or deleted side) has no lines.
func fileLines(f *object.File) ([]string, bool, error) {
	if f == nil {
		return nil, false, nil
	}
	binary, err := f.IsBinary()
	if err != nil {
		return nil, false, err
	}
	if binary {
		return nil, true, nil
	}
	contents, err := f.Contents()
	if err != nil {
		return nil, false, err
	}
	return splitLines(contents), false, nil
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func changeName(change *object.Change) string {
	if change.To.Name != "" {
		return change.To.Name
	}
	return change.From.Name
}
