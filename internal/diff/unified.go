package diff

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"
)

// ParseUnified returns a lazy Source over unified diff text, such as the output
// of "git diff". The caller keeps ownership of r.
//
// Line counts from hunk headers are only used to tell body lines apart from
// the next file's "---"/"+++" markers; anything unrecognised is skipped.
func ParseUnified(r io.Reader) Source {
	return &unifiedSource{r: bufio.NewReader(r)}
}

type unifiedSource struct {
	r       *bufio.Reader
	pending []Event
	header  *pendingHeader
	oldLeft int
	newLeft int
	done    bool
}

type pendingHeader struct {
	oldPath *string
	newPath *string
}

func (s *unifiedSource) Next() (Event, error) {
	for len(s.pending) == 0 {
		if s.done {
			return Event{}, io.EOF
		}
		line, err := s.r.ReadBytes('\n')
		if len(line) > 0 {
			s.handle(trimEOL(line))
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return Event{}, err
			}
			s.flushHeader()
			s.done = true
		}
	}
	ev := s.pending[0]
	s.pending = s.pending[1:]
	return ev, nil
}

func (s *unifiedSource) Close() error {
	s.done = true
	s.pending = nil
	return nil
}

func (s *unifiedSource) emit(ev Event) {
	s.pending = append(s.pending, ev)
}

func (s *unifiedSource) handle(line []byte) {
	if s.oldLeft > 0 || s.newLeft > 0 {
		if s.handleBody(line) {
			return
		}
		s.oldLeft, s.newLeft = 0, 0
	}
	text := string(line)
	switch {
	case strings.HasPrefix(text, "diff --git "):
		s.flushHeader()
		oldPath, newPath := parseGitDiffPaths(text)
		s.header = &pendingHeader{oldPath: oldPath, newPath: newPath}
	case s.header != nil && strings.HasPrefix(text, "new file mode"):
		s.header.oldPath = nil
	case s.header != nil && strings.HasPrefix(text, "deleted file mode"):
		s.header.newPath = nil
	case s.header != nil && strings.HasPrefix(text, "rename from "):
		s.header.oldPath = Path(unquotePath(strings.TrimPrefix(text, "rename from ")))
	case s.header != nil && strings.HasPrefix(text, "rename to "):
		s.header.newPath = Path(unquotePath(strings.TrimPrefix(text, "rename to ")))
	case strings.HasPrefix(text, "--- "):
		if s.header == nil {
			s.header = &pendingHeader{}
		}
		s.header.oldPath = parseMarkerPath(text[4:], "a/")
	case strings.HasPrefix(text, "+++ "):
		if s.header == nil {
			s.header = &pendingHeader{}
		}
		s.header.newPath = parseMarkerPath(text[4:], "b/")
		s.flushHeader()
	case strings.HasPrefix(text, "@@ "):
		oldStart, oldLines, newStart, newLines, ok := parseHunkHeader(text)
		if !ok {
			return
		}
		s.flushHeader()
		s.emit(HunkHeaderEvent(oldStart, oldLines, newStart, newLines))
		s.oldLeft, s.newLeft = oldLines, newLines
	case strings.HasPrefix(text, "Binary files "):
		s.flushHeader()
	case len(line) > 0 && (line[0] == ' ' || line[0] == '+' || line[0] == '-' || line[0] == '\\'):
		// Body line outside the counted hunk range; the engine decides what to keep.
		s.emit(LineEvent(line[0], line[1:]))
	}
}

// handleBody consumes a line inside a counted hunk. It reports false when the
// line cannot belong to the hunk.
func (s *unifiedSource) handleBody(line []byte) bool {
	if len(line) == 0 {
		// Some tools strip the single space of empty context lines.
		s.oldLeft--
		s.newLeft--
		s.emit(LineEvent(' ', nil))
		return true
	}
	switch line[0] {
	case ' ':
		s.oldLeft--
		s.newLeft--
	case '-':
		s.oldLeft--
	case '+':
		s.newLeft--
	case '\\':
	default:
		return false
	}
	s.emit(LineEvent(line[0], line[1:]))
	return true
}

func (s *unifiedSource) flushHeader() {
	h := s.header
	s.header = nil
	if h == nil || (h.oldPath == nil && h.newPath == nil) {
		return
	}
	s.emit(FileHeaderEvent(h.oldPath, h.newPath))
}

func trimEOL(line []byte) []byte {
	if n := len(line); n > 0 && line[n-1] == '\n' {
		line = line[:n-1]
	}
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return line
}

func parseHunkHeader(line string) (oldStart, oldLines, newStart, newLines int, ok bool) {
	rest := strings.TrimPrefix(line, "@@ ")
	end := strings.Index(rest, " @@")
	if end < 0 {
		return 0, 0, 0, 0, false
	}
	fields := strings.Fields(rest[:end])
	if len(fields) != 2 || !strings.HasPrefix(fields[0], "-") || !strings.HasPrefix(fields[1], "+") {
		return 0, 0, 0, 0, false
	}
	oldStart, oldLines, ok = parseRange(fields[0][1:])
	if !ok {
		return 0, 0, 0, 0, false
	}
	newStart, newLines, ok = parseRange(fields[1][1:])
	if !ok {
		return 0, 0, 0, 0, false
	}
	return oldStart, oldLines, newStart, newLines, true
}

// parseRange parses "start[,count]"; an omitted count means 1.
func parseRange(s string) (start, count int, ok bool) {
	startStr, countStr, hasCount := strings.Cut(s, ",")
	start, err := strconv.Atoi(startStr)
	if err != nil || start < 0 {
		return 0, 0, false
	}
	if !hasCount {
		return start, 1, true
	}
	count, err = strconv.Atoi(countStr)
	if err != nil || count < 0 {
		return 0, 0, false
	}
	return start, count, true
}

func parseMarkerPath(raw, prefix string) *string {
	// git appends a tab to marker paths that contain spaces.
	if idx := strings.IndexByte(raw, '\t'); idx >= 0 {
		raw = raw[:idx]
	}
	if raw == "/dev/null" {
		return nil
	}
	return Path(strings.TrimPrefix(unquotePath(raw), prefix))
}

func parseGitDiffPaths(line string) (*string, *string) {
	rest := strings.TrimSpace(strings.TrimPrefix(line, "diff --git "))
	tokens := diffLineTokens(rest)
	if len(tokens) == 2 {
		return Path(strings.TrimPrefix(tokens[0], "a/")), Path(strings.TrimPrefix(tokens[1], "b/"))
	}
	// Unquoted paths with spaces: "a/x y b/x y" splits evenly when both sides match.
	if half := len(rest) / 2; len(rest)%2 == 1 && rest[half] == ' ' {
		oldPath := strings.TrimPrefix(rest[:half], "a/")
		newPath := strings.TrimPrefix(rest[half+1:], "b/")
		if oldPath == newPath {
			return Path(oldPath), Path(newPath)
		}
	}
	return nil, nil
}

func diffLineTokens(s string) []string {
	var tokens []string
	for {
		s = strings.TrimLeft(s, " \t")
		if s == "" {
			break
		}
		if s[0] == '"' {
			i := 1
			for i < len(s) && s[i] != '"' {
				if s[i] == '\\' {
					i++
				}
				i++
			}
			if i < len(s) {
				i++
			}
			if i > len(s) {
				i = len(s)
			}
			tokens = append(tokens, unquotePath(s[:i]))
			s = s[i:]
			continue
		}
		j := 0
		for j < len(s) && s[j] != ' ' && s[j] != '\t' {
			j++
		}
		tokens = append(tokens, s[:j])
		s = s[j:]
	}
	return tokens
}

// unquotePath undoes git's C-style quoting of paths with special characters.
func unquotePath(s string) string {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		return unquoted
	}
	return s[1 : len(s)-1]
}
