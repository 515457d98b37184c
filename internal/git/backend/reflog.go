package backend

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strings"
)

const stashReflogPath = "logs/refs/stash"

// parseStashReflog reads a refs/stash reflog. Each line looks like
//
//	<old> <new> Name <email> <unix-time> <tz>\t<message>
//
// and lines are appended oldest first, so the last line is stash@{0}.
func parseStashReflog(r io.Reader) ([]Stash, error) {
	var stashes []Stash
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		head, message, _ := strings.Cut(line, "\t")
		fields := strings.Fields(head)
		if len(fields) < 2 {
			return nil, fmt.Errorf("stash reflog line %d: unexpected format: %q", lineNo, line)
		}
		hash := fields[1]
		if !isHexHash(hash) {
			return nil, fmt.Errorf("stash reflog line %d: invalid hash %q", lineNo, hash)
		}
		if isZeroHash(hash) {
			continue
		}
		stashes = append(stashes, Stash{Message: message, Hash: hash})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read stash reflog: %w", err)
	}
	slices.Reverse(stashes)
	for i := range stashes {
		stashes[i].Index = i
	}
	return stashes, nil
}

func isHexHash(s string) bool {
	if len(s) != 40 && len(s) != 64 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func isZeroHash(s string) bool {
	return strings.Trim(s, "0") == ""
}
