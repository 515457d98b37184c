package diff

import (
	"bufio"
	"fmt"
	"io"
)

// Render writes doc as unified diff text. Absent paths omit their header line.
func Render(w io.Writer, doc Document) error {
	bw := bufio.NewWriter(w)
	for _, item := range doc {
		if item.OldPath != nil {
			fmt.Fprintf(bw, "--- a/%s\n", *item.OldPath)
		}
		if item.NewPath != nil {
			fmt.Fprintf(bw, "+++ b/%s\n", *item.NewPath)
		}
		for _, h := range item.Hunks {
			fmt.Fprintln(bw, h.Header())
			for _, l := range h.Lines {
				bw.WriteByte(byte(l.Origin))
				bw.WriteString(l.Content)
				bw.WriteByte('\n')
			}
		}
	}
	return bw.Flush()
}

func (h Hunk) Header() string {
	return fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OldStart, h.OldLines, h.NewStart, h.NewLines)
}
