package diff

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(origin byte, content string) Event {
	return LineEvent(origin, []byte(content))
}

func TestFold_TwoFiles(t *testing.T) {
	t.Parallel()

	events := []Event{
		FileHeaderEvent(Path("a.txt"), Path("a.txt")),
		HunkHeaderEvent(1, 1, 1, 2),
		line(' ', "x"),
		line('+', "y"),
		FileHeaderEvent(nil, Path("b.txt")),
		HunkHeaderEvent(0, 0, 1, 1),
		line('+', "z"),
	}

	doc := Fold(events)
	require.Len(t, doc, 2)

	first := doc[0]
	require.NotNil(t, first.OldPath)
	require.NotNil(t, first.NewPath)
	assert.Equal(t, "a.txt", *first.OldPath)
	assert.Equal(t, "a.txt", *first.NewPath)
	require.Len(t, first.Hunks, 1)
	assert.Equal(t, Hunk{
		OldStart: 1, OldLines: 1, NewStart: 1, NewLines: 2,
		Lines: []Line{{Origin: OriginContext, Content: "x"}, {Origin: OriginAddition, Content: "y"}},
	}, first.Hunks[0])

	second := doc[1]
	assert.Nil(t, second.OldPath)
	require.NotNil(t, second.NewPath)
	assert.Equal(t, "b.txt", *second.NewPath)
	require.Len(t, second.Hunks, 1)
	assert.Equal(t, Hunk{
		OldStart: 0, OldLines: 0, NewStart: 1, NewLines: 1,
		Lines: []Line{{Origin: OriginAddition, Content: "z"}},
	}, second.Hunks[0])
}

func TestFold_RepeatedFileHeaderKeepsOneItem(t *testing.T) {
	t.Parallel()

	events := []Event{
		FileHeaderEvent(Path("a.go"), Path("a.go")),
		HunkHeaderEvent(1, 2, 1, 2),
		line('-', "old"),
		line('+', "new"),
		FileHeaderEvent(Path("a.go"), Path("a.go")),
		HunkHeaderEvent(10, 1, 10, 1),
		line(' ', "ctx"),
	}

	doc := Fold(events)
	require.Len(t, doc, 1)
	assert.Len(t, doc[0].Hunks, 2)
}

func TestFold_HunkSplitting(t *testing.T) {
	t.Parallel()

	events := []Event{
		FileHeaderEvent(Path("f"), Path("f")),
		HunkHeaderEvent(1, 1, 1, 1),
		line('-', "a"),
		line('+', "b"),
		HunkHeaderEvent(20, 1, 20, 2),
		line(' ', "c"),
		line('+', "d"),
	}

	doc := Fold(events)
	require.Len(t, doc, 1)
	hunks := doc[0].Hunks
	require.Len(t, hunks, 2)
	assert.Equal(t, []Line{{OriginDeletion, "a"}, {OriginAddition, "b"}}, hunks[0].Lines)
	assert.Equal(t, []Line{{OriginContext, "c"}, {OriginAddition, "d"}}, hunks[1].Lines)
}

func TestFold_SameHunkStartContinuesHunk(t *testing.T) {
	t.Parallel()

	events := []Event{
		FileHeaderEvent(Path("f"), Path("f")),
		HunkHeaderEvent(3, 1, 3, 1),
		line('-', "a"),
		HunkHeaderEvent(3, 1, 3, 1),
		line('+', "b"),
	}

	doc := Fold(events)
	require.Len(t, doc, 1)
	require.Len(t, doc[0].Hunks, 1)
	assert.Len(t, doc[0].Hunks[0].Lines, 2)
}

func TestFold_DropsNoise(t *testing.T) {
	t.Parallel()

	events := []Event{
		line('+', "before any hunk"),
		FileHeaderEvent(Path("f"), Path("f")),
		line(' ', "before first hunk header"),
		HunkHeaderEvent(1, 1, 1, 1),
		line('H', "@@ -1 +1 @@"),
		line('F', "diff --git a/f b/f"),
		line('\\', " No newline at end of file"),
		line('=', "whatever"),
		line('-', "kept"),
	}

	doc := Fold(events)
	require.Len(t, doc, 1)
	require.Len(t, doc[0].Hunks, 1)
	assert.Equal(t, []Line{{OriginDeletion, "kept"}}, doc[0].Hunks[0].Lines)
	for _, item := range doc {
		for _, h := range item.Hunks {
			for _, l := range h.Lines {
				assert.True(t, l.Origin.valid(), "unexpected origin %q", l.Origin)
			}
		}
	}
}

func TestFold_HunkBeforeFileHeaderIsDropped(t *testing.T) {
	t.Parallel()

	events := []Event{
		HunkHeaderEvent(1, 1, 1, 1),
		line('+', "orphan"),
		FileHeaderEvent(Path("f"), nil),
		HunkHeaderEvent(1, 1, 0, 0),
		line('-', "gone"),
	}

	doc := Fold(events)
	require.Len(t, doc, 1)
	assert.Nil(t, doc[0].NewPath)
	require.Len(t, doc[0].Hunks, 1)
	assert.Equal(t, []Line{{OriginDeletion, "gone"}}, doc[0].Hunks[0].Lines)
}

func TestFold_FileWithoutHunks(t *testing.T) {
	t.Parallel()

	doc := Fold([]Event{
		FileHeaderEvent(Path("image.png"), Path("image.png")),
		FileHeaderEvent(Path("b"), Path("b")),
	})
	require.Len(t, doc, 2)
	assert.Empty(t, doc[0].Hunks)
	assert.Empty(t, doc[1].Hunks)
}

func TestFold_Empty(t *testing.T) {
	t.Parallel()

	doc := Fold(nil)
	assert.NotNil(t, doc)
	assert.Empty(t, doc)
}

func TestFold_InvalidUTF8IsReplaced(t *testing.T) {
	t.Parallel()

	doc := Fold([]Event{
		FileHeaderEvent(Path("bin"), Path("bin")),
		HunkHeaderEvent(1, 1, 1, 1),
		LineEvent('+', []byte{'o', 'k', 0xff, 0xfe}),
	})
	require.Len(t, doc, 1)
	assert.Equal(t, "ok\uFFFD", doc[0].Hunks[0].Lines[0].Content)
}

func TestBuild_Idempotent(t *testing.T) {
	t.Parallel()

	events := []Event{
		FileHeaderEvent(Path("a"), Path("a")),
		HunkHeaderEvent(1, 2, 1, 3),
		line(' ', "1"),
		line('+', "2"),
		line(' ', "3"),
		FileHeaderEvent(Path("b"), nil),
		HunkHeaderEvent(1, 1, 0, 0),
		line('-', "gone"),
	}

	first, err := Build(NewSliceSource(events))
	require.NoError(t, err)
	second, err := Build(NewSliceSource(events))
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, Fold(events), first)
}

type failingSource struct {
	events []Event
	err    error
}

func (f *failingSource) Next() (Event, error) {
	if len(f.events) == 0 {
		return Event{}, f.err
	}
	ev := f.events[0]
	f.events = f.events[1:]
	return ev, nil
}

func (f *failingSource) Close() error { return nil }

func TestBuild_SourceErrorReturnsNoDocument(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	doc, err := Build(&failingSource{
		events: []Event{FileHeaderEvent(Path("a"), Path("a")), HunkHeaderEvent(1, 1, 1, 1)},
		err:    boom,
	})
	require.ErrorIs(t, err, boom)
	assert.Nil(t, doc)
}

func TestBuild_EOFEndsStream(t *testing.T) {
	t.Parallel()

	doc, err := Build(&failingSource{
		events: []Event{FileHeaderEvent(Path("a"), Path("a"))},
		err:    io.EOF,
	})
	require.NoError(t, err)
	assert.Len(t, doc, 1)
}

func TestDocumentStats(t *testing.T) {
	t.Parallel()

	doc := Fold([]Event{
		FileHeaderEvent(Path("a"), Path("a")),
		HunkHeaderEvent(1, 2, 1, 2),
		line('-', "x"),
		line('+', "y"),
		line('+', "z"),
		line(' ', "w"),
	})
	assert.Equal(t, Stats{Files: 1, Additions: 2, Deletions: 1}, doc.Stats())
}

func TestItemPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "new", Item{OldPath: Path("old"), NewPath: Path("new")}.Path())
	assert.Equal(t, "old", Item{OldPath: Path("old")}.Path())
	assert.Equal(t, "(unknown)", Item{}.Path())
}
