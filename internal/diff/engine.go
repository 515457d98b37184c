package diff

import (
	"errors"
	"io"
	"strings"
)

// Build drains src and folds its events into a Document.
//
// Malformed or out-of-order events never fail the build; they are absorbed by
// the boundary rules in builder.apply. An error returned by src other than
// io.EOF aborts the build and no partial document is returned. Build does not
// close src.
func Build(src Source) (Document, error) {
	var b builder
	for {
		ev, err := src.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		b.apply(ev)
	}
	return b.finish(), nil
}

// Fold is Build over an in-memory event slice.
func Fold(events []Event) Document {
	var b builder
	for _, ev := range events {
		b.apply(ev)
	}
	return b.finish()
}

// builder holds at most one open item and one open hunk.
type builder struct {
	doc  Document
	item *Item
	hunk *Hunk
}

func (b *builder) apply(ev Event) {
	switch ev.Kind {
	case KindFileHeader:
		if b.item != nil && samePath(b.item.OldPath, ev.OldPath) && samePath(b.item.NewPath, ev.NewPath) {
			return
		}
		b.closeHunk()
		b.closeItem()
		b.item = &Item{
			OldPath: copyPath(ev.OldPath),
			NewPath: copyPath(ev.NewPath),
			Hunks:   []Hunk{},
		}
	case KindHunkHeader:
		if b.hunk != nil && b.hunk.OldStart == ev.OldStart && b.hunk.NewStart == ev.NewStart {
			return
		}
		b.closeHunk()
		b.hunk = &Hunk{
			OldStart: ev.OldStart,
			OldLines: ev.OldLines,
			NewStart: ev.NewStart,
			NewLines: ev.NewLines,
			Lines:    []Line{},
		}
	case KindLine:
		origin := Origin(ev.Origin)
		if !origin.valid() || b.hunk == nil {
			return
		}
		b.hunk.Lines = append(b.hunk.Lines, Line{
			Origin:  origin,
			Content: strings.ToValidUTF8(string(ev.Content), "\uFFFD"),
		})
	}
}

// closeHunk moves the open hunk into the open item. A hunk opened before any
// file header has nowhere to go and is dropped.
func (b *builder) closeHunk() {
	if b.hunk != nil && b.item != nil {
		b.item.Hunks = append(b.item.Hunks, *b.hunk)
	}
	b.hunk = nil
}

func (b *builder) closeItem() {
	if b.item != nil {
		b.doc = append(b.doc, *b.item)
	}
	b.item = nil
}

func (b *builder) finish() Document {
	b.closeHunk()
	b.closeItem()
	doc := b.doc
	if doc == nil {
		doc = Document{}
	}
	b.doc = nil
	return doc
}

func samePath(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func copyPath(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
