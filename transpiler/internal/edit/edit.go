// Package edit applies non-overlapping byte-range edits to source text.
package edit

import (
	"bytes"
	"sort"
)

// Edit replaces src[Start:End] with Text. KeepLines appends the newlines of
// the removed range so line numbers after it are unchanged.
type Edit struct {
	Text      string
	Start     int
	End       int
	KeepLines bool
}

// Chunk describes one span of the output. Copied chunks are verbatim source
// bytes starting at Src; other chunks are edit text standing in for the
// source range starting at Src.
type Chunk struct {
	Gen    int
	Src    int
	Len    int
	Copied bool
}

// Buffer collects edits against one source.
type Buffer struct {
	edits []Edit
}

// Remove deletes src[start:end], keeping its newlines.
func (b *Buffer) Remove(start, end int) {
	b.add(Edit{Start: start, End: end, KeepLines: true})
}

// RemoveInline deletes src[start:end] entirely.
func (b *Buffer) RemoveInline(start, end int) {
	b.add(Edit{Start: start, End: end})
}

// Replace substitutes text for src[start:end].
func (b *Buffer) Replace(start, end int, text string) {
	b.add(Edit{Start: start, End: end, Text: text})
}

// ReplaceLines substitutes text for src[start:end], keeping the newlines of
// the replaced range after text.
func (b *Buffer) ReplaceLines(start, end int, text string) {
	b.add(Edit{Start: start, End: end, Text: text, KeepLines: true})
}

// Insert adds text before src[at].
func (b *Buffer) Insert(at int, text string) {
	b.add(Edit{Start: at, End: at, Text: text})
}

func (b *Buffer) add(e Edit) {
	if e.End < e.Start {
		return
	}
	if e.End == e.Start && e.Text == "" {
		return
	}
	b.edits = append(b.edits, e)
}

// Len returns the number of recorded edits.
func (b *Buffer) Len() int { return len(b.edits) }

// Edits returns the recorded edits in application order.
func (b *Buffer) Edits() []Edit {
	out := make([]Edit, len(b.edits))
	copy(out, b.edits)
	// Start ascending; inserts before ranges; wider ranges first so they
	// swallow the edits nested inside them
	sort.SliceStable(out, func(i, j int) bool {
		a, c := out[i], out[j]
		if a.Start != c.Start {
			return a.Start < c.Start
		}
		ai, ci := a.End == a.Start, c.End == c.Start
		if ai != ci {
			return ai
		}
		return a.End > c.End
	})
	return out
}

// Apply returns src with the edits applied, plus the chunk layout of the
// output. Edits starting inside an already applied edit are dropped.
func (b *Buffer) Apply(src []byte) ([]byte, []Chunk) {
	out := make([]byte, 0, len(src))
	var chunks []Chunk
	cursor := 0

	copyTo := func(end int) {
		if end > cursor {
			chunks = append(chunks, Chunk{Gen: len(out), Src: cursor, Len: end - cursor, Copied: true})
			out = append(out, src[cursor:end]...)
		}
	}

	for _, e := range b.Edits() {
		if e.Start < cursor || e.End > len(src) {
			continue
		}
		copyTo(e.Start)

		text := e.Text
		if e.KeepLines {
			if n := bytes.Count(src[e.Start:e.End], []byte{'\n'}); n > 0 {
				text += string(bytes.Repeat([]byte{'\n'}, n))
			}
		}
		if text != "" {
			chunks = append(chunks, Chunk{Gen: len(out), Src: e.Start, Len: len(text)})
			out = append(out, text...)
		}
		cursor = e.End
	}
	copyTo(len(src))
	return out, chunks
}
