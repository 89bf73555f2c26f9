package transpiler

import (
	"sort"
	"unicode/utf8"

	"github.com/wippyai/modkit/transpiler/internal/edit"
	"github.com/wippyai/modkit/transpiler/internal/sourcemap"
)

// lineIndex converts byte offsets to zero-based line and UTF-16 column.
type lineIndex struct {
	text   []byte
	starts []int
}

func newLineIndex(text []byte) *lineIndex {
	starts := []int{0}
	for i, b := range text {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &lineIndex{text: text, starts: starts}
}

func (li *lineIndex) position(off int) (line, col int) {
	line = sort.SearchInts(li.starts, off+1) - 1
	for i := li.starts[line]; i < off; {
		r, size := utf8.DecodeRune(li.text[i:])
		if r >= 0x10000 {
			col += 2
		} else {
			col++
		}
		i += size
	}
	return line, col
}

// buildSourceMap maps the start of every token in copied chunks, and the
// start of every replacement, back to the source.
func buildSourceMap(src, out []byte, chunks []edit.Chunk, source string) ([]byte, error) {
	g := sourcemap.NewGenerator("")
	idx := g.AddSource(source, string(src))
	srcLines, outLines := newLineIndex(src), newLineIndex(out)

	add := func(genOff, srcOff int) {
		gl, gc := outLines.position(genOff)
		sl, sc := srcLines.position(srcOff)
		g.Add(sourcemap.Mapping{GenLine: gl, GenCol: gc, SrcLine: sl, SrcCol: sc, Source: idx})
	}

	for _, c := range chunks {
		if !c.Copied {
			if c.Len > 0 && out[c.Gen] != '\n' {
				add(c.Gen, c.Src)
			}
			continue
		}
		for i := 0; i < c.Len; i++ {
			b := src[c.Src+i]
			if isSpace(b) || b >= utf8.RuneSelf && !utf8.RuneStart(b) {
				continue
			}
			if i == 0 || tokenStart(src[c.Src+i-1], b) {
				add(c.Gen+i, c.Src+i)
			}
		}
	}

	return g.Map().JSON()
}

func tokenStart(prev, b byte) bool {
	if isSpace(prev) {
		return true
	}
	return isWord(prev) != isWord(b) || !isWord(b)
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func isWord(b byte) bool {
	return b == '_' || b == '$' || b >= utf8.RuneSelf ||
		'a' <= b && b <= 'z' || 'A' <= b && b <= 'Z' || '0' <= b && b <= '9'
}
