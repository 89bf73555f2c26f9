// Package sourcemap generates version 3 source maps.
package sourcemap

import (
	"encoding/base64"
	"encoding/json"
	"sort"
	"strings"
)

// InlinePrefix starts an inline source map comment.
const InlinePrefix = "//# sourceMappingURL=data:application/json;base64,"

const base64Digits = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// Mapping links a generated position to a source position.
// Lines and columns are zero-based; columns count UTF-16 code units.
type Mapping struct {
	GenLine int
	GenCol  int
	SrcLine int
	SrcCol  int
	Source  int
}

// Map is the JSON form of a source map.
type Map struct {
	File           string   `json:"file,omitempty"`
	Mappings       string   `json:"mappings"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent,omitempty"`
	Names          []string `json:"names"`
	Version        int      `json:"version"`
}

// Generator accumulates mappings for one generated file.
type Generator struct {
	file     string
	sources  []string
	contents []string
	mappings []Mapping
}

// NewGenerator creates a generator for the named output file.
func NewGenerator(file string) *Generator {
	return &Generator{file: file}
}

// AddSource registers a source file and returns its index.
func (g *Generator) AddSource(name, content string) int {
	g.sources = append(g.sources, name)
	g.contents = append(g.contents, content)
	return len(g.sources) - 1
}

// Add records a mapping.
func (g *Generator) Add(m Mapping) {
	g.mappings = append(g.mappings, m)
}

// Len returns the number of recorded mappings.
func (g *Generator) Len() int { return len(g.mappings) }

// Map encodes the recorded mappings.
func (g *Generator) Map() *Map {
	ms := make([]Mapping, len(g.mappings))
	copy(ms, g.mappings)
	sort.SliceStable(ms, func(i, j int) bool {
		if ms[i].GenLine != ms[j].GenLine {
			return ms[i].GenLine < ms[j].GenLine
		}
		return ms[i].GenCol < ms[j].GenCol
	})

	sources := g.sources
	if sources == nil {
		sources = []string{}
	}
	return &Map{
		Version:        3,
		File:           g.file,
		Sources:        sources,
		SourcesContent: g.contents,
		Names:          []string{},
		Mappings:       encode(ms),
	}
}

func encode(ms []Mapping) string {
	var b []byte
	line := 0
	prevGenCol, prevSource, prevSrcLine, prevSrcCol := 0, 0, 0, 0
	first := true

	for _, m := range ms {
		for line < m.GenLine {
			b = append(b, ';')
			line++
			prevGenCol = 0
			first = true
		}
		if !first {
			b = append(b, ',')
		}
		first = false

		b = appendVLQ(b, m.GenCol-prevGenCol)
		b = appendVLQ(b, m.Source-prevSource)
		b = appendVLQ(b, m.SrcLine-prevSrcLine)
		b = appendVLQ(b, m.SrcCol-prevSrcCol)

		prevGenCol = m.GenCol
		prevSource = m.Source
		prevSrcLine = m.SrcLine
		prevSrcCol = m.SrcCol
	}
	return string(b)
}

// appendVLQ appends v as a base64 variable-length quantity.
func appendVLQ(b []byte, v int) []byte {
	u := v << 1
	if v < 0 {
		u = (-v << 1) | 1
	}
	for {
		digit := u & 31
		u >>= 5
		if u > 0 {
			digit |= 32
		}
		b = append(b, base64Digits[digit])
		if u == 0 {
			return b
		}
	}
}

// JSON encodes the map.
func (m *Map) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// InlineComment returns the sourceMappingURL comment embedding data.
func InlineComment(data []byte) string {
	var sb strings.Builder
	sb.Grow(len(InlinePrefix) + base64.StdEncoding.EncodedLen(len(data)))
	sb.WriteString(InlinePrefix)
	sb.WriteString(base64.StdEncoding.EncodeToString(data))
	return sb.String()
}

// DecodeInline extracts the JSON payload of an inline comment in code.
func DecodeInline(code string) ([]byte, bool) {
	i := strings.LastIndex(code, InlinePrefix)
	if i < 0 {
		return nil, false
	}
	payload := strings.TrimSpace(code[i+len(InlinePrefix):])
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, false
	}
	return data, true
}
