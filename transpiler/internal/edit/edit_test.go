package edit

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestApply(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		edits func(b *Buffer)
		want  string
	}{
		{
			name:  "no edits",
			src:   "let a = 1;",
			edits: func(b *Buffer) {},
			want:  "let a = 1;",
		},
		{
			name:  "inline removal",
			src:   "const x: string = 'a';",
			edits: func(b *Buffer) { b.RemoveInline(7, 15) },
			want:  "const x = 'a';",
		},
		{
			name:  "removal keeps lines",
			src:   "interface A {\n  x: number\n}\nlet a;",
			edits: func(b *Buffer) { b.Remove(0, 27) },
			want:  "\n\n\nlet a;",
		},
		{
			name: "nested edit dropped",
			src:  "type A = B<C>;\nx",
			edits: func(b *Buffer) {
				b.RemoveInline(10, 13)
				b.Remove(0, 14)
			},
			want: "\nx",
		},
		{
			name: "insert before removal",
			src:  "abcdef",
			edits: func(b *Buffer) {
				b.RemoveInline(2, 4)
				b.Insert(2, "X")
			},
			want: "abXef",
		},
		{
			name: "adjacent edits",
			src:  "abcdef",
			edits: func(b *Buffer) {
				b.Replace(0, 2, "1")
				b.Replace(2, 4, "2")
			},
			want: "12ef",
		},
		{
			name: "out of range ignored",
			src:  "abc",
			edits: func(b *Buffer) {
				b.RemoveInline(1, 10)
			},
			want: "abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b Buffer
			tt.edits(&b)
			got, _ := b.Apply([]byte(tt.src))
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestApply_Chunks(t *testing.T) {
	var b Buffer
	b.RemoveInline(7, 15)
	b.Replace(18, 21, `"b"`)

	out, chunks := b.Apply([]byte("const x: string = 'a';"))
	assert.Equal(t, `const x = "b";`, string(out))

	want := []Chunk{
		{Gen: 0, Src: 0, Len: 7, Copied: true},
		{Gen: 7, Src: 15, Len: 3, Copied: true},
		{Gen: 10, Src: 18, Len: 3},
		{Gen: 13, Src: 21, Len: 1, Copied: true},
	}
	if diff := cmp.Diff(want, chunks); diff != "" {
		t.Errorf("chunks mismatch (-want +got):\n%s", diff)
	}
}

func TestBuffer_IgnoresEmpty(t *testing.T) {
	var b Buffer
	b.Insert(3, "")
	b.RemoveInline(5, 2)
	assert.Zero(t, b.Len())
}
