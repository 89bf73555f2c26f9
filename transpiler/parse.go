package transpiler

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/wippyai/modkit/errors"
)

// languageFor picks the grammar by extension. Plain TypeScript files use the
// typescript grammar so `<T>expr` assertions parse; everything else, inline
// code included, goes through tsx.
func languageFor(filename string) *sitter.Language {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".ts", ".mts", ".cts":
		return typescript.GetLanguage()
	default:
		return tsx.GetLanguage()
	}
}

// parse builds a syntax tree for src. The caller closes the tree.
func parse(ctx context.Context, src []byte, filename, display string) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(languageFor(filename))

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(errors.PhaseParse, errors.KindParse, err, display)
	}

	if bad := firstError(tree.RootNode()); bad != nil {
		tree.Close()
		p := bad.StartPoint()
		return nil, errors.ParseError(display, int(p.Row)+1, int(p.Column)+1, describeError(bad, src))
	}
	return tree, nil
}

// firstError returns the first ERROR or MISSING node in document order.
func firstError(n *sitter.Node) *sitter.Node {
	if n == nil {
		return nil
	}
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	if !n.HasError() {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if bad := firstError(n.Child(i)); bad != nil {
			return bad
		}
	}
	return nil
}

func describeError(n *sitter.Node, src []byte) string {
	if n.IsMissing() {
		return fmt.Sprintf("missing %q", n.Type())
	}
	text := n.Content(src)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	text = truncate(text, 24)
	if text == "" {
		return "unexpected end of input"
	}
	return fmt.Sprintf("unexpected %q", text)
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
