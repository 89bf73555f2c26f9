package transpiler

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"go.uber.org/zap"

	"github.com/wippyai/modkit/resolver"
)

// ImportStatus is the outcome of rewriting one import specifier.
type ImportStatus uint8

const (
	// Resolved means the specifier now names the resolved file.
	Resolved ImportStatus = iota
	// Unchanged means resolution failed and the specifier was kept.
	Unchanged
	// External means the specifier is configured external and was kept.
	External
)

func (s ImportStatus) String() string {
	switch s {
	case Resolved:
		return "resolved"
	case Unchanged:
		return "unchanged"
	case External:
		return "external"
	default:
		return "status(" + strconv.Itoa(int(s)) + ")"
	}
}

// ImportRewrite records what happened to one import specifier.
type ImportRewrite struct {
	Err       error
	Specifier string
	Resolved  string
	Line      int
	Column    int
	Status    ImportStatus
	Dynamic   bool
}

// importSite is a string literal naming a module.
type importSite struct {
	spec    string
	start   int // first byte inside the quotes
	end     int
	quote   byte
	line    int
	column  int
	dynamic bool
}

func (w *walker) importStatement(n *sitter.Node) {
	if hasToken(n, "type") {
		w.remove(n)
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "import_require_clause":
			w.unsupported(n, "import assignment")
			return
		case "import_clause":
			for j := 0; j < int(c.NamedChildCount()); j++ {
				if named := c.NamedChild(j); named.Type() == "named_imports" {
					w.specifierList(named, "import_specifier")
				}
			}
		}
	}
	w.addSite(n.ChildByFieldName("source"), false)
}

func (w *walker) exportStatement(n *sitter.Node) {
	switch {
	case hasToken(n, "type"):
		w.remove(n)
		return
	case hasToken(n, "="):
		w.unsupported(n, "export assignment")
		return
	case hasToken(n, "as") && hasToken(n, "namespace"):
		w.remove(n)
		return
	}

	source := n.ChildByFieldName("source")
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch {
		case typeDeclarations[c.Type()]:
			w.remove(n)
			return
		case c.Type() == "export_clause":
			w.specifierList(c, "export_specifier")
		case sameNode(c, source):
		default:
			w.visit(c)
		}
	}
	w.addSite(source, false)
}

// specifierList drops `type`-prefixed specifiers from an import or export
// brace list.
func (w *walker) specifierList(list *sitter.Node, kind string) {
	var kept []string
	dropped := false
	for i := 0; i < int(list.NamedChildCount()); i++ {
		s := list.NamedChild(i)
		if s.Type() != kind {
			continue
		}
		if hasToken(s, "type") {
			dropped = true
			continue
		}
		kept = append(kept, w.text(s))
	}
	if dropped {
		w.buf.ReplaceLines(int(list.StartByte()), int(list.EndByte()), joinSpecifiers(kept))
	}
}

// dynamicImport records import("x") calls with a literal argument.
func (w *walker) dynamicImport(n *sitter.Node) {
	fn := n.ChildByFieldName("function")
	if fn == nil || fn.Type() != "import" {
		return
	}
	args := n.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return
	}
	w.addSite(args.NamedChild(0), true)
}

func (w *walker) addSite(n *sitter.Node, dynamic bool) {
	if n == nil || n.Type() != "string" {
		return
	}
	start, end := int(n.StartByte()), int(n.EndByte())
	if end-start < 2 {
		return
	}
	raw := w.src[start:end]
	p := n.StartPoint()
	w.sites = append(w.sites, importSite{
		spec:    unquote(string(raw[1 : len(raw)-1])),
		start:   start + 1,
		end:     end - 1,
		quote:   raw[0],
		line:    int(p.Row) + 1,
		column:  int(p.Column) + 1,
		dynamic: dynamic,
	})
}

// rewriteImports resolves every import site against referrer. Failures are
// reported on the rewrite record and leave the specifier untouched.
func (t *Transpiler) rewriteImports(w *walker, referrer string) []ImportRewrite {
	if !t.cfg.ResolveImport || t.resolver == nil || len(w.sites) == 0 {
		return nil
	}

	out := make([]ImportRewrite, 0, len(w.sites))
	for _, s := range w.sites {
		rw := ImportRewrite{
			Specifier: s.spec,
			Resolved:  s.spec,
			Line:      s.line,
			Column:    s.column,
			Dynamic:   s.dynamic,
		}

		res, err := t.resolver.Resolve(s.spec, referrer, resolver.Import)
		switch {
		case err != nil:
			rw.Status = Unchanged
			rw.Err = err
			t.log.Warn("import not resolved",
				zap.String("file", w.display),
				zap.String("specifier", s.spec),
				zap.Int("line", s.line),
				zap.Int("column", s.column),
				zap.Error(err))
		case res.Kind == resolver.External:
			rw.Status = External
		default:
			rw.Status = Resolved
			rw.Resolved = res.Path
			if res.Kind == resolver.File {
				rw.Resolved = t.cfg.ImportPrefix + res.Path
			}
			if rw.Resolved != s.spec {
				w.buf.Replace(s.start, s.end, quoteInner(rw.Resolved, s.quote))
			}
		}
		out = append(out, rw)
	}
	return out
}

// unquote resolves the escapes that can appear in a module specifier.
func unquote(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

func quoteInner(s string, quote byte) string {
	if strings.IndexByte(s, quote) < 0 && !strings.ContainsRune(s, '\\') {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == quote || s[i] == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}
