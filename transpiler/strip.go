package transpiler

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/wippyai/modkit/errors"
	"github.com/wippyai/modkit/transpiler/internal/edit"
)

// walker traverses a syntax tree once, recording the edits that strip
// TypeScript syntax and apply replacements, and collecting import sites.
type walker struct {
	src     []byte
	display string
	buf     *edit.Buffer
	replace map[string]string
	sites   []importSite
	err     error

	// factory is empty when JSX is preserved.
	factory  string
	fragment string
}

func newWalker(src []byte, display string, cfg *Config) *walker {
	w := &walker{
		src:     src,
		display: display,
		buf:     &edit.Buffer{},
		replace: cfg.Replace,
	}
	if cfg.JSX != JSXPreserve {
		w.factory, w.fragment = cfg.jsxFactory(), cfg.jsxFragment()
	}
	return w
}

// typeDeclarations disappear entirely from the output.
var typeDeclarations = map[string]bool{
	"interface_declaration":  true,
	"type_alias_declaration": true,
	"function_signature":     true,
	"ambient_declaration":    true,
}

func (w *walker) visit(n *sitter.Node) {
	if n == nil || w.err != nil {
		return
	}

	switch n.Type() {
	case "hash_bang_line":
		w.remove(n)
		return

	case "interface_declaration", "type_alias_declaration", "function_signature", "ambient_declaration",
		"method_signature", "abstract_method_signature", "index_signature":
		w.remove(n)
		return

	case "enum_declaration":
		w.enumDeclaration(n)
		return
	case "import_alias":
		w.unsupported(n, "import alias")
		return

	case "import_statement":
		w.importStatement(n)
		return
	case "export_statement":
		w.exportStatement(n)
		return

	case "internal_module", "module":
		w.namespace(n, n)
		return
	case "expression_statement":
		if inner := n.NamedChild(0); inner != nil && inner.Type() == "internal_module" {
			w.namespace(inner, n)
			return
		}

	case "type_annotation", "asserts_annotation", "type_predicate_annotation":
		// an arrow's return type may not leave a newline before "=>"
		if p := n.Parent(); p != nil && p.Type() == "arrow_function" {
			w.removeInline(n)
		} else {
			w.remove(n)
		}
		return

	case "type_parameters", "type_arguments", "implements_clause",
		"accessibility_modifier", "override_modifier":
		w.remove(n)
		return

	case "required_parameter", "optional_parameter":
		w.parameter(n)
		return

	case "public_field_definition":
		if hasToken(n, "declare") || hasToken(n, "abstract") {
			w.remove(n)
			return
		}
		w.dropTokens(n, "readonly", "?", "!")

	case "method_definition":
		w.dropTokens(n, "?")
		w.parameterProperties(n)
	case "abstract_class_declaration":
		w.dropTokens(n, "abstract")
	case "variable_declarator":
		w.dropTokens(n, "!")

	case "non_null_expression":
		if last := n.Child(int(n.ChildCount()) - 1); last != nil && last.Type() == "!" {
			w.removeInline(last)
		}

	case "as_expression", "satisfies_expression":
		expr := n.NamedChild(0)
		if expr != nil {
			w.buf.RemoveInline(int(expr.EndByte()), int(n.EndByte()))
			w.visit(expr)
		}
		return

	case "call_expression":
		w.dynamicImport(n)

	case "jsx_element", "jsx_self_closing_element":
		if w.factory != "" {
			w.jsxElement(n)
			return
		}

	case "identifier":
		w.replaceIdentifier(n)
		return
	case "shorthand_property_identifier":
		w.replaceShorthand(n)
		return
	case "member_expression":
		if w.replaceMember(n) {
			return
		}
	}

	w.visitChildren(n)
}

func (w *walker) visitChildren(n *sitter.Node) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		w.visit(n.NamedChild(i))
	}
}

func (w *walker) parameter(n *sitter.Node) {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if !isPropertyModifier(c) {
			continue
		}
		if p := n.ChildByFieldName("pattern"); p == nil || p.Type() != "identifier" {
			w.unsupported(n, "parameter property")
			return
		}
		end := int(c.EndByte())
		if next := c.NextSibling(); next != nil {
			end = int(next.StartByte())
		}
		w.buf.RemoveInline(int(c.StartByte()), end)
	}

	if p := n.ChildByFieldName("pattern"); p != nil && p.Type() == "this" {
		w.removeThisParameter(n)
		return
	}
	if n.Type() == "optional_parameter" {
		w.dropTokens(n, "?")
	}
	w.visitChildren(n)
}

func isPropertyModifier(c *sitter.Node) bool {
	switch c.Type() {
	case "accessibility_modifier", "override_modifier":
		return true
	case "readonly":
		return !c.IsNamed()
	}
	return false
}

// parameterProperties assigns constructor parameter properties to this at
// the top of the body, after the super call when there is one.
func (w *walker) parameterProperties(n *sitter.Node) {
	name := n.ChildByFieldName("name")
	params := n.ChildByFieldName("parameters")
	body := n.ChildByFieldName("body")
	if name == nil || params == nil || body == nil || w.text(name) != "constructor" || body.ChildCount() == 0 {
		return
	}

	var assign strings.Builder
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		pattern := p.ChildByFieldName("pattern")
		if pattern == nil || pattern.Type() != "identifier" {
			continue
		}
		for j := 0; j < int(p.ChildCount()); j++ {
			if isPropertyModifier(p.Child(j)) {
				id := w.text(pattern)
				assign.WriteString(" this." + id + " = " + id + ";")
				break
			}
		}
	}
	if assign.Len() == 0 {
		return
	}

	at := int(body.Child(0).EndByte())
	text := assign.String()
	for i := 0; i < int(body.NamedChildCount()); i++ {
		stmt := body.NamedChild(i)
		if isSuperCall(stmt) {
			at = int(stmt.EndByte())
			if last := stmt.Child(int(stmt.ChildCount()) - 1); last == nil || last.Type() != ";" {
				text = ";" + text
			}
			break
		}
	}
	w.buf.Insert(at, text)
}

func isSuperCall(stmt *sitter.Node) bool {
	if stmt.Type() != "expression_statement" {
		return false
	}
	call := stmt.NamedChild(0)
	if call == nil || call.Type() != "call_expression" {
		return false
	}
	fn := call.ChildByFieldName("function")
	return fn != nil && fn.Type() == "super"
}

// removeThisParameter drops a `this` parameter together with its comma.
func (w *walker) removeThisParameter(n *sitter.Node) {
	start, end := int(n.StartByte()), int(n.EndByte())
	if next := n.NextSibling(); next != nil && next.Type() == "," {
		end = int(next.EndByte())
		if after := next.NextSibling(); after != nil && after.Type() != ")" {
			end = int(after.StartByte())
		}
	} else if prev := n.PrevSibling(); prev != nil && prev.Type() == "," {
		start = int(prev.StartByte())
	}
	w.buf.RemoveInline(start, end)
}

func (w *walker) namespace(ns, stmt *sitter.Node) {
	if typeOnlyModule(ns) {
		w.remove(stmt)
		return
	}
	w.unsupported(ns, "namespace declaration")
}

// typeOnlyModule reports whether a namespace body declares nothing but types.
func typeOnlyModule(ns *sitter.Node) bool {
	body := ns.ChildByFieldName("body")
	if body == nil {
		return true
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		c := body.NamedChild(i)
		switch c.Type() {
		case "comment":
		case "interface_declaration", "type_alias_declaration", "ambient_declaration":
		case "internal_module", "module":
			if !typeOnlyModule(c) {
				return false
			}
		case "expression_statement":
			inner := c.NamedChild(0)
			if inner == nil || inner.Type() != "internal_module" || !typeOnlyModule(inner) {
				return false
			}
		case "export_statement":
			if hasToken(c, "type") {
				continue
			}
			decl := c.ChildByFieldName("declaration")
			if decl == nil {
				return false
			}
			switch {
			case typeDeclarations[decl.Type()]:
			case decl.Type() == "internal_module" || decl.Type() == "module":
				if !typeOnlyModule(decl) {
					return false
				}
			default:
				return false
			}
		default:
			return false
		}
	}
	return true
}

// remove deletes a node, keeping the lines it spanned.
func (w *walker) remove(n *sitter.Node) {
	w.buf.Remove(int(n.StartByte()), int(n.EndByte()))
}

func (w *walker) removeInline(n *sitter.Node) {
	w.buf.RemoveInline(int(n.StartByte()), int(n.EndByte()))
}

// dropTokens removes the anonymous children of n spelled as one of toks.
func (w *walker) dropTokens(n *sitter.Node, toks ...string) {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.IsNamed() {
			continue
		}
		for _, tok := range toks {
			if c.Type() == tok {
				w.removeInline(c)
				break
			}
		}
	}
}

func (w *walker) unsupported(n *sitter.Node, construct string) {
	if w.err != nil {
		return
	}
	p := n.StartPoint()
	w.err = errors.UnsupportedSyntax(w.display, int(p.Row)+1, int(p.Column)+1, construct)
}

func (w *walker) text(n *sitter.Node) string {
	return string(w.src[n.StartByte():n.EndByte()])
}

// hasToken reports whether n has a direct anonymous child spelled tok.
func hasToken(n *sitter.Node, tok string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if !c.IsNamed() && c.Type() == tok {
			return true
		}
	}
	return false
}

func sameNode(a, b *sitter.Node) bool {
	return a != nil && b != nil && a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte()
}

// joinSpecifiers renders a brace list from kept specifier texts.
func joinSpecifiers(kept []string) string {
	if len(kept) == 0 {
		return "{}"
	}
	return "{ " + strings.Join(kept, ", ") + " }"
}
