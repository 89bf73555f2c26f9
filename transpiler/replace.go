package transpiler

import (
	sitter "github.com/smacker/go-tree-sitter"
)

func (w *walker) replaceIdentifier(n *sitter.Node) {
	if len(w.replace) == 0 {
		return
	}
	v, ok := w.replace[w.text(n)]
	if !ok || isBinding(n) {
		return
	}
	w.buf.Replace(int(n.StartByte()), int(n.EndByte()), v)
}

// replaceShorthand expands `{ KEY }` to `{ KEY: value }`.
func (w *walker) replaceShorthand(n *sitter.Node) {
	if len(w.replace) == 0 {
		return
	}
	name := w.text(n)
	if v, ok := w.replace[name]; ok {
		w.buf.Replace(int(n.StartByte()), int(n.EndByte()), name+": "+v)
	}
}

// replaceMember substitutes a whole dotted member chain. It reports whether
// the node was consumed.
func (w *walker) replaceMember(n *sitter.Node) bool {
	if len(w.replace) == 0 {
		return false
	}
	path, ok := w.memberPath(n)
	if !ok {
		return false
	}
	v, ok := w.replace[path]
	if !ok || isAssignTarget(n) {
		return false
	}
	w.buf.Replace(int(n.StartByte()), int(n.EndByte()), v)
	return true
}

// memberPath renders a chain of plain property accesses as "a.b.c".
func (w *walker) memberPath(n *sitter.Node) (string, bool) {
	switch n.Type() {
	case "identifier":
		return w.text(n), true
	case "member_expression":
		if hasToken(n, "?.") {
			return "", false
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if n.NamedChild(i).Type() == "optional_chain" {
				return "", false
			}
		}
		prop := n.ChildByFieldName("property")
		if prop == nil || prop.Type() != "property_identifier" {
			return "", false
		}
		base, ok := w.memberPath(n.ChildByFieldName("object"))
		if !ok {
			return "", false
		}
		return base + "." + w.text(prop), true
	}
	return "", false
}

func isAssignTarget(n *sitter.Node) bool {
	p := n.Parent()
	if p == nil {
		return false
	}
	switch p.Type() {
	case "assignment_expression", "augmented_assignment_expression":
		return sameNode(p.ChildByFieldName("left"), n)
	case "update_expression":
		return true
	case "for_in_statement":
		return sameNode(p.ChildByFieldName("left"), n)
	}
	return false
}

// isBinding reports whether an identifier declares or labels a name rather
// than reading one.
func isBinding(n *sitter.Node) bool {
	if isAssignTarget(n) {
		return true
	}
	p := n.Parent()
	if p == nil {
		return false
	}
	switch p.Type() {
	case "variable_declarator",
		"function_declaration", "function_expression", "function",
		"generator_function_declaration", "generator_function",
		"class_declaration", "class":
		return sameNode(p.ChildByFieldName("name"), n)
	case "required_parameter", "optional_parameter":
		return sameNode(p.ChildByFieldName("pattern"), n)
	case "arrow_function":
		return sameNode(p.ChildByFieldName("parameter"), n)
	case "catch_clause":
		return sameNode(p.ChildByFieldName("parameter"), n)
	case "assignment_pattern":
		return sameNode(p.ChildByFieldName("left"), n)
	case "formal_parameters", "object_pattern", "array_pattern", "rest_pattern", "pair_pattern",
		"import_specifier", "import_clause", "namespace_import", "export_specifier", "namespace_export",
		"labeled_statement", "break_statement", "continue_statement",
		"jsx_opening_element", "jsx_closing_element", "jsx_self_closing_element",
		"jsx_attribute", "nested_identifier", "jsx_namespace_name":
		return true
	}
	return false
}
