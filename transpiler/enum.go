package transpiler

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// enumDeclaration lowers an enum to a var plus an initializing function:
//
//	var E; (function (E) { E[E["A"] = 0] = "A"; })(E || (E = {}));
//
// Members are rewritten in place so the declaration keeps its lines.
func (w *walker) enumDeclaration(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	body := n.ChildByFieldName("body")
	if nameNode == nil || body == nil || body.ChildCount() < 2 {
		w.unsupported(n, "enum declaration")
		return
	}
	name := w.text(nameNode)
	open := body.Child(0)
	w.buf.ReplaceLines(int(n.StartByte()), int(open.EndByte()), "var "+name+"; (function ("+name+") {")

	members := make(map[string]bool)
	next, prev := "0", ""
	for i := 0; i < int(body.ChildCount()); i++ {
		c := body.Child(i)
		if !c.IsNamed() {
			if c.Type() == "," {
				w.removeInline(c)
			}
			continue
		}

		var keyNode, value *sitter.Node
		switch c.Type() {
		case "comment":
			continue
		case "property_identifier", "string":
			keyNode = c
		case "enum_assignment":
			keyNode, value = c.NamedChild(0), c.ChildByFieldName("value")
		default:
			w.unsupported(c, "enum member name")
			return
		}
		if keyNode == nil || (keyNode.Type() != "property_identifier" && keyNode.Type() != "string") {
			w.unsupported(c, "enum member name")
			return
		}

		key := w.text(keyNode)
		if keyNode.Type() == "property_identifier" {
			members[key] = true
			key = jsString(key)
		}
		slot := name + "[" + key + "]"

		switch {
		case value == nil:
			if next == "" {
				next = name + "[" + prev + "] + 1"
			}
			w.buf.ReplaceLines(int(c.StartByte()), int(c.EndByte()), name+"["+slot+" = "+next+"] = "+key+";")
			next = increment(next)
		case value.Type() == "string" || value.Type() == "template_string":
			w.buf.ReplaceLines(int(c.StartByte()), int(value.StartByte()), slot+" = ")
			w.enumValue(value, name, members)
			w.buf.Insert(int(value.EndByte()), ";")
			next = ""
		default:
			w.buf.ReplaceLines(int(c.StartByte()), int(value.StartByte()), name+"["+slot+" = ")
			w.enumValue(value, name, members)
			w.buf.Insert(int(value.EndByte()), "] = "+key+";")
			next = increment(numericValue(w.text(value)))
		}
		prev = key
	}

	closing := body.Child(int(body.ChildCount()) - 1)
	w.buf.Replace(int(closing.StartByte()), int(closing.EndByte()), "})("+name+" || ("+name+" = {}));")
}

// enumValue qualifies references to earlier members of the same enum and
// strips types from the initializer.
func (w *walker) enumValue(value *sitter.Node, name string, members map[string]bool) {
	var qualify func(n *sitter.Node)
	qualify = func(n *sitter.Node) {
		if n.Type() == "identifier" {
			if members[w.text(n)] {
				w.buf.Replace(int(n.StartByte()), int(n.EndByte()), name+"."+w.text(n))
			}
			return
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			qualify(n.NamedChild(i))
		}
	}
	qualify(value)
	w.visit(value)
}

// numericValue returns the normalized decimal form of a numeric literal
// initializer, or "" when the value is only known at run time.
func numericValue(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), "_", "")
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = strings.TrimSpace(s[1:])
	}
	if s == "" || !(s[0] == '.' || s[0] >= '0' && s[0] <= '9') {
		return ""
	}

	var v float64
	switch {
	case len(s) > 1 && s[0] == '0' && strings.ContainsRune("xXoObB", rune(s[1])):
		i, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return ""
		}
		v = float64(i)
	case len(s) > 1 && s[0] == '0' && s[1] >= '0' && s[1] <= '9':
		return ""
	default:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return ""
		}
		v = f
	}
	if neg {
		v = -v
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// increment returns the value following an auto-numbered member.
func increment(v string) string {
	if v == "" {
		return ""
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return ""
	}
	return strconv.FormatFloat(f+1, 'f', -1, 64)
}
