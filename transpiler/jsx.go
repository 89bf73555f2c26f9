package transpiler

import (
	"bytes"
	"encoding/json"
	"html"
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"
)

// jsxElement lowers an element to a factory call:
//
//	<a href={u}>hi {name}</a>  →  h("a", { href: u }, "hi ", name)
//
// Embedded expressions keep their own edits, and every replaced range keeps
// its newlines.
func (w *walker) jsxElement(n *sitter.Node) {
	if n.Type() == "jsx_self_closing_element" {
		w.jsxOpening(n, true)
		return
	}

	open := n.ChildByFieldName("open_tag")
	closing := n.ChildByFieldName("close_tag")
	if open == nil || closing == nil {
		w.unsupported(n, "JSX element")
		return
	}
	w.jsxOpening(open, false)

	pos := int(open.EndByte())
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if sameNode(c, open) || sameNode(c, closing) {
			continue
		}
		switch c.Type() {
		case "jsx_element", "jsx_self_closing_element":
			w.jsxText(pos, int(c.StartByte()))
			w.buf.Insert(int(c.StartByte()), ", ")
			w.visit(c)
			pos = int(c.EndByte())
		case "jsx_expression":
			w.jsxText(pos, int(c.StartByte()))
			if inner := jsxInner(c); inner != nil {
				w.buf.Insert(int(c.StartByte()), ", ")
				w.unwrapExpression(c, inner)
			} else {
				w.remove(c)
			}
			pos = int(c.EndByte())
		}
	}
	w.jsxText(pos, int(closing.StartByte()))
	w.buf.ReplaceLines(int(closing.StartByte()), int(closing.EndByte()), ")")
}

// jsxOpening rewrites the opening tag into the factory call head and the
// props object.
func (w *walker) jsxOpening(n *sitter.Node, selfClosing bool) {
	tag := w.fragment
	if name := n.ChildByFieldName("name"); name != nil {
		tag = w.jsxTag(name)
	}
	head := w.factory + "(" + tag

	var attrs []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "jsx_attribute" || c.Type() == "jsx_expression" {
			attrs = append(attrs, c)
		}
	}

	end := ""
	if selfClosing {
		end = ")"
	}
	start, stop := int(n.StartByte()), int(n.EndByte())
	if len(attrs) == 0 {
		w.buf.ReplaceLines(start, stop, head+", null"+end)
		return
	}

	w.buf.ReplaceLines(start, int(attrs[0].StartByte()), head+", { ")
	for i, a := range attrs {
		if i > 0 {
			w.buf.ReplaceLines(int(attrs[i-1].EndByte()), int(a.StartByte()), ", ")
		}
		w.jsxAttribute(a)
	}
	w.buf.ReplaceLines(int(attrs[len(attrs)-1].EndByte()), stop, " }"+end)
}

func (w *walker) jsxAttribute(a *sitter.Node) {
	if a.Type() == "jsx_expression" {
		inner := jsxInner(a)
		if inner == nil {
			w.unsupported(a, "empty JSX spread attribute")
			return
		}
		w.unwrapExpression(a, inner)
		return
	}

	nameNode := a.NamedChild(0)
	if nameNode == nil {
		return
	}
	key := w.text(nameNode)
	if !identPattern.MatchString(key) {
		key = jsString(key)
	}

	value := a.NamedChild(1)
	start, end := int(a.StartByte()), int(a.EndByte())
	switch {
	case value == nil:
		w.buf.ReplaceLines(start, end, key+": true")
	case value.Type() == "string":
		raw := w.text(value)
		w.buf.ReplaceLines(start, end, key+": "+jsString(html.UnescapeString(raw[1:len(raw)-1])))
	case value.Type() == "jsx_expression":
		inner := jsxInner(value)
		if inner == nil {
			w.unsupported(value, "empty JSX attribute expression")
			return
		}
		w.buf.ReplaceLines(start, int(inner.StartByte()), key+": ")
		w.visit(inner)
		w.buf.Remove(int(inner.EndByte()), end)
	default:
		w.buf.ReplaceLines(start, int(value.StartByte()), key+": ")
		w.visit(value)
	}
}

// jsxTag renders an element name: intrinsic elements become strings,
// components stay references.
func (w *walker) jsxTag(name *sitter.Node) string {
	text := w.text(name)
	switch name.Type() {
	case "jsx_namespace_name":
		return jsString(text)
	case "identifier":
		if strings.Contains(text, "-") || text != "" && unicode.IsLower(rune(text[0])) {
			return jsString(text)
		}
	}
	return text
}

// jsxText turns the raw text between two children into a string argument.
func (w *walker) jsxText(start, end int) {
	if end <= start {
		return
	}
	text := cleanJSXText(string(w.src[start:end]))
	if text == "" {
		w.buf.Remove(start, end)
		return
	}
	w.buf.ReplaceLines(start, end, ", "+jsString(text))
}

// unwrapExpression drops the braces around a JSX expression container.
func (w *walker) unwrapExpression(container, inner *sitter.Node) {
	w.buf.Remove(int(container.StartByte()), int(inner.StartByte()))
	w.visit(inner)
	w.buf.Remove(int(inner.EndByte()), int(container.EndByte()))
}

// jsxInner returns the expression inside braces, skipping comments.
func jsxInner(n *sitter.Node) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() != "comment" {
			return c
		}
	}
	return nil
}

// cleanJSXText applies JSX whitespace rules: lines are trimmed where they
// meet a line break, blank lines vanish and the rest join with one space.
// Character references are decoded.
func cleanJSXText(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	var sb strings.Builder
	for i, line := range lines {
		if i > 0 {
			line = strings.TrimLeft(line, " \t")
		}
		if i < len(lines)-1 {
			line = strings.TrimRight(line, " \t")
		}
		if line == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(line)
	}
	return html.UnescapeString(sb.String())
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return `""`
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
