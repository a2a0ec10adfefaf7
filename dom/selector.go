// CLAUDE:SUMMARY Minimal CSS selector matching (tag, .class, #id, [attr=val], descendant) over x/net/html trees.
package dom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// QuerySelectorAll returns the elements under root matching sel, in
// document order. Supported:
//   - tag: "article", "div"
//   - .class, #id: ".content", "#main"
//   - compound: "div.content", "div#main", "p.a.b"
//   - attributes: "div[data-x]", "div[role=main]"
//   - descendant combinator: "article p.lead"
func QuerySelectorAll(root *html.Node, sel string) []*html.Node {
	parts := strings.Fields(sel)
	if root == nil || len(parts) == 0 {
		return nil
	}

	matches := matchAll(root, parseCompound(parts[0]), true)
	for _, part := range parts[1:] {
		c := parseCompound(part)
		seen := make(map[*html.Node]bool)
		var next []*html.Node
		for _, anc := range matches {
			for _, n := range matchAll(anc, c, false) {
				if !seen[n] {
					seen[n] = true
					next = append(next, n)
				}
			}
		}
		matches = inDocumentOrder(root, seen, next)
	}
	return matches
}

// QuerySelector returns the first element under root matching sel.
func QuerySelector(root *html.Node, sel string) (*html.Node, error) {
	if m := QuerySelectorAll(root, sel); len(m) > 0 {
		return m[0], nil
	}
	return nil, fmt.Errorf("%w: selector %q", ErrNotFound, sel)
}

type compound struct {
	tag     string
	id      string
	classes []string
	attrKey string
	attrVal string
	hasVal  bool
}

func parseCompound(sel string) compound {
	var c compound

	if i := strings.IndexByte(sel, '['); i >= 0 {
		attr := strings.TrimSuffix(sel[i+1:], "]")
		sel = sel[:i]
		if eq := strings.IndexByte(attr, '='); eq >= 0 {
			c.attrKey = attr[:eq]
			c.attrVal = strings.Trim(attr[eq+1:], `"'`)
			c.hasVal = true
		} else {
			c.attrKey = attr
		}
	}

	if i := strings.IndexByte(sel, '.'); i >= 0 {
		c.classes = strings.Split(sel[i+1:], ".")
		sel = sel[:i]
	}
	if i := strings.IndexByte(sel, '#'); i >= 0 {
		c.id = sel[i+1:]
		sel = sel[:i]
	}
	c.tag = strings.ToLower(sel)
	return c
}

func (c compound) match(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if c.tag != "" && c.tag != "*" && n.Data != c.tag {
		return false
	}
	if c.id != "" {
		if v, _ := attr(n, "id"); v != c.id {
			return false
		}
	}
	if len(c.classes) > 0 {
		v, _ := attr(n, "class")
		have := strings.Fields(v)
		for _, want := range c.classes {
			if !contains(have, want) {
				return false
			}
		}
	}
	if c.attrKey != "" {
		v, ok := attr(n, c.attrKey)
		if !ok || (c.hasVal && v != c.attrVal) {
			return false
		}
	}
	return true
}

func matchAll(root *html.Node, c compound, self bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if c.match(n) {
			out = append(out, n)
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	if self {
		walk(root)
		return out
	}
	for ch := root.FirstChild; ch != nil; ch = ch.NextSibling {
		walk(ch)
	}
	return out
}

// inDocumentOrder filters a pre-order walk of root down to the nodes in set.
func inDocumentOrder(root *html.Node, set map[*html.Node]bool, nodes []*html.Node) []*html.Node {
	if len(nodes) < 2 {
		return nodes
	}
	out := make([]*html.Node, 0, len(nodes))
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if set[n] {
			out = append(out, n)
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(root)
	return out
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
