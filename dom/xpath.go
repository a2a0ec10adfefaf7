// CLAUDE:SUMMARY Computes XPaths for nodes and resolves XPath expressions back to nodes via htmlquery.
package dom

import (
	"fmt"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// XPath returns an absolute path for n, with positional predicates only
// where siblings share the same node test. The document node maps to "".
func XPath(n *html.Node) string {
	if n == nil {
		return ""
	}
	switch n.Type {
	case html.DocumentNode:
		return ""
	case html.DoctypeNode:
		return XPath(n.Parent)
	}
	return XPath(n.Parent) + "/" + step(n)
}

func step(n *html.Node) string {
	name := nodeTest(n)
	if n.Parent == nil {
		return name
	}
	idx, total := 0, 0
	for s := n.Parent.FirstChild; s != nil; s = s.NextSibling {
		if s.Type != n.Type || nodeTest(s) != name {
			continue
		}
		total++
		if s == n {
			idx = total
		}
	}
	if total > 1 {
		return fmt.Sprintf("%s[%d]", name, idx)
	}
	return name
}

func nodeTest(n *html.Node) string {
	switch n.Type {
	case html.TextNode:
		return "text()"
	case html.CommentNode:
		return "comment()"
	}
	return n.Data
}

// Resolve evaluates expr against root and returns the first matching node.
func Resolve(root *html.Node, expr string) (*html.Node, error) {
	n, err := htmlquery.Query(root, expr)
	if err != nil {
		return nil, fmt.Errorf("xpath %q: %w", expr, err)
	}
	if n == nil {
		return nil, fmt.Errorf("%w: xpath %q", ErrNotFound, expr)
	}
	return n, nil
}
