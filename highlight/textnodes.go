// CLAUDE:SUMMARY Enumerates text nodes under a subtree and filters them down to those a range actually covers.
package highlight

import (
	"errors"

	"golang.org/x/net/html"

	"github.com/hazyhaar/rangewrap/dom"
)

// Predicate decides whether an intersecting text node is worth wrapping.
type Predicate func(*html.Node) bool

// NonEmptyText keeps text nodes that hold at least one character.
func NonEmptyText(n *html.Node) bool {
	return n.Data != ""
}

// TextNodes returns every text node beneath root in document order.
// A nil root means the document's content element.
func TextNodes(doc *dom.Document, root *html.Node) []*html.Node {
	if root == nil {
		root = doc.Body()
	}
	var nodes []*html.Node
	dom.WalkText(root, func(n *html.Node) bool {
		nodes = append(nodes, n)
		return true
	})
	return nodes
}

// TextNodesInRange returns the text nodes whose content rng covers and
// that satisfy pred (NonEmptyText when nil), in document order.
func TextNodesInRange(rng *dom.Range, pred Predicate) []*html.Node {
	if pred == nil {
		pred = NonEmptyText
	}
	root := rng.CommonAncestorContainer()
	if root == nil {
		return nil
	}
	if dom.IsText(root) && root.Parent != nil {
		root = root.Parent
	}
	var out []*html.Node
	dom.WalkText(root, func(n *html.Node) bool {
		if intersects(rng, n) && pred(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// intersects reports whether rng covers part of n's content. The node is
// selected as a unit when the tree allows it, its contents otherwise.
func intersects(rng *dom.Range, n *html.Node) bool {
	start, end := rng.Start(), rng.End()
	if start.Node == n && start.Offset == dom.Length(n) {
		return false
	}
	if end.Node == n && end.Offset == 0 {
		return false
	}
	span := rng.Clone()
	if err := span.SelectNode(n); err != nil {
		if !errors.Is(err, dom.ErrInvalidNodeType) {
			return false
		}
		if err := span.SelectNodeContents(n); err != nil {
			return false
		}
	}
	before, err := rng.CompareBoundaryPoints(dom.EndToStart, span)
	if err != nil {
		return false
	}
	after, err := rng.CompareBoundaryPoints(dom.StartToEnd, span)
	if err != nil {
		return false
	}
	return before < 0 && after > 0
}
