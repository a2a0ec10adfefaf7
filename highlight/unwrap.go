package highlight

import (
	"golang.org/x/net/html"

	"github.com/hazyhaar/rangewrap/dom"
)

// Unwrap replaces node with its children and normalises the parent so no
// empty or split text is left behind. A detached node is left alone.
func Unwrap(doc *dom.Document, node *html.Node) {
	parent := node.Parent
	if parent == nil {
		return
	}
	frag := dom.NewFragment()
	for c := node.FirstChild; c != nil; c = node.FirstChild {
		doc.Remove(c)
		frag.AppendChild(c)
	}
	if err := doc.ReplaceNode(node, frag); err != nil {
		// parent was checked above; the fragment cannot violate the hierarchy.
		return
	}
	doc.Normalize(parent)
}
