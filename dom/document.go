// CLAUDE:SUMMARY Document wrapper over an x/net/html tree with observed mutation primitives (insert, remove, split, normalise).
// Package dom supplies Range, Selection and observable mutation primitives
// on top of golang.org/x/net/html trees, following the WHATWG DOM algorithms.
//
// Ranges are not live: they hold boundary points and are only updated by
// their own methods. Offsets inside character data count runes.
package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/rangewrap/mutation"
)

// Document owns a parsed tree, its selection and an optional observer
// notified of every mutation made to the attached tree.
type Document struct {
	root      *html.Node
	selection *Selection
	observer  func(mutation.Record)
}

// NewDocument wraps an existing tree.
func NewDocument(root *html.Node) *Document {
	d := &Document{root: root}
	d.selection = &Selection{doc: d}
	return d
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}
	return NewDocument(root), nil
}

// ParseString parses an HTML document held in memory.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	return d.root
}

// Body returns the top-level content element: <body> when present,
// the document node otherwise.
func (d *Document) Body() *html.Node {
	var body *html.Node
	var find func(*html.Node)
	find = func(n *html.Node) {
		if body != nil {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Body {
			body = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			find(c)
		}
	}
	find(d.root)
	if body == nil {
		return d.root
	}
	return body
}

// Selection returns the document's selection.
func (d *Document) Selection() *Selection {
	return d.selection
}

// Observe installs fn as the mutation observer. A nil fn disables observation.
func (d *Document) Observe(fn func(mutation.Record)) {
	d.observer = fn
}

// CreateRange returns a range collapsed at the start of the document.
func (d *Document) CreateRange() *Range {
	return NewRange(d)
}

// Render writes the serialised tree to w.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// String returns the serialised tree.
func (d *Document) String() string {
	var buf bytes.Buffer
	d.Render(&buf)
	return buf.String()
}

func (d *Document) attached(n *html.Node) bool {
	return d.root != nil && n != nil && Root(n) == d.root
}

func (d *Document) emit(op mutation.Op, n *html.Node, oldValue string) {
	if d.observer == nil {
		return
	}
	rec := mutation.Record{
		Op:       op,
		XPath:    XPath(n),
		NodeType: nodeTypeCode(n),
	}
	switch {
	case n.Type == html.ElementNode:
		rec.Tag = n.Data
		if op == mutation.OpInsert {
			var buf bytes.Buffer
			html.Render(&buf, n)
			rec.HTML = buf.String()
		}
	case isCharacterData(n):
		rec.Value = n.Data
		rec.OldValue = oldValue
	}
	d.observer(rec)
}

// InsertBefore inserts node into parent before ref (append when ref is nil).
// A node that already has a parent is moved; a fragment inserts its children.
func (d *Document) InsertBefore(parent, node, ref *html.Node) error {
	if ref != nil && ref.Parent != parent {
		return fmt.Errorf("%w: reference node is not a child of parent", ErrNotFound)
	}
	switch parent.Type {
	case html.TextNode, html.CommentNode, html.DoctypeNode:
		return fmt.Errorf("%w: %s cannot have children", ErrHierarchyRequest, XPath(parent))
	}
	if IsInclusiveAncestor(node, parent) {
		return fmt.Errorf("%w: node is an ancestor of the insertion parent", ErrHierarchyRequest)
	}
	if IsFragment(node) {
		for c := node.FirstChild; c != nil; {
			next := c.NextSibling
			node.RemoveChild(c)
			d.insert(parent, c, ref)
			c = next
		}
		return nil
	}
	if node == ref {
		ref = ref.NextSibling
	}
	d.Remove(node)
	d.insert(parent, node, ref)
	return nil
}

func (d *Document) insert(parent, node, ref *html.Node) {
	parent.InsertBefore(node, ref)
	if d.attached(parent) {
		d.emit(mutation.OpInsert, node, "")
	}
}

// Remove detaches n from its parent. A parentless node is left untouched.
func (d *Document) Remove(n *html.Node) {
	parent := n.Parent
	if parent == nil {
		return
	}
	if d.attached(parent) {
		// The path must be computed while n is still in place.
		d.emit(mutation.OpRemove, n, "")
	}
	parent.RemoveChild(n)
}

// ReplaceNode puts replacement where old is, then removes old.
// A fragment replacement inserts its children.
func (d *Document) ReplaceNode(old, replacement *html.Node) error {
	parent := old.Parent
	if parent == nil {
		return fmt.Errorf("%w: node has no parent", ErrNotFound)
	}
	if old == replacement {
		return nil
	}
	if err := d.InsertBefore(parent, replacement, old); err != nil {
		return err
	}
	d.Remove(old)
	return nil
}

// ReplaceData replaces count runes of n's character data starting at offset.
// count is clipped to the end of the data.
func (d *Document) ReplaceData(n *html.Node, offset, count int, data string) error {
	if !isCharacterData(n) {
		return fmt.Errorf("%w: %s is not character data", ErrInvalidNodeType, XPath(n))
	}
	length := Length(n)
	if offset < 0 || offset > length {
		return fmt.Errorf("%w: offset %d exceeds length %d", ErrIndexSize, offset, length)
	}
	if count < 0 {
		return fmt.Errorf("%w: negative count %d", ErrIndexSize, count)
	}
	if offset+count > length {
		count = length - offset
	}
	d.setData(n, spliceRunes(n.Data, offset, count, data))
	return nil
}

func (d *Document) setData(n *html.Node, data string) {
	if n.Data == data {
		return
	}
	old := n.Data
	n.Data = data
	if d.attached(n) {
		d.emit(mutation.OpText, n, old)
	}
}

// SplitText splits text node n at offset. n keeps the leading part and the
// returned node, inserted right after n when n has a parent, holds the rest.
func (d *Document) SplitText(n *html.Node, offset int) (*html.Node, error) {
	if !IsText(n) {
		return nil, fmt.Errorf("%w: only text nodes can be split", ErrInvalidNodeType)
	}
	length := Length(n)
	if offset < 0 || offset > length {
		return nil, fmt.Errorf("%w: offset %d exceeds length %d", ErrIndexSize, offset, length)
	}
	tail := &html.Node{Type: html.TextNode, Data: substring(n.Data, offset, length)}
	if n.Parent != nil {
		d.insert(n.Parent, tail, n.NextSibling)
	}
	if err := d.ReplaceData(n, offset, length-offset, ""); err != nil {
		return nil, err
	}
	return tail, nil
}

// Normalize merges adjacent text nodes and removes empty ones beneath n.
func (d *Document) Normalize(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type != html.TextNode {
			d.Normalize(c)
			c = next
			continue
		}
		if c.Data == "" {
			d.Remove(c)
			c = next
			continue
		}
		data := c.Data
		for next != nil && next.Type == html.TextNode {
			data += next.Data
			following := next.NextSibling
			d.Remove(next)
			next = following
		}
		d.setData(c, data)
		c = next
	}
}
