// CLAUDE:SUMMARY Wraps the text a range covers in per-node wrapper clones sharing one group id, tracking boundaries as nodes are replaced.
// Package highlight marks the text covered by a range with wrapper
// elements and removes those marks again.
//
// A wrap operation clones one template element per covered text node and
// stamps every clone with the same group id taken from an Allocator.
// Wrapping and unwrapping are single synchronous passes over one document;
// callers serialise access.
package highlight

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/rangewrap/dom"
	"github.com/hazyhaar/rangewrap/idgen"
)

const (
	DefaultTag  = "span"
	DefaultAttr = "data-calibre-range-wrapper"
)

// ErrNoRange is returned by Wrap when neither an explicit range nor a
// selection range is available.
var ErrNoRange = errors.New("highlight: no range to wrap")

// Allocator hands out highlight group ids.
type Allocator interface {
	Next() string
	Reset()
}

// Options configures a Wrapper. Zero fields take defaults.
type Options struct {
	Tag  string    // wrapper element name, "span" by default
	Attr string    // attribute carrying the group id
	IDs  Allocator // group id source, a fresh idgen.Counter by default
}

// Wrapper wraps ranges of one document session.
type Wrapper struct {
	tag  string
	attr string
	ids  Allocator
}

// New returns a Wrapper configured by opts.
func New(opts Options) *Wrapper {
	w := &Wrapper{tag: opts.Tag, attr: opts.Attr, ids: opts.IDs}
	if w.tag == "" {
		w.tag = DefaultTag
	}
	if w.attr == "" {
		w.attr = DefaultAttr
	}
	if w.ids == nil {
		w.ids = idgen.NewCounter()
	}
	return w
}

// Attr returns the attribute that carries group ids.
func (w *Wrapper) Attr() string {
	return w.attr
}

// Highlight is the result of one wrap operation.
type Highlight struct {
	ID       string
	Wrappers []*html.Node // in document order
}

// Text returns the highlighted text.
func (h *Highlight) Text() string {
	var sb strings.Builder
	for _, n := range h.Wrappers {
		sb.WriteString(dom.TextContent(n))
	}
	return sb.String()
}

// boundaries tracks where the range ends up while its text is rewrapped.
type boundaries struct {
	startContainer *html.Node
	startOffset    int
	endContainer   *html.Node
	endOffset      int
}

// Wrap surrounds every non-empty text node covered by rng with a clone of
// the wrapper template. A nil rng means the first range of doc's selection.
// style, when not empty, is set verbatim on every clone.
//
// A collapsed range, or one covering no text, leaves the document untouched
// and returns nil, nil. On success rng is moved to the wrapped content.
// A failure part way leaves the nodes wrapped so far in place.
func (w *Wrapper) Wrap(doc *dom.Document, style string, rng *dom.Range) (*Highlight, error) {
	if rng == nil {
		sel, err := doc.Selection().RangeAt(0)
		if err != nil {
			return nil, ErrNoRange
		}
		rng = sel
	}
	if rng.Collapsed() {
		return nil, nil
	}
	nodes := TextNodesInRange(rng, nil)
	if len(nodes) == 0 {
		return nil, nil
	}

	b := boundaries{
		startContainer: rng.StartContainer(),
		startOffset:    rng.StartOffset(),
		endContainer:   rng.EndContainer(),
		endOffset:      rng.EndOffset(),
	}
	startAnchor := anchor(b.startContainer, b.startOffset)
	endAnchor := anchor(b.endContainer, b.endOffset)

	h := &Highlight{ID: w.ids.Next()}
	template := w.template(h.ID, style)
	for _, n := range nodes {
		clone := dom.CloneNode(template)
		var err error
		if b, err = w.wrapNode(rng, n, clone, b); err != nil {
			return h, fmt.Errorf("wrap text node %s: %w", dom.XPath(n), err)
		}
		h.Wrappers = append(h.Wrappers, clone)
	}

	if !dom.IsText(b.startContainer) {
		b.startOffset = reanchor(b.startContainer, startAnchor, b.startOffset)
	}
	if !dom.IsText(b.endContainer) {
		b.endOffset = reanchor(b.endContainer, endAnchor, b.endOffset)
	}
	if err := rng.SetStart(b.startContainer, b.startOffset); err != nil {
		return h, fmt.Errorf("restore range start: %w", err)
	}
	if err := rng.SetEnd(b.endContainer, b.endOffset); err != nil {
		return h, fmt.Errorf("restore range end: %w", err)
	}
	return h, nil
}

// wrapNode surrounds the covered part of text node n with clone and
// returns the boundaries as they stand afterwards.
func (w *Wrapper) wrapNode(rng *dom.Range, n, clone *html.Node, b boundaries) (boundaries, error) {
	sub := rng.Clone()
	if err := sub.SelectNodeContents(n); err != nil {
		return b, err
	}
	if n == b.startContainer && dom.IsText(n) {
		if err := sub.SetStart(n, b.startOffset); err != nil {
			return b, err
		}
		b.startContainer, b.startOffset = clone, 0
	}
	if n == b.endContainer && dom.IsText(n) {
		if err := sub.SetEnd(n, b.endOffset); err != nil {
			return b, err
		}
		b.endContainer, b.endOffset = clone, 1
	}
	if err := sub.SurroundContents(clone); err != nil {
		return b, err
	}
	return b, nil
}

func (w *Wrapper) template(id, style string) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     w.tag,
		DataAtom: atom.Lookup([]byte(w.tag)),
	}
	n.Attr = append(n.Attr, html.Attribute{Key: w.attr, Val: id})
	if style != "" {
		n.Attr = append(n.Attr, html.Attribute{Key: "style", Val: style})
	}
	return n
}

// anchor returns the child an element boundary point sits in front of,
// nil when it sits at the end.
func anchor(container *html.Node, offset int) *html.Node {
	if dom.IsText(container) {
		return nil
	}
	return dom.ChildAt(container, offset)
}

// reanchor recomputes an element boundary offset after splits inserted
// siblings in front of its anchor child.
func reanchor(container, child *html.Node, offset int) int {
	switch {
	case child == nil:
		if offset > 0 {
			return dom.Length(container)
		}
		return 0
	case child.Parent == container:
		return dom.Index(child)
	}
	if l := dom.Length(container); offset > l {
		return l
	}
	return offset
}

// ResetCounter restarts group ids from the beginning. Existing wrappers
// keep their ids.
func (w *Wrapper) ResetCounter() {
	w.ids.Reset()
}

// Group returns the wrappers stamped with id, in document order.
func (w *Wrapper) Group(doc *dom.Document, id string) []*html.Node {
	var out []*html.Node
	w.walk(doc.Root(), func(n *html.Node, gid string) {
		if gid == id {
			out = append(out, n)
		}
	})
	return out
}

// Highlights lists every group present in doc, ordered by the position of
// its first wrapper.
func (w *Wrapper) Highlights(doc *dom.Document) []*Highlight {
	var out []*Highlight
	byID := make(map[string]*Highlight)
	w.walk(doc.Root(), func(n *html.Node, gid string) {
		h, ok := byID[gid]
		if !ok {
			h = &Highlight{ID: gid}
			byID[gid] = h
			out = append(out, h)
		}
		h.Wrappers = append(h.Wrappers, n)
	})
	return out
}

// UnwrapGroup unwraps every wrapper of group id and returns how many there were.
func (w *Wrapper) UnwrapGroup(doc *dom.Document, id string) int {
	nodes := w.Group(doc, id)
	for _, n := range nodes {
		Unwrap(doc, n)
	}
	return len(nodes)
}

func (w *Wrapper) walk(n *html.Node, fn func(*html.Node, string)) {
	if n.Type == html.ElementNode && n.Data == w.tag {
		if gid, ok := dom.Attr(n, w.attr); ok {
			fn(n, gid)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c, fn)
	}
}
