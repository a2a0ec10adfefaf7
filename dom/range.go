// CLAUDE:SUMMARY Range over x/net/html trees: boundary points, comparison, selection, extraction and surround.
package dom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// How selects which boundary points CompareBoundaryPoints compares.
type How int

const (
	StartToStart How = iota // this start vs source start
	StartToEnd              // this end vs source start
	EndToEnd                // this end vs source end
	EndToStart              // this start vs source end
)

// Point is a boundary point: a container node and an offset inside it.
// For character data the offset counts runes, otherwise children.
type Point struct {
	Node   *html.Node
	Offset int
}

func (p Point) String() string {
	return fmt.Sprintf("%s:%d", XPath(p.Node), p.Offset)
}

// Range delimits a contiguous span of a document between two boundary points.
type Range struct {
	doc   *Document
	start Point
	end   Point
}

// NewRange returns a range collapsed at the start of doc's root.
func NewRange(doc *Document) *Range {
	p := Point{Node: doc.root}
	return &Range{doc: doc, start: p, end: p}
}

func (r *Range) owner() *Document {
	if r.doc != nil {
		return r.doc
	}
	return &Document{}
}

func (r *Range) Start() Point { return r.start }
func (r *Range) End() Point   { return r.end }

func (r *Range) StartContainer() *html.Node { return r.start.Node }
func (r *Range) StartOffset() int           { return r.start.Offset }
func (r *Range) EndContainer() *html.Node   { return r.end.Node }
func (r *Range) EndOffset() int             { return r.end.Offset }

// Collapsed reports whether start and end are the same point.
func (r *Range) Collapsed() bool {
	return r.start == r.end
}

// Clone returns an independent copy of r.
func (r *Range) Clone() *Range {
	c := *r
	return &c
}

// Text returns the character data the range covers.
func (r *Range) Text() string {
	s, e := r.start, r.end
	if s.Node == e.Node && IsText(s.Node) {
		return substring(s.Node.Data, s.Offset, e.Offset)
	}
	common := r.CommonAncestorContainer()
	if common == nil {
		return ""
	}
	var sb strings.Builder
	if IsText(s.Node) {
		sb.WriteString(substring(s.Node.Data, s.Offset, Length(s.Node)))
	}
	WalkText(common, func(n *html.Node) bool {
		if r.contains(n) {
			sb.WriteString(n.Data)
		}
		return true
	})
	if IsText(e.Node) {
		sb.WriteString(substring(e.Node.Data, 0, e.Offset))
	}
	return sb.String()
}

func (r *Range) String() string {
	return "[" + r.start.String() + ", " + r.end.String() + "]"
}

func validatePoint(n *html.Node, offset int) error {
	if n == nil {
		return fmt.Errorf("%w: nil container", ErrInvalidNodeType)
	}
	if n.Type == html.DoctypeNode {
		return fmt.Errorf("%w: doctype cannot contain a boundary point", ErrInvalidNodeType)
	}
	if offset < 0 || offset > Length(n) {
		return fmt.Errorf("%w: offset %d exceeds length %d of %s", ErrIndexSize, offset, Length(n), XPath(n))
	}
	return nil
}

// SetStart moves the start boundary. When the new start lies after the end,
// or in another tree, the range collapses onto it.
func (r *Range) SetStart(n *html.Node, offset int) error {
	if err := validatePoint(n, offset); err != nil {
		return err
	}
	p := Point{Node: n, Offset: offset}
	if r.end.Node == nil || Root(n) != Root(r.end.Node) || comparePoints(p, r.end) > 0 {
		r.end = p
	}
	r.start = p
	return nil
}

// SetEnd moves the end boundary. When the new end lies before the start,
// or in another tree, the range collapses onto it.
func (r *Range) SetEnd(n *html.Node, offset int) error {
	if err := validatePoint(n, offset); err != nil {
		return err
	}
	p := Point{Node: n, Offset: offset}
	if r.start.Node == nil || Root(n) != Root(r.start.Node) || comparePoints(p, r.start) < 0 {
		r.start = p
	}
	r.end = p
	return nil
}

// SelectNode makes the range span n itself. A node without a parent cannot
// be selected as a unit and yields ErrInvalidNodeType.
func (r *Range) SelectNode(n *html.Node) error {
	parent := n.Parent
	if parent == nil {
		return fmt.Errorf("%w: %s has no parent", ErrInvalidNodeType, nodeTest(n))
	}
	i := Index(n)
	r.start = Point{Node: parent, Offset: i}
	r.end = Point{Node: parent, Offset: i + 1}
	return nil
}

// SelectNodeContents makes the range span the contents of n.
func (r *Range) SelectNodeContents(n *html.Node) error {
	if n.Type == html.DoctypeNode {
		return fmt.Errorf("%w: doctype has no contents", ErrInvalidNodeType)
	}
	r.start = Point{Node: n}
	r.end = Point{Node: n, Offset: Length(n)}
	return nil
}

// CommonAncestorContainer returns the deepest node containing both boundaries.
func (r *Range) CommonAncestorContainer() *html.Node {
	for a := r.start.Node; a != nil; a = a.Parent {
		if IsInclusiveAncestor(a, r.end.Node) {
			return a
		}
	}
	return nil
}

// CompareBoundaryPoints compares a boundary of r with a boundary of src.
// It returns -1, 0 or 1 as r's point is before, equal to or after src's.
func (r *Range) CompareBoundaryPoints(how How, src *Range) (int, error) {
	if Root(r.start.Node) != Root(src.start.Node) {
		return 0, ErrWrongDocument
	}
	var this, other Point
	switch how {
	case StartToStart:
		this, other = r.start, src.start
	case StartToEnd:
		this, other = r.end, src.start
	case EndToEnd:
		this, other = r.end, src.end
	case EndToStart:
		this, other = r.start, src.end
	default:
		return 0, fmt.Errorf("%w: comparison mode %d", ErrNotSupported, how)
	}
	return comparePoints(this, other), nil
}

// IntersectsNode reports whether n lies at least partly inside the range.
func (r *Range) IntersectsNode(n *html.Node) bool {
	if Root(n) != Root(r.start.Node) {
		return false
	}
	parent := n.Parent
	if parent == nil {
		return true
	}
	i := Index(n)
	return comparePoints(Point{Node: parent, Offset: i}, r.end) < 0 &&
		comparePoints(Point{Node: parent, Offset: i + 1}, r.start) > 0
}

func (r *Range) contains(n *html.Node) bool {
	return Root(n) == Root(r.start.Node) &&
		comparePoints(Point{Node: n}, r.start) > 0 &&
		comparePoints(Point{Node: n, Offset: Length(n)}, r.end) < 0
}

func (r *Range) partiallyContains(n *html.Node) bool {
	return IsInclusiveAncestor(n, r.start.Node) != IsInclusiveAncestor(n, r.end.Node)
}

// ExtractContents moves the selected content into a new fragment and
// collapses the range where the content used to be. Partially selected
// ancestors are cloned into the fragment and keep their unselected parts.
func (r *Range) ExtractContents() (*html.Node, error) {
	d := r.owner()
	frag := NewFragment()
	if r.Collapsed() {
		return frag, nil
	}
	osn, oso := r.start.Node, r.start.Offset
	oen, oeo := r.end.Node, r.end.Offset

	if osn == oen && isCharacterData(osn) {
		clone := CloneNode(osn)
		clone.Data = substring(osn.Data, oso, oeo)
		frag.AppendChild(clone)
		if err := d.ReplaceData(osn, oso, oeo-oso, ""); err != nil {
			return nil, err
		}
		r.end = r.start
		return frag, nil
	}

	common := r.CommonAncestorContainer()
	if common == nil {
		return nil, ErrWrongDocument
	}

	var firstPartial, lastPartial *html.Node
	if !IsInclusiveAncestor(osn, oen) {
		for c := common.FirstChild; c != nil; c = c.NextSibling {
			if r.partiallyContains(c) {
				firstPartial = c
				break
			}
		}
	}
	if !IsInclusiveAncestor(oen, osn) {
		for c := common.LastChild; c != nil; c = c.PrevSibling {
			if r.partiallyContains(c) {
				lastPartial = c
				break
			}
		}
	}

	var contained []*html.Node
	for c := common.FirstChild; c != nil; c = c.NextSibling {
		if r.contains(c) {
			if c.Type == html.DoctypeNode {
				return nil, fmt.Errorf("%w: range contains a doctype", ErrHierarchyRequest)
			}
			contained = append(contained, c)
		}
	}

	newNode, newOffset := osn, oso
	if !IsInclusiveAncestor(osn, oen) {
		ref := osn
		for ref.Parent != nil && !IsInclusiveAncestor(ref.Parent, oen) {
			ref = ref.Parent
		}
		newNode, newOffset = ref.Parent, Index(ref)+1
	}

	if firstPartial != nil {
		if isCharacterData(firstPartial) {
			clone := CloneNode(osn)
			clone.Data = substring(osn.Data, oso, Length(osn))
			frag.AppendChild(clone)
			if err := d.ReplaceData(osn, oso, Length(osn)-oso, ""); err != nil {
				return nil, err
			}
		} else {
			clone := CloneNode(firstPartial)
			frag.AppendChild(clone)
			sub := &Range{doc: r.doc, start: Point{Node: osn, Offset: oso}, end: Point{Node: firstPartial, Offset: Length(firstPartial)}}
			subFrag, err := sub.ExtractContents()
			if err != nil {
				return nil, err
			}
			moveChildren(subFrag, clone)
		}
	}

	for _, c := range contained {
		d.Remove(c)
		frag.AppendChild(c)
	}

	if lastPartial != nil {
		if isCharacterData(lastPartial) {
			clone := CloneNode(oen)
			clone.Data = substring(oen.Data, 0, oeo)
			frag.AppendChild(clone)
			if err := d.ReplaceData(oen, 0, oeo, ""); err != nil {
				return nil, err
			}
		} else {
			clone := CloneNode(lastPartial)
			frag.AppendChild(clone)
			sub := &Range{doc: r.doc, start: Point{Node: lastPartial}, end: Point{Node: oen, Offset: oeo}}
			subFrag, err := sub.ExtractContents()
			if err != nil {
				return nil, err
			}
			moveChildren(subFrag, clone)
		}
	}

	r.start = Point{Node: newNode, Offset: newOffset}
	r.end = r.start
	return frag, nil
}

// moveChildren moves every child of src under dst. Both are detached.
func moveChildren(src, dst *html.Node) {
	for c := src.FirstChild; c != nil; c = src.FirstChild {
		src.RemoveChild(c)
		dst.AppendChild(c)
	}
}

// InsertNode inserts node at the start of the range, splitting a text
// start container at the start offset.
func (r *Range) InsertNode(node *html.Node) error {
	d := r.owner()
	sn, so := r.start.Node, r.start.Offset
	ref, parent, err := r.insertionPoint(node)
	if err != nil {
		return err
	}
	if sn.Type == html.TextNode {
		tail, err := d.SplitText(sn, so)
		if err != nil {
			return err
		}
		ref = tail
	}
	if node == ref {
		ref = ref.NextSibling
	}
	d.Remove(node)

	newOffset := Length(parent)
	if ref != nil {
		newOffset = Index(ref)
	}
	if IsFragment(node) {
		newOffset += Length(node)
	} else {
		newOffset++
	}
	collapsed := r.Collapsed()
	if err := d.InsertBefore(parent, node, ref); err != nil {
		return err
	}
	if collapsed {
		r.end = Point{Node: parent, Offset: newOffset}
	}
	return nil
}

// SurroundContents moves the range's content into newParent and puts
// newParent where the content was. The range ends up selecting newParent.
func (r *Range) SurroundContents(newParent *html.Node) error {
	if r.partiallySelectsNonText() {
		return fmt.Errorf("%w: range partially selects a non-text node", ErrInvalidState)
	}
	switch newParent.Type {
	case html.DocumentNode, html.DoctypeNode:
		return fmt.Errorf("%w: cannot surround with %s", ErrInvalidNodeType, nodeTest(newParent))
	}
	if _, _, err := r.insertionPoint(newParent); err != nil {
		return fmt.Errorf("insert wrapper: %w", err)
	}
	d := r.owner()
	frag, err := r.ExtractContents()
	if err != nil {
		return fmt.Errorf("extract contents: %w", err)
	}
	for c := newParent.FirstChild; c != nil; c = newParent.FirstChild {
		d.Remove(c)
	}
	if err := r.InsertNode(newParent); err != nil {
		return fmt.Errorf("insert wrapper: %w", err)
	}
	if err := d.InsertBefore(newParent, frag, nil); err != nil {
		return fmt.Errorf("refill wrapper: %w", err)
	}
	return r.SelectNode(newParent)
}

// insertionPoint returns where InsertNode would put node, or the
// ErrHierarchyRequest it would fail with.
func (r *Range) insertionPoint(node *html.Node) (ref, parent *html.Node, err error) {
	sn, so := r.start.Node, r.start.Offset
	if sn.Type == html.CommentNode || (sn.Type == html.TextNode && sn.Parent == nil) || sn == node {
		return nil, nil, fmt.Errorf("%w: cannot insert at %s", ErrHierarchyRequest, r.start)
	}
	if sn.Type == html.TextNode {
		ref = sn
	} else {
		ref = ChildAt(sn, so)
	}
	parent = sn
	if ref != nil {
		parent = ref.Parent
	}
	if IsInclusiveAncestor(node, parent) {
		return nil, nil, fmt.Errorf("%w: node is an ancestor of the insertion point", ErrHierarchyRequest)
	}
	return ref, parent, nil
}

func (r *Range) partiallySelectsNonText() bool {
	common := r.CommonAncestorContainer()
	for n := r.start.Node; n != nil && n != common; n = n.Parent {
		if n.Type != html.TextNode && !IsInclusiveAncestor(n, r.end.Node) {
			return true
		}
	}
	for n := r.end.Node; n != nil && n != common; n = n.Parent {
		if n.Type != html.TextNode && !IsInclusiveAncestor(n, r.start.Node) {
			return true
		}
	}
	return false
}
