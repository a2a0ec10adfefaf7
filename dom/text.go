// CLAUDE:SUMMARY Builds ranges from character offsets or string matches over the concatenated text of a subtree.
package dom

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// TextRange returns a range over the runes [start, end) of the concatenated
// text beneath root (the body when root is nil).
func (d *Document) TextRange(root *html.Node, start, end int) (*Range, error) {
	if root == nil {
		root = d.Body()
	}
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: text offsets [%d, %d)", ErrIndexSize, start, end)
	}
	var nodes []*html.Node
	WalkText(root, func(n *html.Node) bool {
		nodes = append(nodes, n)
		return true
	})
	sn, so, err := locateText(nodes, start, true)
	if err != nil {
		return nil, err
	}
	en, eo := sn, so
	if end > start {
		if en, eo, err = locateText(nodes, end, false); err != nil {
			return nil, err
		}
	}
	r := d.CreateRange()
	if err := r.SetStart(sn, so); err != nil {
		return nil, err
	}
	if err := r.SetEnd(en, eo); err != nil {
		return nil, err
	}
	return r, nil
}

// locateText maps a text offset to a boundary point. At a node seam a start
// point lands at the beginning of the next node and an end point at the end
// of the previous one, so neither boundary touches a node with zero width.
func locateText(nodes []*html.Node, offset int, start bool) (*html.Node, int, error) {
	pos := 0
	var last *html.Node
	for _, n := range nodes {
		l := Length(n)
		if offset < pos+l || (!start && offset == pos+l) {
			return n, offset - pos, nil
		}
		pos += l
		last = n
	}
	if last != nil && offset == pos {
		return last, Length(last), nil
	}
	return nil, 0, fmt.Errorf("%w: text offset %d beyond %d characters", ErrIndexSize, offset, pos)
}

// FindText returns a range over the first occurrence of needle in the
// concatenated text beneath root (the body when root is nil).
func (d *Document) FindText(root *html.Node, needle string) (*Range, error) {
	if root == nil {
		root = d.Body()
	}
	if needle == "" {
		return nil, fmt.Errorf("%w: empty search text", ErrNotFound)
	}
	text := TextContent(root)
	idx := strings.Index(text, needle)
	if idx < 0 {
		return nil, fmt.Errorf("%w: text %q", ErrNotFound, needle)
	}
	start := utf8.RuneCountInString(text[:idx])
	return d.TextRange(root, start, start+utf8.RuneCountInString(needle))
}
