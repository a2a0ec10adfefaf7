// CLAUDE:SUMMARY Node helpers over x/net/html: length, index, ancestry, shallow clone, attributes, fragments.
package dom

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// fragmentData marks a parentless DocumentNode used as a document fragment.
// x/net/html has no fragment node type.
const fragmentData = "#document-fragment"

// NewFragment returns an empty document fragment.
func NewFragment() *html.Node {
	return &html.Node{Type: html.DocumentNode, Data: fragmentData}
}

// IsFragment reports whether n was created by NewFragment.
func IsFragment(n *html.Node) bool {
	return n != nil && n.Type == html.DocumentNode && n.Data == fragmentData
}

// IsText reports whether n is a text node.
func IsText(n *html.Node) bool {
	return n != nil && n.Type == html.TextNode
}

func isCharacterData(n *html.Node) bool {
	return n != nil && (n.Type == html.TextNode || n.Type == html.CommentNode)
}

// Length returns the DOM length of n: the rune count of character data,
// zero for a doctype, and the number of children otherwise.
func Length(n *html.Node) int {
	switch n.Type {
	case html.TextNode, html.CommentNode:
		return utf8.RuneCountInString(n.Data)
	case html.DoctypeNode:
		return 0
	}
	count := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		count++
	}
	return count
}

// Index returns the position of n among its siblings.
func Index(n *html.Node) int {
	i := 0
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		i++
	}
	return i
}

// ChildAt returns the i-th child of parent, or nil when i equals the
// number of children (the "after last child" position).
func ChildAt(parent *html.Node, i int) *html.Node {
	if i < 0 {
		return nil
	}
	c := parent.FirstChild
	for ; c != nil && i > 0; i-- {
		c = c.NextSibling
	}
	return c
}

// Root returns the topmost ancestor of n.
func Root(n *html.Node) *html.Node {
	for n.Parent != nil {
		n = n.Parent
	}
	return n
}

// IsInclusiveAncestor reports whether a is n or one of its ancestors.
func IsInclusiveAncestor(a, n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n == a {
			return true
		}
	}
	return false
}

// CloneNode returns a detached shallow copy of n with its own attribute slice.
func CloneNode(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		c.Attr = make([]html.Attribute, len(n.Attr))
		copy(c.Attr, n.Attr)
	}
	return c
}

// TextContent returns the concatenated text of n and its descendants.
func TextContent(n *html.Node) string {
	if isCharacterData(n) {
		return n.Data
	}
	var sb strings.Builder
	WalkText(n, func(t *html.Node) bool {
		sb.WriteString(t.Data)
		return true
	})
	return sb.String()
}

// WalkText visits every text node beneath root in document order.
// Returning false from fn stops the walk.
func WalkText(root *html.Node, fn func(*html.Node) bool) {
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.TextNode {
			return fn(n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if !walk(c) {
				return false
			}
		}
		return true
	}
	walk(root)
}

// Attr returns the value of attribute key on n.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets attribute key on n, replacing any existing value.
func SetAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// nodeTypeCode maps x/net/html node types to DOM nodeType numbers.
func nodeTypeCode(n *html.Node) int {
	switch n.Type {
	case html.ElementNode:
		return 1
	case html.TextNode:
		return 3
	case html.CommentNode:
		return 8
	case html.DocumentNode:
		if IsFragment(n) {
			return 11
		}
		return 9
	case html.DoctypeNode:
		return 10
	}
	return 0
}

// spliceRunes replaces count runes of s starting at offset with data.
func spliceRunes(s string, offset, count int, data string) string {
	from := byteOffset(s, offset)
	to := from + byteOffset(s[from:], count)
	return s[:from] + data + s[to:]
}

func substring(s string, from, to int) string {
	i := byteOffset(s, from)
	return s[i : i+byteOffset(s[i:], to-from)]
}

// byteOffset returns the byte index of the n-th rune of s, counting runes
// the way utf8.RuneCountInString does. Invalid bytes count as one rune and
// are left as they are.
func byteOffset(s string, n int) int {
	i := 0
	for ; n > 0 && i < len(s); n-- {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return i
}
