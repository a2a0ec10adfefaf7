package dom

import (
	"bytes"
	"testing"

	"golang.org/x/net/html"
)

func mustParse(t *testing.T, s string) *Document {
	t.Helper()
	d, err := ParseString(s)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return d
}

// innerHTML renders the children of n.
func innerHTML(n *html.Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		html.Render(&buf, c)
	}
	return buf.String()
}

// findText returns the first text node whose data equals data.
func findText(t *testing.T, root *html.Node, data string) *html.Node {
	t.Helper()
	var found *html.Node
	WalkText(root, func(n *html.Node) bool {
		if n.Data == data {
			found = n
			return false
		}
		return true
	})
	if found == nil {
		t.Fatalf("text node %q not found", data)
	}
	return found
}

// findElement returns the nth (0-based) element named tag in document order.
func findElement(t *testing.T, root *html.Node, tag string, nth int) *html.Node {
	t.Helper()
	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == tag {
			if nth == 0 {
				found = n
				return
			}
			nth--
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	if found == nil {
		t.Fatalf("element <%s> not found", tag)
	}
	return found
}

func rangeOver(t *testing.T, d *Document, sn *html.Node, so int, en *html.Node, eo int) *Range {
	t.Helper()
	r := d.CreateRange()
	if err := r.SetStart(sn, so); err != nil {
		t.Fatalf("SetStart: %v", err)
	}
	if err := r.SetEnd(en, eo); err != nil {
		t.Fatalf("SetEnd: %v", err)
	}
	return r
}
