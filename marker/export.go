// CLAUDE:SUMMARY Exports a document's highlights as a Markdown note, keeping the inline formatting around each wrapped fragment.
package marker

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/rangewrap/dom"
	"github.com/hazyhaar/rangewrap/highlight"
)

// inline elements are carried over into the export; anything else ends
// the climb and delimits a block.
var inline = map[atom.Atom]bool{
	atom.A: true, atom.Abbr: true, atom.B: true, atom.Cite: true,
	atom.Code: true, atom.Del: true, atom.Em: true, atom.I: true,
	atom.Ins: true, atom.Kbd: true, atom.Mark: true, atom.Q: true,
	atom.S: true, atom.Small: true, atom.Span: true, atom.Strong: true,
	atom.Sub: true, atom.Sup: true, atom.U: true,
}

// ExportMarkdown renders every highlight of a document as a quoted Markdown
// section, in document order.
func (m *Marker) ExportMarkdown(ctx context.Context, docID string) (string, error) {
	s, err := m.lookup(docID)
	if err != nil {
		return "", err
	}
	defer s.mu.Unlock()

	var out strings.Builder
	out.WriteString("# Highlights\n")
	for _, h := range s.wrapper.Highlights(s.doc) {
		fmt.Fprintf(&out, "\n## %s\n\n", h.ID)
		for i, block := range blocks(h) {
			md, err := m.md.ConvertString(block)
			if err != nil {
				return "", fmt.Errorf("convert highlight %s: %w", h.ID, err)
			}
			if i > 0 {
				out.WriteString(">\n")
			}
			for _, line := range strings.Split(strings.TrimSpace(md), "\n") {
				if line == "" {
					out.WriteString(">\n")
					continue
				}
				out.WriteString("> " + line + "\n")
			}
		}
	}
	return out.String(), nil
}

// blocks renders the wrappers of h as HTML, one string per enclosing block.
// Each wrapper's text is re-nested in copies of its inline ancestors.
func blocks(h *highlight.Highlight) []string {
	var out []string
	var buf bytes.Buffer
	var current *html.Node
	for _, w := range h.Wrappers {
		frag := &html.Node{Type: html.TextNode, Data: dom.TextContent(w)}
		p := w.Parent
		for ; p != nil && p.Type == html.ElementNode && inline[p.DataAtom]; p = p.Parent {
			c := dom.CloneNode(p)
			c.AppendChild(frag)
			frag = c
		}
		if p != current && buf.Len() > 0 {
			out = append(out, buf.String())
			buf.Reset()
		}
		current = p
		html.Render(&buf, frag)
	}
	if buf.Len() > 0 {
		out = append(out, buf.String())
	}
	return out
}
