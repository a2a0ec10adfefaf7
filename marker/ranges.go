package marker

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/hazyhaar/rangewrap/dom"
)

// resolveRange turns a wire range description into a range over doc.
func resolveRange(doc *dom.Document, spec *RangeSpec) (*dom.Range, error) {
	var root *html.Node
	switch {
	case spec.Root != "":
		n, err := dom.Resolve(doc.Root(), spec.Root)
		if err != nil {
			return nil, fmt.Errorf("%w: root: %w", ErrInvalidRange, err)
		}
		root = n
	case spec.Selector != "":
		n, err := dom.QuerySelector(doc.Root(), spec.Selector)
		if err != nil {
			return nil, fmt.Errorf("%w: selector: %w", ErrInvalidRange, err)
		}
		root = n
	}

	switch {
	case spec.Find != "":
		r, err := doc.FindText(root, spec.Find)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRange, err)
		}
		return r, nil

	case spec.Text != nil:
		r, err := doc.TextRange(root, spec.Text.Start, spec.Text.End)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRange, err)
		}
		return r, nil

	case spec.Start != nil && spec.End != nil:
		start, err := resolveBoundary(doc, spec.Start)
		if err != nil {
			return nil, fmt.Errorf("%w: start: %w", ErrInvalidRange, err)
		}
		end, err := resolveBoundary(doc, spec.End)
		if err != nil {
			return nil, fmt.Errorf("%w: end: %w", ErrInvalidRange, err)
		}
		r := doc.CreateRange()
		if err := r.SetStart(start.Node, start.Offset); err != nil {
			return nil, fmt.Errorf("%w: start: %w", ErrInvalidRange, err)
		}
		if err := r.SetEnd(end.Node, end.Offset); err != nil {
			return nil, fmt.Errorf("%w: end: %w", ErrInvalidRange, err)
		}
		if r.Start() != start {
			return nil, fmt.Errorf("%w: end %s precedes start %s", ErrInvalidRange, end, start)
		}
		return r, nil
	}
	return nil, fmt.Errorf("%w: give find, text or start and end", ErrInvalidRange)
}

func resolveBoundary(doc *dom.Document, b *Boundary) (dom.Point, error) {
	n, err := dom.Resolve(doc.Root(), b.XPath)
	if err != nil {
		return dom.Point{}, err
	}
	return dom.Point{Node: n, Offset: b.Offset}, nil
}

func describeRange(r *dom.Range) *RangeInfo {
	return &RangeInfo{
		Start:     Boundary{XPath: dom.XPath(r.StartContainer()), Offset: r.StartOffset()},
		End:       Boundary{XPath: dom.XPath(r.EndContainer()), Offset: r.EndOffset()},
		Collapsed: r.Collapsed(),
		Text:      r.Text(),
	}
}
