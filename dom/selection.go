package dom

import "fmt"

// Selection is the document's list of selected ranges. Like most browsers,
// it holds at most one range.
type Selection struct {
	doc    *Document
	ranges []*Range
}

// RangeCount returns the number of ranges in the selection.
func (s *Selection) RangeCount() int {
	return len(s.ranges)
}

// RangeAt returns the range at index i.
func (s *Selection) RangeAt(i int) (*Range, error) {
	if i < 0 || i >= len(s.ranges) {
		return nil, fmt.Errorf("%w: selection has %d ranges, asked for %d", ErrIndexSize, len(s.ranges), i)
	}
	return s.ranges[i], nil
}

// AddRange adds r to the selection. A second range is ignored.
func (s *Selection) AddRange(r *Range) {
	if r == nil || len(s.ranges) > 0 {
		return
	}
	s.ranges = append(s.ranges, r)
}

// SetRange replaces the selection with r.
func (s *Selection) SetRange(r *Range) {
	s.RemoveAllRanges()
	s.AddRange(r)
}

// RemoveAllRanges empties the selection.
func (s *Selection) RemoveAllRanges() {
	s.ranges = s.ranges[:0]
}

// IsCollapsed reports whether the selection is empty or its range collapsed.
func (s *Selection) IsCollapsed() bool {
	return len(s.ranges) == 0 || s.ranges[0].Collapsed()
}
