// CLAUDE:SUMMARY Request and response types shared by the Go API, the HTTP routes and the MCP tools.
package marker

import (
	"errors"

	"github.com/hazyhaar/rangewrap/mutation"
)

var (
	ErrDocumentNotFound = errors.New("marker: document not found")
	ErrDocumentTooLarge = errors.New("marker: document too large")
	ErrTooManyDocuments = errors.New("marker: too many open documents")
	ErrGroupNotFound    = errors.New("marker: highlight group not found")
	ErrInvalidRange     = errors.New("marker: invalid range")
)

// Boundary is a range boundary point addressed by XPath.
type Boundary struct {
	XPath  string `json:"xpath"`
	Offset int    `json:"offset"`
}

// TextSpan addresses characters [Start, End) of a subtree's text.
type TextSpan struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// RangeSpec locates a range in a document. Exactly one of Find, Text or
// Start/End is used, checked in that order. Root (an XPath) or Selector
// (CSS) scopes Find and Text to the first matching subtree; the body is
// used when both are empty.
type RangeSpec struct {
	Root     string    `json:"root,omitempty"`
	Selector string    `json:"selector,omitempty"`
	Find     string    `json:"find,omitempty"`
	Text     *TextSpan `json:"text,omitempty"`
	Start    *Boundary `json:"start,omitempty"`
	End      *Boundary `json:"end,omitempty"`
}

// RangeInfo describes a resolved range.
type RangeInfo struct {
	Start     Boundary `json:"start"`
	End       Boundary `json:"end"`
	Collapsed bool     `json:"collapsed"`
	Text      string   `json:"text"`
}

// DocumentInfo describes an open document.
type DocumentInfo struct {
	ID         string `json:"id"`
	Hash       string `json:"hash"` // SHA-256 of the rendered tree
	Size       int    `json:"size"`
	Highlights int    `json:"highlights"`
	CreatedAt  int64  `json:"created_at"` // epoch milliseconds
}

// HighlightRequest asks for the text of a range to be highlighted. A nil
// Range falls back to the document's selection.
type HighlightRequest struct {
	DocID string     `json:"doc_id"`
	Style string     `json:"style,omitempty"`
	Range *RangeSpec `json:"range,omitempty"`
}

// HighlightResult reports a highlight. ID is empty when the range covered
// no text; Batch then holds no record.
type HighlightResult struct {
	ID       string          `json:"id,omitempty"`
	Text     string          `json:"text,omitempty"`
	Wrappers []string        `json:"wrappers,omitempty"` // XPaths in document order
	Range    *RangeInfo      `json:"range,omitempty"`
	Batch    *mutation.Batch `json:"batch"`
}

// Group describes one highlight present in a document.
type Group struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Wrappers []string `json:"wrappers"`
}

// UnwrapResult reports the removal of a highlight group.
type UnwrapResult struct {
	ID      string          `json:"id"`
	Removed int             `json:"removed"`
	Batch   *mutation.Batch `json:"batch"`
}
