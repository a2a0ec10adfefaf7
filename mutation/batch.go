// CLAUDE:SUMMARY Defines the mutation record and batch types emitted for every highlight or unwrap.
// Package mutation defines the structured records describing how a document
// tree changed. The dom package reports each attached-tree mutation as a
// Record; a Journal groups the records of one operation into a Batch.
package mutation

// Op is the type of tree mutation observed.
type Op string

const (
	OpInsert Op = "insert" // node inserted (includes serialised subtree HTML)
	OpRemove Op = "remove" // node removed
	OpText   Op = "text"   // character data changed
)

// Record is a single tree mutation.
type Record struct {
	Op       Op     `json:"op"`
	XPath    string `json:"xpath"`
	NodeType int    `json:"node_type,omitempty"` // 1=element, 3=text, 8=comment
	Tag      string `json:"tag,omitempty"`
	Value    string `json:"value,omitempty"`     // new character data
	OldValue string `json:"old_value,omitempty"` // previous character data
	HTML     string `json:"html,omitempty"`      // serialised subtree for insert
}

// Batch is the unit emitted per document operation. One batch = all
// mutations performed by a single highlight, unwrap or normalisation.
type Batch struct {
	ID        string   `json:"id"`     // UUIDv7
	DocID     string   `json:"doc_id"` // document session the records belong to
	Seq       uint64   `json:"seq"`    // monotonically increasing per document (gap detection)
	Records   []Record `json:"records"`
	Timestamp int64    `json:"timestamp"` // epoch milliseconds at flush
}

// Empty reports whether the batch carries no mutation.
func (b *Batch) Empty() bool {
	return b == nil || len(b.Records) == 0
}
