package mutation

import "time"

// Journal accumulates records for one document until the next Flush.
// It is not safe for concurrent use; callers serialise access per document.
type Journal struct {
	docID   string
	newID   func() string
	now     func() time.Time
	seq     uint64
	records []Record
}

// NewJournal creates a Journal for docID. newID produces batch identifiers.
func NewJournal(docID string, newID func() string) *Journal {
	return &Journal{
		docID: docID,
		newID: newID,
		now:   time.Now,
	}
}

// Add appends a record. Its signature matches the dom observer callback.
func (j *Journal) Add(r Record) {
	j.records = append(j.records, r)
}

// Pending returns the number of records not yet flushed.
func (j *Journal) Pending() int {
	return len(j.records)
}

// Flush returns the pending records as a Batch and starts a new one.
// A batch is emitted even when empty so that Seq advances once per operation.
func (j *Journal) Flush() *Batch {
	j.seq++
	b := &Batch{
		ID:        j.newID(),
		DocID:     j.docID,
		Seq:       j.seq,
		Records:   j.records,
		Timestamp: j.now().UnixMilli(),
	}
	if b.Records == nil {
		b.Records = []Record{}
	}
	j.records = nil
	return b
}

// Discard drops pending records without emitting a batch.
func (j *Journal) Discard() {
	j.records = nil
}
