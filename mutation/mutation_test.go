package mutation

import (
	"strconv"
	"testing"
)

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return "batch-" + strconv.Itoa(n)
	}
}

func TestJournal_FlushGroupsRecords(t *testing.T) {
	j := NewJournal("doc-1", seqIDs())
	j.Add(Record{Op: OpText, XPath: "/html/body/p/text()", Value: "f", OldValue: "foo"})
	j.Add(Record{Op: OpInsert, XPath: "/html/body/p/span", NodeType: 1, Tag: "span"})

	if j.Pending() != 2 {
		t.Fatalf("Pending: got %d, want 2", j.Pending())
	}

	b := j.Flush()
	if b.ID != "batch-1" {
		t.Errorf("ID: got %q, want %q", b.ID, "batch-1")
	}
	if b.DocID != "doc-1" {
		t.Errorf("DocID: got %q, want %q", b.DocID, "doc-1")
	}
	if b.Seq != 1 {
		t.Errorf("Seq: got %d, want 1", b.Seq)
	}
	if len(b.Records) != 2 {
		t.Fatalf("Records: got %d, want 2", len(b.Records))
	}
	if b.Records[1].Op != OpInsert {
		t.Errorf("Records[1].Op: got %q, want %q", b.Records[1].Op, OpInsert)
	}
	if j.Pending() != 0 {
		t.Errorf("Pending after flush: got %d, want 0", j.Pending())
	}
}

func TestJournal_EmptyFlushAdvancesSeq(t *testing.T) {
	j := NewJournal("doc-1", seqIDs())
	first := j.Flush()
	second := j.Flush()

	if !first.Empty() || !second.Empty() {
		t.Fatal("expected empty batches")
	}
	if first.Records == nil {
		t.Error("empty batch should carry a non-nil Records slice")
	}
	if second.Seq != first.Seq+1 {
		t.Errorf("Seq: got %d after %d", second.Seq, first.Seq)
	}
}

func TestJournal_Discard(t *testing.T) {
	j := NewJournal("doc-1", seqIDs())
	j.Add(Record{Op: OpRemove, XPath: "/html/body/p/text()[2]"})
	j.Discard()
	if b := j.Flush(); !b.Empty() {
		t.Errorf("expected empty batch after Discard, got %d records", len(b.Records))
	}
}

func TestBatchMarshalRoundtrip(t *testing.T) {
	b := &Batch{
		ID:    "01234567-89ab-cdef-0123-456789abcdef",
		DocID: "doc-1",
		Seq:   42,
		Records: []Record{
			{Op: OpInsert, XPath: "/html/body/p/span", NodeType: 1, Tag: "span", HTML: "<span>hello</span>"},
			{Op: OpText, XPath: "/html/body/p/text()", Value: "world", OldValue: "hello world"},
		},
		Timestamp: 1708700000000,
	}

	data, err := MarshalBatch(b)
	if err != nil {
		t.Fatal(err)
	}
	got, err := UnmarshalBatch(data)
	if err != nil {
		t.Fatal(err)
	}
	if got.Seq != b.Seq || got.DocID != b.DocID {
		t.Errorf("got seq=%d doc=%q, want seq=%d doc=%q", got.Seq, got.DocID, b.Seq, b.DocID)
	}
	if len(got.Records) != len(b.Records) {
		t.Fatalf("Records: got %d, want %d", len(got.Records), len(b.Records))
	}
}

func TestHashHTML(t *testing.T) {
	html := []byte("<html><body>test</body></html>")
	h1 := HashHTML(html)
	h2 := HashHTML(html)
	if h1 != h2 {
		t.Errorf("HashHTML not deterministic: %q != %q", h1, h2)
	}
	if len(h1) != 64 {
		t.Errorf("HashHTML length: got %d, want 64", len(h1))
	}
}
