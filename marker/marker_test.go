package marker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMarker(t *testing.T, cfg Config) *Marker {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = quietLogger()
	}
	return New(cfg)
}

func openDoc(t *testing.T, m *Marker, page string) string {
	t.Helper()
	info, err := m.Open(context.Background(), page)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return info.ID
}

func render(t *testing.T, m *Marker, id string) string {
	t.Helper()
	out, err := m.Render(context.Background(), id)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	return out
}

func TestHighlight_Find(t *testing.T) {
	ctx := context.Background()
	m := newMarker(t, Config{})
	id := openDoc(t, m, "<p>Hello world</p>")

	res, err := m.Highlight(ctx, HighlightRequest{
		DocID: id,
		Style: "background:yellow",
		Range: &RangeSpec{Find: "Hello"},
	})
	if err != nil {
		t.Fatalf("Highlight: %v", err)
	}
	if res.ID != "1" || res.Text != "Hello" {
		t.Errorf("result: got id %q text %q", res.ID, res.Text)
	}
	if diff := cmp.Diff([]string{"/html/body/p/span"}, res.Wrappers); diff != "" {
		t.Errorf("wrappers (-want +got):\n%s", diff)
	}
	if res.Batch.Empty() || res.Batch.Seq != 1 || res.Batch.DocID != id {
		t.Errorf("batch: got %+v", res.Batch)
	}
	if !strings.HasPrefix(res.Batch.ID, "mut_") {
		t.Errorf("batch id: got %q", res.Batch.ID)
	}
	want := `<p><span data-calibre-range-wrapper="1" style="background:yellow">Hello</span> world</p>`
	if got := render(t, m, id); !strings.Contains(got, want) {
		t.Errorf("render: got %s, want it to contain %s", got, want)
	}
	if res.Range == nil || res.Range.Text != "Hello" || res.Range.Start.XPath != "/html/body/p/span" {
		t.Errorf("range: got %+v", res.Range)
	}
}

func TestHighlight_DefaultStyle(t *testing.T) {
	m := newMarker(t, Config{DefaultStyle: "color:red"})
	id := openDoc(t, m, "<p>Hello</p>")
	if _, err := m.Highlight(context.Background(), HighlightRequest{DocID: id, Range: &RangeSpec{Find: "ell"}}); err != nil {
		t.Fatal(err)
	}
	if got := render(t, m, id); !strings.Contains(got, `style="color:red">ell</span>`) {
		t.Errorf("render: %s", got)
	}
}

func TestHighlight_Collapsed(t *testing.T) {
	m := newMarker(t, Config{})
	id := openDoc(t, m, "<p>Hello</p>")
	before := render(t, m, id)

	res, err := m.Highlight(context.Background(), HighlightRequest{
		DocID: id,
		Range: &RangeSpec{Text: &TextSpan{Start: 2, End: 2}},
	})
	if err != nil {
		t.Fatalf("Highlight: %v", err)
	}
	if res.ID != "" || !res.Batch.Empty() {
		t.Errorf("collapsed highlight: got id %q, %d records", res.ID, len(res.Batch.Records))
	}
	if res.Batch.Seq != 1 {
		t.Errorf("seq: got %d, want 1", res.Batch.Seq)
	}
	if got := render(t, m, id); got != before {
		t.Errorf("document changed:\n%s", got)
	}
}

func TestHighlight_Selection(t *testing.T) {
	ctx := context.Background()
	m := newMarker(t, Config{})
	id := openDoc(t, m, "<p>foo</p><p>bar</p>")

	if _, err := m.Highlight(ctx, HighlightRequest{DocID: id}); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("Highlight without selection: got %v, want ErrInvalidRange", err)
	}

	info, err := m.Select(ctx, id, RangeSpec{Text: &TextSpan{Start: 1, End: 5}})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if info.Text != "ooba" || info.Collapsed {
		t.Errorf("selection: got %+v", info)
	}

	res, err := m.Highlight(ctx, HighlightRequest{DocID: id})
	if err != nil {
		t.Fatalf("Highlight: %v", err)
	}
	if res.Text != "ooba" || len(res.Wrappers) != 2 {
		t.Errorf("result: got %+v", res)
	}
	if res.Range == nil || res.Range.Text != "ooba" {
		t.Errorf("selection after highlight: got %+v", res.Range)
	}
}

func TestHighlight_Boundaries(t *testing.T) {
	ctx := context.Background()
	m := newMarker(t, Config{})
	id := openDoc(t, m, "<p>Hello world</p>")

	res, err := m.Highlight(ctx, HighlightRequest{DocID: id, Range: &RangeSpec{
		Start: &Boundary{XPath: "/html/body/p/text()", Offset: 6},
		End:   &Boundary{XPath: "/html/body/p/text()", Offset: 11},
	}})
	if err != nil {
		t.Fatalf("Highlight: %v", err)
	}
	if res.Text != "world" {
		t.Errorf("text: got %q", res.Text)
	}
}

func TestHighlight_SelectorScope(t *testing.T) {
	ctx := context.Background()
	m := newMarker(t, Config{})
	id := openDoc(t, m, `<p>note</p><article class="post"><p>a note here</p></article>`)

	res, err := m.Highlight(ctx, HighlightRequest{DocID: id, Range: &RangeSpec{Selector: "article.post", Find: "note"}})
	if err != nil {
		t.Fatalf("Highlight: %v", err)
	}
	if len(res.Wrappers) != 1 || !strings.HasPrefix(res.Wrappers[0], "/html/body/article/p/") {
		t.Errorf("wrappers: got %v", res.Wrappers)
	}
}

func TestHighlight_InvalidRanges(t *testing.T) {
	ctx := context.Background()
	m := newMarker(t, Config{})
	id := openDoc(t, m, "<p>Hello world</p>")

	tests := []struct {
		name string
		spec RangeSpec
	}{
		{"empty", RangeSpec{}},
		{"missing text", RangeSpec{Find: "tea"}},
		{"offsets past end", RangeSpec{Text: &TextSpan{Start: 0, End: 40}}},
		{"unknown root", RangeSpec{Root: "//table", Find: "Hello"}},
		{"unknown selector", RangeSpec{Selector: "table.data", Find: "Hello"}},
		{"unknown node", RangeSpec{
			Start: &Boundary{XPath: "//ul", Offset: 0},
			End:   &Boundary{XPath: "/html/body/p/text()", Offset: 1},
		}},
		{"end before start", RangeSpec{
			Start: &Boundary{XPath: "/html/body/p/text()", Offset: 6},
			End:   &Boundary{XPath: "/html/body/p/text()", Offset: 2},
		}},
		{"offset past length", RangeSpec{
			Start: &Boundary{XPath: "/html/body/p/text()", Offset: 0},
			End:   &Boundary{XPath: "/html/body/p/text()", Offset: 12},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := tt.spec
			_, err := m.Highlight(ctx, HighlightRequest{DocID: id, Range: &spec})
			if !errors.Is(err, ErrInvalidRange) {
				t.Errorf("got %v, want ErrInvalidRange", err)
			}
		})
	}
}

func TestUnwrap_Restores(t *testing.T) {
	ctx := context.Background()
	m := newMarker(t, Config{})
	opened, err := m.Open(ctx, "<p>foo</p><p>bar</p>")
	if err != nil {
		t.Fatal(err)
	}
	before := render(t, m, opened.ID)

	hl, err := m.Highlight(ctx, HighlightRequest{DocID: opened.ID, Range: &RangeSpec{Find: "ooba"}})
	if err != nil {
		t.Fatal(err)
	}
	res, err := m.Unwrap(ctx, opened.ID, hl.ID)
	if err != nil {
		t.Fatalf("Unwrap: %v", err)
	}
	if res.Removed != 2 || res.Batch.Empty() || res.Batch.Seq != 2 {
		t.Errorf("unwrap: got removed %d, seq %d", res.Removed, res.Batch.Seq)
	}
	if got := render(t, m, opened.ID); got != before {
		t.Errorf("render after unwrap:\n got %s\nwant %s", got, before)
	}
	info, err := m.Info(ctx, opened.ID)
	if err != nil {
		t.Fatal(err)
	}
	if info.Hash != opened.Hash || info.Highlights != 0 {
		t.Errorf("info after unwrap: got %+v, opened %+v", info, opened)
	}

	if _, err := m.Unwrap(ctx, opened.ID, hl.ID); !errors.Is(err, ErrGroupNotFound) {
		t.Errorf("second unwrap: got %v, want ErrGroupNotFound", err)
	}
}

func TestResetCounter(t *testing.T) {
	ctx := context.Background()
	m := newMarker(t, Config{})
	id := openDoc(t, m, "<p>one</p><p>two</p><p>three</p>")

	highlight := func(find string) string {
		t.Helper()
		res, err := m.Highlight(ctx, HighlightRequest{DocID: id, Range: &RangeSpec{Find: find}})
		if err != nil {
			t.Fatal(err)
		}
		return res.ID
	}
	got := []string{highlight("one"), highlight("two")}
	if err := m.ResetCounter(ctx, id); err != nil {
		t.Fatal(err)
	}
	got = append(got, highlight("three"))
	if diff := cmp.Diff([]string{"1", "2", "1"}, got); diff != "" {
		t.Errorf("ids (-want +got):\n%s", diff)
	}
}

func TestCountersArePerDocument(t *testing.T) {
	ctx := context.Background()
	m := newMarker(t, Config{})
	a := openDoc(t, m, "<p>alpha</p>")
	b := openDoc(t, m, "<p>beta</p>")

	for _, id := range []string{a, b} {
		res, err := m.Highlight(ctx, HighlightRequest{DocID: id, Range: &RangeSpec{Text: &TextSpan{Start: 0, End: 2}}})
		if err != nil {
			t.Fatal(err)
		}
		if res.ID != "1" {
			t.Errorf("doc %s: first id %q, want 1", id, res.ID)
		}
	}
}

func TestHighlights(t *testing.T) {
	ctx := context.Background()
	m := newMarker(t, Config{})
	id := openDoc(t, m, "<p>one two</p><p>three</p>")
	for _, find := range []string{"three", "one"} {
		if _, err := m.Highlight(ctx, HighlightRequest{DocID: id, Range: &RangeSpec{Find: find}}); err != nil {
			t.Fatal(err)
		}
	}

	groups, err := m.Highlights(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	want := []Group{
		{ID: "2", Text: "one", Wrappers: []string{"/html/body/p[1]/span"}},
		{ID: "1", Text: "three", Wrappers: []string{"/html/body/p[2]/span"}},
	}
	if diff := cmp.Diff(want, groups); diff != "" {
		t.Errorf("Highlights (-want +got):\n%s", diff)
	}
}

func TestExportMarkdown(t *testing.T) {
	ctx := context.Background()
	m := newMarker(t, Config{})
	id := openDoc(t, m, "<p>Some <b>bold</b> words</p><p>Second para</p>")
	if _, err := m.Highlight(ctx, HighlightRequest{DocID: id, Range: &RangeSpec{Find: "bold words"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Highlight(ctx, HighlightRequest{DocID: id, Range: &RangeSpec{Find: "Second"}}); err != nil {
		t.Fatal(err)
	}

	md, err := m.ExportMarkdown(ctx, id)
	if err != nil {
		t.Fatalf("ExportMarkdown: %v", err)
	}
	for _, want := range []string{"# Highlights", "## 1", "## 2", "> **bold**", "> Second"} {
		if !strings.Contains(md, want) {
			t.Errorf("export missing %q:\n%s", want, md)
		}
	}
	if strings.Index(md, "## 1") > strings.Index(md, "## 2") {
		t.Errorf("groups out of document order:\n%s", md)
	}
}

func TestOpen_Limits(t *testing.T) {
	ctx := context.Background()
	m := newMarker(t, Config{MaxDocumentSize: 16, MaxDocuments: 1})

	if _, err := m.Open(ctx, "<p>this page is too long</p>"); !errors.Is(err, ErrDocumentTooLarge) {
		t.Errorf("large document: got %v, want ErrDocumentTooLarge", err)
	}
	openDoc(t, m, "<p>a</p>")
	if _, err := m.Open(ctx, "<p>b</p>"); !errors.Is(err, ErrTooManyDocuments) {
		t.Errorf("second document: got %v, want ErrTooManyDocuments", err)
	}
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	m := newMarker(t, Config{})
	id := openDoc(t, m, "<p>a</p>")

	if err := m.Close(ctx, id); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := m.Render(ctx, id); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("Render after close: got %v, want ErrDocumentNotFound", err)
	}
	if err := m.Close(ctx, id); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("second Close: got %v, want ErrDocumentNotFound", err)
	}
	if n := len(m.Documents(ctx)); n != 0 {
		t.Errorf("Documents: got %d", n)
	}
}

func TestOpen_Sanitize(t *testing.T) {
	m := newMarker(t, Config{Sanitize: true})
	id := openDoc(t, m, `<p onclick="steal()" data-note="x">Hello</p><script>alert(1)</script>`)

	got := render(t, m, id)
	for _, bad := range []string{"<script", "onclick", "alert"} {
		if strings.Contains(got, bad) {
			t.Errorf("sanitised document still contains %q: %s", bad, got)
		}
	}
	if !strings.Contains(got, `data-note="x"`) {
		t.Errorf("data attributes should survive: %s", got)
	}
}

func TestConcurrentDocuments(t *testing.T) {
	ctx := context.Background()
	m := newMarker(t, Config{})
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			info, err := m.Open(ctx, "<p>Hello world</p>")
			if err != nil {
				errs <- err
				return
			}
			for _, find := range []string{"Hello", "world"} {
				if _, err := m.Highlight(ctx, HighlightRequest{DocID: info.ID, Range: &RangeSpec{Find: find}}); err != nil {
					errs <- err
					return
				}
			}
			if _, err := m.Unwrap(ctx, info.ID, "1"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
	if n := len(m.Documents(ctx)); n != 16 {
		t.Errorf("Documents: got %d, want 16", n)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marker.yaml")
	data := `addr: ":9090"
wrapper:
  tag: mark
default_style: "background:yellow"
sanitize: true
max_documents: 4
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	cfg.Logger = quietLogger()
	got := New(*cfg).Config()

	if got.Addr != ":9090" || got.Wrapper.Tag != "mark" || !got.Sanitize || got.MaxDocuments != 4 {
		t.Errorf("config: got %+v", got)
	}
	if got.Wrapper.Attr != "data-calibre-range-wrapper" {
		t.Errorf("default attr: got %q", got.Wrapper.Attr)
	}
	if got.MaxDocumentSize != 10*1024*1024 {
		t.Errorf("default max size: got %d", got.MaxDocumentSize)
	}

	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file: expected error")
	}
}
