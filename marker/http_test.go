package marker

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/rangewrap/shield"
)

func testServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	m := newMarker(t, cfg)
	r := chi.NewRouter()
	for _, mw := range shield.DefaultStack(m.Config().MaxDocumentSize) {
		r.Use(mw)
	}
	m.RegisterHTTP(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, contentType, body string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, string(data)
}

func TestHTTP_Lifecycle(t *testing.T) {
	srv := testServer(t, Config{})

	resp, body := do(t, http.MethodPost, srv.URL+"/documents", "text/html", "<p>foo</p><p>bar</p>")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("open: status %d: %s", resp.StatusCode, body)
	}
	var info DocumentInfo
	if err := json.Unmarshal([]byte(body), &info); err != nil {
		t.Fatal(err)
	}
	doc := srv.URL + "/documents/" + info.ID

	resp, body = do(t, http.MethodPost, doc+"/highlights", "application/json",
		`{"style":"background:yellow","range":{"text":{"start":1,"end":5}}}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("highlight: status %d: %s", resp.StatusCode, body)
	}
	var hl HighlightResult
	if err := json.Unmarshal([]byte(body), &hl); err != nil {
		t.Fatal(err)
	}
	if hl.ID != "1" || hl.Text != "ooba" || len(hl.Batch.Records) == 0 {
		t.Errorf("highlight: got %+v", hl)
	}

	resp, body = do(t, http.MethodGet, doc, "", "")
	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
		t.Fatalf("render: status %d, type %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if !strings.Contains(body, `<p>f<span data-calibre-range-wrapper="1" style="background:yellow">oo</span></p>`) {
		t.Errorf("render: %s", body)
	}

	resp, body = do(t, http.MethodGet, doc+"/highlights", "", "")
	var groups []Group
	if err := json.Unmarshal([]byte(body), &groups); err != nil || len(groups) != 1 {
		t.Fatalf("list: status %d, %s", resp.StatusCode, body)
	}

	resp, body = do(t, http.MethodGet, doc+"/export.md", "", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "## 1") {
		t.Errorf("export: status %d: %s", resp.StatusCode, body)
	}

	resp, body = do(t, http.MethodDelete, doc+"/highlights/1", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unwrap: status %d: %s", resp.StatusCode, body)
	}
	_, body = do(t, http.MethodGet, doc, "", "")
	if !strings.Contains(body, "<p>foo</p><p>bar</p>") {
		t.Errorf("render after unwrap: %s", body)
	}

	resp, _ = do(t, http.MethodPost, doc+"/highlights/reset", "", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("reset: status %d", resp.StatusCode)
	}

	resp, _ = do(t, http.MethodDelete, doc, "", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("close: status %d", resp.StatusCode)
	}
	resp, _ = do(t, http.MethodGet, doc, "", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("render after close: status %d", resp.StatusCode)
	}
}

func TestHTTP_SelectionThenHighlight(t *testing.T) {
	srv := testServer(t, Config{})
	_, body := do(t, http.MethodPost, srv.URL+"/documents", "application/json", `{"html":"<p>Hello world</p>"}`)
	var info DocumentInfo
	if err := json.Unmarshal([]byte(body), &info); err != nil {
		t.Fatal(err)
	}
	doc := srv.URL + "/documents/" + info.ID

	resp, body := do(t, http.MethodPost, doc+"/selection", "application/json", `{"find":"world"}`)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, `"text":"world"`) {
		t.Fatalf("select: status %d: %s", resp.StatusCode, body)
	}
	resp, body = do(t, http.MethodPost, doc+"/highlights", "application/json", `{}`)
	if resp.StatusCode != http.StatusCreated || !strings.Contains(body, `"text":"world"`) {
		t.Errorf("highlight selection: status %d: %s", resp.StatusCode, body)
	}
}

func TestHTTP_Errors(t *testing.T) {
	srv := testServer(t, Config{MaxDocumentSize: 64})
	_, body := do(t, http.MethodPost, srv.URL+"/documents", "text/html", "<p>Hello</p>")
	var info DocumentInfo
	if err := json.Unmarshal([]byte(body), &info); err != nil {
		t.Fatal(err)
	}
	doc := srv.URL + "/documents/" + info.ID

	tests := []struct {
		name         string
		method, path string
		contentType  string
		body         string
		want         int
	}{
		{"unknown document", http.MethodGet, "/documents/doc_nope", "", "", http.StatusNotFound},
		{"unknown group", http.MethodDelete, "/documents/" + info.ID + "/highlights/9", "", "", http.StatusNotFound},
		{"bad json", http.MethodPost, "/documents/" + info.ID + "/highlights", "application/json", "{", http.StatusBadRequest},
		{"no range", http.MethodPost, "/documents/" + info.ID + "/highlights", "application/json", "{}", http.StatusBadRequest},
		{"text not found", http.MethodPost, "/documents/" + info.ID + "/highlights", "application/json", `{"range":{"find":"tea"}}`, http.StatusBadRequest},
		{"too large", http.MethodPost, "/documents", "text/html", "<p>" + strings.Repeat("x", 100) + "</p>", http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, tt.method, srv.URL+tt.path, tt.contentType, tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("status: got %d, want %d (%s)", resp.StatusCode, tt.want, body)
			}
		})
	}

	resp, body := do(t, http.MethodPost, doc+"/highlights", "application/json", `{"range":{"text":{"start":1,"end":1}}}`)
	var hl HighlightResult
	if err := json.Unmarshal([]byte(body), &hl); err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK || hl.ID != "" || !hl.Batch.Empty() {
		t.Errorf("collapsed highlight: status %d: %s", resp.StatusCode, body)
	}
}

func TestHTTP_Health(t *testing.T) {
	srv := testServer(t, Config{})
	resp, body := do(t, http.MethodGet, srv.URL+"/health", "", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, `"status":"ok"`) {
		t.Errorf("health: status %d: %s", resp.StatusCode, body)
	}
	if resp.Header.Get("X-Trace-ID") == "" {
		t.Error("missing X-Trace-ID header")
	}
}

func TestHTTP_HeadHealth(t *testing.T) {
	srv := testServer(t, Config{})
	resp, body := do(t, http.MethodHead, srv.URL+"/health", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("HEAD /health: got %d", resp.StatusCode)
	}
	if body != "" {
		t.Errorf("HEAD body: got %q", body)
	}
}
