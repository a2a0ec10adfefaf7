package dom

import (
	"errors"
	"testing"
)

func TestXPath(t *testing.T) {
	d := mustParse(t, "<p>a</p><p>b<b>x</b>c</p>")
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"first p", XPath(findElement(t, d.Root(), "p", 0)), "/html/body/p[1]"},
		{"lone text", XPath(findText(t, d.Root(), "a")), "/html/body/p[1]/text()"},
		{"second text", XPath(findText(t, d.Root(), "c")), "/html/body/p[2]/text()[2]"},
		{"bold", XPath(findElement(t, d.Root(), "b", 0)), "/html/body/p[2]/b"},
		{"document", XPath(d.Root()), ""},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestResolve_RoundTrip(t *testing.T) {
	d := mustParse(t, "<p>a</p><p>b<b>x</b>c</p>")
	for _, n := range []string{"a", "b", "x", "c"} {
		want := findText(t, d.Root(), n)
		got, err := Resolve(d.Root(), XPath(want))
		if err != nil {
			t.Fatalf("Resolve(%q): %v", XPath(want), err)
		}
		if got != want {
			t.Errorf("Resolve(%q): got %q, want %q", XPath(want), got.Data, want.Data)
		}
	}
}

func TestResolve_NotFound(t *testing.T) {
	d := mustParse(t, "<p>a</p>")
	if _, err := Resolve(d.Root(), "/html/body/table"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}
