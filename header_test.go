package rawhttp

import "testing"

func TestHeaderAddAndLast(t *testing.T) {
	h := newHeader()
	h.add([]byte("X-FOO"), []byte("1"))
	h.add([]byte("X-FOO"), []byte("2"))

	v, ok := h.Last("X-FOO")
	if !ok || string(v) != "2" {
		t.Fatalf("got %q, %v; want %q, true", v, ok, "2")
	}
	vs := h.Values("X-FOO")
	if len(vs) != 2 || string(vs[0]) != "1" || string(vs[1]) != "2" {
		t.Fatalf("got %v", vs)
	}
	if !h.Has("X-FOO") || h.Has("X-BAR") {
		t.Fatalf("Has behaved unexpectedly")
	}
}

func TestHeaderHasValueCaseInsensitive(t *testing.T) {
	h := newHeader()
	h.add([]byte("CONNECTION"), []byte("  Keep-Alive  "))
	if !h.HasValue("CONNECTION", "keep-alive") {
		t.Fatalf("expected HasValue to match case-insensitively after trim")
	}
}

// TestHeaderHasValueDoesNotMutateStoredValue guards against the bug where
// lower-casing in place corrupted the stored header bytes for later reads.
func TestHeaderHasValueDoesNotMutateStoredValue(t *testing.T) {
	h := newHeader()
	h.add([]byte("CONNECTION"), []byte("Keep-Alive"))
	h.HasValue("CONNECTION", "keep-alive")

	v, _ := h.Last("CONNECTION")
	if string(v) != "Keep-Alive" {
		t.Fatalf("stored value mutated: got %q, want %q", v, "Keep-Alive")
	}
}

// TestParseHeaderLinesContinuation checks that a continuation line folds into
// the preceding header's value, joined by a single space.
func TestParseHeaderLinesContinuation(t *testing.T) {
	raw := []byte("X-Long: one\r\n two\r\n\tthree")
	h, err := parseHeaderLines(raw)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	v, ok := h.Last("X-LONG")
	if !ok || string(v) != "one two three" {
		t.Fatalf("got %q, %v; want %q, true", v, ok, "one two three")
	}
}

func TestParseHeaderLinesMultipleHeaders(t *testing.T) {
	raw := []byte("Host: example.com\r\nX-A: 1\r\nX-B: 2")
	h, err := parseHeaderLines(raw)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if v, _ := h.Last("HOST"); string(v) != "example.com" {
		t.Fatalf("got host %q", v)
	}
	if v, _ := h.Last("X-A"); string(v) != "1" {
		t.Fatalf("got x-a %q", v)
	}
	if v, _ := h.Last("X-B"); string(v) != "2" {
		t.Fatalf("got x-b %q", v)
	}
	if len(h.Fields()) != 3 {
		t.Fatalf("got %d fields, want 3", len(h.Fields()))
	}
}

func TestParseHeaderLinesMissingColon(t *testing.T) {
	_, err := parseHeaderLines([]byte("not-a-header-line"))
	if _, ok := err.(*ParseError); !ok {
		t.Fatalf("expected *ParseError, got %v (%T)", err, err)
	}
}

func TestParseHeaderLinesLeadingContinuation(t *testing.T) {
	_, err := parseHeaderLines([]byte(" leading continuation with no header"))
	if _, ok := err.(*ParseError); !ok {
		t.Fatalf("expected *ParseError, got %v (%T)", err, err)
	}
}

func TestParseHeaderLinesInvalidName(t *testing.T) {
	_, err := parseHeaderLines([]byte("X Bad Name: value"))
	if _, ok := err.(*ParseError); !ok {
		t.Fatalf("expected *ParseError for a header name containing a space, got %v (%T)", err, err)
	}
}

func TestParseHeaderLinesEmpty(t *testing.T) {
	h, err := parseHeaderLines(nil)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(h.Fields()) != 0 {
		t.Fatalf("got %d fields, want 0", len(h.Fields()))
	}
}

func TestScanHeaderBlockNoHeaders(t *testing.T) {
	u := NewUnreader(wholeSource([]byte("\r\nrest")), 0)
	raw, leadingBlank, err := scanHeaderBlock(u, false)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !leadingBlank || raw != nil {
		t.Fatalf("got raw=%q leadingBlank=%v, want nil/true", raw, leadingBlank)
	}
	rest, _ := u.Read(-1)
	if string(rest) != "rest" {
		t.Fatalf("got %q, want %q", rest, "rest")
	}
}

func TestScanHeaderBlockWithHeaders(t *testing.T) {
	u := NewUnreader(wholeSource([]byte("Host: example.com\r\nX-A: 1\r\n\r\nbody")), 0)
	raw, leadingBlank, err := scanHeaderBlock(u, false)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if leadingBlank {
		t.Fatalf("unexpected leadingBlank")
	}
	if string(raw) != "Host: example.com\r\nX-A: 1" {
		t.Fatalf("got raw %q", raw)
	}
	rest, _ := u.Read(-1)
	if string(rest) != "body" {
		t.Fatalf("got %q, want %q", rest, "body")
	}
}

func TestScanHeaderBlockPrematureEOF(t *testing.T) {
	u := NewUnreader(wholeSource([]byte("Host: example.com\r\n")), 0)
	_, _, err := scanHeaderBlock(u, false)
	if _, ok := err.(*ParseError); !ok {
		t.Fatalf("expected *ParseError, got %v (%T)", err, err)
	}
}
