package rawhttp

import (
	"bytes"

	"golang.org/x/net/http/httpguts"
)

// headerField is one (name, value) pair, stored in the order it was
// parsed.
type headerField struct {
	name  []byte
	value []byte
}

// Header is dual ordered-sequence / uppercase-keyed multi-map storage: the
// ordered slice preserves insertion order, the map gives grouped
// case-insensitive lookup. Names are stored upper-cased, so the map key is
// the name itself.
type Header struct {
	fields []headerField
	byName map[string][][]byte
}

func newHeader() *Header {
	return &Header{byName: make(map[string][][]byte)}
}

// add appends a (name, value) pair. name must already be upper-cased.
func (h *Header) add(name, value []byte) {
	n := append([]byte(nil), name...)
	v := append([]byte(nil), value...)
	h.fields = append(h.fields, headerField{name: n, value: v})
	h.byName[string(n)] = append(h.byName[string(n)], v)
}

// Fields returns the ordered (name, value) sequence.
func (h *Header) Fields() []headerField {
	return h.fields
}

// Values returns every value recorded for the given upper-cased name, in
// the order parsed. A header absent entirely returns nil.
func (h *Header) Values(name string) [][]byte {
	return h.byName[name]
}

// Last returns the most recently appended value for name, and whether the
// header was present at all (Phase D: "the integer value of the last
// CONTENT-LENGTH header").
func (h *Header) Last(name string) ([]byte, bool) {
	vs := h.byName[name]
	if len(vs) == 0 {
		return nil, false
	}
	return vs[len(vs)-1], true
}

// Has reports whether name was present at all, regardless of value.
func (h *Header) Has(name string) bool {
	return len(h.byName[name]) > 0
}

// HasValue reports whether any recorded value for name, trimmed of outer
// whitespace and compared byte-for-byte after lower-casing, equals want
// (want must already be lower-case). Used for the Connection/
// Transfer-Encoding disposition checks Phase D/E.
func (h *Header) HasValue(name, want string) bool {
	for _, v := range h.byName[name] {
		trimmed := bytes.TrimSpace(v)
		lowered := lowercaseBytes(append([]byte(nil), trimmed...))
		if string(lowered) == want {
			return true
		}
	}
	return false
}

func toUpperASCII(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return out
}

// validHeaderName reports whether name (already upper-cased) contains no
// control, separator, or whitespace byte. Delegated to
// httpguts.ValidHeaderFieldName (RFC 7230 tchar grammar, a strict subset
// of ASCII) rather than a hand-rolled byte-class table.
func validHeaderName(b []byte) bool {
	return httpguts.ValidHeaderFieldName(string(b))
}

// scanHeaderBlock reads from u until a blank line (the canonical header/
// trailer terminator) is found. Shared by header-block parsing and
// chunked-trailer parsing.
//
// If the very next two bytes form the blank-line marker by themselves (the
// zero-header / no-trailers case), leadingBlank is true and raw is nil.
// pushBackLeadingCRLF controls what happens to those two bytes: Phase C
// consumes them (pushBackLeadingCRLF = false), while the chunked-trailer
// path pushes them back so the next request's Phase A pre-skip sees them
// (pushBackLeadingCRLF = true).
//
// Otherwise raw is every byte up to (not including) the blank line's own
// CRLFCRLF, and the bytes following that marker are pushed back into u for
// whatever comes next to consume.
func scanHeaderBlock(u *Unreader, pushBackLeadingCRLF bool) (raw []byte, leadingBlank bool, err error) {
	var buf []byte
	for {
		if len(buf) >= 2 && buf[0] == '\r' && buf[1] == '\n' {
			if pushBackLeadingCRLF {
				u.Unread(buf)
			} else {
				u.Unread(buf[2:])
			}
			return nil, true, nil
		}
		if idx := bytes.Index(buf, strCRLFCRLF); idx >= 0 {
			raw = buf[:idx]
			u.Unread(buf[idx+4:])
			return raw, false, nil
		}

		chunk, rerr := u.Read(-1)
		if rerr != nil {
			return nil, false, rerr
		}
		if len(chunk) == 0 {
			return nil, false, newParseError("header", "premature EOF while reading headers")
		}
		buf = append(buf, chunk...)
	}
}

// parseHeaderLines applies Phase C steps 1-5 to the raw bytes between
// the request/trailer line and the blank-line terminator.
func parseHeaderLines(raw []byte) (*Header, error) {
	h := newHeader()
	if len(raw) == 0 {
		return h, nil
	}

	lines := bytes.Split(raw, strCRLF)

	var name []byte
	var value []byte
	have := false

	flush := func() {
		if have {
			h.add(name, bytes.TrimRight(value, " \t"))
		}
		have = false
	}

	for _, line := range lines {
		if len(line) > 0 && (line[0] == ' ' || line[0] == '\t') {
			if !have {
				return nil, newParseError("header", "continuation line without preceding header")
			}
			value = append(value, ' ')
			value = append(value, bytes.TrimLeft(line, " \t")...)
			continue
		}

		flush()

		idx := bytes.IndexByte(line, ':')
		if idx < 0 {
			return nil, newParseError("header", "header line missing colon")
		}
		rawName := bytes.TrimRight(line[:idx], " \t")
		upName := toUpperASCII(rawName)
		if !validHeaderName(upName) {
			return nil, newParseError("header", "invalid byte in header name")
		}

		name = upName
		value = append([]byte(nil), bytes.TrimLeft(line[idx+1:], " \t")...)
		have = true
	}
	flush()

	return h, nil
}
