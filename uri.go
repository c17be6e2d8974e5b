package rawhttp

import "bytes"

// URI holds the fields parseURI decomposes out of a raw request target. Any
// field may be nil/zero when the target form does not carry it: the
// asterisk-form (`*`) carries only Path, the absolute-path form never
// carries Scheme/Userinfo/Host/Port, and so on.
type URI struct {
	Scheme   []byte
	Userinfo []byte
	Host     []byte
	Port     int
	HasPort  bool
	Path     []byte
	Query    []byte
	Fragment []byte
}

// parseURI decomposes a raw request target. The grammar is RFC 2396 with
// a relaxation (query/fragment additionally accept `"'<>`, matching what
// real clients send), implemented by hand over bytes rather than with a
// regexp package.
func parseURI(target []byte) (*URI, error) {
	if len(target) == 0 {
		return nil, newParseError("uri", "empty request target")
	}

	u := &URI{}

	if string(target) == "*" {
		u.Path = []byte("*")
		return u, nil
	}

	if target[0] == '/' {
		path, query, fragment := splitPathQueryFragment(target)
		u.Path = path
		u.Query = query
		u.Fragment = fragment
		return u, nil
	}

	if ok := parseAbsoluteURI(u, target); ok {
		applyPortDefault(u)
		return u, nil
	}

	return nil, newParseError("uri", "invalid request target")
}

// splitPathQueryFragment splits "/path?query#fragment" into its three
// parts; query and fragment are nil when absent.
func splitPathQueryFragment(target []byte) (path, query, fragment []byte) {
	rest := target
	if idx := bytes.IndexByte(rest, '#'); idx >= 0 {
		fragment = rest[idx+1:]
		rest = rest[:idx]
	}
	if idx := bytes.IndexByte(rest, '?'); idx >= 0 {
		query = rest[idx+1:]
		rest = rest[:idx]
	}
	path = rest
	return
}

// parseAbsoluteURI parses "scheme://[userinfo@]host[:port][/path][?query]
// [#fragment]" into u, reporting false when target does not begin with a
// scheme.
func parseAbsoluteURI(u *URI, target []byte) bool {
	schemeEnd := -1
	for i, c := range target {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && (c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.'):
		case c == ':':
			schemeEnd = i
		default:
			schemeEnd = -2
		}
		if schemeEnd != -1 {
			break
		}
	}
	if schemeEnd <= 0 {
		return false
	}
	if len(target) < schemeEnd+3 || target[schemeEnd+1] != '/' || target[schemeEnd+2] != '/' {
		return false
	}

	u.Scheme = lowercaseBytes(append([]byte(nil), target[:schemeEnd]...))
	rest := target[schemeEnd+3:]

	authorityEnd := len(rest)
	for i, c := range rest {
		if c == '/' || c == '?' || c == '#' {
			authorityEnd = i
			break
		}
	}
	authority := rest[:authorityEnd]
	rest = rest[authorityEnd:]

	if at := bytes.LastIndexByte(authority, '@'); at >= 0 {
		u.Userinfo = authority[:at]
		authority = authority[at+1:]
	}
	if colon := bytes.LastIndexByte(authority, ':'); colon >= 0 {
		u.Host = authority[:colon]
		if port, err := ParseUint(authority[colon+1:]); err == nil {
			u.Port = port
			u.HasPort = true
		}
	} else {
		u.Host = authority
	}

	if len(rest) == 0 {
		return true
	}
	path, query, fragment := splitPathQueryFragment(rest)
	u.Path = path
	u.Query = query
	u.Fragment = fragment
	return true
}

// applyPortDefault fills Port/HasPort when scheme was recognized
// and no explicit port was given.
func applyPortDefault(u *URI) {
	if u.HasPort || len(u.Scheme) == 0 {
		return
	}
	switch string(u.Scheme) {
	case "http":
		u.Port = 80
		u.HasPort = true
	case "https":
		u.Port = 443
		u.HasPort = true
	}
}
