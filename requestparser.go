package rawhttp

import "bytes"

// methodMaxLen/methodMinLen bound the method token grammar:
// `[A-Z0-9$-_.]{3,20}`.
const (
	methodMinLen = 3
	methodMaxLen = 20
)

// RequestParser drives an Unreader to produce a Request: pre-skip,
// request line, header block, body-reader selection, and connection
// disposition, folded into one request-scoped type.
type RequestParser struct {
	u *Unreader
}

// NewRequestParser constructs a RequestParser over u.
func NewRequestParser(u *Unreader) *RequestParser {
	return &RequestParser{u: u}
}

// Parse runs Phases A-E and returns a fully formed Request, or
// errTransportEOF at the READY boundary (not an error), or a
// *ParseError.
func (p *RequestParser) Parse() (*Request, error) {
	if err := p.skipLeadingBlankLine(); err != nil {
		return nil, err
	}

	method, target, version, err := p.parseRequestLine()
	if err != nil {
		return nil, err
	}

	raw, leadingBlank, err := scanHeaderBlock(p.u, false)
	if err != nil {
		return nil, err
	}
	var headers *Header
	if leadingBlank {
		headers = newHeader()
	} else {
		headers, err = parseHeaderLines(raw)
		if err != nil {
			return nil, err
		}
	}

	uri, err := parseURI(target)
	if err != nil {
		return nil, err
	}

	req := &Request{
		Method:   method,
		URI:      target,
		uri:      uri,
		Version:  version,
		Headers:  headers,
		Trailers: newHeader(),
	}

	body := p.selectBodyReader(headers, req)
	req.Body = NewBodyStream(body)
	req.shouldClose = computeShouldClose(headers, version)

	return req, nil
}

// skipLeadingBlankLine implements Phase A: accept and discard one leading
// CRLF, and treat a transport EOF before any byte of a new request as the
// clean keep-alive termination rather than a parse error.
func (p *RequestParser) skipLeadingBlankLine() error {
	chunk, err := p.u.Read(-1)
	if err != nil {
		return err
	}
	if len(chunk) == 0 {
		return errTransportEOF
	}

	if chunk[0] == '\r' && len(chunk) == 1 {
		// The CRLF may itself be split across transport reads.
		more, err := p.u.Read(-1)
		if err != nil {
			p.u.Unread(chunk)
			return err
		}
		chunk = append(chunk, more...)
	}
	if len(chunk) >= 2 && chunk[0] == '\r' && chunk[1] == '\n' {
		p.u.Unread(chunk[2:])
		return nil
	}
	p.u.Unread(chunk)
	return nil
}

// parseRequestLine implements Phase B.
func (p *RequestParser) parseRequestLine() (method, target []byte, version Version, err error) {
	line, rerr := readUntilCRLF(p.u)
	if rerr != nil {
		if rerr == errTransportEOF {
			return nil, nil, Version{}, newParseError("request-line", "client disconnected before request line")
		}
		return nil, nil, Version{}, rerr
	}

	fields := splitWhitespace(line)
	if len(fields) != 3 {
		return nil, nil, Version{}, newParseError("request-line", "invalid request line")
	}

	method = toUpperASCII(fields[0])
	if !validMethodToken(method) {
		return nil, nil, Version{}, newParseError("method", "invalid method token")
	}

	target = fields[1]

	version, ok := parseHTTPVersion(fields[2])
	if !ok {
		return nil, nil, Version{}, newParseError("version", "invalid HTTP version")
	}

	return method, target, version, nil
}

// selectBodyReader implements Phase D: scans headers for Transfer-Encoding:
// chunked, Content-Length, and the SEC-WEBSOCKET-KEY1 special case, and
// returns the installed body reader.
func (p *RequestParser) selectBodyReader(headers *Header, req *Request) bodyReader {
	chunked := headers.HasValue(string(strTransferEncoding), string(strChunked))

	if chunked {
		return NewChunkedReader(p.u, req)
	}

	clength := 0
	if v, ok := headers.Last(string(strContentLength)); ok {
		if n, err := ParseUint(bytes.TrimSpace(v)); err == nil {
			clength = n
		}
	}
	if headers.Has(string(strSecWebSocketKey1)) {
		clength = 8
	}

	return NewLengthReader(p.u, clength)
}

// computeShouldClose implements Phase E.
func computeShouldClose(headers *Header, version Version) bool {
	if headers.HasValue(string(strConnection), string(strClose)) {
		return true
	}
	if headers.HasValue(string(strConnection), string(strKeepAlive)) {
		return false
	}
	return version.LessOrEqual(httpVersion10)
}

// validMethodToken enforces method grammar on an already upper-cased
// token: `[A-Z0-9$-_.]{3,20}`.
func validMethodToken(m []byte) bool {
	if len(m) < methodMinLen || len(m) > methodMaxLen {
		return false
	}
	for _, c := range m {
		switch {
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '$' || c == '-' || c == '_' || c == '.':
		default:
			return false
		}
	}
	return true
}

// parseHTTPVersion matches "HTTP/<int>.<int>" literally.
func parseHTTPVersion(v []byte) (Version, bool) {
	const prefix = "HTTP/"
	if len(v) <= len(prefix) || string(v[:len(prefix)]) != prefix {
		return Version{}, false
	}
	rest := v[len(prefix):]
	dot := bytes.IndexByte(rest, '.')
	if dot < 0 {
		return Version{}, false
	}
	major, err := ParseUint(rest[:dot])
	if err != nil {
		return Version{}, false
	}
	minor, err := ParseUint(rest[dot+1:])
	if err != nil {
		return Version{}, false
	}
	return Version{Major: major, Minor: minor}, true
}

// splitWhitespace splits line on runs of space/tab, dropping empty
// fields, per Phase B's "split on runs of whitespace".
func splitWhitespace(line []byte) [][]byte {
	var fields [][]byte
	i := 0
	for i < len(line) {
		for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
			i++
		}
		if i >= len(line) {
			break
		}
		start := i
		for i < len(line) && line[i] != ' ' && line[i] != '\t' {
			i++
		}
		fields = append(fields, line[start:i])
	}
	return fields
}
