package rawhttp

import (
	"bytes"
	"io"
)

// ResponseHeader is one (name, value) pair of a response.
type ResponseHeader struct {
	Name  []byte
	Value []byte
}

// BodyChunkFunc yields successive fragments of a response body, returning
// (nil, false) once exhausted.
type BodyChunkFunc func() ([]byte, bool)

// Response is the (status, headers, body) triple an application callback
// returns.
type Response struct {
	Status  int
	Headers []ResponseHeader
	Body    BodyChunkFunc
}

// Responder serializes a Response onto the transport. It marks the
// owning Request's "response started" flag before writing the first byte
// so ConnectionLoop can distinguish pre- and post-start application
// failures.
type Responder struct {
	w io.Writer
}

// NewResponder wraps w.
func NewResponder(w io.Writer) *Responder {
	return &Responder{w: w}
}

// Respond writes the status line, headers, blank line, and body fragments
// verbatim. started is invoked exactly once, immediately before the first
// byte of the response is written.
func (r *Responder) Respond(resp Response, started func()) error {
	buf := AcquireByteBuffer()
	defer ReleaseByteBuffer(buf)

	buf.B = append(buf.B, strHTTP11...)
	buf.B = append(buf.B, ' ')
	buf.B = AppendUint(buf.B, resp.Status)
	buf.B = append(buf.B, ' ')
	buf.B = append(buf.B, reasonPhrase(resp.Status)...)
	buf.B = append(buf.B, strCRLF...)

	if !hasHeader(resp.Headers, strDateHeader) {
		buf.B = append(buf.B, strDateHeader...)
		buf.B = append(buf.B, ':', ' ')
		buf.B = append(buf.B, getServerDate()...)
		buf.B = append(buf.B, strCRLF...)
	}
	for _, h := range resp.Headers {
		buf.B = append(buf.B, h.Name...)
		buf.B = append(buf.B, ':', ' ')
		buf.B = append(buf.B, h.Value...)
		buf.B = append(buf.B, strCRLF...)
	}
	buf.B = append(buf.B, strCRLF...)

	started()

	if _, err := r.w.Write(buf.B); err != nil {
		return err
	}

	if resp.Body == nil {
		return nil
	}
	for {
		chunk, ok := resp.Body()
		if !ok {
			return nil
		}
		if len(chunk) == 0 {
			continue
		}
		if _, err := r.w.Write(chunk); err != nil {
			return err
		}
	}
}

// WriteBadRequest writes a best-effort HTTP/1.1 400 Bad Request with no
// body, ignoring write errors: the ConnectionLoop is about to close the
// transport regardless.
func (r *Responder) WriteBadRequest() {
	_ = r.Respond(Response{Status: StatusBadRequest}, func() {})
}

// WriteInternalServerError writes a synthetic 500 whose body is the
// failure rendering.
func (r *Responder) WriteInternalServerError(rendering []byte) error {
	sent := false
	body := func() ([]byte, bool) {
		if sent {
			return nil, false
		}
		sent = true
		return rendering, true
	}
	return r.Respond(Response{Status: StatusInternalServerError, Body: body}, func() {})
}

// hasHeader reports whether headers already contains one named name,
// compared ASCII case-insensitively, so Respond doesn't emit a duplicate
// ambient Date header when the application supplied its own.
func hasHeader(headers []ResponseHeader, name []byte) bool {
	for _, h := range headers {
		if bytes.EqualFold(h.Name, name) {
			return true
		}
	}
	return false
}

// HTTP status codes used by the runtime itself; applications are free to
// return any other registered code and reasonPhrase will still resolve a
// reasonable phrase via the table below.
const (
	StatusBadRequest          = 400
	StatusInternalServerError = 500
)

// reasonPhrase looks up the fixed status-code -> phrase table. Unknown
// codes fall back to defaultReasonPhrase.
func reasonPhrase(status int) []byte {
	if p, ok := statusMessages[status]; ok {
		return p
	}
	return defaultReasonPhrase
}

var statusMessages = map[int][]byte{
	100: []byte("Continue"),
	101: []byte("Switching Protocols"),
	200: []byte("OK"),
	201: []byte("Created"),
	202: []byte("Accepted"),
	203: []byte("Non-Authoritative Information"),
	204: []byte("No Content"),
	205: []byte("Reset Content"),
	206: []byte("Partial Content"),
	300: []byte("Multiple Choices"),
	301: []byte("Moved Permanently"),
	302: []byte("Found"),
	303: []byte("See Other"),
	304: []byte("Not Modified"),
	305: []byte("Use Proxy"),
	307: []byte("Temporary Redirect"),
	308: []byte("Permanent Redirect"),
	400: []byte("Bad Request"),
	401: []byte("Unauthorized"),
	402: []byte("Payment Required"),
	403: []byte("Forbidden"),
	404: []byte("Not Found"),
	405: []byte("Method Not Allowed"),
	406: []byte("Not Acceptable"),
	407: []byte("Proxy Authentication Required"),
	408: []byte("Request Timeout"),
	409: []byte("Conflict"),
	410: []byte("Gone"),
	411: []byte("Length Required"),
	412: []byte("Precondition Failed"),
	413: []byte("Request Entity Too Large"),
	414: []byte("Request-URI Too Long"),
	415: []byte("Unsupported Media Type"),
	416: []byte("Requested Range Not Satisfiable"),
	417: []byte("Expectation Failed"),
	426: []byte("Upgrade Required"),
	500: []byte("Internal Server Error"),
	501: []byte("Not Implemented"),
	502: []byte("Bad Gateway"),
	503: []byte("Service Unavailable"),
	504: []byte("Gateway Timeout"),
	505: []byte("HTTP Version Not Supported"),
}
