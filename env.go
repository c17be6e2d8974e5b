package rawhttp

import (
	"bytes"
	"io"
	"net"
)

// App is the application callback. It receives one Env and returns
// either (nil, nil) ("None": terminate the connection silently) or a
// populated *Response to hand to the Responder. An application may instead
// call Env.Upgrade to take ownership of the transport; when it does, its
// return value is ignored.
type App func(*Env) (*Response, error)

// Env is the per-request environment mapping, realized as a typed struct
// with one accessor method per key rather than a map[string]any, so every
// key is statically typed and the zero-value/absent distinction is
// explicit per accessor.
type Env struct {
	req  *Request
	conn net.Conn

	serverName string
	serverPort int

	errors io.Writer

	upgraded bool
}

func newEnv(req *Request, conn net.Conn, serverName string, serverPort int, errors io.Writer) *Env {
	return &Env{
		req:        req,
		conn:       conn,
		serverName: serverName,
		serverPort: serverPort,
		errors:     errors,
	}
}

// Method is http.method.
func (e *Env) Method() []byte { return e.req.Method }

// URI and URIRaw are http.uri / http.uri.raw: both are the full raw
// request target bytes (the runtime never rewrites the target).
func (e *Env) URI() []byte { return e.req.URI }
func (e *Env) URIRaw() []byte { return e.req.URI }

// Scheme, Host, Port, Path, QueryString, Fragment are the parsed URI
// fields of http.scheme/http.host/http.port/http.path/http.query_string/
// http.fragment. Port's second return mirrors Request.Port's presence
// flag.
func (e *Env) Scheme() []byte { return e.req.Scheme() }
func (e *Env) Host() []byte { return e.req.Host() }
func (e *Env) Port() (int, bool) { return e.req.Port() }
func (e *Env) Path() []byte { return e.req.Path() }
func (e *Env) QueryString() []byte { return e.req.Query() }
func (e *Env) Fragment() []byte { return e.req.Fragment() }

// Version is http.version.
func (e *Env) Version() Version { return e.req.Version }

// Headers is http.headers: the ordered/grouped header store.
func (e *Env) Headers() *Header { return e.req.Headers }

// HasTrailers is http.has_trailers: true iff a Trailer header declared any
// trailer, regardless of whether the body has been fully read yet.
func (e *Env) HasTrailers() bool { return e.req.Headers.Has(string(strTrailer)) }

// Body is http.body.
func (e *Env) Body() *BodyStream { return e.req.Body }

// Trailers is http.trailers: empty until the chunked body backing this
// request has been fully drained, at which point ChunkedReader has
// installed the parsed trailer set on the Request.
func (e *Env) Trailers() *Header { return e.req.Trailers }

// ScriptName is wsgi.script_name: always empty, since this
// runtime has no mount-point/sub-application dispatch, but present so
// applications and a future validator wrapper can rely on the key
// existing.
func (e *Env) ScriptName() []byte { return nil }

// URLScheme is wsgi.url_scheme: "https" when the connection itself is TLS
// (out of scope, so never true from this runtime directly) or a
// trusted proxy declared it via X-Forwarded-Protocol: ssl / X-Forwarded-
// Ssl: on; "http" otherwise.
func (e *Env) URLScheme() []byte {
	if e.req.Headers.HasValue("X-FORWARDED-PROTOCOL", "ssl") {
		return strHTTPSScheme
	}
	if e.req.Headers.HasValue("X-FORWARDED-SSL", "on") {
		return strHTTPSScheme
	}
	return strHTTPScheme
}

// Errors is wsgi.errors: a write-only byte sink for application
// diagnostics.
func (e *Env) Errors() io.Writer { return e.errors }

// Upgrade is wsgi.upgrade: takes exclusive ownership of the transport and
// marks the request upgraded. Calling it more than once returns the same
// net.Conn. After Upgrade, the runtime MUST NOT read from or write to the
// connection: ConnectionLoop checks Upgraded() after the application
// returns and, if true, stops servicing the transport entirely instead of
// invoking the Responder.
func (e *Env) Upgrade() net.Conn {
	e.upgraded = true
	return e.conn
}

// Upgraded is wsgi.upgraded.
func (e *Env) Upgraded() bool { return e.upgraded }

// ServerName and ServerPort are conn.server_name / conn.server_port: the
// listening endpoint, unless the request's Host header parses into its
// own name/port pair, in which case that pair is published instead. The
// pair is computed fresh on each call rather than mutating any shared
// state.
func (e *Env) ServerName() string {
	if name, _, ok := e.hostHeaderPair(); ok {
		return name
	}
	return e.serverName
}

func (e *Env) ServerPort() int {
	if _, port, ok := e.hostHeaderPair(); ok {
		return port
	}
	return e.serverPort
}

func (e *Env) hostHeaderPair() (name string, port int, ok bool) {
	v, present := e.req.Headers.Last(string(strHost))
	if !present || len(v) == 0 {
		return "", 0, false
	}
	host := bytes.TrimSpace(v)
	if idx := bytes.LastIndexByte(host, ':'); idx >= 0 {
		if p, err := ParseUint(host[idx+1:]); err == nil {
			return string(host[:idx]), p, true
		}
	}
	return string(host), 0, false
}

// RemoteAddr and RemotePort are conn.remote_addr / conn.remote_port: the
// peer endpoint, from the net.Conn itself.
func (e *Env) RemoteAddr() net.Addr {
	return e.conn.RemoteAddr()
}

// RemotePort is conn.remote_port: the port half of conn.remote_addr, 0
// when the peer address carries none (non-TCP net.Conn implementations).
func (e *Env) RemotePort() int {
	if tcpAddr, ok := e.conn.RemoteAddr().(*net.TCPAddr); ok {
		return tcpAddr.Port
	}
	_, portStr, err := net.SplitHostPort(e.conn.RemoteAddr().String())
	if err != nil {
		return 0
	}
	port, _ := ParseUint([]byte(portStr))
	return port
}

// WSGIVersion is wsgi.version: the fixed (2, 0) pair this runtime
// implements.
func (e *Env) WSGIVersion() (int, int) { return 2, 0 }

// Multithread and Multiprocess are wsgi.multithread / wsgi.multiprocess,
// set by the host: this runtime always serves one goroutine per
// connection within a single process, so Multithread is always true and
// Multiprocess is always false.
func (e *Env) Multithread() bool { return true }
func (e *Env) Multiprocess() bool { return false }

// RemoteIP is conn.remote_ip: the host part of
// conn.remote_addr, without the port.
func (e *Env) RemoteIP() string {
	if tcpAddr, ok := e.conn.RemoteAddr().(*net.TCPAddr); ok {
		return tcpAddr.IP.String()
	}
	host, _, err := net.SplitHostPort(e.conn.RemoteAddr().String())
	if err != nil {
		return e.conn.RemoteAddr().String()
	}
	return host
}
