package rawhttp

import (
	"bytes"
	"net"
	"testing"
)

// TestEnvHostHeaderOverridesServerNamePort checks the Open Question
// resolution: a Host header overrides the listener's own server_name/
// server_port without mutating any shared state.
func TestEnvHostHeaderOverridesServerNamePort(t *testing.T) {
	wire := []byte("GET / HTTP/1.1\r\nHost: example.com:9090\r\n\r\n")
	req, err := NewRequestParser(NewUnreader(wholeSource(wire), 0)).Parse()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	env := newEnv(req, &fakeConn{}, "listener-host", 8080, &bytes.Buffer{})
	if got := env.ServerName(); got != "example.com" {
		t.Fatalf("got ServerName() %q, want %q", got, "example.com")
	}
	if got := env.ServerPort(); got != 9090 {
		t.Fatalf("got ServerPort() %d, want 9090", got)
	}
}

// TestEnvServerNamePortFallsBackToListener checks that an absent Host
// header falls back to the listening endpoint.
func TestEnvServerNamePortFallsBackToListener(t *testing.T) {
	wire := []byte("GET / HTTP/1.1\r\n\r\n")
	req, err := NewRequestParser(NewUnreader(wholeSource(wire), 0)).Parse()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	env := newEnv(req, &fakeConn{}, "listener-host", 8080, &bytes.Buffer{})
	if got := env.ServerName(); got != "listener-host" {
		t.Fatalf("got ServerName() %q, want %q", got, "listener-host")
	}
	if got := env.ServerPort(); got != 8080 {
		t.Fatalf("got ServerPort() %d, want 8080", got)
	}
}

// TestEnvURLSchemeForwardedHeaders checks wsgi.url_scheme's
// X-Forwarded-Protocol/X-Forwarded-Ssl influence.
func TestEnvURLSchemeForwardedHeaders(t *testing.T) {
	cases := []struct {
		name string
		wire string
		want string
	}{
		{"plain", "GET / HTTP/1.1\r\n\r\n", "http"},
		{"forwarded-protocol", "GET / HTTP/1.1\r\nX-Forwarded-Protocol: ssl\r\n\r\n", "https"},
		{"forwarded-ssl", "GET / HTTP/1.1\r\nX-Forwarded-Ssl: on\r\n\r\n", "https"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := NewRequestParser(NewUnreader(wholeSource([]byte(tc.wire)), 0)).Parse()
			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}
			env := newEnv(req, &fakeConn{}, "h", 80, &bytes.Buffer{})
			if got := string(env.URLScheme()); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

// TestEnvAmbientWSGIKeys checks the fixed wsgi.version/multithread/
// multiprocess/script_name keys the environment table always publishes.
func TestEnvAmbientWSGIKeys(t *testing.T) {
	wire := []byte("GET / HTTP/1.1\r\n\r\n")
	req, err := NewRequestParser(NewUnreader(wholeSource(wire), 0)).Parse()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	env := newEnv(req, &fakeConn{}, "h", 80, &bytes.Buffer{})

	major, minor := env.WSGIVersion()
	if major != 2 || minor != 0 {
		t.Fatalf("got WSGIVersion() (%d, %d), want (2, 0)", major, minor)
	}
	if !env.Multithread() {
		t.Fatalf("expected Multithread() true")
	}
	if env.Multiprocess() {
		t.Fatalf("expected Multiprocess() false")
	}
	if env.ScriptName() != nil {
		t.Fatalf("expected ScriptName() nil, got %q", env.ScriptName())
	}
}

// TestEnvRemoteAddrPort checks conn.remote_addr/conn.remote_port against
// the underlying net.Conn's RemoteAddr.
func TestEnvRemoteAddrPort(t *testing.T) {
	wire := []byte("GET / HTTP/1.1\r\n\r\n")
	req, err := NewRequestParser(NewUnreader(wholeSource(wire), 0)).Parse()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	conn := &fakeConn{remote: &net.TCPAddr{IP: net.ParseIP("192.0.2.1"), Port: 54321}}
	env := newEnv(req, conn, "h", 80, &bytes.Buffer{})

	if got := env.RemotePort(); got != 54321 {
		t.Fatalf("got RemotePort() %d, want 54321", got)
	}
	if got := env.RemoteIP(); got != "192.0.2.1" {
		t.Fatalf("got RemoteIP() %q, want %q", got, "192.0.2.1")
	}
}

// TestEnvUpgradeReturnsUnderlyingConn checks wsgi.upgrade/wsgi.upgraded.
func TestEnvUpgradeReturnsUnderlyingConn(t *testing.T) {
	wire := []byte("GET / HTTP/1.1\r\n\r\n")
	req, err := NewRequestParser(NewUnreader(wholeSource(wire), 0)).Parse()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	conn := &fakeConn{}
	env := newEnv(req, conn, "h", 80, &bytes.Buffer{})

	if env.Upgraded() {
		t.Fatalf("expected Upgraded() false before Upgrade()")
	}
	got := env.Upgrade()
	if got != conn {
		t.Fatalf("expected Upgrade() to return the underlying conn")
	}
	if !env.Upgraded() {
		t.Fatalf("expected Upgraded() true after Upgrade()")
	}
}

// fakeConn is a minimal net.Conn stub for tests that only need
// RemoteAddr/LocalAddr identity, not real I/O.
type fakeConn struct {
	net.Conn
	remote net.Addr
}

func (c *fakeConn) RemoteAddr() net.Addr {
	if c.remote != nil {
		return c.remote
	}
	return &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 1234}
}
