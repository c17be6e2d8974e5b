package rawhttp

import (
	"fmt"
	"io"
	"net"
)

// connState names the ConnectionLoop state machine.
type connState int

const (
	connReady connState = iota
	connHandling
	connClosed
	connUpgraded
)

// ConnectionLoop sequences multiple requests over one transport, driving
// RequestParser to produce each Request and invoking the application with
// its environment.
type ConnectionLoop struct {
	conn net.Conn
	u    *Unreader
	app  App

	serverName string
	serverPort int
	errors     io.Writer

	state connState

	// OnStateChange, if set, is invoked every time state transitions,
	// letting a host (Server) track idle-vs-handling time per connection
	// without ConnectionLoop knowing anything about idle-connection
	// bookkeeping itself.
	OnStateChange func(connState)

	// ShouldStop, if set, is polled at each READY boundary (between
	// requests, Unreader buffer necessarily empty of any partial
	// request). Returning true ends the loop in CLOSED without parsing
	// another request: the graceful-shutdown hook Server.Shutdown uses.
	ShouldStop func() bool
}

// NewConnectionLoop constructs a ConnectionLoop over conn. app is invoked
// once per successfully parsed Request; serverName/serverPort populate
// conn.server_name/conn.server_port absent a Host header override; errors
// backs wsgi.errors.
func NewConnectionLoop(conn net.Conn, app App, maxChunk int, serverName string, serverPort int, errors io.Writer) *ConnectionLoop {
	return &ConnectionLoop{
		conn:       conn,
		u:          NewUnreader(conn, maxChunk),
		app:        app,
		serverName: serverName,
		serverPort: serverPort,
		errors:     errors,
		state:      connReady,
	}
}

// Run drives the state machine until CLOSED or UPGRADED. It
// returns errHijacked when the terminal state is UPGRADED, signaling the
// caller that ownership of conn has passed to the application and it must
// not be closed or read from again.
func (c *ConnectionLoop) Run() error {
	defer func() {
		if c.state != connUpgraded {
			c.u.Release()
		}
	}()

	for c.state == connReady {
		c.setState(connReady)
		if c.ShouldStop != nil && c.ShouldStop() {
			c.state = connClosed
			break
		}
		if err := c.handleReady(); err != nil {
			if c.state == connClosed {
				_ = c.conn.Close()
			}
			return err
		}
	}
	c.setState(c.state)

	if c.state == connClosed {
		_ = c.conn.Close()
		return nil
	}
	if c.state == connUpgraded {
		return errHijacked
	}
	return nil
}

func (c *ConnectionLoop) setState(s connState) {
	if c.OnStateChange != nil {
		c.OnStateChange(s)
	}
}

// Upgraded reports whether the loop ended in the UPGRADED terminal state.
func (c *ConnectionLoop) Upgraded() bool { return c.state == connUpgraded }

// handleReady implements the READY state: parse one request, then drive
// it through HANDLING to resolution.
func (c *ConnectionLoop) handleReady() error {
	parser := NewRequestParser(c.u)
	req, err := parser.Parse()
	if err != nil {
		if err == errTransportEOF {
			c.state = connClosed
			return nil
		}
		if pe, ok := err.(*ParseError); ok {
			NewResponder(c.conn).WriteBadRequest()
			c.state = connClosed
			return fmt.Errorf("rawhttp: connection closed after parse error: %w", pe)
		}
		c.state = connClosed
		return err
	}

	c.state = connHandling
	c.setState(connHandling)
	return c.handle(req)
}

// handle implements the HANDLING state's four outcomes.
func (c *ConnectionLoop) handle(req *Request) error {
	env := newEnv(req, c.conn, c.serverName, c.serverPort, c.errors)

	resp, appErr := c.invokeApp(env)

	if env.Upgraded() {
		c.state = connUpgraded
		return nil
	}

	if appErr != nil {
		if pe, ok := asParseError(appErr); ok {
			// A ParseError surfaced while the application read the body
			// (e.g. broken chunked framing): the runtime never turns
			// this into a 500, it takes the same 400 path as a
			// request-line/header ParseError, since no response bytes
			// have been written yet.
			NewResponder(c.conn).WriteBadRequest()
			c.state = connClosed
			return fmt.Errorf("rawhttp: connection closed after parse error: %w", pe)
		}
		af, ok := appErr.(*ApplicationFailure)
		if !ok {
			af = &ApplicationFailure{Err: appErr}
		}
		return c.handleApplicationFailure(req, af)
	}

	if resp == nil {
		// Application returned None: terminate the connection silently.
		c.state = connClosed
		return nil
	}

	responder := NewResponder(c.conn)
	started := false
	if err := responder.Respond(*resp, func() { started = true }); err != nil {
		if started {
			c.state = connClosed
			return err
		}
		return c.handleApplicationFailure(req, &ApplicationFailure{Err: err})
	}

	return c.finishRequest(req)
}

// invokeApp calls the application, converting a panic into an
// ApplicationFailure so a misbehaving handler can never take the whole
// ConnectionLoop down with it.
func (c *ConnectionLoop) invokeApp(env *Env) (resp *Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			rerr, ok := r.(error)
			if !ok {
				rerr = fmt.Errorf("%v", r)
			}
			err = &ApplicationFailure{Err: rerr}
		}
	}()
	return c.app(env)
}

// handleApplicationFailure implements two ApplicationFailure
// outcomes. Respond has not been attempted here, so the failure is always
// pre-response-start: emit a synthetic 500, drain the body, and proceed as
// for normal completion.
func (c *ConnectionLoop) handleApplicationFailure(req *Request, af *ApplicationFailure) error {
	responder := NewResponder(c.conn)
	if err := responder.WriteInternalServerError([]byte(af.Error())); err != nil {
		c.state = connClosed
		return err
	}
	return c.finishRequest(req)
}

// finishRequest implements the tail of HANDLING: drain the body if the
// application left it unread, then consult should_close. Discard runs
// after a response has already been fully written, so a ParseError here
// (broken chunked framing discovered only while discarding) can no longer
// become a 400: it is logged to wsgi.errors instead.
func (c *ConnectionLoop) finishRequest(req *Request) error {
	if err := req.Body.Discard(); err != nil {
		fmt.Fprintf(c.errors, "rawhttp: error discarding request body: %s\n", err)
		c.state = connClosed
		return nil
	}

	if req.ShouldClose() {
		c.state = connClosed
	} else {
		c.state = connReady
	}
	return nil
}

// asParseError reports whether err is or wraps a *ParseError.
func asParseError(err error) (*ParseError, bool) {
	pe, ok := err.(*ParseError)
	if ok {
		return pe, true
	}
	if af, ok := err.(*ApplicationFailure); ok {
		return asParseError(af.Err)
	}
	return nil, false
}
