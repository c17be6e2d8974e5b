// Command rawhttpd is the CLI entry point: the accept loop, flag
// parsing, and application itself live outside the parsing/dispatch
// core. It wires a minimal demo App onto rawhttp.Server so the core is
// runnable end to end.
package main

import (
	"flag"
	"log"
	"net"
	"time"

	"github.com/rawhttp/rawhttp"
	"github.com/valyala/tcplisten"
)

var (
	ip   string
	port int
)

func init() {
	flag.StringVar(&ip, "i", "127.0.0.1", "IP address to listen on")
	flag.StringVar(&ip, "ip", "127.0.0.1", "IP address to listen on")
	flag.IntVar(&port, "p", 8000, "TCP port to listen on")
	flag.IntVar(&port, "port", 8000, "TCP port to listen on")
}

func main() {
	flag.Parse()

	lnConfig := tcplisten.Config{
		ReusePort:   true,
		DeferAccept: true,
		FastOpen:    true,
	}
	ln, err := lnConfig.NewListener("tcp4", net.JoinHostPort(ip, itoa(port)))
	if err != nil {
		log.Fatalf("rawhttpd: cannot listen: %s", err)
	}
	ln = &rawhttp.TimeoutListener{
		Listener:    ln,
		ReadTimeout: 30 * time.Second,
	}

	srv := &rawhttp.Server{
		Handler: echoApp,
	}

	log.Printf("rawhttpd: listening on %s:%d", ip, port)
	if err := srv.Serve(ln); err != nil {
		log.Fatalf("rawhttpd: serve error: %s", err)
	}
}

// echoApp is a minimal demonstration application: it echoes the request
// method and path as a plain-text 200, draining any request body first. A
// real deployment supplies its own App.
func echoApp(env *rawhttp.Env) (*rawhttp.Response, error) {
	body, err := env.Body().Read(-1)
	if err != nil {
		return nil, err
	}

	msg := []byte("method=")
	msg = append(msg, env.Method()...)
	msg = append(msg, " path="...)
	msg = append(msg, env.Path()...)
	msg = append(msg, " body-bytes="...)
	msg = rawhttp.AppendUint(msg, len(body))
	msg = append(msg, '\n')

	sent := false
	bodyFn := func() ([]byte, bool) {
		if sent {
			return nil, false
		}
		sent = true
		return msg, true
	}

	return &rawhttp.Response{
		Status: 200,
		Headers: []rawhttp.ResponseHeader{
			{Name: []byte("Content-Type"), Value: []byte("text/plain")},
		},
		Body: bodyFn,
	}, nil
}

func itoa(n int) string {
	return string(rawhttp.AppendUint(nil, n))
}
