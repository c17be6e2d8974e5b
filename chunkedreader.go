package rawhttp

import "bytes"

// chunkedState names the per-chunk state machine positions.
type chunkedState int

const (
	chunkedStateSize chunkedState = iota
	chunkedStateData
	chunkedStateTerminator
	chunkedStateTrailers
	chunkedStateDone
)

// ChunkedReader decodes RFC 7230 chunked transfer-encoding as a
// lazy producer of body-byte fragments, installing trailers on the owning
// Request once the terminating zero-chunk's trailer block is parsed. The
// back-reference to Request is a one-shot output slot, not a bidirectional
// ownership pointer: installing trailers is the only thing ChunkedReader
// ever does to it.
type ChunkedReader struct {
	u     *Unreader
	req   *Request
	buf   []byte
	size  int
	state chunkedState
}

// NewChunkedReader constructs a ChunkedReader over u. req receives the
// parsed trailers (possibly empty) once decoding reaches TRAILERS.
func NewChunkedReader(u *Unreader, req *Request) *ChunkedReader {
	return &ChunkedReader{u: u, req: req}
}

// Read accumulates produced fragments into an internal buffer until size
// bytes are available or the producer is exhausted, then returns at most
// size bytes, keeping any excess buffered.
func (c *ChunkedReader) Read(size int) ([]byte, error) {
	if size < 0 {
		return nil, newInvalidArgument("ChunkedReader.Read: negative size")
	}
	if size == 0 {
		return nil, nil
	}

	for len(c.buf) < size && c.state != chunkedStateDone {
		if err := c.advance(); err != nil {
			return nil, err
		}
	}

	if len(c.buf) < size {
		size = len(c.buf)
	}
	out := c.buf[:size]
	c.buf = c.buf[size:]
	return out, nil
}

// advance runs exactly one state-machine step, appending any produced body
// bytes to c.buf.
func (c *ChunkedReader) advance() error {
	switch c.state {
	case chunkedStateSize:
		return c.readSize()
	case chunkedStateData:
		return c.readData()
	case chunkedStateTerminator:
		return c.readTerminator()
	case chunkedStateTrailers:
		return c.readTrailers()
	default:
		return nil
	}
}

// readSize implements step 1: read up to the next CRLF, take the prefix
// before any ';' as a hex chunk size.
func (c *ChunkedReader) readSize() error {
	line, err := readUntilCRLF(c.u)
	if err != nil {
		if err == errTransportEOF {
			return newParseError("chunk-size", "client disconnected before chunk size")
		}
		return err
	}

	if idx := bytes.IndexByte(line, ';'); idx >= 0 {
		line = line[:idx]
	}
	line = bytes.TrimSpace(line)

	n, perr := parseHexUint(line)
	if perr != nil {
		return newParseError("chunk-size", "invalid chunk size")
	}

	c.size = n
	if n == 0 {
		c.state = chunkedStateTrailers
	} else {
		c.state = chunkedStateData
	}
	return nil
}

// readData implements step 2: yield up to chunk_size bytes from the
// Unreader.
func (c *ChunkedReader) readData() error {
	data, err := c.u.Read(c.size)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return newParseError("chunk-data", "client disconnected during chunk")
	}
	c.buf = append(c.buf, data...)
	c.size -= len(data)
	if c.size == 0 {
		c.state = chunkedStateTerminator
	}
	return nil
}

// readTerminator implements step 3: the chunk body must be followed by
// exactly CRLF.
func (c *ChunkedReader) readTerminator() error {
	term, err := c.u.Read(2)
	if err != nil {
		return err
	}
	if len(term) != 2 || term[0] != '\r' || term[1] != '\n' {
		return newParseError("chunk-terminator", "chunk missing terminator")
	}
	c.state = chunkedStateSize
	return nil
}

// readTrailers implements the TRAILERS phase: a body whose
// trailer block begins with CRLF has no trailers (the CRLF is pushed
// back); otherwise the same header grammar as Phase C applies, up to
// a blank line, and the parsed trailers are installed on the owning
// Request.
func (c *ChunkedReader) readTrailers() error {
	raw, leadingBlank, err := scanHeaderBlock(c.u, true)
	if err != nil {
		return err
	}

	if leadingBlank {
		c.req.Trailers = newHeader()
		c.state = chunkedStateDone
		return nil
	}

	trailers, perr := parseHeaderLines(raw)
	if perr != nil {
		return perr
	}
	c.req.Trailers = trailers
	c.state = chunkedStateDone
	return nil
}

// readUntilCRLF reads from u one byte run at a time until a CRLF
// terminator is found, returning the bytes before it and pushing back
// anything read past it.
func readUntilCRLF(u *Unreader) ([]byte, error) {
	var buf []byte
	for {
		if idx := bytes.Index(buf, strCRLF); idx >= 0 {
			u.Unread(buf[idx+2:])
			return buf[:idx], nil
		}

		chunk, err := u.Read(-1)
		if err != nil {
			return nil, err
		}
		if len(chunk) == 0 {
			return nil, errTransportEOF
		}
		buf = append(buf, chunk...)
	}
}
