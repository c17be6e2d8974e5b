package rawhttp

import (
	"io"

	"github.com/valyala/bytebufferpool"
)

// MaxChunkSize is the default cap on a single transport read performed by
// an Unreader: a package-level default that a Server field can override.
const MaxChunkSize = 8192

// byteSource is the transport contract: a socket-like reader
// exposing recv(max) -> bytes, EOF signaled by a zero-length, nil-error
// return. net.Conn (and any io.Reader) already satisfies this via Read.
type byteSource interface {
	Read(p []byte) (int, error)
}

// Unreader is a buffered, push-back-capable byte source over a byteSource.
// It is exclusively owned by one parser/reader chain at a time: no
// locking is performed.
//
// pending holds bytes that must be served before any new transport read:
// fresh transport chunks are appended to its tail as they accumulate, while
// Unread prepends to its head, so the most recently unread data is the
// first thing a subsequent Read observes.
type Unreader struct {
	src      byteSource
	pending  []byte
	scratch  *bytebufferpool.ByteBuffer
	maxChunk int
}

// NewUnreader wraps src. maxChunk, if non-positive, defaults to
// MaxChunkSize.
func NewUnreader(src byteSource, maxChunk int) *Unreader {
	if maxChunk <= 0 {
		maxChunk = MaxChunkSize
	}
	return &Unreader{
		src:      src,
		scratch:  AcquireByteBuffer(),
		maxChunk: maxChunk,
	}
}

// Release returns the Unreader's pooled transport-read scratch buffer. Call
// once the Unreader is no longer needed (ConnectionLoop does this on
// CLOSED).
func (u *Unreader) Release() {
	ReleaseByteBuffer(u.scratch)
	u.scratch = nil
}

// Unread appends data to the front of the next Read. It never fails.
func (u *Unreader) Unread(data []byte) {
	if len(data) == 0 {
		return
	}
	merged := make([]byte, 0, len(data)+len(u.pending))
	merged = append(merged, data...)
	merged = append(merged, u.pending...)
	u.pending = merged
}

// Read returns up to size bytes, or an implementation-chosen chunk (capped
// at maxChunk) when size is negative. It returns an empty, nil-error result
// only on transport EOF. size == 0 returns empty without I/O.
func (u *Unreader) Read(size int) ([]byte, error) {
	if size == 0 {
		return nil, nil
	}

	if size < 0 {
		if len(u.pending) > 0 {
			ret := u.pending
			u.pending = nil
			return ret, nil
		}
		return u.readChunk()
	}

	for len(u.pending) < size {
		chunk, err := u.readChunk()
		if err != nil {
			return nil, err
		}
		if len(chunk) == 0 {
			// Transport EOF: return whatever was buffered.
			ret := u.pending
			u.pending = nil
			return ret, nil
		}
		u.pending = append(u.pending, chunk...)
	}

	ret := u.pending[:size]
	u.pending = u.pending[size:]
	return ret, nil
}

// readChunk performs exactly one transport read of at most maxChunk bytes,
// normalizing io.EOF to an empty, nil-error result. The returned slice is a
// fresh copy, safe to retain independently of the pooled scratch buffer.
func (u *Unreader) readChunk() ([]byte, error) {
	u.scratch.B = u.scratch.B[:cap(u.scratch.B)]
	if len(u.scratch.B) < u.maxChunk {
		u.scratch.B = make([]byte, u.maxChunk, roundUpForSliceCap(u.maxChunk))
	}
	n, err := u.src.Read(u.scratch.B[:u.maxChunk])
	if n > 0 {
		return append([]byte(nil), u.scratch.B[:n]...), nil
	}
	if err == nil || err == io.EOF {
		return nil, nil
	}
	return nil, err
}
