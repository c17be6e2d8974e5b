package rawhttp

// sliceSource is a byteSource backed by a pre-split sequence of chunks,
// simulating arbitrary TCP fragmentation (any partition of a request into
// TCP-sized chunks). Once exhausted it returns io.EOF-equivalent (0, nil)
// reads forever, matching net.Conn's post-close Read behavior closely
// enough for these tests.
type sliceSource struct {
	chunks [][]byte
	pos    int
}

func newSliceSource(chunks ...[]byte) *sliceSource {
	return &sliceSource{chunks: chunks}
}

func (s *sliceSource) Read(p []byte) (int, error) {
	if s.pos >= len(s.chunks) {
		return 0, nil
	}
	chunk := s.chunks[s.pos]
	n := copy(p, chunk)
	if n < len(chunk) {
		s.chunks[s.pos] = chunk[n:]
	} else {
		s.pos++
	}
	return n, nil
}

// wholeSource is a byteSource that returns an entire byte string on the
// first Read, regardless of the destination buffer size available being
// larger (it still respects len(p) like any Read implementation should).
func wholeSource(data []byte) *sliceSource {
	return newSliceSource(data)
}

// fragmented splits data into n-byte pieces, simulating a client that
// writes one byte (or a few bytes) per TCP segment.
func fragmented(data []byte, n int) *sliceSource {
	var chunks [][]byte
	for len(data) > 0 {
		k := n
		if k > len(data) {
			k = len(data)
		}
		chunks = append(chunks, data[:k])
		data = data[k:]
	}
	return newSliceSource(chunks...)
}
