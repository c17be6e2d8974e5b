package rawhttp

import (
	"bytes"
	"testing"
)

func TestUnreaderReadExact(t *testing.T) {
	u := NewUnreader(wholeSource([]byte("hello world")), 0)
	got, err := u.Read(5)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if string(got) != "hello" {
		t.Fatalf("got %q, want %q", got, "hello")
	}
	got, err = u.Read(6)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if string(got) != " world" {
		t.Fatalf("got %q, want %q", got, " world")
	}
}

func TestUnreaderReadZero(t *testing.T) {
	u := NewUnreader(wholeSource([]byte("hello")), 0)
	got, err := u.Read(0)
	if err != nil || len(got) != 0 {
		t.Fatalf("Read(0) = %q, %v; want empty, nil", got, err)
	}
}

func TestUnreaderEOF(t *testing.T) {
	u := NewUnreader(wholeSource(nil), 0)
	got, err := u.Read(-1)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result on EOF, got %q", got)
	}
}

// TestUnreaderPushBackComposition checks that unread(a); unread(b);
// read(len(a)+len(b)) returns b + a.
func TestUnreaderPushBackComposition(t *testing.T) {
	u := NewUnreader(wholeSource(nil), 0)
	a := []byte("AAA")
	b := []byte("BB")

	u.Unread(a)
	u.Unread(b)

	got, err := u.Read(len(a) + len(b))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	want := append(append([]byte{}, b...), a...)
	if !bytes.Equal(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

// TestUnreaderFragmentation checks that fragmenting the same byte sequence
// across arbitrary TCP-sized reads never changes what Read eventually
// reassembles.
func TestUnreaderFragmentation(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")
	for _, sz := range []int{1, 2, 3, 7, 64} {
		u := NewUnreader(fragmented(append([]byte{}, data...), sz), 4096)
		got, err := u.Read(len(data))
		if err != nil {
			t.Fatalf("fragment size %d: unexpected error: %s", sz, err)
		}
		if !bytes.Equal(got, data) {
			t.Fatalf("fragment size %d: got %q, want %q", sz, got, data)
		}
	}
}

func TestUnreaderReadPastEOFReturnsBuffered(t *testing.T) {
	u := NewUnreader(wholeSource([]byte("abc")), 0)
	got, err := u.Read(10)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if string(got) != "abc" {
		t.Fatalf("got %q, want %q", got, "abc")
	}
}
