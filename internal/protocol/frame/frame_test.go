package frame

import (
	"errors"
	"reflect"
	"testing"

	"github.com/danmuck/samwise/internal/protocol"
)

func TestSequencePreservesInsertionOrder(t *testing.T) {
	var s Sequence
	s.Append(String("publish"), String("round robin"))
	s.Append(Int(12), Empty(), Bool(true), Bool(false))

	got := s.StringSlice()
	want := []string{"publish", "round robin", "12", "", "1", "0"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("frames mismatch: got=%q want=%q", got, want)
	}
	if s.Len() != 6 || s.Empty() {
		t.Fatalf("unexpected len/empty: len=%d empty=%v", s.Len(), s.Empty())
	}
	if string(s.Last()) != "0" {
		t.Fatalf("unexpected last frame: %q", s.Last())
	}
}

func TestSequenceCloneIsIndependent(t *testing.T) {
	s := Strings("a", "b")
	c := s.Clone()
	c.Append(String("c"))
	if s.Len() != 2 || c.Len() != 3 {
		t.Fatalf("clone leaked: s=%d c=%d", s.Len(), c.Len())
	}
}

func TestBytesCopiesInput(t *testing.T) {
	in := []byte("hi!")
	f := Bytes(in)
	in[0] = 'x'
	if f.String() != "hi!" {
		t.Fatalf("frame aliases caller buffer: %q", f)
	}
}

func TestEmptySequence(t *testing.T) {
	var s Sequence
	if !s.Empty() || s.Len() != 0 || s.Last() != nil {
		t.Fatalf("expected empty sequence")
	}
	if len(s.Raw()) != 0 {
		t.Fatalf("expected no raw frames")
	}
}

func TestParseReplyMapping(t *testing.T) {
	if err := ParseReply([][]byte{[]byte("0")}); err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	err := ParseReply([][]byte{[]byte("-1"), []byte("bad exchange")})
	if !errors.Is(err, protocol.ErrResponseError) {
		t.Fatalf("expected ErrResponseError, got %v", err)
	}
	var pe *protocol.Error
	if !errors.As(err, &pe) || pe.Message != "bad exchange" {
		t.Fatalf("expected daemon message verbatim, got %#v", err)
	}

	cases := map[string][][]byte{
		"unknown rcode":   {[]byte("7")},
		"non-numeric":     {[]byte("ok")},
		"empty reply":     nil,
		"missing message": {[]byte("-1")},
	}
	for name, reply := range cases {
		if err := ParseReply(reply); !errors.Is(err, protocol.ErrResponseMalformed) {
			t.Fatalf("%s: expected ErrResponseMalformed, got %v", name, err)
		}
	}
}
