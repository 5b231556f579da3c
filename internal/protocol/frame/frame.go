package frame

import (
	"strconv"
)

// Frame is one opaque part of a multipart wire message.
type Frame []byte

// String creates a text frame.
func String(v string) Frame {
	return Frame(v)
}

// Int creates a frame holding the decimal text of v.
func Int(v int) Frame {
	return Frame(strconv.Itoa(v))
}

// Bool creates a "1" or "0" frame.
func Bool(v bool) Frame {
	if v {
		return Frame("1")
	}
	return Frame("0")
}

// Bytes creates a frame owning a copy of v.
func Bytes(v []byte) Frame {
	buf := make([]byte, len(v))
	copy(buf, v)
	return Frame(buf)
}

// Empty creates a zero-length frame. Used to keep positional slots.
func Empty() Frame {
	return Frame{}
}

func (f Frame) String() string {
	return string(f)
}

// Sequence is an ordered list of frames. Insertion order is wire order.
type Sequence struct {
	frames []Frame
}

// NewSequence returns a sequence holding frames in the given order.
func NewSequence(frames ...Frame) Sequence {
	var s Sequence
	s.Append(frames...)
	return s
}

// Strings builds a sequence from text values.
func Strings(values ...string) Sequence {
	var s Sequence
	for _, v := range values {
		s.Append(String(v))
	}
	return s
}

// Append adds frames to the end of the sequence, preserving call order.
func (s *Sequence) Append(frames ...Frame) {
	s.frames = append(s.frames, frames...)
}

// Concat appends every frame of other.
func (s *Sequence) Concat(other Sequence) {
	s.frames = append(s.frames, other.frames...)
}

func (s Sequence) Len() int {
	return len(s.frames)
}

func (s Sequence) Empty() bool {
	return len(s.frames) == 0
}

// At returns frame i.
func (s Sequence) At(i int) Frame {
	return s.frames[i]
}

// Last returns the final frame, or nil for an empty sequence.
func (s Sequence) Last() Frame {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// Clone returns an independent copy; appends to the copy do not leak
// into s.
func (s Sequence) Clone() Sequence {
	out := Sequence{frames: make([]Frame, len(s.frames))}
	copy(out.frames, s.frames)
	return out
}

// Raw returns the frames as byte slices in wire order.
func (s Sequence) Raw() [][]byte {
	out := make([][]byte, len(s.frames))
	for i, f := range s.frames {
		out[i] = []byte(f)
	}
	return out
}

// StringSlice returns the frames as strings in wire order.
func (s Sequence) StringSlice() []string {
	out := make([]string, len(s.frames))
	for i, f := range s.frames {
		out[i] = string(f)
	}
	return out
}
