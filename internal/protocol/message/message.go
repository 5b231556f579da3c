// Package message builds one samd request and hands it to a Sender.
package message

import (
	"context"

	"github.com/danmuck/samwise/internal/protocol"
	"github.com/danmuck/samwise/internal/protocol/frame"
)

// Sender transmits a complete request and waits for its reply.
// *session.Session implements it.
type Sender interface {
	Send(ctx context.Context, seq frame.Sequence) error
}

// Message accumulates the frames of one request. It is single-use.
type Message struct {
	sender Sender
	frames frame.Sequence
	sent   bool
}

func New(sender Sender) *Message {
	return &Message{sender: sender}
}

// Add appends frames in call order.
func (m *Message) Add(frames ...frame.Frame) {
	m.frames.Append(frames...)
}

// AddString appends text frames in call order.
func (m *Message) AddString(values ...string) {
	for _, v := range values {
		m.frames.Append(frame.String(v))
	}
}

// AddSequence appends every frame of seq.
func (m *Message) AddSequence(seq frame.Sequence) {
	m.frames.Concat(seq)
}

func (m *Message) Empty() bool {
	return m.frames.Empty()
}

func (m *Message) Len() int {
	return m.frames.Len()
}

// Frames returns a copy of the payload frames, without the version trailer.
func (m *Message) Frames() frame.Sequence {
	return m.frames.Clone()
}

// Sent reports whether Send was already called.
func (m *Message) Sent() bool {
	return m.sent
}

// Send appends the protocol version trailer and delegates to the sender.
// The message is consumed whatever the outcome.
func (m *Message) Send(ctx context.Context) error {
	if m.sent {
		return protocol.RequestMalformed("message already sent", nil)
	}
	if m.frames.Empty() {
		return protocol.RequestMalformed("request has no frames", nil)
	}
	if m.sender == nil {
		return protocol.ConnectionFailure("message has no sender", nil)
	}
	m.sent = true

	req := m.frames.Clone()
	req.Append(frame.String(protocol.VersionString()))
	return m.sender.Send(ctx, req)
}
