package message

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/danmuck/samwise/internal/protocol"
	"github.com/danmuck/samwise/internal/protocol/frame"
)

type recordingSender struct {
	calls [][]string
	err   error
}

func (r *recordingSender) Send(_ context.Context, seq frame.Sequence) error {
	r.calls = append(r.calls, seq.StringSlice())
	return r.err
}

func TestNewMessageIsEmpty(t *testing.T) {
	sender := &recordingSender{}
	msg := New(sender)
	if !msg.Empty() || msg.Len() != 0 {
		t.Fatalf("expected empty message, len=%d", msg.Len())
	}
	err := msg.Send(context.Background())
	if !errors.Is(err, protocol.ErrRequestMalformed) {
		t.Fatalf("expected ErrRequestMalformed, got %v", err)
	}
	if len(sender.calls) != 0 {
		t.Fatalf("empty request reached the sender")
	}
}

func TestAddAcceptsFrames(t *testing.T) {
	msg := New(&recordingSender{})
	msg.AddString("foo", "bar")
	if msg.Empty() || msg.Len() != 2 {
		t.Fatalf("expected 2 frames, got %d", msg.Len())
	}
}

func TestSendAppendsSingleVersionTrailer(t *testing.T) {
	sender := &recordingSender{}
	msg := New(sender)
	msg.AddString("ping")
	if err := msg.Send(context.Background()); err != nil {
		t.Fatalf("send: %v", err)
	}
	want := []string{"ping", protocol.VersionString()}
	if len(sender.calls) != 1 || !reflect.DeepEqual(sender.calls[0], want) {
		t.Fatalf("unexpected wire frames: %q", sender.calls)
	}
	if msg.Len() != 1 {
		t.Fatalf("trailer leaked into builder frames: len=%d", msg.Len())
	}
}

func TestMessageIsSingleUse(t *testing.T) {
	sender := &recordingSender{err: protocol.ConnectionFailure("message was not sent", nil)}
	msg := New(sender)
	msg.AddString("ping")

	if err := msg.Send(context.Background()); !errors.Is(err, protocol.ErrConnectionFailure) {
		t.Fatalf("expected sender error to pass through, got %v", err)
	}
	if !msg.Sent() {
		t.Fatalf("expected message marked sent")
	}
	if err := msg.Send(context.Background()); !errors.Is(err, protocol.ErrRequestMalformed) {
		t.Fatalf("expected resend rejection, got %v", err)
	}
	if len(sender.calls) != 1 {
		t.Fatalf("expected exactly one transmission, got %d", len(sender.calls))
	}
}

func TestSendWithoutSender(t *testing.T) {
	msg := New(nil)
	msg.AddString("ping")
	if err := msg.Send(context.Background()); !errors.Is(err, protocol.ErrConnectionFailure) {
		t.Fatalf("expected ErrConnectionFailure, got %v", err)
	}
}
