// Package samdtest runs an in-process stand-in for samd on a ZeroMQ ROUTER
// socket. It checks the request envelope the way samd does and records
// every request for assertions.
//
// The REQ envelope is unwrapped here instead of by a REP socket: request
// bodies carry empty frames (routing key, rpc slot, unset options) and
// only the first empty frame after the peer identity is the delimiter.
package samdtest

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/danmuck/samwise/internal/protocol"
	"github.com/go-zeromq/zmq4"
)

// Handler returns the reply frames for one request (version trailer
// included in req).
type Handler func(req []string) []string

type Server struct {
	Endpoint string

	sock   zmq4.Socket
	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	requests [][]string
}

var seq atomic.Uint64

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9]+`)

// Endpoint returns a process-unique inproc endpoint for t.
func Endpoint(t testing.TB) string {
	return fmt.Sprintf("inproc://samd-%s-%d", unsafeChars.ReplaceAllString(t.Name(), "-"), seq.Add(1))
}

// Start binds a ROUTER socket on a fresh inproc endpoint and serves h until
// the test ends. A nil handler uses Daemon.
func Start(t testing.TB, h Handler) *Server {
	t.Helper()
	if h == nil {
		h = Daemon
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		Endpoint: Endpoint(t),
		sock:     zmq4.NewRouter(ctx),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	if err := s.sock.Listen(s.Endpoint); err != nil {
		cancel()
		t.Fatalf("samdtest: listen %s: %v", s.Endpoint, err)
	}
	go s.serve(h)
	t.Cleanup(s.Close)
	return s
}

func (s *Server) serve(h Handler) {
	defer close(s.done)
	for {
		msg, err := s.sock.Recv()
		if err != nil {
			return
		}
		envelope, body, ok := SplitEnvelope(msg.Frames)
		if !ok {
			continue
		}
		req := make([]string, len(body))
		for i, f := range body {
			req[i] = string(f)
		}
		s.mu.Lock()
		s.requests = append(s.requests, req)
		s.mu.Unlock()

		reply := h(req)
		frames := make([][]byte, 0, len(envelope)+len(reply))
		frames = append(frames, envelope...)
		for _, f := range reply {
			frames = append(frames, []byte(f))
		}
		if err := s.sock.SendMulti(zmq4.NewMsgFrom(frames...)); err != nil {
			return
		}
	}
}

// SplitEnvelope separates a ROUTER message into its routing envelope
// (identity frames up to and including the first empty delimiter) and the
// request body. Empty frames after the delimiter belong to the body.
func SplitEnvelope(frames [][]byte) (envelope, body [][]byte, ok bool) {
	// frames[0] is always the peer identity, which may itself be empty
	for i := 1; i < len(frames); i++ {
		if len(frames[i]) == 0 {
			return frames[:i+1], frames[i+1:], true
		}
	}
	return nil, nil, false
}

// Requests returns a copy of every request received so far.
func (s *Server) Requests() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s *Server) Close() {
	s.cancel()
	_ = s.sock.Close()
	<-s.done
}

// Reply returns a handler that always answers with frames.
func Reply(frames ...string) Handler {
	return func([]string) []string { return frames }
}

// Daemon answers like samd: the version trailer must match, the action
// must be known and publish/rpc requests must have the canonical shape.
func Daemon(req []string) []string {
	if len(req) == 0 {
		return fail("malformed request")
	}
	version, err := strconv.Atoi(req[len(req)-1])
	if err != nil {
		return fail("malformed request")
	}
	if version != protocol.Version {
		return fail("wrong protocol version")
	}
	body := req[:len(req)-1]
	if len(body) < 1 {
		return fail("no payload")
	}

	switch body[0] {
	case "publish":
		if !validPublish(body[1:]) {
			return fail("malformed publishing request")
		}
	case "rpc":
		if !validRPC(body[1:]) {
			return fail("malformed rpc request")
		}
	case "ping", "status", "stop", "restart":
	default:
		return fail("unknown action")
	}
	return []string{"0"}
}

func fail(msg string) []string {
	return []string{"-1", msg}
}

func validPublish(rest []string) bool {
	if len(rest) < 1 {
		return false
	}
	switch rest[0] {
	case "redundant":
		if len(rest) < 2 {
			return false
		}
		if n, err := strconv.Atoi(rest[1]); err != nil || n < 1 {
			return false
		}
		rest = rest[2:]
	case "round robin":
		rest = rest[1:]
	default:
		return false
	}

	// exchange, routing key, mandatory, immediate
	if len(rest) < 4 || rest[0] == "" {
		return false
	}
	rest = rest[4:]

	// options block, then headers block
	for i := 0; i < 2; i++ {
		if len(rest) < 1 {
			return false
		}
		n, err := strconv.Atoi(rest[0])
		if err != nil || n < 0 || len(rest) < n+1 {
			return false
		}
		if i == 0 && n != 12 {
			return false
		}
		if i == 1 && n%2 != 0 {
			return false
		}
		rest = rest[n+1:]
	}
	return len(rest) == 1 && rest[0] != ""
}

func validRPC(rest []string) bool {
	if len(rest) < 2 || rest[0] != "" {
		return false
	}
	switch rest[1] {
	case "exchange.declare":
		return len(rest) == 4 && rest[2] != "" && rest[3] != ""
	case "exchange.delete":
		return len(rest) == 3 && rest[2] != ""
	default:
		return false
	}
}
