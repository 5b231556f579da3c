package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/danmuck/samwise/internal/observability"
	"github.com/danmuck/samwise/internal/protocol"
	"github.com/danmuck/samwise/internal/protocol/frame"
	"github.com/rs/zerolog/log"
)

// State is the connection state of a Session.
type State int

const (
	StateDisconnected State = iota
	StateConnected
)

func (s State) String() string {
	if s == StateConnected {
		return "connected"
	}
	return "disconnected"
}

// Session owns one transport to samd and serializes requests over it.
// Sessions are independent; a Session must not be shared for interleaved
// use without going through Send.
type Session struct {
	cfg Config

	// reqMu is held for a full send+reply cycle.
	reqMu sync.Mutex

	mu        sync.Mutex
	state     State
	endpoint  string
	transport Transport

	// gen advances on every Connect and Close; a dial that finishes under
	// a stale gen is discarded.
	gen        uint64
	dialCancel context.CancelFunc
}

func New(cfg Config) *Session {
	return &Session{cfg: cfg.WithDefaults()}
}

func (s *Session) Config() Config {
	return s.cfg
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Endpoint returns the endpoint of the current connection, or "".
func (s *Session) Endpoint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endpoint
}

// Connect establishes a transport to endpoint. An existing connection is
// closed first. On failure the session is left disconnected. The dial runs
// without holding the state lock, so State, Connected and Close stay
// responsive; Close or a newer Connect aborts it.
func (s *Session) Connect(ctx context.Context, endpoint string) error {
	endpoint = strings.TrimSpace(endpoint)

	s.mu.Lock()
	if s.state == StateConnected {
		log.Debug().Str("endpoint", s.endpoint).Msg("session: closing previous transport before reconnect")
	}
	s.closeLocked()
	if endpoint == "" {
		s.mu.Unlock()
		observability.RecordConnect("failure")
		return protocol.ConnectionFailure("connect", ErrEmptyEndpoint)
	}
	gen := s.gen
	dialCtx, cancel := context.WithCancel(ctx)
	s.dialCancel = cancel
	s.mu.Unlock()
	defer cancel()

	t, err := s.cfg.Dialer(dialCtx, endpoint)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		if t != nil {
			_ = t.Close()
		}
		observability.RecordConnect("failure")
		return protocol.ConnectionFailure("connect "+endpoint+" aborted", ErrTransportClosed)
	}
	s.dialCancel = nil
	if err != nil {
		observability.RecordConnect("failure")
		log.Warn().Msgf("session.Connect endpoint=%q err=%v", endpoint, err)
		return protocol.ConnectionFailure("connect "+endpoint, err)
	}
	s.transport = t
	s.endpoint = endpoint
	s.state = StateConnected
	observability.RecordConnect("success")
	log.Info().Str("endpoint", endpoint).Msg("session connected")
	return nil
}

// Close tears down the transport and aborts an in-progress Connect. It is
// idempotent and unblocks a pending Send, which then fails with a
// connection failure.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.transport != nil {
		log.Debug().Str("endpoint", s.endpoint).Msg("session closed")
	}
	s.closeLocked()
	return nil
}

// Connected reports liveness. A failing transport probe is returned as a
// connection failure instead of false. The default ZeroMQ transport only
// detects a local close; use control.Ping to check samd itself.
func (s *Session) Connected() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConnected || s.transport == nil {
		return false, nil
	}
	if p, ok := s.transport.(Prober); ok {
		if err := p.Probe(); err != nil {
			return false, protocol.ConnectionFailure("liveness probe", err)
		}
	}
	return true, nil
}

// Send transmits seq as one wire message and blocks for exactly one reply.
// Concurrent callers are served one at a time.
func (s *Session) Send(ctx context.Context, seq frame.Sequence) error {
	if seq.Empty() {
		return protocol.RequestMalformed("request has no frames", nil)
	}

	s.reqMu.Lock()
	defer s.reqMu.Unlock()

	start := time.Now()
	err := s.roundTrip(ctx, seq)
	observability.RecordRequest(actionLabel(seq), outcomeLabel(err), time.Since(start))
	if err != nil {
		log.Warn().
			Str("action", actionLabel(seq)).
			Int("frames", seq.Len()).
			Err(err).
			Msg("session request failed")
		return err
	}
	log.Debug().
		Str("action", actionLabel(seq)).
		Int("frames", seq.Len()).
		Dur("elapsed", time.Since(start)).
		Msg("session request ok")
	return nil
}

type roundTripResult struct {
	reply [][]byte
	err   error
}

func (s *Session) roundTrip(ctx context.Context, seq frame.Sequence) error {
	t := s.current()
	if t == nil {
		return protocol.ConnectionFailure("socket not connected", nil)
	}
	if err := ctx.Err(); err != nil {
		return contextError(err)
	}

	done := make(chan roundTripResult, 1)
	go func() {
		if err := t.Send(seq.Raw()); err != nil {
			done <- roundTripResult{err: protocol.ConnectionFailure("message was not sent", err)}
			return
		}
		reply, err := t.Recv()
		if err != nil {
			done <- roundTripResult{err: protocol.ConnectionFailure("receive reply", err)}
			return
		}
		done <- roundTripResult{reply: reply}
	}()

	var timeout <-chan time.Time
	if s.cfg.RequestTimeout > 0 {
		timer := time.NewTimer(s.cfg.RequestTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case res := <-done:
		if res.err != nil {
			s.drop(t)
			return res.err
		}
		return frame.ParseReply(res.reply)
	case <-timeout:
		// a REQ socket cannot continue mid-cycle, so the transport goes
		s.drop(t)
		return protocol.Timeout(fmt.Sprintf("no reply within %s", s.cfg.RequestTimeout), context.DeadlineExceeded)
	case <-ctx.Done():
		s.drop(t)
		return contextError(ctx.Err())
	}
}

func (s *Session) current() Transport {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConnected {
		return nil
	}
	return s.transport
}

// drop closes t if it is still the active transport.
func (s *Session) drop(t Transport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.transport != t {
		return
	}
	log.Debug().Str("endpoint", s.endpoint).Msg("session transport dropped mid-request")
	s.closeLocked()
}

func (s *Session) closeLocked() {
	s.gen++
	if s.dialCancel != nil {
		s.dialCancel()
		s.dialCancel = nil
	}
	if s.transport != nil {
		_ = s.transport.Close()
	}
	s.transport = nil
	s.endpoint = ""
	s.state = StateDisconnected
}

func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return protocol.Timeout("request deadline exceeded", err)
	}
	return protocol.ConnectionFailure("request canceled", err)
}

func actionLabel(seq frame.Sequence) string {
	if seq.Empty() {
		return "none"
	}
	switch a := seq.At(0).String(); a {
	case "publish", "rpc", "ping", "status", "stop", "restart":
		return a
	default:
		return "other"
	}
}

func outcomeLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return strings.ReplaceAll(protocol.KindOf(err).String(), " ", "_")
}
