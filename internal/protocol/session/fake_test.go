package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// fakeTransport answers every request with reply after delay. A nil reply
// blocks Recv until Close.
type fakeTransport struct {
	reply    [][]byte
	delay    time.Duration
	sendErr  error
	probeErr error

	mu   sync.Mutex
	sent [][]string

	inflight    atomic.Int32
	maxInflight atomic.Int32

	closed    chan struct{}
	closeOnce sync.Once
	closes    atomic.Int32
}

func newFakeTransport(reply ...string) *fakeTransport {
	t := &fakeTransport{closed: make(chan struct{})}
	for _, r := range reply {
		t.reply = append(t.reply, []byte(r))
	}
	return t
}

func (t *fakeTransport) Send(frames [][]byte) error {
	if t.sendErr != nil {
		return t.sendErr
	}
	req := make([]string, len(frames))
	for i, f := range frames {
		req[i] = string(f)
	}
	t.mu.Lock()
	t.sent = append(t.sent, req)
	t.mu.Unlock()

	n := t.inflight.Add(1)
	for {
		cur := t.maxInflight.Load()
		if n <= cur || t.maxInflight.CompareAndSwap(cur, n) {
			break
		}
	}
	return nil
}

func (t *fakeTransport) Recv() ([][]byte, error) {
	defer t.inflight.Add(-1)
	if t.reply == nil {
		<-t.closed
		return nil, ErrTransportClosed
	}
	select {
	case <-time.After(t.delay):
		return t.reply, nil
	case <-t.closed:
		return nil, ErrTransportClosed
	}
}

func (t *fakeTransport) Probe() error {
	return t.probeErr
}

func (t *fakeTransport) Close() error {
	t.closes.Add(1)
	t.closeOnce.Do(func() { close(t.closed) })
	return nil
}

func (t *fakeTransport) requests() [][]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]string, len(t.sent))
	copy(out, t.sent)
	return out
}

// fakeDialer hands out transports in order and records endpoints. With
// hang set, dial signals dialing and then blocks until its ctx is done.
type fakeDialer struct {
	mu         sync.Mutex
	transports []*fakeTransport
	endpoints  []string
	err        error

	hang    bool
	dialing chan struct{}
}

func (d *fakeDialer) dial(ctx context.Context, endpoint string) (Transport, error) {
	d.mu.Lock()
	if d.hang {
		d.endpoints = append(d.endpoints, endpoint)
		d.mu.Unlock()
		close(d.dialing)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	defer d.mu.Unlock()
	d.endpoints = append(d.endpoints, endpoint)
	if d.err != nil {
		return nil, d.err
	}
	if len(d.transports) == 0 {
		return nil, errors.New("fake: no transport scripted")
	}
	t := d.transports[0]
	d.transports = d.transports[1:]
	return t, nil
}

func newFakeSession(cfg Config, transports ...*fakeTransport) (*Session, *fakeDialer) {
	d := &fakeDialer{transports: transports}
	cfg.Dialer = d.dial
	return New(cfg), d
}
