package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-zeromq/zmq4"
)

var (
	ErrTransportClosed = errors.New("session: transport closed")
	ErrEmptyEndpoint   = errors.New("session: endpoint required")
)

// Transport carries one multipart request and its multipart reply.
// Implementations must make Close unblock a pending Recv.
type Transport interface {
	Send(frames [][]byte) error
	Recv() ([][]byte, error)
	Close() error
}

// Prober is implemented by transports that can report their own health.
type Prober interface {
	Probe() error
}

// Dialer establishes a transport to endpoint.
type Dialer func(ctx context.Context, endpoint string) (Transport, error)

type zmqTransport struct {
	sock   zmq4.Socket
	cancel context.CancelFunc
	done   <-chan struct{}

	closeOnce sync.Once
}

// ZMQDialer returns a Dialer opening a ZeroMQ REQ socket. The REQ pattern
// rejects a second send before the reply to the first is read.
func ZMQDialer(timeout time.Duration, retries int, retryWait time.Duration) Dialer {
	return func(ctx context.Context, endpoint string) (Transport, error) {
		if endpoint == "" {
			return nil, ErrEmptyEndpoint
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sockCtx, cancel := context.WithCancel(context.Background())
		sock := zmq4.NewReq(sockCtx,
			zmq4.WithDialerTimeout(timeout),
			zmq4.WithDialerRetry(retryWait),
			zmq4.WithDialerMaxRetries(retries),
		)

		stop := context.AfterFunc(ctx, cancel)
		err := sock.Dial(endpoint)
		stop()
		if err != nil {
			_ = sock.Close()
			cancel()
			return nil, fmt.Errorf("session: dial %q: %w", endpoint, err)
		}
		return &zmqTransport{sock: sock, cancel: cancel, done: sockCtx.Done()}, nil
	}
}

func (t *zmqTransport) Send(frames [][]byte) error {
	if t.closed() {
		return ErrTransportClosed
	}
	return t.sock.SendMulti(zmq4.NewMsgFrom(frames...))
}

func (t *zmqTransport) Recv() ([][]byte, error) {
	if t.closed() {
		return nil, ErrTransportClosed
	}
	msg, err := t.sock.Recv()
	if err != nil {
		if t.closed() {
			return nil, ErrTransportClosed
		}
		return nil, err
	}
	return msg.Frames, nil
}

// Probe only reports a local close. zmq4 exposes no peer liveness, and the
// Session clears its state before closing a transport, so for this
// transport Connected never sees a probe failure; a dead samd surfaces on
// the next Send as a timeout or connection failure instead.
func (t *zmqTransport) Probe() error {
	if t.closed() {
		return ErrTransportClosed
	}
	return nil
}

func (t *zmqTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		t.cancel()
		err = t.sock.Close()
	})
	return err
}

func (t *zmqTransport) closed() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}
