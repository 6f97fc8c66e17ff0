package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/DoyleJ11/quiz-client/internal/transport"
)

// fakeConn is an in-memory transport.Conn. Tests push inbound frames with
// deliver and observe outbound frames on writes.
type fakeConn struct {
	inbound chan []byte
	writes  chan string
	remote  chan struct{} // closed when the "backend" hangs up
	closed  chan struct{}
	once    sync.Once
	hangup  sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		inbound: make(chan []byte, 16),
		writes:  make(chan string, 16),
		remote:  make(chan struct{}),
		closed:  make(chan struct{}),
	}
}

func (c *fakeConn) Read(ctx context.Context) ([]byte, error) {
	select {
	case data := <-c.inbound:
		return data, nil
	case <-c.remote:
		return nil, fmt.Errorf("%w: remote hung up", transport.ErrClosed)
	case <-c.closed:
		return nil, errors.New("use of closed connection")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *fakeConn) Write(ctx context.Context, data []byte) error {
	select {
	case <-c.closed:
		return errors.New("write on closed connection")
	default:
	}
	c.writes <- string(data)
	return nil
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) deliver(frame string) { c.inbound <- []byte(frame) }

func (c *fakeConn) hangUp() { c.hangup.Do(func() { close(c.remote) }) }

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// fakeDialer hands out queued connections. When gate is non-nil every Dial
// waits for a value on it first, so tests can observe the connecting state.
type fakeDialer struct {
	mu      sync.Mutex
	conns   []*fakeConn
	err     error
	gate    chan struct{}
	targets []string
}

func (d *fakeDialer) Dial(ctx context.Context, target string) (transport.Conn, error) {
	if d.gate != nil {
		select {
		case <-d.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.targets = append(d.targets, target)
	if d.err != nil {
		return nil, d.err
	}
	if len(d.conns) == 0 {
		return nil, errors.New("no fake connection queued")
	}
	c := d.conns[0]
	d.conns = d.conns[1:]
	return c, nil
}

func (d *fakeDialer) dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.targets)
}
