package hub

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DoyleJ11/quiz-client/internal/session"
	"github.com/DoyleJ11/quiz-client/internal/transport"
)

type refusingDialer struct{ dials chan string }

func (d refusingDialer) Dial(_ context.Context, target string) (transport.Conn, error) {
	d.dials <- target
	return nil, errors.New("connection refused")
}

func newTestHub(t *testing.T) (*Hub, chan string) {
	t.Helper()
	dials := make(chan string, 8)
	factory := func(ctx context.Context) *session.Session {
		return session.New(ctx, session.Options{Target: "ws://quiz.local:8080", Dialer: refusingDialer{dials: dials}})
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewHub(ctx, factory, nil), dials
}

func recvDial(t *testing.T, dials <-chan string) {
	t.Helper()
	select {
	case <-dials:
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for dial")
	}
}

func TestHub_Current_SamePointer(t *testing.T) {
	h, dials := newTestHub(t)
	recvDial(t, dials) // mount connects once

	s1, err := h.Current(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	s2, _ := h.Current(context.Background())
	if s1 == nil || s1 != s2 {
		t.Fatalf("expected same session pointer")
	}

	select {
	case target := <-dials:
		t.Fatalf("unexpected second dial to %s", target)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_Restart_ReplacesSession(t *testing.T) {
	h, dials := newTestHub(t)
	recvDial(t, dials)

	old, _ := h.Current(context.Background())
	fresh, err := h.Restart(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if fresh == old || fresh.ID() == old.ID() {
		t.Fatalf("restart must mount a new session")
	}
	recvDial(t, dials)

	select {
	case <-old.Done():
	case <-time.After(time.Second):
		t.Fatalf("old session still running")
	}

	cur, _ := h.Current(context.Background())
	if cur != fresh {
		t.Fatalf("current should be the restarted session")
	}
}

func TestHub_Shutdown(t *testing.T) {
	h, dials := newTestHub(t)
	recvDial(t, dials)
	s, _ := h.Current(context.Background())

	h.Shutdown()
	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatalf("session still running after hub shutdown")
	}
	if _, err := h.Current(context.Background()); !errors.Is(err, ErrHubClosed) {
		t.Fatalf("want ErrHubClosed, got %v", err)
	}
}
