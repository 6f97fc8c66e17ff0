package hub

import (
	"context"
	"errors"

	"github.com/DoyleJ11/quiz-client/internal/session"
	"go.uber.org/zap"
)

var ErrHubClosed = errors.New("hub closed")

type HubMsg interface{ isHubMsg() }

type CurrentSession struct {
	Reply chan *session.Session
}

// RestartSession discards the live session (state and connection) and
// mounts a fresh one.
type RestartSession struct {
	Reply chan *session.Session
}

type ShutdownHub struct{}

func (CurrentSession) isHubMsg() {}
func (RestartSession) isHubMsg() {}
func (ShutdownHub) isHubMsg()    {}

// Factory builds an unconnected session bound to ctx.
type Factory func(ctx context.Context) *session.Session

// Hub owns exactly one live session at a time.
type Hub struct {
	inbox   chan HubMsg
	current *session.Session
	factory Factory
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewHub(parent context.Context, factory Factory, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		factory: factory,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
	h.current = h.mount()
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// mount creates a session and connects it; this is the only place Connect
// is issued, once per session.
func (h *Hub) mount() *session.Session {
	s := h.factory(h.ctx)
	h.log.Info("session mounted", zap.String("session_id", s.ID()))
	s.Connect()
	return s
}

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CurrentSession:
				msg.Reply <- h.current

			case RestartSession:
				old := h.current
				old.Shutdown()
				<-old.Done()
				h.log.Info("session restarted", zap.String("previous_session_id", old.ID()))
				h.current = h.mount()
				msg.Reply <- h.current

			case ShutdownHub:
				h.current.Shutdown()
				h.cancel()
				return
			}
		}
	}
}

func (h *Hub) ask(ctx context.Context, m func(chan *session.Session) HubMsg) (*session.Session, error) {
	reply := make(chan *session.Session, 1)
	select {
	case h.inbox <- m(reply):
	case <-h.ctx.Done():
		return nil, ErrHubClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case s := <-reply:
		return s, nil
	case <-h.ctx.Done():
		return nil, ErrHubClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Hub) Current(ctx context.Context) (*session.Session, error) {
	return h.ask(ctx, func(r chan *session.Session) HubMsg { return CurrentSession{Reply: r} })
}

func (h *Hub) Restart(ctx context.Context) (*session.Session, error) {
	return h.ask(ctx, func(r chan *session.Session) HubMsg { return RestartSession{Reply: r} })
}

func (h *Hub) Shutdown() {
	select {
	case h.inbox <- ShutdownHub{}:
	case <-h.ctx.Done():
	}
}
