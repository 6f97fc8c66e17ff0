package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/DoyleJ11/quiz-client/internal/engine"
	"github.com/DoyleJ11/quiz-client/internal/transport"
	"github.com/DoyleJ11/quiz-client/internal/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrSessionClosed = errors.New("session closed")

type Msg interface{ isSessionMsg() }

// Connect dials the backend. A live connection is superseded, not reused.
type Connect struct{}

func (Connect) isSessionMsg() {}

type RequestGame struct {
	Game  engine.GameParams
	Reply chan error // nil, or engine.ErrNotConnected
}

func (RequestGame) isSessionMsg() {}

type Notify struct{ Text string }

func (Notify) isSessionMsg() {}

type Dismiss struct{}

func (Dismiss) isSessionMsg() {}

type Subscribe struct {
	ClientID string
	Outbox   chan Snapshot // where this observer wants to receive snapshots
}

func (Subscribe) isSessionMsg() {}

type Unsubscribe struct{ ClientID string }

func (Unsubscribe) isSessionMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isSessionMsg() {}

// Refresh re-broadcasts the current state under a new version, for changes
// observers render that live outside the session (the theme).
type Refresh struct{}

func (Refresh) isSessionMsg() {}

type Shutdown struct{}

func (Shutdown) isSessionMsg() {}

// Posted by the dial/read goroutines and timers. gen ties each one to the
// connection or notification that spawned it so stale ones are dropped.
type dialed struct {
	gen  int
	conn transport.Conn
	err  error
}

func (dialed) isSessionMsg() {}

type received struct {
	gen   int
	frame []byte
}

func (received) isSessionMsg() {}

type readFailed struct {
	gen int
	err error
}

func (readFailed) isSessionMsg() {}

type dismissFired struct{ gen int }

func (dismissFired) isSessionMsg() {}

type Snapshot struct {
	SessionID string
	Version   int
	State     engine.State
}

type View struct {
	SessionID  string
	Version    int
	NumClients int
	State      engine.State
}

func (s Snapshot) Props(theme int) types.Props {
	return types.Props{
		SessionID:    s.SessionID,
		Version:      s.Version,
		Connection:   string(s.State.Conn),
		View:         string(engine.DeriveView(s.State)),
		Categories:   s.State.Categories,
		Questions:    s.State.Questions,
		Notification: s.State.Notification,
		Theme:        theme,
	}
}

func (v View) Snapshot() Snapshot {
	return Snapshot{SessionID: v.SessionID, Version: v.Version, State: v.State}
}

type Options struct {
	Target        string
	Dialer        transport.Dialer
	Logger        *zap.Logger
	NotifyTimeout time.Duration // 0 disables auto-dismiss
	WriteTimeout  time.Duration
}

type Session struct {
	id       string
	inbox    chan Msg
	state    engine.State
	version  int
	clients  map[string]chan Snapshot
	conn     transport.Conn
	connGen  int
	timerGen int
	opts     Options
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

func New(parent context.Context, opts Options) *Session {
	ctx, cancel := context.WithCancel(parent)

	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 3 * time.Second
	}

	id := uuid.NewString()
	s := &Session{
		id:      id,
		inbox:   make(chan Msg, 64),
		state:   engine.NewState(),
		clients: make(map[string]chan Snapshot),
		opts:    opts,
		log:     opts.Logger.With(zap.String("session_id", id)),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go s.loop()
	return s
}

func (s *Session) loop() {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			s.shutdown()
			return

		case m := <-s.inbox:
			switch msg := m.(type) {
			case Connect:
				s.connect()

			case dialed:
				if msg.gen != s.connGen {
					if msg.conn != nil {
						_ = msg.conn.Close()
					}
					break
				}
				if msg.err != nil {
					s.apply(engine.Event{Type: engine.EvtErrored, Err: msg.err})
					s.apply(engine.Event{Type: engine.EvtClosed, Err: msg.err})
					break
				}
				s.conn = msg.conn
				go s.read(msg.gen, msg.conn)
				s.log.Info("connected", zap.String("target", s.opts.Target))
				s.apply(engine.Event{Type: engine.EvtOpened})

			case received:
				if msg.gen != s.connGen {
					break
				}
				s.apply(engine.Event{Type: engine.EvtFrameReceived, Frame: msg.frame})

			case readFailed:
				if msg.gen != s.connGen {
					break
				}
				if !errors.Is(msg.err, transport.ErrClosed) {
					s.apply(engine.Event{Type: engine.EvtErrored, Err: msg.err})
				}
				s.dropConn()
				s.apply(engine.Event{Type: engine.EvtClosed, Err: msg.err})

			case RequestGame:
				effects := s.apply(engine.Event{Type: engine.EvtGameRequested, Game: msg.Game})
				var err error
				for _, eff := range effects {
					if eff.Type == engine.EffRejected {
						err = eff.Err
					}
				}
				if msg.Reply != nil {
					msg.Reply <- err
				}

			case Notify:
				s.apply(engine.Event{Type: engine.EvtNotified, Text: msg.Text})

			case Dismiss:
				s.apply(engine.Event{Type: engine.EvtNotificationDismissed})

			case dismissFired:
				if msg.gen != s.timerGen {
					break
				}
				s.apply(engine.Event{Type: engine.EvtNotificationDismissed})

			case Subscribe:
				s.clients[msg.ClientID] = msg.Outbox
				select {
				case msg.Outbox <- s.snapshot():
				default:
				}

			case Unsubscribe:
				delete(s.clients, msg.ClientID)

			case GetState:
				msg.Reply <- View{
					SessionID:  s.id,
					Version:    s.version,
					NumClients: len(s.clients),
					State:      s.state,
				}

			case Refresh:
				s.version++
				s.broadcast(s.snapshot())

			case Shutdown:
				s.shutdown()
				return
			}
		}
	}
}

func (s *Session) connect() {
	s.dropConn()
	s.connGen++
	gen := s.connGen
	s.apply(engine.Event{Type: engine.EvtDialing})

	go func() {
		conn, err := s.opts.Dialer.Dial(s.ctx, s.opts.Target)
		s.post(dialed{gen: gen, conn: conn, err: err})
	}()
}

func (s *Session) read(gen int, conn transport.Conn) {
	for {
		frame, err := conn.Read(s.ctx)
		if err != nil {
			s.post(readFailed{gen: gen, err: err})
			return
		}
		s.post(received{gen: gen, frame: frame})
	}
}

func (s *Session) dropConn() {
	if s.conn == nil {
		return
	}
	_ = s.conn.Close()
	s.conn = nil
}

// apply runs one event through the engine, performs its effects and
// broadcasts when the state actually changed.
func (s *Session) apply(evt engine.Event) []engine.Effect {
	effects, next, err := engine.Apply(s.state, evt)
	if err != nil {
		s.log.Warn("event rejected", zap.String("event", string(evt.Type)), zap.Error(err))
		return nil
	}

	changed := !sameState(s.state, next)
	s.state = next

	for _, eff := range effects {
		switch eff.Type {
		case engine.EffSend:
			s.send(eff.Request)
		case engine.EffDecodeFailed:
			s.log.Warn("dropping malformed frame", zap.Error(eff.Err))
		case engine.EffIgnoredKind:
			s.log.Info("ignoring response", zap.String("kind", eff.Kind))
		case engine.EffConnError:
			s.log.Error("connection error", zap.Error(eff.Err))
		case engine.EffConnClosed:
			s.log.Warn("connection closed", zap.Error(eff.Err))
		case engine.EffRejected:
			s.log.Info("request rejected", zap.Error(eff.Err))
		case engine.EffArmDismiss:
			s.armDismiss()
		}
	}

	if changed {
		s.version++
		s.broadcast(s.snapshot())
	}
	return effects
}

func (s *Session) send(req types.Request) {
	if s.conn == nil {
		s.log.Warn("send without connection", zap.String("kind", string(req.Kind)))
		return
	}
	payload, err := json.Marshal(req)
	if err != nil {
		s.log.Error("encode request", zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(s.ctx, s.opts.WriteTimeout)
	defer cancel()
	if err := s.conn.Write(ctx, payload); err != nil {
		s.log.Error("write request", zap.String("kind", string(req.Kind)), zap.Error(err))
		return
	}
	s.log.Debug("sent request", zap.String("kind", string(req.Kind)))
}

func (s *Session) armDismiss() {
	s.timerGen++
	if s.opts.NotifyTimeout <= 0 {
		return
	}
	gen := s.timerGen
	time.AfterFunc(s.opts.NotifyTimeout, func() { s.post(dismissFired{gen: gen}) })
}

func (s *Session) post(m Msg) {
	select {
	case s.inbox <- m:
	case <-s.ctx.Done():
	}
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{SessionID: s.id, Version: s.version, State: s.state}
}

func (s *Session) shutdown() {
	s.dropConn()
	for id, ch := range s.clients {
		close(ch) // Tell observer no more snapshots
		delete(s.clients, id)
	}
	s.cancel()
}

func (s *Session) broadcast(snap Snapshot) {
	for id, ch := range s.clients {
		select {
		case ch <- snap:
			//ok
		default:
			// Observer is slow/full - drop them.
			close(ch)
			delete(s.clients, id)
		}
	}
}

func sameState(a, b engine.State) bool {
	return a.Conn == b.Conn &&
		a.Notification == b.Notification &&
		bytes.Equal(a.Categories, b.Categories) &&
		bytes.Equal(a.Questions, b.Questions)
}

// Expose the inbox so tests or the bridge can send messages.
func (s *Session) Inbox() chan<- Msg { return s.inbox }

func (s *Session) ID() string { return s.id }

// Done is closed once the session loop has exited.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) Connect() { s.post(Connect{}) }

func (s *Session) Notify(text string) { s.post(Notify{Text: text}) }

func (s *Session) Dismiss() { s.post(Dismiss{}) }

func (s *Session) Refresh() { s.post(Refresh{}) }

func (s *Session) Shutdown() { s.post(Shutdown{}) }

func (s *Session) Subscribe(clientID string, outbox chan Snapshot) {
	s.post(Subscribe{ClientID: clientID, Outbox: outbox})
}

func (s *Session) Unsubscribe(clientID string) { s.post(Unsubscribe{ClientID: clientID}) }

// RequestGame asks the backend for a question set. The questions arrive
// later as a snapshot; the returned error only reports engine.ErrNotConnected
// or a dead session.
func (s *Session) RequestGame(ctx context.Context, game engine.GameParams) error {
	reply := make(chan error, 1)
	select {
	case s.inbox <- RequestGame{Game: game, Reply: reply}:
	case <-s.ctx.Done():
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-s.ctx.Done():
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) State(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	select {
	case s.inbox <- GetState{Reply: reply}:
	case <-s.ctx.Done():
		return View{}, ErrSessionClosed
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
	select {
	case v := <-reply:
		return v, nil
	case <-s.ctx.Done():
		return View{}, ErrSessionClosed
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}
