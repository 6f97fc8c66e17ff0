package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/DoyleJ11/quiz-client/internal/hub"
	"github.com/DoyleJ11/quiz-client/internal/session"
	"github.com/DoyleJ11/quiz-client/internal/theme"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const writeTimeout = 3 * time.Second

// Handler streams the current session's snapshots to the presentation layer.
// The stream ends when the session is replaced; clients reconnect to follow
// the new one.
func Handler(h *hub.Hub, themes *theme.Resolver, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := h.Current(r.Context())
		if err != nil {
			http.Error(w, "no session", http.StatusServiceUnavailable)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			// In dev ONLY, you can loosen origin checks:
			// OriginPatterns: []string{"http://localhost:*", "http://127.0.0.1:*"},
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		stream(r.Context(), conn, s, themes, log)
	}
}

// stream forwards snapshots until the peer leaves or the session ends.
func stream(ctx context.Context, conn *websocket.Conn, s *session.Session, themes *theme.Resolver, log *zap.Logger) {
	out := make(chan session.Snapshot, 8)
	clientID := uuid.NewString()
	log = log.With(zap.String("session_id", s.ID()), zap.String("client_id", clientID))

	// Subscribe pushes the current snapshot first.
	s.Subscribe(clientID, out)
	defer s.Unsubscribe(clientID)

	// Nothing is read from the client; CloseRead handles control frames
	// and cancels ctx when the peer goes away.
	ctx = conn.CloseRead(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Debug("observer left")
			return
		case <-s.Done():
			// A session that stopped before Subscribe landed never closes out.
			conn.Close(websocket.StatusGoingAway, "session ended")
			return
		case snap, ok := <-out:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "session ended")
				return
			}
			if err := write(ctx, conn, snap, themes); err != nil {
				log.Debug("observer write failed", zap.Error(err))
				return
			}
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, snap session.Snapshot, themes *theme.Resolver) error {
	payload, err := json.Marshal(snap.Props(int(themes.Current())))
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, payload)
}
