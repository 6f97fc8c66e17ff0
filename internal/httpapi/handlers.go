package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/DoyleJ11/quiz-client/internal/engine"
	"github.com/DoyleJ11/quiz-client/internal/hub"
	"github.com/DoyleJ11/quiz-client/internal/session"
	"github.com/DoyleJ11/quiz-client/internal/theme"
	"github.com/DoyleJ11/quiz-client/internal/types"
	"go.uber.org/zap"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// currentSession writes 503 and returns nil once the hub is gone.
func currentSession(w http.ResponseWriter, r *http.Request, h *hub.Hub) *session.Session {
	s, err := h.Current(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return nil
	}
	return s
}

func GetState(h *hub.Hub, themes *theme.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := currentSession(w, r, h)
		if s == nil {
			return
		}
		v, err := s.State(r.Context())
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, v.Snapshot().Props(int(themes.Current())))
	}
}

type gameRequest struct {
	Amount     int    `json:"amount"`
	Category   string `json:"category"`
	Difficulty string `json:"difficulty"`
	Type       string `json:"type"`
}

func orAny(s string) string {
	if s == "" {
		return types.Any
	}
	return s
}

func (g gameRequest) params() (engine.GameParams, error) {
	if g.Amount <= 0 {
		return engine.GameParams{}, errors.New("amount must be positive")
	}
	difficulty, ok := types.ParseDifficulty(orAny(g.Difficulty))
	if !ok {
		return engine.GameParams{}, errors.New("unknown difficulty")
	}
	typ, ok := types.ParseQuestionType(orAny(g.Type))
	if !ok {
		return engine.GameParams{}, errors.New("unknown question type")
	}
	return engine.GameParams{Amount: g.Amount, Category: orAny(g.Category), Difficulty: difficulty, Type: typ}, nil
}

// knownCategory checks a category id against the cached category list. The
// id is opaque until categories have arrived, and an undecodable list checks
// nothing.
func knownCategory(state engine.State, category string, log *zap.Logger) bool {
	if category == types.Any || len(state.Categories) == 0 {
		return true
	}
	cats, err := types.DecodeCategories(state.Categories)
	if err != nil {
		log.Debug("categories not checkable", zap.Error(err))
		return true
	}
	for _, c := range cats {
		if strconv.Itoa(c.ID) == category {
			return true
		}
	}
	return false
}

func RequestGame(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body gameRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
		game, err := body.params()
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		s := currentSession(w, r, h)
		if s == nil {
			return
		}
		v, err := s.State(r.Context())
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		if !knownCategory(v.State, game.Category, log) {
			writeError(w, http.StatusBadRequest, "unknown category")
			return
		}

		switch err := s.RequestGame(r.Context(), game); {
		case err == nil:
			w.WriteHeader(http.StatusAccepted)
		case errors.Is(err, engine.ErrNotConnected):
			writeError(w, http.StatusConflict, engine.NotConnectedText)
		default:
			log.Warn("request game", zap.String("session_id", s.ID()), zap.Error(err))
			writeError(w, http.StatusServiceUnavailable, err.Error())
		}
	}
}

type themeBody struct {
	ID *int `json:"id"`
}

type themeReply struct {
	Theme int `json:"theme"`
}

func GetTheme(themes *theme.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, themeReply{Theme: int(themes.Current())})
	}
}

// SetTheme re-resolves the theme. A missing id falls back to the persisted
// preference. Stream observers get a fresh snapshot carrying the new theme.
func SetTheme(h *hub.Hub, themes *theme.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body themeBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
		requested := theme.None
		if body.ID != nil {
			requested = theme.Some(theme.ID(*body.ID))
		}
		id := themes.Resolve(r.Context(), requested)
		if s, err := h.Current(r.Context()); err == nil {
			s.Refresh()
		}
		writeJSON(w, http.StatusOK, themeReply{Theme: int(id)})
	}
}

func DismissNotification(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := currentSession(w, r, h)
		if s == nil {
			return
		}
		s.Dismiss()
		w.WriteHeader(http.StatusNoContent)
	}
}

// Restart drops the session with its cache and connection, as a page
// reload would.
func Restart(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := h.Restart(r.Context())
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, struct {
			SessionID string `json:"session_id"`
		}{SessionID: s.ID()})
	}
}

type summaryReply struct {
	types.Summary
	Total int `json:"total"`
}

// PostSummary echoes the end-of-game counts. They cannot exceed the number
// of questions the session holds, when it holds any.
func PostSummary(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body types.Summary
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
		if body.Correct < 0 || body.Incorrect < 0 {
			writeError(w, http.StatusBadRequest, "counts must not be negative")
			return
		}

		s := currentSession(w, r, h)
		if s == nil {
			return
		}
		v, err := s.State(r.Context())
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		if len(v.State.Questions) > 0 {
			qs, err := types.DecodeQuestions(v.State.Questions)
			if err != nil {
				log.Debug("questions not checkable", zap.Error(err))
			} else if body.Total() > len(qs) {
				writeError(w, http.StatusBadRequest, "more answers than questions")
				return
			}
		}

		writeJSON(w, http.StatusOK, summaryReply{Summary: body, Total: body.Total()})
	}
}
