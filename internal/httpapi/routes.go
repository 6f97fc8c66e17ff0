package httpapi

import (
	"net/http"

	"github.com/DoyleJ11/quiz-client/internal/hub"
	"github.com/DoyleJ11/quiz-client/internal/theme"
	"github.com/DoyleJ11/quiz-client/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func SetupRoutes(h *hub.Hub, themes *theme.Resolver, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", Healthz)
	r.Route("/api", func(r chi.Router) {
		r.Get("/state", GetState(h, themes))
		r.Post("/game", RequestGame(h, log))
		r.Get("/theme", GetTheme(themes))
		r.Post("/theme", SetTheme(h, themes))
		r.Post("/notification/dismiss", DismissNotification(h))
		r.Post("/restart", Restart(h))
		r.Post("/summary", PostSummary(h, log))
	})
	r.Get("/ws", ws.Handler(h, themes, log))
	return r
}
