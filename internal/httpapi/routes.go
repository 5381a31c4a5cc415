package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/amparooliver/frontend-Mastergoal/internal/hub"
	"github.com/amparooliver/frontend-Mastergoal/internal/ws"
)

func SetupRoutes(h *hub.Hub, log *zap.SugaredLogger, wsOpts ws.Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, log, wsOpts))

	r.Route("/games", func(r chi.Router) {
		r.Get("/", ListGames(h))
		r.Post("/", CreateGame(h, log))
		r.Route("/{code}", func(r chi.Router) {
			r.Get("/", GetGame(h))
			r.Delete("/", DeleteGame(h))
			r.Post("/refresh", RefreshGame(h))
			r.Post("/restart", RestartGame(h))
		})
	})
	return r
}

func requestLogger(log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debugw("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()))
		})
	}
}
