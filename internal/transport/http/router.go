package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter mounts the REST and WebSocket surfaces behind JWT authentication.
func NewRouter(auth *JWTAuth, rest *RESTHandler, ws *WSHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware)
		r.Route("/quizzes/{quizId}", func(r chi.Router) {
			r.Post("/start-timed", rest.StartTimed)
			r.Get("/session-status", rest.SessionStatus)
			r.Post("/submit-timed-answer", rest.SubmitTimedAnswer)
			r.Post("/submit", rest.SubmitUntimed)
		})
		r.Get("/ws/quizzes/{quizId}", ws.ServeWS)
	})
	return r
}
