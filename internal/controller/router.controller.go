package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// GetMux serves the local API the UI uses to read the room and issue intents.
func (c *Controller) GetMux() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(c.requestIdMw)
	r.Use(c.requestLoggingMw)
	r.Use(cors.AllowAll().Handler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})
		r.Get("/room", c.getRoom)
		r.Post("/reconnect", c.reconnect)
		r.Route("/player", func(r chi.Router) {
			r.Post("/play", c.play)
			r.Post("/pause", c.pause)
			r.Post("/seek", c.seek)
			r.Post("/load", c.loadVideo)
			r.Post("/next", c.playNext)
		})
		r.Route("/queue", func(r chi.Router) {
			r.Post("/", c.addToQueue)
			r.Delete("/{index}", c.removeFromQueue)
		})
		r.Post("/chat", c.sendChat)
		r.Get("/search", c.search)
	})

	return r
}
