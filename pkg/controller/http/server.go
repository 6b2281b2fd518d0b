package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/retainer/pkg/usecase"
	"github.com/secmon-lab/retainer/pkg/utils/safe"
)

// EventDispatcher routes normalized Slack events into the case workflow.
// *usecase.Dispatcher implements it.
type EventDispatcher interface {
	HandleAction(ctx context.Context, ev *usecase.ActionEvent) error
	HandleCommand(ctx context.Context, ev *usecase.CommandEvent) error
	CheckForm(ev *usecase.FormEvent) map[string]string
	HandleForm(ctx context.Context, ev *usecase.FormEvent) error
}

var _ EventDispatcher = (*usecase.Dispatcher)(nil)

type Server struct {
	router             *chi.Mux
	dispatcher         EventDispatcher
	slackSigningSecret string
}

type Options func(*Server)

// WithSlack mounts the Slack command and interaction endpoints
func WithSlack(dispatcher EventDispatcher, signingSecret string) Options {
	return func(s *Server) {
		s.dispatcher = dispatcher
		s.slackSigningSecret = signingSecret
	}
}

func New(opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
	}
	for _, opt := range opts {
		opt(s)
	}

	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)

	if s.dispatcher != nil {
		r.Route("/hooks/slack", func(r chi.Router) {
			r.Use(SlackSignatureMiddleware(s.slackSigningSecret))

			r.Post("/command", NewSlackCommandHandler(s.dispatcher).ServeHTTP)
			r.Post("/interaction", NewSlackInteractionHandler(s.dispatcher).ServeHTTP)
		})
	}

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, map[string]bool{"ok": true})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	safe.Write(ctx, w, data)
}
