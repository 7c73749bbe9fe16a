// Package web serves the customer-facing reservation pages: the landing
// page, the read-only reservation view and the booking wizard. Pages are
// rendered server-side; every piece of business logic lives in the backing
// reservation API.
package web

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/rain-app/reservations-web/internal/rainapi"
)

//go:embed templates/*.html
var templatesFS embed.FS

type Server struct {
	API      *rainapi.Client
	Sessions *WizardSessions

	// BaseURL is the public origin used for shareable reservation links.
	BaseURL string
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recover)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	r.Get("/", s.handleHome)

	r.Get("/r/{id}", s.handleReservation)
	r.Post("/r/{id}/confirm", s.handleConfirm)
	r.Post("/r/{id}/cancel", s.handleCancel)

	// Old share links used this path for the read view.
	r.Get("/reservations/{id}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/r/"+chi.URLParam(r, "id"), http.StatusMovedPermanently)
	})

	r.Get("/reservations/clients/{clientID}", s.handleWizard)
	r.Post("/reservations/clients/{clientID}/search", s.handleWizardSearch)
	r.Post("/reservations/clients/{clientID}/select", s.handleWizardSelect)
	r.Post("/reservations/clients/{clientID}/contact", s.handleWizardContact)
	r.Post("/reservations/clients/{clientID}/reset", s.handleWizardReset)

	return r
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	t, err := template.ParseFS(templatesFS, "templates/base.html", "templates/"+name)
	if err != nil {
		log.Error().Err(err).Str("template", name).Msg("template parse failed")
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := t.ExecuteTemplate(w, "base", data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("template render failed")
	}
}

// Start runs the server until ctx is cancelled, then shuts down gracefully.
func Start(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Info().Str("addr", addr).Msg("listening")
	return srv.ListenAndServe()
}
