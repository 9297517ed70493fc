package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/inner-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/inner-lab/mnemosyne/pkg/usecase"
	"github.com/inner-lab/mnemosyne/pkg/utils/errutil"
	"github.com/inner-lab/mnemosyne/pkg/utils/logging"
	"github.com/inner-lab/mnemosyne/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
)

type Server struct {
	router *chi.Mux
	uc     *usecase.UseCases
}

func New(uc *usecase.UseCases) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Route("/journal", func(r chi.Router) {
			r.Post("/", s.createEntry)
			r.Get("/", s.listEntries)
			r.Get("/{entryID}", s.getEntry)
			r.Put("/{entryID}", s.updateEntry)
			r.Delete("/{entryID}", s.deleteEntry)
		})

		r.Get("/search", s.searchEntries)
		r.Post("/therapist/respond", s.respond)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		safe.Write(r.Context(), w, []byte("OK"))
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.From(r.Context()).Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// respondJSON marshals v and writes it with the given status
func respondJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(r.Context(), w, data)
}

// handleError maps use case errors to HTTP status codes:
// invalid input is the caller's fault, policy blocks are a distinct
// unprocessable state, and upstream model failures are a bad gateway
// rather than an internal error.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, usecase.ErrEntryNotFound):
		status = http.StatusNotFound
	case errors.Is(err, interfaces.ErrContentBlocked):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, usecase.ErrUpstream), errors.Is(err, usecase.ErrEmptyResponse):
		status = http.StatusBadGateway
	default:
		status = http.StatusInternalServerError
	}
	errutil.HandleHTTP(r.Context(), w, err, status)
}
