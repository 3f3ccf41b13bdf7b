package preview

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"git.home.luguber.info/inful/sitegen/internal/metrics"
)

// Handler routes /healthz, optionally /metrics, and serves the output tree
// for everything else.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.Recoverer,
		s.requestLogger,
		middleware.Compress(5),
	)

	r.Get("/healthz", s.handleHealth)
	if s.opts.Registry != nil {
		r.Method(http.MethodGet, "/metrics", metrics.HTTPHandler(s.opts.Registry))
	}
	r.Handle("/*", http.FileServer(http.Dir(s.output)))
	return r
}

// handleHealth reports the last build. It fails only while no build has
// ever succeeded.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	err, good, builds := s.status.get()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	switch {
	case err != nil && !good:
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = fmt.Fprintf(w, "build failed: %v\n", err)
	case err != nil:
		_, _ = fmt.Fprintf(w, "serving previous build; last rebuild failed: %v\n", err)
	default:
		_, _ = fmt.Fprintf(w, "ok (%d builds)\n", builds)
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("HTTP request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)))
	})
}
