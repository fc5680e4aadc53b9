// Package api exposes the HTTP interface for the content service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/camillebr/photosite/internal/config"
	"github.com/camillebr/photosite/internal/content"
	"github.com/camillebr/photosite/internal/ingest"
	"github.com/camillebr/photosite/internal/metrics"
	"github.com/camillebr/photosite/internal/notify"
	"github.com/camillebr/photosite/internal/policy/loginlimit"
)

// Pinger reports whether a backing store is reachable, for readiness checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server wires HTTP handlers to the ingestion pipeline and stores.
type Server struct {
	router    chi.Router
	orch      *ingest.Orchestrator
	images    content.ImageStore
	texts     content.TextStore
	publisher notify.Publisher
	login     *loginlimit.Limiter
	pinger    Pinger
	cfg       config.Config
	logger    *zap.Logger
}

// NewServer constructs a Server with middleware and routes. The pinger may be
// nil when no backing store participates in readiness.
func NewServer(
	orch *ingest.Orchestrator,
	images content.ImageStore,
	texts content.TextStore,
	publisher notify.Publisher,
	login *loginlimit.Limiter,
	pinger Pinger,
	cfg config.Config,
	logger *zap.Logger,
) *Server {
	if publisher == nil {
		publisher = notify.NoOp{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		orch:      orch,
		images:    images,
		texts:     texts,
		publisher: publisher,
		login:     login,
		pinger:    pinger,
		cfg:       cfg,
		logger:    logger,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(timeoutMiddleware(cfg.RequestTimeout()))
	r.Use(metrics.Middleware)

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Get("/images/{section}", s.getImage)
		r.Get("/texts", s.listTexts)
		r.Get("/texts/{section}", s.getText)

		r.Group(func(r chi.Router) {
			if cfg.Auth.Enabled {
				r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
			}
			r.Post("/images/{section}", s.uploadImage)
			r.Delete("/images/{section}", s.deleteImage)
			r.Put("/texts/{section}", s.putText)
			r.Delete("/texts/{section}", s.deleteText)
		})
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "metadata store unreachable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("error", rec))
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

func apiKeyMiddleware(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key != expected {
				writeError(w, http.StatusForbidden, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type requestIDKey struct{}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}

// clientIP extracts the remote host for login rate limiting.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// errorResponse is the tagged failure variant of every endpoint; success
// bodies carry their own explicit shape, never inferred by key presence.
type errorResponse struct {
	Error string `json:"error"`
}

func readJSON(r *http.Request, dst any, maxBytes int64) error {
	body := io.LimitReader(r.Body, maxBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// statusForError maps pipeline failures onto HTTP statuses and classified,
// human-readable messages. Internal detail is logged, never returned.
func statusForError(err error) (int, string) {
	var orphaned *content.OrphanedBlobError
	switch {
	case errors.Is(err, content.ErrInvalidSection):
		return http.StatusBadRequest, "unknown section"
	case errors.Is(err, content.ErrDecode):
		return http.StatusUnprocessableEntity, "the file could not be decoded as an image"
	case errors.Is(err, content.ErrTranscode):
		return http.StatusUnprocessableEntity, "the image could not be converted"
	case errors.Is(err, content.ErrConflict):
		return http.StatusConflict, "storage path conflict, retry the upload"
	case errors.As(err, &orphaned):
		return http.StatusBadGateway, "image stored but metadata update failed, retry the upload"
	case errors.Is(err, content.ErrStore):
		return http.StatusBadGateway, "backing store unavailable"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
