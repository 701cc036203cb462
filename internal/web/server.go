package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/vbonduro/mealledger/internal/service"
)

type Server struct {
	users    *service.UserService
	ledger   *service.LedgerService
	history  *service.HistoryService
	analysis *service.AnalysisService
	mux      *http.ServeMux
	logger   *slog.Logger
}

func NewServer(
	users *service.UserService,
	ledger *service.LedgerService,
	history *service.HistoryService,
	analysis *service.AnalysisService,
	logger *slog.Logger,
) *Server {
	s := &Server{
		users:    users,
		ledger:   ledger,
		history:  history,
		analysis: analysis,
		mux:      http.NewServeMux(),
		logger:   logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.mux.HandleFunc("POST /users", s.handleRegister)
	s.mux.HandleFunc("POST /login", s.handleLogin)
	s.mux.HandleFunc("GET /users/{id}", s.handleGetUser)
	s.mux.HandleFunc("PUT /users/{id}/profile", s.handleUpdateProfile)

	s.mux.HandleFunc("GET /users/{id}/today", s.handleGetToday)
	s.mux.HandleFunc("POST /users/{id}/meals/{slot}/items", s.handleAddItem)
	s.mux.HandleFunc("DELETE /users/{id}/meals/{slot}/items/{itemID}", s.handleRemoveItem)
	s.mux.HandleFunc("PATCH /users/{id}/meals/{slot}/items/{itemID}", s.handleResizeItem)

	s.mux.HandleFunc("POST /users/{id}/analyze/photo", s.handleAnalyzePhoto)
	s.mux.HandleFunc("POST /users/{id}/analyze/text", s.handleAnalyzeText)

	s.mux.HandleFunc("GET /users/{id}/history", s.handleListHistory)
	s.mux.HandleFunc("POST /users/{id}/history", s.handleAppendHistory)
	s.mux.HandleFunc("DELETE /users/{id}/history/{entryID}", s.handleRemoveHistory)
	s.mux.HandleFunc("GET /users/{id}/history/{entryID}/image", s.handleHistoryImage)
	s.mux.HandleFunc("POST /users/{id}/history/{entryID}/meals/{slot}", s.handleHistoryToMeal)
}

// securityHeaders adds defensive HTTP response headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", "default-src 'none'; img-src 'self'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, securityHeaders(s.mux)).ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight
// requests for up to ten seconds.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
