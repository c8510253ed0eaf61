// Package server exposes the HTTP boundary: the webhook receiver that
// feeds the review queue and a small read-only API over review records.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/vantage-review/vantage/internal/logging"
	"github.com/vantage-review/vantage/internal/queue"
	"github.com/vantage-review/vantage/internal/store"
)

const defaultListLimit = 50

type Config struct {
	Address       string
	WebhookSecret string
}

type Server struct {
	cfg   Config
	queue *queue.Queue
	store *store.Store
	mux   *http.ServeMux
	srv   *http.Server
}

func New(cfg Config, q *queue.Queue, st *store.Store) *Server {
	if cfg.Address == "" {
		cfg.Address = ":8080"
	}

	s := &Server{
		cfg:   cfg,
		queue: q,
		store: st,
		mux:   http.NewServeMux(),
	}

	s.routes()
	s.srv = &http.Server{
		Addr:              cfg.Address,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the routed mux, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) Start() error {
	logging.Info("http server listening", "address", s.cfg.Address)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.HandleFunc("/webhook", s.handleWebhook)
	s.mux.HandleFunc("/api/v1/reviews", s.handleListReviews)
	s.mux.HandleFunc("/api/v1/reviews/", s.handleGetReview)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	reviews, err := s.store.ListReviews(r.Context(), limit)
	if err != nil {
		logging.Error("listing reviews", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

func (s *Server) handleGetReview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Path[len("/api/v1/reviews/"):]
	if id == "" {
		http.Error(w, "missing review id", http.StatusBadRequest)
		return
	}

	rec, err := s.store.GetReview(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "review not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logging.Error("loading review", "review", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("encoding response", "error", err)
	}
}
