package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"cryptoinfo-bot/internal/commands"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// StatsProvider reports the bot's shared limiter and cache state.
type StatsProvider interface {
	Stats() commands.Stats
}

type Config struct {
	Port     int
	Gatherer prometheus.Gatherer
	Status   StatsProvider
	// WebhookPath and Webhook are only set in webhook mode.
	WebhookPath string
	Webhook     http.Handler
}

// Server serves health, metrics and the Telegram webhook.
type Server struct {
	router *chi.Mux
	server *http.Server
	port   int
}

func New(c Config) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthCheckHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(c.Gatherer, promhttp.HandlerOpts{}))
	if c.Status != nil {
		r.Get("/status", statusHandler(c.Status))
	}
	if c.Webhook != nil && c.WebhookPath != "" {
		r.Method(http.MethodPost, c.WebhookPath, c.Webhook)
	}

	return &Server{router: r, port: c.Port}
}

// Run serves until ctx is done, then shuts the listener down.
func (s *Server) Run(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Launching metrics and health endpoint on :%d", s.port)
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "http server stopped")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return errors.Wrap(s.server.Shutdown(shutdownCtx), "http server shutdown")
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func healthCheckHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func statusHandler(status StatsProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(status.Stats()); err != nil {
			log.Errorf("Failed to write status: %v", err)
		}
	}
}
