// Package server provides the HTTP API: webhook intake, sync triggers with
// live progress streams, print job operator actions, and a thin passthrough
// to the source API for the admin screens.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/printlijst/printlijst/internal/core/config"
	"github.com/printlijst/printlijst/internal/goedgepickt"
	"github.com/printlijst/printlijst/internal/logstream"
	"github.com/printlijst/printlijst/internal/sync"
	"github.com/printlijst/printlijst/internal/types"
)

// Store is the persistence surface the handlers need. Implemented by
// *store.Store.
type Store interface {
	ListPrintJobs() ([]types.PrintJob, error)
	PrintJobByID(id types.JobID) (*types.PrintJob, error)
	PrintJobsByOrder(orderUUID string) ([]types.PrintJob, error)
	StartJob(id types.JobID, now time.Time) error
	CompleteJob(id types.JobID, completedBy string, now time.Time) error
	SetMissingFile(id types.JobID, missing bool) error
	Setting(key string) (string, error)
	SetSetting(key, value string) error
}

// Syncer triggers sync runs. Implemented by *sync.Orchestrator.
type Syncer interface {
	RunOrderSync(ctx context.Context) (*sync.Summary, error)
	RunStatusSync(ctx context.Context) (*sync.Summary, error)
	RunTagSync(ctx context.Context) (*sync.Summary, error)
	RunPrioritySync(ctx context.Context) (*sync.Summary, error)
	HandleOrderEvent(ctx context.Context, orderUUID, status string) (*sync.Summary, error)
	Stream(kind sync.Kind) *logstream.Broadcaster
}

// Source is the passthrough slice of the source API. Implemented by
// *goedgepickt.Client.
type Source interface {
	GetOrder(ctx context.Context, orderUUID string) (*goedgepickt.Order, error)
	GetOrders(ctx context.Context, filter goedgepickt.OrderFilter) ([]goedgepickt.Order, goedgepickt.PageInfo, error)
	TestConnection(ctx context.Context) error
}

// Server wires the HTTP routes to the store, the sync orchestrator, and the
// source client.
type Server struct {
	cfg    *config.Config
	store  Store
	syncer Syncer
	source Source
	log    zerolog.Logger
	router *chi.Mux
	httpd  *http.Server
}

// New creates the server and mounts all routes.
func New(cfg *config.Config, store Store, syncer Syncer, source Source, log zerolog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		store:  store,
		syncer: syncer,
		source: source,
		log:    log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/webhook", s.handleWebhookInfo)
		r.Post("/webhook", s.handleWebhook)
		r.Post("/webhook/test", s.handleWebhookTest)

		r.Route("/sync", func(r chi.Router) {
			r.Post("/orders", s.handleSyncRun(sync.KindOrders))
			r.Post("/status", s.handleSyncRun(sync.KindStatus))
			r.Post("/tags", s.handleSyncRun(sync.KindTags))
			r.Post("/priorities", s.handleSyncRun(sync.KindPriorities))
			r.Get("/logs/{kind}", s.handleSyncLogs)
		})

		r.Route("/printjobs", func(r chi.Router) {
			r.Get("/", s.handleListPrintJobs)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetPrintJob)
				r.Post("/start", s.handleStartPrintJob)
				r.Post("/complete", s.handleCompletePrintJob)
				r.Post("/missing-file", s.handleMissingFile)
			})
		})

		r.Route("/goedgepickt", func(r chi.Router) {
			r.Get("/statuses", s.handleSourceStatuses)
			r.Get("/orders/{uuid}", s.handleSourceOrder)
			r.Post("/test", s.handleSourceTest)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Put("/api-key", s.handleSetAPIKey)
		})
	})

	s.router = r
}

// ServeHTTP makes the server usable directly in tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start binds the listener and serves until Shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.httpd = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info().Str("addr", addr).Msg("http server listening")
	err := s.httpd.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpd == nil {
		return nil
	}
	return s.httpd.Shutdown(ctx)
}

// requestLogger logs one line per request through zerolog.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
