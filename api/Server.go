// Package api exposes the training service over HTTP. The handlers
// are a thin, stateless adapter: every piece of session state lives
// in the session manager, every model configuration in the model
// store, and handlers only translate between JSON and those
// components.
//
// All error responses carry {"detail": "..."} with the status code
// determined by the error's kind: validation and compilation
// failures map to 400, lookups to 404, state conflicts to 409,
// undecodable requests to 422, and anything else to 500.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/samuelfneumann/gotrain/arch"
	"github.com/samuelfneumann/gotrain/dataset"
	"github.com/samuelfneumann/gotrain/modelstore"
	"github.com/samuelfneumann/gotrain/network"
	"github.com/samuelfneumann/gotrain/session"
	"github.com/samuelfneumann/gotrain/train"
)

// Config wires a Server to the components it adapts.
type Config struct {
	Datasets *dataset.Registry
	Models   *modelstore.Store
	Manager  *session.Manager

	// AllowedOrigins configures CORS. Empty means "*".
	AllowedOrigins []string
}

// Server is the HTTP surface over the dataset registry, model store
// and session manager.
type Server struct {
	datasets *dataset.Registry
	models   *modelstore.Store
	manager  *session.Manager
	logger   *zap.Logger
	handler  http.Handler
}

// New builds the server and its route table.
func New(cfg Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		datasets: cfg.Datasets,
		models:   cfg.Models,
		manager:  cfg.Manager,
		logger:   logger,
	}

	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.manager.Registry(),
		promhttp.HandlerOpts{})).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/datasets", s.handleListDatasets).
		Methods(http.MethodGet)
	api.HandleFunc("/datasets/{id}", s.handleGetDataset).
		Methods(http.MethodGet)
	api.HandleFunc("/datasets/{id}/preview", s.handlePreviewDataset).
		Methods(http.MethodGet)
	api.HandleFunc("/templates", s.handleListTemplates).
		Methods(http.MethodGet)
	api.HandleFunc("/templates/{id}", s.handleGetTemplate).
		Methods(http.MethodGet)
	api.HandleFunc("/models", s.handleCreateModel).
		Methods(http.MethodPost)
	api.HandleFunc("/models/{id}", s.handleGetModel).
		Methods(http.MethodGet)
	api.HandleFunc("/models/{model_id}/train", s.handleTrain).
		Methods(http.MethodPost)
	api.HandleFunc("/training/{session_id}/status", s.handleStatus).
		Methods(http.MethodGet)
	api.HandleFunc("/training/{session_id}/pause", s.handlePause).
		Methods(http.MethodPost)
	api.HandleFunc("/training/{session_id}/resume", s.handleResume).
		Methods(http.MethodPost)
	api.HandleFunc("/training/{session_id}/stop", s.handleStop).
		Methods(http.MethodPost)
	api.HandleFunc("/training/{session_id}/predict", s.handlePredict).
		Methods(http.MethodPost)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"*"},
	})

	s.handler = s.logRequests(c.Handler(r))
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// statusWriter captures the response code for the request log.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// logRequests wraps the route table with one structured log line per
// request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter,
		r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Duration("elapsed", time.Since(start)))
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	s.respond(w, http.StatusOK, indexResponse{
		Service: "gotrain",
		Endpoints: map[string]string{
			"health":    "/health",
			"metrics":   "/metrics",
			"datasets":  "/api/datasets",
			"templates": "/api/templates",
			"models":    "/api/models",
			"train":     "/api/models/{model_id}/train",
			"status":    "/api/training/{session_id}/status",
			"predict":   "/api/training/{session_id}/predict",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

type indexResponse struct {
	Service   string            `json:"service"`
	Endpoints map[string]string `json:"endpoints"`
}

type errorBody struct {
	Detail string `json:"detail"`
}

// respond writes a JSON body with the given status.
func (s *Server) respond(w http.ResponseWriter, status int,
	body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("response encode failed", zap.Error(err))
	}
}

// fail maps a component error onto its HTTP status and writes the
// {"detail": ...} body.
func (s *Server) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var (
		verr *arch.ValidationError
		cerr *network.CompilationError
		herr *train.HyperparameterError
	)
	switch {
	case errors.Is(err, dataset.ErrNotFound),
		errors.Is(err, modelstore.ErrModelNotFound),
		errors.Is(err, modelstore.ErrTemplateNotFound),
		errors.Is(err, session.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrActiveSession),
		errors.Is(err, session.ErrIllegalTransition),
		errors.Is(err, session.ErrSessionNotReady),
		errors.Is(err, session.ErrQueueFull):
		status = http.StatusConflict
	case errors.As(err, &verr), errors.As(err, &cerr),
		errors.As(err, &herr):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	s.respond(w, status, errorBody{Detail: err.Error()})
}

// reject writes a client error with an explicit status.
func (s *Server) reject(w http.ResponseWriter, status int,
	detail string) {
	s.respond(w, status, errorBody{Detail: detail})
}

// decodeJSON decodes a request body into dst.
func decodeJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
