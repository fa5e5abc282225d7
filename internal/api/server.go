package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dispatchsim/internal/telemetry"
)

// Server exposes the Manager's runs over HTTP and WebSocket (spec §4
// ambient stack: this is the operator-facing surface around the
// simulation kernel, grounded on backend/server.Server).
type Server struct {
	mgr               *Manager
	wsUpgrader        websocket.Upgrader
	logger            *slog.Logger
	correlationHeader string
	adminEnabled      bool
}

func NewServer(mgr *Manager) *Server {
	return &Server{
		mgr: mgr,
		wsUpgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:            telemetry.Logger(nil),
		correlationHeader: "X-Correlation-ID",
	}
}

func (s *Server) WithAdminEnabled() *Server {
	s.adminEnabled = true
	return s
}

func (s *Server) WithLogger(logger *slog.Logger) *Server {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Routes returns the handler tree: run submission and lookup, WebSocket
// streams for live simulation and GA progress, health/readiness, and the
// Prometheus scrape endpoint.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.wrap(s.handleHealth))
	mux.HandleFunc("/readyz", s.wrap(s.handleReadiness))
	mux.HandleFunc("/api/runs", s.wrap(s.handleRuns))
	mux.HandleFunc("/api/runs/", s.wrap(s.handleRunByID))
	mux.HandleFunc("/ws/sim/", s.wrap(s.handleRunWebSocket))
	mux.HandleFunc("/ws/ga/", s.wrap(s.handleRunWebSocket))
	mux.Handle("/metrics", promhttp.Handler())

	if s.adminEnabled {
		mux.HandleFunc("/admin/debug/pprof/", pprof.Index)
		mux.HandleFunc("/admin/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/admin/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/admin/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/admin/debug/pprof/trace", pprof.Trace)
	}
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		run, err := s.mgr.Submit(r.Context(), req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(run.snapshot())
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(s.mgr.List())
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleRunByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/runs/")
	run, ok := s.mgr.Get(id)
	if !ok {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(run.snapshot())
}

func (s *Server) handleRunWebSocket(w http.ResponseWriter, r *http.Request) {
	id := lastPathSegment(r.URL.Path)
	run, ok := s.mgr.Get(id)
	if !ok {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}

	conn, err := s.wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "err", err, "correlation_id", correlationIDFromContext(r.Context()))
		return
	}
	defer conn.Close()

	sub := run.Subscribe()
	defer run.Unsubscribe(sub)

	for {
		select {
		case <-r.Context().Done():
			return
		case frame, ok := <-sub:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		}
	}
}

func lastPathSegment(path string) string {
	path = strings.TrimSuffix(path, "/")
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return path
	}
	return path[idx+1:]
}

// statusRecorder lets the request logger observe the status code a handler
// wrote, since http.ResponseWriter doesn't expose it directly.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.status = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}
